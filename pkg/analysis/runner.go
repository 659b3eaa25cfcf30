package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/engineer42AI/regtrace/internal/util"
	"github.com/engineer42AI/regtrace/pkg/ai"
	"github.com/engineer42AI/regtrace/pkg/logger"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBatchSize is the per-batch parallelism of a scan run.
	DefaultBatchSize = 8

	defaultMaxAttempts = 5
	backoffBase        = 600 * time.Millisecond
	backoffCap         = 6 * time.Second
)

// DefaultPricing is the per-million-token price pair assumed when a
// caller does not configure one.
var DefaultPricing = Pricing{Input: 0.15, Output: 0.60}

// RunConfig configures one relevance scan run.
type RunConfig struct {
	RunID       string
	Model       string
	Query       string
	BatchSize   int
	Pricing     Pricing
	MaxAttempts int
}

func (c *RunConfig) applyDefaults() {
	if c.RunID == "" {
		c.RunID = util.NewRunID()
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Pricing == (Pricing{}) {
		c.Pricing = DefaultPricing
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
}

// Runner executes relevance scans over trace items with one AI client.
type Runner struct {
	client ai.ModelClient
}

// NewRunner returns a runner backed by the given client.
func NewRunner(client ai.ModelClient) *Runner {
	return &Runner{client: client}
}

// relevanceVerdict is the schema-constrained model response.
type relevanceVerdict struct {
	Relevant  bool   `json:"relevant" jsonschema_description:"Whether this requirement trace is relevant to the question"`
	Rationale string `json:"rationale" jsonschema_description:"Short rationale grounded in the trace content"`
}

// Run judges every item against cfg.Query and emits the event stream.
// Batches run sequentially; items inside a batch run in parallel up to
// the batch size. Item failures degrade to error-envelope items, only a
// failing emit or a cancelled context aborts the run. The returned
// summary matches the one carried by the run_end event.
func (r *Runner) Run(
	ctx context.Context,
	cfg RunConfig,
	items []Item,
	emit EmitFunc,
) (Summary, error) {
	cfg.applyDefaults()

	batches := chunk(items, cfg.BatchSize)
	summary := Summary{
		Model:                cfg.Model,
		Query:                cfg.Query,
		TotalTraces:          len(items),
		BatchSizeParallelism: cfg.BatchSize,
		NumBatches:           len(batches),
		PricingPerMillion:    cfg.Pricing,
	}

	logger.Info("[Scan] Starting run",
		"run_id", cfg.RunID, "total_traces", len(items), "batches", len(batches))

	err := emit(Event{
		Type:              EventRunStart,
		TS:                now(),
		RunID:             cfg.RunID,
		Model:             cfg.Model,
		Query:             cfg.Query,
		TotalTraces:       len(items),
		BatchSize:         cfg.BatchSize,
		NumBatches:        len(batches),
		PricingPerMillion: &cfg.Pricing,
	})
	if err != nil {
		return summary, err
	}

	var (
		emitLock sync.Mutex
		done     int
	)

	for bi, batch := range batches {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		if err := emit(Event{
			Type: EventBatchHeader, TS: now(),
			Index: bi + 1, Of: len(batches), Size: len(batch),
		}); err != nil {
			return summary, err
		}
		if err := emit(Event{Type: EventBatchStart, TS: now(), Size: len(batch)}); err != nil {
			return summary, err
		}

		batchStart := time.Now()
		batchTokensIn, batchTokensOut := 0, 0
		batchCost := 0.0

		eg, gCtx := errgroup.WithContext(ctx)
		eg.SetLimit(cfg.BatchSize)

		for _, item := range batch {
			it := item
			eg.Go(func() error {
				result := r.judge(gCtx, cfg, it)

				emitLock.Lock()
				defer emitLock.Unlock()
				done++
				batchTokensIn += result.Usage.TokensIn
				batchTokensOut += result.Usage.TokensOut
				batchCost += result.Usage.TotalCost
				return emit(Event{
					Type: EventItemDone, TS: now(),
					Done: done, Total: len(items), Item: &result,
				})
			})
		}
		if err := eg.Wait(); err != nil {
			return summary, err
		}

		summary.TokensIn += batchTokensIn
		summary.TokensOut += batchTokensOut
		summary.EstimatedCost += batchCost
		elapsed := time.Since(batchStart).Seconds()

		if err := emit(Event{
			Type: EventBatchProgress, TS: now(),
			Done: done, Total: len(items),
			TokensIn: batchTokensIn, TokensOut: batchTokensOut,
			BatchCost: batchCost, ElapsedS: elapsed,
		}); err != nil {
			return summary, err
		}
		if err := emit(Event{
			Type: EventBatchEnd, TS: now(),
			ElapsedS: elapsed, TokensIn: batchTokensIn, TokensOut: batchTokensOut,
			BatchCost: batchCost, Size: len(batch),
		}); err != nil {
			return summary, err
		}
	}

	if err := emit(Event{Type: EventRunEnd, TS: now(), Summary: &summary}); err != nil {
		return summary, err
	}

	logger.Info("[Scan] Run finished",
		"run_id", cfg.RunID, "traces", len(items), "cost", summary.EstimatedCost)

	return summary, nil
}

// judge asks the model for one verdict, retrying with backoff. Terminal
// failure returns an error-envelope item with zero usage so the run
// keeps going.
func (r *Runner) judge(ctx context.Context, cfg RunConfig, item Item) ItemResult {
	prompt := fmt.Sprintf(ai.RelevancePrompt, cfg.Query, item.Block)

	opts := []ai.GenerateOption{
		ai.WithSystemPrompts(ai.RelevanceSystemPrompt),
	}
	if cfg.Model != "" {
		opts = append(opts, ai.WithModel(cfg.Model))
	}

	verdict, err := util.RetryBackoff(ctx, cfg.MaxAttempts, backoffBase, backoffCap,
		func(ctx context.Context) (relevanceVerdict, error) {
			var v relevanceVerdict
			err := r.client.GenerateCompletionWithFormat(
				ctx,
				"relevance_verdict",
				"Relevance verdict for one requirement trace",
				prompt,
				&v,
				opts...,
			)
			return v, err
		})
	if err != nil {
		logger.Warn("[Scan] Trace failed",
			"run_id", cfg.RunID, "bottom_id", item.BottomID, "error", err)
		return ItemResult{
			TraceID:  item.TraceID,
			BottomID: item.BottomID,
			Response: Response{Error: "agent_call_failed"},
		}
	}

	usage := r.usageFor(prompt, verdict.Rationale, cfg.Pricing)
	relevant := verdict.Relevant
	return ItemResult{
		TraceID:  item.TraceID,
		BottomID: item.BottomID,
		Response: Response{Relevant: &relevant, Rationale: verdict.Rationale},
		Usage:    usage,
	}
}

// usageFor estimates per-item token usage. The client interface only
// exposes run-wide metrics, so per-item numbers come from the local
// tokenizer and stay consistent across backends.
func (r *Runner) usageFor(prompt, output string, pricing Pricing) Usage {
	tokensIn, err := ai.EstimateTokens(prompt)
	if err != nil {
		tokensIn = 0
	}
	tokensOut, err := ai.EstimateTokens(output)
	if err != nil {
		tokensOut = 0
	}

	inputCost := float64(tokensIn) / 1_000_000 * pricing.Input
	outputCost := float64(tokensOut) / 1_000_000 * pricing.Output
	return Usage{
		TokensIn:    tokensIn,
		TokensOut:   tokensOut,
		TotalTokens: tokensIn + tokensOut,
		InputCost:   inputCost,
		OutputCost:  outputCost,
		TotalCost:   inputCost + outputCost,
	}
}

func chunk(items []Item, size int) [][]Item {
	if len(items) == 0 {
		return nil
	}
	var batches [][]Item
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
