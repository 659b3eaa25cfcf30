package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/engineer42AI/regtrace/pkg/ai"
	"github.com/engineer42AI/regtrace/pkg/analysis"
	"github.com/engineer42AI/regtrace/pkg/corpus"
	"github.com/engineer42AI/regtrace/pkg/graph"
	"github.com/engineer42AI/regtrace/pkg/leaselock"
	"github.com/engineer42AI/regtrace/pkg/logger"
	"github.com/engineer42AI/regtrace/pkg/outline"
	"github.com/engineer42AI/regtrace/pkg/store"
	pgxstore "github.com/engineer42AI/regtrace/pkg/store/pgx"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
)

// ScanJobMsg is the payload of a scan_queue message. CorpusPrefix is
// the bundle's key prefix in the S3 bucket.
type ScanJobMsg struct {
	RunID        string `json:"run_id"`
	CorpusID     string `json:"corpus_id"`
	CorpusPrefix string `json:"corpus_prefix"`
	Query        string `json:"query"`
	Model        string `json:"model,omitempty"`
	BatchSize    int    `json:"batch_size,omitempty"`
}

// ProcessScanMessage runs one relevance scan end to end: it loads the
// bundle from S3, builds the trace items, judges them and persists
// every verdict. Progress events are broadcast on the pubsub exchange
// so open frontend sessions can follow along.
func ProcessScanMessage(
	ctx context.Context,
	s3Client *s3.Client,
	aiClient ai.ModelClient,
	ch *amqp091.Channel,
	pgConn *pgxpool.Pool,
	msgBody string,
) error {
	var job ScanJobMsg
	if err := json.Unmarshal([]byte(msgBody), &job); err != nil {
		return fmt.Errorf("failed to unmarshal scan job: %w", err)
	}
	if job.RunID == "" || job.CorpusID == "" || job.Query == "" {
		return fmt.Errorf("scan job missing run_id, corpus_id or query")
	}

	runStore := pgxstore.New(pgConn)

	// One scan per corpus at a time. A busy lock sends the message to
	// the retry queue, it comes back once the running scan finishes.
	locks := leaselock.New(pgConn)
	return locks.WithLease(ctx, "scan:"+job.CorpusID, leaselock.Options{}, func(ctx context.Context) error {
		return runScan(ctx, s3Client, aiClient, ch, runStore, job)
	})
}

func runScan(
	ctx context.Context,
	s3Client *s3.Client,
	aiClient ai.ModelClient,
	ch *amqp091.Channel,
	runStore *pgxstore.RunDBStore,
	job ScanJobMsg,
) error {
	src := corpus.S3Source{Client: s3Client, Prefix: job.CorpusPrefix}
	g, _, err := corpus.Load(ctx, src, graph.IngestOptions{Policy: graph.Strict})
	if err != nil {
		return fmt.Errorf("failed to load corpus %s: %w", job.CorpusID, err)
	}

	o := outline.Build(g)
	rows, lookups := outline.SectionTraces(g, o)
	items := analysis.BuildItems(g, rows)

	if err := runStore.UpdateRunStatus(ctx, job.RunID, store.RunStatusRunning); err != nil {
		return fmt.Errorf("failed to mark run running: %w", err)
	}

	sectionOf := make(map[string]string, len(lookups))
	for bottomID, lookup := range lookups {
		sectionOf[bottomID] = lookup.SectionID
	}

	emit := func(e analysis.Event) error {
		if e.Type == analysis.EventItemDone && e.Item != nil {
			res := store.ScanResult{
				RunID:     job.RunID,
				TraceID:   e.Item.TraceID,
				BottomID:  e.Item.BottomID,
				SectionID: sectionOf[e.Item.BottomID],
				Relevant:  e.Item.Response.Relevant,
				Rationale: e.Item.Response.Rationale,
				Error:     e.Item.Response.Error,
				TokensIn:  e.Item.Usage.TokensIn,
				TokensOut: e.Item.Usage.TokensOut,
				Cost:      e.Item.Usage.TotalCost,
			}
			if err := runStore.SaveResult(ctx, res); err != nil {
				return fmt.Errorf("failed to save result for trace %d: %w", e.Item.TraceID, err)
			}
		}

		payload, err := json.Marshal(e)
		if err != nil {
			return err
		}
		if err := PublishTopic(ch, "scan.progress."+job.RunID, payload); err != nil {
			// Progress fanout is best effort, the persisted results
			// remain the source of truth.
			logger.Warn("[Scan] Failed to broadcast progress", "run_id", job.RunID, "err", err)
		}
		return nil
	}

	runner := analysis.NewRunner(aiClient)
	summary, err := runner.Run(ctx, analysis.RunConfig{
		RunID:     job.RunID,
		Model:     job.Model,
		Query:     job.Query,
		BatchSize: job.BatchSize,
	}, items, emit)
	if err != nil {
		if ferr := runStore.FinishRun(context.WithoutCancel(ctx), job.RunID, store.RunStatusFailed,
			summary.TotalTraces, summary.TokensIn, summary.TokensOut, summary.EstimatedCost); ferr != nil {
			logger.Error("[Scan] Failed to mark run failed", "run_id", job.RunID, "err", ferr)
		}
		return fmt.Errorf("scan run %s failed: %w", job.RunID, err)
	}

	if err := runStore.FinishRun(ctx, job.RunID, store.RunStatusCompleted,
		summary.TotalTraces, summary.TokensIn, summary.TokensOut, summary.EstimatedCost); err != nil {
		return fmt.Errorf("failed to finish run %s: %w", job.RunID, err)
	}

	logger.Info("[Scan] Run completed",
		"run_id", job.RunID, "corpus_id", job.CorpusID,
		"traces", summary.TotalTraces, "cost", summary.EstimatedCost)
	return nil
}
