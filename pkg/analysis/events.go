package analysis

import (
	"encoding/json"
	"io"
	"time"
)

// Event types of the scan stream, in emission order of a run. Consumers
// that only merge results can ignore everything but item_done.
const (
	EventRunStart      = "run_start"
	EventBatchHeader   = "batch_header"
	EventBatchStart    = "batch_start"
	EventItemDone      = "item_done"
	EventBatchProgress = "batch_progress"
	EventBatchEnd      = "batch_end"
	EventRunEnd        = "run_end"
	EventError         = "error"
)

// Pricing is the per-million-token price pair used for cost estimates.
type Pricing struct {
	Input  float64 `json:"input"`
	Output float64 `json:"output"`
}

// Response is the model's verdict for one trace. A terminal agent
// failure sets Error and leaves Relevant nil.
type Response struct {
	Relevant  *bool  `json:"relevant,omitempty"`
	Rationale string `json:"rationale,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Usage is token and cost accounting for one item.
type Usage struct {
	TokensIn    int     `json:"tokens_in"`
	TokensOut   int     `json:"tokens_out"`
	TotalTokens int     `json:"total_tokens"`
	InputCost   float64 `json:"input_cost"`
	OutputCost  float64 `json:"output_cost"`
	TotalCost   float64 `json:"total_cost"`
}

// ItemResult is the payload of one item_done event.
type ItemResult struct {
	TraceID  int      `json:"trace_id"`
	BottomID string   `json:"bottom_id"`
	Response Response `json:"response"`
	Usage    Usage    `json:"usage"`
}

// Summary closes a run in the run_end event.
type Summary struct {
	Model                string  `json:"model"`
	Query                string  `json:"query"`
	TotalTraces          int     `json:"total_traces"`
	BatchSizeParallelism int     `json:"batch_size_parallelism"`
	NumBatches           int     `json:"num_batches"`
	TokensIn             int     `json:"tokens_in"`
	TokensOut            int     `json:"tokens_out"`
	EstimatedCost        float64 `json:"estimated_cost"`
	PricingPerMillion    Pricing `json:"pricing_per_million"`
}

// Event is one line of the scan stream. Fields are a union over all
// event types; unused fields stay empty and are omitted on the wire.
type Event struct {
	Type string  `json:"type"`
	TS   float64 `json:"ts,omitempty"`

	// run_start
	RunID             string   `json:"run_id,omitempty"`
	Model             string   `json:"model,omitempty"`
	Query             string   `json:"query,omitempty"`
	TotalTraces       int      `json:"total_traces,omitempty"`
	BatchSize         int      `json:"batch_size,omitempty"`
	NumBatches        int      `json:"num_batches,omitempty"`
	PricingPerMillion *Pricing `json:"pricing_per_million,omitempty"`

	// batch_header, batch_start, batch_end
	Index int `json:"index,omitempty"`
	Of    int `json:"of,omitempty"`
	Size  int `json:"size,omitempty"`

	// item_done, batch_progress
	Done  int         `json:"done,omitempty"`
	Total int         `json:"total,omitempty"`
	Item  *ItemResult `json:"item,omitempty"`

	// batch_progress, batch_end
	TokensIn  int     `json:"tokens_in,omitempty"`
	TokensOut int     `json:"tokens_out,omitempty"`
	BatchCost float64 `json:"batch_cost,omitempty"`
	ElapsedS  float64 `json:"elapsed_s,omitempty"`

	// run_end
	Summary *Summary `json:"summary,omitempty"`

	// error
	Message string `json:"message,omitempty"`
}

// EmitFunc receives each event of a run. Returning an error stops the
// run; the runner treats it like a cancelled context.
type EmitFunc func(Event) error

// NDJSONEmitter writes events as one JSON object per line. flush may be
// nil; when set it is called after every line so streaming consumers
// see events as they happen.
func NDJSONEmitter(w io.Writer, flush func()) EmitFunc {
	enc := json.NewEncoder(w)
	return func(e Event) error {
		if err := enc.Encode(e); err != nil {
			return err
		}
		if flush != nil {
			flush()
		}
		return nil
	}
}

func now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
