package store

import (
	"context"
	"time"
)

// Run statuses as persisted. A run moves pending -> running -> completed
// or failed; cancelled covers client aborts of a streaming scan.
const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
	RunStatusCancelled = "cancelled"
)

// ScanRun is one relevance scan over a corpus.
type ScanRun struct {
	ID            string
	CorpusID      string
	Query         string
	Model         string
	Status        string
	TotalTraces   int
	TokensIn      int
	TokensOut     int
	EstimatedCost float64
	CreatedAt     time.Time
	FinishedAt    *time.Time
}

// ScanResult is the persisted verdict for a single trace of a run.
// Relevant is nil when the agent call failed terminally; Error then
// carries the failure marker.
type ScanResult struct {
	RunID     string
	TraceID   int
	BottomID  string
	SectionID string
	Relevant  *bool
	Rationale string
	Error     string
	TokensIn  int
	TokensOut int
	Cost      float64
}

// RunCounts aggregates result rows for progress reporting.
type RunCounts struct {
	Total     int
	Completed int
	Failed    int
}

// RecommendedSection is a section ranked by embedding similarity to a
// query. Distance is the cosine distance, smaller is closer.
type RecommendedSection struct {
	SectionID string
	Label     string
	Distance  float64
}

// RunStore persists scan runs, their per-trace results and section
// embeddings used for recommendations.
type RunStore interface {
	CreateRun(ctx context.Context, run ScanRun) error
	UpdateRunStatus(ctx context.Context, id string, status string) error
	FinishRun(ctx context.Context, id string, status string, totalTraces, tokensIn, tokensOut int, cost float64) error
	GetRun(ctx context.Context, id string) (ScanRun, error)
	ListRuns(ctx context.Context, corpusID string) ([]ScanRun, error)

	SaveResult(ctx context.Context, res ScanResult) error
	ListResults(ctx context.Context, runID string) ([]ScanResult, error)
	CountResults(ctx context.Context, runID string) (RunCounts, error)

	UpsertSectionEmbedding(ctx context.Context, corpusID, sectionID, label string, embedding []float32) error
	RecommendSections(ctx context.Context, corpusID string, embedding []float32, limit int) ([]RecommendedSection, error)
}
