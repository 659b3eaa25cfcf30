package pgx

import (
	"context"
	"errors"

	"github.com/engineer42AI/regtrace/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
)

const createRunSQL = `
INSERT INTO scan_runs (id, corpus_id, query, model, status, total_traces, tokens_in, tokens_out, estimated_cost)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

const updateRunStatusSQL = `
UPDATE scan_runs SET status = $2 WHERE id = $1
`

const finishRunSQL = `
UPDATE scan_runs
SET status = $2,
    total_traces = $3,
    tokens_in = $4,
    tokens_out = $5,
    estimated_cost = $6,
    finished_at = now()
WHERE id = $1
`

const getRunSQL = `
SELECT id, corpus_id, query, model, status, total_traces, tokens_in, tokens_out, estimated_cost, created_at, finished_at
FROM scan_runs
WHERE id = $1
`

const listRunsSQL = `
SELECT id, corpus_id, query, model, status, total_traces, tokens_in, tokens_out, estimated_cost, created_at, finished_at
FROM scan_runs
WHERE corpus_id = $1
ORDER BY created_at DESC
`

func (s *RunDBStore) CreateRun(ctx context.Context, run store.ScanRun) error {
	if run.Status == "" {
		run.Status = store.RunStatusPending
	}
	_, err := s.conn.Exec(ctx, createRunSQL,
		run.ID, run.CorpusID, run.Query, run.Model, run.Status,
		run.TotalTraces, run.TokensIn, run.TokensOut, run.EstimatedCost,
	)
	return err
}

func (s *RunDBStore) UpdateRunStatus(ctx context.Context, id string, status string) error {
	tag, err := s.conn.Exec(ctx, updateRunStatusSQL, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RunDBStore) FinishRun(
	ctx context.Context,
	id string,
	status string,
	totalTraces, tokensIn, tokensOut int,
	cost float64,
) error {
	tag, err := s.conn.Exec(ctx, finishRunSQL, id, status, totalTraces, tokensIn, tokensOut, cost)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RunDBStore) GetRun(ctx context.Context, id string) (store.ScanRun, error) {
	var run store.ScanRun
	err := s.conn.QueryRow(ctx, getRunSQL, id).Scan(
		&run.ID, &run.CorpusID, &run.Query, &run.Model, &run.Status,
		&run.TotalTraces, &run.TokensIn, &run.TokensOut, &run.EstimatedCost,
		&run.CreatedAt, &run.FinishedAt,
	)
	if err != nil {
		if errors.Is(err, pgxv5.ErrNoRows) {
			return store.ScanRun{}, ErrNotFound
		}
		return store.ScanRun{}, err
	}
	return run, nil
}

func (s *RunDBStore) ListRuns(ctx context.Context, corpusID string) ([]store.ScanRun, error) {
	rows, err := s.conn.Query(ctx, listRunsSQL, corpusID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]store.ScanRun, 0)
	for rows.Next() {
		var run store.ScanRun
		if err := rows.Scan(
			&run.ID, &run.CorpusID, &run.Query, &run.Model, &run.Status,
			&run.TotalTraces, &run.TokensIn, &run.TokensOut, &run.EstimatedCost,
			&run.CreatedAt, &run.FinishedAt,
		); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
