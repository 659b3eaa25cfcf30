package pgx

import (
	"context"

	"github.com/engineer42AI/regtrace/internal/util"
	"github.com/engineer42AI/regtrace/pkg/store"
)

const saveResultSQL = `
INSERT INTO scan_results (run_id, trace_id, bottom_id, section_id, relevant, rationale, error, tokens_in, tokens_out, cost)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (run_id, trace_id) DO UPDATE
SET relevant = EXCLUDED.relevant,
    rationale = EXCLUDED.rationale,
    error = EXCLUDED.error,
    tokens_in = EXCLUDED.tokens_in,
    tokens_out = EXCLUDED.tokens_out,
    cost = EXCLUDED.cost
`

const listResultsSQL = `
SELECT run_id, trace_id, bottom_id, section_id, relevant, rationale, error, tokens_in, tokens_out, cost
FROM scan_results
WHERE run_id = $1
ORDER BY trace_id
`

const countResultsSQL = `
SELECT
    count(*),
    count(*) FILTER (WHERE error = ''),
    count(*) FILTER (WHERE error <> '')
FROM scan_results
WHERE run_id = $1
`

func (s *RunDBStore) SaveResult(ctx context.Context, res store.ScanResult) error {
	_, err := s.conn.Exec(ctx, saveResultSQL,
		res.RunID, res.TraceID, res.BottomID, res.SectionID,
		res.Relevant, util.SanitizePostgresText(res.Rationale), res.Error,
		res.TokensIn, res.TokensOut, res.Cost,
	)
	return err
}

func (s *RunDBStore) ListResults(ctx context.Context, runID string) ([]store.ScanResult, error) {
	rows, err := s.conn.Query(ctx, listResultsSQL, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]store.ScanResult, 0)
	for rows.Next() {
		var res store.ScanResult
		if err := rows.Scan(
			&res.RunID, &res.TraceID, &res.BottomID, &res.SectionID,
			&res.Relevant, &res.Rationale, &res.Error,
			&res.TokensIn, &res.TokensOut, &res.Cost,
		); err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

func (s *RunDBStore) CountResults(ctx context.Context, runID string) (store.RunCounts, error) {
	var counts store.RunCounts
	err := s.conn.QueryRow(ctx, countResultsSQL, runID).
		Scan(&counts.Total, &counts.Completed, &counts.Failed)
	if err != nil {
		return store.RunCounts{}, err
	}
	return counts, nil
}
