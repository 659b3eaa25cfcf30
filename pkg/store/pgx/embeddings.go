package pgx

import (
	"context"

	"github.com/engineer42AI/regtrace/pkg/store"

	"github.com/pgvector/pgvector-go"
)

const upsertSectionEmbeddingSQL = `
INSERT INTO section_embeddings (corpus_id, section_id, label, embedding)
VALUES ($1, $2, $3, $4)
ON CONFLICT (corpus_id, section_id) DO UPDATE
SET label = EXCLUDED.label,
    embedding = EXCLUDED.embedding
`

const recommendSectionsSQL = `
SELECT section_id, label, embedding <=> $2 AS distance
FROM section_embeddings
WHERE corpus_id = $1
ORDER BY embedding <=> $2
LIMIT $3
`

func (s *RunDBStore) UpsertSectionEmbedding(
	ctx context.Context,
	corpusID, sectionID, label string,
	embedding []float32,
) error {
	_, err := s.conn.Exec(ctx, upsertSectionEmbeddingSQL,
		corpusID, sectionID, label, pgvector.NewVector(embedding),
	)
	return err
}

func (s *RunDBStore) RecommendSections(
	ctx context.Context,
	corpusID string,
	embedding []float32,
	limit int,
) ([]store.RecommendedSection, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.conn.Query(ctx, recommendSectionsSQL, corpusID, pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sections := make([]store.RecommendedSection, 0, limit)
	for rows.Next() {
		var sec store.RecommendedSection
		if err := rows.Scan(&sec.SectionID, &sec.Label, &sec.Distance); err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}
