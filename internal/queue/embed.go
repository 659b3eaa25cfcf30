package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/engineer42AI/regtrace/pkg/ai"
	"github.com/engineer42AI/regtrace/pkg/corpus"
	"github.com/engineer42AI/regtrace/pkg/graph"
	"github.com/engineer42AI/regtrace/pkg/logger"
	"github.com/engineer42AI/regtrace/pkg/outline"
	pgxstore "github.com/engineer42AI/regtrace/pkg/store/pgx"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
	"golang.org/x/sync/errgroup"
)

const embedParallelism = 4

// EmbedJobMsg is the payload of an embed_queue message.
type EmbedJobMsg struct {
	CorpusID     string `json:"corpus_id"`
	CorpusPrefix string `json:"corpus_prefix"`
}

// ProcessEmbedMessage embeds every section of a corpus for the section
// recommendation endpoint. The embedding input is the section label
// plus the text of its paragraphs.
func ProcessEmbedMessage(
	ctx context.Context,
	s3Client *s3.Client,
	aiClient ai.ModelClient,
	ch *amqp091.Channel,
	pgConn *pgxpool.Pool,
	msgBody string,
) error {
	var job EmbedJobMsg
	if err := json.Unmarshal([]byte(msgBody), &job); err != nil {
		return fmt.Errorf("failed to unmarshal embed job: %w", err)
	}
	if job.CorpusID == "" {
		return fmt.Errorf("embed job missing corpus_id")
	}

	src := corpus.S3Source{Client: s3Client, Prefix: job.CorpusPrefix}
	g, _, err := corpus.Load(ctx, src, graph.IngestOptions{Policy: graph.Strict})
	if err != nil {
		return fmt.Errorf("failed to load corpus %s: %w", job.CorpusID, err)
	}

	o := outline.Build(g)
	runStore := pgxstore.New(pgConn)

	var sections []embedSection
	collectSections(o.Root, &sections)

	eg, gCtx := errgroup.WithContext(ctx)
	eg.SetLimit(embedParallelism)
	for _, sec := range sections {
		s := sec
		eg.Go(func() error {
			embedding, err := aiClient.GenerateEmbedding(gCtx, []byte(s.text))
			if err != nil {
				return fmt.Errorf("failed to embed section %s: %w", s.id, err)
			}
			return runStore.UpsertSectionEmbedding(gCtx, job.CorpusID, s.id, s.label, embedding)
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	logger.Info("[Embed] Corpus embedded", "corpus_id", job.CorpusID, "sections", len(sections))
	return nil
}

type embedSection struct {
	id, label, text string
}

func collectSections(n *outline.Node, out *[]embedSection) {
	if n == nil {
		return
	}
	if n.Kind == graph.KindSection {
		var b strings.Builder
		b.WriteString(n.Label)
		appendParagraphText(n, &b)
		*out = append(*out, embedSection{n.ID, n.Label, b.String()})
		return
	}
	for _, child := range n.Children {
		collectSections(child, out)
	}
}

func appendParagraphText(n *outline.Node, b *strings.Builder) {
	for _, child := range n.Children {
		if child.Text != "" {
			b.WriteString("\n")
			b.WriteString(child.Text)
		}
		appendParagraphText(child, b)
	}
}
