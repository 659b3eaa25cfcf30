package routes

import (
	"context"
	"path"
	"sync"

	"github.com/engineer42AI/regtrace/internal/server/middleware"
	"github.com/engineer42AI/regtrace/internal/util"
	"github.com/engineer42AI/regtrace/pkg/corpus"
	"github.com/engineer42AI/regtrace/pkg/graph"
	"github.com/engineer42AI/regtrace/pkg/logger"
	"github.com/engineer42AI/regtrace/pkg/outline"
)

// corpusEntry is a loaded bundle with its derived structures. Entries
// are cached per process keyed by corpus id and content revision, a
// re-uploaded bundle with a new revision displaces the old entry.
type corpusEntry struct {
	Graph    *graph.Graph
	Manifest *corpus.Manifest
	Outline  *outline.Outline
	Rows     map[string][]outline.TraceRow
	Lookups  map[string]outline.TraceLookup
}

var (
	corpusCacheMu sync.Mutex
	corpusCache   = map[string]*corpusEntry{}
)

func corpusPrefix(corpusID string) string {
	return path.Join(util.GetEnvString("CORPUS_S3_PREFIX", "corpora"), corpusID)
}

func loadCorpus(ctx context.Context, app *middleware.App, corpusID string) (*corpusEntry, error) {
	src := corpus.S3Source{Client: app.S3, Prefix: corpusPrefix(corpusID)}

	manifest, err := corpus.LoadManifest(ctx, src)
	if err != nil {
		return nil, err
	}

	cacheKey := corpusID + "@" + manifest.ContentRev
	corpusCacheMu.Lock()
	entry, ok := corpusCache[cacheKey]
	corpusCacheMu.Unlock()
	if ok {
		return entry, nil
	}

	g, m, err := corpus.Load(ctx, src, graph.IngestOptions{Policy: graph.Strict})
	if err != nil {
		return nil, err
	}

	o := outline.Build(g)
	rows, lookups := outline.SectionTraces(g, o)
	entry = &corpusEntry{
		Graph:    g,
		Manifest: m,
		Outline:  o,
		Rows:     rows,
		Lookups:  lookups,
	}

	corpusCacheMu.Lock()
	corpusCache[cacheKey] = entry
	corpusCacheMu.Unlock()

	logger.Info("[Corpus] Loaded bundle",
		"corpus_id", corpusID, "nodes", g.NodeCount(), "edges", g.EdgeCount())
	return entry, nil
}
