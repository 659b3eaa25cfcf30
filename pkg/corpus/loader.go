package corpus

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/engineer42AI/regtrace/pkg/graph"
	"github.com/engineer42AI/regtrace/pkg/logger"
)

// File kinds in a manifest.
const (
	FileKindNodes = "nodes"
	FileKindEdges = "edges"
)

// LoadBundle reads every data file of the manifest and assembles the
// raw ingestion bundle. Each file is line-delimited JSON; malformed
// lines are skipped individually, files of unknown kind are skipped
// whole. A missing data file is an error since the manifest promised it.
func LoadBundle(ctx context.Context, src Source, m *Manifest) (graph.Bundle, error) {
	bundle := graph.Bundle{
		Nodes: make(map[string][]map[string]any),
		Edges: make(map[string][]graph.EdgeRecord),
	}

	for _, file := range m.Files {
		raw, err := src.ReadFile(ctx, file.Name)
		if err != nil {
			return graph.Bundle{}, fmt.Errorf("failed to read bundle file %s: %w", file.Name, err)
		}

		collection := file.Collection
		if collection == "" {
			collection = file.Name
		}

		switch file.Kind {
		case FileKindNodes:
			bundle.Nodes[collection] = append(bundle.Nodes[collection], decodeNodeLines(raw, file.Name)...)
		case FileKindEdges:
			bundle.Edges[collection] = append(bundle.Edges[collection], decodeEdgeLines(raw, file.Name)...)
		default:
			logger.Warn("[Corpus] Skipping file of unknown kind",
				"file", file.Name, "kind", file.Kind)
		}
	}
	return bundle, nil
}

func decodeNodeLines(raw []byte, name string) []map[string]any {
	var records []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var record map[string]any
		if err := json.Unmarshal(line, &record); err != nil {
			logger.Debug("[Corpus] Skipping malformed node line", "file", name)
			continue
		}
		records = append(records, record)
	}
	return records
}

func decodeEdgeLines(raw []byte, name string) []graph.EdgeRecord {
	var records []graph.EdgeRecord
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var record graph.EdgeRecord
		if err := json.Unmarshal(line, &record); err != nil {
			logger.Debug("[Corpus] Skipping malformed edge line", "file", name)
			continue
		}
		records = append(records, record)
	}
	return records
}

// Load is the full ingestion path: manifest, integrity check, bundle,
// graph. An invalid checksum only logs a warning; a bundle that fails
// to decode is still the caller's best available data.
func Load(ctx context.Context, src Source, opts graph.IngestOptions) (*graph.Graph, *Manifest, error) {
	m, err := LoadManifest(ctx, src)
	if err != nil {
		return nil, nil, err
	}

	status, err := m.Verify(ctx, src)
	if err != nil {
		return nil, nil, err
	}
	if status != StatusValid {
		logger.Warn("[Corpus] Bundle integrity check did not pass",
			"bundle", m.Meta.Name, "status", status)
	}

	bundle, err := LoadBundle(ctx, src, m)
	if err != nil {
		return nil, nil, err
	}
	return graph.Build(bundle, opts), m, nil
}
