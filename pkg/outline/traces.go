package outline

import (
	"sort"

	"github.com/engineer42AI/regtrace/pkg/graph"
)

// TraceRow is one complete root-to-leaf containment path below a
// section, ready for display and for receiving streamed results.
type TraceRow struct {
	TraceID           int      `json:"trace_id"`
	BottomID          string   `json:"bottom_id"`
	BottomParagraphID string   `json:"bottom_paragraph_id"`
	Path              []string `json:"path"`
	PathLabels        []string `json:"path_labels"`
	Results           []Result `json:"results,omitempty"`
}

// TraceLookup locates a trace row by its bottom paragraph.
type TraceLookup struct {
	SectionID string `json:"section_id"`
	Index     int    `json:"index"`
	BottomID  string `json:"bottom_id"`
}

// SectionTraces enumerates the leaf paths of every section in the
// outline. Rows per section are ordered by the sibling positions of
// their path elements in the outline, so traces appear in display
// order. The lookup maps each bottom id to its section and row index.
func SectionTraces(g *graph.Graph, o *Outline) (map[string][]TraceRow, map[string]TraceLookup) {
	rows := make(map[string][]TraceRow)
	lookup := make(map[string]TraceLookup)

	var sections []string
	for id := range o.Paths {
		if n := g.Node(id); n != nil && n.Kind == graph.KindSection {
			sections = append(sections, id)
		}
	}
	sort.Strings(sections)

	for _, sectionID := range sections {
		paths := g.LeafPaths(sectionID)
		sectionRows := make([]TraceRow, 0, len(paths))
		for traceID := 1; traceID <= len(paths); traceID++ {
			path := paths[traceID]
			bottom := path[len(path)-1]
			row := TraceRow{
				TraceID:  traceID,
				BottomID: bottom,
				Path:     path,
			}
			if n := g.Node(bottom); n != nil {
				row.BottomParagraphID = graph.Project(n).Label
			}
			row.PathLabels = make([]string, len(path))
			for i, id := range path {
				if n := g.Node(id); n != nil {
					row.PathLabels[i] = graph.Project(n).Label
				} else {
					row.PathLabels[i] = id
				}
			}
			sectionRows = append(sectionRows, row)
		}

		sort.SliceStable(sectionRows, func(a, b int) bool {
			return rankOf(o, sectionRows[a].Path).less(rankOf(o, sectionRows[b].Path))
		})
		for i := range sectionRows {
			lookup[sectionRows[i].BottomID] = TraceLookup{
				SectionID: sectionID,
				Index:     i,
				BottomID:  sectionRows[i].BottomID,
			}
		}
		rows[sectionID] = sectionRows
	}
	return rows, lookup
}

// rankOf builds the sibling-index tuple of a path within the outline,
// the display order of a trace among its section's traces.
func rankOf(o *Outline, path []string) sortKey {
	rank := make(sortKey, 0, len(path))
	for i := 1; i < len(path); i++ {
		rank = append(rank, siblingIndex(o, path[i-1], path[i]))
	}
	return rank
}

func siblingIndex(o *Outline, parentID, childID string) int {
	parent := o.Find(o.Root, parentID)
	if parent == nil {
		return keyMax
	}
	for i, child := range parent.Children {
		if child.ID == childID {
			return i
		}
	}
	return keyMax
}

// AppendTraceResult attaches item to the row whose bottom id matches,
// copy-on-write over the slice: a new slice with a new row and a new
// results slice, all untouched rows shared with the input. A miss
// returns the input slice unchanged.
func AppendTraceResult(rows []TraceRow, bottomID string, item Result) []TraceRow {
	for i := range rows {
		if rows[i].BottomID != bottomID {
			continue
		}
		next := make([]TraceRow, len(rows))
		copy(next, rows)
		row := rows[i]
		row.Results = make([]Result, len(rows[i].Results), len(rows[i].Results)+1)
		copy(row.Results, rows[i].Results)
		row.Results = append(row.Results, item)
		next[i] = row
		return next
	}
	return rows
}
