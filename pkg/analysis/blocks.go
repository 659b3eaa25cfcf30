package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/engineer42AI/regtrace/pkg/graph"
	"github.com/engineer42AI/regtrace/pkg/outline"
)

// Item is one scan unit: a requirement trace identified by its bottom
// paragraph, carrying the formatted context block sent to the model.
type Item struct {
	TraceID  int    `json:"trace_id"`
	BottomID string `json:"bottom_id"`
	Block    string `json:"block"`
}

// ContextBlock formats the full context of one trace as markdown: its
// root-to-leaf hierarchy, the citations touching the path, and the
// intent records behind the bottom paragraph.
func ContextBlock(g *graph.Graph, bottomID string) string {
	path := g.TraceUp(bottomID)
	if len(path) == 0 {
		return ""
	}

	var b strings.Builder

	b.WriteString("## Trace\n")
	for i, t := range path {
		fmt.Fprintf(&b, "%s- [%s] %s\n", strings.Repeat("  ", i), t.Kind, t.Label)
	}
	bottom := path[len(path)-1]
	if n := g.Node(bottom.ID); n != nil {
		if text, ok := n.Payload["text"].(string); ok && text != "" {
			fmt.Fprintf(&b, "\n%s\n", text)
		}
	}
	if bottom.Classification != "" {
		fmt.Fprintf(&b, "\nClassification: %s", bottom.Classification)
		if bottom.ClassificationReason != "" {
			fmt.Fprintf(&b, " (%s)", bottom.ClassificationReason)
		}
		b.WriteString("\n")
	}

	if rows := g.CitationsFor(path); len(rows) > 0 {
		b.WriteString("\n## Citations\n")
		for _, row := range rows {
			fmt.Fprintf(&b, "- %s: %s -> %s", row.Direction, row.Source, row.Target)
			if row.Ref != nil {
				if row.Ref.Role != "" {
					fmt.Fprintf(&b, " [%s]", row.Ref.Role)
				}
				if row.Ref.Comment != "" {
					fmt.Fprintf(&b, " %s", row.Ref.Comment)
				}
			}
			b.WriteString("\n")
		}
	}

	if intents := g.IntentsFor(bottomID); len(intents) > 0 {
		b.WriteString("\n## Intent\n")
		for _, in := range intents {
			fmt.Fprintf(&b, "- %s", in.Intent)
			if in.Summary != "" {
				fmt.Fprintf(&b, ": %s", in.Summary)
			}
			b.WriteString("\n")
			for _, ev := range in.Events {
				fmt.Fprintf(&b, "  - event: %s\n", ev)
			}
		}
	}

	return b.String()
}

// BuildItems turns the section trace rows of a corpus into scan items,
// in section order then row order. Trace ids are reassigned globally
// (1-based) so every item of a run has a unique id.
func BuildItems(g *graph.Graph, rows map[string][]outline.TraceRow) []Item {
	sections := make([]string, 0, len(rows))
	for id := range rows {
		sections = append(sections, id)
	}
	sort.Strings(sections)

	var items []Item
	next := 1
	for _, sectionID := range sections {
		for _, row := range rows[sectionID] {
			items = append(items, Item{
				TraceID:  next,
				BottomID: row.BottomID,
				Block:    ContextBlock(g, row.BottomID),
			})
			next++
		}
	}
	return items
}
