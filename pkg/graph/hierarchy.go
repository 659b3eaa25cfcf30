package graph

import "fmt"

// TraceNode is a read-only projection of a node for hierarchy display.
// It is derived on demand and never stored back into the graph.
type TraceNode struct {
	ID                   string `json:"id"`
	Kind                 Kind   `json:"kind"`
	Label                string `json:"label"`
	Classification       string `json:"classification,omitempty"`
	ClassificationReason string `json:"classification_reason,omitempty"`
}

// Project builds the display projection of a node. Label synthesis is
// kind specific: paragraphs show their paragraph id, structural nodes
// their label with number and title fallbacks, chapters their chapter
// number, everything else falls back to label, number, then id.
func Project(n *Node) TraceNode {
	t := TraceNode{ID: n.ID, Kind: n.Kind}
	p := n.Payload

	switch n.Kind {
	case KindParagraph:
		t.Label = stringField(p, "paragraph_id", "label", "number")
		t.Classification = stringField(p, "classification")
		t.ClassificationReason = stringField(p, "classification_reason")
	case KindSection, KindGuidance:
		t.Label = stringField(p, "label", "number")
		if t.Label == "" {
			t.Label = stringField(p, "title")
		}
	case KindDocument, KindHeading, KindSubpart:
		t.Label = stringField(p, "label", "title", "name")
	case KindChapter:
		t.Label = stringField(p, "chapter", "label", "number")
	case KindFunctionL1, KindFunctionL2, KindFunctionL3:
		t.Label = stringField(p, "name", "label")
	default:
		t.Label = stringField(p, "label", "number", "name")
	}
	if t.Label == "" {
		t.Label = n.ID
	}
	return t
}

// TraceUp reconstructs the containment chain of leafID, root first. The
// last element is the queried node. A visited set guards the walk, so
// cyclic containment data stops at the repeat instead of looping. A
// missing leaf yields nil.
func (g *Graph) TraceUp(leafID string) []TraceNode {
	node := g.Node(leafID)
	if node == nil {
		return nil
	}

	var chain []*Node
	visited := map[string]struct{}{}
	current := node
	for current != nil {
		if _, seen := visited[current.ID]; seen {
			break
		}
		visited[current.ID] = struct{}{}
		chain = append(chain, current)
		parentID, ok := g.ParentOf(current.ID, RelationContains)
		if !ok {
			break
		}
		current = g.Node(parentID)
	}

	// Reverse to root-first order.
	path := make([]TraceNode, len(chain))
	for i, n := range chain {
		path[len(chain)-1-i] = Project(n)
	}
	return path
}

// LeafPaths enumerates every complete containment path below ancestorID
// as a mapping from a synthetic trace id (1-based, first discovered
// first) to the full node-id path from ancestorID down to the leaf.
// A node without containment children closes one path; branching nodes
// yield multiple paths sharing a prefix.
func (g *Graph) LeafPaths(ancestorID string) map[int][]string {
	paths := make(map[int][]string)
	if !g.HasNode(ancestorID) {
		return paths
	}

	type frame struct {
		id   string
		path []string
	}

	next := 1
	stack := []frame{{id: ancestorID, path: []string{ancestorID}}}
	for len(stack) > 0 {
		fr := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		children := g.ChildrenOf(fr.id, RelationContains)
		descended := false
		// Push in reverse so the first child is explored first.
		for i := len(children) - 1; i >= 0; i-- {
			child := children[i]
			if contains(fr.path, child) {
				continue
			}
			descended = true
			childPath := make([]string, len(fr.path), len(fr.path)+1)
			copy(childPath, fr.path)
			stack = append(stack, frame{id: child, path: append(childPath, child)})
		}
		if !descended {
			paths[next] = fr.path
			next++
		}
	}
	return paths
}

func contains(path []string, id string) bool {
	for _, p := range path {
		if p == id {
			return true
		}
	}
	return false
}

// PathLabels renders a trace path as display labels, ready for
// formatting into a context block.
func (g *Graph) PathLabels(path []TraceNode) []string {
	labels := make([]string, len(path))
	for i, t := range path {
		labels[i] = fmt.Sprintf("%s %s", t.Kind, t.Label)
	}
	return labels
}
