package outline

import (
	"sort"

	"github.com/engineer42AI/regtrace/pkg/graph"
)

// CorpusRootID is the id of the synthetic root wrapping multiple
// documents in one outline.
const CorpusRootID = "__corpus__"

// Node is one entry of the display outline. Children are ordered for
// presentation; Results holds the streamed analysis items attached to
// leaf paragraphs. Nodes are shared by reference across snapshots, so
// updates go through AppendResult instead of in-place mutation.
type Node struct {
	ID       string     `json:"id"`
	Kind     graph.Kind `json:"kind"`
	Label    string     `json:"label"`
	Text     string     `json:"text,omitempty"`
	Children []*Node    `json:"children,omitempty"`
	Results  []Result   `json:"results,omitempty"`
}

// Result is one streamed analysis item attached to a paragraph. A nil
// Relevant means the item carries no definite verdict (an error
// envelope); such items count toward totals but toward neither flag.
type Result struct {
	RunID     string   `json:"run_id,omitempty"`
	Relevant  *bool    `json:"relevant,omitempty"`
	Rationale string   `json:"rationale,omitempty"`
	Error     string   `json:"error,omitempty"`
	Cost      float64  `json:"cost,omitempty"`
	TokensIn  int      `json:"tokens_in,omitempty"`
	TokensOut int      `json:"tokens_out,omitempty"`
}

// Outline is the built tree plus its lookup indices. The indices store
// id paths, not node pointers, so they stay valid across copy-on-write
// snapshots of the tree.
type Outline struct {
	Root        *Node
	Paths       map[string][]string
	BottomPaths map[string][]string
}

// Build constructs the outline of a graph. Roots are the document
// nodes; when none exist, nodes without incoming containment edges
// serve as roots. Multiple roots are wrapped under a synthetic corpus
// node. Children are ordered by kind bucket and natural sort keys.
func Build(g *graph.Graph) *Outline {
	roots := documentRoots(g)

	sorter := newSorter(g)
	built := make([]*Node, 0, len(roots))
	for _, id := range roots {
		if n := buildSubtree(g, sorter, id, map[string]struct{}{}); n != nil {
			built = append(built, n)
		}
	}

	var root *Node
	switch len(built) {
	case 0:
		root = &Node{ID: CorpusRootID, Kind: graph.KindRoot, Label: "Corpus"}
	case 1:
		root = built[0]
	default:
		root = &Node{
			ID:       CorpusRootID,
			Kind:     graph.KindRoot,
			Label:    "Corpus",
			Children: built,
		}
	}

	o := &Outline{
		Root:        root,
		Paths:       make(map[string][]string),
		BottomPaths: make(map[string][]string),
	}
	o.index(root, nil)
	return o
}

func documentRoots(g *graph.Graph) []string {
	var docs []string
	for id, n := range g.Nodes() {
		if n.Kind == graph.KindDocument {
			docs = append(docs, id)
		}
	}
	if len(docs) == 0 {
		for id := range g.Nodes() {
			if _, ok := g.ParentOf(id, graph.RelationContains); !ok {
				if len(g.ChildrenOf(id, graph.RelationContains)) > 0 {
					docs = append(docs, id)
				}
			}
		}
	}
	sort.Strings(docs)
	return docs
}

func buildSubtree(g *graph.Graph, s *sorter, id string, seen map[string]struct{}) *Node {
	if _, ok := seen[id]; ok {
		return nil
	}
	seen[id] = struct{}{}
	defer delete(seen, id)

	raw := g.Node(id)
	if raw == nil {
		return nil
	}
	proj := graph.Project(raw)
	node := &Node{
		ID:    id,
		Kind:  raw.Kind,
		Label: proj.Label,
	}
	if raw.Kind == graph.KindParagraph {
		if text, ok := raw.Payload["text"].(string); ok {
			node.Text = text
		}
	}

	for _, childID := range s.orderedChildren(id) {
		if child := buildSubtree(g, s, childID, seen); child != nil {
			node.Children = append(node.Children, child)
		}
	}
	return node
}

func (o *Outline) index(n *Node, prefix []string) {
	path := make([]string, len(prefix)+1)
	copy(path, prefix)
	path[len(prefix)] = n.ID
	o.Paths[n.ID] = path

	if len(n.Children) == 0 && n.Kind == graph.KindParagraph {
		o.BottomPaths[n.Label] = path
	}
	for _, child := range n.Children {
		o.index(child, path)
	}
}

// Find returns the node at the given id in the current tree snapshot,
// walking the indexed path from root. Nil when the id is unknown.
func (o *Outline) Find(root *Node, id string) *Node {
	path, ok := o.Paths[id]
	if !ok {
		return nil
	}
	current := root
	for _, step := range path[1:] {
		var next *Node
		for _, child := range current.Children {
			if child.ID == step {
				next = child
				break
			}
		}
		if next == nil {
			return nil
		}
		current = next
	}
	if current.ID != id {
		return nil
	}
	return current
}
