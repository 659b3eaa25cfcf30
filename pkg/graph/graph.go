package graph

// Relation labels carried on edges. The label decides which traversal
// algorithms consider an edge.
const (
	RelationContains  = "CONTAINS"
	RelationCites     = "CITES"
	RelationHasIntent = "HAS_INTENT"
	RelationHasAnchor = "HAS_ANCHOR"
	RelationL1HasL2   = "L1_HAS_L2"
	RelationL2HasL3   = "L2_HAS_L3"
	RelationChapter   = "HAS_CHAPTER"
)

// Node is a single record in the graph. The payload keeps every field
// of the raw record, so downstream projections (labels, classification
// annotations, attached results) read from it without a schema.
type Node struct {
	ID      string         `json:"id"`
	Kind    Kind           `json:"kind"`
	Payload map[string]any `json:"payload"`
}

// Edge is a directed, relation-labelled link between two nodes.
// Ref is only set on citation edges.
type Edge struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
	Ref      *Ref   `json:"ref,omitempty"`
}

// Ref carries cross-reference metadata on a citation edge.
type Ref struct {
	Role      string `json:"role,omitempty"`
	Comment   string `json:"comment,omitempty"`
	RefSource string `json:"ref_source,omitempty"`
	RefTarget string `json:"ref_target,omitempty"`
}

// Graph is the node map plus forward and reverse adjacency. Edge slices
// preserve insertion order and allow duplicates. After construction the
// graph is treated as immutable; all derived state is built outside it.
type Graph struct {
	nodes    map[string]*Node
	outgoing map[string][]*Edge
	incoming map[string][]*Edge
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]*Node),
		outgoing: make(map[string][]*Edge),
		incoming: make(map[string][]*Edge),
	}
}

// AddNode inserts a node, merging payloads on a duplicate id. The merge
// is a shallow overlay: later fields overwrite same-named fields, fields
// only present on the earlier record survive. The kind of the first
// record wins unless the earlier classification was unknown.
func (g *Graph) AddNode(n *Node) {
	existing, ok := g.nodes[n.ID]
	if !ok {
		if n.Payload == nil {
			n.Payload = make(map[string]any)
		}
		g.nodes[n.ID] = n
		return
	}
	for k, v := range n.Payload {
		existing.Payload[k] = v
	}
	if existing.Kind == KindUnknown {
		existing.Kind = n.Kind
	}
}

// AddEdge appends an edge to both adjacency indexes.
func (g *Graph) AddEdge(e *Edge) {
	g.outgoing[e.Source] = append(g.outgoing[e.Source], e)
	g.incoming[e.Target] = append(g.incoming[e.Target], e)
}

// Node returns the node for id, or nil.
func (g *Graph) Node(id string) *Node {
	return g.nodes[id]
}

// HasNode reports whether id exists in the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns the node map. Callers must not mutate it.
func (g *Graph) Nodes() map[string]*Node {
	return g.nodes
}

// Outgoing returns the ordered outgoing edges of id.
func (g *Graph) Outgoing(id string) []*Edge {
	return g.outgoing[id]
}

// Incoming returns the ordered incoming edges of id.
func (g *Graph) Incoming(id string) []*Edge {
	return g.incoming[id]
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	total := 0
	for _, edges := range g.outgoing {
		total += len(edges)
	}
	return total
}

// EdgeID builds the canonical identifier of an edge for view snapshots.
func EdgeID(source, target, relation string) string {
	return source + "->" + target + ":" + relation
}
