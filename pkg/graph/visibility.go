package graph

// VisibilitySet tracks which node ids are currently hidden from a
// rendered view. It is an explicit value threaded through every view
// operation so independent views over one graph can coexist. Hiding a
// node never removes it from the graph.
type VisibilitySet map[string]struct{}

// NewVisibilitySet returns an empty set.
func NewVisibilitySet() VisibilitySet {
	return make(VisibilitySet)
}

// Hidden reports whether id is hidden.
func (v VisibilitySet) Hidden(id string) bool {
	_, ok := v[id]
	return ok
}

// clone returns an independent copy.
func (v VisibilitySet) clone() VisibilitySet {
	out := make(VisibilitySet, len(v))
	for id := range v {
		out[id] = struct{}{}
	}
	return out
}

// ViewNode is a display node in a working snapshot.
type ViewNode struct {
	ID    string `json:"id"`
	Kind  Kind   `json:"kind"`
	Label string `json:"label"`
}

// ViewEdge is a display edge in a working snapshot.
type ViewEdge struct {
	ID       string `json:"id"`
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation"`
}

// View is the node/edge snapshot handed to a renderer. Operations on it
// return fresh snapshots; a consumer holding the previous one keeps a
// consistent picture.
type View struct {
	Nodes map[string]ViewNode `json:"nodes"`
	Edges map[string]ViewEdge `json:"edges"`
}

// NewView returns an empty snapshot.
func NewView() View {
	return View{
		Nodes: make(map[string]ViewNode),
		Edges: make(map[string]ViewEdge),
	}
}

func (v View) clone() View {
	out := View{
		Nodes: make(map[string]ViewNode, len(v.Nodes)),
		Edges: make(map[string]ViewEdge, len(v.Edges)),
	}
	for id, n := range v.Nodes {
		out.Nodes[id] = n
	}
	for id, e := range v.Edges {
		out.Edges[id] = e
	}
	return out
}

// Expand reveals the children of nodeID in the view, descending through
// the relation appropriate to the node's kind. Children not yet in the
// view get a display node synthesized (idempotent, never duplicated),
// children in the hidden set are un-hidden instead of re-created, and
// the connecting edges are added unless already present. No children is
// a no-op. The graph itself is never mutated.
func Expand(g *Graph, view View, vis VisibilitySet, nodeID string) (View, VisibilitySet) {
	node := g.Node(nodeID)
	if node == nil {
		return view, vis
	}
	children := g.ChildrenOf(nodeID, expandRelation(node.Kind))
	if len(children) == 0 {
		return view, vis
	}

	next := view.clone()
	nextVis := vis.clone()
	relation := expandRelation(node.Kind)

	for _, childID := range children {
		delete(nextVis, childID)
		if _, present := next.Nodes[childID]; !present {
			child := g.Node(childID)
			if child == nil {
				next.Nodes[childID] = ViewNode{ID: childID, Kind: KindUnknown, Label: childID}
			} else {
				proj := Project(child)
				next.Nodes[childID] = ViewNode{ID: childID, Kind: child.Kind, Label: proj.Label}
			}
		}
		edgeID := EdgeID(nodeID, childID, relation)
		if _, present := next.Edges[edgeID]; !present {
			next.Edges[edgeID] = ViewEdge{
				ID:       edgeID,
				Source:   nodeID,
				Target:   childID,
				Relation: relation,
			}
		}
	}
	return next, nextVis
}

// Collapse hides everything reachable from nodeID's current children
// and drops every edge touching a hidden id from the view. The node
// itself stays visible, only marked unexpanded by the disappearance of
// its children. Restricting the closure to the children keeps siblings
// reachable through other parents visible.
func Collapse(g *Graph, view View, vis VisibilitySet, nodeID string) (View, VisibilitySet) {
	node := g.Node(nodeID)
	if node == nil {
		return view, vis
	}

	hidden := make(map[string]struct{})
	for _, childID := range g.ChildrenOf(nodeID, expandRelation(node.Kind)) {
		hidden[childID] = struct{}{}
		for id := range g.DescendantClosure(childID) {
			hidden[id] = struct{}{}
		}
	}
	delete(hidden, nodeID)
	if len(hidden) == 0 {
		return view, vis
	}

	next := view.clone()
	nextVis := vis.clone()
	for id := range hidden {
		nextVis[id] = struct{}{}
	}
	for edgeID, e := range next.Edges {
		if nextVis.Hidden(e.Source) || nextVis.Hidden(e.Target) {
			delete(next.Edges, edgeID)
		}
	}
	return next, nextVis
}

// Visible materializes the renderable subset of a snapshot: nodes not
// in the hidden set and edges whose endpoints are both visible.
func Visible(view View, vis VisibilitySet) View {
	out := NewView()
	for id, n := range view.Nodes {
		if !vis.Hidden(id) {
			out.Nodes[id] = n
		}
	}
	for id, e := range view.Edges {
		if !vis.Hidden(e.Source) && !vis.Hidden(e.Target) {
			out.Edges[id] = e
		}
	}
	return out
}
