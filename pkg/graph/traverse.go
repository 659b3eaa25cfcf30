package graph

import "sort"

// ChildrenOf returns the ordered target ids reachable from id via
// outgoing edges. An empty relation matches every edge. A missing node
// yields an empty slice, never an error.
func (g *Graph) ChildrenOf(id string, relation string) []string {
	edges := g.outgoing[id]
	children := make([]string, 0, len(edges))
	for _, e := range edges {
		if relation != "" && e.Relation != relation {
			continue
		}
		children = append(children, e.Target)
	}
	return children
}

// ParentOf returns the first source id among incoming edges matching
// relation. The containment relation is expected to be tree shaped, so
// a single match is the common case; with fan-in the insertion order of
// the reverse index decides.
func (g *Graph) ParentOf(id string, relation string) (string, bool) {
	for _, e := range g.incoming[id] {
		if e.Relation == relation {
			return e.Source, true
		}
	}
	return "", false
}

// ParentsOf returns every source id among incoming edges matching
// relation, for callers that want to inspect fan-in instead of trusting
// the first match.
func (g *Graph) ParentsOf(id string, relation string) []string {
	var parents []string
	for _, e := range g.incoming[id] {
		if e.Relation == relation {
			parents = append(parents, e.Source)
		}
	}
	return parents
}

// DescendantClosure computes the set of node ids transitively reachable
// from id over outgoing edges of any relation, excluding id itself.
// The walk is an explicit worklist with a visited set, so it terminates
// on cyclic data from permissive ingestion.
func (g *Graph) DescendantClosure(id string) map[string]struct{} {
	closure := make(map[string]struct{})
	worklist := []string{id}
	visited := map[string]struct{}{id: {}}

	for len(worklist) > 0 {
		current := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, e := range g.outgoing[current] {
			if _, seen := visited[e.Target]; seen {
				continue
			}
			visited[e.Target] = struct{}{}
			closure[e.Target] = struct{}{}
			worklist = append(worklist, e.Target)
		}
	}
	return closure
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
