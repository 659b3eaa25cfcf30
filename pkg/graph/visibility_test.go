package graph

import (
	"reflect"
	"sort"
	"testing"
)

func buildFunctionalGraph(t *testing.T) *Graph {
	t.Helper()
	bundle := Bundle{
		Nodes: map[string][]map[string]any{
			"functions": {
				{"uuid": "L1", "type": "function", "tier": "l1", "name": "Power"},
				{"uuid": "L2a", "type": "function", "tier": "l2", "name": "Generation"},
				{"uuid": "L2b", "type": "function", "tier": "l2", "name": "Distribution"},
			},
		},
		Edges: map[string][]EdgeRecord{
			"tiers": {
				{Source: "L1", Target: "L2a", Relation: RelationL1HasL2},
				{Source: "L1", Target: "L2b", Relation: RelationL1HasL2},
			},
		},
	}
	return Build(bundle, IngestOptions{Policy: Strict})
}

func visibleIDs(view View, vis VisibilitySet) []string {
	var ids []string
	for id := range Visible(view, vis).Nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func TestExpandFunctionalTier(t *testing.T) {
	g := buildFunctionalGraph(t)

	if got := g.ChildrenOf("L1", RelationL1HasL2); !reflect.DeepEqual(got, []string{"L2a", "L2b"}) {
		t.Fatalf("ChildrenOf(L1) = %v, want [L2a L2b]", got)
	}

	view := NewView()
	view.Nodes["L1"] = ViewNode{ID: "L1", Kind: KindFunctionL1, Label: "Power"}
	vis := NewVisibilitySet()

	expanded, vis2 := Expand(g, view, vis, "L1")

	if got := visibleIDs(expanded, vis2); !reflect.DeepEqual(got, []string{"L1", "L2a", "L2b"}) {
		t.Errorf("visible after expand = %v", got)
	}
	if expanded.Nodes["L2a"].Label != "Generation" {
		t.Errorf("L2a label = %q, want Generation", expanded.Nodes["L2a"].Label)
	}
	if len(expanded.Edges) != 2 {
		t.Errorf("edge count = %d, want 2", len(expanded.Edges))
	}

	// Expanding again must not duplicate anything.
	again, vis3 := Expand(g, expanded, vis2, "L1")
	if len(again.Nodes) != 3 || len(again.Edges) != 2 {
		t.Errorf("repeat expand nodes=%d edges=%d, want 3/2", len(again.Nodes), len(again.Edges))
	}
	if len(vis3) != 0 {
		t.Errorf("hidden set = %v, want empty", vis3)
	}

	// The input snapshot stays untouched.
	if len(view.Nodes) != 1 || len(view.Edges) != 0 {
		t.Errorf("input snapshot mutated: nodes=%d edges=%d", len(view.Nodes), len(view.Edges))
	}
}

func TestCollapseThenExpandRestoresVisibleSet(t *testing.T) {
	g := buildFunctionalGraph(t)

	view := NewView()
	view.Nodes["L1"] = ViewNode{ID: "L1", Kind: KindFunctionL1, Label: "Power"}
	view, vis := Expand(g, view, NewVisibilitySet(), "L1")
	before := visibleIDs(view, vis)

	collapsed, visC := Collapse(g, view, vis, "L1")
	if got := visibleIDs(collapsed, visC); !reflect.DeepEqual(got, []string{"L1"}) {
		t.Fatalf("visible after collapse = %v, want [L1]", got)
	}
	if len(Visible(collapsed, visC).Edges) != 0 {
		t.Error("collapsed view must have no visible edges")
	}
	if _, present := collapsed.Nodes["L2a"]; !present {
		t.Error("collapse must hide nodes, not delete them from the snapshot")
	}

	restored, visR := Expand(g, collapsed, visC, "L1")
	if got := visibleIDs(restored, visR); !reflect.DeepEqual(got, before) {
		t.Errorf("visible after expand = %v, want %v", got, before)
	}
	if len(restored.Nodes) != 3 {
		t.Errorf("node count = %d, expand must un-hide instead of duplicating", len(restored.Nodes))
	}
	for id, e := range Visible(restored, visR).Edges {
		if _, ok := restored.Nodes[e.Source]; !ok {
			t.Errorf("edge %s has orphaned source", id)
		}
		if _, ok := restored.Nodes[e.Target]; !ok {
			t.Errorf("edge %s has orphaned target", id)
		}
	}
}

func TestCollapseNeverHidesTheNodeItself(t *testing.T) {
	g := New()
	g.AddNode(&Node{ID: "a", Kind: KindSection})
	g.AddNode(&Node{ID: "b", Kind: KindParagraph})
	g.AddEdge(&Edge{Source: "a", Target: "b", Relation: RelationContains})
	// Cycle back up: the closure from b reaches a again.
	g.AddEdge(&Edge{Source: "b", Target: "a", Relation: RelationContains})

	view := NewView()
	view.Nodes["a"] = ViewNode{ID: "a", Kind: KindSection}
	view.Nodes["b"] = ViewNode{ID: "b", Kind: KindParagraph}
	vis := NewVisibilitySet()

	_, visC := Collapse(g, view, vis, "a")
	if visC.Hidden("a") {
		t.Error("collapse must never hide the collapsed node itself")
	}
	if !visC.Hidden("b") {
		t.Error("collapse must hide the child")
	}
}

func TestExpandWithoutChildrenIsNoOp(t *testing.T) {
	g := buildFunctionalGraph(t)
	view := NewView()
	view.Nodes["L2a"] = ViewNode{ID: "L2a", Kind: KindFunctionL2, Label: "Generation"}
	vis := NewVisibilitySet()

	next, nextVis := Expand(g, view, vis, "L2a")
	if !reflect.DeepEqual(next, view) || !reflect.DeepEqual(nextVis, vis) {
		t.Error("expand on a childless node must be a no-op")
	}

	missing, _ := Expand(g, view, vis, "absent")
	if !reflect.DeepEqual(missing, view) {
		t.Error("expand on a missing node must be a no-op")
	}
}
