package outline

import (
	"reflect"
	"testing"

	"github.com/engineer42AI/regtrace/pkg/graph"
)

func buildRegulationGraph(t *testing.T) *graph.Graph {
	t.Helper()
	bundle := graph.Bundle{
		Nodes: map[string][]map[string]any{
			"structure": {
				{"uuid": "doc", "ntype": "Document", "label": "CS-25"},
				{"uuid": "sub", "ntype": "Subpart", "label": "Subpart F"},
				{"uuid": "sec-1309", "ntype": "Section", "label": "CS 25.1309"},
				{"uuid": "sec-1301", "ntype": "Section", "label": "CS 25.1301"},
				{"uuid": "p-b", "ntype": "Paragraph", "paragraph_id": "25.1309(b)"},
				{"uuid": "p-a", "ntype": "Paragraph", "paragraph_id": "25.1309(a)"},
				{"uuid": "p-b1", "ntype": "Paragraph", "paragraph_id": "25.1309(b)(1)"},
				{"uuid": "p-b2", "ntype": "Paragraph", "paragraph_id": "25.1309(b)(2)"},
			},
		},
		Edges: map[string][]graph.EdgeRecord{
			"contains": {
				{Source: "doc", Target: "sub", Relation: graph.RelationContains},
				{Source: "sub", Target: "sec-1309", Relation: graph.RelationContains},
				{Source: "sub", Target: "sec-1301", Relation: graph.RelationContains},
				{Source: "sec-1309", Target: "p-b", Relation: graph.RelationContains},
				{Source: "sec-1309", Target: "p-a", Relation: graph.RelationContains},
				{Source: "p-b", Target: "p-b1", Relation: graph.RelationContains},
				{Source: "p-b", Target: "p-b2", Relation: graph.RelationContains},
			},
		},
	}
	return graph.Build(bundle, graph.IngestOptions{Policy: graph.Strict})
}

func childIDs(n *Node) []string {
	ids := make([]string, len(n.Children))
	for i, c := range n.Children {
		ids[i] = c.ID
	}
	return ids
}

func TestBuildOrdersChildren(t *testing.T) {
	g := buildRegulationGraph(t)
	o := Build(g)

	if o.Root.ID != "doc" {
		t.Fatalf("root = %s, want single document as root", o.Root.ID)
	}
	sub := o.Root.Children[0]
	if got := childIDs(sub); !reflect.DeepEqual(got, []string{"sec-1301", "sec-1309"}) {
		t.Errorf("section order = %v, want natural order by section number", got)
	}
	sec := sub.Children[1]
	if got := childIDs(sec); !reflect.DeepEqual(got, []string{"p-a", "p-b"}) {
		t.Errorf("paragraph order = %v, want (a) before (b)", got)
	}
}

func TestBuildWrapsMultipleDocuments(t *testing.T) {
	bundle := graph.Bundle{
		Nodes: map[string][]map[string]any{
			"docs": {
				{"uuid": "d1", "ntype": "Document", "label": "CS-25"},
				{"uuid": "d2", "ntype": "Document", "label": "CS-E"},
			},
		},
	}
	g := graph.Build(bundle, graph.IngestOptions{Policy: graph.Strict})
	o := Build(g)

	if o.Root.ID != CorpusRootID {
		t.Fatalf("root = %s, want synthetic corpus root", o.Root.ID)
	}
	if got := childIDs(o.Root); !reflect.DeepEqual(got, []string{"d1", "d2"}) {
		t.Errorf("documents = %v", got)
	}
}

func TestOutlineIndices(t *testing.T) {
	g := buildRegulationGraph(t)
	o := Build(g)

	wantPath := []string{"doc", "sub", "sec-1309", "p-b", "p-b1"}
	if got := o.Paths["p-b1"]; !reflect.DeepEqual(got, wantPath) {
		t.Errorf("path = %v, want %v", got, wantPath)
	}
	if got := o.BottomPaths["25.1309(b)(1)"]; !reflect.DeepEqual(got, wantPath) {
		t.Errorf("bottom path = %v, want %v", got, wantPath)
	}
	if n := o.Find(o.Root, "p-b2"); n == nil || n.Label != "25.1309(b)(2)" {
		t.Errorf("Find(p-b2) = %+v", n)
	}
	if n := o.Find(o.Root, "absent"); n != nil {
		t.Errorf("Find(absent) = %+v, want nil", n)
	}
}

func TestParagraphNaturalSort(t *testing.T) {
	tests := []struct {
		name   string
		first  string
		second string
	}{
		{"digit before roman", "25.1309(b)(1)", "25.1309(b)(i)"},
		{"roman before alpha", "25.1309(b)(ii)", "25.1309(b)(c)"},
		{"roman order not alphabetical", "25.1309(b)(ii)", "25.1309(b)(iii)"},
		{"letter order", "25.1309(a)", "25.1309(b)"},
		{"prefix before extension", "25.1309(b)", "25.1309(b)(1)"},
		{"section number order", "25.1301", "25.1309"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, b := paragraphKey(tt.first), paragraphKey(tt.second)
			if !a.less(b) {
				t.Errorf("%q must sort before %q (%v vs %v)", tt.first, tt.second, a, b)
			}
			if b.less(a) {
				t.Errorf("%q must not sort before %q", tt.second, tt.first)
			}
		})
	}
}

func boolPtr(v bool) *bool { return &v }

func TestComputeStats(t *testing.T) {
	g := buildRegulationGraph(t)
	o := Build(g)

	// Three results under one section: two relevant, one not.
	tree := AppendResult(o.Root, "p-a", Result{Relevant: boolPtr(true)})
	tree = AppendResult(tree, "p-b1", Result{Relevant: boolPtr(true)})
	tree = AppendResult(tree, "p-b2", Result{Relevant: boolPtr(false)})

	stats := ComputeStats(tree)

	want := Stats{Total: 3, Relevant: 2, NotRelevant: 1}
	if stats["sec-1309"] != want {
		t.Errorf("section stats = %+v, want %+v", stats["sec-1309"], want)
	}
	// The same totals propagate unchanged to every strict ancestor.
	if stats["sub"] != want {
		t.Errorf("subpart stats = %+v, want %+v", stats["sub"], want)
	}
	if stats["doc"] != want {
		t.Errorf("document stats = %+v, want %+v", stats["doc"], want)
	}
	if stats["sec-1301"] != (Stats{}) {
		t.Errorf("untouched section stats = %+v, want zero", stats["sec-1301"])
	}
}

func TestStatsAdditivity(t *testing.T) {
	g := buildRegulationGraph(t)
	o := Build(g)

	tree := AppendResult(o.Root, "p-a", Result{Relevant: boolPtr(true)})
	tree = AppendResult(tree, "p-b1", Result{Error: "agent_call_failed"})

	stats := ComputeStats(tree)
	sec := o.Find(tree, "sec-1309")

	sum := 0
	for _, child := range sec.Children {
		sum += stats[child.ID].Total
	}
	if stats["sec-1309"].Total != sum {
		t.Errorf("total %d != child sum %d", stats["sec-1309"].Total, sum)
	}
	// The undecided item counts toward total only.
	if got := stats["sec-1309"]; got.Total != 2 || got.Relevant != 1 || got.NotRelevant != 0 {
		t.Errorf("stats = %+v, want total 2 relevant 1 notRelevant 0", got)
	}
	if got := stats["sec-1309"]; got.Total < got.Relevant+got.NotRelevant {
		t.Errorf("total %d < relevant+notRelevant %d", got.Total, got.Relevant+got.NotRelevant)
	}
}

func TestAppendResultCopyOnWrite(t *testing.T) {
	g := buildRegulationGraph(t)
	o := Build(g)
	root := o.Root

	next := AppendResult(root, "p-b1", Result{Relevant: boolPtr(true)})
	if next == root {
		t.Fatal("append must return a new root")
	}

	// The spine doc -> sub -> sec-1309 -> p-b -> p-b1 is reallocated.
	if next.Children[0] == root.Children[0] {
		t.Error("spine node sub must be reallocated")
	}
	// Subtrees off the spine are shared by reference.
	oldSub, newSub := root.Children[0], next.Children[0]
	if newSub.Children[0] != oldSub.Children[0] {
		t.Error("sec-1301 subtree must be shared by reference")
	}
	oldSec, newSec := oldSub.Children[1], newSub.Children[1]
	if newSec.Children[0] != oldSec.Children[0] {
		t.Error("p-a must be shared by reference")
	}

	// The original tree is untouched.
	if leaf := o.Find(root, "p-b1"); len(leaf.Results) != 0 {
		t.Errorf("input tree mutated, results = %v", leaf.Results)
	}
	if leaf := o.Find(next, "p-b1"); len(leaf.Results) != 1 {
		t.Errorf("new tree results = %d, want 1", len(leaf.Results))
	}

	// A miss returns the identical input reference.
	if same := AppendResult(next, "absent", Result{}); same != next {
		t.Error("missing leaf must return the input tree reference")
	}
}

func TestSectionTraces(t *testing.T) {
	g := buildRegulationGraph(t)
	o := Build(g)

	rows, lookup := SectionTraces(g, o)

	sec := rows["sec-1309"]
	if len(sec) != 3 {
		t.Fatalf("trace count = %d, want 3", len(sec))
	}
	// Display order: p-a first, then p-b's two leaves.
	if sec[0].BottomID != "p-a" || sec[1].BottomID != "p-b1" || sec[2].BottomID != "p-b2" {
		t.Errorf("trace order = %s, %s, %s", sec[0].BottomID, sec[1].BottomID, sec[2].BottomID)
	}
	wantLabels := []string{"CS 25.1309", "25.1309(b)", "25.1309(b)(1)"}
	if !reflect.DeepEqual(sec[1].PathLabels, wantLabels) {
		t.Errorf("path labels = %v, want %v", sec[1].PathLabels, wantLabels)
	}

	if lk := lookup["p-b2"]; lk.SectionID != "sec-1309" || lk.Index != 2 {
		t.Errorf("lookup[p-b2] = %+v", lk)
	}

	if empty := rows["sec-1301"]; len(empty) != 1 || empty[0].BottomID != "sec-1301" {
		t.Errorf("childless section rows = %+v, want its own single-node path", empty)
	}
}

func TestAppendTraceResult(t *testing.T) {
	g := buildRegulationGraph(t)
	o := Build(g)
	rows, _ := SectionTraces(g, o)
	sec := rows["sec-1309"]

	next := AppendTraceResult(sec, "p-b1", Result{Relevant: boolPtr(true)})
	if len(next[1].Results) != 1 {
		t.Fatalf("results = %d, want 1", len(next[1].Results))
	}
	if len(sec[1].Results) != 0 {
		t.Error("input rows mutated")
	}
	// Untouched rows are shared, matched row is fresh.
	if !reflect.DeepEqual(next[0], sec[0]) || !reflect.DeepEqual(next[2], sec[2]) {
		t.Error("untouched rows must carry over unchanged")
	}

	if same := AppendTraceResult(sec, "absent", Result{}); !reflect.DeepEqual(same, sec) {
		t.Error("missing bottom id must return the input rows")
	}
}
