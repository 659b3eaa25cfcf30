package graph

import (
	"reflect"
	"sort"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]any
		want   Kind
	}{
		{
			name:   "function tier one",
			record: map[string]any{"type": "function", "tier": "L1", "name": "Power"},
			want:   KindFunctionL1,
		},
		{
			name:   "function tier two",
			record: map[string]any{"type": "function", "tier": "l2"},
			want:   KindFunctionL2,
		},
		{
			name:   "function numeric tier",
			record: map[string]any{"type": "function", "level": "3"},
			want:   KindFunctionL3,
		},
		{
			name:   "function without tier",
			record: map[string]any{"type": "function"},
			want:   KindUnknown,
		},
		{
			name:   "chapter type",
			record: map[string]any{"ntype": "Chapter", "chapter": "25.1309"},
			want:   KindChapter,
		},
		{
			name:   "chapter field without type",
			record: map[string]any{"chapter": "25.1309"},
			want:   KindChapter,
		},
		{
			name:   "section discriminator",
			record: map[string]any{"ntype": "Section", "label": "CS 25.1309"},
			want:   KindSection,
		},
		{
			name:   "paragraph discriminator",
			record: map[string]any{"ntype": "Paragraph", "paragraph_id": "25.1309(a)"},
			want:   KindParagraph,
		},
		{
			name:   "trace discriminator",
			record: map[string]any{"ntype": "trace"},
			want:   KindTrace,
		},
		{
			name:   "unmatched record",
			record: map[string]any{"something": "else"},
			want:   KindUnknown,
		},
		{
			name:   "empty record",
			record: map[string]any{},
			want:   KindUnknown,
		},
		{
			name:   "nil values",
			record: map[string]any{"type": nil, "tier": nil},
			want:   KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.record)
			if got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIdentityProbing(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]any
		wantID string
		wantOK bool
	}{
		{
			name:   "uuid preferred",
			record: map[string]any{"uuid": "u-1", "id": "i-1", "node_id": "n-1"},
			wantID: "u-1",
			wantOK: true,
		},
		{
			name:   "id fallback",
			record: map[string]any{"id": "i-1", "node_id": "n-1"},
			wantID: "i-1",
			wantOK: true,
		},
		{
			name:   "node_id fallback",
			record: map[string]any{"node_id": "n-1"},
			wantID: "n-1",
			wantOK: true,
		},
		{
			name:   "no identity",
			record: map[string]any{"label": "orphan"},
			wantOK: false,
		},
		{
			name:   "non-string identity skipped",
			record: map[string]any{"uuid": 42, "id": "i-1"},
			wantID: "i-1",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := Identity(tt.record)
			if ok != tt.wantOK || id != tt.wantID {
				t.Errorf("Identity() = (%q, %v), want (%q, %v)", id, ok, tt.wantID, tt.wantOK)
			}
		})
	}
}

func TestBuildDuplicateIDOverlay(t *testing.T) {
	bundle := Bundle{
		Nodes: map[string][]map[string]any{
			"a": {
				{"uuid": "n1", "ntype": "Section", "label": "CS 25.1309", "title": "Equipment"},
			},
			"b": {
				{"uuid": "n1", "label": "CS 25.1309 (amended)", "extra": "kept"},
			},
		},
	}

	g := Build(bundle, IngestOptions{Policy: Strict})

	if g.NodeCount() != 1 {
		t.Fatalf("NodeCount() = %d, want 1", g.NodeCount())
	}
	n := g.Node("n1")
	if n.Payload["label"] != "CS 25.1309 (amended)" {
		t.Errorf("label = %v, want overlay value", n.Payload["label"])
	}
	if n.Payload["title"] != "Equipment" {
		t.Errorf("title = %v, earlier-only field must survive", n.Payload["title"])
	}
	if n.Payload["extra"] != "kept" {
		t.Errorf("extra = %v, later-only field must be added", n.Payload["extra"])
	}
	if n.Kind != KindSection {
		t.Errorf("kind = %v, want %v", n.Kind, KindSection)
	}
}

func TestBuildDropsUnidentifiableRecords(t *testing.T) {
	bundle := Bundle{
		Nodes: map[string][]map[string]any{
			"a": {
				{"label": "no identity"},
				{"uuid": "n1", "ntype": "Section"},
			},
		},
	}

	g := Build(bundle, IngestOptions{Policy: Strict})
	if g.NodeCount() != 1 {
		t.Errorf("NodeCount() = %d, want 1", g.NodeCount())
	}
}

func TestBuildEdgePolicy(t *testing.T) {
	bundle := Bundle{
		Nodes: map[string][]map[string]any{
			"a": {{"uuid": "n1"}, {"uuid": "n2"}},
		},
		Edges: map[string][]EdgeRecord{
			"e": {
				{Source: "n1", Target: "n2", Relation: RelationContains},
				{Source: "n1", Target: "missing", Relation: RelationContains},
				{Source: "", Target: "n2", Relation: RelationContains},
			},
		},
	}

	strict := Build(bundle, IngestOptions{Policy: Strict})
	if strict.EdgeCount() != 1 {
		t.Errorf("strict EdgeCount() = %d, want 1", strict.EdgeCount())
	}

	permissive := Build(bundle, IngestOptions{Policy: Permissive})
	if permissive.EdgeCount() != 2 {
		t.Errorf("permissive EdgeCount() = %d, want 2", permissive.EdgeCount())
	}
}

func buildChain(t *testing.T) *Graph {
	t.Helper()
	bundle := Bundle{
		Nodes: map[string][]map[string]any{
			"structure": {
				{"uuid": "doc", "ntype": "Document", "label": "CS-25"},
				{"uuid": "sub", "ntype": "Subpart", "label": "Subpart F"},
				{"uuid": "sec", "ntype": "Section", "label": "CS 25.1309"},
				{"uuid": "par-a", "ntype": "Paragraph", "paragraph_id": "25.1309(a)"},
				{"uuid": "par-b", "ntype": "Paragraph", "paragraph_id": "25.1309(b)"},
			},
		},
		Edges: map[string][]EdgeRecord{
			"contains": {
				{Source: "doc", Target: "sub", Relation: RelationContains},
				{Source: "sub", Target: "sec", Relation: RelationContains},
				{Source: "sec", Target: "par-a", Relation: RelationContains},
				{Source: "sec", Target: "par-b", Relation: RelationContains},
			},
		},
	}
	return Build(bundle, IngestOptions{Policy: Strict})
}

func TestChildrenOf(t *testing.T) {
	g := buildChain(t)

	got := g.ChildrenOf("sec", RelationContains)
	want := []string{"par-a", "par-b"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ChildrenOf() = %v, want %v", got, want)
	}

	if got := g.ChildrenOf("absent", RelationContains); len(got) != 0 {
		t.Errorf("ChildrenOf(absent) = %v, want empty", got)
	}
	if got := g.ChildrenOf("sec", RelationCites); len(got) != 0 {
		t.Errorf("ChildrenOf(wrong relation) = %v, want empty", got)
	}
}

func TestParentOf(t *testing.T) {
	g := buildChain(t)

	parent, ok := g.ParentOf("par-a", RelationContains)
	if !ok || parent != "sec" {
		t.Errorf("ParentOf(par-a) = (%q, %v), want (sec, true)", parent, ok)
	}
	if _, ok := g.ParentOf("doc", RelationContains); ok {
		t.Error("ParentOf(doc) must report no parent")
	}
	if _, ok := g.ParentOf("absent", RelationContains); ok {
		t.Error("ParentOf(absent) must report no parent")
	}
}

func TestTraceUp(t *testing.T) {
	g := buildChain(t)

	path := g.TraceUp("par-a")
	if len(path) != 4 {
		t.Fatalf("path length = %d, want 4", len(path))
	}
	if path[0].ID != "doc" {
		t.Errorf("first element = %s, want root doc", path[0].ID)
	}
	if _, ok := g.ParentOf(path[0].ID, RelationContains); ok {
		t.Error("first element must have no containment parent")
	}
	if path[len(path)-1].ID != "par-a" {
		t.Errorf("last element = %s, want queried node", path[len(path)-1].ID)
	}
	if path[len(path)-1].Label != "25.1309(a)" {
		t.Errorf("paragraph label = %q, want paragraph id", path[len(path)-1].Label)
	}

	if got := g.TraceUp("absent"); got != nil {
		t.Errorf("TraceUp(absent) = %v, want nil", got)
	}
}

func TestTraceUpCyclicData(t *testing.T) {
	g := New()
	g.AddNode(&Node{ID: "a", Kind: KindSection})
	g.AddNode(&Node{ID: "b", Kind: KindSection})
	g.AddEdge(&Edge{Source: "a", Target: "b", Relation: RelationContains})
	g.AddEdge(&Edge{Source: "b", Target: "a", Relation: RelationContains})

	path := g.TraceUp("a")
	if len(path) != 2 {
		t.Errorf("cyclic trace length = %d, want 2", len(path))
	}
}

func TestLeafPaths(t *testing.T) {
	g := buildChain(t)

	got := g.LeafPaths("sec")
	want := map[int][]string{
		1: {"sec", "par-a"},
		2: {"sec", "par-b"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LeafPaths() = %v, want %v", got, want)
	}

	full := g.LeafPaths("doc")
	if len(full) != 2 {
		t.Fatalf("LeafPaths(doc) count = %d, want 2", len(full))
	}
	if !reflect.DeepEqual(full[1], []string{"doc", "sub", "sec", "par-a"}) {
		t.Errorf("first trace = %v", full[1])
	}

	if got := g.LeafPaths("absent"); len(got) != 0 {
		t.Errorf("LeafPaths(absent) = %v, want empty", got)
	}
}

func TestDescendantClosure(t *testing.T) {
	g := buildChain(t)

	closure := g.DescendantClosure("sub")
	var got []string
	for id := range closure {
		got = append(got, id)
	}
	sort.Strings(got)
	want := []string{"par-a", "par-b", "sec"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("DescendantClosure() = %v, want %v", got, want)
	}
}

func TestDescendantClosureCyclic(t *testing.T) {
	g := New()
	g.AddNode(&Node{ID: "a"})
	g.AddNode(&Node{ID: "b"})
	g.AddEdge(&Edge{Source: "a", Target: "b", Relation: RelationContains})
	g.AddEdge(&Edge{Source: "b", Target: "a", Relation: RelationContains})

	closure := g.DescendantClosure("a")
	if len(closure) != 2 {
		t.Errorf("cyclic closure size = %d, want 2", len(closure))
	}
}

func TestCitationsFor(t *testing.T) {
	g := buildChain(t)
	g.AddNode(&Node{ID: "guid", Kind: KindGuidance, Payload: map[string]any{"label": "AMC 25.1309"}})
	g.AddEdge(&Edge{
		Source:   "guid",
		Target:   "sec",
		Relation: RelationCites,
		Ref:      &Ref{Role: "acceptable_means", Comment: "compliance guidance"},
	})
	g.AddEdge(&Edge{Source: "sec", Target: "par-b", Relation: RelationCites})
	// Second citation of the same section from another place: two rows.
	g.AddEdge(&Edge{Source: "guid", Target: "sec", Relation: RelationCites})

	path := g.TraceUp("sec")
	rows := g.CitationsFor(path)
	if len(rows) != 3 {
		t.Fatalf("row count = %d, want 3", len(rows))
	}
	if rows[0].Direction != DirectionInbound || rows[0].Source != "guid" {
		t.Errorf("row 0 = %+v, want inbound from guid", rows[0])
	}
	if rows[0].Ref == nil || rows[0].Ref.Role != "acceptable_means" {
		t.Errorf("row 0 ref = %+v, want role preserved", rows[0].Ref)
	}
	if rows[1].Direction != DirectionInbound {
		t.Errorf("row 1 = %+v, duplicate rows must not be merged", rows[1])
	}
	if rows[2].Direction != DirectionOutbound || rows[2].Target != "par-b" {
		t.Errorf("row 2 = %+v, want outbound to par-b", rows[2])
	}
	if rows[0].SourceKind != KindGuidance || rows[0].TargetKind != KindSection {
		t.Errorf("row 0 kinds = %v/%v", rows[0].SourceKind, rows[0].TargetKind)
	}
}

func TestIntentsFor(t *testing.T) {
	g := buildChain(t)
	g.AddNode(&Node{ID: "int1", Kind: KindIntent, Payload: map[string]any{
		"intent":  "limit catastrophic failure conditions",
		"summary": "failure condition severity must be inverse to probability",
		"events":  []any{"loss of thrust", "uncommanded pitch"},
	}})
	g.AddNode(&Node{ID: "tr1", Kind: KindTrace, Payload: map[string]any{"bottom_uuid": "par-a"}})
	g.AddEdge(&Edge{Source: "par-a", Target: "int1", Relation: RelationHasIntent})
	g.AddEdge(&Edge{Source: "tr1", Target: "par-a", Relation: RelationHasAnchor})

	direct := g.IntentsFor("par-a")
	if len(direct) != 1 || direct[0].Intent != "limit catastrophic failure conditions" {
		t.Fatalf("IntentsFor(par-a) = %+v", direct)
	}
	if !reflect.DeepEqual(direct[0].Events, []string{"loss of thrust", "uncommanded pitch"}) {
		t.Errorf("events = %v", direct[0].Events)
	}

	viaTrace := g.IntentsFor("tr1")
	if !reflect.DeepEqual(viaTrace, direct) {
		t.Errorf("IntentsFor(trace) = %+v, want anchor resolution to match direct lookup", viaTrace)
	}
}
