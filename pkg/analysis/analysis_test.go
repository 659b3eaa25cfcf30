package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/engineer42AI/regtrace/pkg/ai"
	"github.com/engineer42AI/regtrace/pkg/graph"
	"github.com/engineer42AI/regtrace/pkg/outline"
)

// stubModelClient answers GenerateCompletionWithFormat from a
// programmable respond func. Other methods are unused by the runner.
type stubModelClient struct {
	mu      sync.Mutex
	calls   int
	respond func(call int, prompt string) (string, error)
}

func (s *stubModelClient) GenerateCompletion(ctx context.Context, prompt string, opts ...ai.GenerateOption) (string, error) {
	return "", errors.New("not implemented")
}

func (s *stubModelClient) GenerateCompletionWithFormat(
	ctx context.Context,
	name string,
	description string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	s.mu.Lock()
	s.calls++
	call := s.calls
	s.mu.Unlock()

	resp, err := s.respond(call, prompt)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(resp), out)
}

func (s *stubModelClient) GenerateEmbedding(ctx context.Context, input []byte) ([]float32, error) {
	return nil, errors.New("not implemented")
}

func (s *stubModelClient) ResetMetrics()               {}
func (s *stubModelClient) GetMetrics() ai.ModelMetrics { return ai.ModelMetrics{} }

func collectEmitter(events *[]Event) EmitFunc {
	return func(e Event) error {
		*events = append(*events, e)
		return nil
	}
}

func scanItems(n int) []Item {
	items := make([]Item, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, Item{
			TraceID:  i + 1,
			BottomID: "p-" + string(rune('a'+i)),
			Block:    "## Trace\n- [paragraph] (a)",
		})
	}
	return items
}

func TestRunEmitsEventStream(t *testing.T) {
	client := &stubModelClient{
		respond: func(call int, prompt string) (string, error) {
			return `{"relevant": true, "rationale": "mentions the failure condition"}`, nil
		},
	}

	var events []Event
	summary, err := NewRunner(client).Run(context.Background(), RunConfig{
		RunID:     "filter-test0001",
		Model:     "gpt-test",
		Query:     "single failure leading to loss of control",
		BatchSize: 2,
	}, scanItems(3), collectEmitter(&events))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantTypes := []string{
		EventRunStart,
		EventBatchHeader, EventBatchStart, EventItemDone, EventItemDone, EventBatchProgress, EventBatchEnd,
		EventBatchHeader, EventBatchStart, EventItemDone, EventBatchProgress, EventBatchEnd,
		EventRunEnd,
	}
	if len(events) != len(wantTypes) {
		t.Fatalf("got %d events, want %d", len(events), len(wantTypes))
	}
	for i, want := range wantTypes {
		if events[i].Type != want {
			t.Errorf("events[%d].Type = %q, want %q", i, events[i].Type, want)
		}
	}

	if events[0].RunID != "filter-test0001" {
		t.Errorf("run_start run_id = %q", events[0].RunID)
	}
	if events[0].PricingPerMillion == nil || *events[0].PricingPerMillion != DefaultPricing {
		t.Errorf("run_start pricing = %v, want default", events[0].PricingPerMillion)
	}

	if summary.TotalTraces != 3 || summary.NumBatches != 2 {
		t.Errorf("summary = %+v, want 3 traces in 2 batches", summary)
	}
	last := events[len(events)-1]
	if last.Summary == nil || *last.Summary != summary {
		t.Errorf("run_end summary = %v, want %v", last.Summary, summary)
	}

	for _, e := range events {
		if e.Type != EventItemDone {
			continue
		}
		if e.Item == nil || e.Item.Response.Relevant == nil || !*e.Item.Response.Relevant {
			t.Errorf("item_done missing relevant verdict: %+v", e.Item)
		}
	}
}

func TestRunPersistentFailure(t *testing.T) {
	client := &stubModelClient{
		respond: func(call int, prompt string) (string, error) {
			return "", errors.New("upstream unavailable")
		},
	}

	var events []Event
	_, err := NewRunner(client).Run(context.Background(), RunConfig{
		RunID:       "filter-test0002",
		Query:       "hydraulic system redundancy",
		MaxAttempts: 1,
	}, scanItems(1), collectEmitter(&events))
	if err != nil {
		t.Fatalf("Run() error = %v, failures must not abort the run", err)
	}

	var item *ItemResult
	for _, e := range events {
		if e.Type == EventItemDone {
			item = e.Item
		}
	}
	if item == nil {
		t.Fatal("no item_done event emitted")
	}
	if item.Response.Error != "agent_call_failed" {
		t.Errorf("Response.Error = %q, want agent_call_failed", item.Response.Error)
	}
	if item.Response.Relevant != nil {
		t.Errorf("Response.Relevant = %v, want nil", *item.Response.Relevant)
	}
	if item.Usage.TotalTokens != 0 {
		t.Errorf("Usage.TotalTokens = %d, want 0 for failed item", item.Usage.TotalTokens)
	}
}

func TestRunRetriesTransientFailure(t *testing.T) {
	client := &stubModelClient{
		respond: func(call int, prompt string) (string, error) {
			if call == 1 {
				return "", errors.New("temporary")
			}
			return `{"relevant": false, "rationale": "unrelated subsystem"}`, nil
		},
	}

	var events []Event
	_, err := NewRunner(client).Run(context.Background(), RunConfig{
		RunID:       "filter-test0003",
		Query:       "cabin pressurization",
		MaxAttempts: 3,
	}, scanItems(1), collectEmitter(&events))
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for _, e := range events {
		if e.Type != EventItemDone {
			continue
		}
		if e.Item.Response.Relevant == nil || *e.Item.Response.Relevant {
			t.Errorf("item verdict = %+v, want relevant=false after retry", e.Item.Response)
		}
	}
	if client.calls != 2 {
		t.Errorf("client calls = %d, want 2", client.calls)
	}
}

func TestRunStopsOnEmitError(t *testing.T) {
	client := &stubModelClient{
		respond: func(call int, prompt string) (string, error) {
			return `{"relevant": true, "rationale": "ok"}`, nil
		},
	}

	sink := errors.New("client went away")
	emitted := 0
	_, err := NewRunner(client).Run(context.Background(), RunConfig{
		RunID: "filter-test0004",
		Query: "q",
	}, scanItems(2), func(e Event) error {
		emitted++
		if emitted > 1 {
			return sink
		}
		return nil
	})
	if !errors.Is(err, sink) {
		t.Fatalf("Run() error = %v, want emit error", err)
	}
}

func buildScanOutline() *outline.Node {
	return &outline.Node{
		ID:   "doc-cs25",
		Kind: graph.KindDocument,
		Children: []*outline.Node{
			{
				ID:   "sec-1309",
				Kind: graph.KindSection,
				Children: []*outline.Node{
					{ID: "p-a", Kind: graph.KindParagraph, Label: "(a)"},
				},
			},
		},
	}
}

func TestApplyStream(t *testing.T) {
	stream := strings.Join([]string{
		`{"type":"run_start","run_id":"filter-abc","model":"gpt-test","total_traces":1}`,
		`{"type":"batch_header","index":1,"of":1,"size":1}`,
		`not json at all`,
		`{"type":"item_done","done":1,"total":1,"item":{"trace_id":1,"bottom_id":"p-a","response":{"relevant":true,"rationale":"direct hit"},"usage":{"tokens_in":120,"tokens_out":30,"total_cost":0.0001}}}`,
		`{"type":"item_done","done":2,"total":1,"item":{"trace_id":2,"bottom_id":"p-missing","response":{"relevant":false}}}`,
		`{"type":"run_end"}`,
	}, "\n")

	root := buildScanOutline()
	tree, applied, err := ApplyStream(context.Background(), strings.NewReader(stream), root)
	if err != nil {
		t.Fatalf("ApplyStream() error = %v", err)
	}
	if applied != 1 {
		t.Fatalf("applied = %d, want 1 (unknown ids and junk lines are skipped)", applied)
	}
	if tree == root {
		t.Fatal("tree not reallocated after merge")
	}

	leaf := tree.Children[0].Children[0]
	if len(leaf.Results) != 1 {
		t.Fatalf("leaf results = %d, want 1", len(leaf.Results))
	}
	res := leaf.Results[0]
	if res.RunID != "filter-abc" {
		t.Errorf("result run_id = %q, want filter-abc", res.RunID)
	}
	if res.Relevant == nil || !*res.Relevant || res.Rationale != "direct hit" {
		t.Errorf("result = %+v", res)
	}
	if res.TokensIn != 120 || res.TokensOut != 30 {
		t.Errorf("result tokens = %d/%d, want 120/30", res.TokensIn, res.TokensOut)
	}

	if len(root.Children[0].Children[0].Results) != 0 {
		t.Error("input snapshot mutated by merge")
	}
}

func TestApplyStreamCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := buildScanOutline()
	tree, applied, err := ApplyStream(ctx, strings.NewReader(`{"type":"run_start"}`+"\n"), root)
	if err == nil {
		t.Fatal("ApplyStream() error = nil, want context error")
	}
	if applied != 0 || tree != root {
		t.Errorf("applied = %d, tree changed = %v, want untouched tree", applied, tree != root)
	}
}

func buildTraceGraph(t *testing.T) *graph.Graph {
	t.Helper()
	bundle := graph.Bundle{
		Nodes: map[string][]map[string]any{
			"documents": {
				{"uuid": "doc", "ntype": "document", "label": "CS-25"},
			},
			"sections": {
				{"uuid": "sec", "ntype": "section", "label": "25.1309"},
			},
			"paragraphs": {
				{"uuid": "par", "ntype": "paragraph", "paragraph_id": "25.1309(a)", "text": "Equipment must be designed so failures are improbable."},
				{"uuid": "cite-src", "ntype": "paragraph", "paragraph_id": "25.1301(d)"},
			},
			"intents": {
				{"uuid": "int-1", "ntype": "intent", "intent": "limit catastrophic failure conditions", "summary": "keeps single failures survivable"},
			},
		},
		Edges: map[string][]graph.EdgeRecord{
			"contains": {
				{Source: "doc", Target: "sec", Relation: graph.RelationContains},
				{Source: "sec", Target: "par", Relation: graph.RelationContains},
			},
			"cites": {
				{Source: "cite-src", Target: "par", Relation: graph.RelationCites, Ref: &graph.Ref{Role: "depends_on"}},
			},
			"intents": {
				{Source: "par", Target: "int-1", Relation: graph.RelationHasIntent},
			},
		},
	}
	return graph.Build(bundle, graph.IngestOptions{Policy: graph.Strict})
}

func TestContextBlock(t *testing.T) {
	g := buildTraceGraph(t)

	block := ContextBlock(g, "par")
	for _, want := range []string{
		"## Trace",
		"[document] CS-25",
		"[section] 25.1309",
		"[paragraph] 25.1309(a)",
		"Equipment must be designed",
		"## Citations",
		"inbound: cite-src -> par [depends_on]",
		"## Intent",
		"limit catastrophic failure conditions: keeps single failures survivable",
	} {
		if !strings.Contains(block, want) {
			t.Errorf("block missing %q\n%s", want, block)
		}
	}
}

func TestContextBlockUnknownNode(t *testing.T) {
	g := buildTraceGraph(t)
	if block := ContextBlock(g, "nope"); block != "" {
		t.Errorf("block = %q, want empty for unknown node", block)
	}
}

func TestBuildItems(t *testing.T) {
	g := buildTraceGraph(t)
	rows := map[string][]outline.TraceRow{
		"sec-b": {{TraceID: 1, BottomID: "par"}},
		"sec-a": {{TraceID: 1, BottomID: "par"}, {TraceID: 2, BottomID: "par"}},
	}

	items := BuildItems(g, rows)
	if len(items) != 3 {
		t.Fatalf("items = %d, want 3", len(items))
	}
	for i, item := range items {
		if item.TraceID != i+1 {
			t.Errorf("items[%d].TraceID = %d, ids must be reassigned globally", i, item.TraceID)
		}
		if item.Block == "" {
			t.Errorf("items[%d].Block empty", i)
		}
	}
}
