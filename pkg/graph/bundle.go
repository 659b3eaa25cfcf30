package graph

// Bundle is the raw ingestion payload: named node collections and named
// edge collections. Records are schema-free beyond identity probing and
// the classifier rules.
type Bundle struct {
	Nodes map[string][]map[string]any `json:"nodes"`
	Edges map[string][]EdgeRecord     `json:"edges"`
}

// EdgeRecord is a raw edge entry of a bundle collection.
type EdgeRecord struct {
	Source   string `json:"source"`
	Target   string `json:"target"`
	Relation string `json:"relation,omitempty"`
	Ref      *Ref   `json:"ref,omitempty"`
}

// Policy controls referential integrity of ingested edges.
type Policy int

const (
	// Strict drops edges whose source or target is not a known node.
	Strict Policy = iota
	// Permissive keeps edges regardless of endpoint existence.
	Permissive
)

// IngestOptions configures bundle ingestion.
type IngestOptions struct {
	Policy Policy
}

// identityFields are probed in priority order to resolve a record's id.
var identityFields = []string{"uuid", "id", "node_id"}

// Identity resolves the id of a raw record, probing the candidate
// fields in order. ok is false when none is present.
func Identity(record map[string]any) (string, bool) {
	id := stringField(record, identityFields...)
	return id, id != ""
}

// Build ingests a bundle into a graph. Records without a resolvable
// identity are dropped without error. All node collections are ingested
// before any edge collection so the strict policy sees the complete
// node set. Collections are visited in a stable order so duplicate-id
// overlays and edge ordering are reproducible across runs.
func Build(bundle Bundle, opts IngestOptions) *Graph {
	g := New()

	for _, name := range sortedKeys(bundle.Nodes) {
		for _, record := range bundle.Nodes[name] {
			id, ok := Identity(record)
			if !ok {
				continue
			}
			g.AddNode(&Node{
				ID:      id,
				Kind:    Classify(record),
				Payload: record,
			})
		}
	}

	for _, name := range sortedKeys(bundle.Edges) {
		for _, record := range bundle.Edges[name] {
			if record.Source == "" || record.Target == "" {
				continue
			}
			if opts.Policy == Strict && (!g.HasNode(record.Source) || !g.HasNode(record.Target)) {
				continue
			}
			g.AddEdge(&Edge{
				Source:   record.Source,
				Target:   record.Target,
				Relation: record.Relation,
				Ref:      record.Ref,
			})
		}
	}

	return g
}
