package graph

// Direction of a citation row relative to the path node it was
// collected for.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"
)

// CitationRow is one cross-reference hit for a node on a trace path.
type CitationRow struct {
	Direction  string `json:"direction"`
	Source     string `json:"source"`
	Target     string `json:"target"`
	SourceKind Kind   `json:"source_kind"`
	TargetKind Kind   `json:"target_kind"`
	Ref        *Ref   `json:"ref,omitempty"`
}

// CitationsFor collects every citation edge touching the nodes of path,
// inbound before outbound per node. Rows follow path order, then edge
// discovery order. No de-duplication: a node cited from two places
// yields two rows. Endpoints missing from the graph keep KindUnknown.
func (g *Graph) CitationsFor(path []TraceNode) []CitationRow {
	var rows []CitationRow
	for _, t := range path {
		for _, e := range g.incoming[t.ID] {
			if e.Relation != RelationCites {
				continue
			}
			rows = append(rows, g.citationRow(DirectionInbound, e))
		}
		for _, e := range g.outgoing[t.ID] {
			if e.Relation != RelationCites {
				continue
			}
			rows = append(rows, g.citationRow(DirectionOutbound, e))
		}
	}
	return rows
}

func (g *Graph) citationRow(direction string, e *Edge) CitationRow {
	row := CitationRow{
		Direction:  direction,
		Source:     e.Source,
		Target:     e.Target,
		SourceKind: KindUnknown,
		TargetKind: KindUnknown,
		Ref:        e.Ref,
	}
	if n := g.Node(e.Source); n != nil {
		row.SourceKind = n.Kind
	}
	if n := g.Node(e.Target); n != nil {
		row.TargetKind = n.Kind
	}
	return row
}
