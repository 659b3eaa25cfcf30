package graph

// Intent is the projection of an intent node attached to a regulation
// node via the intent relation.
type Intent struct {
	NodeID  string   `json:"node_id"`
	Intent  string   `json:"intent"`
	Summary string   `json:"summary,omitempty"`
	Events  []string `json:"events,omitempty"`
}

// IntentsFor collects the intent records attached to id. Trace nodes
// are first resolved through their anchor edge to the bottom paragraph,
// since intents hang off the regulation structure, not off traces.
func (g *Graph) IntentsFor(id string) []Intent {
	node := g.Node(id)
	if node == nil {
		return nil
	}

	target := id
	if node.Kind == KindTrace {
		if anchors := g.ChildrenOf(id, RelationHasAnchor); len(anchors) > 0 {
			target = anchors[0]
		} else if bottom := stringField(node.Payload, "bottom_uuid"); bottom != "" {
			target = bottom
		}
	}

	var intents []Intent
	for _, intentID := range g.ChildrenOf(target, RelationHasIntent) {
		n := g.Node(intentID)
		if n == nil {
			continue
		}
		intents = append(intents, Intent{
			NodeID:  n.ID,
			Intent:  stringField(n.Payload, "intent"),
			Summary: stringField(n.Payload, "summary"),
			Events:  stringSlice(n.Payload["events"]),
		})
	}
	return intents
}

func stringSlice(v any) []string {
	switch vals := v.(type) {
	case []string:
		return vals
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
