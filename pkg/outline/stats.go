package outline

// Stats are the aggregated result counts of one node. Total counts
// every attached item; Relevant and NotRelevant count only items with a
// definite verdict, so Total >= Relevant + NotRelevant always holds.
type Stats struct {
	Total       int `json:"total"`
	Relevant    int `json:"relevant"`
	NotRelevant int `json:"notRelevant"`
}

func (s Stats) add(other Stats) Stats {
	return Stats{
		Total:       s.Total + other.Total,
		Relevant:    s.Relevant + other.Relevant,
		NotRelevant: s.NotRelevant + other.NotRelevant,
	}
}

// ComputeStats walks the tree post-order and returns the full id to
// stats mapping. Leaves derive their stats from their result list,
// internal nodes sum their children. The map is recomputed in full on
// every call; there is no incremental update path, lookups after one
// walk are O(1).
func ComputeStats(root *Node) map[string]Stats {
	stats := make(map[string]Stats)
	if root != nil {
		computeStats(root, stats)
	}
	return stats
}

func computeStats(n *Node, out map[string]Stats) Stats {
	var s Stats
	if len(n.Children) == 0 {
		for _, r := range n.Results {
			s.Total++
			if r.Relevant == nil {
				continue
			}
			if *r.Relevant {
				s.Relevant++
			} else {
				s.NotRelevant++
			}
		}
	} else {
		for _, child := range n.Children {
			s = s.add(computeStats(child, out))
		}
	}
	out[n.ID] = s
	return s
}
