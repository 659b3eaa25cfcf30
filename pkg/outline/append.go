package outline

// AppendResult merges one streamed item into the tree via copy-on-write:
// only the spine from root to the matched leaf is reallocated, every
// other subtree is shared by reference with the input. When no node
// matches leafID the input pointer is returned unchanged, so callers
// can detect a miss by identity comparison.
func AppendResult(root *Node, leafID string, item Result) *Node {
	if root == nil {
		return nil
	}
	if root.ID == leafID {
		clone := *root
		clone.Results = make([]Result, len(root.Results), len(root.Results)+1)
		copy(clone.Results, root.Results)
		clone.Results = append(clone.Results, item)
		return &clone
	}
	for i, child := range root.Children {
		updated := AppendResult(child, leafID, item)
		if updated == child {
			continue
		}
		clone := *root
		clone.Children = make([]*Node, len(root.Children))
		copy(clone.Children, root.Children)
		clone.Children[i] = updated
		return &clone
	}
	return root
}
