package tree

// Node is a single nested-set interval.
type Node struct {
	Left  int32
	Right int32
}

// Contains reports whether n strictly contains other.
func (n Node) Contains(other Node) bool {
	return n.Left < other.Left && other.Right < n.Right
}

// WellFormed reports whether the interval has positive width.
// Coordinates with Left >= Right cannot appear in any nested set.
func (n Node) WellFormed() bool {
	return n.Left < n.Right
}

// TreeNode is a reconstructed node with its children in left order.
type TreeNode struct {
	Node     Node
	Children []*TreeNode
}

// Size returns the number of nodes in the subtree rooted at t, including t.
func (t *TreeNode) Size() int {
	n := 1
	for _, c := range t.Children {
		n += c.Size()
	}
	return n
}
