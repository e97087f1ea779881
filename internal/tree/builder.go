package tree

import (
	"errors"
	"fmt"
	"sort"
)

// ErrNotNestedSet is returned by Build when the input intervals cannot be
// arranged into any forest: two intervals overlap without one containing the
// other, or the same interval appears twice.
var ErrNotNestedSet = errors.New("intervals do not form a nested set")

// Build reconstructs the forest described by the given intervals.
//
// Returns the roots in left order. An empty input is a valid empty forest
// (nil roots, nil error). The input slice is not modified.
//
// The reconstruction works on a single sorted pass:
//   - sort by Left ascending, Right descending, so every node appears
//     immediately before all of its descendants, siblings in left order
//   - keep a stack of open ancestors; pop every ancestor whose interval
//     ends before the next node starts
//   - the next node is either a root (empty stack), a child of the stack
//     top (contained), or an overlap without containment, which is invalid
func Build(nodes []Node) ([]*TreeNode, error) {
	if len(nodes) == 0 {
		return nil, nil
	}

	sorted := make([]Node, len(nodes))
	copy(sorted, nodes)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Left != sorted[j].Left {
			return sorted[i].Left < sorted[j].Left
		}
		return sorted[i].Right > sorted[j].Right
	})

	var roots []*TreeNode
	var stack []*TreeNode

	for i, n := range sorted {
		if !n.WellFormed() {
			return nil, fmt.Errorf("interval (%d,%d): left must be smaller than right: %w",
				n.Left, n.Right, ErrNotNestedSet)
		}
		if i > 0 && sorted[i-1] == n {
			return nil, fmt.Errorf("interval (%d,%d) appears more than once: %w",
				n.Left, n.Right, ErrNotNestedSet)
		}

		// Close every ancestor that ends before this node starts.
		for len(stack) > 0 && stack[len(stack)-1].Node.Right < n.Left {
			stack = stack[:len(stack)-1]
		}

		tn := &TreeNode{Node: n}
		if len(stack) == 0 {
			roots = append(roots, tn)
			stack = append(stack, tn)
			continue
		}

		top := stack[len(stack)-1]
		if n.Right < top.Node.Right {
			// Contained (possibly sharing the left edge): child of the open
			// ancestor.
			top.Children = append(top.Children, tn)
			stack = append(stack, tn)
			continue
		}

		// The intervals intersect but neither contains the other.
		return nil, fmt.Errorf("intervals (%d,%d) and (%d,%d) overlap without nesting: %w",
			top.Node.Left, top.Node.Right, n.Left, n.Right, ErrNotNestedSet)
	}

	return roots, nil
}

// Valid reports whether the intervals form a nested-set forest.
func Valid(nodes []Node) bool {
	_, err := Build(nodes)
	return err == nil
}
