package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_EmptyInput(t *testing.T) {
	roots, err := Build(nil)
	require.NoError(t, err)
	assert.Empty(t, roots)
}

func TestBuild_SinglePair(t *testing.T) {
	roots, err := Build([]Node{{Left: 1, Right: 2}})
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Equal(t, Node{Left: 1, Right: 2}, roots[0].Node)
	assert.Empty(t, roots[0].Children)
}

func TestBuild_ParentChild(t *testing.T) {
	roots, err := Build([]Node{{1, 4}, {2, 3}})
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, Node{2, 3}, roots[0].Children[0].Node)
}

func TestBuild_OverlapWithoutNesting(t *testing.T) {
	_, err := Build([]Node{{1, 3}, {2, 4}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotNestedSet)
}

func TestBuild_Forest(t *testing.T) {
	roots, err := Build([]Node{{3, 4}, {1, 2}})
	require.NoError(t, err)
	require.Len(t, roots, 2)
	// Roots come back in left order regardless of input order.
	assert.Equal(t, Node{1, 2}, roots[0].Node)
	assert.Equal(t, Node{3, 4}, roots[1].Node)
}

func TestBuild_ClassicTree(t *testing.T) {
	// 1..12 spanning two subtrees with a grandchild each.
	nodes := []Node{
		{1, 12},
		{2, 7},
		{3, 4},
		{5, 6},
		{8, 11},
		{9, 10},
	}
	roots, err := Build(nodes)
	require.NoError(t, err)
	require.Len(t, roots, 1)

	root := roots[0]
	assert.Equal(t, 6, root.Size())
	require.Len(t, root.Children, 2)
	assert.Equal(t, Node{2, 7}, root.Children[0].Node)
	assert.Equal(t, Node{8, 11}, root.Children[1].Node)
	assert.Len(t, root.Children[0].Children, 2)
	assert.Len(t, root.Children[1].Children, 1)
}

func TestBuild_DuplicatePairInvalid(t *testing.T) {
	_, err := Build([]Node{{1, 4}, {2, 3}, {2, 3}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotNestedSet)
}

func TestBuild_EqualLeftNested(t *testing.T) {
	// Same left edge is tolerated when one interval contains the other.
	roots, err := Build([]Node{{1, 5}, {1, 3}})
	require.NoError(t, err)
	require.Len(t, roots, 1)
	require.Len(t, roots[0].Children, 1)
	assert.Equal(t, Node{1, 3}, roots[0].Children[0].Node)
}

func TestBuild_SharedRightEdgeInvalid(t *testing.T) {
	_, err := Build([]Node{{1, 5}, {2, 5}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotNestedSet)
}

func TestBuild_DegenerateIntervalInvalid(t *testing.T) {
	_, err := Build([]Node{{3, 3}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotNestedSet)

	_, err = Build([]Node{{5, 3}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotNestedSet)
}

func TestBuild_SiblingsAfterDeepNesting(t *testing.T) {
	// The stack must unwind across several closed ancestors before the
	// next sibling attaches to the root.
	nodes := []Node{
		{1, 10},
		{2, 5},
		{3, 4},
		{6, 7},
		{8, 9},
	}
	roots, err := Build(nodes)
	require.NoError(t, err)
	require.Len(t, roots, 1)
	assert.Len(t, roots[0].Children, 3)
}

func TestValid(t *testing.T) {
	cases := []struct {
		name  string
		nodes []Node
		want  bool
	}{
		{"empty", nil, true},
		{"single", []Node{{1, 2}}, true},
		{"nested", []Node{{1, 4}, {2, 3}}, true},
		{"overlap", []Node{{1, 3}, {2, 4}}, false},
		{"forest", []Node{{1, 2}, {3, 4}}, true},
		{"duplicate", []Node{{1, 2}, {1, 2}}, false},
		{"inverted", []Node{{4, 1}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Valid(tc.nodes))
		})
	}
}

// Disjoint-or-nested is the defining pairwise property: the builder must
// accept an input exactly when every pair of intervals is disjoint or
// strictly nested. Intervals sharing a left edge are not among these inputs:
// Build accepts them when one contains the other (TestBuild_EqualLeftNested),
// while Node.Contains does not count them as strictly nested.
func TestBuild_MatchesPairwiseProperty(t *testing.T) {
	inputs := [][]Node{
		{{1, 2}},
		{{1, 2}, {3, 4}},
		{{1, 6}, {2, 3}, {4, 5}},
		{{1, 3}, {2, 4}},
		{{1, 8}, {2, 5}, {4, 7}},
		{{1, 4}, {5, 8}, {6, 7}, {2, 3}},
		{{1, 10}, {2, 9}, {3, 8}, {4, 7}, {5, 6}},
		{{1, 4}, {3, 6}},
		{{2, 3}, {1, 2}},
	}

	for _, nodes := range inputs {
		want := pairwiseDisjointOrNested(nodes)
		got := Valid(nodes)
		assert.Equalf(t, want, got, "nodes=%v", nodes)
	}
}

func pairwiseDisjointOrNested(nodes []Node) bool {
	for _, n := range nodes {
		if !n.WellFormed() {
			return false
		}
	}
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			a, b := nodes[i], nodes[j]
			if a == b {
				return false
			}
			disjoint := a.Right < b.Left || b.Right < a.Left
			if !disjoint && !a.Contains(b) && !b.Contains(a) {
				return false
			}
		}
	}
	return true
}
