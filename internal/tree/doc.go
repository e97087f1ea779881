// Package tree reconstructs forests from nested-set interval coordinates.
//
// The nested-set model encodes a tree by assigning each node a (left, right)
// integer pair such that a node's interval strictly contains the intervals of
// all its descendants, and the intervals of unrelated nodes are disjoint.
// Build recovers the forest shape from a bag of such pairs, or reports that
// the pairs do not describe any forest at all.
//
// The builder is the validity oracle for the synchronizer: a pending batch of
// changes is only applied to the destination table when the projected set of
// coordinates still reconstructs into a forest.
package tree
