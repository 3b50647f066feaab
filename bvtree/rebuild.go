package bvtree

import (
	"sort"

	"github.com/golang/geo/r3"
)

// Rebuild discards the incrementally-grown structure and rebuilds the whole
// hierarchy top-down, splitting item sets at the median centroid along their
// longest axis. Incremental insertion and removal can degrade the tree over
// long sessions; a periodic rebuild at a controlled point (a level
// transition, a pause) restores near-optimal query pruning. Bounds of the
// rebuilt internal nodes are computed lazily by the next query, as usual.
func (t *Tree[T]) Rebuild() {
	if t.root == nil || t.root.leaf {
		return
	}

	oldDepth := maxDepth(t.root)
	leafNodes := make([]*node[T], 0, len(t.leaves))
	t.collectLeaves(t.root, &leafNodes)
	t.root = t.buildSubtree(leafNodes)
	t.root.parent = nil

	if t.logger != nil {
		t.logger.Debugw("rebuilt bounding-volume tree",
			"items", len(leafNodes), "old_depth", oldDepth, "new_depth", maxDepth(t.root))
	}
}

// collectLeaves gathers the leaf nodes of a subtree and recycles its
// internal nodes.
func (t *Tree[T]) collectLeaves(n *node[T], out *[]*node[T]) {
	if n.leaf {
		n.parent = nil
		*out = append(*out, n)
		return
	}
	t.collectLeaves(n.left, out)
	t.collectLeaves(n.right, out)
	t.recycleNode(n)
}

func (t *Tree[T]) buildSubtree(leafNodes []*node[T]) *node[T] {
	if len(leafNodes) == 1 {
		return leafNodes[0]
	}

	axis := longestCentroidAxis(leafNodes)
	sort.SliceStable(leafNodes, func(i, j int) bool {
		return centroidAxis(leafNodes[i], axis) < centroidAxis(leafNodes[j], axis)
	})

	mid := len(leafNodes) / 2
	left := t.buildSubtree(leafNodes[:mid])
	right := t.buildSubtree(leafNodes[mid:])
	return t.newInternalNode(left, right)
}

// longestCentroidAxis picks the axis along which the leaf centroids are most
// spread out: 0, 1, or 2 for x, y, z.
func longestCentroidAxis[T comparable](leafNodes []*node[T]) int {
	lo := leafNodes[0].aabb.Center()
	hi := lo
	for _, n := range leafNodes[1:] {
		c := n.aabb.Center()
		lo = r3.Vector{X: min(lo.X, c.X), Y: min(lo.Y, c.Y), Z: min(lo.Z, c.Z)}
		hi = r3.Vector{X: max(hi.X, c.X), Y: max(hi.Y, c.Y), Z: max(hi.Z, c.Z)}
	}
	spread := hi.Sub(lo)
	axis := 0
	if spread.Y > spread.X {
		axis = 1
	}
	if spread.Z > spread.X && spread.Z > spread.Y {
		axis = 2
	}
	return axis
}

func centroidAxis[T comparable](n *node[T], axis int) float64 {
	c := n.aabb.Center()
	switch axis {
	case 1:
		return c.Y
	case 2:
		return c.Z
	default:
		return c.X
	}
}

func maxDepth[T comparable](n *node[T]) int {
	if n == nil {
		return 0
	}
	if n.leaf {
		return 1
	}
	return 1 + max(maxDepth(n.left), maxDepth(n.right))
}
