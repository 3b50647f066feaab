package bvtree

import (
	"github.com/montanaflynn/stats"
)

// TreeStats summarizes the shape of the hierarchy. A well-balanced tree of n
// items has leaf depths near log2(n); a large spread between mean and max
// depth is the signal to call Rebuild.
type TreeStats struct {
	Items           int
	Nodes           int
	MaxDepth        int
	MeanLeafDepth   float64
	MedianLeafDepth float64
}

// Stats walks the tree and returns its shape summary. It does not trigger
// bound revalidation.
func (t *Tree[T]) Stats() TreeStats {
	ts := TreeStats{Items: len(t.leaves)}
	if t.root == nil {
		return ts
	}

	var leafDepths []float64
	var walk func(n *node[T], depth int)
	walk = func(n *node[T], depth int) {
		ts.Nodes++
		if depth > ts.MaxDepth {
			ts.MaxDepth = depth
		}
		if n.leaf {
			leafDepths = append(leafDepths, float64(depth))
			return
		}
		walk(n.left, depth+1)
		walk(n.right, depth+1)
	}
	walk(t.root, 1)

	// both only error on empty input, and leafDepths is never empty here
	if mean, err := stats.Mean(leafDepths); err == nil {
		ts.MeanLeafDepth = mean
	}
	if median, err := stats.Median(leafDepths); err == nil {
		ts.MedianLeafDepth = median
	}
	return ts
}
