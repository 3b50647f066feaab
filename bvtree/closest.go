package bvtree

import (
	"github.com/viam-labs/broadphase/spatialmath"
)

// ClosestPointCandidates drives a best-first search for the item closest to
// the query box. fn is called with candidate items and must return the true
// squared distance to the item, or any negative value to abort the search;
// the abort value is returned as-is. The result is the smallest squared
// distance found, or maxDistSq unchanged when no candidate improves on it
// (including on an empty tree). A nil fn is a programmer error.
//
// Candidate order is deterministic for a given tree state: the child with
// the smaller lower-bound distance is visited first, ties going left.
func (t *Tree[T]) ClosestPointCandidates(
	query spatialmath.Aabb,
	maxDistSq float64,
	fn func(item T) float64,
) (float64, error) {
	if fn == nil {
		return 0, ErrNilCallback
	}
	if t.root == nil {
		return maxDistSq, nil
	}
	t.splitIfNecessary(t.root)
	return t.closestCandidates(t.root, query, maxDistSq, fn), nil
}

func (t *Tree[T]) closestCandidates(
	n *node[T],
	query spatialmath.Aabb,
	best float64,
	fn func(item T) float64,
) float64 {
	// a negative best is the abort sentinel working its way back up
	if best < 0 {
		return best
	}
	// once an exact contact is known, only overlapping subtrees can still
	// contain something closer
	if best == 0 && !n.aabb.Intersects(query) {
		return best
	}

	if n.leaf {
		if d := fn(n.item); d < best {
			return d
		}
		return best
	}

	t.splitIfNecessary(n.left)
	t.splitIfNecessary(n.right)

	if best == 0 {
		// cannot prune by distance anymore; a closer contact may hide in
		// either child
		best = t.closestCandidates(n.left, query, best, fn)
		if best < 0 {
			return best
		}
		return t.closestCandidates(n.right, query, best, fn)
	}

	near, far := n.left, n.right
	dNear := near.aabb.DistanceSquaredToAabb(query)
	dFar := far.aabb.DistanceSquaredToAabb(query)
	if dFar < dNear {
		near, far = far, near
		dNear, dFar = dFar, dNear
	}

	// prune only on a strictly-greater comparison: a NaN lower bound fails
	// it and forces descent, so invalid geometry can hide candidates from
	// pruning but never wrongly discard a subtree
	if !(dNear > best) {
		best = t.closestCandidates(near, query, best, fn)
		if best < 0 {
			return best
		}
	}
	if !(dFar > best) {
		best = t.closestCandidates(far, query, best, fn)
	}
	return best
}
