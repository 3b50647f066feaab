package bvtree

import (
	"github.com/viam-labs/broadphase/spatialmath"
	"github.com/viam-labs/broadphase/utils"
)

// OverlappingFunc calls fn for every item whose bound intersects the query
// box, stopping early if fn returns false. Result order is unspecified.
//
// Interior pruning uses the cached (possibly fattened) subtree bounds, but
// each candidate leaf is tested against the item's tight bound, so fn sees
// exactly the items whose supplied bound intersects the query: no false
// positives, no false negatives.
func (t *Tree[T]) OverlappingFunc(query spatialmath.Aabb, fn func(item T) bool) {
	if t.root == nil {
		return
	}
	t.splitIfNecessary(t.root)

	stack := t.stackPool.Obtain()
	// stopping early leaves entries behind; drop them before pooling the stack
	defer func() {
		stack.reset()
		t.stackPool.Recycle(stack)
	}()

	stack.push(t.root)
	for {
		n, ok := stack.pop()
		if !ok {
			return
		}
		t.splitIfNecessary(n)
		if !n.aabb.Intersects(query) {
			continue
		}
		if n.leaf {
			if n.itemAabb.Intersects(query) && !fn(n.item) {
				return
			}
			continue
		}
		stack.push(n.left)
		stack.push(n.right)
	}
}

// Overlapping returns all items whose bound intersects the query box. The
// slice is freshly built on every call; callers must not rely on its order.
func (t *Tree[T]) Overlapping(query spatialmath.Aabb) []T {
	var found []T
	t.OverlappingFunc(query, func(item T) bool {
		found = append(found, item)
		return true
	})
	return found
}

// OverlappingRayFunc calls fn for every item whose bound is intersected by
// the ray segment, stopping early if fn returns false. The slab tests run
// with a tolerance of machine epsilon scaled by the tree's overall extent,
// so items grazed at a box boundary are not lost to floating-point error.
func (t *Tree[T]) OverlappingRayFunc(ray spatialmath.Ray, fn func(item T) bool) {
	if t.root == nil {
		return
	}
	t.splitIfNecessary(t.root)
	epsilon := utils.FloatEpsilon * (1 + t.root.aabb.ExtentLength())

	stack := t.stackPool.Obtain()
	defer func() {
		stack.reset()
		t.stackPool.Recycle(stack)
	}()

	stack.push(t.root)
	for {
		n, ok := stack.pop()
		if !ok {
			return
		}
		t.splitIfNecessary(n)
		if !ray.IntersectsAabb(n.aabb, epsilon) {
			continue
		}
		if n.leaf {
			if ray.IntersectsAabb(n.itemAabb, epsilon) && !fn(n.item) {
				return
			}
			continue
		}
		stack.push(n.left)
		stack.push(n.right)
	}
}

// OverlappingRay returns all items whose bound is intersected by the ray
// segment, in unspecified order.
func (t *Tree[T]) OverlappingRay(ray spatialmath.Ray) []T {
	var found []T
	t.OverlappingRayFunc(ray, func(item T) bool {
		found = append(found, item)
		return true
	})
	return found
}
