package bvtree

import (
	"go.uber.org/atomic"

	"github.com/viam-labs/broadphase/spatialmath"
)

// node is a tree node. The tree is strictly binary: internal nodes always
// have exactly two children, leaves hold exactly one item.
type node[T comparable] struct {
	// aabb is the cached bound of the whole subtree. At leaves it is the
	// item's bound grown by the tree's fat margin and always current; at
	// internal nodes it is only meaningful while valid is set.
	aabb spatialmath.Aabb
	// itemAabb is the tight, caller-supplied bound (leaves only).
	itemAabb spatialmath.Aabb

	parent *node[T]
	left   *node[T]
	right  *node[T]

	item T
	leaf bool

	// valid publishes the cached aabb to concurrent query goroutines; see
	// Tree.splitIfNecessary.
	valid atomic.Bool
}

func (t *Tree[T]) newLeafNode(item T, aabb spatialmath.Aabb) *node[T] {
	n := t.nodePool.Obtain()
	n.item = item
	n.leaf = true
	n.itemAabb = aabb
	n.aabb = aabb.Grow(t.cfg.FatAabbMargin)
	n.valid.Store(true)
	return n
}

// newInternalNode pairs two subtrees under a fresh parent. The parent's
// cached bound is left stale for the next query to compute.
func (t *Tree[T]) newInternalNode(left, right *node[T]) *node[T] {
	n := t.nodePool.Obtain()
	n.leaf = false
	n.left = left
	n.right = right
	left.parent = n
	right.parent = n
	n.valid.Store(false)
	return n
}

// recycleNode drops all references held by a node before returning it to the
// pool, so recycled nodes do not keep subtrees or items reachable.
func (t *Tree[T]) recycleNode(n *node[T]) {
	var zero T
	n.item = zero
	n.leaf = false
	n.parent = nil
	n.left = nil
	n.right = nil
	n.aabb = spatialmath.Aabb{}
	n.itemAabb = spatialmath.Aabb{}
	n.valid.Store(false)
	t.nodePool.Recycle(n)
}

func (t *Tree[T]) recycleSubtree(n *node[T]) {
	if n == nil {
		return
	}
	t.recycleSubtree(n.left)
	t.recycleSubtree(n.right)
	t.recycleNode(n)
}

// traversalStack is the recycled scratch space for the iterative queries.
type traversalStack[T comparable] struct {
	nodes []*node[T]
}

// reset empties the stack, releasing the node pointers so a pooled stack
// never keeps removed subtrees reachable.
func (s *traversalStack[T]) reset() {
	clear(s.nodes)
	s.nodes = s.nodes[:0]
}

func (s *traversalStack[T]) push(n *node[T]) {
	s.nodes = append(s.nodes, n)
}

func (s *traversalStack[T]) pop() (*node[T], bool) {
	if len(s.nodes) == 0 {
		return nil, false
	}
	last := len(s.nodes) - 1
	n := s.nodes[last]
	s.nodes[last] = nil
	s.nodes = s.nodes[:last]
	return n, true
}
