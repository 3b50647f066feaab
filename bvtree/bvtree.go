// Package bvtree implements the broad-phase spatial index: an adaptive
// binary bounding-volume hierarchy of axis-aligned bounding boxes over a
// collection of caller-supplied items. It narrows candidate sets for overlap,
// ray, and closest-point queries; it never confirms exact intersection, which
// is the narrow phase's job downstream.
//
// Mutations are cheap and lazy: Insert, Remove, and Update mark the touched
// ancestor chain stale instead of recomputing bounds, and the next query
// revalidates only the stale region. Queries may therefore tighten cached
// bounds as a side effect.
//
// Concurrency contract: queries may run concurrently with each other against
// the same tree; the lazy revalidation they trigger is internally
// synchronized. Insert, Remove, Update, Clear, and Rebuild restructure the
// tree and require external exclusion against queries and against each
// other.
package bvtree

import (
	"math"
	"sync"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/viam-labs/broadphase/pool"
	"github.com/viam-labs/broadphase/spatialmath"
)

// TreeConfig holds the tunables of a tree.
type TreeConfig struct {
	// FatAabbMargin is added on all sides to every stored leaf bound. A
	// nonzero margin lets Update skip restructuring while an item moves
	// within its fattened bound, at the cost of slightly looser pruning.
	FatAabbMargin float64
}

// DefaultTreeConfig returns the default configuration: no fat margin, so
// stored bounds are tight and every Update that changes a bound restructures.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{FatAabbMargin: 0}
}

// Tree is a bounding-volume hierarchy over items of type T. Items are opaque
// to the tree; each is associated with the axis-aligned bound supplied by the
// caller, who is responsible for calling Update when an item moves.
type Tree[T comparable] struct {
	logger golog.Logger
	cfg    TreeConfig

	root   *node[T]
	leaves map[T]*node[T]

	// refitMu serializes the lazy bound revalidation triggered by queries;
	// see splitIfNecessary.
	refitMu sync.Mutex

	nodePool  *pool.Pool[*node[T]]
	stackPool *pool.Pool[*traversalStack[T]]
}

// NewTree creates an empty tree with the default configuration.
func NewTree[T comparable](logger golog.Logger) *Tree[T] {
	t, err := NewTreeWithConfig[T](DefaultTreeConfig(), logger)
	if err != nil {
		// the default config is always valid
		panic(err)
	}
	return t
}

// NewTreeWithConfig creates an empty tree with the given configuration.
func NewTreeWithConfig[T comparable](cfg TreeConfig, logger golog.Logger) (*Tree[T], error) {
	if cfg.FatAabbMargin < 0 || math.IsNaN(cfg.FatAabbMargin) {
		return nil, errors.Errorf("fat aabb margin must be non-negative, got %f", cfg.FatAabbMargin)
	}
	return &Tree[T]{
		logger:    logger,
		cfg:       cfg,
		leaves:    map[T]*node[T]{},
		nodePool:  pool.New(func() *node[T] { return &node[T]{} }, nil),
		stackPool: pool.New(func() *traversalStack[T] { return &traversalStack[T]{} }, (*traversalStack[T]).reset),
	}, nil
}

// Len returns the number of items in the tree.
func (t *Tree[T]) Len() int {
	return len(t.leaves)
}

// Insert adds an item with the given bound. The bound must be ordered
// (min<=max on every axis); NaN components are accepted and propagate
// through the structure without ever producing false positives. Inserting an
// item already present is an error.
func (t *Tree[T]) Insert(item T, aabb spatialmath.Aabb) error {
	if _, ok := t.leaves[item]; ok {
		return newDuplicateItemError(item)
	}
	if err := checkOrdered(aabb); err != nil {
		return err
	}

	leaf := t.newLeafNode(item, aabb)
	t.leaves[item] = leaf
	if t.root == nil {
		t.root = leaf
		return nil
	}
	t.insertLeaf(leaf)
	return nil
}

// Remove deletes an item from the tree. Removing an item that is not present
// is a structural violation and returns an error rather than a silent no-op.
func (t *Tree[T]) Remove(item T) error {
	leaf, ok := t.leaves[item]
	if !ok {
		return newItemNotFoundError(item)
	}
	delete(t.leaves, item)
	t.detachLeaf(leaf)
	t.recycleNode(leaf)
	return nil
}

// Update replaces an item's bound after it moved or changed size. When the
// new bound still fits inside the leaf's stored (fattened) bound the tree
// structure is left untouched; otherwise the leaf is detached and reinserted
// with a refreshed fat bound.
func (t *Tree[T]) Update(item T, newAabb spatialmath.Aabb) error {
	leaf, ok := t.leaves[item]
	if !ok {
		return newItemNotFoundError(item)
	}
	if err := checkOrdered(newAabb); err != nil {
		return err
	}

	if leaf.aabb.Contains(newAabb) {
		leaf.itemAabb = newAabb
		return nil
	}

	t.detachLeaf(leaf)
	leaf.itemAabb = newAabb
	leaf.aabb = newAabb.Grow(t.cfg.FatAabbMargin)
	if t.root == nil {
		t.root = leaf
		return nil
	}
	t.insertLeaf(leaf)
	return nil
}

// Clear removes all items, recycling every node.
func (t *Tree[T]) Clear() {
	t.recycleSubtree(t.root)
	t.root = nil
	clear(t.leaves)
}

// insertLeaf descends from the root by insertion cost (merged surface area,
// with a proximity tie break), links the leaf next to the chosen sibling,
// and marks the descent path stale. The costs consult cached child bounds
// that may themselves be stale; that only affects tree quality, never query
// correctness, since the whole path is invalidated here.
func (t *Tree[T]) insertLeaf(leaf *node[T]) {
	cur := t.root
	for !cur.leaf {
		cur.valid.Store(false)

		costLeft := cur.left.aabb.Union(leaf.aabb).SurfaceArea() + cur.right.aabb.SurfaceArea()
		costRight := cur.right.aabb.Union(leaf.aabb).SurfaceArea() + cur.left.aabb.SurfaceArea()
		switch {
		case costLeft < costRight:
			cur = cur.left
		case costRight < costLeft:
			cur = cur.right
		case cur.left.aabb.Proximity(leaf.aabb) <= cur.right.aabb.Proximity(leaf.aabb):
			cur = cur.left
		default:
			cur = cur.right
		}
	}

	oldParent := cur.parent
	parent := t.newInternalNode(cur, leaf)
	parent.parent = oldParent
	if oldParent == nil {
		t.root = parent
		return
	}
	if oldParent.left == cur {
		oldParent.left = parent
	} else {
		oldParent.right = parent
	}
}

// detachLeaf unlinks a leaf, promoting its sibling into the parent's place,
// and marks the remaining ancestor chain stale. The leaf node itself is left
// intact for the caller to recycle or reinsert.
func (t *Tree[T]) detachLeaf(leaf *node[T]) {
	parent := leaf.parent
	leaf.parent = nil
	if parent == nil {
		t.root = nil
		return
	}

	sibling := parent.left
	if sibling == leaf {
		sibling = parent.right
	}
	grand := parent.parent
	sibling.parent = grand
	if grand == nil {
		t.root = sibling
	} else {
		if grand.left == parent {
			grand.left = sibling
		} else {
			grand.right = sibling
		}
		for n := grand; n != nil; n = n.parent {
			n.valid.Store(false)
		}
	}
	t.recycleNode(parent)
}

// splitIfNecessary lazily revalidates the cached bounds of the subtree
// rooted at n. Stale nodes always form chains ending at the root, so a
// single call on the root settles everything a mutation left behind; calls
// on interior nodes during traversal are then single-atomic-load no-ops.
//
// Double-checked locking makes this safe to trigger from concurrent queries:
// the validity flag is only set, with release semantics, after the bound has
// been written under refitMu, and readers that observe it set never look at
// a half-written bound.
func (t *Tree[T]) splitIfNecessary(n *node[T]) {
	if n == nil || n.valid.Load() {
		return
	}
	t.refitMu.Lock()
	defer t.refitMu.Unlock()
	t.refitLocked(n)
}

func (t *Tree[T]) refitLocked(n *node[T]) {
	if n.valid.Load() {
		return
	}
	if !n.leaf {
		t.refitLocked(n.left)
		t.refitLocked(n.right)
		n.aabb = n.left.aabb.Union(n.right.aabb)
	}
	n.valid.Store(true)
}

func checkOrdered(aabb spatialmath.Aabb) error {
	if aabb.Min.X > aabb.Max.X || aabb.Min.Y > aabb.Max.Y || aabb.Min.Z > aabb.Max.Z {
		return errors.Errorf("invalid aabb: min %v exceeds max %v", aabb.Min, aabb.Max)
	}
	return nil
}
