package bvtree

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// CheckInvariants validates the structural invariants of the tree and
// returns every violation found, aggregated into one error. It forces a full
// bound revalidation first so that cached bounds are comparable.
//
// Checked invariants: the tree is strictly binary; parent links are
// consistent; every internal bound equals the union of its children's
// bounds; every leaf bound contains its item's bound; the item index matches
// the leaves actually present. Boxes with NaN components are exempt from the
// equality and containment checks, since NaN compares equal to nothing.
func (t *Tree[T]) CheckInvariants() error {
	t.splitIfNecessary(t.root)

	var err error
	leafCount := 0

	var walk func(n, parent *node[T])
	walk = func(n, parent *node[T]) {
		if n.parent != parent {
			err = multierr.Append(err, errors.Errorf("node %v has inconsistent parent link", n.aabb))
		}
		if n.leaf {
			leafCount++
			if n.left != nil || n.right != nil {
				err = multierr.Append(err, errors.Errorf("leaf for item %v has children", n.item))
			}
			if !n.aabb.IsNaN() && !n.itemAabb.IsNaN() && !n.aabb.Contains(n.itemAabb) {
				err = multierr.Append(err,
					errors.Errorf("leaf bound %v does not contain item bound %v", n.aabb, n.itemAabb))
			}
			stored, ok := t.leaves[n.item]
			if !ok || stored != n {
				err = multierr.Append(err, errors.Errorf("leaf for item %v is not indexed", n.item))
			}
			return
		}
		if n.left == nil || n.right == nil {
			err = multierr.Append(err, errors.Errorf("internal node %v is not strictly binary", n.aabb))
			return
		}
		expected := n.left.aabb.Union(n.right.aabb)
		if !n.aabb.IsNaN() && n.aabb != expected {
			err = multierr.Append(err,
				errors.Errorf("internal bound %v is not the union %v of its children", n.aabb, expected))
		}
		walk(n.left, n)
		walk(n.right, n)
	}
	if t.root != nil {
		walk(t.root, nil)
	}

	if leafCount != len(t.leaves) {
		err = multierr.Append(err,
			errors.Errorf("tree holds %d leaves but indexes %d items", leafCount, len(t.leaves)))
	}
	return err
}
