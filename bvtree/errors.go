package bvtree

import "github.com/pkg/errors"

// ErrNilCallback is returned when a query requiring a callback is given nil.
var ErrNilCallback = errors.New("candidate callback cannot be nil")

func newDuplicateItemError[T any](item T) error {
	return errors.Errorf("item %v is already present in the tree", item)
}

func newItemNotFoundError[T any](item T) error {
	return errors.Errorf("item %v is not present in the tree", item)
}
