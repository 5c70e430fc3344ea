package mapping

import (
	"errors"
	"fmt"
)

// ErrRowsNotGrouped is returned by Assemble when the rows of one parent are
// not contiguous. Queries feeding Assemble must order by the parent key.
var ErrRowsNotGrouped = errors.New("rows of one parent are not contiguous")

// Plan tells Assemble how one flat joined row splits into a parent portion
// and an optional child portion.
type Plan[R, P, C any] struct {
	ParentKey    func(R) int64
	DecodeParent func(R) (P, error)

	// ChildKey reports false when the row's child key column is NULL.
	ChildKey    func(R) (int64, bool)
	DecodeChild func(R) (C, error)
}

// Group is one parent with the children joined to it. Children is nil when
// no child row was present.
type Group[P, C any] struct {
	Parent   P
	Children []C
}

// Assemble folds rows into one group per parent in a single forward pass,
// starting a new group whenever the parent key changes. Child rows repeated
// by a join fan-out are kept once. A parent key that shows up again after its
// block was closed is rejected with ErrRowsNotGrouped.
func Assemble[R, P, C any](rows []R, plan Plan[R, P, C]) ([]Group[P, C], error) {
	groups := make([]Group[P, C], 0)

	var (
		current    *Group[P, C]
		currentKey int64
		children   map[int64]struct{}
		closed     = make(map[int64]struct{})
	)
	flush := func() {
		if current != nil {
			groups = append(groups, *current)
			closed[currentKey] = struct{}{}
		}
	}

	for i, row := range rows {
		key := plan.ParentKey(row)
		if current == nil || key != currentKey {
			if _, seen := closed[key]; seen {
				return nil, &Error{Kind: ErrDecode, ID: key, Err: fmt.Errorf("row %d: %w", i, ErrRowsNotGrouped)}
			}
			flush()
			parent, err := plan.DecodeParent(row)
			if err != nil {
				return nil, Wrap(ErrDecode, "", key, err)
			}
			current = &Group[P, C]{Parent: parent}
			currentKey = key
			children = make(map[int64]struct{})
		}

		childKey, ok := plan.ChildKey(row)
		if !ok {
			continue
		}
		if _, dup := children[childKey]; dup {
			continue
		}
		child, err := plan.DecodeChild(row)
		if err != nil {
			return nil, Wrap(ErrDecode, "", childKey, err)
		}
		children[childKey] = struct{}{}
		current.Children = append(current.Children, child)
	}
	flush()

	return groups, nil
}
