package repository

import (
	"context"

	"github.com/ammar0144/relmap/pkg/db"
	"github.com/ammar0144/relmap/pkg/mapping"
	"github.com/jmoiron/sqlx"
)

// view is the read side of a repository: one joined SELECT ordered by the
// entity key, the plan splitting its rows, and the step linking an
// assembled entity to its related entities.
type view[Row, E, R any] struct {
	entity string
	query  func() *db.Builder
	idCol  string
	plan   mapping.Plan[Row, E, R]
	link   func(E, []R) E

	// narrow, when set, trims the related entities the way link does, so
	// related agrees with the graph one returns.
	narrow func([]R) []R
}

func (v view[Row, E, R]) load(ctx context.Context, tx *sqlx.Tx, id *int64) ([]mapping.Group[E, R], error) {
	b := v.query()
	if id != nil {
		b.Where(v.idCol, db.Equal, *id)
	}
	q, args := b.BuildSelect()

	var rows []Row
	if err := tx.SelectContext(ctx, &rows, tx.Rebind(q), args...); err != nil {
		return nil, err
	}

	groups, err := mapping.Assemble(rows, v.plan)
	if err != nil {
		return nil, withEntity(err, v.entity)
	}
	return groups, nil
}

func (v view[Row, E, R]) all(ctx context.Context, tx *sqlx.Tx) ([]E, error) {
	groups, err := v.load(ctx, tx, nil)
	if err != nil {
		return nil, err
	}
	out := make([]E, 0, len(groups))
	for _, g := range groups {
		out = append(out, v.link(g.Parent, g.Children))
	}
	return out, nil
}

func (v view[Row, E, R]) one(ctx context.Context, tx *sqlx.Tx, id int64) (*E, error) {
	groups, err := v.load(ctx, tx, &id)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, mapping.NotFound(v.entity, id)
	}
	e := v.link(groups[0].Parent, groups[0].Children)
	return &e, nil
}

// related returns the related side of id. A missing id is NotFound. An id
// without related rows yields an empty slice, or NotFound when legacy is set.
func (v view[Row, E, R]) related(ctx context.Context, tx *sqlx.Tx, id int64, legacy bool) ([]R, error) {
	groups, err := v.load(ctx, tx, &id)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, mapping.NotFound(v.entity, id)
	}
	children := groups[0].Children
	if len(children) == 0 {
		if legacy {
			return nil, mapping.NotFound(v.entity, id)
		}
		return []R{}, nil
	}
	if v.narrow != nil {
		return v.narrow(children), nil
	}
	return children, nil
}

// withEntity names the entity on a decode failure raised by the assembler.
func withEntity(err error, entity string) error {
	if typed, ok := err.(*mapping.Error); ok && typed.Entity == "" {
		cp := *typed
		cp.Entity = entity
		return &cp
	}
	return err
}
