package repository

import (
	"context"

	"github.com/ammar0144/relmap/pkg/mapping"
	"github.com/ammar0144/relmap/pkg/model"
	"github.com/jmoiron/sqlx"
)

// StreetRepository persists streets and the houses located on them.
type StreetRepository struct {
	base
	view   view[streetHouseRow, model.Street, model.House]
	policy DeletePolicy
}

var _ Repository[model.Street, model.House] = (*StreetRepository)(nil)

// NewStreetRepository returns a repository whose delete policy defaults to
// DetachChildren. Houses outlive their street unless WithDeletePolicy says
// otherwise, unlike the models of a brand.
func NewStreetRepository(p Provider, opts ...Option) *StreetRepository {
	o := buildOptions(p, opts)
	return &StreetRepository{
		base:   newBase(p, streetTable.entity, o),
		view:   streetView(),
		policy: o.deletePolicy(DetachChildren),
	}
}

// Save inserts the street, then upserts each of its houses pointing at it.
func (r *StreetRepository) Save(ctx context.Context, s *model.Street) error {
	if s == nil {
		return r.nilEntity(mapping.ErrSave)
	}
	if err := r.checkIdentity(s.ID); err != nil {
		return err
	}
	work := cloneStreet(s)
	err := r.inTx(ctx, opSave, mapping.ErrSave, 0, func(ctx context.Context, tx *sqlx.Tx) error {
		id, err := streetTable.insert(ctx, tx, streetParams(&work))
		if err != nil {
			return err
		}
		work.ID = id
		return r.saveHouses(ctx, tx, &work)
	})
	if err != nil {
		return err
	}
	applyStreet(s, work)
	r.logWrite(opSave, s.ID)
	return nil
}

func (r *StreetRepository) saveHouses(ctx context.Context, tx *sqlx.Tx, s *model.Street) error {
	for i := range s.Houses {
		h := &s.Houses[i]
		h.StreetID = s.ID
		if err := houseTable.upsert(ctx, tx, &h.ID, houseParams(h)); err != nil {
			return err
		}
	}
	return nil
}

// FindByID loads the street with its houses.
func (r *StreetRepository) FindByID(ctx context.Context, id int64) (*model.Street, error) {
	var out *model.Street
	err := r.inTx(ctx, opFindByID, mapping.ErrQuery, id, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.one(ctx, tx, id)
		return err
	})
	return out, err
}

// FindAll loads every street with its houses.
func (r *StreetRepository) FindAll(ctx context.Context) ([]model.Street, error) {
	var out []model.Street
	err := r.inTx(ctx, opFindAll, mapping.ErrQuery, 0, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.all(ctx, tx)
		return err
	})
	return out, err
}

// Update rewrites the street's columns and upserts each house it carries.
func (r *StreetRepository) Update(ctx context.Context, s *model.Street) error {
	if s == nil {
		return r.nilEntity(mapping.ErrUpdate)
	}
	work := cloneStreet(s)
	err := r.inTx(ctx, opUpdate, mapping.ErrUpdate, s.ID, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := streetTable.mustExist(ctx, tx, work.ID); err != nil {
			return err
		}
		if err := streetTable.update(ctx, tx, work.ID, streetParams(&work)); err != nil {
			return err
		}
		return r.saveHouses(ctx, tx, &work)
	})
	if err != nil {
		return err
	}
	applyStreet(s, work)
	r.logWrite(opUpdate, s.ID)
	return nil
}

// Delete removes the street. Its houses are detached or deleted according
// to the delete policy.
func (r *StreetRepository) Delete(ctx context.Context, id int64) error {
	err := r.inTx(ctx, opDelete, mapping.ErrDelete, id, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := streetTable.mustExist(ctx, tx, id); err != nil {
			return err
		}
		if err := houseStreetRef.apply(ctx, tx, r.policy, id); err != nil {
			return err
		}
		return streetTable.deleteByID(ctx, tx, id)
	})
	if err == nil {
		r.logWrite(opDelete, id)
	}
	return err
}

func (r *StreetRepository) DeleteAll(ctx context.Context) error {
	err := r.inTx(ctx, opDeleteAll, mapping.ErrDelete, 0, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := houseStreetRef.apply(ctx, tx, r.policy, 0); err != nil {
			return err
		}
		return streetTable.deleteAll(ctx, tx)
	})
	if err == nil {
		r.logWrite(opDeleteAll, 0)
	}
	return err
}

// GetRelatedByParentID returns the houses of street id.
func (r *StreetRepository) GetRelatedByParentID(ctx context.Context, id int64) ([]model.House, error) {
	var out []model.House
	err := r.inTx(ctx, opRelated, mapping.ErrQuery, id, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.related(ctx, tx, id, r.legacyRelated)
		return err
	})
	return out, err
}

// Policy reports the delete policy in effect.
func (r *StreetRepository) Policy() DeletePolicy {
	return r.policy
}
