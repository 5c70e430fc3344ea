package repository

import (
	"context"

	"github.com/ammar0144/relmap/pkg/mapping"
	"github.com/ammar0144/relmap/pkg/model"
	"github.com/jmoiron/sqlx"
)

// ModelRepository persists car models from the child side of the
// Brand/Model pair.
type ModelRepository struct {
	base
	view view[brandModelRow, model.Model, model.Brand]
}

var _ Repository[model.Model, model.Brand] = (*ModelRepository)(nil)

func NewModelRepository(p Provider, opts ...Option) *ModelRepository {
	return &ModelRepository{
		base: newBase(p, modelTable.entity, buildOptions(p, opts)),
		view: modelView(),
	}
}

// Save upserts m.Brand when set, then inserts the model referencing it.
func (r *ModelRepository) Save(ctx context.Context, m *model.Model) error {
	if m == nil {
		return r.nilEntity(mapping.ErrSave)
	}
	if err := r.checkIdentity(m.ID); err != nil {
		return err
	}
	work := cloneModel(m)
	err := r.inTx(ctx, opSave, mapping.ErrSave, 0, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := r.saveBrand(ctx, tx, &work); err != nil {
			return err
		}
		id, err := modelTable.insert(ctx, tx, modelParams(&work))
		if err != nil {
			return err
		}
		work.ID = id
		return nil
	})
	if err != nil {
		return err
	}
	applyModel(m, work)
	r.logWrite(opSave, m.ID)
	return nil
}

func (r *ModelRepository) saveBrand(ctx context.Context, tx *sqlx.Tx, m *model.Model) error {
	if m.Brand == nil {
		return nil
	}
	if err := brandTable.upsert(ctx, tx, &m.Brand.ID, brandParams(m.Brand)); err != nil {
		return err
	}
	m.BrandID = m.Brand.ID
	return nil
}

// FindByID loads the model with its brand.
func (r *ModelRepository) FindByID(ctx context.Context, id int64) (*model.Model, error) {
	var out *model.Model
	err := r.inTx(ctx, opFindByID, mapping.ErrQuery, id, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.one(ctx, tx, id)
		return err
	})
	return out, err
}

// FindAll loads every model with its brand.
func (r *ModelRepository) FindAll(ctx context.Context) ([]model.Model, error) {
	var out []model.Model
	err := r.inTx(ctx, opFindAll, mapping.ErrQuery, 0, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.all(ctx, tx)
		return err
	})
	return out, err
}

// Update upserts m.Brand when set and rewrites the model's columns.
func (r *ModelRepository) Update(ctx context.Context, m *model.Model) error {
	if m == nil {
		return r.nilEntity(mapping.ErrUpdate)
	}
	work := cloneModel(m)
	err := r.inTx(ctx, opUpdate, mapping.ErrUpdate, m.ID, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := modelTable.mustExist(ctx, tx, work.ID); err != nil {
			return err
		}
		if err := r.saveBrand(ctx, tx, &work); err != nil {
			return err
		}
		return modelTable.update(ctx, tx, work.ID, modelParams(&work))
	})
	if err != nil {
		return err
	}
	applyModel(m, work)
	r.logWrite(opUpdate, m.ID)
	return nil
}

// Delete removes the model. Its brand is kept.
func (r *ModelRepository) Delete(ctx context.Context, id int64) error {
	err := r.inTx(ctx, opDelete, mapping.ErrDelete, id, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := modelTable.mustExist(ctx, tx, id); err != nil {
			return err
		}
		return modelTable.deleteByID(ctx, tx, id)
	})
	if err == nil {
		r.logWrite(opDelete, id)
	}
	return err
}

func (r *ModelRepository) DeleteAll(ctx context.Context) error {
	err := r.inTx(ctx, opDeleteAll, mapping.ErrDelete, 0, func(ctx context.Context, tx *sqlx.Tx) error {
		return modelTable.deleteAll(ctx, tx)
	})
	if err == nil {
		r.logWrite(opDeleteAll, 0)
	}
	return err
}

// GetRelatedByParentID returns the brand of model id, as a slice of zero or
// one element.
func (r *ModelRepository) GetRelatedByParentID(ctx context.Context, id int64) ([]model.Brand, error) {
	var out []model.Brand
	err := r.inTx(ctx, opRelated, mapping.ErrQuery, id, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.related(ctx, tx, id, r.legacyRelated)
		return err
	})
	return out, err
}
