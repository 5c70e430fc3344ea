package repository

import (
	"context"

	"github.com/ammar0144/relmap/pkg/mapping"
	"github.com/ammar0144/relmap/pkg/model"
	"github.com/jmoiron/sqlx"
)

// BrandRepository persists brands and cascades to the models they own.
type BrandRepository struct {
	base
	view   view[brandModelRow, model.Brand, model.Model]
	policy DeletePolicy
}

var _ Repository[model.Brand, model.Model] = (*BrandRepository)(nil)

// NewBrandRepository returns a repository whose delete policy defaults to
// DeleteChildren.
func NewBrandRepository(p Provider, opts ...Option) *BrandRepository {
	o := buildOptions(p, opts)
	return &BrandRepository{
		base:   newBase(p, brandTable.entity, o),
		view:   brandView(),
		policy: o.deletePolicy(DeleteChildren),
	}
}

// Save inserts the brand, then each of its models with brand_id set to the
// new brand id. Models with a persisted id are updated instead. The
// generated ids are written back onto b and its models after commit.
func (r *BrandRepository) Save(ctx context.Context, b *model.Brand) error {
	if b == nil {
		return r.nilEntity(mapping.ErrSave)
	}
	if err := r.checkIdentity(b.ID); err != nil {
		return err
	}
	work := cloneBrand(b)
	err := r.inTx(ctx, opSave, mapping.ErrSave, 0, func(ctx context.Context, tx *sqlx.Tx) error {
		id, err := brandTable.insert(ctx, tx, brandParams(&work))
		if err != nil {
			return err
		}
		work.ID = id
		return r.saveModels(ctx, tx, &work)
	})
	if err != nil {
		return err
	}
	applyBrand(b, work)
	r.logWrite(opSave, b.ID)
	return nil
}

func (r *BrandRepository) saveModels(ctx context.Context, tx *sqlx.Tx, b *model.Brand) error {
	for i := range b.Models {
		m := &b.Models[i]
		m.BrandID = b.ID
		if err := modelTable.upsert(ctx, tx, &m.ID, modelParams(m)); err != nil {
			return err
		}
	}
	return nil
}

// FindByID loads the brand with all of its models.
func (r *BrandRepository) FindByID(ctx context.Context, id int64) (*model.Brand, error) {
	var out *model.Brand
	err := r.inTx(ctx, opFindByID, mapping.ErrQuery, id, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.one(ctx, tx, id)
		return err
	})
	return out, err
}

// FindAll loads every brand with its models, ordered by id.
func (r *BrandRepository) FindAll(ctx context.Context) ([]model.Brand, error) {
	var out []model.Brand
	err := r.inTx(ctx, opFindAll, mapping.ErrQuery, 0, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.all(ctx, tx)
		return err
	})
	return out, err
}

// Update rewrites the brand's columns and upserts each model it carries.
// Models stored for the brand but absent from b.Models are left untouched.
func (r *BrandRepository) Update(ctx context.Context, b *model.Brand) error {
	if b == nil {
		return r.nilEntity(mapping.ErrUpdate)
	}
	work := cloneBrand(b)
	err := r.inTx(ctx, opUpdate, mapping.ErrUpdate, b.ID, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := brandTable.mustExist(ctx, tx, work.ID); err != nil {
			return err
		}
		if err := brandTable.update(ctx, tx, work.ID, brandParams(&work)); err != nil {
			return err
		}
		return r.saveModels(ctx, tx, &work)
	})
	if err != nil {
		return err
	}
	applyBrand(b, work)
	r.logWrite(opUpdate, b.ID)
	return nil
}

// Delete removes the brand. Its models are deleted or detached according to
// the delete policy.
func (r *BrandRepository) Delete(ctx context.Context, id int64) error {
	err := r.inTx(ctx, opDelete, mapping.ErrDelete, id, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := brandTable.mustExist(ctx, tx, id); err != nil {
			return err
		}
		if err := modelBrandRef.apply(ctx, tx, r.policy, id); err != nil {
			return err
		}
		return brandTable.deleteByID(ctx, tx, id)
	})
	if err == nil {
		r.logWrite(opDelete, id)
	}
	return err
}

// DeleteAll removes every brand, applying the delete policy to all models
// that reference one.
func (r *BrandRepository) DeleteAll(ctx context.Context) error {
	err := r.inTx(ctx, opDeleteAll, mapping.ErrDelete, 0, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := modelBrandRef.apply(ctx, tx, r.policy, 0); err != nil {
			return err
		}
		return brandTable.deleteAll(ctx, tx)
	})
	if err == nil {
		r.logWrite(opDeleteAll, 0)
	}
	return err
}

// GetRelatedByParentID returns the models of brand id.
func (r *BrandRepository) GetRelatedByParentID(ctx context.Context, id int64) ([]model.Model, error) {
	var out []model.Model
	err := r.inTx(ctx, opRelated, mapping.ErrQuery, id, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.related(ctx, tx, id, r.legacyRelated)
		return err
	})
	return out, err
}

// Policy reports the delete policy in effect.
func (r *BrandRepository) Policy() DeletePolicy {
	return r.policy
}
