package repository

import (
	"context"

	"github.com/ammar0144/relmap/pkg/mapping"
	"github.com/ammar0144/relmap/pkg/model"
	"github.com/jmoiron/sqlx"
)

// KittyRepository persists kitties and their associations with masters.
// Masters are never deleted through it.
type KittyRepository struct {
	base
	view view[masterKittyRow, model.Kitty, model.Master]
}

var _ Repository[model.Kitty, model.Master] = (*KittyRepository)(nil)

func NewKittyRepository(p Provider, opts ...Option) *KittyRepository {
	return &KittyRepository{
		base: newBase(p, kittyTable.entity, buildOptions(p, opts)),
		view: kittyView(),
	}
}

// Save upserts each master first, then inserts the kitty and links it to
// every one of them.
func (r *KittyRepository) Save(ctx context.Context, k *model.Kitty) error {
	if k == nil {
		return r.nilEntity(mapping.ErrSave)
	}
	if err := r.checkIdentity(k.ID); err != nil {
		return err
	}
	work := cloneKitty(k)
	err := r.inTx(ctx, opSave, mapping.ErrSave, 0, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := r.saveMasters(ctx, tx, &work); err != nil {
			return err
		}
		id, err := kittyTable.insert(ctx, tx, kittyParams(&work))
		if err != nil {
			return err
		}
		work.ID = id
		return r.linkMasters(ctx, tx, &work)
	})
	if err != nil {
		return err
	}
	applyKitty(k, work)
	r.logWrite(opSave, k.ID)
	return nil
}

func (r *KittyRepository) saveMasters(ctx context.Context, tx *sqlx.Tx, k *model.Kitty) error {
	for i := range k.Masters {
		m := &k.Masters[i]
		if err := masterTable.upsert(ctx, tx, &m.ID, masterParams(m)); err != nil {
			return err
		}
	}
	return nil
}

func (r *KittyRepository) linkMasters(ctx context.Context, tx *sqlx.Tx, k *model.Kitty) error {
	for _, m := range k.Masters {
		if err := linkMasterKitty(ctx, tx, m.ID, k.ID); err != nil {
			return err
		}
	}
	return nil
}

// FindByID loads the kitty with its masters.
func (r *KittyRepository) FindByID(ctx context.Context, id int64) (*model.Kitty, error) {
	var out *model.Kitty
	err := r.inTx(ctx, opFindByID, mapping.ErrQuery, id, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.one(ctx, tx, id)
		return err
	})
	return out, err
}

// FindAll loads every kitty with its masters.
func (r *KittyRepository) FindAll(ctx context.Context) ([]model.Kitty, error) {
	var out []model.Kitty
	err := r.inTx(ctx, opFindAll, mapping.ErrQuery, 0, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.all(ctx, tx)
		return err
	})
	return out, err
}

// Update upserts each master, rewrites the kitty's columns and adds the
// missing links.
func (r *KittyRepository) Update(ctx context.Context, k *model.Kitty) error {
	if k == nil {
		return r.nilEntity(mapping.ErrUpdate)
	}
	work := cloneKitty(k)
	err := r.inTx(ctx, opUpdate, mapping.ErrUpdate, k.ID, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := kittyTable.mustExist(ctx, tx, work.ID); err != nil {
			return err
		}
		if err := r.saveMasters(ctx, tx, &work); err != nil {
			return err
		}
		if err := kittyTable.update(ctx, tx, work.ID, kittyParams(&work)); err != nil {
			return err
		}
		return r.linkMasters(ctx, tx, &work)
	})
	if err != nil {
		return err
	}
	applyKitty(k, work)
	r.logWrite(opUpdate, k.ID)
	return nil
}

// Delete removes the kitty's association rows, then the kitty.
func (r *KittyRepository) Delete(ctx context.Context, id int64) error {
	err := r.inTx(ctx, opDelete, mapping.ErrDelete, id, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := kittyTable.mustExist(ctx, tx, id); err != nil {
			return err
		}
		if err := linkByKitty.deleteChildren(ctx, tx, id); err != nil {
			return err
		}
		return kittyTable.deleteByID(ctx, tx, id)
	})
	if err == nil {
		r.logWrite(opDelete, id)
	}
	return err
}

func (r *KittyRepository) DeleteAll(ctx context.Context) error {
	err := r.inTx(ctx, opDeleteAll, mapping.ErrDelete, 0, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := linkByKitty.deleteChildren(ctx, tx, 0); err != nil {
			return err
		}
		return kittyTable.deleteAll(ctx, tx)
	})
	if err == nil {
		r.logWrite(opDeleteAll, 0)
	}
	return err
}

// GetRelatedByParentID returns the masters linked to kitty id.
func (r *KittyRepository) GetRelatedByParentID(ctx context.Context, id int64) ([]model.Master, error) {
	var out []model.Master
	err := r.inTx(ctx, opRelated, mapping.ErrQuery, id, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.related(ctx, tx, id, r.legacyRelated)
		return err
	})
	return out, err
}
