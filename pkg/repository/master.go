package repository

import (
	"context"

	"github.com/ammar0144/relmap/pkg/mapping"
	"github.com/ammar0144/relmap/pkg/model"
	"github.com/jmoiron/sqlx"
)

// MasterRepository persists masters and their associations with kitties.
// Kitties are never deleted through it.
type MasterRepository struct {
	base
	view view[masterKittyRow, model.Master, model.Kitty]
}

var _ Repository[model.Master, model.Kitty] = (*MasterRepository)(nil)

func NewMasterRepository(p Provider, opts ...Option) *MasterRepository {
	return &MasterRepository{
		base: newBase(p, masterTable.entity, buildOptions(p, opts)),
		view: masterView(),
	}
}

// Save inserts the master, upserts each kitty and links it.
func (r *MasterRepository) Save(ctx context.Context, m *model.Master) error {
	if m == nil {
		return r.nilEntity(mapping.ErrSave)
	}
	if err := r.checkIdentity(m.ID); err != nil {
		return err
	}
	work := cloneMaster(m)
	err := r.inTx(ctx, opSave, mapping.ErrSave, 0, func(ctx context.Context, tx *sqlx.Tx) error {
		id, err := masterTable.insert(ctx, tx, masterParams(&work))
		if err != nil {
			return err
		}
		work.ID = id
		return r.saveKitties(ctx, tx, &work)
	})
	if err != nil {
		return err
	}
	applyMaster(m, work)
	r.logWrite(opSave, m.ID)
	return nil
}

func (r *MasterRepository) saveKitties(ctx context.Context, tx *sqlx.Tx, m *model.Master) error {
	for i := range m.Kitties {
		k := &m.Kitties[i]
		if err := kittyTable.upsert(ctx, tx, &k.ID, kittyParams(k)); err != nil {
			return err
		}
		if err := linkMasterKitty(ctx, tx, m.ID, k.ID); err != nil {
			return err
		}
	}
	return nil
}

// FindByID loads the master with its kitties.
func (r *MasterRepository) FindByID(ctx context.Context, id int64) (*model.Master, error) {
	var out *model.Master
	err := r.inTx(ctx, opFindByID, mapping.ErrQuery, id, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.one(ctx, tx, id)
		return err
	})
	return out, err
}

// FindAll loads every master with its kitties.
func (r *MasterRepository) FindAll(ctx context.Context) ([]model.Master, error) {
	var out []model.Master
	err := r.inTx(ctx, opFindAll, mapping.ErrQuery, 0, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.all(ctx, tx)
		return err
	})
	return out, err
}

// Update rewrites the master's columns, upserts each kitty it carries and
// adds the missing links. Existing links are never removed here.
func (r *MasterRepository) Update(ctx context.Context, m *model.Master) error {
	if m == nil {
		return r.nilEntity(mapping.ErrUpdate)
	}
	work := cloneMaster(m)
	err := r.inTx(ctx, opUpdate, mapping.ErrUpdate, m.ID, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := masterTable.mustExist(ctx, tx, work.ID); err != nil {
			return err
		}
		if err := masterTable.update(ctx, tx, work.ID, masterParams(&work)); err != nil {
			return err
		}
		return r.saveKitties(ctx, tx, &work)
	})
	if err != nil {
		return err
	}
	applyMaster(m, work)
	r.logWrite(opUpdate, m.ID)
	return nil
}

// Delete removes the master's association rows, then the master.
func (r *MasterRepository) Delete(ctx context.Context, id int64) error {
	err := r.inTx(ctx, opDelete, mapping.ErrDelete, id, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := masterTable.mustExist(ctx, tx, id); err != nil {
			return err
		}
		if err := linkByMaster.deleteChildren(ctx, tx, id); err != nil {
			return err
		}
		return masterTable.deleteByID(ctx, tx, id)
	})
	if err == nil {
		r.logWrite(opDelete, id)
	}
	return err
}

func (r *MasterRepository) DeleteAll(ctx context.Context) error {
	err := r.inTx(ctx, opDeleteAll, mapping.ErrDelete, 0, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := linkByMaster.deleteChildren(ctx, tx, 0); err != nil {
			return err
		}
		return masterTable.deleteAll(ctx, tx)
	})
	if err == nil {
		r.logWrite(opDeleteAll, 0)
	}
	return err
}

// GetRelatedByParentID returns the kitties linked to master id.
func (r *MasterRepository) GetRelatedByParentID(ctx context.Context, id int64) ([]model.Kitty, error) {
	var out []model.Kitty
	err := r.inTx(ctx, opRelated, mapping.ErrQuery, id, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.related(ctx, tx, id, r.legacyRelated)
		return err
	})
	return out, err
}
