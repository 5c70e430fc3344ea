package repository

import (
	"context"

	"github.com/ammar0144/relmap/pkg/mapping"
	"github.com/ammar0144/relmap/pkg/model"
	"github.com/jmoiron/sqlx"
)

// HouseRepository persists houses from the child side of the Street/House
// pair.
type HouseRepository struct {
	base
	view view[streetHouseRow, model.House, model.Street]
}

var _ Repository[model.House, model.Street] = (*HouseRepository)(nil)

func NewHouseRepository(p Provider, opts ...Option) *HouseRepository {
	return &HouseRepository{
		base: newBase(p, houseTable.entity, buildOptions(p, opts)),
		view: houseView(),
	}
}

// Save upserts h.Street when set, then inserts the house on it.
func (r *HouseRepository) Save(ctx context.Context, h *model.House) error {
	if h == nil {
		return r.nilEntity(mapping.ErrSave)
	}
	if err := r.checkIdentity(h.ID); err != nil {
		return err
	}
	work := cloneHouse(h)
	err := r.inTx(ctx, opSave, mapping.ErrSave, 0, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := r.saveStreet(ctx, tx, &work); err != nil {
			return err
		}
		id, err := houseTable.insert(ctx, tx, houseParams(&work))
		if err != nil {
			return err
		}
		work.ID = id
		return nil
	})
	if err != nil {
		return err
	}
	applyHouse(h, work)
	r.logWrite(opSave, h.ID)
	return nil
}

func (r *HouseRepository) saveStreet(ctx context.Context, tx *sqlx.Tx, h *model.House) error {
	if h.Street == nil {
		return nil
	}
	if err := streetTable.upsert(ctx, tx, &h.Street.ID, streetParams(h.Street)); err != nil {
		return err
	}
	h.StreetID = h.Street.ID
	return nil
}

func (r *HouseRepository) FindByID(ctx context.Context, id int64) (*model.House, error) {
	var out *model.House
	err := r.inTx(ctx, opFindByID, mapping.ErrQuery, id, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.one(ctx, tx, id)
		return err
	})
	return out, err
}

func (r *HouseRepository) FindAll(ctx context.Context) ([]model.House, error) {
	var out []model.House
	err := r.inTx(ctx, opFindAll, mapping.ErrQuery, 0, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.all(ctx, tx)
		return err
	})
	return out, err
}

func (r *HouseRepository) Update(ctx context.Context, h *model.House) error {
	if h == nil {
		return r.nilEntity(mapping.ErrUpdate)
	}
	work := cloneHouse(h)
	err := r.inTx(ctx, opUpdate, mapping.ErrUpdate, h.ID, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := houseTable.mustExist(ctx, tx, work.ID); err != nil {
			return err
		}
		if err := r.saveStreet(ctx, tx, &work); err != nil {
			return err
		}
		return houseTable.update(ctx, tx, work.ID, houseParams(&work))
	})
	if err != nil {
		return err
	}
	applyHouse(h, work)
	r.logWrite(opUpdate, h.ID)
	return nil
}

func (r *HouseRepository) Delete(ctx context.Context, id int64) error {
	err := r.inTx(ctx, opDelete, mapping.ErrDelete, id, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := houseTable.mustExist(ctx, tx, id); err != nil {
			return err
		}
		return houseTable.deleteByID(ctx, tx, id)
	})
	if err == nil {
		r.logWrite(opDelete, id)
	}
	return err
}

func (r *HouseRepository) DeleteAll(ctx context.Context) error {
	err := r.inTx(ctx, opDeleteAll, mapping.ErrDelete, 0, func(ctx context.Context, tx *sqlx.Tx) error {
		return houseTable.deleteAll(ctx, tx)
	})
	if err == nil {
		r.logWrite(opDeleteAll, 0)
	}
	return err
}

// GetRelatedByParentID returns the street of house id, as a slice of zero
// or one element.
func (r *HouseRepository) GetRelatedByParentID(ctx context.Context, id int64) ([]model.Street, error) {
	var out []model.Street
	err := r.inTx(ctx, opRelated, mapping.ErrQuery, id, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.related(ctx, tx, id, r.legacyRelated)
		return err
	})
	return out, err
}
