package repository

import (
	"context"
	"database/sql"

	"github.com/ammar0144/relmap/pkg/db"
	"github.com/ammar0144/relmap/pkg/mapping"
	"github.com/ammar0144/relmap/pkg/model"
	"github.com/jmoiron/sqlx"
)

const masterKittyTable = "master_kitty"

var (
	masterTable = table{name: "masters", entity: "master", columns: []string{"name", "birthday"}}
	kittyTable  = table{name: "kitties", entity: "kitty", columns: []string{"name", "birthday", "breed", "color"}}

	// association rows seen from either side
	linkByMaster = backRef{table: masterKittyTable, column: "master_id"}
	linkByKitty  = backRef{table: masterKittyTable, column: "kitty_id"}
)

type masterKittyRow struct {
	MasterID       sql.NullInt64  `db:"master_id"`
	MasterName     sql.NullString `db:"master_name"`
	MasterBirthday mapping.Date   `db:"master_birthday"`
	KittyID        sql.NullInt64  `db:"kitty_id"`
	KittyName      sql.NullString `db:"kitty_name"`
	KittyBirthday  mapping.Date   `db:"kitty_birthday"`
	KittyBreed     sql.NullString `db:"kitty_breed"`
	KittyColor     sql.NullString `db:"kitty_color"`
}

var masterKittyColumns = []string{
	"m.id AS master_id",
	"m.name AS master_name",
	"m.birthday AS master_birthday",
	"k.id AS kitty_id",
	"k.name AS kitty_name",
	"k.birthday AS kitty_birthday",
	"k.breed AS kitty_breed",
	"k.color AS kitty_color",
}

func decodeMaster(r masterKittyRow) (model.Master, error) {
	return model.Master{
		ID:       r.MasterID.Int64,
		Name:     mapping.String(r.MasterName),
		Birthday: r.MasterBirthday.Get(),
	}, nil
}

func decodeKitty(r masterKittyRow) (model.Kitty, error) {
	color, err := mapping.Enum(r.KittyColor, model.ParseColor)
	if err != nil {
		return model.Kitty{}, err
	}
	return model.Kitty{
		ID:       r.KittyID.Int64,
		Name:     mapping.String(r.KittyName),
		Birthday: r.KittyBirthday.Get(),
		Breed:    mapping.String(r.KittyBreed),
		Color:    color,
	}, nil
}

func masterParams(m *model.Master) []any {
	return []any{mapping.NullString(m.Name), mapping.NullDate(m.Birthday)}
}

func kittyParams(k *model.Kitty) []any {
	return []any{
		mapping.NullString(k.Name),
		mapping.NullDate(k.Birthday),
		mapping.NullString(k.Breed),
		mapping.NullEnum(k.Color),
	}
}

func masterView() view[masterKittyRow, model.Master, model.Kitty] {
	return view[masterKittyRow, model.Master, model.Kitty]{
		entity: masterTable.entity,
		query: func() *db.Builder {
			return db.NewBuilder("masters m").
				Select(masterKittyColumns...).
				LeftJoin(masterKittyTable+" mk", "mk.master_id = m.id").
				LeftJoin("kitties k", "k.id = mk.kitty_id").
				OrderBy("m.id", "k.id")
		},
		idCol: "m.id",
		plan: mapping.Plan[masterKittyRow, model.Master, model.Kitty]{
			ParentKey:    func(r masterKittyRow) int64 { return r.MasterID.Int64 },
			DecodeParent: decodeMaster,
			ChildKey:     func(r masterKittyRow) (int64, bool) { return r.KittyID.Int64, r.KittyID.Valid },
			DecodeChild:  decodeKitty,
		},
		link: func(m model.Master, kitties []model.Kitty) model.Master {
			m.Kitties = kitties
			return m
		},
	}
}

func kittyView() view[masterKittyRow, model.Kitty, model.Master] {
	return view[masterKittyRow, model.Kitty, model.Master]{
		entity: kittyTable.entity,
		query: func() *db.Builder {
			return db.NewBuilder("kitties k").
				Select(masterKittyColumns...).
				LeftJoin(masterKittyTable+" mk", "mk.kitty_id = k.id").
				LeftJoin("masters m", "m.id = mk.master_id").
				OrderBy("k.id", "m.id")
		},
		idCol: "k.id",
		plan: mapping.Plan[masterKittyRow, model.Kitty, model.Master]{
			ParentKey:    func(r masterKittyRow) int64 { return r.KittyID.Int64 },
			DecodeParent: decodeKitty,
			ChildKey:     func(r masterKittyRow) (int64, bool) { return r.MasterID.Int64, r.MasterID.Valid },
			DecodeChild:  decodeMaster,
		},
		link: func(k model.Kitty, masters []model.Master) model.Kitty {
			k.Masters = masters
			return k
		},
	}
}

// linkMasterKitty stores the association unless it is already present.
func linkMasterKitty(ctx context.Context, tx *sqlx.Tx, masterID, kittyID int64) error {
	ok, err := rowExists(ctx, tx, db.NewBuilder(masterKittyTable).
		Where("master_id", db.Equal, masterID).
		Where("kitty_id", db.Equal, kittyID))
	if err != nil || ok {
		return err
	}
	return execStmt(ctx, tx, db.NewBuilder(masterKittyTable).BuildInsert("master_id", "kitty_id"), masterID, kittyID)
}

func cloneMaster(m *model.Master) model.Master {
	c := *m
	c.Kitties = append([]model.Kitty(nil), m.Kitties...)
	return c
}

func applyMaster(dst *model.Master, src model.Master) {
	kitties := dst.Kitties
	copy(kitties, src.Kitties)
	*dst = src
	dst.Kitties = kitties
}

func cloneKitty(k *model.Kitty) model.Kitty {
	c := *k
	c.Masters = append([]model.Master(nil), k.Masters...)
	return c
}

func applyKitty(dst *model.Kitty, src model.Kitty) {
	masters := dst.Masters
	copy(masters, src.Masters)
	*dst = src
	dst.Masters = masters
}
