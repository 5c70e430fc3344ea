package repository

import (
	"database/sql"

	"github.com/ammar0144/relmap/pkg/db"
	"github.com/ammar0144/relmap/pkg/mapping"
	"github.com/ammar0144/relmap/pkg/model"
)

var (
	brandTable = table{name: "brands_car", entity: "brand", columns: []string{"name", "date"}}
	modelTable = table{name: "models_car", entity: "model", columns: []string{"name", "length", "width", "body", "brand_id"}}

	modelBrandRef = backRef{table: "models_car", column: "brand_id"}
)

// brandModelRow is one row of the brands_car/models_car join, read from
// either side.
type brandModelRow struct {
	BrandID      sql.NullInt64  `db:"brand_id"`
	BrandName    sql.NullString `db:"brand_name"`
	BrandDate    mapping.Date   `db:"brand_date"`
	ModelID      sql.NullInt64  `db:"model_id"`
	ModelName    sql.NullString `db:"model_name"`
	ModelLength  sql.NullInt64  `db:"model_length"`
	ModelWidth   sql.NullInt64  `db:"model_width"`
	ModelBody    sql.NullString `db:"model_body"`
	ModelBrandID sql.NullInt64  `db:"model_brand_id"`
}

var brandModelColumns = []string{
	"b.id AS brand_id",
	"b.name AS brand_name",
	"b.date AS brand_date",
	"m.id AS model_id",
	"m.name AS model_name",
	"m.length AS model_length",
	"m.width AS model_width",
	"m.body AS model_body",
	"m.brand_id AS model_brand_id",
}

func decodeBrand(r brandModelRow) (model.Brand, error) {
	return model.Brand{
		ID:      r.BrandID.Int64,
		Name:    mapping.String(r.BrandName),
		Founded: r.BrandDate.Get(),
	}, nil
}

func decodeModel(r brandModelRow) (model.Model, error) {
	body, err := mapping.Enum(r.ModelBody, model.ParseBodyType)
	if err != nil {
		return model.Model{}, err
	}
	return model.Model{
		ID:      r.ModelID.Int64,
		Name:    mapping.String(r.ModelName),
		Length:  mapping.Int(r.ModelLength),
		Width:   mapping.Int(r.ModelWidth),
		Body:    body,
		BrandID: mapping.ID(r.ModelBrandID),
	}, nil
}

func brandParams(b *model.Brand) []any {
	return []any{mapping.NullString(b.Name), mapping.NullDate(b.Founded)}
}

func modelParams(m *model.Model) []any {
	return []any{
		mapping.NullString(m.Name),
		m.Length,
		m.Width,
		mapping.NullEnum(m.Body),
		mapping.NullID(m.BrandID),
	}
}

func brandView() view[brandModelRow, model.Brand, model.Model] {
	return view[brandModelRow, model.Brand, model.Model]{
		entity: brandTable.entity,
		query: func() *db.Builder {
			return db.NewBuilder("brands_car b").
				Select(brandModelColumns...).
				LeftJoin("models_car m", "m.brand_id = b.id").
				OrderBy("b.id", "m.id")
		},
		idCol: "b.id",
		plan: mapping.Plan[brandModelRow, model.Brand, model.Model]{
			ParentKey:    func(r brandModelRow) int64 { return r.BrandID.Int64 },
			DecodeParent: decodeBrand,
			ChildKey:     func(r brandModelRow) (int64, bool) { return r.ModelID.Int64, r.ModelID.Valid },
			DecodeChild:  decodeModel,
		},
		link: func(b model.Brand, models []model.Model) model.Brand {
			b.Models = models
			return b
		},
	}
}

func modelView() view[brandModelRow, model.Model, model.Brand] {
	return view[brandModelRow, model.Model, model.Brand]{
		entity: modelTable.entity,
		query: func() *db.Builder {
			return db.NewBuilder("models_car m").
				Select(brandModelColumns...).
				LeftJoin("brands_car b", "b.id = m.brand_id").
				OrderBy("m.id")
		},
		idCol: "m.id",
		plan: mapping.Plan[brandModelRow, model.Model, model.Brand]{
			ParentKey:    func(r brandModelRow) int64 { return r.ModelID.Int64 },
			DecodeParent: decodeModel,
			ChildKey:     func(r brandModelRow) (int64, bool) { return r.BrandID.Int64, r.BrandID.Valid },
			DecodeChild:  decodeBrand,
		},
		link: func(m model.Model, brands []model.Brand) model.Model {
			if len(brands) > 0 {
				b := brands[0]
				m.Brand = &b
			}
			return m
		},
	}
}

// cloneBrand copies b deeply enough for a write to mutate the copy.
func cloneBrand(b *model.Brand) model.Brand {
	c := *b
	c.Models = append([]model.Model(nil), b.Models...)
	return c
}

// applyBrand copies a committed write back onto dst, reusing dst's models
// so the caller's elements see their new ids.
func applyBrand(dst *model.Brand, src model.Brand) {
	models := dst.Models
	copy(models, src.Models)
	*dst = src
	dst.Models = models
}

func cloneModel(m *model.Model) model.Model {
	c := *m
	if m.Brand != nil {
		b := *m.Brand
		c.Brand = &b
	}
	return c
}

func applyModel(dst *model.Model, src model.Model) {
	brand := dst.Brand
	if brand != nil && src.Brand != nil {
		*brand = *src.Brand
	}
	*dst = src
	dst.Brand = brand
}
