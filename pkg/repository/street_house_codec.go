package repository

import (
	"database/sql"

	"github.com/ammar0144/relmap/pkg/db"
	"github.com/ammar0144/relmap/pkg/mapping"
	"github.com/ammar0144/relmap/pkg/model"
)

var (
	streetTable = table{name: "streets", entity: "street", columns: []string{"name", "postcode"}}
	houseTable  = table{name: "houses", entity: "house", columns: []string{"name", "date_building", "floors", "type", "street_id"}}

	houseStreetRef = backRef{table: "houses", column: "street_id"}
)

type streetHouseRow struct {
	StreetID       sql.NullInt64  `db:"street_id"`
	StreetName     sql.NullString `db:"street_name"`
	StreetPostcode sql.NullInt64  `db:"street_postcode"`
	HouseID        sql.NullInt64  `db:"house_id"`
	HouseName      sql.NullString `db:"house_name"`
	HouseBuilt     mapping.Date   `db:"house_date_building"`
	HouseFloors    sql.NullInt64  `db:"house_floors"`
	HouseType      sql.NullString `db:"house_type"`
	HouseStreetID  sql.NullInt64  `db:"house_street_id"`
}

var streetHouseColumns = []string{
	"s.id AS street_id",
	"s.name AS street_name",
	"s.postcode AS street_postcode",
	"h.id AS house_id",
	"h.name AS house_name",
	"h.date_building AS house_date_building",
	"h.floors AS house_floors",
	"h.type AS house_type",
	"h.street_id AS house_street_id",
}

func decodeStreet(r streetHouseRow) (model.Street, error) {
	return model.Street{
		ID:       r.StreetID.Int64,
		Name:     mapping.String(r.StreetName),
		Postcode: mapping.Int(r.StreetPostcode),
	}, nil
}

func decodeHouse(r streetHouseRow) (model.House, error) {
	typ, err := mapping.Enum(r.HouseType, model.ParseBuildingType)
	if err != nil {
		return model.House{}, err
	}
	return model.House{
		ID:       r.HouseID.Int64,
		Name:     mapping.String(r.HouseName),
		Built:    r.HouseBuilt.Get(),
		Floors:   mapping.Int(r.HouseFloors),
		Type:     typ,
		StreetID: mapping.ID(r.HouseStreetID),
	}, nil
}

func streetParams(s *model.Street) []any {
	return []any{mapping.NullString(s.Name), s.Postcode}
}

func houseParams(h *model.House) []any {
	return []any{
		mapping.NullString(h.Name),
		mapping.NullDate(h.Built),
		h.Floors,
		mapping.NullEnum(h.Type),
		mapping.NullID(h.StreetID),
	}
}

func streetView() view[streetHouseRow, model.Street, model.House] {
	return view[streetHouseRow, model.Street, model.House]{
		entity: streetTable.entity,
		query: func() *db.Builder {
			return db.NewBuilder("streets s").
				Select(streetHouseColumns...).
				LeftJoin("houses h", "h.street_id = s.id").
				OrderBy("s.id", "h.id")
		},
		idCol: "s.id",
		plan: mapping.Plan[streetHouseRow, model.Street, model.House]{
			ParentKey:    func(r streetHouseRow) int64 { return r.StreetID.Int64 },
			DecodeParent: decodeStreet,
			ChildKey:     func(r streetHouseRow) (int64, bool) { return r.HouseID.Int64, r.HouseID.Valid },
			DecodeChild:  decodeHouse,
		},
		link: func(s model.Street, houses []model.House) model.Street {
			s.Houses = houses
			return s
		},
	}
}

func houseView() view[streetHouseRow, model.House, model.Street] {
	return view[streetHouseRow, model.House, model.Street]{
		entity: houseTable.entity,
		query: func() *db.Builder {
			return db.NewBuilder("houses h").
				Select(streetHouseColumns...).
				LeftJoin("streets s", "s.id = h.street_id").
				OrderBy("h.id")
		},
		idCol: "h.id",
		plan: mapping.Plan[streetHouseRow, model.House, model.Street]{
			ParentKey:    func(r streetHouseRow) int64 { return r.HouseID.Int64 },
			DecodeParent: decodeHouse,
			ChildKey:     func(r streetHouseRow) (int64, bool) { return r.StreetID.Int64, r.StreetID.Valid },
			DecodeChild:  decodeStreet,
		},
		link: func(h model.House, streets []model.Street) model.House {
			if len(streets) > 0 {
				s := streets[0]
				h.Street = &s
			}
			return h
		},
	}
}

func cloneStreet(s *model.Street) model.Street {
	c := *s
	c.Houses = append([]model.House(nil), s.Houses...)
	return c
}

func applyStreet(dst *model.Street, src model.Street) {
	houses := dst.Houses
	copy(houses, src.Houses)
	*dst = src
	dst.Houses = houses
}

func cloneHouse(h *model.House) model.House {
	c := *h
	if h.Street != nil {
		s := *h.Street
		c.Street = &s
	}
	return c
}

func applyHouse(dst *model.House, src model.House) {
	street := dst.Street
	if street != nil && src.Street != nil {
		*street = *src.Street
	}
	*dst = src
	dst.Street = street
}
