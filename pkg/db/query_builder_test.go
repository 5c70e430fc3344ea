package db

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
)

func TestBuildSelectWithJoinAndOrder(t *testing.T) {
	q, args := NewBuilder("brands_car b").
		Select("b.id", "m.id").
		LeftJoin("models_car m", "m.brand_id = b.id").
		Where("b.id", Equal, int64(3)).
		OrderBy("b.id", "m.id").
		BuildSelect()

	assert.Equal(t, "SELECT b.id, m.id FROM brands_car b LEFT JOIN models_car m ON m.brand_id = b.id WHERE b.id = ? ORDER BY b.id, m.id", q)
	assert.Equal(t, []any{int64(3)}, args)
}

func TestBuildSelectWithoutWhere(t *testing.T) {
	q, args := NewBuilder("streets").BuildSelect()
	assert.Equal(t, "SELECT * FROM streets", q)
	assert.Nil(t, args)
}

func TestBuildInsert(t *testing.T) {
	assert.Equal(t, "INSERT INTO masters (name, birthday) VALUES (?, ?)",
		NewBuilder("masters").BuildInsert("name", "birthday"))
	assert.Equal(t, "INSERT INTO masters (name, birthday) VALUES (?, ?) RETURNING id",
		NewBuilder("masters").Returning("id").BuildInsert("name", "birthday"))
}

func TestBuildUpdateConditions(t *testing.T) {
	q, args := NewBuilder("tasks").
		Where("employee_id", Equal, int64(1)).
		Where("id", NotEqual, int64(2)).
		BuildUpdate("employee_id")
	assert.Equal(t, "UPDATE tasks SET employee_id = ? WHERE employee_id = ? AND id <> ?", q)
	assert.Equal(t, []any{int64(1), int64(2)}, args)

	q, args = NewBuilder("houses").Where("street_id", IsNotNull, nil).BuildUpdate("street_id")
	assert.Equal(t, "UPDATE houses SET street_id = ? WHERE street_id IS NOT NULL", q)
	assert.Empty(t, args)
}

func TestBuildDelete(t *testing.T) {
	q, args := NewBuilder("master_kitty").Where("kitty_id", Equal, int64(9)).BuildDelete()
	assert.Equal(t, "DELETE FROM master_kitty WHERE kitty_id = ?", q)
	assert.Equal(t, []any{int64(9)}, args)

	q, _ = NewBuilder("kitties").BuildDelete()
	assert.Equal(t, "DELETE FROM kitties", q)
}

func TestStatementsRebindForPostgres(t *testing.T) {
	q, _ := NewBuilder("tasks").Where("employee_id", Equal, 1).Where("id", NotEqual, 2).BuildUpdate("employee_id")
	assert.Equal(t, "UPDATE tasks SET employee_id = $1 WHERE employee_id = $2 AND id <> $3", sqlx.Rebind(sqlx.BindType(DriverPostgres), q))
	assert.Equal(t, sqlx.QUESTION, sqlx.BindType(DriverSQLite))
}
