package mapping

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNullParams(t *testing.T) {
	assert.Nil(t, NullString(""))
	assert.Equal(t, "x", NullString("x"))
	assert.Nil(t, NullID(0))
	assert.Equal(t, int64(4), NullID(4))
	assert.Nil(t, NullDate(time.Time{}))

	type shade string
	assert.Nil(t, NullEnum(shade("")))
	assert.Equal(t, "GREY", NullEnum(shade("GREY")))

	loc := time.FixedZone("x", -3*3600)
	assert.Equal(t, time.Date(2020, 5, 6, 0, 0, 0, 0, time.UTC), NullDate(time.Date(2020, 5, 6, 22, 0, 0, 0, loc)))
}

func TestNullableColumns(t *testing.T) {
	assert.Equal(t, "", String(sql.NullString{}))
	assert.Equal(t, "a", String(sql.NullString{String: "a", Valid: true}))
	assert.Equal(t, 0, Int(sql.NullInt64{}))
	assert.Equal(t, 7, Int(sql.NullInt64{Int64: 7, Valid: true}))
	assert.Equal(t, int64(0), ID(sql.NullInt64{}))
}

var errNope = errors.New("nope")

func parseShade(s string) (string, error) {
	if s == "LIGHT" {
		return s, nil
	}
	return "", fmt.Errorf("shade %q: %w", s, errNope)
}

func TestEnumDecode(t *testing.T) {
	v, err := Enum(sql.NullString{}, parseShade)
	require.NoError(t, err)
	assert.Equal(t, "", v)

	v, err = Enum(sql.NullString{String: "LIGHT", Valid: true}, parseShade)
	require.NoError(t, err)
	assert.Equal(t, "LIGHT", v)

	_, err = Enum(sql.NullString{String: "DARK", Valid: true}, parseShade)
	require.Error(t, err)
	assert.True(t, IsDecode(err))
	assert.ErrorIs(t, err, errNope)
}

func TestDateScan(t *testing.T) {
	want := time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC)

	cases := []any{
		time.Date(2019, 12, 31, 0, 0, 0, 0, time.UTC),
		"2019-12-31",
		"2019-12-31 00:00:00+00:00",
		[]byte("2019-12-31T00:00:00Z"),
	}
	for _, src := range cases {
		var d Date
		require.NoError(t, d.Scan(src), "%v", src)
		assert.True(t, d.Valid)
		assert.Equal(t, want, d.Get())
	}

	var d Date
	require.NoError(t, d.Scan(nil))
	assert.False(t, d.Valid)
	assert.True(t, d.Get().IsZero())

	assert.Error(t, d.Scan("not a date"))
	assert.Error(t, d.Scan(42))
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("constraint failed")
	err := Wrap(ErrSave, "brand", 0, cause)
	assert.True(t, IsSave(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "save", KindName(err))
	assert.Equal(t, "brand: save failed: constraint failed", err.Error())

	nf := NotFound("master", 999)
	assert.True(t, IsNotFound(nf))
	assert.Equal(t, "master: entity not found (id=999)", nf.Error())

	// an error that already carries a kind keeps it
	assert.Same(t, nf, Wrap(ErrDelete, "master", 999, nf))
	assert.False(t, IsDelete(Wrap(ErrDelete, "master", 999, nf)))

	assert.Nil(t, Wrap(ErrUpdate, "x", 1, nil))
	assert.Nil(t, KindOf(cause))
	assert.Equal(t, "unknown", KindName(cause))
	assert.Equal(t, "key_generation", KindName(&Error{Kind: ErrKeyGeneration}))
}
