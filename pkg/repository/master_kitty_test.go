package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/ammar0144/relmap/pkg/mapping"
	"github.com/ammar0144/relmap/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMasterFindByIDMissing(t *testing.T) {
	repo := NewMasterRepository(newTestDB(t))

	got, err := repo.FindByID(context.Background(), 999)
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, mapping.IsNotFound(err))
	assert.Equal(t, "master: entity not found (id=999)", err.Error())
}

func TestMasterSaveLinksKitties(t *testing.T) {
	m := newTestDB(t)
	repo := NewMasterRepository(m)
	ctx := context.Background()

	mr := &model.Master{
		Name:     "Ivan",
		Birthday: day(1980, 5, 5),
		Kitties: []model.Kitty{
			{Name: "Murka", Breed: "Siamese", Color: model.ColorWhite},
			{Name: "Barsik", Color: model.ColorRedHaired},
		},
	}
	require.NoError(t, repo.Save(ctx, mr))

	assert.Equal(t, 2, countRows(t, m, "kitties"))
	assert.Equal(t, 2, countWhere(t, m, masterKittyTable, "master_id = ?", mr.ID))

	got, err := repo.FindByID(ctx, mr.ID)
	require.NoError(t, err)
	assert.Equal(t, mr, got)
}

func TestKittySharedByMasters(t *testing.T) {
	m := newTestDB(t)
	masters := NewMasterRepository(m)
	ctx := context.Background()

	first := &model.Master{Name: "Ivan", Kitties: []model.Kitty{{Name: "Murka", Color: model.ColorGrey}}}
	require.NoError(t, masters.Save(ctx, first))
	murka := first.Kitties[0]

	second := &model.Master{Name: "Olga", Kitties: []model.Kitty{murka}}
	require.NoError(t, masters.Save(ctx, second))
	assert.Equal(t, murka.ID, second.Kitties[0].ID)
	assert.Equal(t, 1, countRows(t, m, "kitties"))

	kitty, err := NewKittyRepository(m).FindByID(ctx, murka.ID)
	require.NoError(t, err)
	require.Len(t, kitty.Masters, 2)
	assert.Equal(t, first.ID, kitty.Masters[0].ID)
	assert.Equal(t, second.ID, kitty.Masters[1].ID)
}

func TestMasterUpdateAddsLinksOnce(t *testing.T) {
	m := newTestDB(t)
	repo := NewMasterRepository(m)
	ctx := context.Background()

	mr := &model.Master{Name: "Ivan", Kitties: []model.Kitty{{Name: "Murka"}}}
	require.NoError(t, repo.Save(ctx, mr))

	mr.Kitties = append(mr.Kitties, model.Kitty{Name: "Pushok", Color: model.ColorBlack})
	require.NoError(t, repo.Update(ctx, mr))
	require.NoError(t, repo.Update(ctx, mr))

	assert.Equal(t, 2, countRows(t, m, "kitties"))
	assert.Equal(t, 2, countRows(t, m, masterKittyTable))

	// dropping a kitty from the list keeps its link
	mr.Kitties = mr.Kitties[:1]
	require.NoError(t, repo.Update(ctx, mr))
	kitties, err := repo.GetRelatedByParentID(ctx, mr.ID)
	require.NoError(t, err)
	assert.Len(t, kitties, 2)
}

func TestKittySaveUpsertsMasters(t *testing.T) {
	m := newTestDB(t)
	repo := NewKittyRepository(m)
	ctx := context.Background()

	k := &model.Kitty{
		Name:    "Tom",
		Color:   model.ColorBrown,
		Masters: []model.Master{{Name: "Ivan"}, {Name: "Olga"}},
	}
	require.NoError(t, repo.Save(ctx, k))
	for _, mr := range k.Masters {
		assert.NotZero(t, mr.ID)
	}

	masters, err := repo.GetRelatedByParentID(ctx, k.ID)
	require.NoError(t, err)
	require.Len(t, masters, 2)
	assert.Equal(t, "Ivan", masters[0].Name)

	kitties, err := NewMasterRepository(m).GetRelatedByParentID(ctx, k.Masters[1].ID)
	require.NoError(t, err)
	require.Len(t, kitties, 1)
	assert.Equal(t, k.ID, kitties[0].ID)
}

func TestKittyDeleteUnlinks(t *testing.T) {
	m := newTestDB(t)
	ctx := context.Background()

	mr := &model.Master{Name: "Ivan", Kitties: []model.Kitty{{Name: "Murka"}, {Name: "Barsik"}}}
	require.NoError(t, NewMasterRepository(m).Save(ctx, mr))

	require.NoError(t, NewKittyRepository(m).Delete(ctx, mr.Kitties[0].ID))

	assert.Equal(t, 1, countRows(t, m, "masters"))
	assert.Equal(t, 1, countRows(t, m, "kitties"))
	assert.Equal(t, 1, countRows(t, m, masterKittyTable))

	got, err := NewMasterRepository(m).FindByID(ctx, mr.ID)
	require.NoError(t, err)
	require.Len(t, got.Kitties, 1)
	assert.Equal(t, "Barsik", got.Kitties[0].Name)
}

func TestMasterDeleteKeepsKitties(t *testing.T) {
	m := newTestDB(t)
	repo := NewMasterRepository(m)
	ctx := context.Background()

	mr := &model.Master{Name: "Ivan", Kitties: []model.Kitty{{Name: "Murka"}}}
	require.NoError(t, repo.Save(ctx, mr))
	require.NoError(t, repo.Delete(ctx, mr.ID))

	assert.Zero(t, countRows(t, m, "masters"))
	assert.Zero(t, countRows(t, m, masterKittyTable))

	kitty, err := NewKittyRepository(m).FindByID(ctx, mr.Kitties[0].ID)
	require.NoError(t, err)
	assert.Empty(t, kitty.Masters)
}

func TestMasterKittyDeleteAll(t *testing.T) {
	m := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, NewMasterRepository(m).Save(ctx, &model.Master{Name: "Ivan", Kitties: []model.Kitty{{Name: "Murka"}}}))
	require.NoError(t, NewKittyRepository(m).DeleteAll(ctx))

	assert.Zero(t, countRows(t, m, "kitties"))
	assert.Zero(t, countRows(t, m, masterKittyTable))
	assert.Equal(t, 1, countRows(t, m, "masters"))

	require.NoError(t, NewMasterRepository(m).DeleteAll(ctx))
	assert.Zero(t, countRows(t, m, "masters"))
}

func TestKittyDecodeFailure(t *testing.T) {
	m := newTestDB(t)
	ctx := context.Background()

	execUnchecked(t, m, "INSERT INTO kitties (name, color) VALUES ('Odd', 'PURPLE')")

	var id int64
	require.NoError(t, m.DB().Get(&id, "SELECT id FROM kitties"))

	_, err := NewKittyRepository(m).FindByID(ctx, id)
	require.Error(t, err)
	assert.True(t, mapping.IsDecode(err))

	var typed *mapping.Error
	require.True(t, errors.As(err, &typed))
	assert.Equal(t, "kitty", typed.Entity)
}

func TestKittySaveRollsBackMasters(t *testing.T) {
	m := newTestDB(t)
	ctx := context.Background()

	k := &model.Kitty{Name: "Odd", Color: model.Color("PURPLE"), Masters: []model.Master{{Name: "Ivan"}}}
	err := NewKittyRepository(m).Save(ctx, k)
	assert.True(t, mapping.IsSave(err))

	assert.Zero(t, countRows(t, m, "masters"))
	assert.Zero(t, k.Masters[0].ID)
	assert.Zero(t, k.ID)
}
