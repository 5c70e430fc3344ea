package repository

import (
	"context"
	"testing"

	"github.com/ammar0144/relmap/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSetAppliesPolicies(t *testing.T) {
	m := newTestDB(t)
	set := NewSet(m, Policies{
		BrandModels:  DetachChildren,
		EmployeeTask: DeleteChildren,
		StreetHouses: DeleteChildren,
	}, WithDeletePolicy(DetachChildren))

	assert.Equal(t, DetachChildren, set.Brands.(*BrandRepository).Policy())
	assert.Equal(t, DeleteChildren, set.Employees.(*EmployeeRepository).Policy())
	assert.Equal(t, DeleteChildren, set.Streets.(*StreetRepository).Policy())

	defaults := NewSet(m, DefaultPolicies())
	assert.Equal(t, DeleteChildren, defaults.Brands.(*BrandRepository).Policy())
	assert.Equal(t, DetachChildren, defaults.Employees.(*EmployeeRepository).Policy())
	assert.Equal(t, DetachChildren, defaults.Streets.(*StreetRepository).Policy())
}

func TestCachedSetInvalidatesOtherSide(t *testing.T) {
	m := newTestDB(t)
	store := newMemoryStore()
	set := NewSet(m, DefaultPolicies()).Cached(store, WithCacheNamespace("test"))
	ctx := context.Background()

	mr := &model.Master{Name: "Ivan", Kitties: []model.Kitty{{Name: "Murka"}}}
	require.NoError(t, set.Masters.Save(ctx, mr))

	kitty, err := set.Kitties.FindByID(ctx, mr.Kitties[0].ID)
	require.NoError(t, err)
	require.Len(t, kitty.Masters, 1)
	assert.Equal(t, "Ivan", kitty.Masters[0].Name)

	mr.Name = "Ivan Petrovich"
	require.NoError(t, set.Masters.Update(ctx, mr))
	assert.Contains(t, store.invalidated, "relmap:test:kitty:*")

	kitty, err = set.Kitties.FindByID(ctx, mr.Kitties[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Ivan Petrovich", kitty.Masters[0].Name)

	inner, ok := set.Brands.(*Cached[model.Brand, model.Model])
	require.True(t, ok)
	_, ok = inner.Unwrap().(*BrandRepository)
	assert.True(t, ok)
}
