package repository

import (
	"github.com/ammar0144/relmap/pkg/model"
)

// Set holds one repository per entity, sharing a provider and options.
type Set struct {
	Brands    Repository[model.Brand, model.Model]
	Models    Repository[model.Model, model.Brand]
	Employees Repository[model.Employee, model.Task]
	Tasks     Repository[model.Task, model.Employee]
	Streets   Repository[model.Street, model.House]
	Houses    Repository[model.House, model.Street]
	Masters   Repository[model.Master, model.Kitty]
	Kitties   Repository[model.Kitty, model.Master]
}

// NewSet builds the eight repositories. The policies apply to the owning
// side of each pair and override any WithDeletePolicy in opts.
func NewSet(p Provider, policies Policies, opts ...Option) *Set {
	with := func(policy DeletePolicy) []Option {
		return append(append([]Option(nil), opts...), WithDeletePolicy(policy))
	}
	return &Set{
		Brands:    NewBrandRepository(p, with(policies.BrandModels)...),
		Models:    NewModelRepository(p, opts...),
		Employees: NewEmployeeRepository(p, with(policies.EmployeeTask)...),
		Tasks:     NewTaskRepository(p, opts...),
		Streets:   NewStreetRepository(p, with(policies.StreetHouses)...),
		Houses:    NewHouseRepository(p, opts...),
		Masters:   NewMasterRepository(p, opts...),
		Kitties:   NewKittyRepository(p, opts...),
	}
}

// Cached returns a copy of s whose repositories read through store. Each
// side of a pair embeds the other in its graphs, so a write on one side
// invalidates both.
func (s *Set) Cached(store CacheStore, opts ...CacheOption) *Set {
	with := func(dependent string) []CacheOption {
		return append(append([]CacheOption(nil), opts...), WithCacheDependents(dependent))
	}
	return &Set{
		Brands:    NewCached(s.Brands, store, brandTable.entity, with(modelTable.entity)...),
		Models:    NewCached(s.Models, store, modelTable.entity, with(brandTable.entity)...),
		Employees: NewCached(s.Employees, store, employeeTable.entity, with(taskTable.entity)...),
		Tasks:     NewCached(s.Tasks, store, taskTable.entity, with(employeeTable.entity)...),
		Streets:   NewCached(s.Streets, store, streetTable.entity, with(houseTable.entity)...),
		Houses:    NewCached(s.Houses, store, houseTable.entity, with(streetTable.entity)...),
		Masters:   NewCached(s.Masters, store, masterTable.entity, with(kittyTable.entity)...),
		Kitties:   NewCached(s.Kitties, store, kittyTable.entity, with(masterTable.entity)...),
	}
}
