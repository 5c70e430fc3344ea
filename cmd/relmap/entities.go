package main

import (
	"context"
	"strings"

	"github.com/ammar0144/relmap/pkg/repository"
)

// entity adapts one typed repository to the untyped commands.
type entity struct {
	list      func(ctx context.Context) (any, error)
	get       func(ctx context.Context, id int64) (any, error)
	related   func(ctx context.Context, id int64) (any, error)
	delete    func(ctx context.Context, id int64) error
	deleteAll func(ctx context.Context) error
}

func adapt[E, R any](r repository.Repository[E, R]) entity {
	return entity{
		list: func(ctx context.Context) (any, error) {
			return r.FindAll(ctx)
		},
		get: func(ctx context.Context, id int64) (any, error) {
			return r.FindByID(ctx, id)
		},
		related: func(ctx context.Context, id int64) (any, error) {
			return r.GetRelatedByParentID(ctx, id)
		},
		delete: func(ctx context.Context, id int64) error {
			return r.Delete(ctx, id)
		},
		deleteAll: func(ctx context.Context) error {
			return r.DeleteAll(ctx)
		},
	}
}

func entities(set *repository.Set) map[string]entity {
	return map[string]entity{
		"brands":    adapt(set.Brands),
		"models":    adapt(set.Models),
		"employees": adapt(set.Employees),
		"tasks":     adapt(set.Tasks),
		"streets":   adapt(set.Streets),
		"houses":    adapt(set.Houses),
		"masters":   adapt(set.Masters),
		"kitties":   adapt(set.Kitties),
	}
}

var entityNameList = []string{"brands", "models", "employees", "tasks", "streets", "houses", "masters", "kitties"}

func entityNames() string {
	return strings.Join(entityNameList, ", ")
}
