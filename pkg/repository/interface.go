package repository

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

// Repository is the contract shared by every cascading repository. E is the
// entity the repository persists and R is the entity on the other side of its
// relationship.
type Repository[E, R any] interface {
	// Save inserts entity and cascades to its related entities. entity.ID
	// must be 0; the generated keys are written back onto entity and its
	// related items.
	Save(ctx context.Context, entity *E) error

	// FindByID loads one entity with its related entities.
	FindByID(ctx context.Context, id int64) (*E, error)

	// FindAll loads every entity with its related entities.
	FindAll(ctx context.Context) ([]E, error)

	// Update rewrites entity's columns and upserts its related entities.
	Update(ctx context.Context, entity *E) error

	// Delete removes the entity, applying the pair's delete policy to the
	// rows that reference it.
	Delete(ctx context.Context, id int64) error

	// DeleteAll removes every entity of this kind, applying the same policy.
	DeleteAll(ctx context.Context) error

	// GetRelatedByParentID returns the related entities of id.
	GetRelatedByParentID(ctx context.Context, id int64) ([]R, error)
}

// Provider hands out transactions. *sqlx.DB and *db.Manager both satisfy it.
type Provider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
	DriverName() string
}
