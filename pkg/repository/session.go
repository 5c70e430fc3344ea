package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/ammar0144/relmap/pkg/db"
	"github.com/ammar0144/relmap/pkg/mapping"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Operation labels used in logs and metrics.
const (
	opSave      = "save"
	opFindByID  = "find_by_id"
	opFindAll   = "find_all"
	opUpdate    = "update"
	opDelete    = "delete"
	opDeleteAll = "delete_all"
	opRelated   = "related"
)

var errNoGeneratedKey = errors.New("driver returned no generated id")

// base carries what every repository shares: the provider, logging,
// timeout and metrics.
type base struct {
	db            Provider
	entity        string
	log           *zap.Logger
	timeout       time.Duration
	metrics       *Metrics
	legacyRelated bool
}

func newBase(p Provider, entity string, o options) base {
	return base{
		db:            p,
		entity:        entity,
		log:           o.log.With(zap.String("entity", entity)),
		timeout:       o.timeout,
		metrics:       o.metrics,
		legacyRelated: o.legacyRelated,
	}
}

// withQueryTimeout wraps a context with the configured query timeout
func (b base) withQueryTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout > 0 {
		return context.WithTimeout(ctx, b.timeout)
	}
	return ctx, func() {}
}

// inTx runs fn in one transaction. It commits when fn succeeds and rolls back
// otherwise. Errors that already carry a kind surface unchanged; anything
// else is wrapped with kind.
func (b base) inTx(ctx context.Context, op string, kind error, id int64, fn func(context.Context, *sqlx.Tx) error) (err error) {
	start := time.Now()
	ctx, cancel := b.withQueryTimeout(ctx)
	defer cancel()

	defer func() {
		if err != nil {
			err = mapping.Wrap(kind, b.entity, id, err)
			b.logFailure(op, id, err)
		}
		b.metrics.observe(b.entity, op, start, err)
	}()

	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if err = fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			b.log.Warn("rollback failed",
				zap.String("op", op),
				zap.Int64("id", id),
				zap.Error(rbErr))
		}
		return err
	}

	return tx.Commit()
}

func (b base) logFailure(op string, id int64, err error) {
	fields := []zap.Field{zap.String("op", op), zap.Int64("id", id), zap.Error(err)}
	if mapping.IsNotFound(err) {
		b.log.Debug("entity not found", fields...)
		return
	}
	b.log.Error("repository operation failed", fields...)
}

func (b base) logWrite(op string, id int64) {
	b.log.Debug("repository operation committed", zap.String("op", op), zap.Int64("id", id))
}

// checkIdentity enforces the identity precondition of Save.
func (b base) checkIdentity(id int64) error {
	if id != 0 {
		return &mapping.Error{Kind: mapping.ErrSave, Entity: b.entity, ID: id, Err: mapping.ErrIdentityAssigned}
	}
	return nil
}

func (b base) nilEntity(kind error) error {
	return &mapping.Error{Kind: kind, Entity: b.entity, Err: mapping.ErrNilEntity}
}

func execStmt(ctx context.Context, tx *sqlx.Tx, query string, args ...any) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	return err
}

func rowExists(ctx context.Context, tx *sqlx.Tx, b *db.Builder) (bool, error) {
	q, args := b.Select("1").BuildSelect()
	var one int
	err := tx.QueryRowxContext(ctx, tx.Rebind(q), args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// table describes the writable columns of one entity table. columns excludes
// the id and lists the statement order of the encode functions.
type table struct {
	name    string
	entity  string
	columns []string
}

func (t table) exists(ctx context.Context, tx *sqlx.Tx, id int64) (bool, error) {
	return rowExists(ctx, tx, db.NewBuilder(t.name).Where("id", db.Equal, id))
}

// insert runs the INSERT and returns the generated id. Drivers using $n
// placeholders read it through RETURNING, the others through LastInsertId.
func (t table) insert(ctx context.Context, tx *sqlx.Tx, params []any) (int64, error) {
	b := db.NewBuilder(t.name)

	if sqlx.BindType(tx.DriverName()) == sqlx.DOLLAR {
		var id int64
		err := tx.QueryRowxContext(ctx, tx.Rebind(b.Returning("id").BuildInsert(t.columns...)), params...).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, &mapping.Error{Kind: mapping.ErrKeyGeneration, Entity: t.entity, Err: errNoGeneratedKey}
		}
		if err != nil {
			return 0, err
		}
		return t.checkKey(id)
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(b.BuildInsert(t.columns...)), params...)
	if err != nil {
		return 0, err
	}
	return t.generatedKey(res)
}

func (t table) generatedKey(res sql.Result) (int64, error) {
	id, err := res.LastInsertId()
	if err != nil {
		return 0, &mapping.Error{Kind: mapping.ErrKeyGeneration, Entity: t.entity, Err: err}
	}
	return t.checkKey(id)
}

func (t table) checkKey(id int64) (int64, error) {
	if id <= 0 {
		return 0, &mapping.Error{Kind: mapping.ErrKeyGeneration, Entity: t.entity, Err: errNoGeneratedKey}
	}
	return id, nil
}

func (t table) update(ctx context.Context, tx *sqlx.Tx, id int64, params []any) error {
	q, where := db.NewBuilder(t.name).Where("id", db.Equal, id).BuildUpdate(t.columns...)
	return execStmt(ctx, tx, q, append(params, where...)...)
}

// upsert updates the row when *id is set and present. Otherwise it inserts
// a new row and stores the generated key in *id.
func (t table) upsert(ctx context.Context, tx *sqlx.Tx, id *int64, params []any) error {
	if *id != 0 {
		ok, err := t.exists(ctx, tx, *id)
		if err != nil {
			return err
		}
		if ok {
			return t.update(ctx, tx, *id, params)
		}
	}

	newID, err := t.insert(ctx, tx, params)
	if err != nil {
		return err
	}
	*id = newID
	return nil
}

// mustExist reports NotFound for a missing id.
func (t table) mustExist(ctx context.Context, tx *sqlx.Tx, id int64) error {
	ok, err := t.exists(ctx, tx, id)
	if err != nil {
		return err
	}
	if !ok {
		return mapping.NotFound(t.entity, id)
	}
	return nil
}

func (t table) deleteByID(ctx context.Context, tx *sqlx.Tx, id int64) error {
	q, args := db.NewBuilder(t.name).Where("id", db.Equal, id).BuildDelete()
	return execStmt(ctx, tx, q, args...)
}

func (t table) deleteAll(ctx context.Context, tx *sqlx.Tx) error {
	q, _ := db.NewBuilder(t.name).BuildDelete()
	return execStmt(ctx, tx, q)
}

// backRef is a foreign-key column on a child table.
type backRef struct {
	table  string
	column string
}

// detach clears the reference to parentID, or every reference when
// parentID is 0.
func (r backRef) detach(ctx context.Context, tx *sqlx.Tx, parentID int64) error {
	q, args := r.scope(parentID).BuildUpdate(r.column)
	return execStmt(ctx, tx, q, append([]any{nil}, args...)...)
}

// deleteChildren deletes the rows referencing parentID, or every referencing
// row when parentID is 0.
func (r backRef) deleteChildren(ctx context.Context, tx *sqlx.Tx, parentID int64) error {
	q, args := r.scope(parentID).BuildDelete()
	return execStmt(ctx, tx, q, args...)
}

func (r backRef) apply(ctx context.Context, tx *sqlx.Tx, policy DeletePolicy, parentID int64) error {
	if policy == DetachChildren {
		return r.detach(ctx, tx, parentID)
	}
	return r.deleteChildren(ctx, tx, parentID)
}

func (r backRef) scope(parentID int64) *db.Builder {
	b := db.NewBuilder(r.table)
	if parentID == 0 {
		return b.Where(r.column, db.IsNotNull, nil)
	}
	return b.Where(r.column, db.Equal, parentID)
}
