package repository

import (
	"context"

	"github.com/ammar0144/relmap/pkg/mapping"
	"github.com/ammar0144/relmap/pkg/model"
	"github.com/jmoiron/sqlx"
)

// EmployeeRepository persists employees and the one task each owns.
type EmployeeRepository struct {
	base
	view   view[employeeTaskRow, model.Employee, model.Task]
	policy DeletePolicy
}

var _ Repository[model.Employee, model.Task] = (*EmployeeRepository)(nil)

// NewEmployeeRepository returns a repository whose delete policy defaults to
// DetachChildren.
func NewEmployeeRepository(p Provider, opts ...Option) *EmployeeRepository {
	o := buildOptions(p, opts)
	return &EmployeeRepository{
		base:   newBase(p, employeeTable.entity, o),
		view:   employeeView(),
		policy: o.deletePolicy(DetachChildren),
	}
}

// Save inserts the employee and, when set, upserts its task pointing at the
// new employee. Any other task still referencing the employee is released.
func (r *EmployeeRepository) Save(ctx context.Context, e *model.Employee) error {
	if e == nil {
		return r.nilEntity(mapping.ErrSave)
	}
	if err := r.checkIdentity(e.ID); err != nil {
		return err
	}
	work := cloneEmployee(e)
	err := r.inTx(ctx, opSave, mapping.ErrSave, 0, func(ctx context.Context, tx *sqlx.Tx) error {
		id, err := employeeTable.insert(ctx, tx, employeeParams(&work))
		if err != nil {
			return err
		}
		work.ID = id
		return r.saveTask(ctx, tx, &work)
	})
	if err != nil {
		return err
	}
	applyEmployee(e, work)
	r.logWrite(opSave, e.ID)
	return nil
}

func (r *EmployeeRepository) saveTask(ctx context.Context, tx *sqlx.Tx, e *model.Employee) error {
	if e.Task == nil {
		return nil
	}
	e.Task.EmployeeID = e.ID
	if err := taskTable.upsert(ctx, tx, &e.Task.ID, taskParams(e.Task)); err != nil {
		return err
	}
	return releaseOtherTasks(ctx, tx, e.ID, e.Task.ID)
}

// FindByID loads the employee with its task.
func (r *EmployeeRepository) FindByID(ctx context.Context, id int64) (*model.Employee, error) {
	var out *model.Employee
	err := r.inTx(ctx, opFindByID, mapping.ErrQuery, id, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.one(ctx, tx, id)
		return err
	})
	return out, err
}

// FindAll loads every employee with its task.
func (r *EmployeeRepository) FindAll(ctx context.Context) ([]model.Employee, error) {
	var out []model.Employee
	err := r.inTx(ctx, opFindAll, mapping.ErrQuery, 0, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.all(ctx, tx)
		return err
	})
	return out, err
}

// Update rewrites the employee's columns and upserts its task when set.
// A nil Task leaves the stored assignment unchanged.
func (r *EmployeeRepository) Update(ctx context.Context, e *model.Employee) error {
	if e == nil {
		return r.nilEntity(mapping.ErrUpdate)
	}
	work := cloneEmployee(e)
	err := r.inTx(ctx, opUpdate, mapping.ErrUpdate, e.ID, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := employeeTable.mustExist(ctx, tx, work.ID); err != nil {
			return err
		}
		if err := employeeTable.update(ctx, tx, work.ID, employeeParams(&work)); err != nil {
			return err
		}
		return r.saveTask(ctx, tx, &work)
	})
	if err != nil {
		return err
	}
	applyEmployee(e, work)
	r.logWrite(opUpdate, e.ID)
	return nil
}

// Delete removes the employee. Its task is detached or deleted according to
// the delete policy.
func (r *EmployeeRepository) Delete(ctx context.Context, id int64) error {
	err := r.inTx(ctx, opDelete, mapping.ErrDelete, id, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := employeeTable.mustExist(ctx, tx, id); err != nil {
			return err
		}
		if err := taskEmployeeRef.apply(ctx, tx, r.policy, id); err != nil {
			return err
		}
		return employeeTable.deleteByID(ctx, tx, id)
	})
	if err == nil {
		r.logWrite(opDelete, id)
	}
	return err
}

func (r *EmployeeRepository) DeleteAll(ctx context.Context) error {
	err := r.inTx(ctx, opDeleteAll, mapping.ErrDelete, 0, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := taskEmployeeRef.apply(ctx, tx, r.policy, 0); err != nil {
			return err
		}
		return employeeTable.deleteAll(ctx, tx)
	})
	if err == nil {
		r.logWrite(opDeleteAll, 0)
	}
	return err
}

// GetRelatedByParentID returns the task of employee id.
func (r *EmployeeRepository) GetRelatedByParentID(ctx context.Context, id int64) ([]model.Task, error) {
	var out []model.Task
	err := r.inTx(ctx, opRelated, mapping.ErrQuery, id, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.related(ctx, tx, id, r.legacyRelated)
		return err
	})
	return out, err
}

// Policy reports the delete policy in effect.
func (r *EmployeeRepository) Policy() DeletePolicy {
	return r.policy
}
