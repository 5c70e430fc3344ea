package repository

import (
	"context"

	"github.com/ammar0144/relmap/pkg/mapping"
	"github.com/ammar0144/relmap/pkg/model"
	"github.com/jmoiron/sqlx"
)

// TaskRepository persists tasks from the owned side of the Employee/Task
// pair.
type TaskRepository struct {
	base
	view view[employeeTaskRow, model.Task, model.Employee]
}

var _ Repository[model.Task, model.Employee] = (*TaskRepository)(nil)

func NewTaskRepository(p Provider, opts ...Option) *TaskRepository {
	return &TaskRepository{
		base: newBase(p, taskTable.entity, buildOptions(p, opts)),
		view: taskView(),
	}
}

// Save upserts t.Employee when set, inserts the task and makes it the
// employee's only task.
func (r *TaskRepository) Save(ctx context.Context, t *model.Task) error {
	if t == nil {
		return r.nilEntity(mapping.ErrSave)
	}
	if err := r.checkIdentity(t.ID); err != nil {
		return err
	}
	work := cloneTask(t)
	err := r.inTx(ctx, opSave, mapping.ErrSave, 0, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := r.saveEmployee(ctx, tx, &work); err != nil {
			return err
		}
		id, err := taskTable.insert(ctx, tx, taskParams(&work))
		if err != nil {
			return err
		}
		work.ID = id
		return r.claim(ctx, tx, &work)
	})
	if err != nil {
		return err
	}
	applyTask(t, work)
	r.logWrite(opSave, t.ID)
	return nil
}

func (r *TaskRepository) saveEmployee(ctx context.Context, tx *sqlx.Tx, t *model.Task) error {
	if t.Employee == nil {
		return nil
	}
	if err := employeeTable.upsert(ctx, tx, &t.Employee.ID, employeeParams(t.Employee)); err != nil {
		return err
	}
	t.EmployeeID = t.Employee.ID
	return nil
}

func (r *TaskRepository) claim(ctx context.Context, tx *sqlx.Tx, t *model.Task) error {
	if t.EmployeeID == 0 {
		return nil
	}
	return releaseOtherTasks(ctx, tx, t.EmployeeID, t.ID)
}

// FindByID loads the task with its employee.
func (r *TaskRepository) FindByID(ctx context.Context, id int64) (*model.Task, error) {
	var out *model.Task
	err := r.inTx(ctx, opFindByID, mapping.ErrQuery, id, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.one(ctx, tx, id)
		return err
	})
	return out, err
}

// FindAll loads every task with its employee.
func (r *TaskRepository) FindAll(ctx context.Context) ([]model.Task, error) {
	var out []model.Task
	err := r.inTx(ctx, opFindAll, mapping.ErrQuery, 0, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.all(ctx, tx)
		return err
	})
	return out, err
}

// Update upserts t.Employee when set and rewrites the task's columns.
func (r *TaskRepository) Update(ctx context.Context, t *model.Task) error {
	if t == nil {
		return r.nilEntity(mapping.ErrUpdate)
	}
	work := cloneTask(t)
	err := r.inTx(ctx, opUpdate, mapping.ErrUpdate, t.ID, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := taskTable.mustExist(ctx, tx, work.ID); err != nil {
			return err
		}
		if err := r.saveEmployee(ctx, tx, &work); err != nil {
			return err
		}
		if err := taskTable.update(ctx, tx, work.ID, taskParams(&work)); err != nil {
			return err
		}
		return r.claim(ctx, tx, &work)
	})
	if err != nil {
		return err
	}
	applyTask(t, work)
	r.logWrite(opUpdate, t.ID)
	return nil
}

// Delete removes the task. Its employee is kept.
func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	err := r.inTx(ctx, opDelete, mapping.ErrDelete, id, func(ctx context.Context, tx *sqlx.Tx) error {
		if err := taskTable.mustExist(ctx, tx, id); err != nil {
			return err
		}
		return taskTable.deleteByID(ctx, tx, id)
	})
	if err == nil {
		r.logWrite(opDelete, id)
	}
	return err
}

func (r *TaskRepository) DeleteAll(ctx context.Context) error {
	err := r.inTx(ctx, opDeleteAll, mapping.ErrDelete, 0, func(ctx context.Context, tx *sqlx.Tx) error {
		return taskTable.deleteAll(ctx, tx)
	})
	if err == nil {
		r.logWrite(opDeleteAll, 0)
	}
	return err
}

// GetRelatedByParentID returns the employee of task id, as a slice of zero
// or one element.
func (r *TaskRepository) GetRelatedByParentID(ctx context.Context, id int64) ([]model.Employee, error) {
	var out []model.Employee
	err := r.inTx(ctx, opRelated, mapping.ErrQuery, id, func(ctx context.Context, tx *sqlx.Tx) (err error) {
		out, err = r.view.related(ctx, tx, id, r.legacyRelated)
		return err
	})
	return out, err
}
