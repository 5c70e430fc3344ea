package repository

import (
	"context"
	"database/sql"

	"github.com/ammar0144/relmap/pkg/db"
	"github.com/ammar0144/relmap/pkg/mapping"
	"github.com/ammar0144/relmap/pkg/model"
	"github.com/jmoiron/sqlx"
)

var (
	employeeTable = table{name: "employees", entity: "employee", columns: []string{"name", "birth_date"}}
	taskTable     = table{name: "tasks", entity: "task", columns: []string{"deadline", "description", "name", "type", "employee_id"}}

	taskEmployeeRef = backRef{table: "tasks", column: "employee_id"}
)

type employeeTaskRow struct {
	EmployeeID        sql.NullInt64  `db:"employee_id"`
	EmployeeName      sql.NullString `db:"employee_name"`
	EmployeeBirthDate mapping.Date   `db:"employee_birth_date"`
	TaskID            sql.NullInt64  `db:"task_id"`
	TaskName          sql.NullString `db:"task_name"`
	TaskDeadline      mapping.Date   `db:"task_deadline"`
	TaskDescription   sql.NullString `db:"task_description"`
	TaskType          sql.NullString `db:"task_type"`
	TaskEmployeeID    sql.NullInt64  `db:"task_employee_id"`
}

var employeeTaskColumns = []string{
	"e.id AS employee_id",
	"e.name AS employee_name",
	"e.birth_date AS employee_birth_date",
	"t.id AS task_id",
	"t.name AS task_name",
	"t.deadline AS task_deadline",
	"t.description AS task_description",
	"t.type AS task_type",
	"t.employee_id AS task_employee_id",
}

func decodeEmployee(r employeeTaskRow) (model.Employee, error) {
	return model.Employee{
		ID:        r.EmployeeID.Int64,
		Name:      mapping.String(r.EmployeeName),
		BirthDate: r.EmployeeBirthDate.Get(),
	}, nil
}

func decodeTask(r employeeTaskRow) (model.Task, error) {
	typ, err := mapping.Enum(r.TaskType, model.ParseTaskType)
	if err != nil {
		return model.Task{}, err
	}
	return model.Task{
		ID:          r.TaskID.Int64,
		Name:        mapping.String(r.TaskName),
		Deadline:    r.TaskDeadline.Get(),
		Description: mapping.String(r.TaskDescription),
		Type:        typ,
		EmployeeID:  mapping.ID(r.TaskEmployeeID),
	}, nil
}

func employeeParams(e *model.Employee) []any {
	return []any{mapping.NullString(e.Name), mapping.NullDate(e.BirthDate)}
}

func taskParams(t *model.Task) []any {
	return []any{
		mapping.NullDate(t.Deadline),
		mapping.NullString(t.Description),
		mapping.NullString(t.Name),
		mapping.NullEnum(t.Type),
		mapping.NullID(t.EmployeeID),
	}
}

func employeeView() view[employeeTaskRow, model.Employee, model.Task] {
	return view[employeeTaskRow, model.Employee, model.Task]{
		entity: employeeTable.entity,
		query: func() *db.Builder {
			return db.NewBuilder("employees e").
				Select(employeeTaskColumns...).
				LeftJoin("tasks t", "t.employee_id = e.id").
				OrderBy("e.id", "t.id")
		},
		idCol: "e.id",
		plan: mapping.Plan[employeeTaskRow, model.Employee, model.Task]{
			ParentKey:    func(r employeeTaskRow) int64 { return r.EmployeeID.Int64 },
			DecodeParent: decodeEmployee,
			ChildKey:     func(r employeeTaskRow) (int64, bool) { return r.TaskID.Int64, r.TaskID.Valid },
			DecodeChild:  decodeTask,
		},
		link: func(e model.Employee, tasks []model.Task) model.Employee {
			if tasks = firstTask(tasks); len(tasks) > 0 {
				e.Task = &tasks[0]
			}
			return e
		},
		narrow: firstTask,
	}
}

// firstTask keeps the lowest task id. Rows written before the one-task rule
// may hold several tasks per employee.
func firstTask(tasks []model.Task) []model.Task {
	if len(tasks) > 1 {
		return tasks[:1:1]
	}
	return tasks
}

func taskView() view[employeeTaskRow, model.Task, model.Employee] {
	return view[employeeTaskRow, model.Task, model.Employee]{
		entity: taskTable.entity,
		query: func() *db.Builder {
			return db.NewBuilder("tasks t").
				Select(employeeTaskColumns...).
				LeftJoin("employees e", "e.id = t.employee_id").
				OrderBy("t.id")
		},
		idCol: "t.id",
		plan: mapping.Plan[employeeTaskRow, model.Task, model.Employee]{
			ParentKey:    func(r employeeTaskRow) int64 { return r.TaskID.Int64 },
			DecodeParent: decodeTask,
			ChildKey:     func(r employeeTaskRow) (int64, bool) { return r.EmployeeID.Int64, r.EmployeeID.Valid },
			DecodeChild:  decodeEmployee,
		},
		link: func(t model.Task, employees []model.Employee) model.Task {
			if len(employees) > 0 {
				e := employees[0]
				t.Employee = &e
			}
			return t
		},
	}
}

// releaseOtherTasks clears employeeID from every task but taskID, keeping
// at most one task per employee.
func releaseOtherTasks(ctx context.Context, tx *sqlx.Tx, employeeID, taskID int64) error {
	q, args := db.NewBuilder(taskTable.name).
		Where("employee_id", db.Equal, employeeID).
		Where("id", db.NotEqual, taskID).
		BuildUpdate("employee_id")
	return execStmt(ctx, tx, q, append([]any{nil}, args...)...)
}

func cloneEmployee(e *model.Employee) model.Employee {
	c := *e
	if e.Task != nil {
		t := *e.Task
		c.Task = &t
	}
	return c
}

func applyEmployee(dst *model.Employee, src model.Employee) {
	task := dst.Task
	if task != nil && src.Task != nil {
		*task = *src.Task
	}
	*dst = src
	dst.Task = task
}

func cloneTask(t *model.Task) model.Task {
	c := *t
	if t.Employee != nil {
		e := *t.Employee
		c.Employee = &e
	}
	return c
}

func applyTask(dst *model.Task, src model.Task) {
	employee := dst.Employee
	if employee != nil && src.Employee != nil {
		*employee = *src.Employee
	}
	*dst = src
	dst.Employee = employee
}
