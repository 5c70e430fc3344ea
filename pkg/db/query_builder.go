package db

import (
	"fmt"
	"strings"
)

// SQL statement builder used by the repositories.
//
// Statements are written with ? placeholders; callers rebind them for the
// driver in use (sqlx.Rebind).
//
// SECURITY WARNING:
// Table and column names are NOT escaped or validated. They must be hardcoded
// identifiers. User input is only ever passed as a condition value, which is
// always bound as a parameter.

// Operator represents SQL comparison operators
type Operator string

const (
	Equal     Operator = "="
	NotEqual  Operator = "<>"
	IsNotNull Operator = "IS NOT NULL"
)

// JoinType represents SQL JOIN types
type JoinType string

const (
	LeftJoin JoinType = "LEFT JOIN"
)

// Condition is one ANDed WHERE predicate
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// JoinClause represents a JOIN operation
type JoinClause struct {
	Type      JoinType
	Table     string
	Condition string
}

// Builder builds SELECT, INSERT, UPDATE and DELETE statements for one table
type Builder struct {
	table      string
	selectCols []string
	joins      []JoinClause
	where      []Condition
	orderBy    []string
	returning  string
}

// NewBuilder creates a new statement builder.
// SECURITY: table must be a trusted identifier.
func NewBuilder(table string) *Builder {
	return &Builder{
		table:      table,
		selectCols: []string{"*"},
	}
}

// Select sets the columns to select
func (b *Builder) Select(cols ...string) *Builder {
	b.selectCols = cols
	return b
}

// Where adds an ANDed condition. value is ignored for IsNotNull.
func (b *Builder) Where(field string, operator Operator, value any) *Builder {
	b.where = append(b.where, Condition{Field: field, Operator: operator, Value: value})
	return b
}

// Join adds a JOIN clause
func (b *Builder) Join(joinType JoinType, table, condition string) *Builder {
	b.joins = append(b.joins, JoinClause{Type: joinType, Table: table, Condition: condition})
	return b
}

// LeftJoin adds a LEFT JOIN
func (b *Builder) LeftJoin(table, condition string) *Builder {
	return b.Join(LeftJoin, table, condition)
}

// OrderBy adds ascending ORDER BY columns
func (b *Builder) OrderBy(fields ...string) *Builder {
	b.orderBy = append(b.orderBy, fields...)
	return b
}

// Returning makes BuildInsert append a RETURNING clause for column.
func (b *Builder) Returning(column string) *Builder {
	b.returning = column
	return b
}

// BuildSelect builds a SELECT query and its WHERE arguments
func (b *Builder) BuildSelect() (string, []any) {
	var query strings.Builder

	query.WriteString("SELECT ")
	query.WriteString(strings.Join(b.selectCols, ", "))
	query.WriteString(" FROM ")
	query.WriteString(b.table)

	for _, join := range b.joins {
		fmt.Fprintf(&query, " %s %s ON %s", join.Type, join.Table, join.Condition)
	}

	args := b.writeWhere(&query)

	if len(b.orderBy) > 0 {
		query.WriteString(" ORDER BY ")
		query.WriteString(strings.Join(b.orderBy, ", "))
	}

	return query.String(), args
}

// BuildInsert builds an INSERT query with one placeholder per column
func (b *Builder) BuildInsert(columns ...string) string {
	var query strings.Builder
	query.WriteString("INSERT INTO ")
	query.WriteString(b.table)
	query.WriteString(" (")
	query.WriteString(strings.Join(columns, ", "))
	query.WriteString(") VALUES (")
	query.WriteString(placeholders(len(columns)))
	query.WriteString(")")
	if b.returning != "" {
		query.WriteString(" RETURNING ")
		query.WriteString(b.returning)
	}
	return query.String()
}

// BuildUpdate builds an UPDATE query. The returned arguments belong to the
// WHERE clause and follow the SET values.
func (b *Builder) BuildUpdate(columns ...string) (string, []any) {
	var query strings.Builder
	query.WriteString("UPDATE ")
	query.WriteString(b.table)
	query.WriteString(" SET ")

	setClauses := make([]string, len(columns))
	for i, col := range columns {
		setClauses[i] = col + " = ?"
	}
	query.WriteString(strings.Join(setClauses, ", "))

	args := b.writeWhere(&query)
	return query.String(), args
}

// BuildDelete builds a DELETE query and its WHERE arguments
func (b *Builder) BuildDelete() (string, []any) {
	var query strings.Builder
	query.WriteString("DELETE FROM ")
	query.WriteString(b.table)
	args := b.writeWhere(&query)
	return query.String(), args
}

func (b *Builder) writeWhere(query *strings.Builder) []any {
	if len(b.where) == 0 {
		return nil
	}

	var (
		conditions = make([]string, 0, len(b.where))
		args       []any
	)
	for _, cond := range b.where {
		switch cond.Operator {
		case IsNotNull:
			conditions = append(conditions, fmt.Sprintf("%s %s", cond.Field, cond.Operator))
		default:
			conditions = append(conditions, fmt.Sprintf("%s %s ?", cond.Field, cond.Operator))
			args = append(args, cond.Value)
		}
	}

	query.WriteString(" WHERE ")
	query.WriteString(strings.Join(conditions, " AND "))
	return args
}

func placeholders(n int) string {
	if n == 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
