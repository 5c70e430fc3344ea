// Package mapping converts between flat query rows and domain values.
//
// It holds the error kinds shared by the persistence layer, the NULL-aware
// codec helpers used to bind and scan columns, and Assemble, which folds
// joined rows into parent/children groups.
package mapping

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"
)

// NullString binds "" as SQL NULL.
func NullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// NullEnum binds an empty enumeration value as SQL NULL.
func NullEnum[T ~string](v T) any {
	if v == "" {
		return nil
	}
	return string(v)
}

// NullID binds a zero back-reference as SQL NULL.
func NullID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

// NullDate binds the zero time as SQL NULL and any other time as its UTC date.
func NullDate(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// String returns the column text, or "" for NULL.
func String(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

// Int returns the column value, or 0 for NULL.
func Int(ni sql.NullInt64) int {
	if !ni.Valid {
		return 0
	}
	return int(ni.Int64)
}

// ID returns the key column, or 0 for NULL.
func ID(ni sql.NullInt64) int64 {
	if !ni.Valid {
		return 0
	}
	return ni.Int64
}

// Enum maps a nullable enumeration column through parse. NULL yields the
// zero value; text that parse rejects yields ErrDecode.
func Enum[T ~string](ns sql.NullString, parse func(string) (T, error)) (T, error) {
	var zero T
	if !ns.Valid {
		return zero, nil
	}
	v, err := parse(ns.String)
	if err != nil {
		return zero, &Error{Kind: ErrDecode, Err: err}
	}
	return v, nil
}

// Date is a nullable DATE column. Scan keeps only the calendar date, at
// midnight UTC.
type Date struct {
	Time  time.Time
	Valid bool
}

// sqlite hands DATE columns back as text when it cannot parse them itself.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		d.Time, d.Valid = time.Time{}, false
		return nil
	case time.Time:
		d.Time, d.Valid = dateOf(v), true
		return nil
	case string:
		return d.scanText(v)
	case []byte:
		return d.scanText(string(v))
	default:
		return fmt.Errorf("cannot scan %T into mapping.Date", src)
	}
}

func (d *Date) scanText(s string) error {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time, d.Valid = dateOf(t), true
			return nil
		}
	}
	return fmt.Errorf("cannot parse %q as a date", s)
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	if !d.Valid {
		return nil, nil
	}
	return d.Time, nil
}

// Get returns the date, or the zero time for NULL.
func (d Date) Get() time.Time {
	if !d.Valid {
		return time.Time{}
	}
	return d.Time
}

func dateOf(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
