package repository

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ammar0144/relmap/pkg/db"
	"github.com/stretchr/testify/require"
)

const testSchema = `
CREATE TABLE brands_car (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT,
	date DATE
);
CREATE TABLE models_car (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT,
	length   INTEGER,
	width    INTEGER,
	body     TEXT CHECK (body IN ('SEDAN','HATCHBACK','STATION_WAGON','COUPE','PICKUP','ROADSTER')),
	brand_id INTEGER REFERENCES brands_car(id)
);
CREATE TABLE employees (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT,
	birth_date DATE
);
CREATE TABLE tasks (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	deadline    DATE,
	description TEXT,
	name        TEXT,
	type        TEXT CHECK (type IN ('NEW_FUNCTIONALITY','BUG','IMPROVEMENT','ANALYTICS')),
	employee_id INTEGER REFERENCES employees(id)
);
CREATE TABLE streets (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT,
	postcode INTEGER
);
CREATE TABLE houses (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT,
	date_building DATE,
	floors        INTEGER,
	type          TEXT CHECK (type IN ('LIVING_QUARTERS','COMMERCIAL','GARAGE','ANCILLARY')),
	street_id     INTEGER REFERENCES streets(id)
);
CREATE TABLE masters (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT,
	birthday DATE
);
CREATE TABLE kitties (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT,
	birthday DATE,
	breed    TEXT,
	color    TEXT CHECK (color IN ('WHITE','BLACK','RED_HAIRED','BROWN','GREY'))
);
CREATE TABLE master_kitty (
	master_id INTEGER NOT NULL REFERENCES masters(id),
	kitty_id  INTEGER NOT NULL REFERENCES kitties(id),
	PRIMARY KEY (master_id, kitty_id)
);
`

// newTestDB opens a fresh sqlite database with foreign keys enforced and the
// schema loaded. A single connection keeps pragmas and transactions on the
// same session.
func newTestDB(t *testing.T) *db.Manager {
	t.Helper()

	cfg := &db.Config{
		Driver:       db.DriverSQLite,
		DSN:          "file:" + filepath.Join(t.TempDir(), "relmap.db") + "?_pragma=foreign_keys(1)",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		Logging:      db.LoggingConfig{Level: "silent"},
	}
	m, err := db.NewManager(cfg)
	if err != nil {
		t.Skipf("sqlite driver unavailable: %v", err)
	}
	t.Cleanup(func() { m.Close() })

	for _, stmt := range strings.Split(testSchema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		_, err := m.DB().Exec(stmt)
		require.NoError(t, err)
	}
	return m
}

func countRows(t *testing.T, m *db.Manager, table string) int {
	t.Helper()
	var n int
	require.NoError(t, m.DB().Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

func countWhere(t *testing.T, m *db.Manager, table, where string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, m.DB().Get(&n, m.DB().Rebind("SELECT COUNT(*) FROM "+table+" WHERE "+where), args...))
	return n
}

// execUnchecked runs stmt with CHECK constraints disabled, to plant rows the
// repositories would never write.
func execUnchecked(t *testing.T, m *db.Manager, stmt string, args ...any) {
	t.Helper()
	ctx := context.Background()
	conn, err := m.DB().Connx(ctx)
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.ExecContext(ctx, "PRAGMA ignore_check_constraints = ON")
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, stmt, args...)
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, "PRAGMA ignore_check_constraints = OFF")
	require.NoError(t, err)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
