package db

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validMySQL() *Config {
	return &Config{
		Host:         "localhost",
		Port:         3306,
		Database:     "cars",
		Username:     "root",
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid mysql", mutate: func(*Config) {}},
		{name: "missing host", mutate: func(c *Config) { c.Host = "" }, wantErr: "host is required"},
		{name: "bad port", mutate: func(c *Config) { c.Port = 70000 }, wantErr: "port must be between"},
		{name: "missing database", mutate: func(c *Config) { c.Database = "" }, wantErr: "database name is required"},
		{name: "missing user", mutate: func(c *Config) { c.Username = "" }, wantErr: "username is required"},
		{name: "no pool", mutate: func(c *Config) { c.MaxOpenConns = 0 }, wantErr: "max_open_conns"},
		{name: "idle above open", mutate: func(c *Config) { c.MaxIdleConns = 20 }, wantErr: "max_idle_conns"},
		{name: "negative timeout", mutate: func(c *Config) { c.QueryTimeout = -time.Second }, wantErr: "query_timeout"},
		{name: "unknown driver", mutate: func(c *Config) { c.Driver = "oracle" }, wantErr: "unsupported database driver"},
		{name: "sqlite without dsn", mutate: func(c *Config) { c.Driver = "sqlite" }, wantErr: "dsn is required"},
		{name: "postgres with dsn", mutate: func(c *Config) {
			c.Driver = "postgres"
			c.Host = ""
			c.DSN = "postgres://localhost/cars"
		}},
		{name: "tls files missing", mutate: func(c *Config) {
			c.SSL = SSLConfig{Enabled: true, CAFile: "/nonexistent/ca.pem"}
		}, wantErr: "TLS configuration error"},
		{name: "tls cert without key", mutate: func(c *Config) {
			c.SSL = SSLConfig{Enabled: true, CertFile: "client.pem"}
		}, wantErr: "provided together"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validMySQL()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDriverName(t *testing.T) {
	for in, want := range map[string]string{
		"":         DriverMySQL,
		"MySQL":    DriverMySQL,
		"postgres": DriverPostgres,
		"pgx":      DriverPostgres,
		"sqlite3":  DriverSQLite,
	} {
		c := &Config{Driver: in}
		assert.Equal(t, want, c.DriverName(), in)
	}
}

func TestGetDSN(t *testing.T) {
	cfg := validMySQL()
	cfg.Password = "secret"
	dsn, err := cfg.GetDSN()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "root:secret@tcp(localhost:3306)/cars?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")

	cfg.SSL = SSLConfig{Enabled: true, SkipVerify: true}
	dsn, err = cfg.GetDSN()
	require.NoError(t, err)
	assert.Contains(t, dsn, "tls=skip-verify")

	lite := &Config{Driver: "sqlite", DSN: "file:test.db"}
	dsn, err = lite.GetDSN()
	require.NoError(t, err)
	assert.Equal(t, "file:test.db", dsn)
}

func TestTarget(t *testing.T) {
	cfg := validMySQL()
	cfg.Password = "secret"
	assert.Equal(t, "mysql:localhost:3306/cars", cfg.Target())

	pg := &Config{Driver: "postgres", DSN: "postgres://localhost/cars"}
	assert.Equal(t, "pgx:postgres://localhost/cars", pg.Target())
}

func TestNewManagerSQLite(t *testing.T) {
	cfg := &Config{
		Driver:       DriverSQLite,
		DSN:          filepath.Join(t.TempDir(), "relmap.db"),
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		Logging:      LoggingConfig{Level: "silent"},
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Skipf("sqlite driver unavailable: %v", err)
	}
	defer m.Close()

	ctx := context.Background()
	require.NoError(t, m.Ping(ctx))
	assert.Equal(t, DriverSQLite, m.DriverName())
	assert.Nil(t, m.Gorm())
	assert.Same(t, cfg, m.Config())

	tx, err := m.BeginTxx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, "CREATE TABLE t (id INTEGER PRIMARY KEY)")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, 1, m.Stats().MaxOpenConnections)
}

func TestNewManagerRejectsInvalidConfig(t *testing.T) {
	_, err := NewManager(nil)
	assert.Error(t, err)

	_, err = NewManager(&Config{Driver: "sqlite", MaxOpenConns: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")

	_, err = NewManager(&Config{Driver: "sqlite", DSN: "x.db", MaxOpenConns: 1, Logging: LoggingConfig{Level: "loud"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid logging config")
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(LoggingConfig{})
	require.NoError(t, err)
	assert.NotNil(t, log)

	log, err = NewLogger(LoggingConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(-1))

	_, err = NewLogger(LoggingConfig{Format: "xml"})
	assert.Error(t, err)
}
