package db

import (
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Supported driver names. They are the database/sql driver names registered
// by go-sql-driver/mysql, pgx and modernc sqlite.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
	DriverSQLite   = "sqlite"
)

// Config holds database connection configuration
type Config struct {
	// Driver selects the backend: mysql (default), pgx or sqlite
	Driver string `json:"driver" yaml:"driver"`

	// DSN is used verbatim for pgx and sqlite. MySQL builds its DSN from the
	// connection settings below.
	DSN string `json:"dsn" yaml:"dsn"`

	// Connection Settings
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Database string `json:"database" yaml:"database"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`

	// Connection Pool Settings
	MaxOpenConns    int           `json:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time" yaml:"conn_max_idle_time"`

	// MySQL Specific Settings
	Collation string `json:"collation" yaml:"collation"` // Default: utf8mb4_unicode_ci
	TimeZone  string `json:"timezone" yaml:"timezone"`   // Default: UTC

	// QueryTimeout bounds every repository operation. Zero disables it.
	QueryTimeout time.Duration `json:"query_timeout" yaml:"query_timeout"`

	// SSL Configuration (mysql)
	SSL SSLConfig `json:"ssl" yaml:"ssl"`

	// Logging Configuration
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SSLConfig holds SSL/TLS configuration for MySQL
type SSLConfig struct {
	Enabled    bool   `json:"enabled" yaml:"enabled"`
	CertFile   string `json:"cert_file" yaml:"cert_file"`
	KeyFile    string `json:"key_file" yaml:"key_file"`
	CAFile     string `json:"ca_file" yaml:"ca_file"`
	SkipVerify bool   `json:"skip_verify" yaml:"skip_verify"` // Skip certificate verification (not recommended for production)
	ServerName string `json:"server_name" yaml:"server_name"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`   // debug, info, warn, error, silent
	Format string `json:"format" yaml:"format"` // json, console
}

// Manager owns a connection pool and hands out sqlx transactions
type Manager struct {
	config *Config
	gorm   *gorm.DB // mysql only
	db     *sqlx.DB
	log    *zap.Logger
}
