package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know by name.
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// NewManager validates config, opens the pool for its driver and applies the
// pool settings. MySQL is opened through GORM, which only hands over its
// *sql.DB; statements never run through it. The other drivers are opened
// directly.
func NewManager(config *Config) (*Manager, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := NewLogger(config.Logging)
	if err != nil {
		return nil, fmt.Errorf("invalid logging config: %w", err)
	}

	dsn, err := config.GetDSN()
	if err != nil {
		return nil, fmt.Errorf("failed to build dsn: %w", err)
	}

	m := &Manager{config: config, log: log}
	driver := config.DriverName()

	switch driver {
	case DriverMySQL:
		gormDB, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{
			SkipDefaultTransaction: true,
			Logger:                 logger.Discard,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		sqlDB, err := gormDB.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
		}
		m.gorm = gormDB
		m.db = sqlx.NewDb(sqlDB, driver)
	default:
		sqlxDB, err := sqlx.Open(driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
		}
		m.db = sqlxDB
	}

	m.db.SetMaxOpenConns(config.MaxOpenConns)
	m.db.SetMaxIdleConns(config.MaxIdleConns)
	m.db.SetConnMaxLifetime(config.ConnMaxLifetime)
	m.db.SetConnMaxIdleTime(config.ConnMaxIdleTime)

	log.Debug("database pool opened",
		zap.String("driver", driver),
		zap.Int("max_open_conns", config.MaxOpenConns))

	return m, nil
}

// BeginTxx starts a transaction on the pool. Every repository operation
// runs inside exactly one of these.
func (m *Manager) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return m.db.BeginTxx(ctx, opts)
}

// DriverName returns the database/sql driver name in use
func (m *Manager) DriverName() string {
	return m.db.DriverName()
}

// DB returns the sqlx handle
func (m *Manager) DB() *sqlx.DB {
	return m.db
}

// Gorm returns the GORM handle used to open a MySQL pool, or nil for the
// other drivers.
func (m *Manager) Gorm() *gorm.DB {
	return m.gorm
}

// Logger returns the logger built from Logging
func (m *Manager) Logger() *zap.Logger {
	return m.log
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	_ = m.log.Sync()
	return err
}

// Config returns the manager's configuration
func (m *Manager) Config() *Config {
	return m.config
}

// Ping tests the database connection
func (m *Manager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

// Stats returns database connection statistics
func (m *Manager) Stats() sql.DBStats {
	return m.db.Stats()
}
