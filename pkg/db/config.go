package db

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/go-sql-driver/mysql"
)

// DriverName normalizes the configured driver. An empty driver means mysql
// and "postgres" is served by pgx.
func (c *Config) DriverName() string {
	switch strings.ToLower(c.Driver) {
	case "", DriverMySQL:
		return DriverMySQL
	case "postgres", "postgresql", DriverPostgres:
		return DriverPostgres
	case DriverSQLite, "sqlite3":
		return DriverSQLite
	default:
		return c.Driver
	}
}

// Validate checks if the database configuration is valid
func (c *Config) Validate() error {
	switch c.DriverName() {
	case DriverMySQL:
		if err := c.validateMySQL(); err != nil {
			return err
		}
	case DriverPostgres, DriverSQLite:
		if c.DSN == "" {
			return fmt.Errorf("dsn is required for driver %s", c.DriverName())
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}

	if c.MaxOpenConns < 1 {
		return fmt.Errorf("max_open_conns must be at least 1")
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		return fmt.Errorf("max_idle_conns cannot be greater than max_open_conns")
	}
	if c.QueryTimeout < 0 {
		return fmt.Errorf("query_timeout cannot be negative")
	}
	return nil
}

func (c *Config) validateMySQL() error {
	if c.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("database port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.Username == "" {
		return fmt.Errorf("database username is required")
	}
	if c.SSL.Enabled && !c.SSL.SkipVerify {
		if err := c.validateTLSFiles(); err != nil {
			return fmt.Errorf("TLS configuration error: %w", err)
		}
	}
	return nil
}

// validateTLSFiles validates that TLS certificate files exist and are readable
func (c *Config) validateTLSFiles() error {
	if c.SSL.CAFile != "" {
		if _, err := os.Stat(c.SSL.CAFile); err != nil {
			return fmt.Errorf("CA file not accessible: %w", err)
		}
	}
	if c.SSL.CertFile != "" || c.SSL.KeyFile != "" {
		if c.SSL.CertFile == "" || c.SSL.KeyFile == "" {
			return fmt.Errorf("both CertFile and KeyFile must be provided together")
		}
		if _, err := os.Stat(c.SSL.CertFile); err != nil {
			return fmt.Errorf("client certificate file not accessible: %w", err)
		}
		if _, err := os.Stat(c.SSL.KeyFile); err != nil {
			return fmt.Errorf("client key file not accessible: %w", err)
		}
	}
	return nil
}

// Target names the database the config points at without credentials:
// driver:host:port/database for mysql, driver:dsn otherwise.
func (c *Config) Target() string {
	if c.DriverName() != DriverMySQL {
		return c.DriverName() + ":" + c.DSN
	}
	return fmt.Sprintf("%s:%s:%d/%s", DriverMySQL, c.Host, c.Port, c.Database)
}

// GetDSN returns the data source name for the configured driver. For mysql
// it is built with the MySQL driver's config builder.
func (c *Config) GetDSN() (string, error) {
	if c.DriverName() != DriverMySQL {
		return c.DSN, nil
	}

	cfg := mysql.Config{
		User:                 c.Username,
		Passwd:               c.Password,
		Net:                  "tcp",
		Addr:                 fmt.Sprintf("%s:%d", c.Host, c.Port),
		DBName:               c.Database,
		Collation:            c.Collation,
		Loc:                  parseLocation(c.TimeZone),
		ParseTime:            true,
		AllowNativePasswords: true,
	}

	if c.SSL.Enabled {
		if c.SSL.SkipVerify {
			cfg.TLSConfig = "skip-verify"
		} else {
			name, err := c.registerTLS()
			if err != nil {
				return "", err
			}
			cfg.TLSConfig = name
		}
	}

	return cfg.FormatDSN(), nil
}

// registerTLS builds the client TLS config and registers it with the MySQL
// driver under a name derived from the certificate settings.
func (c *Config) registerTLS() (string, error) {
	tlsConfig := &tls.Config{ServerName: c.SSL.ServerName}

	if c.SSL.CAFile != "" {
		caCert, err := os.ReadFile(c.SSL.CAFile)
		if err != nil {
			return "", fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(caCert) {
			return "", fmt.Errorf("invalid CA certificate in %s", c.SSL.CAFile)
		}
		tlsConfig.RootCAs = pool
	}

	if c.SSL.CertFile != "" && c.SSL.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(c.SSL.CertFile, c.SSL.KeyFile)
		if err != nil {
			return "", fmt.Errorf("load client certificate: %w", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}

	name := c.tlsConfigName()
	if err := mysql.RegisterTLSConfig(name, tlsConfig); err != nil {
		return "", fmt.Errorf("register TLS config: %w", err)
	}
	return name, nil
}

// tlsConfigName keeps several Config instances from overwriting each other's
// registration.
func (c *Config) tlsConfigName() string {
	key := c.SSL.CAFile + "|" + c.SSL.CertFile + "|" + c.SSL.KeyFile + "|" + c.SSL.ServerName
	return fmt.Sprintf("relmap_tls_%016x", xxhash.Sum64String(key))
}

// parseLocation parses timezone string to *time.Location
func parseLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}
