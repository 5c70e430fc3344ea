// Package config loads the relmap configuration file: database, cache,
// delete policies and metrics.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ammar0144/relmap/pkg/db"
	"github.com/ammar0144/relmap/pkg/redis"
	"github.com/ammar0144/relmap/pkg/repository"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// Environment variables that override secrets and the DSN from the file.
const (
	EnvDSN           = "RELMAP_DB_DSN"
	EnvDBPassword    = "RELMAP_DB_PASSWORD"
	EnvRedisPassword = "RELMAP_REDIS_PASSWORD"
)

// Config is the root of the configuration file.
type Config struct {
	Database db.Config    `yaml:"database"`
	Cache    redis.Config `yaml:"cache"`
	Policies Policies     `yaml:"policies"`
	Metrics  Metrics      `yaml:"metrics"`

	// LegacyRelatedLookup makes related lookups report a parent without
	// related rows as not found.
	LegacyRelatedLookup bool `yaml:"legacy_related_lookup"`
}

// Policies names the delete policy of each pair: "delete" or "detach".
type Policies struct {
	BrandModels  string `yaml:"brand_models"`
	EmployeeTask string `yaml:"employee_task"`
	StreetHouses string `yaml:"street_houses"`
}

// Metrics controls repository metrics. The CLI writes them to Textfile in
// the Prometheus text format when a command completes.
type Metrics struct {
	Enabled  bool   `yaml:"enabled"`
	Textfile string `yaml:"textfile"`
}

// Default returns a configuration for a local MySQL server with the cache
// disabled and the historical delete policies.
func Default() *Config {
	cache := redis.DefaultConfig()
	cache.Enabled = false

	return &Config{
		Database: db.Config{
			Driver:          db.DriverMySQL,
			Host:            "localhost",
			Port:            3306,
			Collation:       "utf8mb4_unicode_ci",
			TimeZone:        "UTC",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: time.Hour,
			ConnMaxIdleTime: 30 * time.Minute,
			QueryTimeout:    30 * time.Second,
			Logging:         db.LoggingConfig{Level: "info", Format: "json"},
		},
		Cache: *cache,
		Policies: Policies{
			BrandModels:  repository.DeleteChildren.String(),
			EmployeeTask: repository.DetachChildren.String(),
			StreetHouses: repository.DetachChildren.String(),
		},
	}
}

// Load reads path over the defaults, applies the environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return Parse(contents)
}

// Parse is Load without the file.
func Parse(contents []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(contents, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDSN); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(EnvDBPassword); v != "" {
		c.Database.Password = v
	}
	if v := os.Getenv(EnvRedisPassword); v != "" {
		c.Cache.Password = v
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	if _, err := c.DeletePolicies(); err != nil {
		return fmt.Errorf("policies: %w", err)
	}
	if c.Metrics.Enabled && c.Metrics.Textfile == "" {
		return fmt.Errorf("metrics: textfile is required when metrics are enabled")
	}
	return nil
}

// DeletePolicies parses the policy names. An empty name keeps the pair's
// default.
func (c *Config) DeletePolicies() (repository.Policies, error) {
	out := repository.DefaultPolicies()
	fields := []struct {
		name string
		dst  *repository.DeletePolicy
	}{
		{c.Policies.BrandModels, &out.BrandModels},
		{c.Policies.EmployeeTask, &out.EmployeeTask},
		{c.Policies.StreetHouses, &out.StreetHouses},
	}
	for _, f := range fields {
		if f.name == "" {
			continue
		}
		p, err := repository.ParseDeletePolicy(f.name)
		if err != nil {
			return repository.Policies{}, err
		}
		*f.dst = p
	}
	return out, nil
}

// Logger builds the application logger from the database logging section.
func (c *Config) Logger() (*zap.Logger, error) {
	return db.NewLogger(c.Database.Logging)
}

// RepositoryOptions returns the options implied by the file.
func (c *Config) RepositoryOptions() []repository.Option {
	var opts []repository.Option
	if c.LegacyRelatedLookup {
		opts = append(opts, repository.WithLegacyRelatedLookup())
	}
	return opts
}

// CacheNamespace isolates cache entries per database.
func (c *Config) CacheNamespace() string {
	return repository.CacheNamespace(c.Database.Target())
}
