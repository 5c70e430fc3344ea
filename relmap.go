// Package relmap maps four one-to-many, one-to-one and many-to-many entity
// pairs onto relational tables and persists them with cascading saves,
// updates and deletes.
package relmap

import (
	"github.com/ammar0144/relmap/pkg/config"
	"github.com/ammar0144/relmap/pkg/db"
	"github.com/ammar0144/relmap/pkg/redis"
	"github.com/ammar0144/relmap/pkg/repository"
	"go.uber.org/zap"
)

// Config represents database configuration
type Config = db.Config

// RedisConfig represents Redis configuration
type RedisConfig = redis.Config

// FileConfig is the full configuration file
type FileConfig = config.Config

// Repository is the cascading repository contract
type Repository[E, R any] interface {
	repository.Repository[E, R]
}

// Set holds one repository per entity
type Set = repository.Set

// Policies selects the delete policy of each pair
type Policies = repository.Policies

// NewManager creates a new database manager
func NewManager(config *Config) (*db.Manager, error) {
	return db.NewManager(config)
}

// NewSet creates the eight repositories over dbManager.
// If redisManager is nil, reads go straight to the database.
func NewSet(dbManager *db.Manager, redisManager *redis.Manager, policies Policies, opts ...repository.Option) *Set {
	set := repository.NewSet(dbManager, policies, append([]repository.Option{repository.WithLogger(dbManager.Logger())}, opts...)...)
	if redisManager == nil {
		return set
	}
	return set.Cached(redisManager,
		repository.WithCacheNamespace(repository.CacheNamespace(dbManager.Config().Target())),
		repository.WithCacheLogger(dbManager.Logger()))
}

// NewRedisManager creates a new Redis manager
func NewRedisManager(config *RedisConfig, log *zap.Logger) (*redis.Manager, error) {
	return redis.NewManager(config, log)
}

// LoadConfig reads and validates a configuration file
func LoadConfig(path string) (*FileConfig, error) {
	return config.Load(path)
}
