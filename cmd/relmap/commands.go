package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ammar0144/relmap/pkg/config"
	"github.com/ammar0144/relmap/pkg/db"
	"github.com/ammar0144/relmap/pkg/mapping"
	"github.com/ammar0144/relmap/pkg/redis"
	"github.com/ammar0144/relmap/pkg/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli"
	"go.uber.org/zap"
)

// Exit codes besides the generic 1.
const (
	exitUsage    = 64
	exitNotFound = 3
)

// env is what a command runs against.
type env struct {
	cfg      *config.Config
	log      *zap.Logger
	db       *db.Manager
	cache    *redis.Manager
	set      *repository.Set
	registry *prometheus.Registry
	out      io.Writer
}

type command func(ctx context.Context, clictx *cli.Context, e *env) error

// run opens the environment, executes cmd and maps its error to an exit code.
func run(cmd command) cli.ActionFunc {
	return func(clictx *cli.Context) error {
		e, err := open(clictx.GlobalString("config"))
		if err != nil {
			return cli.NewExitError(err.Error(), 1)
		}
		defer e.close()

		if err := cmd(context.Background(), clictx, e); err != nil {
			return exitError(err)
		}
		return nil
	}
}

func exitError(err error) error {
	var usage usageError
	switch {
	case errors.As(err, &usage):
		return cli.NewExitError(err.Error(), exitUsage)
	case mapping.IsNotFound(err):
		return cli.NewExitError(err.Error(), exitNotFound)
	default:
		return cli.NewExitError(err.Error(), 1)
	}
}

type usageError string

func (u usageError) Error() string { return string(u) }

// open loads the config and wires the database, the optional cache and
// metrics into one repository set.
func open(path string) (*env, error) {
	if path == "" {
		return nil, errors.New("a config file is required (--config or RELMAP_CONFIG)")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("path error: %w", err)
	}
	cfg, err := config.Load(absPath)
	if err != nil {
		return nil, err
	}

	log, err := cfg.Logger()
	if err != nil {
		return nil, err
	}

	manager, err := db.NewManager(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	e := &env{cfg: cfg, log: log, db: manager, out: os.Stdout}

	opts := append(cfg.RepositoryOptions(), repository.WithLogger(log))
	if cfg.Metrics.Enabled {
		e.registry = prometheus.NewRegistry()
		metrics, err := repository.NewMetrics(e.registry)
		if err != nil {
			e.close()
			return nil, err
		}
		opts = append(opts, repository.WithMetrics(metrics))
	}

	policies, err := cfg.DeletePolicies()
	if err != nil {
		e.close()
		return nil, err
	}
	e.set = repository.NewSet(manager, policies, opts...)

	if cfg.Cache.Enabled {
		e.cache, err = redis.NewManager(&cfg.Cache, log)
		if err != nil {
			e.close()
			return nil, err
		}
		if e.registry != nil {
			if err := e.cache.RegisterMetrics(e.registry); err != nil {
				e.close()
				return nil, err
			}
		}
		e.set = e.set.Cached(e.cache,
			repository.WithCacheNamespace(cfg.CacheNamespace()),
			repository.WithCacheLogger(log))
	}

	return e, nil
}

func (e *env) close() {
	if e.registry != nil {
		if err := prometheus.WriteToTextfile(e.cfg.Metrics.Textfile, e.registry); err != nil {
			e.log.Warn("could not write metrics", zap.String("path", e.cfg.Metrics.Textfile), zap.Error(err))
		}
	}
	if e.cache != nil {
		if err := e.cache.Close(); err != nil {
			e.log.Warn("could not close cache", zap.Error(err))
		}
	}
	if err := e.db.Close(); err != nil {
		e.log.Warn("could not close database", zap.Error(err))
	}
	_ = e.log.Sync()
}

func (e *env) print(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// target resolves the <entity> argument and, when withID is set, the <id>
// argument after it.
func (e *env) target(clictx *cli.Context, withID bool) (entity, int64, error) {
	args := clictx.Args()
	if len(args) < 1 {
		return entity{}, 0, usageError("missing <entity>; one of " + entityNames())
	}
	ent, ok := entities(e.set)[args.Get(0)]
	if !ok {
		return entity{}, 0, usageError(fmt.Sprintf("unknown entity %q; one of %s", args.Get(0), entityNames()))
	}
	if !withID {
		return ent, 0, nil
	}
	if len(args) < 2 {
		return entity{}, 0, usageError("missing <id>")
	}
	id, err := strconv.ParseInt(args.Get(1), 10, 64)
	if err != nil || id <= 0 {
		return entity{}, 0, usageError(fmt.Sprintf("invalid id %q", args.Get(1)))
	}
	return ent, id, nil
}

type pingResult struct {
	Database string                 `json:"database"`
	Driver   string                 `json:"driver"`
	Pool     dbStats                `json:"pool"`
	Cache    string                 `json:"cache"`
	Metrics  *redis.MetricsSnapshot `json:"cache_metrics,omitempty"`
}

type dbStats struct {
	MaxOpen int `json:"max_open"`
	Open    int `json:"open"`
	InUse   int `json:"in_use"`
	Idle    int `json:"idle"`
}

func ping(ctx context.Context, _ *cli.Context, e *env) error {
	if err := e.db.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	stats := e.db.Stats()
	res := pingResult{
		Database: "ok",
		Driver:   e.db.DriverName(),
		Pool:     dbStats{MaxOpen: stats.MaxOpenConnections, Open: stats.OpenConnections, InUse: stats.InUse, Idle: stats.Idle},
		Cache:    "disabled",
	}
	if e.cache != nil {
		if err := e.cache.Ping(ctx); err != nil {
			return err
		}
		snap := e.cache.GetMetrics()
		res.Cache = "ok"
		res.Metrics = &snap
	}
	return e.print(res)
}

func list(ctx context.Context, clictx *cli.Context, e *env) error {
	ent, _, err := e.target(clictx, false)
	if err != nil {
		return err
	}
	out, err := ent.list(ctx)
	if err != nil {
		return err
	}
	return e.print(out)
}

func get(ctx context.Context, clictx *cli.Context, e *env) error {
	ent, id, err := e.target(clictx, true)
	if err != nil {
		return err
	}
	out, err := ent.get(ctx, id)
	if err != nil {
		return err
	}
	return e.print(out)
}

func related(ctx context.Context, clictx *cli.Context, e *env) error {
	ent, id, err := e.target(clictx, true)
	if err != nil {
		return err
	}
	out, err := ent.related(ctx, id)
	if err != nil {
		return err
	}
	return e.print(out)
}

func remove(ctx context.Context, clictx *cli.Context, e *env) error {
	if clictx.Bool("all") {
		ent, _, err := e.target(clictx, false)
		if err != nil {
			return err
		}
		if err := ent.deleteAll(ctx); err != nil {
			return err
		}
		return e.print(map[string]string{"deleted": clictx.Args().Get(0)})
	}

	ent, id, err := e.target(clictx, true)
	if err != nil {
		return err
	}
	if err := ent.delete(ctx, id); err != nil {
		return err
	}
	return e.print(map[string]any{"deleted": clictx.Args().Get(0), "id": id})
}
