package repository

import (
	"time"

	"github.com/ammar0144/relmap/pkg/db"
	"go.uber.org/zap"
)

// Option configures a repository.
type Option func(*options)

type options struct {
	log           *zap.Logger
	timeout       time.Duration
	timeoutSet    bool
	metrics       *Metrics
	policy        *DeletePolicy
	legacyRelated bool
}

// WithLogger sets the logger. Repositories built on a *db.Manager default to
// the manager's logger, others to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithQueryTimeout bounds each operation, transaction included. Zero
// disables the bound. It overrides db.Config.QueryTimeout.
func WithQueryTimeout(d time.Duration) Option {
	return func(o *options) {
		o.timeout = d
		o.timeoutSet = true
	}
}

// WithMetrics records operation latency and failures.
func WithMetrics(m *Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithDeletePolicy overrides the pair's default delete policy. Repositories
// of the Master and Kitty pair ignore it.
func WithDeletePolicy(p DeletePolicy) Option {
	return func(o *options) {
		o.policy = &p
	}
}

// WithLegacyRelatedLookup makes GetRelatedByParentID report NotFound when the
// parent exists but has no related rows, as well as when it is missing.
func WithLegacyRelatedLookup() Option {
	return func(o *options) {
		o.legacyRelated = true
	}
}

// configSource is satisfied by *db.Manager.
type configSource interface {
	Config() *db.Config
}

// loggerSource is satisfied by *db.Manager.
type loggerSource interface {
	Logger() *zap.Logger
}

func buildOptions(p Provider, opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		if ls, ok := p.(loggerSource); ok && ls.Logger() != nil {
			o.log = ls.Logger()
		} else {
			o.log = zap.NewNop()
		}
	}
	if !o.timeoutSet {
		if cs, ok := p.(configSource); ok && cs.Config() != nil {
			o.timeout = cs.Config().QueryTimeout
		}
	}
	return o
}

func (o options) deletePolicy(def DeletePolicy) DeletePolicy {
	if o.policy != nil {
		return *o.policy
	}
	return def
}
