package redis

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "disabled skips checks", mutate: func(c *Config) { c.Enabled = false; c.Host = "" }},
		{name: "missing host", mutate: func(c *Config) { c.Host = "" }, wantErr: "redis host is required"},
		{name: "bad port", mutate: func(c *Config) { c.Port = 0 }, wantErr: "port must be positive"},
		{name: "no ttl", mutate: func(c *Config) { c.DefaultTTL = 0 }, wantErr: "default_ttl"},
		{name: "no pool", mutate: func(c *Config) { c.PoolSize = 0 }, wantErr: "pool_size"},
		{name: "negative scan batch", mutate: func(c *Config) { c.ScanBatchSize = -1 }, wantErr: "scan_batch_size"},
		{
			name:    "cluster without addresses",
			mutate:  func(c *Config) { c.Cluster.Enabled = true },
			wantErr: "cluster addresses",
		},
		{
			name: "cluster ignores host",
			mutate: func(c *Config) {
				c.Cluster = ClusterConfig{Enabled: true, Addresses: []string{"a:7000", "b:7000"}}
				c.Host = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
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

func TestConfigAddr(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "localhost:6379", cfg.GetAddr())
	assert.False(t, cfg.IsClusterMode())

	cfg.Cluster = ClusterConfig{Enabled: true, Addresses: []string{"a:7000"}}
	assert.True(t, cfg.IsClusterMode())
}

func TestNewManagerRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = -1
	_, err := NewManager(cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid redis config")
}

func TestDisabledManager(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	m, err := NewManager(cfg, nil)
	require.NoError(t, err)
	defer m.Close()

	ctx := context.Background()
	assert.NoError(t, m.Ping(ctx))

	_, err = m.Get(ctx, "relmap:x")
	assert.True(t, IsCacheDisabled(err))
	assert.True(t, IsCacheDisabled(m.Set(ctx, "relmap:x", []byte("v"))))
	assert.True(t, IsCacheDisabled(m.Delete(ctx, "relmap:x")))
	assert.True(t, IsCacheDisabled(m.InvalidatePattern(ctx, "relmap:*")))
}

func TestUninitializedClient(t *testing.T) {
	m := &Manager{config: DefaultConfig(), metrics: NewMetrics()}

	assert.ErrorIs(t, m.Ping(context.Background()), ErrClientNotInitialized)
	_, err := m.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClientNotInitialized)
}

func TestEmptyKeyRejected(t *testing.T) {
	cfg := DefaultConfig()
	m, err := NewManager(cfg, nil)
	require.NoError(t, err)
	defer m.Close()

	_, err = m.Get(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidKey)
	assert.ErrorIs(t, m.InvalidatePattern(context.Background(), ""), ErrInvalidKey)
}

func TestPingUnreachableServer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Port = 1
	cfg.DialTimeout = 200 * time.Millisecond
	m, err := NewManager(cfg, nil)
	require.NoError(t, err)
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.True(t, IsConnectionFailed(m.Ping(ctx)))
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheHit()
	m.RecordCacheMiss()
	m.RecordCacheError(opSet)
	m.RecordGet(10 * time.Millisecond)
	m.RecordGet(30 * time.Millisecond)
	m.RecordInvalidation(4)
	m.RecordInvalidation(0)

	snap := m.GetSnapshot()
	assert.Equal(t, uint64(3), snap.CacheHits)
	assert.Equal(t, uint64(1), snap.CacheMisses)
	assert.Equal(t, uint64(1), snap.CacheErrors)
	assert.InDelta(t, 75.0, snap.CacheHitRate, 0.001)
	assert.Equal(t, uint64(2), snap.GetOperations)
	assert.InDelta(t, float64(20*time.Millisecond), float64(snap.AvgGetLatency), float64(time.Microsecond))
	assert.Equal(t, time.Duration(0), snap.AvgSetLatency)
	assert.Equal(t, uint64(2), snap.InvalidationCount)
	assert.Equal(t, uint64(4), snap.InvalidatedKeys)
}

func TestMetricsRegister(t *testing.T) {
	reg := prometheus.NewRegistry()

	a := NewMetrics()
	require.NoError(t, a.Register(reg))
	a.RecordCacheMiss()
	a.RecordInvalidation(3)

	// a second manager on the same registry shares the collectors
	b := NewMetrics()
	require.NoError(t, b.Register(reg))
	b.RecordCacheMiss()

	assert.Equal(t, 2.0, testutil.ToFloat64(a.lookups.WithLabelValues("miss")))
	assert.Equal(t, 3.0, testutil.ToFloat64(b.invalidated))

	n, err := testutil.GatherAndCount(reg, "relmap_cache_lookups_total", "relmap_cache_invalidated_keys_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestManagerRegisterMetrics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	m, err := NewManager(cfg, nil)
	require.NoError(t, err)
	defer m.Close()

	reg := prometheus.NewRegistry()
	require.NoError(t, m.RegisterMetrics(reg))
	m.metrics.RecordCacheHit()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.metrics.lookups))
	assert.Equal(t, uint64(1), m.GetMetrics().CacheHits)
}
