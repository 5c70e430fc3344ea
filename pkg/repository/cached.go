package repository

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
)

// Cache key constants for consistent key generation
const (
	cacheKeyPrefix     = "relmap"
	cacheKeySeparator  = ":"
	cacheKeyHashLength = 12
	defaultNamespace   = "default"
)

// CacheStore is the byte-level cache the Cached decorator reads through.
// *redis.Manager satisfies it.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	InvalidatePattern(ctx context.Context, pattern string) error
}

// CacheNamespace derives a short namespace from a DSN so that two databases
// sharing one cache never read each other's entries.
func CacheNamespace(dsn string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(dsn))[:cacheKeyHashLength]
}

// CacheOption configures a Cached repository.
type CacheOption func(*cacheOptions)

type cacheOptions struct {
	namespace  string
	dependents []string
	log        *zap.Logger
}

// WithCacheNamespace sets the namespace segment of every key.
func WithCacheNamespace(ns string) CacheOption {
	return func(o *cacheOptions) {
		o.namespace = ns
	}
}

// WithCacheDependents names the entities whose cached graphs embed this one.
// Their entries are invalidated together with this entity's.
func WithCacheDependents(entities ...string) CacheOption {
	return func(o *cacheOptions) {
		o.dependents = append(o.dependents, entities...)
	}
}

// WithCacheLogger sets the logger used for cache failures.
func WithCacheLogger(log *zap.Logger) CacheOption {
	return func(o *cacheOptions) {
		o.log = log
	}
}

// Cached is a read-through decorator over a Repository. Reads are served
// from the store when present; writes go to the wrapped repository and then
// invalidate the entity's keys and those of its dependents. Cache failures
// never fail an operation.
type Cached[E, R any] struct {
	inner      Repository[E, R]
	store      CacheStore
	entity     string
	namespace  string
	dependents []string
	log        *zap.Logger
}

var _ Repository[struct{}, struct{}] = (*Cached[struct{}, struct{}])(nil)

func NewCached[E, R any](inner Repository[E, R], store CacheStore, entity string, opts ...CacheOption) *Cached[E, R] {
	o := cacheOptions{namespace: defaultNamespace}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	return &Cached[E, R]{
		inner:      inner,
		store:      store,
		entity:     entity,
		namespace:  o.namespace,
		dependents: o.dependents,
		log:        o.log.With(zap.String("entity", entity), zap.String("cache_namespace", o.namespace)),
	}
}

// Unwrap returns the decorated repository.
func (c *Cached[E, R]) Unwrap() Repository[E, R] {
	return c.inner
}

func (c *Cached[E, R]) Save(ctx context.Context, entity *E) error {
	if err := c.inner.Save(ctx, entity); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *Cached[E, R]) FindByID(ctx context.Context, id int64) (*E, error) {
	key := c.key(opFindByID, strconv.FormatInt(id, 10))
	var hit E
	if c.lookup(ctx, key, &hit) {
		return &hit, nil
	}
	out, err := c.inner.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, key, out)
	return out, nil
}

func (c *Cached[E, R]) FindAll(ctx context.Context) ([]E, error) {
	key := c.key(opFindAll)
	var hit []E
	if c.lookup(ctx, key, &hit) {
		return nonNil(hit), nil
	}
	out, err := c.inner.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, key, out)
	return out, nil
}

func (c *Cached[E, R]) Update(ctx context.Context, entity *E) error {
	if err := c.inner.Update(ctx, entity); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *Cached[E, R]) Delete(ctx context.Context, id int64) error {
	if err := c.inner.Delete(ctx, id); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *Cached[E, R]) DeleteAll(ctx context.Context) error {
	if err := c.inner.DeleteAll(ctx); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *Cached[E, R]) GetRelatedByParentID(ctx context.Context, id int64) ([]R, error) {
	key := c.key(opRelated, strconv.FormatInt(id, 10))
	var hit []R
	if c.lookup(ctx, key, &hit) {
		return nonNil(hit), nil
	}
	out, err := c.inner.GetRelatedByParentID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, key, out)
	return out, nil
}

// key builds relmap:<namespace>:<entity>:<op>[:<arg>...]
func (c *Cached[E, R]) key(op string, args ...string) string {
	return joinKey(append([]string{cacheKeyPrefix, c.namespace, c.entity, op}, args...)...)
}

func (c *Cached[E, R]) pattern(entity string) string {
	return joinKey(cacheKeyPrefix, c.namespace, entity, "*")
}

// lookup reports whether key held a decodable value. Any store or decode
// error counts as a miss.
func (c *Cached[E, R]) lookup(ctx context.Context, key string, dst any) bool {
	data, err := c.store.Get(ctx, key)
	if err != nil || data == nil {
		return false
	}
	if err := decodeCached(data, dst); err != nil {
		c.log.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *Cached[E, R]) fill(ctx context.Context, key string, v any) {
	data, err := encodeCached(v)
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, data); err != nil {
		c.log.Debug("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cached[E, R]) invalidate(ctx context.Context) {
	for _, entity := range append([]string{c.entity}, c.dependents...) {
		if err := c.store.InvalidatePattern(ctx, c.pattern(entity)); err != nil {
			c.log.Warn("cache invalidation failed", zap.String("pattern", c.pattern(entity)), zap.Error(err))
		}
	}
}

func joinKey(parts ...string) string {
	return strings.Join(parts, cacheKeySeparator)
}

func encodeCached(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeCached(data []byte, dst any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	if err := dec.Decode(dst); err != nil {
		return err
	}
	inUTC(reflect.ValueOf(dst))
	return nil
}

var timeType = reflect.TypeOf(time.Time{})

// inUTC moves every time.Time reachable from v to UTC. msgpack decodes
// timestamps into time.Local, while dates read from the database are
// midnight UTC.
func inUTC(v reflect.Value) {
	switch v.Kind() {
	case reflect.Pointer:
		if !v.IsNil() {
			inUTC(v.Elem())
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			inUTC(v.Index(i))
		}
	case reflect.Struct:
		if v.Type() == timeType {
			if v.CanSet() {
				v.Set(reflect.ValueOf(v.Interface().(time.Time).UTC()))
			}
			return
		}
		for i := 0; i < v.NumField(); i++ {
			if v.Type().Field(i).IsExported() {
				inUTC(v.Field(i))
			}
		}
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
