// Package cache keeps the last successful payload for each request key and
// makes sure a key is fetched at most once at a time.
package cache

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/opengamedata/ogdviz/am"
	"github.com/opengamedata/ogdviz/errors"
	"github.com/opengamedata/ogdviz/logger"
	"github.com/opengamedata/ogdviz/payload"
)

// Backend names accepted by cache.backend.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// FetchFunc produces the payload for a key on a cache miss.
type FetchFunc func(ctx context.Context) (payload.Raw, error)

// MalformedPayloadError reports a payload that is not valid JSON, either read
// back from the store or handed to Put after a fetch.
type MalformedPayloadError struct {
	Key    string
	Size   int
	Stored bool
}

func (e *MalformedPayloadError) Error() string {
	origin := "fetched"
	if e.Stored {
		origin = "cached"
	}
	return fmt.Sprintf("%s payload for %s is not valid JSON (%d bytes)", origin, e.Key, e.Size)
}

func (e *MalformedPayloadError) Is(target error) bool {
	return target == errors.ErrMalformedPayload
}

// ResultCache maps request keys to payloads on top of a Store.
type ResultCache struct {
	store  Store
	group  singleflight.Group
	logger *zap.SugaredLogger
	now    func() time.Time
}

// New wraps store. A nil logger is replaced with a nop logger.
func New(store Store, log *zap.SugaredLogger) *ResultCache {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &ResultCache{
		store:  store,
		logger: log.Named("cache"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Open builds the store named by cfg.Backend.
func Open(cfg am.CacheConfig, log *zap.SugaredLogger) (*ResultCache, error) {
	switch cfg.Backend {
	case BackendMemory:
		return New(NewMemoryStore(), log), nil
	case BackendSQLite, "":
		store, err := OpenSQLStore(cfg.Path)
		if err != nil {
			return nil, errors.Wrapf(err, "open cache at %s", cfg.Path)
		}
		return New(store, log), nil
	default:
		return nil, errors.WithHint(
			errors.NewInvalidRequestError("unknown cache backend %q", cfg.Backend),
			"set cache.backend to \"sqlite\" or \"memory\"")
	}
}

// Get returns the stored payload for key. Storage errors and malformed
// values are logged and reported as a miss.
func (c *ResultCache) Get(ctx context.Context, key string) (payload.Raw, bool) {
	e, ok, err := c.store.Load(ctx, key)
	if err != nil {
		c.logger.Warnw("Cache lookup failed", logger.FieldCacheKey, key, logger.FieldError, err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if !e.Payload.Valid() {
		malformed := &MalformedPayloadError{Key: key, Size: len(e.Payload), Stored: true}
		c.logger.Warnw("Discarding malformed cache entry",
			logger.FieldCacheKey, key,
			logger.FieldSize, len(e.Payload),
			logger.FieldError, malformed)
		return nil, false
	}
	return e.Payload, true
}

// Put stores p under key, replacing any previous entry.
func (c *ResultCache) Put(ctx context.Context, key string, p payload.Raw) error {
	if !p.Valid() {
		return &MalformedPayloadError{Key: key, Size: len(p)}
	}
	return c.store.Save(ctx, Entry{Key: key, Payload: p, FetchedAt: c.now()})
}

// Clear removes every entry.
func (c *ResultCache) Clear(ctx context.Context) error {
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	c.logger.Infow("Cache cleared")
	return nil
}

// Entries lists stored keys with payload sizes, sorted by key.
func (c *ResultCache) Entries(ctx context.Context) ([]EntryInfo, error) {
	return c.store.List(ctx)
}

// GetOrFetch returns the cached payload for key or calls fetch. Concurrent
// misses on one key share a single fetch and its result, error included.
// Failed fetches are not retried and leave the cache untouched.
func (c *ResultCache) GetOrFetch(ctx context.Context, key string, fetch FetchFunc) (payload.Raw, error) {
	if p, ok := c.Get(ctx, key); ok {
		c.logger.Debugw("Cache hit", logger.FieldCacheKey, key)
		return p, nil
	}

	v, err, shared := c.group.Do(key, func() (interface{}, error) {
		if p, ok := c.Get(ctx, key); ok {
			return p, nil
		}

		start := c.now()
		p, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if err := c.Put(ctx, key, p); err != nil {
			c.logger.Warnw("Fetched payload not cached", logger.FieldCacheKey, key, logger.FieldError, err)
			if errors.Is(err, errors.ErrMalformedPayload) {
				return nil, err
			}
		}
		c.logger.Debugw("Cache filled",
			logger.FieldCacheKey, key,
			logger.FieldSize, len(p),
			logger.FieldDurationMS, c.now().Sub(start).Milliseconds())
		return p, nil
	})
	if shared {
		c.logger.Debugw("Joined in-flight fetch", logger.FieldCacheKey, key)
	}
	if err != nil {
		return nil, err
	}
	return v.(payload.Raw), nil
}

// Close releases the underlying store.
func (c *ResultCache) Close() error {
	return c.store.Close()
}
