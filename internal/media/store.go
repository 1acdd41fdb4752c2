package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"mediavault/internal/metrics"
	"mediavault/pkg/cache"
	"mediavault/pkg/object"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// StoreConfig wires a Store to its backends.
type StoreConfig struct {
	Durable object.ObjectStorage
	Cache   cache.Cache
	// TTL is the sliding lifetime of cache entries.
	TTL time.Duration
	// Timeout bounds every durable storage call; 0 disables it.
	Timeout time.Duration
	Logger  *zap.Logger
	Metrics *metrics.Metrics
}

// Store is a volatile cache layered in front of durable storage.
//
// A cache entry only ever holds bytes that were durably committed when it was
// written. Writes and miss-populates for one key are serialized; different
// keys proceed in parallel. Cache failures are logged and never returned.
type Store struct {
	durable object.ObjectStorage
	cache   cache.Cache
	ttl     time.Duration
	timeout time.Duration
	log     *zap.Logger
	metrics *metrics.Metrics

	group singleflight.Group
	locks keyLocks
}

func NewStore(cfg StoreConfig) *Store {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		durable: cfg.Durable,
		cache:   cfg.Cache,
		ttl:     cfg.TTL,
		timeout: cfg.Timeout,
		log:     logger,
		metrics: cfg.Metrics,
	}
}

// Get returns the full content of key. The slice may be shared with
// concurrent callers and must not be modified.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	ck := cache.Key(key)
	buf, err := s.cache.Get(ctx, ck)
	switch {
	case err == nil:
		s.metrics.CacheRequest(metrics.Hit)
		s.bestEffort("touch", key, s.cache.Touch(ctx, ck, s.ttl))
		return buf, nil
	case errors.Is(err, cache.ErrMiss):
		s.metrics.CacheRequest(metrics.Miss)
	default:
		s.metrics.CacheRequest(metrics.Error)
		s.bestEffort("get", key, err)
	}

	// The shared read is detached from the first caller's context so one
	// client going away does not fail everyone waiting on the same key.
	ch := s.group.DoChan(key, func() (any, error) {
		return s.load(context.WithoutCancel(ctx), key)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	case <-ctx.Done():
		return nil, &StorageError{Op: "get", Key: key, Err: ctx.Err()}
	}
}

func (s *Store) load(ctx context.Context, key string) ([]byte, error) {
	s.locks.lock(key)
	defer s.locks.unlock(key)

	dctx, cancel := s.durableContext(ctx)
	defer cancel()

	s.metrics.DurableRead()
	_, rc, err := s.durable.Get(dctx, key)
	if errors.Is(err, object.ErrNotFound) || errors.Is(err, object.ErrInvalidKey) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, &StorageError{Op: "get", Key: key, Err: err}
	}
	defer rc.Close()

	buf, err := io.ReadAll(rc)
	if err != nil {
		return nil, &StorageError{Op: "read", Key: key, Err: err}
	}

	s.bestEffort("set", key, s.cache.Set(ctx, cache.Key(key), buf, s.ttl))
	return buf, nil
}

// Put writes buf durably and then caches it. When the durable write fails any
// cache entry for key is dropped so no reader can see bytes that were never
// committed.
func (s *Store) Put(ctx context.Context, key string, buf []byte, contentType string) (object.Object, error) {
	s.locks.lock(key)
	defer s.locks.unlock(key)

	ck := cache.Key(key)
	dctx, cancel := s.durableContext(ctx)
	obj, err := s.durable.Put(dctx, key, bytes.NewReader(buf), int64(len(buf)), contentType)
	cancel()
	if err != nil {
		s.bestEffort("delete", key, s.cache.Delete(context.WithoutCancel(ctx), ck))
		return object.Object{}, &StorageError{Op: "put", Key: key, Err: err}
	}

	// The object is committed; a cancelled request must not skip the refresh
	// or the cache would keep serving the previous version. If the refresh
	// fails the old entry is dropped so the next read goes to durable storage.
	cctx := context.WithoutCancel(ctx)
	if err := s.cache.Set(cctx, ck, buf, s.ttl); err != nil {
		s.bestEffort("set", key, err)
		s.bestEffort("delete", key, s.cache.Delete(cctx, ck))
	}
	return obj, nil
}

// Delete evicts key from the cache. Durable data is left in place.
func (s *Store) Delete(ctx context.Context, key string) {
	s.locks.lock(key)
	defer s.locks.unlock(key)
	s.bestEffort("delete", key, s.cache.Delete(ctx, cache.Key(key)))
}

// List returns the durable objects sorted by key.
func (s *Store) List(ctx context.Context) ([]object.Object, error) {
	dctx, cancel := s.durableContext(ctx)
	defer cancel()
	objs, err := s.durable.List(dctx, "")
	if err != nil {
		return nil, &StorageError{Op: "list", Err: err}
	}
	return objs, nil
}

// bestEffort absorbs a cache failure: it is logged and counted, never returned.
func (s *Store) bestEffort(op, key string, err error) {
	if err == nil || (op == "touch" && errors.Is(err, cache.ErrMiss)) {
		return
	}
	s.metrics.CacheError(op)
	s.log.Warn("cache operation failed",
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	)
}

func (s *Store) durableContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}
