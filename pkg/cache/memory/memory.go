// Package memory implements cache.Cache on top of bigcache.
package memory

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"mediavault/pkg/cache"

	"github.com/allegro/bigcache/v3"
)

const (
	headerSize = 8
	stripes    = 64
)

// Config tunes the underlying bigcache instance.
type Config struct {
	// LifeWindow is the hard upper bound on how long bigcache keeps an entry,
	// whatever TTL Set asked for. Defaults to 10 minutes.
	LifeWindow time.Duration
	// CleanWindow is the interval of the expired-entry sweep. Defaults to 1 minute.
	CleanWindow time.Duration
	// HardMaxCacheSizeMB caps memory use; 0 means unbounded.
	HardMaxCacheSizeMB int
	// Shards must be a power of two. Defaults to 8; every shard gets
	// HardMaxCacheSizeMB/Shards, which must exceed the largest cached object.
	Shards int
}

// Cache stores each value behind an 8-byte big-endian expiry header so every
// entry can carry its own TTL.
type Cache struct {
	bc    *bigcache.BigCache
	locks [stripes]sync.Mutex
	now   func() time.Time
}

// New creates an in-memory cache.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	if cfg.LifeWindow <= 0 {
		cfg.LifeWindow = 10 * time.Minute
	}
	if cfg.CleanWindow <= 0 {
		cfg.CleanWindow = time.Minute
	}
	if cfg.Shards <= 0 {
		cfg.Shards = 8
	}

	bcfg := bigcache.DefaultConfig(cfg.LifeWindow)
	bcfg.CleanWindow = cfg.CleanWindow
	bcfg.Shards = cfg.Shards
	bcfg.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	// initial shard allocation only; shards grow up to the hard cap
	bcfg.MaxEntriesInWindow = 1000
	bcfg.MaxEntrySize = 4096
	bcfg.Verbose = false

	bc, err := bigcache.New(ctx, bcfg)
	if err != nil {
		return nil, fmt.Errorf("memory cache: %w", err)
	}
	return &Cache{bc: bc, now: time.Now}, nil
}

func (c *Cache) lock(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &c.locks[h.Sum32()%stripes]
}

// Get returns the payload for key or cache.ErrMiss.
func (c *Cache) Get(_ context.Context, key string) ([]byte, error) {
	entry, err := c.bc.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return nil, cache.ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("memory cache: get %q: %w", key, err)
	}
	if len(entry) < headerSize {
		return nil, fmt.Errorf("memory cache: corrupt entry %q", key)
	}
	if c.expired(entry) {
		mu := c.lock(key)
		mu.Lock()
		// only drop it if nobody refreshed the entry meanwhile
		if cur, err := c.bc.Get(key); err == nil && len(cur) >= headerSize && c.expired(cur) {
			_ = c.bc.Delete(key)
		}
		mu.Unlock()
		return nil, cache.ErrMiss
	}
	return entry[headerSize:], nil
}

// Set stores val under key until ttl elapses.
func (c *Cache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	entry := make([]byte, headerSize+len(val))
	binary.BigEndian.PutUint64(entry, uint64(c.deadline(ttl)))
	copy(entry[headerSize:], val)

	mu := c.lock(key)
	mu.Lock()
	defer mu.Unlock()
	if err := c.bc.Set(key, entry); err != nil {
		return fmt.Errorf("memory cache: set %q: %w", key, err)
	}
	return nil
}

// Touch pushes the expiry of an existing entry to now+ttl.
func (c *Cache) Touch(_ context.Context, key string, ttl time.Duration) error {
	mu := c.lock(key)
	mu.Lock()
	defer mu.Unlock()

	entry, err := c.bc.Get(key)
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		return cache.ErrMiss
	}
	if err != nil {
		return fmt.Errorf("memory cache: touch %q: %w", key, err)
	}
	if len(entry) < headerSize || c.expired(entry) {
		return cache.ErrMiss
	}
	binary.BigEndian.PutUint64(entry, uint64(c.deadline(ttl)))
	if err := c.bc.Set(key, entry); err != nil {
		return fmt.Errorf("memory cache: touch %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (c *Cache) Delete(_ context.Context, key string) error {
	mu := c.lock(key)
	mu.Lock()
	defer mu.Unlock()

	err := c.bc.Delete(key)
	if err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return fmt.Errorf("memory cache: delete %q: %w", key, err)
	}
	return nil
}

// Ping always succeeds for the in-process cache.
func (c *Cache) Ping(_ context.Context) error {
	return nil
}

// Close stops bigcache's cleanup goroutine.
func (c *Cache) Close() error {
	return c.bc.Close()
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	return c.bc.Len()
}

func (c *Cache) deadline(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return c.now().Add(ttl).UnixNano()
}

func (c *Cache) expired(entry []byte) bool {
	deadline := int64(binary.BigEndian.Uint64(entry))
	return deadline != 0 && c.now().UnixNano() >= deadline
}

var _ cache.Cache = (*Cache)(nil)
