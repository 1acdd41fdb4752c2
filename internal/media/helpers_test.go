package media

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mediavault/pkg/cache"
	"mediavault/pkg/object"
)

var pngSignature = []byte("\x89PNG\r\n\x1a\n")

// mp4Bytes returns n bytes that start with an ISO base media ftyp box.
func mp4Bytes(n int) []byte {
	buf := make([]byte, n)
	copy(buf, []byte{
		0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p',
		'i', 's', 'o', 'm', 0x00, 0x00, 0x02, 0x00,
		'i', 's', 'o', 'm', 'm', 'p', '4', '1',
	})
	for i := 24; i < n; i++ {
		buf[i] = byte(i * 7)
	}
	return buf
}

func pngBytes(n int) []byte {
	buf := make([]byte, n)
	copy(buf, pngSignature)
	return buf
}

// memDurable is an in-memory object.ObjectStorage with failure injection.
type memDurable struct {
	mu      sync.Mutex
	objects map[string][]byte

	putErr error
	getErr error
	// gate, when set, blocks Get until it is closed.
	gate  chan struct{}
	reads atomic.Int32
}

func newMemDurable() *memDurable {
	return &memDurable{objects: make(map[string][]byte)}
}

func (m *memDurable) Init(context.Context, any) error { return nil }
func (m *memDurable) Close(context.Context) error    { return nil }

func (m *memDurable) Get(ctx context.Context, key string) (object.Object, io.ReadCloser, error) {
	m.reads.Add(1)
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return object.Object{}, nil, ctx.Err()
		}
	}
	if m.getErr != nil {
		return object.Object{}, nil, m.getErr
	}
	if err := object.ValidateKey(key); err != nil {
		return object.Object{}, nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return object.Object{}, nil, object.ErrNotFound
	}
	return object.Object{Key: key, Size: int64(len(data))}, io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memDurable) List(_ context.Context, prefix string) ([]object.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var objs []object.Object
	for k, v := range m.objects {
		if strings.HasPrefix(k, prefix) {
			objs = append(objs, object.Object{Key: k, Size: int64(len(v))})
		}
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Key < objs[j].Key })
	return objs, nil
}

func (m *memDurable) Put(_ context.Context, key string, r io.Reader, _ int64, contentType string) (object.Object, error) {
	if m.putErr != nil {
		return object.Object{}, m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return object.Object{}, err
	}
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return object.Object{Key: key, Size: int64(len(data)), ContentType: contentType, ETag: object.ETag(data)}, nil
}

func (m *memDurable) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return object.ErrNotFound
	}
	delete(m.objects, key)
	return nil
}

// mapCache is a cache.Cache over a plain map, recording touches.
type mapCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	touches int
}

func newMapCache() *mapCache {
	return &mapCache{entries: make(map[string][]byte)}
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	if !ok {
		return nil, cache.ErrMiss
	}
	return bytes.Clone(v), nil
}

func (c *mapCache) Set(_ context.Context, key string, val []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = bytes.Clone(val)
	return nil
}

func (c *mapCache) Touch(_ context.Context, key string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; !ok {
		return cache.ErrMiss
	}
	c.touches++
	return nil
}

func (c *mapCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

func (c *mapCache) Ping(context.Context) error { return nil }
func (c *mapCache) Close() error               { return nil }

func (c *mapCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.entries[key]
	return ok
}

// brokenCache fails every operation.
type brokenCache struct{}

var errCacheDown = errors.New("cache down")

func (brokenCache) Get(context.Context, string) ([]byte, error)              { return nil, errCacheDown }
func (brokenCache) Set(context.Context, string, []byte, time.Duration) error { return errCacheDown }
func (brokenCache) Touch(context.Context, string, time.Duration) error       { return errCacheDown }
func (brokenCache) Delete(context.Context, string) error                     { return errCacheDown }
func (brokenCache) Ping(context.Context) error                               { return errCacheDown }
func (brokenCache) Close() error                                             { return nil }
