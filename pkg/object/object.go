// Package object contains the durable storage interface for media objects.
// Implementations include the local filesystem, SQLite and S3-compatible stores.
package object

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"
)

// Object holds metadata about a stored media object.
type Object struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	// Location is where the backend keeps the bytes (path, table row or bucket key).
	Location string
}

// Common errors returned by implementations.
var (
	ErrNotFound   = errors.New("object not found")
	ErrInvalidKey = errors.New("invalid object key")
)

// Lifecycle defines init/teardown behavior.
type Lifecycle interface {
	Init(ctx context.Context, param any) error
	Close(ctx context.Context) error
}

// Reader exposes read-related operations.
type Reader interface {
	// Get returns object metadata and a stream the caller must close.
	Get(ctx context.Context, key string) (Object, io.ReadCloser, error)
	// List returns a list of objects matching the prefix.
	List(ctx context.Context, prefix string) ([]Object, error)
}

// Writer exposes write-related operations.
type Writer interface {
	// Put stores the full content under key. A reader never observes a
	// partially written object: the new content becomes visible all at once.
	Put(ctx context.Context, key string, r io.Reader, sizeHint int64, contentType string) (Object, error)
}

// Deleter exposes delete behavior.
type Deleter interface {
	Delete(ctx context.Context, key string) error
}

// ObjectStorage aggregates the full contract for durable backends.
type ObjectStorage interface {
	Lifecycle
	Reader
	Writer
	Deleter
}

// ValidateKey rejects keys that could escape a backend's namespace.
func ValidateKey(key string) error {
	if key == "" || key == "." || key == ".." {
		return ErrInvalidKey
	}
	if strings.ContainsAny(key, "/\\\x00") {
		return ErrInvalidKey
	}
	return nil
}
