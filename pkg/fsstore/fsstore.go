// Package fsstore implements object.ObjectStorage on a local directory.
//
// Every object is one regular file named after its key. Writes go to a hidden
// temporary file in the same directory which is renamed over the final name
// once it is complete, so readers see either the old or the new content.
package fsstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"mediavault/pkg/object"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const tmpPrefix = ".tmp-"

// Config defines the storage root.
type Config struct {
	Dir string
}

// Storage satisfies object.ObjectStorage using plain files.
type Storage struct {
	dir string
}

// Init makes sure the storage directory exists.
func (s *Storage) Init(_ context.Context, param any) error {
	cfg, ok := param.(Config)
	if !ok {
		if p, ok := param.(*Config); ok && p != nil {
			cfg = *p
		} else {
			return fmt.Errorf("fsstore: unexpected config type %T", param)
		}
	}
	if cfg.Dir == "" {
		return errors.New("fsstore: Dir is required")
	}

	dir, err := filepath.Abs(cfg.Dir)
	if err != nil {
		return fmt.Errorf("fsstore: resolve dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("fsstore: create dir: %w", err)
	}
	s.dir = dir
	return nil
}

// Close is a no-op.
func (s *Storage) Close(_ context.Context) error {
	return nil
}

// Put writes the content to a temp file and renames it into place.
// The content type is not persisted; it is sniffed from the file on read.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, _ int64, _ string) (object.Object, error) {
	path, err := s.path(key)
	if err != nil {
		return object.Object{}, err
	}

	tmp, err := os.CreateTemp(s.dir, tmpPrefix+uuid.NewString()+"-*")
	if err != nil {
		return object.Object{}, fmt.Errorf("fsstore: create temp file: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: r}); err != nil {
		return object.Object{}, fmt.Errorf("fsstore: write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		return object.Object{}, fmt.Errorf("fsstore: sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return object.Object{}, fmt.Errorf("fsstore: close %s: %w", key, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return object.Object{}, fmt.Errorf("fsstore: chmod %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return object.Object{}, fmt.Errorf("fsstore: commit %s: %w", key, err)
	}
	committed = true

	info, err := os.Stat(path)
	if err != nil {
		return object.Object{}, fmt.Errorf("fsstore: stat %s: %w", key, err)
	}
	return s.toObject(key, path, info), nil
}

// Get opens the file for key.
func (s *Storage) Get(_ context.Context, key string) (object.Object, io.ReadCloser, error) {
	path, err := s.path(key)
	if err != nil {
		return object.Object{}, nil, err
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return object.Object{}, nil, object.ErrNotFound
	}
	if err != nil {
		return object.Object{}, nil, fmt.Errorf("fsstore: open %s: %w", key, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return object.Object{}, nil, fmt.Errorf("fsstore: stat %s: %w", key, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return object.Object{}, nil, object.ErrNotFound
	}
	return s.toObject(key, path, info), f, nil
}

// List returns the stored files whose names start with prefix, sorted by key.
func (s *Storage) List(_ context.Context, prefix string) ([]object.Object, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("fsstore: list: %w", err)
	}

	var objects []object.Object
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, tmpPrefix) || !strings.HasPrefix(name, prefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// removed between ReadDir and Info
			continue
		}
		objects = append(objects, s.toObject(name, filepath.Join(s.dir, name), info))
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key < objects[j].Key })
	return objects, nil
}

// Delete removes the file for key.
func (s *Storage) Delete(_ context.Context, key string) error {
	path, err := s.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return object.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("fsstore: delete %s: %w", key, err)
	}
	return nil
}

func (s *Storage) path(key string) (string, error) {
	if s.dir == "" {
		return "", errors.New("fsstore: storage not initialized")
	}
	if err := object.ValidateKey(key); err != nil {
		return "", err
	}
	if strings.HasPrefix(key, tmpPrefix) {
		return "", object.ErrInvalidKey
	}
	return filepath.Join(s.dir, key), nil
}

func (s *Storage) toObject(key, path string, info fs.FileInfo) object.Object {
	contentType := ""
	if mt, err := mimetype.DetectFile(path); err == nil {
		contentType = mt.String()
	}
	return object.Object{
		Key:          key,
		Size:         info.Size(),
		ETag:         fmt.Sprintf("%x-%x", info.ModTime().UnixNano(), info.Size()),
		ContentType:  contentType,
		LastModified: info.ModTime().UTC(),
		Location:     path,
	}
}

// ctxReader stops a copy once the context is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

// Ensure Storage implements ObjectStorage interface.
var _ object.ObjectStorage = (*Storage)(nil)
