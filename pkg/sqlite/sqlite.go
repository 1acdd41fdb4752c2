// Package sqlite implements object.ObjectStorage backed by SQLite.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"regexp"
	"time"

	"mediavault/pkg/object"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// Config defines how the SQLite storage should be initialized.
type Config struct {
	// Source is the DSN/connection string, e.g. file:videos.db?cache=shared.
	Source string
	// Driver name registered with database/sql: "sqlite" (default) or "libsql".
	Driver string
	// Table to store objects. Defaults to "videos".
	Table string
	// DB lets callers supply an existing *sql.DB connection.
	DB *sql.DB
}

// Storage satisfies object.ObjectStorage using a SQLite table.
type Storage struct {
	db     *sql.DB
	table  string
	ownsDB bool
}

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Init configures the storage and ensures the backing table exists.
func (s *Storage) Init(ctx context.Context, param any) error {
	cfg, ok := param.(Config)
	if !ok {
		if p, ok := param.(*Config); ok && p != nil {
			cfg = *p
		} else {
			return fmt.Errorf("sqlite: unexpected config type %T", param)
		}
	}

	if cfg.Driver == "" {
		cfg.Driver = "sqlite"
	}
	if cfg.Table == "" {
		cfg.Table = "videos"
	}
	if cfg.Source == "" && cfg.DB == nil {
		return errors.New("sqlite: Source is required")
	}
	if !tableName.MatchString(cfg.Table) {
		return fmt.Errorf("sqlite: invalid table name %q", cfg.Table)
	}
	s.table = cfg.Table

	if cfg.DB != nil {
		s.db = cfg.DB
	} else {
		db, err := sql.Open(cfg.Driver, cfg.Source)
		if err != nil {
			return fmt.Errorf("sqlite: open database: %w", err)
		}
		s.db = db
		s.ownsDB = true
	}

	createStmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		size INTEGER NOT NULL,
		etag TEXT,
		content_type TEXT,
		last_modified TEXT NOT NULL
	)`, s.table)

	if _, err := s.db.ExecContext(ctx, createStmt); err != nil {
		return fmt.Errorf("sqlite: create table: %w", err)
	}

	return nil
}

// Close releases the DB connection when owned by the storage.
func (s *Storage) Close(_ context.Context) error {
	if s.db != nil && s.ownsDB {
		return s.db.Close()
	}
	return nil
}

// Put stores an object, replacing any previous content in a single statement.
func (s *Storage) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (object.Object, error) {
	if err := s.ensureDB(); err != nil {
		return object.Object{}, err
	}
	if err := object.ValidateKey(key); err != nil {
		return object.Object{}, err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return object.Object{}, fmt.Errorf("sqlite: read content: %w", err)
	}

	now := time.Now().UTC()
	obj := object.Object{
		Key:          key,
		Size:         int64(len(data)),
		ETag:         object.ETag(data),
		ContentType:  contentType,
		LastModified: now,
		Location:     s.location(key),
	}

	query := fmt.Sprintf(`INSERT INTO %s (key, data, size, etag, content_type, last_modified) VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data=excluded.data, size=excluded.size, etag=excluded.etag, content_type=excluded.content_type, last_modified=excluded.last_modified`, s.table)

	_, err = s.db.ExecContext(ctx, query,
		key,
		data,
		obj.Size,
		obj.ETag,
		nullIfEmpty(contentType),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return object.Object{}, fmt.Errorf("sqlite: put object: %w", err)
	}

	return obj, nil
}

// Get retrieves the object data and metadata.
func (s *Storage) Get(ctx context.Context, key string) (object.Object, io.ReadCloser, error) {
	if err := s.ensureDB(); err != nil {
		return object.Object{}, nil, err
	}

	query := fmt.Sprintf(`SELECT size, etag, content_type, last_modified, data FROM %s WHERE key = ?`, s.table)
	var (
		size         int64
		etag         sql.NullString
		contentType  sql.NullString
		lastModified string
		data         []byte
	)

	err := s.db.QueryRowContext(ctx, query, key).Scan(&size, &etag, &contentType, &lastModified, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return object.Object{}, nil, object.ErrNotFound
	}
	if err != nil {
		return object.Object{}, nil, fmt.Errorf("sqlite: get object: %w", err)
	}

	obj, err := s.rowToObject(key, size, etag.String, contentType.String, lastModified)
	if err != nil {
		return object.Object{}, nil, err
	}

	return obj, io.NopCloser(bytes.NewReader(data)), nil
}

// List returns all objects with the given prefix.
func (s *Storage) List(ctx context.Context, prefix string) ([]object.Object, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT key, size, etag, content_type, last_modified FROM %s WHERE substr(key, 1, ?) = ? ORDER BY key ASC`, s.table)

	rows, err := s.db.QueryContext(ctx, query, len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list objects: %w", err)
	}
	defer rows.Close()

	var objects []object.Object
	for rows.Next() {
		var (
			key          string
			size         int64
			etag         sql.NullString
			contentType  sql.NullString
			lastModified string
		)
		if err := rows.Scan(&key, &size, &etag, &contentType, &lastModified); err != nil {
			return nil, fmt.Errorf("sqlite: scan object: %w", err)
		}

		obj, err := s.rowToObject(key, size, etag.String, contentType.String, lastModified)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate objects: %w", err)
	}

	return objects, nil
}

// Delete removes an object by key.
func (s *Storage) Delete(ctx context.Context, key string) error {
	if err := s.ensureDB(); err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE key = ?`, s.table)
	res, err := s.db.ExecContext(ctx, query, key)
	if err != nil {
		return fmt.Errorf("sqlite: delete object: %w", err)
	}

	rows, err := res.RowsAffected()
	if err == nil && rows == 0 {
		return object.ErrNotFound
	}
	return err
}

func (s *Storage) ensureDB() error {
	if s.db == nil {
		return errors.New("sqlite: storage not initialized")
	}
	return nil
}

func (s *Storage) location(key string) string {
	return s.table + "/" + key
}

func (s *Storage) rowToObject(key string, size int64, etag, contentType, lastModified string) (object.Object, error) {
	t, err := time.Parse(time.RFC3339Nano, lastModified)
	if err != nil {
		return object.Object{}, fmt.Errorf("sqlite: parse last_modified: %w", err)
	}

	return object.Object{
		Key:          key,
		Size:         size,
		ETag:         etag,
		ContentType:  contentType,
		LastModified: t,
		Location:     s.location(key),
	}, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Ensure Storage implements ObjectStorage interface.
var _ object.ObjectStorage = (*Storage)(nil)
