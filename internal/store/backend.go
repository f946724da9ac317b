package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const driverName = "sqlite3"

// Backend provisions the physical storage behind a storage identifier.
//
// Open returns a live connection and reports whether storage already
// existed under id before the call. The Guardian never inspects the
// medium itself; it only relies on this flag for logging.
type Backend interface {
	Open(ctx context.Context, id string) (db *sqlx.DB, existed bool, err error)
}

// FileBackend stores each identifier as one SQLite file inside Dir.
// Dir must already exist.
type FileBackend struct {
	Dir string
}

// Path returns the file backing id.
func (b FileBackend) Path(id string) string {
	return filepath.Join(b.Dir, id)
}

// Exists reports whether a store file for id is present.
func (b FileBackend) Exists(id string) bool {
	if checkIdentifier(id) != nil {
		return false
	}
	_, err := os.Stat(b.Path(id))
	return err == nil
}

// Open creates or opens the SQLite file for id.
func (b FileBackend) Open(ctx context.Context, id string) (*sqlx.DB, bool, error) {
	if err := checkIdentifier(id); err != nil {
		return nil, false, err
	}

	path := b.Path(id)
	_, statErr := os.Stat(path)
	existed := statErr == nil
	if statErr != nil && !errors.Is(statErr, os.ErrNotExist) {
		return nil, false, fmt.Errorf("stat %s: %w", path, statErr)
	}

	// Open database (creates file if doesn't exist)
	db, err := sqlx.Open(driverName, path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection works
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, false, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, existed, nil
}

// MemoryBackend keeps stores in named shared-cache in-memory SQLite
// databases. Each store lives until the backend is closed, so reopening an
// identifier sees the data written through an earlier handle.
type MemoryBackend struct {
	prefix string

	mu      sync.Mutex
	anchors map[string]*sqlx.DB
}

// NewMemoryBackend creates an empty in-memory backend. Backends never
// share stores with each other.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		prefix:  uuid.NewString(),
		anchors: make(map[string]*sqlx.DB),
	}
}

// Open returns a new connection to the in-memory store for id.
func (b *MemoryBackend) Open(ctx context.Context, id string) (*sqlx.DB, bool, error) {
	if err := checkIdentifier(id); err != nil {
		return nil, false, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	dsn := fmt.Sprintf("file:%s-%s?mode=memory&cache=shared", b.prefix, url.PathEscape(id))

	_, existed := b.anchors[id]
	if !existed {
		// The anchor keeps the shared-cache database alive between handles.
		anchor, err := sqlx.Open(driverName, dsn)
		if err != nil {
			return nil, false, fmt.Errorf("failed to open database: %w", err)
		}
		if err := anchor.PingContext(ctx); err != nil {
			anchor.Close()
			return nil, false, fmt.Errorf("failed to connect to database: %w", err)
		}
		b.anchors[id] = anchor
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, false, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, false, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, existed, nil
}

// Close drops every in-memory store held by the backend.
func (b *MemoryBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var errs []error
	for id, anchor := range b.anchors {
		if err := anchor.Close(); err != nil {
			errs = append(errs, err)
		}
		delete(b.anchors, id)
	}
	return errors.Join(errs...)
}

// checkIdentifier rejects identifiers that would escape a single store.
func checkIdentifier(id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return fmt.Errorf("%w: empty", ErrInvalidIdentifier)
	case strings.ContainsAny(id, `/\`), id == "." || id == "..":
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}
	return nil
}
