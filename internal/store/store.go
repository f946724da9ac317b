package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/datanexus/crmstore/internal/metrics"
)

const defaultBusyTimeout = 5 * time.Second

// Handle is an open store whose catalog has been verified.
// One Handle serves one logical session; it is not shared across tenants.
type Handle struct {
	id      string
	db      *sqlx.DB
	catalog Catalog
	logger  *zap.Logger
	metrics *metrics.Collector

	existed bool
	created []string
}

type options struct {
	logger      *zap.Logger
	metrics     *metrics.Collector
	busyTimeout time.Duration
}

// Option configures OpenOrCreate.
type Option func(*options)

// WithLogger sets the logger used for heal and facade diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the collector for statement and heal counters.
func WithMetrics(c *metrics.Collector) Option {
	return func(o *options) { o.metrics = c }
}

// WithBusyTimeout sets how long SQLite waits on a locked database.
func WithBusyTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.busyTimeout = d
		}
	}
}

// OpenOrCreate opens the store named id on backend and makes sure every
// relation of catalog exists.
//
// The same steps run whether the storage is brand new or was created by an
// older version: the live relation names are listed and each absent catalog
// relation is created with CREATE TABLE IF NOT EXISTS. Indexes are ensured
// on every open. Repeated calls never fail or duplicate.
//
// A failing creation statement aborts the open with a *SchemaError; the
// connection is closed and no partially usable Handle is returned.
func OpenOrCreate(ctx context.Context, backend Backend, id string, catalog Catalog, opts ...Option) (*Handle, error) {
	o := options{logger: zap.NewNop(), busyTimeout: defaultBusyTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	db, existed, err := backend.Open(ctx, id)
	if err != nil {
		return nil, err
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(ctx, db, o.busyTimeout); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	h := &Handle{
		id:      id,
		db:      db,
		catalog: catalog,
		logger:  o.logger.With(zap.String("store", id), zap.String("catalog", catalog.Name)),
		metrics: o.metrics,
		existed: existed,
	}

	if err := h.heal(ctx); err != nil {
		db.Close()
		return nil, err
	}

	h.logger.Debug("store ready",
		zap.Bool("existed", existed),
		zap.Strings("created", h.created),
	)
	return h, nil
}

// applyPragmas sets required SQLite configuration.
//
// foreign_keys stays OFF: references in the catalog are declarative only,
// deleting a customer neither cascades nor is blocked by its opportunities.
func applyPragmas(ctx context.Context, db *sqlx.DB, busyTimeout time.Duration) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", busyTimeout.Milliseconds()),
		"PRAGMA foreign_keys = OFF",
	}

	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// heal creates every catalog relation missing from the live store.
func (h *Handle) heal(ctx context.Context) error {
	live, err := h.liveRelations(ctx)
	if err != nil {
		return fmt.Errorf("list relations: %w", err)
	}

	for _, rel := range h.catalog.Relations {
		if !live[strings.ToLower(rel.Name)] {
			if _, err := h.db.ExecContext(ctx, rel.DDL()); err != nil {
				return &SchemaError{Relation: rel.Name, Err: err}
			}
			h.created = append(h.created, rel.Name)
			h.metrics.RelationCreated(rel.Name)
			if h.existed {
				h.logger.Info("relation missing, created", zap.String("relation", rel.Name))
			}
		}

		for i, stmt := range rel.IndexDDL() {
			if idx := rel.Indexes[i]; idx.Unique {
				if err := h.collapseDuplicates(ctx, rel, idx); err != nil {
					return &SchemaError{Relation: rel.Name, Err: err}
				}
			}
			if _, err := h.db.ExecContext(ctx, stmt); err != nil {
				return &SchemaError{Relation: rel.Name, Err: err}
			}
		}
	}

	// Stamp version after all relations are present
	if _, err := h.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", h.catalog.Version)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}

	return nil
}

// collapseDuplicates keeps only the newest row per key of a unique index
// that the store does not have yet. Stores written before the index existed
// may hold several rows per key, and the index cannot be created over them.
func (h *Handle) collapseDuplicates(ctx context.Context, rel Relation, idx Index) error {
	var present int
	if err := h.db.GetContext(ctx, &present,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = ?", idx.Name); err != nil {
		return fmt.Errorf("look up index %s: %w", idx.Name, err)
	}
	if present > 0 {
		return nil
	}

	res, err := h.db.ExecContext(ctx, rel.CollapseDDL(idx))
	if err != nil {
		return fmt.Errorf("collapse duplicates for %s: %w", idx.Name, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		h.logger.Warn("duplicate rows removed before unique index",
			zap.String("relation", rel.Name),
			zap.String("index", idx.Name),
			zap.Int64("removed", n),
		)
	}
	return nil
}

// liveRelations returns the lower-cased names of the tables in the store.
func (h *Handle) liveRelations(ctx context.Context) (map[string]bool, error) {
	var names []string
	if err := h.db.SelectContext(ctx, &names,
		"SELECT name FROM sqlite_master WHERE type = 'table'"); err != nil {
		return nil, err
	}

	live := make(map[string]bool, len(names))
	for _, n := range names {
		live[strings.ToLower(n)] = true
	}
	return live, nil
}

// Relations lists the catalog relations present in the live store,
// in catalog order.
func (h *Handle) Relations(ctx context.Context) ([]string, error) {
	live, err := h.liveRelations(ctx)
	if err != nil {
		return []string{}, newExecutionError("SELECT name FROM sqlite_master", err)
	}

	present := make([]string, 0, len(h.catalog.Relations))
	for _, name := range h.catalog.Names() {
		if live[strings.ToLower(name)] {
			present = append(present, name)
		}
	}
	return present, nil
}

// SchemaVersion returns the catalog version stamped in the store.
func (h *Handle) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := h.db.GetContext(ctx, &version, "PRAGMA user_version"); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// ID returns the storage identifier the handle was opened with.
func (h *Handle) ID() string {
	return h.id
}

// Existed reports whether storage was already present before this open.
func (h *Handle) Existed() bool {
	return h.existed
}

// Created lists the relations this open had to create.
func (h *Handle) Created() []string {
	return append([]string(nil), h.created...)
}

// Logger returns the handle's logger, scoped to the store identifier.
func (h *Handle) Logger() *zap.Logger {
	return h.logger
}

// Close closes the database connection.
func (h *Handle) Close() error {
	if h.db == nil {
		return nil
	}
	return h.db.Close()
}
