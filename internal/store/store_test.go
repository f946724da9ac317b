package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/datanexus/crmstore/internal/metrics"
)

func TestOpenOrCreate_CreatesNewStore(t *testing.T) {
	backend := FileBackend{Dir: t.TempDir()}

	h, err := OpenOrCreate(context.Background(), backend, "Acme Corp.db", TenantCatalog())
	require.NoError(t, err)
	defer h.Close()

	_, err = os.Stat(backend.Path("Acme Corp.db"))
	assert.NoError(t, err, "database file was not created")
	assert.False(t, h.Existed())
	assert.Equal(t, TenantCatalog().Names(), h.Created())
	assert.Equal(t, "Acme Corp.db", h.ID())
}

func TestOpenOrCreate_Idempotent(t *testing.T) {
	ctx := context.Background()
	backend := FileBackend{Dir: t.TempDir()}

	// Open multiple times
	for i := 0; i < 3; i++ {
		h, err := OpenOrCreate(ctx, backend, "test.db", TenantCatalog())
		require.NoError(t, err, "iteration %d", i)
		if i > 0 {
			assert.True(t, h.Existed())
			assert.Empty(t, h.Created(), "second open must not recreate relations")
		}
		h.Close()
	}

	h, err := OpenOrCreate(ctx, backend, "test.db", TenantCatalog())
	require.NoError(t, err)
	defer h.Close()

	// Each relation exists exactly once
	for _, name := range TenantCatalog().Names() {
		var count int
		err := h.db.Get(&count,
			"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "relation %s", name)
	}
}

func TestOpenOrCreate_EveryRelationQueryable(t *testing.T) {
	h := createTestHandle(t)
	ctx := context.Background()

	for _, name := range TenantCatalog().Names() {
		rows, err := h.Query(ctx, "SELECT * FROM "+name)
		require.NoError(t, err, "relation %s", name)
		assert.Empty(t, rows, "relation %s", name)
	}
}

func TestOpenOrCreate_HealsLegacyStore(t *testing.T) {
	ctx := context.Background()
	backend := FileBackend{Dir: t.TempDir()}

	// A store from the first release: customers only, with one row.
	seedLegacyStore(t, backend, "legacy.db",
		`CREATE TABLE customers (
			customer_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			address TEXT NOT NULL,
			phone TEXT NOT NULL,
			contact_person TEXT NOT NULL,
			email TEXT NOT NULL
		)`,
		`INSERT INTO customers VALUES ('C1', 'Bob', 'Main St', '555', 'Bob', 'bob@example.com')`,
	)

	h, err := OpenOrCreate(ctx, backend, "legacy.db", TenantCatalog())
	require.NoError(t, err)
	defer h.Close()

	assert.True(t, h.Existed())
	assert.NotContains(t, h.Created(), RelCustomers)
	assert.Contains(t, h.Created(), RelFAQs)
	assert.Len(t, h.Created(), len(TenantCatalog().Relations)-1)

	// Existing data survives the heal
	rows, err := h.Query(ctx, "SELECT name FROM customers WHERE customer_id = ?", "C1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bob", rows[0].String("name"))

	// Relations added later are queryable
	for _, name := range []string{RelTasks, RelEvents, RelFAQs} {
		_, err := h.Query(ctx, "SELECT * FROM "+name)
		assert.NoError(t, err, "relation %s", name)
	}

	relations, err := h.Relations(ctx)
	require.NoError(t, err)
	assert.Equal(t, TenantCatalog().Names(), relations)
}

func TestOpenOrCreate_UppercaseLegacyRelationCountsAsPresent(t *testing.T) {
	ctx := context.Background()
	backend := FileBackend{Dir: t.TempDir()}
	seedLegacyStore(t, backend, "legacy.db",
		`CREATE TABLE FAQS (faq_id TEXT PRIMARY KEY, question TEXT NOT NULL, answer TEXT NOT NULL, category TEXT, updated_on TEXT)`)

	h, err := OpenOrCreate(ctx, backend, "legacy.db", TenantCatalog())
	require.NoError(t, err)
	defer h.Close()

	assert.NotContains(t, h.Created(), RelFAQs)
}

func TestOpenOrCreate_StampsSchemaVersion(t *testing.T) {
	h := createTestHandle(t)

	version, err := h.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TenantCatalog().Version, version)
}

func TestOpenOrCreate_SchemaError(t *testing.T) {
	backend := FileBackend{Dir: t.TempDir()}
	catalog := Catalog{
		Name:    "broken",
		Version: 1,
		Relations: []Relation{
			{Name: "fine", Columns: []Column{text("a")}},
			{Name: "broken", Columns: []Column{text("select")}},
		},
	}

	h, err := OpenOrCreate(context.Background(), backend, "broken.db", catalog)
	require.Error(t, err)
	assert.Nil(t, h)

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, "broken", schemaErr.Relation)
	assert.NotNil(t, schemaErr.Unwrap())
	assert.Contains(t, err.Error(), `create relation "broken"`)
}

func TestOpenOrCreate_CollapsesDuplicateProfiles(t *testing.T) {
	ctx := context.Background()
	backend := FileBackend{Dir: t.TempDir()}

	// Older releases allowed two profile rows for one company.
	seedLegacyStore(t, backend, "dup.db",
		`CREATE TABLE profile (id INTEGER PRIMARY KEY AUTOINCREMENT, company_name TEXT NOT NULL,
			user_name TEXT, mail TEXT, secret TEXT, photo_path TEXT, description TEXT)`,
		`INSERT INTO profile (company_name, user_name) VALUES ('Acme', 'old')`,
		`INSERT INTO profile (company_name, user_name) VALUES ('Acme', 'new')`,
		`INSERT INTO profile (company_name, user_name) VALUES ('Globex', 'only')`,
	)

	core, logs := observer.New(zap.WarnLevel)
	h, err := OpenOrCreate(ctx, backend, "dup.db", TenantCatalog(), WithLogger(zap.New(core)))
	require.NoError(t, err)
	defer h.Close()

	rows, err := h.Query(ctx, "SELECT company_name, user_name FROM profile ORDER BY company_name")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Acme", rows[0].String("company_name"))
	assert.Equal(t, "new", rows[0].String("user_name"))
	assert.Equal(t, "only", rows[1].String("user_name"))

	entries := logs.FilterMessage("duplicate rows removed before unique index").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(1), entries[0].ContextMap()["removed"])

	// The unique index is in place now, so a second row for Acme is refused.
	_, err = h.Execute(ctx, "INSERT INTO profile (company_name) VALUES ('Acme')")
	assert.Error(t, err)

	// Reopening does not touch the remaining rows.
	require.NoError(t, h.Close())
	reopened, err := OpenOrCreate(ctx, backend, "dup.db", TenantCatalog())
	require.NoError(t, err)
	defer reopened.Close()
	rows, err = reopened.Query(ctx, "SELECT user_name FROM profile")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestOpenOrCreate_InvalidPath(t *testing.T) {
	backend := FileBackend{Dir: "/nonexistent/dir"}

	_, err := OpenOrCreate(context.Background(), backend, "test.db", TenantCatalog())
	assert.Error(t, err)
}

func TestOpenOrCreate_InvalidIdentifier(t *testing.T) {
	backend := FileBackend{Dir: t.TempDir()}

	for _, id := range []string{"", "  ", "../escape.db", `a\b.db`, ".."} {
		_, err := OpenOrCreate(context.Background(), backend, id, TenantCatalog())
		assert.ErrorIs(t, err, ErrInvalidIdentifier, "id %q", id)
	}
}

func TestOpenOrCreate_LogsHealedRelations(t *testing.T) {
	ctx := context.Background()
	backend := FileBackend{Dir: t.TempDir()}
	seedLegacyStore(t, backend, "legacy.db", `CREATE TABLE customers (customer_id TEXT PRIMARY KEY)`)

	core, logs := observer.New(zap.InfoLevel)
	h, err := OpenOrCreate(ctx, backend, "legacy.db", TenantCatalog(), WithLogger(zap.New(core)))
	require.NoError(t, err)
	defer h.Close()

	entries := logs.FilterMessage("relation missing, created").All()
	assert.Len(t, entries, len(TenantCatalog().Relations)-1)
}

func TestOpenOrCreate_CountsCreatedRelations(t *testing.T) {
	c, err := metrics.NewCollector(prometheus.NewRegistry())
	require.NoError(t, err)

	backend := FileBackend{Dir: t.TempDir()}
	for i := 0; i < 2; i++ {
		h, err := OpenOrCreate(context.Background(), backend, "m.db", TenantCatalog(), WithMetrics(c))
		require.NoError(t, err)
		h.Close()
	}

	assert.Equal(t, 1.0, testutil.ToFloat64(c.RelationsCreated.WithLabelValues(RelCustomers)))
}

func TestClose_NilDB(t *testing.T) {
	h := &Handle{db: nil}
	assert.NoError(t, h.Close())
}

func TestClose_MultipleCalls(t *testing.T) {
	backend := FileBackend{Dir: t.TempDir()}
	h, err := OpenOrCreate(context.Background(), backend, "test.db", TenantCatalog())
	require.NoError(t, err)

	assert.NoError(t, h.Close())

	// Second close should not panic (though may error)
	_ = h.Close()
}

// Pragma tests

func TestPragma_JournalMode(t *testing.T) {
	h := createTestHandle(t)
	assert.Equal(t, "wal", pragmaValue(t, h, "journal_mode"))
}

func TestPragma_Synchronous(t *testing.T) {
	h := createTestHandle(t)
	// NORMAL = 1
	assert.Equal(t, "1", pragmaValue(t, h, "synchronous"))
}

func TestPragma_BusyTimeout(t *testing.T) {
	h := createTestHandle(t)
	assert.Equal(t, "5000", pragmaValue(t, h, "busy_timeout"))
}

func TestPragma_CustomBusyTimeout(t *testing.T) {
	backend := FileBackend{Dir: t.TempDir()}
	h, err := OpenOrCreate(context.Background(), backend, "test.db", TenantCatalog(),
		WithBusyTimeout(250*time.Millisecond))
	require.NoError(t, err)
	defer h.Close()

	assert.Equal(t, "250", pragmaValue(t, h, "busy_timeout"))
}

func TestPragma_ForeignKeysOff(t *testing.T) {
	h := createTestHandle(t)
	assert.Equal(t, "0", pragmaValue(t, h, "foreign_keys"))
}
