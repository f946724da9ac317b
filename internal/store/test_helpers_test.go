package store

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
)

// createTestHandle opens a tenant store in a fresh temporary directory.
func createTestHandle(t *testing.T) *Handle {
	t.Helper()
	backend := FileBackend{Dir: t.TempDir()}
	h, err := OpenOrCreate(context.Background(), backend, "test.db", TenantCatalog())
	if err != nil {
		t.Fatalf("OpenOrCreate() failed: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

// seedLegacyStore writes raw statements into a store file without going
// through the Guardian, the way an older release would have left it.
func seedLegacyStore(t *testing.T, backend FileBackend, id string, stmts ...string) {
	t.Helper()
	db, err := sqlx.Open(driverName, backend.Path(id))
	if err != nil {
		t.Fatalf("open legacy store: %v", err)
	}
	defer db.Close()
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed legacy store %q: %v", stmt, err)
		}
	}
}

// pragmaValue reads a pragma as text.
func pragmaValue(t *testing.T, h *Handle, name string) string {
	t.Helper()
	var value string
	if err := h.db.Get(&value, "PRAGMA "+name); err != nil {
		t.Fatalf("failed to query %s: %v", name, err)
	}
	return value
}
