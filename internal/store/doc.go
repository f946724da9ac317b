// Package store provides SQLite-backed storage for tenant CRM data.
//
// It has two halves:
//
//   - The Schema Guardian (OpenOrCreate) opens a store through a Backend and
//     creates every relation of a Catalog that is missing, whether the store
//     is brand new or was written by an older version. Creating a relation
//     that already exists is a no-op.
//   - The Query Facade (Handle.Execute, Handle.Query, Handle.Get,
//     Handle.Select) runs parameterised statements. Caller values are only
//     ever bound as parameters, never interpolated into SQL text.
//
// # Backends
//
// FileBackend keeps one SQLite file per storage identifier in a directory.
// MemoryBackend keeps named shared-cache in-memory databases and is used by
// tests and tooling.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout: Wait for locks (5 seconds unless WithBusyTimeout)
//   - foreign_keys=OFF: References are declarative only
//   - One open connection per Handle: statements through a Handle serialise
//
// # Errors
//
// Relation creation failures surface as *SchemaError and abort the open.
// Statement failures surface as *ExecutionError; reads additionally degrade
// to an empty result.
package store
