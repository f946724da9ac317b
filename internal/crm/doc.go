// Package crm provides typed accessors for the entities of a TenantStore:
// credentials, customers, opportunities, budgets, products, profile,
// tasks, events and FAQs.
//
// Every accessor is built on the store Query Facade and follows the same
// contracts:
//
//   - Insert pre-checks the primary identifier with GetByID and returns
//     ErrDuplicateKey instead of relying on a uniqueness violation.
//   - GetByID returns found=false for a missing identifier, never an error.
//   - Update and Delete on a missing identifier affect zero rows and succeed.
//   - GetAll and the lookups return an empty slice, not nil, even when the
//     read fails; the accompanying error tells the two cases apart.
//
// Records are validated before they are written; failures wrap
// ErrInvalidRecord.
package crm
