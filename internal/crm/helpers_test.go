package crm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/datanexus/crmstore/internal/store"
	"github.com/datanexus/crmstore/internal/testutil"
)

// newTestAccessors opens a fresh in-memory tenant store with a clock frozen
// on 2024-03-15 and sequential identifiers.
func newTestAccessors(t *testing.T) (*Accessors, *store.Handle) {
	t.Helper()
	backend := store.NewMemoryBackend()
	h, err := store.OpenOrCreate(context.Background(), backend, "Acme Corp.db", store.TenantCatalog())
	require.NoError(t, err)
	t.Cleanup(func() {
		h.Close()
		backend.Close()
	})

	a := New(h,
		WithClock(testutil.NewFixedClockOn(2024, 3, 15)),
		WithIDGenerator(testutil.NewSequenceIDs("r").Next),
		WithSecretCost(bcrypt.MinCost),
	)
	return a, h
}

func acmeCustomer() Customer {
	return Customer{
		ID:            "C1",
		Name:          "Bob",
		Address:       "Main St 1",
		Phone:         "555-0100",
		ContactPerson: "Bob Smith",
		Email:         "bob@example.com",
	}
}

func acmeOpportunity() Opportunity {
	return Opportunity{
		ID:              "O1",
		Name:            "Website",
		CustomerID:      "C1",
		Date:            "2024-03-01",
		BudgetID:        "B1",
		ExpectedRevenue: 1000,
		Stage:           "NUEVO",
	}
}
