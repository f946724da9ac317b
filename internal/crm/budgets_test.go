package crm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func budget(id, created, expires string) Budget {
	return Budget{
		ID:         id,
		Name:       "Website rebuild",
		CustomerID: "C1",
		CreatedOn:  created,
		ExpiresOn:  expires,
		Subtotal:   1000,
		Total:      1210,
	}
}

func TestBudgets_RoundTrip(t *testing.T) {
	a, _ := newTestAccessors(t)
	ctx := context.Background()

	b := budget("B1", "2024-03-01", "2024-03-31")
	require.NoError(t, a.Budgets.Insert(ctx, b))

	got, found, err := a.Budgets.GetByID(ctx, "B1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, b, got)

	assert.ErrorIs(t, a.Budgets.Insert(ctx, b), ErrDuplicateKey)
}

func TestBudgets_ExpirationBeforeCreation(t *testing.T) {
	a, _ := newTestAccessors(t)

	err := a.Budgets.Insert(context.Background(), budget("B1", "2024-03-01", "2024-02-28"))
	assert.ErrorIs(t, err, ErrInvalidRecord)
	assert.Contains(t, err.Error(), "ExpiresOn")
}

func TestBudgets_SameDayExpirationAllowed(t *testing.T) {
	a, _ := newTestAccessors(t)

	assert.NoError(t, a.Budgets.Insert(context.Background(), budget("B1", "2024-03-01", "2024-03-01")))
}

func TestBudgets_Lookups(t *testing.T) {
	a, _ := newTestAccessors(t)
	ctx := context.Background()

	b2 := budget("B2", "2024-03-01", "2024-04-01")
	b2.CustomerID = "C2"
	require.NoError(t, a.Budgets.Insert(ctx, budget("B1", "2024-03-01", "2024-03-31")))
	require.NoError(t, a.Budgets.Insert(ctx, b2))

	expiring, err := a.Budgets.ByExpiration(ctx, "2024-03-31")
	require.NoError(t, err)
	require.Len(t, expiring, 1)
	assert.Equal(t, "B1", expiring[0].ID)

	none, err := a.Budgets.ByExpiration(ctx, "2030-01-01")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	forC2, err := a.Budgets.ByCustomer(ctx, "C2")
	require.NoError(t, err)
	require.Len(t, forC2, 1)
	assert.Equal(t, "B2", forC2[0].ID)
}

func TestBudgets_UpdateAndDelete(t *testing.T) {
	a, _ := newTestAccessors(t)
	ctx := context.Background()
	require.NoError(t, a.Budgets.Insert(ctx, budget("B1", "2024-03-01", "2024-03-31")))

	b := budget("B1", "2024-03-01", "2024-04-30")
	b.Total = 1500
	require.NoError(t, a.Budgets.Update(ctx, b))

	got, _, err := a.Budgets.GetByID(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, "2024-04-30", got.ExpiresOn)
	assert.Equal(t, 1500.0, got.Total)

	require.NoError(t, a.Budgets.Delete(ctx, "B1"))
	all, err := a.Budgets.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
