package crm

import (
	"context"
	"fmt"

	"github.com/datanexus/crmstore/internal/store"
)

// Budget is a row of the budgets relation. ExpiresOn may not precede CreatedOn.
type Budget struct {
	ID         string  `db:"budget_id" validate:"required"`
	Name       string  `db:"name" validate:"required"`
	CustomerID string  `db:"customer_id" validate:"required"`
	CreatedOn  string  `db:"created_on" validate:"required,datetime=2006-01-02"`
	ExpiresOn  string  `db:"expires_on" validate:"required,datetime=2006-01-02"`
	Subtotal   float64 `db:"subtotal" validate:"gte=0"`
	Total      float64 `db:"total" validate:"gte=0"`
}

// Budgets reads and writes budgets.
type Budgets struct {
	h *store.Handle
}

const budgetColumns = `budget_id, name, customer_id, created_on, expires_on, subtotal, total`

// Insert adds a budget. An existing ID yields ErrDuplicateKey.
func (r *Budgets) Insert(ctx context.Context, b Budget) error {
	if err := validateRecord(b); err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	_, found, err := r.GetByID(ctx, b.ID)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	if found {
		return fmt.Errorf("insert budget %q: %w", b.ID, ErrDuplicateKey)
	}

	_, err = r.h.Execute(ctx,
		`INSERT INTO budgets (`+budgetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Name, b.CustomerID, b.CreatedOn, b.ExpiresOn, b.Subtotal, b.Total)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

// GetAll returns every budget in insertion order.
func (r *Budgets) GetAll(ctx context.Context) ([]Budget, error) {
	var out []Budget
	if err := r.h.Select(ctx, &out, `SELECT `+budgetColumns+` FROM budgets ORDER BY rowid`); err != nil {
		return []Budget{}, err
	}
	return emptyIfNil(out), nil
}

// GetByID returns the budget with id; found is false when absent.
func (r *Budgets) GetByID(ctx context.Context, id string) (Budget, bool, error) {
	var b Budget
	found, err := r.h.Get(ctx, &b, `SELECT `+budgetColumns+` FROM budgets WHERE budget_id = ?`, id)
	return b, found, err
}

// ByCustomer returns the budgets issued to one customer.
func (r *Budgets) ByCustomer(ctx context.Context, customerID string) ([]Budget, error) {
	var out []Budget
	err := r.h.Select(ctx, &out,
		`SELECT `+budgetColumns+` FROM budgets WHERE customer_id = ? ORDER BY rowid`, customerID)
	if err != nil {
		return []Budget{}, err
	}
	return emptyIfNil(out), nil
}

// ByExpiration returns the budgets expiring on date (YYYY-MM-DD).
func (r *Budgets) ByExpiration(ctx context.Context, date string) ([]Budget, error) {
	var out []Budget
	err := r.h.Select(ctx, &out,
		`SELECT `+budgetColumns+` FROM budgets WHERE expires_on = ? ORDER BY rowid`, date)
	if err != nil {
		return []Budget{}, err
	}
	return emptyIfNil(out), nil
}

// Update overwrites the budget's fields. Missing ids are not an error.
func (r *Budgets) Update(ctx context.Context, b Budget) error {
	if err := validateRecord(b); err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	_, err := r.h.Execute(ctx,
		`UPDATE budgets SET name = ?, customer_id = ?, created_on = ?, expires_on = ?,
		subtotal = ?, total = ? WHERE budget_id = ?`,
		b.Name, b.CustomerID, b.CreatedOn, b.ExpiresOn, b.Subtotal, b.Total, b.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return nil
}

// Delete removes the budget.
func (r *Budgets) Delete(ctx context.Context, id string) error {
	if _, err := r.h.Execute(ctx, `DELETE FROM budgets WHERE budget_id = ?`, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}
