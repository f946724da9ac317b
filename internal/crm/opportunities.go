package crm

import (
	"context"
	"fmt"

	"github.com/datanexus/crmstore/internal/store"
)

// Opportunity is a row of the opportunities relation. Stage is stored as
// written; normalization happens when the pipeline reads it.
type Opportunity struct {
	ID              string  `db:"opportunity_id" validate:"required"`
	Name            string  `db:"name" validate:"required"`
	CustomerID      string  `db:"customer_id" validate:"required"`
	Date            string  `db:"date" validate:"required,datetime=2006-01-02"`
	BudgetID        string  `db:"budget_id"`
	ExpectedRevenue float64 `db:"expected_revenue" validate:"gte=0"`
	Stage           string  `db:"stage" validate:"required"`
}

// PipelineRow is the projection the pipeline board is built from.
type PipelineRow struct {
	ID              string  `db:"opportunity_id"`
	CustomerID      string  `db:"customer_id"`
	ExpectedRevenue float64 `db:"expected_revenue"`
	Stage           string  `db:"stage"`
}

// Opportunities reads and writes sales opportunities.
type Opportunities struct {
	h *store.Handle
}

const opportunityColumns = `opportunity_id, name, customer_id, date, budget_id, expected_revenue, stage`

// Insert adds an opportunity. An existing ID yields ErrDuplicateKey.
func (r *Opportunities) Insert(ctx context.Context, o Opportunity) error {
	if err := validateRecord(o); err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}
	_, found, err := r.GetByID(ctx, o.ID)
	if err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}
	if found {
		return fmt.Errorf("insert opportunity %q: %w", o.ID, ErrDuplicateKey)
	}

	_, err = r.h.Execute(ctx,
		`INSERT INTO opportunities (`+opportunityColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Name, o.CustomerID, o.Date, o.BudgetID, o.ExpectedRevenue, o.Stage)
	if err != nil {
		return fmt.Errorf("insert opportunity: %w", err)
	}
	return nil
}

// GetAll returns every opportunity in insertion order.
func (r *Opportunities) GetAll(ctx context.Context) ([]Opportunity, error) {
	var out []Opportunity
	if err := r.h.Select(ctx, &out, `SELECT `+opportunityColumns+` FROM opportunities ORDER BY rowid`); err != nil {
		return []Opportunity{}, err
	}
	return emptyIfNil(out), nil
}

// GetByID returns the opportunity with id; found is false when absent.
func (r *Opportunities) GetByID(ctx context.Context, id string) (Opportunity, bool, error) {
	var o Opportunity
	found, err := r.h.Get(ctx, &o, `SELECT `+opportunityColumns+` FROM opportunities WHERE opportunity_id = ?`, id)
	return o, found, err
}

// ByCustomer returns the opportunities of one customer.
func (r *Opportunities) ByCustomer(ctx context.Context, customerID string) ([]Opportunity, error) {
	var out []Opportunity
	err := r.h.Select(ctx, &out,
		`SELECT `+opportunityColumns+` FROM opportunities WHERE customer_id = ? ORDER BY rowid`, customerID)
	if err != nil {
		return []Opportunity{}, err
	}
	return emptyIfNil(out), nil
}

// Update overwrites the opportunity's fields. Missing ids are not an error.
func (r *Opportunities) Update(ctx context.Context, o Opportunity) error {
	if err := validateRecord(o); err != nil {
		return fmt.Errorf("update opportunity: %w", err)
	}
	_, err := r.h.Execute(ctx,
		`UPDATE opportunities SET name = ?, customer_id = ?, date = ?, budget_id = ?,
		expected_revenue = ?, stage = ? WHERE opportunity_id = ?`,
		o.Name, o.CustomerID, o.Date, o.BudgetID, o.ExpectedRevenue, o.Stage, o.ID)
	if err != nil {
		return fmt.Errorf("update opportunity: %w", err)
	}
	return nil
}

// UpdateStage sets only the stage column.
func (r *Opportunities) UpdateStage(ctx context.Context, id, stage string) error {
	if _, err := r.h.Execute(ctx, `UPDATE opportunities SET stage = ? WHERE opportunity_id = ?`, stage, id); err != nil {
		return fmt.Errorf("update opportunity stage: %w", err)
	}
	return nil
}

// Delete removes the opportunity.
func (r *Opportunities) Delete(ctx context.Context, id string) error {
	if _, err := r.h.Execute(ctx, `DELETE FROM opportunities WHERE opportunity_id = ?`, id); err != nil {
		return fmt.Errorf("delete opportunity: %w", err)
	}
	return nil
}

// PipelineRows returns the id, customer, revenue and raw stage of every
// opportunity.
func (r *Opportunities) PipelineRows(ctx context.Context) ([]PipelineRow, error) {
	var out []PipelineRow
	err := r.h.Select(ctx, &out,
		`SELECT opportunity_id, customer_id, expected_revenue, stage FROM opportunities ORDER BY rowid`)
	if err != nil {
		return []PipelineRow{}, err
	}
	return emptyIfNil(out), nil
}
