package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/datanexus/crmstore/internal/crm"
)

// Result counts what Apply did.
type Result struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

func (r *Result) count(err error) error {
	switch {
	case err == nil:
		r.Inserted++
	case errors.Is(err, crm.ErrDuplicateKey):
		r.Skipped++
	default:
		return err
	}
	return nil
}

// Apply inserts the fixture's records. Records whose identifier already
// exists are skipped, so a fixture can be applied repeatedly. Records
// without an identifier are matched on a natural key instead:
//
//   - products: supplier and name
//   - tasks: title and due date
//   - events: title, date and time
//   - faqs: question
//
// Any other failure stops the seed.
func Apply(ctx context.Context, a *crm.Accessors, fx *Fixture, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	var res Result

	for _, c := range fx.Customers {
		if err := res.count(a.Customers.Insert(ctx, c.record())); err != nil {
			return res, fmt.Errorf("seed customer %q: %w", c.ID, err)
		}
	}
	for _, o := range fx.Opportunities {
		if err := res.count(a.Opportunities.Insert(ctx, o.record())); err != nil {
			return res, fmt.Errorf("seed opportunity %q: %w", o.ID, err)
		}
	}
	for _, b := range fx.Budgets {
		if err := res.count(a.Budgets.Insert(ctx, b.record())); err != nil {
			return res, fmt.Errorf("seed budget %q: %w", b.ID, err)
		}
	}
	if err := applyProducts(ctx, a, fx.Products, &res); err != nil {
		return res, err
	}
	if err := applyTasks(ctx, a, fx.Tasks, &res); err != nil {
		return res, err
	}
	if err := applyEvents(ctx, a, fx.Events, &res); err != nil {
		return res, err
	}
	if err := applyFAQs(ctx, a, fx.FAQs, &res); err != nil {
		return res, err
	}

	logger.Info("fixture applied",
		zap.String("company", fx.Company),
		zap.Int("inserted", res.Inserted),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}

func applyProducts(ctx context.Context, a *crm.Accessors, products []Product, res *Result) error {
	if len(products) == 0 {
		return nil
	}
	existing, err := a.Products.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("seed products: %w", err)
	}
	known := make(map[[2]string]bool, len(existing))
	for _, p := range existing {
		known[[2]string{p.Supplier, p.Name}] = true
	}

	for _, p := range products {
		key := [2]string{p.Supplier, p.Name}
		if known[key] {
			res.Skipped++
			continue
		}
		if _, err := a.Products.Insert(ctx, p.record()); err != nil {
			return fmt.Errorf("seed product %q: %w", p.Name, err)
		}
		known[key] = true
		res.Inserted++
	}
	return nil
}

func applyTasks(ctx context.Context, a *crm.Accessors, tasks []Task, res *Result) error {
	if len(tasks) == 0 {
		return nil
	}
	existing, err := a.Tasks.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("seed tasks: %w", err)
	}
	known := make(map[[2]string]bool, len(existing))
	for _, t := range existing {
		known[[2]string{t.Title, t.DueOn}] = true
	}

	for _, t := range tasks {
		key := [2]string{t.Title, t.DueOn}
		if t.ID == "" && known[key] {
			res.Skipped++
			continue
		}
		_, err := a.Tasks.Insert(ctx, t.record())
		if err := res.count(err); err != nil {
			return fmt.Errorf("seed task %q: %w", t.Title, err)
		}
		known[key] = true
	}
	return nil
}

func applyEvents(ctx context.Context, a *crm.Accessors, events []Event, res *Result) error {
	if len(events) == 0 {
		return nil
	}
	existing, err := a.Events.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("seed events: %w", err)
	}
	known := make(map[[3]string]bool, len(existing))
	for _, e := range existing {
		known[[3]string{e.Title, e.Date, e.Time}] = true
	}

	for _, e := range events {
		key := [3]string{e.Title, e.Date, e.Time}
		if e.ID == "" && known[key] {
			res.Skipped++
			continue
		}
		_, err := a.Events.Insert(ctx, e.record())
		if err := res.count(err); err != nil {
			return fmt.Errorf("seed event %q: %w", e.Title, err)
		}
		known[key] = true
	}
	return nil
}

func applyFAQs(ctx context.Context, a *crm.Accessors, faqs []FAQ, res *Result) error {
	if len(faqs) == 0 {
		return nil
	}
	existing, err := a.FAQs.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("seed faqs: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, f := range existing {
		known[f.Question] = true
	}

	for _, f := range faqs {
		if f.ID == "" && known[f.Question] {
			res.Skipped++
			continue
		}
		_, err := a.FAQs.Insert(ctx, f.record())
		if err := res.count(err); err != nil {
			return fmt.Errorf("seed faq %q: %w", f.Question, err)
		}
		known[f.Question] = true
	}
	return nil
}
