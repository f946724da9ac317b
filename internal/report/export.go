// Package report moves tenant data in and out of spreadsheet workbooks.
package report

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/datanexus/crmstore/internal/crm"
	"github.com/datanexus/crmstore/internal/pipeline"
)

// Sheet names of an exported workbook, in order.
const (
	SheetCustomers     = "Customers"
	SheetOpportunities = "Opportunities"
	SheetBudgets       = "Budgets"
	SheetProducts      = "Products"
	SheetPipeline      = "Pipeline"
)

// Exporter writes a tenant's records into a workbook.
type Exporter struct {
	crm    *crm.Accessors
	logger *zap.Logger
}

// NewExporter creates an exporter over a tenant's accessors.
func NewExporter(a *crm.Accessors, logger *zap.Logger) *Exporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{crm: a, logger: logger}
}

type sheet struct {
	name   string
	header []any
	rows   func(ctx context.Context) ([][]any, error)
}

func (e *Exporter) sheets() []sheet {
	return []sheet{
		{SheetCustomers, []any{"ID", "Name", "Address", "Phone", "Contact", "Email"}, e.customerRows},
		{SheetOpportunities, []any{"ID", "Name", "Customer", "Date", "Budget", "Expected revenue", "Stage"}, e.opportunityRows},
		{SheetBudgets, []any{"ID", "Name", "Customer", "Created", "Expires", "Subtotal", "Total"}, e.budgetRows},
		{SheetProducts, []any{"ID", "Supplier", "Name", "Description", "Tax rate", "Price", "Stock"}, e.productRows},
		{SheetPipeline, []any{"Stage", "Opportunity", "Customer", "Expected revenue"}, e.pipelineRows},
	}
}

// Export writes the workbook to w. A sheet whose read fails aborts the
// export; nothing is written in that case.
func (e *Exporter) Export(ctx context.Context, w io.Writer) error {
	f, err := e.build(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ExportFile writes the workbook to path.
func (e *Exporter) ExportFile(ctx context.Context, path string) error {
	f, err := e.build(ctx)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func (e *Exporter) build(ctx context.Context) (*excelize.File, error) {
	f := excelize.NewFile()
	first := f.GetSheetName(0)

	for i, s := range e.sheets() {
		if i == 0 {
			if err := f.SetSheetName(first, s.name); err != nil {
				f.Close()
				return nil, fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", s.name, err)
		}

		rows, err := s.rows(ctx)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("export %s: %w", s.name, err)
		}
		if err := writeRows(f, s.name, s.header, rows); err != nil {
			f.Close()
			return nil, err
		}
		e.logger.Debug("sheet exported", zap.String("sheet", s.name), zap.Int("rows", len(rows)))
	}
	return f, nil
}

func writeRows(f *excelize.File, name string, header []any, rows [][]any) error {
	all := append([][]any{header}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", name, i+1, err)
		}
	}
	return nil
}

func (e *Exporter) customerRows(ctx context.Context) ([][]any, error) {
	customers, err := e.crm.Customers.GetAll(ctx)
	rows := make([][]any, 0, len(customers))
	for _, c := range customers {
		rows = append(rows, []any{c.ID, c.Name, c.Address, c.Phone, c.ContactPerson, c.Email})
	}
	return rows, err
}

func (e *Exporter) opportunityRows(ctx context.Context) ([][]any, error) {
	opps, err := e.crm.Opportunities.GetAll(ctx)
	rows := make([][]any, 0, len(opps))
	for _, o := range opps {
		rows = append(rows, []any{o.ID, o.Name, o.CustomerID, o.Date, o.BudgetID, o.ExpectedRevenue, o.Stage})
	}
	return rows, err
}

func (e *Exporter) budgetRows(ctx context.Context) ([][]any, error) {
	budgets, err := e.crm.Budgets.GetAll(ctx)
	rows := make([][]any, 0, len(budgets))
	for _, b := range budgets {
		rows = append(rows, []any{b.ID, b.Name, b.CustomerID, b.CreatedOn, b.ExpiresOn, b.Subtotal, b.Total})
	}
	return rows, err
}

func (e *Exporter) productRows(ctx context.Context) ([][]any, error) {
	products, err := e.crm.Products.GetAll(ctx)
	rows := make([][]any, 0, len(products))
	for _, p := range products {
		rows = append(rows, []any{p.ID, p.Supplier, p.Name, p.Description, p.TaxRate, p.Price, p.Stock})
	}
	return rows, err
}

func (e *Exporter) pipelineRows(ctx context.Context) ([][]any, error) {
	board, err := pipeline.ForAccessors(e.crm, pipeline.WithLogger(e.logger)).Board(ctx)
	if err != nil {
		return nil, err
	}

	var rows [][]any
	for _, col := range board.Columns {
		for _, card := range col.Cards {
			rows = append(rows, []any{col.Stage.String(), card.ID, card.CustomerName, card.ExpectedRevenue.InexactFloat64()})
		}
		rows = append(rows, []any{col.Stage.String() + " total", "", "", col.Total.InexactFloat64()})
	}
	return rows, nil
}
