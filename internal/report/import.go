package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/datanexus/crmstore/internal/crm"
)

// ProductInserter stores one product and returns its identifier.
type ProductInserter interface {
	Insert(ctx context.Context, p crm.Product) (int64, error)
}

// RowError explains why a spreadsheet row was skipped.
type RowError struct {
	Row int // 1-based, as shown by spreadsheet programs
	Err error
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// ImportResult summarizes a product import.
type ImportResult struct {
	Imported int        `json:"imported"`
	Skipped  int        `json:"skipped"`
	Errors   []RowError `json:"-"`
}

// Product columns of the first sheet, after the header row.
const (
	colSupplier = iota
	colName
	colDescription
	colTaxRate
	colPrice
	colStock
)

// ImportProducts reads products from the first sheet of the workbook in r.
// The first row is a header. Rows that cannot be parsed or fail validation
// are skipped and reported; any other store failure aborts the import.
func ImportProducts(ctx context.Context, dst ProductInserter, r io.Reader, logger *zap.Logger) (ImportResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	result := ImportResult{Errors: []RowError{}}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return result, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return result, errors.New("no sheets found in workbook")
	}
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return result, fmt.Errorf("failed to read rows: %w", err)
	}

	for i, row := range rows {
		if i == 0 || blank(row) {
			continue
		}

		p, err := parseProduct(row)
		if err == nil {
			_, err = dst.Insert(ctx, p)
			if err != nil && !errors.Is(err, crm.ErrInvalidRecord) {
				return result, fmt.Errorf("import row %d: %w", i+1, err)
			}
		}
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, RowError{Row: i + 1, Err: err})
			logger.Warn("product row skipped", zap.Int("row", i+1), zap.Error(err))
			continue
		}
		result.Imported++
	}

	logger.Info("products imported",
		zap.String("sheet", sheetName),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func parseProduct(row []string) (crm.Product, error) {
	p := crm.Product{
		Supplier:    cell(row, colSupplier),
		Name:        cell(row, colName),
		Description: cell(row, colDescription),
	}

	var err error
	if p.TaxRate, err = strconv.ParseInt(cell(row, colTaxRate), 10, 64); err != nil {
		return p, fmt.Errorf("tax rate: %w", err)
	}
	if p.Price, err = strconv.ParseFloat(cell(row, colPrice), 64); err != nil {
		return p, fmt.Errorf("price: %w", err)
	}
	if p.Stock, err = strconv.ParseInt(cell(row, colStock), 10, 64); err != nil {
		return p, fmt.Errorf("stock: %w", err)
	}
	return p, nil
}

// cell returns the trimmed value at i; GetRows drops trailing empty cells.
func cell(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
