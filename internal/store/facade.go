package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/datanexus/crmstore/internal/metrics"
)

// Row is one result row keyed by column name.
type Row map[string]any

// String returns the column as text. NULL and missing columns read as "".
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

// Float64 returns the column as a float. Non-numeric values read as 0.
func (r Row) Float64(col string) float64 {
	switch v := r[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return 0
}

// Int64 returns the column as an integer. Non-numeric values read as 0.
func (r Row) Int64(col string) int64 {
	switch v := r[col].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	}
	return 0
}

// Execute runs a mutating statement with positional parameters.
//
// On failure it returns an *ExecutionError and does not retry; the caller
// decides whether to surface it. The failure is also logged and counted.
func (h *Handle) Execute(ctx context.Context, stmt string, args ...any) (sql.Result, error) {
	res, err := h.db.ExecContext(ctx, stmt, args...)
	h.metrics.ObserveStatement(metrics.KindExecute, err)
	if err != nil {
		execErr := newExecutionError(stmt, err)
		h.logger.Error("statement failed", zap.String("statement", execErr.Statement), zap.Error(err))
		return nil, execErr
	}
	return res, nil
}

// Query runs a read statement with positional parameters.
//
// A failed read degrades to an empty (non-nil) slice plus an
// *ExecutionError, so callers that only look at the rows see "no results".
func (h *Handle) Query(ctx context.Context, stmt string, args ...any) ([]Row, error) {
	rows, err := h.queryRows(ctx, stmt, args...)
	h.metrics.ObserveStatement(metrics.KindQuery, err)
	if err != nil {
		execErr := newExecutionError(stmt, err)
		h.logger.Error("query failed", zap.String("statement", execErr.Statement), zap.Error(err))
		return []Row{}, execErr
	}
	return rows, nil
}

func (h *Handle) queryRows(ctx context.Context, stmt string, args ...any) ([]Row, error) {
	rows, err := h.db.QueryxContext(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []Row{}
	for rows.Next() {
		m := make(map[string]any)
		if err := rows.MapScan(m); err != nil {
			return nil, err
		}
		for k, v := range m {
			if b, ok := v.([]byte); ok {
				m[k] = string(b)
			}
		}
		result = append(result, Row(m))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Get scans a single row into dest, a pointer to a struct with db tags.
// A statement that matches no row returns found=false and a nil error.
func (h *Handle) Get(ctx context.Context, dest any, stmt string, args ...any) (found bool, err error) {
	err = h.db.GetContext(ctx, dest, stmt, args...)
	if errors.Is(err, sql.ErrNoRows) {
		h.metrics.ObserveStatement(metrics.KindQuery, nil)
		return false, nil
	}
	h.metrics.ObserveStatement(metrics.KindQuery, err)
	if err != nil {
		execErr := newExecutionError(stmt, err)
		h.logger.Error("query failed", zap.String("statement", execErr.Statement), zap.Error(err))
		return false, execErr
	}
	return true, nil
}

// Select scans all rows into dest, a pointer to a slice of structs.
// On failure an *ExecutionError is returned and dest must be treated as empty.
func (h *Handle) Select(ctx context.Context, dest any, stmt string, args ...any) error {
	err := h.db.SelectContext(ctx, dest, stmt, args...)
	h.metrics.ObserveStatement(metrics.KindQuery, err)
	if err != nil {
		execErr := newExecutionError(stmt, err)
		h.logger.Error("query failed", zap.String("statement", execErr.Statement), zap.Error(err))
		return execErr
	}
	return nil
}
