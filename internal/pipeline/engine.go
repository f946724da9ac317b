package pipeline

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/datanexus/crmstore/internal/crm"
)

// OpportunityStore is the slice of the opportunity accessor the engine uses.
type OpportunityStore interface {
	PipelineRows(ctx context.Context) ([]crm.PipelineRow, error)
	UpdateStage(ctx context.Context, id, stage string) error
}

// CustomerDirectory resolves customer names for board cards.
type CustomerDirectory interface {
	Names(ctx context.Context) (map[string]string, error)
}

// Engine moves opportunities between stages and builds the board.
// It keeps no state between calls; every Board reads the store.
type Engine struct {
	opps      OpportunityStore
	directory CustomerDirectory
	logger    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithCustomerDirectory makes board cards carry customer names.
func WithCustomerDirectory(d CustomerDirectory) Option {
	return func(e *Engine) { e.directory = d }
}

// NewEngine creates an engine over opps.
func NewEngine(opps OpportunityStore, opts ...Option) *Engine {
	e := &Engine{opps: opps, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ForAccessors creates an engine over a tenant's accessors, with customer
// names on the cards.
func ForAccessors(a *crm.Accessors, opts ...Option) *Engine {
	return NewEngine(a.Opportunities, append([]Option{WithCustomerDirectory(a.Customers)}, opts...)...)
}

// MoveStage sets the stage of opportunity id to target. The sentinel is a
// silent no-op; a target outside the vocabulary fails with ErrUnknownStage
// and leaves the store untouched.
func (e *Engine) MoveStage(ctx context.Context, id, target string) error {
	if IsSentinel(target) {
		return nil
	}
	stage, err := ParseStage(target)
	if err != nil {
		return fmt.Errorf("move %q: %w", id, err)
	}
	if err := e.opps.UpdateStage(ctx, id, stage.Stored()); err != nil {
		return fmt.Errorf("move %q: %w", id, err)
	}
	e.logger.Debug("opportunity moved", zap.String("opportunity", id), zap.Stringer("stage", stage))
	return nil
}

// Card is one opportunity on the board.
type Card struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customer_id"`
	CustomerName    string          `json:"customer_name,omitempty"`
	ExpectedRevenue decimal.Decimal `json:"expected_revenue"`
	// StoredStage is the raw value in the store, kept for diagnostics.
	StoredStage string `json:"stored_stage"`
}

// Column holds the cards of one stage and their revenue total.
type Column struct {
	Stage Stage           `json:"stage"`
	Cards []Card          `json:"cards"`
	Total decimal.Decimal `json:"total"`
}

// Board is the pipeline grouped by stage, one column per stage in
// vocabulary order.
type Board struct {
	Columns []Column `json:"columns"`
}

func emptyBoard() Board {
	b := Board{Columns: make([]Column, 0, len(stored))}
	for _, s := range Stages() {
		b.Columns = append(b.Columns, Column{Stage: s, Cards: []Card{}, Total: decimal.Zero})
	}
	return b
}

// Column returns the column of stage s.
func (b Board) Column(s Stage) Column {
	for _, c := range b.Columns {
		if c.Stage == s {
			return c
		}
	}
	return Column{Stage: s, Cards: []Card{}}
}

// Total sums the expected revenue of every card.
func (b Board) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, c := range b.Columns {
		sum = sum.Add(c.Total)
	}
	return sum
}

// Board reads every opportunity and groups it by normalized stage. A failed
// read yields an empty board along with the error.
func (e *Engine) Board(ctx context.Context) (Board, error) {
	board := emptyBoard()

	rows, err := e.opps.PipelineRows(ctx)
	if err != nil {
		return board, fmt.Errorf("build board: %w", err)
	}

	var names map[string]string
	if e.directory != nil {
		names, err = e.directory.Names(ctx)
		if err != nil {
			e.logger.Warn("customer names unavailable", zap.Error(err))
			names = nil
		}
	}

	for _, row := range rows {
		stage := Normalize(row.Stage)
		card := Card{
			ID:              row.ID,
			CustomerID:      row.CustomerID,
			ExpectedRevenue: decimal.NewFromFloat(row.ExpectedRevenue),
			StoredStage:     row.Stage,
		}
		if names != nil {
			card.CustomerName = names[row.CustomerID]
			if card.CustomerName == "" {
				card.CustomerName = crm.UnknownCustomerName
			}
		}

		col := &board.Columns[stage]
		col.Cards = append(col.Cards, card)
		col.Total = col.Total.Add(card.ExpectedRevenue)
	}
	return board, nil
}
