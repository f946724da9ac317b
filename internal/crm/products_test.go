package crm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func widget() Product {
	return Product{
		Supplier:    "Globex",
		Name:        "Widget",
		Description: "Blue widget",
		TaxRate:     21,
		Price:       9.99,
		Stock:       40,
	}
}

func TestProducts_InsertAssignsIDs(t *testing.T) {
	a, _ := newTestAccessors(t)
	ctx := context.Background()

	first, err := a.Products.Insert(ctx, widget())
	require.NoError(t, err)
	second, err := a.Products.Insert(ctx, widget())
	require.NoError(t, err)

	assert.Equal(t, int64(1), first)
	assert.Equal(t, int64(2), second)

	got, found, err := a.Products.GetByID(ctx, second)
	require.NoError(t, err)
	require.True(t, found)
	want := widget()
	want.ID = second
	assert.Equal(t, want, got)
}

func TestProducts_Validation(t *testing.T) {
	a, _ := newTestAccessors(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*Product)
	}{
		{"tax above 100", func(p *Product) { p.TaxRate = 101 }},
		{"negative tax", func(p *Product) { p.TaxRate = -1 }},
		{"negative price", func(p *Product) { p.Price = -0.01 }},
		{"negative stock", func(p *Product) { p.Stock = -3 }},
		{"missing name", func(p *Product) { p.Name = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := widget()
			tt.mutate(&p)
			_, err := a.Products.Insert(ctx, p)
			assert.ErrorIs(t, err, ErrInvalidRecord)
		})
	}
}

func TestProducts_UpdateAndDelete(t *testing.T) {
	a, _ := newTestAccessors(t)
	ctx := context.Background()
	id, err := a.Products.Insert(ctx, widget())
	require.NoError(t, err)

	p := widget()
	p.ID = id
	p.Stock = 0
	require.NoError(t, a.Products.Update(ctx, p))

	got, _, err := a.Products.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(0), got.Stock)

	require.NoError(t, a.Products.Delete(ctx, id))
	all, err := a.Products.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
