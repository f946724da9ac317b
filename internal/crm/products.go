package crm

import (
	"context"
	"fmt"

	"github.com/datanexus/crmstore/internal/store"
)

// Product is a row of the products relation. ID is assigned by the store.
type Product struct {
	ID          int64   `db:"id"`
	Supplier    string  `db:"supplier" validate:"required"`
	Name        string  `db:"name" validate:"required"`
	Description string  `db:"description"`
	TaxRate     int64   `db:"tax_rate" validate:"gte=0,lte=100"`
	Price       float64 `db:"price" validate:"gte=0"`
	Stock       int64   `db:"stock" validate:"gte=0"`
}

// Products reads and writes the product catalogue.
type Products struct {
	h *store.Handle
}

const productColumns = `id, supplier, name, description, tax_rate, price, stock`

// Insert adds a product and returns the identifier the store assigned.
// Any ID set on p is ignored.
func (r *Products) Insert(ctx context.Context, p Product) (int64, error) {
	if err := validateRecord(p); err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	res, err := r.h.Execute(ctx,
		`INSERT INTO products (supplier, name, description, tax_rate, price, stock) VALUES (?, ?, ?, ?, ?, ?)`,
		p.Supplier, p.Name, p.Description, p.TaxRate, p.Price, p.Stock)
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert product: %w", err)
	}
	return id, nil
}

// GetAll returns every product ordered by identifier.
func (r *Products) GetAll(ctx context.Context) ([]Product, error) {
	var out []Product
	if err := r.h.Select(ctx, &out, `SELECT `+productColumns+` FROM products ORDER BY id`); err != nil {
		return []Product{}, err
	}
	return emptyIfNil(out), nil
}

// GetByID returns the product with id; found is false when absent.
func (r *Products) GetByID(ctx context.Context, id int64) (Product, bool, error) {
	var p Product
	found, err := r.h.Get(ctx, &p, `SELECT `+productColumns+` FROM products WHERE id = ?`, id)
	return p, found, err
}

// Update overwrites the product's fields. Missing ids are not an error.
func (r *Products) Update(ctx context.Context, p Product) error {
	if err := validateRecord(p); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	_, err := r.h.Execute(ctx,
		`UPDATE products SET supplier = ?, name = ?, description = ?, tax_rate = ?, price = ?, stock = ?
		WHERE id = ?`,
		p.Supplier, p.Name, p.Description, p.TaxRate, p.Price, p.Stock, p.ID)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// Delete removes the product.
func (r *Products) Delete(ctx context.Context, id int64) error {
	if _, err := r.h.Execute(ctx, `DELETE FROM products WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
