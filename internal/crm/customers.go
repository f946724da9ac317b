package crm

import (
	"context"
	"fmt"

	"github.com/datanexus/crmstore/internal/store"
)

// UnknownCustomerName is shown for references to a customer that no longer exists.
const UnknownCustomerName = "Desconocido"

// Customer is a row of the customers relation.
type Customer struct {
	ID            string `db:"customer_id" validate:"required"`
	Name          string `db:"name" validate:"required"`
	Address       string `db:"address"`
	Phone         string `db:"phone"`
	ContactPerson string `db:"contact_person"`
	Email         string `db:"email" validate:"omitempty,email"`
}

// Customers reads and writes customers.
type Customers struct {
	h *store.Handle
}

const customerColumns = `customer_id, name, address, phone, contact_person, email`

// Insert adds a customer. An existing ID yields ErrDuplicateKey.
func (r *Customers) Insert(ctx context.Context, c Customer) error {
	if err := validateRecord(c); err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	_, found, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	if found {
		return fmt.Errorf("insert customer %q: %w", c.ID, ErrDuplicateKey)
	}

	_, err = r.h.Execute(ctx,
		`INSERT INTO customers (`+customerColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Address, c.Phone, c.ContactPerson, c.Email)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// GetAll returns every customer in insertion order.
func (r *Customers) GetAll(ctx context.Context) ([]Customer, error) {
	var out []Customer
	err := r.h.Select(ctx, &out, `SELECT `+customerColumns+` FROM customers ORDER BY rowid`)
	if err != nil {
		return []Customer{}, err
	}
	return emptyIfNil(out), nil
}

// GetByID returns the customer with id; found is false when absent.
func (r *Customers) GetByID(ctx context.Context, id string) (Customer, bool, error) {
	var c Customer
	found, err := r.h.Get(ctx, &c, `SELECT `+customerColumns+` FROM customers WHERE customer_id = ?`, id)
	return c, found, err
}

// Update overwrites the customer's fields. Missing ids are not an error.
func (r *Customers) Update(ctx context.Context, c Customer) error {
	if err := validateRecord(c); err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	_, err := r.h.Execute(ctx,
		`UPDATE customers SET name = ?, address = ?, phone = ?, contact_person = ?, email = ?
		WHERE customer_id = ?`,
		c.Name, c.Address, c.Phone, c.ContactPerson, c.Email, c.ID)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	return nil
}

// Delete removes the customer. Opportunities and budgets that reference it
// are left in place.
func (r *Customers) Delete(ctx context.Context, id string) error {
	if _, err := r.h.Execute(ctx, `DELETE FROM customers WHERE customer_id = ?`, id); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	return nil
}

// NameByID returns the customer's name, or UnknownCustomerName when the
// customer does not exist.
func (r *Customers) NameByID(ctx context.Context, id string) (string, error) {
	rows, err := r.h.Query(ctx, `SELECT name FROM customers WHERE customer_id = ?`, id)
	if err != nil {
		return UnknownCustomerName, err
	}
	if len(rows) == 0 {
		return UnknownCustomerName, nil
	}
	return rows[0].String("name"), nil
}

// Names maps every customer ID to its name.
func (r *Customers) Names(ctx context.Context) (map[string]string, error) {
	rows, err := r.h.Query(ctx, `SELECT customer_id, name FROM customers`)
	names := make(map[string]string, len(rows))
	for _, row := range rows {
		names[row.String("customer_id")] = row.String("name")
	}
	return names, err
}
