package crm

import (
	"context"
	"fmt"

	"github.com/datanexus/crmstore/internal/store"
)

// Credentials is a row of the tenant-local identification relation.
// Secret holds a bcrypt hash.
type Credentials struct {
	CompanyName string `db:"company_name" validate:"required"`
	Mail        string `db:"mail" validate:"required,email"`
	Secret      string `db:"secret" validate:"required"`
}

// Identifications reads and writes the company's credentials copy.
type Identifications struct {
	h *store.Handle
}

// Insert stores a credentials row. The relation has no key, so callers
// check Find first when a second row is unwanted.
func (r *Identifications) Insert(ctx context.Context, c Credentials) error {
	if err := validateRecord(c); err != nil {
		return fmt.Errorf("insert credentials: %w", err)
	}
	_, err := r.h.Execute(ctx,
		`INSERT INTO identification (company_name, mail, secret) VALUES (?, ?, ?)`,
		c.CompanyName, c.Mail, c.Secret)
	if err != nil {
		return fmt.Errorf("insert credentials: %w", err)
	}
	return nil
}

// Find returns the credentials row matching company and mail.
func (r *Identifications) Find(ctx context.Context, company, mail string) (Credentials, bool, error) {
	var c Credentials
	found, err := r.h.Get(ctx, &c,
		`SELECT company_name, mail, secret FROM identification WHERE company_name = ? AND mail = ? LIMIT 1`,
		company, mail)
	return c, found, err
}

// ByCompany returns the first credentials row of company.
func (r *Identifications) ByCompany(ctx context.Context, company string) (Credentials, bool, error) {
	var c Credentials
	found, err := r.h.Get(ctx, &c,
		`SELECT company_name, mail, secret FROM identification WHERE company_name = ? ORDER BY rowid LIMIT 1`,
		company)
	return c, found, err
}
