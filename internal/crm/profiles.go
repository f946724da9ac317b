package crm

import (
	"context"
	"fmt"

	"github.com/datanexus/crmstore/internal/secret"
	"github.com/datanexus/crmstore/internal/store"
)

// Profile is the single profile row of a company.
// Secret holds a bcrypt hash once written.
type Profile struct {
	ID          int64  `db:"id"`
	CompanyName string `db:"company_name" validate:"required"`
	UserName    string `db:"user_name"`
	Mail        string `db:"mail" validate:"omitempty,email"`
	Secret      string `db:"secret"`
	PhotoPath   string `db:"photo_path"`
	Description string `db:"description"`
}

// Profiles reads and writes company profiles.
type Profiles struct {
	h   *store.Handle
	cfg *config
}

const profileColumns = `id, company_name, COALESCE(user_name, '') AS user_name,
	COALESCE(mail, '') AS mail, COALESCE(secret, '') AS secret,
	COALESCE(photo_path, '') AS photo_path, COALESCE(description, '') AS description`

// Get returns the profile of company; found is false when none was saved.
func (r *Profiles) Get(ctx context.Context, company string) (Profile, bool, error) {
	var p Profile
	found, err := r.h.Get(ctx, &p, `SELECT `+profileColumns+` FROM profile WHERE company_name = ?`, company)
	return p, found, err
}

// Upsert writes the company's profile in one statement: it is inserted when
// absent and updated in place otherwise, so a company never has two rows.
// A plain-text Secret is hashed before it is stored.
func (r *Profiles) Upsert(ctx context.Context, p Profile) error {
	if err := validateRecord(p); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	if p.Secret != "" && !secret.IsHash(p.Secret) {
		hashed, err := secret.Hash(p.Secret, r.cfg.secretCost)
		if err != nil {
			return fmt.Errorf("upsert profile: %w", err)
		}
		p.Secret = hashed
	}

	_, err := r.h.Execute(ctx,
		`INSERT INTO profile (company_name, user_name, mail, secret, photo_path, description)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(company_name) DO UPDATE SET
			user_name = excluded.user_name,
			mail = excluded.mail,
			secret = excluded.secret,
			photo_path = excluded.photo_path,
			description = excluded.description`,
		p.CompanyName, p.UserName, p.Mail, p.Secret, p.PhotoPath, p.Description)
	if err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}
