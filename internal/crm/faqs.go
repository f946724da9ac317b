package crm

import (
	"context"
	"fmt"
	"strings"

	"github.com/datanexus/crmstore/internal/store"
)

// FAQ is a row of the faqs relation.
type FAQ struct {
	ID        string `db:"faq_id" validate:"required"`
	Question  string `db:"question" validate:"required"`
	Answer    string `db:"answer" validate:"required"`
	Category  string `db:"category"`
	UpdatedOn string `db:"updated_on" validate:"omitempty,datetime=2006-01-02"`
}

// FAQs reads and writes the knowledge base.
type FAQs struct {
	h   *store.Handle
	cfg *config
}

const faqColumns = `faq_id, question, answer, COALESCE(category, '') AS category,
	COALESCE(updated_on, '') AS updated_on`

// Insert adds an entry and returns its identifier. An empty ID is
// generated and an empty UpdatedOn defaults to today.
func (r *FAQs) Insert(ctx context.Context, f FAQ) (string, error) {
	if f.ID == "" {
		f.ID = r.cfg.newID()
	}
	if f.UpdatedOn == "" {
		f.UpdatedOn = r.cfg.today()
	}
	if err := validateRecord(f); err != nil {
		return "", fmt.Errorf("insert faq: %w", err)
	}
	_, found, err := r.GetByID(ctx, f.ID)
	if err != nil {
		return "", fmt.Errorf("insert faq: %w", err)
	}
	if found {
		return "", fmt.Errorf("insert faq %q: %w", f.ID, ErrDuplicateKey)
	}

	_, err = r.h.Execute(ctx,
		`INSERT INTO faqs (faq_id, question, answer, category, updated_on) VALUES (?, ?, ?, ?, ?)`,
		f.ID, f.Question, f.Answer, f.Category, f.UpdatedOn)
	if err != nil {
		return "", fmt.Errorf("insert faq: %w", err)
	}
	return f.ID, nil
}

// GetAll returns every entry in insertion order.
func (r *FAQs) GetAll(ctx context.Context) ([]FAQ, error) {
	var out []FAQ
	if err := r.h.Select(ctx, &out, `SELECT `+faqColumns+` FROM faqs ORDER BY rowid`); err != nil {
		return []FAQ{}, err
	}
	return emptyIfNil(out), nil
}

// GetByID returns the entry with id; found is false when absent.
func (r *FAQs) GetByID(ctx context.Context, id string) (FAQ, bool, error) {
	var f FAQ
	found, err := r.h.Get(ctx, &f, `SELECT `+faqColumns+` FROM faqs WHERE faq_id = ?`, id)
	return f, found, err
}

// Search returns the entries whose question or answer contains keyword.
// Matching is case-insensitive for ASCII; % and _ match literally.
func (r *FAQs) Search(ctx context.Context, keyword string) ([]FAQ, error) {
	pattern := "%" + escapeLike(keyword) + "%"
	var out []FAQ
	err := r.h.Select(ctx, &out,
		`SELECT `+faqColumns+` FROM faqs
		WHERE question LIKE ? ESCAPE '\' OR answer LIKE ? ESCAPE '\'
		ORDER BY rowid`, pattern, pattern)
	if err != nil {
		return []FAQ{}, err
	}
	return emptyIfNil(out), nil
}

// Update overwrites the entry. An empty UpdatedOn is stamped with today.
// Missing ids are not an error.
func (r *FAQs) Update(ctx context.Context, f FAQ) error {
	if f.UpdatedOn == "" {
		f.UpdatedOn = r.cfg.today()
	}
	if err := validateRecord(f); err != nil {
		return fmt.Errorf("update faq: %w", err)
	}
	_, err := r.h.Execute(ctx,
		`UPDATE faqs SET question = ?, answer = ?, category = ?, updated_on = ? WHERE faq_id = ?`,
		f.Question, f.Answer, f.Category, f.UpdatedOn, f.ID)
	if err != nil {
		return fmt.Errorf("update faq: %w", err)
	}
	return nil
}

// Delete removes the entry.
func (r *FAQs) Delete(ctx context.Context, id string) error {
	if _, err := r.h.Execute(ctx, `DELETE FROM faqs WHERE faq_id = ?`, id); err != nil {
		return fmt.Errorf("delete faq: %w", err)
	}
	return nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
