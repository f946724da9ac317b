// Package tenant maps company names to isolated tenant stores and keeps
// the master registry of registered companies.
package tenant

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// StoreSuffix is appended to a sanitized company name to form its storage
// identifier.
const StoreSuffix = ".db"

var (
	// ErrEmptyIdentifier is returned when nothing of a company name
	// survives sanitization.
	ErrEmptyIdentifier = errors.New("company name has no usable characters")

	// ErrDuplicateTenant is returned when a company is registered twice.
	ErrDuplicateTenant = errors.New("tenant already registered")

	// ErrIdentifierCollision is returned when a new company name resolves
	// to the identifier of an already registered company.
	ErrIdentifierCollision = fmt.Errorf("identifier collision: %w", ErrDuplicateTenant)

	// ErrReservedIdentifier is returned for names that resolve to the
	// master registry's identifier.
	ErrReservedIdentifier = errors.New("identifier is reserved")

	// ErrInvalidCredentials is returned when a login does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnknownTenant is returned for companies absent from the registry.
	ErrUnknownTenant = errors.New("tenant not registered")
)

// Identifier names the storage of one tenant store.
type Identifier string

func (id Identifier) String() string { return string(id) }

// Sanitize reduces a company name to the characters allowed in a storage
// identifier: letters, digits, space, '.' and '_'. The name is NFC
// normalized first so composed and decomposed spellings agree. Trailing
// spaces are removed; leading ones are kept.
func Sanitize(name string) string {
	name = norm.NFC.String(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == ' ' || r == '.' || r == '_' {
			b.WriteRune(r)
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// Resolve returns the storage identifier of a company. It is deterministic:
// the same name always yields the same identifier.
func Resolve(name string) (Identifier, error) {
	clean := Sanitize(name)
	if strings.TrimSpace(clean) == "" {
		return "", fmt.Errorf("resolve %q: %w", name, ErrEmptyIdentifier)
	}
	return Identifier(clean + StoreSuffix), nil
}

// sameIdentifier compares identifiers the way case-insensitive file
// systems do.
func sameIdentifier(a, b Identifier) bool {
	return strings.EqualFold(string(a), string(b))
}
