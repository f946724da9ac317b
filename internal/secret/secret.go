// Package secret hashes and verifies tenant credential secrets.
package secret

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt cost used when none is configured.
const DefaultCost = 12

// ErrEmpty is returned when hashing an empty secret.
var ErrEmpty = errors.New("secret is empty")

// Hash hashes a plain text secret. A cost outside bcrypt's range falls
// back to DefaultCost.
func Hash(plain string, cost int) (string, error) {
	if plain == "" {
		return "", ErrEmpty
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify checks if a plain text secret matches a hashed secret.
func Verify(hashed, plain string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
	return err == nil
}

// IsHash reports whether s already looks like a bcrypt hash.
func IsHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil && strings.HasPrefix(s, "$2")
}
