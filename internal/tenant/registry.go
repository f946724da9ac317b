package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/datanexus/crmstore/internal/crm"
	"github.com/datanexus/crmstore/internal/secret"
	"github.com/datanexus/crmstore/internal/store"
)

// DefaultRegistryName is the storage identifier of the master registry.
const DefaultRegistryName = "empresa.db"

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Tenant is one registered company. Secret holds a bcrypt hash.
type Tenant struct {
	CompanyName  string     `db:"company_name"`
	Mail         string     `db:"mail"`
	Secret       string     `db:"secret"`
	Identifier   Identifier `db:"identifier"`
	RegisteredAt string     `db:"registered_at"`
}

type registration struct {
	Name   string `validate:"required"`
	Mail   string `validate:"required,email"`
	Secret string `validate:"required"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Registry is the master store of registered companies.
type Registry struct {
	h    *store.Handle
	name Identifier
	opts options
}

// OpenRegistry opens (and heals) the master registry stored under name on
// backend.
func OpenRegistry(ctx context.Context, backend store.Backend, name string, opts ...Option) (*Registry, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if name == "" {
		name = DefaultRegistryName
	}

	h, err := store.OpenOrCreate(ctx, backend, name, store.RegistryCatalog(), o.storeOptions()...)
	if err != nil {
		return nil, fmt.Errorf("open registry: %w", err)
	}
	return &Registry{h: h, name: Identifier(name), opts: o}, nil
}

// Name returns the registry's storage identifier. No tenant may resolve to it.
func (r *Registry) Name() Identifier {
	return r.name
}

// Close closes the registry store.
func (r *Registry) Close() error {
	return r.h.Close()
}

// checkReserved rejects identifiers that would overwrite the registry.
func (r *Registry) checkReserved(id Identifier) error {
	if sameIdentifier(id, r.name) {
		return fmt.Errorf("%q: %w", id, ErrReservedIdentifier)
	}
	return nil
}

// Register records a new company. The exact name may only be registered
// once, and no two companies may resolve to the same identifier.
func (r *Registry) Register(ctx context.Context, name, mail, plain string) (Tenant, error) {
	if err := validate.Struct(registration{Name: name, Mail: mail, Secret: plain}); err != nil {
		return Tenant{}, fmt.Errorf("register %q: %w", name, err)
	}
	id, err := Resolve(name)
	if err != nil {
		return Tenant{}, fmt.Errorf("register: %w", err)
	}
	if err := r.checkReserved(id); err != nil {
		return Tenant{}, fmt.Errorf("register %q: %w", name, err)
	}

	exists, err := r.Exists(ctx, name)
	if err != nil {
		return Tenant{}, fmt.Errorf("register %q: %w", name, err)
	}
	if exists {
		return Tenant{}, fmt.Errorf("register %q: %w", name, ErrDuplicateTenant)
	}

	var owner string
	found, err := r.h.Get(ctx, &owner,
		`SELECT company_name FROM tenants WHERE identifier = ? COLLATE NOCASE LIMIT 1`, string(id))
	if err != nil {
		return Tenant{}, fmt.Errorf("register %q: %w", name, err)
	}
	if found {
		return Tenant{}, fmt.Errorf("register %q (%s is used by %q): %w", name, id, owner, ErrIdentifierCollision)
	}

	hashed, err := secret.Hash(plain, r.opts.secretCost)
	if err != nil {
		return Tenant{}, fmt.Errorf("register %q: %w", name, err)
	}

	t := Tenant{
		CompanyName:  name,
		Mail:         mail,
		Secret:       hashed,
		Identifier:   id,
		RegisteredAt: r.opts.clock.Now().UTC().Format(time.RFC3339),
	}
	_, err = r.h.Execute(ctx,
		`INSERT INTO tenants (company_name, mail, secret, identifier, registered_at) VALUES (?, ?, ?, ?, ?)`,
		t.CompanyName, t.Mail, t.Secret, string(t.Identifier), t.RegisteredAt)
	if err != nil {
		return Tenant{}, fmt.Errorf("register %q: %w", name, err)
	}

	r.opts.logger.Info("tenant registered",
		zap.String("company", name),
		zap.String("identifier", id.String()),
	)
	return t, nil
}

// Exists reports whether a company with exactly this name is registered.
func (r *Registry) Exists(ctx context.Context, name string) (bool, error) {
	_, found, err := r.Lookup(ctx, name)
	return found, err
}

// Lookup returns the registry row of a company.
func (r *Registry) Lookup(ctx context.Context, name string) (Tenant, bool, error) {
	var t Tenant
	found, err := r.h.Get(ctx, &t,
		`SELECT company_name, mail, secret, identifier, registered_at FROM tenants WHERE company_name = ?`, name)
	return t, found, err
}

// Credentials returns the mail and hashed secret of a company.
func (r *Registry) Credentials(ctx context.Context, name string) (crm.Credentials, bool, error) {
	t, found, err := r.Lookup(ctx, name)
	if err != nil || !found {
		return crm.Credentials{}, false, err
	}
	return crm.Credentials{CompanyName: t.CompanyName, Mail: t.Mail, Secret: t.Secret}, true, nil
}

// CheckLogin reports whether mail and plain match the registered company.
func (r *Registry) CheckLogin(ctx context.Context, name, mail, plain string) (bool, error) {
	c, found, err := r.Credentials(ctx, name)
	if err != nil || !found {
		return false, err
	}
	return c.Mail == mail && secret.Verify(c.Secret, plain), nil
}

// All lists every registered company ordered by name.
func (r *Registry) All(ctx context.Context) ([]Tenant, error) {
	var out []Tenant
	err := r.h.Select(ctx, &out,
		`SELECT company_name, mail, secret, identifier, registered_at FROM tenants ORDER BY company_name`)
	if err != nil || out == nil {
		return []Tenant{}, err
	}
	return out, nil
}
