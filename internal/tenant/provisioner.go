package tenant

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/datanexus/crmstore/internal/crm"
	"github.com/datanexus/crmstore/internal/secret"
	"github.com/datanexus/crmstore/internal/store"
)

// Session is an open tenant store bound to one company.
// Close it when the session ends.
type Session struct {
	Company    string
	Identifier Identifier
	Handle     *store.Handle
	CRM        *crm.Accessors
}

// Close closes the tenant store.
func (s *Session) Close() error {
	if s == nil || s.Handle == nil {
		return nil
	}
	return s.Handle.Close()
}

// Provisioner registers companies and opens their tenant stores.
type Provisioner struct {
	backend  store.Backend
	registry *Registry
	opts     options
}

// NewProvisioner creates a provisioner that stores tenants on backend and
// records them in registry.
func NewProvisioner(backend store.Backend, registry *Registry, opts ...Option) *Provisioner {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Provisioner{backend: backend, registry: registry, opts: o}
}

// Register records the company in the registry, creates its tenant store
// and writes the tenant-local credentials row.
func (p *Provisioner) Register(ctx context.Context, name, mail, plain string) (*Session, error) {
	t, err := p.registry.Register(ctx, name, mail, plain)
	if err != nil {
		return nil, err
	}

	s, err := p.open(ctx, t.CompanyName, t.Identifier)
	if err != nil {
		return nil, fmt.Errorf("register %q: %w", name, err)
	}
	if err := p.ensureCredentials(ctx, s, t); err != nil {
		s.Close()
		return nil, fmt.Errorf("register %q: %w", name, err)
	}
	return s, nil
}

// Login opens the company's tenant store, healing it if needed, and checks
// mail and secret against the tenant-local credentials. A store without
// credentials is backfilled from the registry. Unregistered companies fail
// without touching storage.
func (p *Provisioner) Login(ctx context.Context, name, mail, plain string) (*Session, error) {
	t, found, err := p.registry.Lookup(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("login %q: %w", name, err)
	}
	if !found {
		return nil, fmt.Errorf("login %q: %w", name, ErrInvalidCredentials)
	}

	s, err := p.open(ctx, t.CompanyName, t.Identifier)
	if err != nil {
		return nil, fmt.Errorf("login %q: %w", name, err)
	}

	local, found, err := p.localCredentials(ctx, s, t, mail)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("login %q: %w", name, err)
	}
	if !found || !secret.Verify(local.Secret, plain) {
		s.Close()
		p.opts.logger.Warn("login rejected", zap.String("company", name))
		return nil, fmt.Errorf("login %q: %w", name, ErrInvalidCredentials)
	}
	return s, nil
}

// Open opens a registered company's tenant store without checking
// credentials.
func (p *Provisioner) Open(ctx context.Context, name string) (*Session, error) {
	t, found, err := p.registry.Lookup(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", name, err)
	}
	if !found {
		return nil, fmt.Errorf("open %q: %w", name, ErrUnknownTenant)
	}
	s, err := p.open(ctx, t.CompanyName, t.Identifier)
	if err != nil {
		return nil, fmt.Errorf("open %q: %w", name, err)
	}
	return s, nil
}

func (p *Provisioner) open(ctx context.Context, company string, id Identifier) (*Session, error) {
	if err := p.registry.checkReserved(id); err != nil {
		return nil, err
	}
	h, err := store.OpenOrCreate(ctx, p.backend, id.String(), store.TenantCatalog(), p.opts.storeOptions()...)
	if err != nil {
		return nil, err
	}
	if created := h.Created(); h.Existed() && len(created) > 0 {
		p.opts.logger.Info("tenant store healed",
			zap.String("company", company),
			zap.Strings("created", created),
		)
	}
	return &Session{
		Company:    company,
		Identifier: id,
		Handle:     h,
		CRM:        crm.New(h, p.opts.crmOpts...),
	}, nil
}

// localCredentials returns the tenant-local row for mail. A store with no
// credentials at all is backfilled from the registry first.
func (p *Provisioner) localCredentials(ctx context.Context, s *Session, t Tenant, mail string) (crm.Credentials, bool, error) {
	c, found, err := s.CRM.Identification.Find(ctx, t.CompanyName, mail)
	if err != nil || found {
		return c, found, err
	}
	_, hasRows, err := s.CRM.Identification.ByCompany(ctx, t.CompanyName)
	if err != nil || hasRows {
		return crm.Credentials{}, false, err
	}

	if err := p.ensureCredentials(ctx, s, t); err != nil {
		return crm.Credentials{}, false, err
	}
	p.opts.logger.Info("tenant credentials backfilled", zap.String("company", t.CompanyName))
	return s.CRM.Identification.Find(ctx, t.CompanyName, mail)
}

// ensureCredentials writes the registry credentials into the tenant store
// unless an identical row is already there.
func (p *Provisioner) ensureCredentials(ctx context.Context, s *Session, t Tenant) error {
	_, found, err := s.CRM.Identification.Find(ctx, t.CompanyName, t.Mail)
	if err != nil || found {
		return err
	}
	return s.CRM.Identification.Insert(ctx, crm.Credentials{
		CompanyName: t.CompanyName,
		Mail:        t.Mail,
		Secret:      t.Secret,
	})
}
