package crm

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/datanexus/crmstore/internal/secret"
	"github.com/datanexus/crmstore/internal/store"
)

var (
	// ErrDuplicateKey is returned by Insert when the identifier already exists.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrInvalidRecord is returned when a record fails validation.
	ErrInvalidRecord = errors.New("invalid record")
)

// DateLayout is the stored format of every date column.
const DateLayout = "2006-01-02"

// Clock supplies "today" for dates the accessors fill in.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// shortID mirrors the 8-character identifiers the desktop client generated.
func shortID() string {
	return uuid.NewString()[:8]
}

type config struct {
	clock      Clock
	newID      func() string
	secretCost int
}

// Option configures the accessors.
type Option func(*config)

// WithClock sets the clock used for default dates.
func WithClock(c Clock) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.clock = c
		}
	}
}

// WithIDGenerator sets how task, event and FAQ identifiers are generated
// when the caller leaves them empty.
func WithIDGenerator(next func() string) Option {
	return func(cfg *config) {
		if next != nil {
			cfg.newID = next
		}
	}
}

// WithSecretCost sets the bcrypt cost for profile secrets.
func WithSecretCost(cost int) Option {
	return func(cfg *config) { cfg.secretCost = cost }
}

// Accessors groups the per-entity accessors of one TenantStore.
type Accessors struct {
	Identification *Identifications
	Customers      *Customers
	Opportunities  *Opportunities
	Budgets        *Budgets
	Products       *Products
	Profiles       *Profiles
	Tasks          *Tasks
	Events         *Events
	FAQs           *FAQs
}

// New builds the accessors over an open tenant store handle.
func New(h *store.Handle, opts ...Option) *Accessors {
	cfg := &config{clock: systemClock{}, newID: shortID, secretCost: secret.DefaultCost}
	for _, opt := range opts {
		opt(cfg)
	}

	return &Accessors{
		Identification: &Identifications{h: h},
		Customers:      &Customers{h: h},
		Opportunities:  &Opportunities{h: h},
		Budgets:        &Budgets{h: h},
		Products:       &Products{h: h},
		Profiles:       &Profiles{h: h, cfg: cfg},
		Tasks:          &Tasks{h: h, cfg: cfg},
		Events:         &Events{h: h, cfg: cfg},
		FAQs:           &FAQs{h: h, cfg: cfg},
	}
}

func (c *config) today() string {
	return c.clock.Now().Format(DateLayout)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterStructValidation(budgetDates, Budget{})
	return v
}

// budgetDates requires expiration on or after creation. Both dates are
// ISO formatted, so string order is calendar order.
func budgetDates(sl validator.StructLevel) {
	b := sl.Current().Interface().(Budget)
	if b.CreatedOn != "" && b.ExpiresOn != "" && b.ExpiresOn < b.CreatedOn {
		sl.ReportError(b.ExpiresOn, "ExpiresOn", "ExpiresOn", "gtecreated", "")
	}
}

func validateRecord(record any) error {
	if err := validate.Struct(record); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}
	return nil
}

// emptyIfNil keeps the "empty, never nil" contract for list reads.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
