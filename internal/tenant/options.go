package tenant

import (
	"go.uber.org/zap"

	"github.com/datanexus/crmstore/internal/crm"
	"github.com/datanexus/crmstore/internal/secret"
	"github.com/datanexus/crmstore/internal/store"
)

type options struct {
	logger     *zap.Logger
	clock      crm.Clock
	secretCost int
	storeOpts  []store.Option
	crmOpts    []crm.Option
}

func defaultOptions() options {
	return options{
		logger:     zap.NewNop(),
		clock:      systemClock{},
		secretCost: secret.DefaultCost,
	}
}

// Option configures a Registry or a Provisioner.
type Option func(*options)

// WithLogger sets the logger. Stores opened on behalf of the caller log
// through it too.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock sets the clock used to stamp registrations.
func WithClock(c crm.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithSecretCost sets the bcrypt cost for registered secrets.
func WithSecretCost(cost int) Option {
	return func(o *options) { o.secretCost = cost }
}

// WithStoreOptions passes options to every store the component opens.
func WithStoreOptions(opts ...store.Option) Option {
	return func(o *options) { o.storeOpts = append(o.storeOpts, opts...) }
}

// WithAccessorOptions passes options to the accessors of every session.
func WithAccessorOptions(opts ...crm.Option) Option {
	return func(o *options) { o.crmOpts = append(o.crmOpts, opts...) }
}

func (o options) storeOptions() []store.Option {
	return append([]store.Option{store.WithLogger(o.logger)}, o.storeOpts...)
}
