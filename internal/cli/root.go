package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/datanexus/crmstore/internal/config"
	"github.com/datanexus/crmstore/internal/logging"
	"github.com/datanexus/crmstore/internal/store"
	"github.com/datanexus/crmstore/internal/tenant"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	DataDir  string
	EnvFiles []string

	// Config and Logger are resolved before a command runs. Tests may set
	// them directly.
	Config *config.Config
	Logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the crmctl CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "crmctl",
		Short: "crmctl - multi-tenant CRM store administration",
		Long:  "Register companies, heal their tenant stores and inspect or load their CRM data.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.resolve()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "directory holding the registry and tenant stores (overrides CRM_DATA_DIR)")
	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", nil, "env files to load (default .env, .env.local)")

	// Add subcommands
	cmd.AddCommand(NewRegisterCommand(opts))
	cmd.AddCommand(NewLoginCommand(opts))
	cmd.AddCommand(NewHealCommand(opts))
	cmd.AddCommand(NewCustomersCommand(opts))
	cmd.AddCommand(NewPipelineCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportProductsCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}

// resolve loads the configuration and builds the logger once.
func (o *RootOptions) resolve() error {
	if o.Config == nil {
		cfg, err := config.Load(o.EnvFiles...)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to load configuration", err)
		}
		o.Config = cfg
	}
	if o.DataDir != "" {
		o.Config.DataDir = o.DataDir
	}

	if o.Logger == nil {
		logger, err := logging.New(logging.Options{
			Level:       o.Config.LogLevel,
			Environment: o.Config.Environment,
			Verbose:     o.Verbose,
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to build logger", err)
		}
		o.Logger = logger
	}
	return nil
}

// workspace is the registry plus provisioner of one data directory.
type workspace struct {
	registry    *tenant.Registry
	provisioner *tenant.Provisioner
	logger      *zap.Logger
}

func (o *RootOptions) openWorkspace(ctx context.Context) (*workspace, error) {
	if err := o.resolve(); err != nil {
		return nil, err
	}
	cfg := o.Config

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to create data directory", err)
	}

	backend := store.FileBackend{Dir: cfg.DataDir}
	tenantOpts := []tenant.Option{
		tenant.WithLogger(o.Logger),
		tenant.WithSecretCost(cfg.BcryptCost),
		tenant.WithStoreOptions(store.WithBusyTimeout(cfg.BusyTimeout)),
	}

	registry, err := tenant.OpenRegistry(ctx, backend, cfg.RegistryName, tenantOpts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open registry", err)
	}

	return &workspace{
		registry:    registry,
		provisioner: tenant.NewProvisioner(backend, registry, tenantOpts...),
		logger:      o.Logger,
	}, nil
}

func (w *workspace) Close() {
	if err := w.registry.Close(); err != nil {
		w.logger.Warn("close registry", zap.Error(err))
	}
	_ = w.logger.Sync()
}

// openTenant opens a registered company's store without credentials.
func (o *RootOptions) openTenant(ctx context.Context, company string) (*workspace, *tenant.Session, error) {
	ws, err := o.openWorkspace(ctx)
	if err != nil {
		return nil, nil, err
	}
	s, err := ws.provisioner.Open(ctx, company)
	if err != nil {
		ws.Close()
		return nil, nil, classify(fmt.Sprintf("failed to open tenant %q", company), err)
	}
	return ws, s, nil
}

// formatter builds the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func addCompanyFlag(cmd *cobra.Command, company *string) {
	cmd.Flags().StringVarP(company, "company", "c", "", "registered company name (required)")
	_ = cmd.MarkFlagRequired("company")
}
