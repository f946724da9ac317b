package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/datanexus/crmstore/internal/report"
	"github.com/datanexus/crmstore/internal/seed"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	TenantOptions
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{TenantOptions: TenantOptions{RootOptions: rootOpts}}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a company's records to an xlsx workbook",
		Long: `Export customers, opportunities, budgets, products and the pipeline board
into one workbook, one sheet each.

Examples:
  crmctl export --company "Acme Corp" -o acme.xlsx`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}
	addCompanyFlag(cmd, &opts.Company)
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "workbook path (required)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	ws, s, err := opts.openTenant(ctx, opts.Company)
	if err != nil {
		return err
	}
	defer ws.Close()
	defer s.Close()

	if err := report.NewExporter(s.CRM, ws.logger).ExportFile(ctx, opts.Output); err != nil {
		return WrapExitError(ExitCommandError, "export failed", err)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(map[string]string{"company": s.Company, "output": opts.Output})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %s to %s\n", s.Company, opts.Output)
	return nil
}

// NewImportProductsCommand creates the import-products command.
func NewImportProductsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TenantOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import-products <workbook.xlsx>",
		Short: "Import products from the first sheet of a workbook",
		Long: `Import products from the first sheet of an xlsx workbook.

The first row is a header. Columns: supplier, name, description, tax rate
(0-100), price, stock. Rows that do not parse or validate are skipped and
reported.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImportProducts(opts, cmd, args[0])
		},
	}
	addCompanyFlag(cmd, &opts.Company)

	return cmd
}

func runImportProducts(opts *TenantOptions, cmd *cobra.Command, path string) error {
	ctx := context.Background()

	f, err := os.Open(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open workbook", err)
	}
	defer f.Close()

	ws, s, err := opts.openTenant(ctx, opts.Company)
	if err != nil {
		return err
	}
	defer ws.Close()
	defer s.Close()

	res, err := report.ImportProducts(ctx, s.CRM.Products, f, ws.logger)
	if err != nil {
		return WrapExitError(ExitCommandError, "import failed", err)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(res)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported %d product(s), skipped %d\n", res.Imported, res.Skipped)
	for _, rowErr := range res.Errors {
		fmt.Fprintf(out, "  %v\n", rowErr)
	}
	return nil
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TenantOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed <fixture.yaml|fixture.cue>",
		Short: "Load a YAML or CUE fixture into a company's store",
		Long: `Load customers, opportunities, budgets, products, tasks, events and FAQs
from a YAML or CUE fixture. CUE fixtures are checked against the fixture
schema first. Records that already exist are skipped, so a fixture
can be applied more than once.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(opts, cmd, args[0])
		},
	}
	addCompanyFlag(cmd, &opts.Company)

	return cmd
}

func runSeed(opts *TenantOptions, cmd *cobra.Command, path string) error {
	ctx := context.Background()

	fx, err := seed.Load(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load fixture", err)
	}

	ws, s, err := opts.openTenant(ctx, opts.Company)
	if err != nil {
		return err
	}
	defer ws.Close()
	defer s.Close()

	res, err := seed.Apply(ctx, s.CRM, fx, ws.logger)
	if err != nil {
		return classify("seed failed", err)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %s: %d inserted, %d skipped\n", s.Company, res.Inserted, res.Skipped)
	return nil
}
