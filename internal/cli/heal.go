package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// HealOptions holds flags for the heal command.
type HealOptions struct {
	*RootOptions
	All bool
}

// HealTenantResult reports what healing one tenant store did.
type HealTenantResult struct {
	Company    string   `json:"company"`
	Identifier string   `json:"identifier"`
	Existed    bool     `json:"existed"`
	Created    []string `json:"created"`
}

// HealResult holds the overall heal result.
type HealResult struct {
	Tenants      []HealTenantResult `json:"tenants"`
	TotalCreated int                `json:"total_created"`
}

// NewHealCommand creates the heal command.
func NewHealCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HealOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "heal [company...]",
		Short: "Create relations missing from tenant stores",
		Long: `Open tenant stores and create every relation they are missing.

Stores written by older releases lack relations added since. Opening a
store creates them; existing relations and their rows are never touched.

Examples:
  crmctl heal "Acme Corp"
  crmctl heal --all --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHeal(opts, cmd, args)
		},
	}

	cmd.Flags().BoolVar(&opts.All, "all", false, "heal every registered company")

	return cmd
}

func runHeal(opts *HealOptions, cmd *cobra.Command, companies []string) error {
	ctx := context.Background()

	if len(companies) == 0 && !opts.All {
		return NewExitError(ExitCommandError, "name at least one company or pass --all")
	}

	ws, err := opts.openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	if opts.All {
		tenants, err := ws.registry.All(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list tenants", err)
		}
		companies = companies[:0]
		for _, t := range tenants {
			companies = append(companies, t.CompanyName)
		}
	}

	result := HealResult{Tenants: make([]HealTenantResult, 0, len(companies))}
	for _, company := range companies {
		s, err := ws.provisioner.Open(ctx, company)
		if err != nil {
			return classify(fmt.Sprintf("failed to heal %q", company), err)
		}
		created := s.Handle.Created()
		result.Tenants = append(result.Tenants, HealTenantResult{
			Company:    s.Company,
			Identifier: s.Identifier.String(),
			Existed:    s.Handle.Existed(),
			Created:    created,
		})
		result.TotalCreated += len(created)
		s.Close()
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}

	out := cmd.OutOrStdout()
	if len(result.Tenants) == 0 {
		fmt.Fprintln(out, "No tenants registered.")
		return nil
	}
	for _, t := range result.Tenants {
		if len(t.Created) == 0 {
			fmt.Fprintf(out, "%s (%s): up to date\n", t.Company, t.Identifier)
			continue
		}
		fmt.Fprintf(out, "%s (%s): created %s\n", t.Company, t.Identifier, strings.Join(t.Created, ", "))
	}
	fmt.Fprintf(out, "\n%d tenant(s), %d relation(s) created\n", len(result.Tenants), result.TotalCreated)
	return nil
}
