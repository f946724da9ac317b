package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// TenantOptions holds the company flag of tenant-scoped commands.
type TenantOptions struct {
	*RootOptions
	Company string
}

// NewCustomersCommand creates the customers command group.
func NewCustomersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "customers",
		Short: "Inspect a company's customers",
	}
	cmd.AddCommand(newCustomersListCommand(rootOpts))
	return cmd
}

func newCustomersListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TenantOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List customers",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCustomersList(opts, cmd)
		},
	}
	addCompanyFlag(cmd, &opts.Company)

	return cmd
}

func runCustomersList(opts *TenantOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	ws, s, err := opts.openTenant(ctx, opts.Company)
	if err != nil {
		return err
	}
	defer ws.Close()
	defer s.Close()

	customers, err := s.CRM.Customers.GetAll(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list customers", err)
	}

	if opts.Format == "json" {
		return opts.formatter(cmd).Success(customers)
	}

	out := cmd.OutOrStdout()
	if len(customers) == 0 {
		fmt.Fprintln(out, "No customers found.")
		return nil
	}
	for _, c := range customers {
		fmt.Fprintf(out, "%-10s %-24s %s\n", c.ID, c.Name, c.Email)
	}
	fmt.Fprintf(out, "\n%d customer(s)\n", len(customers))
	return nil
}
