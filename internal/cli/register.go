package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

// CredentialOptions holds flags shared by register and login.
type CredentialOptions struct {
	*RootOptions
	Mail   string
	Secret string
}

// SessionResult describes the tenant store a register or login opened.
type SessionResult struct {
	Company    string   `json:"company"`
	Identifier string   `json:"identifier"`
	Existed    bool     `json:"existed"`
	Created    []string `json:"created"`
}

func addCredentialFlags(cmd *cobra.Command, opts *CredentialOptions) {
	cmd.Flags().StringVar(&opts.Mail, "mail", "", "account mail (required)")
	_ = cmd.MarkFlagRequired("mail")
	cmd.Flags().StringVar(&opts.Secret, "secret", "", "account secret (read from stdin when omitted)")
}

// readSecret returns the --secret flag or the first line of stdin.
func readSecret(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", WrapExitError(ExitCommandError, "failed to read secret", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", NewExitError(ExitCommandError, "no secret given: use --secret or pipe it on stdin")
	}
	return line, nil
}

// NewRegisterCommand creates the register command.
func NewRegisterCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CredentialOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "register <company>",
		Short: "Register a company and create its tenant store",
		Long: `Register a company in the master registry and create its tenant store.

The store identifier is derived from the company name. Registration is
refused when the name is already registered, when another company's name
maps to the same identifier, or when the name maps to the registry itself.

Exit codes:
  0 - Company registered
  1 - Registration refused
  2 - Command error

Examples:
  crmctl register "Acme Corp" --mail admin@acme.test --secret hunter2
  echo hunter2 | crmctl register "Acme Corp" --mail admin@acme.test`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRegister(opts, cmd, args[0])
		},
	}
	addCredentialFlags(cmd, opts)

	return cmd
}

func runRegister(opts *CredentialOptions, cmd *cobra.Command, company string) error {
	ctx := context.Background()

	plain, err := readSecret(cmd, opts.Secret)
	if err != nil {
		return err
	}

	ws, err := opts.openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	s, err := ws.provisioner.Register(ctx, company, opts.Mail, plain)
	if err != nil {
		return classify("registration failed", err)
	}
	defer s.Close()

	result := SessionResult{
		Company:    s.Company,
		Identifier: s.Identifier.String(),
		Existed:    s.Handle.Existed(),
		Created:    s.Handle.Created(),
	}
	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (store %s)\n", result.Company, result.Identifier)
	return nil
}

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CredentialOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "login <company>",
		Short: "Check a company's credentials and heal its tenant store",
		Long: `Check mail and secret against the company's tenant store.

The tenant store is healed on the way: relations added by newer releases
are created before the credentials are checked.

Exit codes:
  0 - Credentials accepted
  1 - Credentials rejected
  2 - Command error`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(opts, cmd, args[0])
		},
	}
	addCredentialFlags(cmd, opts)

	return cmd
}

func runLogin(opts *CredentialOptions, cmd *cobra.Command, company string) error {
	ctx := context.Background()

	plain, err := readSecret(cmd, opts.Secret)
	if err != nil {
		return err
	}

	ws, err := opts.openWorkspace(ctx)
	if err != nil {
		return err
	}
	defer ws.Close()

	s, err := ws.provisioner.Login(ctx, company, opts.Mail, plain)
	if err != nil {
		return classify("login failed", err)
	}
	defer s.Close()

	result := SessionResult{
		Company:    s.Company,
		Identifier: s.Identifier.String(),
		Existed:    s.Handle.Existed(),
		Created:    s.Handle.Created(),
	}
	if opts.Format == "json" {
		return opts.formatter(cmd).Success(result)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Login accepted for %s\n", result.Company)
	if len(result.Created) > 0 {
		opts.formatter(cmd).VerboseLog("healed relations: %s", strings.Join(result.Created, ", "))
	}
	return nil
}
