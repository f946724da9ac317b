package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/datanexus/crmstore/internal/config"
	"github.com/datanexus/crmstore/internal/tenant"
)

// testRootOptions points the CLI at a fresh data directory.
func testRootOptions(t *testing.T, format string) *RootOptions {
	t.Helper()
	return &RootOptions{
		Format: format,
		Config: &config.Config{
			DataDir:      t.TempDir(),
			RegistryName: "empresa.db",
			LogLevel:     "info",
			Environment:  "development",
			BusyTimeout:  time.Second,
			BcryptCost:   bcrypt.MinCost,
		},
		Logger: zap.NewNop(),
	}
}

// execute runs cmd with args and returns what it wrote to stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// registerAcme registers "Acme Corp" in the options' data directory.
func registerAcme(t *testing.T, opts *RootOptions) {
	t.Helper()
	_, err := execute(t, NewRegisterCommand(opts), "Acme Corp", "--mail", "admin@acme.test", "--secret", "hunter2")
	require.NoError(t, err)
}

// openAcme opens the Acme Corp session directly for arranging data.
func openAcme(t *testing.T, opts *RootOptions) *tenant.Session {
	t.Helper()
	ws, err := opts.openWorkspace(context.Background())
	require.NoError(t, err)
	t.Cleanup(ws.Close)
	s, err := ws.provisioner.Open(context.Background(), "Acme Corp")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}
