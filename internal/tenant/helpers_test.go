package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/datanexus/crmstore/internal/store"
	"github.com/datanexus/crmstore/internal/testutil"
)

var testOptions = []Option{
	WithSecretCost(bcrypt.MinCost),
	WithClock(testutil.NewFixedClockOn(2024, 3, 15)),
}

// openTestRegistry opens the registry on backend and closes it with the test.
func openTestRegistry(t *testing.T, backend store.Backend) *Registry {
	t.Helper()
	r, err := OpenRegistry(context.Background(), backend, DefaultRegistryName, testOptions...)
	require.NoError(t, err)
	t.Cleanup(func() { r.Close() })
	return r
}

func newTestProvisioner(t *testing.T) (*Provisioner, store.FileBackend) {
	t.Helper()
	backend := store.FileBackend{Dir: t.TempDir()}
	return NewProvisioner(backend, openTestRegistry(t, backend), testOptions...), backend
}
