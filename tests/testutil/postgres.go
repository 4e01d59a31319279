package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/repo"
	"github.com/light-bringer/catalog-mirror/internal/pkg/clock"
)

// GetTestPostgresDSN returns PG_TEST_DSN, or "" when unset.
func GetTestPostgresDSN() string {
	return os.Getenv("PG_TEST_DSN")
}

// SetupPostgresStore opens a Postgres store with the schema applied and an
// empty table. It skips the test when PG_TEST_DSN is not set.
func SetupPostgresStore(t *testing.T, clk clock.Clock) *repo.PostgresStore {
	t.Helper()

	dsn := GetTestPostgresDSN()
	if dsn == "" {
		t.Skip("PG_TEST_DSN not set")
	}

	ctx := context.Background()
	store, err := repo.OpenPostgres(ctx, dsn, 2, clk)
	require.NoError(t, err, "failed to connect to Postgres")
	require.NoError(t, store.Migrate(ctx), "failed to apply schema")
	require.NoError(t, store.Truncate(ctx), "failed to clean table")

	return store
}
