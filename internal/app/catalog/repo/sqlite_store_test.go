package repo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/contracts"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/repo/storetest"
	"github.com/light-bringer/catalog-mirror/internal/pkg/clock"
)

func createTestSQLite(t *testing.T, clk clock.Clock) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "catalog.db"), clk)
	require.NoError(t, err)
	return s
}

func TestSQLiteStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T, clk clock.Clock) contracts.Store {
		return createTestSQLite(t, clk)
	})
}

func TestSQLiteStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")
	clk := clock.NewMockClock(storetest.Epoch)

	s, err := OpenSQLite(path, clk)
	require.NoError(t, err)
	_, err = s.Upsert(ctx, storetest.NewRecord(t, 1, "Kept", "2.5"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenSQLite(path, clk)
	require.NoError(t, err)
	defer s.Close()

	rec, err := s.FindByExternalID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Kept", rec.Title())
	assert.Equal(t, "2.50", rec.Price().String())
}

func TestSQLiteStore_ClosedIsUnavailable(t *testing.T) {
	s := createTestSQLite(t, clock.NewMockClock(storetest.Epoch))
	require.NoError(t, s.Close())

	_, err := s.Count(context.Background())
	assert.Error(t, err)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMockClock(storetest.Epoch)

	t.Run("memory", func(t *testing.T) {
		s, err := Open(ctx, Options{Driver: DriverMemory}, clk)
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)
		assert.NoError(t, Migrate(ctx, s, Options{}))
	})

	t.Run("sqlite", func(t *testing.T) {
		opts := Options{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "x.db")}
		s, err := Open(ctx, opts, clk)
		require.NoError(t, err)
		defer s.Close()
		assert.NoError(t, Migrate(ctx, s, opts))
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := Open(ctx, Options{Driver: "mongo"}, clk)
		assert.Error(t, err)
	})
}

func TestSpannerDDL(t *testing.T) {
	stmts := SpannerDDL()
	require.Len(t, stmts, 3)
	assert.Contains(t, stmts[0], "CREATE TABLE catalog_records")
	assert.Contains(t, stmts[1], "UNIQUE INDEX")
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% a\_b \\`, escapeLike(`100% a_b \`))
}
