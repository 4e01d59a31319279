package count_records

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/repo"
	"github.com/light-bringer/catalog-mirror/internal/pkg/clock"
)

func TestExecute(t *testing.T) {
	ctx := context.Background()
	store := repo.NewMemoryStore(clock.NewMockClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	q := NewQuery(store)

	n, err := q.Execute(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	for id := int64(1); id <= 3; id++ {
		rec, err := domain.NewCatalogRecord(id, "Item", "item", "", nil, nil)
		require.NoError(t, err)
		_, err = store.Upsert(ctx, rec)
		require.NoError(t, err)
	}

	n, err = q.Execute(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
