package list_records_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/queries/list_records"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/repo"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/repo/storetest"
	"github.com/light-bringer/catalog-mirror/internal/pkg/clock"
)

func seeded(t *testing.T, n int) *repo.MemoryStore {
	t.Helper()
	store := repo.NewMemoryStore(clock.NewSteppingClock(storetest.Epoch, time.Second))
	for i := 1; i <= n; i++ {
		_, err := store.Upsert(context.Background(), storetest.NewRecord(t, int64(i), fmt.Sprintf("Item %02d", i), "1.00"))
		require.NoError(t, err)
	}
	return store
}

func TestListRecords(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		q := list_records.NewQuery(seeded(t, 23))

		res, err := q.Execute(ctx, &list_records.Request{})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Page)
		assert.Equal(t, list_records.DefaultPageSize, res.Size)
		assert.Equal(t, int64(23), res.TotalCount)
		assert.Equal(t, 3, res.TotalPages)
		assert.Len(t, res.Records, 10)
		assert.Equal(t, "Item 23", res.Records[0].Title())
		assert.Equal(t, int64(1), res.PageStart)
		assert.Equal(t, int64(10), res.PageEnd)
		assert.False(t, res.HasPrevious())
		assert.True(t, res.HasNext())
	})

	t.Run("last page is partial", func(t *testing.T) {
		q := list_records.NewQuery(seeded(t, 23))

		res, err := q.Execute(ctx, &list_records.Request{Page: 2, Size: 10})
		require.NoError(t, err)
		assert.Len(t, res.Records, 3)
		assert.Equal(t, int64(21), res.PageStart)
		assert.Equal(t, int64(23), res.PageEnd)
		assert.Equal(t, "Item 01", res.Records[2].Title())
		assert.True(t, res.HasPrevious())
		assert.False(t, res.HasNext())
	})

	t.Run("page past the end is clamped", func(t *testing.T) {
		q := list_records.NewQuery(seeded(t, 23))

		res, err := q.Execute(ctx, &list_records.Request{Page: 9, Size: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Page)
		assert.Len(t, res.Records, 3)
	})

	t.Run("size bounds", func(t *testing.T) {
		q := list_records.NewQuery(seeded(t, 60))

		res, err := q.Execute(ctx, &list_records.Request{Size: 500})
		require.NoError(t, err)
		assert.Equal(t, list_records.MaxPageSize, res.Size)
		assert.Len(t, res.Records, 50)

		res, err = q.Execute(ctx, &list_records.Request{Page: -4, Size: -1})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Page)
		assert.Equal(t, list_records.DefaultPageSize, res.Size)
	})

	t.Run("empty store", func(t *testing.T) {
		q := list_records.NewQuery(seeded(t, 0))

		res, err := q.Execute(ctx, &list_records.Request{Page: 3})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Page)
		assert.Equal(t, 0, res.TotalPages)
		assert.Empty(t, res.Records)
		assert.Zero(t, res.PageStart)
		assert.Zero(t, res.PageEnd)
		assert.False(t, res.HasNext())
	})
}
