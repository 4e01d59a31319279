// Package storetest holds the behaviour every catalog store must share.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/contracts"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
	"github.com/light-bringer/catalog-mirror/internal/pkg/clock"
)

// Factory returns an empty store that takes timestamps from clk.
type Factory func(t *testing.T, clk clock.Clock) contracts.Store

// Epoch is the start time of the mock clock handed to factories.
var Epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// NewRecord builds an unpersisted record with one variant priced at price.
func NewRecord(t *testing.T, externalID int64, title, price string) *domain.CatalogRecord {
	t.Helper()
	m, err := domain.ParseMoney(price)
	require.NoError(t, err)
	vid := externalID * 10
	rec, err := domain.NewCatalogRecord(externalID, title, "handle-"+title, "Category",
		[]domain.Variant{{ExternalID: &vid, Title: "Default", SKU: "SKU", Available: true, Price: m}}, m)
	require.NoError(t, err)
	return rec
}

// Run exercises a store implementation.
func Run(t *testing.T, newStore Factory) {
	ctx := context.Background()

	setup := func(t *testing.T) (contracts.Store, *clock.MockClock) {
		clk := clock.NewMockClock(Epoch)
		s := newStore(t, clk)
		t.Cleanup(func() { _ = s.Close() })
		return s, clk
	}

	t.Run("insert assigns identity and timestamps", func(t *testing.T) {
		s, _ := setup(t)

		stored, err := s.Upsert(ctx, NewRecord(t, 100, "Linen Shirt", "19.99"))
		require.NoError(t, err)
		assert.NotZero(t, stored.LocalID())
		assert.True(t, stored.CreatedAt().Equal(Epoch))
		assert.True(t, stored.UpdatedAt().Equal(Epoch))

		found, err := s.FindByExternalID(ctx, 100)
		require.NoError(t, err)
		assert.Equal(t, stored.LocalID(), found.LocalID())
		assert.Equal(t, "Linen Shirt", found.Title())
		assert.Equal(t, "handle-Linen Shirt", found.Handle())
		assert.Equal(t, "Category", found.Category())
		assert.Equal(t, "19.99", found.Price().String())

		variants := found.Variants()
		require.Len(t, variants, 1)
		require.NotNil(t, variants[0].ExternalID)
		assert.Equal(t, int64(1000), *variants[0].ExternalID)
		assert.Equal(t, "SKU", variants[0].SKU)
		assert.True(t, variants[0].Available)
		assert.Equal(t, "19.99", variants[0].Price.String())
	})

	t.Run("find missing", func(t *testing.T) {
		s, _ := setup(t)

		_, err := s.FindByExternalID(ctx, 404)
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("prices round-trip at price scale", func(t *testing.T) {
		s, _ := setup(t)

		_, err := s.Upsert(ctx, NewRecord(t, 8, "Precise", "1234567890.123449"))
		require.NoError(t, err)

		found, err := s.FindByExternalID(ctx, 8)
		require.NoError(t, err)
		assert.Equal(t, "1234567890.1234", found.Price().DecimalString())
		require.Len(t, found.Variants(), 1)
		assert.Equal(t, "1234567890.1234", found.Variants()[0].Price.DecimalString())
	})

	t.Run("duplicate external id", func(t *testing.T) {
		s, _ := setup(t)

		_, err := s.Upsert(ctx, NewRecord(t, 1, "A", "1"))
		require.NoError(t, err)
		_, err = s.Upsert(ctx, NewRecord(t, 1, "B", "1"))
		assert.ErrorIs(t, err, domain.ErrDuplicateExternalID)
	})

	t.Run("update preserves identity and creation time", func(t *testing.T) {
		s, clk := setup(t)

		first, err := s.Upsert(ctx, NewRecord(t, 5, "Old", "10"))
		require.NoError(t, err)

		clk.Advance(time.Hour)
		updated, err := s.Upsert(ctx, first.WithUpstream(NewRecord(t, 5, "New", "8.5")))
		require.NoError(t, err)
		assert.Equal(t, first.LocalID(), updated.LocalID())
		assert.True(t, updated.CreatedAt().Equal(Epoch))
		assert.True(t, updated.UpdatedAt().Equal(Epoch.Add(time.Hour)))

		found, err := s.GetByID(ctx, first.LocalID())
		require.NoError(t, err)
		assert.Equal(t, "New", found.Title())
		assert.Equal(t, "8.50", found.Price().String())
		assert.True(t, found.CreatedAt().Equal(Epoch))
		assert.True(t, found.UpdatedAt().Equal(Epoch.Add(time.Hour)))

		n, err := s.Count(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("update of deleted record", func(t *testing.T) {
		s, _ := setup(t)

		stored, err := s.Upsert(ctx, NewRecord(t, 9, "Gone", "1"))
		require.NoError(t, err)
		require.NoError(t, s.DeleteByID(ctx, stored.LocalID()))

		_, err = s.Upsert(ctx, stored)
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})

	t.Run("prune keeps most recently updated", func(t *testing.T) {
		s, clk := setup(t)

		ids := make([]int64, 0, 5)
		for i := int64(1); i <= 5; i++ {
			rec, err := s.Upsert(ctx, NewRecord(t, i, "Item", "1"))
			require.NoError(t, err)
			ids = append(ids, rec.LocalID())
			clk.Advance(time.Minute)
		}

		oldest, err := s.GetByID(ctx, ids[0])
		require.NoError(t, err)
		_, err = s.Upsert(ctx, oldest)
		require.NoError(t, err)

		pruned, err := s.PruneToNewest(ctx, 3)
		require.NoError(t, err)
		assert.Equal(t, 2, pruned)

		for _, id := range []int64{ids[0], ids[3], ids[4]} {
			_, err := s.GetByID(ctx, id)
			assert.NoError(t, err, "id %d should survive", id)
		}
		for _, id := range []int64{ids[1], ids[2]} {
			_, err := s.GetByID(ctx, id)
			assert.ErrorIs(t, err, domain.ErrRecordNotFound, "id %d should be pruned", id)
		}
	})

	t.Run("prune breaks ties by local id", func(t *testing.T) {
		s, _ := setup(t)

		ids := make([]int64, 0, 4)
		for i := int64(1); i <= 4; i++ {
			rec, err := s.Upsert(ctx, NewRecord(t, i, "Same", "1"))
			require.NoError(t, err)
			ids = append(ids, rec.LocalID())
		}

		pruned, err := s.PruneToNewest(ctx, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, pruned)

		page, err := s.ListPage(ctx, 0, 10)
		require.NoError(t, err)
		require.Len(t, page.Records, 2)
		assert.Equal(t, ids[3], page.Records[0].LocalID())
		assert.Equal(t, ids[2], page.Records[1].LocalID())
	})

	t.Run("prune under capacity is a no-op", func(t *testing.T) {
		s, _ := setup(t)

		_, err := s.Upsert(ctx, NewRecord(t, 1, "Only", "1"))
		require.NoError(t, err)

		pruned, err := s.PruneToNewest(ctx, 50)
		require.NoError(t, err)
		assert.Zero(t, pruned)

		pruned, err = s.PruneToNewest(ctx, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, pruned)
	})

	t.Run("list pages newest first", func(t *testing.T) {
		s, clk := setup(t)

		for i := int64(1); i <= 5; i++ {
			_, err := s.Upsert(ctx, NewRecord(t, i, "Item", "1"))
			require.NoError(t, err)
			clk.Advance(time.Second)
		}

		page, err := s.ListPage(ctx, 0, 2)
		require.NoError(t, err)
		assert.Equal(t, int64(5), page.TotalCount)
		require.Len(t, page.Records, 2)
		assert.Equal(t, int64(5), page.Records[0].ExternalID())
		assert.Equal(t, int64(4), page.Records[1].ExternalID())

		page, err = s.ListPage(ctx, 4, 2)
		require.NoError(t, err)
		require.Len(t, page.Records, 1)
		assert.Equal(t, int64(1), page.Records[0].ExternalID())

		page, err = s.ListPage(ctx, 10, 2)
		require.NoError(t, err)
		assert.Empty(t, page.Records)
		assert.Equal(t, int64(5), page.TotalCount)
	})

	t.Run("search by title", func(t *testing.T) {
		s, _ := setup(t)

		for i, title := range []string{"Linen Shirt", "WOOL SHIRT", "Trousers", "100% Cotton", "under_score"} {
			_, err := s.Upsert(ctx, NewRecord(t, int64(i+1), title, "1"))
			require.NoError(t, err)
		}

		got, err := s.SearchByTitle(ctx, "shirt")
		require.NoError(t, err)
		assert.Len(t, got, 2)

		got, err = s.SearchByTitle(ctx, "%")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "100% Cotton", got[0].Title())

		got, err = s.SearchByTitle(ctx, "_")
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "under_score", got[0].Title())

		got, err = s.SearchByTitle(ctx, "nothing")
		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("delete", func(t *testing.T) {
		s, _ := setup(t)

		stored, err := s.Upsert(ctx, NewRecord(t, 1, "A", "1"))
		require.NoError(t, err)

		require.NoError(t, s.DeleteByID(ctx, stored.LocalID()))
		assert.ErrorIs(t, s.DeleteByID(ctx, stored.LocalID()), domain.ErrRecordNotFound)

		_, err = s.FindByExternalID(ctx, 1)
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)

		// The external id is free again.
		_, err = s.Upsert(ctx, NewRecord(t, 1, "A", "1"))
		assert.NoError(t, err)
	})
}
