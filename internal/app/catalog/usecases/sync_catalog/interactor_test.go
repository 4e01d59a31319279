package sync_catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/contracts"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/repo"
	"github.com/light-bringer/catalog-mirror/internal/feed"
	"github.com/light-bringer/catalog-mirror/internal/pkg/clock"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type stubFetcher struct {
	payload  []byte
	err      error
	maxItems []int
}

func (f *stubFetcher) Fetch(_ context.Context, maxItems int) ([]byte, error) {
	f.maxItems = append(f.maxItems, maxItems)
	return f.payload, f.err
}

// spyStore records prune calls and can fail chosen upserts.
type spyStore struct {
	contracts.CatalogStore
	pruneCalls []int
	failUpsert func(rec *domain.CatalogRecord) error
}

func (s *spyStore) Upsert(ctx context.Context, rec *domain.CatalogRecord) (*domain.CatalogRecord, error) {
	if s.failUpsert != nil {
		if err := s.failUpsert(rec); err != nil {
			return nil, err
		}
	}
	return s.CatalogStore.Upsert(ctx, rec)
}

func (s *spyStore) PruneToNewest(ctx context.Context, n int) (int, error) {
	s.pruneCalls = append(s.pruneCalls, n)
	return s.CatalogStore.PruneToNewest(ctx, n)
}

func product(id int64, title string, prices ...string) map[string]any {
	variants := make([]map[string]any, 0, len(prices))
	for i, p := range prices {
		variants = append(variants, map[string]any{"id": id*100 + int64(i), "title": "v", "price": p, "available": true})
	}
	return map[string]any{
		"id":           id,
		"title":        title,
		"handle":       fmt.Sprintf("handle-%d", id),
		"product_type": "Type",
		"variants":     variants,
	}
}

func feedOf(t *testing.T, items ...map[string]any) []byte {
	t.Helper()
	if items == nil {
		items = []map[string]any{}
	}
	payload, err := json.Marshal(map[string]any{"products": items})
	require.NoError(t, err)
	return payload
}

func rangeFeed(t *testing.T, from, to int64) []byte {
	t.Helper()
	items := make([]map[string]any, 0, to-from+1)
	for id := from; id <= to; id++ {
		items = append(items, product(id, fmt.Sprintf("Product %d", id), "10.00"))
	}
	return feedOf(t, items...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store   *repo.MemoryStore
	spy     *spyStore
	clock   *clock.MockClock
	fetcher *stubFetcher
	sync    *Interactor
}

func newFixture(t *testing.T, capacity int) *fixture {
	t.Helper()
	clk := clock.NewMockClock(epoch)
	store := repo.NewMemoryStore(clk)
	spy := &spyStore{CatalogStore: store}
	fetcher := &stubFetcher{}
	return &fixture{
		store:   store,
		spy:     spy,
		clock:   clk,
		fetcher: fetcher,
		sync:    NewInteractor(fetcher, spy, clk, quietLogger(), capacity),
	}
}

func (f *fixture) run(t *testing.T, payload []byte) *domain.SyncReport {
	t.Helper()
	f.fetcher.payload = payload
	report, err := f.sync.Execute(context.Background(), &Request{Trigger: domain.TriggerScheduled})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	return report
}

func (f *fixture) seed(t *testing.T, from, to int64) {
	t.Helper()
	for id := from; id <= to; id++ {
		rec, err := domain.NewCatalogRecord(id, fmt.Sprintf("Seed %d", id), fmt.Sprintf("seed-%d", id), "", nil, nil)
		require.NoError(t, err)
		_, err = f.store.Upsert(context.Background(), rec)
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}
}

func (f *fixture) count(t *testing.T) int64 {
	t.Helper()
	n, err := f.store.Count(context.Background())
	require.NoError(t, err)
	return n
}

func TestExecute_Idempotent(t *testing.T) {
	f := newFixture(t, 50)
	payload := rangeFeed(t, 1, 10)

	first := f.run(t, payload)
	assert.Equal(t, 10, first.Inserted)
	assert.Equal(t, 0, first.Updated)
	assert.Equal(t, domain.TriggerScheduled, first.Trigger)

	before, err := f.store.FindByExternalID(context.Background(), 3)
	require.NoError(t, err)

	second := f.run(t, payload)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 10, second.Updated)
	assert.Equal(t, 0, second.Pruned)
	assert.Equal(t, int64(10), second.FinalCount)
	assert.NotEqual(t, first.RunID, second.RunID)

	after, err := f.store.FindByExternalID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, before.LocalID(), after.LocalID())
	assert.Equal(t, before.Title(), after.Title())
	assert.Equal(t, before.CreatedAt(), after.CreatedAt())
	assert.True(t, after.UpdatedAt().After(before.UpdatedAt()))
}

func TestExecute_IdempotentOverCapacityFeed(t *testing.T) {
	f := newFixture(t, 50)
	payload := rangeFeed(t, 1, 80)

	f.run(t, payload)
	again := f.run(t, payload)

	assert.Equal(t, 0, again.Inserted)
	assert.Equal(t, 50, again.Updated)
	assert.Equal(t, 0, again.Pruned)
	assert.Equal(t, int64(50), again.FinalCount)
}

func TestExecute_CapacityConservation(t *testing.T) {
	for _, capacity := range []int{0, 1, 10, 50} {
		for _, feedSize := range []int64{0, 5, 50, 55, 120} {
			for _, seeded := range []int64{0, 30, 70} {
				name := fmt.Sprintf("cap=%d/feed=%d/seeded=%d", capacity, feedSize, seeded)
				t.Run(name, func(t *testing.T) {
					f := newFixture(t, capacity)
					f.seed(t, 10_000, 10_000+seeded-1)

					report := f.run(t, rangeFeed(t, 1, feedSize))
					assert.LessOrEqual(t, report.FinalCount, int64(capacity))
					assert.LessOrEqual(t, f.count(t), int64(capacity))
					assert.LessOrEqual(t, report.Examined, capacity)
					assert.Equal(t, report.Examined,
						report.Inserted+report.Updated+report.SkippedInvalid+report.SkippedAtCapacity-report.Unexamined())
				})
			}
		}
	}
}

func TestExecute_InsertionCap(t *testing.T) {
	f := newFixture(t, 50)

	report := f.run(t, rangeFeed(t, 1, 55))
	assert.Equal(t, 55, report.Received)
	assert.Equal(t, 50, report.Examined)
	assert.Equal(t, 50, report.Inserted)
	assert.GreaterOrEqual(t, report.SkippedAtCapacity, 5)
	assert.Equal(t, 5, report.Unexamined())
	assert.Equal(t, []int{50}, f.spy.pruneCalls)
	assert.Equal(t, int64(50), report.FinalCount)

	_, err := f.store.FindByExternalID(context.Background(), 51)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestExecute_UpdatePrecedence(t *testing.T) {
	f := newFixture(t, 50)
	f.seed(t, 1, 50)

	original, err := f.store.FindByExternalID(context.Background(), 1)
	require.NoError(t, err)

	items := []map[string]any{product(1, "Renamed", "5.00")}
	for id := int64(100); id < 110; id++ {
		items = append(items, product(id, "New", "1.00"))
	}
	report := f.run(t, feedOf(t, items...))

	assert.Equal(t, 1, report.Updated)
	assert.Equal(t, 0, report.Inserted)
	assert.Equal(t, 10, report.SkippedAtCapacity)
	assert.Equal(t, 0, report.Pruned)
	assert.Equal(t, int64(50), report.FinalCount)

	updated, err := f.store.FindByExternalID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title())
	assert.Equal(t, "5.00", updated.Price().String())
	assert.Equal(t, original.LocalID(), updated.LocalID())
	assert.Equal(t, original.CreatedAt(), updated.CreatedAt())
}

func TestExecute_UpdatesDoNotConsumeSlots(t *testing.T) {
	f := newFixture(t, 3)
	f.seed(t, 1, 2)

	report := f.run(t, feedOf(t, product(1, "a", "1"), product(2, "b", "1"), product(3, "c", "1")))
	assert.Equal(t, 2, report.Updated)
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 0, report.SkippedAtCapacity)
	assert.Equal(t, int64(3), report.FinalCount)
}

func TestExecute_Rejection(t *testing.T) {
	f := newFixture(t, 50)

	items := []map[string]any{
		product(1, "Good", "1"),
		{"id": 2, "handle": "no-title"},
		product(3, "", "1"),
	}
	report := f.run(t, feedOf(t, items...))

	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 2, report.SkippedInvalid)
	assert.Equal(t, int64(1), report.FinalCount)

	_, err := f.store.FindByExternalID(context.Background(), 2)
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)
}

func TestExecute_PriceDerivation(t *testing.T) {
	f := newFixture(t, 50)

	report := f.run(t, feedOf(t, product(1, "Mixed", "12.50", "9.99", "bad"), product(2, "Bare")))
	assert.Equal(t, 1, report.PriceWarnings)

	mixed, err := f.store.FindByExternalID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "9.99", mixed.Price().String())
	assert.Len(t, mixed.Variants(), 3)

	bare, err := f.store.FindByExternalID(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, bare.Price().IsZero())
}

func TestExecute_PrunesOverCapacityStore(t *testing.T) {
	f := newFixture(t, 50)
	f.seed(t, 1, 60)

	report := f.run(t, feedOf(t))
	assert.Equal(t, 10, report.Pruned)
	assert.Equal(t, int64(50), report.FinalCount)

	for id := int64(1); id <= 10; id++ {
		_, err := f.store.FindByExternalID(context.Background(), id)
		assert.ErrorIs(t, err, domain.ErrRecordNotFound, "oldest record %d should be pruned", id)
	}
	_, err := f.store.FindByExternalID(context.Background(), 11)
	assert.NoError(t, err)
}

func TestExecute_FeedFailuresLeaveStoreUntouched(t *testing.T) {
	t.Run("transport", func(t *testing.T) {
		f := newFixture(t, 50)
		f.seed(t, 1, 60)
		f.fetcher.err = fmt.Errorf("%w: connection refused", feed.ErrTransport)

		report, err := f.sync.Execute(context.Background(), &Request{})
		assert.ErrorIs(t, err, feed.ErrTransport)
		assert.Nil(t, report)
		assert.Empty(t, f.spy.pruneCalls)
		assert.Equal(t, int64(60), f.count(t))
	})

	t.Run("malformed", func(t *testing.T) {
		f := newFixture(t, 50)
		f.seed(t, 1, 60)
		f.fetcher.payload = []byte(`{"items":[]}`)

		_, err := f.sync.Execute(context.Background(), &Request{})
		assert.ErrorIs(t, err, feed.ErrMalformedFeed)
		assert.Empty(t, f.spy.pruneCalls)
		assert.Equal(t, int64(60), f.count(t))
	})
}

func TestExecute_StoreFailureIsolated(t *testing.T) {
	f := newFixture(t, 50)
	f.spy.failUpsert = func(rec *domain.CatalogRecord) error {
		if rec.ExternalID() == 2 {
			return errors.New("constraint violated")
		}
		return nil
	}

	report := f.run(t, rangeFeed(t, 1, 4))
	assert.Equal(t, 3, report.Inserted)
	assert.Equal(t, 1, report.SkippedInvalid)
	assert.Equal(t, int64(3), report.FinalCount)
}

func TestExecute_FailedInsertKeepsSlot(t *testing.T) {
	f := newFixture(t, 2)
	f.spy.failUpsert = func(rec *domain.CatalogRecord) error {
		if rec.ExternalID() == 1 {
			return errors.New("boom")
		}
		return nil
	}

	report := f.run(t, rangeFeed(t, 1, 3))
	assert.Equal(t, 1, report.Inserted)
	assert.Equal(t, 1, report.SkippedInvalid)
	assert.Equal(t, 1, report.SkippedAtCapacity, "only the unexamined third item")
}

func TestExecute_StoreUnavailableAborts(t *testing.T) {
	t.Run("unavailable error", func(t *testing.T) {
		f := newFixture(t, 50)
		f.spy.failUpsert = func(*domain.CatalogRecord) error {
			return fmt.Errorf("%w: connection reset", domain.ErrStoreUnavailable)
		}
		f.fetcher.payload = rangeFeed(t, 1, 5)

		report, err := f.sync.Execute(context.Background(), &Request{})
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		require.NotNil(t, report)
		assert.Equal(t, 1, report.Examined)
		assert.Empty(t, f.spy.pruneCalls)
	})

	t.Run("consecutive failures", func(t *testing.T) {
		f := newFixture(t, 50)
		f.spy.failUpsert = func(*domain.CatalogRecord) error { return errors.New("timeout") }
		f.fetcher.payload = rangeFeed(t, 1, 10)

		report, err := f.sync.Execute(context.Background(), &Request{})
		assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
		assert.Equal(t, maxConsecutiveStoreFailures, report.Examined)
		assert.Empty(t, f.spy.pruneCalls)
	})
}

func TestExecute_ItemErrorsDoNotAbort(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"duplicate external id", domain.ErrDuplicateExternalID},
		{"record vanished", domain.ErrRecordNotFound},
		{"price out of range", domain.ErrPriceOutOfRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, 50)
			f.spy.failUpsert = func(rec *domain.CatalogRecord) error {
				if rec.ExternalID() <= 5 {
					return fmt.Errorf("failed to insert record %d: %w", rec.ExternalID(), tt.err)
				}
				return nil
			}

			report := f.run(t, rangeFeed(t, 1, 8))
			assert.Equal(t, 8, report.Examined)
			assert.Equal(t, 5, report.SkippedInvalid)
			assert.Equal(t, 3, report.Inserted)
			assert.Equal(t, []int{50}, f.spy.pruneCalls)
		})
	}

	t.Run("item error breaks a failure streak", func(t *testing.T) {
		f := newFixture(t, 50)
		f.spy.failUpsert = func(rec *domain.CatalogRecord) error {
			switch rec.ExternalID() {
			case 1, 2, 4, 5:
				return errors.New("timeout")
			case 3:
				return domain.ErrDuplicateExternalID
			}
			return nil
		}

		report := f.run(t, rangeFeed(t, 1, 6))
		assert.Equal(t, 6, report.Examined)
		assert.Equal(t, 5, report.SkippedInvalid)
		assert.Equal(t, 1, report.Inserted)
	})
}

func TestExecute_CancelledContextStillReconciles(t *testing.T) {
	f := newFixture(t, 50)
	f.fetcher.payload = rangeFeed(t, 1, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := f.sync.Execute(ctx, &Request{})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Inserted)
}

func TestExecute_NegativeCapacity(t *testing.T) {
	f := newFixture(t, -1)
	_, err := f.sync.Execute(context.Background(), &Request{})
	assert.ErrorIs(t, err, domain.ErrInvalidCapacity)
}

func TestReconcile_StopsPullingAtCap(t *testing.T) {
	f := newFixture(t, 2)

	pulled := 0
	batch := Batch{
		Total: 5,
		Candidates: func(yield func(Candidate) bool) {
			for id := int64(1); id <= 5; id++ {
				pulled++
				rec, err := domain.NewCatalogRecord(id, "t", "h", "", nil, nil)
				require.NoError(t, err)
				if !yield(Candidate{ExternalID: id, Record: rec}) {
					return
				}
			}
		},
	}

	report, err := f.sync.Reconcile(context.Background(), batch, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, pulled)
	assert.Equal(t, 2, report.Examined)
	assert.Equal(t, 3, report.SkippedAtCapacity)
}

func TestExecute_FetchesAtMostCapacity(t *testing.T) {
	for _, capacity := range []int{0, 3, 50} {
		t.Run(fmt.Sprint(capacity), func(t *testing.T) {
			f := newFixture(t, capacity)
			f.run(t, rangeFeed(t, 1, 5))
			assert.Equal(t, []int{capacity}, f.fetcher.maxItems)
		})
	}
}

func TestReconcile_ZeroCapacityEmptiesStore(t *testing.T) {
	f := newFixture(t, 0)
	f.seed(t, 1, 4)

	report, err := f.sync.Reconcile(context.Background(), Batch{Total: 0, Candidates: func(func(Candidate) bool) {}}, 0)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Pruned)
	assert.Equal(t, int64(0), report.FinalCount)
}

func TestSyncReport_SummaryGolden(t *testing.T) {
	f := newFixture(t, 50)

	items := make([]map[string]any, 0, 55)
	for id := int64(1); id <= 55; id++ {
		switch id {
		case 3:
			items = append(items, product(id, "   ", "1.00"))
		case 5:
			items = append(items, product(id, "Odd Price", "bad", "4.00"))
		default:
			items = append(items, product(id, fmt.Sprintf("Product %d", id), "10.00"))
		}
	}
	fb, err := feed.Parse(feedOf(t, items...))
	require.NoError(t, err)

	report, err := f.sync.Reconcile(context.Background(), NewNormalizer().Batch(fb), 50)
	require.NoError(t, err)
	report.RunID = "00000000-0000-0000-0000-000000000000"

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "sync_report_summary", []byte(report.Summary()))
}
