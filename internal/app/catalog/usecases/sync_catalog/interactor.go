package sync_catalog

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"github.com/google/uuid"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/contracts"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
	"github.com/light-bringer/catalog-mirror/internal/feed"
	"github.com/light-bringer/catalog-mirror/internal/pkg/clock"
)

// maxConsecutiveStoreFailures is the number of unclassified per-item store
// errors in a row after which the store is considered unreachable.
const maxConsecutiveStoreFailures = 3

// Fetcher downloads the raw upstream payload. maxItems is the most items the
// pass will examine; zero still fetches a first page so feed errors surface.
type Fetcher interface {
	Fetch(ctx context.Context, maxItems int) ([]byte, error)
}

// Request labels a sync pass.
type Request struct {
	Trigger domain.Trigger
}

// Interactor handles the sync catalog use case.
type Interactor struct {
	fetcher    Fetcher
	store      contracts.CatalogStore
	normalizer *Normalizer
	clock      clock.Clock
	logger     *slog.Logger
	capacity   int
}

// NewInteractor creates a new sync catalog interactor.
func NewInteractor(
	fetcher Fetcher,
	store contracts.CatalogStore,
	clock clock.Clock,
	logger *slog.Logger,
	capacity int,
) *Interactor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Interactor{
		fetcher:    fetcher,
		store:      store,
		normalizer: NewNormalizer(),
		clock:      clock,
		logger:     logger,
		capacity:   capacity,
	}
}

// Capacity returns the configured record ceiling.
func (i *Interactor) Capacity() int { return i.capacity }

// Execute runs one full pass: fetch, parse, normalise and reconcile.
// Feed failures abort the pass before anything is written.
func (i *Interactor) Execute(ctx context.Context, req *Request) (*domain.SyncReport, error) {
	if i.capacity < 0 {
		return nil, domain.ErrInvalidCapacity
	}
	trigger := domain.TriggerManual
	if req != nil && req.Trigger != "" {
		trigger = req.Trigger
	}
	startedAt := i.clock.Now()
	logger := i.logger.With("trigger", string(trigger))

	payload, err := i.fetcher.Fetch(ctx, i.capacity)
	if err != nil {
		logger.Error("sync_failed", "stage", "fetch", "error", err)
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}

	fb, err := feed.Parse(payload)
	if err != nil {
		logger.Error("sync_failed", "stage", "parse", "error", err)
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	// Reconciliation is not interrupted once it starts.
	report, err := i.reconcile(context.WithoutCancel(ctx), i.normalizer.Batch(fb), i.capacity, trigger, logger)
	if report != nil {
		report.StartedAt = startedAt
	}
	return report, err
}

// Reconcile applies a normalised batch to the store under the capacity
// ceiling and prunes the store down to capacity.
func (i *Interactor) Reconcile(ctx context.Context, batch Batch, capacity int) (*domain.SyncReport, error) {
	return i.reconcile(ctx, batch, capacity, domain.TriggerManual, i.logger)
}

func (i *Interactor) reconcile(
	ctx context.Context,
	batch Batch,
	capacity int,
	trigger domain.Trigger,
	logger *slog.Logger,
) (*domain.SyncReport, error) {
	if capacity < 0 {
		return nil, domain.ErrInvalidCapacity
	}

	report := &domain.SyncReport{
		RunID:     uuid.New().String(),
		Trigger:   trigger,
		Capacity:  capacity,
		Received:  batch.Total,
		StartedAt: i.clock.Now(),
	}
	logger = logger.With("run_id", report.RunID)
	logger.Info("sync_started", "received", batch.Total, "capacity", capacity)

	count, err := i.store.Count(ctx)
	if err != nil {
		return i.fail(report, logger, fmt.Errorf("%w: failed to count records: %w", domain.ErrStoreUnavailable, err))
	}
	slots := int64(capacity) - count
	if slots < 0 {
		slots = 0
	}

	consecutive := 0
	for cand := range take(batch.Candidates, capacity) {
		report.Examined++
		report.PriceWarnings += cand.PriceWarnings

		if cand.Rejected() {
			report.SkippedInvalid++
			logger.Debug("item_rejected", "index", cand.Index, "reason", cand.Reason)
			continue
		}

		err := i.apply(ctx, cand.Record, &slots, report)
		if err == nil {
			consecutive = 0
			continue
		}

		report.SkippedInvalid++
		logger.Warn("item_store_failed", "index", cand.Index, "external_id", cand.ExternalID, "error", err)

		if errors.Is(err, domain.ErrStoreUnavailable) {
			return i.fail(report, logger, fmt.Errorf("aborting pass: %w", err))
		}
		// The store answered; the item itself was refused.
		if isItemError(err) {
			consecutive = 0
			continue
		}
		consecutive++
		if consecutive >= maxConsecutiveStoreFailures {
			return i.fail(report, logger, fmt.Errorf("%w: %d consecutive store failures: %w", domain.ErrStoreUnavailable, consecutive, err))
		}
	}

	if unexamined := report.Unexamined(); unexamined > 0 {
		report.SkippedAtCapacity += unexamined
	}

	pruned, err := i.store.PruneToNewest(ctx, capacity)
	if err != nil {
		return i.fail(report, logger, fmt.Errorf("failed to prune store: %w", err))
	}
	report.Pruned = pruned

	final, err := i.store.Count(ctx)
	if err != nil {
		return i.fail(report, logger, fmt.Errorf("failed to count records: %w", err))
	}
	report.FinalCount = final
	report.FinishedAt = i.clock.Now()

	logger.Info("sync_completed",
		"examined", report.Examined,
		"inserted", report.Inserted,
		"updated", report.Updated,
		"skipped_invalid", report.SkippedInvalid,
		"skipped_at_capacity", report.SkippedAtCapacity,
		"price_warnings", report.PriceWarnings,
		"pruned", report.Pruned,
		"final_count", report.FinalCount,
	)
	return report, nil
}

// apply updates an existing record or inserts a new one when a slot is free.
func (i *Interactor) apply(ctx context.Context, rec *domain.CatalogRecord, slots *int64, report *domain.SyncReport) error {
	existing, err := i.store.FindByExternalID(ctx, rec.ExternalID())
	switch {
	case err == nil:
		if _, err := i.store.Upsert(ctx, existing.WithUpstream(rec)); err != nil {
			return fmt.Errorf("failed to update record %d: %w", rec.ExternalID(), err)
		}
		report.Updated++
		return nil

	case errors.Is(err, domain.ErrRecordNotFound):
		if *slots <= 0 {
			report.SkippedAtCapacity++
			return nil
		}
		if _, err := i.store.Upsert(ctx, rec); err != nil {
			return fmt.Errorf("failed to insert record %d: %w", rec.ExternalID(), err)
		}
		*slots--
		report.Inserted++
		return nil

	default:
		return fmt.Errorf("failed to look up record %d: %w", rec.ExternalID(), err)
	}
}

func (i *Interactor) fail(report *domain.SyncReport, logger *slog.Logger, err error) (*domain.SyncReport, error) {
	report.FinishedAt = i.clock.Now()
	logger.Error("sync_failed",
		"examined", report.Examined,
		"inserted", report.Inserted,
		"updated", report.Updated,
		"error", err,
	)
	return report, err
}

// isItemError reports whether a per-item store error was caused by the
// record's data rather than by the store.
func isItemError(err error) bool {
	return errors.Is(err, domain.ErrDuplicateExternalID) ||
		errors.Is(err, domain.ErrRecordNotFound) ||
		errors.Is(err, domain.ErrPriceOutOfRange) ||
		errors.Is(err, domain.ErrNegativePrice)
}

// take yields at most n values and stops pulling from seq once it has.
func take[T any](seq iter.Seq[T], n int) iter.Seq[T] {
	return func(yield func(T) bool) {
		if n <= 0 {
			return
		}
		seen := 0
		for v := range seq {
			if !yield(v) {
				return
			}
			seen++
			if seen >= n {
				return
			}
		}
	}
}
