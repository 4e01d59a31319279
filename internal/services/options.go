package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/contracts"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/queries/count_records"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/queries/get_record"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/queries/list_records"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/queries/search_records"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/repo"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/usecases/delete_record"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/usecases/sync_catalog"
	"github.com/light-bringer/catalog-mirror/internal/config"
	"github.com/light-bringer/catalog-mirror/internal/feed"
	"github.com/light-bringer/catalog-mirror/internal/pkg/clock"
	"github.com/light-bringer/catalog-mirror/internal/scheduler"
	"github.com/light-bringer/catalog-mirror/internal/transport/grpc/catalog"
	httphandler "github.com/light-bringer/catalog-mirror/internal/transport/http"
)

// ServiceOptions holds all dependencies for the application.
type ServiceOptions struct {
	Config config.Config
	Logger *slog.Logger
	Clock  clock.Clock

	Store        contracts.Store
	FeedClient   *feed.Client
	SyncCatalog  *sync_catalog.Interactor
	CountRecords *count_records.Query
	Scheduler    *scheduler.Scheduler

	HTTPHandler    *httphandler.Handler
	CatalogHandler *catalog.Handler
}

// StoreOptions maps the configuration onto the backend options.
func StoreOptions(cfg config.Config) repo.Options {
	return repo.Options{
		Driver:           cfg.StoreDriver,
		SQLitePath:       cfg.SQLitePath,
		PostgresDSN:      cfg.PostgresDSN,
		PostgresMaxConns: int32(cfg.PostgresMaxConns),
		SpannerDatabase:  cfg.SpannerDatabase,
	}
}

// FeedOptions maps the configuration onto the feed client options.
func FeedOptions(cfg config.Config) feed.Options {
	return feed.Options{
		URL:       cfg.FeedURL,
		Timeout:   cfg.FetchTimeout,
		UserAgent: cfg.FeedUserAgent,
		MaxPages:  cfg.FeedMaxPages,
		PageLimit: cfg.FeedPageLimit,
		RPS:       cfg.FeedRPS,
	}
}

// NewServiceOptions opens the configured store and wires up all application
// dependencies.
func NewServiceOptions(ctx context.Context, cfg config.Config, logger *slog.Logger) (*ServiceOptions, error) {
	clk := clock.NewRealClock()

	store, err := repo.Open(ctx, StoreOptions(cfg), clk)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s store: %w", cfg.StoreDriver, err)
	}
	return Wire(cfg, logger, clk, store), nil
}

// Wire builds the object graph around an already opened store.
func Wire(cfg config.Config, logger *slog.Logger, clk clock.Clock, store contracts.Store) *ServiceOptions {
	if logger == nil {
		logger = slog.Default()
	}

	// 1. Infrastructure
	feedClient := feed.NewClient(FeedOptions(cfg), logger)

	// 2. Command use cases (write operations)
	syncCatalog := sync_catalog.NewInteractor(feedClient, store, clk, logger, cfg.Capacity)
	deleteRecord := delete_record.NewInteractor(store, logger)

	// 3. Query use cases (read operations)
	getRecord := get_record.NewQuery(store)
	listRecords := list_records.NewQuery(store)
	searchRecords := search_records.NewQuery(store)
	countRecords := count_records.NewQuery(store)

	// 4. Scheduler owns the run guard for every trigger
	sched := scheduler.New(syncCatalog, scheduler.Options{
		Interval:    cfg.SyncInterval,
		Capacity:    cfg.Capacity,
		Logger:      logger,
		HistorySize: cfg.SyncHistory,
		Clock:       clk,
	})

	// 5. Transport handlers
	httpHandler := httphandler.NewHandler(sched, cfg.ManualSyncRPS, getRecord, listRecords, searchRecords, deleteRecord, countRecords, logger)
	catalogHandler := catalog.NewHandler(sched, deleteRecord, getRecord, countRecords)

	return &ServiceOptions{
		Config:         cfg,
		Logger:         logger,
		Clock:          clk,
		Store:          store,
		FeedClient:     feedClient,
		SyncCatalog:    syncCatalog,
		CountRecords:   countRecords,
		Scheduler:      sched,
		HTTPHandler:    httpHandler,
		CatalogHandler: catalogHandler,
	}
}

// Close stops the scheduler and closes the store.
func (s *ServiceOptions) Close() {
	if s.Scheduler != nil {
		s.Scheduler.Stop()
	}
	if s.Store != nil {
		if err := s.Store.Close(); err != nil {
			s.Logger.Error("store_close_failed", "error", err)
		}
	}
}
