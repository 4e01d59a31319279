package repo

import (
	"context"
	"fmt"

	"cloud.google.com/go/spanner"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/contracts"
	"github.com/light-bringer/catalog-mirror/internal/pkg/clock"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverSpanner  = "spanner"
)

// Options selects and configures a backend.
type Options struct {
	Driver           string
	SQLitePath       string
	PostgresDSN      string
	PostgresMaxConns int32
	SpannerDatabase  string
}

// Open connects the configured backend. SQLite applies its schema on open;
// the server backends expect Migrate to have been run.
func Open(ctx context.Context, opts Options, clk clock.Clock) (contracts.Store, error) {
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemoryStore(clk), nil
	case DriverSQLite:
		return OpenSQLite(opts.SQLitePath, clk)
	case DriverPostgres:
		return OpenPostgres(ctx, opts.PostgresDSN, opts.PostgresMaxConns, clk)
	case DriverSpanner:
		client, err := spanner.NewClient(ctx, opts.SpannerDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to create Spanner client: %w", err)
		}
		return NewSpannerStore(client, clk), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}

// Migrate applies the schema for the store's backend.
func Migrate(ctx context.Context, store contracts.Store, opts Options) error {
	switch s := store.(type) {
	case *SQLiteStore:
		return s.Migrate(ctx)
	case *PostgresStore:
		return s.Migrate(ctx)
	case *SpannerStore:
		return MigrateSpanner(ctx, opts.SpannerDatabase)
	default:
		return nil
	}
}
