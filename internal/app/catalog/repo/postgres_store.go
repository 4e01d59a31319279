package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/contracts"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
	"github.com/light-bringer/catalog-mirror/internal/pkg/clock"
)

const pgColumns = `local_id, external_id, title, handle, category, price::text, variants, created_at, updated_at`

const pgUniqueViolation = "23505"

// PostgresStore persists records in PostgreSQL.
type PostgresStore struct {
	pool  *pgxpool.Pool
	clock clock.Clock
}

var _ contracts.Store = (*PostgresStore)(nil)

// OpenPostgres connects a pool to dsn.
func OpenPostgres(ctx context.Context, dsn string, maxConns int32, clk clock.Clock) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: failed to ping postgres: %w", domain.ErrStoreUnavailable, err)
	}
	return NewPostgresStore(pool, clk), nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool, clk clock.Clock) *PostgresStore {
	return &PostgresStore{pool: pool, clock: clk}
}

// Migrate creates the table and indexes if missing.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Truncate removes every record and restarts local id allocation.
func (s *PostgresStore) Truncate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE catalog_records RESTART IDENTITY`); err != nil {
		return pgErr("truncate", err)
	}
	return nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) FindByExternalID(ctx context.Context, externalID int64) (*domain.CatalogRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgColumns+` FROM catalog_records WHERE external_id = $1`, externalID)
	rec, err := scanPgRecord(row)
	if err != nil {
		return nil, pgErr("find record", err)
	}
	return rec, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, rec *domain.CatalogRecord) (*domain.CatalogRecord, error) {
	variants, err := json.Marshal(rec.Variants())
	if err != nil {
		return nil, fmt.Errorf("failed to encode variants: %w", err)
	}
	now := s.clock.Now()

	if !rec.IsPersisted() {
		var id int64
		err := s.pool.QueryRow(ctx,
			`INSERT INTO catalog_records (external_id, title, handle, category, price, variants, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5::numeric, $6::jsonb, $7, $7)
			 RETURNING local_id`,
			rec.ExternalID(), rec.Title(), rec.Handle(), rec.Category(),
			rec.Price().DecimalString(), string(variants), now,
		).Scan(&id)
		if err != nil {
			return nil, pgErr("insert record", err)
		}
		return rec.Persisted(id, now, now), nil
	}

	var createdAt time.Time
	err = s.pool.QueryRow(ctx,
		`UPDATE catalog_records
		 SET external_id = $2, title = $3, handle = $4, category = $5,
		     price = $6::numeric, variants = $7::jsonb, updated_at = $8
		 WHERE local_id = $1
		 RETURNING created_at`,
		rec.LocalID(), rec.ExternalID(), rec.Title(), rec.Handle(), rec.Category(),
		rec.Price().DecimalString(), string(variants), now,
	).Scan(&createdAt)
	if err != nil {
		return nil, pgErr("update record", err)
	}
	return rec.Persisted(rec.LocalID(), createdAt.UTC(), now), nil
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM catalog_records`).Scan(&n); err != nil {
		return 0, pgErr("count records", err)
	}
	return n, nil
}

func (s *PostgresStore) PruneToNewest(ctx context.Context, n int) (int, error) {
	if n < 0 {
		return 0, domain.ErrInvalidCapacity
	}
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM catalog_records WHERE local_id IN (
		   SELECT local_id FROM catalog_records
		   ORDER BY updated_at DESC, local_id DESC
		   OFFSET $1)`, n)
	if err != nil {
		return 0, pgErr("prune records", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) GetByID(ctx context.Context, localID int64) (*domain.CatalogRecord, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+pgColumns+` FROM catalog_records WHERE local_id = $1`, localID)
	rec, err := scanPgRecord(row)
	if err != nil {
		return nil, pgErr("get record", err)
	}
	return rec, nil
}

func (s *PostgresStore) ListPage(ctx context.Context, offset, limit int) (*contracts.Page, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	var limitArg any
	if limit > 0 {
		limitArg = limit
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgColumns+` FROM catalog_records
		 ORDER BY created_at DESC, local_id DESC
		 LIMIT $1 OFFSET $2`, limitArg, max(offset, 0))
	if err != nil {
		return nil, pgErr("list records", err)
	}
	records, err := collectPgRecords(rows)
	if err != nil {
		return nil, err
	}
	return &contracts.Page{Records: records, TotalCount: total}, nil
}

func (s *PostgresStore) SearchByTitle(ctx context.Context, query string) ([]*domain.CatalogRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgColumns+` FROM catalog_records
		 WHERE title ILIKE '%' || $1 || '%' ESCAPE '\'
		 ORDER BY created_at DESC, local_id DESC`, escapeLike(query))
	if err != nil {
		return nil, pgErr("search records", err)
	}
	return collectPgRecords(rows)
}

func (s *PostgresStore) DeleteByID(ctx context.Context, localID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM catalog_records WHERE local_id = $1`, localID)
	if err != nil {
		return pgErr("delete record", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

func scanPgRecord(row pgx.Row) (*domain.CatalogRecord, error) {
	var (
		localID, externalID int64
		title, handle       string
		category, price     string
		variants            []byte
		createdAt           time.Time
		updatedAt           time.Time
	)
	if err := row.Scan(&localID, &externalID, &title, &handle, &category, &price, &variants, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return reconstruct(localID, externalID, title, handle, category, price, variants, createdAt.UTC(), updatedAt.UTC())
}

func collectPgRecords(rows pgx.Rows) ([]*domain.CatalogRecord, error) {
	defer rows.Close()

	out := make([]*domain.CatalogRecord, 0)
	for rows.Next() {
		rec, err := scanPgRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, pgErr("iterate records", err)
	}
	return out, nil
}

// pgErr maps driver errors onto domain errors.
func pgErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrRecordNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("failed to %s: %w", op, domain.ErrDuplicateExternalID)
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: failed to %s: %w", domain.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
