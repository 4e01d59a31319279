package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/contracts"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
	"github.com/light-bringer/catalog-mirror/internal/pkg/clock"
)

// sqliteSchemaVersion is recorded in PRAGMA user_version.
const sqliteSchemaVersion = 1

const sqliteColumns = `local_id, external_id, title, handle, category, price, variants, created_at, updated_at`

// SQLiteStore persists records in a local SQLite file.
type SQLiteStore struct {
	db    *sql.DB
	clock clock.Clock
}

var _ contracts.Store = (*SQLiteStore)(nil)

// OpenSQLite creates or opens the database at path and applies the schema.
func OpenSQLite(path string, clk clock.Clock) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// One connection: SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	s := &SQLiteStore{db: db, clock: clk}
	if err := s.Migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies the embedded schema when the file is older than it.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version >= sqliteSchemaVersion {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", sqliteSchemaVersion)); err != nil {
		return fmt.Errorf("failed to set schema version: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) FindByExternalID(ctx context.Context, externalID int64) (*domain.CatalogRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM catalog_records WHERE external_id = ?`, externalID)
	rec, err := scanSQLiteRecord(row)
	if err != nil {
		return nil, sqliteErr("find record", err)
	}
	return rec, nil
}

func (s *SQLiteStore) Upsert(ctx context.Context, rec *domain.CatalogRecord) (*domain.CatalogRecord, error) {
	variants, err := json.Marshal(rec.Variants())
	if err != nil {
		return nil, fmt.Errorf("failed to encode variants: %w", err)
	}
	now := s.clock.Now()

	if !rec.IsPersisted() {
		res, err := s.db.ExecContext(ctx,
			`INSERT INTO catalog_records (external_id, title, handle, category, price, variants, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ExternalID(), rec.Title(), rec.Handle(), rec.Category(),
			rec.Price().DecimalString(), string(variants), now.UnixNano(), now.UnixNano(),
		)
		if err != nil {
			return nil, sqliteErr("insert record", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("failed to read inserted id: %w", err)
		}
		return rec.Persisted(id, now, now), nil
	}

	var createdAt int64
	err = s.db.QueryRowContext(ctx,
		`UPDATE catalog_records
		 SET external_id = ?, title = ?, handle = ?, category = ?, price = ?, variants = ?, updated_at = ?
		 WHERE local_id = ?
		 RETURNING created_at`,
		rec.ExternalID(), rec.Title(), rec.Handle(), rec.Category(),
		rec.Price().DecimalString(), string(variants), now.UnixNano(), rec.LocalID(),
	).Scan(&createdAt)
	if err != nil {
		return nil, sqliteErr("update record", err)
	}
	return rec.Persisted(rec.LocalID(), fromUnixNano(createdAt), now), nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM catalog_records`).Scan(&n); err != nil {
		return 0, sqliteErr("count records", err)
	}
	return n, nil
}

func (s *SQLiteStore) PruneToNewest(ctx context.Context, n int) (int, error) {
	if n < 0 {
		return 0, domain.ErrInvalidCapacity
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM catalog_records WHERE local_id IN (
		   SELECT local_id FROM catalog_records
		   ORDER BY updated_at DESC, local_id DESC
		   LIMIT -1 OFFSET ?)`, n)
	if err != nil {
		return 0, sqliteErr("prune records", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read pruned count: %w", err)
	}
	return int(deleted), nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, localID int64) (*domain.CatalogRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteColumns+` FROM catalog_records WHERE local_id = ?`, localID)
	rec, err := scanSQLiteRecord(row)
	if err != nil {
		return nil, sqliteErr("get record", err)
	}
	return rec, nil
}

func (s *SQLiteStore) ListPage(ctx context.Context, offset, limit int) (*contracts.Page, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM catalog_records
		 ORDER BY created_at DESC, local_id DESC
		 LIMIT ? OFFSET ?`, limit, max(offset, 0))
	if err != nil {
		return nil, sqliteErr("list records", err)
	}
	records, err := collectSQLiteRecords(rows)
	if err != nil {
		return nil, err
	}
	return &contracts.Page{Records: records, TotalCount: total}, nil
}

func (s *SQLiteStore) SearchByTitle(ctx context.Context, query string) ([]*domain.CatalogRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM catalog_records
		 WHERE LOWER(title) LIKE '%' || LOWER(?) || '%' ESCAPE '\'
		 ORDER BY created_at DESC, local_id DESC`, escapeLike(query))
	if err != nil {
		return nil, sqliteErr("search records", err)
	}
	return collectSQLiteRecords(rows)
}

func (s *SQLiteStore) DeleteByID(ctx context.Context, localID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM catalog_records WHERE local_id = ?`, localID)
	if err != nil {
		return sqliteErr("delete record", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read deleted count: %w", err)
	}
	if n == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteRecord(row rowScanner) (*domain.CatalogRecord, error) {
	var (
		localID, externalID  int64
		title, handle        string
		category, price      string
		variants             string
		createdAt, updatedAt int64
	)
	if err := row.Scan(&localID, &externalID, &title, &handle, &category, &price, &variants, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	return reconstruct(localID, externalID, title, handle, category, price, []byte(variants),
		fromUnixNano(createdAt), fromUnixNano(updatedAt))
}

func collectSQLiteRecords(rows *sql.Rows) ([]*domain.CatalogRecord, error) {
	defer rows.Close()

	out := make([]*domain.CatalogRecord, 0)
	for rows.Next() {
		rec, err := scanSQLiteRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, sqliteErr("iterate records", err)
	}
	return out, nil
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

// sqliteErr maps driver errors onto domain errors.
func sqliteErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrRecordNotFound
	}
	var se sqlite3.Error
	if errors.As(err, &se) {
		switch {
		case se.ExtendedCode == sqlite3.ErrConstraintUnique:
			return fmt.Errorf("failed to %s: %w", op, domain.ErrDuplicateExternalID)
		case se.Code == sqlite3.ErrCantOpen, se.Code == sqlite3.ErrIoErr, se.Code == sqlite3.ErrCorrupt:
			return fmt.Errorf("%w: failed to %s: %w", domain.ErrStoreUnavailable, op, err)
		}
	}
	if errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: failed to %s: %w", domain.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
