package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"cloud.google.com/go/spanner"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/contracts"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
	"github.com/light-bringer/catalog-mirror/internal/models/m_catalog"
	"github.com/light-bringer/catalog-mirror/internal/pkg/clock"
	"github.com/light-bringer/catalog-mirror/internal/pkg/committer"
	"github.com/light-bringer/catalog-mirror/internal/pkg/query"
)

// SpannerStore persists records in Cloud Spanner.
type SpannerStore struct {
	client    *spanner.Client
	committer *committer.Committer
	model     *m_catalog.Model
	clock     clock.Clock
}

var _ contracts.Store = (*SpannerStore)(nil)

// NewSpannerStore creates a store on an existing client.
func NewSpannerStore(client *spanner.Client, clk clock.Clock) *SpannerStore {
	return &SpannerStore{
		client:    client,
		committer: committer.NewCommitter(client),
		model:     m_catalog.NewModel(),
		clock:     clk,
	}
}

// Close closes the client.
func (s *SpannerStore) Close() error {
	s.client.Close()
	return nil
}

func (s *SpannerStore) FindByExternalID(ctx context.Context, externalID int64) (*domain.CatalogRecord, error) {
	stmt := query.From(m_catalog.TableName).
		Select(m_catalog.Columns()...).
		Where(query.Eq(m_catalog.ExternalID, externalID)).
		Limit(1).
		Build()

	records, err := s.queryRecords(ctx, s.client.Single(), stmt)
	if err != nil {
		return nil, spannerErr("find record", err)
	}
	if len(records) == 0 {
		return nil, domain.ErrRecordNotFound
	}
	return records[0], nil
}

func (s *SpannerStore) Upsert(ctx context.Context, rec *domain.CatalogRecord) (*domain.CatalogRecord, error) {
	variants, err := json.Marshal(rec.Variants())
	if err != nil {
		return nil, fmt.Errorf("failed to encode variants: %w", err)
	}

	var stored *domain.CatalogRecord
	err = s.committer.ApplyWithReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		now := s.clock.Now()
		plan := committer.NewPlan()

		if !rec.IsPersisted() {
			nextID, err := s.nextLocalID(ctx, txn)
			if err != nil {
				return err
			}
			plan.Add(s.model.InsertMut(&m_catalog.Data{
				LocalID:    nextID,
				ExternalID: rec.ExternalID(),
				Title:      rec.Title(),
				Handle:     rec.Handle(),
				Category:   rec.Category(),
				Price:      *rec.Price().Rat(),
				Variants:   string(variants),
				CreatedAt:  now,
				UpdatedAt:  now,
			}))
			stored = rec.Persisted(nextID, now, now)
			return committer.BufferPlan(txn, plan)
		}

		row, err := txn.ReadRow(ctx, m_catalog.TableName, spanner.Key{rec.LocalID()}, []string{m_catalog.CreatedAt})
		if err != nil {
			return err
		}
		var createdAt spanner.NullTime
		if err := row.Column(0, &createdAt); err != nil {
			return err
		}

		plan.Add(s.model.UpdateMut(rec.LocalID(), map[string]interface{}{
			m_catalog.ExternalID: rec.ExternalID(),
			m_catalog.Title:      rec.Title(),
			m_catalog.Handle:     rec.Handle(),
			m_catalog.Category:   rec.Category(),
			m_catalog.Price:      rec.Price().Rat(),
			m_catalog.Variants:   string(variants),
			m_catalog.UpdatedAt:  now,
		}))
		stored = rec.Persisted(rec.LocalID(), createdAt.Time.UTC(), now)
		return committer.BufferPlan(txn, plan)
	})
	if err != nil {
		return nil, spannerErr("upsert record", err)
	}
	return stored, nil
}

func (s *SpannerStore) nextLocalID(ctx context.Context, txn *spanner.ReadWriteTransaction) (int64, error) {
	iter := txn.Query(ctx, spanner.Statement{
		SQL: fmt.Sprintf("SELECT COALESCE(MAX(%s), 0) FROM %s", m_catalog.LocalID, m_catalog.TableName),
	})
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		return 0, err
	}
	var maxID int64
	if err := row.Column(0, &maxID); err != nil {
		return 0, err
	}
	return maxID + 1, nil
}

func (s *SpannerStore) Count(ctx context.Context) (int64, error) {
	stmt := query.From(m_catalog.TableName).Count().Build()
	n, err := s.count(ctx, stmt)
	if err != nil {
		return 0, spannerErr("count records", err)
	}
	return n, nil
}

func (s *SpannerStore) count(ctx context.Context, stmt spanner.Statement) (int64, error) {
	iter := s.client.Single().Query(ctx, stmt)
	defer iter.Stop()

	row, err := iter.Next()
	if err != nil {
		return 0, err
	}
	var n int64
	if err := row.Column(0, &n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SpannerStore) PruneToNewest(ctx context.Context, n int) (int, error) {
	if n < 0 {
		return 0, domain.ErrInvalidCapacity
	}

	stmt := query.From(m_catalog.TableName).
		Select(m_catalog.LocalID).
		OrderBy(m_catalog.UpdatedAt, query.Desc).
		OrderBy(m_catalog.LocalID, query.Desc).
		Build()

	deleted := 0
	err := s.committer.ApplyWithReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		deleted = 0
		plan := committer.NewPlan()

		iter := txn.Query(ctx, stmt)
		defer iter.Stop()

		position := 0
		for {
			row, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				return err
			}
			position++
			if position <= n {
				continue
			}
			var localID int64
			if err := row.Column(0, &localID); err != nil {
				return err
			}
			plan.Add(s.model.DeleteMut(localID))
		}

		deleted = plan.Count()
		return committer.BufferPlan(txn, plan)
	})
	if err != nil {
		return 0, spannerErr("prune records", err)
	}
	return deleted, nil
}

func (s *SpannerStore) GetByID(ctx context.Context, localID int64) (*domain.CatalogRecord, error) {
	row, err := s.client.Single().ReadRow(ctx, m_catalog.TableName, spanner.Key{localID}, m_catalog.Columns())
	if err != nil {
		return nil, spannerErr("get record", err)
	}
	return rowToRecord(row)
}

func (s *SpannerStore) ListPage(ctx context.Context, offset, limit int) (*contracts.Page, error) {
	total, err := s.Count(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = math.MaxInt32
	}

	stmt := query.From(m_catalog.TableName).
		Select(m_catalog.Columns()...).
		OrderBy(m_catalog.CreatedAt, query.Desc).
		OrderBy(m_catalog.LocalID, query.Desc).
		Limit(int64(limit)).
		Offset(int64(max(offset, 0))).
		Build()

	records, err := s.queryRecords(ctx, s.client.Single(), stmt)
	if err != nil {
		return nil, spannerErr("list records", err)
	}
	return &contracts.Page{Records: records, TotalCount: total}, nil
}

func (s *SpannerStore) SearchByTitle(ctx context.Context, q string) ([]*domain.CatalogRecord, error) {
	stmt := query.From(m_catalog.TableName).
		Select(m_catalog.Columns()...).
		Where(query.ContainsFold(m_catalog.Title, q)).
		OrderBy(m_catalog.CreatedAt, query.Desc).
		OrderBy(m_catalog.LocalID, query.Desc).
		Build()

	records, err := s.queryRecords(ctx, s.client.Single(), stmt)
	if err != nil {
		return nil, spannerErr("search records", err)
	}
	return records, nil
}

func (s *SpannerStore) DeleteByID(ctx context.Context, localID int64) error {
	err := s.committer.ApplyWithReadWriteTransaction(ctx, func(ctx context.Context, txn *spanner.ReadWriteTransaction) error {
		if _, err := txn.ReadRow(ctx, m_catalog.TableName, spanner.Key{localID}, []string{m_catalog.LocalID}); err != nil {
			return err
		}
		plan := committer.NewPlan()
		plan.Add(s.model.DeleteMut(localID))
		return committer.BufferPlan(txn, plan)
	})
	if err != nil {
		return spannerErr("delete record", err)
	}
	return nil
}

type spannerQuerier interface {
	Query(ctx context.Context, stmt spanner.Statement) *spanner.RowIterator
}

func (s *SpannerStore) queryRecords(ctx context.Context, q spannerQuerier, stmt spanner.Statement) ([]*domain.CatalogRecord, error) {
	iter := q.Query(ctx, stmt)
	defer iter.Stop()

	out := make([]*domain.CatalogRecord, 0)
	for {
		row, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		rec, err := rowToRecord(row)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

func rowToRecord(row *spanner.Row) (*domain.CatalogRecord, error) {
	var data m_catalog.Data
	if err := row.ToStruct(&data); err != nil {
		return nil, fmt.Errorf("failed to parse record: %w", err)
	}

	var variants []domain.Variant
	if err := json.Unmarshal([]byte(data.Variants), &variants); err != nil {
		return nil, fmt.Errorf("failed to decode stored variants: %w", err)
	}
	return domain.ReconstructCatalogRecord(
		data.LocalID, data.ExternalID,
		data.Title, data.Handle, data.Category,
		variants,
		domain.NewMoneyFromRat(&data.Price),
		data.CreatedAt.UTC(), data.UpdatedAt.UTC(),
	), nil
}

// spannerErr maps Spanner status codes onto domain errors.
func spannerErr(op string, err error) error {
	switch spanner.ErrCode(err) {
	case codes.NotFound:
		return domain.ErrRecordNotFound
	case codes.AlreadyExists:
		return fmt.Errorf("failed to %s: %w", op, domain.ErrDuplicateExternalID)
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: failed to %s: %w", domain.ErrStoreUnavailable, op, err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
