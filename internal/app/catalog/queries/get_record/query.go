package get_record

import (
	"context"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/contracts"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
)

// Request identifies the record to fetch.
type Request struct {
	LocalID int64
}

// Query handles the get record query use case.
type Query struct {
	repo contracts.RecordRepository
}

// NewQuery creates a new get record query.
func NewQuery(repo contracts.RecordRepository) *Query {
	return &Query{repo: repo}
}

// Execute retrieves a record by local id.
func (q *Query) Execute(ctx context.Context, req *Request) (*domain.CatalogRecord, error) {
	if req.LocalID <= 0 {
		return nil, domain.ErrRecordNotFound
	}
	return q.repo.GetByID(ctx, req.LocalID)
}
