package search_records

import (
	"context"
	"strings"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/contracts"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
)

// Request carries the title fragment to look for.
type Request struct {
	Query string
}

// Query handles the search records query use case.
type Query struct {
	repo contracts.RecordRepository
}

// NewQuery creates a new search records query.
func NewQuery(repo contracts.RecordRepository) *Query {
	return &Query{repo: repo}
}

// Execute returns records whose title contains the trimmed query, ignoring
// case. A blank query matches nothing.
func (q *Query) Execute(ctx context.Context, req *Request) ([]*domain.CatalogRecord, error) {
	needle := strings.TrimSpace(req.Query)
	if needle == "" {
		return []*domain.CatalogRecord{}, nil
	}
	return q.repo.SearchByTitle(ctx, needle)
}
