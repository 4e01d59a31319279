package count_records

import (
	"context"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/contracts"
)

// Query handles the count records query use case.
type Query struct {
	store contracts.CatalogStore
}

// NewQuery creates a new count records query.
func NewQuery(store contracts.CatalogStore) *Query {
	return &Query{store: store}
}

// Execute returns the number of stored records.
func (q *Query) Execute(ctx context.Context) (int64, error) {
	return q.store.Count(ctx)
}
