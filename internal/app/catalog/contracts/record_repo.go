package contracts

import (
	"context"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
)

// Page is one slice of records in creation order, newest first.
type Page struct {
	Records    []*domain.CatalogRecord
	TotalCount int64
}

// RecordRepository serves reads and manual deletion of stored records.
type RecordRepository interface {
	GetByID(ctx context.Context, localID int64) (*domain.CatalogRecord, error)

	// ListPage orders by createdAt DESC, localID DESC.
	ListPage(ctx context.Context, offset, limit int) (*Page, error)

	// SearchByTitle is a case-insensitive substring match. LIKE
	// metacharacters in query are matched literally.
	SearchByTitle(ctx context.Context, query string) ([]*domain.CatalogRecord, error)

	DeleteByID(ctx context.Context, localID int64) error
}

// Store is implemented by every backend.
type Store interface {
	CatalogStore
	RecordRepository
	Close() error
}
