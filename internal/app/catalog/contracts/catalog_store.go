package contracts

import (
	"context"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
)

// CatalogStore is the persistence surface the reconciliation engine needs.
type CatalogStore interface {
	// FindByExternalID returns domain.ErrRecordNotFound when no record has the id.
	FindByExternalID(ctx context.Context, externalID int64) (*domain.CatalogRecord, error)

	// Upsert inserts an unpersisted record (assigning local id and both
	// timestamps) or overwrites the content of a persisted one, preserving
	// createdAt and refreshing updatedAt. It returns the stored value.
	Upsert(ctx context.Context, rec *domain.CatalogRecord) (*domain.CatalogRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// PruneToNewest keeps the n records with the greatest (updatedAt, localID)
	// and deletes the rest, returning how many were deleted.
	PruneToNewest(ctx context.Context, n int) (int, error)
}
