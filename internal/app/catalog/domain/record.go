package domain

import (
	"strings"
	"time"
)

// CatalogRecord is the local mirror of one upstream catalog item.
// It is immutable: changes produce a new value.
type CatalogRecord struct {
	localID    int64
	externalID int64
	title      string
	handle     string
	category   string
	variants   []Variant
	price      *Money
	createdAt  time.Time
	updatedAt  time.Time
}

// NewCatalogRecord creates an unpersisted record from upstream content.
func NewCatalogRecord(externalID int64, title, handle, category string, variants []Variant, price *Money) (*CatalogRecord, error) {
	if strings.TrimSpace(title) == "" {
		return nil, ErrEmptyTitle
	}
	if strings.TrimSpace(handle) == "" {
		return nil, ErrEmptyHandle
	}
	if price == nil {
		price = Zero()
	}
	if price.IsNegative() {
		return nil, ErrNegativePrice
	}

	return &CatalogRecord{
		externalID: externalID,
		title:      title,
		handle:     handle,
		category:   category,
		variants:   copyVariants(variants),
		price:      price.Copy(),
	}, nil
}

// ReconstructCatalogRecord rebuilds a persisted record from storage.
// Only stores should call this.
func ReconstructCatalogRecord(
	localID, externalID int64,
	title, handle, category string,
	variants []Variant,
	price *Money,
	createdAt, updatedAt time.Time,
) *CatalogRecord {
	if price == nil {
		price = Zero()
	}
	return &CatalogRecord{
		localID:    localID,
		externalID: externalID,
		title:      title,
		handle:     handle,
		category:   category,
		variants:   copyVariants(variants),
		price:      price.Copy(),
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}
}

// WithUpstream returns a copy carrying src's content and this record's
// identity and creation time.
func (r *CatalogRecord) WithUpstream(src *CatalogRecord) *CatalogRecord {
	return &CatalogRecord{
		localID:    r.localID,
		externalID: r.externalID,
		title:      src.title,
		handle:     src.handle,
		category:   src.category,
		variants:   copyVariants(src.variants),
		price:      src.price.Copy(),
		createdAt:  r.createdAt,
		updatedAt:  r.updatedAt,
	}
}

// Persisted returns a copy stamped with store-assigned identity and timestamps.
func (r *CatalogRecord) Persisted(localID int64, createdAt, updatedAt time.Time) *CatalogRecord {
	out := r.clone()
	out.localID = localID
	out.createdAt = createdAt
	out.updatedAt = updatedAt
	return out
}

func (r *CatalogRecord) clone() *CatalogRecord {
	out := *r
	out.variants = copyVariants(r.variants)
	out.price = r.price.Copy()
	return &out
}

// IsPersisted reports whether the store has assigned a local id.
func (r *CatalogRecord) IsPersisted() bool { return r.localID != 0 }

// Getters

func (r *CatalogRecord) LocalID() int64       { return r.localID }
func (r *CatalogRecord) ExternalID() int64    { return r.externalID }
func (r *CatalogRecord) Title() string        { return r.title }
func (r *CatalogRecord) Handle() string       { return r.handle }
func (r *CatalogRecord) Category() string     { return r.category }
func (r *CatalogRecord) Price() *Money        { return r.price.Copy() }
func (r *CatalogRecord) CreatedAt() time.Time { return r.createdAt }
func (r *CatalogRecord) UpdatedAt() time.Time { return r.updatedAt }
func (r *CatalogRecord) Variants() []Variant  { return copyVariants(r.variants) }
func (r *CatalogRecord) VariantCount() int    { return len(r.variants) }
