package http

import (
	"time"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/queries/list_records"
)

// Record is the JSON shape of a catalog record.
type Record struct {
	ID         int64            `json:"id"`
	ExternalID int64            `json:"external_id"`
	Title      string           `json:"title"`
	Handle     string           `json:"handle"`
	Category   string           `json:"category,omitempty"`
	Price      string           `json:"price"`
	Variants   []domain.Variant `json:"variants"`
	CreatedAt  string           `json:"created_at"`
	UpdatedAt  string           `json:"updated_at"`
}

// RecordPage is the JSON shape of a page listing.
type RecordPage struct {
	Records     []Record `json:"records"`
	Page        int      `json:"page"`
	Size        int      `json:"size"`
	TotalCount  int64    `json:"total_count"`
	TotalPages  int      `json:"total_pages"`
	HasPrevious bool     `json:"has_previous"`
	HasNext     bool     `json:"has_next"`
	PageStart   int64    `json:"page_start"`
	PageEnd     int64    `json:"page_end"`
}

// SearchResult is the JSON shape of a title search.
type SearchResult struct {
	Query      string   `json:"query"`
	Records    []Record `json:"records"`
	MatchCount int      `json:"match_count"`
}

// SyncResult is returned by the manual trigger.
type SyncResult struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Total   *int64             `json:"total,omitempty"`
	Report  *domain.SyncReport `json:"report,omitempty"`
}

func toRecord(rec *domain.CatalogRecord) Record {
	return Record{
		ID:         rec.LocalID(),
		ExternalID: rec.ExternalID(),
		Title:      rec.Title(),
		Handle:     rec.Handle(),
		Category:   rec.Category(),
		Price:      rec.Price().DecimalString(),
		Variants:   rec.Variants(),
		CreatedAt:  rec.CreatedAt().Format(time.RFC3339),
		UpdatedAt:  rec.UpdatedAt().Format(time.RFC3339),
	}
}

func toRecords(recs []*domain.CatalogRecord) []Record {
	out := make([]Record, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toRecord(rec))
	}
	return out
}

func toRecordPage(res *list_records.Result) RecordPage {
	return RecordPage{
		Records:     toRecords(res.Records),
		Page:        res.Page,
		Size:        res.Size,
		TotalCount:  res.TotalCount,
		TotalPages:  res.TotalPages,
		HasPrevious: res.HasPrevious(),
		HasNext:     res.HasNext(),
		PageStart:   res.PageStart,
		PageEnd:     res.PageEnd,
	}
}
