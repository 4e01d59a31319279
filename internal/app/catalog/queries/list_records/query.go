package list_records

import (
	"context"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/contracts"
	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// Request asks for a zero-based page.
type Request struct {
	Page int
	Size int
}

// Result is one page plus the navigation figures a client needs.
type Result struct {
	Records    []*domain.CatalogRecord
	Page       int
	Size       int
	TotalCount int64
	TotalPages int
	// PageStart and PageEnd are 1-based positions of the first and last
	// record on the page, both zero when the page is empty.
	PageStart int64
	PageEnd   int64
}

// HasPrevious reports whether an earlier page exists.
func (r *Result) HasPrevious() bool { return r.Page > 0 }

// HasNext reports whether a later page exists.
func (r *Result) HasNext() bool { return r.TotalPages > 0 && r.Page+1 < r.TotalPages }

// Query handles the list records query use case.
type Query struct {
	repo contracts.RecordRepository
}

// NewQuery creates a new list records query.
func NewQuery(repo contracts.RecordRepository) *Query {
	return &Query{repo: repo}
}

// Execute returns the requested page, newest records first. Out-of-range
// sizes fall back to the defaults and a page past the end is clamped to the
// last page.
func (q *Query) Execute(ctx context.Context, req *Request) (*Result, error) {
	size := req.Size
	if size <= 0 {
		size = DefaultPageSize
	} else if size > MaxPageSize {
		size = MaxPageSize
	}
	page := max(req.Page, 0)

	result, err := q.repo.ListPage(ctx, page*size, size)
	if err != nil {
		return nil, err
	}

	totalPages := int((result.TotalCount + int64(size) - 1) / int64(size))
	if totalPages > 0 && page >= totalPages {
		page = totalPages - 1
		if result, err = q.repo.ListPage(ctx, page*size, size); err != nil {
			return nil, err
		}
	} else if totalPages == 0 {
		page = 0
	}

	out := &Result{
		Records:    result.Records,
		Page:       page,
		Size:       size,
		TotalCount: result.TotalCount,
		TotalPages: totalPages,
	}
	if len(result.Records) > 0 {
		out.PageStart = int64(page*size) + 1
		out.PageEnd = out.PageStart + int64(len(result.Records)) - 1
	}
	return out, nil
}
