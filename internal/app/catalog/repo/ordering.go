package repo

import (
	"cmp"
	"slices"
	"strings"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
)

// byRecency orders records by updatedAt DESC, localID DESC, the order pruning keeps.
func byRecency(a, b *domain.CatalogRecord) int {
	if c := b.UpdatedAt().Compare(a.UpdatedAt()); c != 0 {
		return c
	}
	return cmp.Compare(b.LocalID(), a.LocalID())
}

// byCreation orders records by createdAt DESC, localID DESC, the listing order.
func byCreation(a, b *domain.CatalogRecord) int {
	if c := b.CreatedAt().Compare(a.CreatedAt()); c != 0 {
		return c
	}
	return cmp.Compare(b.LocalID(), a.LocalID())
}

func window(records []*domain.CatalogRecord, offset, limit int) []*domain.CatalogRecord {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(records) {
		return []*domain.CatalogRecord{}
	}
	end := len(records)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return slices.Clone(records[offset:end])
}

// escapeLike escapes LIKE metacharacters so the pattern matches literally
// with ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
