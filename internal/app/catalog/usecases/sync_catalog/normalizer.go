package sync_catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
	"github.com/light-bringer/catalog-mirror/internal/feed"
)

// Candidate is the outcome of normalising one feed entry. Record is nil when
// the entry was rejected, in which case Reason says why.
type Candidate struct {
	Index           int
	ExternalID      int64
	Record          *domain.CatalogRecord
	Reason          string
	PriceWarnings   int
	DroppedVariants int
}

// Rejected reports whether the entry cannot be reconciled.
func (c Candidate) Rejected() bool { return c.Record == nil }

// Batch is a lazily normalised feed.
type Batch struct {
	Total      int
	Candidates iter.Seq[Candidate]
}

// Normalizer maps raw feed items onto catalog records.
type Normalizer struct{}

// NewNormalizer creates a normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Batch wraps a parsed feed so that each entry is normalised only when the
// reconciler asks for it.
func (n *Normalizer) Batch(fb *feed.Batch) Batch {
	return Batch{
		Total: fb.Total,
		Candidates: func(yield func(Candidate) bool) {
			for entry := range fb.All() {
				if !yield(n.NormalizeEntry(entry)) {
					return
				}
			}
		},
	}
}

// NormalizeEntry normalises a feed entry, rejecting entries that did not decode.
func (n *Normalizer) NormalizeEntry(entry feed.Entry) Candidate {
	if !entry.Valid() {
		return Candidate{Index: entry.Index, Reason: entry.Invalid}
	}
	c := n.Normalize(entry.Item)
	c.Index = entry.Index
	return c
}

// Normalize never fails: problems with the item are reported through the
// returned Candidate.
func (n *Normalizer) Normalize(item feed.Item) Candidate {
	externalID, ok := parseExternalID(item)
	if !ok {
		return Candidate{Reason: domain.ErrMissingExternalID.Error()}
	}

	title := textField(item, "title")
	handle := textField(item, "handle")
	category := textField(item, "product_type")

	variants, parsed, warnings, dropped := parseVariants(item)

	rec, err := domain.NewCatalogRecord(externalID, title, handle, category, variants, domain.RepresentativePrice(parsed))
	if err != nil {
		return Candidate{
			ExternalID:      externalID,
			Reason:          err.Error(),
			PriceWarnings:   warnings,
			DroppedVariants: dropped,
		}
	}

	return Candidate{
		ExternalID:      externalID,
		Record:          rec,
		PriceWarnings:   warnings,
		DroppedVariants: dropped,
	}
}

// parseExternalID accepts a JSON integer or a string of digits.
func parseExternalID(item feed.Item) (int64, bool) {
	raw, ok := item.Field("id")
	if !ok {
		return 0, false
	}
	return parseInt(raw)
}

func parseInt(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		return id, err == nil
	}
	id, err := strconv.ParseInt(string(raw), 10, 64)
	return id, err == nil
}

// textField returns a trimmed, NFC-normalised string field. Non-string values
// read as empty.
func textField(fields feed.Item, name string) string {
	raw, ok := fields.Field(name)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return norm.NFC.String(strings.TrimSpace(s))
}

func parseVariants(item feed.Item) (variants []domain.Variant, parsed []*domain.Money, warnings, dropped int) {
	raw, ok := item.Field("variants")
	if !ok {
		return nil, nil, 0, 0
	}
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, nil, 0, 0
	}

	variants = make([]domain.Variant, 0, len(elems))
	for _, elem := range elems {
		elem = bytes.TrimSpace(elem)
		if len(elem) == 0 || elem[0] != '{' {
			dropped++
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(elem, &fields); err != nil {
			dropped++
			continue
		}
		vf := feed.NewItem(fields)

		v := domain.Variant{
			Title:     textField(vf, "title"),
			SKU:       textField(vf, "sku"),
			Available: boolField(vf, "available"),
			Price:     domain.Zero(),
		}
		if rawID, ok := vf.Field("id"); ok {
			if id, ok := parseInt(rawID); ok {
				v.ExternalID = &id
			}
		}

		if rawPrice, ok := vf.Field("price"); ok {
			price, err := parsePrice(rawPrice)
			if err != nil {
				warnings++
			} else {
				v.Price = price
				parsed = append(parsed, price)
			}
		}
		variants = append(variants, v)
	}
	return variants, parsed, warnings, dropped
}

// parsePrice accepts a decimal string or a JSON number. Negative values are
// treated as unparsable.
func parsePrice(raw json.RawMessage) (*domain.Money, error) {
	raw = bytes.TrimSpace(raw)
	text := string(raw)
	if len(raw) > 0 && raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, err
		}
	}
	price, err := domain.ParseMoney(text)
	if err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, fmt.Errorf("negative price %s", price.DecimalString())
	}
	return price, nil
}

func boolField(fields feed.Item, name string) bool {
	raw, ok := fields.Field(name)
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}
