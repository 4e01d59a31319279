// Package feed fetches and decodes the upstream catalog payload.
package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
)

// Item is one decoded upstream product object. Field values are kept raw so
// that callers can decide how tolerant to be about their types.
type Item struct {
	fields map[string]json.RawMessage
}

// NewItem builds an Item from already decoded fields.
func NewItem(fields map[string]json.RawMessage) Item {
	return Item{fields: fields}
}

// Field returns the raw value of a top-level field. JSON null counts as absent.
func (i Item) Field(name string) (json.RawMessage, bool) {
	raw, ok := i.fields[name]
	if !ok || isNull(raw) {
		return nil, false
	}
	return raw, true
}

// Entry is one element of the products array: either a decoded Item or the
// reason it could not be decoded.
type Entry struct {
	Index   int
	Item    Item
	Invalid string
}

// Valid reports whether the entry decoded to an object.
func (e Entry) Valid() bool { return e.Invalid == "" }

// Batch is a parsed feed whose items are decoded on demand.
type Batch struct {
	Total int
	raw   []json.RawMessage
}

// All yields entries in feed order. Stopping early leaves the remaining
// elements undecoded.
func (b *Batch) All() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for i, raw := range b.raw {
			if !yield(decodeEntry(i, raw)) {
				return
			}
		}
	}
}

type envelope map[string]json.RawMessage

// Parse validates the envelope and returns the products as a lazy batch.
func Parse(payload []byte) (*Batch, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrMalformedFeed)
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}

	products, ok := env["products"]
	if !ok {
		return nil, fmt.Errorf("%w: products field is missing", ErrMalformedFeed)
	}
	products = bytes.TrimSpace(products)
	if len(products) == 0 || products[0] != '[' {
		return nil, fmt.Errorf("%w: products is not an array", ErrMalformedFeed)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(products, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFeed, err)
	}

	return &Batch{Total: len(raw), raw: raw}, nil
}

func decodeEntry(index int, raw json.RawMessage) Entry {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Entry{Index: index, Invalid: "item is not an object"}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return Entry{Index: index, Invalid: fmt.Sprintf("item cannot be decoded: %v", err)}
	}
	return Entry{Index: index, Item: Item{fields: fields}}
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
