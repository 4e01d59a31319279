package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// ProductBuilder builds upstream feed products with a fluent interface.
type ProductBuilder struct {
	id       int64
	title    string
	handle   string
	category string
	prices   []any
}

// NewProductBuilder creates a builder with default values.
func NewProductBuilder(id int64) *ProductBuilder {
	return &ProductBuilder{
		id:       id,
		title:    "Test Product",
		handle:   "test-product",
		category: "Tops",
		prices:   []any{"10.00"},
	}
}

func (b *ProductBuilder) WithTitle(title string) *ProductBuilder {
	b.title = title
	return b
}

func (b *ProductBuilder) WithHandle(handle string) *ProductBuilder {
	b.handle = handle
	return b
}

// WithPrices sets one variant per price; values are sent verbatim.
func (b *ProductBuilder) WithPrices(prices ...any) *ProductBuilder {
	b.prices = prices
	return b
}

// Build returns the product as the feed would carry it.
func (b *ProductBuilder) Build() map[string]any {
	variants := make([]any, 0, len(b.prices))
	for i, p := range b.prices {
		variants = append(variants, map[string]any{
			"id":        b.id*100 + int64(i),
			"title":     "Variant",
			"price":     p,
			"available": true,
		})
	}
	return map[string]any{
		"id":           b.id,
		"title":        b.title,
		"handle":       b.handle,
		"product_type": b.category,
		"variants":     variants,
	}
}

// FeedServer serves a replaceable product list at any path.
type FeedServer struct {
	*httptest.Server

	mu       sync.Mutex
	products []map[string]any
	status   int
}

// NewFeedServer starts a feed server closed at test cleanup.
func NewFeedServer(t *testing.T) *FeedServer {
	t.Helper()
	fs := &FeedServer{status: http.StatusOK, products: []map[string]any{}}
	fs.Server = httptest.NewServer(http.HandlerFunc(fs.serve))
	t.Cleanup(fs.Close)
	return fs
}

// SetProducts replaces the served products.
func (fs *FeedServer) SetProducts(products ...*ProductBuilder) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.products = make([]map[string]any, 0, len(products))
	for _, p := range products {
		fs.products = append(fs.products, p.Build())
	}
}

// SetStatus makes the server answer with status and an empty body.
func (fs *FeedServer) SetStatus(status int) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.status = status
}

func (fs *FeedServer) serve(w http.ResponseWriter, _ *http.Request) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.status != http.StatusOK {
		w.WriteHeader(fs.status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"products": fs.products})
}
