package m_catalog

import (
	"math/big"
	"time"
)

// Data represents the database model for the catalog_records table.
type Data struct {
	LocalID    int64     `spanner:"local_id"`
	ExternalID int64     `spanner:"external_id"`
	Title      string    `spanner:"title"`
	Handle     string    `spanner:"handle"`
	Category   string    `spanner:"category"`
	Price      big.Rat   `spanner:"price"`
	Variants   string    `spanner:"variants"`
	CreatedAt  time.Time `spanner:"created_at"`
	UpdatedAt  time.Time `spanner:"updated_at"`
}
