package testutil

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"cloud.google.com/go/spanner"
	"github.com/stretchr/testify/require"

	"github.com/light-bringer/catalog-mirror/internal/models/m_catalog"
)

// CreateTestRecord writes a catalog row directly, bypassing the store.
func CreateTestRecord(t *testing.T, client *spanner.Client, localID, externalID int64, title string, updatedAt time.Time) {
	t.Helper()

	variants, err := json.Marshal([]map[string]any{{"title": "Default", "price": "10.00", "available": true}})
	require.NoError(t, err)

	data := &m_catalog.Data{
		LocalID:    localID,
		ExternalID: externalID,
		Title:      title,
		Handle:     "fixture-" + title,
		Category:   "Fixtures",
		Price:      *big.NewRat(10, 1),
		Variants:   string(variants),
		CreatedAt:  updatedAt,
		UpdatedAt:  updatedAt,
	}

	_, err = client.Apply(context.Background(), []*spanner.Mutation{m_catalog.NewModel().InsertMut(data)})
	require.NoError(t, err, "failed to create test record")
}
