package repo

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/light-bringer/catalog-mirror/internal/app/catalog/domain"
)

// reconstruct rebuilds a record from column values shared by the SQL backends.
func reconstruct(
	localID, externalID int64,
	title, handle, category, price string,
	variantsJSON []byte,
	createdAt, updatedAt time.Time,
) (*domain.CatalogRecord, error) {
	money, err := domain.ParseMoney(price)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored price: %w", err)
	}
	var variants []domain.Variant
	if len(variantsJSON) > 0 {
		if err := json.Unmarshal(variantsJSON, &variants); err != nil {
			return nil, fmt.Errorf("failed to decode stored variants: %w", err)
		}
	}
	return domain.ReconstructCatalogRecord(localID, externalID, title, handle, category, variants, money, createdAt, updatedAt), nil
}
