package m_catalog

// Field name constants for the catalog_records table.
const (
	TableName = "catalog_records"

	LocalID    = "local_id"
	ExternalID = "external_id"
	Title      = "title"
	Handle     = "handle"
	Category   = "category"
	Price      = "price"
	Variants   = "variants"
	CreatedAt  = "created_at"
	UpdatedAt  = "updated_at"
)

// Columns lists every column in Data order.
func Columns() []string {
	return []string{LocalID, ExternalID, Title, Handle, Category, Price, Variants, CreatedAt, UpdatedAt}
}
