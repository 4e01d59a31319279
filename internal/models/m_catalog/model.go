package m_catalog

import (
	"cloud.google.com/go/spanner"
)

// Model provides a facade for type-safe operations on the catalog_records table.
type Model struct{}

// NewModel creates a new Model instance.
func NewModel() *Model {
	return &Model{}
}

// InsertMut creates a mutation inserting a record. It fails at commit when
// the local id or external id is already taken.
func (m *Model) InsertMut(data *Data) *spanner.Mutation {
	return spanner.Insert(
		TableName,
		Columns(),
		[]interface{}{
			data.LocalID,
			data.ExternalID,
			data.Title,
			data.Handle,
			data.Category,
			data.Price,
			data.Variants,
			data.CreatedAt,
			data.UpdatedAt,
		},
	)
}

// UpdateMut creates a mutation updating the given columns of one record.
func (m *Model) UpdateMut(localID int64, updates map[string]interface{}) *spanner.Mutation {
	if len(updates) == 0 {
		return nil
	}

	columns := make([]string, 0, len(updates)+1)
	values := make([]interface{}, 0, len(updates)+1)

	columns = append(columns, LocalID)
	values = append(values, localID)

	for col, val := range updates {
		columns = append(columns, col)
		values = append(values, val)
	}

	return spanner.Update(TableName, columns, values)
}

// DeleteMut creates a mutation deleting one record.
func (m *Model) DeleteMut(localID int64) *spanner.Mutation {
	return spanner.Delete(TableName, spanner.Key{localID})
}
