package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_BasicSelect(t *testing.T) {
	stmt := From("catalog_records").
		Select("local_id", "title", "handle").
		Build()

	assert.Equal(t, "SELECT local_id, title, handle FROM catalog_records", stmt.SQL)
	assert.Empty(t, stmt.Params)
}

func TestBuilder_SelectAllColumns(t *testing.T) {
	stmt := From("catalog_records").Build()

	assert.Equal(t, "SELECT * FROM catalog_records", stmt.SQL)
	assert.Empty(t, stmt.Params)
}

func TestBuilder_MultipleWhereConditions(t *testing.T) {
	stmt := From("catalog_records").
		Select("local_id").
		Where(Eq("external_id", int64(7))).
		Where(ContainsFold("title", "Shirt")).
		Build()

	assert.Equal(t, "SELECT local_id FROM catalog_records WHERE external_id = @p0 AND STRPOS(LOWER(title), LOWER(@p1)) > 0", stmt.SQL)
	assert.Equal(t, map[string]interface{}{
		"p0": int64(7),
		"p1": "Shirt",
	}, stmt.Params)
}

func TestBuilder_OrderByTieBreak(t *testing.T) {
	stmt := From("catalog_records").
		Select("local_id").
		OrderBy("updated_at", Desc).
		OrderBy("local_id", Desc).
		Build()

	assert.Equal(t, "SELECT local_id FROM catalog_records ORDER BY updated_at DESC, local_id DESC", stmt.SQL)
}

func TestBuilder_OrderByAsc(t *testing.T) {
	stmt := From("catalog_records").
		Select("local_id").
		OrderBy("created_at", Asc).
		Build()

	assert.Equal(t, "SELECT local_id FROM catalog_records ORDER BY created_at ASC", stmt.SQL)
}

func TestBuilder_LimitAndOffset(t *testing.T) {
	stmt := From("catalog_records").
		Select("local_id").
		Limit(10).
		Offset(20).
		Build()

	assert.Equal(t, "SELECT local_id FROM catalog_records LIMIT @limit OFFSET @offset", stmt.SQL)
	assert.Equal(t, map[string]interface{}{
		"limit":  int64(10),
		"offset": int64(20),
	}, stmt.Params)
}

func TestBuilder_OffsetWithoutLimitIsDropped(t *testing.T) {
	stmt := From("catalog_records").
		Select("local_id").
		Offset(20).
		Build()

	assert.Equal(t, "SELECT local_id FROM catalog_records", stmt.SQL)
	assert.Empty(t, stmt.Params)
}

func TestBuilder_Count(t *testing.T) {
	builder := From("catalog_records").
		Select("local_id", "title").
		Where(ContainsFold("title", "linen")).
		OrderBy("created_at", Desc).
		Limit(50).
		Offset(100)

	countStmt := builder.Count().Build()
	assert.Equal(t, "SELECT COUNT(*) FROM catalog_records WHERE STRPOS(LOWER(title), LOWER(@p0)) > 0", countStmt.SQL)
	assert.Equal(t, map[string]interface{}{"p0": "linen"}, countStmt.Params)

	mainStmt := builder.Build()
	assert.Contains(t, mainStmt.SQL, "ORDER BY created_at DESC LIMIT @limit OFFSET @offset")
}

func TestBuilder_Immutability(t *testing.T) {
	base := From("catalog_records").Select("local_id").OrderBy("created_at", Desc)

	stmt1 := base.OrderBy("local_id", Desc).Build()
	stmt2 := base.Where(Eq("handle", "a")).Build()

	assert.Contains(t, stmt1.SQL, "created_at DESC, local_id DESC")
	assert.NotContains(t, stmt2.SQL, "local_id DESC")
	assert.Contains(t, stmt2.SQL, "handle = @p0")
	assert.NotContains(t, stmt1.SQL, "handle")
}

func TestCondition_EqWithDifferentParamIndex(t *testing.T) {
	sql, params := Eq("external_id", int64(3)).SQL(5)

	assert.Equal(t, "external_id = @p5", sql)
	assert.Equal(t, map[string]interface{}{"p5": int64(3)}, params)
}

func TestBuilder_String(t *testing.T) {
	str := From("catalog_records").Where(Eq("local_id", int64(1))).String()
	require.NotEmpty(t, str)
	assert.Contains(t, str, "SQL:")
	assert.Contains(t, str, "Params:")
	assert.Contains(t, str, "catalog_records")
}
