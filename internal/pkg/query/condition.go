package query

import "fmt"

// Condition represents a WHERE clause condition.
// Implementations must generate SQL fragments and parameter maps
// using Spanner's named parameter format (@paramName).
type Condition interface {
	// SQL returns the SQL fragment and parameter map for this condition.
	// paramIndex is used to generate unique parameter names (@p0, @p1, etc.)
	SQL(paramIndex int) (string, map[string]interface{})
}

// eqCondition implements equality comparison (field = value).
type eqCondition struct {
	field string
	value interface{}
}

// Eq creates a WHERE condition for equality comparison.
// Example: Eq("external_id", 42) generates "external_id = @p0"
func Eq(field string, value interface{}) Condition {
	return &eqCondition{
		field: field,
		value: value,
	}
}

// SQL generates the SQL fragment for equality comparison.
func (c *eqCondition) SQL(paramIndex int) (string, map[string]interface{}) {
	paramName := fmt.Sprintf("p%d", paramIndex)
	sql := fmt.Sprintf("%s = @%s", c.field, paramName)
	params := map[string]interface{}{
		paramName: c.value,
	}
	return sql, params
}

// ContainsFold matches rows whose field contains substr, ignoring case.
// The substring is compared literally; there are no wildcards to escape.
// Example: ContainsFold("title", "shirt") generates
// "STRPOS(LOWER(title), LOWER(@p0)) > 0"
func ContainsFold(field, substr string) Condition {
	return &containsFoldCondition{field: field, substr: substr}
}

type containsFoldCondition struct {
	field  string
	substr string
}

// SQL generates the SQL fragment for a case-insensitive substring match.
func (c *containsFoldCondition) SQL(paramIndex int) (string, map[string]interface{}) {
	paramName := fmt.Sprintf("p%d", paramIndex)
	sql := fmt.Sprintf("STRPOS(LOWER(%s), LOWER(@%s)) > 0", c.field, paramName)
	return sql, map[string]interface{}{paramName: c.substr}
}
