package committer

import (
	"testing"

	"cloud.google.com/go/spanner"
	"github.com/stretchr/testify/assert"
)

func TestCommitPlan(t *testing.T) {
	plan := NewPlan()
	assert.True(t, plan.IsEmpty())

	plan.Add(nil)
	assert.True(t, plan.IsEmpty(), "nil mutations are ignored")

	plan.Add(spanner.Delete("catalog_records", spanner.Key{int64(1)}))
	plan.AddMultiple([]*spanner.Mutation{
		spanner.Delete("catalog_records", spanner.Key{int64(2)}),
		nil,
		spanner.Delete("catalog_records", spanner.Key{int64(3)}),
	})

	assert.False(t, plan.IsEmpty())
	assert.Equal(t, 3, plan.Count())
	assert.Len(t, plan.Mutations(), 3)
}
