package contract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/driftnet/pkg/core"
)

func TestMerge(t *testing.T) {
	into := core.NewSchema()
	into.Set("df", core.SourceSchema{
		Columns:    []string{"b", "user_id"},
		References: map[string][]int{"b": {1}, "user_id": {5}},
	})

	next := core.NewSchema()
	next.Set("df", core.SourceSchema{
		Columns:    []string{"a", "user_id"},
		References: map[string][]int{"a": {2}, "user_id": {3, 3}},
	})
	next.Set("users", core.SourceSchema{Columns: []string{"email"}, References: map[string][]int{"email": {9}}})

	Merge(into, next)

	assert.Equal(t, []string{"df", "users"}, into.Sources())

	df, ok := into.Get("df")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b", "user_id"}, df.Columns)
	assert.Equal(t, []int{5, 3, 3}, df.References["user_id"])
	assert.Equal(t, []int{2}, df.References["a"])
	assert.Equal(t, []int{1}, df.References["b"])

	users, ok := into.Get("users")
	require.True(t, ok)
	assert.Equal(t, []string{"email"}, users.Columns)
}

func TestMerge_DoesNotAliasInput(t *testing.T) {
	into := core.NewSchema()
	next := core.NewSchema()
	next.Set("t", core.SourceSchema{Columns: []string{"a"}, References: map[string][]int{"a": {1}}})

	Merge(into, next)
	Merge(into, next)

	got, _ := into.Get("t")
	assert.Equal(t, []int{1, 1}, got.References["a"])

	orig, _ := next.Get("t")
	assert.Equal(t, []int{1}, orig.References["a"])
}
