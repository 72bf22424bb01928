package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/driftnet/pkg/core"
)

type src struct {
	name string
	cols []string
	refs map[string][]int
}

func schemaOf(sources ...src) *core.Schema {
	s := core.NewSchema()
	for _, x := range sources {
		s.Set(x.name, core.SourceSchema{Columns: x.cols, References: x.refs})
	}
	return s
}

func TestCompare_Missing(t *testing.T) {
	contract := schemaOf(src{"t", []string{"a", "b"}, map[string][]int{"a": {1}, "b": {2}}})
	actual := schemaOf(src{"t", []string{"a"}, nil})

	got := Compare(contract, actual)

	require.Len(t, got, 1)
	assert.Equal(t, core.DriftMissing, got[0].Kind)
	assert.Equal(t, "t", got[0].Source)
	assert.Equal(t, "b", got[0].Column)
	assert.Equal(t, []int{2}, got[0].Lines)
	assert.Equal(t, "Column 'b' used in code but missing upstream in 't'", got[0].Message)
}

func TestCompare_Added(t *testing.T) {
	contract := schemaOf(src{"t", []string{"a"}, map[string][]int{"a": {1}}})
	actual := schemaOf(src{"t", []string{"a", "new_col"}, nil})

	got := Compare(contract, actual)

	require.Len(t, got, 1)
	assert.Equal(t, core.DriftAdded, got[0].Kind)
	assert.Equal(t, "new_col", got[0].Column)
	assert.NotNil(t, got[0].Lines)
	assert.Empty(t, got[0].Lines)
	assert.Equal(t, "New column 'new_col' in 't' (unused)", got[0].Message)
}

func TestCompare_MissingWithoutReferences(t *testing.T) {
	contract := schemaOf(src{"t", []string{"a"}, nil})
	actual := schemaOf(src{"t", nil, nil})

	got := Compare(contract, actual)

	require.Len(t, got, 1)
	assert.Equal(t, []int{}, got[0].Lines)
}

func TestCompare_OneSidedSourcesIgnored(t *testing.T) {
	contract := schemaOf(src{"only_contract", []string{"a", "b"}, nil})
	actual := schemaOf(src{"only_actual", []string{"x", "y"}, nil})

	assert.Empty(t, Compare(contract, actual))

	co, ao := OneSided(contract, actual)
	assert.Equal(t, []string{"only_contract"}, co)
	assert.Equal(t, []string{"only_actual"}, ao)
}

func TestCompare_EmptyInputs(t *testing.T) {
	assert.Empty(t, Compare(core.NewSchema(), core.NewSchema()))
	assert.Empty(t, Compare(&core.Schema{}, schemaOf(src{"t", []string{"a"}, nil})))
}

func TestCompare_Ordering(t *testing.T) {
	contract := schemaOf(
		src{"zeta", []string{"c", "a", "m"}, map[string][]int{"a": {3, 3}}},
		src{"alpha", []string{"k"}, nil},
	)
	actual := schemaOf(
		src{"alpha", []string{"k", "b"}, nil},
		src{"zeta", []string{"z", "y", "m"}, nil},
	)

	got := Compare(contract, actual)

	type key struct {
		kind   core.DriftKind
		source string
		column string
	}
	var keys []key
	for _, d := range got {
		keys = append(keys, key{d.Kind, d.Source, d.Column})
	}
	assert.Equal(t, []key{
		{core.DriftMissing, "zeta", "a"},
		{core.DriftMissing, "zeta", "c"},
		{core.DriftAdded, "zeta", "y"},
		{core.DriftAdded, "zeta", "z"},
		{core.DriftAdded, "alpha", "b"},
	}, keys)
	assert.Equal(t, []int{3, 3}, got[0].Lines)

	// Same inputs, same output.
	assert.Equal(t, got, Compare(contract, actual))
}

func TestCompare_IdenticalSchemas(t *testing.T) {
	s := schemaOf(src{"t", []string{"a", "b"}, map[string][]int{"a": {1}, "b": {2}}})
	assert.Empty(t, Compare(s, s.Clone()))
}

func TestSummarize(t *testing.T) {
	records := []core.Drift{
		{Kind: core.DriftMissing, Source: "a", Column: "x"},
		{Kind: core.DriftMissing, Source: "a", Column: "y"},
		{Kind: core.DriftAdded, Source: "b", Column: "z"},
	}
	s := Summarize(records)
	assert.Equal(t, Summary{Missing: 2, Added: 1, Sources: 2}, s)
	assert.Equal(t, 3, s.Total())
	assert.True(t, HasMissing(records))
	assert.False(t, HasMissing(records[2:]))
	assert.False(t, HasMissing(nil))
}
