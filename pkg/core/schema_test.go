package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_InsertionOrder(t *testing.T) {
	s := NewSchema()
	s.Set("users", SourceSchema{Columns: []string{"id"}})
	s.Set("df", SourceSchema{Columns: []string{"a", "b"}})
	s.Set("users", SourceSchema{Columns: []string{"email", "id"}})

	assert.Equal(t, []string{"users", "df"}, s.Sources())
	assert.Equal(t, []string{"df", "users"}, s.SortedSources())
	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 4, s.ColumnCount())

	users, ok := s.Get("users")
	require.True(t, ok)
	assert.Equal(t, []string{"email", "id"}, users.Columns)
	assert.True(t, s.Has("df"))
	assert.False(t, s.Has("orders"))
}

func TestSchema_ZeroAndNil(t *testing.T) {
	var zero Schema
	zero.Set("df", SourceSchema{})
	assert.Equal(t, 1, zero.Len())

	var nilSchema *Schema
	assert.Equal(t, 0, nilSchema.Len())
	assert.Nil(t, nilSchema.Sources())
	_, ok := nilSchema.Get("df")
	assert.False(t, ok)
	assert.True(t, nilSchema.Equal(NewSchema()))
}

func TestSchema_CloneIsDeep(t *testing.T) {
	s := NewSchema()
	s.Set("df", SourceSchema{
		Columns:    []string{"a"},
		References: map[string][]int{"a": {1, 2}},
	})

	c := s.Clone()
	require.True(t, c.Equal(s))

	src, _ := c.Get("df")
	src.Columns[0] = "changed"
	src.References["a"][0] = 99

	orig, _ := s.Get("df")
	assert.Equal(t, "a", orig.Columns[0])
	assert.Equal(t, []int{1, 2}, orig.References["a"])
}

func TestSchema_Equal(t *testing.T) {
	a := NewSchema()
	a.Set("x", SourceSchema{Columns: []string{"c"}})
	a.Set("y", SourceSchema{Columns: []string{"d"}})

	b := NewSchema()
	b.Set("y", SourceSchema{Columns: []string{"d"}, References: map[string][]int{}})
	b.Set("x", SourceSchema{Columns: []string{"c"}})

	assert.True(t, a.Equal(b), "order and nil-vs-empty are not significant")

	b.Set("x", SourceSchema{Columns: []string{"c"}, References: map[string][]int{"c": {3}}})
	assert.False(t, a.Equal(b))
}

func TestSourceSchema_Lines(t *testing.T) {
	s := SourceSchema{Columns: []string{"a", "b"}, References: map[string][]int{"a": {4, 7}}}

	assert.Equal(t, []int{4, 7}, s.Lines("a"))
	assert.Equal(t, []int{}, s.Lines("b"))
	assert.Equal(t, map[string]struct{}{"a": {}, "b": {}}, s.ColumnSet())
}

func TestDriftKind_Label(t *testing.T) {
	assert.Equal(t, "MISSING", DriftMissing.Label())
	assert.Equal(t, "ADDED", DriftAdded.Label())
	assert.Equal(t, "UNKNOWN", DriftKind("other").Label())
}

func TestErrors(t *testing.T) {
	perr := &ParseError{File: "job.py", Line: 3, Column: 7, Msg: "invalid syntax"}
	assert.Equal(t, "job.py:3:7: invalid syntax", perr.Error())
	assert.Equal(t, "<stdin>:1:0: x", (&ParseError{Line: 1, Msg: "x"}).Error())

	inner := assert.AnError
	serr := &SerializationError{Path: "c.yaml", Err: inner}
	assert.Contains(t, serr.Error(), "c.yaml")
	assert.ErrorIs(t, serr, inner)
}
