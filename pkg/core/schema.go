package core

import (
	"slices"
	"sort"
)

// Ref is a single observation emitted by a detector: column Column was
// accessed on source Source at line Line.
type Ref struct {
	Source string
	Column string
	Line   int
}

// SourceSchema is the set of columns observed on one data source together
// with the lines that reference each column.
//
// For schemas built by the extractor, Columns is always the sorted key set
// of References. Schemas observed from a live system may leave References nil.
type SourceSchema struct {
	Columns    []string         `yaml:"columns" json:"columns"`
	References map[string][]int `yaml:"references,omitempty" json:"references,omitempty"`
}

// ColumnSet returns the columns as a set.
func (s SourceSchema) ColumnSet() map[string]struct{} {
	set := make(map[string]struct{}, len(s.Columns))
	for _, c := range s.Columns {
		set[c] = struct{}{}
	}
	return set
}

// Lines returns the reference lines recorded for column, or an empty slice.
func (s SourceSchema) Lines(column string) []int {
	if lines, ok := s.References[column]; ok && lines != nil {
		return lines
	}
	return []int{}
}

// Clone returns a deep copy of the source schema.
func (s SourceSchema) Clone() SourceSchema {
	out := SourceSchema{Columns: slices.Clone(s.Columns)}
	if s.References != nil {
		out.References = make(map[string][]int, len(s.References))
		for col, lines := range s.References {
			out.References[col] = slices.Clone(lines)
		}
	}
	return out
}

// Equal reports whether two source schemas hold the same columns and the
// same reference lists. Nil and empty collections compare equal.
func (s SourceSchema) Equal(o SourceSchema) bool {
	if len(s.Columns) != len(o.Columns) {
		return false
	}
	for i := range s.Columns {
		if s.Columns[i] != o.Columns[i] {
			return false
		}
	}
	if len(s.References) != len(o.References) {
		return false
	}
	for col, lines := range s.References {
		other, ok := o.References[col]
		if !ok || len(lines) != len(other) {
			return false
		}
		for i := range lines {
			if lines[i] != other[i] {
				return false
			}
		}
	}
	return true
}

// Schema maps source identifiers to their SourceSchema. Iteration order is
// the order in which sources were first added.
//
// The zero value is an empty, usable schema.
type Schema struct {
	names   []string
	sources map[string]SourceSchema
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{sources: make(map[string]SourceSchema)}
}

// Set stores the schema for a source. A new source is appended to the
// iteration order; an existing one keeps its position.
func (s *Schema) Set(name string, src SourceSchema) {
	if s.sources == nil {
		s.sources = make(map[string]SourceSchema)
	}
	if _, ok := s.sources[name]; !ok {
		s.names = append(s.names, name)
	}
	s.sources[name] = src
}

// Get returns the schema for a source.
func (s *Schema) Get(name string) (SourceSchema, bool) {
	if s == nil {
		return SourceSchema{}, false
	}
	src, ok := s.sources[name]
	return src, ok
}

// Has reports whether the source is present.
func (s *Schema) Has(name string) bool {
	_, ok := s.Get(name)
	return ok
}

// Sources returns the source identifiers in iteration order.
func (s *Schema) Sources() []string {
	if s == nil {
		return nil
	}
	return slices.Clone(s.names)
}

// SortedSources returns the source identifiers in lexicographic order.
func (s *Schema) SortedSources() []string {
	names := s.Sources()
	sort.Strings(names)
	return names
}

// Len returns the number of sources.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// ColumnCount returns the total number of columns across all sources.
func (s *Schema) ColumnCount() int {
	n := 0
	for _, name := range s.Sources() {
		n += len(s.sources[name].Columns)
	}
	return n
}

// Clone returns a deep copy of the schema.
func (s *Schema) Clone() *Schema {
	out := NewSchema()
	for _, name := range s.Sources() {
		out.Set(name, s.sources[name].Clone())
	}
	return out
}

// Equal reports whether two schemas hold the same sources with equal
// content. Source order is not significant.
func (s *Schema) Equal(o *Schema) bool {
	if s.Len() != o.Len() {
		return false
	}
	for _, name := range s.Sources() {
		other, ok := o.Get(name)
		if !ok {
			return false
		}
		if !s.sources[name].Equal(other) {
			return false
		}
	}
	return true
}
