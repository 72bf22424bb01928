// Package drift compares a captured schema contract against an observed
// schema and reports the columns that disappeared or appeared upstream.
package drift

import (
	"fmt"
	"sort"

	"github.com/leapstack-labs/driftnet/pkg/core"
)

// Compare diffs contract against actual.
//
// Sources are visited in the contract's order. A source missing from either
// side produces no records. Within a source every MISSING record precedes
// every ADDED record and each group is sorted by column name.
func Compare(contract, actual *core.Schema) []core.Drift {
	var out []core.Drift
	for _, name := range contract.Sources() {
		observed, ok := actual.Get(name)
		if !ok {
			continue
		}
		expected, _ := contract.Get(name)
		out = append(out, compareSource(name, expected, observed)...)
	}
	return out
}

// OneSided returns the sources that exist in only one of the two schemas,
// contract-only first, each list in its schema's order. Compare ignores them.
func OneSided(contract, actual *core.Schema) (contractOnly, actualOnly []string) {
	for _, name := range contract.Sources() {
		if !actual.Has(name) {
			contractOnly = append(contractOnly, name)
		}
	}
	for _, name := range actual.Sources() {
		if !contract.Has(name) {
			actualOnly = append(actualOnly, name)
		}
	}
	return contractOnly, actualOnly
}

func compareSource(source string, expected, observed core.SourceSchema) []core.Drift {
	want := expected.ColumnSet()
	have := observed.ColumnSet()

	var out []core.Drift
	for _, col := range difference(want, have) {
		out = append(out, core.Drift{
			Kind:    core.DriftMissing,
			Source:  source,
			Column:  col,
			Lines:   expected.Lines(col),
			Message: fmt.Sprintf("Column '%s' used in code but missing upstream in '%s'", col, source),
		})
	}
	for _, col := range difference(have, want) {
		out = append(out, core.Drift{
			Kind:    core.DriftAdded,
			Source:  source,
			Column:  col,
			Lines:   []int{},
			Message: fmt.Sprintf("New column '%s' in '%s' (unused)", col, source),
		})
	}
	return out
}

// difference returns a - b, sorted.
func difference(a, b map[string]struct{}) []string {
	var out []string
	for k := range a {
		if _, ok := b[k]; !ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
