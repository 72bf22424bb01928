package contract

import (
	"slices"
	"sort"

	"github.com/leapstack-labs/driftnet/pkg/core"
)

// Merge folds next into into. Column sets are unioned and reference lists
// are concatenated per column, existing lines first. Sources new to into
// are appended in next's order.
func Merge(into, next *core.Schema) {
	for _, name := range next.Sources() {
		add, _ := next.Get(name)
		old, ok := into.Get(name)
		if !ok {
			into.Set(name, add.Clone())
			continue
		}
		into.Set(name, mergeSource(old, add))
	}
}

func mergeSource(old, add core.SourceSchema) core.SourceSchema {
	set := old.ColumnSet()
	for _, c := range add.Columns {
		set[c] = struct{}{}
	}
	cols := make([]string, 0, len(set))
	for c := range set {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	out := core.SourceSchema{Columns: cols}
	if old.References != nil || add.References != nil {
		out.References = make(map[string][]int, len(cols))
		for c, lines := range old.References {
			out.References[c] = slices.Clone(lines)
		}
		for c, lines := range add.References {
			out.References[c] = append(out.References[c], lines...)
		}
	}
	return out
}
