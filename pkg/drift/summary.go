package drift

import "github.com/leapstack-labs/driftnet/pkg/core"

// Summary counts drift records.
type Summary struct {
	Missing int `json:"missing"`
	Added   int `json:"added"`
	// Sources is the number of distinct sources with at least one record.
	Sources int `json:"sources"`
}

// Total returns the number of records.
func (s Summary) Total() int {
	return s.Missing + s.Added
}

// Summarize counts records by kind.
func Summarize(records []core.Drift) Summary {
	var s Summary
	seen := make(map[string]bool)
	for _, d := range records {
		switch d.Kind {
		case core.DriftMissing:
			s.Missing++
		case core.DriftAdded:
			s.Added++
		}
		if !seen[d.Source] {
			seen[d.Source] = true
			s.Sources++
		}
	}
	return s
}

// HasMissing reports whether any record is MISSING. A check fails iff this
// is true.
func HasMissing(records []core.Drift) bool {
	for _, d := range records {
		if d.Kind == core.DriftMissing {
			return true
		}
	}
	return false
}
