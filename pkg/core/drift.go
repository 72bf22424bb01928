package core

// DriftKind classifies a drift record.
type DriftKind string

// Drift kinds.
const (
	// DriftMissing means a column referenced by code is absent upstream.
	DriftMissing DriftKind = "missing"
	// DriftAdded means upstream exposes a column the code never references.
	DriftAdded DriftKind = "added"
)

// Label returns the upper-case tag used in reports.
func (k DriftKind) Label() string {
	switch k {
	case DriftMissing:
		return "MISSING"
	case DriftAdded:
		return "ADDED"
	default:
		return "UNKNOWN"
	}
}

// Drift is one discrepancy between a contract and an observed schema.
type Drift struct {
	Kind    DriftKind `json:"type" yaml:"type"`
	Source  string    `json:"source" yaml:"source"`
	Column  string    `json:"column" yaml:"column"`
	Lines   []int     `json:"lines" yaml:"lines"`
	Message string    `json:"message" yaml:"message"`
}
