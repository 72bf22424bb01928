// Package adapter connects driftnet to live databases so that the "actual"
// side of a drift check can be read from information_schema instead of a
// hand-maintained YAML file.
//
// Concrete adapters live in pkg/adapters and register themselves on import.
package adapter

import (
	"fmt"

	"github.com/leapstack-labs/driftnet/pkg/core"
)

type (
	// Adapter is the interface every database adapter implements.
	Adapter = core.Adapter

	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata
)

// Dialect describes how an adapter talks to information_schema.
type Dialect struct {
	Name          string
	DefaultSchema string
	// Numbered selects $N placeholders instead of ?.
	Numbered bool
}

// Placeholder returns the bind placeholder for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	if d.Numbered {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// TableNotFoundError is returned when a table has no visible columns.
type TableNotFoundError struct {
	Table string
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table %s not found", e.Table)
}
