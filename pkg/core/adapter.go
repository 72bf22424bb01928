package core

import (
	"context"
)

// Adapter defines the interface that all database adapters must implement.
// Adapters are the live counterpart of a persisted "actual" schema.
type Adapter interface {
	// Connect establishes a connection to the database.
	Connect(ctx context.Context, cfg AdapterConfig) error

	// Close closes the database connection.
	Close() error

	// GetTableMetadata retrieves column metadata for a table.
	GetTableMetadata(ctx context.Context, table string) (*TableMetadata, error)

	// ListTables lists the base tables and views of a schema.
	// An empty schema selects the adapter's default schema.
	ListTables(ctx context.Context, schema string) ([]string, error)

	// DialectName returns the SQL dialect name of the adapter.
	DialectName() string
}

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string
	// Params holds adapter-specific settings decoded by the adapter itself.
	Params map[string]any
}

// Column represents a column in a database table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// TableMetadata holds metadata about a database table.
type TableMetadata struct {
	Schema  string
	Name    string
	Columns []Column
}

// ColumnNames returns the column names in ordinal order.
func (m *TableMetadata) ColumnNames() []string {
	names := make([]string, 0, len(m.Columns))
	for _, c := range m.Columns {
		names = append(names, c.Name)
	}
	return names
}
