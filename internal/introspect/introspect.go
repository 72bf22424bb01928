// Package introspect reads the actual schema of data sources from a live
// database through an adapter.
package introspect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/driftnet/pkg/adapter"
	"github.com/leapstack-labs/driftnet/pkg/core"
	"github.com/leapstack-labs/driftnet/pkg/extract"
)

// Result is an observed schema plus the sources that had no table.
type Result struct {
	Schema   *core.Schema
	NotFound []string
}

// Introspector maps source identifiers to tables and reads their columns.
type Introspector struct {
	adp    core.Adapter
	tables map[string]string
	logger *slog.Logger
}

// Option configures an Introspector.
type Option func(*Introspector)

// WithTableMap maps source identifiers to (optionally schema-qualified)
// table names. Unmapped sources are looked up under their own name.
func WithTableMap(m map[string]string) Option {
	return func(i *Introspector) {
		for k, v := range m {
			i.tables[k] = v
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Introspector) {
		if l != nil {
			i.logger = l
		}
	}
}

// New creates an Introspector over a connected adapter.
func New(adp core.Adapter, opts ...Option) *Introspector {
	i := &Introspector{
		adp:    adp,
		tables: make(map[string]string),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// TableFor returns the table name looked up for a source identifier.
func (i *Introspector) TableFor(source string) string {
	if t, ok := i.tables[source]; ok && t != "" {
		return t
	}
	return source
}

// Sources reads the columns of each named source. Sources without a
// matching table are reported in Result.NotFound and left out of the
// schema; the unresolved receiver is never looked up.
func (i *Introspector) Sources(ctx context.Context, sources []string) (*Result, error) {
	res := &Result{Schema: core.NewSchema()}
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if src == extract.Unresolved {
			continue
		}
		table := i.TableFor(src)
		meta, err := i.adp.GetTableMetadata(ctx, table)
		if err != nil {
			var nf *adapter.TableNotFoundError
			if errors.As(err, &nf) {
				i.logger.Warn("table not found", slog.String("source", src), slog.String("table", table))
				res.NotFound = append(res.NotFound, src)
				continue
			}
			return nil, fmt.Errorf("introspect %s: %w", src, err)
		}
		cols := meta.ColumnNames()
		sort.Strings(cols)
		res.Schema.Set(src, core.SourceSchema{Columns: cols})
		i.logger.Debug("introspected table",
			slog.String("source", src),
			slog.String("table", table),
			slog.Int("columns", len(cols)))
	}
	return res, nil
}

// Contract reads the columns of every source named by a contract.
func (i *Introspector) Contract(ctx context.Context, contract *core.Schema) (*Result, error) {
	return i.Sources(ctx, contract.Sources())
}

// All reads every table of a database schema. An empty schema selects the
// adapter's default.
func (i *Introspector) All(ctx context.Context, schema string) (*Result, error) {
	tables, err := i.adp.ListTables(ctx, schema)
	if err != nil {
		return nil, err
	}
	if schema != "" {
		for n, t := range tables {
			tables[n] = schema + "." + t
		}
	}
	return i.Sources(ctx, tables)
}
