// Package extract infers the implicit schema contract a Python program
// imposes on its data sources.
//
// A single traversal of the parsed module dispatches every node to every
// detector. Detector hits are (source, column, line) triples that are
// accumulated per call and normalized into a core.Schema: columns sorted
// and deduplicated, reference lines kept in discovery order.
package extract

import (
	"log/slog"
	"sort"

	"github.com/leapstack-labs/driftnet/pkg/core"
	"github.com/leapstack-labs/driftnet/pkg/pyast"
)

// Extractor runs a fixed set of detectors over parsed modules.
// It holds no per-call state and is safe for concurrent use.
type Extractor struct {
	detectors []Detector
	logger    *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithDetectors replaces the default detector set.
func WithDetectors(ds []Detector) Option {
	return func(e *Extractor) {
		e.detectors = ds
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extractor) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Extractor. Without options it uses DefaultDetectors.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		detectors: DefaultDetectors(),
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract parses src with the default detectors and returns its schema.
func Extract(src []byte) (*core.Schema, error) {
	return New().Extract("", src)
}

// Extract parses src and returns the schema it references. filename is
// only used in parse errors and logs.
func (e *Extractor) Extract(filename string, src []byte) (*core.Schema, error) {
	root, err := pyast.ParseFile(filename, src)
	if err != nil {
		return nil, err
	}
	schema := e.ExtractTree(root)
	e.logger.Debug("extracted schema",
		slog.String("file", filename),
		slog.Int("sources", schema.Len()),
		slog.Int("columns", schema.ColumnCount()))
	return schema, nil
}

// ExtractTree runs the detectors over an already parsed module.
func (e *Extractor) ExtractTree(root *pyast.Node) *core.Schema {
	acc := newAccumulator()
	pyast.Walk(root, func(n *pyast.Node) bool {
		for _, d := range e.detectors {
			for _, ref := range d.Detect(n) {
				acc.add(ref)
			}
		}
		return true
	})
	return acc.schema()
}

// accumulator collects reference lines per (source, column) for one call.
type accumulator struct {
	order []string
	refs  map[string]map[string][]int
}

func newAccumulator() *accumulator {
	return &accumulator{refs: make(map[string]map[string][]int)}
}

func (a *accumulator) add(r core.Ref) {
	cols, ok := a.refs[r.Source]
	if !ok {
		cols = make(map[string][]int)
		a.refs[r.Source] = cols
		a.order = append(a.order, r.Source)
	}
	cols[r.Column] = append(cols[r.Column], r.Line)
}

// schema normalizes the accumulated references into an immutable result.
func (a *accumulator) schema() *core.Schema {
	out := core.NewSchema()
	for _, src := range a.order {
		cols := a.refs[src]
		names := make([]string, 0, len(cols))
		for c := range cols {
			names = append(names, c)
		}
		sort.Strings(names)
		out.Set(src, core.SourceSchema{Columns: names, References: cols})
	}
	return out
}
