package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/driftnet/pkg/contract"
	"github.com/leapstack-labs/driftnet/pkg/core"
	"github.com/leapstack-labs/driftnet/pkg/extract"
)

// FileResult is the outcome of extracting one file. Exactly one of Schema
// and Err is set.
type FileResult struct {
	Path   string
	Schema *core.Schema
	Err    error
}

// Report is the outcome of a scan.
type Report struct {
	// Files holds one result per scanned file, in input order.
	Files []FileResult
	// Schema is the merge of every successful file, in input order.
	Schema *core.Schema
}

// Failed returns the results that carry an error.
func (r *Report) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Scanner runs an Extractor over many files.
type Scanner struct {
	ex     *extract.Extractor
	opts   Options
	logger *slog.Logger
}

// New creates a Scanner. A nil logger discards output.
func New(ex *extract.Extractor, opts Options, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if ex == nil {
		ex = extract.New(extract.WithLogger(logger))
	}
	return &Scanner{ex: ex, opts: opts, logger: logger}
}

// Options returns the scanner's options.
func (s *Scanner) Options() Options {
	return s.opts
}

// Run extracts every file with a bounded pool of workers. Unreadable and
// unparsable files are recorded in the report and skipped; in strict mode
// the first parse error aborts the run instead. The merged schema does not
// depend on worker scheduling.
func (s *Scanner) Run(ctx context.Context, files []string) (*Report, error) {
	workers := s.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make([]FileResult, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.extractFile(path)
			var perr *core.ParseError
			if s.opts.Strict && errors.As(results[i].Err, &perr) {
				return results[i].Err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Files: results, Schema: core.NewSchema()}
	for _, r := range results {
		if r.Err != nil {
			s.logger.Debug("skipping file", slog.String("file", r.Path), slog.String("error", r.Err.Error()))
			continue
		}
		contract.Merge(report.Schema, r.Schema)
	}
	return report, nil
}

func (s *Scanner) extractFile(path string) FileResult {
	src, err := os.ReadFile(path)
	if err != nil {
		return FileResult{Path: path, Err: fmt.Errorf("failed to read %s: %w", path, err)}
	}
	schema, err := s.ex.Extract(path, src)
	if err != nil {
		return FileResult{Path: path, Err: err}
	}
	return FileResult{Path: path, Schema: schema}
}
