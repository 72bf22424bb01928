package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/driftnet/internal/cli/output"
	"github.com/leapstack-labs/driftnet/internal/scan"
	"github.com/leapstack-labs/driftnet/internal/state"
	"github.com/leapstack-labs/driftnet/pkg/contract"
	"github.com/spf13/cobra"
)

// NewExtractCommand creates the extract command.
func NewExtractCommand() *cobra.Command {
	var out string
	var watch bool

	cmd := &cobra.Command{
		Use:   "extract [paths...]",
		Short: "Extract the column contract from Python sources",
		Long: `Scan Python files for the columns they read from data sources and
write the merged result as a contract.

Paths may be files or directories; directories are searched recursively
for files with the configured extensions. Missing paths are skipped.
Files that fail to parse are skipped with a warning unless --strict is set.`,
		Example: `  # Extract from the current directory
  driftnet extract

  # Extract two files into a custom contract
  driftnet extract etl/load.py etl/report.py -o contracts/etl.yaml

  # Re-extract whenever a file changes
  driftnet extract src --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			return runExtract(cmd, args, out, watch)
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "", "Contract file to write (default: contract from config)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Re-extract when source files change")
	cmd.Flags().Bool("strict", false, "Abort on the first file that fails to parse")
	cmd.Flags().Int("workers", 0, "Concurrent file extractions (0 = one per CPU)")
	cmd.Flags().StringSlice("detectors", nil, "Detectors to run (keyed-access, tabular-call, embedded-query)")

	return cmd
}

// extractFileJSON is the JSON form of one scanned file.
type extractFileJSON struct {
	Path    string `json:"path"`
	Sources int    `json:"sources,omitempty"`
	Columns int    `json:"columns,omitempty"`
	Error   string `json:"error,omitempty"`
}

// extractJSON is the JSON output of the extract command.
type extractJSON struct {
	Output  string            `json:"output"`
	Files   []extractFileJSON `json:"files"`
	Missing []string          `json:"missing"`
	Sources int               `json:"sources"`
	Columns int               `json:"columns"`
}

func runExtract(cmd *cobra.Command, paths []string, out string, watch bool) error {
	cc := NewCommandContext(cmd)
	if out == "" {
		out = cc.Cfg.Contract
	}

	ex, err := cc.Extractor()
	if err != nil {
		return err
	}
	sc := scan.New(ex, scan.Options{
		Extensions:  cc.Cfg.Extensions,
		ExcludeDirs: cc.Cfg.ExcludeDirs,
		Workers:     cc.Cfg.Workers,
		Strict:      cc.Cfg.Strict,
	}, cc.Logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := extractOnce(ctx, cc, sc, paths, out); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	cc.Renderer.Println(cc.Renderer.Muted("Watching for changes. Press Ctrl+C to stop."))
	return sc.Watch(ctx, paths, func(rep *scan.Report, err error) {
		if err != nil {
			cc.Renderer.Error(err.Error())
			return
		}
		if err := saveReport(ctx, cc, rep, nil, out); err != nil {
			cc.Renderer.Error(err.Error())
		}
	})
}

// extractOnce discovers, scans and saves.
func extractOnce(ctx context.Context, cc *CommandContext, sc *scan.Scanner, paths []string, out string) error {
	files, missing, err := scan.Discover(paths, sc.Options())
	if err != nil {
		return err
	}
	rep, err := sc.Run(ctx, files)
	if err != nil {
		return err
	}
	return saveReport(ctx, cc, rep, missing, out)
}

func saveReport(ctx context.Context, cc *CommandContext, rep *scan.Report, missing []string, out string) error {
	started := time.Now().UTC()
	if err := contract.Save(rep.Schema, out); err != nil {
		return fmt.Errorf("failed to save contract: %w", err)
	}

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		if err := r.JSON(extractToJSON(rep, missing, out)); err != nil {
			return err
		}
	default:
		printExtract(r, rep, missing, out)
	}

	skipped := len(missing) + len(rep.Failed())
	cc.recordHistory(ctx, func(store *state.SQLiteStore) error {
		return store.RecordExtract(ctx, &state.ExtractRun{
			OutputPath:   out,
			StartedAt:    started,
			FilesScanned: len(rep.Files) - len(rep.Failed()),
			FilesSkipped: skipped,
			Sources:      rep.Schema.Len(),
			Columns:      rep.Schema.ColumnCount(),
		})
	})
	cc.Logger.Debug("extract finished",
		slog.String("output", out),
		slog.Int("files", len(rep.Files)),
		slog.Int("skipped", skipped))
	return nil
}

func printExtract(r *output.Renderer, rep *scan.Report, missing []string, out string) {
	styles := r.Styles()
	for _, p := range missing {
		r.Printf("%s %s not found\n", styles.Muted.Render("[SKIP]"), p)
	}
	for _, f := range rep.Files {
		if f.Err != nil {
			r.Warning(fmt.Sprintf("%s skipped: %v", f.Path, f.Err))
			continue
		}
		r.Printf("%s %s: %d columns from %d sources\n",
			styles.Info.Render("[SCAN]"), f.Path, f.Schema.ColumnCount(), f.Schema.Len())
	}
	r.Success(fmt.Sprintf("Contract saved: %s (%d columns, %d sources)",
		out, rep.Schema.ColumnCount(), rep.Schema.Len()))
}

func extractToJSON(rep *scan.Report, missing []string, out string) extractJSON {
	res := extractJSON{
		Output:  out,
		Files:   make([]extractFileJSON, 0, len(rep.Files)),
		Missing: missing,
		Sources: rep.Schema.Len(),
		Columns: rep.Schema.ColumnCount(),
	}
	if res.Missing == nil {
		res.Missing = []string{}
	}
	for _, f := range rep.Files {
		fj := extractFileJSON{Path: f.Path}
		if f.Err != nil {
			fj.Error = f.Err.Error()
		} else {
			fj.Sources = f.Schema.Len()
			fj.Columns = f.Schema.ColumnCount()
		}
		res.Files = append(res.Files, fj)
	}
	return res
}
