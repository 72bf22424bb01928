package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/leapstack-labs/driftnet/internal/cli/output"
	"github.com/leapstack-labs/driftnet/internal/state"
	"github.com/leapstack-labs/driftnet/pkg/core"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int
	var extracts bool

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent check and extract runs",
		Long: `List recent check runs, or show the drift records of one run.
A run ID may be abbreviated to any unique prefix.`,
		Example: `  # Recent checks
  driftnet history

  # Records of one run
  driftnet history 3f2a9c1e

  # Recent extracts
  driftnet history --extracts --limit 5`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			store, err := state.Open(ctx, cc.Cfg.StatePath, cc.Logger)
			if err != nil {
				return fmt.Errorf("failed to open history %s: %w", cc.Cfg.StatePath, err)
			}
			defer func() { _ = store.Close() }()

			switch {
			case len(args) == 1:
				return showCheck(ctx, cc.Renderer, store, args[0])
			case extracts:
				return listExtracts(ctx, cc.Renderer, store, limit)
			default:
				return listChecks(ctx, cc.Renderer, store, limit)
			}
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	cmd.Flags().BoolVar(&extracts, "extracts", false, "Show extract runs instead of check runs")

	return cmd
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04:05")
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func listChecks(ctx context.Context, r *output.Renderer, store state.Store, limit int) error {
	runs, err := store.ListChecks(ctx, limit)
	if err != nil {
		return err
	}
	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []state.CheckRun{}
		}
		return r.JSON(runs)
	}

	r.Header(1, fmt.Sprintf("Check runs (%d)", len(runs)))
	if len(runs) == 0 {
		r.Println(r.Muted("No check runs recorded."))
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		status := "ok"
		if run.Failed {
			status = "failed"
		}
		actual := run.Actual
		if run.Live {
			actual += " (live)"
		}
		rows = append(rows, []string{
			shortID(run.ID), formatTime(run.StartedAt), run.ContractPath, actual,
			fmt.Sprint(run.Missing), fmt.Sprint(run.Added), status,
		})
	}
	r.Table([]string{"ID", "Started", "Contract", "Actual", "Missing", "Added", "Status"}, rows)
	return nil
}

func listExtracts(ctx context.Context, r *output.Renderer, store state.Store, limit int) error {
	runs, err := store.ListExtracts(ctx, limit)
	if err != nil {
		return err
	}
	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []state.ExtractRun{}
		}
		return r.JSON(runs)
	}

	r.Header(1, fmt.Sprintf("Extract runs (%d)", len(runs)))
	if len(runs) == 0 {
		r.Println(r.Muted("No extract runs recorded."))
		return nil
	}
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID), formatTime(run.StartedAt), run.OutputPath,
			fmt.Sprint(run.FilesScanned), fmt.Sprint(run.FilesSkipped),
			fmt.Sprint(run.Sources), fmt.Sprint(run.Columns),
		})
	}
	r.Table([]string{"ID", "Started", "Output", "Files", "Skipped", "Sources", "Columns"}, rows)
	return nil
}

// checkDetailJSON is the JSON output for one check run.
type checkDetailJSON struct {
	Run    *state.CheckRun `json:"run"`
	Drifts []core.Drift    `json:"drifts"`
}

func showCheck(ctx context.Context, r *output.Renderer, store state.Store, id string) error {
	run, err := store.GetCheck(ctx, id)
	if err != nil {
		if state.IsNotFound(err) {
			return fmt.Errorf("no check run matches %q", id)
		}
		return err
	}
	drifts, err := store.GetCheckDrifts(ctx, run.ID)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(checkDetailJSON{Run: run, Drifts: nonNilDrifts(drifts)})
	}

	r.Header(1, "Check run "+shortID(run.ID))
	r.Println(output.FormatKeyValue("Started", formatTime(run.StartedAt)))
	r.Println(output.FormatKeyValue("Contract", run.ContractPath))
	r.Println(output.FormatKeyValue("Actual", run.Actual))
	r.Println(output.FormatKeyValue("Skipped sources", fmt.Sprint(run.Skipped)))
	r.Println("")
	printDriftsText(r, drifts)
	return nil
}
