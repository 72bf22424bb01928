package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/driftnet/internal/cli/output"
	"github.com/leapstack-labs/driftnet/internal/introspect"
	"github.com/leapstack-labs/driftnet/internal/state"
	"github.com/leapstack-labs/driftnet/pkg/contract"
	"github.com/leapstack-labs/driftnet/pkg/core"
	"github.com/leapstack-labs/driftnet/pkg/drift"
	"github.com/spf13/cobra"
)

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [contract] [actual]",
		Short: "Compare a contract with the actual upstream schema",
		Long: `Compare the columns code depends on (the contract) with the columns
upstream sources actually provide.

The actual schema is read from a file when given. Otherwise it is
introspected from the configured target database, looking up each
contract source under its mapped table name.

Exits with status 1 when a column used in code is missing upstream.
New upstream columns are reported but do not fail the check.`,
		Example: `  # Compare two schema files
  driftnet check driftnet-contract.yaml upstream.yaml

  # Compare the configured contract with the live target
  driftnet check

  # Machine-readable result
  driftnet check contract.yaml actual.yaml --format json`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, args)
		},
	}
	return cmd
}

// checkJSON is the JSON output of the check command.
type checkJSON struct {
	Contract string        `json:"contract"`
	Actual   string        `json:"actual"`
	Live     bool          `json:"live"`
	Drifts   []core.Drift  `json:"drifts"`
	Summary  drift.Summary `json:"summary"`
	Skipped  []string      `json:"skipped_sources"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now().UTC()

	contractPath := cc.Cfg.Contract
	if len(args) > 0 {
		contractPath = args[0]
	}
	expected, err := contract.Load(contractPath)
	if err != nil {
		return err
	}

	run := &state.CheckRun{ContractPath: contractPath, StartedAt: started}
	var actual *core.Schema
	if len(args) > 1 {
		run.Actual = args[1]
		actual, err = contract.Load(args[1])
		if err != nil {
			return err
		}
	} else {
		actual, err = introspectContract(ctx, cc, expected)
		if err != nil {
			return err
		}
		run.Actual = cc.Cfg.Target.Type
		run.Live = true
	}

	records := drift.Compare(expected, actual)
	contractOnly, actualOnly := drift.OneSided(expected, actual)
	for _, src := range contractOnly {
		cc.Logger.Debug("source not in actual schema, skipped", slog.String("source", src))
	}
	for _, src := range actualOnly {
		cc.Logger.Debug("source not in contract, skipped", slog.String("source", src))
	}

	summary := drift.Summarize(records)
	run.Missing = summary.Missing
	run.Added = summary.Added
	run.Skipped = len(contractOnly) + len(actualOnly)
	run.Failed = drift.HasMissing(records)

	r := cc.Renderer
	switch r.EffectiveMode() {
	case output.ModeJSON:
		skipped := append(append([]string{}, contractOnly...), actualOnly...)
		if err := r.JSON(checkJSON{
			Contract: run.ContractPath,
			Actual:   run.Actual,
			Live:     run.Live,
			Drifts:   nonNilDrifts(records),
			Summary:  summary,
			Skipped:  skipped,
		}); err != nil {
			return err
		}
	case output.ModeMarkdown:
		printDriftsMarkdown(r, records, summary)
	default:
		printDriftsText(r, records)
	}

	cc.recordHistory(ctx, func(store *state.SQLiteStore) error {
		return store.RecordCheck(ctx, run, records)
	})

	if run.Failed {
		return &ExitError{Code: 1}
	}
	return nil
}

// introspectContract reads the live columns of every contract source.
func introspectContract(ctx context.Context, cc *CommandContext, expected *core.Schema) (*core.Schema, error) {
	if !cc.Cfg.HasTarget() {
		return nil, fmt.Errorf("no actual schema given and no target configured\nHint: Pass an actual schema file or set target in driftnet.yaml")
	}
	adp, err := cc.ConnectTarget(ctx)
	if err != nil {
		return nil, err
	}
	defer func() { _ = adp.Close() }()

	in := introspect.New(adp,
		introspect.WithTableMap(cc.Cfg.SourceTables()),
		introspect.WithLogger(cc.Logger))
	res, err := in.Contract(ctx, expected)
	if err != nil {
		return nil, err
	}
	for _, src := range res.NotFound {
		cc.Renderer.Warning(fmt.Sprintf("no table for source %s (looked up %s)", src, in.TableFor(src)))
	}
	return res.Schema, nil
}

func nonNilDrifts(records []core.Drift) []core.Drift {
	if records == nil {
		return []core.Drift{}
	}
	return records
}

// driftTag renders "[MISSING]" or "[ADDED]" in the kind's style.
func driftTag(r *output.Renderer, kind core.DriftKind) string {
	tag := "[" + kind.Label() + "]"
	if kind == core.DriftMissing {
		return r.Styles().Error.Render(tag)
	}
	return r.Styles().Warning.Render(tag)
}

func printDriftsText(r *output.Renderer, records []core.Drift) {
	if len(records) == 0 {
		r.Success("No schema drift detected.")
		return
	}
	for _, d := range records {
		r.Printf("%s %s (lines [%s])\n", driftTag(r, d.Kind), d.Message, output.FormatLines(d.Lines))
	}
	r.Println("")
	r.Printf("%s %d issue(s) found.\n", r.Styles().Bold.Render("[DRIFT]"), len(records))
}

func printDriftsMarkdown(r *output.Renderer, records []core.Drift, summary drift.Summary) {
	r.Header(1, "Schema Drift")
	if len(records) == 0 {
		r.Success("No schema drift detected.")
		return
	}
	r.Println(output.FormatKeyValue("Missing", fmt.Sprint(summary.Missing)))
	r.Println(output.FormatKeyValue("Added", fmt.Sprint(summary.Added)))
	r.Println("")

	rows := make([][]string, 0, len(records))
	for _, d := range records {
		rows = append(rows, []string{
			output.Title(string(d.Kind)),
			d.Source,
			d.Column,
			output.FormatLines(d.Lines),
			d.Message,
		})
	}
	r.Table([]string{"Kind", "Source", "Column", "Lines", "Message"}, rows)
	r.Println("")
	r.Printf("[DRIFT] %d issue(s) found.\n", len(records))
}
