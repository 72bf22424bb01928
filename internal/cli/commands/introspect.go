package commands

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/driftnet/internal/introspect"
	"github.com/leapstack-labs/driftnet/pkg/contract"
	"github.com/spf13/cobra"
)

// NewIntrospectCommand creates the introspect command.
func NewIntrospectCommand() *cobra.Command {
	var out string
	var contractPath string
	var schema string

	cmd := &cobra.Command{
		Use:   "introspect [tables...]",
		Short: "Write the actual schema of the target database",
		Long: `Read column names from the configured target database and write them
as an actual schema file that check can compare against.

Tables are chosen in this order: the tables given as arguments, the
sources named by --contract, or every table of --schema (default: the
target's default schema).`,
		Example: `  # Snapshot every table in the default schema
  driftnet introspect -o upstream.yaml

  # Snapshot only the sources a contract uses
  driftnet introspect --contract driftnet-contract.yaml -o upstream.yaml

  # Snapshot specific tables
  driftnet introspect main.orders main.users`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIntrospect(cmd, args, contractPath, schema, out)
		},
	}

	cmd.Flags().StringVarP(&out, "output", "o", "driftnet-actual.yaml", "Actual schema file to write")
	cmd.Flags().StringVar(&contractPath, "contract", "", "Introspect the sources named by this contract")
	cmd.Flags().StringVar(&schema, "schema", "", "Database schema to list when no tables are given")

	return cmd
}

func runIntrospect(cmd *cobra.Command, tables []string, contractPath, schema, out string) error {
	cc := NewCommandContext(cmd)
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	adp, err := cc.ConnectTarget(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = adp.Close() }()

	in := introspect.New(adp,
		introspect.WithTableMap(cc.Cfg.SourceTables()),
		introspect.WithLogger(cc.Logger))

	var res *introspect.Result
	switch {
	case len(tables) > 0:
		res, err = in.Sources(ctx, tables)
	case contractPath != "":
		expected, lerr := contract.Load(contractPath)
		if lerr != nil {
			return lerr
		}
		res, err = in.Contract(ctx, expected)
	default:
		res, err = in.All(ctx, schema)
	}
	if err != nil {
		return err
	}

	if err := contract.Save(res.Schema, out); err != nil {
		return fmt.Errorf("failed to save actual schema: %w", err)
	}

	r := cc.Renderer
	for _, src := range res.NotFound {
		r.StatusLine(src, "skip", "table "+in.TableFor(src)+" not found")
	}
	for _, src := range res.Schema.Sources() {
		s, _ := res.Schema.Get(src)
		r.StatusLine(src, "success", fmt.Sprintf("%d columns", len(s.Columns)))
	}
	r.Success(fmt.Sprintf("Actual schema saved: %s (%d columns, %d sources)",
		out, res.Schema.ColumnCount(), res.Schema.Len()))
	return nil
}
