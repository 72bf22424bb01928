package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/driftnet/internal/cli/output"
	"github.com/leapstack-labs/driftnet/pkg/contract"
	"github.com/leapstack-labs/driftnet/pkg/core"
	"github.com/spf13/cobra"
)

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	var columns bool

	cmd := &cobra.Command{
		Use:   "show [schema]",
		Short: "Summarize a contract or actual schema file",
		Long: `Print the sources of a schema file with their columns and how often
each source is referenced. Defaults to the configured contract.`,
		Example: `  # Summarize the configured contract
  driftnet show

  # List every column with its reference lines
  driftnet show upstream.yaml --columns`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContext(cmd)
			path := cc.Cfg.Contract
			if len(args) > 0 {
				path = args[0]
			}
			schema, err := contract.Load(path)
			if err != nil {
				return err
			}
			return renderSchema(cc.Renderer, path, schema, columns)
		},
	}

	cmd.Flags().BoolVar(&columns, "columns", false, "List every column with its reference lines")

	return cmd
}

// schemaJSON is the JSON output of the show command.
type schemaJSON struct {
	Path    string       `json:"path"`
	Sources []sourceJSON `json:"sources"`
}

type sourceJSON struct {
	Name       string           `json:"name"`
	Columns    []string         `json:"columns"`
	References map[string][]int `json:"references,omitempty"`
}

func renderSchema(r *output.Renderer, path string, schema *core.Schema, columns bool) error {
	if r.EffectiveMode() == output.ModeJSON {
		res := schemaJSON{Path: path, Sources: make([]sourceJSON, 0, schema.Len())}
		for _, name := range schema.Sources() {
			s, _ := schema.Get(name)
			cols := s.Columns
			if cols == nil {
				cols = []string{}
			}
			res.Sources = append(res.Sources, sourceJSON{Name: name, Columns: cols, References: s.References})
		}
		return r.JSON(res)
	}

	r.Header(1, fmt.Sprintf("%s (%d sources, %d columns)", path, schema.Len(), schema.ColumnCount()))
	if schema.Len() == 0 {
		r.Println(r.Muted("No sources."))
		return nil
	}

	if columns {
		rows := [][]string{}
		for _, name := range schema.Sources() {
			s, _ := schema.Get(name)
			for _, col := range s.Columns {
				rows = append(rows, []string{name, col, output.FormatLines(s.References[col])})
			}
		}
		r.Table([]string{"Source", "Column", "Lines"}, rows)
		return nil
	}

	rows := make([][]string, 0, schema.Len())
	for _, name := range schema.Sources() {
		s, _ := schema.Get(name)
		refs := 0
		for _, lines := range s.References {
			refs += len(lines)
		}
		rows = append(rows, []string{name, fmt.Sprint(len(s.Columns)), fmt.Sprint(refs), strings.Join(s.Columns, ", ")})
	}
	r.Table([]string{"Source", "Columns", "References", "Names"}, rows)
	return nil
}
