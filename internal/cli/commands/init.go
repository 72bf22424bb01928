package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/driftnet/internal/cli/config"
	"github.com/leapstack-labs/driftnet/pkg/adapter"
	"github.com/leapstack-labs/driftnet/pkg/extract"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var target string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a starter driftnet.yaml",
		Long: `Write a driftnet.yaml with the default settings into a directory.

Use --target to include a connection block for live introspection.`,
		Example: `  # Initialize in the current directory
  driftnet init

  # Initialize with a DuckDB target
  driftnet init analytics --target duckdb

  # Overwrite an existing config
  driftnet init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			cc := NewCommandContext(cmd)
			path, err := writeStarterConfig(dir, target, force)
			if err != nil {
				return err
			}

			r := cc.Renderer
			r.StatusLine(path, "success", "")
			r.Println("")
			r.Success("driftnet project initialized!")
			r.Println("")
			r.Println("Next steps:")
			r.Println("  1. Run 'driftnet extract' to build the contract")
			r.Println("  2. Run 'driftnet check' against an actual schema or your target")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().StringVar(&target, "target", "", "Add a target block for this adapter type")

	return cmd
}

type starterTarget struct {
	Type     string `yaml:"type"`
	Database string `yaml:"database,omitempty"`
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	Schema   string `yaml:"schema,omitempty"`
}

type starterSource struct {
	Source string `yaml:"source"`
	Table  string `yaml:"table"`
}

type starterConfig struct {
	Contract    string          `yaml:"contract"`
	Extensions  []string        `yaml:"extensions"`
	ExcludeDirs []string        `yaml:"exclude_dirs"`
	Detectors   []string        `yaml:"detectors"`
	Strict      bool            `yaml:"strict"`
	History     bool            `yaml:"history"`
	StatePath   string          `yaml:"state_path"`
	Target      *starterTarget  `yaml:"target,omitempty"`
	Sources     []starterSource `yaml:"sources,omitempty"`
}

const starterHeader = `driftnet configuration.
Every key can be overridden with a DRIFTNET_ environment variable
(DRIFTNET_TARGET__PASSWORD for target.password) or a flag.`

func starterTargetFor(typ string) (*starterTarget, error) {
	switch typ {
	case "":
		return nil, nil
	case "duckdb":
		return &starterTarget{Type: "duckdb", Database: "warehouse.duckdb"}, nil
	case "postgres":
		return &starterTarget{
			Type:     "postgres",
			Database: "analytics",
			Host:     "localhost",
			Port:     5432,
			User:     "${PGUSER}",
			Password: "${PGPASSWORD}",
			Schema:   "public",
		}, nil
	default:
		return nil, fmt.Errorf("unknown target %q (available: %v)", typ, adapter.ListAdapters())
	}
}

// renderStarterConfig returns the YAML text of a starter config.
func renderStarterConfig(target string) ([]byte, error) {
	t, err := starterTargetFor(target)
	if err != nil {
		return nil, err
	}
	cfg := starterConfig{
		Contract:    config.DefaultContract,
		Extensions:  config.DefaultExtensions(),
		ExcludeDirs: config.DefaultExcludeDirs(),
		Detectors:   extract.DetectorNames(),
		History:     true,
		StatePath:   config.DefaultStateFile,
		Target:      t,
	}
	if t != nil {
		cfg.Sources = []starterSource{{Source: "df", Table: "orders"}}
	}

	var doc yaml.Node
	if err := doc.Encode(cfg); err != nil {
		return nil, err
	}
	doc.HeadComment = starterHeader

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeStarterConfig(dir, target string, force bool) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, config.ConfigFileName)
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists. Use --force to overwrite", path)
	}
	data, err := renderStarterConfig(target)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
