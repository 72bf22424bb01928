package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/driftnet/internal/cli/config"
	"github.com/leapstack-labs/driftnet/internal/cli/output"
	"github.com/leapstack-labs/driftnet/internal/state"
	"github.com/leapstack-labs/driftnet/pkg/adapter"
	"github.com/leapstack-labs/driftnet/pkg/extract"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	mode := output.Mode(cfg.OutputFormat)
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode),
	}
}

// getConfig returns the current configuration, or defaults when no
// configuration was loaded (commands run outside the root command).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return &config.Config{
		Contract:     config.DefaultContract,
		Extensions:   config.DefaultExtensions(),
		ExcludeDirs:  config.DefaultExcludeDirs(),
		StatePath:    config.DefaultStateFile,
		OutputFormat: config.DefaultOutput,
	}
}

// Extractor builds an extractor with the configured detectors.
func (c *CommandContext) Extractor() (*extract.Extractor, error) {
	detectors, err := extract.SelectDetectors(c.Cfg.Detectors)
	if err != nil {
		return nil, err
	}
	return extract.New(extract.WithDetectors(detectors), extract.WithLogger(c.Logger)), nil
}

// OpenHistory opens the run history store. It returns nil without error
// when history is disabled.
func (c *CommandContext) OpenHistory(ctx context.Context) (*state.SQLiteStore, error) {
	if !c.Cfg.History || c.Cfg.StatePath == "" {
		return nil, nil
	}
	store, err := state.Open(ctx, c.Cfg.StatePath, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", c.Cfg.StatePath, err)
	}
	return store, nil
}

// recordHistory runs fn against the history store. History is best
// effort: failures are logged and never fail the command.
func (c *CommandContext) recordHistory(ctx context.Context, fn func(*state.SQLiteStore) error) {
	store, err := c.OpenHistory(ctx)
	if err != nil {
		c.Logger.Warn("history unavailable", slog.String("error", err.Error()))
		return
	}
	if store == nil {
		return
	}
	defer func() { _ = store.Close() }()
	if err := fn(store); err != nil {
		c.Logger.Warn("failed to record history", slog.String("error", err.Error()))
	}
}

// ConnectTarget opens the configured target database.
// The caller closes the returned adapter.
func (c *CommandContext) ConnectTarget(ctx context.Context) (adapter.Adapter, error) {
	if !c.Cfg.HasTarget() {
		return nil, fmt.Errorf("no target configured\nHint: Set target.type in %s or pass --target-type", config.ConfigFileName)
	}
	acfg := c.Cfg.Target.AdapterConfig()
	adp, err := adapter.NewAdapter(acfg, c.Logger)
	if err != nil {
		return nil, err
	}
	if err := adp.Connect(ctx, acfg); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", acfg.Type, err)
	}
	return adp, nil
}

// ExitError carries a process exit status without an error message.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}
