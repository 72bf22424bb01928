package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/leapstack-labs/driftnet/internal/cli/output"
	"github.com/leapstack-labs/driftnet/pkg/adapter"
	"github.com/leapstack-labs/driftnet/pkg/extract"
)

// Validate checks the configuration for values no command can work with.
func (c *Config) Validate() error {
	if !slices.Contains(output.Modes(), strings.ToLower(c.OutputFormat)) {
		return fmt.Errorf("invalid format %q: must be one of %s", c.OutputFormat, strings.Join(output.Modes(), ", "))
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	if c.Contract == "" {
		return fmt.Errorf("contract is required")
	}
	if len(c.Detectors) > 0 {
		if _, err := extract.SelectDetectors(c.Detectors); err != nil {
			return fmt.Errorf("invalid detectors: %w", err)
		}
	}
	for i, st := range c.Sources {
		if st.Source == "" || st.Table == "" {
			return fmt.Errorf("sources[%d]: source and table are required", i)
		}
	}
	if c.Target != nil {
		if err := c.Target.Validate(); err != nil {
			return fmt.Errorf("invalid target configuration: %w", err)
		}
	}
	return nil
}

// Validate checks that the target names a registered adapter.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return fmt.Errorf("unknown adapter type %q (available: %s)\nHint: Check target.type in %s",
			t.Type, strings.Join(adapter.ListAdapters(), ", "), ConfigFileName)
	}
	if t.Port < 0 || t.Port > 65535 {
		return fmt.Errorf("target port %d out of range", t.Port)
	}
	return nil
}
