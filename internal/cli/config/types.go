// Package config provides configuration management for the driftnet CLI.
//
// Configuration is layered with koanf: defaults, then driftnet.yaml, then
// DRIFTNET_* environment variables, then explicitly set flags.
package config

import (
	"github.com/leapstack-labs/driftnet/pkg/core"
)

// Config holds all CLI configuration options.
type Config struct {
	ProjectRoot  string        `koanf:"-"`
	Contract     string        `koanf:"contract"`
	Extensions   []string      `koanf:"extensions"`
	ExcludeDirs  []string      `koanf:"exclude_dirs"`
	Workers      int           `koanf:"workers"`
	Detectors    []string      `koanf:"detectors"`
	Strict       bool          `koanf:"strict"`
	History      bool          `koanf:"history"`
	StatePath    string        `koanf:"state_path"`
	OutputFormat string        `koanf:"format"`
	Verbose      bool          `koanf:"verbose"`
	Target       *TargetConfig `koanf:"target"`
	Sources      []SourceTable `koanf:"sources"`
}

// SourceTable maps a source identifier found in code to the table that
// backs it. Source identifiers may contain dots, so the mapping is a list
// rather than a keyed map.
type SourceTable struct {
	Source string `koanf:"source"`
	Table  string `koanf:"table"`
}

// TargetConfig describes the database that supplies the live actual schema.
type TargetConfig struct {
	Type     string            `koanf:"type"`
	Database string            `koanf:"database"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	User     string            `koanf:"user"`
	Password string            `koanf:"password"`
	Schema   string            `koanf:"schema"`
	Options  map[string]string `koanf:"options"`
	Params   map[string]any    `koanf:"params"`
}

// AdapterConfig converts the target into the adapter connection config.
func (t *TargetConfig) AdapterConfig() core.AdapterConfig {
	return core.AdapterConfig{
		Type:     t.Type,
		Path:     t.Database,
		Host:     t.Host,
		Port:     t.Port,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  t.Options,
		Params:   t.Params,
	}
}

// SourceTables returns the source to table mapping used by introspection.
func (c *Config) SourceTables() map[string]string {
	m := make(map[string]string, len(c.Sources))
	for _, st := range c.Sources {
		m[st.Source] = st.Table
	}
	return m
}

// HasTarget reports whether a target database is configured.
func (c *Config) HasTarget() bool {
	return c.Target != nil && c.Target.Type != ""
}

// Default configuration values.
const (
	DefaultContract  = "driftnet-contract.yaml"
	DefaultStateFile = ".driftnet/state.db"
	DefaultOutput    = "auto" // TTY=text, non-TTY=markdown
	ConfigFileName   = "driftnet.yaml"
)

// DefaultExtensions returns the file extensions scanned by default.
func DefaultExtensions() []string {
	return []string{".py"}
}

// DefaultExcludeDirs returns the directory names skipped while scanning.
func DefaultExcludeDirs() []string {
	return []string{".git", ".venv", "venv", "__pycache__", "node_modules", ".tox"}
}
