// Package contract persists schema mappings as YAML documents.
//
// A document is a mapping from source identifier to
//
//	columns: [a, b]
//	references:
//	  a: [3, 7]
//	  b: [4]
//
// Sources and columns are written in sorted order so that contracts diff
// cleanly under version control. The references block is omitted for
// sources that carry none, such as schemas observed from a live database.
package contract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/driftnet/pkg/core"
)

// sourceYAML is the on-disk shape of a single source.
type sourceYAML struct {
	Columns    []string         `yaml:"columns"`
	References map[string][]int `yaml:"references,omitempty"`
}

// Save writes schema to path, creating parent directories as needed.
func Save(schema *core.Schema, path string) error {
	var buf bytes.Buffer
	if err := Encode(&buf, schema); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// Encode writes schema to w as YAML.
func Encode(w io.Writer, schema *core.Schema) error {
	doc := make(map[string]sourceYAML, schema.Len())
	for _, name := range schema.Sources() {
		src, _ := schema.Get(name)
		cols := src.Columns
		if cols == nil {
			cols = []string{}
		}
		doc[name] = sourceYAML{Columns: cols, References: src.References}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	return enc.Close()
}

// Load reads the schema stored at path. A missing or empty file yields an
// empty schema.
func Load(path string) (*core.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return core.NewSchema(), nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return decode(data, path)
}

// Decode reads a schema document from r.
func Decode(r io.Reader) (*core.Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return decode(data, "")
}

func decode(data []byte, path string) (*core.Schema, error) {
	schema := core.NewSchema()
	if len(bytes.TrimSpace(data)) == 0 {
		return schema, nil
	}

	fail := func(err error) (*core.Schema, error) {
		return nil, &core.SerializationError{Path: path, Err: err}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fail(err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return schema, nil
		}
		root = root.Content[0]
	}
	if isNull(root) {
		return schema, nil
	}
	if root.Kind != yaml.MappingNode {
		return fail(fmt.Errorf("line %d: expected a mapping of sources", root.Line))
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return fail(fmt.Errorf("line %d: source name must be a scalar", key.Line))
		}
		name := key.Value
		if isNull(val) {
			schema.Set(name, core.SourceSchema{})
			continue
		}
		if val.Kind != yaml.MappingNode {
			return fail(fmt.Errorf("line %d: source %q must be a mapping", val.Line, name))
		}
		var raw sourceYAML
		if err := val.Decode(&raw); err != nil {
			return fail(fmt.Errorf("source %q: %w", name, err))
		}
		schema.Set(name, core.SourceSchema(raw))
	}
	return schema, nil
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}
