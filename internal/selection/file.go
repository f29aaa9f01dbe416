package selection

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a selections document. Each top-level key is a field and
// its value is either a mapping of value to flag, a list of selected
// values, or a comma separated string.
func Parse(data []byte) (Selections, error) {
	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding selections: %w", err)
	}

	out := make(Selections, len(raw))

	for field, node := range raw {
		m, err := decodeNode(&node)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}

		out[field] = m
	}

	return out, nil
}

func decodeNode(node *yaml.Node) (Map, error) {
	switch node.Kind {
	case yaml.MappingNode:
		var m map[string]bool
		if err := node.Decode(&m); err != nil {
			return nil, err
		}

		return Map(m), nil
	case yaml.SequenceNode:
		var values []string
		if err := node.Decode(&values); err != nil {
			return nil, err
		}

		m := make(Map, len(values))
		for _, v := range values {
			if v = strings.TrimSpace(v); v != "" {
				m[v] = true
			}
		}

		return m, nil
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return make(Map), nil
		}

		return ParseParam(node.Value), nil
	default:
		return nil, fmt.Errorf("unsupported YAML node kind %d", node.Kind)
	}
}

// LoadFile reads selections from a YAML or JSON file.
func LoadFile(path string) (Selections, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading selections file %q: %w", path, err)
	}

	return Parse(data)
}

// Marshal encodes selections as YAML with sorted keys.
func Marshal(s Selections) ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	if err := enc.Encode(map[string]Map(s)); err != nil {
		return nil, fmt.Errorf("encoding selections: %w", err)
	}

	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding selections: %w", err)
	}

	return buf.Bytes(), nil
}

// SaveFile writes selections to path, creating parent directories.
func SaveFile(path string, s Selections) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("creating directory for %q: %w", path, err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing selections file %q: %w", path, err)
	}

	return nil
}
