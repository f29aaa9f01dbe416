package output

import (
	"bytes"
	"encoding/json"
	"fmt"

	sigsyaml "sigs.k8s.io/yaml"
)

// Supported formats.
const (
	FormatYAML = "yaml"
	FormatJSON = "json"
	FormatText = "text"
)

// SerializeYAML converts v to canonical YAML bytes: keys sorted, nulls and
// empty maps removed, trailing newline.
func SerializeYAML(v interface{}) ([]byte, error) {
	m, err := canonicalize(v)
	if err != nil {
		return nil, err
	}

	out, err := sigsyaml.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("serializing YAML: %w", err)
	}

	return ensureNewline(out), nil
}

// SerializeJSON converts v to indented JSON bytes with the same
// canonicalization as SerializeYAML.
func SerializeJSON(v interface{}, indent string) ([]byte, error) {
	if indent == "" {
		indent = "  "
	}

	m, err := canonicalize(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetIndent("", indent)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("serializing JSON: %w", err)
	}

	return ensureNewline(buf.Bytes()), nil
}

// canonicalize round-trips v through its JSON form into plain maps and
// slices, then drops nil values and empty maps.
func canonicalize(v interface{}) (interface{}, error) {
	data, err := sigsyaml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("serializing intermediate YAML: %w", err)
	}

	var raw interface{}
	if err := sigsyaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding intermediate YAML: %w", err)
	}

	if cleaned := deepCleanValue(raw); cleaned != nil {
		return cleaned, nil
	}

	return map[string]interface{}{}, nil
}

func deepCleanMap(m map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(m))

	for k, v := range m {
		if cleaned := deepCleanValue(v); cleaned != nil {
			result[k] = cleaned
		}
	}

	return result
}

func deepCleanValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		cleaned := deepCleanMap(val)
		if len(cleaned) == 0 {
			return nil
		}

		return cleaned
	case []interface{}:
		result := make([]interface{}, 0, len(val))

		for _, item := range val {
			if cleaned := deepCleanValue(item); cleaned != nil {
				result = append(result, cleaned)
			}
		}

		return result
	default:
		return v
	}
}

func ensureNewline(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] != '\n' {
		b = append(b, '\n')
	}

	return b
}
