package record

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	sigsyaml "sigs.k8s.io/yaml"
)

// Parser turns raw inventory documents into records.
type Parser interface {
	Parse(ctx context.Context, data []byte) ([]*Record, error)
}

// compile-time interface conformance check.
var _ Parser = (*DefaultParser)(nil)

// DefaultParser accepts multi-document YAML or JSON. Each document is a
// single record, a list of records, or an object with an "items" list.
type DefaultParser struct{}

// NewParser creates a new DefaultParser.
func NewParser() *DefaultParser {
	return &DefaultParser{}
}

// Parse decodes every document in data, preserving document and item order.
func (p *DefaultParser) Parse(ctx context.Context, data []byte) ([]*Record, error) {
	var records []*Record

	for i, doc := range SplitDocuments(data) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rs, err := parseDocument(doc)
		if err != nil {
			return nil, fmt.Errorf("parsing document %d: %w", i+1, err)
		}

		records = append(records, rs...)
	}

	return records, nil
}

// docSeparator matches a YAML document separator line.
var docSeparator = regexp.MustCompile(`(?m)^---\s*$`)

// SplitDocuments splits multi-document YAML into its non-empty documents.
func SplitDocuments(data []byte) [][]byte {
	var docs [][]byte

	for _, part := range docSeparator.Split(string(data), -1) {
		if strings.TrimSpace(part) != "" {
			docs = append(docs, []byte(part))
		}
	}

	return docs
}

func parseDocument(doc []byte) ([]*Record, error) {
	var v interface{}
	if err := sigsyaml.Unmarshal(doc, &v); err != nil {
		return nil, fmt.Errorf("unmarshaling YAML: %w", err)
	}

	switch val := v.(type) {
	case nil:
		return nil, nil
	case []interface{}:
		return fromList(val)
	case map[string]interface{}:
		if items, ok := val["items"].([]interface{}); ok {
			return fromList(items)
		}

		return []*Record{New(val)}, nil
	default:
		return nil, fmt.Errorf("expected an object or a list, got %T", v)
	}
}

func fromList(items []interface{}) ([]*Record, error) {
	out := make([]*Record, 0, len(items))

	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("item %d: expected an object, got %T", i, item)
		}

		out = append(out, New(m))
	}

	return out, nil
}
