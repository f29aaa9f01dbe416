package output

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"
)

const (
	ansiBold   = "\033[1m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiDim    = "\033[2m"
	ansiReset  = "\033[0m"
)

// TextOptions configures the text renderer.
type TextOptions struct {
	// Color enables ANSI colors.
	Color bool
}

// RenderText writes a human-readable form of r to w.
func RenderText(w io.Writer, r *Report, opts TextOptions) error {
	p := &printer{w: w, color: opts.Color}

	for _, f := range r.Fields {
		p.line(ansiBold, "%s (%d)", f.Field, len(f.Headings))

		for _, h := range f.Headings {
			if h.Selected {
				p.line(ansiGreen, "  [x] %s", h.Value)
			} else {
				p.line("", "  [ ] %s", h.Value)
			}
		}

		if len(f.Pruned) > 0 {
			p.line(ansiYellow, "  pruned: %s", strings.Join(f.Pruned, ", "))
		}
	}

	if len(r.Tags) > 0 {
		p.line(ansiBold, "tags")

		for _, t := range r.Tags {
			p.line("", "  %s: %s", t.Label, t.Value)
		}
	}

	if r.Params != "" {
		p.line("", "params: %s", r.Params)
	}

	for _, g := range r.Groups {
		p.group(g, 0)
	}

	if len(r.Records) > 0 {
		p.line(ansiBold, "records")

		for _, rec := range r.Records {
			p.line("", "  %s", recordLine(rec, r.Order))
		}
	}

	if len(r.Excluded) > 0 && len(r.Fields) > 0 {
		p.line(ansiDim, "excluded by filters: %d", len(r.Excluded))
	}

	if len(r.Fields) > 0 || r.Total > 0 {
		p.line("", "%d of %d records visible (%d after filters)", r.Visible, r.Total, r.Filtered)
	}

	return p.err
}

// FormatTextReport renders r as text without color.
func FormatTextReport(r *Report) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderText(&buf, r, TextOptions{}); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

type printer struct {
	w     io.Writer
	color bool
	err   error
}

func (p *printer) line(color, format string, args ...interface{}) {
	if p.err != nil {
		return
	}

	s := fmt.Sprintf(format, args...)
	if p.color && color != "" {
		s = color + s + ansiReset
	}

	_, p.err = fmt.Fprintln(p.w, s)
}

func (p *printer) group(g GroupNode, depth int) {
	indent := strings.Repeat("  ", depth)
	p.line(ansiBold, "%s%s: %s (%d)", indent, g.Field, g.Heading, g.Count)

	for _, sg := range g.Subgroups {
		p.group(sg, depth+1)
	}

	for _, name := range g.Records {
		p.line("", "%s  - %s", indent, name)
	}
}

// recordLine shows the record name followed by its values for the order
// fields, then any remaining scalar fields sorted by key.
func recordLine(rec map[string]interface{}, order []string) string {
	parts := make([]string, 0, len(order)+1)

	if name, ok := rec["name"]; ok {
		parts = append(parts, fmt.Sprint(name))
	}

	for _, field := range order {
		if v, ok := rec[field]; ok && v != nil {
			parts = append(parts, fmt.Sprintf("%s=%v", field, v))
		}
	}

	if len(parts) == 0 {
		keys := make([]string, 0, len(rec))
		for k := range rec {
			keys = append(keys, k)
		}

		sort.Strings(keys)

		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, rec[k]))
		}
	}

	return strings.Join(parts, " ")
}
