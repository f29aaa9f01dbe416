// Package diff compares two rendered reports, e.g. the outcome of the same
// pool under two different selection sets.
package diff

import (
	"fmt"
	"io"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/hupe1980/depfilter/internal/output"
)

// Result holds a unified diff and its line statistics.
type Result struct {
	Unified  string
	Hunks    []string
	Added    int
	Removed  int
	OldLabel string
	NewLabel string
}

// HasDifferences reports whether the inputs differ.
func (r *Result) HasDifferences() bool {
	return r.Unified != ""
}

// Options configures diff computation.
type Options struct {
	OldLabel string
	NewLabel string
	Context  int
}

// DefaultOptions returns the default labels and three lines of context.
func DefaultOptions() Options {
	return Options{
		OldLabel: "a",
		NewLabel: "b",
		Context:  3,
	}
}

// Reports serializes both reports as YAML and diffs them.
func Reports(oldReport, newReport *output.Report, opts Options) (*Result, error) {
	oldDoc, err := output.SerializeYAML(oldReport)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", opts.OldLabel, err)
	}

	newDoc, err := output.SerializeYAML(newReport)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", opts.NewLabel, err)
	}

	return Compute(string(oldDoc), string(newDoc), opts)
}

// Compute computes a unified diff between two documents.
func Compute(oldDoc, newDoc string, opts Options) (*Result, error) {
	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        splitLines(oldDoc),
		B:        splitLines(newDoc),
		FromFile: opts.OldLabel,
		ToFile:   opts.NewLabel,
		Context:  opts.Context,
	})
	if err != nil {
		return nil, fmt.Errorf("computing diff: %w", err)
	}

	res := &Result{
		Unified:  unified,
		OldLabel: opts.OldLabel,
		NewLabel: opts.NewLabel,
	}

	if unified != "" {
		res.Hunks = extractHunks(unified)
		res.Added, res.Removed = countChanges(unified)
	}

	return res, nil
}

func extractHunks(unified string) []string {
	var hunks []string

	var current strings.Builder

	for _, line := range strings.Split(unified, "\n") {
		if strings.HasPrefix(line, "@@") && current.Len() > 0 {
			hunks = append(hunks, current.String())
			current.Reset()
		}

		if strings.HasPrefix(line, "---") || strings.HasPrefix(line, "+++") {
			continue
		}

		if line == "" {
			continue
		}

		current.WriteString(line)
		current.WriteString("\n")
	}

	if current.Len() > 0 {
		hunks = append(hunks, current.String())
	}

	return hunks
}

func countChanges(unified string) (added, removed int) {
	for _, line := range strings.Split(unified, "\n") {
		switch {
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		case strings.HasPrefix(line, "+"):
			added++
		case strings.HasPrefix(line, "-"):
			removed++
		}
	}

	return added, removed
}

// Write writes a formatted diff to w with optional ANSI colors.
func Write(w io.Writer, res *Result, color bool) {
	if !res.HasDifferences() {
		_, _ = fmt.Fprintln(w, "No differences found.")
		return
	}

	for _, line := range strings.Split(strings.TrimSuffix(res.Unified, "\n"), "\n") {
		if color {
			writeColorLine(w, line)
		} else {
			_, _ = fmt.Fprintln(w, line)
		}
	}

	_, _ = fmt.Fprintf(w, "%d addition(s), %d removal(s)\n", res.Added, res.Removed)
}

func writeColorLine(w io.Writer, line string) {
	const (
		red   = "\033[31m"
		green = "\033[32m"
		cyan  = "\033[36m"
		bold  = "\033[1m"
		reset = "\033[0m"
	)

	prefix := ""

	switch {
	case strings.HasPrefix(line, "---"), strings.HasPrefix(line, "+++"):
		prefix = bold
	case strings.HasPrefix(line, "@@"):
		prefix = cyan
	case strings.HasPrefix(line, "-"):
		prefix = red
	case strings.HasPrefix(line, "+"):
		prefix = green
	}

	if prefix == "" {
		_, _ = fmt.Fprintln(w, line)
		return
	}

	_, _ = fmt.Fprintf(w, "%s%s%s\n", prefix, line, reset)
}

// splitLines keeps trailing newlines as difflib expects.
func splitLines(s string) []string {
	if s == "" {
		return []string{""}
	}

	return strings.SplitAfter(s, "\n")
}
