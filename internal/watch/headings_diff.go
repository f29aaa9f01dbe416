package watch

import (
	"fmt"
	"sort"
	"strings"
)

// HeadingChange describes a heading that appeared or disappeared between
// two consecutive runs.
type HeadingChange struct {
	// Kind is "added" or "removed".
	Kind  string
	Field string
	Value string
}

// HeadingDiff compares two heading sets field by field. Changes are sorted
// by field, then kind, then value.
func HeadingDiff(prev, curr map[string][]string) []HeadingChange {
	var changes []HeadingChange

	fields := make(map[string]struct{}, len(prev)+len(curr))
	for f := range prev {
		fields[f] = struct{}{}
	}

	for f := range curr {
		fields[f] = struct{}{}
	}

	for field := range fields {
		before := toSet(prev[field])
		after := toSet(curr[field])

		for v := range before {
			if _, ok := after[v]; !ok {
				changes = append(changes, HeadingChange{Kind: "removed", Field: field, Value: v})
			}
		}

		for v := range after {
			if _, ok := before[v]; !ok {
				changes = append(changes, HeadingChange{Kind: "added", Field: field, Value: v})
			}
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		a, b := changes[i], changes[j]
		if a.Field != b.Field {
			return a.Field < b.Field
		}

		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}

		return a.Value < b.Value
	})

	return changes
}

// HeadingDiffSummary renders changes as e.g.
// "region: +eu-west-1 -us-west-2; account: +qa".
func HeadingDiffSummary(changes []HeadingChange) string {
	if len(changes) == 0 {
		return "no heading changes"
	}

	var (
		parts   []string
		current string
		values  []string
	)

	flush := func() {
		if current != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", current, strings.Join(values, " ")))
		}
	}

	for _, c := range changes {
		if c.Field != current {
			flush()

			current = c.Field
			values = nil
		}

		sign := "+"
		if c.Kind == "removed" {
			sign = "-"
		}

		values = append(values, sign+c.Value)
	}

	flush()

	return strings.Join(parts, "; ")
}

func toSet(values []string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[v] = struct{}{}
	}

	return out
}
