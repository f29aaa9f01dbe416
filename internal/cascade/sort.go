package cascade

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// SortMode selects how headings are ordered for display.
type SortMode string

// Supported sort modes.
const (
	SortFirstSeen SortMode = "first-seen"
	SortAlpha     SortMode = "alpha"
	SortVersion   SortMode = "version"
)

// ParseSortMode validates a sort mode name. The empty string is first-seen.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case "", SortFirstSeen:
		return SortFirstSeen, nil
	case SortAlpha, SortVersion:
		return SortMode(s), nil
	default:
		return "", fmt.Errorf("invalid sort mode %q: must be one of first-seen, alpha, version", s)
	}
}

// SortHeadings returns a sorted copy of values. Display order only; the
// cascade always works in first-seen order.
func SortHeadings(values []string, mode SortMode) []string {
	out := append([]string(nil), values...)

	switch mode {
	case SortAlpha:
		sort.SliceStable(out, func(i, j int) bool {
			return lessFold(out[i], out[j])
		})
	case SortVersion:
		sortVersions(out)
	}

	return out
}

// sortVersions orders semantic versions ascending, followed by values that
// do not parse as versions in case-insensitive order.
func sortVersions(values []string) {
	parsed := make(map[string]*semver.Version, len(values))

	for _, v := range values {
		if sv, err := semver.NewVersion(v); err == nil {
			parsed[v] = sv
		}
	}

	sort.SliceStable(values, func(i, j int) bool {
		a, aok := parsed[values[i]]
		b, bok := parsed[values[j]]

		switch {
		case aok && bok:
			if c := a.Compare(b); c != 0 {
				return c < 0
			}

			return values[i] < values[j]
		case aok != bok:
			return aok
		default:
			return lessFold(values[i], values[j])
		}
	})
}

func lessFold(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}

	return a < b
}
