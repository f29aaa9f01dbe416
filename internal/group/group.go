// Package group arranges a filtered pool into nested groups for display,
// e.g. account, then cluster, then region.
package group

import (
	"sort"
	"strings"

	"github.com/hupe1980/depfilter/internal/record"
	"github.com/hupe1980/depfilter/internal/selection"
)

// DefaultLevels is the grouping used when none is configured.
var DefaultLevels = []string{record.FieldAccount, record.FieldCluster, record.FieldRegion}

// Group is one node in the grouping tree. Leaf groups hold records;
// inner groups hold subgroups.
type Group struct {
	Field     string           `json:"field"`
	Heading   string           `json:"heading"`
	Key       string           `json:"key"`
	Subgroups []*Group         `json:"subgroups,omitempty"`
	Records   []*record.Record `json:"-"`
}

// Count returns the number of records below g.
func (g *Group) Count() int {
	if len(g.Subgroups) == 0 {
		return len(g.Records)
	}

	n := 0
	for _, sg := range g.Subgroups {
		n += sg.Count()
	}

	return n
}

// Build groups pool by each level in turn. Records with no value for a
// level are grouped under (none). Siblings are sorted by heading.
func Build(pool []*record.Record, levels []string) []*Group {
	if len(levels) == 0 {
		levels = DefaultLevels
	}

	return build(pool, levels, "")
}

func build(pool []*record.Record, levels []string, parentKey string) []*Group {
	field := levels[0]
	byHeading := make(map[string]*Group)

	var groups []*Group

	for _, r := range pool {
		heading, ok := r.Value(field)
		if !ok {
			heading = selection.None
		}

		g, exists := byHeading[heading]
		if !exists {
			key := heading
			if parentKey != "" {
				key = parentKey + ":" + heading
			}

			g = &Group{Field: field, Heading: heading, Key: key}
			byHeading[heading] = g
			groups = append(groups, g)
		}

		g.Records = append(g.Records, r)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return strings.ToLower(groups[i].Heading) < strings.ToLower(groups[j].Heading)
	})

	if len(levels) > 1 {
		for _, g := range groups {
			g.Subgroups = build(g.Records, levels[1:], g.Key)
			g.Records = nil
		}
	}

	return groups
}

// Walk visits every group depth-first, passing the nesting depth.
func Walk(groups []*Group, fn func(g *Group, depth int)) {
	walk(groups, 0, fn)
}

func walk(groups []*Group, depth int, fn func(g *Group, depth int)) {
	for _, g := range groups {
		fn(g, depth)
		walk(g.Subgroups, depth+1, fn)
	}
}
