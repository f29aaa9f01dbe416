package output

import (
	"github.com/hupe1980/depfilter/internal/cascade"
	"github.com/hupe1980/depfilter/internal/filter"
	"github.com/hupe1980/depfilter/internal/group"
	"github.com/hupe1980/depfilter/internal/selection"
)

// Heading is one distinct value of a field.
type Heading struct {
	Value    string `json:"value"`
	Selected bool   `json:"selected,omitempty"`
}

// FieldHeadings lists the headings of one field.
type FieldHeadings struct {
	Field    string    `json:"field"`
	Headings []Heading `json:"headings"`
	Pruned   []string  `json:"pruned,omitempty"`
}

// Exclusion is a record removed by a predicate filter.
type Exclusion struct {
	Name   string `json:"name,omitempty"`
	Source string `json:"source,omitempty"`
	Reason string `json:"reason"`
}

// GroupNode is the serializable form of a group.
type GroupNode struct {
	Field     string      `json:"field"`
	Heading   string      `json:"heading"`
	Count     int         `json:"count"`
	Subgroups []GroupNode `json:"subgroups,omitempty"`
	Records   []string    `json:"records,omitempty"`
}

// TagView is the serializable form of a filter tag.
type TagView struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Report is the outcome of one run.
type Report struct {
	Order      []string                 `json:"order,omitempty"`
	Fields     []FieldHeadings          `json:"fields,omitempty"`
	Selections map[string][]string      `json:"selections,omitempty"`
	Total      int                      `json:"total"`
	Filtered   int                      `json:"filtered"`
	Visible    int                      `json:"visible"`
	Steps      []cascade.Step           `json:"steps,omitempty"`
	Excluded   []Exclusion              `json:"excluded,omitempty"`
	Records    []map[string]interface{} `json:"records,omitempty"`
	Groups     []GroupNode              `json:"groups,omitempty"`
	Tags       []TagView                `json:"tags,omitempty"`
	Params     string                   `json:"params,omitempty"`
}

// NewReport builds a report. filtered may be nil when no predicate filters
// ran; mode only affects the display order of headings.
func NewReport(total int, filtered *filter.Result, res *cascade.Result, mode cascade.SortMode) *Report {
	r := &Report{
		Total:    total,
		Filtered: total,
	}

	if filtered != nil {
		r.Filtered = len(filtered.Included)

		for _, ex := range filtered.Excluded {
			r.Excluded = append(r.Excluded, Exclusion{
				Name:   ex.Record.Name(),
				Source: ex.Record.Source,
				Reason: ex.Reason,
			})
		}
	}

	if res == nil {
		return r
	}

	r.Order = res.Order
	r.Visible = len(res.Pool)
	r.Steps = res.Steps

	for _, field := range res.Order {
		sel := res.Selections.Get(field)
		fh := FieldHeadings{Field: field, Headings: []Heading{}, Pruned: res.Pruned[field]}

		for _, v := range cascade.SortHeadings(res.Headings[field], mode) {
			fh.Headings = append(fh.Headings, Heading{Value: v, Selected: sel[v]})
		}

		r.Fields = append(r.Fields, fh)
	}

	r.Selections = checked(res.Selections)

	return r
}

// WithRecords attaches the visible records.
func (r *Report) WithRecords(res *cascade.Result) *Report {
	for _, rec := range res.Pool {
		r.Records = append(r.Records, rec.Object)
	}

	return r
}

// WithGroups attaches a grouping of the visible records.
func (r *Report) WithGroups(groups []*group.Group) *Report {
	r.Groups = groupNodes(groups)
	return r
}

// WithTags attaches filter tags.
func (r *Report) WithTags(tags []selection.Tag) *Report {
	for _, t := range tags {
		r.Tags = append(r.Tags, TagView{Key: t.Key, Label: t.Label, Value: t.Value})
	}

	return r
}

// PrunedAny reports whether any field lost selections.
func (r *Report) PrunedAny() bool {
	for _, f := range r.Fields {
		if len(f.Pruned) > 0 {
			return true
		}
	}

	return false
}

func checked(s selection.Selections) map[string][]string {
	out := make(map[string][]string)

	for field, m := range s {
		if values := m.Checked(); len(values) > 0 {
			out[field] = values
		}
	}

	return out
}

func groupNodes(groups []*group.Group) []GroupNode {
	if len(groups) == 0 {
		return nil
	}

	out := make([]GroupNode, 0, len(groups))

	for _, g := range groups {
		n := GroupNode{
			Field:     g.Field,
			Heading:   g.Heading,
			Count:     g.Count(),
			Subgroups: groupNodes(g.Subgroups),
		}

		for _, rec := range g.Records {
			n.Records = append(n.Records, rec.Name())
		}

		out = append(out, n)
	}

	return out
}
