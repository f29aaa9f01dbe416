// Package selection holds per-field selection maps (the "sort filter") and
// the filter model that turns them into tags and query parameters.
package selection

import (
	"sort"
	"strings"
)

// None is the selection key that matches records with an empty value.
const None = "(none)"

// Map records which values of a single field are selected.
// A key with a false flag is known but not selected.
type Map map[string]bool

// IsFilterable reports whether at least one value is selected.
func (m Map) IsFilterable() bool {
	for _, v := range m {
		if v {
			return true
		}
	}

	return false
}

// Checked returns the selected values in sorted order.
func (m Map) Checked() []string {
	out := make([]string, 0, len(m))

	for k, v := range m {
		if v {
			out = append(out, k)
		}
	}

	sort.Strings(out)

	return out
}

// Clone returns a shallow copy. A nil map clones to nil.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}

	out := make(Map, len(m))
	for k, v := range m {
		out[k] = v
	}

	return out
}

// Toggle flips the flag of value and returns the new state.
func (m Map) Toggle(value string) bool {
	m[value] = !m[value]
	return m[value]
}

// Selections maps field names to their selection map.
type Selections map[string]Map

// Clone deep-copies every per-field map.
func (s Selections) Clone() Selections {
	if s == nil {
		return nil
	}

	out := make(Selections, len(s))
	for field, m := range s {
		out[field] = m.Clone()
	}

	return out
}

// Get returns the map for field, or nil.
func (s Selections) Get(field string) Map {
	if s == nil {
		return nil
	}

	return s[field]
}

// Set marks value of field as selected or unselected, creating the
// per-field map when needed.
func (s Selections) Set(field, value string, selected bool) {
	m, ok := s[field]
	if !ok {
		m = make(Map)
		s[field] = m
	}

	m[value] = selected
}

// Fields returns the field names in sorted order.
func (s Selections) Fields() []string {
	out := make([]string, 0, len(s))
	for f := range s {
		out = append(out, f)
	}

	sort.Strings(out)

	return out
}

// ParseParam turns a comma separated parameter ("prod,test") into a Map
// with every listed value selected. Blank entries are ignored.
func ParseParam(param string) Map {
	m := make(Map)

	for _, part := range strings.Split(param, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			m[part] = true
		}
	}

	return m
}

// Param encodes the selected values of m as a comma separated string.
func Param(m Map) string {
	return strings.Join(m.Checked(), ",")
}

// ParseAssignment parses "field=v1,v2" as used by the --select flag.
func ParseAssignment(expr string) (string, Map, bool) {
	field, values, ok := strings.Cut(expr, "=")
	field = strings.TrimSpace(field)

	if !ok || field == "" {
		return "", nil, false
	}

	return field, ParseParam(values), true
}
