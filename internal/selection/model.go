package selection

import (
	"net/url"
	"strconv"
)

// FieldType describes how a filter model field is stored and encoded.
type FieldType string

// Supported field types.
const (
	TypeTrueKeyObject FieldType = "trueKeyObject"
	TypeString        FieldType = "string"
	TypeInt           FieldType = "int"
	TypeBoolean       FieldType = "boolean"
)

// FieldConfig configures a single filter model field.
type FieldConfig struct {
	// Model is the field name in the filter state.
	Model string
	// Param is the query parameter name. Defaults to Model.
	Param string
	// Label is shown on tags. Defaults to Model.
	Label string
	// Type selects storage and encoding.
	Type FieldType
	// ClearValue is assigned on Clear; when nil the value is unset.
	ClearValue any
	// DisplayOption fields are view settings and survive Clear.
	DisplayOption bool
	// Translator maps raw values to tag values.
	Translator map[string]string
}

func (fc FieldConfig) label() string {
	if fc.Label != "" {
		return fc.Label
	}

	return fc.Model
}

// Tag is a removable chip describing one active filter value.
type Tag struct {
	Key   string
	Label string
	Value string
	clear func()
}

// Clear removes the filter value the tag represents.
func (t Tag) Clear() {
	if t.clear != nil {
		t.clear()
	}
}

// Model is the filter state behind a filterable list: selection maps for
// trueKeyObject fields, scalar values for the rest, and display options.
type Model struct {
	fields []FieldConfig

	SortFilter     Selections
	Values         map[string]any
	DisplayOptions map[string]any
}

// NewModel creates a model for the given fields. Field order is the tag order.
func NewModel(fields ...FieldConfig) *Model {
	m := &Model{
		fields:         make([]FieldConfig, 0, len(fields)),
		SortFilter:     make(Selections),
		Values:         make(map[string]any),
		DisplayOptions: make(map[string]any),
	}

	for _, fc := range fields {
		if fc.Param == "" {
			fc.Param = fc.Model
		}

		if fc.Type == "" {
			fc.Type = TypeTrueKeyObject
		}

		if fc.Type == TypeTrueKeyObject && !fc.DisplayOption {
			m.SortFilter[fc.Model] = make(Map)
		}

		m.fields = append(m.fields, fc)
	}

	return m
}

// Fields returns the configured fields.
func (m *Model) Fields() []FieldConfig {
	out := make([]FieldConfig, len(m.fields))
	copy(out, m.fields)

	return out
}

// Set stores a scalar value (or a display option) for field.
func (m *Model) Set(field string, value any) {
	if fc, ok := m.field(field); ok && fc.DisplayOption {
		m.DisplayOptions[field] = value
		return
	}

	m.Values[field] = value
}

// Activate populates the model from query parameters. Parameters that
// do not parse for their field type are ignored.
func (m *Model) Activate(params url.Values) {
	for _, fc := range m.fields {
		raw := params.Get(fc.Param)

		switch fc.Type {
		case TypeTrueKeyObject:
			m.SortFilter[fc.Model] = ParseParam(raw)
		case TypeInt:
			if n, err := strconv.Atoi(raw); err == nil {
				m.Set(fc.Model, n)
			}
		case TypeBoolean:
			if b, err := strconv.ParseBool(raw); err == nil {
				m.Set(fc.Model, b)
			}
		default:
			if raw != "" {
				m.Set(fc.Model, raw)
			}
		}
	}
}

// Params encodes the model as query parameters. Empty strings and
// non-numeric int fields are left out; zero is a valid int.
func (m *Model) Params() url.Values {
	out := url.Values{}

	for _, fc := range m.fields {
		switch fc.Type {
		case TypeTrueKeyObject:
			if p := Param(m.SortFilter.Get(fc.Model)); p != "" {
				out.Set(fc.Param, p)
			}
		case TypeInt:
			if n, ok := m.value(fc).(int); ok {
				out.Set(fc.Param, strconv.Itoa(n))
			}
		case TypeBoolean:
			if b, ok := m.value(fc).(bool); ok {
				out.Set(fc.Param, strconv.FormatBool(b))
			}
		default:
			if s, ok := m.value(fc).(string); ok && s != "" {
				out.Set(fc.Param, s)
			}
		}
	}

	return out
}

// Tags lists the active filters in field configuration order.
func (m *Model) Tags() []Tag {
	var tags []Tag

	for _, fc := range m.fields {
		if fc.DisplayOption {
			continue
		}

		if fc.Type == TypeTrueKeyObject {
			sel := m.SortFilter.Get(fc.Model)
			for _, v := range sel.Checked() {
				value := v
				tags = append(tags, Tag{
					Key:   fc.Model,
					Label: fc.label(),
					Value: translate(fc.Translator, value),
					clear: func() { delete(sel, value) },
				})
			}

			continue
		}

		raw, ok := m.Values[fc.Model]
		if !ok || raw == nil || raw == "" {
			continue
		}

		field := fc
		tags = append(tags, Tag{
			Key:   fc.Model,
			Label: fc.label(),
			Value: translate(fc.Translator, formatScalar(raw)),
			clear: func() { m.clearValue(field) },
		})
	}

	return tags
}

// Clear resets every filter field. Display options are kept.
func (m *Model) Clear() {
	for _, fc := range m.fields {
		if fc.DisplayOption {
			continue
		}

		if fc.Type == TypeTrueKeyObject {
			delete(m.SortFilter, fc.Model)
			continue
		}

		m.clearValue(fc)
	}
}

func (m *Model) clearValue(fc FieldConfig) {
	if fc.ClearValue != nil {
		m.Values[fc.Model] = fc.ClearValue
		return
	}

	delete(m.Values, fc.Model)
}

func (m *Model) value(fc FieldConfig) any {
	if fc.DisplayOption {
		return m.DisplayOptions[fc.Model]
	}

	return m.Values[fc.Model]
}

func (m *Model) field(name string) (FieldConfig, bool) {
	for _, fc := range m.fields {
		if fc.Model == name {
			return fc, true
		}
	}

	return FieldConfig{}, false
}

func translate(tr map[string]string, v string) string {
	if t, ok := tr[v]; ok {
		return t
	}

	return v
}

func formatScalar(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
