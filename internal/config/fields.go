package config

import (
	"fmt"
	"regexp"
	"strconv"

	sigsyaml "sigs.k8s.io/yaml"

	"github.com/hupe1980/depfilter/internal/selection"
)

// FieldsConfig holds the filter model field definitions loaded from the
// config file (.depfilter.yaml).
type FieldsConfig struct {
	// Fields are the model fields in tag order.
	Fields []FieldDefinition `json:"fields,omitempty"`
}

// FieldDefinition declares one filter model field.
type FieldDefinition struct {
	// Model is the field name in the filter state.
	Model string `json:"model"`

	// Param is the query parameter name. Defaults to Model.
	Param string `json:"param,omitempty"`

	// Label is shown on tags. Defaults to Model.
	Label string `json:"label,omitempty"`

	// Type is trueKeyObject, string, int or boolean.
	Type string `json:"type,omitempty"`

	// ClearValue is assigned on clear, encoded as a string.
	ClearValue string `json:"clearValue,omitempty"`

	// DisplayOption fields survive clear.
	DisplayOption bool `json:"displayOption,omitempty"`

	// Translator maps raw values to tag values.
	Translator map[string]string `json:"translator,omitempty"`
}

// DefaultFields is the model used when the config file declares none.
var DefaultFields = []FieldDefinition{
	{Model: "search", Param: "q", Type: string(selection.TypeString), ClearValue: ""},
	{Model: "account", Param: "acct"},
	{Model: "region", Param: "reg"},
	{Model: "cluster"},
	{Model: "stack"},
	{Model: "detail"},
	{Model: "status", Translator: map[string]string{"Up": "healthy", "Down": "unhealthy", "OutOfService": "out of service"}},
	{Model: "availabilityZone", Param: "zone", Label: "availability zone"},
	{Model: "instanceType", Label: "instance type"},
	{Model: "minInstances", Label: "instance count (min)", Type: string(selection.TypeInt)},
	{Model: "maxInstances", Label: "instance count (max)", Type: string(selection.TypeInt)},
	{Model: "listInstances", Type: string(selection.TypeBoolean), DisplayOption: true},
}

// ParseFieldsConfig parses the fields section from raw config file bytes.
func ParseFieldsConfig(data []byte) (*FieldsConfig, error) {
	var cfg FieldsConfig

	if err := sigsyaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing fields config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// paramPattern validates query parameter names.
var paramPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.-]*$`)

// Validate checks the field definitions for correctness.
func (c *FieldsConfig) Validate() error {
	models := make(map[string]bool, len(c.Fields))
	params := make(map[string]bool, len(c.Fields))

	for i, f := range c.Fields {
		if f.Model == "" {
			return fmt.Errorf("fields[%d]: model is required", i)
		}

		if models[f.Model] {
			return fmt.Errorf("fields[%d]: duplicate model %q", i, f.Model)
		}

		models[f.Model] = true

		param := f.Param
		if param == "" {
			param = f.Model
		}

		if !paramPattern.MatchString(param) {
			return fmt.Errorf("fields[%s]: param %q is invalid (must match %s)", f.Model, param, paramPattern.String())
		}

		if params[param] {
			return fmt.Errorf("fields[%s]: duplicate param %q", f.Model, param)
		}

		params[param] = true

		if err := validateClearValue(f.Type, f.ClearValue); err != nil {
			return fmt.Errorf("fields[%s]: %w", f.Model, err)
		}
	}

	return nil
}

func validateClearValue(typ, value string) error {
	switch selection.FieldType(typ) {
	case "", selection.TypeTrueKeyObject:
		if value != "" {
			return fmt.Errorf("clearValue is not supported for type %s", selection.TypeTrueKeyObject)
		}
	case selection.TypeInt:
		if value != "" {
			if _, err := strconv.Atoi(value); err != nil {
				return fmt.Errorf("clearValue %q is not a valid integer", value)
			}
		}
	case selection.TypeBoolean:
		if value != "" && value != "true" && value != "false" {
			return fmt.Errorf("clearValue %q is not a valid boolean (must be \"true\" or \"false\")", value)
		}
	case selection.TypeString:
	default:
		return fmt.Errorf("invalid type %q (must be trueKeyObject, string, int, or boolean)", typ)
	}

	return nil
}

// IsEmpty returns true if no fields are declared.
func (c *FieldsConfig) IsEmpty() bool {
	return c == nil || len(c.Fields) == 0
}

// Model builds a filter model from the declared fields, or from
// DefaultFields when none are declared.
func (c *FieldsConfig) Model() *selection.Model {
	defs := DefaultFields
	if !c.IsEmpty() {
		defs = c.Fields
	}

	fields := make([]selection.FieldConfig, 0, len(defs))
	for _, d := range defs {
		fields = append(fields, d.fieldConfig())
	}

	return selection.NewModel(fields...)
}

func (d FieldDefinition) fieldConfig() selection.FieldConfig {
	fc := selection.FieldConfig{
		Model:         d.Model,
		Param:         d.Param,
		Label:         d.Label,
		Type:          selection.FieldType(d.Type),
		DisplayOption: d.DisplayOption,
		Translator:    d.Translator,
	}

	switch fc.Type {
	case selection.TypeString:
		fc.ClearValue = d.ClearValue
	case selection.TypeInt:
		if n, err := strconv.Atoi(d.ClearValue); err == nil {
			fc.ClearValue = n
		}
	case selection.TypeBoolean:
		if b, err := strconv.ParseBool(d.ClearValue); err == nil {
			fc.ClearValue = b
		}
	}

	return fc
}
