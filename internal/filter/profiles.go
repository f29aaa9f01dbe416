package filter

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"
	"sigs.k8s.io/yaml"

	"github.com/hupe1980/depfilter/internal/selection"
)

// Profile is a named, reusable filter preset that can be applied via
// --profile or configured under the "profiles" key.
type Profile struct {
	// Description is shown by the profiles command.
	Description string `json:"description,omitempty" mapstructure:"description"`
	// Extends names another profile whose rules are applied first.
	Extends string `json:"extends,omitempty" mapstructure:"extends"`
	// Search is a free-text query (see TextFilter).
	Search string `json:"search,omitempty" mapstructure:"search"`
	// Order overrides the dependency order.
	Order []string `json:"order,omitempty" mapstructure:"order" validate:"omitempty,unique,dive,required"`
	// Select lists selected values per field.
	Select map[string][]string `json:"select,omitempty" mapstructure:"select" validate:"dive,keys,required,endkeys,dive,required"`
	// MinInstances and MaxInstances bound the instance count.
	MinInstances *int `json:"minInstances,omitempty" mapstructure:"minInstances" validate:"omitempty,gte=0"`
	MaxInstances *int `json:"maxInstances,omitempty" mapstructure:"maxInstances" validate:"omitempty,gte=0"`
	// Labels is a label selector expression.
	Labels string `json:"labels,omitempty" mapstructure:"labels"`
	// Status lists health statuses (Up, Down, OutOfService, Starting, Disabled).
	Status []string `json:"status,omitempty" mapstructure:"status" validate:"dive,oneof=Up Down OutOfService Starting Disabled"`
}

// builtinProfiles contains the built-in profile definitions.
var builtinProfiles = map[string]Profile{
	"unhealthy": {
		Description: "server groups with down or out-of-service instances",
		Status:      []string{StatusDown, StatusOutOfService},
	},
	"disabled": {
		Description: "disabled server groups",
		Status:      []string{StatusDisabled},
	},
	"empty": {
		Description: "server groups without instances",
		MaxInstances: func() *int {
			n := 0
			return &n
		}(),
	},
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// BuiltinProfileNames returns the sorted names of all built-in profiles.
func BuiltinProfileNames() []string {
	names := make([]string, 0, len(builtinProfiles))
	for name := range builtinProfiles {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// BuiltinProfiles returns a copy of the built-in profiles.
func BuiltinProfiles() map[string]Profile {
	out := make(map[string]Profile, len(builtinProfiles))
	for k, v := range builtinProfiles {
		out[k] = v
	}

	return out
}

// ResolveProfile resolves a profile name, checking custom profiles first so
// they can shadow built-ins. Extends chains are followed and merged.
func ResolveProfile(name string, custom map[string]Profile) (Profile, error) {
	return resolve(name, custom, map[string]bool{})
}

func resolve(name string, custom map[string]Profile, visiting map[string]bool) (Profile, error) {
	if visiting[name] {
		return Profile{}, fmt.Errorf("profile %q extends itself", name)
	}

	visiting[name] = true

	p, ok := custom[name]
	if !ok {
		p, ok = builtinProfiles[name]
	}

	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q", name)
	}

	if err := ValidateProfile(p); err != nil {
		return Profile{}, fmt.Errorf("profile %q: %w", name, err)
	}

	if p.Extends == "" {
		return p, nil
	}

	base, err := resolve(p.Extends, custom, visiting)
	if err != nil {
		return Profile{}, fmt.Errorf("profile %q extends %q: %w", name, p.Extends, err)
	}

	return mergeProfiles(base, p), nil
}

// ValidateProfile checks field constraints of a single profile.
func ValidateProfile(p Profile) error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid %s: failed %q constraint", fe.Namespace(), fe.Tag())
		}

		return err
	}

	if p.MinInstances != nil && p.MaxInstances != nil && *p.MinInstances > *p.MaxInstances {
		return fmt.Errorf("minInstances %d is greater than maxInstances %d", *p.MinInstances, *p.MaxInstances)
	}

	if p.Labels != "" {
		if _, err := NewLabelFilter(p.Labels); err != nil {
			return err
		}
	}

	return nil
}

// mergeProfiles applies ext on top of base. Scalars in ext win when set;
// selections and statuses are unioned.
func mergeProfiles(base, ext Profile) Profile {
	merged := base
	merged.Extends = ""

	if ext.Description != "" {
		merged.Description = ext.Description
	}

	if ext.Search != "" {
		merged.Search = ext.Search
	}

	if len(ext.Order) > 0 {
		merged.Order = append([]string(nil), ext.Order...)
	}

	if ext.MinInstances != nil {
		merged.MinInstances = ext.MinInstances
	}

	if ext.MaxInstances != nil {
		merged.MaxInstances = ext.MaxInstances
	}

	if ext.Labels != "" {
		merged.Labels = ext.Labels
	}

	merged.Status = unionStrings(base.Status, ext.Status)

	merged.Select = make(map[string][]string, len(base.Select)+len(ext.Select))
	for f, vs := range base.Select {
		merged.Select[f] = append([]string(nil), vs...)
	}

	for f, vs := range ext.Select {
		merged.Select[f] = unionStrings(merged.Select[f], vs)
	}

	return merged
}

func unionStrings(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))

	var out []string

	for _, s := range append(append([]string(nil), a...), b...) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	return out
}

// Selections converts the profile's Select entries into selection maps.
func (p Profile) Selections() selection.Selections {
	out := make(selection.Selections, len(p.Select))

	for field, values := range p.Select {
		m := make(selection.Map, len(values))
		for _, v := range values {
			m[v] = true
		}

		out[field] = m
	}

	return out
}

// Filters builds the predicate filters the profile describes.
func (p Profile) Filters(searchFields []string) ([]Filter, error) {
	var filters []Filter

	if p.Search != "" {
		filters = append(filters, NewTextFilter(p.Search, searchFields))
	}

	if p.MinInstances != nil || p.MaxInstances != nil {
		filters = append(filters, NewCountFilter(p.MinInstances, p.MaxInstances))
	}

	if p.Labels != "" {
		lf, err := NewLabelFilter(p.Labels)
		if err != nil {
			return nil, err
		}

		filters = append(filters, lf)
	}

	if len(p.Status) > 0 {
		sel := make(selection.Map, len(p.Status))
		for _, s := range p.Status {
			sel[s] = true
		}

		filters = append(filters, NewStatusFilter(sel))
	}

	return filters, nil
}

// LoadProfiles loads profile definitions from a YAML file with a
// top-level "profiles" key.
func LoadProfiles(path string) (map[string]Profile, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is a user-provided config file
	if err != nil {
		return nil, fmt.Errorf("reading profiles file: %w", err)
	}

	return ParseProfiles(data)
}

// ParseProfiles parses profile definitions from YAML bytes.
func ParseProfiles(data []byte) (map[string]Profile, error) {
	var raw struct {
		Profiles map[string]Profile `json:"profiles"`
	}

	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing profiles: %w", err)
	}

	for name, p := range raw.Profiles {
		if err := ValidateProfile(p); err != nil {
			return nil, fmt.Errorf("profile %q: %w", name, err)
		}
	}

	return raw.Profiles, nil
}
