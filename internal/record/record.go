// Package record provides the listable entities that filters operate on:
// server groups, instances, load balancers, or anything else expressed as
// an unstructured map.
package record

import (
	"strconv"
	"strings"

	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
)

// Common field names used by the built-in filters.
const (
	FieldName           = "name"
	FieldAccount        = "account"
	FieldRegion         = "region"
	FieldCluster        = "cluster"
	FieldLabels         = "labels"
	FieldTags           = "tags"
	FieldInstances      = "instances"
	FieldInstanceCounts = "instanceCounts"
	FieldDisabled       = "isDisabled"
)

// DefaultSearchFields are the fields concatenated into the free-text
// search field when none are configured.
var DefaultSearchFields = []string{
	FieldRegion, FieldName, FieldAccount,
	"buildInfo.jenkins.number", "buildInfo.jenkins.host", "buildInfo.jenkins.name",
	"loadBalancers", FieldInstances,
}

// Record is a single entry of a pool.
type Record struct {
	// Object is the unstructured representation.
	Object map[string]interface{}

	// Source is the file the record was loaded from, if any.
	Source string
}

// New wraps obj in a Record.
func New(obj map[string]interface{}) *Record {
	if obj == nil {
		obj = map[string]interface{}{}
	}

	return &Record{Object: obj}
}

// Lookup resolves a dotted field path and returns the raw value.
func (r *Record) Lookup(field string) (interface{}, bool) {
	if r == nil || field == "" {
		return nil, false
	}

	v, found, err := unstructured.NestedFieldNoCopy(r.Object, strings.Split(field, ".")...)
	if err != nil || !found {
		return nil, false
	}

	return v, true
}

// Value returns the scalar value of field rendered as a string. The
// boolean is false when the field is missing, empty, or not a scalar.
func (r *Record) Value(field string) (string, bool) {
	raw, ok := r.Lookup(field)
	if !ok {
		return "", false
	}

	s, ok := Scalar(raw)
	if !ok || s == "" {
		return "", false
	}

	return s, true
}

// Name returns the record's name field.
func (r *Record) Name() string {
	v, _ := r.Value(FieldName)
	return v
}

// Bool reports whether field holds a true boolean.
func (r *Record) Bool(field string) bool {
	raw, ok := r.Lookup(field)
	if !ok {
		return false
	}

	b, _ := raw.(bool)

	return b
}

// Labels returns the string-valued entries of the labels map.
func (r *Record) Labels() map[string]string {
	return r.stringMap(FieldLabels)
}

// Tags returns the string-valued entries of the tags map.
func (r *Record) Tags() map[string]string {
	return r.stringMap(FieldTags)
}

// Instances returns the instance objects attached to the record.
func (r *Record) Instances() []map[string]interface{} {
	raw, ok := r.Lookup(FieldInstances)
	if !ok {
		return nil
	}

	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}

	out := make([]map[string]interface{}, 0, len(list))

	for _, item := range list {
		if m, ok := item.(map[string]interface{}); ok {
			out = append(out, m)
		}
	}

	return out
}

// InstanceCount returns the number of attached instances.
func (r *Record) InstanceCount() int {
	return len(r.Instances())
}

// Counts returns the instanceCounts map (up, down, outOfService, ...).
func (r *Record) Counts() map[string]int {
	raw, ok := r.Lookup(FieldInstanceCounts)
	if !ok {
		return map[string]int{}
	}

	m, ok := raw.(map[string]interface{})
	if !ok {
		return map[string]int{}
	}

	out := make(map[string]int, len(m))

	for k, v := range m {
		switch n := v.(type) {
		case float64:
			out[k] = int(n)
		case int64:
			out[k] = int(n)
		case int:
			out[k] = n
		}
	}

	return out
}

// SearchField builds the lower-cased text that free-text filters match
// against. List values contribute each element; list elements that are
// objects contribute their id.
func (r *Record) SearchField(fields []string) string {
	if len(fields) == 0 {
		fields = DefaultSearchFields
	}

	parts := make([]string, 0, len(fields))

	for _, f := range fields {
		raw, ok := r.Lookup(f)
		if !ok {
			continue
		}

		switch v := raw.(type) {
		case []interface{}:
			for _, item := range v {
				if m, isMap := item.(map[string]interface{}); isMap {
					item = m["id"]
				}

				if s, ok := Scalar(item); ok && s != "" {
					parts = append(parts, strings.ToLower(s))
				}
			}
		default:
			if s, ok := Scalar(v); ok && s != "" {
				parts = append(parts, strings.ToLower(s))
			}
		}
	}

	return strings.Join(parts, " ")
}

func (r *Record) stringMap(field string) map[string]string {
	raw, ok := r.Lookup(field)
	if !ok {
		return map[string]string{}
	}

	m, ok := raw.(map[string]interface{})
	if !ok {
		return map[string]string{}
	}

	out := make(map[string]string, len(m))

	for k, v := range m {
		if s, ok := Scalar(v); ok {
			out[k] = s
		}
	}

	return out
}

// Scalar renders a scalar value as a string. Maps, lists and nil are
// not scalars.
func Scalar(v interface{}) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case int:
		return strconv.Itoa(val), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	default:
		return "", false
	}
}
