package filter

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/depfilter/internal/record"
	"github.com/hupe1980/depfilter/internal/selection"
)

// FieldFilter keeps records whose field value is selected. When nothing is
// selected every record passes. The (none) key selects records with an
// empty value.
type FieldFilter struct {
	field string
	sel   selection.Map
}

// NewFieldFilter creates a filter over one field's selection map.
func NewFieldFilter(field string, sel selection.Map) *FieldFilter {
	return &FieldFilter{field: field, sel: sel}
}

// Apply filters out records whose value is not selected.
func (f *FieldFilter) Apply(_ context.Context, pool []*record.Record) (*Result, error) {
	reason := fmt.Sprintf("excluded by %s: %s", f.field, strings.Join(f.sel.Checked(), ","))
	return partition(pool, reason, f.Matches), nil
}

// Matches reports whether r passes the selection.
func (f *FieldFilter) Matches(r *record.Record) bool {
	if !f.sel.IsFilterable() {
		return true
	}

	v, ok := r.Value(f.field)
	if !ok {
		return f.sel[selection.None]
	}

	return f.sel[v]
}

// CountFilter keeps records whose instance count is within bounds.
// A nil bound is open.
type CountFilter struct {
	min *int
	max *int
}

// NewCountFilter creates an instance count filter.
func NewCountFilter(minInstances, maxInstances *int) *CountFilter {
	return &CountFilter{min: minInstances, max: maxInstances}
}

// Apply filters out records outside the bounds.
func (f *CountFilter) Apply(_ context.Context, pool []*record.Record) (*Result, error) {
	return partition(pool, "excluded by instance count", f.Matches), nil
}

// Matches reports whether r is within bounds.
func (f *CountFilter) Matches(r *record.Record) bool {
	n := r.InstanceCount()

	if f.min != nil && n < *f.min {
		return false
	}

	if f.max != nil && n > *f.max {
		return false
	}

	return true
}

// Health status keys understood by StatusFilter.
const (
	StatusUp           = "Up"
	StatusDown         = "Down"
	StatusOutOfService = "OutOfService"
	StatusStarting     = "Starting"
	StatusDisabled     = "Disabled"
)

// StatusFilter keeps records matching any selected health status.
type StatusFilter struct {
	sel selection.Map
}

// NewStatusFilter creates a status filter.
func NewStatusFilter(sel selection.Map) *StatusFilter {
	return &StatusFilter{sel: sel}
}

// Apply filters out records matching none of the selected statuses.
func (f *StatusFilter) Apply(_ context.Context, pool []*record.Record) (*Result, error) {
	reason := "excluded by status: " + strings.Join(f.sel.Checked(), ",")
	return partition(pool, reason, f.Matches), nil
}

// Matches reports whether r has any of the selected statuses.
func (f *StatusFilter) Matches(r *record.Record) bool {
	if !f.sel.IsFilterable() {
		return true
	}

	counts := r.Counts()

	checks := map[string]bool{
		StatusUp:           counts["down"] == 0,
		StatusDown:         counts["down"] > 0,
		StatusOutOfService: counts["outOfService"] > 0,
		StatusStarting:     counts["starting"] > 0,
		StatusDisabled:     r.Bool(record.FieldDisabled),
	}

	for status, ok := range checks {
		if ok && f.sel[status] {
			return true
		}
	}

	return false
}
