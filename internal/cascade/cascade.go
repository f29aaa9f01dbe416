// Package cascade implements the dependent-filter reducer. Fields are
// processed in dependency order; each field's headings are computed over
// the pool as narrowed by every field before it, stale selections are
// pruned, and the pool is narrowed by what remains selected.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/hupe1980/depfilter/internal/logging"
	"github.com/hupe1980/depfilter/internal/record"
	"github.com/hupe1980/depfilter/internal/selection"
)

// ErrInvalidArgument is returned for a nil pool or a malformed dependency order.
var ErrInvalidArgument = errors.New("invalid argument")

// Step records what happened to the pool while processing one field.
type Step struct {
	Field    string `json:"field"`
	Before   int    `json:"before"`
	After    int    `json:"after"`
	Narrowed bool   `json:"narrowed"`
}

// Result is the outcome of a cascade run.
type Result struct {
	// Order is the dependency order that was processed.
	Order []string
	// Headings maps each field to its distinct values, first-seen order.
	Headings map[string][]string
	// Pool is the pool after narrowing by every field.
	Pool []*record.Record
	// Selections is a pruned copy of the input selections. Fields outside
	// the dependency order are carried over untouched.
	Selections selection.Selections
	// Pruned lists, per field, the selection keys that were removed.
	Pruned map[string][]string
	// Steps has one entry per field in Order.
	Steps []Step
}

// PrunedAny reports whether any selection was removed.
func (r *Result) PrunedAny() bool {
	for _, keys := range r.Pruned {
		if len(keys) > 0 {
			return true
		}
	}

	return false
}

// Headings returns the distinct non-empty values of field across pool in
// first-seen order.
func Headings(pool []*record.Record, field string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)

	for _, r := range pool {
		v, ok := r.Value(field)
		if !ok {
			continue
		}

		if _, dup := seen[v]; dup {
			continue
		}

		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}

// Prune returns a copy of sel without the keys that are not in headings,
// along with the removed keys in sorted order. Flags of surviving keys are
// left as they were.
func Prune(sel selection.Map, headings []string) (selection.Map, []string) {
	if sel == nil {
		return nil, nil
	}

	valid := make(map[string]struct{}, len(headings))
	for _, h := range headings {
		valid[h] = struct{}{}
	}

	kept := make(selection.Map, len(sel))

	var removed []string

	for k, v := range sel {
		if _, ok := valid[k]; ok {
			kept[k] = v
		} else {
			removed = append(removed, k)
		}
	}

	sort.Strings(removed)

	return kept, removed
}

// Narrow keeps the records whose value for field is selected. When sel
// has no selected value the pool is returned unchanged.
func Narrow(pool []*record.Record, field string, sel selection.Map) []*record.Record {
	if !sel.IsFilterable() {
		return pool
	}

	out := make([]*record.Record, 0, len(pool))

	for _, r := range pool {
		if v, ok := r.Value(field); ok && sel[v] {
			out = append(out, r)
		}
	}

	return out
}

// Validate checks the inputs of a cascade run.
func Validate(pool []*record.Record, order []string) error {
	if pool == nil {
		return fmt.Errorf("%w: pool is nil", ErrInvalidArgument)
	}

	if len(order) == 0 {
		return fmt.Errorf("%w: dependency order is empty", ErrInvalidArgument)
	}

	seen := make(map[string]struct{}, len(order))

	for i, field := range order {
		if field == "" {
			return fmt.Errorf("%w: dependency order entry %d is empty", ErrInvalidArgument, i)
		}

		if _, dup := seen[field]; dup {
			return fmt.Errorf("%w: field %q appears more than once in dependency order", ErrInvalidArgument, field)
		}

		seen[field] = struct{}{}
	}

	return nil
}

// Reduce runs the cascade. The caller's selections are not modified; the
// pruned selections are returned in the result.
func Reduce(ctx context.Context, pool []*record.Record, order []string, selections selection.Selections) (*Result, error) {
	if err := Validate(pool, order); err != nil {
		return nil, err
	}

	logger := logging.FromContext(ctx)

	res := &Result{
		Order:      append([]string(nil), order...),
		Headings:   make(map[string][]string, len(order)),
		Selections: selections.Clone(),
		Pruned:     make(map[string][]string),
		Steps:      make([]Step, 0, len(order)),
	}

	if res.Selections == nil {
		res.Selections = make(selection.Selections)
	}

	current := pool

	for _, field := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		headings := Headings(current, field)
		res.Headings[field] = headings

		sel, removed := Prune(selections.Get(field), headings)
		if sel != nil {
			res.Selections[field] = sel
		}

		if len(removed) > 0 {
			res.Pruned[field] = removed
			logger.Debug("pruned stale selections",
				slog.String("field", field),
				slog.Any("values", removed),
			)
		}

		step := Step{Field: field, Before: len(current)}
		if sel.IsFilterable() {
			current = Narrow(current, field, sel)
			step.Narrowed = true
		}

		step.After = len(current)
		res.Steps = append(res.Steps, step)
	}

	res.Pool = current

	return res, nil
}

// ReduceInPlace runs Reduce and then deletes the pruned keys from the
// caller's selection maps, matching the in/out contract of callers that
// own a long-lived selection state.
func ReduceInPlace(ctx context.Context, pool []*record.Record, order []string, selections selection.Selections) (*Result, error) {
	res, err := Reduce(ctx, pool, order, selections)
	if err != nil {
		return nil, err
	}

	for field, removed := range res.Pruned {
		m := selections.Get(field)
		for _, k := range removed {
			delete(m, k)
		}
	}

	return res, nil
}
