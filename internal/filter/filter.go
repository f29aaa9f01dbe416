package filter

import (
	"context"

	"github.com/hupe1980/depfilter/internal/record"
)

// Filter is the interface for all record filters.
// Filters are stateless: they receive a pool and return a result without
// modifying shared state.
type Filter interface {
	// Apply runs the filter on the given pool and returns a result.
	Apply(ctx context.Context, pool []*record.Record) (*Result, error)
}

// ExcludedRecord records a record that was removed by a filter.
type ExcludedRecord struct {
	// Record is the excluded record.
	Record *record.Record
	// Reason is a human-readable explanation for the exclusion.
	Reason string
}

// Result holds the outcome of a filter application.
type Result struct {
	// Included are the records that passed the filter.
	Included []*record.Record
	// Excluded are the records removed by the filter.
	Excluded []ExcludedRecord
}

// NewResult creates an empty Result.
func NewResult() *Result {
	return &Result{Included: make([]*record.Record, 0)}
}

// Func adapts a predicate into a Filter. Records for which keep returns
// false are excluded with reason.
type Func struct {
	keep   func(*record.Record) bool
	reason string
}

// NewFunc creates a predicate filter.
func NewFunc(reason string, keep func(*record.Record) bool) *Func {
	return &Func{keep: keep, reason: reason}
}

// Apply partitions the pool by the predicate.
func (f *Func) Apply(_ context.Context, pool []*record.Record) (*Result, error) {
	return partition(pool, f.reason, f.keep), nil
}

func partition(pool []*record.Record, reason string, keep func(*record.Record) bool) *Result {
	r := NewResult()

	for _, rec := range pool {
		if keep(rec) {
			r.Included = append(r.Included, rec)
		} else {
			r.Excluded = append(r.Excluded, ExcludedRecord{Record: rec, Reason: reason})
		}
	}

	return r
}

// Chain applies multiple filters sequentially, passing the included
// records from each filter as input to the next.
type Chain struct {
	filters []Filter
}

// NewChain creates a filter chain from the given filters. Nil filters
// are skipped.
func NewChain(filters ...Filter) *Chain {
	c := &Chain{}

	for _, f := range filters {
		if f != nil {
			c.filters = append(c.filters, f)
		}
	}

	return c
}

// Len returns the number of filters in the chain.
func (c *Chain) Len() int {
	return len(c.filters)
}

// Apply runs all filters in order, accumulating excluded records.
func (c *Chain) Apply(ctx context.Context, pool []*record.Record) (*Result, error) {
	combined := NewResult()
	current := pool

	for _, f := range c.filters {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		r, err := f.Apply(ctx, current)
		if err != nil {
			return nil, err
		}

		current = r.Included

		combined.Excluded = append(combined.Excluded, r.Excluded...)
	}

	if current != nil {
		combined.Included = current
	}

	return combined, nil
}
