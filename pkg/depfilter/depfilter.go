// Package depfilter provides a public Go API for cascading dependent
// filters over lists of records, allowing programmatic use without the CLI.
//
// Basic usage:
//
//	res, err := depfilter.Reduce(pool, []string{"account", "region"}, selections)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(res.Headings["region"])
//
// With predicate filters and grouping:
//
//	res, err := depfilter.Filter(ctx, pool, []string{"account", "region"},
//	    depfilter.WithSelections(selections),
//	    depfilter.WithSearch("cluster:api"),
//	    depfilter.WithStatus("Down"),
//	    depfilter.WithGroupBy("account", "cluster"),
//	)
package depfilter

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/hupe1980/depfilter/internal/cascade"
	"github.com/hupe1980/depfilter/internal/filter"
	"github.com/hupe1980/depfilter/internal/group"
	"github.com/hupe1980/depfilter/internal/logging"
	"github.com/hupe1980/depfilter/internal/record"
	"github.com/hupe1980/depfilter/internal/selection"
)

// ErrInvalidArgument is returned for a nil pool or a malformed dependency order.
var ErrInvalidArgument = cascade.ErrInvalidArgument

// Result is the outcome of a run.
type Result struct {
	// Headings maps each field to its distinct values after narrowing by
	// every upstream field.
	Headings map[string][]string

	// Selections is the pruned copy of the input selections.
	Selections map[string]map[string]bool

	// Pruned lists, per field, the selection keys that were removed.
	Pruned map[string][]string

	// Pool holds the records that survived every filter, in input order.
	Pool []map[string]any

	// Excluded is the number of records removed by predicate filters.
	Excluded int

	// Groups is set when grouping was requested.
	Groups []Group
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

// Group is one node of a grouping of the surviving records.
type Group struct {
	Field     string
	Heading   string
	Count     int
	Subgroups []Group
	Records   []map[string]any
}

// Reduce runs the cascade over pool. The caller's selections are not
// modified; the pruned selections are returned in the result.
func Reduce(pool []map[string]any, order []string, selections map[string]map[string]bool) (*Result, error) {
	return Filter(context.Background(), pool, order, WithSelections(selections))
}

// ReduceInPlace runs Reduce and also deletes the pruned keys from the
// caller's selection maps.
func ReduceInPlace(pool []map[string]any, order []string, selections map[string]map[string]bool) (*Result, error) {
	res, err := Reduce(pool, order, selections)
	if err != nil {
		return nil, err
	}

	for field, removed := range res.Pruned {
		for _, k := range removed {
			delete(selections[field], k)
		}
	}

	return res, nil
}

// Option configures Filter.
type Option func(*options)

type options struct {
	selections   selection.Selections
	search       string
	searchFields []string
	minInstances *int
	maxInstances *int
	labels       string
	status       []string
	groupBy      []string
	sort         string
	logger       *slog.Logger
}

// WithSelections sets the selected values per field.
func WithSelections(sel map[string]map[string]bool) Option {
	return func(o *options) {
		for field, m := range sel {
			o.selections[field] = selection.Map(m).Clone()
		}
	}
}

// WithSearch sets a free-text query applied before the cascade.
func WithSearch(query string) Option { return func(o *options) { o.search = query } }

// WithSearchFields overrides the fields the free-text search looks at.
func WithSearchFields(fields ...string) Option {
	return func(o *options) { o.searchFields = fields }
}

// WithMinInstances keeps records with at least n instances.
func WithMinInstances(n int) Option { return func(o *options) { o.minInstances = &n } }

// WithMaxInstances keeps records with at most n instances.
func WithMaxInstances(n int) Option { return func(o *options) { o.maxInstances = &n } }

// WithLabels keeps records matching a label selector.
func WithLabels(selector string) Option { return func(o *options) { o.labels = selector } }

// WithStatus keeps records matching any of the health statuses
// (Up, Down, OutOfService, Starting, Disabled).
func WithStatus(status ...string) Option { return func(o *options) { o.status = status } }

// WithGroupBy groups the surviving records by these fields.
func WithGroupBy(fields ...string) Option { return func(o *options) { o.groupBy = fields } }

// WithSort sets the heading display order: first-seen, alpha or version.
func WithSort(mode string) Option { return func(o *options) { o.sort = mode } }

// WithLogger sets the logger. The default discards all output.
func WithLogger(logger *slog.Logger) Option { return func(o *options) { o.logger = logger } }

// Filter applies the predicate filters, then runs the cascade over what
// remains.
func Filter(ctx context.Context, pool []map[string]any, order []string, opts ...Option) (*Result, error) {
	o := &options{
		selections: make(selection.Selections),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(o)
	}

	mode, err := cascade.ParseSortMode(o.sort)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	if pool == nil {
		return nil, fmt.Errorf("%w: pool is nil", ErrInvalidArgument)
	}

	records := make([]*record.Record, len(pool))
	for i, obj := range pool {
		records[i] = record.New(obj)
	}

	chain, err := o.chain()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	ctx = logging.NewContext(ctx, o.logger)

	filtered, err := chain.Apply(ctx, records)
	if err != nil {
		return nil, err
	}

	res, err := cascade.Reduce(ctx, filtered.Included, order, o.selections)
	if err != nil {
		return nil, err
	}

	out := &Result{
		Headings:   make(map[string][]string, len(res.Headings)),
		Selections: make(map[string]map[string]bool, len(res.Selections)),
		Pruned:     res.Pruned,
		Pool:       objects(res.Pool),
		Excluded:   len(filtered.Excluded),
	}

	for field, headings := range res.Headings {
		out.Headings[field] = cascade.SortHeadings(headings, mode)
	}

	for field, m := range res.Selections {
		out.Selections[field] = m
	}

	if len(o.groupBy) > 0 {
		out.Groups = groups(group.Build(res.Pool, o.groupBy))
	}

	return out, nil
}

func (o *options) chain() (*filter.Chain, error) {
	p := filter.Profile{
		Search:       o.search,
		MinInstances: o.minInstances,
		MaxInstances: o.maxInstances,
		Labels:       o.labels,
		Status:       o.status,
	}

	if err := filter.ValidateProfile(p); err != nil {
		return nil, err
	}

	filters, err := p.Filters(o.searchFields)
	if err != nil {
		return nil, err
	}

	return filter.NewChain(filters...), nil
}

func objects(pool []*record.Record) []map[string]any {
	out := make([]map[string]any, len(pool))
	for i, r := range pool {
		out[i] = r.Object
	}

	return out
}

func groups(gs []*group.Group) []Group {
	if len(gs) == 0 {
		return nil
	}

	out := make([]Group, 0, len(gs))

	for _, g := range gs {
		out = append(out, Group{
			Field:     g.Field,
			Heading:   g.Heading,
			Count:     g.Count(),
			Subgroups: groups(g.Subgroups),
			Records:   objects(g.Records),
		})
	}

	return out
}
