package filter

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/labels"

	"github.com/hupe1980/depfilter/internal/record"
)

// LabelFilter keeps records whose labels match a selector.
// Supports the Kubernetes selector syntax: key=value, key!=value,
// key in (v1,v2), key notin (v1), key, !key.
type LabelFilter struct {
	expr     string
	selector labels.Selector
}

// NewLabelFilter parses selectorExpr into a filter.
func NewLabelFilter(selectorExpr string) (*LabelFilter, error) {
	sel, err := labels.Parse(selectorExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid label selector %q: %w", selectorExpr, err)
	}

	return &LabelFilter{expr: selectorExpr, selector: sel}, nil
}

// Apply filters out records whose labels do not match.
func (f *LabelFilter) Apply(_ context.Context, pool []*record.Record) (*Result, error) {
	return partition(pool, "excluded by label selector: "+f.expr, f.Matches), nil
}

// Matches reports whether r's labels satisfy the selector.
func (f *LabelFilter) Matches(r *record.Record) bool {
	return f.selector.Matches(labels.Set(r.Labels()))
}
