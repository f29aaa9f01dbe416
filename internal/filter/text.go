package filter

import (
	"context"
	"strings"

	"github.com/hupe1980/depfilter/internal/record"
)

// TextFilter keeps records matching a free-text query. The query may use
// one of these prefixes:
//
//	clusters:a,b    cluster is one of the listed names
//	cluster:name    cluster equals name
//	vpc:name        vpcName equals name (case-insensitive)
//	tag:key=value   a tag with key contains value
//	tag:value       any tag value contains value
//	detail:name     detail equals name
//	labels:k=v,...  every label pair is present (case-sensitive)
//
// Without a prefix every word must occur in the record's search field.
type TextFilter struct {
	raw    string
	query  string
	fields []string
}

// NewTextFilter creates a text filter. searchFields configures the search
// field; nil uses record.DefaultSearchFields.
func NewTextFilter(query string, searchFields []string) *TextFilter {
	query = strings.TrimSpace(query)

	return &TextFilter{
		raw:    query,
		query:  strings.ToLower(query),
		fields: searchFields,
	}
}

// Apply filters out records not matching the query.
func (f *TextFilter) Apply(_ context.Context, pool []*record.Record) (*Result, error) {
	return partition(pool, "excluded by search: "+f.raw, f.Matches), nil
}

// Matches reports whether r satisfies the query.
func (f *TextFilter) Matches(r *record.Record) bool {
	q := f.query
	if q == "" {
		return true
	}

	if _, names, ok := strings.Cut(q, "clusters:"); ok {
		cluster, _ := r.Value(record.FieldCluster)
		for _, name := range strings.Split(stripSpace(names), ",") {
			if name != "" && strings.EqualFold(name, cluster) {
				return true
			}
		}

		return false
	}

	if _, vpc, ok := strings.Cut(q, "vpc:"); ok {
		name, _ := r.Value("vpcName")
		return strings.EqualFold(name, strings.TrimSpace(vpc))
	}

	if _, tag, ok := strings.Cut(q, "tag:"); ok {
		return matchTag(r.Tags(), tag)
	}

	if _, detail, ok := strings.Cut(q, "detail:"); ok {
		d, _ := r.Value("detail")
		return strings.EqualFold(d, strings.TrimSpace(detail))
	}

	if _, cluster, ok := strings.Cut(q, "cluster:"); ok {
		c, _ := r.Value(record.FieldCluster)
		return strings.EqualFold(c, strings.TrimSpace(cluster))
	}

	// Label pairs are matched against the raw query, so they stay case-sensitive.
	if pairs, ok := cutFold(f.raw, "labels:"); ok {
		return matchLabels(r.Labels(), pairs)
	}

	search := r.SearchField(f.fields)
	for _, word := range strings.Fields(q) {
		if !strings.Contains(search, word) {
			return false
		}
	}

	return true
}

func matchTag(tags map[string]string, expr string) bool {
	key, value, hasKey := strings.Cut(expr, "=")

	for k, v := range tags {
		lv := strings.ToLower(v)

		if hasKey {
			if strings.EqualFold(key, k) && strings.Contains(lv, value) {
				return true
			}

			continue
		}

		if strings.Contains(lv, expr) {
			return true
		}
	}

	return false
}

func matchLabels(labels map[string]string, expr string) bool {
	for _, pair := range strings.Split(expr, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" || v == "" {
			return false
		}

		if got, exists := labels[k]; !exists || got != v {
			return false
		}
	}

	return true
}

// cutFold returns what follows the first ASCII-case-insensitive occurrence
// of prefix in s. Offsets are taken on s itself.
func cutFold(s, prefix string) (string, bool) {
	for i := 0; i+len(prefix) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(prefix)], prefix) {
			return s[i+len(prefix):], true
		}
	}

	return "", false
}

func stripSpace(s string) string {
	return strings.Join(strings.Fields(s), "")
}
