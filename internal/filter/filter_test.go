package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/depfilter/internal/record"
	"github.com/hupe1980/depfilter/internal/selection"
)

// ---------------------------------------------------------------------------
// Test helpers
// ---------------------------------------------------------------------------

func makeRecord(fields map[string]interface{}) *record.Record {
	return record.New(fields)
}

func names(pool []*record.Record) []string {
	out := make([]string, 0, len(pool))
	for _, r := range pool {
		out = append(out, r.Name())
	}

	return out
}

func samplePool() []*record.Record {
	return []*record.Record{
		makeRecord(map[string]interface{}{
			"name": "app-main-v001", "account": "prod", "region": "us-east-1", "cluster": "app-main",
			"stack": "main", "detail": "", "vpcName": "Main-VPC",
			"labels":    map[string]interface{}{"team": "core", "tier": "web"},
			"tags":      map[string]interface{}{"owner": "Alice", "cost": "shared"},
			"instances": []interface{}{map[string]interface{}{"id": "i-1"}, map[string]interface{}{"id": "i-2"}},
			"instanceCounts": map[string]interface{}{"down": float64(0)},
		}),
		makeRecord(map[string]interface{}{
			"name": "app-canary-v002", "account": "test", "region": "us-west-2", "cluster": "app-canary",
			"stack": "canary", "detail": "blue",
			"labels":         map[string]interface{}{"team": "core", "tier": "worker"},
			"instances":      []interface{}{},
			"instanceCounts": map[string]interface{}{"down": float64(1), "outOfService": float64(1)},
			"isDisabled":     true,
		}),
		makeRecord(map[string]interface{}{
			"name": "batch-v000", "account": "prod", "region": "eu-west-1", "cluster": "batch",
			"labels":         map[string]interface{}{"team": "data"},
			"instances":      []interface{}{map[string]interface{}{"id": "i-9"}},
			"instanceCounts": map[string]interface{}{"starting": float64(1)},
		}),
	}
}

func intPtr(n int) *int { return &n }

// ---------------------------------------------------------------------------
// Chain tests
// ---------------------------------------------------------------------------

func TestChain_Empty(t *testing.T) {
	result, err := NewChain().Apply(context.Background(), samplePool())
	require.NoError(t, err)
	assert.Len(t, result.Included, 3)
	assert.Empty(t, result.Excluded)
}

func TestChain_MultipleFilters(t *testing.T) {
	chain := NewChain(
		NewFieldFilter("account", selection.Map{"prod": true}),
		nil,
		NewCountFilter(intPtr(2), nil),
	)
	assert.Equal(t, 2, chain.Len())

	result, err := chain.Apply(context.Background(), samplePool())
	require.NoError(t, err)
	assert.Equal(t, []string{"app-main-v001"}, names(result.Included))
	require.Len(t, result.Excluded, 2)
	assert.Equal(t, "app-canary-v002", result.Excluded[0].Record.Name())
	assert.Contains(t, result.Excluded[0].Reason, "account")
	assert.Contains(t, result.Excluded[1].Reason, "instance count")
}

func TestChain_NilPoolGivesEmptyIncluded(t *testing.T) {
	result, err := NewChain(NewTextFilter("x", nil)).Apply(context.Background(), nil)
	require.NoError(t, err)
	assert.NotNil(t, result.Included)
	assert.Empty(t, result.Included)
}

func TestChain_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewChain(NewTextFilter("x", nil)).Apply(ctx, samplePool())
	require.ErrorIs(t, err, context.Canceled)
}

func TestFunc(t *testing.T) {
	f := NewFunc("no batch", func(r *record.Record) bool { return r.Name() != "batch-v000" })

	result, err := f.Apply(context.Background(), samplePool())
	require.NoError(t, err)
	assert.Len(t, result.Included, 2)
	require.Len(t, result.Excluded, 1)
	assert.Equal(t, "no batch", result.Excluded[0].Reason)
}

// ---------------------------------------------------------------------------
// Text filter
// ---------------------------------------------------------------------------

func TestTextFilter(t *testing.T) {
	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"app-main-v001", "app-canary-v002", "batch-v000"}},
		{"app", []string{"app-main-v001", "app-canary-v002"}},
		{"APP prod", []string{"app-main-v001"}},
		{"i-9", []string{"batch-v000"}},
		{"clusters:app-main, batch", []string{"app-main-v001", "batch-v000"}},
		{"cluster:app-canary", []string{"app-canary-v002"}},
		{"vpc:main-vpc", []string{"app-main-v001"}},
		{"tag:owner=ali", []string{"app-main-v001"}},
		{"tag:shared", []string{"app-main-v001"}},
		{"tag:owner=bob", []string{}},
		{"detail:BLUE", []string{"app-canary-v002"}},
		{"labels:team=core,tier=web", []string{"app-main-v001"}},
		{"labels:team=Core", []string{}},
		{"labels:team", []string{}},
		{"nothing-matches", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			result, err := NewTextFilter(tt.query, nil).Apply(context.Background(), samplePool())
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(result.Included))
		})
	}
}

func TestTextFilter_LabelsAfterMultibyteText(t *testing.T) {
	// İ lowercases to a longer byte sequence.
	f := NewTextFilter("İ LABELS:team=core", nil)

	result, err := f.Apply(context.Background(), samplePool())
	require.NoError(t, err)
	assert.Equal(t, []string{"app-main-v001", "app-canary-v002"}, names(result.Included))
}

func TestTextFilter_CustomSearchFields(t *testing.T) {
	f := NewTextFilter("core", []string{"labels.team"})
	assert.True(t, f.Matches(samplePool()[0]))
	assert.False(t, f.Matches(samplePool()[2]))
}

// ---------------------------------------------------------------------------
// Field, count and status filters
// ---------------------------------------------------------------------------

func TestFieldFilter(t *testing.T) {
	pool := samplePool()

	assert.True(t, NewFieldFilter("account", nil).Matches(pool[0]))
	assert.True(t, NewFieldFilter("account", selection.Map{"test": false}).Matches(pool[0]))
	assert.False(t, NewFieldFilter("account", selection.Map{"test": true}).Matches(pool[0]))
	assert.True(t, NewFieldFilter("account", selection.Map{"prod": true}).Matches(pool[0]))
}

func TestFieldFilter_None(t *testing.T) {
	pool := samplePool()
	f := NewFieldFilter("stack", selection.Map{"main": true, selection.None: true})

	assert.True(t, f.Matches(pool[0]))
	assert.False(t, f.Matches(pool[1]))
	assert.True(t, f.Matches(pool[2]), "missing stack matches (none)")
}

func TestCountFilter(t *testing.T) {
	pool := samplePool()

	assert.True(t, NewCountFilter(nil, nil).Matches(pool[1]))
	assert.False(t, NewCountFilter(intPtr(1), nil).Matches(pool[1]))
	assert.True(t, NewCountFilter(intPtr(0), intPtr(0)).Matches(pool[1]))
	assert.False(t, NewCountFilter(nil, intPtr(1)).Matches(pool[0]))
	assert.True(t, NewCountFilter(intPtr(2), intPtr(2)).Matches(pool[0]))
}

func TestStatusFilter(t *testing.T) {
	up := makeRecord(map[string]interface{}{"instanceCounts": map[string]interface{}{"down": float64(0)}})
	down := makeRecord(map[string]interface{}{"instanceCounts": map[string]interface{}{"down": float64(1)}})
	oos := makeRecord(map[string]interface{}{"instanceCounts": map[string]interface{}{"outOfService": float64(1), "down": float64(1)}})
	starting := makeRecord(map[string]interface{}{"instanceCounts": map[string]interface{}{"starting": float64(1), "down": float64(1)}})
	disabled := makeRecord(map[string]interface{}{"instanceCounts": map[string]interface{}{"down": float64(1)}, "isDisabled": true})

	assert.True(t, NewStatusFilter(nil).Matches(down))
	assert.True(t, NewStatusFilter(selection.Map{StatusUp: true}).Matches(up))
	assert.False(t, NewStatusFilter(selection.Map{StatusUp: true}).Matches(down))
	assert.True(t, NewStatusFilter(selection.Map{StatusDown: true}).Matches(down))
	assert.False(t, NewStatusFilter(selection.Map{StatusDown: true}).Matches(up))
	assert.True(t, NewStatusFilter(selection.Map{StatusOutOfService: true}).Matches(oos))
	assert.True(t, NewStatusFilter(selection.Map{StatusStarting: true}).Matches(starting))
	assert.True(t, NewStatusFilter(selection.Map{StatusDisabled: true}).Matches(disabled))
	assert.True(t, NewStatusFilter(selection.Map{StatusDown: false, StatusDisabled: true}).Matches(disabled))
}

// ---------------------------------------------------------------------------
// Label filter
// ---------------------------------------------------------------------------

func TestLabelFilter(t *testing.T) {
	tests := []struct {
		expr string
		want []string
	}{
		{"team=core", []string{"app-main-v001", "app-canary-v002"}},
		{"team=core,tier!=web", []string{"app-canary-v002"}},
		{"tier in (web,worker)", []string{"app-main-v001", "app-canary-v002"}},
		{"!tier", []string{"batch-v000"}},
		{"team notin (core)", []string{"batch-v000"}},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			f, err := NewLabelFilter(tt.expr)
			require.NoError(t, err)

			result, err := f.Apply(context.Background(), samplePool())
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(result.Included))
		})
	}
}

func TestLabelFilter_Invalid(t *testing.T) {
	_, err := NewLabelFilter("team in (core")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid label selector")
}
