package record

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serverGroup() *Record {
	return New(map[string]interface{}{
		"name":    "app-main-v001",
		"account": "prod",
		"region":  "us-east-1",
		"cluster": "app-main",
		"stack":   "",
		"enabled": true,
		"size":    float64(3),
		"buildInfo": map[string]interface{}{
			"jenkins": map[string]interface{}{"number": "42", "host": "ci.example.com", "name": "app-build"},
		},
		"labels":        map[string]interface{}{"team": "core", "tier": "web"},
		"tags":          map[string]interface{}{"owner": "Alice"},
		"loadBalancers": []interface{}{"app-frontend"},
		"instances": []interface{}{
			map[string]interface{}{"id": "i-0001"},
			map[string]interface{}{"id": "i-0002"},
		},
		"instanceCounts": map[string]interface{}{"up": float64(2), "down": float64(0)},
		"isDisabled":     false,
	})
}

func TestRecord_Value(t *testing.T) {
	r := serverGroup()

	tests := []struct {
		field  string
		want   string
		wantOK bool
	}{
		{"account", "prod", true},
		{"buildInfo.jenkins.host", "ci.example.com", true},
		{"enabled", "true", true},
		{"size", "3", true},
		{"stack", "", false},
		{"missing", "", false},
		{"labels", "", false},
		{"account.nested", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			got, ok := r.Value(tt.field)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecord_Accessors(t *testing.T) {
	r := serverGroup()

	assert.Equal(t, "app-main-v001", r.Name())
	assert.Equal(t, map[string]string{"team": "core", "tier": "web"}, r.Labels())
	assert.Equal(t, map[string]string{"owner": "Alice"}, r.Tags())
	assert.Equal(t, 2, r.InstanceCount())
	assert.Equal(t, map[string]int{"up": 2, "down": 0}, r.Counts())
	assert.False(t, r.Bool("isDisabled"))
	assert.True(t, r.Bool("enabled"))
}

func TestRecord_EmptyAccessors(t *testing.T) {
	r := New(nil)

	assert.Empty(t, r.Name())
	assert.Empty(t, r.Labels())
	assert.Empty(t, r.Counts())
	assert.Zero(t, r.InstanceCount())
	assert.Empty(t, r.SearchField(nil))
}

func TestRecord_SearchField(t *testing.T) {
	got := serverGroup().SearchField(nil)

	for _, part := range []string{"us-east-1", "app-main-v001", "prod", "42", "ci.example.com", "app-frontend", "i-0001", "i-0002"} {
		assert.Contains(t, got, part)
	}

	assert.Equal(t, "prod", serverGroup().SearchField([]string{"account"}))
}

func TestScalar(t *testing.T) {
	s, ok := Scalar(float64(1.5))
	assert.True(t, ok)
	assert.Equal(t, "1.5", s)

	s, ok = Scalar(int64(7))
	assert.True(t, ok)
	assert.Equal(t, "7", s)

	_, ok = Scalar(nil)
	assert.False(t, ok)

	_, ok = Scalar([]interface{}{"a"})
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// Parser
// ---------------------------------------------------------------------------

func TestSplitDocuments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"single document", "name: a", 1},
		{"two documents", "name: a\n---\nname: b", 2},
		{"leading separator", "---\nname: a", 1},
		{"only separators", "---\n---", 0},
		{"empty input", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, SplitDocuments([]byte(tt.input)), tt.want)
		})
	}
}

func TestParser_Shapes(t *testing.T) {
	input := `name: single
---
- name: list-a
- name: list-b
---
items:
  - name: items-a
---
[{"name": "json-a"}]
`

	rs, err := NewParser().Parse(context.Background(), []byte(input))
	require.NoError(t, err)

	names := make([]string, 0, len(rs))
	for _, r := range rs {
		names = append(names, r.Name())
	}

	assert.Equal(t, []string{"single", "list-a", "list-b", "items-a", "json-a"}, names)
}

func TestParser_Errors(t *testing.T) {
	_, err := NewParser().Parse(context.Background(), []byte("- name: ok\n- just-a-string\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item 1")

	_, err = NewParser().Parse(context.Background(), []byte("42"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected an object or a list")

	_, err = NewParser().Parse(context.Background(), []byte("name: [unclosed"))
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// Loader
// ---------------------------------------------------------------------------

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoader_PreservesOrder(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "- name: a1\n- name: a2\n")
	b := writeFile(t, dir, "b.json", `[{"name": "b1"}]`)
	c := writeFile(t, dir, "c.yaml", "name: c1\n")

	pool, err := NewLoader(WithConcurrency(2)).Load(context.Background(), c, a, b)
	require.NoError(t, err)
	require.Len(t, pool, 4)

	assert.Equal(t, "c1", pool[0].Name())
	assert.Equal(t, "a1", pool[1].Name())
	assert.Equal(t, "a2", pool[2].Name())
	assert.Equal(t, "b1", pool[3].Name())
	assert.Equal(t, a, pool[1].Source)
}

func TestLoader_Stdin(t *testing.T) {
	pool, err := NewLoader(WithStdin(strings.NewReader("name: piped\n"))).Load(context.Background(), StdinPath)
	require.NoError(t, err)
	require.Len(t, pool, 1)
	assert.Equal(t, "piped", pool[0].Name())
	assert.Equal(t, StdinPath, pool[0].Source)
}

func TestLoader_EmptyFileYieldsEmptyPool(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.yaml", "")

	pool, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.NotNil(t, pool)
	assert.Empty(t, pool)
}

func TestLoader_Errors(t *testing.T) {
	_, err := NewLoader().Load(context.Background())
	require.Error(t, err)

	_, err = NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading pool file")

	bad := writeFile(t, t.TempDir(), "bad.yaml", "- 1\n")
	_, err = NewLoader().Load(context.Background(), bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}
