package diff

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/depfilter/internal/output"
)

func TestCompute_Identical(t *testing.T) {
	doc := "order:\n- account\ntotal: 3\n"

	res, err := Compute(doc, doc, DefaultOptions())
	require.NoError(t, err)
	assert.False(t, res.HasDifferences())
	assert.Empty(t, res.Hunks)
	assert.Zero(t, res.Added)
	assert.Zero(t, res.Removed)
}

func TestCompute_Different(t *testing.T) {
	oldDoc := "order:\n- account\nvisible: 3\n"
	newDoc := "order:\n- account\nvisible: 1\n"

	res, err := Compute(oldDoc, newDoc, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, res.HasDifferences())
	require.Len(t, res.Hunks, 1)
	assert.Contains(t, res.Unified, "-visible: 3")
	assert.Contains(t, res.Unified, "+visible: 1")
	assert.Equal(t, 1, res.Added)
	assert.Equal(t, 1, res.Removed)
}

func TestCompute_Labels(t *testing.T) {
	opts := DefaultOptions()
	opts.OldLabel = "prod.yaml"
	opts.NewLabel = "test.yaml"

	res, err := Compute("a\n", "b\n", opts)
	require.NoError(t, err)
	assert.Contains(t, res.Unified, "--- prod.yaml")
	assert.Contains(t, res.Unified, "+++ test.yaml")
}

func TestCompute_EmptySide(t *testing.T) {
	res, err := Compute("", "a: 1\n", DefaultOptions())
	require.NoError(t, err)
	assert.True(t, res.HasDifferences())

	res, err = Compute("a: 1\n", "", DefaultOptions())
	require.NoError(t, err)
	assert.True(t, res.HasDifferences())
}

func TestReports(t *testing.T) {
	a := &output.Report{Order: []string{"account"}, Total: 3, Filtered: 3, Visible: 3}
	b := &output.Report{Order: []string{"account"}, Total: 3, Filtered: 3, Visible: 2}

	res, err := Reports(a, b, DefaultOptions())
	require.NoError(t, err)
	assert.Contains(t, res.Unified, "-visible: 3")
	assert.Contains(t, res.Unified, "+visible: 2")

	same, err := Reports(a, a, DefaultOptions())
	require.NoError(t, err)
	assert.False(t, same.HasDifferences())
}

func TestWrite_NoColor(t *testing.T) {
	res, err := Compute("line1\nline2\n", "line1\nline3\n", DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	Write(&buf, res, false)

	out := buf.String()
	assert.Contains(t, out, "-line2")
	assert.Contains(t, out, "+line3")
	assert.Contains(t, out, "1 addition(s), 1 removal(s)")
	assert.NotContains(t, out, "\033[")
}

func TestWrite_Color(t *testing.T) {
	res, err := Compute("line1\nline2\n", "line1\nline3\n", DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	Write(&buf, res, true)

	assert.Contains(t, buf.String(), "\033[31m-line2\033[0m")
	assert.Contains(t, buf.String(), "\033[32m+line3\033[0m")
}

func TestWrite_NoDifferences(t *testing.T) {
	res, err := Compute("a\n", "a\n", DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	Write(&buf, res, false)
	assert.Equal(t, "No differences found.\n", buf.String())
}
