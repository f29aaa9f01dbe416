package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/depfilter/internal/output"
	"github.com/hupe1980/depfilter/internal/selection"
)

const serverGroups = `
- name: api-v001
  account: prod
  region: us-east-1
  cluster: api
  instanceCounts: {total: 3, up: 3, down: 0}
  instances: [{id: i-1}, {id: i-2}, {id: i-3}]
- name: api-v002
  account: prod
  region: us-west-2
  cluster: api
  instanceCounts: {total: 2, up: 1, down: 1}
  instances: [{id: i-4}, {id: i-5}]
- name: web-v001
  account: test
  region: us-east-1
  cluster: web
  instanceCounts: {total: 0, up: 0, down: 0}
  instances: []
`

func poolFile(t *testing.T) string {
	t.Helper()
	return writeFile(t, "servergroups.yaml", serverGroups)
}

func decodeReport(t *testing.T, data string) output.Report {
	t.Helper()

	var rep output.Report
	require.NoError(t, json.Unmarshal([]byte(data), &rep))

	return rep
}

// ---------------------------------------------------------------------------
// headings
// ---------------------------------------------------------------------------

func TestHeadings_Text(t *testing.T) {
	stdout, _, err := executeCommand("headings", poolFile(t), "--select", "account=prod")
	require.NoError(t, err)

	assert.Equal(t, `account (2)
  [x] prod
  [ ] test
region (2)
  [ ] us-east-1
  [ ] us-west-2
cluster (1)
  [ ] api
2 of 3 records visible (3 after filters)
`, stdout)
}

func TestHeadings_JSON(t *testing.T) {
	stdout, _, err := executeCommand("headings", poolFile(t),
		"--select", "account=prod", "--select", "region=us-west-2", "--format", "json")
	require.NoError(t, err)

	rep := decodeReport(t, stdout)
	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, 1, rep.Visible)
	assert.Equal(t, []string{"account", "region", "cluster"}, rep.Order)
	assert.Equal(t, map[string][]string{"account": {"prod"}, "region": {"us-west-2"}}, rep.Selections)
}

func TestHeadings_Stdin(t *testing.T) {
	stdout, _, err := executeCommandWithInput(serverGroups, "headings", "-", "--order", "cluster", "--format", "json")
	require.NoError(t, err)

	rep := decodeReport(t, stdout)
	require.Len(t, rep.Fields, 1)
	assert.Equal(t, "cluster", rep.Fields[0].Field)
	assert.Len(t, rep.Fields[0].Headings, 2)
}

func TestHeadings_SortAlpha(t *testing.T) {
	pool := writeFile(t, "pool.yaml", "- region: us-west-2\n- region: eu-west-1\n")

	stdout, _, err := executeCommand("--order", "region", "--sort", "alpha", "headings", pool)
	require.NoError(t, err)
	assert.Contains(t, stdout, "region (2)\n  [ ] eu-west-1\n  [ ] us-west-2\n")
}

func TestHeadings_StaleSelectionPruned(t *testing.T) {
	stdout, _, err := executeCommand("headings", poolFile(t), "--select", "account=staging")
	require.NoError(t, err)

	assert.Contains(t, stdout, "pruned: staging")
	assert.Contains(t, stdout, "3 of 3 records visible")
}

func TestHeadings_FailOnPrune(t *testing.T) {
	stdout, _, err := executeCommand("headings", poolFile(t), "--select", "account=staging", "--fail-on-prune")
	requireExitCode(t, err, ExitPruned)

	// The report is still written.
	assert.Contains(t, stdout, "pruned: staging")
}

func TestHeadings_FailOnPruneWithoutPruning(t *testing.T) {
	_, _, err := executeCommand("headings", poolFile(t), "--select", "account=prod", "--fail-on-prune")
	require.NoError(t, err)
}

func TestHeadings_SelectionsFileAndWriteBack(t *testing.T) {
	sel := writeFile(t, "sel.yaml", "account:\n  prod: true\n  staging: true\nregion:\n  us-west-2: true\n")
	out := filepath.Join(t.TempDir(), "pruned.yaml")

	_, _, err := executeCommand("headings", poolFile(t), "--selections", sel, "--write-selections", out)
	require.NoError(t, err)

	got, err := selection.LoadFile(out)
	require.NoError(t, err)
	assert.Equal(t, selection.Map{"prod": true}, got["account"])
	assert.Equal(t, selection.Map{"us-west-2": true}, got["region"])
}

func TestHeadings_OutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.yaml")

	stdout, _, err := executeCommand("headings", poolFile(t), "--format", "yaml", "-o", out)
	require.NoError(t, err)
	assert.Empty(t, stdout)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "visible: 3")
}

func TestHeadings_Errors(t *testing.T) {
	pool := poolFile(t)

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"missing pool file", []string{"headings", "/nonexistent/pool.yaml"}, ExitLoadFailure},
		{"missing selections file", []string{"headings", pool, "--selections", "/nonexistent/sel.yaml"}, ExitLoadFailure},
		{"malformed select", []string{"headings", pool, "--select", "account"}, ExitUsage},
		{"unknown profile", []string{"headings", pool, "--profile", "nope"}, ExitUsage},
		{"unknown status", []string{"headings", pool, "--status", "Sideways"}, ExitUsage},
		{"bad label selector", []string{"headings", pool, "--labels", "a in (b"}, ExitUsage},
		{"min above max", []string{"headings", pool, "--min-instances", "3", "--max-instances", "1"}, ExitUsage},
		{"unknown format", []string{"headings", pool, "--format", "xml"}, ExitUsage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := executeCommand(tt.args...)
			requireExitCode(t, err, tt.code)
		})
	}
}

func TestHeadings_NoArgs(t *testing.T) {
	_, _, err := executeCommand("headings")
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// filter
// ---------------------------------------------------------------------------

func TestFilter_Records(t *testing.T) {
	stdout, _, err := executeCommand("filter", poolFile(t), "--select", "region=us-east-1", "--format", "json")
	require.NoError(t, err)

	rep := decodeReport(t, stdout)
	require.Len(t, rep.Records, 2)
	assert.Equal(t, "api-v001", rep.Records[0]["name"])
	assert.Equal(t, "web-v001", rep.Records[1]["name"])
}

func TestFilter_PredicatesRunBeforeCascade(t *testing.T) {
	stdout, _, err := executeCommand("filter", poolFile(t), "--search", "cluster:web", "--format", "json")
	require.NoError(t, err)

	rep := decodeReport(t, stdout)
	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, 1, rep.Filtered)
	assert.Len(t, rep.Excluded, 2)

	// Headings only reflect records that survived the predicates.
	require.NotEmpty(t, rep.Fields)
	assert.Equal(t, []output.Heading{{Value: "test"}}, rep.Fields[0].Headings)
}

func TestFilter_Profile(t *testing.T) {
	stdout, _, err := executeCommand("filter", poolFile(t), "--profile", "unhealthy", "--format", "json")
	require.NoError(t, err)

	rep := decodeReport(t, stdout)
	require.Len(t, rep.Records, 1)
	assert.Equal(t, "api-v002", rep.Records[0]["name"])
}

func TestFilter_InstanceBounds(t *testing.T) {
	stdout, _, err := executeCommand("filter", poolFile(t), "--min-instances", "1", "--format", "json")
	require.NoError(t, err)

	rep := decodeReport(t, stdout)
	assert.Equal(t, 2, rep.Filtered)
}

func TestFilter_GroupBy(t *testing.T) {
	stdout, _, err := executeCommand("filter", poolFile(t), "--group-by", "cluster")
	require.NoError(t, err)

	assert.Contains(t, stdout, "cluster: api (2)\n  - api-v001\n  - api-v002\n")
	assert.Contains(t, stdout, "cluster: web (1)\n  - web-v001\n")
}

// ---------------------------------------------------------------------------
// groups
// ---------------------------------------------------------------------------

func TestGroups_Levels(t *testing.T) {
	stdout, _, err := executeCommand("groups", poolFile(t), "--levels", "account,region", "--format", "json")
	require.NoError(t, err)

	rep := decodeReport(t, stdout)
	require.Len(t, rep.Groups, 2)
	assert.Equal(t, "prod", rep.Groups[0].Heading)
	assert.Equal(t, 2, rep.Groups[0].Count)
	require.Len(t, rep.Groups[0].Subgroups, 2)
	assert.Equal(t, []string{"api-v001"}, rep.Groups[0].Subgroups[0].Records)
}

// ---------------------------------------------------------------------------
// tags
// ---------------------------------------------------------------------------

func TestTags_FromParams(t *testing.T) {
	stdout, _, err := executeCommand("tags", "--params", "acct=prod,test&reg=us-east-1&q=api&status=Down")
	require.NoError(t, err)

	assert.Contains(t, stdout, "search: api")
	assert.Contains(t, stdout, "account: prod")
	assert.Contains(t, stdout, "account: test")
	assert.Contains(t, stdout, "region: us-east-1")
	assert.Contains(t, stdout, "status: unhealthy")
	assert.Contains(t, stdout, "params: ")
}

func TestTags_SelectAndClear(t *testing.T) {
	stdout, _, err := executeCommand("tags",
		"--select", "account=prod", "--select", "region=us-east-1",
		"--clear", "region", "--format", "json")
	require.NoError(t, err)

	rep := decodeReport(t, stdout)
	assert.Equal(t, []output.TagView{{Key: "account", Label: "account", Value: "prod"}}, rep.Tags)
	assert.Equal(t, "acct=prod", rep.Params)
}

func TestTags_ClearAll(t *testing.T) {
	stdout, _, err := executeCommand("tags", "--params", "acct=prod&q=api", "--clear", "all", "--format", "json")
	require.NoError(t, err)

	rep := decodeReport(t, stdout)
	assert.Empty(t, rep.Tags)
	assert.Empty(t, rep.Params)
}

func TestTags_InvalidParams(t *testing.T) {
	_, _, err := executeCommand("tags", "--params", "acct=%zz")
	requireExitCode(t, err, ExitUsage)
}

// ---------------------------------------------------------------------------
// diff
// ---------------------------------------------------------------------------

func TestDiff_RequiresAgainst(t *testing.T) {
	_, _, err := executeCommand("diff", poolFile(t))
	requireExitCode(t, err, ExitUsage)
	assert.Contains(t, err.Error(), "--against flag is required")
}

func TestDiff_Differences(t *testing.T) {
	pool := poolFile(t)
	before := writeFile(t, "before.yaml", "account:\n  prod: true\n")
	after := writeFile(t, "after.yaml", "account:\n  test: true\n")

	stdout, _, err := executeCommand("diff", pool, "--selections", before, "--against", after)
	require.NoError(t, err)

	assert.Contains(t, stdout, "--- "+before)
	assert.Contains(t, stdout, "+++ "+after)
	assert.Contains(t, stdout, "addition(s)")
}

func TestDiff_ExitCode(t *testing.T) {
	pool := poolFile(t)
	after := writeFile(t, "after.yaml", "account:\n  test: true\n")

	_, _, err := executeCommand("diff", pool, "--against", after, "--exit-code")
	requireExitCode(t, err, ExitFailure)
}

func TestDiff_NoDifferences(t *testing.T) {
	pool := poolFile(t)
	sel := writeFile(t, "sel.yaml", "account:\n  prod: true\n")

	stdout, _, err := executeCommand("diff", pool, "--selections", sel, "--against", sel, "--exit-code")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No differences found.")
}

// ---------------------------------------------------------------------------
// watch
// ---------------------------------------------------------------------------

func TestWatch_RejectsStdin(t *testing.T) {
	_, _, err := executeCommand("watch", "-")
	requireExitCode(t, err, ExitUsage)
}

func TestWatchPaths(t *testing.T) {
	assert.Equal(t, []string{"a.yaml", "sel.yaml"}, watchPaths([]string{"a.yaml"}, "sel.yaml", ""))
}

// ---------------------------------------------------------------------------
// profiles
// ---------------------------------------------------------------------------

func TestProfiles_Builtin(t *testing.T) {
	stdout, _, err := executeCommand("profiles")
	require.NoError(t, err)

	assert.Contains(t, stdout, "NAME")
	for _, name := range []string{"disabled", "empty", "unhealthy"} {
		assert.Contains(t, stdout, name)
	}
}

func TestProfiles_FromConfig(t *testing.T) {
	cfg := writeFile(t, ".depfilter.yaml", `profiles:
  prod-east:
    description: production in us-east-1
    extends: unhealthy
    select:
      account: [prod]
      region: [us-east-1]
`)

	stdout, _, err := executeCommand("--config", cfg, "profiles", "--format", "json")
	require.NoError(t, err)

	var views []profileView
	require.NoError(t, json.Unmarshal([]byte(stdout), &views))

	byName := make(map[string]profileView)
	for _, v := range views {
		byName[v.Name] = v
	}

	require.Contains(t, byName, "prod-east")
	assert.Equal(t, "config", byName["prod-east"].Source)
	assert.Equal(t, []string{"Down", "OutOfService"}, byName["prod-east"].Profile.Status)
	assert.Equal(t, "builtin", byName["unhealthy"].Source)
}

func TestProfiles_AppliedFromConfig(t *testing.T) {
	cfg := writeFile(t, ".depfilter.yaml", `profiles:
  prod-east:
    select:
      account: [prod]
      region: [us-east-1]
`)

	stdout, _, err := executeCommand("--config", cfg, "filter", poolFile(t), "--profile", "prod-east", "--format", "json")
	require.NoError(t, err)

	rep := decodeReport(t, stdout)
	require.Len(t, rep.Records, 1)
	assert.Equal(t, "api-v001", rep.Records[0]["name"])
}
