package version

import (
	"encoding/json"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withBuildInfo(t *testing.T, bi *debug.BuildInfo, ok bool) {
	t.Helper()

	orig := readBuildInfo
	readBuildInfo = func() (*debug.BuildInfo, bool) { return bi, ok }

	t.Cleanup(func() { readBuildInfo = orig })
}

func TestGetInfo(t *testing.T) {
	withBuildInfo(t, nil, false)

	info := GetInfo()

	assert.Equal(t, "dev", info.Version)
	assert.Equal(t, "none", info.GitCommit)
	assert.Equal(t, "unknown", info.BuildDate)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestGetInfo_FromBuildInfo(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{
		Main: debug.Module{Version: "v1.4.0"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "0123456789abcdef"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	}, true)

	info := GetInfo()

	assert.Equal(t, "v1.4.0", info.Version)
	assert.Equal(t, "0123456", info.GitCommit)
	assert.Equal(t, "2026-01-02T03:04:05Z", info.BuildDate)
}

func TestGetInfo_DevelBuildKeepsDev(t *testing.T) {
	withBuildInfo(t, &debug.BuildInfo{Main: debug.Module{Version: "(devel)"}}, true)

	assert.Equal(t, "dev", GetInfo().Version)
}

func TestInfoString(t *testing.T) {
	info := GetInfo()
	s := info.String()

	assert.Contains(t, s, "depfilter")
	assert.Contains(t, s, info.Version)
	assert.Contains(t, s, info.GoVersion)
	assert.Contains(t, s, info.Platform)
}

func TestInfoJSON(t *testing.T) {
	info := Info{Version: "v1.0.0", GitCommit: "abc1234", BuildDate: "2026-01-01", GoVersion: "go1.25", Platform: "linux/amd64"}

	s, err := info.JSON()
	require.NoError(t, err)

	var got Info
	require.NoError(t, json.Unmarshal([]byte(s), &got))
	assert.Equal(t, info, got)
}

func TestInfoYAML(t *testing.T) {
	info := Info{Version: "v1.0.0", GitCommit: "abc1234"}

	s, err := info.YAML()
	require.NoError(t, err)
	assert.Contains(t, s, "version: v1.0.0")
	assert.Contains(t, s, "gitCommit: abc1234")
}

func TestShortCommit(t *testing.T) {
	assert.Equal(t, "abc1234", shortCommit("abc1234567890"))
	assert.Equal(t, "abc", shortCommit("abc"))
	assert.Equal(t, "", shortCommit(""))
}
