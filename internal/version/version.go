// Package version provides build-time metadata for the depfilter binary.
// Values are injected at compile time via -ldflags; binaries installed with
// "go install" fall back to the module build info.
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"sigs.k8s.io/yaml"
)

// Name is the binary name.
const Name = "depfilter"

// Build-time values injected via -ldflags.
var (
	version   = "dev"
	gitCommit = "none"
	buildDate = "unknown"
)

// readBuildInfo is swapped in tests.
var readBuildInfo = debug.ReadBuildInfo

// Info holds the build metadata for the binary.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
}

// GetInfo returns the current build information.
func GetInfo() Info {
	info := Info{
		Version:   version,
		GitCommit: gitCommit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}

	if info.Version == "dev" {
		fillFromBuildInfo(&info)
	}

	info.GitCommit = shortCommit(info.GitCommit)

	return info
}

func fillFromBuildInfo(info *Info) {
	bi, ok := readBuildInfo()
	if !ok {
		return
	}

	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "none" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildDate == "unknown" {
				info.BuildDate = s.Value
			}
		}
	}
}

// String returns a human-readable single-line version string.
func (i Info) String() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, %s %s)",
		Name, i.Version, i.GitCommit, i.BuildDate, i.GoVersion, i.Platform)
}

// JSON returns the version info as indented JSON.
func (i Info) JSON() (string, error) {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling version info: %w", err)
	}

	return string(data), nil
}

// YAML returns the version info as YAML.
func (i Info) YAML() (string, error) {
	data, err := yaml.Marshal(i)
	if err != nil {
		return "", fmt.Errorf("marshaling version info: %w", err)
	}

	return string(data), nil
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}

	return commit
}
