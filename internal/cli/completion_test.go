package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionCommand_Shells(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			stdout, _, err := executeCommand("completion", shell)
			require.NoError(t, err)
			assert.Contains(t, stdout, "depfilter")
		})
	}
}

func TestCompletionCommand_UnknownShell(t *testing.T) {
	_, _, err := executeCommand("completion", "tcsh")
	require.Error(t, err)
}

func TestCompletion_FlagValues(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"__complete", "headings", "pool.yaml", "--format", ""}, []string{"json", "text", "yaml"}},
		{[]string{"__complete", "filter", "pool.yaml", "--status", ""}, []string{"Up", "Down", "OutOfService"}},
		{[]string{"__complete", "groups", "pool.yaml", "--profile", ""}, []string{"disabled", "empty", "unhealthy"}},
		{[]string{"__complete", "--sort", ""}, []string{"first-seen", "alpha", "version"}},
	}

	for _, tt := range tests {
		t.Run(tt.args[len(tt.args)-2], func(t *testing.T) {
			stdout, _, err := executeCommand(tt.args...)
			require.NoError(t, err)

			for _, v := range tt.want {
				assert.Contains(t, stdout, v+"\n")
			}
		})
	}
}
