package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/depfilter/internal/cascade"
	"github.com/hupe1980/depfilter/internal/filter"
	"github.com/hupe1980/depfilter/internal/output"
)

func newCompletionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion <shell>",
		Short: "Generate shell completion scripts",
		Long: `Generate a shell completion script for depfilter.

Besides subcommands and flags, the scripts complete the values of
--format, --sort, --status and --profile (built-in profile names).

  $ source <(depfilter completion bash)
  $ depfilter completion zsh > "${fpath[1]}/_depfilter"
  $ depfilter completion fish > ~/.config/fish/completions/depfilter.fish
  PS> depfilter completion powershell | Out-String | Invoke-Expression`,
		// Completion needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Args:              cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs:         []string{"bash", "zsh", "fish", "powershell"},
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			root := cmd.Root()

			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(w, true)
			case "zsh":
				return root.GenZshCompletion(w)
			case "fish":
				return root.GenFishCompletion(w, true)
			default:
				return root.GenPowerShellCompletionWithDesc(w)
			}
		},
	}

	return cmd
}

// flagValues lists the fixed values offered for shared flags.
func flagValues() map[string][]string {
	return map[string][]string{
		"format": output.DefaultRegistry().Formats(),
		"sort":   {string(cascade.SortFirstSeen), string(cascade.SortAlpha), string(cascade.SortVersion)},
		"status": {
			filter.StatusUp, filter.StatusDown, filter.StatusOutOfService,
			filter.StatusStarting, filter.StatusDisabled,
		},
		"profile": filter.BuiltinProfileNames(),
	}
}

// registerValueCompletions attaches value completions to every command in
// the tree that defines one of the shared flags.
func registerValueCompletions(root *cobra.Command) {
	values := flagValues()

	var walk func(c *cobra.Command)

	walk = func(c *cobra.Command) {
		for name, vs := range values {
			if c.Flags().Lookup(name) == nil && c.PersistentFlags().Lookup(name) == nil {
				continue
			}

			_ = c.RegisterFlagCompletionFunc(name, cobra.FixedCompletions(vs, cobra.ShellCompDirectiveNoFileComp))
		}

		for _, sub := range c.Commands() {
			walk(sub)
		}
	}

	walk(root)
}
