// Package cli implements the cobra command tree for depfilter.
package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/hupe1980/depfilter/internal/config"
	"github.com/hupe1980/depfilter/internal/logging"
)

// Process exit codes.
const (
	ExitFailure     = 1
	ExitUsage       = 2
	ExitLoadFailure = 3
	ExitPruned      = 4
)

// ExitError wraps an error with a specific process exit code.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}

	return fmt.Sprintf("exit code %d", e.Code)
}

func (e *ExitError) Unwrap() error { return e.Err }

// Execute builds the command tree, runs it, and returns the exit code.
func Execute() int {
	cmd := NewRootCommand()

	if err := cmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)

		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			return exitErr.Code
		}

		return ExitFailure
	}

	return 0
}

// NewRootCommand constructs the top-level cobra.Command with all
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "depfilter",
		Short: "Cascading dependent filters over lists of records",
		Long: `depfilter narrows a pool of records (server groups, instances, load
balancers or any YAML/JSON objects) by an ordered list of dependent fields.

Each field's headings are computed from the pool as narrowed by every field
before it. Selections that no longer match any heading are pruned, so a
downstream filter never hides everything because of a stale choice.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd, cfgFile)
			if err != nil {
				return &ExitError{Code: ExitUsage, Err: err}
			}

			logger := logging.SetupWithWriter(cfg.LoggingOptions(), cmd.ErrOrStderr())

			ctx := cmd.Context()
			ctx = config.NewContext(ctx, cfg)
			ctx = logging.NewContext(ctx, logger)
			cmd.SetContext(ctx)

			logger.Debug("configuration loaded",
				slog.String("configFile", cfg.ConfigFile),
				slog.Any("order", cfg.Order),
				slog.String("sort", cfg.Sort),
				slog.Int("profiles", len(cfg.Profiles)),
			)

			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .depfilter.yaml)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.Bool("no-color", false, "disable colored output")
	pf.BoolP("quiet", "q", false, "suppress non-essential output")
	pf.StringSlice("order", config.DefaultOrder, "dependency order of filter fields")
	pf.String("sort", "first-seen", "heading display order: first-seen, alpha, version")
	pf.StringSlice("search-fields", nil, "fields concatenated into the free-text search field")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitUsage, Err: err}
	})

	cmd.AddCommand(
		newHeadingsCommand(),
		newFilterCommand(),
		newGroupsCommand(),
		newTagsCommand(),
		newDiffCommand(),
		newWatchCommand(),
		newProfilesCommand(),
		newVersionCommand(),
		newCompletionCommand(),
	)

	registerValueCompletions(cmd)

	return cmd
}
