package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/depfilter/internal/logging"
	"github.com/hupe1980/depfilter/internal/record"
	"github.com/hupe1980/depfilter/internal/state"
	"github.com/hupe1980/depfilter/internal/watch"
)

type watchOptions struct {
	runOptions

	debounce time.Duration
}

func newWatchCommand() *cobra.Command {
	opts := &watchOptions{}

	cmd := &cobra.Command{
		Use:   "watch <records-file>...",
		Short: "Rerun the cascade whenever the inputs change",
		Long: `Watch the record files and the selections file, and rerun the
cascade after every change. File changes are debounced.

Each run prints a status line with the number of visible records, the
selections that were pruned and which headings appeared or disappeared
since the previous run. The report itself is written to --output, or to
stdout when no output file is given.`,
		Example: `  depfilter watch servergroups/ --selections saved.yaml -o headings.yaml --format yaml`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, args, opts)
		},
	}

	registerRunFlags(cmd, &opts.runOptions)
	cmd.Flags().DurationVar(&opts.debounce, "debounce", watch.DefaultOptions().Debounce, "debounce interval for file changes")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, paths []string, opts *watchOptions) error {
	for _, p := range paths {
		if p == "-" {
			return &ExitError{Code: ExitUsage, Err: errors.New("watch cannot read records from stdin")}
		}
	}

	initial, err := newSession(ctx, cmd, &opts.runOptions)
	if err != nil {
		return err
	}

	store, err := initial.newStore([]*record.Record{})
	if err != nil {
		return err
	}
	defer store.Close()

	runFn := func(fnCtx context.Context) (*watch.RunResult, error) {
		return watchRun(fnCtx, cmd, paths, opts, store)
	}

	watchOpts := watch.Options{
		Paths:    watchPaths(paths, opts.selectionsFile),
		Debounce: opts.debounce,
		Logger:   logging.FromContext(ctx),
		Out:      cmd.ErrOrStderr(),
	}

	return watch.Run(ctx, watchOpts, runFn)
}

// watchRun reloads every input into the long-lived store and emits the
// resulting report.
func watchRun(ctx context.Context, cmd *cobra.Command, paths []string, opts *watchOptions, store *state.Store) (*watch.RunResult, error) {
	s, err := newSession(ctx, cmd, &opts.runOptions)
	if err != nil {
		return nil, err
	}

	pool, err := s.load(ctx, paths)
	if err != nil {
		return nil, err
	}

	store.SetPool(pool)
	store.SetFilters(s.chain)
	store.SetSelections(s.selections)

	res, err := s.recompute(ctx, store, len(pool))
	if err != nil {
		return nil, err
	}

	if err := emit(cmd, &opts.runOptions, res.Report); err != nil {
		return nil, err
	}

	return &watch.RunResult{
		Total:    len(pool),
		Visible:  res.Report.Visible,
		Pruned:   res.Update.Result.Pruned,
		Headings: res.Update.Result.Headings,
	}, nil
}

// watchPaths lists the record inputs plus any non-empty extra file.
func watchPaths(paths []string, extra ...string) []string {
	out := append([]string(nil), paths...)

	for _, p := range extra {
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
