package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/depfilter/internal/cascade"
	"github.com/hupe1980/depfilter/internal/config"
	"github.com/hupe1980/depfilter/internal/filter"
	"github.com/hupe1980/depfilter/internal/logging"
	"github.com/hupe1980/depfilter/internal/output"
	"github.com/hupe1980/depfilter/internal/record"
	"github.com/hupe1980/depfilter/internal/selection"
	"github.com/hupe1980/depfilter/internal/state"
)

// session holds everything resolved from flags and config before the pool
// is loaded: the dependency order, the selections and the predicate chain.
type session struct {
	cfg        *config.Config
	logger     *slog.Logger
	opts       *runOptions
	order      []string
	selections selection.Selections
	chain      *filter.Chain
	stdin      io.Reader
}

// pipelineResult holds the outputs of one cascade run.
type pipelineResult struct {
	Pool   []*record.Record
	Update *state.Update
	Report *output.Report
}

// newSession resolves the profile, selections and filters.
func newSession(ctx context.Context, cmd *cobra.Command, opts *runOptions) (*session, error) {
	cfg := config.FromContext(ctx)

	s := &session{
		cfg:    cfg,
		logger: logging.FromContext(ctx),
		opts:   opts,
		order:  cfg.Order,
		stdin:  cmd.InOrStdin(),
	}

	profile, err := resolveProfile(cfg, opts.profile)
	if err != nil {
		return nil, &ExitError{Code: ExitUsage, Err: err}
	}

	if len(profile.Order) > 0 {
		s.order = profile.Order
	}

	if s.selections, err = buildSelections(opts, profile); err != nil {
		return nil, err
	}

	if s.chain, err = buildChain(cmd, opts, profile, cfg.SearchFields); err != nil {
		return nil, &ExitError{Code: ExitUsage, Err: err}
	}

	s.logger.Debug("session resolved",
		slog.Any("order", s.order),
		slog.Any("fields", s.selections.Fields()),
		slog.Int("filters", s.chain.Len()),
	)

	return s, nil
}

// resolveProfile returns the named profile, or an empty one.
func resolveProfile(cfg *config.Config, name string) (filter.Profile, error) {
	if name == "" {
		return filter.Profile{}, nil
	}

	return filter.ResolveProfile(name, cfg.Profiles)
}

// buildSelections layers, in order: the selections file, the profile's
// selections and every --select flag.
func buildSelections(opts *runOptions, profile filter.Profile) (selection.Selections, error) {
	sel := make(selection.Selections)

	if opts.selectionsFile != "" {
		loaded, err := selection.LoadFile(opts.selectionsFile)
		if err != nil {
			return nil, &ExitError{Code: ExitLoadFailure, Err: err}
		}

		sel = loaded
	}

	for field, m := range profile.Selections() {
		for v, on := range m {
			sel.Set(field, v, on)
		}
	}

	for _, expr := range opts.selects {
		field, m, ok := selection.ParseAssignment(expr)
		if !ok {
			return nil, &ExitError{Code: ExitUsage, Err: fmt.Errorf("invalid --select %q: expected field=value[,value...]", expr)}
		}

		for v, on := range m {
			sel.Set(field, v, on)
		}
	}

	return sel, nil
}

// buildChain turns the profile and the filter flags into a predicate chain.
// The flags are validated like a profile.
func buildChain(cmd *cobra.Command, opts *runOptions, profile filter.Profile, searchFields []string) (*filter.Chain, error) {
	flags := filter.Profile{
		Search: opts.search,
		Labels: opts.labels,
		Status: opts.status,
	}

	if cmd.Flags().Changed("min-instances") {
		flags.MinInstances = &opts.minInstances
	}

	if cmd.Flags().Changed("max-instances") {
		flags.MaxInstances = &opts.maxInstances
	}

	if err := filter.ValidateProfile(flags); err != nil {
		return nil, fmt.Errorf("invalid filter flags: %w", err)
	}

	fromProfile, err := profile.Filters(searchFields)
	if err != nil {
		return nil, err
	}

	fromFlags, err := flags.Filters(searchFields)
	if err != nil {
		return nil, err
	}

	return filter.NewChain(append(fromProfile, fromFlags...)...), nil
}

// load reads the pool from paths; "-" reads stdin.
func (s *session) load(ctx context.Context, paths []string) ([]*record.Record, error) {
	loader := record.NewLoader(
		record.WithStdin(s.stdin),
		record.WithLogger(s.logger),
	)

	pool, err := loader.Load(ctx, paths...)
	if err != nil {
		return nil, &ExitError{Code: ExitLoadFailure, Err: err}
	}

	return pool, nil
}

// newStore creates the filter state for pool.
func (s *session) newStore(pool []*record.Record) (*state.Store, error) {
	store, err := state.New(pool, s.order,
		state.WithFilters(s.chain),
		state.WithSelections(s.selections),
		state.WithLogger(s.logger),
		state.WithDebounce(s.cfg.Debounce),
	)
	if err != nil {
		return nil, classify(err)
	}

	return store, nil
}

// recompute runs the store and builds the report.
func (s *session) recompute(ctx context.Context, store *state.Store, total int) (*pipelineResult, error) {
	u, err := store.Recompute(ctx)
	if err != nil {
		return nil, classify(err)
	}

	for field, values := range u.Result.Pruned {
		s.logger.Warn("pruned stale selections", slog.String("field", field), slog.Any("values", values))
	}

	if s.opts.writeSelections != "" {
		if err := selection.SaveFile(s.opts.writeSelections, u.Result.Selections); err != nil {
			return nil, &ExitError{Code: ExitFailure, Err: err}
		}
	}

	return &pipelineResult{
		Update: u,
		Report: output.NewReport(total, u.Filtered, u.Result, s.cfg.SortMode()),
	}, nil
}

// runPipeline loads the pool, applies the filters and runs the cascade once.
func runPipeline(ctx context.Context, cmd *cobra.Command, paths []string, opts *runOptions) (*pipelineResult, error) {
	s, err := newSession(ctx, cmd, opts)
	if err != nil {
		return nil, err
	}

	pool, err := s.load(ctx, paths)
	if err != nil {
		return nil, err
	}

	return s.reduce(ctx, pool)
}

// reduce runs a throwaway store over pool.
func (s *session) reduce(ctx context.Context, pool []*record.Record) (*pipelineResult, error) {
	store, err := s.newStore(pool)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	res, err := s.recompute(ctx, store, len(pool))
	if err != nil {
		return nil, err
	}

	res.Pool = pool

	return res, nil
}

// classify maps cascade argument errors to the usage exit code.
func classify(err error) error {
	if errors.Is(err, cascade.ErrInvalidArgument) {
		return &ExitError{Code: ExitUsage, Err: err}
	}

	return &ExitError{Code: ExitFailure, Err: err}
}

// emit renders rep in the requested format to stdout or --output.
func emit(cmd *cobra.Command, opts *runOptions, rep *output.Report) error {
	cfg := config.FromContext(cmd.Context())

	if opts.format == output.FormatText && opts.output == "" {
		return output.RenderText(cmd.OutOrStdout(), rep, output.TextOptions{
			Color: useColor(cfg, cmd.OutOrStdout()),
		})
	}

	formatter, err := output.DefaultRegistry().Formatter(opts.format)
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}

	data, err := formatter(rep)
	if err != nil {
		return err
	}

	w := output.NewWriter(opts.output, cmd.OutOrStdout(), output.WithLogger(logging.FromContext(cmd.Context())))
	if err := w.Write(data); err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	return nil
}

// checkPruned returns ExitPruned when --fail-on-prune is set and the run
// dropped selections.
func checkPruned(opts *runOptions, rep *output.Report) error {
	if !opts.failOnPrune || !rep.PrunedAny() {
		return nil
	}

	return &ExitError{Code: ExitPruned, Err: errors.New("stale selections were pruned")}
}

// useColor reports whether w is a terminal and color is not disabled.
func useColor(cfg *config.Config, w io.Writer) bool {
	if cfg.NoColor {
		return false
	}

	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	info, err := f.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}
