package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/depfilter/internal/config"
	"github.com/hupe1980/depfilter/internal/diff"
)

type diffOptions struct {
	runOptions

	against  string
	exitCode bool
}

func newDiffCommand() *cobra.Command {
	opts := &diffOptions{}

	cmd := &cobra.Command{
		Use:   "diff <records-file>...",
		Short: "Compare the outcome of two selection sets",
		Long: `Run the cascade over the same pool twice, once with --selections and
once with --against, and print a unified diff of the two reports.

Every other flag (--select, --profile, predicate filters) applies to both
runs.

Exit codes:
  0  No differences (or differences without --exit-code)
  1  Error, or differences with --exit-code
  2  Invalid arguments
  3  Input could not be loaded`,
		Example: `  depfilter diff servergroups.yaml --selections before.yaml --against after.yaml`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiff(cmd.Context(), cmd, args, opts)
		},
	}

	registerSelectionFlags(cmd, &opts.runOptions)
	registerFilterFlags(cmd, &opts.runOptions)

	f := cmd.Flags()
	f.StringVar(&opts.against, "against", "", "selections file to compare against (required)")
	f.BoolVar(&opts.exitCode, "exit-code", false, "exit with code 1 when the reports differ")

	return cmd
}

func runDiff(ctx context.Context, cmd *cobra.Command, paths []string, opts *diffOptions) error {
	if opts.against == "" {
		return &ExitError{Code: ExitUsage, Err: errors.New("--against flag is required: specify the selections file to compare against")}
	}

	base, err := newSession(ctx, cmd, &opts.runOptions)
	if err != nil {
		return err
	}

	otherOpts := opts.runOptions
	otherOpts.selectionsFile = opts.against
	otherOpts.writeSelections = ""

	other, err := newSession(ctx, cmd, &otherOpts)
	if err != nil {
		return err
	}

	pool, err := base.load(ctx, paths)
	if err != nil {
		return err
	}

	before, err := base.reduce(ctx, pool)
	if err != nil {
		return err
	}

	after, err := other.reduce(ctx, pool)
	if err != nil {
		return err
	}

	diffOpts := diff.DefaultOptions()
	diffOpts.OldLabel = labelOr(opts.selectionsFile, "(no selections)")
	diffOpts.NewLabel = opts.against

	res, err := diff.Reports(before.Report, after.Report, diffOpts)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("computing diff: %w", err)}
	}

	cfg := config.FromContext(ctx)
	w := cmd.OutOrStdout()
	diff.Write(w, res, useColor(cfg, w))

	if opts.exitCode && res.HasDifferences() {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("reports differ: %d addition(s), %d removal(s)", res.Added, res.Removed)}
	}

	return nil
}

func labelOr(s, fallback string) string {
	if s == "" {
		return fallback
	}

	return s
}
