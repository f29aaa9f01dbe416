package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/hupe1980/depfilter/internal/config"
	"github.com/hupe1980/depfilter/internal/output"
)

type tagsOptions struct {
	run    runOptions
	params string
	clear  []string
}

func newTagsCommand() *cobra.Command {
	opts := &tagsOptions{}

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Print the filter tags for a set of selections",
		Long: `Build the filter model from query parameters, a selections file,
--select flags and --search, then print one tag per active filter along
with the equivalent query string.

The model fields come from the "fields" section of the config file; the
built-in server group fields are used when none are declared.`,
		Example: `  depfilter tags --params 'acct=prod,test&reg=us-east-1&q=api'
  depfilter tags --selections saved.yaml --clear region`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTags(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.params, "params", "", "query string to activate the model from")
	f.StringSliceVar(&opts.clear, "clear", nil, "remove the tags of these fields; \"all\" clears every filter")
	f.StringVar(&opts.run.selectionsFile, "selections", "", "selections file (YAML or JSON)")
	f.StringArrayVar(&opts.run.selects, "select", nil, "select values of a field (field=v1,v2); repeatable")
	f.StringVar(&opts.run.profile, "profile", "", "apply a named filter profile")
	f.StringVar(&opts.run.search, "search", "", "free-text search")
	f.StringVar(&opts.run.format, "format", "text", "output format: text, yaml, json")
	f.StringVarP(&opts.run.output, "output", "o", "", "output file path (default: stdout)")

	return cmd
}

func runTags(cmd *cobra.Command, opts *tagsOptions) error {
	cfg := config.FromContext(cmd.Context())
	model := cfg.Fields.Model()

	params, err := url.ParseQuery(opts.params)
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: fmt.Errorf("invalid --params: %w", err)}
	}

	model.Activate(params)

	profile, err := resolveProfile(cfg, opts.run.profile)
	if err != nil {
		return &ExitError{Code: ExitUsage, Err: err}
	}

	sel, err := buildSelections(&opts.run, profile)
	if err != nil {
		return err
	}

	for field, m := range sel {
		for v, on := range m {
			model.SortFilter.Set(field, v, on)
		}
	}

	search := opts.run.search
	if search == "" {
		search = profile.Search
	}

	if search != "" {
		model.Set("search", search)
	}

	for _, tag := range model.Tags() {
		if containsString(opts.clear, "all") || containsString(opts.clear, tag.Key) {
			tag.Clear()
		}
	}

	rep := (&output.Report{Params: model.Params().Encode()}).WithTags(model.Tags())

	return emit(cmd, &opts.run, rep)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}

	return false
}
