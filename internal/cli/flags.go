package cli

import (
	"github.com/spf13/cobra"
)

// runOptions holds the flags shared by every command that runs the cascade.
type runOptions struct {
	// Selections.
	selectionsFile  string
	selects         []string
	profile         string
	writeSelections string

	// Predicate filters.
	search       string
	minInstances int
	maxInstances int
	labels       string
	status       []string

	// Output.
	format      string
	output      string
	failOnPrune bool
}

// registerSelectionFlags adds the flags that build the selection state.
func registerSelectionFlags(cmd *cobra.Command, opts *runOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.selectionsFile, "selections", "", "selections file (YAML or JSON)")
	f.StringArrayVar(&opts.selects, "select", nil, "select values of a field (field=v1,v2); repeatable")
	f.StringVar(&opts.profile, "profile", "", "apply a named filter profile")
	f.StringVar(&opts.writeSelections, "write-selections", "", "write the pruned selections to this file")
}

// registerFilterFlags adds the predicate filter flags.
func registerFilterFlags(cmd *cobra.Command, opts *runOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.search, "search", "", "free-text search (supports clusters:, cluster:, vpc:, tag:, detail:, labels: prefixes)")
	f.IntVar(&opts.minInstances, "min-instances", 0, "minimum instance count")
	f.IntVar(&opts.maxInstances, "max-instances", 0, "maximum instance count")
	f.StringVar(&opts.labels, "labels", "", "label selector (e.g. app=api,tier!=cache)")
	f.StringSliceVar(&opts.status, "status", nil, "health status: Up, Down, OutOfService, Starting, Disabled")
}

// registerOutputFlags adds the output flags.
func registerOutputFlags(cmd *cobra.Command, opts *runOptions) {
	f := cmd.Flags()
	f.StringVar(&opts.format, "format", "text", "output format: text, yaml, json")
	f.StringVarP(&opts.output, "output", "o", "", "output file path (default: stdout)")
	f.BoolVar(&opts.failOnPrune, "fail-on-prune", false, "exit with code 4 when stale selections were pruned")
}

// registerRunFlags registers every shared flag on a cobra command.
func registerRunFlags(cmd *cobra.Command, opts *runOptions) {
	registerSelectionFlags(cmd, opts)
	registerFilterFlags(cmd, opts)
	registerOutputFlags(cmd, opts)
}
