package cli

import (
	"github.com/spf13/cobra"
)

func newHeadingsCommand() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "headings <records-file>...",
		Short: "Show the headings of every dependent field",
		Long: `Load the records, apply the predicate filters and run the cascade.

For each field in dependency order, prints the headings that remain after
narrowing by every upstream field, which of them are selected, and which
stale selections were pruned. Use "-" to read records from stdin.`,
		Example: `  depfilter headings servergroups.yaml --select account=prod
  depfilter headings a.json b.json --order account,region,cluster --format yaml
  kubectl get deploy -o json | depfilter headings - --order metadata.namespace`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runPipeline(cmd.Context(), cmd, args, opts)
			if err != nil {
				return err
			}

			if err := emit(cmd, opts, res.Report); err != nil {
				return err
			}

			return checkPruned(opts, res.Report)
		},
	}

	registerRunFlags(cmd, opts)

	return cmd
}
