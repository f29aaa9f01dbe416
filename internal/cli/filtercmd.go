package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/depfilter/internal/group"
)

func newFilterCommand() *cobra.Command {
	opts := &runOptions{}

	var groupBy []string

	cmd := &cobra.Command{
		Use:   "filter <records-file>...",
		Short: "Print the records that survive every filter",
		Long: `Load the records, apply the predicate filters and run the cascade, then
print the narrowed pool. With --group-by the records are printed as a
nested grouping instead of a flat list.`,
		Example: `  depfilter filter servergroups.yaml --select account=prod --select region=us-east-1
  depfilter filter servergroups.yaml --profile unhealthy --group-by account,cluster`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runPipeline(cmd.Context(), cmd, args, opts)
			if err != nil {
				return err
			}

			rep := res.Report
			if len(groupBy) > 0 {
				rep = rep.WithGroups(group.Build(res.Update.Result.Pool, groupBy))
			} else {
				rep = rep.WithRecords(res.Update.Result)
			}

			if err := emit(cmd, opts, rep); err != nil {
				return err
			}

			return checkPruned(opts, rep)
		},
	}

	registerRunFlags(cmd, opts)
	cmd.Flags().StringSliceVar(&groupBy, "group-by", nil, "group the surviving records by these fields")

	return cmd
}
