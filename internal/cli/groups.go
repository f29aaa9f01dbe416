package cli

import (
	"github.com/spf13/cobra"

	"github.com/hupe1980/depfilter/internal/group"
)

func newGroupsCommand() *cobra.Command {
	opts := &runOptions{}

	var levels []string

	cmd := &cobra.Command{
		Use:   "groups <records-file>...",
		Short: "Group the surviving records into a tree",
		Long: `Run the cascade and group the narrowed pool level by level. Sibling
groups are sorted by heading; records missing a level's field are grouped
under (none).`,
		Example: `  depfilter groups servergroups.yaml
  depfilter groups servergroups.yaml --levels account,region --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runPipeline(cmd.Context(), cmd, args, opts)
			if err != nil {
				return err
			}

			rep := res.Report.WithGroups(group.Build(res.Update.Result.Pool, levels))

			if err := emit(cmd, opts, rep); err != nil {
				return err
			}

			return checkPruned(opts, rep)
		},
	}

	registerRunFlags(cmd, opts)
	cmd.Flags().StringSliceVar(&levels, "levels", group.DefaultLevels, "grouping levels, outermost first")

	return cmd
}
