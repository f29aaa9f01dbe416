package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/depfilter/internal/version"
)

func newVersionCommand() *cobra.Command {
	var (
		jsonOutput bool
		yamlOutput bool
	)

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Display the version, git commit, build date, Go version, and platform.",
		Args:  cobra.NoArgs,
		// Override parent PersistentPreRunE; version needs no config.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := version.GetInfo()
			w := cmd.OutOrStdout()

			switch {
			case jsonOutput:
				j, err := info.JSON()
				if err != nil {
					return err
				}

				_, err = fmt.Fprintln(w, j)

				return err
			case yamlOutput:
				y, err := info.YAML()
				if err != nil {
					return err
				}

				_, err = fmt.Fprint(w, y)

				return err
			}

			_, err := fmt.Fprintln(w, info.String())

			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output version info as JSON")
	cmd.Flags().BoolVar(&yamlOutput, "yaml", false, "output version info as YAML")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")

	return cmd
}
