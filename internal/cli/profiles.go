package cli

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hupe1980/depfilter/internal/config"
	"github.com/hupe1980/depfilter/internal/filter"
	"github.com/hupe1980/depfilter/internal/output"
)

// profileView is one row of the profiles listing.
type profileView struct {
	Name    string         `json:"name"`
	Source  string         `json:"source"`
	Profile filter.Profile `json:"profile"`
}

func newProfilesCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "List the built-in and configured filter profiles",
		Long: `List every profile usable with --profile. Profiles from the config file
shadow built-in profiles of the same name; "extends" chains are shown
resolved.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.FromContext(cmd.Context())

			views, err := listProfiles(cfg.Profiles)
			if err != nil {
				return &ExitError{Code: ExitUsage, Err: err}
			}

			w := cmd.OutOrStdout()

			switch format {
			case output.FormatYAML:
				data, err := output.SerializeYAML(views)
				if err != nil {
					return err
				}

				_, err = w.Write(data)

				return err
			case output.FormatJSON:
				data, err := output.SerializeJSON(views, "  ")
				if err != nil {
					return err
				}

				_, err = w.Write(data)

				return err
			case output.FormatText:
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "NAME\tSOURCE\tDESCRIPTION")

				for _, v := range views {
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", v.Name, v.Source, v.Profile.Description)
				}

				return tw.Flush()
			default:
				return &ExitError{Code: ExitUsage, Err: fmt.Errorf("unknown output format %q (available: %s)", format,
					strings.Join([]string{output.FormatJSON, output.FormatText, output.FormatYAML}, ", "))}
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", output.FormatText, "output format: text, yaml, json")

	return cmd
}

// listProfiles resolves every profile, sorted by name.
func listProfiles(custom map[string]filter.Profile) ([]profileView, error) {
	sources := make(map[string]string)

	for _, name := range filter.BuiltinProfileNames() {
		sources[name] = "builtin"
	}

	for name := range custom {
		sources[name] = "config"
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}

	sort.Strings(names)

	views := make([]profileView, 0, len(names))

	for _, name := range names {
		p, err := filter.ResolveProfile(name, custom)
		if err != nil {
			return nil, err
		}

		views = append(views, profileView{Name: name, Source: sources[name], Profile: p})
	}

	return views, nil
}
