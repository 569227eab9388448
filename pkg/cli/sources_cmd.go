package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newSourcesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sources [data-source-id]",
		Short: "List data sources, or show the fields of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			// Schemas only: no database is needed.
			reg, err := loadRegistry(cfg.SchemaDir)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				ds, err := reg.Resolve(args[0])
				if err != nil {
					return err
				}
				if opts.output == outputJSON {
					return printJSON(out, ds)
				}
				rows := make([][]string, 0, len(ds.Fields))
				for _, f := range ds.Fields {
					rows = append(rows, []string{
						f.ID, f.Title(), f.ValueType.CanonicalName(),
						strconv.FormatBool(f.CanGroup), strconv.FormatBool(f.CanAggregate),
					})
				}
				return printTable(out, []string{"FIELD", "NAME", "TYPE", "GROUP", "AGGREGATE"}, rows)
			}

			list := reg.List()
			if opts.output == outputJSON {
				return printJSON(out, list)
			}
			rows := make([][]string, 0, len(list))
			for _, ds := range list {
				rows = append(rows, []string{ds.ID, ds.DisplayName, ds.TableName(), fmt.Sprint(len(ds.Fields))})
			}
			return printTable(out, []string{"ID", "NAME", "TABLE", "FIELDS"}, rows)
		},
	}
}
