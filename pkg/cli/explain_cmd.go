package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dashquery/internal/service/dashboard"
)

func newExplainCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Print the SQL a dashboard compiles to",
		Example: `  dashq explain -f dashboard.json
  cat dashboard.yaml | dashq explain -f - -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dash, err := readDashboard(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			cfg, err := opts.loadConfig(cmd.Flags())
			if err != nil {
				return err
			}
			reg, err := loadRegistry(cfg.SchemaDir)
			if err != nil {
				return err
			}
			ds, err := reg.Resolve(dash.DataSourceID)
			if err != nil {
				return err
			}
			plan, err := dashboard.BuildQuery(ds, dash, now())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.output == outputJSON {
				return printJSON(out, plan)
			}
			if _, err := fmt.Fprintln(out, plan.SQL); err != nil {
				return err
			}
			params := make([]string, 0, len(plan.Params))
			for _, p := range plan.Params {
				params = append(params, fmt.Sprintf("%v", p))
			}
			_, err = fmt.Fprintf(out, "-- params: [%s]\n", strings.Join(params, ", "))
			for _, c := range plan.AppliedConditions {
				if err != nil {
					break
				}
				_, err = fmt.Fprintf(out, "-- %s: %s\n", c.ConditionID, c.DisplayText)
			}
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Dashboard file (.json, .yaml) or - for stdin")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
