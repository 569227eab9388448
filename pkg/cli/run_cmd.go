package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"dashquery/internal/domain"
	"dashquery/internal/export"
)

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		file      string
		delimiter string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a dashboard and print the pivot",
		Example: `  dashq run -f dashboard.json
  dashq run -f dashboard.yaml -o csv > report.csv
  dashq run -f dashboard.json --db sales.duckdb --db-driver duckdb -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(delimiter) != 1 {
				return fmt.Errorf("--delimiter must be a single character, got %q", delimiter)
			}
			dash, err := readDashboard(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			a, err := opts.openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			resp, err := a.Dashboards.Execute(commandContext(cmd), dash)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch opts.output {
			case outputJSON:
				return printJSON(out, resp)
			case outputCSV:
				csvOpts := export.DefaultCSVOptions()
				csvOpts.Delimiter = rune(delimiter[0])
				return export.WritePivotCSV(out, resp, csvOpts)
			default:
				columns, rows := pivotTable(resp)
				return printTable(out, columns, rows)
			}
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Dashboard file (.json, .yaml) or - for stdin")
	cmd.Flags().StringVar(&delimiter, "delimiter", ";", "CSV delimiter for --output csv")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

// pivotTable flattens the pivot depth-first with the grouping value of each
// row indented by its level.
func pivotTable(resp *domain.PivotResponse) ([]string, [][]string) {
	var groups, measures []domain.ColumnHeader
	for _, c := range resp.Columns {
		if c.Type == domain.ColumnGrouping {
			groups = append(groups, c)
		} else {
			measures = append(measures, c)
		}
	}
	titles := make([]string, 0, len(groups))
	for _, g := range groups {
		titles = append(titles, g.Title)
	}
	columns := []string{strings.Join(titles, " / ")}
	for _, m := range measures {
		columns = append(columns, m.Title)
	}

	var rows [][]string
	var walk func(row domain.PivotRow)
	walk = func(row domain.PivotRow) {
		label := "Итого"
		if !row.IsTotal {
			label = strings.Repeat("  ", row.Level)
			if row.Level < len(groups) {
				label += domain.CellString(row.Values[groups[row.Level].ID])
			}
		}
		rec := []string{label}
		for _, m := range measures {
			rec = append(rec, domain.CellString(row.Values[m.ID]))
		}
		rows = append(rows, rec)
		for _, child := range row.Children {
			walk(child)
		}
	}
	for _, row := range resp.Rows {
		walk(row)
	}
	return columns, rows
}
