package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"dashquery/internal/domain"
)

func validateOutputFormat(output string) error {
	switch output {
	case outputTable, outputJSON, outputCSV:
		return nil
	}
	return fmt.Errorf("unsupported output format %q: use 'table', 'json' or 'csv'", output)
}

// defaultOutput is table on an interactive terminal and JSON otherwise.
func defaultOutput(w io.Writer) string {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // fd fits in int
		return outputTable
	}
	return outputJSON
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printTable(w io.Writer, columns []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(columns, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(tw, strings.Join(row, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// errorObject renders err for --output json, including the ids a caller
// needs to point at the offending field or condition.
func errorObject(err error) map[string]interface{} {
	obj := map[string]interface{}{"error": err.Error()}
	var invalid *domain.InvalidConfigError
	var condErr *domain.ConditionError
	switch {
	case errors.As(err, &condErr):
		obj["condition_id"] = condErr.ConditionID
		obj["field_ids"] = []string{condErr.FieldID}
	case errors.As(err, &invalid):
		obj["field_ids"] = invalid.FieldIDs
	}
	return obj
}
