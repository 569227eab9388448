// Package export flattens pivot responses into spreadsheet-friendly files.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"dashquery/internal/domain"
)

// utf8BOM makes spreadsheet applications detect the encoding.
const utf8BOM = "\uFEFF"

// Row kinds written to the kind column.
const (
	RowKindGroup  = "группа"
	RowKindRecord = "запись"
	RowKindTotal  = "итого"
)

// CSVOptions configures CSV export behavior.
type CSVOptions struct {
	Delimiter     rune   `json:"delimiter"`      // Field delimiter (default: semicolon)
	UseCRLF       bool   `json:"use_crlf"`       // Use \r\n for line terminator
	IncludeHeader bool   `json:"include_header"` // Include column headers
	NullValue     string `json:"null_value"`     // String to use for null values
	TotalLabel    string `json:"total_label"`    // Label of the grand total row
	Indent        string `json:"indent"`         // Prefix repeated once per nesting level
}

// DefaultCSVOptions returns the export defaults.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		Delimiter:     ';',
		IncludeHeader: true,
		TotalLabel:    "Итого",
		Indent:        "    ",
	}
}

// WritePivotCSV flattens resp depth-first. Each row carries its grouping
// value indented by level, its measures, its level and whether it is a
// group, a leaf record or the grand total.
func WritePivotCSV(w io.Writer, resp *domain.PivotResponse, opts CSVOptions) error {
	if opts.Delimiter == 0 {
		opts.Delimiter = ';'
	}
	cw := &csvWriter{w: bufio.NewWriter(w), opts: opts}

	var groups, measures []domain.ColumnHeader
	for _, c := range resp.Columns {
		if c.Type == domain.ColumnGrouping {
			groups = append(groups, c)
		} else {
			measures = append(measures, c)
		}
	}

	cw.raw(utf8BOM)
	if opts.IncludeHeader {
		titles := make([]string, 0, len(groups))
		for _, g := range groups {
			titles = append(titles, g.Title)
		}
		header := []string{strings.Join(titles, " / ")}
		for _, m := range measures {
			header = append(header, m.Title)
		}
		cw.record(append(header, "Уровень", "Тип"))
	}

	var walk func(row domain.PivotRow)
	walk = func(row domain.PivotRow) {
		label := opts.TotalLabel
		kind := RowKindTotal
		if !row.IsTotal {
			label = strings.Repeat(opts.Indent, row.Level)
			if row.Level < len(groups) {
				label += cw.cell(row.Values[groups[row.Level].ID])
			}
			kind = RowKindRecord
			if len(row.Children) > 0 {
				kind = RowKindGroup
			}
		}
		rec := []string{label}
		for _, m := range measures {
			rec = append(rec, cw.cell(row.Values[m.ID]))
		}
		cw.record(append(rec, strconv.Itoa(row.Level), kind))
		for _, child := range row.Children {
			walk(child)
		}
	}
	for _, row := range resp.Rows {
		walk(row)
	}

	if cw.err != nil {
		return fmt.Errorf("write csv: %w", cw.err)
	}
	if err := cw.w.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// csvWriter quotes every field containing the delimiter, a semicolon, a
// comma, a quote or a line break. encoding/csv only quotes on its own
// delimiter, which breaks spreadsheet imports that guess the separator.
type csvWriter struct {
	w    *bufio.Writer
	opts CSVOptions
	err  error
}

func (c *csvWriter) cell(v domain.CellValue) string {
	if domain.IsNull(v) {
		return c.opts.NullValue
	}
	return domain.CellString(v)
}

func (c *csvWriter) raw(s string) {
	if c.err == nil {
		_, c.err = c.w.WriteString(s)
	}
}

func (c *csvWriter) record(fields []string) {
	for i, f := range fields {
		if i > 0 {
			c.raw(string(c.opts.Delimiter))
		}
		c.raw(c.quote(f))
	}
	if c.opts.UseCRLF {
		c.raw("\r\n")
	} else {
		c.raw("\n")
	}
}

func (c *csvWriter) quote(f string) string {
	if !strings.ContainsAny(f, ";,\"\r\n"+string(c.opts.Delimiter)) {
		return f
	}
	return `"` + strings.ReplaceAll(f, `"`, `""`) + `"`
}
