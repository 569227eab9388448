package domain

// ColumnType is a rendering hint for response columns.
type ColumnType string

const (
	ColumnGrouping   ColumnType = "grouping"
	ColumnAggregated ColumnType = "aggregated"
)

// ColumnHeader describes one response column.
type ColumnHeader struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Type      ColumnType        `json:"type"`
	ValueType ValueType         `json:"value_type"`
	Function  AggregateFunction `json:"function,omitempty"`
}

// PivotRow is one node of the pivot tree. Groups carry their nesting level and
// are subtotals of their children; only the grand total has IsTotal set.
type PivotRow struct {
	Values   map[string]CellValue `json:"values"`
	Level    int                  `json:"level"`
	IsTotal  bool                 `json:"is_total"`
	Children []PivotRow           `json:"children"`
}

// PivotResponse is the result contract handed to rendering layers. The grand
// total is always the last element of Rows.
type PivotResponse struct {
	Columns []ColumnHeader `json:"columns"`
	Rows    []PivotRow     `json:"rows"`
}

// GrandTotal returns the trailing grand-total row.
func (r *PivotResponse) GrandTotal() *PivotRow {
	if len(r.Rows) == 0 {
		return nil
	}
	return &r.Rows[len(r.Rows)-1]
}

// Groups returns the top-level group rows without the grand total.
func (r *PivotResponse) Groups() []PivotRow {
	if len(r.Rows) == 0 {
		return nil
	}
	return r.Rows[:len(r.Rows)-1]
}
