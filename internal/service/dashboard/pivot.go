package dashboard

import (
	"fmt"

	"dashquery/internal/domain"
)

// accumulator rolls one measure up from leaf rows into an ancestor.
type accumulator struct {
	intSum   int64
	floatSum float64
	count    int64
	best     domain.CellValue
}

func (a *accumulator) add(m measureColumn, cells []domain.CellValue, idx int) error {
	switch m.fn {
	case domain.AggSum, domain.AggCount:
		switch v := cells[idx].(type) {
		case domain.IntegerCell:
			sum := a.intSum + int64(v)
			if (v > 0 && sum < a.intSum) || (v < 0 && sum > a.intSum) {
				return fmt.Errorf("column %s: integer rollup overflows int64", m.id)
			}
			a.intSum = sum
			a.floatSum += float64(v)
		case domain.NumberCell:
			a.floatSum += float64(v)
		}
	case domain.AggAvg:
		if f, ok := domain.CellFloat(cells[m.sumIdx]); ok {
			a.floatSum += f
		}
		if n, ok := cells[m.countIdx].(domain.IntegerCell); ok {
			a.count += int64(n)
		}
	case domain.AggMin, domain.AggMax:
		c := cells[idx]
		f, ok := domain.CellFloat(c)
		if !ok {
			return nil
		}
		if a.best == nil {
			a.best = c
			return nil
		}
		cur, _ := domain.CellFloat(a.best)
		if (m.fn == domain.AggMin && f < cur) || (m.fn == domain.AggMax && f > cur) {
			a.best = c
		}
	}
	return nil
}

func (a *accumulator) result(m measureColumn) domain.CellValue {
	switch m.fn {
	case domain.AggSum:
		if m.valueType.Kind() == domain.KindInteger {
			return domain.IntegerCell(a.intSum)
		}
		return domain.NumberCell(a.floatSum)
	case domain.AggCount:
		return domain.IntegerCell(a.intSum)
	case domain.AggAvg:
		if a.count == 0 {
			return domain.NullCell{}
		}
		return domain.NumberCell(a.floatSum / float64(a.count))
	default:
		if a.best == nil {
			return domain.NullCell{}
		}
		return a.best
	}
}

// openGroup is a group whose rows are still arriving.
type openGroup struct {
	row  domain.PivotRow
	key  domain.CellValue
	accs []accumulator
}

type assembler struct {
	plan  *QueryPlan
	open  []*openGroup
	top   []domain.PivotRow
	total []accumulator
}

// AssemblePivot consumes rows in a single pass and builds the pivot tree.
// Rows must arrive ordered by every grouping column, which BuildQuery
// guarantees. The grand total is appended after the top-level groups.
func AssemblePivot(plan *QueryPlan, rows RowSource) (*domain.PivotResponse, error) {
	a := &assembler{
		plan:  plan,
		total: make([]accumulator, len(plan.measures)),
	}
	if n := len(plan.groups); n > 1 {
		a.open = make([]*openGroup, n-1)
	}

	for rows.Next() {
		cells, err := plan.scanRow(rows)
		if err != nil {
			return nil, err
		}
		if err := a.push(cells); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	a.closeFrom(0)

	grand := domain.PivotRow{
		Values:   make(map[string]domain.CellValue, len(plan.measures)),
		Level:    0,
		IsTotal:  true,
		Children: []domain.PivotRow{},
	}
	for j, m := range plan.measures {
		grand.Values[m.id] = a.total[j].result(m)
	}

	out := &domain.PivotResponse{
		Columns: plan.Columns,
		Rows:    make([]domain.PivotRow, 0, len(a.top)+1),
	}
	out.Rows = append(out.Rows, a.top...)
	out.Rows = append(out.Rows, grand)
	return out, nil
}

// push places one SQL row as a leaf and rolls it into every open ancestor
// and the grand total.
func (a *assembler) push(cells []domain.CellValue) error {
	p := a.plan
	base := len(p.groups)
	for j, m := range p.measures {
		if err := a.total[j].add(m, cells, base+j); err != nil {
			return err
		}
	}
	if len(p.groups) == 0 {
		return nil
	}

	// First ancestor level whose key differs from this row.
	mismatch := len(a.open)
	for level, g := range a.open {
		if g == nil || g.key != cells[level] {
			mismatch = level
			break
		}
	}
	a.closeFrom(mismatch)
	for level := mismatch; level < len(a.open); level++ {
		a.open[level] = a.newGroup(level, cells)
	}

	leaf := a.newGroup(len(p.groups)-1, cells).row
	for j, m := range p.measures {
		leaf.Values[m.id] = cells[base+j]
	}
	for _, g := range a.open {
		for j, m := range p.measures {
			if err := g.accs[j].add(m, cells, base+j); err != nil {
				return err
			}
		}
	}
	a.attach(len(p.groups)-1, leaf)
	return nil
}

// newGroup opens a group at level keyed by the row's grouping values up to
// and including that level.
func (a *assembler) newGroup(level int, cells []domain.CellValue) *openGroup {
	values := make(map[string]domain.CellValue, level+1+len(a.plan.measures))
	for i := 0; i <= level; i++ {
		values[a.plan.groups[i].id] = cells[i]
	}
	return &openGroup{
		row: domain.PivotRow{
			Values:   values,
			Level:    level,
			Children: []domain.PivotRow{},
		},
		key:  cells[level],
		accs: make([]accumulator, len(a.plan.measures)),
	}
}

// closeFrom finalizes open groups at level and deeper, deepest first.
func (a *assembler) closeFrom(level int) {
	for l := len(a.open) - 1; l >= level; l-- {
		g := a.open[l]
		if g == nil {
			continue
		}
		for j, m := range a.plan.measures {
			g.row.Values[m.id] = g.accs[j].result(m)
		}
		a.open[l] = nil
		a.attach(l, g.row)
	}
}

func (a *assembler) attach(level int, row domain.PivotRow) {
	if level == 0 {
		a.top = append(a.top, row)
		return
	}
	parent := a.open[level-1]
	parent.row.Children = append(parent.row.Children, row)
}
