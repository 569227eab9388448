package dashboard

import (
	"encoding/json"
	"errors"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashquery/internal/domain"
	"dashquery/internal/schema"
)

type sliceRows struct {
	rows [][]interface{}
	pos  int
	err  error
}

func (s *sliceRows) Next() bool {
	if s.pos >= len(s.rows) {
		return false
	}
	s.pos++
	return true
}

func (s *sliceRows) Scan(dest ...interface{}) error {
	row := s.rows[s.pos-1]
	if len(dest) != len(row) {
		return errors.New("column count mismatch")
	}
	for i := range dest {
		*(dest[i].(*interface{})) = row[i]
	}
	return nil
}

func (s *sliceRows) Err() error { return s.err }

// twoLevelPlan groups by connection and article with every aggregate kind.
// Result layout: connection, article, sum_total, avg_total, min_quantity,
// max_quantity, count_quantity, __avg_sum_total, __avg_count_total.
func twoLevelPlan(t *testing.T) *QueryPlan {
	t.Helper()
	plan, err := BuildQuery(salesSchema(t), domain.DashboardConfig{
		DataSourceID:     schema.SalesDataSourceID,
		GroupingFieldIDs: []string{"connection_mp_ref", "article"},
		Aggregates: []domain.AggregateSpec{
			{FieldID: "total", Function: domain.AggSum},
			{FieldID: "total", Function: domain.AggAvg},
			{FieldID: "quantity", Function: domain.AggMin},
			{FieldID: "quantity", Function: domain.AggMax},
			{FieldID: "quantity", Function: domain.AggCount},
		},
	}, testNow)
	require.NoError(t, err)
	return plan
}

func twoLevelRows() [][]interface{} {
	return [][]interface{}{
		{"A", "x", 10.0, 5.0, int64(1), int64(3), int64(2), 10.0, int64(2)},
		{"A", "y", 30.0, 10.0, int64(2), int64(7), int64(3), 30.0, int64(3)},
		{"B", "x", 4.0, 4.0, int64(5), int64(5), int64(1), 4.0, int64(1)},
	}
}

func TestAssemblePivot_TwoLevels(t *testing.T) {
	resp, err := AssemblePivot(twoLevelPlan(t), &sliceRows{rows: twoLevelRows()})
	require.NoError(t, err)

	groups := resp.Groups()
	require.Len(t, groups, 2)
	require.Len(t, resp.Rows, 3)

	a := groups[0]
	assert.Equal(t, 0, a.Level)
	assert.False(t, a.IsTotal)
	assert.Equal(t, domain.TextCell("A"), a.Values["connection_mp_ref"])
	assert.NotContains(t, a.Values, "article")
	assert.Equal(t, domain.NumberCell(40), a.Values["sum_total"])
	assert.Equal(t, domain.NumberCell(8), a.Values["avg_total"], "avg is sum/count, not the mean of child averages")
	assert.Equal(t, domain.IntegerCell(1), a.Values["min_quantity"])
	assert.Equal(t, domain.IntegerCell(7), a.Values["max_quantity"])
	assert.Equal(t, domain.IntegerCell(5), a.Values["count_quantity"])

	require.Len(t, a.Children, 2)
	leaf := a.Children[1]
	assert.Equal(t, 1, leaf.Level)
	assert.Equal(t, domain.TextCell("A"), leaf.Values["connection_mp_ref"])
	assert.Equal(t, domain.TextCell("y"), leaf.Values["article"])
	assert.Equal(t, domain.NumberCell(10), leaf.Values["avg_total"])
	assert.NotNil(t, leaf.Children)
	assert.Empty(t, leaf.Children)

	grand := resp.GrandTotal()
	assert.True(t, grand.IsTotal)
	assert.Equal(t, 0, grand.Level)
	assert.Empty(t, grand.Children)
	assert.Equal(t, domain.NumberCell(44), grand.Values["sum_total"])
	assert.InDelta(t, 44.0/6.0, float64(grand.Values["avg_total"].(domain.NumberCell)), 1e-9)
	assert.Equal(t, domain.IntegerCell(1), grand.Values["min_quantity"])
	assert.Equal(t, domain.IntegerCell(7), grand.Values["max_quantity"])
	assert.Equal(t, domain.IntegerCell(6), grand.Values["count_quantity"])
}

func TestAssemblePivot_RollupInvariants(t *testing.T) {
	plan := twoLevelPlan(t)
	resp, err := AssemblePivot(plan, &sliceRows{rows: twoLevelRows()})
	require.NoError(t, err)

	var check func(row domain.PivotRow)
	check = func(row domain.PivotRow) {
		if len(row.Children) == 0 {
			return
		}
		var sum float64
		var count int64
		minQ, maxQ := int64(1<<62), int64(-1<<62)
		for _, c := range row.Children {
			check(c)
			f, _ := domain.CellFloat(c.Values["sum_total"])
			sum += f
			count += int64(c.Values["count_quantity"].(domain.IntegerCell))
			minQ = min(minQ, int64(c.Values["min_quantity"].(domain.IntegerCell)))
			maxQ = max(maxQ, int64(c.Values["max_quantity"].(domain.IntegerCell)))
		}
		assert.Equal(t, domain.NumberCell(sum), row.Values["sum_total"])
		assert.Equal(t, domain.IntegerCell(count), row.Values["count_quantity"])
		assert.Equal(t, domain.IntegerCell(minQ), row.Values["min_quantity"])
		assert.Equal(t, domain.IntegerCell(maxQ), row.Values["max_quantity"])
	}
	for _, g := range resp.Groups() {
		check(g)
	}

	var groupSum float64
	for _, g := range resp.Groups() {
		f, _ := domain.CellFloat(g.Values["sum_total"])
		groupSum += f
	}
	gt, _ := domain.CellFloat(resp.GrandTotal().Values["sum_total"])
	assert.Equal(t, groupSum, gt)
}

func TestAssemblePivot_Deterministic(t *testing.T) {
	plan := twoLevelPlan(t)
	first, err := AssemblePivot(plan, &sliceRows{rows: twoLevelRows()})
	require.NoError(t, err)
	second, err := AssemblePivot(plan, &sliceRows{rows: twoLevelRows()})
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestAssemblePivot_EmptyInput(t *testing.T) {
	resp, err := AssemblePivot(twoLevelPlan(t), &sliceRows{})
	require.NoError(t, err)

	require.Len(t, resp.Rows, 1)
	grand := resp.Rows[0]
	assert.True(t, grand.IsTotal)
	assert.Equal(t, domain.NumberCell(0), grand.Values["sum_total"])
	assert.Equal(t, domain.IntegerCell(0), grand.Values["count_quantity"])
	assert.Equal(t, domain.NullCell{}, grand.Values["avg_total"])
	assert.Equal(t, domain.NullCell{}, grand.Values["min_quantity"])
	assert.Equal(t, domain.NullCell{}, grand.Values["max_quantity"])

	b, err := json.Marshal(resp.Rows)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"values":{"sum_total":0,"avg_total":null,"min_quantity":null,"max_quantity":null,"count_quantity":0},"level":0,"is_total":true,"children":[]}]`, string(b))
}

func TestAssemblePivot_NoGrouping(t *testing.T) {
	plan, err := BuildQuery(salesSchema(t), domain.DashboardConfig{
		DataSourceID: schema.SalesDataSourceID,
		Aggregates: []domain.AggregateSpec{
			{FieldID: "quantity", Function: domain.AggSum},
			{FieldID: "total", Function: domain.AggAvg},
		},
	}, testNow)
	require.NoError(t, err)

	rows := [][]interface{}{{int64(18), 1152.875, 9223.0, int64(8)}}
	resp, err := AssemblePivot(plan, &sliceRows{rows: rows})
	require.NoError(t, err)

	require.Len(t, resp.Rows, 1)
	assert.Equal(t, domain.IntegerCell(18), resp.Rows[0].Values["sum_quantity"])
	assert.InDelta(t, 1152.875, float64(resp.Rows[0].Values["avg_total"].(domain.NumberCell)), 1e-9)
	assert.Empty(t, resp.Rows[0].Children)
}

func TestAssemblePivot_NullLeavesDoNotBreakRollup(t *testing.T) {
	plan := twoLevelPlan(t)
	rows := [][]interface{}{
		{nil, "x", nil, nil, nil, nil, int64(0), nil, int64(0)},
		{"A", "x", 10.0, 5.0, int64(1), int64(3), int64(2), 10.0, int64(2)},
	}
	resp, err := AssemblePivot(plan, &sliceRows{rows: rows})
	require.NoError(t, err)

	groups := resp.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, domain.NullCell{}, groups[0].Values["connection_mp_ref"])
	assert.Equal(t, domain.NullCell{}, groups[0].Values["avg_total"])
	assert.Equal(t, domain.NumberCell(10), resp.GrandTotal().Values["sum_total"])
	assert.Equal(t, domain.IntegerCell(1), resp.GrandTotal().Values["min_quantity"])
}

func TestAssemblePivot_PropagatesErrors(t *testing.T) {
	plan := twoLevelPlan(t)

	_, err := AssemblePivot(plan, &sliceRows{err: errors.New("connection reset")})
	require.EqualError(t, err, "connection reset")

	_, err = AssemblePivot(plan, &sliceRows{rows: [][]interface{}{{"A"}}})
	require.Error(t, err)
}

func TestToCell_DriverValues(t *testing.T) {
	big64 := new(big.Int).SetInt64(4537)
	huge := new(big.Int).Lsh(big.NewInt(1), 70)

	c, err := toCell(big64, domain.Integer())
	require.NoError(t, err)
	assert.Equal(t, domain.IntegerCell(4537), c)

	_, err = toCell(huge, domain.Integer())
	assert.Error(t, err)

	c, err = toCell(big64, domain.Numeric())
	require.NoError(t, err)
	assert.Equal(t, domain.NumberCell(4537), c)

	c, err = toCell([]byte("12.5"), domain.Numeric())
	require.NoError(t, err)
	assert.Equal(t, domain.NumberCell(12.5), c)

	c, err = toCell(int64(1), domain.Boolean())
	require.NoError(t, err)
	assert.Equal(t, domain.TextCell("true"), c)

	c, err = toCell([]byte("Ozon"), domain.Ref("a006_connection_mp"))
	require.NoError(t, err)
	assert.Equal(t, domain.TextCell("Ozon"), c)

	c, err = toCell(nil, domain.Numeric())
	require.NoError(t, err)
	assert.Equal(t, domain.NullCell{}, c)

	_, err = toCell(2.5, domain.Integer())
	assert.Error(t, err)
}

func TestAssemblePivot_IntegerRollupOverflow(t *testing.T) {
	plan, err := BuildQuery(salesSchema(t), domain.DashboardConfig{
		DataSourceID:     schema.SalesDataSourceID,
		GroupingFieldIDs: []string{"connection_mp_ref", "article"},
		Aggregates:       []domain.AggregateSpec{{FieldID: "quantity", Function: domain.AggSum}},
	}, testNow)
	require.NoError(t, err)

	_, err = AssemblePivot(plan, &sliceRows{rows: [][]interface{}{
		{"A", "x", int64(math.MaxInt64)},
		{"A", "y", int64(1)},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum_quantity")

	_, err = AssemblePivot(plan, &sliceRows{rows: [][]interface{}{
		{"A", "x", int64(math.MinInt64)},
		{"B", "y", int64(-1)},
	}})
	require.Error(t, err, "the grand total overflows even when no group does")

	resp, err := AssemblePivot(plan, &sliceRows{rows: [][]interface{}{
		{"A", "x", int64(math.MaxInt64 - 1)},
		{"A", "y", int64(1)},
	}})
	require.NoError(t, err)
	assert.Equal(t, domain.IntegerCell(math.MaxInt64), resp.GrandTotal().Values["sum_quantity"])
}
