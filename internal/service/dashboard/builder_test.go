package dashboard

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashquery/internal/domain"
	"dashquery/internal/schema"
)

var testNow = time.Date(2026, time.February, 15, 12, 0, 0, 0, time.UTC)

func salesSchema(t *testing.T) domain.DataSourceSchema {
	t.Helper()
	reg, err := schema.NewRegistry(schema.Builtin()...)
	require.NoError(t, err)
	s, err := reg.Resolve(schema.SalesDataSourceID)
	require.NoError(t, err)
	return s
}

func dateFrom(id, from string) domain.FilterCondition {
	return domain.FilterCondition{
		ID:         id,
		FieldID:    "date",
		ValueType:  domain.Date(),
		Definition: domain.Comparison{Operator: domain.OpGtEq, Value: from},
		Active:     true,
	}
}

func TestBuildQuery_SalesByConnection(t *testing.T) {
	cfg := domain.DashboardConfig{
		DataSourceID:     schema.SalesDataSourceID,
		GroupingFieldIDs: []string{"connection_mp_ref"},
		Aggregates:       []domain.AggregateSpec{{FieldID: "total", Function: domain.AggSum}},
		Conditions:       []domain.FilterCondition{dateFrom("c1", "2024-01-01")},
	}

	plan, err := BuildQuery(salesSchema(t), cfg, testNow)
	require.NoError(t, err)

	const join = `"j18_a006_connection_mp_connection_mp_ref"`
	assert.Equal(t,
		`SELECT `+join+`."description" AS "connection_mp_ref", SUM("src"."total") AS "sum_total"`+
			` FROM "p904_sales_data" AS "src"`+
			` LEFT JOIN "a006_connection_mp" AS `+join+` ON `+join+`."id" = "src"."connection_mp_ref"`+
			` WHERE ("src"."date" >= ?)`+
			` GROUP BY `+join+`."description"`+
			` ORDER BY `+join+`."description" ASC`,
		plan.SQL)
	assert.Equal(t, []interface{}{"2024-01-01"}, plan.Params)
	require.Len(t, plan.AppliedConditions, 1)
	assert.Equal(t, "c1", plan.AppliedConditions[0].ConditionID)
	assert.Equal(t, "Дата ≥ 2024-01-01", plan.AppliedConditions[0].DisplayText)

	require.Len(t, plan.Columns, 2)
	assert.Equal(t, domain.ColumnHeader{
		ID: "connection_mp_ref", Title: "Кабинет маркетплейса", Type: domain.ColumnGrouping,
		ValueType: domain.Ref(schema.ConnectionsDataSource),
	}, plan.Columns[0])
	assert.Equal(t, domain.ColumnHeader{
		ID: "sum_total", Title: "Сумма продажи (Сумма)", Type: domain.ColumnAggregated,
		ValueType: domain.Numeric(), Function: domain.AggSum,
	}, plan.Columns[1])
}

func TestBuildQuery_SkipsInactiveAndUnconstrained(t *testing.T) {
	inactive := dateFrom("c1", "2024-01-01")
	inactive.Active = false
	open := domain.FilterCondition{ID: "c2", FieldID: "total", Definition: domain.Range{}, Active: true}
	// Inactive conditions are not validated at all.
	broken := domain.FilterCondition{ID: "c3", FieldID: "gone", Definition: domain.InList{}, Active: false}

	plan, err := BuildQuery(salesSchema(t), domain.DashboardConfig{
		DataSourceID:     schema.SalesDataSourceID,
		GroupingFieldIDs: []string{"article"},
		Aggregates:       []domain.AggregateSpec{{FieldID: "quantity", Function: domain.AggCount}},
		Conditions:       []domain.FilterCondition{inactive, open, broken},
	}, testNow)
	require.NoError(t, err)
	assert.NotContains(t, plan.SQL, "WHERE")
	assert.Empty(t, plan.Params)
	assert.Empty(t, plan.AppliedConditions)
}

func TestBuildQuery_DeduplicatesJoins(t *testing.T) {
	plan, err := BuildQuery(salesSchema(t), domain.DashboardConfig{
		DataSourceID:     schema.SalesDataSourceID,
		GroupingFieldIDs: []string{"connection_mp_ref", "marketplace_product_ref"},
		Aggregates:       []domain.AggregateSpec{{FieldID: "quantity", Function: domain.AggSum}},
		Conditions: []domain.FilterCondition{{
			ID: "c1", FieldID: "connection_mp_ref", Definition: domain.Contains{Pattern: "Ozon"}, Active: true,
		}},
	}, testNow)
	require.NoError(t, err)

	require.Len(t, plan.Joins, 2)
	assert.Equal(t, "j18_a006_connection_mp_connection_mp_ref", plan.Joins[0].Alias)
	assert.Equal(t, "j24_a007_marketplace_product_marketplace_product_ref", plan.Joins[1].Alias)
	assert.Equal(t, 1, strings.Count(plan.SQL, `LEFT JOIN "a006_connection_mp"`))
	assert.Equal(t, []interface{}{"%Ozon%"}, plan.Params)
}

func TestBuildQuery_AvgHelpersAndSort(t *testing.T) {
	plan, err := BuildQuery(salesSchema(t), domain.DashboardConfig{
		DataSourceID:     schema.SalesDataSourceID,
		GroupingFieldIDs: []string{"article", "date"},
		Aggregates: []domain.AggregateSpec{
			{FieldID: "total", Function: domain.AggAvg},
			{FieldID: "quantity", Function: domain.AggMax},
		},
		Sort: []domain.SortSpec{{FieldID: "date", Direction: domain.SortDesc}},
	}, testNow)
	require.NoError(t, err)

	assert.Contains(t, plan.SQL,
		`AVG("src"."total") AS "avg_total", MAX("src"."quantity") AS "max_quantity", `+
			`SUM("src"."total") AS "__avg_sum_total", COUNT("src"."total") AS "__avg_count_total" FROM`)
	assert.Contains(t, plan.SQL, `GROUP BY "src"."article", "src"."date" ORDER BY "src"."article" ASC, "src"."date" DESC`)
	assert.Equal(t, []string{"__avg_sum_total", "__avg_count_total"}, plan.HiddenColumns)
	assert.Len(t, plan.Columns, 4, "helper columns are not response columns")
	assert.Equal(t, 6, plan.width())
	assert.Equal(t, 4, plan.measures[0].sumIdx)
	assert.Equal(t, 5, plan.measures[0].countIdx)
}

func TestBuildQuery_NoGrouping(t *testing.T) {
	plan, err := BuildQuery(salesSchema(t), domain.DashboardConfig{
		DataSourceID: schema.SalesDataSourceID,
		Aggregates:   []domain.AggregateSpec{{FieldID: "total", Function: domain.AggSum}},
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, `SELECT SUM("src"."total") AS "sum_total" FROM "p904_sales_data" AS "src"`, plan.SQL)
}

func TestBuildQuery_CollectsAllProblems(t *testing.T) {
	_, err := BuildQuery(salesSchema(t), domain.DashboardConfig{
		DataSourceID:     schema.SalesDataSourceID,
		GroupingFieldIDs: []string{"nope", "total", "article", "article"},
		Aggregates: []domain.AggregateSpec{
			{FieldID: "article", Function: domain.AggSum},
			{FieldID: "total", Function: "median"},
			{FieldID: "quantity", Function: domain.AggSum},
			{FieldID: "quantity", Function: domain.AggSum},
		},
		Sort: []domain.SortSpec{{FieldID: "date", Direction: domain.SortAsc}},
	}, testNow)

	var invalid *domain.InvalidConfigError
	require.ErrorAs(t, err, &invalid)
	assert.True(t, domain.IsConfigurationError(err))
	assert.Equal(t, []string{"nope", "total", "article", "quantity", "date"}, invalid.FieldIDs)
	assert.Len(t, invalid.Problems, 7)
}

func TestBuildQuery_EmptyConfig(t *testing.T) {
	_, err := BuildQuery(salesSchema(t), domain.DashboardConfig{DataSourceID: schema.SalesDataSourceID}, testNow)
	var invalid *domain.InvalidConfigError
	require.ErrorAs(t, err, &invalid)
	assert.Empty(t, invalid.FieldIDs)
	assert.Len(t, invalid.Problems, 1)
}

func TestBuildQuery_UnsupportedAggregateSafetyNet(t *testing.T) {
	// Hand-built schemas can bypass FieldDef.Validate.
	s := domain.DataSourceSchema{ID: "raw", Fields: []domain.FieldDef{
		{ID: "label", ValueType: domain.Text(), DBColumn: "label", CanAggregate: true},
	}}
	_, err := BuildQuery(s, domain.DashboardConfig{
		DataSourceID: "raw",
		Aggregates:   []domain.AggregateSpec{{FieldID: "label", Function: domain.AggMax}},
	}, testNow)

	var unsupported *domain.UnsupportedAggregateError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "label", unsupported.FieldID)
}

func TestBuildQuery_ConditionErrors(t *testing.T) {
	s := salesSchema(t)
	base := domain.DashboardConfig{
		DataSourceID:     schema.SalesDataSourceID,
		GroupingFieldIDs: []string{"article"},
		Aggregates:       []domain.AggregateSpec{{FieldID: "total", Function: domain.AggSum}},
	}

	cfg := base
	cfg.Conditions = []domain.FilterCondition{
		{ID: "empty", FieldID: "article", Definition: domain.InList{}, Active: true},
	}
	_, err := BuildQuery(s, cfg, testNow)
	var condErr *domain.ConditionError
	require.ErrorAs(t, err, &condErr)
	assert.Equal(t, "empty", condErr.ConditionID)
	assert.ErrorIs(t, err, domain.ErrEmptyInList)

	cfg.Conditions = []domain.FilterCondition{
		{ID: "ghost", FieldID: "warehouse", Definition: domain.Nullability{}, Active: true},
	}
	_, err = BuildQuery(s, cfg, testNow)
	require.ErrorAs(t, err, &condErr)
	assert.Equal(t, "ghost", condErr.ConditionID)
	var fieldErr *domain.FieldNotFoundError
	assert.ErrorAs(t, err, &fieldErr)
}

func TestBuildQuery_ThisMonthParams(t *testing.T) {
	preset := domain.PresetThisMonth
	plan, err := BuildQuery(salesSchema(t), domain.DashboardConfig{
		DataSourceID:     schema.SalesDataSourceID,
		GroupingFieldIDs: []string{"date"},
		Aggregates:       []domain.AggregateSpec{{FieldID: "quantity", Function: domain.AggSum}},
		Conditions: []domain.FilterCondition{{
			ID: "m", FieldID: "date", Definition: domain.DatePeriod{Preset: &preset}, Active: true,
		}},
	}, testNow)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"2026-02-01", "2026-02-28"}, plan.Params)
	assert.Contains(t, plan.SQL, `WHERE ("src"."date" >= ? AND "src"."date" <= ?)`)
}

func TestBuildQuery_DistinctAliasesForOverlappingJoinNames(t *testing.T) {
	s := domain.DataSourceSchema{ID: "facts", Fields: []domain.FieldDef{
		{
			ID: "f1", ValueType: domain.Ref("a_b"), CanGroup: true, DBColumn: "c",
			RefDisplayColumn: "name", SourceTable: "a_b", JoinOnColumn: "id",
		},
		{
			ID: "f2", ValueType: domain.Ref("a"), CanGroup: true, DBColumn: "b_c",
			RefDisplayColumn: "name", SourceTable: "a", JoinOnColumn: "id",
		},
	}}
	require.NoError(t, s.Validate())

	plan, err := BuildQuery(s, domain.DashboardConfig{
		DataSourceID:     "facts",
		GroupingFieldIDs: []string{"f1", "f2"},
	}, testNow)
	require.NoError(t, err)

	require.Len(t, plan.Joins, 2)
	assert.NotEqual(t, plan.Joins[0].Alias, plan.Joins[1].Alias)
	assert.Contains(t, plan.SQL, `LEFT JOIN "a_b" AS "j3_a_b_c"`)
	assert.Contains(t, plan.SQL, `LEFT JOIN "a" AS "j1_a_b_c"`)
}

func TestValidateConfig_ReturnsOnlyResolvedFields(t *testing.T) {
	s := salesSchema(t)
	groups, aggs, err := validateConfig(s, domain.DashboardConfig{
		DataSourceID:     schema.SalesDataSourceID,
		GroupingFieldIDs: []string{"article", "date"},
		Aggregates:       []domain.AggregateSpec{{FieldID: "total", Function: domain.AggSum}},
	})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "article", groups[0].ID)
	assert.Equal(t, "date", groups[1].ID)
	require.Len(t, aggs, 1)
	assert.Equal(t, "total", aggs[0].ID)

	groups, aggs, err = validateConfig(s, domain.DashboardConfig{
		DataSourceID:     schema.SalesDataSourceID,
		GroupingFieldIDs: []string{"nope", "article"},
		Aggregates:       []domain.AggregateSpec{{FieldID: "missing", Function: domain.AggSum}},
	})
	require.Error(t, err)
	assert.Nil(t, groups)
	assert.Nil(t, aggs)
}
