package dashboard

import (
	"fmt"
	"strings"
	"time"

	"dashquery/internal/condition"
	"dashquery/internal/domain"
)

const (
	avgSumPrefix   = "__avg_sum_"
	avgCountPrefix = "__avg_count_"
)

// QueryPlan is a dashboard configuration compiled into one parameterized
// SELECT plus the column layout the pivot assembler reads it with.
type QueryPlan struct {
	DataSourceID      string                `json:"data_source_id"`
	SQL               string                `json:"sql"`
	Params            []interface{}         `json:"params"`
	Columns           []domain.ColumnHeader `json:"columns"`
	HiddenColumns     []string              `json:"hidden_columns,omitempty"`
	Joins             []domain.JoinClause   `json:"joins,omitempty"`
	AppliedConditions []AppliedCondition    `json:"applied_conditions,omitempty"`

	groups   []groupColumn
	measures []measureColumn
}

// AppliedCondition is a condition that contributed to the WHERE clause.
type AppliedCondition struct {
	ConditionID string `json:"condition_id"`
	DisplayText string `json:"display_text"`
	domain.SQLFragment
}

type groupColumn struct {
	id        string
	valueType domain.ValueType
}

type measureColumn struct {
	id        string
	fn        domain.AggregateFunction
	valueType domain.ValueType

	// Row positions of the hidden SUM/COUNT helpers of an avg measure.
	sumIdx, countIdx int
}

// width is the number of columns every result row carries.
func (p *QueryPlan) width() int {
	return len(p.groups) + len(p.measures) + len(p.HiddenColumns)
}

// BuildQuery validates cfg against s and compiles it. Conditions are
// evaluated against now.
func BuildQuery(s domain.DataSourceSchema, cfg domain.DashboardConfig, now time.Time) (*QueryPlan, error) {
	groupFields, aggFields, err := validateConfig(s, cfg)
	if err != nil {
		return nil, err
	}

	plan := &QueryPlan{DataSourceID: s.ID, Params: []interface{}{}}
	var joins domain.JoinSet
	for _, f := range groupFields {
		if j, ok := f.Join(); ok {
			joins.Add(j)
		}
	}
	for _, f := range aggFields {
		if j, ok := f.Join(); ok {
			joins.Add(j)
		}
	}

	var where []string
	for _, cond := range cfg.Conditions {
		if !condition.IsActiveAndConstrained(cond) {
			continue
		}
		field, ok := s.Field(cond.FieldID)
		if !ok {
			return nil, &domain.ConditionError{
				ConditionID: cond.ID,
				FieldID:     cond.FieldID,
				Err:         &domain.FieldNotFoundError{DataSourceID: s.ID, FieldID: cond.FieldID},
			}
		}
		frag, err := condition.CompileCondition(field, cond, now)
		if err != nil {
			return nil, err
		}
		joins.Add(frag.Joins...)
		where = append(where, "("+frag.SQL+")")
		plan.Params = append(plan.Params, frag.Params...)
		plan.AppliedConditions = append(plan.AppliedConditions, AppliedCondition{
			ConditionID: cond.ID,
			DisplayText: condition.DisplayText(field.Title(), cond.Definition),
			SQLFragment: *frag,
		})
	}

	selectParts := make([]string, 0, len(groupFields)+len(aggFields))
	groupBy := make([]string, 0, len(groupFields))
	for _, f := range groupFields {
		expr := f.DisplayExpr()
		selectParts = append(selectParts, expr+" AS "+domain.QuoteIdent(f.ID))
		groupBy = append(groupBy, expr)
		plan.groups = append(plan.groups, groupColumn{id: f.ID, valueType: f.ValueType})
		plan.Columns = append(plan.Columns, domain.ColumnHeader{
			ID:        f.ID,
			Title:     f.Title(),
			Type:      domain.ColumnGrouping,
			ValueType: f.ValueType,
		})
	}

	var hidden []string
	hiddenIdx := len(groupFields) + len(aggFields)
	for i, spec := range cfg.Aggregates {
		f := aggFields[i]
		expr := f.DisplayExpr()
		m := measureColumn{id: spec.ColumnID(), fn: spec.Function, valueType: spec.Function.ResultType(f.ValueType)}
		selectParts = append(selectParts, fmt.Sprintf("%s(%s) AS %s", spec.Function.ToSQL(), expr, domain.QuoteIdent(m.id)))

		if spec.Function == domain.AggAvg {
			sumID, countID := avgSumPrefix+f.ID, avgCountPrefix+f.ID
			hidden = append(hidden,
				fmt.Sprintf("SUM(%s) AS %s", expr, domain.QuoteIdent(sumID)),
				fmt.Sprintf("COUNT(%s) AS %s", expr, domain.QuoteIdent(countID)))
			plan.HiddenColumns = append(plan.HiddenColumns, sumID, countID)
			m.sumIdx, m.countIdx = hiddenIdx, hiddenIdx+1
			hiddenIdx += 2
		}
		plan.measures = append(plan.measures, m)
		plan.Columns = append(plan.Columns, domain.ColumnHeader{
			ID:        m.id,
			Title:     fmt.Sprintf("%s (%s)", f.Title(), spec.Function.Title()),
			Type:      domain.ColumnAggregated,
			ValueType: m.valueType,
			Function:  spec.Function,
		})
	}
	selectParts = append(selectParts, hidden...)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(strings.Join(selectParts, ", "))
	b.WriteString(" FROM ")
	b.WriteString(domain.QuoteIdent(s.TableName()))
	b.WriteString(" AS ")
	b.WriteString(domain.QuoteIdent(domain.BaseAlias))
	for _, j := range joins.Joins() {
		b.WriteString(" ")
		b.WriteString(j.SQL())
	}
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	if len(groupBy) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(groupBy, ", "))
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(orderBy(groupFields, cfg.Sort), ", "))
	}

	plan.SQL = b.String()
	plan.Joins = joins.Joins()
	return plan, nil
}

// validateConfig resolves the grouping and aggregate fields, collecting
// every problem into a single InvalidConfigError.
func validateConfig(s domain.DataSourceSchema, cfg domain.DashboardConfig) ([]domain.FieldDef, []domain.FieldDef, error) {
	invalid := &domain.InvalidConfigError{DataSourceID: s.ID}
	if len(cfg.GroupingFieldIDs) == 0 && len(cfg.Aggregates) == 0 {
		invalid.Add("", "at least one grouping field or aggregate is required")
	}

	groupFields := make([]domain.FieldDef, 0, len(cfg.GroupingFieldIDs))
	grouped := make(map[string]bool, len(cfg.GroupingFieldIDs))
	for _, id := range cfg.GroupingFieldIDs {
		f, ok := s.Field(id)
		switch {
		case !ok:
			invalid.Add(id, "unknown field %q", id)
		case !f.CanGroup:
			invalid.Add(id, "field %q cannot be grouped", id)
		case grouped[id]:
			invalid.Add(id, "field %q is grouped more than once", id)
		default:
			groupFields = append(groupFields, f)
		}
		grouped[id] = true
	}

	var unsupported *domain.UnsupportedAggregateError
	aggFields := make([]domain.FieldDef, 0, len(cfg.Aggregates))
	columns := make(map[string]bool, len(cfg.Aggregates))
	for _, spec := range cfg.Aggregates {
		f, ok := s.Field(spec.FieldID)
		switch {
		case !spec.Function.Valid():
			invalid.Add(spec.FieldID, "unknown aggregate function %q for field %q", spec.Function, spec.FieldID)
		case !ok:
			invalid.Add(spec.FieldID, "unknown field %q", spec.FieldID)
		case !f.CanAggregate:
			invalid.Add(spec.FieldID, "field %q cannot be aggregated", spec.FieldID)
		case columns[spec.ColumnID()]:
			invalid.Add(spec.FieldID, "aggregate %s of field %q is requested more than once", spec.Function, spec.FieldID)
		case !f.ValueType.IsNumeric() && unsupported == nil:
			unsupported = &domain.UnsupportedAggregateError{FieldID: f.ID, Function: spec.Function, ValueType: f.ValueType}
		}
		columns[spec.ColumnID()] = true
		if ok {
			aggFields = append(aggFields, f)
		}
	}

	for _, srt := range cfg.Sort {
		if !grouped[srt.FieldID] {
			invalid.Add(srt.FieldID, "sort field %q is not a grouping field", srt.FieldID)
		}
		if srt.Direction != domain.SortAsc && srt.Direction != domain.SortDesc && srt.Direction != "" {
			invalid.Add(srt.FieldID, "unknown sort direction %q", srt.Direction)
		}
	}

	if !invalid.Empty() {
		return nil, nil, invalid
	}
	if unsupported != nil {
		return nil, nil, unsupported
	}
	return groupFields, aggFields, nil
}

// orderBy sorts by every grouping expression in nesting order so equal
// grouping prefixes arrive adjacent.
func orderBy(groupFields []domain.FieldDef, sorts []domain.SortSpec) []string {
	dir := make(map[string]domain.SortDirection, len(sorts))
	for _, srt := range sorts {
		dir[srt.FieldID] = srt.Direction
	}
	out := make([]string, 0, len(groupFields))
	for _, f := range groupFields {
		if dir[f.ID] == domain.SortDesc {
			out = append(out, f.DisplayExpr()+" DESC")
			continue
		}
		out = append(out, f.DisplayExpr()+" ASC")
	}
	return out
}
