package domain

// AggregateFunction is the roll-up applied to a measure.
type AggregateFunction string

const (
	AggSum   AggregateFunction = "sum"
	AggCount AggregateFunction = "count"
	AggAvg   AggregateFunction = "avg"
	AggMin   AggregateFunction = "min"
	AggMax   AggregateFunction = "max"
)

// Valid reports whether f is a known function.
func (f AggregateFunction) Valid() bool {
	switch f {
	case AggSum, AggCount, AggAvg, AggMin, AggMax:
		return true
	}
	return false
}

// ToSQL is the SQL aggregate keyword.
func (f AggregateFunction) ToSQL() string {
	switch f {
	case AggSum:
		return "SUM"
	case AggCount:
		return "COUNT"
	case AggAvg:
		return "AVG"
	case AggMin:
		return "MIN"
	case AggMax:
		return "MAX"
	default:
		return ""
	}
}

// Title is the UI caption of the function.
func (f AggregateFunction) Title() string {
	switch f {
	case AggSum:
		return "Сумма"
	case AggCount:
		return "Количество"
	case AggAvg:
		return "Среднее"
	case AggMin:
		return "Минимум"
	case AggMax:
		return "Максимум"
	default:
		return string(f)
	}
}

// ResultType is the value type of f applied to a field of type t.
func (f AggregateFunction) ResultType(t ValueType) ValueType {
	switch f {
	case AggCount:
		return Integer()
	case AggAvg:
		return Numeric()
	default:
		return t
	}
}

// AggregateSpec selects one measure.
type AggregateSpec struct {
	FieldID  string            `json:"field_id" yaml:"field_id"`
	Function AggregateFunction `json:"function" yaml:"function"`
}

// ColumnID is the response column id of the measure.
func (a AggregateSpec) ColumnID() string {
	return string(a.Function) + "_" + a.FieldID
}

// SortDirection orders a grouping level.
type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// SortSpec sets the direction for one grouping field.
type SortSpec struct {
	FieldID   string        `json:"field_id" yaml:"field_id"`
	Direction SortDirection `json:"direction" yaml:"direction"`
}

// DashboardConfig is the caller's description of one dashboard query.
type DashboardConfig struct {
	DataSourceID     string            `json:"data_source_id"`
	GroupingFieldIDs []string          `json:"grouping_field_ids"`
	Aggregates       []AggregateSpec   `json:"aggregate_field_ids"`
	Conditions       []FilterCondition `json:"conditions"`
	Sort             []SortSpec        `json:"sort,omitempty"`
}
