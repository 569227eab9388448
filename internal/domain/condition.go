package domain

import (
	"encoding/json"
	"fmt"
)

// ComparisonOperator is the operator of a Comparison condition.
type ComparisonOperator string

const (
	OpEq   ComparisonOperator = "eq"
	OpNeq  ComparisonOperator = "not_eq"
	OpLt   ComparisonOperator = "lt"
	OpGt   ComparisonOperator = "gt"
	OpLtEq ComparisonOperator = "lt_eq"
	OpGtEq ComparisonOperator = "gt_eq"
)

// Symbol is the display symbol of the operator.
func (o ComparisonOperator) Symbol() string {
	switch o {
	case OpEq:
		return "="
	case OpNeq:
		return "≠"
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	case OpLtEq:
		return "≤"
	case OpGtEq:
		return "≥"
	default:
		return "?"
	}
}

// SQL is the SQL spelling of the operator; "" for unknown operators.
func (o ComparisonOperator) SQL() string {
	switch o {
	case OpEq:
		return "="
	case OpNeq:
		return "<>"
	case OpLt:
		return "<"
	case OpGt:
		return ">"
	case OpLtEq:
		return "<="
	case OpGtEq:
		return ">="
	default:
		return ""
	}
}

// Ordered reports whether the operator needs an ordered domain.
func (o ComparisonOperator) Ordered() bool {
	return o != OpEq && o != OpNeq
}

// DatePreset names a relative calendar period.
type DatePreset string

const (
	PresetToday       DatePreset = "today"
	PresetYesterday   DatePreset = "yesterday"
	PresetThisWeek    DatePreset = "this_week"
	PresetLastWeek    DatePreset = "last_week"
	PresetThisMonth   DatePreset = "this_month"
	PresetLastMonth   DatePreset = "last_month"
	PresetThisQuarter DatePreset = "this_quarter"
	PresetLastQuarter DatePreset = "last_quarter"
	PresetThisYear    DatePreset = "this_year"
	PresetLastYear    DatePreset = "last_year"
	PresetLast7Days   DatePreset = "last_7_days"
	PresetLast30Days  DatePreset = "last_30_days"
)

// Title is the UI caption of the preset; "" for unknown presets.
func (p DatePreset) Title() string {
	switch p {
	case PresetToday:
		return "Сегодня"
	case PresetYesterday:
		return "Вчера"
	case PresetThisWeek:
		return "Текущая неделя"
	case PresetLastWeek:
		return "Прошлая неделя"
	case PresetThisMonth:
		return "Текущий месяц"
	case PresetLastMonth:
		return "Прошлый месяц"
	case PresetThisQuarter:
		return "Текущий квартал"
	case PresetLastQuarter:
		return "Прошлый квартал"
	case PresetThisYear:
		return "Текущий год"
	case PresetLastYear:
		return "Прошлый год"
	case PresetLast7Days:
		return "Последние 7 дней"
	case PresetLast30Days:
		return "Последние 30 дней"
	default:
		return ""
	}
}

// ConditionKind tags the ConditionDef variants on the wire.
type ConditionKind string

const (
	ConditionComparison  ConditionKind = "comparison"
	ConditionRange       ConditionKind = "range"
	ConditionDatePeriod  ConditionKind = "date_period"
	ConditionNullability ConditionKind = "nullability"
	ConditionContains    ConditionKind = "contains"
	ConditionInList      ConditionKind = "in_list"
)

// ConditionDef is the closed set of filter definitions: Comparison, Range,
// DatePeriod, Nullability, Contains and InList.
type ConditionDef interface {
	Kind() ConditionKind
	isConditionDef()
}

// Comparison is `field op value`.
type Comparison struct {
	Operator ComparisonOperator `json:"operator"`
	Value    string             `json:"value"`
}

// Range bounds a field inclusively on either side.
type Range struct {
	From *string `json:"from,omitempty"`
	To   *string `json:"to,omitempty"`
}

// DatePeriod bounds a date field by a preset or explicit dates. A set preset
// takes precedence over the explicit bounds.
type DatePeriod struct {
	Preset *DatePreset `json:"preset,omitempty"`
	From   *string     `json:"from,omitempty"`
	To     *string     `json:"to,omitempty"`
}

// Nullability tests for (non-)presence of a value.
type Nullability struct {
	IsNull bool `json:"is_null"`
}

// Contains is a substring match.
type Contains struct {
	Pattern string `json:"pattern"`
}

// InList tests membership in a value list.
type InList struct {
	Values  []string `json:"values"`
	Negated bool     `json:"negated"`
}

func (Comparison) Kind() ConditionKind  { return ConditionComparison }
func (Range) Kind() ConditionKind       { return ConditionRange }
func (DatePeriod) Kind() ConditionKind  { return ConditionDatePeriod }
func (Nullability) Kind() ConditionKind { return ConditionNullability }
func (Contains) Kind() ConditionKind    { return ConditionContains }
func (InList) Kind() ConditionKind      { return ConditionInList }

func (Comparison) isConditionDef()  {}
func (Range) isConditionDef()       {}
func (DatePeriod) isConditionDef()  {}
func (Nullability) isConditionDef() {}
func (Contains) isConditionDef()    {}
func (InList) isConditionDef()      {}

// Unconstrained reports whether def is a Range or DatePeriod that restricts
// nothing.
func Unconstrained(def ConditionDef) bool {
	switch d := def.(type) {
	case Range:
		return d.From == nil && d.To == nil
	case DatePeriod:
		return d.Preset == nil && d.From == nil && d.To == nil
	default:
		return false
	}
}

// FilterCondition is one filter of a dashboard.
type FilterCondition struct {
	ID          string
	FieldID     string
	ValueType   ValueType
	Definition  ConditionDef
	DisplayText string
	Active      bool

	// SQLFragment is filled by the query builder only.
	SQLFragment *SQLFragment
}

type filterConditionJSON struct {
	ID          string          `json:"id"`
	FieldID     string          `json:"field_id"`
	ValueType   *ValueType      `json:"value_type,omitempty"`
	Definition  json.RawMessage `json:"definition"`
	DisplayText string          `json:"display_text"`
	Active      bool            `json:"active"`
}

// MarshalJSON encodes the condition with a kind-tagged definition.
func (c FilterCondition) MarshalJSON() ([]byte, error) {
	def, err := MarshalConditionDef(c.Definition)
	if err != nil {
		return nil, fmt.Errorf("condition %s: %w", c.ID, err)
	}
	out := filterConditionJSON{
		ID:          c.ID,
		FieldID:     c.FieldID,
		Definition:  def,
		DisplayText: c.DisplayText,
		Active:      c.Active,
	}
	if !c.ValueType.IsZero() {
		vt := c.ValueType
		out.ValueType = &vt
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a condition. The SQL fragment is never read from input.
func (c *FilterCondition) UnmarshalJSON(b []byte) error {
	var in filterConditionJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	def, err := UnmarshalConditionDef(in.Definition)
	if err != nil {
		return fmt.Errorf("condition %s: %w", in.ID, err)
	}
	*c = FilterCondition{
		ID:          in.ID,
		FieldID:     in.FieldID,
		Definition:  def,
		DisplayText: in.DisplayText,
		Active:      in.Active,
	}
	if in.ValueType != nil {
		c.ValueType = *in.ValueType
	}
	return nil
}

// MarshalConditionDef encodes def as {"kind": ..., <fields>}.
func MarshalConditionDef(def ConditionDef) ([]byte, error) {
	type tag struct {
		Kind ConditionKind `json:"kind"`
	}
	switch d := def.(type) {
	case Comparison:
		return json.Marshal(struct {
			tag
			Comparison
		}{tag{d.Kind()}, d})
	case Range:
		return json.Marshal(struct {
			tag
			Range
		}{tag{d.Kind()}, d})
	case DatePeriod:
		return json.Marshal(struct {
			tag
			DatePeriod
		}{tag{d.Kind()}, d})
	case Nullability:
		return json.Marshal(struct {
			tag
			Nullability
		}{tag{d.Kind()}, d})
	case Contains:
		return json.Marshal(struct {
			tag
			Contains
		}{tag{d.Kind()}, d})
	case InList:
		return json.Marshal(struct {
			tag
			InList
		}{tag{d.Kind()}, d})
	case nil:
		return nil, fmt.Errorf("condition definition is required")
	default:
		return nil, fmt.Errorf("unknown condition definition %T", def)
	}
}

// UnmarshalConditionDef decodes a kind-tagged definition.
func UnmarshalConditionDef(b []byte) (ConditionDef, error) {
	if len(b) == 0 || string(b) == "null" {
		return nil, ErrValidation("condition definition is required")
	}
	var tag struct {
		Kind ConditionKind `json:"kind"`
	}
	if err := json.Unmarshal(b, &tag); err != nil {
		return nil, err
	}
	switch tag.Kind {
	case ConditionComparison:
		var d Comparison
		err := json.Unmarshal(b, &d)
		return d, err
	case ConditionRange:
		var d Range
		err := json.Unmarshal(b, &d)
		return d, err
	case ConditionDatePeriod:
		var d DatePeriod
		err := json.Unmarshal(b, &d)
		return d, err
	case ConditionNullability:
		var d Nullability
		err := json.Unmarshal(b, &d)
		return d, err
	case ConditionContains:
		var d Contains
		err := json.Unmarshal(b, &d)
		return d, err
	case ConditionInList:
		var d InList
		err := json.Unmarshal(b, &d)
		return d, err
	default:
		return nil, ErrValidation("unknown condition kind %q", tag.Kind)
	}
}
