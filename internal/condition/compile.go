package condition

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"dashquery/internal/domain"
)

// likeEscape is the single-character ESCAPE of generated LIKE clauses.
const likeEscape = `\`

var errNoBounds = errors.New("range restricts nothing")

// EscapeLike escapes LIKE wildcards and the escape character so the pattern
// matches itself literally.
func EscapeLike(pattern string) string {
	var b strings.Builder
	b.Grow(len(pattern))
	for _, r := range pattern {
		switch r {
		case '\\', '%', '_':
			b.WriteString(likeEscape)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsActiveAndConstrained reports whether cond must reach SQL generation.
func IsActiveAndConstrained(cond domain.FilterCondition) bool {
	return cond.Active && cond.Definition != nil && !domain.Unconstrained(cond.Definition)
}

// Applicable checks that a definition of this kind can filter a field of
// type t.
func Applicable(def domain.ConditionDef, field domain.FieldDef) error {
	t := field.ValueType
	switch d := def.(type) {
	case domain.Comparison:
		if d.Operator.SQL() == "" {
			return fmt.Errorf("%w: unknown operator %q", domain.ErrIncompatibleCondition, d.Operator)
		}
		if d.Operator.Ordered() && (t.Kind() == domain.KindBoolean || t.IsRef()) {
			return fmt.Errorf("%w: operator %s on %s", domain.ErrIncompatibleCondition, d.Operator, t)
		}
		return nil
	case domain.Range:
		if !t.IsNumeric() && !t.IsTemporal() {
			return fmt.Errorf("%w: range on %s", domain.ErrIncompatibleCondition, t)
		}
		return nil
	case domain.DatePeriod:
		if !t.IsTemporal() {
			return fmt.Errorf("%w: date period on %s", domain.ErrIncompatibleCondition, t)
		}
		return nil
	case domain.Nullability:
		return nil
	case domain.Contains:
		if _, joined := field.Join(); t.Kind() == domain.KindText || (t.IsRef() && joined) {
			return nil
		}
		return fmt.Errorf("%w: contains on %s", domain.ErrIncompatibleCondition, t)
	case domain.InList:
		switch t.Kind() {
		case domain.KindInteger, domain.KindNumeric, domain.KindText, domain.KindRef:
			return nil
		}
		return fmt.Errorf("%w: in-list on %s", domain.ErrIncompatibleCondition, t)
	case nil:
		return fmt.Errorf("%w: no definition", domain.ErrIncompatibleCondition)
	default:
		return fmt.Errorf("%w: %T", domain.ErrIncompatibleCondition, def)
	}
}

// Compile renders def as a boolean expression over field. Every value is a
// bound parameter. Presets are resolved against now.
func Compile(field domain.FieldDef, def domain.ConditionDef, now time.Time) (*domain.SQLFragment, error) {
	if err := Applicable(def, field); err != nil {
		return nil, err
	}
	col := field.KeyExpr()
	t := field.ValueType

	switch d := def.(type) {
	case domain.Comparison:
		v, err := Coerce(t, d.Value)
		if err != nil {
			return nil, err
		}
		return &domain.SQLFragment{SQL: col + " " + d.Operator.SQL() + " ?", Params: []interface{}{v}}, nil

	case domain.Range:
		return compileBounds(col, t, d.From, d.To)

	case domain.DatePeriod:
		if d.Preset == nil {
			return compileBounds(col, t, d.From, d.To)
		}
		from, to, err := ResolvePreset(*d.Preset, now)
		if err != nil {
			return nil, err
		}
		fromS, toS := from.Format(dateLayout), to.Format(dateLayout)
		return compileBounds(col, t, &fromS, &toS)

	case domain.Nullability:
		if d.IsNull {
			return &domain.SQLFragment{SQL: col + " IS NULL"}, nil
		}
		return &domain.SQLFragment{SQL: col + " IS NOT NULL"}, nil

	case domain.Contains:
		frag := &domain.SQLFragment{Params: []interface{}{"%" + EscapeLike(d.Pattern) + "%"}}
		if j, ok := field.Join(); ok {
			col = field.DisplayExpr()
			frag.Joins = []domain.JoinClause{j}
		}
		frag.SQL = col + " LIKE ? ESCAPE '" + likeEscape + "'"
		return frag, nil

	case domain.InList:
		if len(d.Values) == 0 {
			return nil, domain.ErrEmptyInList
		}
		params := make([]interface{}, 0, len(d.Values))
		for _, raw := range d.Values {
			v, err := Coerce(t, raw)
			if err != nil {
				return nil, err
			}
			params = append(params, v)
		}
		op := " IN ("
		if d.Negated {
			op = " NOT IN ("
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
		return &domain.SQLFragment{SQL: col + op + placeholders + ")", Params: params}, nil
	}
	return nil, fmt.Errorf("%w: %T", domain.ErrIncompatibleCondition, def)
}

func compileBounds(col string, t domain.ValueType, from, to *string) (*domain.SQLFragment, error) {
	var parts []string
	var params []interface{}
	if from != nil {
		v, err := Coerce(t, *from)
		if err != nil {
			return nil, err
		}
		parts = append(parts, col+" >= ?")
		params = append(params, v)
	}
	if to != nil {
		v, err := coerceUpper(t, *to)
		if err != nil {
			return nil, err
		}
		parts = append(parts, col+" <= ?")
		params = append(params, v)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidValue, errNoBounds)
	}
	return &domain.SQLFragment{SQL: strings.Join(parts, " AND "), Params: params}, nil
}

// CompileCondition compiles one dashboard condition. Failures are reported
// as *domain.ConditionError carrying the condition id.
func CompileCondition(field domain.FieldDef, cond domain.FilterCondition, now time.Time) (*domain.SQLFragment, error) {
	fail := func(err error) error {
		return &domain.ConditionError{ConditionID: cond.ID, FieldID: field.ID, Err: err}
	}
	if !cond.ValueType.IsZero() && !domain.Compatible(cond.ValueType, field.ValueType) {
		return nil, fail(fmt.Errorf("%w: condition type %s, field type %s",
			domain.ErrIncompatibleCondition, cond.ValueType, field.ValueType))
	}
	frag, err := Compile(field, cond.Definition, now)
	if err != nil {
		return nil, fail(err)
	}
	return frag, nil
}
