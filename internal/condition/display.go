// Package condition renders filter conditions as UI text and compiles them
// into parameterized SQL fragments.
package condition

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"dashquery/internal/domain"
)

// maxInlineValues is the longest in-list rendered value by value.
const maxInlineValues = 3

// DisplayText renders def for the field captioned fieldName. It never fails:
// inputs that cannot be rendered produce an advisory placeholder.
func DisplayText(fieldName string, def domain.ConditionDef) string {
	f := fieldName
	switch d := def.(type) {
	case domain.Comparison:
		return fmt.Sprintf("%s %s %s", f, d.Operator.Symbol(), d.Value)

	case domain.Range:
		return bounded(f, d.From, d.To, "от", "до")

	case domain.DatePeriod:
		if d.Preset != nil {
			title := d.Preset.Title()
			if title == "" {
				return f + ": неизвестный период"
			}
			return f + ": " + title
		}
		return bounded(f, d.From, d.To, "с", "по")

	case domain.Nullability:
		if d.IsNull {
			return f + " не заполнено"
		}
		return f + " заполнено"

	case domain.Contains:
		return fmt.Sprintf("%s содержит «%s»", f, d.Pattern)

	case domain.InList:
		op := "в"
		if d.Negated {
			op = "не в"
		}
		if len(d.Values) <= maxInlineValues {
			return fmt.Sprintf("%s %s [%s]", f, op, strings.Join(d.Values, ", "))
		}
		return fmt.Sprintf("%s %s списке (%d значений)", f, op, len(d.Values))

	default:
		return f + ": условие не задано"
	}
}

func bounded(f string, from, to *string, fromWord, toWord string) string {
	switch {
	case from != nil && to != nil:
		return fmt.Sprintf("%s %s %s %s %s", f, fromWord, *from, toWord, *to)
	case from != nil:
		return fmt.Sprintf("%s %s %s", f, fromWord, *from)
	case to != nil:
		return fmt.Sprintf("%s %s %s", f, toWord, *to)
	default:
		return f + ": любое значение"
	}
}

// Refresh regenerates the display text of cond after an edit and assigns a
// stable id to conditions that do not have one yet.
func Refresh(cond *domain.FilterCondition, fieldName string) {
	if cond.ID == "" {
		cond.ID = uuid.NewString()
	}
	cond.DisplayText = DisplayText(fieldName, cond.Definition)
}
