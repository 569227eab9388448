package condition

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"dashquery/internal/domain"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04:05"
)

var dateTimeInputLayouts = []string{
	dateTimeLayout,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	time.RFC3339,
}

// Coerce converts a value as typed in the UI into the query parameter for a
// field of type t. Dates and timestamps are bound as canonical ISO text.
func Coerce(t domain.ValueType, raw string) (interface{}, error) {
	s := strings.TrimSpace(raw)
	switch t.Kind() {
	case domain.KindInteger:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, invalidValue(t, raw)
		}
		return v, nil
	case domain.KindNumeric:
		v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
		if err != nil {
			return nil, invalidValue(t, raw)
		}
		return v, nil
	case domain.KindBoolean:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, invalidValue(t, raw)
		}
		return v, nil
	case domain.KindDate:
		d, _, err := parseTemporal(s)
		if err != nil {
			return nil, invalidValue(t, raw)
		}
		return d.Format(dateLayout), nil
	case domain.KindDateTime:
		d, _, err := parseTemporal(s)
		if err != nil {
			return nil, invalidValue(t, raw)
		}
		return d.Format(dateTimeLayout), nil
	case domain.KindText, domain.KindRef:
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: field has no value type", domain.ErrInvalidValue)
	}
}

// coerceUpper is Coerce for the upper bound of a range: on DateTime fields a
// date-only bound covers the whole day.
func coerceUpper(t domain.ValueType, raw string) (interface{}, error) {
	if t.Kind() != domain.KindDateTime {
		return Coerce(t, raw)
	}
	d, dateOnly, err := parseTemporal(strings.TrimSpace(raw))
	if err != nil {
		return nil, invalidValue(t, raw)
	}
	if dateOnly {
		d = d.Add(24*time.Hour - time.Second)
	}
	return d.Format(dateTimeLayout), nil
}

// parseTemporal accepts a date or a timestamp and reports which one it got.
func parseTemporal(s string) (time.Time, bool, error) {
	if d, err := time.Parse(dateLayout, s); err == nil {
		return d, true, nil
	}
	for _, layout := range dateTimeInputLayouts {
		if d, err := time.Parse(layout, s); err == nil {
			return d, false, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("parse %q as date", s)
}

func invalidValue(t domain.ValueType, raw string) error {
	return fmt.Errorf("%w: %q is not a valid %s", domain.ErrInvalidValue, raw, t)
}
