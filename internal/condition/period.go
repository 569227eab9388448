package condition

import (
	"fmt"
	"time"

	"dashquery/internal/domain"
)

// ResolvePreset turns a relative period into inclusive calendar-day bounds
// in now's location. Weeks start on Monday.
func ResolvePreset(preset domain.DatePreset, now time.Time) (from, to time.Time, err error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	switch preset {
	case domain.PresetToday:
		return today, today, nil
	case domain.PresetYesterday:
		d := today.AddDate(0, 0, -1)
		return d, d, nil
	case domain.PresetThisWeek:
		start := weekStart(today)
		return start, start.AddDate(0, 0, 6), nil
	case domain.PresetLastWeek:
		start := weekStart(today).AddDate(0, 0, -7)
		return start, start.AddDate(0, 0, 6), nil
	case domain.PresetThisMonth:
		start := monthStart(today)
		return start, start.AddDate(0, 1, -1), nil
	case domain.PresetLastMonth:
		start := monthStart(today).AddDate(0, -1, 0)
		return start, start.AddDate(0, 1, -1), nil
	case domain.PresetThisQuarter:
		start := quarterStart(today)
		return start, start.AddDate(0, 3, -1), nil
	case domain.PresetLastQuarter:
		start := quarterStart(today).AddDate(0, -3, 0)
		return start, start.AddDate(0, 3, -1), nil
	case domain.PresetThisYear:
		start := time.Date(today.Year(), time.January, 1, 0, 0, 0, 0, today.Location())
		return start, start.AddDate(1, 0, -1), nil
	case domain.PresetLastYear:
		start := time.Date(today.Year()-1, time.January, 1, 0, 0, 0, 0, today.Location())
		return start, start.AddDate(1, 0, -1), nil
	case domain.PresetLast7Days:
		return today.AddDate(0, 0, -6), today, nil
	case domain.PresetLast30Days:
		return today.AddDate(0, 0, -29), today, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q", domain.ErrUnresolvableDatePreset, preset)
	}
}

func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

func monthStart(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
}

func quarterStart(day time.Time) time.Time {
	month := time.Month((int(day.Month())-1)/3*3 + 1)
	return time.Date(day.Year(), month, 1, 0, 0, 0, 0, day.Location())
}
