package report

import (
	"fmt"
	"strings"

	"ledger/internal/core"
)

// DateRange names a preset window relative to today.
type DateRange string

const (
	RangeAll           DateRange = "all"
	RangeCurrentMonth  DateRange = "current-month"
	RangePreviousMonth DateRange = "previous-month"
	RangeLast30        DateRange = "last-30"
	RangeLast60        DateRange = "last-60"
	RangeLast90        DateRange = "last-90"
	RangeCustom        DateRange = "custom"
)

var rangeLabels = map[DateRange]string{
	RangeAll:           "All Time",
	RangeCurrentMonth:  "Current Month",
	RangePreviousMonth: "Previous Month",
	RangeLast30:        "Last 30 Days",
	RangeLast60:        "Last 60 Days",
	RangeLast90:        "Last 90 Days",
	RangeCustom:        "Custom Range",
}

// ParseDateRange maps a query value onto a DateRange. Empty means all.
func ParseDateRange(s string) (DateRange, error) {
	r := DateRange(strings.ToLower(strings.TrimSpace(s)))
	if r == "" {
		return RangeAll, nil
	}
	if _, ok := rangeLabels[r]; !ok {
		return "", fmt.Errorf("unknown date range %q", s)
	}
	return r, nil
}

// Bounds is an inclusive date window. An empty Start or End leaves that
// side open.
type Bounds struct {
	Start core.Date
	End   core.Date
}

// Contains applies the inclusive bound checks to d.
func (b Bounds) Contains(d core.Date) bool {
	if !b.Start.IsEmpty() && d.Before(b.Start.Time) {
		return false
	}
	if !b.End.IsEmpty() && d.After(b.End.Time) {
		return false
	}
	return true
}

// ResolveDateRange derives the concrete bounds of r as seen on today.
//
// Custom keeps whatever bounds existing already carries; a missing end
// becomes today. All, and any unknown value, leaves both bounds open.
func ResolveDateRange(r DateRange, today core.Date, existing *Bounds) Bounds {
	switch r {
	case RangeCurrentMonth:
		return Bounds{Start: core.NewDate(today.Year(), today.Month(), 1), End: today}
	case RangePreviousMonth:
		start := core.NewDate(today.Year(), today.Month()-1, 1)
		// day 0 of the current month is the last day of the previous one
		end := core.NewDate(today.Year(), today.Month(), 0)
		return Bounds{Start: start, End: end}
	case RangeLast30:
		return Bounds{Start: today.AddDays(-30), End: today}
	case RangeLast60:
		return Bounds{Start: today.AddDays(-60), End: today}
	case RangeLast90:
		return Bounds{Start: today.AddDays(-90), End: today}
	case RangeCustom:
		b := Bounds{End: today}
		if existing != nil {
			b.Start = existing.Start
			if !existing.End.IsEmpty() {
				b.End = existing.End
			}
		}
		return b
	}
	return Bounds{}
}
