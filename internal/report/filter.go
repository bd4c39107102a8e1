package report

import (
	"fmt"
	"strings"

	"ledger/internal/core"
)

// FilterCriteria selects the entries shown in the table and exported.
type FilterCriteria struct {
	DateRange DateRange
	Start     core.Date
	End       core.Date
	Kind      View
	Category  string
}

// NewCriteria builds resolved criteria from user input. Bounds given
// without a range imply a custom range; preset ranges ignore them.
func NewCriteria(dateRange, start, end, kind, category string, today core.Date) (FilterCriteria, error) {
	var c FilterCriteria

	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if strings.TrimSpace(dateRange) == "" && (start != "" || end != "") {
		dateRange = string(RangeCustom)
	}
	dr, err := ParseDateRange(dateRange)
	if err != nil {
		return c, err
	}
	c.DateRange = dr

	if dr == RangeCustom {
		if start != "" {
			if c.Start, err = core.ParseDate(start); err != nil {
				return c, fmt.Errorf("start: %w", err)
			}
		}
		if end != "" {
			if c.End, err = core.ParseDate(end); err != nil {
				return c, fmt.Errorf("end: %w", err)
			}
		}
	}

	if c.Kind, err = ParseView(kind); err != nil {
		return c, err
	}
	c.Category = strings.TrimSpace(category)

	return c.Resolve(today), nil
}

// Resolve fills Start and End from DateRange as seen on today.
// Custom bounds already present are preserved.
func (c FilterCriteria) Resolve(today core.Date) FilterCriteria {
	b := ResolveDateRange(c.DateRange, today, &Bounds{Start: c.Start, End: c.End})
	c.Start, c.End = b.Start, b.End
	return c
}

func (c FilterCriteria) bounds() Bounds {
	return Bounds{Start: c.Start, End: c.End}
}

// Match reports whether e passes the date, kind and category tests.
func (c FilterCriteria) Match(e core.Entry) bool {
	if c.DateRange != RangeAll && c.DateRange != "" && !c.bounds().Contains(e.Date) {
		return false
	}
	if !c.Kind.Match(e.Kind) {
		return false
	}
	if c.Category != "" && e.Category != c.Category {
		return false
	}
	return true
}

// Key fingerprints the criteria. Callers holding a page number compare keys
// to tell whether the filtered set changed underneath them.
func (c FilterCriteria) Key() string {
	kind := c.Kind
	if kind == "" {
		kind = ViewAll
	}
	dr := c.DateRange
	if dr == "" {
		dr = RangeAll
	}
	return strings.Join([]string{string(dr), c.Start.String(), c.End.String(), string(kind), c.Category}, "|")
}

// ApplyFilters returns the entries matching c in their original order.
// The result never aliases entries.
func ApplyFilters(entries []core.Entry, c FilterCriteria) []core.Entry {
	out := make([]core.Entry, 0, len(entries))
	for _, e := range entries {
		if c.Match(e) {
			out = append(out, e)
		}
	}
	return out
}
