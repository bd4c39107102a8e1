package report

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ledger/internal/core"
)

// ErrNoPeriodSelected is returned when an export is requested for all time.
var ErrNoPeriodSelected = errors.New("no period selected: choose a time period before exporting")

// ExportPayload is everything a document renderer needs for a report.
type ExportPayload struct {
	Rows        []core.Entry
	Totals      PeriodTotals
	PeriodLabel string
	Filter      string
	GeneratedAt time.Time
}

// FileName is the suggested download name for the rendered report.
func (p ExportPayload) FileName(prefix string) string {
	name := "financial-report-" + p.GeneratedAt.Format(core.DateLayout) + ".pdf"
	if prefix == "" {
		return name
	}
	return prefix + "-" + name
}

// BuildExportPayload filters entries with c and totals the result. Exports
// over the whole history are refused with ErrNoPeriodSelected. c is expected
// to be resolved already; now only stamps the payload.
func BuildExportPayload(entries []core.Entry, c FilterCriteria, now time.Time) (ExportPayload, error) {
	if c.DateRange == RangeAll || c.DateRange == "" {
		return ExportPayload{}, ErrNoPeriodSelected
	}
	rows := ApplyFilters(entries, c)
	return ExportPayload{
		Rows:        rows,
		Totals:      ComputeTotals(rows),
		PeriodLabel: PeriodLabel(c),
		Filter:      DescribeFilter(c),
		GeneratedAt: now,
	}, nil
}

// PeriodLabel renders the date range of c for humans, e.g. "Last 30 Days"
// or "Custom Range: 2024-01-01 to 2024-01-31".
func PeriodLabel(c FilterCriteria) string {
	if c.DateRange != RangeCustom {
		if l, ok := rangeLabels[c.DateRange]; ok {
			return l
		}
		return rangeLabels[RangeAll]
	}
	switch {
	case !c.Start.IsEmpty() && !c.End.IsEmpty():
		return fmt.Sprintf("Custom Range: %s to %s", c.Start, c.End)
	case !c.Start.IsEmpty():
		return fmt.Sprintf("Custom Range: from %s", c.Start)
	case !c.End.IsEmpty():
		return fmt.Sprintf("Custom Range: until %s", c.End)
	}
	return rangeLabels[RangeCustom]
}

// DescribeFilter summarises every active constraint of c on one line,
// e.g. "Filter: Current Month, Income Only, Category: Food".
func DescribeFilter(c FilterCriteria) string {
	var parts []string
	if c.DateRange != RangeAll && c.DateRange != "" {
		parts = append(parts, PeriodLabel(c))
	}
	if c.Kind != "" && c.Kind != ViewAll {
		parts = append(parts, string(c.Kind)+" Only")
	}
	if c.Category != "" {
		parts = append(parts, "Category: "+c.Category)
	}
	if len(parts) == 0 {
		return "All Entries"
	}
	return "Filter: " + strings.Join(parts, ", ")
}
