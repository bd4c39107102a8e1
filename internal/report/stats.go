package report

import (
	"time"

	"ledger/internal/core"
)

// QuickStats are the headline numbers of the dashboard.
type QuickStats struct {
	TotalEntries int `json:"total_entries"`
	// OverallSavingsRate is balance/income*100 over every entry, unclamped.
	OverallSavingsRate float64 `json:"overall_savings_rate"`
	CategoriesUsed     int     `json:"categories_used"`
}

// Summary bundles the totals shown in the dashboard cards.
type Summary struct {
	Overall      PeriodTotals `json:"overall"`
	CurrentMonth PeriodTotals `json:"current_month"`
	Stats        QuickStats   `json:"stats"`
}

func ComputeQuickStats(entries []core.Entry) QuickStats {
	t := ComputeTotals(entries)
	s := QuickStats{TotalEntries: len(entries), CategoriesUsed: len(Categories(entries))}
	if t.Income.IsPositive() {
		s.OverallSavingsRate = t.Balance.Div(t.Income).Mul(hundred).InexactFloat64()
	}
	return s
}

// CurrentMonthTotals totals the entries dated in now's calendar month.
func CurrentMonthTotals(entries []core.Entry, now time.Time) PeriodTotals {
	b := MonthBucket{Year: now.Year(), Month: now.Month()}
	var month []core.Entry
	for _, e := range entries {
		if b.Contains(e.Date) {
			month = append(month, e)
		}
	}
	return ComputeTotals(month)
}

func BuildSummary(entries []core.Entry, now time.Time) Summary {
	return Summary{
		Overall:      ComputeTotals(entries),
		CurrentMonth: CurrentMonthTotals(entries, now),
		Stats:        ComputeQuickStats(entries),
	}
}
