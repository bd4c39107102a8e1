package report

import (
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// SeriesLength is the number of trailing months in a monthly series.
const SeriesLength = 12

// MonthBucket identifies one calendar month of a series.
type MonthBucket struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Label string     `json:"label"`
}

// Contains reports whether d falls inside the bucket's calendar month.
func (b MonthBucket) Contains(d core.Date) bool {
	return d.Year() == b.Year && time.Month(d.Month()) == b.Month
}

// MonthlySeries holds positionally aligned per-month values.
type MonthlySeries struct {
	Buckets      []MonthBucket     `json:"buckets"`
	Income       []decimal.Decimal `json:"income"`
	Expense      []decimal.Decimal `json:"expense"`
	Balance      []decimal.Decimal `json:"balance"`
	SavingsRate  []float64         `json:"savings_rate"`
	ExpenseRatio []float64         `json:"expense_ratio"`
}

// Labels returns the bucket labels in series order.
func (s MonthlySeries) Labels() []string {
	out := make([]string, len(s.Buckets))
	for i, b := range s.Buckets {
		out[i] = b.Label
	}
	return out
}

// TrailingMonths returns the twelve calendar months ending with now's month,
// oldest first. Labels look like "Apr 23".
func TrailingMonths(now time.Time) []MonthBucket {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	buckets := make([]MonthBucket, SeriesLength)
	for i := 0; i < SeriesLength; i++ {
		m := first.AddDate(0, i-(SeriesLength-1), 0)
		buckets[i] = MonthBucket{Year: m.Year(), Month: m.Month(), Label: m.Format("Jan 06")}
	}
	return buckets
}

// BuildMonthlySeries buckets entries into the trailing twelve months ending
// at now and derives savings rate and expense ratio for each month.
//
// Savings rate is floored at 0 and expense ratio capped at 100. Months with
// no income report 0 for both.
func BuildMonthlySeries(entries []core.Entry, now time.Time) MonthlySeries {
	buckets := TrailingMonths(now)
	s := MonthlySeries{
		Buckets:      buckets,
		Income:       make([]decimal.Decimal, SeriesLength),
		Expense:      make([]decimal.Decimal, SeriesLength),
		Balance:      make([]decimal.Decimal, SeriesLength),
		SavingsRate:  make([]float64, SeriesLength),
		ExpenseRatio: make([]float64, SeriesLength),
	}
	for i, b := range buckets {
		var month []core.Entry
		for _, e := range entries {
			if b.Contains(e.Date) {
				month = append(month, e)
			}
		}
		t := ComputeTotals(month)
		s.Income[i], s.Expense[i], s.Balance[i] = t.Income, t.Expense, t.Balance
		s.SavingsRate[i] = SavingsRate(t)
		s.ExpenseRatio[i] = ExpenseRatio(t)
	}
	return s
}

var hundred = decimal.NewFromInt(100)

// SavingsRate is balance/income as a percentage, floored at 0.
func SavingsRate(t PeriodTotals) float64 {
	if !t.Income.IsPositive() {
		return 0
	}
	r := t.Income.Sub(t.Expense).Div(t.Income).Mul(hundred).InexactFloat64()
	return max(0, r)
}

// ExpenseRatio is expense/income as a percentage, capped at 100.
func ExpenseRatio(t PeriodTotals) float64 {
	if !t.Income.IsPositive() {
		return 0
	}
	r := t.Expense.Div(t.Income).Mul(hundred).InexactFloat64()
	return min(100, r)
}
