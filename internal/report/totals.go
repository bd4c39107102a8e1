package report

import (
	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// PeriodTotals sums entry magnitudes over some subset of entries.
type PeriodTotals struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Balance decimal.Decimal `json:"balance"`
}

// ComputeTotals adds the magnitude of every entry to Income or Expense
// according to its kind. The stored sign of an amount is ignored.
func ComputeTotals(entries []core.Entry) PeriodTotals {
	income, expense := decimal.Zero, decimal.Zero
	for _, e := range entries {
		if e.Kind == core.Income {
			income = income.Add(e.Magnitude())
		} else {
			expense = expense.Add(e.Magnitude())
		}
	}
	return PeriodTotals{Income: income, Expense: expense, Balance: income.Sub(expense)}
}
