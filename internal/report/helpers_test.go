package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

func entry(date string, kind core.Kind, category string, amount int64) core.Entry {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.Entry{
		ID:          date + string(kind) + category,
		Date:        d,
		Description: category,
		Kind:        kind,
		Category:    category,
		Amount:      decimal.NewFromInt(amount),
	}
}

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func assertDec(t *testing.T, name string, got, want decimal.Decimal) {
	t.Helper()
	if !got.Equal(want) {
		t.Errorf("%s = %s, want %s", name, got, want)
	}
}

func day(y, m, d int) core.Date { return core.NewDate(y, m, d) }

func at(y, m, d int) time.Time { return time.Date(y, time.Month(m), d, 12, 0, 0, 0, time.UTC) }
