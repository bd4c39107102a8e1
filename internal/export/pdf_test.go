package export

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/report"
)

func payload(rows int) report.ExportPayload {
	var entries []core.Entry
	for i := 0; i < rows; i++ {
		kind := core.Expense
		if i%3 == 0 {
			kind = core.Income
		}
		entries = append(entries, core.Entry{
			Date:        core.NewDate(2024, 6, 1+i%28),
			Description: fmt.Sprintf("Entry number %d with a fairly long description that gets cut", i),
			Kind:        kind,
			Category:    "Misc",
			Amount:      decimal.NewFromInt(int64(100 + i)),
		})
	}
	c := report.FilterCriteria{DateRange: report.RangeCurrentMonth}
	now := time.Date(2024, 6, 30, 9, 0, 0, 0, time.UTC)
	p, err := report.BuildExportPayload(entries, c.Resolve(core.DateOf(now)), now)
	if err != nil {
		panic(err)
	}
	return p
}

func TestPDFRenderer_Render(t *testing.T) {
	tests := []struct {
		name string
		rows int
	}{
		{"empty period", 0},
		{"single page", 5},
		{"several pages", 120},
	}
	r := NewPDFRenderer("Ledger", "RS.")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := r.Render(&buf, payload(tt.rows)); err != nil {
				t.Fatalf("Render: %v", err)
			}
			if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
				t.Fatal("output is not a PDF")
			}
		})
	}
}

func TestPDFRenderer_Bytes(t *testing.T) {
	r := NewPDFRenderer("Ledger", "")
	if r.CurrencySymbol != core.DefaultCurrencySymbol {
		t.Errorf("default symbol = %q", r.CurrencySymbol)
	}
	b, err := r.Bytes(payload(3))
	if err != nil || len(b) == 0 {
		t.Fatalf("Bytes = %d bytes, %v", len(b), err)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"  padded  ", 10, "padded"},
		{"abcdefghijkl", 8, "abcde..."},
		{"ñandú ñandú", 6, "ñan..."},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}
