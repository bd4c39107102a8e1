package report

import (
	"testing"

	"ledger/internal/core"
)

func TestResolveDateRange(t *testing.T) {
	today := day(2024, 3, 15)
	cases := []struct {
		name     string
		r        DateRange
		existing *Bounds
		want     Bounds
	}{
		{"all", RangeAll, nil, Bounds{}},
		{"current month", RangeCurrentMonth, nil, Bounds{day(2024, 3, 1), today}},
		{"previous month leap year", RangePreviousMonth, nil, Bounds{day(2024, 2, 1), day(2024, 2, 29)}},
		{"last 30", RangeLast30, nil, Bounds{day(2024, 2, 14), today}},
		{"last 60", RangeLast60, nil, Bounds{day(2024, 1, 15), today}},
		{"last 90", RangeLast90, nil, Bounds{day(2023, 12, 16), today}},
		{"custom without bounds", RangeCustom, nil, Bounds{End: today}},
		{"custom keeps bounds", RangeCustom, &Bounds{day(2024, 1, 1), day(2024, 1, 31)}, Bounds{day(2024, 1, 1), day(2024, 1, 31)}},
		{"custom keeps start only", RangeCustom, &Bounds{Start: day(2024, 1, 1)}, Bounds{day(2024, 1, 1), today}},
		{"unknown", DateRange("yesterday"), nil, Bounds{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ResolveDateRange(tc.r, today, tc.existing)
			if !got.Start.Equal(tc.want.Start.Time) || !got.End.Equal(tc.want.End.Time) {
				t.Fatalf("got [%s, %s], want [%s, %s]", got.Start, got.End, tc.want.Start, tc.want.End)
			}
		})
	}
}

func TestResolvePreviousMonthAcrossYear(t *testing.T) {
	got := ResolveDateRange(RangePreviousMonth, day(2024, 1, 10), nil)
	if got.Start.String() != "2023-12-01" || got.End.String() != "2023-12-31" {
		t.Fatalf("got [%s, %s]", got.Start, got.End)
	}
}

func TestParseDateRange(t *testing.T) {
	for _, in := range []string{"all", "current-month", "previous-month", "last-30", "last-60", "last-90", "custom"} {
		if r, err := ParseDateRange(in); err != nil || string(r) != in {
			t.Errorf("ParseDateRange(%q) = %q, %v", in, r, err)
		}
	}
	if r, err := ParseDateRange(""); err != nil || r != RangeAll {
		t.Errorf("empty range = %q, %v", r, err)
	}
	if _, err := ParseDateRange("last-7"); err == nil {
		t.Error("expected error for last-7")
	}
}

func TestBoundsContainsInclusive(t *testing.T) {
	b := Bounds{Start: day(2024, 1, 1), End: day(2024, 1, 31)}
	cases := map[core.Date]bool{
		day(2023, 12, 31): false,
		day(2024, 1, 1):   true,
		day(2024, 1, 31):  true,
		day(2024, 2, 1):   false,
	}
	for d, want := range cases {
		if got := b.Contains(d); got != want {
			t.Errorf("Contains(%s) = %v", d, got)
		}
	}
	if !(Bounds{}).Contains(day(1999, 1, 1)) {
		t.Error("open bounds should contain every date")
	}
}
