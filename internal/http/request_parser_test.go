package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/report"
)

var parserToday = core.NewDate(2024, 3, 15)

func TestParseCriteria(t *testing.T) {
	tests := []struct {
		name      string
		query     url.Values
		wantRange report.DateRange
		wantStart string
		wantEnd   string
		wantKind  report.View
		wantCat   string
		wantErr   bool
	}{
		{
			name:      "empty query is all time",
			query:     url.Values{},
			wantRange: report.RangeAll,
			wantKind:  report.ViewAll,
		},
		{
			name:      "current month",
			query:     url.Values{"range": {"current-month"}},
			wantRange: report.RangeCurrentMonth,
			wantStart: "2024-03-01",
			wantEnd:   "2024-03-15",
			wantKind:  report.ViewAll,
		},
		{
			name:      "last 30 with kind and category",
			query:     url.Values{"range": {"last-30"}, "kind": {"expense"}, "category": {" Food "}},
			wantRange: report.RangeLast30,
			wantStart: "2024-02-14",
			wantEnd:   "2024-03-15",
			wantKind:  report.ViewExpense,
			wantCat:   "Food",
		},
		{
			name:      "bounds without range imply custom",
			query:     url.Values{"start": {"2024-01-01"}},
			wantRange: report.RangeCustom,
			wantStart: "2024-01-01",
			wantEnd:   "2024-03-15",
			wantKind:  report.ViewAll,
		},
		{
			name:      "custom with both bounds",
			query:     url.Values{"range": {"custom"}, "start": {"2024-01-01"}, "end": {"2024-01-31"}},
			wantRange: report.RangeCustom,
			wantStart: "2024-01-01",
			wantEnd:   "2024-01-31",
			wantKind:  report.ViewAll,
		},
		{
			name:      "preset range ignores bounds",
			query:     url.Values{"range": {"previous-month"}, "start": {"2000-01-01"}},
			wantRange: report.RangePreviousMonth,
			wantStart: "2024-02-01",
			wantEnd:   "2024-02-29",
			wantKind:  report.ViewAll,
		},
		{name: "unknown range", query: url.Values{"range": {"forever"}}, wantErr: true},
		{name: "bad start", query: url.Values{"range": {"custom"}, "start": {"01/01/2024"}}, wantErr: true},
		{name: "bad kind", query: url.Values{"kind": {"transfer"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseCriteria(tt.query, parserToday)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if c.DateRange != tt.wantRange {
				t.Errorf("DateRange = %q, want %q", c.DateRange, tt.wantRange)
			}
			if c.Start.String() != tt.wantStart {
				t.Errorf("Start = %q, want %q", c.Start, tt.wantStart)
			}
			if c.End.String() != tt.wantEnd {
				t.Errorf("End = %q, want %q", c.End, tt.wantEnd)
			}
			if c.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", c.Kind, tt.wantKind)
			}
			if c.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", c.Category, tt.wantCat)
			}
		})
	}
}

func TestParsePageParams(t *testing.T) {
	tests := []struct {
		name     string
		query    url.Values
		def      int
		wantPage int
		wantSize int
		wantKey  string
	}{
		{"defaults", url.Values{}, 10, 1, 10, ""},
		{"zero default falls back", url.Values{}, 0, 1, report.DefaultPageSize, ""},
		{"explicit values", url.Values{"page": {"3"}, "page_size": {"25"}, "key": {"k"}}, 10, 3, 25, "k"},
		{"invalid values ignored", url.Values{"page": {"abc"}, "page_size": {"-1"}}, 10, 1, 10, ""},
		{"page size capped", url.Values{"page_size": {"5000"}}, 10, 1, MaxPageSize, ""},
		{"non-positive page ignored", url.Values{"page": {"0"}}, 10, 1, 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ParsePageParams(tt.query, tt.def)
			if p.Page != tt.wantPage {
				t.Errorf("Page = %d, want %d", p.Page, tt.wantPage)
			}
			if p.PageSize != tt.wantSize {
				t.Errorf("PageSize = %d, want %d", p.PageSize, tt.wantSize)
			}
			if p.Key != tt.wantKey {
				t.Errorf("Key = %q, want %q", p.Key, tt.wantKey)
			}
		})
	}
}

func TestParseTopN(t *testing.T) {
	if got := ParseTopN(url.Values{}, 8); got != 8 {
		t.Errorf("default = %d, want 8", got)
	}
	if got := ParseTopN(url.Values{"top": {"3"}}, 8); got != 3 {
		t.Errorf("top=3 gave %d", got)
	}
	if got := ParseTopN(url.Values{"top": {"x"}}, 8); got != 8 {
		t.Errorf("invalid top gave %d", got)
	}
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		key         string
		wantValue   string
		wantJSON    bool
	}{
		{
			name:        "JSON body",
			body:        `{"description": "Test", "amount": 12.5}`,
			contentType: "application/json",
			key:         "amount",
			wantValue:   "12.5",
			wantJSON:    true,
		},
		{
			name:        "form body",
			body:        "description=Test+Item&amount=12.50",
			contentType: "application/x-www-form-urlencoded",
			key:         "description",
			wantValue:   "Test Item",
		},
		{
			name:        "control characters stripped",
			body:        "description=a%00b",
			contentType: "application/x-www-form-urlencoded",
			key:         "description",
			wantValue:   "ab",
		},
		{
			name:      "missing key",
			body:      `{"description": "Test"}`,
			key:       "category",
			wantValue: "",
			wantJSON:  true,
		},
		{
			name:      "empty body",
			body:      "",
			key:       "description",
			wantValue: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/entries", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			parser := NewRequestBodyParser(req)
			if err := parser.Parse(); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if got := parser.Get(tt.key); got != tt.wantValue {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.wantValue)
			}
			if parser.IsJSON() != tt.wantJSON {
				t.Errorf("IsJSON() = %v, want %v", parser.IsJSON(), tt.wantJSON)
			}
		})
	}
}

func TestRequestBodyParser_InvalidJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/entries", strings.NewReader(`{"description": `))
	parser := NewRequestBodyParser(req)
	if err := parser.Parse(); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
	// second call returns the cached error
	if err := parser.Parse(); err == nil {
		t.Fatal("expected cached error")
	}
}

func TestParseEntryInput(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		check   func(t *testing.T, e core.Entry)
	}{
		{
			name: "JSON with all fields",
			body: `{"date":"2024-03-01","description":"Rent","type":"expense","category":"Bills","amount":"1200.50"}`,
			check: func(t *testing.T, e core.Entry) {
				if e.Date.String() != "2024-03-01" || e.Kind != core.Expense || e.Category != "Bills" {
					t.Errorf("unexpected entry %+v", e)
				}
				if !e.Amount.Equal(decimal.RequireFromString("1200.50")) {
					t.Errorf("Amount = %s", e.Amount)
				}
			},
		},
		{
			name: "form with kind alias and default date",
			body: "description=Pay&kind=Income&category=Salary&amount=5000",
			check: func(t *testing.T, e core.Entry) {
				if e.Date.String() != parserToday.String() || e.Kind != core.Income {
					t.Errorf("unexpected entry %+v", e)
				}
			},
		},
		{
			name:    "zero amount",
			body:    `{"description":"x","type":"Expense","category":"Food","amount":"0"}`,
			wantErr: core.ErrInvalidAmount,
		},
		{
			name:    "unknown type",
			body:    `{"description":"x","type":"Transfer","category":"Food","amount":"1"}`,
			wantErr: core.ErrInvalidKind,
		},
		{
			name:    "missing description",
			body:    `{"type":"Expense","category":"Food","amount":"1"}`,
			wantErr: core.ErrEmptyDescription,
		},
		{
			name:    "missing category",
			body:    `{"description":"x","type":"Expense","amount":"1"}`,
			wantErr: core.ErrEmptyCategory,
		},
		{
			name:    "bad date",
			body:    `{"date":"15/03/2024","description":"x","type":"Expense","category":"Food","amount":"1"}`,
			wantErr: core.ErrInvalidDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/entries", strings.NewReader(tt.body))
			parser := NewRequestBodyParser(req)
			if err := parser.Parse(); err != nil {
				t.Fatalf("Parse() error = %v", err)
			}

			e, err := ParseEntryInput(parser, parserToday)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, e)
		})
	}
}
