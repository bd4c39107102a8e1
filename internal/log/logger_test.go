package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

func newBufferLogger(component string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelDebug, Component: component, Output: &buf})
	return l, &buf
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug, "WARN": slog.LevelWarn, "warning": slog.LevelWarn,
		"error": slog.LevelError, "info": slog.LevelInfo, "": slog.LevelInfo, "bogus": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerCarriesComponent(t *testing.T) {
	l, buf := newBufferLogger(ComponentStorage)
	l.Info("opened")
	if !strings.Contains(buf.String(), "component=storage") {
		t.Fatalf("missing component: %s", buf.String())
	}
	sub := l.WithComponent(ComponentAMQP)
	if sub.Component() != ComponentAMQP {
		t.Fatalf("Component() = %q", sub.Component())
	}
}

func TestStructuredLoggerEntryCreated(t *testing.T) {
	l, buf := newBufferLogger(ComponentEntries)
	sl := NewStructuredLogger(l)
	sl.LogEntryCreated(context.Background(), core.Entry{
		ID:          "abc",
		Date:        core.NewDate(2024, 1, 15),
		Description: "secret note",
		Kind:        core.Income,
		Category:    "Salary",
		Amount:      decimal.NewFromInt(1000),
		CreatedBy:   "a@example.com",
	})
	out := buf.String()
	for _, want := range []string{"entry_id=abc", "entry_kind=Income", "category=Salary", "amount=1000", "entry_date=2024-01-15", "user=a@example.com"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line missing %q: %s", want, out)
		}
	}
	if strings.Contains(out, "secret note") {
		t.Errorf("description leaked into log: %s", out)
	}
}

func TestStructuredLoggerHTTPLevels(t *testing.T) {
	l, buf := newBufferLogger(ComponentHTTP)
	sl := NewStructuredLogger(l)
	r := httptest.NewRequest(http.MethodGet, "/api/summary?x=1", nil)
	sl.LogHTTPEnd(context.Background(), r, 500, 12, "10.0.0.1")
	out := buf.String()
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, "status_code=500") {
		t.Fatalf("unexpected log: %s", out)
	}
	buf.Reset()
	sl.LogHTTPEnd(context.Background(), r, 404, 1, "10.0.0.1")
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Fatalf("unexpected log: %s", buf.String())
	}
}

func TestLogError(t *testing.T) {
	l, buf := newBufferLogger(ComponentWorker)
	NewStructuredLogger(l).LogError(context.Background(), "sync failed", errors.New("boom"), OpSync, nil)
	if !strings.Contains(buf.String(), "error=boom") || !strings.Contains(buf.String(), "operation=sync") {
		t.Fatalf("unexpected log: %s", buf.String())
	}
}

func TestMiddlewareAndFromContext(t *testing.T) {
	l, buf := newBufferLogger(ComponentHTTP)
	h := Middleware(l)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(buf.String(), "request_id=req-1") {
		t.Fatalf("request id missing: %s", buf.String())
	}
	if FromContext(context.Background()).Component() != "unknown" {
		t.Fatal("expected fallback logger")
	}
}
