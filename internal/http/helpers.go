package http

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
	"ledger/internal/report"
)

// entryResponse is the wire form of an entry.
type entryResponse struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Type        core.Kind       `json:"type"`
	Category    string          `json:"category"`
	Amount      decimal.Decimal `json:"amount"`
	CreatedBy   string          `json:"created_by,omitempty"`
	CreatedAt   *time.Time      `json:"created_at,omitempty"`
}

func toEntryResponse(e core.Entry) entryResponse {
	out := entryResponse{
		ID:          e.ID,
		Date:        e.Date.String(),
		Description: e.Description,
		Type:        e.Kind,
		Category:    e.Category,
		Amount:      e.Amount,
		CreatedBy:   e.CreatedBy,
	}
	if !e.CreatedAt.IsZero() {
		t := e.CreatedAt
		out.CreatedAt = &t
	}
	return out
}

func toEntryResponses(list []core.Entry) []entryResponse {
	out := make([]entryResponse, len(list))
	for i, e := range list {
		out[i] = toEntryResponse(e)
	}
	return out
}

// criteriaResponse echoes the resolved criteria back to the client.
type criteriaResponse struct {
	Range    report.DateRange `json:"range"`
	Start    string           `json:"start,omitempty"`
	End      string           `json:"end,omitempty"`
	Kind     report.View      `json:"kind"`
	Category string           `json:"category,omitempty"`
	Label    string           `json:"label"`
}

func toCriteriaResponse(c report.FilterCriteria) criteriaResponse {
	kind := c.Kind
	if kind == "" {
		kind = report.ViewAll
	}
	return criteriaResponse{
		Range:    c.DateRange,
		Start:    c.Start.String(),
		End:      c.End.String(),
		Kind:     kind,
		Category: c.Category,
		Label:    report.DescribeFilter(c),
	}
}

// validationMessage maps entry validation errors onto user-facing text.
func validationMessage(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "Amount must be a positive number"
	case errors.Is(err, core.ErrInvalidKind):
		return "Type must be Income or Expense"
	case errors.Is(err, core.ErrEmptyDescription):
		return "Description is required"
	case errors.Is(err, core.ErrEmptyCategory):
		return "Category is required"
	case errors.Is(err, core.ErrInvalidDate), errors.Is(err, core.ErrInvalidDay), errors.Is(err, core.ErrInvalidMonth):
		return "Date must be YYYY-MM-DD"
	}
	return err.Error()
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}
