package http

import (
	"errors"
	"net/http"

	"ledger/internal/core"
	"ledger/internal/log"
	"ledger/internal/report"
)

type summaryResponse struct {
	report.Summary
	CurrencySymbol string `json:"currency_symbol"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	list, err := s.loadEntries(r.Context())
	if err != nil {
		InternalServerError("Failed to load entries").Write(w)
		return
	}
	NewResponse().JSON(summaryResponse{
		Summary:        report.BuildSummary(list, now),
		CurrencySymbol: s.currency,
	}).Write(w)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	list, err := s.loadEntries(r.Context())
	if err != nil {
		InternalServerError("Failed to load entries").Write(w)
		return
	}
	NewResponse().JSON(report.BuildMonthlySeries(list, now)).Write(w)
}

type categoriesResponse struct {
	View report.View `json:"view"`
	report.CategoryBreakdown
}

// parseBreakdownView reads the view query parameter; the dashboard shows
// expenses when none is given.
func parseBreakdownView(r *http.Request) (report.View, error) {
	v := r.URL.Query().Get("view")
	if v == "" {
		return report.ViewExpense, nil
	}
	return report.ParseView(v)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	view, err := parseBreakdownView(r)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	topN := ParseTopN(r.URL.Query(), s.topN)

	list, err := s.loadEntries(r.Context())
	if err != nil {
		InternalServerError("Failed to load entries").Write(w)
		return
	}
	NewResponse().JSON(categoriesResponse{
		View:              view,
		CategoryBreakdown: report.BuildCategoryBreakdown(list, view, topN),
	}).Write(w)
}

type categoryListResponse struct {
	Used      []string            `json:"used"`
	Suggested map[string][]string `json:"suggested"`
}

func (s *Server) handleCategoryList(w http.ResponseWriter, r *http.Request) {
	list, err := s.loadEntries(r.Context())
	if err != nil {
		InternalServerError("Failed to load entries").Write(w)
		return
	}
	used := report.Categories(list)
	if used == nil {
		used = []string{}
	}
	NewResponse().JSON(categoryListResponse{
		Used: used,
		Suggested: map[string][]string{
			string(core.Income):  core.SuggestedCategories(core.Income),
			string(core.Expense): core.SuggestedCategories(core.Expense),
		},
	}).Write(w)
}

// handleExport renders the filtered entries as a PDF download. Exports over
// all time are refused.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	now := s.now()

	criteria, err := ParseCriteria(r.URL.Query(), core.DateOf(now))
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}

	list, err := s.loadEntries(ctx)
	if err != nil {
		InternalServerError("Failed to load entries").Write(w)
		return
	}

	payload, err := report.BuildExportPayload(list, criteria, now)
	if errors.Is(err, report.ErrNoPeriodSelected) {
		UnprocessableEntityError("Please select a time period before exporting").Write(w)
		return
	}
	if err != nil {
		InternalServerError("Failed to build report").Write(w)
		return
	}

	data, err := s.pdf.Bytes(payload)
	if err != nil {
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Failed to render PDF", err, log.OpExport, nil)
		InternalServerError("Failed to render report").Write(w)
		return
	}

	log.FromContext(ctx).Info("Report exported",
		log.FieldDateRange, string(criteria.DateRange),
		log.FieldRows, len(payload.Rows),
	)
	NewResponse().
		Blob("application/pdf", data).
		Attachment(payload.FileName("")).
		Write(w)
}
