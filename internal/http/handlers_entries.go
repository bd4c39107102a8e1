package http

import (
	"errors"
	"net/http"

	"ledger/internal/auth"
	"ledger/internal/core"
	"ledger/internal/entries"
	"ledger/internal/log"
	"ledger/internal/report"
)

type entriesPage struct {
	Entries    []entryResponse     `json:"entries"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	TotalPages int                 `json:"total_pages"`
	TotalItems int                 `json:"total_items"`
	Key        string              `json:"key"`
	Criteria   criteriaResponse    `json:"criteria"`
	Totals     report.PeriodTotals `json:"totals"`
}

// handleListEntries serves one page of the filtered entry table. A client
// whose key no longer matches the criteria is sent back to page 1.
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	today := core.DateOf(s.now())
	query := r.URL.Query()

	criteria, err := ParseCriteria(query, today)
	if err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	params := ParsePageParams(query, s.pageSize)

	// no key means the client has not seen a table yet
	prev := params.Key
	if prev == "" {
		prev = criteria.Key()
	}
	state := report.ResumeTableState(prev, params.Page)
	state.SetCriteria(criteria)

	list, err := s.loadEntries(r.Context())
	if err != nil {
		InternalServerError("Failed to load entries").Write(w)
		return
	}

	view := state.View(list, params.PageSize)

	NewResponse().JSON(entriesPage{
		Entries:    toEntryResponses(view.Rows.Items),
		Page:       view.Rows.Page,
		PageSize:   params.PageSize,
		TotalPages: view.Rows.TotalPages,
		TotalItems: view.Rows.TotalItems,
		Key:        state.Key(),
		Criteria:   toCriteriaResponse(criteria),
		Totals:     view.Totals,
	}).Write(w)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		BadRequestError("Invalid request body").Write(w)
		return
	}

	e, err := ParseEntryInput(parser, core.DateOf(s.now()))
	if err != nil {
		UnprocessableEntityError(validationMessage(err)).Write(w)
		return
	}
	if user, ok := auth.UserFromContext(ctx); ok {
		e.CreatedBy = user.Email
	}

	saved, err := s.store.Create(ctx, e)
	if err != nil {
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Failed to create entry", err, log.OpCreate, log.NewFields().WithEntry(e))
		InternalServerError("Failed to save entry").Write(w)
		return
	}
	log.NewStructuredLogger(log.FromContext(ctx)).LogEntryCreated(ctx, saved)

	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/entries/"+saved.ID).
		JSON(toEntryResponse(saved)).
		Write(w)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := sanitizeInput(r.PathValue("id"))
	if id == "" {
		BadRequestError("Missing entry id").Write(w)
		return
	}

	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, entries.ErrNotFound) {
			NotFoundError("Entry not found").Write(w)
			return
		}
		fields := log.NewFields()
		fields[log.FieldEntryID] = id
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Failed to delete entry", err, log.OpDelete, fields)
		InternalServerError("Failed to delete entry").Write(w)
		return
	}
	log.NewStructuredLogger(log.FromContext(ctx)).LogEntryDeleted(ctx, id)

	w.WriteHeader(http.StatusNoContent)
}
