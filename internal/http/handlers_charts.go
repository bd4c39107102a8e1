package http

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"ledger/internal/charts"
	"ledger/internal/log"
	"ledger/internal/report"
)

// chartKey fingerprints the data behind a chart. Identical data renders an
// identical PNG, so the key doubles as the ETag.
func chartKey(name string, data any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(append([]byte(name+"\x00"), raw...))
	return "chart:" + name + ":" + hex.EncodeToString(sum[:16]), nil
}

// handleChart serves /charts/{name}.png for the dashboard charts.
func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok {
		NotFoundError("Unknown chart").Write(w)
		return
	}

	var (
		data   any
		render func() ([]byte, error)
	)
	switch name {
	case charts.Trends, charts.SavingsRate, charts.ExpenseRatio:
		list, err := s.loadEntries(ctx)
		if err != nil {
			InternalServerError("Failed to load entries").Write(w)
			return
		}
		series := report.BuildMonthlySeries(list, s.now())
		data = series
		render = func() ([]byte, error) {
			switch name {
			case charts.SavingsRate:
				return s.charts.SavingsRate(series)
			case charts.ExpenseRatio:
				return s.charts.ExpenseRatio(series)
			}
			return s.charts.Trends(series)
		}
	case charts.Categories:
		view, err := parseBreakdownView(r)
		if err != nil {
			BadRequestError(err.Error()).Write(w)
			return
		}
		list, err := s.loadEntries(ctx)
		if err != nil {
			InternalServerError("Failed to load entries").Write(w)
			return
		}
		breakdown := report.BuildCategoryBreakdown(list, view, ParseTopN(r.URL.Query(), s.topN))
		data = breakdown
		render = func() ([]byte, error) {
			return s.charts.Categories(string(view)+" by Category", breakdown)
		}
	default:
		NotFoundError("Unknown chart").Write(w)
		return
	}

	key, err := chartKey(name, data)
	if err != nil {
		InternalServerError("Failed to render chart").Write(w)
		return
	}
	etag := `"` + key[strings.LastIndexByte(key, ':')+1:] + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	png, hit := s.chartCache.Get(key)
	if !hit {
		png, err = render()
		if errors.Is(err, charts.ErrNoData) {
			NotFoundError("No data to chart").Write(w)
			return
		}
		if err != nil {
			log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Failed to render chart", err, log.OpRender, nil)
			InternalServerError("Failed to render chart").Write(w)
			return
		}
		s.chartCache.Set(key, png)
	}

	NewResponse().
		Header("ETag", etag).
		Header("Cache-Control", "private, max-age=60").
		Blob("image/png", png).
		Write(w)
}
