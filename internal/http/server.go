package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"ledger/internal/auth"
	"ledger/internal/cache"
	"ledger/internal/charts"
	"ledger/internal/core"
	"ledger/internal/entries"
	"ledger/internal/export"
	"ledger/internal/log"
	"ledger/internal/middleware/ratelimit"
	"ledger/internal/middleware/security"
	"ledger/internal/middleware/trace"
	"ledger/internal/report"
)

// Chart cache sizing when no cache is supplied.
const (
	defaultChartCacheSize = 100
	defaultChartCacheTTL  = 5 * time.Minute
)

// Options configures a Server. Only Store is required.
type Options struct {
	Addr  string
	Store entries.Store
	// Ping reports backend readiness for /readyz.
	Ping func(ctx context.Context) error

	Logger *log.Logger

	// ChartCache holds rendered PNGs; nil uses an in-process LRU.
	ChartCache cache.Cache[[]byte]
	Limiter    *ratelimit.Limiter

	Verifier       *auth.Verifier
	AuthRequired   bool
	TrustedProxies []string

	PageSize       int
	TopCategories  int
	ReportTitle    string
	CurrencySymbol string

	// Now overrides the clock; handlers read it once per request.
	Now func() time.Time
}

type Server struct {
	http.Server

	store  entries.Store
	ping   func(ctx context.Context) error
	logger *log.Logger
	now    func() time.Time

	chartCache cache.Cache[[]byte]
	limiter    *ratelimit.Limiter
	tracer     *trace.Middleware
	ips        *security.IPExtractor

	charts *charts.Renderer
	pdf    *export.PDFRenderer

	pageSize int
	topN     int
	currency string

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentHTTP})
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	chartCache := opts.ChartCache
	if chartCache == nil {
		chartCache = cache.NewLRUCache[[]byte](defaultChartCacheSize, defaultChartCacheTTL)
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = ratelimit.NewLimiter(ratelimit.DefaultConfig())
	}
	symbol := opts.CurrencySymbol
	if symbol == "" {
		symbol = core.DefaultCurrencySymbol
	}

	ips := security.NewIPExtractor()
	for _, cidr := range opts.TrustedProxies {
		if err := ips.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring invalid trusted proxy", "cidr", cidr, "error", err)
		}
	}

	s := &Server{
		store:      opts.Store,
		ping:       opts.Ping,
		logger:     logger,
		now:        now,
		chartCache: chartCache,
		limiter:    limiter,
		tracer:     trace.NewMiddleware(ips.ClientIP, logger),
		ips:        ips,
		charts:     charts.NewRenderer(symbol),
		pdf:        export.NewPDFRenderer(opts.ReportTitle, symbol),
		pageSize:   opts.PageSize,
		topN:       opts.TopCategories,
		currency:   symbol,
	}
	if s.pageSize <= 0 {
		s.pageSize = report.DefaultPageSize
	}
	if s.topN <= 0 {
		s.topN = report.DefaultTopN
	}

	api := http.NewServeMux()
	api.HandleFunc("GET /api/entries", s.handleListEntries)
	api.HandleFunc("POST /api/entries", s.handleCreateEntry)
	api.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteEntry)
	api.HandleFunc("GET /api/summary", s.handleSummary)
	api.HandleFunc("GET /api/trends", s.handleTrends)
	api.HandleFunc("GET /api/categories", s.handleCategories)
	api.HandleFunc("GET /api/categories/list", s.handleCategoryList)
	api.HandleFunc("GET /api/export.pdf", s.handleExport)
	api.HandleFunc("GET /charts/{file}", s.handleChart)

	var handler http.Handler = api
	if opts.Verifier != nil {
		handler = auth.Middleware(opts.Verifier, opts.AuthRequired)(handler)
	}
	handler = limiter.Middleware(ips.ClientIP, TooManyRequests, http.MethodPost, http.MethodDelete)(handler)
	handler = security.NoStore(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("/", handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Limiter exposes the rate limiter so its cleanup loop can be run.
func (s *Server) Limiter() *ratelimit.Limiter {
	return s.limiter
}

// Metrics returns request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

// Shutdown gracefully shuts down the server. Calls after the first are no-ops.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ping != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ping(ctx); err != nil {
			s.logger.Warn("Readiness check failed", log.FieldError, err)
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// loadEntries reads the full entry set the engine aggregates over.
func (s *Server) loadEntries(ctx context.Context) ([]core.Entry, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Failed to list entries", err, log.OpList, nil)
		return nil, err
	}
	return list, nil
}
