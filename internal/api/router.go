package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/sarlens/analyzer/internal/logging"
	"github.com/sarlens/analyzer/internal/metrics"
	"github.com/sarlens/analyzer/internal/repository"
)

// NewRouter creates the Chi router with all API routes mounted. auditRepo
// and collector may be nil; the audit listing and /metrics are then absent.
func NewRouter(
	scorer LedgerScorer,
	auditRepo *repository.AuditRepo,
	collector *metrics.Collector,
	logger *slog.Logger,
	maxUploadBytes int64,
) http.Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handlers{
		scorer:         scorer,
		maxUploadBytes: maxUploadBytes,
	}
	if auditRepo != nil {
		h.auditRecords = auditRepo
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.RequestID)
	r.Use(requestLogger(logger.With("component", "api")))
	r.Use(middleware.Recoverer)
	if collector != nil {
		r.Use(collector.Middleware)
	}

	r.Get("/healthz", h.Health)
	if collector != nil {
		r.Method(http.MethodGet, "/metrics", collector.Handler())
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		// Scoring.
		r.Post("/ledgers/score", h.ScoreLedger)

		// Audit trail.
		r.Get("/audit", h.ListAudit)
	})

	return r
}

// requestLogger attaches a request-scoped logger to the context and logs
// each completed request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqID := middleware.GetReqID(r.Context())

			ctx := logging.WithLogger(r.Context(), logger)
			ctx = logging.WithRequestID(ctx, reqID)
			r = r.WithContext(ctx)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.InfoContext(ctx, "Request completed",
				"request_id", reqID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds())
		})
	}
}
