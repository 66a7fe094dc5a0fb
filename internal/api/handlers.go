package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/sarlens/analyzer/internal/domain"
	"github.com/sarlens/analyzer/internal/ingestion"
	"github.com/sarlens/analyzer/internal/logging"
)

// DefaultMaxUploadBytes caps ledger uploads when no limit is configured.
const DefaultMaxUploadBytes = 32 << 20

// LedgerScorer scores an uploaded ledger. ingestion.Service implements it.
type LedgerScorer interface {
	ScoreLedger(ctx context.Context, data []byte, opts ingestion.LoadOptions) (*ingestion.Result, error)
}

type auditLister interface {
	Recent(ctx context.Context, limit int) ([]domain.AuditRecord, error)
	Count(ctx context.Context) (int, error)
}

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	scorer         LedgerScorer
	auditRecords   auditLister
	maxUploadBytes int64
}

// --- helpers ---

// writeJSON encodes v in full before the status line is written.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logging.L(r.Context()).Error("encode response", "component", "api", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"encode response"}` + "\n"))
		return
	}
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.L(r.Context()).Warn("write response", "component", "api", "error", err)
	}
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, r, status, map[string]string{"error": msg})
}

// writeValidationError reports a rejected ledger with its kind and the
// details carried by the typed error.
func writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	body := map[string]any{
		"error": err.Error(),
		"kind":  domain.ErrorKind(err),
	}

	var (
		missing  *domain.MissingColumnError
		notFound *domain.DateColumnNotFoundError
		badDate  *domain.DateParseError
		badAmt   *domain.InvalidAmountError
		overflow *domain.AmountOverflowError
	)
	switch {
	case errors.As(err, &missing):
		body["columns"] = missing.Columns
	case errors.As(err, &notFound):
		body["available"] = notFound.Available
	case errors.As(err, &badDate):
		body["column"] = badDate.Column
		body["line"] = badDate.Line
		body["value"] = badDate.Value
	case errors.As(err, &badAmt):
		body["line"] = badAmt.Line
		body["value"] = badAmt.Value
	case errors.As(err, &overflow):
		body["statistic"] = overflow.Statistic
	}

	writeJSON(w, r, http.StatusUnprocessableEntity, body)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// --- ScoreLedger ---

func (h *Handlers) ScoreLedger(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "ledger exceeds the upload limit")
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "read file: "+err.Error())
		return
	}

	opts := ingestion.LoadOptions{DateColumn: r.FormValue("date_column")}
	result, err := h.scorer.ScoreLedger(r.Context(), data, opts)
	if err != nil {
		if domain.IsValidation(err) {
			writeValidationError(w, r, err)
			return
		}
		logging.L(r.Context()).Error("score ledger", "component", "api", "error", err)
		writeError(w, r, http.StatusInternalServerError, "scoring failed")
		return
	}

	writeJSON(w, r, http.StatusOK, result.Report)
}

// --- ListAudit ---

func (h *Handlers) ListAudit(w http.ResponseWriter, r *http.Request) {
	if h.auditRecords == nil {
		writeError(w, r, http.StatusNotFound, "audit listing requires the sqlite audit sink")
		return
	}

	limit := parseIntDefault(r.URL.Query().Get("limit"), 50)
	if limit > 500 {
		limit = 500
	}

	records, err := h.auditRecords.Recent(r.Context(), limit)
	if err != nil {
		logging.L(r.Context()).Error("list audit records", "component", "api", "error", err)
		writeError(w, r, http.StatusInternalServerError, "query failed")
		return
	}

	total, err := h.auditRecords.Count(r.Context())
	if err != nil {
		logging.L(r.Context()).Error("count audit records", "component", "api", "error", err)
		writeError(w, r, http.StatusInternalServerError, "query failed")
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]any{
		"data":  records,
		"limit": limit,
		"total": total,
	})
}

// --- Health ---

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
