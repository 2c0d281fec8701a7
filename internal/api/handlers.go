package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"codepad/internal/billing"
	"codepad/internal/entitle"
	"codepad/internal/history"
	"codepad/internal/identity"
	"codepad/internal/language"
	"codepad/internal/monitor"
	"codepad/internal/storage"
)

// HistoryReader queries stored execution records. *storage.DB
// satisfies it; tests substitute fakes.
type HistoryReader interface {
	ListExecutions(ctx context.Context, filter storage.HistoryFilter) ([]storage.ExecutionRecord, error)
	GetExecution(ctx context.Context, id, userID string) (*storage.ExecutionRecord, error)
}

type Handlers struct {
	registry *language.Registry
	sessions *SessionManager
	hist     *history.Writer    // nil when no database is configured
	reader   HistoryReader      // nil when no database is configured
	webhooks *billing.Processor // nil when billing is not configured
	metrics  *monitor.Metrics
	ident    identity.Provider
}

func NewHandlers(registry *language.Registry, sessions *SessionManager, hist *history.Writer, reader HistoryReader, webhooks *billing.Processor, metrics *monitor.Metrics) *Handlers {
	return &Handlers{
		registry: registry,
		sessions: sessions,
		hist:     hist,
		reader:   reader,
		webhooks: webhooks,
		metrics:  metrics,
		ident:    identity.ContextProvider{},
	}
}

func (h *Handlers) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	writeJSON(w, http.StatusCreated, s.state())
}

func (h *Handlers) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (h *Handlers) HandleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.sessions.Delete(r.PathValue("id")) {
		writeError(w, "session not found", "NOT_FOUND", http.StatusNotFound, r)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleUpdateBuffer(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	var req UpdateBufferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid JSON: "+err.Error(), "INVALID_REQUEST", http.StatusBadRequest, r)
		return
	}

	s.buffer.SetValue(req.Code)
	writeJSON(w, http.StatusOK, s.state())
}

func (h *Handlers) HandleSetLanguage(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	var req SetLanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid JSON: "+err.Error(), "INVALID_REQUEST", http.StatusBadRequest, r)
		return
	}

	if err := s.store.SetLanguage(req.Language); err != nil {
		writeError(w, err.Error(), "UNSUPPORTED_LANGUAGE", http.StatusBadRequest, r)
		return
	}
	writeJSON(w, http.StatusOK, s.state())
}

func (h *Handlers) HandleSetTheme(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	var req SetThemeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid JSON: "+err.Error(), "INVALID_REQUEST", http.StatusBadRequest, r)
		return
	}

	s.store.SetTheme(req.Theme)
	writeJSON(w, http.StatusOK, s.state())
}

func (h *Handlers) HandleSetFontSize(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	var req SetFontSizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid JSON: "+err.Error(), "INVALID_REQUEST", http.StatusBadRequest, r)
		return
	}

	s.store.SetFontSize(req.FontSize)
	writeJSON(w, http.StatusOK, s.state())
}

// HandleRun drives the orchestration: run the session's buffer, then
// persist a history record if the caller is authenticated and
// entitled. A denied save never blocks the execution result.
func (h *Handlers) HandleRun(w http.ResponseWriter, r *http.Request) {
	s := h.session(w, r)
	if s == nil {
		return
	}

	h.metrics.CodeSizeBytes.Observe(float64(len(s.store.Code())))
	h.metrics.ActiveRuns.Inc()
	defer h.metrics.ActiveRuns.Dec()

	before := s.store.LastResult()
	start := time.Now()
	s.store.Run(r.Context())
	duration := time.Since(start)

	resp := RunResponse{SessionState: s.state()}

	result := s.store.LastResult()
	if result == nil || result == before {
		// No attempt was made (empty buffer); the state carries the
		// local validation error.
		writeJSON(w, http.StatusOK, resp)
		return
	}

	h.metrics.RecordExecution(resp.Language, string(result.Outcome), duration.Seconds())
	h.metrics.OutputSizeBytes.Observe(float64(len(result.Output) + len(result.ErrorText)))

	resp.History = h.saveHistory(r.Context(), resp.Language, result.SourceText, result.Output, result.ErrorText)
	writeJSON(w, http.StatusOK, resp)
}

// saveHistory runs the gated write path. No identity is a silent
// skip: history is a bonus, not the user's goal.
func (h *Handlers) saveHistory(ctx context.Context, languageID, sourceText, outputText, errorText string) HistoryStatus {
	id, err := h.ident.Current(ctx)
	if err != nil {
		h.metrics.RecordHistoryWrite("skipped")
		return HistoryStatus{Reason: "not_authenticated"}
	}
	if h.hist == nil {
		h.metrics.RecordHistoryWrite("unavailable")
		return HistoryStatus{Reason: "unavailable"}
	}

	rec, err := h.hist.Save(ctx, id, languageID, sourceText, outputText, errorText)
	switch {
	case err == nil:
		h.metrics.RecordHistoryWrite("saved")
		return HistoryStatus{Saved: true, RecordID: rec.ID}
	case errors.Is(err, entitle.ErrProRequired):
		h.metrics.RecordHistoryWrite("denied")
		return HistoryStatus{Reason: "pro_required"}
	case errors.Is(err, entitle.ErrNotAuthenticated):
		h.metrics.RecordHistoryWrite("skipped")
		return HistoryStatus{Reason: "not_authenticated"}
	default:
		h.metrics.RecordHistoryWrite("error")
		log.Error().Err(err).Str("user_id", id.Subject).Msg("history write failed")
		return HistoryStatus{Reason: "error"}
	}
}

func (h *Handlers) HandleListLanguages(w http.ResponseWriter, r *http.Request) {
	configs := h.registry.List()
	infos := make([]LanguageInfo, 0, len(configs))
	for _, cfg := range configs {
		infos = append(infos, LanguageInfo{
			ID:             cfg.ID,
			DisplayName:    cfg.DisplayName,
			EditorSyntaxID: cfg.EditorSyntaxID,
			RuntimeName:    cfg.RuntimeName,
			RuntimeVersion: cfg.RuntimeVersion,
			DefaultSource:  cfg.DefaultSource,
		})
	}
	writeJSON(w, http.StatusOK, infos)
}

func (h *Handlers) HandleListExecutions(w http.ResponseWriter, r *http.Request) {
	id, err := h.ident.Current(r.Context())
	if err != nil {
		writeError(w, "authentication required", "AUTH_REQUIRED", http.StatusUnauthorized, r)
		return
	}
	if h.reader == nil {
		writeError(w, "history not configured", "DB_UNAVAILABLE", http.StatusServiceUnavailable, r)
		return
	}

	filter := storage.HistoryFilter{
		UserID:   id.Subject,
		Language: r.URL.Query().Get("language"),
		Limit:    100,
	}

	recs, err := h.reader.ListExecutions(r.Context(), filter)
	if err != nil {
		writeError(w, "query failed", "INTERNAL", http.StatusInternalServerError, r)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *Handlers) HandleGetExecution(w http.ResponseWriter, r *http.Request) {
	id, err := h.ident.Current(r.Context())
	if err != nil {
		writeError(w, "authentication required", "AUTH_REQUIRED", http.StatusUnauthorized, r)
		return
	}
	if h.reader == nil {
		writeError(w, "history not configured", "DB_UNAVAILABLE", http.StatusServiceUnavailable, r)
		return
	}

	rec, err := h.reader.GetExecution(r.Context(), r.PathValue("id"), id.Subject)
	if err != nil {
		writeError(w, "execution not found", "NOT_FOUND", http.StatusNotFound, r)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handlers) HandleBillingWebhook(w http.ResponseWriter, r *http.Request) {
	if h.webhooks == nil {
		writeError(w, "billing not configured", "BILLING_UNAVAILABLE", http.StatusServiceUnavailable, r)
		return
	}

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, "reading body: "+err.Error(), "INVALID_REQUEST", http.StatusBadRequest, r)
		return
	}

	err = h.webhooks.Handle(r.Context(), payload, r.Header.Get("X-Signature"))
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "processed"})
	case errors.Is(err, billing.ErrInvalidSignature):
		writeError(w, "invalid signature", "INVALID_SIGNATURE", http.StatusUnauthorized, r)
	case errors.Is(err, billing.ErrUnknownEvent):
		// Acknowledge events we don't act on so the provider stops retrying.
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
	default:
		log.Error().Err(err).Msg("billing webhook failed")
		writeError(w, "webhook processing failed", "INTERNAL", http.StatusInternalServerError, r)
	}
}

// session resolves the path's session ID, writing a 404 on miss.
func (h *Handlers) session(w http.ResponseWriter, r *http.Request) *hostedSession {
	s := h.sessions.Get(r.PathValue("id"))
	if s == nil {
		writeError(w, "session not found", "NOT_FOUND", http.StatusNotFound, r)
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, msg, code string, status int, r *http.Request) {
	resp := ErrorResponse{
		Error:     msg,
		Code:      code,
		RequestID: RequestIDFromContext(r.Context()),
	}
	writeJSON(w, status, resp)
}
