package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	kbase "github.com/arclight-labs/kbase"
	"github.com/arclight-labs/kbase/core"
)

// Handlers adapts the search service to HTTP. Each handler parses transport
// input, delegates, and maps the error taxonomy onto status codes.
type Handlers struct {
	svc    *kbase.Service
	logger *slog.Logger
}

// NewHandlers creates the HTTP handler set for a service.
func NewHandlers(svc *kbase.Service) *Handlers {
	return &Handlers{
		svc:    svc,
		logger: slog.Default().With("component", "server"),
	}
}

// HandleSearch serves GET /api/search?q=...&category=...&from=...&to=...&limit=...&local=...&narrate=...
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := kbase.SearchRequest{
		Query:            q.Get("q"),
		Category:         q.Get("category"),
		DateFrom:         q.Get("from"),
		DateTo:           q.Get("to"),
		LocalOnly:        q.Get("local") == "true",
		IncludeNarration: q.Get("narrate") == "true",
	}
	if s := q.Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			req.Limit = n
		}
	}

	result, err := h.svc.Search(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// HandleStats serves GET /api/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Stats()
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// HandleRandom serves GET /api/random?category=...
func (h *Handlers) HandleRandom(w http.ResponseWriter, r *http.Request) {
	entry, err := h.svc.Random(r.URL.Query().Get("category"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	if entry == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no entries in category"})
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// HandleRebuild serves POST /api/rebuild, forcing an embedding cache build.
func (h *Handlers) HandleRebuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST required"})
		return
	}

	if err := h.svc.RebuildCache(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "rebuilt"})
}

// writeError maps the error taxonomy to HTTP statuses: validation errors are
// client faults, everything else is a server fault.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrValidation):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, core.ErrConfiguration):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
	default:
		h.logger.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}
