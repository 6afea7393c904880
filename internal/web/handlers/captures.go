package handlers

import (
	"net/http"
	"strconv"

	"github.com/kozaktomas/facegate/internal/capture"
)

// CapturesResponse lists recorded recognition events.
type CapturesResponse struct {
	Count    int             `json:"count"`
	Captures []capture.Event `json:"captures"`
}

// CapturesHandler serves the recognition audit log.
type CapturesHandler struct {
	store capture.Store
}

// NewCapturesHandler creates a new captures handler. The store may be
// nil when no capture backend is configured.
func NewCapturesHandler(store capture.Store) *CapturesHandler {
	return &CapturesHandler{store: store}
}

// List returns the most recent capture events, newest first. The
// optional "limit" parameter caps the result size (default 100).
func (h *CapturesHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondError(w, http.StatusServiceUnavailable, "capture log not available")
		return
	}

	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	events, err := h.store.List(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list captures")
		return
	}
	if events == nil {
		events = []capture.Event{}
	}

	respondJSON(w, http.StatusOK, CapturesResponse{
		Count:    len(events),
		Captures: events,
	})
}
