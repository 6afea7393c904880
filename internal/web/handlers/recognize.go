package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/kozaktomas/facegate/internal/recognition"
	"github.com/kozaktomas/facegate/internal/roster"
)

// RecognizeRequest carries the query embedding produced by the kiosk's
// embedding step plus an optional device identifier for audit.
type RecognizeRequest struct {
	Embedding []float32 `json:"embedding"`
	DeviceID  string    `json:"device_id"`
}

// StudentInfo is the identity portion of a recognition response.
type StudentInfo struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// RecognizeResponse reports the match decision. Confidence is present
// on both matches and non-matches.
type RecognizeResponse struct {
	Match      bool         `json:"match"`
	Confidence float64      `json:"confidence"`
	Student    *StudentInfo `json:"student,omitempty"`
	Message    string       `json:"message,omitempty"`
	Timestamp  time.Time    `json:"timestamp"`
}

// RecognizeHandler handles recognition requests.
type RecognizeHandler struct {
	recognizer *recognition.Service
}

// NewRecognizeHandler creates a new recognition handler.
func NewRecognizeHandler(recognizer *recognition.Service) *RecognizeHandler {
	return &RecognizeHandler{recognizer: recognizer}
}

// Recognize matches a query embedding against the enrolled population.
// A dimension mismatch or degenerate vector is a caller bug and comes
// back as 400, never as a "no match".
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	var req RecognizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Embedding) == 0 {
		respondError(w, http.StatusBadRequest, "embedding is required")
		return
	}

	result, err := h.recognizer.Recognize(r.Context(), req.Embedding, req.DeviceID)
	if err != nil {
		switch {
		case errors.Is(err, roster.ErrDimensionMismatch), errors.Is(err, roster.ErrDegenerateVector):
			respondError(w, http.StatusBadRequest, err.Error())
		default:
			respondError(w, http.StatusInternalServerError, "recognition failed")
		}
		return
	}

	resp := RecognizeResponse{
		Match:      result.Matched,
		Confidence: result.Confidence,
		Timestamp:  result.Timestamp,
	}
	if result.Matched {
		resp.Student = &StudentInfo{
			ID:   result.Student.ID,
			Code: result.Student.Code,
			Name: result.Student.Name,
		}
	} else {
		resp.Message = "no match found"
	}
	respondJSON(w, http.StatusOK, resp)
}
