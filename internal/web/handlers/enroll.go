package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/kozaktomas/facegate/internal/embedder"
	"github.com/kozaktomas/facegate/internal/enrollment"
	"github.com/kozaktomas/facegate/internal/roster"
)

// maxEnrollImageSize caps enrollment uploads at 16 MiB.
const maxEnrollImageSize = 16 << 20

// EnrollVectorRequest enrolls a precomputed embedding.
type EnrollVectorRequest struct {
	Embedding  []float32      `json:"embedding"`
	FacialArea *roster.Region `json:"facial_area,omitempty"`
	Code       string         `json:"code"`
	Name       string         `json:"name"`
}

// EnrollHandler handles enrollment requests.
type EnrollHandler struct {
	enroller *enrollment.Enroller
}

// NewEnrollHandler creates a new enrollment handler.
func NewEnrollHandler(enroller *enrollment.Enroller) *EnrollHandler {
	return &EnrollHandler{enroller: enroller}
}

// EnrollImage enrolls a student from a multipart image upload. Fields:
// "image" (required), "code" and "name" (optional, defaulted).
func (h *EnrollHandler) EnrollImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxEnrollImageSize); err != nil {
		respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		respondError(w, http.StatusBadRequest, "image is required")
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(io.LimitReader(file, maxEnrollImageSize))
	if err != nil {
		respondError(w, http.StatusBadRequest, "failed to read image")
		return
	}

	student, err := h.enroller.EnrollImage(r.Context(), imageData, r.FormValue("code"), r.FormValue("name"))
	if err != nil {
		respondEnrollError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, student)
}

// EnrollVector enrolls a student from a precomputed embedding.
func (h *EnrollHandler) EnrollVector(w http.ResponseWriter, r *http.Request) {
	var req EnrollVectorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}
	if len(req.Embedding) == 0 {
		respondError(w, http.StatusBadRequest, "embedding is required")
		return
	}

	student, err := h.enroller.EnrollVector(r.Context(), req.Embedding, req.FacialArea, req.Code, req.Name)
	if err != nil {
		respondEnrollError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, student)
}

// respondEnrollError maps pipeline errors to HTTP statuses: identity
// collisions are conflicts, invalid vectors are bad requests, embedding
// model failures are unprocessable uploads.
func respondEnrollError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, roster.ErrDuplicateStudent):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, roster.ErrDimensionMismatch), errors.Is(err, roster.ErrDegenerateVector):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, embedder.ErrEmbeddingFailed):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "enrollment failed")
	}
}
