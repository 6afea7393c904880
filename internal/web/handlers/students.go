package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/roster"
)

// StudentSummary is a student without the embedding payload; vectors
// are large and of no use to API consumers.
type StudentSummary struct {
	ID         int64          `json:"id"`
	Code       string         `json:"code"`
	Name       string         `json:"name"`
	Dim        int            `json:"dim"`
	FacialArea *roster.Region `json:"facial_area,omitempty"`
	EnrolledAt string         `json:"enrolled_at"`
}

// StudentsResponse lists enrolled students.
type StudentsResponse struct {
	Count    int              `json:"count"`
	Students []StudentSummary `json:"students"`
}

// StudentsHandler serves the enrolled population.
type StudentsHandler struct {
	roster *roster.Roster
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(r *roster.Roster) *StudentsHandler {
	return &StudentsHandler{roster: r}
}

func summarize(s *roster.Student) StudentSummary {
	return StudentSummary{
		ID:         s.ID,
		Code:       s.Code,
		Name:       s.Name,
		Dim:        s.Dim(),
		FacialArea: s.FacialArea,
		EnrolledAt: s.EnrolledAt.Format(time.RFC3339),
	}
}

// List returns enrolled students in enrollment order. The optional "q"
// parameter filters by name or code, diacritic-insensitive.
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := facematch.NormalizeStudentName(r.URL.Query().Get("q"))

	snapshot := h.roster.Snapshot()
	students := make([]StudentSummary, 0, len(snapshot))
	for i := range snapshot {
		s := &snapshot[i]
		if query != "" &&
			!strings.Contains(facematch.NormalizeStudentName(s.Name), query) &&
			!strings.Contains(facematch.NormalizeStudentName(s.Code), query) {
			continue
		}
		students = append(students, summarize(s))
	}

	respondJSON(w, http.StatusOK, StudentsResponse{
		Count:    len(students),
		Students: students,
	})
}

// Get returns a single student by ID.
func (h *StudentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid student id")
		return
	}

	student := h.roster.Get(id)
	if student == nil {
		respondError(w, http.StatusNotFound, "student not found")
		return
	}
	respondJSON(w, http.StatusOK, summarize(student))
}
