package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/kozaktomas/facegate/internal/roster"
)

type memStore struct {
	mu       sync.Mutex
	students []roster.Student
}

func (m *memStore) Load(ctx context.Context) ([]roster.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]roster.Student(nil), m.students...), nil
}

func (m *memStore) Save(ctx context.Context, students []roster.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students = append([]roster.Student(nil), students...)
	return nil
}

// seededRoster returns a roster with two enrolled students on unit
// vectors, convenient for exact-score assertions.
func seededRoster(t *testing.T) *roster.Roster {
	t.Helper()
	r := roster.New(&memStore{})
	students := []roster.Student{
		{ID: 1, Code: "STU-1", Name: "María López", Embedding: []float32{1, 0}},
		{ID: 2, Code: "STU-2", Name: "Bob Smith", Embedding: []float32{0, 1}},
	}
	for _, s := range students {
		if err := r.Append(context.Background(), s); err != nil {
			t.Fatalf("seeding roster: %v", err)
		}
	}
	return r
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
	if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
		t.Fatalf("decoding response body: %v", err)
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, want, rec.Body.String())
	}
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, status int) {
	t.Helper()
	assertStatus(t, rec, status)
	var body map[string]string
	decodeJSON(t, rec, &body)
	if body["error"] == "" {
		t.Error("error response has no error message")
	}
}
