package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kozaktomas/facegate/internal/embedder"
	"github.com/kozaktomas/facegate/internal/enrollment"
	"github.com/kozaktomas/facegate/internal/roster"
)

type fakeProvider struct {
	face *embedder.FaceEmbedding
	err  error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) EmbedFace(ctx context.Context, imageData []byte) (*embedder.FaceEmbedding, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.face, nil
}

func enrollVectorRequest(t *testing.T, handler *EnrollHandler, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshaling request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/enroll/vector", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	handler.EnrollVector(rec, req)
	return rec
}

func imageUploadRequest(t *testing.T, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("image", "face.jpg")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if err := jpeg.Encode(part, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("writing field %s: %v", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/enroll", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestEnrollVectorHandler(t *testing.T) {
	r := roster.New(&memStore{})
	handler := NewEnrollHandler(enrollment.New(r, nil))

	rec := enrollVectorRequest(t, handler, EnrollVectorRequest{
		Embedding: []float32{0.5, 0.5},
		Code:      "STU-A",
		Name:      "Alice",
	})
	assertStatus(t, rec, http.StatusCreated)

	var student roster.Student
	decodeJSON(t, rec, &student)
	if student.ID != 1 || student.Code != "STU-A" || student.Name != "Alice" {
		t.Errorf("enrolled %+v, want id 1 STU-A Alice", student)
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d, want 1", r.Count())
	}
}

func TestEnrollVectorHandlerDefaults(t *testing.T) {
	handler := NewEnrollHandler(enrollment.New(roster.New(&memStore{}), nil))

	rec := enrollVectorRequest(t, handler, EnrollVectorRequest{Embedding: []float32{1, 0}})
	assertStatus(t, rec, http.StatusCreated)

	var student roster.Student
	decodeJSON(t, rec, &student)
	if student.Code != "STU-1" || student.Name != "Unknown" {
		t.Errorf("defaults = %q/%q, want STU-1/Unknown", student.Code, student.Name)
	}
}

func TestEnrollVectorHandlerBadRequests(t *testing.T) {
	r := seededRoster(t)
	handler := NewEnrollHandler(enrollment.New(r, nil))

	t.Run("invalid json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/enroll/vector", strings.NewReader("nope"))
		rec := httptest.NewRecorder()
		handler.EnrollVector(rec, req)
		assertError(t, rec, http.StatusBadRequest)
	})

	t.Run("missing embedding", func(t *testing.T) {
		rec := enrollVectorRequest(t, handler, EnrollVectorRequest{Code: "STU-X"})
		assertError(t, rec, http.StatusBadRequest)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		rec := enrollVectorRequest(t, handler, EnrollVectorRequest{Embedding: []float32{1, 0, 0}})
		assertError(t, rec, http.StatusBadRequest)
	})

	t.Run("degenerate vector", func(t *testing.T) {
		rec := enrollVectorRequest(t, handler, EnrollVectorRequest{Embedding: []float32{0, 0}})
		assertError(t, rec, http.StatusBadRequest)
	})
}

func TestEnrollImageHandler(t *testing.T) {
	provider := &fakeProvider{face: &embedder.FaceEmbedding{
		Embedding:  []float32{0.5, 0.5},
		FacialArea: &embedder.FacialArea{X: 1, Y: 2, W: 30, H: 40},
		Model:      "facenet",
		Dim:        2,
	}}
	r := roster.New(&memStore{})
	handler := NewEnrollHandler(enrollment.New(r, provider))

	req := imageUploadRequest(t, map[string]string{"code": "STU-A", "name": "Alice"})
	rec := httptest.NewRecorder()
	handler.EnrollImage(rec, req)
	assertStatus(t, rec, http.StatusCreated)

	var student roster.Student
	decodeJSON(t, rec, &student)
	if student.Code != "STU-A" || student.Name != "Alice" {
		t.Errorf("enrolled %+v, want STU-A Alice", student)
	}
	if student.FacialArea == nil || student.FacialArea.W != 30 {
		t.Errorf("facial area %+v not carried over", student.FacialArea)
	}
}

func TestEnrollImageHandlerMissingImage(t *testing.T) {
	handler := NewEnrollHandler(enrollment.New(roster.New(&memStore{}), &fakeProvider{}))

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if err := writer.WriteField("name", "Alice"); err != nil {
		t.Fatalf("writing field: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/enroll", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.EnrollImage(rec, req)
	assertError(t, rec, http.StatusBadRequest)
}

func TestEnrollImageHandlerEmbeddingFailures(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"no face", fmt.Errorf("%w: %w", embedder.ErrEmbeddingFailed, embedder.ErrNoFaceDetected)},
		{"multiple faces", fmt.Errorf("%w: %w", embedder.ErrEmbeddingFailed, embedder.ErrMultipleFaces)},
		{"model error", embedder.ErrEmbeddingFailed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewEnrollHandler(enrollment.New(roster.New(&memStore{}), &fakeProvider{err: tc.err}))

			req := imageUploadRequest(t, nil)
			rec := httptest.NewRecorder()
			handler.EnrollImage(rec, req)
			assertError(t, rec, http.StatusUnprocessableEntity)
		})
	}
}

func TestEnrollVectorHandlerDuplicate(t *testing.T) {
	r := roster.New(&memStore{})
	ctx := context.Background()
	if err := r.Append(ctx, roster.Student{ID: 1, Code: "STU-1", Name: "Alice", Embedding: []float32{1, 0}}); err != nil {
		t.Fatalf("seeding roster: %v", err)
	}

	// Force an ID collision directly against the population to confirm
	// the conflict mapping.
	err := r.Append(ctx, roster.Student{ID: 1, Code: "STU-X", Name: "Mallory", Embedding: []float32{0, 1}})
	rec := httptest.NewRecorder()
	respondEnrollError(rec, err)
	assertError(t, rec, http.StatusConflict)
}
