package enrollment

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/jpeg"
	"sync"
	"testing"

	"github.com/kozaktomas/facegate/internal/embedder"
	"github.com/kozaktomas/facegate/internal/roster"
)

func testJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}
	return buf.Bytes()
}

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

// fakeProvider returns a canned embedding or error.
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

func TestEnrollVectorAssignsSequentialIDs(t *testing.T) {
	e := New(roster.New(&memStore{}), nil)
	ctx := context.Background()

	first, err := e.EnrollVector(ctx, []float32{1, 0}, nil, "STU-A", "Alice")
	if err != nil {
		t.Fatalf("EnrollVector failed: %v", err)
	}
	second, err := e.EnrollVector(ctx, []float32{0, 1}, nil, "STU-B", "Bob")
	if err != nil {
		t.Fatalf("EnrollVector failed: %v", err)
	}

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("ids = %d, %d, want 1, 2", first.ID, second.ID)
	}
	if first.EnrolledAt.IsZero() {
		t.Error("EnrolledAt was not set")
	}
}

func TestEnrollVectorPlaceholders(t *testing.T) {
	e := New(roster.New(&memStore{}), nil)

	student, err := e.EnrollVector(context.Background(), []float32{1, 0}, nil, "", "")
	if err != nil {
		t.Fatalf("EnrollVector failed: %v", err)
	}
	if student.Code != "STU-1" {
		t.Errorf("Code = %q, want generated STU-1", student.Code)
	}
	if student.Name != "Unknown" {
		t.Errorf("Name = %q, want Unknown", student.Name)
	}
}

func TestEnrollVectorRejectsInvalid(t *testing.T) {
	r := roster.New(&memStore{})
	e := New(r, nil)
	ctx := context.Background()

	if _, err := e.EnrollVector(ctx, []float32{1, 0}, nil, "", ""); err != nil {
		t.Fatalf("EnrollVector failed: %v", err)
	}

	_, err := e.EnrollVector(ctx, []float32{1, 0, 0}, nil, "", "")
	if !errors.Is(err, roster.ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	_, err = e.EnrollVector(ctx, []float32{0, 0}, nil, "", "")
	if !errors.Is(err, roster.ErrDegenerateVector) {
		t.Errorf("expected ErrDegenerateVector, got %v", err)
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d after rejected enrollments, want 1", r.Count())
	}
}

func TestEnrollImage(t *testing.T) {
	provider := &fakeProvider{face: &embedder.FaceEmbedding{
		Embedding:  []float32{0.5, 0.5},
		FacialArea: &embedder.FacialArea{X: 5, Y: 10, W: 50, H: 60},
		Model:      "facenet",
		Dim:        2,
	}}
	r := roster.New(&memStore{})
	e := New(r, provider)

	student, err := e.EnrollImage(context.Background(), testJPEG(t), "STU-A", "Alice")
	if err != nil {
		t.Fatalf("EnrollImage failed: %v", err)
	}
	if student.ID != 1 || student.Code != "STU-A" {
		t.Errorf("enrolled %+v, want id 1 code STU-A", student)
	}
	if student.FacialArea == nil || student.FacialArea.W != 50 {
		t.Errorf("facial area %+v was not carried over", student.FacialArea)
	}
	if r.Count() != 1 {
		t.Errorf("Count = %d, want 1", r.Count())
	}
}

func TestEnrollImageProviderError(t *testing.T) {
	provider := &fakeProvider{err: embedder.ErrNoFaceDetected}
	r := roster.New(&memStore{})
	e := New(r, provider)

	_, err := e.EnrollImage(context.Background(), testJPEG(t), "", "")
	if !errors.Is(err, embedder.ErrNoFaceDetected) {
		t.Errorf("expected ErrNoFaceDetected, got %v", err)
	}
	if r.Count() != 0 {
		t.Errorf("Count = %d after failed embedding, want 0", r.Count())
	}
}

func TestEnrollImageNoProvider(t *testing.T) {
	e := New(roster.New(&memStore{}), nil)

	_, err := e.EnrollImage(context.Background(), testJPEG(t), "", "")
	if !errors.Is(err, embedder.ErrEmbeddingFailed) {
		t.Errorf("expected ErrEmbeddingFailed, got %v", err)
	}
}
