package roster

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreLoadMissingFile(t *testing.T) {
	store := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))

	students, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load of missing file returned error: %v", err)
	}
	if len(students) != 0 {
		t.Errorf("expected empty population, got %d students", len(students))
	}
}

func TestFileStoreLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	_, err := NewFileStore(path).Load(context.Background())
	if err == nil {
		t.Fatal("expected error for malformed snapshot")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.json")
	store := NewFileStore(path)
	ctx := context.Background()

	enrolled := time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC)
	students := []Student{
		{
			ID:         1,
			Code:       "STU-1",
			Name:       "María López",
			Embedding:  []float32{0.25, -0.5, 1},
			FacialArea: &Region{X: 10, Y: 20, W: 110, H: 120},
			EnrolledAt: enrolled,
		},
		{
			ID:         2,
			Code:       "STU-2",
			Name:       "Unknown",
			Embedding:  []float32{1, 0, 0},
			EnrolledAt: enrolled,
		},
	}

	if err := store.Save(ctx, students); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d students, want 2", len(loaded))
	}

	got := loaded[0]
	if got.ID != 1 || got.Code != "STU-1" || got.Name != "María López" {
		t.Errorf("loaded metadata %+v does not match saved record", got)
	}
	if len(got.Embedding) != 3 || got.Embedding[0] != 0.25 || got.Embedding[1] != -0.5 {
		t.Errorf("loaded embedding %v does not match saved vector", got.Embedding)
	}
	if got.FacialArea == nil || got.FacialArea.W != 110 {
		t.Errorf("loaded facial area %+v does not match saved region", got.FacialArea)
	}
	if !got.EnrolledAt.Equal(enrolled) {
		t.Errorf("loaded EnrolledAt %v, want %v", got.EnrolledAt, enrolled)
	}
	if loaded[1].FacialArea != nil {
		t.Errorf("expected nil facial area, got %+v", loaded[1].FacialArea)
	}
}

// TestRosterRestartReconstruction exercises the restart path: a roster
// appends through the file backend, a fresh roster loads the same file
// and must see identical records.
func TestRosterRestartReconstruction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.json")
	ctx := context.Background()

	first := New(NewFileStore(path))
	student := Student{
		ID:         1,
		Code:       "STU-1",
		Name:       "María López",
		Embedding:  []float32{0.1, 0.9},
		EnrolledAt: time.Date(2026, 3, 15, 8, 30, 0, 0, time.UTC),
	}
	if err := first.Append(ctx, student); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	restarted := New(NewFileStore(path))
	if err := restarted.Load(ctx); err != nil {
		t.Fatalf("Load after restart failed: %v", err)
	}

	snapshot := restarted.Snapshot()
	if len(snapshot) != 1 {
		t.Fatalf("restarted roster has %d students, want 1", len(snapshot))
	}
	got := snapshot[0]
	if got.ID != student.ID || got.Code != student.Code || got.Name != student.Name {
		t.Errorf("reconstructed record %+v differs from enrolled %+v", got, student)
	}
	if len(got.Embedding) != 2 || got.Embedding[0] != 0.1 || got.Embedding[1] != 0.9 {
		t.Errorf("reconstructed embedding %v differs from enrolled %v", got.Embedding, student.Embedding)
	}
	if !got.EnrolledAt.Equal(student.EnrolledAt) {
		t.Errorf("reconstructed EnrolledAt %v, want %v", got.EnrolledAt, student.EnrolledAt)
	}
}

func TestFileStoreReplacesWholeSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.json")
	store := NewFileStore(path)
	ctx := context.Background()

	if err := store.Save(ctx, []Student{{ID: 1, Code: "STU-1", Name: "A", Embedding: []float32{1}}}); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := store.Save(ctx, []Student{{ID: 2, Code: "STU-2", Name: "B", Embedding: []float32{1}}}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(loaded) != 1 || loaded[0].ID != 2 {
		t.Errorf("snapshot was not fully replaced: %+v", loaded)
	}

	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file left behind after save")
	}
}
