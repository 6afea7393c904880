// Package roster holds the enrolled student population in memory and
// keeps a durable snapshot of it in sync. It is the single source of
// truth for recognition: the matcher scans roster snapshots, enrollment
// appends to it.
package roster

import (
	"context"
	"fmt"
	"log"
	"sync"
)

// Roster is the in-memory population of enrolled students.
//
// Records are append-only and immutable: an append adds a fully
// constructed Student to the end of the slice and existing entries are
// never touched again. Snapshot therefore hands out the current slice
// header as a frozen, internally consistent view; a concurrent append
// cannot tear or reorder records a reader already sees.
type Roster struct {
	mu       sync.RWMutex
	students []Student
	ids      map[int64]struct{}
	dim      int

	// persistMu serializes durable snapshot writes so two concurrent
	// enrollments cannot interleave file contents.
	persistMu sync.Mutex
	backend   SnapshotStore
}

// New creates an empty roster backed by the given snapshot store.
// Call Load before admitting readers or writers.
func New(backend SnapshotStore) *Roster {
	return &Roster{
		ids:     make(map[int64]struct{}),
		backend: backend,
	}
}

// Load replaces the roster contents with the durable snapshot.
//
// Load fails softly: if the snapshot is absent or malformed the roster
// starts empty and the error (wrapping ErrSnapshotUnavailable) is
// returned for the operator to log. An empty roster is a degraded state,
// not a fatal one - every recognition request simply reports no match.
func (r *Roster) Load(ctx context.Context) error {
	students, err := r.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshotUnavailable, err)
	}

	ids := make(map[int64]struct{}, len(students))
	dim := 0
	for i := range students {
		s := &students[i]
		if dim == 0 {
			dim = s.Dim()
		}
		if err := validateStudent(s, dim, ids); err != nil {
			return fmt.Errorf("%w: record %d (student %d): %v", ErrSnapshotUnavailable, i, s.ID, err)
		}
		ids[s.ID] = struct{}{}
	}

	r.mu.Lock()
	r.students = students
	r.ids = ids
	r.dim = dim
	r.mu.Unlock()
	return nil
}

// Append validates and admits a new student record, makes it visible to
// subsequent snapshots, then rewrites the durable snapshot.
//
// A persistence failure does not roll back the in-memory append: the
// student stays recognizable for the remainder of the process even if
// durability lags. The failure is logged for the operator instead of
// being surfaced, so callers can treat a nil error as "enrolled".
func (r *Roster) Append(ctx context.Context, s Student) error {
	// Clone the embedding so the admitted record cannot alias caller
	// memory; immutability of admitted records is what makes lock-free
	// snapshot reads safe.
	s.Embedding = append([]float32(nil), s.Embedding...)

	r.mu.Lock()
	if err := validateStudent(&s, r.dim, r.ids); err != nil {
		r.mu.Unlock()
		return err
	}
	if r.dim == 0 {
		r.dim = s.Dim()
	}
	r.students = append(r.students, s)
	r.ids[s.ID] = struct{}{}
	r.mu.Unlock()

	r.persistMu.Lock()
	defer r.persistMu.Unlock()
	if err := r.backend.Save(ctx, r.Snapshot()); err != nil {
		log.Printf("warning: failed to persist enrollment snapshot: %v", err)
	}
	return nil
}

// validateStudent checks a candidate record against the established
// dimensionality and the set of enrolled IDs. dim == 0 means no record
// has been admitted yet, so any non-empty vector establishes it.
func validateStudent(s *Student, dim int, ids map[int64]struct{}) error {
	if s.Dim() == 0 || (dim != 0 && s.Dim() != dim) {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, s.Dim(), dim)
	}
	if isZeroVector(s.Embedding) {
		return ErrDegenerateVector
	}
	if _, ok := ids[s.ID]; ok {
		return fmt.Errorf("%w: id %d", ErrDuplicateStudent, s.ID)
	}
	return nil
}

func isZeroVector(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Snapshot returns a consistent, point-in-time view of the enrolled
// population in insertion order. The returned slice must be treated as
// read-only; it stays valid and unchanged even while appends happen
// concurrently.
func (r *Roster) Snapshot() []Student {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.students[:len(r.students):len(r.students)]
}

// Count returns the number of enrolled students.
func (r *Roster) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.students)
}

// Dim returns the established embedding dimensionality, or 0 if the
// roster is empty and no dimensionality has been established yet.
func (r *Roster) Dim() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.dim
}

// Get returns the student with the given ID, or nil if not enrolled.
func (r *Roster) Get(id int64) *Student {
	snapshot := r.Snapshot()
	for i := range snapshot {
		if snapshot[i].ID == id {
			return &snapshot[i]
		}
	}
	return nil
}
