package roster

import "errors"

var (
	// ErrDimensionMismatch is returned when a vector's length disagrees
	// with the dimensionality established by the roster's first record.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrDegenerateVector is returned for zero-norm embeddings, which
	// cannot be scored with cosine similarity.
	ErrDegenerateVector = errors.New("degenerate embedding: zero norm")

	// ErrDuplicateStudent is returned when an enrollment collides with
	// an already enrolled student ID.
	ErrDuplicateStudent = errors.New("student already enrolled")

	// ErrSnapshotUnavailable is returned when the durable snapshot could
	// not be loaded or parsed at startup. The roster stays usable (empty).
	ErrSnapshotUnavailable = errors.New("enrollment snapshot unavailable")
)
