// Package facematch implements cosine-similarity scoring and the
// nearest-neighbor matcher that decides which enrolled student, if any,
// a query embedding belongs to.
package facematch

import (
	"fmt"
	"math"

	"github.com/kozaktomas/facegate/internal/roster"
)

// CosineSimilarity computes the cosine of the angle between two vectors,
// a value in [-1, 1]. It runs once per enrolled student per recognition
// request, so it stays O(len) with no allocation.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: got %d, want %d", roster.ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, roster.ErrDegenerateVector
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to absorb floating point drift.
	if sim > 1 {
		sim = 1
	}
	if sim < -1 {
		sim = -1
	}
	return sim, nil
}
