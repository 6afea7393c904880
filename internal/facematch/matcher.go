package facematch

import (
	"context"
	"fmt"
	"math"

	"github.com/kozaktomas/facegate/internal/roster"
)

// NoMatchConfidence is the confidence reported when there is nothing to
// compare against. It sits below any attainable cosine similarity's
// useful range start, so consumers can tell "empty population" apart
// from a genuine low score only by Matched and Student.
const NoMatchConfidence = -1.0

// Result is the outcome of a single match scan. Confidence is always
// populated, even on a non-match, so callers can tune thresholds
// empirically.
type Result struct {
	Matched    bool
	Confidence float64
	Student    *roster.Student
}

// Match scans the snapshot once and returns the best-scoring student.
//
// A match is declared iff the best score is strictly greater than the
// threshold; a score exactly equal to the threshold is not a match.
// Ties go to the student that appears first in the snapshot, which is
// insertion order, so results are deterministic for a given population.
//
// An empty snapshot returns a non-match with NoMatchConfidence
// regardless of the query shape. Against a non-empty snapshot a query
// of the wrong length fails with roster.ErrDimensionMismatch - that is
// a caller bug, not a biometric non-match.
func Match(ctx context.Context, query []float32, snapshot []roster.Student, threshold float64) (Result, error) {
	if len(snapshot) == 0 {
		return Result{Matched: false, Confidence: NoMatchConfidence}, nil
	}

	if dim := snapshot[0].Dim(); len(query) != dim {
		return Result{}, fmt.Errorf("%w: query has %d dimensions, roster has %d", roster.ErrDimensionMismatch, len(query), dim)
	}

	// Start below any attainable similarity so even a perfect-opposite
	// candidate (score exactly -1) is tracked as the best.
	var best *roster.Student
	bestScore := math.Inf(-1)

	for i := range snapshot {
		// The scan is CPU-bound; honor cancellation between candidates.
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		sim, err := CosineSimilarity(query, snapshot[i].Embedding)
		if err != nil {
			return Result{}, err
		}
		if sim > bestScore {
			bestScore = sim
			best = &snapshot[i]
		}
	}

	if bestScore > threshold {
		return Result{Matched: true, Confidence: bestScore, Student: best}, nil
	}
	return Result{Matched: false, Confidence: bestScore}, nil
}
