// Package enrollment turns an externally produced face embedding into a
// durable, matchable student record.
package enrollment

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/facegate/internal/embedder"
	"github.com/kozaktomas/facegate/internal/roster"
)

// Enroller validates new embeddings and commits them to the roster.
type Enroller struct {
	roster   *roster.Roster
	provider embedder.Provider
}

// New creates an enroller. The provider may be nil if only
// EnrollVector is used (the embedding is computed upstream).
func New(r *roster.Roster, provider embedder.Provider) *Enroller {
	return &Enroller{roster: r, provider: provider}
}

// EnrollVector admits an already-computed embedding. Code and name
// default to generated placeholders when absent. The new student ID is
// the current population size plus one.
func (e *Enroller) EnrollVector(ctx context.Context, vec []float32, area *roster.Region, code, name string) (roster.Student, error) {
	id := int64(e.roster.Count()) + 1
	if code == "" {
		code = fmt.Sprintf("STU-%d", id)
	}
	if name == "" {
		name = "Unknown"
	}

	student := roster.Student{
		ID:         id,
		Code:       code,
		Name:       name,
		Embedding:  vec,
		FacialArea: area,
		EnrolledAt: time.Now().UTC(),
	}

	if err := e.roster.Append(ctx, student); err != nil {
		return roster.Student{}, err
	}
	return student, nil
}

// EnrollImage runs the image through the embedding model and admits the
// result. Model failures (no face, multiple faces, model error) surface
// as embedder errors and no partial record is created.
func (e *Enroller) EnrollImage(ctx context.Context, imageData []byte, code, name string) (roster.Student, error) {
	if e.provider == nil {
		return roster.Student{}, fmt.Errorf("%w: no embedding provider configured", embedder.ErrEmbeddingFailed)
	}

	prepared, err := embedder.PrepareImage(imageData)
	if err != nil {
		return roster.Student{}, fmt.Errorf("%w: %v", embedder.ErrEmbeddingFailed, err)
	}

	face, err := e.provider.EmbedFace(ctx, prepared)
	if err != nil {
		return roster.Student{}, err
	}

	var area *roster.Region
	if face.FacialArea != nil {
		area = &roster.Region{
			X: face.FacialArea.X,
			Y: face.FacialArea.Y,
			W: face.FacialArea.W,
			H: face.FacialArea.H,
		}
	}
	return e.EnrollVector(ctx, face.Embedding, area, code, name)
}
