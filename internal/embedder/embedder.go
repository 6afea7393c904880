// Package embedder talks to the external face-embedding model. The
// model is an HTTP sidecar (DeepFace-style) that turns an image into a
// fixed-dimension feature vector plus detection metadata. It is treated
// as fallible and slow; nothing in this package caches or retries.
package embedder

import (
	"context"
	"errors"
)

var (
	// ErrEmbeddingFailed is returned when the model could not produce a
	// usable vector for any reason.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrNoFaceDetected is returned when the model finds no face in the
	// image. Wraps ErrEmbeddingFailed.
	ErrNoFaceDetected = errors.New("no face detected")

	// ErrMultipleFaces is returned when the model finds more than one
	// face; enrollment needs exactly one. Wraps ErrEmbeddingFailed.
	ErrMultipleFaces = errors.New("multiple faces detected")
)

// FacialArea is the detected face bounding box in source image pixels.
type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// FaceEmbedding is the model's output for a single detected face.
type FaceEmbedding struct {
	Embedding  []float32
	FacialArea *FacialArea
	DetScore   float64
	Model      string
	Dim        int
}

// Provider computes a face embedding from raw image bytes.
type Provider interface {
	Name() string
	EmbedFace(ctx context.Context, imageData []byte) (*FaceEmbedding, error)
}
