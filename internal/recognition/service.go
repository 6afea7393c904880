// Package recognition is the request-facing orchestrator for the "who
// is this face?" question.
package recognition

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/facegate/internal/capture"
	"github.com/kozaktomas/facegate/internal/facematch"
	"github.com/kozaktomas/facegate/internal/roster"
)

// Result is the shaped recognition outcome. Confidence is reported even
// on a non-match so operators can tune the threshold empirically.
type Result struct {
	Matched    bool
	Confidence float64
	Student    *roster.Student
	Timestamp  time.Time
}

// Service answers recognition queries against the roster with a fixed,
// configured threshold.
type Service struct {
	roster    *roster.Roster
	threshold float64
	captures  capture.Logger // optional; nil disables audit logging
}

// New creates a recognition service. The capture logger may be nil.
func New(r *roster.Roster, threshold float64, captures capture.Logger) *Service {
	return &Service{roster: r, threshold: threshold, captures: captures}
}

// Threshold returns the configured decision threshold.
func (s *Service) Threshold() float64 {
	return s.threshold
}

// Recognize scans the current roster snapshot for the closest enrolled
// student. Matching is deterministic: the same query against an
// unchanged roster always yields the same result. The scan itself is
// read-only and safe to run concurrently with enrollments.
func (s *Service) Recognize(ctx context.Context, query []float32, deviceID string) (Result, error) {
	match, err := facematch.Match(ctx, query, s.roster.Snapshot(), s.threshold)
	if err != nil {
		return Result{}, err
	}

	result := Result{
		Matched:    match.Matched,
		Confidence: match.Confidence,
		Student:    match.Student,
		Timestamp:  time.Now().UTC(),
	}
	s.logCapture(ctx, result, deviceID)
	return result, nil
}

// logCapture records the event best-effort; audit failures never fail a
// recognition request.
func (s *Service) logCapture(ctx context.Context, result Result, deviceID string) {
	if s.captures == nil {
		return
	}
	if deviceID == "" {
		deviceID = "unknown"
	}

	event := capture.Event{
		ID:         uuid.NewString(),
		DeviceID:   deviceID,
		Matched:    result.Matched,
		Confidence: result.Confidence,
		CreatedAt:  result.Timestamp,
	}
	if result.Student != nil {
		event.StudentID = &result.Student.ID
	}

	if err := s.captures.Log(ctx, event); err != nil {
		log.Printf("warning: failed to record capture event: %v", err)
	}
}
