// Package capture records recognition events for audit. Whether a
// student was late or absent is not decided here; this is a plain log
// of "device X saw a face at time T and the matcher said Y".
package capture

import (
	"context"
	"time"
)

// Event is a single recognition attempt. StudentID is nil when the
// matcher reported no match.
type Event struct {
	ID         string    `json:"id"`
	StudentID  *int64    `json:"student_id,omitempty"`
	DeviceID   string    `json:"device_id"`
	Matched    bool      `json:"matched"`
	Confidence float64   `json:"confidence"`
	CreatedAt  time.Time `json:"created_at"`
}

// Logger records recognition events.
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// Store is a Logger that can also list recorded events.
type Store interface {
	Logger
	// List returns the most recent events, newest first.
	List(ctx context.Context, limit int) ([]Event, error)
}
