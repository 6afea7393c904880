package roster

import "time"

// Region describes the bounding box of the detected face in the source
// image. It is carried for audit and debugging only and never takes part
// in matching.
type Region struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Student is an enrolled identity: one face embedding plus metadata.
// Records are immutable once admitted to the roster.
type Student struct {
	ID         int64     `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	Embedding  []float32 `json:"embedding"`
	FacialArea *Region   `json:"facial_area,omitempty"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// Dim returns the dimensionality of the student's embedding.
func (s *Student) Dim() int {
	return len(s.Embedding)
}
