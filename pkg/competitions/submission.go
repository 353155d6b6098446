package competitions

import (
	"maps"
	"time"
)

// SubmissionStatus is the evaluation state of a submission.
type SubmissionStatus string

// Submission states.
const (
	SubmissionPending    SubmissionStatus = "pending"
	SubmissionProcessing SubmissionStatus = "processing"
	SubmissionEvaluated  SubmissionStatus = "evaluated"
	SubmissionError      SubmissionStatus = "error"
)

// Valid reports whether s is a known status.
func (s SubmissionStatus) Valid() bool {
	switch s {
	case SubmissionPending, SubmissionProcessing, SubmissionEvaluated, SubmissionError:
		return true
	}
	return false
}

// Terminal reports whether evaluation is finished.
func (s SubmissionStatus) Terminal() bool {
	return s == SubmissionEvaluated || s == SubmissionError
}

// Submission is an uploaded model artifact and its evaluation outcome.
type Submission struct {
	ID           string             `json:"id" yaml:"id"`
	EventID      string             `json:"event_id" yaml:"event_id"`
	EventTitle   string             `json:"event_title" yaml:"event_title"`
	UserID       string             `json:"user_id" yaml:"user_id"`
	UserName     string             `json:"user_name" yaml:"user_name"`
	FileName     string             `json:"file_name" yaml:"file_name"`
	FileSize     int64              `json:"file_size" yaml:"file_size"`
	Description  string             `json:"description,omitempty" yaml:"description,omitempty"`
	ArtifactKey  string             `json:"-" yaml:"artifact_key,omitempty"`
	Checksum     string             `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	Status       SubmissionStatus   `json:"status" yaml:"status"`
	Score        *float64           `json:"score,omitempty" yaml:"score,omitempty"`
	Rank         *int               `json:"rank,omitempty" yaml:"rank,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty" yaml:"metrics,omitempty"`
	ErrorMessage string             `json:"error_message,omitempty" yaml:"error_message,omitempty"`
	SubmittedAt  time.Time          `json:"submitted_at" yaml:"submitted_at"`
	EvaluatedAt  *time.Time         `json:"evaluated_at,omitempty" yaml:"evaluated_at,omitempty"`
}

// Clone returns a deep copy of the submission.
func (s *Submission) Clone() *Submission {
	if s == nil {
		return nil
	}
	c := *s
	c.Metrics = maps.Clone(s.Metrics)
	if s.Score != nil {
		v := *s.Score
		c.Score = &v
	}
	if s.Rank != nil {
		v := *s.Rank
		c.Rank = &v
	}
	if s.EvaluatedAt != nil {
		v := *s.EvaluatedAt
		c.EvaluatedAt = &v
	}
	return &c
}

// SameDay reports whether t falls on the same UTC calendar day as day.
func SameDay(t, day time.Time) bool {
	y1, m1, d1 := t.UTC().Date()
	y2, m2, d2 := day.UTC().Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
