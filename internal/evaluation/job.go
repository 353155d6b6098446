// Package evaluation runs submitted models through an Evaluator off the
// request path. Jobs flow through a Queue (in-process channel or a Redis
// list) and a Pool of workers hands each one to a Handler with the event's
// evaluation timeout applied.
package evaluation

import (
	"time"

	"github.com/evalia-ai/evalia/pkg/competitions"
)

// Job is one submission awaiting evaluation.
type Job struct {
	SubmissionID string                `json:"submission_id"`
	EventID      string                `json:"event_id"`
	UserID       string                `json:"user_id"`
	ArtifactKey  string                `json:"artifact_key"`
	FileSize     int64                 `json:"file_size"`
	Metrics      []competitions.Metric `json:"metrics"`
	// Reference is the event's current best score, used to keep simulated
	// loss-style scores on the event's scale.
	Reference  *float64      `json:"reference,omitempty"`
	Timeout    time.Duration `json:"timeout"`
	EnqueuedAt time.Time     `json:"enqueued_at"`
}

// Primary returns the primary metric of the job.
func (j Job) Primary() competitions.Metric {
	e := competitions.Event{Metrics: j.Metrics}
	return e.PrimaryMetric()
}

// Result is the outcome of a successful evaluation.
type Result struct {
	Score   float64            `json:"score"`
	Metrics map[string]float64 `json:"metrics"`
}
