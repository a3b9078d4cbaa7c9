// Package export turns generated sequences into downloadable artifacts: one
// concatenated media file per sequence, or a zip archive for a batch. Every
// export is recorded as a job so the history survives restarts.
package export

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobTypeSequence = "export_sequence"
	JobTypeBatch    = "export_batch"

	JobStatusRunning   = "running"
	JobStatusCompleted = "completed"
	JobStatusFailed    = "failed"
)

// Job is one recorded export attempt.
type Job struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	SequenceID   string    `json:"sequence_id,omitempty"`
	ArtifactName string    `json:"artifact_name,omitempty"`
	Error        string    `json:"error,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Artifact is a finished export: a named byte buffer handed to the caller.
type Artifact struct {
	Name string
	Data []byte
}

// NewJobID returns a fresh job identifier.
func NewJobID() string {
	return uuid.NewString()
}
