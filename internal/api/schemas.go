package api

import (
	"time"

	"github.com/spotforge/spotforge-agent/internal/catalog"
	"github.com/spotforge/spotforge-agent/internal/export"
	"github.com/spotforge/spotforge-agent/internal/sequence"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	EngineState    string `json:"engine_state"`
	ClipsCount     int    `json:"clips_count"`
	SequencesCount int    `json:"sequences_count"`
	LastError      string `json:"last_error,omitempty"`
}

type ClipResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	DurationS float64 `json:"duration_s"`
	Role      string  `json:"role"`
	CreatedAt string  `json:"created_at"`
}

type ClipsResponse struct {
	Clips []ClipResponse `json:"clips"`
}

type RetagRequest struct {
	Role string `json:"role"`
}

type SequenceResponse struct {
	ID        string         `json:"id"`
	DurationS float64        `json:"duration_s"`
	Clips     []ClipResponse `json:"clips"`
}

type SequencesResponse struct {
	Sequences []SequenceResponse `json:"sequences"`
}

type BatchExportRequest struct {
	SequenceIDs []string `json:"sequence_ids,omitempty"`
}

type JobResponse struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	Status       string `json:"status"`
	SequenceID   string `json:"sequence_id,omitempty"`
	ArtifactName string `json:"artifact_name,omitempty"`
	Error        string `json:"error,omitempty"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type JobsResponse struct {
	Jobs []JobResponse `json:"jobs"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func ClipToResponse(c catalog.Clip) ClipResponse {
	return ClipResponse{
		ID:        c.ID,
		Name:      c.Name,
		DurationS: c.Duration,
		Role:      string(c.Role),
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func SequenceToResponse(s sequence.Sequence) SequenceResponse {
	clips := make([]ClipResponse, len(s.Clips))
	for i, c := range s.Clips {
		clips[i] = ClipToResponse(c)
	}
	return SequenceResponse{
		ID:        s.ID,
		DurationS: s.Duration,
		Clips:     clips,
	}
}

func JobToResponse(j *export.Job) JobResponse {
	return JobResponse{
		ID:           j.ID,
		Type:         j.Type,
		Status:       j.Status,
		SequenceID:   j.SequenceID,
		ArtifactName: j.ArtifactName,
		Error:        j.Error,
		CreatedAt:    j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    j.UpdatedAt.Format(time.RFC3339),
	}
}
