package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spotforge/spotforge-agent/internal/archive"
	"github.com/spotforge/spotforge-agent/internal/engine"
	"github.com/spotforge/spotforge-agent/internal/sequence"
)

// JobRecorder is the slice of Repository the pipeline needs to persist
// export history. A nil recorder disables recording.
type JobRecorder interface {
	CreateJob(ctx context.Context, job *Job) error
	UpdateJobStatus(ctx context.Context, id, status, errorMsg string) error
	UpdateJobArtifact(ctx context.Context, id, artifactName string) error
}

// Pipeline drives sequences through the muxer one at a time. Batches are
// strictly sequential because the muxer wraps a single shared engine;
// serialization itself is enforced inside the engine, the pipeline just
// never tries to overlap work.
type Pipeline struct {
	muxer    engine.Muxer
	packager archive.Packager
	jobs     JobRecorder
	logger   *slog.Logger
}

func NewPipeline(muxer engine.Muxer, packager archive.Packager, jobs JobRecorder, logger *slog.Logger) *Pipeline {
	return &Pipeline{muxer: muxer, packager: packager, jobs: jobs, logger: logger}
}

// ExportOne concatenates one sequence's clips into a single named media
// buffer. Muxer failures propagate unchanged apart from sequence
// attribution; there is no retry.
func (p *Pipeline) ExportOne(ctx context.Context, seq sequence.Sequence) (*Artifact, error) {
	job := p.beginJob(ctx, JobTypeSequence, seq.ID)

	artifact, err := p.exportSequence(ctx, seq)
	if err != nil {
		p.finishJob(ctx, job, "", err)
		return nil, err
	}

	p.finishJob(ctx, job, artifact.Name, nil)
	return artifact, nil
}

// ExportBatch exports the sequences in order and packages the results into
// one zip archive. The batch is all-or-nothing: the first failing sequence
// aborts it, artifacts produced so far are discarded, and the returned
// error names the failing sequence, so a delivered archive is never
// silently partial.
func (p *Pipeline) ExportBatch(ctx context.Context, seqs []sequence.Sequence) (*Artifact, error) {
	if len(seqs) == 0 {
		return nil, fmt.Errorf("export batch: no sequences to export")
	}

	job := p.beginJob(ctx, JobTypeBatch, "")

	entries := make([]archive.Entry, 0, len(seqs))
	for i, seq := range seqs {
		artifact, err := p.exportSequence(ctx, seq)
		if err != nil {
			err = fmt.Errorf("batch aborted at sequence %s: %w", seq.ID, err)
			p.finishJob(ctx, job, "", err)
			return nil, err
		}
		// Position prefix keeps entry names unique even if two short ids
		// ever collide.
		entries = append(entries, archive.Entry{
			Name: fmt.Sprintf("%02d-%s", i+1, artifact.Name),
			Data: artifact.Data,
		})
	}

	packed, err := p.packager.Pack(entries)
	if err != nil {
		err = fmt.Errorf("failed to package batch: %w", err)
		p.finishJob(ctx, job, "", err)
		return nil, err
	}

	name := fmt.Sprintf("sequences-%s.zip", time.Now().Format("20060102-150405"))
	p.finishJob(ctx, job, name, nil)

	if p.logger != nil {
		p.logger.Info("batch export completed", "sequences", len(seqs), "archive", name)
	}
	return &Artifact{Name: name, Data: packed}, nil
}

func (p *Pipeline) exportSequence(ctx context.Context, seq sequence.Sequence) (*Artifact, error) {
	sources := make([][]byte, 0, len(seq.Clips))
	for _, clip := range seq.Clips {
		if clip.Path == "" {
			return nil, fmt.Errorf("sequence %s: clip %q: %w",
				seq.ID, clip.Name, &engine.MissingSourceError{Name: clip.Name})
		}
		data, err := os.ReadFile(clip.Path)
		if err != nil {
			return nil, fmt.Errorf("sequence %s: clip %q: %w",
				seq.ID, clip.Name, &engine.MissingSourceError{Name: clip.Name})
		}
		sources = append(sources, data)
	}

	merged, err := p.muxer.Concatenate(ctx, sources)
	if err != nil {
		return nil, fmt.Errorf("sequence %s: %w", seq.ID, err)
	}

	return &Artifact{Name: ArtifactName(seq), Data: merged}, nil
}

// ArtifactName derives the deterministic download name for a sequence.
func ArtifactName(seq sequence.Sequence) string {
	id := seq.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return SanitizeName(fmt.Sprintf("sequence-%s", id), 64) + ".mp4"
}

func (p *Pipeline) beginJob(ctx context.Context, jobType, sequenceID string) *Job {
	if p.jobs == nil {
		return nil
	}

	now := time.Now()
	job := &Job{
		ID:         NewJobID(),
		Type:       jobType,
		SequenceID: sequenceID,
		Status:     JobStatusRunning,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := p.jobs.CreateJob(ctx, job); err != nil {
		if p.logger != nil {
			p.logger.Warn("failed to record export job", "job_id", job.ID, "error", err)
		}
		return nil
	}
	return job
}

func (p *Pipeline) finishJob(ctx context.Context, job *Job, artifactName string, exportErr error) {
	if job == nil {
		return
	}

	status := JobStatusCompleted
	errMsg := ""
	if exportErr != nil {
		status = JobStatusFailed
		errMsg = exportErr.Error()
	} else if artifactName != "" {
		if err := p.jobs.UpdateJobArtifact(ctx, job.ID, artifactName); err != nil && p.logger != nil {
			p.logger.Warn("failed to record artifact name", "job_id", job.ID, "error", err)
		}
	}

	if err := p.jobs.UpdateJobStatus(ctx, job.ID, status, errMsg); err != nil && p.logger != nil {
		p.logger.Warn("failed to update export job", "job_id", job.ID, "error", err)
	}
}
