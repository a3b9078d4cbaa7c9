package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Prober reports a media file's duration in seconds. Implemented by the
// engine's ffprobe wrapper; it refuses to run until the engine is ready.
type Prober interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// Ingestor turns an uploaded file into a finished catalog clip. It owns the
// clip's bytes on disk: the media file is written under mediaDir, probed for
// its duration, and deleted again when the clip leaves the catalog.
type Ingestor struct {
	store    *Store
	mediaDir string
	prober   Prober
	logger   *slog.Logger
}

func NewIngestor(store *Store, mediaDir string, prober Prober, logger *slog.Logger) *Ingestor {
	return &Ingestor{store: store, mediaDir: mediaDir, prober: prober, logger: logger}
}

// Ingest stores the upload's bytes, probes its duration and adds the clip.
// The written file is removed again if probing fails.
func (i *Ingestor) Ingest(ctx context.Context, filename string, r io.Reader, role Role) (Clip, error) {
	if err := os.MkdirAll(i.mediaDir, 0755); err != nil {
		return Clip{}, fmt.Errorf("failed to create media dir: %w", err)
	}

	ext := filepath.Ext(filename)
	path := filepath.Join(i.mediaDir, NewID()+ext)

	f, err := os.Create(path)
	if err != nil {
		return Clip{}, fmt.Errorf("failed to create media file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(path)
		return Clip{}, fmt.Errorf("failed to write media file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return Clip{}, fmt.Errorf("failed to close media file: %w", err)
	}

	duration, err := i.prober.ProbeDuration(ctx, path)
	if err != nil {
		os.Remove(path)
		return Clip{}, fmt.Errorf("failed to probe %q: %w", filename, err)
	}

	clip := i.store.Add(Clip{
		Name:      filepath.Base(filename),
		Duration:  duration,
		Role:      role,
		Path:      path,
		CreatedAt: time.Now(),
	})

	if i.logger != nil {
		i.logger.Info("clip ingested",
			"clip_id", clip.ID, "name", clip.Name, "role", clip.Role, "duration_s", clip.Duration)
	}
	return clip, nil
}

// Remove deletes the clip and its media file. Absent ids are no-ops.
func (i *Ingestor) Remove(id string) {
	clip, ok := i.store.Remove(id)
	if !ok {
		return
	}
	i.deleteMedia(clip)
}

// Clear removes every clip and its media file.
func (i *Ingestor) Clear() {
	for _, clip := range i.store.Clear() {
		i.deleteMedia(clip)
	}
}

func (i *Ingestor) deleteMedia(clip Clip) {
	if clip.Path == "" {
		return
	}
	if err := os.Remove(clip.Path); err != nil && !os.IsNotExist(err) {
		if i.logger != nil {
			i.logger.Warn("failed to delete media file", "clip_id", clip.ID, "error", err)
		}
	}
}
