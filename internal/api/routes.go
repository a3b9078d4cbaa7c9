package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/spotforge/spotforge-agent/internal/catalog"
	"github.com/spotforge/spotforge-agent/internal/config"
	"github.com/spotforge/spotforge-agent/internal/engine"
	"github.com/spotforge/spotforge-agent/internal/export"
	"github.com/spotforge/spotforge-agent/internal/sequence"
)

// maxUploadBytes bounds one clip upload. Clips are short by design.
const maxUploadBytes = 256 << 20

func NewRouter(cfg ServerConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware())
	r.Use(RecoveryMiddleware(cfg.Logger))
	r.Use(LoggingMiddleware(cfg.Logger))

	r.Get("/health", healthHandler(cfg))

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Repository, cfg.Logger))

		r.Get("/status", statusHandler(cfg))

		r.Get("/clips", listClipsHandler(cfg))
		r.Post("/clips", uploadClipHandler(cfg))
		r.Patch("/clips/{id}", retagClipHandler(cfg))
		r.Delete("/clips/{id}", deleteClipHandler(cfg))
		r.Delete("/clips", clearClipsHandler(cfg))
		r.Get("/clips/{id}/media", clipMediaHandler(cfg))

		r.Post("/sequences/generate", generateHandler(cfg))
		r.Get("/sequences", listSequencesHandler(cfg))
		r.Delete("/sequences/{id}", deleteSequenceHandler(cfg))

		r.Post("/exports/sequences/{id}", exportSequenceHandler(cfg))
		r.Post("/exports/batch", exportBatchHandler(cfg))

		r.Get("/jobs", listJobsHandler(cfg))
		r.Get("/jobs/{id}", getJobHandler(cfg))
	})

	return r
}

func healthHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uptime := int64(time.Since(cfg.StartTime).Seconds())
		WriteJSON(w, http.StatusOK, HealthResponse{
			Status:   "ok",
			Version:  config.Version,
			UptimeS:  uptime,
			DeviceID: cfg.DeviceID,
		})
	}
}

func statusHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			EngineState:    cfg.Engine.State().String(),
			ClipsCount:     cfg.Catalog.Count(),
			SequencesCount: cfg.Sequences.Count(),
		}

		if jobs, err := cfg.Repository.ListJobs(r.Context(), 10); err == nil {
			for _, j := range jobs {
				if j.Status == export.JobStatusFailed {
					resp.LastError = j.Error
					break
				}
			}
		}

		WriteJSON(w, http.StatusOK, resp)
	}
}

func listClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clips := cfg.Catalog.Clips()
		resp := ClipsResponse{Clips: make([]ClipResponse, len(clips))}
		for i, c := range clips {
			resp.Clips[i] = ClipToResponse(c)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func uploadClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid multipart body", "BAD_REQUEST")
			return
		}

		role, err := catalog.ParseRole(r.FormValue("role"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			WriteError(w, http.StatusBadRequest, "file is required", "BAD_REQUEST")
			return
		}
		defer file.Close()

		clip, err := cfg.Ingestor.Ingest(r.Context(), header.Filename, file, role)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		WriteJSON(w, http.StatusCreated, ClipToResponse(clip))
	}
}

func retagClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req RetagRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
			return
		}

		role, err := catalog.ParseRole(req.Role)
		if err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), "BAD_REQUEST")
			return
		}

		// Retagging an absent id is a no-op by contract.
		cfg.Catalog.Retag(id, role)
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteClipHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Ingestor.Remove(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func clearClipsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Ingestor.Clear()
		w.WriteHeader(http.StatusNoContent)
	}
}

func clipMediaHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		clip, ok := cfg.Catalog.Get(chi.URLParam(r, "id"))
		if !ok {
			WriteError(w, http.StatusNotFound, "clip not found", "NOT_FOUND")
			return
		}
		if clip.Path == "" {
			WriteError(w, http.StatusConflict,
				fmt.Sprintf("clip %q has no media bytes", clip.Name), "MISSING_SOURCE")
			return
		}

		f, err := os.Open(clip.Path)
		if err != nil {
			WriteError(w, http.StatusConflict,
				fmt.Sprintf("clip %q has no media bytes", clip.Name), "MISSING_SOURCE")
			return
		}
		defer f.Close()

		stat, err := f.Stat()
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to stat media file", "INTERNAL_ERROR")
			return
		}

		w.Header().Set("Content-Type", "video/mp4")
		http.ServeContent(w, r, clip.Name, stat.ModTime(), f)
	}
}

func generateHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seqs, err := cfg.Generator.Generate(cfg.Catalog.Clips())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		// A fresh generation replaces the whole batch.
		cfg.Sequences.Replace(seqs)

		resp := SequencesResponse{Sequences: make([]SequenceResponse, len(seqs))}
		for i, s := range seqs {
			resp.Sequences[i] = SequenceToResponse(s)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func listSequencesHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seqs := cfg.Sequences.List()
		resp := SequencesResponse{Sequences: make([]SequenceResponse, len(seqs))}
		for i, s := range seqs {
			resp.Sequences[i] = SequenceToResponse(s)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func deleteSequenceHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cfg.Sequences.Remove(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func exportSequenceHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		seq, ok := cfg.Sequences.Get(chi.URLParam(r, "id"))
		if !ok {
			WriteError(w, http.StatusNotFound, "sequence not found", "NOT_FOUND")
			return
		}

		artifact, err := cfg.Exporter.ExportOne(r.Context(), seq)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeArtifact(w, artifact, "video/mp4")
	}
}

func exportBatchHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BatchExportRequest
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				WriteError(w, http.StatusBadRequest, "invalid request body", "BAD_REQUEST")
				return
			}
		}

		var seqs []sequence.Sequence
		if len(req.SequenceIDs) == 0 {
			seqs = cfg.Sequences.List()
		} else {
			for _, id := range req.SequenceIDs {
				seq, ok := cfg.Sequences.Get(id)
				if !ok {
					WriteError(w, http.StatusNotFound,
						fmt.Sprintf("sequence %s not found", id), "NOT_FOUND")
					return
				}
				seqs = append(seqs, seq)
			}
		}

		if len(seqs) == 0 {
			WriteError(w, http.StatusBadRequest, "no sequences to export", "BAD_REQUEST")
			return
		}

		artifact, err := cfg.Exporter.ExportBatch(r.Context(), seqs)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeArtifact(w, artifact, "application/zip")
	}
}

func listJobsHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs, err := cfg.Repository.ListJobs(r.Context(), 50)
		if err != nil {
			WriteError(w, http.StatusInternalServerError, "failed to list jobs", "INTERNAL_ERROR")
			return
		}

		resp := JobsResponse{Jobs: make([]JobResponse, len(jobs))}
		for i, j := range jobs {
			resp.Jobs[i] = JobToResponse(j)
		}
		WriteJSON(w, http.StatusOK, resp)
	}
}

func getJobHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := cfg.Repository.GetJob(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
			return
		}
		if job == nil {
			WriteError(w, http.StatusNotFound, "job not found", "NOT_FOUND")
			return
		}

		WriteJSON(w, http.StatusOK, JobToResponse(job))
	}
}

func writeArtifact(w http.ResponseWriter, artifact *export.Artifact, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Name))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", len(artifact.Data)))
	w.WriteHeader(http.StatusOK)
	w.Write(artifact.Data)
}

// writeDomainError maps the core error kinds onto HTTP statuses so every
// failure stays attributable to a specific clip/sequence and kind.
func writeDomainError(w http.ResponseWriter, err error) {
	var (
		insufficient *sequence.InsufficientInputError
		missing      *engine.MissingSourceError
		engineErr    *engine.EngineError
		initErr      *engine.InitializationError
	)

	switch {
	case errors.As(err, &insufficient):
		WriteError(w, http.StatusBadRequest, insufficient.Error(), "INSUFFICIENT_INPUT")
	case errors.As(err, &missing):
		WriteError(w, http.StatusConflict, err.Error(), "MISSING_SOURCE")
	case errors.Is(err, engine.ErrNotReady):
		WriteError(w, http.StatusServiceUnavailable, err.Error(), "NOT_READY")
	case errors.As(err, &initErr):
		WriteError(w, http.StatusServiceUnavailable, err.Error(), "INITIALIZATION_ERROR")
	case errors.As(err, &engineErr):
		WriteError(w, http.StatusInternalServerError, err.Error(), "ENGINE_ERROR")
	default:
		WriteError(w, http.StatusInternalServerError, err.Error(), "INTERNAL_ERROR")
	}
}
