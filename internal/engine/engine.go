// Package engine wraps the external ffmpeg/ffprobe binaries behind a
// working-area abstraction with an explicit readiness state machine. The
// engine instance is a process-wide singleton handle passed explicitly into
// its consumers; concatenations are serialized internally because the
// underlying engine cannot run two operations at once.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"sync"
)

const (
	manifestName = "concat.txt"
	outputName   = "output.mp4"
)

// Runner executes an external command and returns its combined output.
// Injected so tests can fake the ffmpeg processes.
type Runner interface {
	Run(ctx context.Context, bin string, args ...string) ([]byte, error)
}

// ExecRunner runs commands through os/exec.
type ExecRunner struct{}

func (ExecRunner) Run(ctx context.Context, bin string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, bin, args...).CombinedOutput()
}

// Muxer is the concatenation surface the export pipeline depends on.
type Muxer interface {
	Concatenate(ctx context.Context, sources [][]byte) ([]byte, error)
}

type Config struct {
	FFmpegBin  string
	FFprobeBin string
	WorkArea   WorkArea
	Runner     Runner
	Logger     *slog.Logger
}

// FFmpeg is the real engine. Zero-value bins default to the binaries on
// PATH; a nil runner defaults to ExecRunner.
type FFmpeg struct {
	ffmpegBin  string
	ffprobeBin string
	work       WorkArea
	runner     Runner
	logger     *slog.Logger
	gate       *gate

	// mu serializes every ffmpeg invocation: the engine is single-flight
	// by construction, not by caller discipline.
	mu sync.Mutex
}

func New(cfg Config) *FFmpeg {
	if cfg.FFmpegBin == "" {
		cfg.FFmpegBin = "ffmpeg"
	}
	if cfg.FFprobeBin == "" {
		cfg.FFprobeBin = "ffprobe"
	}
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner{}
	}
	return &FFmpeg{
		ffmpegBin:  cfg.FFmpegBin,
		ffprobeBin: cfg.FFprobeBin,
		work:       cfg.WorkArea,
		runner:     cfg.Runner,
		logger:     cfg.Logger,
		gate:       newGate(),
	}
}

// Initialize performs the one-time setup probe. Only the first call runs
// it; later calls return immediately with the recorded outcome once it is
// known. Every other operation refuses to run until this has succeeded.
func (f *FFmpeg) Initialize(ctx context.Context) error {
	if !f.gate.begin() {
		<-f.gate.done
		return f.gate.check()
	}

	for _, bin := range []string{f.ffmpegBin, f.ffprobeBin} {
		if out, err := f.runner.Run(ctx, bin, "-version"); err != nil {
			initErr := &InitializationError{Err: fmt.Errorf("%s probe: %w: %s", bin, err, strings.TrimSpace(string(out)))}
			f.gate.fail(initErr)
			if f.logger != nil {
				f.logger.Error("media engine initialization failed", "bin", bin, "error", err)
			}
			return initErr
		}
	}

	f.gate.succeed()
	if f.logger != nil {
		f.logger.Info("media engine ready", "ffmpeg", f.ffmpegBin, "ffprobe", f.ffprobeBin)
	}
	return nil
}

// State returns the readiness state.
func (f *FFmpeg) State() State {
	return f.gate.current()
}

// Done is closed once initialization has finished, ready or failed.
func (f *FFmpeg) Done() <-chan struct{} {
	return f.gate.done
}

// Concatenate registers the ordered sources and a manifest in the working
// area, runs the fixed stream-copy concat command, and reads the merged
// output back. Every registered entry is removed before returning, also
// when the invocation fails.
func (f *FFmpeg) Concatenate(ctx context.Context, sources [][]byte) ([]byte, error) {
	if err := f.gate.check(); err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("concatenate: no input sources")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var registered []string
	defer func() {
		for _, name := range registered {
			if err := f.work.Remove(name); err != nil && f.logger != nil {
				f.logger.Warn("failed to remove work area entry", "name", name, "error", err)
			}
		}
	}()
	// The output is removed unconditionally: a failed run may have left a
	// partial file behind.
	registered = append(registered, outputName)

	var manifest strings.Builder
	for i, src := range sources {
		name := fmt.Sprintf("input%d", i)
		if len(src) == 0 {
			return nil, &MissingSourceError{Name: name}
		}
		if err := f.work.Write(name, src); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", name, err)
		}
		registered = append(registered, name)
		fmt.Fprintf(&manifest, "file '%s'\n", f.work.Path(name))
	}

	if err := f.work.Write(manifestName, []byte(manifest.String())); err != nil {
		return nil, fmt.Errorf("failed to register manifest: %w", err)
	}
	registered = append(registered, manifestName)

	out, err := f.runner.Run(ctx, f.ffmpegBin,
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", f.work.Path(manifestName),
		"-c", "copy",
		f.work.Path(outputName),
	)
	if err != nil {
		return nil, &EngineError{Output: strings.TrimSpace(string(out)), Err: err}
	}

	merged, err := f.work.Read(outputName)
	if err != nil {
		return nil, &EngineError{Err: fmt.Errorf("failed to read merged output: %w", err)}
	}
	return merged, nil
}

// ProbeDuration returns a media file's duration in seconds via ffprobe.
func (f *FFmpeg) ProbeDuration(ctx context.Context, path string) (float64, error) {
	if err := f.gate.check(); err != nil {
		return 0, err
	}

	out, err := f.runner.Run(ctx, f.ffprobeBin,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, &EngineError{Output: strings.TrimSpace(string(out)), Err: err}
	}

	s := strings.TrimSpace(string(out))
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, &EngineError{Err: fmt.Errorf("unparseable duration %q: %w", s, err)}
	}
	if seconds < 0 {
		return 0, &EngineError{Err: fmt.Errorf("negative duration %q", s)}
	}
	return seconds, nil
}
