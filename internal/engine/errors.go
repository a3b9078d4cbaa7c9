package engine

import (
	"errors"
	"fmt"
)

// ErrNotReady is returned by every engine operation attempted before the
// one-time initialization has completed.
var ErrNotReady = errors.New("media engine is not ready")

// InitializationError reports that the engine's one-time setup failed.
// Once failed, the engine stays failed for the process lifetime.
type InitializationError struct {
	Err error
}

func (e *InitializationError) Error() string {
	return fmt.Sprintf("media engine initialization failed: %v", e.Err)
}

func (e *InitializationError) Unwrap() error { return e.Err }

// MissingSourceError reports that a referenced input has no resolvable bytes.
type MissingSourceError struct {
	Name string
}

func (e *MissingSourceError) Error() string {
	return fmt.Sprintf("no byte source for %s", e.Name)
}

// EngineError reports a failed invocation of the underlying ffmpeg process.
// Output carries the process output so failures stay attributable.
type EngineError struct {
	Output string
	Err    error
}

func (e *EngineError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("media engine command failed: %v", e.Err)
	}
	return fmt.Sprintf("media engine command failed: %v: %s", e.Err, e.Output)
}

func (e *EngineError) Unwrap() error { return e.Err }
