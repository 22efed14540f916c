package orchestrator

import (
	"errors"
	"fmt"
	"time"

	"github.com/chatdock/chatdock/internal/domain/entity"
)

// ErrBoundsUnavailable marks a failed host geometry query. It is recovered
// locally by substituting default bounds and never reaches the user.
var ErrBoundsUnavailable = errors.New("host window bounds unavailable")

// ErrSurfaceClosed is returned by proxy operations invoked after Close.
var ErrSurfaceClosed = errors.New("surface closed")

// ErrUnknownPlatform is returned by Select for ids absent from configuration.
var ErrUnknownPlatform = errors.New("unknown platform")

// SurfaceCreateError reports a failed embedded-surface creation. The
// platform's handle is left absent from the registry so re-selection can
// retry; the UI surfaces it as a "failed to load" state with a reload action.
type SurfaceCreateError struct {
	Platform entity.PlatformID
	Err      error
}

func (e *SurfaceCreateError) Error() string {
	return fmt.Sprintf("failed to create surface for platform %q: %v", e.Platform, e.Err)
}

func (e *SurfaceCreateError) Unwrap() error { return e.Err }

// ScriptTimeoutError reports that a script evaluation did not complete
// within its deadline.
type ScriptTimeoutError struct {
	Label   string
	Timeout time.Duration
}

func (e *ScriptTimeoutError) Error() string {
	return fmt.Sprintf("script evaluation in surface %q timed out after %s", e.Label, e.Timeout)
}

// ScriptError wraps a script evaluation failure (JS exception or IPC error).
type ScriptError struct {
	Label string
	Err   error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script evaluation in surface %q failed: %v", e.Label, e.Err)
}

func (e *ScriptError) Unwrap() error { return e.Err }
