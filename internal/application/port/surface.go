// Package port defines application-layer interfaces for injected host
// capabilities. Ports abstract infrastructure concerns, allowing the
// orchestration core to remain independent of specific implementations
// (WebKit, GTK, etc.).
package port

import (
	"context"
	"encoding/json"

	"github.com/chatdock/chatdock/internal/domain/entity"
)

// SurfaceOptions configures creation of a named embedded surface.
type SurfaceOptions struct {
	URL      string
	ProxyURL string // optional; routes the surface's traffic through a proxy
	Bounds   entity.Bounds
}

// SurfaceHost is the embedding host's surface capability: create, position,
// show, hide, focus and close named embedded web surfaces, and run script
// inside them. Every operation is an asynchronous call into the host
// platform; implementations must not block the caller beyond the IPC
// round-trip and must honor context cancellation.
//
// Surfaces are created hidden; showing is always an explicit step.
type SurfaceHost interface {
	CreateSurface(ctx context.Context, label string, opts SurfaceOptions) error
	NavigateSurface(ctx context.Context, label, url string) error
	SurfaceURL(ctx context.Context, label string) (string, error)
	SetSurfaceBounds(ctx context.Context, label string, bounds entity.Bounds) error
	ShowSurface(ctx context.Context, label string) error
	HideSurface(ctx context.Context, label string) error
	FocusSurface(ctx context.Context, label string) error
	CloseSurface(ctx context.Context, label string) error

	// EvaluateScript runs script in the surface's page context and returns
	// the JSON-serialized result. A thrown JS exception is returned as an
	// error; cancellation of ctx abandons the call.
	EvaluateScript(ctx context.Context, label, script string) (json.RawMessage, error)
}
