package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatdock/chatdock/internal/application/port"
	"github.com/chatdock/chatdock/internal/domain/entity"
	"github.com/chatdock/chatdock/internal/logging"
)

// CreationState tracks the lifecycle of a proxy's underlying surface.
type CreationState int

const (
	StateUninitialized CreationState = iota
	StateEnsuring
	StateReady
	StateClosed
)

func (s CreationState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateEnsuring:
		return "ensuring"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Proxy is the handle abstraction over one embedded surface. It owns the
// surface exclusively (the registry holds the only strong reference) and
// guards every operation against redundant native calls: Show on a visible
// surface, Hide on a hidden one and UpdateBounds within epsilon are no-ops.
//
// Invariant: visible=true implies state=StateReady.
//
// The proxy never retries a failed host operation; retry policy belongs to
// callers.
type Proxy struct {
	host     port.SurfaceHost
	label    string
	platform entity.PlatformID
	url      string
	proxyURL string
	logger   zerolog.Logger

	mu         sync.Mutex
	state      CreationState
	visible    bool
	showing    bool // an async show sequence is in flight
	lastBounds *entity.Bounds
}

// NewProxy creates an uninitialized handle; the surface itself is created
// lazily by Ensure.
func NewProxy(ctx context.Context, host port.SurfaceHost, desc entity.PlatformDescriptor) *Proxy {
	log := logging.FromContext(ctx)
	label := entity.SurfaceLabel(desc.Group, desc.ID)
	return &Proxy{
		host:     host,
		label:    label,
		platform: desc.ID,
		url:      desc.URL,
		proxyURL: desc.ProxyURL,
		logger:   log.With().Str("component", "webview-proxy").Str("surface", label).Logger(),
	}
}

func (p *Proxy) Label() string                { return p.label }
func (p *Proxy) Platform() entity.PlatformID { return p.platform }
func (p *Proxy) URL() string                 { return p.url }
func (p *Proxy) ProxyURL() string            { return p.proxyURL }

// State returns the current creation state.
func (p *Proxy) State() CreationState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Visible reports whether the surface is currently rendered.
func (p *Proxy) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

// LastBounds returns the last applied bounds, or nil when none were applied.
func (p *Proxy) LastBounds() *entity.Bounds {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastBounds == nil {
		return nil
	}
	b := *p.lastBounds
	return &b
}

// Ensure creates the underlying surface at the given bounds if it does not
// exist yet. The surface is created hidden; showing is always explicit. On
// an already-ready handle Ensure renavigates if the page moved away from
// the configured URL, and otherwise reapplies position/size. Calls arriving
// while another Ensure is in flight are dropped.
func (p *Proxy) Ensure(ctx context.Context, bounds entity.Bounds) error {
	p.mu.Lock()
	switch p.state {
	case StateClosed:
		p.mu.Unlock()
		return ErrSurfaceClosed
	case StateEnsuring:
		p.mu.Unlock()
		return nil
	case StateReady:
		p.mu.Unlock()
		return p.refresh(ctx, bounds)
	}
	p.state = StateEnsuring
	p.mu.Unlock()

	err := p.host.CreateSurface(ctx, p.label, port.SurfaceOptions{
		URL:      p.url,
		ProxyURL: p.proxyURL,
		Bounds:   bounds,
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		p.state = StateUninitialized
		return &SurfaceCreateError{Platform: p.platform, Err: err}
	}
	if p.state == StateClosed {
		// Closed while the create was in flight; release the orphan.
		go func() {
			if closeErr := p.host.CloseSurface(context.Background(), p.label); closeErr != nil {
				p.logger.Warn().Err(closeErr).Msg("failed to close orphaned surface")
			}
		}()
		return ErrSurfaceClosed
	}
	p.state = StateReady
	b := bounds
	p.lastBounds = &b
	p.logger.Debug().Msg("surface created")
	return nil
}

// refresh brings an existing surface in line with the descriptor: navigate
// back if the page URL changed, then reapply bounds.
func (p *Proxy) refresh(ctx context.Context, bounds entity.Bounds) error {
	current, err := p.host.SurfaceURL(ctx, p.label)
	if err == nil && current != p.url {
		p.logger.Debug().Str("from", current).Str("to", p.url).Msg("renavigating surface")
		if navErr := p.host.NavigateSurface(ctx, p.label, p.url); navErr != nil {
			p.logger.Warn().Err(navErr).Msg("surface renavigation failed")
		}
	}
	return p.UpdateBounds(ctx, bounds)
}

// Show renders the surface. No-op when already visible or while another
// show is in flight; requires a ready surface.
func (p *Proxy) Show(ctx context.Context) error {
	p.mu.Lock()
	if p.state == StateClosed {
		p.mu.Unlock()
		return ErrSurfaceClosed
	}
	if p.state != StateReady || p.visible || p.showing {
		p.mu.Unlock()
		return nil
	}
	p.showing = true
	p.mu.Unlock()

	err := p.host.ShowSurface(ctx, p.label)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.showing = false
	if err != nil {
		return err
	}
	if p.state != StateReady {
		// Closed while the show was in flight; the close already hid it.
		return nil
	}
	p.visible = true
	return nil
}

// Hide occludes the surface. No-op when already hidden.
func (p *Proxy) Hide(ctx context.Context) error {
	p.mu.Lock()
	if p.state == StateClosed || !p.visible {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	err := p.host.HideSurface(ctx, p.label)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		return err
	}
	p.visible = false
	return nil
}

// UpdateBounds applies position and size, skipping the native call when the
// new bounds equal the last applied ones within epsilon.
func (p *Proxy) UpdateBounds(ctx context.Context, bounds entity.Bounds) error {
	p.mu.Lock()
	if p.state == StateClosed {
		p.mu.Unlock()
		return ErrSurfaceClosed
	}
	if p.state != StateReady {
		p.mu.Unlock()
		return nil
	}
	if p.lastBounds != nil && p.lastBounds.ApproxEqual(bounds) {
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	err := p.host.SetSurfaceBounds(ctx, p.label, bounds)

	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil {
		return err
	}
	if p.state == StateReady {
		b := bounds
		p.lastBounds = &b
	}
	return nil
}

// SetFocus transfers input focus to the surface without changing
// visibility state.
func (p *Proxy) SetFocus(ctx context.Context) error {
	if p.State() != StateReady {
		return nil
	}
	return p.host.FocusSurface(ctx, p.label)
}

// Close releases the underlying surface and clears last-applied bounds and
// visibility. Safe to call multiple times.
func (p *Proxy) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.state == StateClosed {
		p.mu.Unlock()
		return nil
	}
	created := p.state == StateReady
	p.state = StateClosed
	p.visible = false
	p.lastBounds = nil
	p.mu.Unlock()

	if !created {
		return nil
	}
	if err := p.host.CloseSurface(ctx, p.label); err != nil {
		p.logger.Warn().Err(err).Msg("surface close failed")
		return err
	}
	p.logger.Debug().Msg("surface closed")
	return nil
}

// EvaluateScript runs script in the surface context and decodes the result.
// It fails with ScriptTimeoutError when timeout elapses and ScriptError on
// a JS exception or host failure.
func (p *Proxy) EvaluateScript(ctx context.Context, script string, timeout time.Duration) (json.RawMessage, error) {
	if p.State() != StateReady {
		return nil, ErrSurfaceClosed
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	result, err := p.host.EvaluateScript(ctx, p.label, script)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &ScriptTimeoutError{Label: p.label, Timeout: timeout}
		}
		return nil, &ScriptError{Label: p.label, Err: err}
	}
	return result, nil
}

// Fragment returns the current URL fragment of the surface, without the
// leading '#', or "" when none is set. Used by the quick-ask handshake.
func (p *Proxy) Fragment(ctx context.Context) (string, error) {
	if p.State() != StateReady {
		return "", ErrSurfaceClosed
	}
	raw, err := p.host.SurfaceURL(ctx, p.label)
	if err != nil {
		return "", err
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	return u.Fragment, nil
}

// ClearFragment strips the URL fragment by renavigating to the same page
// without it, so hash-triggered handshakes do not fire twice.
func (p *Proxy) ClearFragment(ctx context.Context) error {
	if p.State() != StateReady {
		return ErrSurfaceClosed
	}
	raw, err := p.host.SurfaceURL(ctx, p.label)
	if err != nil {
		return err
	}
	if !strings.Contains(raw, "#") {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	u.Fragment = ""
	return p.host.NavigateSurface(ctx, p.label, u.String())
}
