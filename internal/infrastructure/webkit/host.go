// Package webkit embeds WebKitGTK webviews as managed child surfaces of the
// chatdock window.
package webkit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/bnema/puregotk-webkit/webkit"
	"github.com/google/uuid"
	"github.com/jwijenbergh/puregotk/v4/gio"
	"github.com/jwijenbergh/puregotk/v4/gtk"
	"github.com/rs/zerolog"

	"github.com/chatdock/chatdock/internal/application/port"
	"github.com/chatdock/chatdock/internal/domain/entity"
	"github.com/chatdock/chatdock/internal/logging"
)

// SurfaceHostConfig holds construction parameters for the surface host.
type SurfaceHostConfig struct {
	// Layer is the fixed-position container the webviews are placed in.
	Layer *gtk.Fixed
	// Origin returns the layer's current position in the window-root
	// coordinate space the orchestration layer computes bounds in.
	Origin func() (x, y float64)
	// Invoke posts a func onto the GTK main loop. EvaluateScript uses it to
	// issue the WebKit call on the main thread while the caller waits off it.
	// Nil means call directly (callers already on the main thread).
	Invoke func(func())
}

type surface struct {
	view    *webkit.WebView
	visible bool
}

// SurfaceHost implements port.SurfaceHost on WebKitGTK. All methods must be
// called on the GTK main thread, except EvaluateScript: it blocks on a
// completion WebKit delivers via the main loop, so it must be called off
// that thread (it posts its WebKit call through the configured Invoke).
type SurfaceHost struct {
	layer  *gtk.Fixed
	origin func() (float64, float64)
	invoke func(func())
	logger zerolog.Logger

	mu       sync.Mutex
	surfaces map[string]*surface
	// keeps async JS callbacks alive until WebKit has invoked them
	asyncCallbacks map[string]*gio.AsyncReadyCallback
}

// NewSurfaceHost creates a WebKitGTK-backed surface host.
func NewSurfaceHost(ctx context.Context, cfg SurfaceHostConfig) *SurfaceHost {
	log := logging.FromContext(ctx)
	origin := cfg.Origin
	if origin == nil {
		origin = func() (float64, float64) { return 0, 0 }
	}
	invoke := cfg.Invoke
	if invoke == nil {
		invoke = func(fn func()) { fn() }
	}
	return &SurfaceHost{
		layer:          cfg.Layer,
		origin:         origin,
		invoke:         invoke,
		logger:         log.With().Str("component", "webkit-surface-host").Logger(),
		surfaces:       make(map[string]*surface),
		asyncCallbacks: make(map[string]*gio.AsyncReadyCallback),
	}
}

// CreateSurface creates a hidden webview, positions it, and starts loading
// the platform URL. Visibility is the orchestration layer's decision; a
// freshly created surface never flashes on screen.
func (h *SurfaceHost) CreateSurface(_ context.Context, label string, opts port.SurfaceOptions) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.surfaces[label]; exists {
		return fmt.Errorf("surface %q already exists", label)
	}

	inner := webkit.NewWebView()
	if inner == nil {
		return fmt.Errorf("failed to create webkit webview for %q", label)
	}

	if opts.ProxyURL != "" {
		if err := applyProxy(inner, opts.ProxyURL); err != nil {
			h.logger.Warn().Err(err).Str("surface", label).Msg("failed to apply proxy settings")
		} else {
			h.logger.Debug().Str("surface", label).Str("proxy", opts.ProxyURL).Msg("proxy settings applied")
		}
	}

	// Created hidden; add to the layer before any geometry call so GTK has
	// a parent to allocate against.
	inner.SetVisible(false)
	x, y := h.toLayerCoords(opts.Bounds)
	h.layer.Put(&inner.Widget, x, y)
	inner.SetSizeRequest(int(opts.Bounds.Width), int(opts.Bounds.Height))

	inner.LoadUri(opts.URL)

	h.surfaces[label] = &surface{view: inner}
	h.logger.Debug().Str("surface", label).Str("url", opts.URL).Msg("surface created hidden")
	return nil
}

// NavigateSurface loads a new URL in an existing surface.
func (h *SurfaceHost) NavigateSurface(_ context.Context, label, url string) error {
	s, err := h.get(label)
	if err != nil {
		return err
	}
	s.view.LoadUri(url)
	return nil
}

// SurfaceURL returns the surface's current page URL.
func (h *SurfaceHost) SurfaceURL(_ context.Context, label string) (string, error) {
	s, err := h.get(label)
	if err != nil {
		return "", err
	}
	return s.view.GetUri(), nil
}

// SetSurfaceBounds repositions and resizes the surface inside the layer.
func (h *SurfaceHost) SetSurfaceBounds(_ context.Context, label string, bounds entity.Bounds) error {
	s, err := h.get(label)
	if err != nil {
		return err
	}
	x, y := h.toLayerCoords(bounds)
	h.layer.Move(&s.view.Widget, x, y)
	s.view.SetSizeRequest(int(bounds.Width), int(bounds.Height))
	return nil
}

// ShowSurface makes the surface visible.
func (h *SurfaceHost) ShowSurface(_ context.Context, label string) error {
	s, err := h.get(label)
	if err != nil {
		return err
	}
	s.view.SetVisible(true)
	h.mu.Lock()
	s.visible = true
	h.mu.Unlock()
	return nil
}

// HideSurface makes the surface invisible. The webview keeps running, so
// page state (chat history, form content) survives.
func (h *SurfaceHost) HideSurface(_ context.Context, label string) error {
	s, err := h.get(label)
	if err != nil {
		return err
	}
	s.view.SetVisible(false)
	h.mu.Lock()
	s.visible = false
	h.mu.Unlock()
	return nil
}

// FocusSurface moves keyboard focus into the surface.
func (h *SurfaceHost) FocusSurface(_ context.Context, label string) error {
	s, err := h.get(label)
	if err != nil {
		return err
	}
	s.view.GrabFocus()
	return nil
}

// CloseSurface removes the webview from the layer and releases it.
func (h *SurfaceHost) CloseSurface(_ context.Context, label string) error {
	h.mu.Lock()
	s, ok := h.surfaces[label]
	if !ok {
		h.mu.Unlock()
		return fmt.Errorf("no surface %q", label)
	}
	delete(h.surfaces, label)
	h.mu.Unlock()

	// Stop network and media activity before unparenting.
	s.view.LoadUri("about:blank")
	h.layer.Remove(&s.view.Widget)
	h.logger.Debug().Str("surface", label).Msg("surface closed")
	return nil
}

type scriptResult struct {
	value json.RawMessage
	err   error
}

// EvaluateScript runs JavaScript in the surface's page and returns the
// result serialized as JSON. It blocks until WebKit finishes or ctx is done.
// WebKit dispatches the completion on the GTK main loop, so this must be
// called from another goroutine; the WebKit call itself is posted onto the
// main loop via the host's invoke func.
func (h *SurfaceHost) EvaluateScript(ctx context.Context, label, script string) (json.RawMessage, error) {
	s, err := h.get(label)
	if err != nil {
		return nil, err
	}

	resultCh := make(chan scriptResult, 1)
	callID := uuid.NewString()
	log := h.logger.With().Str("surface", label).Str("call_id", callID).Logger()

	cb := gio.AsyncReadyCallback(func(_ uintptr, resPtr uintptr, _ uintptr) {
		h.mu.Lock()
		delete(h.asyncCallbacks, callID)
		h.mu.Unlock()

		if resPtr == 0 {
			resultCh <- scriptResult{err: fmt.Errorf("script evaluation returned nil async result")}
			return
		}

		res := &gio.AsyncResultBase{Ptr: resPtr}
		value, err := s.view.EvaluateJavascriptFinish(res)
		if err != nil {
			resultCh <- scriptResult{err: err}
			return
		}
		if value == nil {
			resultCh <- scriptResult{value: json.RawMessage("null")}
			return
		}
		if jscCtx := value.GetContext(); jscCtx != nil {
			if exc := jscCtx.GetException(); exc != nil {
				resultCh <- scriptResult{err: fmt.Errorf("javascript exception: %s", exc.GetMessage())}
				return
			}
		}
		resultCh <- scriptResult{value: json.RawMessage(value.ToJson(0))}
	})

	h.mu.Lock()
	h.asyncCallbacks[callID] = &cb
	h.mu.Unlock()

	value, err := dispatchScript(ctx, h.invoke, func() {
		// Main world; sourceUri unused.
		s.view.EvaluateJavascript(script, -1, nil, nil, nil, &cb, 0)
	}, resultCh)
	if err != nil {
		log.Debug().Err(err).Msg("script evaluation failed")
	}
	return value, err
}

// dispatchScript posts start onto the main loop via invoke, then waits for
// the result or context cancellation on the calling goroutine.
func dispatchScript(ctx context.Context, invoke func(func()), start func(), results <-chan scriptResult) (json.RawMessage, error) {
	invoke(start)
	select {
	case r := <-results:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *SurfaceHost) get(label string) (*surface, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[label]
	if !ok {
		return nil, fmt.Errorf("no surface %q", label)
	}
	return s, nil
}

// toLayerCoords converts window-root bounds into the layer's local space.
func (h *SurfaceHost) toLayerCoords(b entity.Bounds) (float64, float64) {
	ox, oy := h.origin()
	return b.X - ox, b.Y - oy
}

// applyProxy routes the webview's network session through a proxy. WebKitGTK
// scopes proxy settings to the network session, which webviews share unless
// created against their own session; the per-platform rebuild on proxy
// change keeps the visible behavior correct.
func applyProxy(view *webkit.WebView, proxyURL string) error {
	session := view.GetNetworkSession()
	if session == nil {
		return fmt.Errorf("webview has no network session")
	}
	settings := webkit.NewNetworkProxySettings(&proxyURL, nil)
	if settings == nil {
		return fmt.Errorf("failed to build proxy settings for %q", proxyURL)
	}
	session.SetProxySettings(webkit.NetworkProxyModeCustomValue, settings)
	return nil
}
