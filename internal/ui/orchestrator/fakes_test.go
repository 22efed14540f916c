package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/chatdock/chatdock/internal/application/port"
	"github.com/chatdock/chatdock/internal/domain/entity"
)

// fakeHost is an in-memory port.SurfaceHost that records native call counts
// per surface label.
type fakeHost struct {
	mu sync.Mutex

	surfaces map[string]*fakeSurface

	createCalls map[string]int
	showCalls   map[string]int
	hideCalls   map[string]int
	boundsCalls map[string]int
	focusCalls  map[string]int
	closeCalls  map[string]int

	createErr map[string]error
	showErr   map[string]error
	hideErr   map[string]error

	// beforeShow, when set, runs outside the lock before a show completes;
	// tests use it to interleave operations mid-show.
	beforeShow func(label string)

	// script, when set, serves EvaluateScript; the default blocks until ctx
	// is done.
	script func(label, script string) (json.RawMessage, error)
}

type fakeSurface struct {
	url     string
	proxy   string
	bounds  entity.Bounds
	visible bool
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		surfaces:    make(map[string]*fakeSurface),
		createCalls: make(map[string]int),
		showCalls:   make(map[string]int),
		hideCalls:   make(map[string]int),
		boundsCalls: make(map[string]int),
		focusCalls:  make(map[string]int),
		closeCalls:  make(map[string]int),
		createErr:   make(map[string]error),
		showErr:     make(map[string]error),
		hideErr:     make(map[string]error),
	}
}

func (h *fakeHost) CreateSurface(_ context.Context, label string, opts port.SurfaceOptions) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.createCalls[label]++
	if err := h.createErr[label]; err != nil {
		return err
	}
	h.surfaces[label] = &fakeSurface{url: opts.URL, proxy: opts.ProxyURL, bounds: opts.Bounds}
	return nil
}

func (h *fakeHost) NavigateSurface(_ context.Context, label, url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[label]
	if !ok {
		return fmt.Errorf("no surface %q", label)
	}
	s.url = url
	return nil
}

func (h *fakeHost) SurfaceURL(_ context.Context, label string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[label]
	if !ok {
		return "", fmt.Errorf("no surface %q", label)
	}
	return s.url, nil
}

func (h *fakeHost) SetSurfaceBounds(_ context.Context, label string, bounds entity.Bounds) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.boundsCalls[label]++
	s, ok := h.surfaces[label]
	if !ok {
		return fmt.Errorf("no surface %q", label)
	}
	s.bounds = bounds
	return nil
}

func (h *fakeHost) ShowSurface(_ context.Context, label string) error {
	h.mu.Lock()
	hook := h.beforeShow
	h.mu.Unlock()
	if hook != nil {
		hook(label)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.showCalls[label]++
	if err := h.showErr[label]; err != nil {
		return err
	}
	s, ok := h.surfaces[label]
	if !ok {
		return fmt.Errorf("no surface %q", label)
	}
	s.visible = true
	return nil
}

func (h *fakeHost) HideSurface(_ context.Context, label string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hideCalls[label]++
	if err := h.hideErr[label]; err != nil {
		return err
	}
	s, ok := h.surfaces[label]
	if !ok {
		return fmt.Errorf("no surface %q", label)
	}
	s.visible = false
	return nil
}

func (h *fakeHost) FocusSurface(_ context.Context, label string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.focusCalls[label]++
	return nil
}

func (h *fakeHost) CloseSurface(_ context.Context, label string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closeCalls[label]++
	delete(h.surfaces, label)
	return nil
}

func (h *fakeHost) EvaluateScript(ctx context.Context, label, script string) (json.RawMessage, error) {
	h.mu.Lock()
	fn := h.script
	h.mu.Unlock()
	if fn != nil {
		return fn(label, script)
	}
	<-ctx.Done()
	return nil, ctx.Err()
}

func (h *fakeHost) surfaceVisible(label string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.surfaces[label]
	return ok && s.visible
}

func (h *fakeHost) visibleLabels() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for label, s := range h.surfaces {
		if s.visible {
			out = append(out, label)
		}
	}
	return out
}

// fakeWindow implements port.HostWindow and port.WindowEvents with settable
// geometry and manual event emission.
type fakeWindow struct {
	mu sync.Mutex

	scale       float64
	scaleErr    error
	outerPos    port.Point
	outerPosErr error
	outerSize   port.Size
	outerErr    error
	innerSize   port.Size
	innerErr    error
	innerPos    port.Point
	innerPosOK  bool
	landmarks   port.LandmarkInsets
	landmarksOK bool
	focused     bool

	resizeFns []func(port.Size)
	moveFns   []func()
	scaleFns  []func()
	focusFns  []func(bool)
	stateFns  []func(port.WindowState)
	closeFns  []func()
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{
		scale:       1,
		outerPos:    port.Point{X: 0, Y: 0},
		outerSize:   port.Size{Width: 1280, Height: 800},
		innerSize:   port.Size{Width: 1280, Height: 800},
		innerPos:    port.Point{X: 0, Y: 0},
		innerPosOK:  true,
		landmarks:   port.LandmarkInsets{SidebarWidth: 56, HeaderHeight: 44},
		landmarksOK: true,
		focused:     true,
	}
}

func (w *fakeWindow) ScaleFactor() (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.scale, w.scaleErr
}

func (w *fakeWindow) OuterPosition() (port.Point, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.outerPos, w.outerPosErr
}

func (w *fakeWindow) InnerPosition() (port.Point, bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.innerPos, w.innerPosOK, nil
}

func (w *fakeWindow) OuterSize() (port.Size, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.outerSize, w.outerErr
}

func (w *fakeWindow) InnerSize() (port.Size, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.innerSize, w.innerErr
}

func (w *fakeWindow) Landmarks() (port.LandmarkInsets, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.landmarks, w.landmarksOK
}

func (w *fakeWindow) IsFocused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}

func (w *fakeWindow) setInnerSize(s port.Size) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.innerSize = s
}

func (w *fakeWindow) setFocused(f bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focused = f
}

func (w *fakeWindow) OnResize(fn func(port.Size)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resizeFns = append(w.resizeFns, fn)
	i := len(w.resizeFns) - 1
	return func() { w.mu.Lock(); defer w.mu.Unlock(); w.resizeFns[i] = nil }
}

func (w *fakeWindow) OnMove(fn func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.moveFns = append(w.moveFns, fn)
	i := len(w.moveFns) - 1
	return func() { w.mu.Lock(); defer w.mu.Unlock(); w.moveFns[i] = nil }
}

func (w *fakeWindow) OnScaleChanged(fn func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.scaleFns = append(w.scaleFns, fn)
	i := len(w.scaleFns) - 1
	return func() { w.mu.Lock(); defer w.mu.Unlock(); w.scaleFns[i] = nil }
}

func (w *fakeWindow) OnFocusChanged(fn func(bool)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.focusFns = append(w.focusFns, fn)
	i := len(w.focusFns) - 1
	return func() { w.mu.Lock(); defer w.mu.Unlock(); w.focusFns[i] = nil }
}

func (w *fakeWindow) OnStateChanged(fn func(port.WindowState)) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stateFns = append(w.stateFns, fn)
	i := len(w.stateFns) - 1
	return func() { w.mu.Lock(); defer w.mu.Unlock(); w.stateFns[i] = nil }
}

func (w *fakeWindow) OnCloseRequested(fn func()) func() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closeFns = append(w.closeFns, fn)
	i := len(w.closeFns) - 1
	return func() { w.mu.Lock(); defer w.mu.Unlock(); w.closeFns[i] = nil }
}

func (w *fakeWindow) emitResize(s port.Size) {
	w.mu.Lock()
	fns := append([]func(port.Size){}, w.resizeFns...)
	w.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn(s)
		}
	}
}

func (w *fakeWindow) emitFocus(focused bool) {
	w.mu.Lock()
	fns := append([]func(bool){}, w.focusFns...)
	w.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn(focused)
		}
	}
}

func (w *fakeWindow) emitState(state port.WindowState) {
	w.mu.Lock()
	fns := append([]func(port.WindowState){}, w.stateFns...)
	w.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn(state)
		}
	}
}

func (w *fakeWindow) emitCloseRequested() {
	w.mu.Lock()
	fns := append([]func(){}, w.closeFns...)
	w.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn()
		}
	}
}

// fakeStore is an in-memory port.StateStore.
type fakeStore struct {
	mu      sync.Mutex
	active  map[entity.GroupID]entity.PlatformID
	touched []entity.PlatformID
}

func newFakeStore() *fakeStore {
	return &fakeStore{active: make(map[entity.GroupID]entity.PlatformID)}
}

func (s *fakeStore) SaveActive(_ context.Context, group entity.GroupID, platform entity.PlatformID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[group] = platform
	return nil
}

func (s *fakeStore) LoadActive(_ context.Context, group entity.GroupID) (entity.PlatformID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active[group], nil
}

func (s *fakeStore) RecordAccess(_ context.Context, _ entity.GroupID, platform entity.PlatformID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = append(s.touched, platform)
	return nil
}

func (s *fakeStore) RecentPlatforms(_ context.Context, _ entity.GroupID, limit int) ([]entity.PlatformID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.PlatformID, 0, limit)
	for i := len(s.touched) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.touched[i])
	}
	return out, nil
}

// chatDesc builds an enabled chat-group descriptor for tests.
func chatDesc(id string) entity.PlatformDescriptor {
	return entity.PlatformDescriptor{
		ID:      entity.PlatformID(id),
		Name:    id,
		URL:     "https://" + id + ".example.com/",
		Group:   entity.GroupChat,
		Enabled: true,
	}
}

func chatLabel(id string) string {
	return entity.SurfaceLabel(entity.GroupChat, entity.PlatformID(id))
}

func testBounds() entity.Bounds {
	return entity.Bounds{X: 56, Y: 44, Width: 1224, Height: 756, Scale: 1}
}
