// Package window provides the GTK shell window hosting the platform rail,
// header and the embedded webview layer.
package window

import (
	"context"
	"sync"

	"github.com/jwijenbergh/puregotk/v4/gobject"
	"github.com/jwijenbergh/puregotk/v4/graphene"
	"github.com/jwijenbergh/puregotk/v4/gtk"
	"github.com/rs/zerolog"

	"github.com/chatdock/chatdock/internal/application/port"
	"github.com/chatdock/chatdock/internal/infrastructure/config"
	"github.com/chatdock/chatdock/internal/logging"
)

const (
	defaultWidth  = 1280
	defaultHeight = 800
	windowTitle   = "Chatdock"
)

// MainWindow is the chatdock shell window. It implements port.HostWindow and
// port.WindowEvents for the orchestration layer.
//
// Layout:
//
//	window
//	└── rootBox (horizontal)
//	    ├── sidebar (platform rail, fixed width)
//	    └── contentBox (vertical)
//	        ├── header (fixed height)
//	        └── layer (gtk.Fixed, expands; webviews are placed here)
type MainWindow struct {
	window     *gtk.ApplicationWindow
	rootBox    *gtk.Box
	sidebar    *gtk.Box
	contentBox *gtk.Box
	header     *gtk.Box
	layer      *gtk.Fixed

	cfg    *config.Config
	logger zerolog.Logger

	mu        sync.Mutex
	lastW     int
	lastH     int
	resizeFns []func(port.Size)
	moveFns   []func()
	scaleFns  []func()
	focusFns  []func(bool)
	stateFns  []func(port.WindowState)
	closeFns  []func()

	// keeps signal callback references alive for the window's lifetime
	signalRefs []interface{}
}

// New creates the shell window and wires its GTK signals.
func New(ctx context.Context, app *gtk.Application, cfg *config.Config) (*MainWindow, error) {
	log := logging.FromContext(ctx)

	mw := &MainWindow{
		cfg:    cfg,
		logger: log.With().Str("component", "main-window").Logger(),
	}

	mw.window = gtk.NewApplicationWindow(app)
	if mw.window == nil {
		return nil, ErrWindowCreationFailed
	}

	title := windowTitle
	mw.window.SetTitle(&title)
	mw.window.SetDefaultSize(defaultWidth, defaultHeight)

	mw.rootBox = gtk.NewBox(gtk.OrientationHorizontalValue, 0)
	if mw.rootBox == nil {
		mw.window.Unref()
		return nil, ErrWidgetCreationFailed("rootBox")
	}
	mw.rootBox.SetHexpand(true)
	mw.rootBox.SetVexpand(true)
	mw.rootBox.SetVisible(true)

	mw.sidebar = gtk.NewBox(gtk.OrientationVerticalValue, 0)
	if mw.sidebar == nil {
		mw.rootBox.Unref()
		mw.window.Unref()
		return nil, ErrWidgetCreationFailed("sidebar")
	}
	mw.sidebar.SetSizeRequest(int(mw.sidebarWidth()), -1)
	mw.sidebar.SetVexpand(true)
	mw.sidebar.SetVisible(true)
	mw.sidebar.AddCssClass("platform-rail")

	mw.contentBox = gtk.NewBox(gtk.OrientationVerticalValue, 0)
	if mw.contentBox == nil {
		mw.sidebar.Unref()
		mw.rootBox.Unref()
		mw.window.Unref()
		return nil, ErrWidgetCreationFailed("contentBox")
	}
	mw.contentBox.SetHexpand(true)
	mw.contentBox.SetVexpand(true)
	mw.contentBox.SetVisible(true)

	mw.header = gtk.NewBox(gtk.OrientationHorizontalValue, 0)
	if mw.header == nil {
		mw.contentBox.Unref()
		mw.sidebar.Unref()
		mw.rootBox.Unref()
		mw.window.Unref()
		return nil, ErrWidgetCreationFailed("header")
	}
	mw.header.SetSizeRequest(-1, int(mw.headerHeight()))
	mw.header.SetHexpand(true)
	mw.header.SetVisible(true)
	mw.header.AddCssClass("dock-header")

	mw.layer = gtk.NewFixed()
	if mw.layer == nil {
		mw.header.Unref()
		mw.contentBox.Unref()
		mw.sidebar.Unref()
		mw.rootBox.Unref()
		mw.window.Unref()
		return nil, ErrWidgetCreationFailed("layer")
	}
	mw.layer.SetHexpand(true)
	mw.layer.SetVexpand(true)
	mw.layer.SetVisible(true)

	mw.contentBox.Append(&mw.header.Widget)
	mw.contentBox.Append(&mw.layer.Widget)
	mw.rootBox.Append(&mw.sidebar.Widget)
	mw.rootBox.Append(&mw.contentBox.Widget)
	mw.window.SetChild(&mw.rootBox.Widget)

	mw.connectSignals()

	return mw, nil
}

func (mw *MainWindow) sidebarWidth() float64 {
	if mw.cfg != nil && mw.cfg.Layout.SidebarWidth > 0 {
		return mw.cfg.Layout.SidebarWidth
	}
	return 56
}

func (mw *MainWindow) headerHeight() float64 {
	if mw.cfg != nil && mw.cfg.Layout.HeaderHeight > 0 {
		return mw.cfg.Layout.HeaderHeight
	}
	return 44
}

// connectSignals wires GTK signals into the subscriber lists once. The
// window-level signals fan out, so subscribers never touch GTK directly.
func (mw *MainWindow) connectSignals() {
	// Allocation changes have no dedicated signal in GTK4; a tick callback
	// watching the root allocation catches every resize, including
	// maximize/unmaximize.
	tickCb := gtk.TickCallback(func(_ uintptr, _ uintptr, _ uintptr) bool {
		w := mw.rootBox.GetAllocatedWidth()
		h := mw.rootBox.GetAllocatedHeight()
		mw.mu.Lock()
		changed := w != mw.lastW || h != mw.lastH
		mw.lastW, mw.lastH = w, h
		fns := append([]func(port.Size){}, mw.resizeFns...)
		mw.mu.Unlock()
		if changed {
			for _, fn := range fns {
				if fn != nil {
					fn(port.Size{Width: float64(w), Height: float64(h)})
				}
			}
		}
		return true // keep ticking
	})
	mw.rootBox.AddTickCallback(&tickCb, 0, nil)

	scaleCb := func(_ gobject.Object, _ uintptr) {
		mw.mu.Lock()
		fns := append([]func(){}, mw.scaleFns...)
		mw.mu.Unlock()
		for _, fn := range fns {
			if fn != nil {
				fn()
			}
		}
	}
	mw.window.ConnectNotifyWithDetail("scale-factor", &scaleCb)

	activeCb := func(_ gobject.Object, _ uintptr) {
		focused := mw.window.IsActive()
		mw.mu.Lock()
		fns := append([]func(bool){}, mw.focusFns...)
		mw.mu.Unlock()
		for _, fn := range fns {
			if fn != nil {
				fn(focused)
			}
		}
	}
	mw.window.ConnectNotifyWithDetail("is-active", &activeCb)

	mapCb := func(_ gtk.Widget) {
		mw.emitState(port.WindowShown)
	}
	mw.window.ConnectMap(&mapCb)

	unmapCb := func(_ gtk.Widget) {
		mw.emitState(port.WindowHidden)
	}
	mw.window.ConnectUnmap(&unmapCb)

	closeCb := func(_ gtk.Window) bool {
		mw.mu.Lock()
		fns := append([]func(){}, mw.closeFns...)
		mw.mu.Unlock()
		for _, fn := range fns {
			if fn != nil {
				fn()
			}
		}
		return false // allow the window to close
	}
	mw.window.ConnectCloseRequest(&closeCb)

	mw.signalRefs = append(mw.signalRefs, &tickCb, &scaleCb, &activeCb, &mapCb, &unmapCb, &closeCb)
}

func (mw *MainWindow) emitState(state port.WindowState) {
	mw.mu.Lock()
	fns := append([]func(port.WindowState){}, mw.stateFns...)
	mw.mu.Unlock()
	for _, fn := range fns {
		if fn != nil {
			fn(state)
		}
	}
}

// Show presents the window.
func (mw *MainWindow) Show() {
	mw.window.Present()
}

// Close closes the window.
func (mw *MainWindow) Close() {
	mw.window.Close()
}

// Window returns the underlying GTK window.
func (mw *MainWindow) Window() *gtk.ApplicationWindow {
	return mw.window
}

// Sidebar returns the platform rail container.
func (mw *MainWindow) Sidebar() *gtk.Box {
	return mw.sidebar
}

// Header returns the header container.
func (mw *MainWindow) Header() *gtk.Box {
	return mw.header
}

// Layer returns the fixed-position container the webviews live in.
func (mw *MainWindow) Layer() *gtk.Fixed {
	return mw.layer
}

// LayerOrigin returns the layer's position in window-root coordinates, for
// converting orchestration bounds to layer-local placement.
func (mw *MainWindow) LayerOrigin() (float64, float64) {
	srcPoint := &graphene.Point{X: 0, Y: 0}
	outPoint := &graphene.Point{}
	if !mw.layer.ComputePoint(&mw.rootBox.Widget, srcPoint, outPoint) {
		return 0, 0
	}
	return float64(outPoint.X), float64(outPoint.Y)
}

// ScaleFactor implements port.HostWindow.
func (mw *MainWindow) ScaleFactor() (float64, error) {
	return float64(mw.window.GetScaleFactor()), nil
}

// OuterPosition implements port.HostWindow. GTK4 cannot query the window's
// screen position, so all geometry is expressed in window-root coordinates
// with the window origin at (0, 0).
func (mw *MainWindow) OuterPosition() (port.Point, error) {
	return port.Point{}, nil
}

// InnerPosition implements port.HostWindow: the content origin in
// window-root coordinates, which equals the window origin here.
func (mw *MainWindow) InnerPosition() (port.Point, bool, error) {
	return port.Point{}, true, nil
}

// OuterSize implements port.HostWindow.
func (mw *MainWindow) OuterSize() (port.Size, error) {
	return port.Size{
		Width:  float64(mw.rootBox.GetAllocatedWidth()),
		Height: float64(mw.rootBox.GetAllocatedHeight()),
	}, nil
}

// InnerSize implements port.HostWindow. GTK4 windows are client-side
// decorated, so the inner size equals the root allocation.
func (mw *MainWindow) InnerSize() (port.Size, error) {
	return mw.OuterSize()
}

// Landmarks implements port.HostWindow with the measured sidebar and header
// allocations. Before the first allocation pass both are zero and the
// orchestration layer falls back to configured defaults.
func (mw *MainWindow) Landmarks() (port.LandmarkInsets, bool) {
	w := mw.sidebar.GetAllocatedWidth()
	h := mw.header.GetAllocatedHeight()
	if w <= 0 || h <= 0 {
		return port.LandmarkInsets{}, false
	}
	return port.LandmarkInsets{
		SidebarWidth: float64(w),
		HeaderHeight: float64(h),
	}, true
}

// IsFocused implements port.HostWindow.
func (mw *MainWindow) IsFocused() bool {
	return mw.window.IsActive()
}

// OnResize implements port.WindowEvents.
func (mw *MainWindow) OnResize(fn func(port.Size)) func() {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.resizeFns = append(mw.resizeFns, fn)
	i := len(mw.resizeFns) - 1
	return func() { mw.mu.Lock(); defer mw.mu.Unlock(); mw.resizeFns[i] = nil }
}

// OnMove implements port.WindowEvents. Wayland compositors never report
// window moves, so this fires only on X11-style backends; the bounds math
// does not depend on it because coordinates are window-root relative.
func (mw *MainWindow) OnMove(fn func()) func() {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.moveFns = append(mw.moveFns, fn)
	i := len(mw.moveFns) - 1
	return func() { mw.mu.Lock(); defer mw.mu.Unlock(); mw.moveFns[i] = nil }
}

// OnScaleChanged implements port.WindowEvents.
func (mw *MainWindow) OnScaleChanged(fn func()) func() {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.scaleFns = append(mw.scaleFns, fn)
	i := len(mw.scaleFns) - 1
	return func() { mw.mu.Lock(); defer mw.mu.Unlock(); mw.scaleFns[i] = nil }
}

// OnFocusChanged implements port.WindowEvents.
func (mw *MainWindow) OnFocusChanged(fn func(bool)) func() {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.focusFns = append(mw.focusFns, fn)
	i := len(mw.focusFns) - 1
	return func() { mw.mu.Lock(); defer mw.mu.Unlock(); mw.focusFns[i] = nil }
}

// OnStateChanged implements port.WindowEvents.
func (mw *MainWindow) OnStateChanged(fn func(port.WindowState)) func() {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.stateFns = append(mw.stateFns, fn)
	i := len(mw.stateFns) - 1
	return func() { mw.mu.Lock(); defer mw.mu.Unlock(); mw.stateFns[i] = nil }
}

// OnCloseRequested implements port.WindowEvents.
func (mw *MainWindow) OnCloseRequested(fn func()) func() {
	mw.mu.Lock()
	defer mw.mu.Unlock()
	mw.closeFns = append(mw.closeFns, fn)
	i := len(mw.closeFns) - 1
	return func() { mw.mu.Lock(); defer mw.mu.Unlock(); mw.closeFns[i] = nil }
}

// WindowError represents a window-related error.
type WindowError struct {
	Message string
}

func (e WindowError) Error() string {
	return e.Message
}

// Error constants.
var (
	ErrWindowCreationFailed = WindowError{Message: "failed to create application window"}
)

// ErrWidgetCreationFailed creates an error for widget creation failure.
func ErrWidgetCreationFailed(name string) error {
	return WindowError{Message: "failed to create widget: " + name}
}
