package webkit

import (
	"sync"

	"github.com/jwijenbergh/puregotk/v4/glib"
)

// defaultFrameIntervalMs approximates one frame at 60Hz.
const defaultFrameIntervalMs = 16

// MainLoop posts work onto the GTK main loop. GTK widgets are not
// thread-safe; everything that touches a widget goes through here.
type MainLoop struct {
	frameInterval uint // milliseconds

	mu sync.Mutex
	// keeps SourceFunc references alive until GLib has invoked them
	pending map[uint64]*glib.SourceFunc
	nextID  uint64
}

// NewMainLoop creates a main loop poster. frameIntervalMs is the delay
// PostFrame coalesces over; non-positive values fall back to one frame.
func NewMainLoop(frameIntervalMs int) *MainLoop {
	if frameIntervalMs <= 0 {
		frameIntervalMs = defaultFrameIntervalMs
	}
	return &MainLoop{
		frameInterval: uint(frameIntervalMs),
		pending:       make(map[uint64]*glib.SourceFunc),
	}
}

// Invoke runs fn on the next main loop iteration.
func (m *MainLoop) Invoke(fn func()) {
	m.add(func(cb *glib.SourceFunc) {
		glib.IdleAdd(cb, 0)
	}, fn)
}

// PostFrame runs fn after the configured frame interval, used by the reflow
// scheduler to coalesce bursts of geometry events.
func (m *MainLoop) PostFrame(fn func()) {
	m.add(func(cb *glib.SourceFunc) {
		glib.TimeoutAdd(m.frameInterval, cb, 0)
	}, fn)
}

func (m *MainLoop) add(attach func(*glib.SourceFunc), fn func()) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	cb := glib.SourceFunc(func(uintptr) bool {
		fn()
		m.mu.Lock()
		delete(m.pending, id)
		m.mu.Unlock()
		return false // one-shot
	})
	m.pending[id] = &cb
	m.mu.Unlock()

	attach(&cb)
}
