package port

// Point is a logical window-space coordinate.
type Point struct {
	X float64
	Y float64
}

// Size is a logical width/height pair.
type Size struct {
	Width  float64
	Height float64
}

// LandmarkInsets are the measured sizes of the host window's chrome
// landmarks (platform rail, header bar) that offset the content area.
type LandmarkInsets struct {
	SidebarWidth float64
	HeaderHeight float64
}

// WindowState enumerates host window lifecycle states reported by the
// windowing system.
type WindowState int

const (
	WindowNormal WindowState = iota
	WindowMinimized
	WindowHidden
	WindowRestored
	WindowShown
)

func (s WindowState) String() string {
	switch s {
	case WindowNormal:
		return "normal"
	case WindowMinimized:
		return "minimized"
	case WindowHidden:
		return "hidden"
	case WindowRestored:
		return "restored"
	case WindowShown:
		return "shown"
	default:
		return "unknown"
	}
}

// HostWindow exposes geometry and focus queries against the top-level
// window. Any query may fail when the window is mid-teardown; callers fall
// back to defaults rather than propagating those errors.
type HostWindow interface {
	ScaleFactor() (float64, error)
	OuterPosition() (Point, error)
	// InnerPosition returns the content origin when the windowing system
	// can report it directly; ok=false means the caller must derive it
	// from the outer position and the frame insets.
	InnerPosition() (Point, bool, error)
	OuterSize() (Size, error)
	InnerSize() (Size, error)
	// Landmarks reports measured chrome insets; ok=false before the
	// landmark widgets are realized, in which case fixed defaults apply.
	Landmarks() (LandmarkInsets, bool)
	IsFocused() bool
}

// WindowEvents is the host window's lifecycle event surface. Each On*
// registration returns an unsubscribe function; the event bridge aggregates
// them into a single disposer.
type WindowEvents interface {
	OnResize(fn func(Size)) (unsubscribe func())
	OnMove(fn func()) (unsubscribe func())
	OnScaleChanged(fn func()) (unsubscribe func())
	OnFocusChanged(fn func(focused bool)) (unsubscribe func())
	OnStateChanged(fn func(WindowState)) (unsubscribe func())
	OnCloseRequested(fn func()) (unsubscribe func())
}
