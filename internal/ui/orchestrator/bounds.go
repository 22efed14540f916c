// Package orchestrator implements the child webview orchestration core:
// bounds calculation, proxy handles, the LRU registry, reflow scheduling,
// visibility coordination and the host event bridge.
package orchestrator

import (
	"context"
	"math"

	"github.com/chatdock/chatdock/internal/application/port"
	"github.com/chatdock/chatdock/internal/domain/entity"
	"github.com/chatdock/chatdock/internal/logging"
)

// Fallback chrome insets used when the landmark widgets are not realized yet.
const (
	defaultSidebarWidth = 56.0
	defaultHeaderHeight = 44.0
)

// DefaultBounds is applied when the host window cannot be queried at all,
// so the shell stays interactive instead of propagating geometry errors.
func DefaultBounds() entity.Bounds {
	return entity.Bounds{X: 100, Y: 100, Width: 800, Height: 600, Scale: 1}
}

// BoundsCalculator computes the host-window-relative rectangle an embedded
// surface should occupy. It is stateless with respect to previous results;
// every call re-reads the window.
type BoundsCalculator struct {
	win port.HostWindow
}

func NewBoundsCalculator(win port.HostWindow) *BoundsCalculator {
	return &BoundsCalculator{win: win}
}

// Compute derives the content-area bounds from the current window geometry.
// It never fails: any host query error is logged and replaced by
// DefaultBounds. A degenerate result (width or height <= 0) signals the
// caller to hide all surfaces instead of applying it.
func (c *BoundsCalculator) Compute(ctx context.Context) entity.Bounds {
	log := logging.FromContext(ctx)

	scale, err := c.win.ScaleFactor()
	if err != nil {
		log.Debug().Err(err).Msg("scale factor unavailable, using default bounds")
		return DefaultBounds()
	}
	if scale <= 0 {
		scale = 1
	}

	outerPos, err := c.win.OuterPosition()
	if err != nil {
		log.Debug().Err(err).Msg("outer position unavailable, using default bounds")
		return DefaultBounds()
	}

	outerSize, err := c.win.OuterSize()
	if err != nil {
		log.Debug().Err(err).Msg("outer size unavailable, using default bounds")
		return DefaultBounds()
	}

	innerSize, err := c.win.InnerSize()
	if err != nil {
		log.Debug().Err(err).Msg("inner size unavailable, using default bounds")
		return DefaultBounds()
	}

	innerPos, ok, err := c.win.InnerPosition()
	if err != nil {
		log.Debug().Err(err).Msg("inner position query failed, using default bounds")
		return DefaultBounds()
	}
	if !ok {
		// No direct inner-position query: derive the frame insets from the
		// outer/inner size difference. The side borders are symmetric; the
		// remainder of the height delta is the title bar.
		borderInset := math.Round((outerSize.Width - innerSize.Width) / 2)
		titleBarInset := math.Max(0, (outerSize.Height-innerSize.Height)-borderInset)
		innerPos = port.Point{
			X: outerPos.X + borderInset,
			Y: outerPos.Y + titleBarInset,
		}
	}

	insets, ok := c.win.Landmarks()
	if !ok {
		insets = port.LandmarkInsets{
			SidebarWidth: defaultSidebarWidth,
			HeaderHeight: defaultHeaderHeight,
		}
	}

	return entity.Bounds{
		X:      innerPos.X + insets.SidebarWidth,
		Y:      innerPos.Y + insets.HeaderHeight,
		Width:  innerSize.Width - insets.SidebarWidth,
		Height: innerSize.Height - insets.HeaderHeight,
		Scale:  scale,
	}
}
