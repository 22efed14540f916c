package orchestrator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/chatdock/chatdock/internal/application/port"
)

func TestBoundsCalculator_DirectInnerPosition(t *testing.T) {
	win := newFakeWindow()
	win.outerPos = port.Point{X: 200, Y: 100}
	win.innerPos = port.Point{X: 204, Y: 130}
	win.innerSize = port.Size{Width: 1000, Height: 700}
	win.landmarks = port.LandmarkInsets{SidebarWidth: 60, HeaderHeight: 40}

	b := NewBoundsCalculator(win).Compute(context.Background())

	assert.InDelta(t, 264.0, b.X, 0.001)
	assert.InDelta(t, 170.0, b.Y, 0.001)
	assert.InDelta(t, 940.0, b.Width, 0.001)
	assert.InDelta(t, 660.0, b.Height, 0.001)
	assert.InDelta(t, 1.0, b.Scale, 0.001)
}

func TestBoundsCalculator_DerivesInnerPositionFromInsets(t *testing.T) {
	win := newFakeWindow()
	win.innerPosOK = false
	win.outerPos = port.Point{X: 100, Y: 50}
	win.outerSize = port.Size{Width: 1296, Height: 838}
	win.innerSize = port.Size{Width: 1280, Height: 800}
	// borderInset = round((1296-1280)/2) = 8
	// titleBarInset = max(0, (838-800)-8) = 30
	win.landmarks = port.LandmarkInsets{SidebarWidth: 56, HeaderHeight: 44}

	b := NewBoundsCalculator(win).Compute(context.Background())

	assert.InDelta(t, 100.0+8+56, b.X, 0.001)
	assert.InDelta(t, 50.0+30+44, b.Y, 0.001)
	assert.InDelta(t, 1280.0-56, b.Width, 0.001)
	assert.InDelta(t, 800.0-44, b.Height, 0.001)
}

func TestBoundsCalculator_LandmarkFallback(t *testing.T) {
	win := newFakeWindow()
	win.landmarksOK = false
	win.innerSize = port.Size{Width: 1000, Height: 700}

	b := NewBoundsCalculator(win).Compute(context.Background())

	assert.InDelta(t, 56.0, b.X, 0.001)
	assert.InDelta(t, 44.0, b.Y, 0.001)
	assert.InDelta(t, 944.0, b.Width, 0.001)
	assert.InDelta(t, 656.0, b.Height, 0.001)
}

func TestBoundsCalculator_QueryFailureYieldsDefault(t *testing.T) {
	win := newFakeWindow()
	win.innerErr = errors.New("window gone")

	b := NewBoundsCalculator(win).Compute(context.Background())

	assert.Equal(t, DefaultBounds(), b)
}

func TestBoundsCalculator_ScaleFailureYieldsDefault(t *testing.T) {
	win := newFakeWindow()
	win.scaleErr = errors.New("no surface")

	b := NewBoundsCalculator(win).Compute(context.Background())

	assert.Equal(t, DefaultBounds(), b)
}

func TestBoundsCalculator_ZeroInnerSizeIsDegenerate(t *testing.T) {
	win := newFakeWindow()
	win.innerSize = port.Size{Width: 0, Height: 0}

	b := NewBoundsCalculator(win).Compute(context.Background())

	assert.True(t, b.Degenerate())
}

func TestBoundsCalculator_HiDPIScaleCarried(t *testing.T) {
	win := newFakeWindow()
	win.scale = 2

	b := NewBoundsCalculator(win).Compute(context.Background())

	assert.InDelta(t, 2.0, b.Scale, 0.001)
	x, y, w, h := b.Physical()
	assert.Equal(t, 112, x)
	assert.Equal(t, 88, y)
	assert.Equal(t, 2448, w)
	assert.Equal(t, 1512, h)
}
