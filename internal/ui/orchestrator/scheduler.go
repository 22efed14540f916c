package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/chatdock/chatdock/internal/logging"
)

// frameInterval approximates one animation frame for the timer fallback
// used when no frame-aligned post function is injected.
const frameInterval = 16 * time.Millisecond

// FlushFunc recomputes and reapplies bounds for every registered handle.
// ensureActiveFront additionally requests that the active handle be brought
// to front and focused, provided the host window holds focus.
type FlushFunc func(ctx context.Context, ensureActiveFront bool)

// Scheduler debounces reflow requests. Host move/resize events fire many
// times per second during a drag; coalescing them into one flush per frame
// avoids per-event repositioning jitter and excess IPC traffic.
//
// The scheduler is single-flight: while a flush is pending, further
// non-immediate Schedule calls are absorbed, OR-ing their front flags into
// the pending flush.
type Scheduler struct {
	post   func(func()) // frame-aligned post; nil selects the timer fallback
	flush  FlushFunc
	logger zerolog.Logger

	mu      sync.Mutex
	pending bool
	front   bool
}

// NewScheduler creates a scheduler that delivers flushes through post, or
// through a ~16ms timer when post is nil.
func NewScheduler(ctx context.Context, post func(func()), flush FlushFunc) *Scheduler {
	if flush == nil {
		panic("orchestrator.NewScheduler: flush function cannot be nil")
	}
	log := logging.FromContext(ctx)
	return &Scheduler{
		post:   post,
		flush:  flush,
		logger: log.With().Str("component", "reflow-scheduler").Logger(),
	}
}

// Schedule requests a reflow. Non-immediate requests are coalesced onto the
// next frame tick; an immediate request cancels the pending bookkeeping and
// flushes right away with the accumulated front flag.
func (s *Scheduler) Schedule(ctx context.Context, ensureActiveFront, immediate bool) {
	s.mu.Lock()
	s.front = s.front || ensureActiveFront

	if immediate {
		// Absorb any pending tick; its callback re-checks the flag and
		// becomes a no-op.
		s.pending = false
		front := s.front
		s.front = false
		s.mu.Unlock()
		s.flush(ctx, front)
		return
	}

	if s.pending {
		s.mu.Unlock()
		return
	}
	s.pending = true
	s.mu.Unlock()

	fire := func() {
		s.mu.Lock()
		if !s.pending {
			s.mu.Unlock()
			return
		}
		s.pending = false
		front := s.front
		s.front = false
		s.mu.Unlock()
		s.flush(ctx, front)
	}

	if s.post != nil {
		s.post(fire)
		return
	}
	time.AfterFunc(frameInterval, fire)
}
