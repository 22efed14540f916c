package orchestrator

import (
	"context"
	"sync"

	"github.com/chatdock/chatdock/internal/application/port"
	"github.com/chatdock/chatdock/internal/logging"
)

// Attach subscribes a coordinator to the host window's lifecycle events and
// returns a single disposer that tears every subscription down. Callers
// never manage individual unlisten functions.
//
// Event translation:
//   - resize/move: coalesced reflow; a zero-area resize suspends the group
//     with a pending restore.
//   - scale change: front-ensuring reflow (DPI moves can reorder stacking).
//   - focus regained: non-forced restore plus a front-ensuring reflow.
//   - minimized/hidden: hide all, restore pending.
//   - restored/shown: non-forced restore (the pending flag gates it).
//   - close requested: close every surface in the group.
func Attach(ctx context.Context, events port.WindowEvents, c *Coordinator) (dispose func()) {
	log := logging.FromContext(ctx).With().
		Str("component", "host-event-bridge").
		Str("group", string(c.Group())).
		Logger()

	unsubs := []func(){
		events.OnResize(func(size port.Size) {
			if size.Width <= 0 || size.Height <= 0 {
				log.Debug().Msg("zero-area resize, suspending surfaces")
				c.HideAll(ctx, true)
				return
			}
			c.Scheduler().Schedule(ctx, false, false)
		}),

		events.OnMove(func() {
			c.Scheduler().Schedule(ctx, false, false)
		}),

		events.OnScaleChanged(func() {
			c.Scheduler().Schedule(ctx, true, false)
		}),

		events.OnFocusChanged(func(focused bool) {
			if !focused {
				return
			}
			if err := c.RestoreActive(ctx, false); err != nil {
				log.Warn().Err(err).Msg("restore on focus failed")
			}
			c.Scheduler().Schedule(ctx, true, false)
		}),

		events.OnStateChanged(func(state port.WindowState) {
			switch state {
			case port.WindowMinimized, port.WindowHidden:
				c.HideAll(ctx, true)
			case port.WindowRestored, port.WindowShown:
				if err := c.RestoreActive(ctx, false); err != nil {
					log.Warn().Err(err).Msg("restore on window state failed")
				}
			}
		}),

		events.OnCloseRequested(func() {
			c.Shutdown(ctx)
		}),
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			for _, unsub := range unsubs {
				unsub()
			}
			log.Debug().Msg("host event bridge detached")
		})
	}
}
