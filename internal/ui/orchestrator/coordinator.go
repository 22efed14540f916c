package orchestrator

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/chatdock/chatdock/internal/application/port"
	"github.com/chatdock/chatdock/internal/domain/entity"
	"github.com/chatdock/chatdock/internal/logging"
)

// CoordinatorConfig holds construction parameters for a Coordinator.
type CoordinatorConfig struct {
	Group    entity.GroupID
	Registry *Registry
	Bounds   *BoundsCalculator
	Window   port.HostWindow
	// Post delivers scheduler flushes on the main loop's next frame tick;
	// nil selects the scheduler's internal timer fallback.
	Post func(func())
	// Platforms resolves a platform id to its descriptor.
	Platforms func(entity.PlatformID) (entity.PlatformDescriptor, bool)
	// Store persists the active selection across launches. Optional.
	Store port.StateStore
}

// Coordinator enforces the single-visible-surface policy of one surface
// group: at most one handle is visible at any externally observable
// instant, except the unavoidable gap between "others hidden" and "target
// shown" during a switch.
//
// Suspension is modelled by entity.SuspendState. HideAll with
// markForRestore=false does not cancel shows already in flight; the
// per-handle guard in Proxy only prevents overlapping shows of the same
// handle (stakeholder-visible behavior difference, kept deliberately).
type Coordinator struct {
	group     entity.GroupID
	registry  *Registry
	bounds    *BoundsCalculator
	win       port.HostWindow
	scheduler *Scheduler
	platforms func(entity.PlatformID) (entity.PlatformDescriptor, bool)
	store     port.StateStore
	logger    zerolog.Logger

	// opMu serializes selection/suspension transitions so a re-entrant
	// Select sees the settled state of the previous one.
	opMu sync.Mutex

	mu             sync.Mutex
	suspend        entity.SuspendState
	selected       entity.PlatformID
	onSurfaceReady func(entity.GroupID, entity.PlatformID)
}

// NewCoordinator creates a coordinator and its reflow scheduler.
func NewCoordinator(ctx context.Context, cfg CoordinatorConfig) *Coordinator {
	log := logging.FromContext(ctx)
	c := &Coordinator{
		group:     cfg.Group,
		registry:  cfg.Registry,
		bounds:    cfg.Bounds,
		win:       cfg.Window,
		platforms: cfg.Platforms,
		store:     cfg.Store,
		logger:    log.With().Str("component", "visibility-coordinator").Str("group", string(cfg.Group)).Logger(),
	}
	c.scheduler = NewScheduler(ctx, cfg.Post, c.flushReflow)
	return c
}

// Scheduler returns the group's reflow scheduler.
func (c *Coordinator) Scheduler() *Scheduler { return c.scheduler }

// Registry returns the group's webview registry.
func (c *Coordinator) Registry() *Registry { return c.registry }

// Group returns the surface group this coordinator serves.
func (c *Coordinator) Group() entity.GroupID { return c.group }

// Selected returns the chosen platform id, which stays set while the
// group is suspended.
func (c *Coordinator) Selected() entity.PlatformID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// SuspendState returns the group's current suspension state.
func (c *Coordinator) SuspendState() entity.SuspendState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suspend
}

// SetOnSurfaceReady registers a callback fired once per surface creation,
// when the handle first reaches ready. Diagnostic tooling uses it to know
// when script injection is safe to attempt.
func (c *Coordinator) SetOnSurfaceReady(fn func(entity.GroupID, entity.PlatformID)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onSurfaceReady = fn
}

// Select makes platform id the group's foreground surface: every other
// handle is hidden first, then the target is created on demand, positioned,
// shown and focused. On creation failure nothing is visible and the error
// is returned for the UI to surface with a retry action.
func (c *Coordinator) Select(ctx context.Context, id entity.PlatformID) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	return c.selectLocked(ctx, id)
}

func (c *Coordinator) selectLocked(ctx context.Context, id entity.PlatformID) error {
	desc, ok := c.platforms(id)
	if !ok {
		return ErrUnknownPlatform
	}

	b := c.bounds.Compute(ctx)
	if b.Degenerate() {
		// Host window has no drawable area; remember the choice and
		// suspend until the window comes back.
		c.logger.Debug().Str("platform", string(id)).Msg("degenerate bounds on select, suspending")
		c.mu.Lock()
		c.selected = id
		c.mu.Unlock()
		c.hideAllLocked(ctx, true)
		return nil
	}

	// All other handles must be hidden before the target shows, so the
	// single-visible-surface invariant holds at every settle point.
	c.hideExcept(ctx, id)

	proxy, created, err := c.registry.GetOrCreate(ctx, desc, b)
	if err != nil {
		c.logger.Error().Err(err).Str("platform", string(id)).Msg("platform selection failed")
		c.mu.Lock()
		c.selected = id
		c.mu.Unlock()
		c.registry.SetActive("")
		return err
	}

	c.registry.Touch(id)
	c.registry.SetActive(id)

	c.mu.Lock()
	restorePending := c.suspend == entity.SuspendPendingRestore
	c.selected = id
	c.suspend = entity.SuspendActive
	ready := c.onSurfaceReady
	c.mu.Unlock()

	c.persistSelection(ctx, id)

	if proxy.Visible() && !restorePending {
		// Already frontmost content; just refocus and let a reflow settle
		// the geometry.
		if err := proxy.SetFocus(ctx); err != nil {
			c.logger.Warn().Err(err).Str("platform", string(id)).Msg("refocus failed")
		}
		c.scheduler.Schedule(ctx, true, false)
		return nil
	}

	if err := proxy.UpdateBounds(ctx, b); err != nil {
		c.logger.Warn().Err(err).Str("platform", string(id)).Msg("bounds update failed")
	}
	if err := proxy.Show(ctx); err != nil {
		c.logger.Warn().Err(err).Str("platform", string(id)).Msg("show failed")
	}
	if err := proxy.SetFocus(ctx); err != nil {
		c.logger.Warn().Err(err).Str("platform", string(id)).Msg("focus failed")
	}

	if created && ready != nil {
		ready(c.group, id)
	}
	return nil
}

// HideAll hides every handle in the group. markForRestore=true records a
// pending restore (minimize, tray hide); false suppresses the next
// non-forced restore so a stray restore event cannot reopen a surface the
// user dismissed intentionally (modal overlay, explicit hide).
func (c *Coordinator) HideAll(ctx context.Context, markForRestore bool) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.hideAllLocked(ctx, markForRestore)
}

func (c *Coordinator) hideAllLocked(ctx context.Context, markForRestore bool) {
	c.mu.Lock()
	if markForRestore {
		c.suspend = entity.SuspendPendingRestore
	} else {
		c.suspend = entity.SuspendSuppressed
	}
	c.mu.Unlock()

	c.logger.Debug().Bool("mark_for_restore", markForRestore).Msg("hiding all surfaces")
	c.hideExcept(ctx, "")
}

// hideExcept hides every handle but the one for keep ("" hides all). All
// hides are awaited before return; individual failures are logged and do
// not abort the batch.
func (c *Coordinator) hideExcept(ctx context.Context, keep entity.PlatformID) {
	var g errgroup.Group
	for _, h := range c.registry.Handles() {
		if keep != "" && h.Platform() == keep {
			continue
		}
		h := h
		g.Go(func() error {
			if err := h.Hide(ctx); err != nil {
				c.logger.Warn().Err(err).Str("surface", h.Label()).Msg("hide failed")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// RestoreActive re-shows the chosen platform after a suspension. A
// suppressed restore is consumed without effect; a non-forced restore with
// nothing pending is ignored.
func (c *Coordinator) RestoreActive(ctx context.Context, force bool) error {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	switch {
	case c.suspend == entity.SuspendSuppressed && !force:
		c.suspend = entity.SuspendActive
		c.mu.Unlock()
		c.logger.Debug().Msg("restore suppressed, consuming")
		return nil
	case !force && c.suspend != entity.SuspendPendingRestore:
		c.mu.Unlock()
		return nil
	}
	id := c.selected
	c.mu.Unlock()

	if id == "" {
		c.mu.Lock()
		c.suspend = entity.SuspendActive
		c.mu.Unlock()
		return nil
	}

	c.logger.Debug().Str("platform", string(id)).Bool("force", force).Msg("restoring active surface")
	if err := c.selectLocked(ctx, id); err != nil {
		return err
	}
	c.scheduler.Schedule(ctx, true, false)
	return nil
}

// Shutdown closes every surface in the group.
func (c *Coordinator) Shutdown(ctx context.Context) {
	c.opMu.Lock()
	defer c.opMu.Unlock()
	c.registry.RemoveAll(ctx)
	c.mu.Lock()
	c.suspend = entity.SuspendActive
	c.mu.Unlock()
}

// flushReflow is the scheduler's flush target: it recomputes bounds once
// and reapplies them to every handle concurrently, awaiting the whole
// batch. When ensureActiveFront was requested and the host window holds
// focus, the active handle is additionally shown and focused.
func (c *Coordinator) flushReflow(ctx context.Context, ensureActiveFront bool) {
	b := c.bounds.Compute(ctx)
	if b.Degenerate() {
		c.HideAll(ctx, true)
		return
	}

	var g errgroup.Group
	for _, h := range c.registry.Handles() {
		h := h
		g.Go(func() error {
			if err := h.UpdateBounds(ctx, b); err != nil {
				c.logger.Warn().Err(err).Str("surface", h.Label()).Msg("reflow bounds update failed")
			}
			return nil
		})
	}
	_ = g.Wait()

	if !ensureActiveFront || !c.win.IsFocused() {
		return
	}
	c.mu.Lock()
	suspended := c.suspend != entity.SuspendActive
	c.mu.Unlock()
	if suspended {
		return
	}

	active := c.registry.Active()
	if active == "" {
		return
	}
	proxy, ok := c.registry.Get(active)
	if !ok {
		return
	}
	if err := proxy.Show(ctx); err != nil {
		c.logger.Warn().Err(err).Str("platform", string(active)).Msg("front show failed")
	}
	if err := proxy.SetFocus(ctx); err != nil {
		c.logger.Warn().Err(err).Str("platform", string(active)).Msg("front focus failed")
	}
}

// persistSelection records the active platform for the next launch.
// Persistence failures are log-only; selection never depends on the store.
func (c *Coordinator) persistSelection(ctx context.Context, id entity.PlatformID) {
	if c.store == nil {
		return
	}
	if err := c.store.SaveActive(ctx, c.group, id); err != nil {
		c.logger.Warn().Err(err).Str("platform", string(id)).Msg("failed to persist active platform")
	}
	if err := c.store.RecordAccess(ctx, c.group, id); err != nil {
		c.logger.Warn().Err(err).Str("platform", string(id)).Msg("failed to record platform access")
	}
}
