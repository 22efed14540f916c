package orchestrator

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/chatdock/chatdock/internal/application/port"
	"github.com/chatdock/chatdock/internal/domain/entity"
	"github.com/chatdock/chatdock/internal/logging"
)

// ManagerConfig holds construction parameters for a Manager.
type ManagerConfig struct {
	Host      port.SurfaceHost
	Window    port.HostWindow
	Events    port.WindowEvents
	Post      func(func())
	Store     port.StateStore // optional
	Capacity  int             // per-group cache bound; <=0 uses DefaultCapacity
	Platforms []entity.PlatformDescriptor
}

// Manager is the orchestration root: one coordinator per surface group,
// sharing the host window but each with independent capacity and active-id
// state. It replaces the per-feature duplicate orchestration stacks with a
// single core parameterized by group.
type Manager struct {
	logger zerolog.Logger

	mu          sync.Mutex
	coords      map[entity.GroupID]*Coordinator
	descriptors map[entity.PlatformID]entity.PlatformDescriptor
	disposers   []func()
	store       port.StateStore
}

// NewManager builds a coordinator per surface group present in the enabled
// platform list and attaches each to the host window events.
func NewManager(ctx context.Context, cfg ManagerConfig) *Manager {
	log := logging.FromContext(ctx)
	m := &Manager{
		logger:      log.With().Str("component", "orchestration-manager").Logger(),
		coords:      make(map[entity.GroupID]*Coordinator),
		descriptors: make(map[entity.PlatformID]entity.PlatformDescriptor),
		store:       cfg.Store,
	}

	groups := make(map[entity.GroupID]bool)
	for _, desc := range cfg.Platforms {
		if !desc.Enabled {
			continue
		}
		m.descriptors[desc.ID] = desc
		groups[desc.Group] = true
	}

	bounds := NewBoundsCalculator(cfg.Window)
	for group := range groups {
		registry := NewRegistry(ctx, group, cfg.Host, cfg.Capacity)
		coord := NewCoordinator(ctx, CoordinatorConfig{
			Group:     group,
			Registry:  registry,
			Bounds:    bounds,
			Window:    cfg.Window,
			Post:      cfg.Post,
			Platforms: m.lookup(group),
			Store:     cfg.Store,
		})
		m.coords[group] = coord
		if cfg.Events != nil {
			m.disposers = append(m.disposers, Attach(ctx, cfg.Events, coord))
		}
	}

	return m
}

// UpdatePlatforms replaces the descriptor set with the enabled platforms of
// descs, so a config reload changes what the next selection sees: removed or
// disabled platforms become unknown, proxy changes trigger the rebuild on
// re-selection, and new platforms of existing groups become selectable.
// Groups with no coordinator yet still require a restart.
func (m *Manager) UpdatePlatforms(descs []entity.PlatformDescriptor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.descriptors = make(map[entity.PlatformID]entity.PlatformDescriptor, len(descs))
	for _, desc := range descs {
		if !desc.Enabled {
			continue
		}
		m.descriptors[desc.ID] = desc
	}
	m.logger.Debug().Int("platforms", len(m.descriptors)).Msg("platform descriptors updated")
}

// lookup resolves descriptors scoped to one group, so a platform id can
// never be selected into a foreign group's registry.
func (m *Manager) lookup(group entity.GroupID) func(entity.PlatformID) (entity.PlatformDescriptor, bool) {
	return func(id entity.PlatformID) (entity.PlatformDescriptor, bool) {
		m.mu.Lock()
		defer m.mu.Unlock()
		desc, ok := m.descriptors[id]
		if !ok || desc.Group != group {
			return entity.PlatformDescriptor{}, false
		}
		return desc, true
	}
}

// Group returns the coordinator for a surface group.
func (m *Manager) Group(id entity.GroupID) (*Coordinator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.coords[id]
	return c, ok
}

// Groups returns all coordinators in stable group order.
func (m *Manager) Groups() []*Coordinator {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Coordinator, 0, len(m.coords))
	for _, c := range m.coords {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Group() < out[j].Group() })
	return out
}

// RestoreLastActive pre-selects each group's persisted platform, so the
// shell reopens where the user left off. Missing or stale records are
// skipped silently.
func (m *Manager) RestoreLastActive(ctx context.Context, group entity.GroupID) error {
	if m.store == nil {
		return nil
	}
	coord, ok := m.Group(group)
	if !ok {
		return nil
	}
	id, err := m.store.LoadActive(ctx, group)
	if err != nil {
		return err
	}
	if id == "" {
		return nil
	}
	m.mu.Lock()
	_, known := m.descriptors[id]
	m.mu.Unlock()
	if !known {
		return nil
	}
	return coord.Select(ctx, id)
}

// Shutdown detaches every bridge and closes every surface in every group.
// Per-group close failures never abort the sweep: all handles are released
// before control returns.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	disposers := m.disposers
	m.disposers = nil
	m.mu.Unlock()
	for _, dispose := range disposers {
		dispose()
	}

	var g errgroup.Group
	for _, coord := range m.Groups() {
		coord := coord
		g.Go(func() error {
			coord.Shutdown(ctx)
			return nil
		})
	}
	_ = g.Wait()
	m.logger.Debug().Msg("all surface groups shut down")
}
