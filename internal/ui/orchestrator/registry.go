package orchestrator

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/chatdock/chatdock/internal/application/port"
	"github.com/chatdock/chatdock/internal/domain/entity"
	"github.com/chatdock/chatdock/internal/logging"
)

// DefaultCapacity is the registry cache bound applied when configuration
// does not specify one.
const DefaultCapacity = 5

type registryEntry struct {
	proxy      *Proxy
	lastAccess uint64
}

// Registry owns every live webview handle of one surface group and bounds
// their number with LRU eviction. Recency is a monotonically increasing
// sequence counter rather than wall time, so equal timestamps cannot occur
// and eviction order is fully deterministic.
//
// The registry holds the only strong reference to each Proxy; handles leave
// the map exactly when they are closed (eviction, removal, shutdown), which
// rules out dangling closes from other components.
type Registry struct {
	group    entity.GroupID
	host     port.SurfaceHost
	capacity int
	logger   zerolog.Logger

	mu      sync.Mutex
	handles map[entity.PlatformID]*registryEntry
	active  entity.PlatformID
	seq     uint64
}

// NewRegistry creates an empty registry for one surface group. A
// non-positive capacity falls back to DefaultCapacity.
func NewRegistry(ctx context.Context, group entity.GroupID, host port.SurfaceHost, capacity int) *Registry {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	log := logging.FromContext(ctx)
	return &Registry{
		group:    group,
		host:     host,
		capacity: capacity,
		logger:   log.With().Str("component", "webview-registry").Str("group", string(group)).Logger(),
		handles:  make(map[entity.PlatformID]*registryEntry),
	}
}

// Group returns the surface group this registry serves.
func (r *Registry) Group() entity.GroupID { return r.group }

// Capacity returns the cache bound.
func (r *Registry) Capacity() int { return r.capacity }

// Len returns the number of live handles.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Active returns the platform currently designated foreground, or "".
func (r *Registry) Active() entity.PlatformID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// SetActive designates the group's foreground platform.
func (r *Registry) SetActive(id entity.PlatformID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = id
}

// Get returns the handle for id without touching its recency.
func (r *Registry) Get(id entity.PlatformID) (*Proxy, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.handles[id]
	if !ok {
		return nil, false
	}
	return e.proxy, true
}

// GetOrCreate returns the existing handle for the descriptor or creates and
// ensures a new one at the given bounds. A handle whose proxy configuration
// no longer matches the descriptor is closed and rebuilt, since the host
// cannot change a surface's proxy in place. On creation failure the handle
// is left absent so re-selection can retry. The returned flag reports
// whether a new surface was created.
func (r *Registry) GetOrCreate(ctx context.Context, desc entity.PlatformDescriptor, bounds entity.Bounds) (*Proxy, bool, error) {
	r.mu.Lock()
	if e, ok := r.handles[desc.ID]; ok {
		if e.proxy.ProxyURL() == desc.ProxyURL {
			proxy := e.proxy
			r.mu.Unlock()
			return proxy, false, nil
		}
		// Proxy configuration changed: rebuild.
		stale := e.proxy
		delete(r.handles, desc.ID)
		r.mu.Unlock()
		r.logger.Info().Str("platform", string(desc.ID)).Msg("proxy configuration changed, rebuilding surface")
		if err := stale.Close(ctx); err != nil {
			r.logger.Warn().Err(err).Str("platform", string(desc.ID)).Msg("failed to close stale surface")
		}
	} else {
		r.mu.Unlock()
	}

	proxy := NewProxy(ctx, r.host, desc)
	if err := proxy.Ensure(ctx, bounds); err != nil {
		return nil, false, err
	}

	r.mu.Lock()
	// Re-validate: another task may have inserted while Ensure was in
	// flight. Prefer the existing handle and discard ours.
	if e, ok := r.handles[desc.ID]; ok {
		winner := e.proxy
		r.mu.Unlock()
		if err := proxy.Close(ctx); err != nil {
			r.logger.Warn().Err(err).Str("platform", string(desc.ID)).Msg("failed to close duplicate surface")
		}
		return winner, false, nil
	}
	r.seq++
	r.handles[desc.ID] = &registryEntry{proxy: proxy, lastAccess: r.seq}
	r.mu.Unlock()

	r.EvictIfOverCapacity(ctx, desc.ID)
	return proxy, true, nil
}

// Touch bumps id's recency for eviction ordering; it does not affect
// visibility.
func (r *Registry) Touch(id entity.PlatformID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.handles[id]; ok {
		r.seq++
		e.lastAccess = r.seq
	}
}

// EvictIfOverCapacity closes least-recently-accessed handles until the
// registry fits its capacity. The handle for excludeID and the active
// handle are never evicted; if no other candidate exists, eviction is
// skipped.
func (r *Registry) EvictIfOverCapacity(ctx context.Context, excludeID entity.PlatformID) {
	for {
		r.mu.Lock()
		if len(r.handles) <= r.capacity {
			r.mu.Unlock()
			return
		}

		var victim entity.PlatformID
		var victimSeq uint64
		found := false
		for id, e := range r.handles {
			if id == excludeID || id == r.active {
				continue
			}
			if !found || e.lastAccess < victimSeq {
				victim = id
				victimSeq = e.lastAccess
				found = true
			}
		}
		if !found {
			r.mu.Unlock()
			return
		}
		entry := r.handles[victim]
		delete(r.handles, victim)
		r.mu.Unlock()

		r.logger.Debug().Str("platform", string(victim)).Msg("evicting least recently used surface")
		if err := entry.proxy.Close(ctx); err != nil {
			r.logger.Warn().Err(err).Str("platform", string(victim)).Msg("eviction close failed")
		}
	}
}

// Remove closes and drops the handle for id, if present.
func (r *Registry) Remove(ctx context.Context, id entity.PlatformID) {
	r.mu.Lock()
	e, ok := r.handles[id]
	if ok {
		delete(r.handles, id)
	}
	if r.active == id {
		r.active = ""
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	if err := e.proxy.Close(ctx); err != nil {
		r.logger.Warn().Err(err).Str("platform", string(id)).Msg("remove close failed")
	}
}

// Handles returns the live proxies sorted by platform id, so batch
// operations iterate in a stable order.
func (r *Registry) Handles() []*Proxy {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Proxy, 0, len(r.handles))
	for _, e := range r.handles {
		out = append(out, e.proxy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Platform() < out[j].Platform() })
	return out
}

// RemoveAll closes every handle and clears the registry. Individual close
// failures are logged; the sweep always completes.
func (r *Registry) RemoveAll(ctx context.Context) {
	r.mu.Lock()
	entries := make([]*registryEntry, 0, len(r.handles))
	for _, e := range r.handles {
		entries = append(entries, e)
	}
	r.handles = make(map[entity.PlatformID]*registryEntry)
	r.active = ""
	r.mu.Unlock()

	for _, e := range entries {
		if err := e.proxy.Close(ctx); err != nil {
			r.logger.Warn().Err(err).Str("surface", e.proxy.Label()).Msg("shutdown close failed")
		}
	}
}
