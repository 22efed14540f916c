package config

import (
	"sort"

	"github.com/chatdock/chatdock/internal/domain/entity"
)

// Config represents the complete configuration for chatdock.
type Config struct {
	Database  DatabaseConfig   `mapstructure:"database" toml:"database"`
	Logging   LoggingConfig    `mapstructure:"logging" toml:"logging"`
	Cache     CacheConfig      `mapstructure:"cache" toml:"cache"`
	Layout    LayoutConfig     `mapstructure:"layout" toml:"layout"`
	Platforms []PlatformConfig `mapstructure:"platforms" toml:"platforms"`
}

// DatabaseConfig holds the state database settings.
type DatabaseConfig struct {
	// Path to the SQLite database file. Resolved from XDG_DATA_HOME when
	// empty.
	Path string `mapstructure:"path" toml:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `mapstructure:"level" toml:"level"`
	// Format selects "text" (console writer) or "json" output.
	Format string `mapstructure:"format" toml:"format"`
	// CaptureNative redirects the process stdout/stderr through the
	// structured logger, so GTK and WebKit diagnostics land in one stream.
	CaptureNative bool `mapstructure:"capture_native" toml:"capture_native"`
}

// CacheConfig bounds the number of live webviews kept per surface group.
type CacheConfig struct {
	// Capacity is the per-group maximum of concurrently live webviews.
	Capacity int `mapstructure:"capacity" toml:"capacity"`
}

// LayoutConfig holds fallback geometry used when the host window cannot be
// measured, plus the reflow frame interval.
type LayoutConfig struct {
	// SidebarWidth is the logical width reserved for the platform rail.
	SidebarWidth float64 `mapstructure:"sidebar_width" toml:"sidebar_width"`
	// HeaderHeight is the logical height reserved for the header bar.
	HeaderHeight float64 `mapstructure:"header_height" toml:"header_height"`
	// FrameIntervalMs is the reflow coalescing window in milliseconds.
	FrameIntervalMs int `mapstructure:"frame_interval_ms" toml:"frame_interval_ms"`
}

// PlatformConfig describes one selectable web destination.
type PlatformConfig struct {
	ID      string `mapstructure:"id" toml:"id"`
	Name    string `mapstructure:"name" toml:"name"`
	URL     string `mapstructure:"url" toml:"url"`
	Group   string `mapstructure:"group" toml:"group"`
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
	Rank    int    `mapstructure:"rank" toml:"rank"`
	// Proxy is an optional per-platform proxy URL. Changing it rebuilds the
	// platform's webview on next selection.
	Proxy string `mapstructure:"proxy" toml:"proxy"`
}

// Descriptors converts the configured platforms into immutable domain
// descriptors, sorted by group then rank then id.
func (c *Config) Descriptors() []entity.PlatformDescriptor {
	out := make([]entity.PlatformDescriptor, 0, len(c.Platforms))
	for _, p := range c.Platforms {
		out = append(out, entity.PlatformDescriptor{
			ID:       entity.PlatformID(p.ID),
			Name:     p.Name,
			URL:      p.URL,
			Group:    entity.GroupID(p.Group),
			Enabled:  p.Enabled,
			Rank:     p.Rank,
			ProxyURL: p.Proxy,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Group != out[j].Group {
			return out[i].Group < out[j].Group
		}
		if out[i].Rank != out[j].Rank {
			return out[i].Rank < out[j].Rank
		}
		return out[i].ID < out[j].ID
	})
	return out
}
