package config

import (
	"fmt"
	"net/url"
	"strings"
)

var validGroups = map[string]bool{
	"chat":        true,
	"translation": true,
	"quickask":    true,
}

// validateConfig checks the whole configuration for values the rest of the
// application cannot tolerate. It returns the first problem found with
// enough context to fix it by hand.
func validateConfig(config *Config) error {
	if err := validateLogging(&config.Logging); err != nil {
		return err
	}
	if config.Cache.Capacity < 1 {
		return fmt.Errorf("cache.capacity must be at least 1, got %d", config.Cache.Capacity)
	}
	if config.Layout.FrameIntervalMs < 1 || config.Layout.FrameIntervalMs > 1000 {
		return fmt.Errorf("layout.frame_interval_ms must be between 1 and 1000, got %d", config.Layout.FrameIntervalMs)
	}
	return validatePlatforms(config.Platforms)
}

func validateLogging(logging *LoggingConfig) error {
	switch strings.ToLower(logging.Level) {
	case "", "trace", "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not one of trace, debug, info, warn, error", logging.Level)
	}
}

func validatePlatforms(platforms []PlatformConfig) error {
	seen := make(map[string]bool, len(platforms))
	for i, p := range platforms {
		if p.ID == "" {
			return fmt.Errorf("platforms[%d]: id must not be empty", i)
		}
		if seen[p.ID] {
			return fmt.Errorf("platforms[%d]: duplicate id %q", i, p.ID)
		}
		seen[p.ID] = true

		if !validGroups[p.Group] {
			return fmt.Errorf("platforms[%d] (%s): group %q is not one of chat, translation, quickask", i, p.ID, p.Group)
		}

		if err := validatePlatformURL(p.URL); err != nil {
			return fmt.Errorf("platforms[%d] (%s): %w", i, p.ID, err)
		}
		if p.Proxy != "" {
			if err := validateProxyURL(p.Proxy); err != nil {
				return fmt.Errorf("platforms[%d] (%s): %w", i, p.ID, err)
			}
		}
	}
	return nil
}

func validatePlatformURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", raw)
	}
	return nil
}

func validateProxyURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid proxy url %q: %w", raw, err)
	}
	switch u.Scheme {
	case "http", "https", "socks4", "socks5":
	default:
		return fmt.Errorf("proxy url %q must use http, https, socks4 or socks5", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("proxy url %q has no host", raw)
	}
	return nil
}
