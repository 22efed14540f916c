package config

// Default configuration constants
const (
	// Cache defaults
	defaultCacheCapacity = 5 // live webviews per group

	// Layout defaults
	defaultSidebarWidth    = 56.0 // logical px
	defaultHeaderHeight    = 44.0 // logical px
	defaultFrameIntervalMs = 16   // ~60 Hz reflow coalescing
)

// DefaultConfig returns the default configuration values for chatdock.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			// Path is set dynamically in config.Load()
		},
		Logging: LoggingConfig{
			Level:         "info",
			Format:        "text", // text or json
			CaptureNative: false,
		},
		Cache: CacheConfig{
			Capacity: defaultCacheCapacity,
		},
		Layout: LayoutConfig{
			SidebarWidth:    defaultSidebarWidth,
			HeaderHeight:    defaultHeaderHeight,
			FrameIntervalMs: defaultFrameIntervalMs,
		},
		Platforms: DefaultPlatforms(),
	}
}

// DefaultPlatforms returns the built-in platform set. Users add, remove or
// disable entries through the config file.
func DefaultPlatforms() []PlatformConfig {
	return []PlatformConfig{
		{ID: "chatgpt", Name: "ChatGPT", URL: "https://chatgpt.com/", Group: "chat", Enabled: true, Rank: 1},
		{ID: "claude", Name: "Claude", URL: "https://claude.ai/new", Group: "chat", Enabled: true, Rank: 2},
		{ID: "gemini", Name: "Gemini", URL: "https://gemini.google.com/app", Group: "chat", Enabled: true, Rank: 3},
		{ID: "deepseek", Name: "DeepSeek", URL: "https://chat.deepseek.com/", Group: "chat", Enabled: false, Rank: 4},
		{ID: "deepl", Name: "DeepL", URL: "https://www.deepl.com/translator", Group: "translation", Enabled: true, Rank: 1},
		{ID: "google-translate", Name: "Google Translate", URL: "https://translate.google.com/", Group: "translation", Enabled: true, Rank: 2},
	}
}
