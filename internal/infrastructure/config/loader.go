package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Manager handles configuration loading, watching, and reloading.
type Manager struct {
	config         *Config
	viper          *viper.Viper
	mu             sync.RWMutex
	callbacks      []func(*Config)
	watching       bool
	skipNextReload bool
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	v := viper.New()

	// TOML config named config.toml in the XDG config dir.
	v.SetConfigName("config")
	v.SetConfigType("toml")

	configDir, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine config directory: %w\nCheck XDG_CONFIG_HOME environment variable or HOME directory", err)
	}
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // Current directory for development

	// Environment variable support: CHATDOCK_CACHE_CAPACITY,
	// CHATDOCK_DATABASE_PATH, and so on.
	v.SetEnvPrefix("CHATDOCK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit bindings for env vars whose names don't follow the key path.
	if err := v.BindEnv("logging.level", "CHATDOCK_LOG_LEVEL"); err != nil {
		return nil, fmt.Errorf("failed to bind CHATDOCK_LOG_LEVEL: %w", err)
	}
	if err := v.BindEnv("logging.format", "CHATDOCK_LOG_FORMAT"); err != nil {
		return nil, fmt.Errorf("failed to bind CHATDOCK_LOG_FORMAT: %w", err)
	}

	return &Manager{
		viper:     v,
		callbacks: make([]func(*Config), 0),
	}, nil
}

// Load loads the configuration from file and environment variables.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to ensure directories: %w", err)
	}

	m.setDefaults()

	if err := m.readConfigFile(); err != nil {
		return err
	}

	config, err := m.unmarshalConfig()
	if err != nil {
		return err
	}
	if err := ensureDatabasePath(config); err != nil {
		return err
	}
	normalizeConfig(config)

	if err := validateConfig(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	m.config = config
	return nil
}

func (m *Manager) readConfigFile() error {
	if err := m.viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			if createErr := m.createDefaultConfig(); createErr != nil {
				configDir, _ := GetConfigDir()
				return fmt.Errorf(
					"failed to create default config at %s: %w\nTry creating the directory manually or check permissions",
					configDir,
					createErr,
				)
			}
			if rereadErr := m.viper.ReadInConfig(); rereadErr != nil {
				return fmt.Errorf(
					"failed to read newly created config file: %w\nThe config file was created but couldn't be read. Please check the file format",
					rereadErr,
				)
			}
		} else {
			configFile := m.viper.ConfigFileUsed()
			if configFile == "" {
				configDir, _ := GetConfigDir()
				configFile = filepath.Join(configDir, "config.toml")
			}
			return fmt.Errorf("failed to read config file at %s: %w\nCheck the file format (must be valid TOML) and permissions", configFile, err)
		}
	}
	return nil
}

func (m *Manager) unmarshalConfig() (*Config, error) {
	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		configFile := m.viper.ConfigFileUsed()
		return nil, fmt.Errorf(
			"failed to parse config file at %s: %w\nCheck for syntax errors, invalid values, or type mismatches",
			configFile,
			err,
		)
	}
	return config, nil
}

func ensureDatabasePath(config *Config) error {
	if config.Database.Path != "" {
		return nil
	}
	dbPath, err := GetDatabaseFile()
	if err != nil {
		return fmt.Errorf("failed to get database path: %w", err)
	}
	config.Database.Path = dbPath
	return nil
}

func normalizeConfig(config *Config) {
	switch strings.ToLower(config.Logging.Format) {
	case "", "text":
		config.Logging.Format = "text"
	case "json":
		config.Logging.Format = "json"
	default:
		config.Logging.Format = "text"
	}

	if config.Cache.Capacity <= 0 {
		config.Cache.Capacity = defaultCacheCapacity
	}
	if config.Layout.SidebarWidth < 0 {
		config.Layout.SidebarWidth = defaultSidebarWidth
	}
	if config.Layout.HeaderHeight < 0 {
		config.Layout.HeaderHeight = defaultHeaderHeight
	}
	if config.Layout.FrameIntervalMs <= 0 {
		config.Layout.FrameIntervalMs = defaultFrameIntervalMs
	}

	for i := range config.Platforms {
		config.Platforms[i].ID = strings.TrimSpace(strings.ToLower(config.Platforms[i].ID))
		config.Platforms[i].Group = strings.TrimSpace(strings.ToLower(config.Platforms[i].Group))
	}
}

// Get returns the current configuration (thread-safe).
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent external modification
	configCopy := *m.config
	return &configCopy
}

// GetConfigFile returns the path to the configuration file being used.
func (m *Manager) GetConfigFile() string {
	return m.viper.ConfigFileUsed()
}

// createDefaultConfig creates a default configuration file.
func (m *Manager) createDefaultConfig() error {
	configFile, err := GetConfigFile()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configFile), dirPerm); err != nil {
		return err
	}

	// Viper does not serialize slices of tables from SetDefault, so the
	// platform list is seeded explicitly before the first write.
	m.viper.Set("platforms", defaultPlatformMaps())

	m.viper.SetConfigType("toml")
	if err := m.viper.SafeWriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Created default configuration file: %s (TOML format)\n", configFile)

	return nil
}

func defaultPlatformMaps() []map[string]any {
	platforms := DefaultPlatforms()
	out := make([]map[string]any, 0, len(platforms))
	for _, p := range platforms {
		out = append(out, map[string]any{
			"id":      p.ID,
			"name":    p.Name,
			"url":     p.URL,
			"group":   p.Group,
			"enabled": p.Enabled,
			"rank":    p.Rank,
		})
	}
	return out
}

// setDefaults sets default configuration values in Viper.
func (m *Manager) setDefaults() {
	defaults := DefaultConfig()

	// Note: Database.Path is set dynamically in Load(), no defaults needed

	m.viper.SetDefault("logging.level", defaults.Logging.Level)
	m.viper.SetDefault("logging.format", defaults.Logging.Format)
	m.viper.SetDefault("logging.capture_native", defaults.Logging.CaptureNative)

	m.viper.SetDefault("cache.capacity", defaults.Cache.Capacity)

	m.viper.SetDefault("layout.sidebar_width", defaults.Layout.SidebarWidth)
	m.viper.SetDefault("layout.header_height", defaults.Layout.HeaderHeight)
	m.viper.SetDefault("layout.frame_interval_ms", defaults.Layout.FrameIntervalMs)

	m.viper.SetDefault("platforms", defaultPlatformMaps())
}

// New returns a new default configuration instance.
// This is a convenience function for getting default config without the full manager.
func New() *Config {
	return DefaultConfig()
}
