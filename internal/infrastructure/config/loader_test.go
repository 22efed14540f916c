package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDefaults(t *testing.T) {
	mgr := &Manager{viper: viper.New()}
	mgr.setDefaults()

	assert.Equal(t, "info", mgr.viper.GetString("logging.level"))
	assert.Equal(t, "text", mgr.viper.GetString("logging.format"))
	assert.Equal(t, 5, mgr.viper.GetInt("cache.capacity"))
	assert.InDelta(t, 56.0, mgr.viper.GetFloat64("layout.sidebar_width"), 0.001)
	assert.InDelta(t, 44.0, mgr.viper.GetFloat64("layout.header_height"), 0.001)
	assert.Equal(t, 16, mgr.viper.GetInt("layout.frame_interval_ms"))
}

func TestNormalizeConfig_InvalidLogFormat(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Logging.Format = "XML"

	normalizeConfig(cfg)

	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestNormalizeConfig_ZeroCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cache.Capacity = 0

	normalizeConfig(cfg)

	assert.Equal(t, defaultCacheCapacity, cfg.Cache.Capacity)
}

func TestNormalizeConfig_PlatformIDsLowercased(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Platforms = []PlatformConfig{
		{ID: " ChatGPT ", Name: "ChatGPT", URL: "https://chatgpt.com/", Group: "Chat", Enabled: true},
	}

	normalizeConfig(cfg)

	assert.Equal(t, "chatgpt", cfg.Platforms[0].ID)
	assert.Equal(t, "chat", cfg.Platforms[0].Group)
}

func TestDescriptorsSortedByGroupRank(t *testing.T) {
	cfg := &Config{Platforms: []PlatformConfig{
		{ID: "google-translate", URL: "https://translate.google.com/", Group: "translation", Rank: 2, Enabled: true},
		{ID: "claude", URL: "https://claude.ai/new", Group: "chat", Rank: 2, Enabled: true},
		{ID: "chatgpt", URL: "https://chatgpt.com/", Group: "chat", Rank: 1, Enabled: true},
	}}

	descs := cfg.Descriptors()

	require.Len(t, descs, 3)
	assert.Equal(t, "chatgpt", string(descs[0].ID))
	assert.Equal(t, "claude", string(descs[1].ID))
	assert.Equal(t, "google-translate", string(descs[2].ID))
}

func TestDefaultPlatformsValidate(t *testing.T) {
	cfg := DefaultConfig()

	require.NoError(t, validateConfig(cfg))
}
