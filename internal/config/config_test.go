package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetGlobalConfigPathPrefersEnvSliceOverHome(t *testing.T) {
	path := getGlobalConfigPath([]string{"XDG_CONFIG_HOME=/tmp/xdg"})
	require.Equal(t, filepath.Join("/tmp/xdg", "ringbus", "config.json"), path)
}

func TestGetGlobalConfigPathFallsBackToHome(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := getGlobalConfigPath(nil)
	require.Equal(t, filepath.Join(home, ".config", "ringbus", "config.json"), path)
}

func TestLoadGlobalReturnsZeroConfigWhenAbsent(t *testing.T) {
	home := t.TempDir()

	cfg, err := LoadGlobal([]string{"XDG_CONFIG_HOME=" + home})
	require.NoError(t, err)
	require.Equal(t, Config{}, cfg)
}

func TestMergeConfigOverlayWinsOnSharedFields(t *testing.T) {
	base := Config{
		Dir: "/global",
		Topics: []TopicConfig{
			{Topic: "orders", MaxPublishers: 1, MaxSubscribers: 1},
			{Topic: "events", MaxPublishers: 2, MaxSubscribers: 2},
		},
	}
	overlay := Config{
		Dir: "/project",
		Topics: []TopicConfig{
			{Topic: "orders", MaxPublishers: 9, MaxSubscribers: 9},
		},
	}

	merged := mergeConfig(base, overlay)

	require.Equal(t, "/project", merged.Dir)
	require.Len(t, merged.Topics, 2)

	orders, ok := merged.Topic("orders")
	require.True(t, ok)
	require.Equal(t, uint32(9), orders.MaxPublishers)

	events, ok := merged.Topic("events")
	require.True(t, ok)
	require.Equal(t, uint32(2), events.MaxPublishers)
}

func TestLoadAllAppliesGlobalThenProjectPrecedence(t *testing.T) {
	xdgHome := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(xdgHome, "ringbus"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(xdgHome, "ringbus", "config.json"), []byte(`{
		"topics": [
			{"topic": "orders", "max_publishers": 1, "max_subscribers": 1},
			{"topic": "events", "max_publishers": 5, "max_subscribers": 5}
		]
	}`), 0o644))

	workDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(workDir, ConfigFileName), []byte(`{
		"topics": [
			{"topic": "orders", "max_publishers": 9, "max_subscribers": 9}
		]
	}`), 0o644))

	t.Setenv("XDG_CONFIG_HOME", xdgHome)

	cfg, err := LoadAll(workDir, "", os.Environ())
	require.NoError(t, err)

	orders, ok := cfg.Topic("orders")
	require.True(t, ok)
	require.Equal(t, uint32(9), orders.MaxPublishers, "project tier must override global tier")

	events, ok := cfg.Topic("events")
	require.True(t, ok)
	require.Equal(t, uint32(5), events.MaxPublishers, "global-only topic must survive the merge")
}

func TestLoadAllWithNoConfigFilesReturnsZeroTopics(t *testing.T) {
	xdgHome := t.TempDir()
	workDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdgHome)

	cfg, err := LoadAll(workDir, "", os.Environ())
	require.NoError(t, err)
	require.Empty(t, cfg.Topics)
}
