package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	require.NoError(t, err)

	require.Equal(t, 15*time.Minute, cfg.Labeling.LeaseTTL)
	require.Equal(t, 5, cfg.Labeling.LeaderboardSize)
	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "127.0.0.1:8000", cfg.ListenAddr())
	require.Equal(t, "info", cfg.Logging.Level)
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
labeling:
  lease_ttl: 90s
server:
  port: 9000
`)
	cfg, err := parse(data)
	require.NoError(t, err)

	require.Equal(t, 90*time.Second, cfg.Labeling.LeaseTTL)
	require.Equal(t, 9000, cfg.Server.Port)
	// Defaults should still be set for unspecified fields
	require.Equal(t, 5, cfg.Labeling.LeaderboardSize)
	require.Equal(t, "127.0.0.1", cfg.Server.Host)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	_, err := parse([]byte("labeling:\n  lease_ttl: 0s\n"))
	require.Error(t, err)

	_, err = parse([]byte("labeling:\n  leaderboard_size: -1\n"))
	require.Error(t, err)

	_, err = parse([]byte("server:\n  port: 70000\n"))
	require.Error(t, err)

	_, err = parse([]byte("labeling: [unclosed"))
	require.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, DefaultConfigYAML, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, cfg.Labeling.LeaseTTL)
}

func TestResolveConfigPathExplicitMissing(t *testing.T) {
	_, err := ResolveConfigPath(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestGetDataDir(t *testing.T) {
	t.Setenv(DataDirEnv, "")
	cfg := &Config{}
	require.NotEmpty(t, cfg.GetDataDir())

	cfg.Output.DataDir = "/custom/path"
	require.Equal(t, "/custom/path", cfg.GetDataDir())
	require.Equal(t, filepath.Join("/custom/path", "clicklabel.db"), cfg.DatabasePath())

	t.Setenv(DataDirEnv, "/from/env")
	require.Equal(t, "/from/env", cfg.GetDataDir())
}
