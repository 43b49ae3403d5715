package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
logging:
  level: debug
  format: json
engine:
  seed: 42
  max_call_depth: 16
spectest:
  fail_fast: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, uint64(42), cfg.Engine.Seed)
	assert.Equal(t, 16, cfg.Engine.MaxCallDepth)
	assert.Equal(t, 256, cfg.Engine.HistoryLimit, "unset keys keep defaults")
	assert.True(t, cfg.SpecTest.FailFast)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CARDLANG_LOGGING_LEVEL", "warn")
	t.Setenv("CARDLANG_ENGINE_SEED", "7")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, uint64(7), cfg.Engine.Seed)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := writeConfig(t, "logging:\n  level: loud\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")

	path = writeConfig(t, "engine:\n  max_call_depth: 0\n")
	_, err = Load(path)
	require.Error(t, err)
}
