package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
log:
  level: "debug"
  format: "console"
engine:
  pattern_accept_score: 0.55
  max_table_rows: 25
cache:
  backend: "disk"
  dir: "cache"
  max_size_mb: 50
batch:
  workers: 4
  item_timeout: 30s
visual:
  enabled: true
  endpoint: "http://localhost:8501/extract"
  timeout: 10s
report:
  output_dir: "out"
  xlsx: true
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err)
	return path
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 0.55, cfg.Engine.PatternAcceptScore)
	assert.Equal(t, 25, cfg.Engine.MaxTableRows)
	assert.Equal(t, 50, cfg.Cache.MaxSizeMB)
	assert.Equal(t, 4, cfg.Batch.Workers)
	assert.Equal(t, 30*time.Second, cfg.Batch.ItemTimeout)
	assert.True(t, cfg.Visual.Enabled)
	assert.Equal(t, "out", cfg.Report.OutputDir)
	assert.True(t, cfg.Report.XLSX)
}

func TestLoad_FromFile_DefaultsFillUnsetFields(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	cfg, err := Load(path)
	require.NoError(t, err)

	// Not present in the YAML; must come from ApplyDefaults.
	assert.Equal(t, DefaultFuzzyMinRatio, cfg.Engine.FuzzyMinRatio)
	assert.Equal(t, DefaultCacheAgeDays, cfg.Cache.MaxAgeDays)
	assert.Equal(t, DefaultMinTextLength, cfg.Visual.MinTextLength)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load("non_existent_config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	path := createTempConfigFile(t, "invalid_yaml: [")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	invalidConfig := `
engine:
  pattern_accept_score: 3.0
`
	path := createTempConfigFile(t, invalidConfig)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")
}

func TestLoad_EnvOverride(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	t.Setenv("SDSMATCH_CACHE_BACKEND", "none")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "none", cfg.Cache.Backend)
}

func TestLoad_EnvOverride_NestedKey(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	t.Setenv("SDSMATCH_LOG_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoadFromEnv_NoFileNeeded(t *testing.T) {
	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, DefaultCacheBackend, cfg.Cache.Backend)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
}

func TestMustLoad_Success(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	assert.NotPanics(t, func() {
		MustLoad(path)
	})
}

func TestMustLoad_Panic(t *testing.T) {
	assert.Panics(t, func() {
		MustLoad("non_existent.yaml")
	})
}

func TestWatch_InvokesCallbackOnChange(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	changed := make(chan *Config, 1)
	Watch(path, func(c *Config) {
		select {
		case changed <- c:
		default:
		}
	})

	// Rewrite the file with a modified value.
	updated := `
log:
  level: "warn"
`
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case cfg := <-changed:
		assert.Equal(t, "warn", cfg.Log.Level)
	case <-time.After(5 * time.Second):
		t.Skip("filesystem watcher did not fire; environment may not support fsnotify")
	}
}
