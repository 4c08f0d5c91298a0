// Package config provides configuration loading, defaults, and validation for
// sdsmatch.
package config

import (
	"runtime"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultPatternAcceptScore = 0.5
	DefaultFuzzyMinRatio      = 0.65
	DefaultHeaderAliasRatio   = 0.6
	DefaultTableHeaderFuzzy   = 0.8
	DefaultMaxTableRows       = 20
	DefaultContextWindow      = 200
	DefaultMemoCapacity       = 256

	DefaultCacheBackend = "disk"
	DefaultCacheDir     = "cache"
	DefaultCacheSizeMB  = 100
	DefaultCacheAgeDays = 30

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisTTL  = 24 * time.Hour
	DefaultKeyPrefix = "sdsmatch:"

	DefaultItemTimeout  = 60 * time.Second
	DefaultMaxRetries   = 2
	DefaultRetryBackoff = 500 * time.Millisecond

	DefaultVisualTimeout = 30 * time.Second
	DefaultMinTextLength = 100

	DefaultOutputDir = "results"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	maxDefaultWorkers = 8
)

// DefaultBatchWorkers returns the worker count used when batch.workers is
// unset: one per CPU, capped so a large host does not hammer a shared cache
// or visual service.
func DefaultBatchWorkers() int {
	n := runtime.NumCPU()
	if n > maxDefaultWorkers {
		return maxDefaultWorkers
	}
	if n < 1 {
		return 1
	}
	return n
}

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults fills zero-value fields in cfg with well-known defaults.
// It must be called after unmarshalling raw config data and before Validate()
// so that optional-but-defaulted fields are never seen as missing.
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg with the project default.
// Fields that have already been set by the caller (non-zero values) are left
// unchanged so that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Engine ────────────────────────────────────────────────────────────────
	if cfg.Engine.PatternAcceptScore == 0 {
		cfg.Engine.PatternAcceptScore = DefaultPatternAcceptScore
	}
	if cfg.Engine.FuzzyMinRatio == 0 {
		cfg.Engine.FuzzyMinRatio = DefaultFuzzyMinRatio
	}
	if cfg.Engine.HeaderAliasRatio == 0 {
		cfg.Engine.HeaderAliasRatio = DefaultHeaderAliasRatio
	}
	if cfg.Engine.TableHeaderFuzzy == 0 {
		cfg.Engine.TableHeaderFuzzy = DefaultTableHeaderFuzzy
	}
	if cfg.Engine.MaxTableRows == 0 {
		cfg.Engine.MaxTableRows = DefaultMaxTableRows
	}
	if cfg.Engine.ContextWindow == 0 {
		cfg.Engine.ContextWindow = DefaultContextWindow
	}
	if cfg.Engine.MemoCapacity == 0 {
		cfg.Engine.MemoCapacity = DefaultMemoCapacity
	}

	// ── Cache ─────────────────────────────────────────────────────────────────
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = DefaultCacheDir
	}
	if cfg.Cache.MaxSizeMB == 0 {
		cfg.Cache.MaxSizeMB = DefaultCacheSizeMB
	}
	if cfg.Cache.MaxAgeDays == 0 {
		cfg.Cache.MaxAgeDays = DefaultCacheAgeDays
	}
	if cfg.Cache.Redis.Addr == "" {
		cfg.Cache.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Cache.Redis.DefaultTTL == 0 {
		cfg.Cache.Redis.DefaultTTL = DefaultRedisTTL
	}
	if cfg.Cache.Redis.KeyPrefix == "" {
		cfg.Cache.Redis.KeyPrefix = DefaultKeyPrefix
	}

	// ── Batch ─────────────────────────────────────────────────────────────────
	if cfg.Batch.Workers == 0 {
		cfg.Batch.Workers = DefaultBatchWorkers()
	}
	if cfg.Batch.ItemTimeout == 0 {
		cfg.Batch.ItemTimeout = DefaultItemTimeout
	}
	if cfg.Batch.MaxRetries == 0 {
		cfg.Batch.MaxRetries = DefaultMaxRetries
	}
	if cfg.Batch.RetryBackoff == 0 {
		cfg.Batch.RetryBackoff = DefaultRetryBackoff
	}

	// ── Visual ────────────────────────────────────────────────────────────────
	if cfg.Visual.Timeout == 0 {
		cfg.Visual.Timeout = DefaultVisualTimeout
	}
	if cfg.Visual.MinTextLength == 0 {
		cfg.Visual.MinTextLength = DefaultMinTextLength
	}

	// ── Report ────────────────────────────────────────────────────────────────
	if cfg.Report.OutputDir == "" {
		cfg.Report.OutputDir = DefaultOutputDir
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}

// DefaultConfig returns a Config with every field set to its project default.
// It is the configuration used when no file and no environment overrides are
// present, and the baseline for tests.
func DefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
