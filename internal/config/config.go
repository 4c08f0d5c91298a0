// Package config defines all configuration structures for sdsmatch.
// No I/O or parsing logic lives here — only plain data types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/sdsmatch/internal/infrastructure/monitoring/logging"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// EngineConfig holds the matching-engine tunables: acceptance thresholds for
// the value-matching cascade and size caps that bound work per document.
type EngineConfig struct {
	// PatternAcceptScore is the minimum candidate score for the label-pattern
	// strategy to accept a value.  Candidates scoring at or below this are
	// discarded and the cascade falls through to the next strategy.
	PatternAcceptScore float64 `mapstructure:"pattern_accept_score"`

	// FuzzyMinRatio is the minimum normalized Levenshtein similarity for the
	// fuzzy line-matching strategy.
	FuzzyMinRatio float64 `mapstructure:"fuzzy_min_ratio"`

	// HeaderAliasRatio is the fraction of an array field's item columns that
	// must be located in a table's header row before that table is adopted as
	// the backing table for the field.
	HeaderAliasRatio float64 `mapstructure:"header_alias_ratio"`

	// TableHeaderFuzzy is the similarity floor used when matching individual
	// header cells against column aliases.
	TableHeaderFuzzy float64 `mapstructure:"table_header_fuzzy"`

	// MaxTableRows caps the number of item objects produced for any
	// array-of-objects field.
	MaxTableRows int `mapstructure:"max_table_rows"`

	// ContextWindow is the number of characters inspected after a search-term
	// occurrence by the bounded-window fallback strategy.
	ContextWindow int `mapstructure:"context_window"`

	// MemoCapacity bounds the matcher's memoization table, keyed by field path
	// and document fingerprint, so repeated extractions of the same document
	// skip the cascade.  Zero disables memoization.
	MemoCapacity int `mapstructure:"memo_capacity"`
}

// RecognizerConfig holds entity-recognition tunables.
type RecognizerConfig struct {
	// LaxCAS keeps CAS registry number candidates whose check digit does not
	// verify.  Check-digit validation is on by default; enable this only when
	// scanned documents garble digits and a flagged value beats a blank.
	LaxCAS bool `mapstructure:"lax_cas"`
}

// RedisConfig holds Redis connection parameters for the shared cache backend.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	DefaultTTL   time.Duration `mapstructure:"default_ttl"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// CacheConfig selects and parameterises the extraction-result cache.
type CacheConfig struct {
	// Backend selects the store implementation: "disk" | "redis" | "none".
	Backend string `mapstructure:"backend"`

	// Dir is the directory used by the disk backend.
	Dir string `mapstructure:"dir"`

	// MaxSizeMB is the disk-cache size cap; oldest entries are evicted first
	// once the cap is exceeded.
	MaxSizeMB int `mapstructure:"max_size_mb"`

	// MaxAgeDays is the maximum age of a cached result; older entries are
	// treated as misses and removed.
	MaxAgeDays int `mapstructure:"max_age_days"`

	Redis RedisConfig `mapstructure:"redis"`
}

// BatchConfig holds directory-batch execution parameters.
type BatchConfig struct {
	// Workers is the number of documents processed concurrently.
	// Zero means min(NumCPU, 8), resolved at startup by ApplyDefaults.
	Workers int `mapstructure:"workers"`

	// ItemTimeout bounds the processing time of a single document.
	ItemTimeout time.Duration `mapstructure:"item_timeout"`

	// BatchTimeout bounds the whole run.  Zero disables the limit.
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`

	// MaxRetries is the number of additional attempts for documents that fail
	// with a retryable error (timeouts, unavailable collaborators).
	MaxRetries int `mapstructure:"max_retries"`

	// RetryBackoff is the base delay between attempts; it doubles per retry.
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
}

// VisualConfig holds parameters for the optional visual document-understanding
// collaborator.  When disabled the engine relies solely on the text cascade.
type VisualConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`

	// MinTextLength is the minimum usable response length; shorter responses
	// are treated as a miss and the text cascade proceeds unaided.
	MinTextLength int `mapstructure:"min_text_length"`
}

// ReportConfig holds batch output parameters.
type ReportConfig struct {
	// OutputDir receives per-document JSON results and the summary report.
	OutputDir string `mapstructure:"output_dir"`

	// XLSX enables the spreadsheet summary next to the JSON results.
	XLSX bool `mapstructure:"xlsx"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure for sdsmatch.  Every component
// reads its settings from the relevant sub-struct.
type Config struct {
	Log        logging.LogConfig `mapstructure:"log"`
	Engine     EngineConfig      `mapstructure:"engine"`
	Recognizer RecognizerConfig  `mapstructure:"recognizer"`
	Cache      CacheConfig       `mapstructure:"cache"`
	Batch      BatchConfig       `mapstructure:"batch"`
	Visual     VisualConfig      `mapstructure:"visual"`
	Report     ReportConfig      `mapstructure:"report"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// ratio reports whether v lies in the closed interval [0, 1].
func ratio(v float64) bool { return v >= 0 && v <= 1 }

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered; callers should treat any error as
// fatal and refuse to start the application.
func (c *Config) Validate() error {
	// Engine
	if !ratio(c.Engine.PatternAcceptScore) {
		return fmt.Errorf("config: engine.pattern_accept_score %v is out of range [0, 1]", c.Engine.PatternAcceptScore)
	}
	if !ratio(c.Engine.FuzzyMinRatio) {
		return fmt.Errorf("config: engine.fuzzy_min_ratio %v is out of range [0, 1]", c.Engine.FuzzyMinRatio)
	}
	if !ratio(c.Engine.HeaderAliasRatio) {
		return fmt.Errorf("config: engine.header_alias_ratio %v is out of range [0, 1]", c.Engine.HeaderAliasRatio)
	}
	if !ratio(c.Engine.TableHeaderFuzzy) {
		return fmt.Errorf("config: engine.table_header_fuzzy %v is out of range [0, 1]", c.Engine.TableHeaderFuzzy)
	}
	if c.Engine.MaxTableRows < 1 {
		return fmt.Errorf("config: engine.max_table_rows must be ≥ 1, got %d", c.Engine.MaxTableRows)
	}
	if c.Engine.ContextWindow < 1 {
		return fmt.Errorf("config: engine.context_window must be ≥ 1, got %d", c.Engine.ContextWindow)
	}
	if c.Engine.MemoCapacity < 0 {
		return fmt.Errorf("config: engine.memo_capacity must be ≥ 0, got %d", c.Engine.MemoCapacity)
	}

	// Cache
	switch c.Cache.Backend {
	case "disk", "redis", "none":
	default:
		return fmt.Errorf("config: cache.backend %q is invalid; expected disk|redis|none", c.Cache.Backend)
	}
	if c.Cache.Backend == "disk" {
		if c.Cache.Dir == "" {
			return fmt.Errorf("config: cache.dir is required for the disk backend")
		}
		if c.Cache.MaxSizeMB < 1 {
			return fmt.Errorf("config: cache.max_size_mb must be ≥ 1, got %d", c.Cache.MaxSizeMB)
		}
		if c.Cache.MaxAgeDays < 1 {
			return fmt.Errorf("config: cache.max_age_days must be ≥ 1, got %d", c.Cache.MaxAgeDays)
		}
	}
	if c.Cache.Backend == "redis" {
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("config: cache.redis.addr is required for the redis backend")
		}
		if c.Cache.Redis.DB < 0 {
			return fmt.Errorf("config: cache.redis.db must be ≥ 0, got %d", c.Cache.Redis.DB)
		}
	}

	// Batch
	if c.Batch.Workers < 1 {
		return fmt.Errorf("config: batch.workers must be ≥ 1, got %d", c.Batch.Workers)
	}
	if c.Batch.ItemTimeout <= 0 {
		return fmt.Errorf("config: batch.item_timeout must be > 0, got %v", c.Batch.ItemTimeout)
	}
	if c.Batch.BatchTimeout < 0 {
		return fmt.Errorf("config: batch.batch_timeout must be ≥ 0, got %v", c.Batch.BatchTimeout)
	}
	if c.Batch.MaxRetries < 0 {
		return fmt.Errorf("config: batch.max_retries must be ≥ 0, got %d", c.Batch.MaxRetries)
	}

	// Visual
	if c.Visual.Enabled {
		if c.Visual.Endpoint == "" {
			return fmt.Errorf("config: visual.endpoint is required when visual extraction is enabled")
		}
		if c.Visual.Timeout <= 0 {
			return fmt.Errorf("config: visual.timeout must be > 0, got %v", c.Visual.Timeout)
		}
		if c.Visual.MinTextLength < 1 {
			return fmt.Errorf("config: visual.min_text_length must be ≥ 1, got %d", c.Visual.MinTextLength)
		}
	}

	// Report
	if c.Report.OutputDir == "" {
		return fmt.Errorf("config: report.output_dir is required")
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
