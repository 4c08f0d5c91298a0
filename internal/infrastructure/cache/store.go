// Package cache persists extraction results keyed by document content and
// schema, so re-running the same document with the same schema skips the
// engine entirely. Two backends exist: a local disk store with size and age
// bounded eviction, and a shared Redis store for fleet deployments.
package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/turtacn/sdsmatch/internal/config"
	"github.com/turtacn/sdsmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/sdsmatch/pkg/errors"
	"github.com/turtacn/sdsmatch/pkg/types"
)

var (
	ErrMiss        = errors.New(errors.ErrCodeNotFound, "cache miss")
	ErrUnavailable = errors.New(errors.ErrCodeCacheError, "cache backend unavailable")
)

// Store is the extraction-result cache contract. Get returns ErrMiss for
// absent or expired keys; any other error means the backend itself failed.
// GetOrCompute collapses concurrent computations of the same key into one.
type Store interface {
	Name() string
	Get(ctx context.Context, key string) (types.Result, error)
	Set(ctx context.Context, key string, result types.Result) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (*Stats, error)
	GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (types.Result, error)) (types.Result, bool, error)
	Close() error
}

// Stats is a point-in-time snapshot of one backend.
type Stats struct {
	Backend   string `json:"backend"`
	Entries   int64  `json:"entries"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}

// Key derives the cache key for one (document, schema) pair. Both inputs
// participate: the same PDF extracted against a different schema is a
// different result. Whitespace in the schema source is squashed first so
// formatting-only edits do not invalidate cached entries.
func Key(docBytes []byte, schemaSource string) string {
	docSum := md5.Sum(docBytes)
	schemaSum := md5.Sum([]byte(strings.Join(strings.Fields(schemaSource), " ")))
	return hex.EncodeToString(docSum[:]) + "-" + hex.EncodeToString(schemaSum[:])
}

// NewStore builds the backend selected by cfg. Backend "none" yields a store
// that never hits; unknown backends are a configuration error.
func NewStore(cfg config.CacheConfig, logger logging.Logger) (Store, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	switch cfg.Backend {
	case "disk":
		return NewDiskStore(cfg, logger)
	case "redis":
		return NewRedisStore(cfg, logger)
	case "", "none":
		return NewNoopStore(), nil
	default:
		return nil, errors.InvalidParam("cache backend " + cfg.Backend + " is not one of disk|redis|none")
	}
}

// NoopStore drops every write and misses every read. Used when caching is
// disabled so callers never branch on a nil store.
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) Name() string                                        { return "none" }
func (s *NoopStore) Get(context.Context, string) (types.Result, error)   { return nil, ErrMiss }
func (s *NoopStore) Set(context.Context, string, types.Result) error     { return nil }
func (s *NoopStore) Delete(context.Context, string) error                { return nil }
func (s *NoopStore) Clear(context.Context) error                         { return nil }
func (s *NoopStore) Stats(context.Context) (*Stats, error)               { return &Stats{Backend: "none"}, nil }
func (s *NoopStore) Close() error                                        { return nil }

func (s *NoopStore) GetOrCompute(ctx context.Context, _ string, compute func(ctx context.Context) (types.Result, error)) (types.Result, bool, error) {
	result, err := compute(ctx)
	return result, false, err
}
