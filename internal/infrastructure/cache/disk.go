package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/turtacn/sdsmatch/internal/config"
	"github.com/turtacn/sdsmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/sdsmatch/pkg/errors"
	"github.com/turtacn/sdsmatch/pkg/types"
)

// diskEntry is the on-disk JSON envelope of one cached result.
type diskEntry struct {
	Key       string       `json:"key"`
	CreatedAt time.Time    `json:"created_at"`
	Result    types.Result `json:"result"`
}

// DiskStore keeps one JSON file per entry under a cache directory. Size is
// bounded by evicting oldest entries first once the configured cap is
// exceeded; entries past the age limit count as misses and are removed on
// read. Concurrent writers of the same key race benignly: last writer wins,
// which is correct because the key fully determines the value.
type DiskStore struct {
	dir     string
	maxSize int64
	maxAge  time.Duration
	logger  logging.Logger

	mu     sync.Mutex
	flight singleflight.Group
}

func NewDiskStore(cfg config.CacheConfig, logger logging.Logger) (*DiskStore, error) {
	if cfg.Dir == "" {
		return nil, errors.InvalidParam("disk cache directory is not configured")
	}
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError,
			fmt.Sprintf("create cache directory %s", cfg.Dir))
	}
	return &DiskStore{
		dir:     cfg.Dir,
		maxSize: int64(cfg.MaxSizeMB) * 1024 * 1024,
		maxAge:  time.Duration(cfg.MaxAgeDays) * 24 * time.Hour,
		logger:  logger.Named("cache.disk"),
	}, nil
}

func (s *DiskStore) Name() string { return "disk" }

func (s *DiskStore) entryPath(key string) string {
	return filepath.Join(s.dir, key+".json")
}

func (s *DiskStore) Get(ctx context.Context, key string) (types.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(s.entryPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrMiss
		}
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "read cache entry")
	}

	var entry diskEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		// A torn or corrupted entry is a miss, not a failure; drop it.
		s.logger.Warn("dropping corrupt cache entry", logging.String("key", key), logging.Err(err))
		_ = os.Remove(s.entryPath(key))
		return nil, ErrMiss
	}

	if s.maxAge > 0 && time.Since(entry.CreatedAt) > s.maxAge {
		_ = os.Remove(s.entryPath(key))
		return nil, ErrMiss
	}
	return entry.Result, nil
}

func (s *DiskStore) Set(ctx context.Context, key string, result types.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entry := diskEntry{Key: key, CreatedAt: time.Now().UTC(), Result: result}
	raw, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encode cache entry")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.entryPath(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "write cache entry")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "commit cache entry")
	}
	return s.evictLocked()
}

func (s *DiskStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(s.entryPath(key))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.ErrCodeCacheError, "delete cache entry")
	}
	return nil
}

func (s *DiskStore) Clear(ctx context.Context) error {
	entries, err := s.listEntries()
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, errors.ErrCodeCacheError, "clear cache")
		}
	}
	return nil
}

func (s *DiskStore) Stats(ctx context.Context) (*Stats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := s.listEntries()
	if err != nil {
		return nil, err
	}
	stats := &Stats{Backend: "disk", Entries: int64(len(entries))}
	for _, e := range entries {
		stats.SizeBytes += e.size
	}
	return stats, nil
}

func (s *DiskStore) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (types.Result, error)) (types.Result, bool, error) {
	if result, err := s.Get(ctx, key); err == nil {
		return result, true, nil
	} else if !errors.IsCode(err, errors.ErrCodeNotFound) {
		// A broken backend must not block extraction; log and compute.
		s.logger.Warn("cache read failed", logging.String("key", key), logging.Err(err))
	}

	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if setErr := s.Set(ctx, key, result); setErr != nil {
			s.logger.Warn("cache write failed", logging.String("key", key), logging.Err(setErr))
		}
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(types.Result), false, nil
}

func (s *DiskStore) Close() error { return nil }

type fileEntry struct {
	path    string
	size    int64
	modTime time.Time
}

func (s *DiskStore) listEntries() ([]fileEntry, error) {
	dirents, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "list cache directory")
	}
	var entries []fileEntry
	for _, de := range dirents {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, fileEntry{
			path:    filepath.Join(s.dir, de.Name()),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return entries, nil
}

// evictLocked removes oldest entries until total size fits the cap.
func (s *DiskStore) evictLocked() error {
	if s.maxSize <= 0 {
		return nil
	}
	entries, err := s.listEntries()
	if err != nil {
		return err
	}
	var total int64
	for _, e := range entries {
		total += e.size
	}
	if total <= s.maxSize {
		return nil
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].modTime.Before(entries[j].modTime)
	})
	for _, e := range entries {
		if total <= s.maxSize {
			break
		}
		if err := os.Remove(e.path); err != nil && !os.IsNotExist(err) {
			return errors.Wrap(err, errors.ErrCodeCacheError, "evict cache entry")
		}
		total -= e.size
		s.logger.Debug("evicted cache entry", logging.String("path", e.path))
	}
	return nil
}
