package cache

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/sdsmatch/internal/config"
	"github.com/turtacn/sdsmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/sdsmatch/pkg/types"
)

func newDiskStore(t *testing.T, cfg config.CacheConfig) *DiskStore {
	t.Helper()
	if cfg.Dir == "" {
		cfg.Dir = t.TempDir()
	}
	if cfg.MaxSizeMB == 0 {
		cfg.MaxSizeMB = 10
	}
	if cfg.MaxAgeDays == 0 {
		cfg.MaxAgeDays = 30
	}
	store, err := NewDiskStore(cfg, logging.NewNopLogger())
	require.NoError(t, err)
	return store
}

func sampleResult() types.Result {
	return types.Result{"productName": "Acme Cleaner", "phValue": 12.5}
}

func TestDiskStore_RoundTrip(t *testing.T) {
	store := newDiskStore(t, config.CacheConfig{})
	ctx := context.Background()
	key := Key([]byte("doc"), "interface T { productName: string; }")

	_, err := store.Get(ctx, key)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, store.Set(ctx, key, sampleResult()))

	got, err := store.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Acme Cleaner", got["productName"])
	assert.Equal(t, 12.5, got["phValue"])
}

func TestDiskStore_DeleteAndClear(t *testing.T) {
	store := newDiskStore(t, config.CacheConfig{})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k1", sampleResult()))
	require.NoError(t, store.Set(ctx, "k2", sampleResult()))

	require.NoError(t, store.Delete(ctx, "k1"))
	_, err := store.Get(ctx, "k1")
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, store.Clear(ctx))
	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Entries)
}

func TestDiskStore_ExpiredEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	store := newDiskStore(t, config.CacheConfig{Dir: dir, MaxAgeDays: 1})
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "old", sampleResult()))

	// Backdate the entry beyond the age limit.
	raw, err := os.ReadFile(filepath.Join(dir, "old.json"))
	require.NoError(t, err)
	stale := []byte(`{"key":"old","created_at":"2020-01-01T00:00:00Z","result":` + extractResultJSON(t, raw) + `}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "old.json"), stale, 0o644))

	_, err = store.Get(ctx, "old")
	assert.ErrorIs(t, err, ErrMiss)

	_, statErr := os.Stat(filepath.Join(dir, "old.json"))
	assert.True(t, os.IsNotExist(statErr), "expired entry should be removed on read")
}

func extractResultJSON(t *testing.T, raw []byte) string {
	t.Helper()
	// The envelope always serializes the result field; re-serialize it alone.
	var entry diskEntry
	require.NoError(t, json.Unmarshal(raw, &entry))
	out, err := json.Marshal(entry.Result)
	require.NoError(t, err)
	return string(out)
}

func TestDiskStore_CorruptEntryIsMiss(t *testing.T) {
	dir := t.TempDir()
	store := newDiskStore(t, config.CacheConfig{Dir: dir})
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{torn"), 0o644))

	_, err := store.Get(ctx, "bad")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestDiskStore_EvictsOldestWhenOverSize(t *testing.T) {
	dir := t.TempDir()
	store := newDiskStore(t, config.CacheConfig{Dir: dir, MaxSizeMB: 10})
	// Shrink the cap so it holds one entry but not two.
	store.maxSize = 300
	ctx := context.Background()

	big := types.Result{"text": strings.Repeat("a", 150)}
	require.NoError(t, store.Set(ctx, "first", big))
	// Distinct mtimes so eviction order is stable.
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(dir, "first.json"), past, past))

	require.NoError(t, store.Set(ctx, "second", big))

	_, err := store.Get(ctx, "first")
	assert.ErrorIs(t, err, ErrMiss, "oldest entry should be evicted")
	_, err = store.Get(ctx, "second")
	assert.NoError(t, err)
}

func TestDiskStore_GetOrCompute(t *testing.T) {
	store := newDiskStore(t, config.CacheConfig{})
	ctx := context.Background()
	calls := 0
	compute := func(context.Context) (types.Result, error) {
		calls++
		return sampleResult(), nil
	}

	result, hit, err := store.GetOrCompute(ctx, "k", compute)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "Acme Cleaner", result["productName"])
	assert.Equal(t, 1, calls)

	result, hit, err = store.GetOrCompute(ctx, "k", compute)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "Acme Cleaner", result["productName"])
	assert.Equal(t, 1, calls, "second call must be served from cache")
}

func TestKey_Distinguishes(t *testing.T) {
	doc := []byte("document bytes")
	schema := "interface T { a: string; }"

	assert.Equal(t, Key(doc, schema), Key(doc, "interface T {    a: string; }"),
		"whitespace-only schema changes keep the key")
	assert.NotEqual(t, Key(doc, schema), Key(doc, "interface T { b: string; }"))
	assert.NotEqual(t, Key(doc, schema), Key([]byte("other bytes"), schema))
}
