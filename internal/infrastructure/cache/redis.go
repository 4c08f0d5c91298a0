package cache

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/turtacn/sdsmatch/internal/config"
	"github.com/turtacn/sdsmatch/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/sdsmatch/pkg/errors"
	"github.com/turtacn/sdsmatch/pkg/types"
)

// RedisStore shares extraction results across processes. Entries carry a
// TTL with ±10% jitter so a batch of documents cached together does not
// expire together.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
	logger logging.Logger
	flight singleflight.Group
}

func NewRedisStore(cfg config.CacheConfig, logger logging.Logger) (*RedisStore, error) {
	if cfg.Redis.Addr == "" {
		return nil, errors.InvalidParam("redis cache address is not configured")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	return NewRedisStoreWithClient(rdb, cfg, logger), nil
}

// NewRedisStoreWithClient wires an existing client; tests inject a mock here.
func NewRedisStoreWithClient(rdb redis.UniversalClient, cfg config.CacheConfig, logger logging.Logger) *RedisStore {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	prefix := cfg.Redis.KeyPrefix
	if prefix == "" {
		prefix = "sdsmatch:result:"
	}
	ttl := cfg.Redis.DefaultTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{
		rdb:    rdb,
		prefix: prefix,
		ttl:    ttl,
		logger: logger.Named("cache.redis"),
	}
}

func (s *RedisStore) Name() string { return "redis" }

func (s *RedisStore) fullKey(key string) string { return s.prefix + key }

func (s *RedisStore) jitterTTL() time.Duration {
	jitter := float64(s.ttl) * 0.1 * (rand.Float64()*2 - 1)
	return s.ttl + time.Duration(jitter)
}

func (s *RedisStore) Get(ctx context.Context, key string) (types.Result, error) {
	raw, err := s.rdb.Get(ctx, s.fullKey(key)).Bytes()
	if err == redis.Nil {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "redis get")
	}
	var result types.Result
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "decode cached result")
	}
	return result, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, result types.Result) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encode result")
	}
	if err := s.rdb.Set(ctx, s.fullKey(key), raw, s.jitterTTL()).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "redis set")
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.fullKey(key)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "redis delete")
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeCacheError, "redis scan")
		}
		if len(keys) > 0 {
			if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
				return errors.Wrap(err, errors.ErrCodeCacheError, "redis delete")
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (s *RedisStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Backend: "redis"}
	var cursor uint64
	for {
		keys, next, err := s.rdb.Scan(ctx, cursor, s.prefix+"*", 100).Result()
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeCacheError, "redis scan")
		}
		stats.Entries += int64(len(keys))
		cursor = next
		if cursor == 0 {
			return stats, nil
		}
	}
}

func (s *RedisStore) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (types.Result, error)) (types.Result, bool, error) {
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

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
