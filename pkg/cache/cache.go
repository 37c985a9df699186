package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"lendflow/pkg/logger"
	"lendflow/pkg/metrics"
)

// Cache interface - caching operations
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	DeletePattern(ctx context.Context, pattern string) error
	GetKeys(ctx context.Context, pattern string) ([]string, error)
	DeleteMultiple(ctx context.Context, keys []string) error
	InvalidatePrefix(ctx context.Context, prefix string) error

	Ping(ctx context.Context) error
}

// RedisCache implements Cache interface
type RedisCache struct {
	client *redis.Client
	logger logger.Logger
	prefix string
}

func NewRedisCache(client *redis.Client, logger logger.Logger, prefix string) Cache {
	return &RedisCache{
		client: client,
		logger: logger,
		prefix: prefix,
	}
}

func (r *RedisCache) makeKey(key string) string {
	if r.prefix == "" {
		return key
	}
	return fmt.Sprintf("%s:%s", r.prefix, key)
}

func (r *RedisCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Error("Cache set marshal hatası", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return err
	}

	fullKey := r.makeKey(key)
	err = r.client.Set(ctx, fullKey, data, expiration).Err()
	if err != nil {
		r.logger.Error("Cache set hatası", map[string]interface{}{
			"key":   fullKey,
			"error": err.Error(),
		})
		return err
	}

	r.logger.Debug("Cache set başarılı", map[string]interface{}{
		"key":        fullKey,
		"expiration": expiration,
	})
	return nil
}

func (r *RedisCache) Get(ctx context.Context, key string, dest interface{}) error {
	fullKey := r.makeKey(key)
	data, err := r.client.Get(ctx, fullKey).Result()
	if err != nil {
		if err == redis.Nil {
			metrics.RecordCacheMiss()
			r.logger.Debug("Cache miss", map[string]interface{}{"key": fullKey})
			return ErrCacheMiss
		}
		r.logger.Error("Cache get hatası", map[string]interface{}{
			"key":   fullKey,
			"error": err.Error(),
		})
		return err
	}

	err = json.Unmarshal([]byte(data), dest)
	if err != nil {
		r.logger.Error("Cache get unmarshal hatası", map[string]interface{}{
			"key":   fullKey,
			"error": err.Error(),
		})
		return err
	}

	metrics.RecordCacheHit()
	r.logger.Debug("Cache hit", map[string]interface{}{"key": fullKey})
	return nil
}

func (r *RedisCache) Delete(ctx context.Context, key string) error {
	fullKey := r.makeKey(key)
	err := r.client.Del(ctx, fullKey).Err()
	if err != nil {
		r.logger.Error("Cache delete hatası", map[string]interface{}{
			"key":   fullKey,
			"error": err.Error(),
		})
		return err
	}

	r.logger.Debug("Cache delete başarılı", map[string]interface{}{"key": fullKey})
	return nil
}

func (r *RedisCache) Exists(ctx context.Context, key string) (bool, error) {
	fullKey := r.makeKey(key)
	count, err := r.client.Exists(ctx, fullKey).Result()
	if err != nil {
		r.logger.Error("Cache exists hatası", map[string]interface{}{
			"key":   fullKey,
			"error": err.Error(),
		})
		return false, err
	}

	return count > 0, nil
}

func (r *RedisCache) DeletePattern(ctx context.Context, pattern string) error {
	fullPattern := r.makeKey(pattern)
	keys, err := r.client.Keys(ctx, fullPattern).Result()
	if err != nil {
		r.logger.Error("Cache delete pattern hatası", map[string]interface{}{
			"pattern": fullPattern,
			"error":   err.Error(),
		})
		return err
	}

	if len(keys) == 0 {
		return nil
	}

	err = r.client.Del(ctx, keys...).Err()
	if err != nil {
		r.logger.Error("Cache delete pattern hatası", map[string]interface{}{
			"pattern": fullPattern,
			"keys":    len(keys),
			"error":   err.Error(),
		})
		return err
	}

	r.logger.Info("Cache delete pattern başarılı", map[string]interface{}{
		"pattern":      fullPattern,
		"deleted_keys": len(keys),
	})
	return nil
}

func (r *RedisCache) GetKeys(ctx context.Context, pattern string) ([]string, error) {
	fullPattern := r.makeKey(pattern)
	keys, err := r.client.Keys(ctx, fullPattern).Result()
	if err != nil {
		r.logger.Error("Cache get keys hatası", map[string]interface{}{
			"pattern": fullPattern,
			"error":   err.Error(),
		})
		return nil, err
	}

	if r.prefix != "" {
		for i, key := range keys {
			keys[i] = strings.TrimPrefix(key, r.prefix+":")
		}
	}

	return keys, nil
}

func (r *RedisCache) DeleteMultiple(ctx context.Context, keys []string) error {
	if len(keys) == 0 {
		return nil
	}

	fullKeys := make([]string, len(keys))
	for i, key := range keys {
		fullKeys[i] = r.makeKey(key)
	}

	err := r.client.Del(ctx, fullKeys...).Err()
	if err != nil {
		r.logger.Error("Cache delete multiple hatası", map[string]interface{}{
			"keys":  len(keys),
			"error": err.Error(),
		})
		return err
	}

	return nil
}

func (r *RedisCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	pattern := fmt.Sprintf("%s*", prefix)
	return r.DeletePattern(ctx, pattern)
}

func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Custom errors
var (
	ErrCacheMiss = fmt.Errorf("cache miss")
)
