package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lendflow/pkg/logger"
)

// Cache key constants
const (
	BookPrefix    = "book"
	BookByIDKey   = "book:id:%d"
	BookListKey   = "book:list"
	UserPrefix    = "user"
	UserByIDKey   = "user:id:%d"
	UserListKey   = "user:list"
	UserDetailKey = "user:detail:%d"
)

// Cache expiration times
const (
	ShortExpiration  = 5 * time.Minute  // Frequently changing data
	MediumExpiration = 30 * time.Minute // Moderately changing data
	LongExpiration   = 2 * time.Hour    // Rarely changing data
)

// CacheStrategy defines different caching patterns
type CacheStrategy interface {
	// Read-through: Check cache first, if miss then fetch from source and cache it
	ReadThrough(ctx context.Context, key string, dest interface{}, fetchFunc func() (interface{}, error), expiration time.Duration) error

	// Write-through: Write to source first, then cache
	WriteThrough(ctx context.Context, key string, value interface{}, writeFunc func(value interface{}) error, expiration time.Duration) error

	// Cache-aside: Manual cache management
	CacheAside(ctx context.Context, key string, dest interface{}, fetchFunc func() (interface{}, error), expiration time.Duration) error
}

// CacheManager implements various caching strategies
type CacheManager struct {
	cache  Cache
	logger logger.Logger
}

func NewCacheManager(cache Cache, logger logger.Logger) CacheStrategy {
	return &CacheManager{
		cache:  cache,
		logger: logger,
	}
}

func (cm *CacheManager) ReadThrough(ctx context.Context, key string, dest interface{}, fetchFunc func() (interface{}, error), expiration time.Duration) error {
	err := cm.cache.Get(ctx, key, dest)
	if err == nil {
		return nil
	}

	if err != ErrCacheMiss {
		cm.logger.Error("Cache error in read-through", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		// Continue to fetch from source despite cache error
	}

	data, err := fetchFunc()
	if err != nil {
		return err
	}

	if err := cm.cache.Set(ctx, key, data, expiration); err != nil {
		cm.logger.Error("Cache set error in read-through", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		// Don't fail the request if cache set fails
	}

	return copyData(data, dest)
}

func (cm *CacheManager) WriteThrough(ctx context.Context, key string, value interface{}, writeFunc func(value interface{}) error, expiration time.Duration) error {
	err := writeFunc(value)
	if err != nil {
		return err
	}

	if err := cm.cache.Set(ctx, key, value, expiration); err != nil {
		cm.logger.Error("Cache set error in write-through", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		// Source is already updated, don't fail the request
	}

	return nil
}

func (cm *CacheManager) CacheAside(ctx context.Context, key string, dest interface{}, fetchFunc func() (interface{}, error), expiration time.Duration) error {
	err := cm.cache.Get(ctx, key, dest)
	if err == nil {
		return nil
	}

	if err != ErrCacheMiss {
		cm.logger.Error("Cache error in cache-aside", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	data, err := fetchFunc()
	if err != nil {
		return err
	}

	if err := cm.cache.Set(ctx, key, data, expiration); err != nil {
		cm.logger.Error("Cache set error in cache-aside", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}

	return copyData(data, dest)
}

// Helper functions for cache key generation
func BookCacheKey(bookID int64) string {
	return fmt.Sprintf(BookByIDKey, bookID)
}

func UserCacheKey(userID int64) string {
	return fmt.Sprintf(UserByIDKey, userID)
}

func UserDetailCacheKey(userID int64) string {
	return fmt.Sprintf(UserDetailKey, userID)
}

// Cache invalidation helpers
func InvalidateBookCache(ctx context.Context, cache Cache, bookID int64) error {
	keys := []string{
		BookCacheKey(bookID),
		BookListKey,
	}
	return cache.DeleteMultiple(ctx, keys)
}

func InvalidateUserCache(ctx context.Context, cache Cache, userID int64) error {
	keys := []string{
		UserCacheKey(userID),
		UserDetailCacheKey(userID),
		UserListKey,
	}
	return cache.DeleteMultiple(ctx, keys)
}

func copyData(src, dest interface{}) error {
	switch d := dest.(type) {
	case *interface{}:
		*d = src
		return nil
	default:
		data, err := json.Marshal(src)
		if err != nil {
			return err
		}
		return json.Unmarshal(data, dest)
	}
}
