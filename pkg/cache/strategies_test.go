package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendflow/pkg/logger"
)

// stubCache records calls so strategy behavior can be asserted without Redis.
type stubCache struct {
	entries    map[string]interface{}
	getCalls   int
	setCalls   int
	setFailure error
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]interface{})}
}

func (s *stubCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	s.setCalls++
	if s.setFailure != nil {
		return s.setFailure
	}
	s.entries[key] = value
	return nil
}

func (s *stubCache) Get(ctx context.Context, key string, dest interface{}) error {
	s.getCalls++
	value, ok := s.entries[key]
	if !ok {
		return ErrCacheMiss
	}
	return copyData(value, dest)
}

func (s *stubCache) Delete(ctx context.Context, key string) error {
	delete(s.entries, key)
	return nil
}

func (s *stubCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := s.entries[key]
	return ok, nil
}

func (s *stubCache) DeletePattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	return nil
}

func (s *stubCache) GetKeys(ctx context.Context, pattern string) ([]string, error) {
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *stubCache) DeleteMultiple(ctx context.Context, keys []string) error {
	for _, key := range keys {
		delete(s.entries, key)
	}
	return nil
}

func (s *stubCache) InvalidatePrefix(ctx context.Context, prefix string) error {
	return s.DeletePattern(ctx, prefix+"*")
}

func (s *stubCache) Ping(ctx context.Context) error { return nil }

func nopLogger() logger.Logger { return logger.New(logger.ErrorLevel, nil) }

func TestReadThroughFetchesOnMissOnly(t *testing.T) {
	stub := newStubCache()
	manager := NewCacheManager(stub, nopLogger())
	ctx := context.Background()

	fetches := 0
	fetch := func() (interface{}, error) {
		fetches++
		return "Dune", nil
	}

	var value string
	require.NoError(t, manager.ReadThrough(ctx, "book:id:1", &value, fetch, ShortExpiration))
	assert.Equal(t, "Dune", value)
	assert.Equal(t, 1, fetches)

	value = ""
	require.NoError(t, manager.ReadThrough(ctx, "book:id:1", &value, fetch, ShortExpiration))
	assert.Equal(t, "Dune", value)
	assert.Equal(t, 1, fetches)
}

func TestReadThroughPropagatesFetchError(t *testing.T) {
	stub := newStubCache()
	manager := NewCacheManager(stub, nopLogger())

	wantErr := errors.New("kitap bulunamadı")
	var value string
	err := manager.ReadThrough(context.Background(), "book:id:1", &value, func() (interface{}, error) {
		return nil, wantErr
	}, ShortExpiration)

	assert.ErrorIs(t, err, wantErr)
	assert.Empty(t, stub.entries)
}

func TestReadThroughSurvivesSetFailure(t *testing.T) {
	stub := newStubCache()
	stub.setFailure = errors.New("bağlantı koptu")
	manager := NewCacheManager(stub, nopLogger())

	var value string
	err := manager.ReadThrough(context.Background(), "book:id:1", &value, func() (interface{}, error) {
		return "Dune", nil
	}, ShortExpiration)

	require.NoError(t, err)
	assert.Equal(t, "Dune", value)
}

func TestWriteThroughWritesSourceFirst(t *testing.T) {
	stub := newStubCache()
	manager := NewCacheManager(stub, nopLogger())

	wantErr := errors.New("yazma hatası")
	err := manager.WriteThrough(context.Background(), "user:id:1", "Eray", func(value interface{}) error {
		return wantErr
	}, LongExpiration)

	// the source write failed, so nothing may land in the cache
	assert.ErrorIs(t, err, wantErr)
	assert.Empty(t, stub.entries)

	written := false
	err = manager.WriteThrough(context.Background(), "user:id:1", "Eray", func(value interface{}) error {
		written = true
		return nil
	}, LongExpiration)
	require.NoError(t, err)
	assert.True(t, written)
	assert.Contains(t, stub.entries, "user:id:1")
}

func TestCacheAsideFetchesOnMiss(t *testing.T) {
	stub := newStubCache()
	manager := NewCacheManager(stub, nopLogger())

	var value string
	err := manager.CacheAside(context.Background(), "user:detail:1", &value, func() (interface{}, error) {
		return "Eray", nil
	}, MediumExpiration)

	require.NoError(t, err)
	assert.Equal(t, "Eray", value)
	assert.Contains(t, stub.entries, "user:detail:1")
}

func TestCacheKeyHelpers(t *testing.T) {
	assert.Equal(t, "book:id:7", BookCacheKey(7))
	assert.Equal(t, "user:id:3", UserCacheKey(3))
	assert.Equal(t, "user:detail:3", UserDetailCacheKey(3))
}

func TestInvalidateBookCache(t *testing.T) {
	stub := newStubCache()
	ctx := context.Background()

	stub.entries[BookCacheKey(7)] = "detay"
	stub.entries[BookListKey] = "liste"
	stub.entries[BookCacheKey(8)] = "diğer"

	require.NoError(t, InvalidateBookCache(ctx, stub, 7))

	assert.NotContains(t, stub.entries, BookCacheKey(7))
	assert.NotContains(t, stub.entries, BookListKey)
	assert.Contains(t, stub.entries, BookCacheKey(8))
}

func TestInvalidateUserCache(t *testing.T) {
	stub := newStubCache()
	ctx := context.Background()

	stub.entries[UserCacheKey(3)] = "kullanıcı"
	stub.entries[UserDetailCacheKey(3)] = "detay"
	stub.entries[UserListKey] = "liste"

	require.NoError(t, InvalidateUserCache(ctx, stub, 3))

	assert.Empty(t, stub.entries)
}

func TestCopyDataIntoStruct(t *testing.T) {
	type record struct {
		Name  string `json:"name"`
		Score int    `json:"score"`
	}

	src := record{Name: "Dune", Score: 9}
	var dest record
	require.NoError(t, copyData(src, &dest))
	assert.Equal(t, src, dest)
}
