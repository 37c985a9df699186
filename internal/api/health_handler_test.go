package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendflow/internal/config"
	"lendflow/internal/domain"
	"lendflow/internal/repository"
	"lendflow/internal/service"
	"lendflow/internal/testutil"
	"lendflow/pkg/cache"
	"lendflow/pkg/database"
	"lendflow/pkg/logger"
)

// fakeFactory wires just enough of the factory surface for handler tests.
type fakeFactory struct {
	db       *sql.DB
	cache    cache.Cache
	auditSvc domain.AuditLogService
	log      logger.Logger
}

func (f *fakeFactory) GetLogger() logger.Logger                          { return f.log }
func (f *fakeFactory) GetConfig() *config.Config                         { return nil }
func (f *fakeFactory) GetDB() *sql.DB                                    { return f.db }
func (f *fakeFactory) GetConnectionManager() *database.ConnectionManager { return nil }
func (f *fakeFactory) GetRedisClient() *redis.Client                     { return nil }
func (f *fakeFactory) GetCache() cache.Cache                             { return f.cache }
func (f *fakeFactory) GetCacheManager() cache.CacheStrategy              { return nil }
func (f *fakeFactory) GetWarmUpManager() *cache.WarmUpManager            { return nil }

func (f *fakeFactory) GetUserRepository() domain.UserRepository             { return nil }
func (f *fakeFactory) GetBookRepository() domain.BookRepository             { return nil }
func (f *fakeFactory) GetBorrowingRepository() domain.BorrowingRepository   { return nil }
func (f *fakeFactory) GetAuditLogRepository() domain.AuditLogRepository     { return nil }
func (f *fakeFactory) GetEventStoreRepository() domain.EventStoreRepository { return nil }

func (f *fakeFactory) GetUserService() domain.UserService             { return nil }
func (f *fakeFactory) GetBookService() domain.BookService             { return nil }
func (f *fakeFactory) GetLendingService() domain.LendingService       { return nil }
func (f *fakeFactory) GetAuditLogService() domain.AuditLogService     { return f.auditSvc }
func (f *fakeFactory) GetEventStoreService() domain.EventStoreService { return nil }

func (f *fakeFactory) Close() {}

// brokenCache fails every write so the degraded path can be exercised.
type brokenCache struct {
	*testutil.MemoryCache
}

func (b *brokenCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return errors.New("bağlantı koptu")
}

func newHealthServer(t *testing.T, c cache.Cache) *httptest.Server {
	t.Helper()

	db := testutil.OpenTestDB(t)
	log := testutil.NopLogger()

	auditRepo := repository.NewAuditLogRepository(db, log)
	auditSvc := service.NewAuditLogService(auditRepo, log)
	t.Cleanup(auditSvc.Shutdown)

	factory := &fakeFactory{db: db, cache: c, auditSvc: auditSvc, log: log}

	mux := http.NewServeMux()
	NewHealthHandler(factory, log).RegisterRoutes(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return server
}

func TestHealthCheckCacheRoundTrip(t *testing.T) {
	memCache := testutil.NewMemoryCache()
	server := newHealthServer(t, memCache)

	var health HealthResponse
	resp := getJSON(t, server.URL+"/health", &health)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", health.Status)

	redisStatus, ok := health.Services["redis"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "healthy", redisStatus["status"])
	assert.NotEmpty(t, redisStatus["round_trip"])

	// the round-trip cleans up after itself
	keys, err := memCache.GetKeys(context.Background(), "health:*")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestHealthCheckDegradedOnCacheFailure(t *testing.T) {
	server := newHealthServer(t, &brokenCache{MemoryCache: testutil.NewMemoryCache()})

	var health HealthResponse
	resp := getJSON(t, server.URL+"/health", &health)

	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "degraded", health.Status)

	redisStatus, ok := health.Services["redis"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "unhealthy", redisStatus["status"])
}

func TestReadinessCheckWithCache(t *testing.T) {
	server := newHealthServer(t, testutil.NewMemoryCache())

	var body map[string]interface{}
	resp := getJSON(t, server.URL+"/health/ready", &body)

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body["status"])
}
