package factory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"lendflow/internal/config"
	"lendflow/internal/domain"
	"lendflow/internal/repository"
	"lendflow/internal/service"
	"lendflow/pkg/cache"
	"lendflow/pkg/database"
	"lendflow/pkg/logger"
)

type Factory interface {
	GetLogger() logger.Logger
	GetConfig() *config.Config
	GetDB() *sql.DB
	GetConnectionManager() *database.ConnectionManager
	GetRedisClient() *redis.Client
	GetCache() cache.Cache
	GetCacheManager() cache.CacheStrategy
	GetWarmUpManager() *cache.WarmUpManager

	GetUserRepository() domain.UserRepository
	GetBookRepository() domain.BookRepository
	GetBorrowingRepository() domain.BorrowingRepository
	GetAuditLogRepository() domain.AuditLogRepository
	GetEventStoreRepository() domain.EventStoreRepository

	GetUserService() domain.UserService
	GetBookService() domain.BookService
	GetLendingService() domain.LendingService
	GetAuditLogService() domain.AuditLogService
	GetEventStoreService() domain.EventStoreService

	Close()
}

type AppFactory struct {
	config            *config.Config
	logger            logger.Logger
	connectionManager *database.ConnectionManager
	redisClient       *redis.Client
	cache             cache.Cache
	cacheManager      cache.CacheStrategy
	warmUpManager     *cache.WarmUpManager

	userRepository       domain.UserRepository
	bookRepository       domain.BookRepository
	borrowingRepository  domain.BorrowingRepository
	auditLogRepository   domain.AuditLogRepository
	eventStoreRepository domain.EventStoreRepository

	userService       domain.UserService
	bookService       domain.BookService
	lendingService    domain.LendingService
	auditLogService   domain.AuditLogService
	eventStoreService domain.EventStoreService
}

func NewFactory() (Factory, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.LogLevel(cfg.LogLevel), nil)

	connectionManager, err := database.NewConnectionManager(cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("veritabanı bağlantısı kurulamadı: %w", err)
	}

	factory := &AppFactory{
		config:            cfg,
		logger:            log,
		connectionManager: connectionManager,
	}

	// Redis is optional; the service degrades to uncached reads without it
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			connectionManager.Close()
			return nil, fmt.Errorf("Redis bağlantısı kurulamadı: %w", err)
		}

		factory.redisClient = redisClient
		factory.cache = cache.NewRedisCache(redisClient, log, "lendflow")
		factory.cacheManager = cache.NewCacheManager(factory.cache, log)
	}

	factory.initRepositories()
	factory.initServices()
	factory.initCacheManagers()

	return factory, nil
}

func (f *AppFactory) initRepositories() {
	db := f.connectionManager.DB()

	f.userRepository = repository.NewUserRepository(db, f.logger)
	f.bookRepository = repository.NewBookRepository(db, f.logger)
	f.borrowingRepository = repository.NewBorrowingRepository(db, f.logger)
	f.auditLogRepository = repository.NewAuditLogRepository(db, f.logger)
	f.eventStoreRepository = repository.NewEventStoreRepository(db, f.logger)
}

func (f *AppFactory) initServices() {
	f.eventStoreService = service.NewEventStoreService(f.eventStoreRepository, f.logger)
	f.auditLogService = service.NewAuditLogService(f.auditLogRepository, f.logger)

	baseBookService := service.NewBookService(f.bookRepository, f.auditLogService, f.eventStoreService, f.logger)
	if f.cache != nil {
		f.bookService = service.NewCachedBookService(baseBookService, f.cache, f.cacheManager, f.logger)
	} else {
		f.bookService = baseBookService
	}

	baseUserService := service.NewUserService(
		f.userRepository,
		f.borrowingRepository,
		f.auditLogService,
		f.eventStoreService,
		f.logger,
	)
	if f.cache != nil {
		f.userService = service.NewCachedUserService(baseUserService, f.cache, f.cacheManager, f.logger)
	} else {
		f.userService = baseUserService
	}

	baseLendingService := service.NewLendingService(
		f.connectionManager.DB(),
		f.userRepository,
		f.bookRepository,
		f.borrowingRepository,
		f.auditLogService,
		f.eventStoreService,
		f.logger,
	)
	if f.cache != nil {
		// lending operations invalidate the cached views they make stale
		f.lendingService = service.NewCachedLendingService(baseLendingService, f.cache, f.logger)
	} else {
		f.lendingService = baseLendingService
	}
}

func (f *AppFactory) initCacheManagers() {
	if f.cache == nil {
		return
	}

	f.warmUpManager = cache.NewWarmUpManager(
		f.cache,
		f.logger,
		f.bookService,
		f.userService,
	)
}

func (f *AppFactory) GetLogger() logger.Logger {
	return f.logger
}

func (f *AppFactory) GetConfig() *config.Config {
	return f.config
}

func (f *AppFactory) GetDB() *sql.DB {
	return f.connectionManager.DB()
}

func (f *AppFactory) GetConnectionManager() *database.ConnectionManager {
	return f.connectionManager
}

func (f *AppFactory) GetRedisClient() *redis.Client {
	return f.redisClient
}

func (f *AppFactory) GetCache() cache.Cache {
	return f.cache
}

func (f *AppFactory) GetCacheManager() cache.CacheStrategy {
	return f.cacheManager
}

func (f *AppFactory) GetWarmUpManager() *cache.WarmUpManager {
	return f.warmUpManager
}

func (f *AppFactory) GetUserRepository() domain.UserRepository {
	return f.userRepository
}

func (f *AppFactory) GetBookRepository() domain.BookRepository {
	return f.bookRepository
}

func (f *AppFactory) GetBorrowingRepository() domain.BorrowingRepository {
	return f.borrowingRepository
}

func (f *AppFactory) GetAuditLogRepository() domain.AuditLogRepository {
	return f.auditLogRepository
}

func (f *AppFactory) GetEventStoreRepository() domain.EventStoreRepository {
	return f.eventStoreRepository
}

func (f *AppFactory) GetUserService() domain.UserService {
	return f.userService
}

func (f *AppFactory) GetBookService() domain.BookService {
	return f.bookService
}

func (f *AppFactory) GetLendingService() domain.LendingService {
	return f.lendingService
}

func (f *AppFactory) GetAuditLogService() domain.AuditLogService {
	return f.auditLogService
}

func (f *AppFactory) GetEventStoreService() domain.EventStoreService {
	return f.eventStoreService
}

// Close releases resources in reverse initialization order.
func (f *AppFactory) Close() {
	if f.auditLogService != nil {
		f.auditLogService.Shutdown()
	}

	if f.redisClient != nil {
		if err := f.redisClient.Close(); err != nil {
			f.logger.Error("Redis bağlantısı kapatılamadı", map[string]interface{}{"error": err.Error()})
		}
	}

	if f.connectionManager != nil {
		if err := f.connectionManager.Close(); err != nil {
			f.logger.Error("Veritabanı bağlantısı kapatılamadı", map[string]interface{}{"error": err.Error()})
		}
	}
}
