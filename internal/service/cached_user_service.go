package service

import (
	"context"

	"lendflow/internal/domain"
	"lendflow/pkg/cache"
	"lendflow/pkg/logger"
)

// CachedUserService wraps UserService with caching. Detail views are
// invalidated by the lending path whenever a loan opens or closes, so
// they stay cacheable at the medium expiration.
type CachedUserService struct {
	userService  domain.UserService
	cache        cache.Cache
	cacheManager cache.CacheStrategy
	logger       logger.Logger
}

func NewCachedUserService(
	userService domain.UserService,
	cacheInstance cache.Cache,
	cacheManager cache.CacheStrategy,
	logger logger.Logger,
) domain.UserService {
	return &CachedUserService{
		userService:  userService,
		cache:        cacheInstance,
		cacheManager: cacheManager,
		logger:       logger,
	}
}

func (s *CachedUserService) GetAllUsers(ctx context.Context) ([]*domain.UserListItem, error) {
	var users []*domain.UserListItem
	err := s.cacheManager.ReadThrough(ctx, cache.UserListKey, &users, func() (interface{}, error) {
		return s.userService.GetAllUsers(ctx)
	}, cache.MediumExpiration)

	if err != nil {
		s.logger.Error("Kullanıcı listesi cache hatası", map[string]interface{}{"error": err.Error()})
		return s.userService.GetAllUsers(ctx)
	}

	return users, nil
}

func (s *CachedUserService) GetUserByID(ctx context.Context, id int64) (*domain.UserDetail, error) {
	key := cache.UserDetailCacheKey(id)

	var detail *domain.UserDetail
	err := s.cacheManager.CacheAside(ctx, key, &detail, func() (interface{}, error) {
		return s.userService.GetUserByID(ctx, id)
	}, cache.MediumExpiration)

	if err != nil {
		if err == domain.ErrUserNotFound {
			return nil, err
		}
		s.logger.Error("Kullanıcı cache hatası", map[string]interface{}{"id": id, "error": err.Error()})
		return s.userService.GetUserByID(ctx, id)
	}

	return detail, nil
}

func (s *CachedUserService) CreateUser(ctx context.Context, name string) (*domain.User, error) {
	user, err := s.userService.CreateUser(ctx, name)
	if err != nil {
		return nil, err
	}

	// The list view is stale now; the fresh user can be cached directly
	if cacheErr := cache.InvalidateUserCache(ctx, s.cache, user.ID); cacheErr != nil {
		s.logger.Error("Kullanıcı cache temizlenemedi", map[string]interface{}{
			"id":    user.ID,
			"error": cacheErr.Error(),
		})
	}

	if setErr := s.cache.Set(ctx, cache.UserCacheKey(user.ID), user, cache.LongExpiration); setErr != nil {
		s.logger.Error("Kullanıcı cache yazılamadı", map[string]interface{}{
			"id":    user.ID,
			"error": setErr.Error(),
		})
	}

	return user, nil
}
