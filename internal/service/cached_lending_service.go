package service

import (
	"context"

	"lendflow/internal/domain"
	"lendflow/pkg/cache"
	"lendflow/pkg/logger"
)

// CachedLendingService drops the cached views a lending operation makes
// stale: the book's availability and rating, and the user's borrowing
// history. The write path itself is never cached.
type CachedLendingService struct {
	lendingService domain.LendingService
	cache          cache.Cache
	logger         logger.Logger
}

func NewCachedLendingService(
	lendingService domain.LendingService,
	cacheInstance cache.Cache,
	logger logger.Logger,
) domain.LendingService {
	return &CachedLendingService{
		lendingService: lendingService,
		cache:          cacheInstance,
		logger:         logger,
	}
}

func (s *CachedLendingService) BorrowBook(ctx context.Context, userID, bookID int64) (*domain.Borrowing, error) {
	borrowing, err := s.lendingService.BorrowBook(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID, bookID)
	return borrowing, nil
}

func (s *CachedLendingService) ReturnBook(ctx context.Context, userID, bookID, score int64) (*domain.Borrowing, error) {
	borrowing, err := s.lendingService.ReturnBook(ctx, userID, bookID, score)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID, bookID)
	return borrowing, nil
}

func (s *CachedLendingService) invalidate(ctx context.Context, userID, bookID int64) {
	if err := cache.InvalidateBookCache(ctx, s.cache, bookID); err != nil {
		s.logger.Error("Kitap cache temizlenemedi", map[string]interface{}{
			"book_id": bookID,
			"error":   err.Error(),
		})
	}

	if err := cache.InvalidateUserCache(ctx, s.cache, userID); err != nil {
		s.logger.Error("Kullanıcı cache temizlenemedi", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}
}
