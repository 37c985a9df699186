package service

import (
	"context"

	"lendflow/internal/domain"
	"lendflow/pkg/cache"
	"lendflow/pkg/logger"
)

// CachedBookService wraps BookService with caching functionality.
// Detail views use short expirations because ratings and availability
// change on every lending operation.
type CachedBookService struct {
	bookService  domain.BookService
	cache        cache.Cache
	cacheManager cache.CacheStrategy
	logger       logger.Logger
}

func NewCachedBookService(
	bookService domain.BookService,
	cacheInstance cache.Cache,
	cacheManager cache.CacheStrategy,
	logger logger.Logger,
) domain.BookService {
	return &CachedBookService{
		bookService:  bookService,
		cache:        cacheInstance,
		cacheManager: cacheManager,
		logger:       logger,
	}
}

func (s *CachedBookService) GetAllBooks(ctx context.Context) ([]*domain.BookListItem, error) {
	var books []*domain.BookListItem
	err := s.cacheManager.ReadThrough(ctx, cache.BookListKey, &books, func() (interface{}, error) {
		return s.bookService.GetAllBooks(ctx)
	}, cache.MediumExpiration)

	if err != nil {
		s.logger.Error("Kitap listesi cache hatası", map[string]interface{}{"error": err.Error()})
		return s.bookService.GetAllBooks(ctx)
	}

	return books, nil
}

func (s *CachedBookService) GetBookByID(ctx context.Context, id int64) (*domain.BookDetail, error) {
	key := cache.BookCacheKey(id)

	var detail *domain.BookDetail
	err := s.cacheManager.ReadThrough(ctx, key, &detail, func() (interface{}, error) {
		return s.bookService.GetBookByID(ctx, id)
	}, cache.ShortExpiration)

	if err != nil {
		if err == domain.ErrBookNotFound {
			return nil, err
		}
		s.logger.Error("Kitap cache hatası", map[string]interface{}{"id": id, "error": err.Error()})
		return s.bookService.GetBookByID(ctx, id)
	}

	return detail, nil
}

func (s *CachedBookService) CreateBook(ctx context.Context, name string) (*domain.Book, error) {
	book, err := s.bookService.CreateBook(ctx, name)
	if err != nil {
		return nil, err
	}

	if cacheErr := cache.InvalidateBookCache(ctx, s.cache, book.ID); cacheErr != nil {
		s.logger.Error("Kitap cache temizlenemedi", map[string]interface{}{
			"id":    book.ID,
			"error": cacheErr.Error(),
		})
	}

	return book, nil
}
