package cache

import (
	"context"
	"sync"
	"time"

	"lendflow/internal/domain"
	"lendflow/pkg/logger"
)

// WarmUpManager preloads the catalog into cache so the first readers
// after a restart do not all hit the database at once.
type WarmUpManager struct {
	cache       Cache
	logger      logger.Logger
	bookService domain.BookService
	userService domain.UserService
}

func NewWarmUpManager(
	cache Cache,
	logger logger.Logger,
	bookService domain.BookService,
	userService domain.UserService,
) *WarmUpManager {
	return &WarmUpManager{
		cache:       cache,
		logger:      logger,
		bookService: bookService,
		userService: userService,
	}
}

// WarmUpCatalog caches the book list and each book's detail view.
func (w *WarmUpManager) WarmUpCatalog(ctx context.Context) error {
	w.logger.Info("Katalog warm-up başlatılıyor", map[string]interface{}{})

	books, err := w.bookService.GetAllBooks(ctx)
	if err != nil {
		w.logger.Error("Katalog warm-up hatası", map[string]interface{}{"error": err.Error()})
		return err
	}

	if err := w.cache.Set(ctx, BookListKey, books, MediumExpiration); err != nil {
		return err
	}

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, 5)

	for _, book := range books {
		wg.Add(1)
		go func(bookID int64) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			detail, err := w.bookService.GetBookByID(ctx, bookID)
			if err != nil {
				w.logger.Error("Kitap warm-up hatası", map[string]interface{}{
					"book_id": bookID,
					"error":   err.Error(),
				})
				return
			}

			if err := w.cache.Set(ctx, BookCacheKey(bookID), detail, MediumExpiration); err != nil {
				w.logger.Error("Kitap cache set hatası", map[string]interface{}{
					"book_id": bookID,
					"error":   err.Error(),
				})
			}
		}(book.ID)
	}
	wg.Wait()

	w.logger.Info("Katalog warm-up tamamlandı", map[string]interface{}{"books": len(books)})
	return nil
}

// WarmUpIfCold runs the catalog and user list warm-up unless another
// instance has already populated the shared cache.
func (w *WarmUpManager) WarmUpIfCold(ctx context.Context) error {
	warm, err := w.cache.Exists(ctx, BookListKey)
	if err != nil {
		return err
	}
	if warm {
		w.logger.Info("Cache zaten sıcak, warm-up atlandı", map[string]interface{}{})
		return nil
	}

	if err := w.WarmUpCatalog(ctx); err != nil {
		return err
	}
	return w.WarmUpUserList(ctx)
}

// WarmUpUserList caches the user list view.
func (w *WarmUpManager) WarmUpUserList(ctx context.Context) error {
	users, err := w.userService.GetAllUsers(ctx)
	if err != nil {
		w.logger.Error("Kullanıcı listesi warm-up hatası", map[string]interface{}{"error": err.Error()})
		return err
	}

	return w.cache.Set(ctx, UserListKey, users, MediumExpiration)
}

// ScheduledWarmUp refreshes the cached catalog on a fixed interval.
func (w *WarmUpManager) ScheduledWarmUp(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.logger.Info("Scheduled warm-up başlatıldı", map[string]interface{}{"interval": interval})

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Scheduled warm-up durduruldu", map[string]interface{}{})
			return
		case <-ticker.C:
			if err := w.WarmUpCatalog(ctx); err != nil {
				w.logger.Error("Scheduled warm-up hatası", map[string]interface{}{"error": err.Error()})
			}
			if err := w.WarmUpUserList(ctx); err != nil {
				w.logger.Error("Scheduled warm-up hatası", map[string]interface{}{"error": err.Error()})
			}
		}
	}
}
