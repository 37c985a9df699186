package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lendflow/internal/domain"
	"lendflow/pkg/logger"
	"lendflow/pkg/metrics"
)

// LendingService orchestrates borrow and return flows. Each flow runs
// inside a single database transaction so that availability, the
// borrowing row and the rating aggregate never diverge.
type LendingService struct {
	db            *sql.DB
	userRepo      domain.UserRepository
	bookRepo      domain.BookRepository
	borrowingRepo domain.BorrowingRepository
	auditSvc      domain.AuditLogService
	eventSvc      domain.EventStoreService
	logger        logger.Logger
}

func NewLendingService(
	db *sql.DB,
	userRepo domain.UserRepository,
	bookRepo domain.BookRepository,
	borrowingRepo domain.BorrowingRepository,
	auditSvc domain.AuditLogService,
	eventSvc domain.EventStoreService,
	logger logger.Logger,
) domain.LendingService {
	return &LendingService{
		db:            db,
		userRepo:      userRepo,
		bookRepo:      bookRepo,
		borrowingRepo: borrowingRepo,
		auditSvc:      auditSvc,
		eventSvc:      eventSvc,
		logger:        logger,
	}
}

func (s *LendingService) BorrowBook(ctx context.Context, userID, bookID int64) (*domain.Borrowing, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordBorrow("error")
		return nil, fmt.Errorf("işlem başlatılamadı: %w", err)
	}
	defer tx.Rollback()

	exists, err := s.userRepo.ExistsTx(ctx, tx, userID)
	if err != nil {
		metrics.RecordBorrow("error")
		return nil, fmt.Errorf("kullanıcı kontrolü yapılamadı: %w", err)
	}
	if !exists {
		metrics.RecordBorrow("rejected")
		return nil, domain.ErrUserNotFound
	}

	exists, err = s.bookRepo.ExistsTx(ctx, tx, bookID)
	if err != nil {
		metrics.RecordBorrow("error")
		return nil, fmt.Errorf("kitap kontrolü yapılamadı: %w", err)
	}
	if !exists {
		metrics.RecordBorrow("rejected")
		return nil, domain.ErrBookNotFound
	}

	hasActive, err := s.borrowingRepo.HasActiveByUserTx(ctx, tx, userID)
	if err != nil {
		metrics.RecordBorrow("error")
		return nil, fmt.Errorf("aktif ödünç kontrolü yapılamadı: %w", err)
	}
	if hasActive {
		metrics.RecordBorrow("rejected")
		return nil, domain.ErrUserHasActiveLoan
	}

	// Guarded update: exactly one concurrent borrower can claim the book.
	claimed, err := s.bookRepo.ClaimTx(ctx, tx, bookID)
	if err != nil {
		metrics.RecordBorrow("error")
		return nil, fmt.Errorf("kitap ödünç alınamadı: %w", err)
	}
	if !claimed {
		metrics.RecordBorrow("rejected")
		return nil, domain.ErrBookUnavailable
	}

	borrowing := &domain.Borrowing{
		UserID: userID,
		BookID: bookID,
	}
	if err := s.borrowingRepo.CreateTx(ctx, tx, borrowing); err != nil {
		metrics.RecordBorrow("error")
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordBorrow("error")
		return nil, fmt.Errorf("işlem tamamlanamadı: %w", err)
	}

	metrics.RecordBorrow("success")
	s.logger.Info("Kitap ödünç alındı", map[string]interface{}{
		"user_id":      userID,
		"book_id":      bookID,
		"borrowing_id": borrowing.ID,
	})

	s.auditSvc.LogAction(domain.EntityTypeBorrowing, borrowing.ID, domain.ActionTypeBorrow,
		fmt.Sprintf("Kitap ödünç alındı: kullanıcı %d, kitap %d", userID, bookID))

	if err := s.eventSvc.RecordEvent(ctx, domain.AggregateTypeBook, fmt.Sprintf("%d", bookID), domain.EventTypeBookBorrowed, borrowing); err != nil {
		s.logger.Error("Ödünç alma olayı kaydedilemedi", map[string]interface{}{
			"borrowing_id": borrowing.ID,
			"error":        err.Error(),
		})
	}

	return borrowing, nil
}

func (s *LendingService) ReturnBook(ctx context.Context, userID, bookID, score int64) (*domain.Borrowing, error) {
	if score < domain.MinScore || score > domain.MaxScore {
		metrics.RecordReturn("rejected")
		return nil, domain.ErrInvalidScore
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		metrics.RecordReturn("error")
		return nil, fmt.Errorf("işlem başlatılamadı: %w", err)
	}
	defer tx.Rollback()

	exists, err := s.userRepo.ExistsTx(ctx, tx, userID)
	if err != nil {
		metrics.RecordReturn("error")
		return nil, fmt.Errorf("kullanıcı kontrolü yapılamadı: %w", err)
	}
	if !exists {
		metrics.RecordReturn("rejected")
		return nil, domain.ErrUserNotFound
	}

	exists, err = s.bookRepo.ExistsTx(ctx, tx, bookID)
	if err != nil {
		metrics.RecordReturn("error")
		return nil, fmt.Errorf("kitap kontrolü yapılamadı: %w", err)
	}
	if !exists {
		metrics.RecordReturn("rejected")
		return nil, domain.ErrBookNotFound
	}

	// The guarded close matches only the active borrowing, so concurrent
	// returns of the same loan resolve to a single winner.
	borrowing, err := s.borrowingRepo.CloseTx(ctx, tx, userID, bookID, score, time.Now())
	if err != nil {
		metrics.RecordReturn("error")
		return nil, err
	}
	if borrowing == nil {
		metrics.RecordReturn("rejected")
		return nil, domain.ErrNoMatchingActiveLoan
	}

	if err := s.bookRepo.SetAvailabilityTx(ctx, tx, bookID, true); err != nil {
		metrics.RecordReturn("error")
		return nil, err
	}

	if err := s.bookRepo.AddRatingTx(ctx, tx, bookID, score); err != nil {
		metrics.RecordReturn("error")
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		metrics.RecordReturn("error")
		return nil, fmt.Errorf("işlem tamamlanamadı: %w", err)
	}

	metrics.RecordReturn("success")
	metrics.RecordRating()
	s.logger.Info("Kitap iade edildi", map[string]interface{}{
		"user_id":      userID,
		"book_id":      bookID,
		"borrowing_id": borrowing.ID,
		"score":        score,
	})

	s.auditSvc.LogAction(domain.EntityTypeBorrowing, borrowing.ID, domain.ActionTypeReturn,
		fmt.Sprintf("Kitap iade edildi: kullanıcı %d, kitap %d, puan %d", userID, bookID, score))

	if err := s.eventSvc.RecordEvent(ctx, domain.AggregateTypeBook, fmt.Sprintf("%d", bookID), domain.EventTypeBookReturned, borrowing); err != nil {
		s.logger.Error("İade olayı kaydedilemedi", map[string]interface{}{
			"borrowing_id": borrowing.ID,
			"error":        err.Error(),
		})
	}

	return borrowing, nil
}
