package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lendflow/internal/domain"
	"lendflow/pkg/logger"
	"lendflow/pkg/metrics"
)

type BorrowingRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewBorrowingRepository(db *sql.DB, logger logger.Logger) domain.BorrowingRepository {
	return &BorrowingRepository{
		db:     db,
		logger: logger,
	}
}

func (r *BorrowingRepository) CreateTx(ctx context.Context, tx *sql.Tx, borrowing *domain.Borrowing) error {
	query := `
		INSERT INTO borrowings (user_id, book_id, score, borrowed_at, returned_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	now := time.Now()
	borrowing.BorrowedAt = now
	borrowing.Score = nil
	borrowing.ReturnedAt = nil
	borrowing.CreatedAt = now
	borrowing.UpdatedAt = now

	start := time.Now()
	err := tx.QueryRowContext(
		ctx,
		query,
		borrowing.UserID,
		borrowing.BookID,
		nil,
		borrowing.BorrowedAt,
		nil,
		borrowing.CreatedAt,
		borrowing.UpdatedAt,
	).Scan(&borrowing.ID)
	metrics.RecordDatabaseOperation("insert", "borrowings", time.Since(start))

	if err != nil {
		// Kısmi unique indeksler yarış durumunda son savunma hattı
		if isUniqueViolation(err) {
			if violationMentions(err, "book") {
				return domain.ErrBookUnavailable
			}
			if violationMentions(err, "user") {
				return domain.ErrUserHasActiveLoan
			}
			return domain.ErrDuplicateRecord
		}

		r.logger.Error("Ödünç kaydı oluşturulamadı", map[string]interface{}{
			"user_id": borrowing.UserID,
			"book_id": borrowing.BookID,
			"error":   err.Error(),
		})
		return fmt.Errorf("ödünç kaydı oluşturulamadı: %w", err)
	}

	return nil
}

func (r *BorrowingRepository) FindActiveByBookTx(ctx context.Context, tx *sql.Tx, bookID int64) (*domain.Borrowing, error) {
	query := `
		SELECT id, user_id, book_id, score, borrowed_at, returned_at, created_at, updated_at
		FROM borrowings
		WHERE book_id = $1 AND returned_at IS NULL
	`

	borrowing, err := scanBorrowing(tx.QueryRowContext(ctx, query, bookID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Aktif ödünç kaydı bulunamadı", map[string]interface{}{"book_id": bookID, "error": err.Error()})
		return nil, fmt.Errorf("aktif ödünç kaydı bulunamadı: %w", err)
	}

	return borrowing, nil
}

func (r *BorrowingRepository) HasActiveByUserTx(ctx context.Context, tx *sql.Tx, userID int64) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM borrowings WHERE user_id = $1 AND returned_at IS NULL`

	err := tx.QueryRowContext(ctx, query, userID).Scan(&count)
	if err != nil {
		r.logger.Error("Kullanıcının aktif ödünç kontrolü yapılamadı", map[string]interface{}{"user_id": userID, "error": err.Error()})
		return false, err
	}

	return count > 0, nil
}

func (r *BorrowingRepository) CloseTx(ctx context.Context, tx *sql.Tx, userID, bookID, score int64, returnedAt time.Time) (*domain.Borrowing, error) {
	query := `
		UPDATE borrowings
		SET returned_at = $1, score = $2, updated_at = $3
		WHERE user_id = $4 AND book_id = $5 AND returned_at IS NULL
		RETURNING id, user_id, book_id, score, borrowed_at, returned_at, created_at, updated_at
	`

	start := time.Now()
	borrowing, err := scanBorrowing(tx.QueryRowContext(ctx, query, returnedAt, score, returnedAt, userID, bookID))
	metrics.RecordDatabaseOperation("close", "borrowings", time.Since(start))

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Ödünç kaydı kapatılamadı", map[string]interface{}{
			"user_id": userID,
			"book_id": bookID,
			"error":   err.Error(),
		})
		return nil, fmt.Errorf("ödünç kaydı kapatılamadı: %w", err)
	}

	return borrowing, nil
}

func (r *BorrowingRepository) FindByUser(ctx context.Context, userID int64) ([]*domain.BorrowingWithBook, error) {
	query := `
		SELECT books.name, borrowings.score, borrowings.borrowed_at, borrowings.returned_at
		FROM borrowings
		JOIN books ON borrowings.book_id = books.id
		WHERE borrowings.user_id = $1
		ORDER BY borrowings.borrowed_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		r.logger.Error("Kullanıcının ödünç geçmişi alınamadı", map[string]interface{}{"user_id": userID, "error": err.Error()})
		return nil, fmt.Errorf("ödünç geçmişi alınamadı: %w", err)
	}
	defer rows.Close()

	var borrowings []*domain.BorrowingWithBook
	for rows.Next() {
		var item domain.BorrowingWithBook
		var score sql.NullInt64
		var returnedAt sql.NullTime

		if err := rows.Scan(&item.BookName, &score, &item.BorrowedAt, &returnedAt); err != nil {
			return nil, err
		}

		if score.Valid {
			item.Score = &score.Int64
		}
		if returnedAt.Valid {
			item.ReturnedAt = &returnedAt.Time
		}

		borrowings = append(borrowings, &item)
	}

	return borrowings, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBorrowing(row rowScanner) (*domain.Borrowing, error) {
	var borrowing domain.Borrowing
	var score sql.NullInt64
	var returnedAt sql.NullTime

	err := row.Scan(
		&borrowing.ID,
		&borrowing.UserID,
		&borrowing.BookID,
		&score,
		&borrowing.BorrowedAt,
		&returnedAt,
		&borrowing.CreatedAt,
		&borrowing.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if score.Valid {
		borrowing.Score = &score.Int64
	}
	if returnedAt.Valid {
		borrowing.ReturnedAt = &returnedAt.Time
	}

	return &borrowing, nil
}
