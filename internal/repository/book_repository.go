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

type BookRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewBookRepository(db *sql.DB, logger logger.Logger) domain.BookRepository {
	return &BookRepository{
		db:     db,
		logger: logger,
	}
}

func (r *BookRepository) FindAll(ctx context.Context) ([]*domain.BookListItem, error) {
	query := `SELECT id, name FROM books ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Kitaplar listelenemedi", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("kitaplar listelenemedi: %w", err)
	}
	defer rows.Close()

	var books []*domain.BookListItem
	for rows.Next() {
		var book domain.BookListItem
		if err := rows.Scan(&book.ID, &book.Name); err != nil {
			return nil, err
		}
		books = append(books, &book)
	}

	return books, rows.Err()
}

func (r *BookRepository) FindByID(ctx context.Context, id int64) (*domain.Book, error) {
	query := `
		SELECT id, name, is_available, average_score, total_ratings, created_at, updated_at
		FROM books
		WHERE id = $1
	`

	var book domain.Book
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&book.ID,
		&book.Name,
		&book.IsAvailable,
		&book.AverageScore,
		&book.TotalRatings,
		&book.CreatedAt,
		&book.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Kitap ID'ye göre bulunamadı", map[string]interface{}{"id": id, "error": err.Error()})
		return nil, fmt.Errorf("kitap bulunamadı: %w", err)
	}

	return &book, nil
}

func (r *BookRepository) Create(ctx context.Context, book *domain.Book) error {
	query := `
		INSERT INTO books (name, is_available, average_score, total_ratings, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	now := time.Now()
	book.IsAvailable = true
	book.AverageScore = 0
	book.TotalRatings = 0
	book.CreatedAt = now
	book.UpdatedAt = now

	start := time.Now()
	err := r.db.QueryRowContext(
		ctx,
		query,
		book.Name,
		book.IsAvailable,
		book.AverageScore,
		book.TotalRatings,
		book.CreatedAt,
		book.UpdatedAt,
	).Scan(&book.ID)
	metrics.RecordDatabaseOperation("insert", "books", time.Since(start))

	if err != nil {
		r.logger.Error("Kitap oluşturulamadı", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("kitap oluşturulamadı: %w", err)
	}

	return nil
}

func (r *BookRepository) ExistsTx(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	var count int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE id = $1`, id).Scan(&count)
	if err != nil {
		r.logger.Error("Kitap varlık kontrolü yapılamadı", map[string]interface{}{"id": id, "error": err.Error()})
		return false, err
	}

	return count > 0, nil
}

// ClaimTx is the serialization point for concurrent borrow attempts:
// the guarded predicate lets exactly one transaction win the row.
func (r *BookRepository) ClaimTx(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	query := `UPDATE books SET is_available = $1, updated_at = $2 WHERE id = $3 AND is_available = $4`

	result, err := tx.ExecContext(ctx, query, false, time.Now(), id, true)
	if err != nil {
		r.logger.Error("Kitap ödünç için işaretlenemedi", map[string]interface{}{"id": id, "error": err.Error()})
		return false, fmt.Errorf("kitap güncellenemedi: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected > 0, nil
}

func (r *BookRepository) SetAvailabilityTx(ctx context.Context, tx *sql.Tx, id int64, isAvailable bool) error {
	query := `UPDATE books SET is_available = $1, updated_at = $2 WHERE id = $3`

	_, err := tx.ExecContext(ctx, query, isAvailable, time.Now(), id)
	if err != nil {
		r.logger.Error("Kitap müsaitlik durumu güncellenemedi", map[string]interface{}{"id": id, "error": err.Error()})
		return fmt.Errorf("kitap güncellenemedi: %w", err)
	}

	return nil
}

// AddRatingTx recomputes the running mean against the stored values in a
// single statement, so concurrent raters of the same book cannot lose
// updates.
func (r *BookRepository) AddRatingTx(ctx context.Context, tx *sql.Tx, id int64, score int64) error {
	query := `
		UPDATE books
		SET average_score = ROUND((average_score * total_ratings + $1) * 1.0 / (total_ratings + 1), 2),
		    total_ratings = total_ratings + 1,
		    updated_at = $2
		WHERE id = $3
	`

	start := time.Now()
	result, err := tx.ExecContext(ctx, query, score, time.Now(), id)
	metrics.RecordDatabaseOperation("update_rating", "books", time.Since(start))

	if err != nil {
		r.logger.Error("Kitap puanı güncellenemedi", map[string]interface{}{"id": id, "score": score, "error": err.Error()})
		return fmt.Errorf("kitap puanı güncellenemedi: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrBookNotFound
	}

	return nil
}
