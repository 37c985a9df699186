package domain

import (
	"context"
	"database/sql"
	"time"
)

// UnratedScore is the display value for a book that has no ratings yet.
// It is never persisted; books start with average_score 0.00.
const UnratedScore = -1

type Book struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	IsAvailable  bool      `json:"is_available"`
	AverageScore float64   `json:"average_score"`
	TotalRatings int64     `json:"total_ratings"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type BookListItem struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type BookDetail struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

type BookRepository interface {
	FindAll(ctx context.Context) ([]*BookListItem, error)
	FindByID(ctx context.Context, id int64) (*Book, error)
	Create(ctx context.Context, book *Book) error
	ExistsTx(ctx context.Context, tx *sql.Tx, id int64) (bool, error)

	// ClaimTx flips is_available from true to false as a guarded update.
	// Returns false when the book was already claimed by another borrowing.
	ClaimTx(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
	SetAvailabilityTx(ctx context.Context, tx *sql.Tx, id int64, isAvailable bool) error

	// AddRatingTx folds a score into the running aggregate as a single
	// read-modify-write against the stored row.
	AddRatingTx(ctx context.Context, tx *sql.Tx, id int64, score int64) error
}

type BookService interface {
	GetAllBooks(ctx context.Context) ([]*BookListItem, error)
	GetBookByID(ctx context.Context, id int64) (*BookDetail, error)
	CreateBook(ctx context.Context, name string) (*Book, error)
}
