package domain

import (
	"context"
	"database/sql"
	"time"
)

const (
	MinScore = 1
	MaxScore = 10
)

type Borrowing struct {
	ID         int64      `json:"id"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	Score      *int64     `json:"score,omitempty"`
	BorrowedAt time.Time  `json:"borrowed_at"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (b *Borrowing) IsActive() bool {
	return b.ReturnedAt == nil
}

type BorrowingWithBook struct {
	BookName   string
	Score      *int64
	BorrowedAt time.Time
	ReturnedAt *time.Time
}

type BorrowingRepository interface {
	CreateTx(ctx context.Context, tx *sql.Tx, borrowing *Borrowing) error
	FindActiveByBookTx(ctx context.Context, tx *sql.Tx, bookID int64) (*Borrowing, error)
	HasActiveByUserTx(ctx context.Context, tx *sql.Tx, userID int64) (bool, error)

	// CloseTx sets returned_at and score on the active borrowing matching
	// user and book. Returns nil when no such borrowing exists.
	CloseTx(ctx context.Context, tx *sql.Tx, userID, bookID, score int64, returnedAt time.Time) (*Borrowing, error)

	FindByUser(ctx context.Context, userID int64) ([]*BorrowingWithBook, error)
}

type LendingService interface {
	BorrowBook(ctx context.Context, userID, bookID int64) (*Borrowing, error)
	ReturnBook(ctx context.Context, userID, bookID, score int64) (*Borrowing, error)
}
