package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendflow/internal/domain"
	"lendflow/internal/testutil"
)

type borrowingFixture struct {
	db            *sql.DB
	userRepo      domain.UserRepository
	bookRepo      domain.BookRepository
	borrowingRepo domain.BorrowingRepository
}

func newBorrowingFixture(t *testing.T) *borrowingFixture {
	t.Helper()
	db := testutil.OpenTestDB(t)
	log := testutil.NopLogger()

	return &borrowingFixture{
		db:            db,
		userRepo:      NewUserRepository(db, log),
		bookRepo:      NewBookRepository(db, log),
		borrowingRepo: NewBorrowingRepository(db, log),
	}
}

func (f *borrowingFixture) seed(t *testing.T) (userID, bookID int64) {
	t.Helper()
	ctx := context.Background()

	user := &domain.User{Name: "Eray Aslan"}
	require.NoError(t, f.userRepo.Create(ctx, user))

	book := &domain.Book{Name: "Dune"}
	require.NoError(t, f.bookRepo.Create(ctx, book))

	return user.ID, book.ID
}

func (f *borrowingFixture) borrow(t *testing.T, userID, bookID int64) *domain.Borrowing {
	t.Helper()
	ctx := context.Background()

	tx, err := f.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	borrowing := &domain.Borrowing{UserID: userID, BookID: bookID}
	require.NoError(t, f.borrowingRepo.CreateTx(ctx, tx, borrowing))
	require.NoError(t, tx.Commit())

	return borrowing
}

func TestBorrowingCreateTx(t *testing.T) {
	f := newBorrowingFixture(t)
	userID, bookID := f.seed(t)

	borrowing := f.borrow(t, userID, bookID)
	assert.NotZero(t, borrowing.ID)
	assert.True(t, borrowing.IsActive())
	assert.Nil(t, borrowing.Score)
	assert.False(t, borrowing.BorrowedAt.IsZero())
}

func TestBorrowingActiveBookIndex(t *testing.T) {
	f := newBorrowingFixture(t)
	ctx := context.Background()

	userID, bookID := f.seed(t)
	f.borrow(t, userID, bookID)

	other := &domain.User{Name: "Kadir Mutlu"}
	require.NoError(t, f.userRepo.Create(ctx, other))

	// second active borrowing of the same book hits the partial index
	tx, err := f.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	err = f.borrowingRepo.CreateTx(ctx, tx, &domain.Borrowing{UserID: other.ID, BookID: bookID})
	assert.ErrorIs(t, err, domain.ErrBookUnavailable)
}

func TestBorrowingActiveUserIndex(t *testing.T) {
	f := newBorrowingFixture(t)
	ctx := context.Background()

	userID, bookID := f.seed(t)
	f.borrow(t, userID, bookID)

	other := &domain.Book{Name: "1984"}
	require.NoError(t, f.bookRepo.Create(ctx, other))

	tx, err := f.db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	err = f.borrowingRepo.CreateTx(ctx, tx, &domain.Borrowing{UserID: userID, BookID: other.ID})
	assert.ErrorIs(t, err, domain.ErrUserHasActiveLoan)
}

func TestBorrowingFindActiveByBookTx(t *testing.T) {
	f := newBorrowingFixture(t)
	ctx := context.Background()

	userID, bookID := f.seed(t)

	withTx(t, f.db, func(tx *sql.Tx) {
		active, err := f.borrowingRepo.FindActiveByBookTx(ctx, tx, bookID)
		require.NoError(t, err)
		assert.Nil(t, active)
	})

	created := f.borrow(t, userID, bookID)

	withTx(t, f.db, func(tx *sql.Tx) {
		active, err := f.borrowingRepo.FindActiveByBookTx(ctx, tx, bookID)
		require.NoError(t, err)
		require.NotNil(t, active)
		assert.Equal(t, created.ID, active.ID)
	})
}

func TestBorrowingHasActiveByUserTx(t *testing.T) {
	f := newBorrowingFixture(t)
	ctx := context.Background()

	userID, bookID := f.seed(t)

	withTx(t, f.db, func(tx *sql.Tx) {
		has, err := f.borrowingRepo.HasActiveByUserTx(ctx, tx, userID)
		require.NoError(t, err)
		assert.False(t, has)
	})

	f.borrow(t, userID, bookID)

	withTx(t, f.db, func(tx *sql.Tx) {
		has, err := f.borrowingRepo.HasActiveByUserTx(ctx, tx, userID)
		require.NoError(t, err)
		assert.True(t, has)
	})
}

func TestBorrowingCloseTx(t *testing.T) {
	f := newBorrowingFixture(t)
	ctx := context.Background()

	userID, bookID := f.seed(t)
	created := f.borrow(t, userID, bookID)

	var closed *domain.Borrowing
	withTx(t, f.db, func(tx *sql.Tx) {
		var err error
		closed, err = f.borrowingRepo.CloseTx(ctx, tx, userID, bookID, 8, time.Now())
		require.NoError(t, err)
	})

	require.NotNil(t, closed)
	assert.Equal(t, created.ID, closed.ID)
	assert.False(t, closed.IsActive())
	require.NotNil(t, closed.Score)
	assert.EqualValues(t, 8, *closed.Score)

	// already closed: no matching row
	withTx(t, f.db, func(tx *sql.Tx) {
		again, err := f.borrowingRepo.CloseTx(ctx, tx, userID, bookID, 8, time.Now())
		require.NoError(t, err)
		assert.Nil(t, again)
	})
}

func TestBorrowingFindByUser(t *testing.T) {
	f := newBorrowingFixture(t)
	ctx := context.Background()

	userID, bookID := f.seed(t)
	f.borrow(t, userID, bookID)

	withTx(t, f.db, func(tx *sql.Tx) {
		_, err := f.borrowingRepo.CloseTx(ctx, tx, userID, bookID, 10, time.Now())
		require.NoError(t, err)
	})

	other := &domain.Book{Name: "1984"}
	require.NoError(t, f.bookRepo.Create(ctx, other))
	f.borrow(t, userID, other.ID)

	history, err := f.borrowingRepo.FindByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, "Dune", history[0].BookName)
	require.NotNil(t, history[0].Score)
	assert.EqualValues(t, 10, *history[0].Score)
	assert.NotNil(t, history[0].ReturnedAt)

	assert.Equal(t, "1984", history[1].BookName)
	assert.Nil(t, history[1].Score)
	assert.Nil(t, history[1].ReturnedAt)
}
