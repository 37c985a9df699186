package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendflow/pkg/logger"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "migration_test.db")
	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000&_foreign_keys=on")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestRunMigrations(t *testing.T) {
	db := openDB(t)
	svc := NewMigrationService(db, "sqlite3", logger.New(logger.ErrorLevel, nil))

	require.NoError(t, svc.RunMigrations())

	for _, table := range []string{"users", "books", "borrowings", "audit_logs", "events", "migrations"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, "tablo eksik: %s", table)
	}
}

func TestRunMigrationsIdempotent(t *testing.T) {
	db := openDB(t)
	svc := NewMigrationService(db, "sqlite3", logger.New(logger.ErrorLevel, nil))

	require.NoError(t, svc.RunMigrations())
	require.NoError(t, svc.RunMigrations())

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM migrations`).Scan(&count))
	assert.Equal(t, 5, count)
}

func TestActiveLoanIndexes(t *testing.T) {
	db := openDB(t)
	svc := NewMigrationService(db, "sqlite3", logger.New(logger.ErrorLevel, nil))
	require.NoError(t, svc.RunMigrations())

	for _, index := range []string{"borrowings_active_book_idx", "borrowings_active_user_idx"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'index' AND name = ?`, index).Scan(&name)
		require.NoError(t, err, "indeks eksik: %s", index)
	}
}

func TestSeedService(t *testing.T) {
	db := openDB(t)
	svc := NewMigrationService(db, "sqlite3", logger.New(logger.ErrorLevel, nil))
	require.NoError(t, svc.RunMigrations())

	seeds := NewSeedService(db, logger.New(logger.ErrorLevel, nil))
	require.NoError(t, seeds.Run())

	var users, books, borrowings int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&users))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM books`).Scan(&books))
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM borrowings`).Scan(&borrowings))

	assert.Equal(t, 4, users)
	assert.Equal(t, 5, books)
	assert.Equal(t, 3, borrowings)

	// seeding is a no-op on a populated database
	require.NoError(t, seeds.Run())
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&users))
	assert.Equal(t, 4, users)
}
