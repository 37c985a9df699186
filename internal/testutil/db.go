package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"lendflow/internal/database"
	"lendflow/pkg/logger"
)

// OpenTestDB opens a file-backed sqlite database in a temp directory
// and applies all migrations. _txlock=immediate makes writer
// transactions take the write lock up front, which keeps concurrent
// lending tests deterministic.
func OpenTestDB(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "lendflow_test.db")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=on&_txlock=immediate", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatalf("test veritabanı açılamadı: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrations := database.NewMigrationService(db, "sqlite3", NopLogger())
	if err := migrations.RunMigrations(); err != nil {
		t.Fatalf("test migrationları uygulanamadı: %v", err)
	}

	return db
}

type nopLogger struct{}

// NopLogger returns a logger that discards everything.
func NopLogger() logger.Logger {
	return nopLogger{}
}

func (nopLogger) Debug(msg string, fields map[string]interface{}) {}
func (nopLogger) Info(msg string, fields map[string]interface{})  {}
func (nopLogger) Warn(msg string, fields map[string]interface{})  {}
func (nopLogger) Error(msg string, fields map[string]interface{}) {}
func (nopLogger) Fatal(msg string, fields map[string]interface{}) {}

func (l nopLogger) WithContext(ctx context.Context) logger.Logger { return l }
func (l nopLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return l
}
func (nopLogger) InfoContext(ctx context.Context, msg string, fields map[string]interface{})  {}
func (nopLogger) ErrorContext(ctx context.Context, msg string, fields map[string]interface{}) {}
