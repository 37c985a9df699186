package database

import (
	"database/sql"
	"fmt"
	"time"

	"lendflow/pkg/logger"
)

type MigrationFunc func(tx *sql.Tx, driver string) error

type MigrationService struct {
	db     *sql.DB
	driver string
	logger logger.Logger
}

func NewMigrationService(db *sql.DB, driver string, logger logger.Logger) *MigrationService {
	return &MigrationService{
		db:     db,
		driver: driver,
		logger: logger,
	}
}

// idColumn returns the auto-increment primary key column for the active
// driver; the rest of the DDL is shared between PostgreSQL and SQLite.
func idColumn(driver string) string {
	if driver == "postgres" {
		return "id SERIAL PRIMARY KEY"
	}
	return "id INTEGER PRIMARY KEY AUTOINCREMENT"
}

func (m *MigrationService) InitMigrationTable() error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS migrations (
        %s,
        name TEXT NOT NULL UNIQUE,
        applied_at TIMESTAMP NOT NULL
    )
    `, idColumn(m.driver))

	_, err := m.db.Exec(query)
	if err != nil {
		m.logger.Error("Migration tablosu oluşturulamadı", map[string]interface{}{"error": err.Error()})
		return err
	}

	return nil
}

func (m *MigrationService) IsMigrationApplied(name string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM migrations WHERE name = $1"
	err := m.db.QueryRow(query, name).Scan(&count)
	if err != nil {
		m.logger.Error("Migration durumu kontrol edilemedi", map[string]interface{}{"name": name, "error": err.Error()})
		return false, err
	}

	return count > 0, nil
}

func (m *MigrationService) ApplyMigration(name string, migrationFunc MigrationFunc) error {
	applied, err := m.IsMigrationApplied(name)
	if err != nil {
		return err
	}

	if applied {
		m.logger.Debug("Migration zaten uygulanmış", map[string]interface{}{"name": name})
		return nil
	}

	m.logger.Info("Migration uygulanıyor", map[string]interface{}{"name": name})

	tx, err := m.db.Begin()
	if err != nil {
		m.logger.Error("Transaction başlatılamadı", map[string]interface{}{"error": err.Error()})
		return err
	}
	defer tx.Rollback()

	if err := migrationFunc(tx, m.driver); err != nil {
		m.logger.Error("Migration uygulanamadı", map[string]interface{}{"name": name, "error": err.Error()})
		return err
	}

	if _, err := tx.Exec("INSERT INTO migrations (name, applied_at) VALUES ($1, $2)", name, time.Now()); err != nil {
		m.logger.Error("Migration kaydedilemedi", map[string]interface{}{"name": name, "error": err.Error()})
		return err
	}

	if err := tx.Commit(); err != nil {
		m.logger.Error("Transaction commit edilemedi", map[string]interface{}{"error": err.Error()})
		return err
	}

	m.logger.Info("Migration başarıyla uygulandı", map[string]interface{}{"name": name})
	return nil
}

func (m *MigrationService) RunMigrations() error {
	m.logger.Info("Migrationlar başlatılıyor", map[string]interface{}{})

	if err := m.InitMigrationTable(); err != nil {
		return fmt.Errorf("migration tablosu oluşturulamadı: %w", err)
	}

	migrations := []struct {
		Name string
		Func MigrationFunc
	}{
		{"create_users_table", CreateUsersTable},
		{"create_books_table", CreateBooksTable},
		{"create_borrowings_table", CreateBorrowingsTable},
		{"create_audit_logs_table", CreateAuditLogsTable},
		{"create_events_table", CreateEventsTable},
	}

	for _, migration := range migrations {
		if err := m.ApplyMigration(migration.Name, migration.Func); err != nil {
			return fmt.Errorf("migration uygulanamadı %s: %w", migration.Name, err)
		}
	}

	return nil
}

func CreateUsersTable(tx *sql.Tx, driver string) error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS users (
        %s,
        name TEXT NOT NULL,
        created_at TIMESTAMP NOT NULL,
        updated_at TIMESTAMP NOT NULL
    )
    `, idColumn(driver))

	_, err := tx.Exec(query)
	return err
}

func CreateBooksTable(tx *sql.Tx, driver string) error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS books (
        %s,
        name TEXT NOT NULL,
        is_available BOOLEAN NOT NULL DEFAULT TRUE,
        average_score DECIMAL(4,2) NOT NULL DEFAULT 0,
        total_ratings INTEGER NOT NULL DEFAULT 0,
        created_at TIMESTAMP NOT NULL,
        updated_at TIMESTAMP NOT NULL
    )
    `, idColumn(driver))

	_, err := tx.Exec(query)
	return err
}

func CreateBorrowingsTable(tx *sql.Tx, driver string) error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS borrowings (
        %s,
        user_id INTEGER NOT NULL REFERENCES users (id) ON DELETE CASCADE,
        book_id INTEGER NOT NULL REFERENCES books (id) ON DELETE CASCADE,
        score INTEGER,
        borrowed_at TIMESTAMP NOT NULL,
        returned_at TIMESTAMP,
        created_at TIMESTAMP NOT NULL,
        updated_at TIMESTAMP NOT NULL
    )
    `, idColumn(driver))

	if _, err := tx.Exec(query); err != nil {
		return err
	}

	// Tek aktif ödünç kuralları veritabanı seviyesinde de garanti edilir:
	// aynı kitap veya aynı kullanıcı için ikinci aktif kayıt unique ihlali verir
	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS borrowings_active_book_idx
            ON borrowings (book_id) WHERE returned_at IS NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS borrowings_active_user_idx
            ON borrowings (user_id) WHERE returned_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS borrowings_user_id_idx ON borrowings (user_id)`,
		`CREATE INDEX IF NOT EXISTS borrowings_book_id_idx ON borrowings (book_id)`,
	}

	for _, idx := range indexes {
		if _, err := tx.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

func CreateAuditLogsTable(tx *sql.Tx, driver string) error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS audit_logs (
        %s,
        entity_type TEXT NOT NULL,
        entity_id INTEGER NOT NULL,
        action TEXT NOT NULL,
        details TEXT,
        created_at TIMESTAMP NOT NULL
    )
    `, idColumn(driver))

	_, err := tx.Exec(query)
	return err
}

func CreateEventsTable(tx *sql.Tx, driver string) error {
	query := fmt.Sprintf(`
    CREATE TABLE IF NOT EXISTS events (
        %s,
        aggregate_id TEXT NOT NULL,
        aggregate_type TEXT NOT NULL,
        event_type TEXT NOT NULL,
        event_data TEXT NOT NULL,
        version INTEGER NOT NULL,
        created_at TIMESTAMP NOT NULL
    )
    `, idColumn(driver))

	if _, err := tx.Exec(query); err != nil {
		return err
	}

	_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS events_aggregate_idx ON events (aggregate_type, aggregate_id)`)
	return err
}
