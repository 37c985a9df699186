package database

import (
	"database/sql"
	"time"

	"lendflow/pkg/logger"
)

type SeedService struct {
	db     *sql.DB
	logger logger.Logger
}

func NewSeedService(db *sql.DB, logger logger.Logger) *SeedService {
	return &SeedService{
		db:     db,
		logger: logger,
	}
}

// Run inserts the development fixtures. It is a no-op when the users
// table already has rows.
func (s *SeedService) Run() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return err
	}

	if count > 0 {
		s.logger.Debug("Seed verileri zaten mevcut", map[string]interface{}{"users": count})
		return nil
	}

	s.logger.Info("Seed verileri yükleniyor", map[string]interface{}{})

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now()
	pastDate := now.Add(-7 * 24 * time.Hour)

	users := []string{"Eray Aslan", "Enes Faruk Meniz", "Sefa Eren Şahin", "Kadir Mutlu"}
	for _, name := range users {
		if _, err := tx.Exec(
			"INSERT INTO users (name, created_at, updated_at) VALUES ($1, $2, $3)",
			name, now, now,
		); err != nil {
			return err
		}
	}

	books := []struct {
		Name         string
		IsAvailable  bool
		AverageScore float64
		TotalRatings int64
	}{
		{"The Hitchhiker's Guide to the Galaxy", true, 10.00, 1},
		{"I, Robot", true, 5.33, 3},
		{"Dune", true, 0, 0},
		{"1984", true, 0, 0},
		{"Brave New World", false, 0, 0},
	}
	for _, b := range books {
		if _, err := tx.Exec(
			"INSERT INTO books (name, is_available, average_score, total_ratings, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6)",
			b.Name, b.IsAvailable, b.AverageScore, b.TotalRatings, now, now,
		); err != nil {
			return err
		}
	}

	borrowings := []struct {
		UserID     int64
		BookID     int64
		Score      sql.NullInt64
		BorrowedAt time.Time
		ReturnedAt sql.NullTime
	}{
		{2, 1, sql.NullInt64{Int64: 10, Valid: true}, pastDate, sql.NullTime{Time: now, Valid: true}},
		{2, 2, sql.NullInt64{Int64: 5, Valid: true}, pastDate, sql.NullTime{Time: now, Valid: true}},
		{2, 5, sql.NullInt64{}, now, sql.NullTime{}},
	}
	for _, b := range borrowings {
		if _, err := tx.Exec(
			"INSERT INTO borrowings (user_id, book_id, score, borrowed_at, returned_at, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
			b.UserID, b.BookID, b.Score, b.BorrowedAt, b.ReturnedAt, now, now,
		); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("Seed verileri yüklendi", map[string]interface{}{
		"users": len(users),
		"books": len(books),
	})
	return nil
}
