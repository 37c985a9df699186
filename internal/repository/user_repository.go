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

type UserRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewUserRepository(db *sql.DB, logger logger.Logger) domain.UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger,
	}
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*domain.UserListItem, error) {
	query := `SELECT id, name FROM users ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Kullanıcılar listelenemedi", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("kullanıcılar listelenemedi: %w", err)
	}
	defer rows.Close()

	var users []*domain.UserListItem
	for rows.Next() {
		var user domain.UserListItem
		if err := rows.Scan(&user.ID, &user.Name); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}

	return users, rows.Err()
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	query := `SELECT id, name, created_at, updated_at FROM users WHERE id = $1`

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		r.logger.Error("Kullanıcı ID'ye göre bulunamadı", map[string]interface{}{"id": id, "error": err.Error()})
		return nil, fmt.Errorf("kullanıcı bulunamadı: %w", err)
	}

	return &user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (name, created_at, updated_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	start := time.Now()
	err := r.db.QueryRowContext(ctx, query, user.Name, user.CreatedAt, user.UpdatedAt).Scan(&user.ID)
	metrics.RecordDatabaseOperation("insert", "users", time.Since(start))

	if err != nil {
		r.logger.Error("Kullanıcı oluşturulamadı", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("kullanıcı oluşturulamadı: %w", err)
	}

	return nil
}

func (r *UserRepository) ExistsTx(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	var count int
	err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = $1`, id).Scan(&count)
	if err != nil {
		r.logger.Error("Kullanıcı varlık kontrolü yapılamadı", map[string]interface{}{"id": id, "error": err.Error()})
		return false, err
	}

	return count > 0, nil
}
