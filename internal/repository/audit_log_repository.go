package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lendflow/internal/domain"
	"lendflow/pkg/logger"
)

type AuditLogRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewAuditLogRepository(db *sql.DB, logger logger.Logger) domain.AuditLogRepository {
	return &AuditLogRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AuditLogRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	query := `
		INSERT INTO audit_logs (entity_type, entity_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`

	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	err := r.db.QueryRowContext(
		ctx,
		query,
		log.EntityType,
		log.EntityID,
		log.Action,
		log.Details,
		log.CreatedAt,
	).Scan(&log.ID)

	if err != nil {
		r.logger.Error("Denetim kaydı oluşturulamadı", map[string]interface{}{"error": err.Error()})
		return fmt.Errorf("denetim kaydı oluşturulamadı: %w", err)
	}

	return nil
}

func (r *AuditLogRepository) FindByEntityID(ctx context.Context, entityType domain.EntityType, entityID int64) ([]*domain.AuditLog, error) {
	query := `
		SELECT id, entity_type, entity_id, action, details, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, entityType, entityID)
	if err != nil {
		r.logger.Error("Denetim kayıtları bulunamadı", map[string]interface{}{
			"entity_type": entityType,
			"entity_id":   entityID,
			"error":       err.Error(),
		})
		return nil, fmt.Errorf("denetim kayıtları bulunamadı: %w", err)
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

func (r *AuditLogRepository) FindAll(ctx context.Context, limit, offset int) ([]*domain.AuditLog, error) {
	query := `
		SELECT id, entity_type, entity_id, action, details, created_at
		FROM audit_logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Denetim kayıtları bulunamadı", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("denetim kayıtları bulunamadı: %w", err)
	}
	defer rows.Close()

	return scanAuditLogs(rows)
}

func scanAuditLogs(rows *sql.Rows) ([]*domain.AuditLog, error) {
	var logs []*domain.AuditLog
	for rows.Next() {
		var log domain.AuditLog
		var details sql.NullString

		err := rows.Scan(
			&log.ID,
			&log.EntityType,
			&log.EntityID,
			&log.Action,
			&details,
			&log.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		log.Details = details.String
		logs = append(logs, &log)
	}

	return logs, rows.Err()
}
