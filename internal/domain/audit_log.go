package domain

import (
	"context"
	"time"
)

type EntityType string
type ActionType string

const (
	EntityTypeUser      EntityType = "user"
	EntityTypeBook      EntityType = "book"
	EntityTypeBorrowing EntityType = "borrowing"

	ActionTypeCreate ActionType = "create"
	ActionTypeBorrow ActionType = "borrow"
	ActionTypeReturn ActionType = "return"
)

type AuditLog struct {
	ID         int64      `json:"id"`
	EntityType EntityType `json:"entity_type"`
	EntityID   int64      `json:"entity_id"`
	Action     ActionType `json:"action"`
	Details    string     `json:"details,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

type AuditStats struct {
	Submitted     int64 `json:"submitted"`
	Completed     int64 `json:"completed"`
	Failed        int64 `json:"failed"`
	Rejected      int64 `json:"rejected"`
	QueueLength   int   `json:"queue_length"`
	QueueCapacity int   `json:"queue_capacity"`
}

type AuditLogRepository interface {
	Create(ctx context.Context, log *AuditLog) error
	FindByEntityID(ctx context.Context, entityType EntityType, entityID int64) ([]*AuditLog, error)
	FindAll(ctx context.Context, limit, offset int) ([]*AuditLog, error)
}

type AuditLogService interface {
	LogAction(entityType EntityType, entityID int64, action ActionType, details string)
	GetEntityLogs(ctx context.Context, entityType EntityType, entityID int64) ([]*AuditLog, error)
	GetAllLogs(ctx context.Context, page, pageSize int) ([]*AuditLog, error)
	Stats() AuditStats
	Shutdown()
}
