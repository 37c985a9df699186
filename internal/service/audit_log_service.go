package service

import (
	"context"
	"fmt"
	"time"

	"lendflow/internal/concurrent"
	"lendflow/internal/domain"
	"lendflow/pkg/logger"
	"lendflow/pkg/metrics"
)

// AuditLogService writes the audit trail through a worker pool so that
// callers never block on it. A dropped entry is logged, not surfaced.
type AuditLogService struct {
	repo       domain.AuditLogRepository
	logger     logger.Logger
	workerPool *concurrent.WorkerPool
}

func NewAuditLogService(repo domain.AuditLogRepository, logger logger.Logger) domain.AuditLogService {
	svc := &AuditLogService{
		repo:   repo,
		logger: logger,
	}

	processor := func(log *domain.AuditLog) error {
		return repo.Create(context.Background(), log)
	}

	svc.workerPool = concurrent.NewWorkerPool(2, 256, processor, logger)
	svc.workerPool.Start()

	return svc
}

func (s *AuditLogService) LogAction(entityType domain.EntityType, entityID int64, action domain.ActionType, details string) {
	auditLog := &domain.AuditLog{
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Details:    details,
		CreatedAt:  time.Now(),
	}

	s.workerPool.Submit(auditLog)
	metrics.UpdateAuditQueueSize(s.workerPool.QueueLength())
}

func (s *AuditLogService) GetEntityLogs(ctx context.Context, entityType domain.EntityType, entityID int64) ([]*domain.AuditLog, error) {
	logs, err := s.repo.FindByEntityID(ctx, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("denetim kayıtları bulunamadı: %w", err)
	}

	return logs, nil
}

func (s *AuditLogService) GetAllLogs(ctx context.Context, page, pageSize int) ([]*domain.AuditLog, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}

	offset := (page - 1) * pageSize
	limit := pageSize

	logs, err := s.repo.FindAll(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("denetim kayıtları bulunamadı: %w", err)
	}

	return logs, nil
}

func (s *AuditLogService) Stats() domain.AuditStats {
	poolStats := s.workerPool.GetStats()

	return domain.AuditStats{
		Submitted:     poolStats.Submitted,
		Completed:     poolStats.Written,
		Failed:        poolStats.Failed,
		Rejected:      poolStats.Rejected,
		QueueLength:   s.workerPool.QueueLength(),
		QueueCapacity: s.workerPool.QueueCapacity(),
	}
}

// Shutdown drains the queue and stops the workers.
func (s *AuditLogService) Shutdown() {
	s.workerPool.Stop()
}
