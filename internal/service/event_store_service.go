package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"lendflow/internal/domain"
	"lendflow/pkg/logger"
)

type EventStoreService struct {
	repo   domain.EventStoreRepository
	logger logger.Logger
}

func NewEventStoreService(repo domain.EventStoreRepository, logger logger.Logger) domain.EventStoreService {
	return &EventStoreService{
		repo:   repo,
		logger: logger,
	}
}

func (s *EventStoreService) RecordEvent(ctx context.Context, aggregateType string, aggregateID string, eventType domain.EventType, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		s.logger.Error("Olay verisi serileştirilemedi", map[string]interface{}{
			"aggregate_type": aggregateType,
			"aggregate_id":   aggregateID,
			"event_type":     eventType,
			"error":          err.Error(),
		})
		return fmt.Errorf("olay verisi serileştirilemedi: %w", err)
	}

	lastVersion, err := s.repo.GetLastVersion(ctx, aggregateType, aggregateID)
	if err != nil {
		return err
	}

	event := &domain.Event{
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		EventData:     payload,
		Version:       lastVersion + 1,
		CreatedAt:     time.Now(),
	}

	return s.repo.Save(ctx, event)
}

func (s *EventStoreService) GetAggregateEvents(ctx context.Context, aggregateType string, aggregateID string) ([]*domain.Event, error) {
	events, err := s.repo.GetEvents(ctx, aggregateType, aggregateID)
	if err != nil {
		s.logger.Error("Aggregate olayları alınamadı", map[string]interface{}{
			"aggregate_type": aggregateType,
			"aggregate_id":   aggregateID,
			"error":          err.Error(),
		})
		return nil, err
	}

	return events, nil
}

func (s *EventStoreService) GetEventsByType(ctx context.Context, eventType domain.EventType) ([]*domain.Event, error) {
	events, err := s.repo.GetEventsByType(ctx, eventType)
	if err != nil {
		s.logger.Error("Olaylar tipe göre alınamadı", map[string]interface{}{
			"event_type": eventType,
			"error":      err.Error(),
		})
		return nil, err
	}

	return events, nil
}
