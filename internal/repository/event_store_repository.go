package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"lendflow/internal/domain"
	"lendflow/pkg/logger"
)

type EventStoreRepository struct {
	db     *sql.DB
	logger logger.Logger
}

func NewEventStoreRepository(db *sql.DB, logger logger.Logger) domain.EventStoreRepository {
	return &EventStoreRepository{
		db:     db,
		logger: logger,
	}
}

func (r *EventStoreRepository) Save(ctx context.Context, event *domain.Event) error {
	query := `
		INSERT INTO events (aggregate_id, aggregate_type, event_type, event_data, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	err := r.db.QueryRowContext(
		ctx,
		query,
		event.AggregateID,
		event.AggregateType,
		event.EventType,
		string(event.EventData),
		event.Version,
		event.CreatedAt,
	).Scan(&event.ID)

	if err != nil {
		r.logger.Error("Olay kaydedilemedi", map[string]interface{}{
			"aggregate_type": event.AggregateType,
			"aggregate_id":   event.AggregateID,
			"event_type":     event.EventType,
			"error":          err.Error(),
		})
		return fmt.Errorf("olay kaydedilemedi: %w", err)
	}

	return nil
}

func (r *EventStoreRepository) GetEvents(ctx context.Context, aggregateType string, aggregateID string) ([]*domain.Event, error) {
	query := `
		SELECT id, aggregate_id, aggregate_type, event_type, event_data, version, created_at
		FROM events
		WHERE aggregate_type = $1 AND aggregate_id = $2
		ORDER BY version
	`

	rows, err := r.db.QueryContext(ctx, query, aggregateType, aggregateID)
	if err != nil {
		r.logger.Error("Olaylar alınamadı", map[string]interface{}{
			"aggregate_type": aggregateType,
			"aggregate_id":   aggregateID,
			"error":          err.Error(),
		})
		return nil, fmt.Errorf("olaylar alınamadı: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *EventStoreRepository) GetEventsByType(ctx context.Context, eventType domain.EventType) ([]*domain.Event, error) {
	query := `
		SELECT id, aggregate_id, aggregate_type, event_type, event_data, version, created_at
		FROM events
		WHERE event_type = $1
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query, eventType)
	if err != nil {
		r.logger.Error("Olaylar tipe göre alınamadı", map[string]interface{}{"event_type": eventType, "error": err.Error()})
		return nil, fmt.Errorf("olaylar alınamadı: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func (r *EventStoreRepository) GetLastVersion(ctx context.Context, aggregateType string, aggregateID string) (int, error) {
	query := `
		SELECT COALESCE(MAX(version), 0)
		FROM events
		WHERE aggregate_type = $1 AND aggregate_id = $2
	`

	var version int
	err := r.db.QueryRowContext(ctx, query, aggregateType, aggregateID).Scan(&version)
	if err != nil {
		r.logger.Error("Olay versiyonu alınamadı", map[string]interface{}{
			"aggregate_type": aggregateType,
			"aggregate_id":   aggregateID,
			"error":          err.Error(),
		})
		return 0, fmt.Errorf("olay versiyonu alınamadı: %w", err)
	}

	return version, nil
}

func scanEvents(rows *sql.Rows) ([]*domain.Event, error) {
	var events []*domain.Event
	for rows.Next() {
		var event domain.Event
		var data string

		err := rows.Scan(
			&event.ID,
			&event.AggregateID,
			&event.AggregateType,
			&event.EventType,
			&data,
			&event.Version,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, err
		}

		event.EventData = []byte(data)
		events = append(events, &event)
	}

	return events, rows.Err()
}
