package domain

import (
	"context"
	"encoding/json"
	"time"
)

type EventType string

const (
	EventTypeUserCreated  EventType = "user_created"
	EventTypeBookCreated  EventType = "book_created"
	EventTypeBookBorrowed EventType = "book_borrowed"
	EventTypeBookReturned EventType = "book_returned"
)

const (
	AggregateTypeUser = "user"
	AggregateTypeBook = "book"
)

type Event struct {
	ID            int64           `json:"id"`
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	EventType     EventType       `json:"event_type"`
	EventData     json.RawMessage `json:"event_data"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
}

type EventStoreRepository interface {
	Save(ctx context.Context, event *Event) error
	GetEvents(ctx context.Context, aggregateType string, aggregateID string) ([]*Event, error)
	GetEventsByType(ctx context.Context, eventType EventType) ([]*Event, error)
	GetLastVersion(ctx context.Context, aggregateType string, aggregateID string) (int, error)
}

type EventStoreService interface {
	RecordEvent(ctx context.Context, aggregateType string, aggregateID string, eventType EventType, data interface{}) error
	GetAggregateEvents(ctx context.Context, aggregateType string, aggregateID string) ([]*Event, error)
	GetEventsByType(ctx context.Context, eventType EventType) ([]*Event, error)
}
