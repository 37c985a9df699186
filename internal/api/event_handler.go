package api

import (
	"net/http"

	"lendflow/internal/domain"
	"lendflow/pkg/logger"
)

type EventHandler struct {
	service domain.EventStoreService
	logger  logger.Logger
}

func NewEventHandler(service domain.EventStoreService, logger logger.Logger) *EventHandler {
	return &EventHandler{
		service: service,
		logger:  logger,
	}
}

func (h *EventHandler) GetAggregateEvents(w http.ResponseWriter, r *http.Request) {
	aggregateType := r.PathValue("aggregateType")
	switch aggregateType {
	case domain.AggregateTypeUser, domain.AggregateTypeBook:
	default:
		writeError(w, http.StatusBadRequest, "geçersiz aggregate tipi")
		return
	}

	aggregateID := r.PathValue("aggregateId")

	events, err := h.service.GetAggregateEvents(r.Context(), aggregateType, aggregateID)
	if err != nil {
		h.logger.Error("Olaylar alınamadı", map[string]interface{}{
			"aggregate_type": aggregateType,
			"aggregate_id":   aggregateID,
			"error":          err.Error(),
		})
		status, message := statusFromError(err)
		writeError(w, status, message)
		return
	}

	if events == nil {
		events = []*domain.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) GetEventsByType(w http.ResponseWriter, r *http.Request) {
	eventType := domain.EventType(r.PathValue("eventType"))
	switch eventType {
	case domain.EventTypeUserCreated, domain.EventTypeBookCreated,
		domain.EventTypeBookBorrowed, domain.EventTypeBookReturned:
	default:
		writeError(w, http.StatusBadRequest, "geçersiz olay tipi")
		return
	}

	events, err := h.service.GetEventsByType(r.Context(), eventType)
	if err != nil {
		h.logger.Error("Olaylar alınamadı", map[string]interface{}{
			"event_type": eventType,
			"error":      err.Error(),
		})
		status, message := statusFromError(err)
		writeError(w, status, message)
		return
	}

	if events == nil {
		events = []*domain.Event{}
	}

	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /events/types/{eventType}", h.GetEventsByType)
	mux.HandleFunc("GET /events/{aggregateType}/{aggregateId}", h.GetAggregateEvents)
}
