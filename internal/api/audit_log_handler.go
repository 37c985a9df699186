package api

import (
	"net/http"
	"strconv"

	"lendflow/internal/domain"
	"lendflow/pkg/logger"
)

type AuditLogHandler struct {
	service domain.AuditLogService
	logger  logger.Logger
}

func NewAuditLogHandler(service domain.AuditLogService, logger logger.Logger) *AuditLogHandler {
	return &AuditLogHandler{
		service: service,
		logger:  logger,
	}
}

func (h *AuditLogHandler) GetAllLogs(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	logs, err := h.service.GetAllLogs(r.Context(), page, pageSize)
	if err != nil {
		h.logger.Error("Denetim kayıtları alınamadı", map[string]interface{}{"error": err.Error()})
		status, message := statusFromError(err)
		writeError(w, status, message)
		return
	}

	if logs == nil {
		logs = []*domain.AuditLog{}
	}

	writeJSON(w, http.StatusOK, logs)
}

func (h *AuditLogHandler) GetEntityLogs(w http.ResponseWriter, r *http.Request) {
	entityType := domain.EntityType(r.PathValue("entityType"))
	switch entityType {
	case domain.EntityTypeUser, domain.EntityTypeBook, domain.EntityTypeBorrowing:
	default:
		writeError(w, http.StatusBadRequest, "geçersiz varlık tipi")
		return
	}

	entityID, err := strconv.ParseInt(r.PathValue("entityId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "geçersiz ID formatı")
		return
	}

	logs, err := h.service.GetEntityLogs(r.Context(), entityType, entityID)
	if err != nil {
		h.logger.Error("Denetim kayıtları alınamadı", map[string]interface{}{
			"entity_type": entityType,
			"entity_id":   entityID,
			"error":       err.Error(),
		})
		status, message := statusFromError(err)
		writeError(w, status, message)
		return
	}

	if logs == nil {
		logs = []*domain.AuditLog{}
	}

	writeJSON(w, http.StatusOK, logs)
}

func (h *AuditLogHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Stats())
}

func (h *AuditLogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /audit-logs", h.GetAllLogs)
	mux.HandleFunc("GET /audit-logs/stats", h.GetStats)
	mux.HandleFunc("GET /audit-logs/{entityType}/{entityId}", h.GetEntityLogs)
}
