package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"lendflow/pkg/factory"
	"lendflow/pkg/logger"
)

type HealthHandler struct {
	factory factory.Factory
	logger  logger.Logger
}

type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Services  map[string]interface{} `json:"services"`
	Version   string                 `json:"version"`
}

func NewHealthHandler(factory factory.Factory, logger logger.Logger) *HealthHandler {
	return &HealthHandler{
		factory: factory,
		logger:  logger,
	}
}

func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	services := make(map[string]interface{})

	services["database"] = h.checkDatabaseHealth()

	if cm := h.factory.GetConnectionManager(); cm != nil {
		services["connection_manager"] = cm.GetStats()
	}

	if h.factory.GetCache() != nil {
		services["redis"] = h.checkCacheHealth(r)
	}

	services["audit"] = h.factory.GetAuditLogService().Stats()

	status := "healthy"
	for _, service := range services {
		if serviceMap, ok := service.(map[string]interface{}); ok {
			if serviceStatus, exists := serviceMap["status"]; exists {
				if serviceStatus != "healthy" {
					status = "degraded"
					break
				}
			}
		}
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now(),
		Services:  services,
		Version:   "1.0.0",
	}

	w.Header().Set("Content-Type", "application/json")
	if status == "healthy" {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	json.NewEncoder(w).Encode(response)
}

func (h *HealthHandler) checkDatabaseHealth() map[string]interface{} {
	db := h.factory.GetDB()
	if db == nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  "database connection is nil",
		}
	}

	if err := db.Ping(); err != nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	}

	stats := db.Stats()
	return map[string]interface{}{
		"status":           "healthy",
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
		"wait_duration":    stats.WaitDuration.String(),
	}
}

// checkCacheHealth verifies a full set/get round-trip through the
// cache, not just connectivity.
func (h *HealthHandler) checkCacheHealth(r *http.Request) map[string]interface{} {
	ctx := r.Context()
	c := h.factory.GetCache()

	key := fmt.Sprintf("health:%d", time.Now().UnixNano())
	start := time.Now()

	if err := c.Set(ctx, key, "pong", time.Minute); err != nil {
		return map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		}
	}

	var value string
	if err := c.Get(ctx, key, &value); err != nil || value != "pong" {
		result := map[string]interface{}{
			"status": "unhealthy",
			"error":  "cache okuma doğrulanamadı",
		}
		if err != nil {
			result["error"] = err.Error()
		}
		return result
	}

	roundTrip := time.Since(start)
	if err := c.Delete(ctx, key); err != nil {
		h.logger.Warn("Health anahtarı silinemedi", map[string]interface{}{"key": key, "error": err.Error()})
	}

	result := map[string]interface{}{
		"status":     "healthy",
		"round_trip": roundTrip.String(),
	}

	if client := h.factory.GetRedisClient(); client != nil {
		poolStats := client.PoolStats()
		result["hits"] = poolStats.Hits
		result["misses"] = poolStats.Misses
		result["total_conns"] = poolStats.TotalConns
		result["idle_conns"] = poolStats.IdleConns
	}

	return result
}

func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "alive",
		"timestamp": time.Now(),
	})
}

func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	ready := true
	issues := make([]string, 0)

	if db := h.factory.GetDB(); db != nil {
		if err := db.Ping(); err != nil {
			ready = false
			issues = append(issues, "database: "+err.Error())
		}
	} else {
		ready = false
		issues = append(issues, "database: connection is nil")
	}

	if c := h.factory.GetCache(); c != nil {
		if err := c.Ping(r.Context()); err != nil {
			ready = false
			issues = append(issues, "redis: "+err.Error())
		}
	}

	response := map[string]interface{}{
		"timestamp": time.Now(),
	}

	if ready {
		response["status"] = "ready"
		writeJSON(w, http.StatusOK, response)
		return
	}

	response["status"] = "not_ready"
	response["issues"] = issues
	writeJSON(w, http.StatusServiceUnavailable, response)
}

func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /health/live", h.LivenessCheck)
	mux.HandleFunc("GET /health/ready", h.ReadinessCheck)
}
