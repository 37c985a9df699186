package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"lendflow/pkg/cache"
	"lendflow/pkg/logger"
)

// CacheHandler exposes the cache admin surface: key inspection,
// targeted invalidation and manual warm-up.
type CacheHandler struct {
	cache         cache.Cache
	warmUpManager *cache.WarmUpManager
	logger        logger.Logger
}

type cacheStatsResponse struct {
	CacheType string         `json:"cache_type"`
	TotalKeys int            `json:"total_keys"`
	KeyCounts map[string]int `json:"key_counts"`
	Timestamp time.Time      `json:"timestamp"`
}

type cacheInvalidateRequest struct {
	Pattern *string  `json:"pattern,omitempty"`
	Keys    []string `json:"keys,omitempty"`
	UserID  *int64   `json:"user_id,omitempty"`
	BookID  *int64   `json:"book_id,omitempty"`
}

type cacheWarmUpRequest struct {
	Type string `json:"type"`
}

func NewCacheHandler(cacheInstance cache.Cache, warmUpManager *cache.WarmUpManager, logger logger.Logger) *CacheHandler {
	return &CacheHandler{
		cache:         cacheInstance,
		warmUpManager: warmUpManager,
		logger:        logger,
	}
}

func (h *CacheHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	keys, err := h.cache.GetKeys(r.Context(), "*")
	if err != nil {
		h.logger.Error("Cache anahtarları alınamadı", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "cache istatistikleri alınamadı")
		return
	}

	writeJSON(w, http.StatusOK, cacheStatsResponse{
		CacheType: "Redis",
		TotalKeys: len(keys),
		KeyCounts: map[string]int{
			"book": countKeysByPrefix(keys, cache.BookPrefix+":"),
			"user": countKeysByPrefix(keys, cache.UserPrefix+":"),
		},
		Timestamp: time.Now(),
	})
}

func (h *CacheHandler) GetKeys(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		pattern = "*"
	}

	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	keys, err := h.cache.GetKeys(r.Context(), pattern)
	if err != nil {
		h.logger.Error("Cache anahtarları alınamadı", map[string]interface{}{
			"pattern": pattern,
			"error":   err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "cache anahtarları alınamadı")
		return
	}

	if len(keys) > limit {
		keys = keys[:limit]
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"keys":    keys,
		"count":   len(keys),
		"pattern": pattern,
	})
}

func (h *CacheHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	var req cacheInvalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "geçersiz istek gövdesi")
		return
	}

	ctx := r.Context()
	var err error

	switch {
	case req.Pattern != nil:
		err = h.cache.DeletePattern(ctx, *req.Pattern)
	case len(req.Keys) > 0:
		err = h.cache.DeleteMultiple(ctx, req.Keys)
	case req.UserID != nil:
		err = cache.InvalidateUserCache(ctx, h.cache, *req.UserID)
	case req.BookID != nil:
		err = cache.InvalidateBookCache(ctx, h.cache, *req.BookID)
	default:
		writeError(w, http.StatusBadRequest, "pattern, keys, user_id veya book_id verilmeli")
		return
	}

	if err != nil {
		h.logger.Error("Cache temizlenemedi", map[string]interface{}{"error": err.Error()})
		writeError(w, http.StatusInternalServerError, "cache temizlenemedi")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"timestamp": time.Now(),
	})
}

func (h *CacheHandler) WarmUp(w http.ResponseWriter, r *http.Request) {
	var req cacheWarmUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "geçersiz istek gövdesi")
		return
	}

	ctx := r.Context()
	var err error

	switch req.Type {
	case "catalog":
		err = h.warmUpManager.WarmUpCatalog(ctx)
	case "users":
		err = h.warmUpManager.WarmUpUserList(ctx)
	default:
		writeError(w, http.StatusBadRequest, "geçersiz warm-up tipi: catalog veya users kullanın")
		return
	}

	if err != nil {
		h.logger.Error("Warm-up başarısız", map[string]interface{}{
			"type":  req.Type,
			"error": err.Error(),
		})
		writeError(w, http.StatusInternalServerError, "warm-up başarısız")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "success",
		"type":      req.Type,
		"timestamp": time.Now(),
	})
}

func (h *CacheHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /cache/stats", h.GetStats)
	mux.HandleFunc("GET /cache/keys", h.GetKeys)
	mux.HandleFunc("POST /cache/invalidate", h.Invalidate)
	mux.HandleFunc("POST /cache/warmup", h.WarmUp)
}

func countKeysByPrefix(keys []string, prefix string) int {
	count := 0
	for _, key := range keys {
		if strings.HasPrefix(key, prefix) {
			count++
		}
	}
	return count
}
