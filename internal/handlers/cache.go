package handlers

import (
	"net/http"

	"uniship/internal/logger"
	"uniship/internal/models"
	"uniship/internal/services"
)

// CacheHandler представляет обработчик для кеша отправлений
type CacheHandler struct {
	cacheService *services.CacheService
	log          *logger.Logger
}

// NewCacheHandler создает новый обработчик кеша
func NewCacheHandler(cacheService *services.CacheService, log *logger.Logger) *CacheHandler {
	return &CacheHandler{
		cacheService: cacheService,
		log:          log,
	}
}

// GetMetrics возвращает метрики кеширования, доступно только администратору
func (h *CacheHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	if user.Role != models.RoleAdmin {
		writeErrorResponse(w, http.StatusForbidden, "Admin role required")
		return
	}

	metrics, err := h.cacheService.GetMetrics(r.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to get cache metrics")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to get cache metrics")
		return
	}

	writeJSONResponse(w, http.StatusOK, metrics)
}

// InvalidateShipment удаляет отправление из кеша
func (h *CacheHandler) InvalidateShipment(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	if user.Role != models.RoleAdmin {
		writeErrorResponse(w, http.StatusForbidden, "Admin role required")
		return
	}

	if err := h.cacheService.InvalidateShipment(r.Context(), r.PathValue("id")); err != nil {
		h.log.WithError(err).Error("Failed to invalidate shipment cache")
		writeErrorResponse(w, http.StatusInternalServerError, "Failed to invalidate cache")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
