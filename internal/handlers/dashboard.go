package handlers

import (
	"net/http"

	"uniship/internal/logger"
	"uniship/internal/services"
)

// DashboardHandler представляет обработчик сводки по ролям
type DashboardHandler struct {
	dashboard *services.DashboardService
	log       *logger.Logger
}

// NewDashboardHandler создает новый обработчик сводки
func NewDashboardHandler(dashboard *services.DashboardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		dashboard: dashboard,
		log:       log,
	}
}

// GetDashboard возвращает сводку для роли текущего пользователя
func (h *DashboardHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	summary, err := h.dashboard.Summary(r.Context(), user)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to build dashboard")
		return
	}

	writeJSONResponse(w, http.StatusOK, summary)
}
