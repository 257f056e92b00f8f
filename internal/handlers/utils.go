package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"uniship/internal/lifecycle"
	"uniship/internal/logger"
	"uniship/internal/middleware"
	"uniship/internal/models"
	"uniship/internal/services"
	"uniship/internal/uniapi"
	"uniship/internal/wizard"
)

const maxBodyBytes = 1 << 20

// ErrorResponse представляет структуру ответа с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ValidationResponse представляет ответ с ошибками полей формы
type ValidationResponse struct {
	Error   string        `json:"error"`
	Message string        `json:"message"`
	Errors  wizard.Errors `json:"errors"`
}

// writeJSONResponse отправляет JSON ответ
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// writeErrorResponse отправляет ответ с ошибкой
func writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	writeJSONResponse(w, statusCode, response)
}

// writeServiceError переводит ошибку сервиса в HTTP ответ
func writeServiceError(w http.ResponseWriter, log *logger.Logger, err error, fallback string) {
	var verr *wizard.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSONResponse(w, http.StatusUnprocessableEntity, ValidationResponse{
			Error:   http.StatusText(http.StatusUnprocessableEntity),
			Message: "Please fix the highlighted fields",
			Errors:  verr.Errors,
		})
	case errors.Is(err, services.ErrShipmentNotFound):
		writeErrorResponse(w, http.StatusNotFound, "Shipment not found")
	case errors.Is(err, services.ErrForbidden):
		writeErrorResponse(w, http.StatusForbidden, "You are not allowed to perform this action")
	case errors.Is(err, services.ErrConflict):
		writeErrorResponse(w, http.StatusConflict, "Shipment was modified by another request, reload and retry")
	case errors.Is(err, lifecycle.ErrInvalidTransition), errors.Is(err, services.ErrNotEditable):
		writeErrorResponse(w, http.StatusConflict, err.Error())
	case errors.Is(err, models.ErrUnknownStatus),
		errors.Is(err, models.ErrUnknownServiceTier),
		errors.Is(err, services.ErrInvalidCourier),
		errors.Is(err, services.ErrUnknownTheme):
		writeErrorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, uniapi.ErrUnauthorized), errors.Is(err, services.ErrSessionNotFound):
		writeErrorResponse(w, http.StatusUnauthorized, "Invalid credentials or expired session")
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeErrorResponse(w, http.StatusServiceUnavailable, "Request cancelled")
	default:
		log.WithError(err).Error(fallback)
		writeErrorResponse(w, http.StatusInternalServerError, fallback)
	}
}

// decodeJSON читает тело запроса в dest
func decodeJSON(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dest); err != nil && !errors.Is(err, io.EOF) {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// requireUser возвращает пользователя сессии или отвечает 401
func requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeErrorResponse(w, http.StatusUnauthorized, "Sign in required")
		return nil, false
	}
	return user, true
}

// queryInt разбирает неотрицательный целочисленный параметр запроса
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return v, nil
}
