package handlers

import (
	"errors"
	"net/http"
	"strings"

	"uniship/internal/lifecycle"
	"uniship/internal/logger"
	"uniship/internal/middleware"
	"uniship/internal/models"
	"uniship/internal/services"
	"uniship/internal/uniapi"
)

// AccountHandler обслуживает вход, регистрацию и настройки аккаунта через внешний API
type AccountHandler struct {
	upstream *uniapi.Client
	sessions *services.SessionService
	log      *logger.Logger
}

// NewAccountHandler создает новый обработчик аккаунта
func NewAccountHandler(upstream *uniapi.Client, sessions *services.SessionService, log *logger.Logger) *AccountHandler {
	return &AccountHandler{
		upstream: upstream,
		sessions: sessions,
		log:      log,
	}
}

// SignInRequest представляет запрос входа
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SessionResponse представляет открытую сессию
type SessionResponse struct {
	Token string         `json:"token"`
	User  *models.User   `json:"user"`
	Theme services.Theme `json:"theme"`
}

// ChangePasswordRequest представляет запрос смены пароля
type ChangePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// DeleteAccountRequest подтверждает удаление аккаунта паролем
type DeleteAccountRequest struct {
	Password string `json:"password"`
}

// ThemeRequest представляет выбор темы
type ThemeRequest struct {
	Theme string `json:"theme"`
}

// ThemeResponse представляет текущую тему пользователя
type ThemeResponse struct {
	Theme     services.Theme   `json:"theme"`
	ClassName string           `json:"className"`
	Available []services.Theme `json:"available"`
}

func newThemeResponse(t services.Theme) ThemeResponse {
	return ThemeResponse{Theme: t, ClassName: t.ClassName(), Available: services.Themes}
}

// upstreamError переводит ошибку внешнего API в ответ
func (h *AccountHandler) upstreamError(w http.ResponseWriter, err error, fallback string) {
	var statusErr *uniapi.StatusError
	if errors.As(err, &statusErr) && statusErr.Code >= 400 && statusErr.Code < 500 {
		writeErrorResponse(w, statusErr.Code, fallback)
		return
	}
	if errors.Is(err, uniapi.ErrUnauthorized) {
		writeServiceError(w, h.log, err, fallback)
		return
	}
	h.log.WithError(err).Error(fallback)
	writeErrorResponse(w, http.StatusBadGateway, fallback)
}

// SignIn выполняет вход через внешний API и открывает сессию
func (h *AccountHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Email and password are required")
		return
	}

	result, err := h.upstream.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.upstreamError(w, err, "Sign in failed")
		return
	}

	session, err := h.sessions.Save(r.Context(), result.Token, result.User)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to store session")
		return
	}

	theme, err := h.sessions.Theme(r.Context(), session.User.ID)
	if err != nil {
		h.log.WithError(err).Warn("Failed to load theme, using default")
		theme = services.DefaultTheme
	}

	h.log.WithFields(map[string]interface{}{
		"user_id": session.User.ID,
		"role":    session.User.Role,
	}).Info("User signed in")

	writeJSONResponse(w, http.StatusOK, SessionResponse{
		Token: session.Token,
		User:  session.User,
		Theme: theme,
	})
}

// SignOut закрывает текущую сессию
func (h *AccountHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	if err := h.sessions.Delete(r.Context(), middleware.TokenFromContext(r.Context())); err != nil {
		writeServiceError(w, h.log, err, "Failed to sign out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SignUp регистрирует пользователя во внешнем API
func (h *AccountHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req uniapi.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	if err := h.upstream.SignUp(r.Context(), req); err != nil {
		h.upstreamError(w, err, "Sign up failed")
		return
	}

	writeJSONResponse(w, http.StatusCreated, map[string]string{"status": "registered"})
}

// ChangePassword меняет пароль текущего пользователя
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.NewPassword == "" {
		writeErrorResponse(w, http.StatusBadRequest, "New password is required")
		return
	}

	if err := h.upstream.ChangePassword(r.Context(), middleware.TokenFromContext(r.Context()), req.NewPassword); err != nil {
		h.upstreamError(w, err, "Failed to change password")
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]string{"status": "password changed"})
}

// DeleteAccount удаляет аккаунт во внешнем API и закрывает сессию
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req DeleteAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Password == "" {
		writeErrorResponse(w, http.StatusBadRequest, "Password is required")
		return
	}

	token := middleware.TokenFromContext(r.Context())
	if err := h.upstream.DeleteAccount(r.Context(), token, req.Password); err != nil {
		h.upstreamError(w, err, "Failed to delete account")
		return
	}

	if err := h.sessions.Delete(r.Context(), token); err != nil {
		h.log.WithError(err).Warn("Failed to drop session of deleted account")
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetProfile возвращает профиль текущего пользователя
func (h *AccountHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, user)
}

// UpdateProfile сохраняет изменения профиля в сессии
func (h *AccountHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	var req services.ProfileUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.sessions.UpdateProfile(r.Context(), middleware.TokenFromContext(r.Context()), req)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to update profile")
		return
	}

	h.log.WithField("user_id", session.User.ID).Info("Profile updated")
	writeJSONResponse(w, http.StatusOK, session.User)
}

// GetTheme возвращает тему текущего пользователя
func (h *AccountHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	theme, err := h.sessions.Theme(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to load theme")
		return
	}

	writeJSONResponse(w, http.StatusOK, newThemeResponse(theme))
}

// SetTheme сохраняет тему текущего пользователя
func (h *AccountHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ThemeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	theme, err := h.sessions.SetTheme(r.Context(), user.ID, req.Theme)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to save theme")
		return
	}

	writeJSONResponse(w, http.StatusOK, newThemeResponse(theme))
}

// MyShipments возвращает отправления пользователя из внешнего API.
// Недоступный API дает пустой список, отозванный токен дает 401.
func (h *AccountHandler) MyShipments(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}

	list, err := h.upstream.GetShipments(r.Context(), middleware.TokenFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, uniapi.ErrUnauthorized) {
			writeServiceError(w, h.log, err, "Failed to load shipments")
			return
		}
		h.log.WithError(err).Warn("Upstream shipments unavailable, returning empty list")
		list = nil
	}

	query := r.URL.Query()
	if raw := strings.TrimSpace(query.Get("status")); raw != "" && raw != "all" {
		status, err := models.ParseStatus(raw)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid status parameter")
			return
		}
		list = lifecycle.FilterByStatus(list, status)
	}
	list = lifecycle.Search(list, query.Get("q"))

	views := lifecycle.Views(list)
	writeJSONResponse(w, http.StatusOK, ShipmentListResponse{
		Shipments: views,
		Total:     len(views),
	})
}
