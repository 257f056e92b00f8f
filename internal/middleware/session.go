// Package middleware содержит HTTP middleware: сессии, rate limiting и журнал запросов.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"uniship/internal/logger"
	"uniship/internal/models"
	"uniship/internal/services"
	"uniship/internal/uniapi"
)

type contextKey int

const (
	userKey contextKey = iota
	tokenKey
)

// SessionStore находит сессию по токену
type SessionStore interface {
	Get(ctx context.Context, token string) (*services.Session, error)
}

// WithUser кладет пользователя и токен сессии в контекст
func WithUser(ctx context.Context, user *models.User, token string) context.Context {
	ctx = context.WithValue(ctx, userKey, user)
	return context.WithValue(ctx, tokenKey, token)
}

// UserFromContext возвращает пользователя текущей сессии
func UserFromContext(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userKey).(*models.User)
	return user, ok && user != nil
}

// TokenFromContext возвращает токен текущей сессии
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// Session подставляет пользователя по заголовку token.
// Запрос без сессии проходит анонимно, обработчики сами требуют авторизацию.
func Session(store SessionStore, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimSpace(r.Header.Get(uniapi.TokenHeader))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			session, err := store.Get(r.Context(), token)
			if err != nil {
				if !errors.Is(err, services.ErrSessionNotFound) {
					log.WithError(err).Error("Failed to load session")
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), session.User, token)))
		})
	}
}
