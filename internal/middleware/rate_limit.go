package middleware

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"uniship/internal/logger"
	"uniship/internal/models"
	"uniship/internal/services"
)

// ClientIP извлекает IP адрес клиента из запроса
func ClientIP(r *http.Request) string {
	// Проверяем X-Forwarded-For (если за proxy)
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}

	// Убираем порт (формат "192.168.1.1:54321")
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return strings.Trim(ip, "[]")
}

// IsVIP сообщает, применяется ли к запросу повышенный лимит
func IsVIP(r *http.Request) bool {
	user, ok := UserFromContext(r.Context())
	return ok && user.Role == models.RoleAdmin
}

// RateLimitMiddleware ограничивает частоту запросов по IP, администраторы получают VIP лимит
func RateLimitMiddleware(rateLimiter *services.RateLimiterService, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)

			result, err := rateLimiter.CheckLimit(r.Context(), ip, IsVIP(r))
			if err != nil {
				log.WithError(err).WithField("ip", ip).Error("Ошибка проверки rate limit")
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
			if !result.ResetAt.IsZero() {
				w.Header().Set("X-RateLimit-Reset", result.ResetAt.Format(time.RFC3339))
			}

			if !result.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)

				response := map[string]interface{}{
					"error":       "rate_limit_exceeded",
					"message":     "Too many requests, please try again later",
					"limit":       result.Limit,
					"retry_after": result.RetryAfter,
				}
				if !result.BannedUntil.IsZero() {
					response["banned_until"] = result.BannedUntil.Format(time.RFC3339)
				}

				log.WithFields(map[string]interface{}{
					"ip":          ip,
					"path":        r.URL.Path,
					"retry_after": result.RetryAfter,
				}).Warn("Запрос заблокирован rate limiter")

				json.NewEncoder(w).Encode(response)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
