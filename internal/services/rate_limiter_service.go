package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"uniship/internal/config"
	"uniship/internal/logger"
	"uniship/internal/redis"
)

// Lua скрипт для атомарной проверки и инкремента счетчика
const rateLimitLuaScript = `
local key = KEYS[1]
local limit = tonumber(ARGV[1])
local ttl = tonumber(ARGV[2])

local current = redis.call('INCR', key)
if current == 1 then
    redis.call('EXPIRE', key, ttl)
end

if current > limit then
    return {0, current, limit}
end

return {1, current, limit}
`

const rateLimitWindowSeconds = 60

// RateLimiterService управляет rate limiting с использованием Redis
type RateLimiterService struct {
	redis  *redis.Client
	config *config.RateLimitConfig
	log    *logger.Logger
}

// RateLimitResult содержит результат проверки rate limit
type RateLimitResult struct {
	Allowed     bool      `json:"allowed"`
	Remaining   int       `json:"remaining"`
	Limit       int       `json:"limit"`
	ResetAt     time.Time `json:"reset_at,omitempty"`
	BannedUntil time.Time `json:"banned_until,omitempty"`
	RetryAfter  int       `json:"retry_after,omitempty"`
}

// NewRateLimiterService создает сервис ограничения частоты запросов
func NewRateLimiterService(redis *redis.Client, cfg *config.RateLimitConfig, log *logger.Logger) *RateLimiterService {
	return &RateLimiterService{
		redis:  redis,
		config: cfg,
		log:    log,
	}
}

func counterKey(ip string) string {
	return fmt.Sprintf("rate_limit:ip:%s", ip)
}

func banKey(ip string) string {
	return fmt.Sprintf("rate_limit:ban:%s", ip)
}

func unlimited() *RateLimitResult {
	return &RateLimitResult{
		Allowed:   true,
		Remaining: math.MaxInt,
		Limit:     math.MaxInt,
	}
}

func (s *RateLimiterService) limitFor(isVIP bool) int {
	if isVIP {
		return s.config.VIPRPM
	}
	return s.config.DefaultRPM
}

// banned проверяет, забанен ли адрес
func (s *RateLimiterService) banned(ctx context.Context, ip string, limit int) (*RateLimitResult, bool) {
	client := s.redis.GetClient()

	value, err := client.Get(ctx, banKey(ip)).Result()
	if err != nil || value == "" {
		return nil, false
	}

	ttl, _ := client.TTL(ctx, banKey(ip)).Result()
	return &RateLimitResult{
		Allowed:     false,
		Remaining:   0,
		Limit:       limit,
		BannedUntil: time.Now().Add(ttl),
		RetryAfter:  int(ttl.Seconds()),
	}, true
}

// CheckLimit учитывает запрос и проверяет лимит для IP
func (s *RateLimiterService) CheckLimit(ctx context.Context, ip string, isVIP bool) (*RateLimitResult, error) {
	if !s.config.Enabled {
		return unlimited(), nil
	}

	limit := s.limitFor(isVIP)
	if result, ok := s.banned(ctx, ip, limit); ok {
		return result, nil
	}

	client := s.redis.GetClient()
	key := counterKey(ip)

	result, err := client.Eval(ctx, rateLimitLuaScript, []string{key}, limit, rateLimitWindowSeconds).Result()
	if err != nil {
		s.log.WithError(err).WithField("ip", ip).Error("Ошибка выполнения Lua скрипта")
		// При ошибке пропускаем запрос (fail-open)
		return &RateLimitResult{Allowed: true, Remaining: limit, Limit: limit}, nil
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 3 {
		s.log.WithFields(map[string]interface{}{
			"ip":     ip,
			"result": result,
		}).Error("Некорректный результат Lua скрипта")
		return &RateLimitResult{Allowed: true, Remaining: limit, Limit: limit}, nil
	}

	allowed, _ := values[0].(int64)
	current, _ := values[1].(int64)

	if allowed != 1 {
		banDuration := time.Duration(s.config.BanDuration) * time.Second
		if err := client.Set(ctx, banKey(ip), "1", banDuration).Err(); err != nil {
			s.log.WithError(err).WithField("ip", ip).Error("Failed to store rate limit ban")
		}

		s.log.WithFields(map[string]interface{}{
			"ip":           ip,
			"count":        current,
			"limit":        limit,
			"ban_duration": s.config.BanDuration,
		}).Warn("Пользователь превысил rate limit и забанен")

		return &RateLimitResult{
			Allowed:     false,
			Remaining:   0,
			Limit:       limit,
			BannedUntil: time.Now().Add(banDuration),
			RetryAfter:  s.config.BanDuration,
		}, nil
	}

	ttl, _ := client.TTL(ctx, key).Result()

	return &RateLimitResult{
		Allowed:   true,
		Remaining: limit - int(current),
		Limit:     limit,
		ResetAt:   time.Now().Add(ttl),
	}, nil
}

// ResetLimit сбрасывает счетчик и бан для IP
func (s *RateLimiterService) ResetLimit(ctx context.Context, ip string) error {
	if err := s.redis.Delete(ctx, counterKey(ip), banKey(ip)); err != nil {
		s.log.WithError(err).WithField("ip", ip).Error("Ошибка сброса rate limit в Redis")
		return err
	}

	s.log.WithField("ip", ip).Info("Rate limit сброшен")
	return nil
}

// GetStatus возвращает текущий статус rate limit без изменения счетчика
func (s *RateLimiterService) GetStatus(ctx context.Context, ip string, isVIP bool) (*RateLimitResult, error) {
	if !s.config.Enabled {
		return unlimited(), nil
	}

	limit := s.limitFor(isVIP)
	if result, ok := s.banned(ctx, ip, limit); ok {
		return result, nil
	}

	client := s.redis.GetClient()
	key := counterKey(ip)

	count, err := client.Get(ctx, key).Int()
	if err != nil {
		// Ключа нет - запросов еще не было
		count = 0
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	ttl, _ := client.TTL(ctx, key).Result()
	resetAt := time.Now().Add(ttl)
	if ttl < 0 {
		resetAt = time.Time{}
	}

	return &RateLimitResult{
		Allowed:   count < limit,
		Remaining: remaining,
		Limit:     limit,
		ResetAt:   resetAt,
	}, nil
}
