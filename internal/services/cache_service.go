package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"uniship/internal/config"
	"uniship/internal/logger"
	"uniship/internal/models"
	"uniship/internal/redis"
)

// CacheService управляет кешированием данных
type CacheService struct {
	redis     *redis.Client
	config    *config.CacheConfig
	logger    *logger.Logger
	hits      atomic.Uint64 // Количество попаданий в кеш
	misses    atomic.Uint64 // Количество промахов
	evictions atomic.Uint64 // Количество инвалидаций
}

// CacheMetrics представляет метрики кеширования
type CacheMetrics struct {
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Evictions uint64  `json:"evictions"`
	TotalReqs uint64  `json:"total_requests"`
	HitRate   float64 `json:"hit_rate"`
	CacheSize int64   `json:"cache_size"`
}

// NewCacheService создает новый сервис кеширования
func NewCacheService(redis *redis.Client, cfg *config.CacheConfig, log *logger.Logger) *CacheService {
	return &CacheService{
		redis:  redis,
		config: cfg,
		logger: log,
	}
}

// Get получает данные из кеша и десериализует в target
func (s *CacheService) Get(ctx context.Context, key string, target interface{}) (bool, error) {
	if !s.config.Enabled {
		s.misses.Add(1)
		return false, nil
	}

	err := s.redis.Get(ctx, key, target)
	if err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			s.misses.Add(1)
			return false, nil
		}
		s.logger.WithError(err).WithField("key", key).Error("Failed to get from cache")
		return false, err
	}

	s.hits.Add(1)
	return true, nil
}

// Set сохраняет данные в кеш с TTL
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !s.config.Enabled {
		return nil
	}

	if err := s.redis.Set(ctx, key, value, ttl); err != nil {
		s.logger.WithError(err).WithField("key", key).Error("Failed to set cache")
		return err
	}

	return nil
}

// Delete удаляет ключи из кеша (инвалидация)
func (s *CacheService) Delete(ctx context.Context, keys ...string) error {
	if !s.config.Enabled || len(keys) == 0 {
		return nil
	}

	if err := s.redis.Delete(ctx, keys...); err != nil {
		s.logger.WithError(err).WithField("keys", keys).Error("Failed to delete from cache")
		return err
	}

	s.evictions.Add(uint64(len(keys)))
	return nil
}

// GetShipment возвращает отправление из кеша
func (s *CacheService) GetShipment(ctx context.Context, id string) (*models.Shipment, bool) {
	var shipment models.Shipment
	found, err := s.Get(ctx, BuildKey(redis.KeyPrefixShipment, id), &shipment)
	if err != nil || !found {
		return nil, false
	}
	return &shipment, true
}

// SetShipment кладет отправление в кеш
func (s *CacheService) SetShipment(ctx context.Context, shipment *models.Shipment) error {
	return s.Set(ctx, BuildKey(redis.KeyPrefixShipment, shipment.ID), shipment, s.GetDefaultTTL())
}

// InvalidateShipment удаляет отправление из кеша
func (s *CacheService) InvalidateShipment(ctx context.Context, id string) error {
	return s.Delete(ctx, BuildKey(redis.KeyPrefixShipment, id))
}

// GetMetrics возвращает метрики кеширования
func (s *CacheService) GetMetrics(ctx context.Context) (*CacheMetrics, error) {
	hits := s.hits.Load()
	misses := s.misses.Load()
	evictions := s.evictions.Load()
	totalReqs := hits + misses

	var hitRate float64
	if totalReqs > 0 {
		hitRate = float64(hits) / float64(totalReqs) * 100
	}

	// Размер кеша (количество ключей)
	cacheSize, err := s.redis.GetClient().DBSize(ctx).Result()
	if err != nil {
		s.logger.WithError(err).Error("Failed to get cache size")
		cacheSize = 0
	}

	return &CacheMetrics{
		Hits:      hits,
		Misses:    misses,
		Evictions: evictions,
		TotalReqs: totalReqs,
		HitRate:   hitRate,
		CacheSize: cacheSize,
	}, nil
}

// GetDefaultTTL возвращает TTL по умолчанию
func (s *CacheService) GetDefaultTTL() time.Duration {
	return time.Duration(s.config.DefaultTTL) * time.Second
}

// GetHotDataTTL возвращает TTL для горячих данных
func (s *CacheService) GetHotDataTTL() time.Duration {
	return time.Duration(s.config.HotDataTTL) * time.Second
}

// BuildKey создает ключ для кеша с префиксом
func BuildKey(prefix string, id string) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}

// WarmupShipments прогревает кеш отправлениями при старте приложения
func (s *CacheService) WarmupShipments(ctx context.Context, shipments []*models.Shipment) {
	if !s.config.Enabled {
		s.logger.Info("Cache warming skipped (cache disabled)")
		return
	}

	s.logger.Info("Starting cache warming...")
	successCount := 0

	for _, shipment := range shipments {
		key := BuildKey(redis.KeyPrefixShipment, shipment.ID)
		if err := s.Set(ctx, key, shipment, s.GetHotDataTTL()); err != nil {
			continue
		}
		successCount++
	}

	s.logger.WithFields(map[string]interface{}{
		"success": successCount,
		"total":   len(shipments),
	}).Info("Cache warming completed")
}
