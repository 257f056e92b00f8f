package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"uniship/internal/models"
)

// MemoryRepository хранит отправления в памяти процесса
type MemoryRepository struct {
	mu         sync.RWMutex
	shipments  map[string]*models.Shipment
	byTracking map[string]string
}

// NewMemoryRepository создает пустое хранилище в памяти
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		shipments:  make(map[string]*models.Shipment),
		byTracking: make(map[string]string),
	}
}

// Create сохраняет новое отправление
func (r *MemoryRepository) Create(ctx context.Context, s *models.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.shipments[s.ID]; ok {
		return fmt.Errorf("%w: id %s", ErrDuplicate, s.ID)
	}
	if _, ok := r.byTracking[s.TrackingNumber]; ok {
		return fmt.Errorf("%w: tracking number %s", ErrDuplicate, s.TrackingNumber)
	}

	r.shipments[s.ID] = s.Clone()
	r.byTracking[s.TrackingNumber] = s.ID
	return nil
}

// Get возвращает копию отправления по ID
func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.shipments[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

// GetByTrackingNumber возвращает копию отправления по номеру отслеживания
func (r *MemoryRepository) GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byTracking[trackingNumber]
	if !ok {
		return nil, ErrNotFound
	}
	return r.shipments[id].Clone(), nil
}

// List возвращает копии всех отправлений, новые первыми
func (r *MemoryRepository) List(ctx context.Context) ([]*models.Shipment, error) {
	r.mu.RLock()
	list := make([]*models.Shipment, 0, len(r.shipments))
	for _, s := range r.shipments {
		list = append(list, s.Clone())
	}
	r.mu.RUnlock()

	sortNewestFirst(list)
	return list, nil
}

// Update сохраняет изменения отправления с проверкой версии
func (r *MemoryRepository) Update(ctx context.Context, s *models.Shipment, prevUpdatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.shipments[s.ID]
	if !ok {
		return ErrNotFound
	}
	if !stored.UpdatedAt.Equal(prevUpdatedAt) {
		return fmt.Errorf("%w: %s", ErrConflict, s.ID)
	}
	if err := checkVersion(s, prevUpdatedAt); err != nil {
		return err
	}

	updated := s.Clone()
	updated.ID = stored.ID
	updated.TrackingNumber = stored.TrackingNumber
	updated.CreatedAt = stored.CreatedAt
	updated.TrackingHistory = appendNewEvents(stored.TrackingHistory, s.TrackingHistory)

	r.shipments[s.ID] = updated
	return nil
}

// appendNewEvents дополняет сохраненную историю записями с большими номерами
func appendNewEvents(stored, incoming []models.TrackingEvent) []models.TrackingEvent {
	history := append([]models.TrackingEvent(nil), stored...)
	maxSeq := 0
	for _, e := range stored {
		if e.Seq > maxSeq {
			maxSeq = e.Seq
		}
	}
	for _, e := range incoming {
		if e.Seq > maxSeq {
			history = append(history, e)
			maxSeq = e.Seq
		}
	}
	return history
}

func sortNewestFirst(list []*models.Shipment) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
}
