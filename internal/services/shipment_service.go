package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"uniship/internal/config"
	"uniship/internal/lifecycle"
	"uniship/internal/logger"
	"uniship/internal/models"
	"uniship/internal/repository"
	"uniship/internal/wizard"
)

var (
	// ErrShipmentNotFound возвращается, если отправление не найдено или недоступно пользователю
	ErrShipmentNotFound = errors.New("shipment not found")
	// ErrForbidden возвращается, если роль пользователя не позволяет операцию
	ErrForbidden = errors.New("operation not allowed for this user")
	// ErrConflict возвращается, если отправление изменено параллельно
	ErrConflict = errors.New("shipment was modified concurrently")
	// ErrNotEditable возвращается при изменении отправления в недопустимом статусе
	ErrNotEditable = errors.New("shipment can no longer be changed")
	// ErrInvalidCourier возвращается для курьера без идентификатора
	ErrInvalidCourier = errors.New("courier id is required")
)

const createAttempts = 3

// EventPublisher публикует события отправлений
type EventPublisher interface {
	PublishShipmentCreated(ctx context.Context, s *models.Shipment) error
	PublishStatusChanged(ctx context.Context, s *models.Shipment, oldStatus models.Status) error
	PublishCourierAssigned(ctx context.Context, s *models.Shipment) error
	PublishShipmentUpdated(ctx context.Context, s *models.Shipment) error
}

// ShipmentCache кеширует отправления по идентификатору
type ShipmentCache interface {
	GetShipment(ctx context.Context, id string) (*models.Shipment, bool)
	SetShipment(ctx context.Context, s *models.Shipment) error
	InvalidateShipment(ctx context.Context, id string) error
}

// ListFilter задает фильтрацию и пагинацию списка отправлений
type ListFilter struct {
	Status models.Status
	Query  string
	Limit  int
	Offset int
}

// ShipmentPage представляет страницу списка отправлений
type ShipmentPage struct {
	Items  []*models.Shipment
	Total  int
	Limit  int
	Offset int
}

// ShipmentService реализует операции над отправлениями
type ShipmentService struct {
	repo        repository.ShipmentRepository
	pricing     *DeliveryPricingService
	cache       ShipmentCache
	publisher   EventPublisher
	log         *logger.Logger
	createDelay time.Duration
	now         func() time.Time
}

// NewShipmentService создает сервис отправлений. cache и publisher могут быть nil.
func NewShipmentService(
	repo repository.ShipmentRepository,
	pricing *DeliveryPricingService,
	cache ShipmentCache,
	publisher EventPublisher,
	cfg *config.ShipmentsConfig,
	log *logger.Logger,
) *ShipmentService {
	var delay time.Duration
	if cfg != nil && cfg.CreateDelayMS > 0 {
		delay = time.Duration(cfg.CreateDelayMS) * time.Millisecond
	}

	return &ShipmentService{
		repo:        repo,
		pricing:     pricing,
		cache:       cache,
		publisher:   publisher,
		log:         log,
		createDelay: delay,
		now:         defaultClock,
	}
}

// defaultClock округляет время до микросекунд, как его хранит PostgreSQL
func defaultClock() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// stamp возвращает новую версию отправления строго позже prev
func (s *ShipmentService) stamp(prev time.Time) time.Time {
	now := s.now()
	if !now.After(prev) {
		now = prev.Add(time.Microsecond)
	}
	return now
}

// Create проверяет форму мастера и сохраняет новое отправление
func (s *ShipmentService) Create(ctx context.Context, form wizard.Form, user *models.User) (*models.Shipment, error) {
	if user == nil || user.Role == models.RoleDeliveryPartner {
		return nil, ErrForbidden
	}

	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	shipment, err := wizard.Build(form, s.pricing.Catalog(), s.now())
	if err != nil {
		return nil, err
	}

	for attempt := 1; ; attempt++ {
		err = s.repo.Create(ctx, shipment)
		if err == nil {
			break
		}
		if !errors.Is(err, repository.ErrDuplicate) || attempt >= createAttempts {
			return nil, fmt.Errorf("failed to create shipment: %w", err)
		}
		s.log.WithField("tracking_number", shipment.TrackingNumber).Warn("Tracking number collision, regenerating")
		shipment.TrackingNumber = lifecycle.NewTrackingNumber()
	}

	s.log.WithFields(map[string]interface{}{
		"shipment_id":     shipment.ID,
		"tracking_number": shipment.TrackingNumber,
		"service":         shipment.Service,
		"total_cost":      shipment.TotalCost,
		"user_id":         user.ID,
	}).Info("Shipment created successfully")

	s.remember(ctx, shipment)
	if s.publisher != nil {
		if err := s.publisher.PublishShipmentCreated(ctx, shipment); err != nil {
			s.log.WithError(err).WithField("shipment_id", shipment.ID).Error("Failed to publish shipment created event")
		}
	}

	return shipment, nil
}

// wait имитирует задержку внешнего API при создании
func (s *ShipmentService) wait(ctx context.Context) error {
	if s.createDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(s.createDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Get возвращает отправление по ID, если пользователь может его видеть
func (s *ShipmentService) Get(ctx context.Context, id string, user *models.User) (*models.Shipment, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetShipment(ctx, id); ok {
			if !lifecycle.CanView(cached, user) {
				return nil, ErrShipmentNotFound
			}
			return cached, nil
		}
	}

	shipment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanView(shipment, user) {
		return nil, ErrShipmentNotFound
	}

	s.remember(ctx, shipment)
	return shipment, nil
}

// Track находит отправление по номеру отслеживания
func (s *ShipmentService) Track(ctx context.Context, trackingNumber string, user *models.User) (*models.Shipment, error) {
	trackingNumber = strings.ToUpper(strings.TrimSpace(trackingNumber))
	if trackingNumber == "" {
		return nil, ErrShipmentNotFound
	}

	shipment, err := s.repo.GetByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShipmentNotFound
		}
		return nil, fmt.Errorf("failed to track shipment: %w", err)
	}
	if !lifecycle.CanView(shipment, user) {
		return nil, ErrShipmentNotFound
	}
	return shipment, nil
}

// List возвращает видимые пользователю отправления, новые первыми
func (s *ShipmentService) List(ctx context.Context, user *models.User, filter ListFilter) (*ShipmentPage, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments: %w", err)
	}

	list := lifecycle.VisibleShipments(all, user)
	if filter.Status != "" {
		list = lifecycle.FilterByStatus(list, filter.Status)
	}
	list = lifecycle.Search(list, filter.Query)

	page := &ShipmentPage{Total: len(list), Limit: filter.Limit, Offset: filter.Offset}
	if filter.Offset > 0 {
		if filter.Offset >= len(list) {
			list = nil
		} else {
			list = list[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(list) > filter.Limit {
		list = list[:filter.Limit]
	}
	page.Items = append([]*models.Shipment{}, list...)

	return page, nil
}

// UpdateStatus переводит отправление в новый статус и дописывает событие в историю
func (s *ShipmentService) UpdateStatus(ctx context.Context, id string, user *models.User, req *models.UpdateShipmentStatusRequest) (*models.Shipment, error) {
	to, err := models.ParseStatus(string(req.Status))
	if err != nil {
		return nil, err
	}

	shipment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanView(shipment, user) {
		return nil, ErrShipmentNotFound
	}
	if !lifecycle.CanChangeStatus(shipment, user) {
		return nil, ErrForbidden
	}

	prev := shipment.UpdatedAt
	oldStatus := shipment.Status
	if err := lifecycle.ApplyTransition(shipment, to, req.Location, strings.TrimSpace(req.Description), s.stamp(prev)); err != nil {
		return nil, err
	}

	if err := s.save(ctx, shipment, prev); err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"shipment_id": shipment.ID,
		"old_status":  oldStatus,
		"new_status":  shipment.Status,
		"user_id":     user.ID,
	}).Info("Shipment status updated")

	if s.publisher != nil {
		if err := s.publisher.PublishStatusChanged(ctx, shipment, oldStatus); err != nil {
			s.log.WithError(err).WithField("shipment_id", shipment.ID).Error("Failed to publish status changed event")
		}
	}

	return shipment, nil
}

// AssignCourier назначает курьера на отправление, доступно только администратору
func (s *ShipmentService) AssignCourier(ctx context.Context, id string, user *models.User, courier models.Courier) (*models.Shipment, error) {
	if user == nil || user.Role != models.RoleAdmin {
		return nil, ErrForbidden
	}
	courier.ID = strings.TrimSpace(courier.ID)
	if courier.ID == "" {
		return nil, ErrInvalidCourier
	}

	shipment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if lifecycle.IsTerminal(shipment.Status) {
		return nil, fmt.Errorf("%w: shipment is %s", ErrNotEditable, shipment.Status)
	}

	prev := shipment.UpdatedAt
	shipment.Courier = &courier
	shipment.UpdatedAt = s.stamp(prev)

	if err := s.save(ctx, shipment, prev); err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"shipment_id": shipment.ID,
		"courier_id":  courier.ID,
	}).Info("Courier assigned to shipment")

	if s.publisher != nil {
		if err := s.publisher.PublishCourierAssigned(ctx, shipment); err != nil {
			s.log.WithError(err).WithField("shipment_id", shipment.ID).Error("Failed to publish courier assigned event")
		}
	}

	return shipment, nil
}

// UpdateDetails меняет тариф и особые инструкции, пока отправление не забрано
func (s *ShipmentService) UpdateDetails(ctx context.Context, id string, user *models.User, req *models.UpdateShipmentDetailsRequest) (*models.Shipment, error) {
	var tier models.ServiceTier
	if req.Service != nil {
		parsed, err := models.ParseServiceTier(string(*req.Service))
		if err != nil {
			return nil, err
		}
		tier = parsed
	}

	shipment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanView(shipment, user) {
		return nil, ErrShipmentNotFound
	}
	if !lifecycle.CanEditDetails(shipment, user) {
		return nil, ErrForbidden
	}
	if shipment.Status != models.StatusCreated {
		return nil, fmt.Errorf("%w: shipment is %s", ErrNotEditable, shipment.Status)
	}

	prev := shipment.UpdatedAt
	if tier != "" {
		shipment.Service = tier
		shipment.TotalCost = s.pricing.CalculateDeliveryCost(tier, shipment.Package.Weight).TotalCost
	}
	if req.SpecialInstructions != nil {
		shipment.SpecialInstructions = strings.TrimSpace(*req.SpecialInstructions)
	}
	shipment.UpdatedAt = s.stamp(prev)

	if err := s.save(ctx, shipment, prev); err != nil {
		return nil, err
	}

	s.log.WithFields(map[string]interface{}{
		"shipment_id": shipment.ID,
		"service":     shipment.Service,
		"total_cost":  shipment.TotalCost,
	}).Info("Shipment details updated")

	if s.publisher != nil {
		if err := s.publisher.PublishShipmentUpdated(ctx, shipment); err != nil {
			s.log.WithError(err).WithField("shipment_id", shipment.ID).Error("Failed to publish shipment updated event")
		}
	}

	return shipment, nil
}

// load читает отправление из хранилища, минуя кеш
func (s *ShipmentService) load(ctx context.Context, id string) (*models.Shipment, error) {
	shipment, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrShipmentNotFound
		}
		return nil, fmt.Errorf("failed to get shipment: %w", err)
	}
	return shipment, nil
}

// save сохраняет изменения и сбрасывает кеш отправления
func (s *ShipmentService) save(ctx context.Context, shipment *models.Shipment, prev time.Time) error {
	if err := s.repo.Update(ctx, shipment, prev); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return ErrConflict
		case errors.Is(err, repository.ErrNotFound):
			return ErrShipmentNotFound
		default:
			return fmt.Errorf("failed to update shipment: %w", err)
		}
	}

	if s.cache != nil {
		if err := s.cache.InvalidateShipment(ctx, shipment.ID); err != nil {
			s.log.WithError(err).WithField("shipment_id", shipment.ID).Warn("Failed to invalidate shipment cache")
		}
	}
	return nil
}

func (s *ShipmentService) remember(ctx context.Context, shipment *models.Shipment) {
	if s.cache == nil {
		return
	}
	if err := s.cache.SetShipment(ctx, shipment); err != nil {
		s.log.WithError(err).WithField("shipment_id", shipment.ID).Warn("Failed to cache shipment")
	}
}
