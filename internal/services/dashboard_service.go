package services

import (
	"context"
	"fmt"
	"time"

	"uniship/internal/lifecycle"
	"uniship/internal/logger"
	"uniship/internal/models"
	"uniship/internal/repository"
)

const (
	dashboardRecentCount      = 5
	dashboardDestinationCount = 5
)

// DashboardSummary представляет сводку для главной страницы пользователя
type DashboardSummary struct {
	Role            models.Role                  `json:"role"`
	TotalShipments  int                          `json:"totalShipments"`
	DeliveredToday  int                          `json:"deliveredToday"`
	InTransit       int                          `json:"inTransit"`
	PendingPickup   int                          `json:"pendingPickup"`
	StatusCounts    map[models.Status]int        `json:"statusCounts"`
	Recent          []lifecycle.ShipmentView     `json:"recentShipments"`
	TopDestinations []lifecycle.DestinationCount `json:"topDestinations"`
	// Для курьера: назначенные недоставленные отправления со следующим действием
	Pending []lifecycle.ShipmentView `json:"pendingDeliveries,omitempty"`
}

// DashboardService собирает сводку по видимым пользователю отправлениям
type DashboardService struct {
	repo repository.ShipmentRepository
	log  *logger.Logger
	now  func() time.Time
}

// NewDashboardService создает сервис сводки
func NewDashboardService(repo repository.ShipmentRepository, log *logger.Logger) *DashboardService {
	return &DashboardService{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
}

// Summary строит сводку для пользователя
func (s *DashboardService) Summary(ctx context.Context, user *models.User) (*DashboardSummary, error) {
	if user == nil {
		return nil, ErrForbidden
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list shipments: %w", err)
	}
	visible := lifecycle.VisibleShipments(all, user)
	counts := lifecycle.CountByStatus(visible)

	summary := &DashboardSummary{
		Role:            user.Role,
		TotalShipments:  len(visible),
		DeliveredToday:  deliveredOn(visible, s.now()),
		InTransit:       counts[models.StatusInTransit],
		PendingPickup:   counts[models.StatusCreated] + counts[models.StatusPickedUp],
		StatusCounts:    counts,
		Recent:          lifecycle.Views(lifecycle.RecentShipments(visible, dashboardRecentCount)),
		TopDestinations: lifecycle.TopDestinations(visible, dashboardDestinationCount),
	}

	if user.Role == models.RoleDeliveryPartner {
		pending := make([]*models.Shipment, 0, len(visible))
		for _, shipment := range visible {
			if !lifecycle.IsTerminal(shipment.Status) {
				pending = append(pending, shipment)
			}
		}
		summary.Pending = lifecycle.Views(pending)
	}

	s.log.WithFields(map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
		"total":   summary.TotalShipments,
	}).Debug("Dashboard summary built")

	return summary, nil
}

// deliveredOn считает отправления, доставленные в тот же календарный день, что и now
func deliveredOn(list []*models.Shipment, now time.Time) int {
	y, m, d := now.Date()
	count := 0
	for _, shipment := range list {
		if shipment.Status != models.StatusDelivered || shipment.ActualDelivery == nil {
			continue
		}
		dy, dm, dd := shipment.ActualDelivery.In(now.Location()).Date()
		if dy == y && dm == m && dd == d {
			count++
		}
	}
	return count
}
