// Package lifecycle содержит модель жизненного цикла отправления: переходы статусов,
// расчет прогресса, ролевую видимость и стоимость доставки.
package lifecycle

import (
	"errors"
	"fmt"
	"time"

	"uniship/internal/models"
)

var (
	// ErrInvalidTransition возвращается при попытке перехода вне канонического порядка
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrBrokenHistory возвращается, если история отслеживания нарушает инвариант
	ErrBrokenHistory = errors.New("tracking history does not match shipment status")
)

// CanonicalSequence - основной путь отправления от создания до доставки
var CanonicalSequence = []models.Status{
	models.StatusCreated,
	models.StatusPickedUp,
	models.StatusInTransit,
	models.StatusOutForDelivery,
	models.StatusDelivered,
}

var defaultDescriptions = map[models.Status]string{
	models.StatusCreated:        "Shipment created and label generated",
	models.StatusPickedUp:       "Package picked up from sender",
	models.StatusInTransit:      "Package in transit to destination",
	models.StatusOutForDelivery: "Package out for delivery",
	models.StatusDelivered:      "Package delivered successfully",
	models.StatusException:      "Delivery exception reported",
	models.StatusReturned:       "Package returned to sender",
}

// canonicalIndex возвращает позицию статуса в основном пути или -1
func canonicalIndex(s models.Status) int {
	for i, status := range CanonicalSequence {
		if status == s {
			return i
		}
	}
	return -1
}

// NextStatus возвращает следующий статус основного пути
func NextStatus(current models.Status) (models.Status, bool) {
	idx := canonicalIndex(current)
	if idx < 0 || idx == len(CanonicalSequence)-1 {
		return "", false
	}
	return CanonicalSequence[idx+1], true
}

// IsTerminal сообщает, что из статуса больше нет переходов
func IsTerminal(s models.Status) bool {
	return s == models.StatusDelivered || s.IsSideState()
}

// CanTransition проверяет допустимость перехода from -> to.
// Разрешены переходы только вперед по основному пути (с пропуском шагов)
// и переход в побочный статус из любого нетерминального статуса.
func CanTransition(from, to models.Status) bool {
	if IsTerminal(from) || canonicalIndex(from) < 0 {
		return false
	}
	if to.IsSideState() {
		return true
	}
	return canonicalIndex(to) > canonicalIndex(from)
}

// DefaultDescription возвращает стандартное описание события для статуса
func DefaultDescription(s models.Status) string {
	return defaultDescriptions[s]
}

// ApplyTransition переводит отправление в новый статус.
// При ошибке отправление не изменяется.
func ApplyTransition(s *models.Shipment, to models.Status, loc *models.Location, description string, now time.Time) error {
	if !CanTransition(s.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, to)
	}

	if description == "" {
		description = DefaultDescription(to)
	}

	location := ""
	if loc != nil {
		location = loc.String()
	} else if s.CurrentLocation != nil {
		location = s.CurrentLocation.String()
	}

	s.TrackingHistory = append(s.TrackingHistory, models.TrackingEvent{
		Seq:         len(s.TrackingHistory) + 1,
		Status:      to,
		Location:    location,
		Timestamp:   now,
		Description: description,
	})
	s.Status = to
	s.UpdatedAt = now
	if loc != nil {
		current := *loc
		s.CurrentLocation = &current
	}
	if to == models.StatusDelivered {
		delivered := now
		s.ActualDelivery = &delivered
	}

	return nil
}

// CheckHistory проверяет, что история не пуста и последний статус совпадает с текущим
func CheckHistory(s *models.Shipment) error {
	if len(s.TrackingHistory) == 0 {
		return fmt.Errorf("%w: shipment %s has no history", ErrBrokenHistory, s.ID)
	}
	last := s.TrackingHistory[len(s.TrackingHistory)-1]
	if last.Status != s.Status {
		return fmt.Errorf("%w: shipment %s is %s, last event is %s", ErrBrokenHistory, s.ID, s.Status, last.Status)
	}
	return nil
}

// Action представляет следующее действие курьера над отправлением
type Action struct {
	Label      string        `json:"action"`
	NextStatus models.Status `json:"nextStatus"`
}

var actionLabels = map[models.Status]string{
	models.StatusPickedUp:       "Pick Up",
	models.StatusInTransit:      "Depart Facility",
	models.StatusOutForDelivery: "Start Delivery",
	models.StatusDelivered:      "Mark Delivered",
}

// NextAction возвращает действие курьера для текущего статуса
func NextAction(current models.Status) (Action, bool) {
	next, ok := NextStatus(current)
	if !ok {
		return Action{}, false
	}
	return Action{Label: actionLabels[next], NextStatus: next}, true
}
