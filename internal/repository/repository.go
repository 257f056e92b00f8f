// Package repository хранит отправления и их историю отслеживания.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"uniship/internal/models"
)

var (
	// ErrNotFound возвращается, если отправление не найдено
	ErrNotFound = errors.New("shipment not found")
	// ErrConflict возвращается, если отправление изменено параллельно
	ErrConflict = errors.New("shipment was modified concurrently")
	// ErrDuplicate возвращается при повторном создании отправления
	ErrDuplicate = errors.New("shipment already exists")
	// ErrStaleVersion возвращается, если новый updatedAt не позже предыдущего
	ErrStaleVersion = fmt.Errorf("%w: updatedAt did not advance", ErrConflict)
)

// ShipmentRepository описывает хранилище отправлений
type ShipmentRepository interface {
	Create(ctx context.Context, s *models.Shipment) error
	Get(ctx context.Context, id string) (*models.Shipment, error)
	GetByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error)
	List(ctx context.Context) ([]*models.Shipment, error)
	// Update сохраняет отправление, если его updatedAt в хранилище равен prevUpdatedAt,
	// а новый updatedAt строго позже prevUpdatedAt.
	// История только дополняется: записи с уже сохраненными номерами игнорируются.
	Update(ctx context.Context, s *models.Shipment, prevUpdatedAt time.Time) error
}

func checkVersion(s *models.Shipment, prevUpdatedAt time.Time) error {
	if !s.UpdatedAt.After(prevUpdatedAt) {
		return fmt.Errorf("%w: %s", ErrStaleVersion, s.ID)
	}
	return nil
}
