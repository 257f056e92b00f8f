package kafka

import (
	"context"
	"fmt"

	"uniship/internal/logger"
	"uniship/internal/models"
)

// Invalidator сбрасывает закешированное отправление
type Invalidator interface {
	InvalidateShipment(ctx context.Context, id string) error
}

type shipmentRef struct {
	ShipmentID string `json:"shipment_id"`
}

// InvalidateOnChange возвращает обработчик, сбрасывающий кеш отправления из события
func InvalidateOnChange(cache Invalidator, log *logger.Logger) EventHandler {
	return func(ctx context.Context, event *models.Event) error {
		var ref shipmentRef
		if err := event.DecodeData(&ref); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", event.Type, err)
		}
		if ref.ShipmentID == "" {
			log.WithField("event_id", event.ID).Warn("Event without shipment id skipped")
			return nil
		}

		if err := cache.InvalidateShipment(ctx, ref.ShipmentID); err != nil {
			return fmt.Errorf("failed to invalidate shipment %s: %w", ref.ShipmentID, err)
		}

		log.WithFields(map[string]interface{}{
			"event_type":  event.Type,
			"shipment_id": ref.ShipmentID,
		}).Debug("Shipment cache invalidated by event")
		return nil
	}
}

// RegisterCacheInvalidation подписывает сброс кеша на события, меняющие отправление
func RegisterCacheInvalidation(c *Consumer, cache Invalidator, log *logger.Logger) {
	handler := InvalidateOnChange(cache, log)
	for _, eventType := range []models.EventType{
		models.EventTypeShipmentStatusChanged,
		models.EventTypeCourierAssigned,
		models.EventTypeShipmentUpdated,
	} {
		c.RegisterHandler(eventType, handler)
	}
}
