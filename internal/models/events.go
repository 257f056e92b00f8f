package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventType представляет тип события
type EventType string

const (
	EventTypeShipmentCreated       EventType = "shipment.created"
	EventTypeShipmentStatusChanged EventType = "shipment.status_changed"
	EventTypeCourierAssigned       EventType = "shipment.courier_assigned"
	EventTypeShipmentUpdated       EventType = "shipment.updated"
)

// Event представляет базовое событие
type Event struct {
	ID        uuid.UUID       `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// DecodeData декодирует полезную нагрузку события
func (e *Event) DecodeData(dest interface{}) error {
	return json.Unmarshal(e.Data, dest)
}

// ShipmentCreatedEvent представляет событие создания отправления
type ShipmentCreatedEvent struct {
	ShipmentID     string      `json:"shipment_id"`
	TrackingNumber string      `json:"tracking_number"`
	SenderEmail    string      `json:"sender_email"`
	RecipientEmail string      `json:"recipient_email"`
	Service        ServiceTier `json:"service"`
	TotalCost      float64     `json:"total_cost"`
}

// ShipmentStatusChangedEvent представляет событие изменения статуса отправления
type ShipmentStatusChangedEvent struct {
	ShipmentID     string    `json:"shipment_id"`
	TrackingNumber string    `json:"tracking_number"`
	OldStatus      Status    `json:"old_status"`
	NewStatus      Status    `json:"new_status"`
	Location       string    `json:"location"`
	CourierID      string    `json:"courier_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// CourierAssignedEvent представляет событие назначения курьера
type CourierAssignedEvent struct {
	ShipmentID string    `json:"shipment_id"`
	CourierID  string    `json:"courier_id"`
	Timestamp  time.Time `json:"timestamp"`
}

// ShipmentUpdatedEvent представляет событие изменения тарифа или инструкций
type ShipmentUpdatedEvent struct {
	ShipmentID string      `json:"shipment_id"`
	Service    ServiceTier `json:"service"`
	TotalCost  float64     `json:"total_cost"`
	Timestamp  time.Time   `json:"timestamp"`
}
