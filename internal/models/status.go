package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownStatus возвращается при разборе неизвестного статуса
var ErrUnknownStatus = errors.New("unknown shipment status")

// ErrUnknownServiceTier возвращается при разборе неизвестного тарифа
var ErrUnknownServiceTier = errors.New("unknown service tier")

// Status представляет статус отправления
type Status string

const (
	StatusCreated        Status = "created"
	StatusPickedUp       Status = "picked-up"
	StatusInTransit      Status = "in-transit"
	StatusOutForDelivery Status = "out-for-delivery"
	StatusDelivered      Status = "delivered"
	StatusException      Status = "exception"
	StatusReturned       Status = "returned"
)

// AllStatuses перечисляет все статусы в порядке отображения
var AllStatuses = []Status{
	StatusCreated,
	StatusPickedUp,
	StatusInTransit,
	StatusOutForDelivery,
	StatusDelivered,
	StatusException,
	StatusReturned,
}

var statusLabels = map[Status]string{
	StatusCreated:        "Created",
	StatusPickedUp:       "Picked Up",
	StatusInTransit:      "In Transit",
	StatusOutForDelivery: "Out for Delivery",
	StatusDelivered:      "Delivered",
	StatusException:      "Exception",
	StatusReturned:       "Returned",
}

// ParseStatus разбирает строковое значение статуса
func ParseStatus(s string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := statusLabels[status]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

// Valid сообщает, входит ли статус в закрытый набор
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// IsSideState сообщает, является ли статус побочным (exception, returned)
func (s Status) IsSideState() bool {
	return s == StatusException || s == StatusReturned
}

// Label возвращает название статуса для отображения
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

// ServiceTier представляет тариф доставки
type ServiceTier string

const (
	ServiceExpress  ServiceTier = "express"
	ServiceStandard ServiceTier = "standard"
	ServiceEconomy  ServiceTier = "economy"
)

// DefaultServiceTier используется, если тариф не выбран
const DefaultServiceTier = ServiceStandard

// ParseServiceTier разбирает тариф, пустое значение означает тариф по умолчанию
func ParseServiceTier(s string) (ServiceTier, error) {
	tier := ServiceTier(strings.ToLower(strings.TrimSpace(s)))
	switch tier {
	case "":
		return DefaultServiceTier, nil
	case ServiceExpress, ServiceStandard, ServiceEconomy:
		return tier, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownServiceTier, s)
	}
}
