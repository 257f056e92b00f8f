package models

import (
	"fmt"
	"time"
)

// Address представляет почтовый адрес
type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Country string `json:"country"`
}

// Party представляет отправителя или получателя
type Party struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	Address Address `json:"address"`
}

// Dimensions представляет габариты посылки в сантиметрах
type Dimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Package представляет содержимое отправления
type Package struct {
	Weight      float64    `json:"weight"` // кг
	Dimensions  Dimensions `json:"dimensions"`
	Description string     `json:"description"`
	Type        string     `json:"type,omitempty"`
	Value       float64    `json:"value"`
	Fragile     bool       `json:"fragile"`
}

// Coordinates представляет географические координаты
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Location представляет текущее местоположение отправления
type Location struct {
	City        string       `json:"city"`
	State       string       `json:"state"`
	Country     string       `json:"country,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// String форматирует местоположение как "City, ST"
func (l Location) String() string {
	switch {
	case l.City != "" && l.State != "":
		return fmt.Sprintf("%s, %s", l.City, l.State)
	case l.City != "":
		return l.City
	default:
		return l.State
	}
}

// LocationFromAddress строит местоположение по адресу
func LocationFromAddress(a Address) Location {
	return Location{City: a.City, State: a.State, Country: a.Country}
}

// Courier представляет снимок данных назначенного курьера
type Courier struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Vehicle string `json:"vehicle,omitempty"`
}

// TrackingEvent представляет запись в истории отслеживания
type TrackingEvent struct {
	Seq         int       `json:"id"`
	Status      Status    `json:"status"`
	Location    string    `json:"location"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
}

// Shipment представляет отправление в системе
type Shipment struct {
	ID                  string          `json:"id"`
	TrackingNumber      string          `json:"trackingNumber"`
	Sender              Party           `json:"sender"`
	Recipient           Party           `json:"recipient"`
	Package             Package         `json:"package"`
	Service             ServiceTier     `json:"service"`
	SpecialInstructions string          `json:"specialInstructions,omitempty"`
	Status              Status          `json:"status"`
	CurrentLocation     *Location       `json:"currentLocation"`
	EstimatedDelivery   time.Time       `json:"estimatedDelivery"`
	ActualDelivery      *time.Time      `json:"actualDelivery"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
	Courier             *Courier        `json:"courier"`
	TotalCost           float64         `json:"totalCost"`
	TrackingHistory     []TrackingEvent `json:"trackingHistory"`
}

// Clone возвращает глубокую копию отправления
func (s *Shipment) Clone() *Shipment {
	if s == nil {
		return nil
	}
	c := *s
	if s.CurrentLocation != nil {
		loc := *s.CurrentLocation
		if loc.Coordinates != nil {
			coords := *loc.Coordinates
			loc.Coordinates = &coords
		}
		c.CurrentLocation = &loc
	}
	if s.ActualDelivery != nil {
		t := *s.ActualDelivery
		c.ActualDelivery = &t
	}
	if s.Courier != nil {
		courier := *s.Courier
		c.Courier = &courier
	}
	c.TrackingHistory = append([]TrackingEvent(nil), s.TrackingHistory...)
	return &c
}

// UpdateShipmentStatusRequest представляет запрос на изменение статуса отправления
type UpdateShipmentStatusRequest struct {
	Status      Status    `json:"status"`
	Location    *Location `json:"location,omitempty"`
	Description string    `json:"description,omitempty"`
}

// AssignCourierRequest представляет запрос на назначение курьера
type AssignCourierRequest struct {
	Courier Courier `json:"courier"`
}

// UpdateShipmentDetailsRequest представляет запрос на изменение тарифа и инструкций
type UpdateShipmentDetailsRequest struct {
	Service             *ServiceTier `json:"service,omitempty"`
	SpecialInstructions *string      `json:"specialInstructions,omitempty"`
}
