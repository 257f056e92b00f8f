package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"uniship/internal/lifecycle"
	"uniship/internal/models"
)

func ts(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(fmt.Sprintf("invalid seed timestamp %q: %v", value, err))
	}
	return t
}

func tsPtr(value string) *time.Time {
	t := ts(value)
	return &t
}

var demoCourier = models.Courier{
	ID:      "3",
	Name:    "Mike Johnson",
	Phone:   "+1-555-0789",
	Vehicle: "Van #V-001",
}

// MockShipments возвращает демонстрационные отправления
func MockShipments() []*models.Shipment {
	catalog := lifecycle.DefaultCatalog()

	list := []*models.Shipment{
		{
			ID:             "SH001",
			TrackingNumber: "UNI123456789",
			Sender: models.Party{
				Name: "John Smith", Email: "john.smith@email.com", Phone: "+1-555-0123",
				Address: models.Address{Street: "123 Main St", City: "New York", State: "NY", ZipCode: "10001", Country: "USA"},
			},
			Recipient: models.Party{
				Name: "Sarah Johnson", Email: "sarah.johnson@email.com", Phone: "+1-555-0456",
				Address: models.Address{Street: "456 Oak Ave", City: "Los Angeles", State: "CA", ZipCode: "90210", Country: "USA"},
			},
			Package: models.Package{
				Weight:      2.5,
				Dimensions:  models.Dimensions{Length: 30, Width: 20, Height: 15},
				Description: "Electronics - Laptop",
				Type:        "electronics",
				Value:       1200,
				Fragile:     true,
			},
			Service: models.ServiceExpress,
			Status:  models.StatusInTransit,
			CurrentLocation: &models.Location{
				City: "Denver", State: "CO", Country: "USA",
				Coordinates: &models.Coordinates{Lat: 39.7392, Lon: -104.9903},
			},
			EstimatedDelivery: ts("2024-01-15T18:00:00Z"),
			CreatedAt:         ts("2024-01-10T10:30:00Z"),
			UpdatedAt:         ts("2024-01-12T14:20:00Z"),
			TrackingHistory: []models.TrackingEvent{
				{Seq: 1, Status: models.StatusCreated, Location: "New York, NY", Timestamp: ts("2024-01-10T10:30:00Z"), Description: "Shipment created and label generated"},
				{Seq: 2, Status: models.StatusPickedUp, Location: "New York, NY", Timestamp: ts("2024-01-10T14:15:00Z"), Description: "Package picked up from sender"},
				{Seq: 3, Status: models.StatusInTransit, Location: "Chicago, IL", Timestamp: ts("2024-01-11T09:30:00Z"), Description: "Package arrived at sorting facility"},
				{Seq: 4, Status: models.StatusInTransit, Location: "Denver, CO", Timestamp: ts("2024-01-12T14:20:00Z"), Description: "Package in transit to destination"},
			},
		},
		{
			ID:             "SH002",
			TrackingNumber: "UNI987654321",
			Sender: models.Party{
				Name: "Emily Davis", Email: "emily.davis@email.com", Phone: "+1-555-0234",
				Address: models.Address{Street: "789 Pine St", City: "Chicago", State: "IL", ZipCode: "60601", Country: "USA"},
			},
			Recipient: models.Party{
				Name: "Robert Wilson", Email: "robert.wilson@email.com", Phone: "+1-555-0567",
				Address: models.Address{Street: "321 Elm St", City: "Miami", State: "FL", ZipCode: "33101", Country: "USA"},
			},
			Package: models.Package{
				Weight:      1.2,
				Dimensions:  models.Dimensions{Length: 25, Width: 18, Height: 12},
				Description: "Documents - Legal Papers",
				Type:        "documents",
				Value:       50,
			},
			Service: models.ServiceStandard,
			Status:  models.StatusDelivered,
			CurrentLocation: &models.Location{
				City: "Miami", State: "FL", Country: "USA",
				Coordinates: &models.Coordinates{Lat: 25.7617, Lon: -80.1918},
			},
			EstimatedDelivery: ts("2024-01-08T17:00:00Z"),
			ActualDelivery:    tsPtr("2024-01-08T16:45:00Z"),
			CreatedAt:         ts("2024-01-05T08:15:00Z"),
			UpdatedAt:         ts("2024-01-08T16:45:00Z"),
			TrackingHistory: []models.TrackingEvent{
				{Seq: 1, Status: models.StatusCreated, Location: "Chicago, IL", Timestamp: ts("2024-01-05T08:15:00Z"), Description: "Shipment created and label generated"},
				{Seq: 2, Status: models.StatusPickedUp, Location: "Chicago, IL", Timestamp: ts("2024-01-05T12:30:00Z"), Description: "Package picked up from sender"},
				{Seq: 3, Status: models.StatusInTransit, Location: "Atlanta, GA", Timestamp: ts("2024-01-06T10:15:00Z"), Description: "Package arrived at sorting facility"},
				{Seq: 4, Status: models.StatusOutForDelivery, Location: "Miami, FL", Timestamp: ts("2024-01-08T08:00:00Z"), Description: "Package out for delivery"},
				{Seq: 5, Status: models.StatusDelivered, Location: "Miami, FL", Timestamp: ts("2024-01-08T16:45:00Z"), Description: "Package delivered successfully"},
			},
		},
		{
			ID:             "SH003",
			TrackingNumber: "UNI456789123",
			Sender: models.Party{
				Name: "Lisa Brown", Email: "lisa.brown@email.com", Phone: "+1-555-0345",
				Address: models.Address{Street: "555 Maple Dr", City: "Seattle", State: "WA", ZipCode: "98101", Country: "USA"},
			},
			Recipient: models.Party{
				Name: "David Miller", Email: "david.miller@email.com", Phone: "+1-555-0678",
				Address: models.Address{Street: "888 Cedar Ln", City: "Portland", State: "OR", ZipCode: "97201", Country: "USA"},
			},
			Package: models.Package{
				Weight:      5.8,
				Dimensions:  models.Dimensions{Length: 40, Width: 30, Height: 25},
				Description: "Furniture - Office Chair",
				Type:        "furniture",
				Value:       350,
			},
			Service: models.ServiceStandard,
			Status:  models.StatusPickedUp,
			CurrentLocation: &models.Location{
				City: "Seattle", State: "WA", Country: "USA",
				Coordinates: &models.Coordinates{Lat: 47.6062, Lon: -122.3321},
			},
			EstimatedDelivery: ts("2024-01-16T17:00:00Z"),
			CreatedAt:         ts("2024-01-13T09:00:00Z"),
			UpdatedAt:         ts("2024-01-13T15:30:00Z"),
			TrackingHistory: []models.TrackingEvent{
				{Seq: 1, Status: models.StatusCreated, Location: "Seattle, WA", Timestamp: ts("2024-01-13T09:00:00Z"), Description: "Shipment created and label generated"},
				{Seq: 2, Status: models.StatusPickedUp, Location: "Seattle, WA", Timestamp: ts("2024-01-13T15:30:00Z"), Description: "Package picked up from sender"},
			},
		},
	}

	for _, s := range list {
		courier := demoCourier
		s.Courier = &courier
		s.TotalCost = catalog.TotalCost(s.Service, s.Package.Weight)
	}
	return list
}

// Seed загружает отправления в хранилище, пропуская уже существующие
func Seed(ctx context.Context, repo ShipmentRepository, shipments []*models.Shipment) (int, error) {
	created := 0
	for _, s := range shipments {
		if err := repo.Create(ctx, s); err != nil {
			if errors.Is(err, ErrDuplicate) {
				continue
			}
			return created, fmt.Errorf("failed to seed shipment %s: %w", s.ID, err)
		}
		created++
	}
	return created, nil
}
