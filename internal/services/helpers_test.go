package services

import (
	"context"
	"sync"
	"testing"

	"uniship/internal/config"
	"uniship/internal/logger"
	"uniship/internal/models"
	"uniship/internal/redis"
	"uniship/internal/repository"
	"uniship/internal/wizard"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
)

var (
	adminUser    = &models.User{ID: "1", Name: "Admin User", Email: "admin@uniship.com", Role: models.RoleAdmin}
	customerUser = &models.User{ID: "2", Name: "John Smith", Email: "john.smith@email.com", Role: models.RoleUser}
	courierUser  = &models.User{ID: "3", Name: "Mike Johnson", Email: "courier@uniship.com", Role: models.RoleDeliveryPartner}
	otherCourier = &models.User{ID: "4", Name: "Sarah Williams", Email: "sarah@uniship.com", Role: models.RoleDeliveryPartner}
	strangerUser = &models.User{ID: "9", Name: "Nobody", Email: "nobody@email.com", Role: models.RoleUser}
)

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return redis.NewClient(rdb, logger.Discard()), mr
}

func seededRepo(t *testing.T) *repository.MemoryRepository {
	t.Helper()
	repo := repository.NewMemoryRepository()
	if _, err := repository.Seed(context.Background(), repo, repository.MockShipments()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return repo
}

func testPricing() *DeliveryPricingService {
	return NewDeliveryPricingService(&config.PricingConfig{
		ExpressPrice:  25.99,
		StandardPrice: 15.99,
		EconomyPrice:  9.99,
		PricePerKg:    2,
	}, logger.Discard())
}

func validForm() wizard.Form {
	form := wizard.NewForm()
	form.Sender = wizard.PartyForm{
		Name: "John Smith", Email: "john.smith@email.com", Phone: "+1-555-0123",
		Address: wizard.AddressForm{Street: "123 Main St", City: "New York", State: "NY", ZipCode: "10001", Country: "USA"},
	}
	form.Recipient = wizard.PartyForm{
		Name: "Jane Roe", Email: "jane.roe@email.com", Phone: "+1-555-0999",
		Address: wizard.AddressForm{Street: "1 Bay St", City: "Boston", State: "MA", ZipCode: "02101", Country: "USA"},
	}
	form.Package = wizard.PackageForm{
		Weight:      "5",
		Dimensions:  wizard.DimensionsForm{Length: "10", Width: "10", Height: "10"},
		Description: "Books",
		Type:        "other",
		Value:       "40",
	}
	form.Service = models.ServiceStandard
	return form
}

type publishedEvent struct {
	kind      models.EventType
	id        string
	oldStatus models.Status
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) record(e publishedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *fakePublisher) PublishShipmentCreated(_ context.Context, s *models.Shipment) error {
	return p.record(publishedEvent{kind: models.EventTypeShipmentCreated, id: s.ID})
}

func (p *fakePublisher) PublishStatusChanged(_ context.Context, s *models.Shipment, old models.Status) error {
	return p.record(publishedEvent{kind: models.EventTypeShipmentStatusChanged, id: s.ID, oldStatus: old})
}

func (p *fakePublisher) PublishCourierAssigned(_ context.Context, s *models.Shipment) error {
	return p.record(publishedEvent{kind: models.EventTypeCourierAssigned, id: s.ID})
}

func (p *fakePublisher) PublishShipmentUpdated(_ context.Context, s *models.Shipment) error {
	return p.record(publishedEvent{kind: models.EventTypeShipmentUpdated, id: s.ID})
}

func (p *fakePublisher) kinds() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]models.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.kind)
	}
	return out
}
