package lifecycle

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"uniship/internal/models"
)

func newShipment(status models.Status, created time.Time) *models.Shipment {
	return &models.Shipment{
		ID:             "SH100",
		TrackingNumber: "UNI000000001",
		Status:         status,
		CreatedAt:      created,
		UpdatedAt:      created,
		TrackingHistory: []models.TrackingEvent{
			{Seq: 1, Status: status, Location: "New York, NY", Timestamp: created},
		},
	}
}

func TestNextStatus(t *testing.T) {
	chain := map[models.Status]models.Status{
		models.StatusCreated:        models.StatusPickedUp,
		models.StatusPickedUp:       models.StatusInTransit,
		models.StatusInTransit:      models.StatusOutForDelivery,
		models.StatusOutForDelivery: models.StatusDelivered,
	}
	for from, want := range chain {
		got, ok := NextStatus(from)
		if !ok || got != want {
			t.Errorf("NextStatus(%s) = %s, %v; want %s", from, got, ok, want)
		}
	}

	for _, s := range []models.Status{models.StatusDelivered, models.StatusException, models.StatusReturned, "lost"} {
		if got, ok := NextStatus(s); ok {
			t.Errorf("NextStatus(%s) = %s, want none", s, got)
		}
	}
}

func TestApplyTransitionForward(t *testing.T) {
	created := time.Date(2024, 1, 10, 10, 30, 0, 0, time.UTC)
	s := newShipment(models.StatusCreated, created)

	now := created.Add(4 * time.Hour)
	loc := &models.Location{City: "Chicago", State: "IL", Country: "USA"}
	if err := ApplyTransition(s, models.StatusPickedUp, loc, "", now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Status != models.StatusPickedUp {
		t.Fatalf("status = %s, want picked-up", s.Status)
	}
	if !s.UpdatedAt.Equal(now) {
		t.Errorf("updatedAt = %v, want %v", s.UpdatedAt, now)
	}
	if !s.CreatedAt.Equal(created) {
		t.Errorf("createdAt changed to %v", s.CreatedAt)
	}
	if s.ActualDelivery != nil {
		t.Errorf("actualDelivery set before delivery: %v", s.ActualDelivery)
	}
	if len(s.TrackingHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(s.TrackingHistory))
	}
	last := s.TrackingHistory[1]
	if last.Seq != 2 || last.Location != "Chicago, IL" || last.Description != "Package picked up from sender" {
		t.Errorf("unexpected event %+v", last)
	}
	if s.CurrentLocation == nil || s.CurrentLocation.City != "Chicago" {
		t.Errorf("current location = %+v", s.CurrentLocation)
	}
	if err := CheckHistory(s); err != nil {
		t.Errorf("history invariant broken: %v", err)
	}
}

func TestApplyTransitionThroughDelivery(t *testing.T) {
	start := time.Date(2024, 1, 5, 8, 0, 0, 0, time.UTC)
	s := newShipment(models.StatusCreated, start)

	for i, to := range CanonicalSequence[1:] {
		now := start.Add(time.Duration(i+1) * time.Hour)
		if err := ApplyTransition(s, to, nil, "step", now); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
		if err := CheckHistory(s); err != nil {
			t.Fatalf("after %s: %v", to, err)
		}
	}

	if s.ActualDelivery == nil || !s.ActualDelivery.Equal(start.Add(4*time.Hour)) {
		t.Fatalf("actualDelivery = %v", s.ActualDelivery)
	}
	if len(s.TrackingHistory) != 5 {
		t.Fatalf("history length = %d, want 5", len(s.TrackingHistory))
	}
	if s.TrackingHistory[1].Location != "" {
		t.Errorf("location without current location = %q", s.TrackingHistory[1].Location)
	}
}

func TestApplyTransitionSkipsForward(t *testing.T) {
	now := time.Date(2024, 1, 13, 9, 0, 0, 0, time.UTC)
	s := newShipment(models.StatusPickedUp, now)

	if err := ApplyTransition(s, models.StatusOutForDelivery, nil, "", now.Add(time.Hour)); err != nil {
		t.Fatalf("forward skip rejected: %v", err)
	}
}

func TestApplyTransitionRejectsFromDelivered(t *testing.T) {
	now := time.Date(2024, 1, 8, 16, 45, 0, 0, time.UTC)
	delivered := now
	s := newShipment(models.StatusDelivered, now)
	s.ActualDelivery = &delivered
	before := s.Clone()

	for _, to := range models.AllStatuses {
		err := ApplyTransition(s, to, &models.Location{City: "Miami", State: "FL"}, "", now.Add(time.Hour))
		if !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("delivered -> %s: err = %v, want ErrInvalidTransition", to, err)
		}
	}

	if !reflect.DeepEqual(before, s) {
		t.Fatalf("shipment mutated on failed transition:\nbefore %+v\nafter  %+v", before, s)
	}
}

func TestApplyTransitionRejectsBackwardAndSame(t *testing.T) {
	now := time.Date(2024, 1, 12, 14, 20, 0, 0, time.UTC)
	s := newShipment(models.StatusInTransit, now)

	for _, to := range []models.Status{models.StatusCreated, models.StatusPickedUp, models.StatusInTransit, "unknown"} {
		if err := ApplyTransition(s, to, nil, "", now); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("in-transit -> %s: err = %v, want ErrInvalidTransition", to, err)
		}
	}
	if len(s.TrackingHistory) != 1 {
		t.Fatalf("history grew on rejected transitions: %d", len(s.TrackingHistory))
	}
}

func TestSideStatesAreAbsorbing(t *testing.T) {
	now := time.Date(2024, 1, 12, 14, 20, 0, 0, time.UTC)
	s := newShipment(models.StatusInTransit, now)

	if err := ApplyTransition(s, models.StatusException, nil, "Address not found", now.Add(time.Hour)); err != nil {
		t.Fatalf("in-transit -> exception: %v", err)
	}
	for _, to := range models.AllStatuses {
		if err := ApplyTransition(s, to, nil, "", now.Add(2*time.Hour)); !errors.Is(err, ErrInvalidTransition) {
			t.Errorf("exception -> %s: err = %v, want ErrInvalidTransition", to, err)
		}
	}
}

func TestCheckHistory(t *testing.T) {
	s := &models.Shipment{ID: "SH1", Status: models.StatusCreated}
	if err := CheckHistory(s); !errors.Is(err, ErrBrokenHistory) {
		t.Fatalf("empty history: err = %v", err)
	}
	s.TrackingHistory = []models.TrackingEvent{{Status: models.StatusPickedUp}}
	if err := CheckHistory(s); !errors.Is(err, ErrBrokenHistory) {
		t.Fatalf("mismatched history: err = %v", err)
	}
}

func TestNextAction(t *testing.T) {
	action, ok := NextAction(models.StatusCreated)
	if !ok || action.NextStatus != models.StatusPickedUp || action.Label != "Pick Up" {
		t.Fatalf("NextAction(created) = %+v, %v", action, ok)
	}
	if _, ok := NextAction(models.StatusDelivered); ok {
		t.Fatal("delivered should have no next action")
	}
}
