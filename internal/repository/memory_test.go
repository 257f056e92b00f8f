package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"uniship/internal/lifecycle"
	"uniship/internal/models"
)

func seededRepo(t *testing.T) *MemoryRepository {
	t.Helper()
	repo := NewMemoryRepository()
	n, err := Seed(context.Background(), repo, MockShipments())
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 3 {
		t.Fatalf("seeded %d shipments, want 3", n)
	}
	return repo
}

func TestMockShipmentsKeepHistoryInvariant(t *testing.T) {
	for _, s := range MockShipments() {
		if err := lifecycle.CheckHistory(s); err != nil {
			t.Errorf("%s: %v", s.ID, err)
		}
		if s.Courier == nil || s.Courier.ID != "3" {
			t.Errorf("%s: courier = %+v", s.ID, s.Courier)
		}
	}
}

func TestSeedIsIdempotent(t *testing.T) {
	repo := seededRepo(t)
	n, err := Seed(context.Background(), repo, MockShipments())
	if err != nil || n != 0 {
		t.Fatalf("second seed = %d, %v", n, err)
	}
}

func TestMemoryGetReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := seededRepo(t)

	s, err := repo.Get(ctx, "SH001")
	if err != nil {
		t.Fatal(err)
	}
	s.Status = models.StatusDelivered
	s.TrackingHistory[0].Description = "tampered"
	s.Courier.Name = "Someone Else"

	again, err := repo.Get(ctx, "SH001")
	if err != nil {
		t.Fatal(err)
	}
	if again.Status != models.StatusInTransit || again.TrackingHistory[0].Description == "tampered" || again.Courier.Name != "Mike Johnson" {
		t.Fatalf("stored shipment was mutated through a returned copy: %+v", again)
	}

	byTN, err := repo.GetByTrackingNumber(ctx, "UNI987654321")
	if err != nil || byTN.ID != "SH002" {
		t.Fatalf("GetByTrackingNumber = %v, %v", byTN, err)
	}

	if _, err := repo.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing id err = %v", err)
	}
	if _, err := repo.GetByTrackingNumber(ctx, "UNI000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing tracking err = %v", err)
	}
}

func TestMemoryCreateDuplicate(t *testing.T) {
	repo := seededRepo(t)
	dup := MockShipments()[0]
	dup.ID = "SH999"

	if err := repo.Create(context.Background(), dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("duplicate tracking number err = %v", err)
	}
}

func TestMemoryListNewestFirst(t *testing.T) {
	list, err := seededRepo(t).List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 || list[0].ID != "SH003" || list[1].ID != "SH001" || list[2].ID != "SH002" {
		t.Fatalf("unexpected order: %s %s %s", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestMemoryUpdateOptimistic(t *testing.T) {
	ctx := context.Background()
	repo := seededRepo(t)

	first, _ := repo.Get(ctx, "SH003")
	second, _ := repo.Get(ctx, "SH003")

	now := time.Date(2024, 1, 14, 8, 0, 0, 0, time.UTC)
	prev := first.UpdatedAt
	if err := lifecycle.ApplyTransition(first, models.StatusInTransit, nil, "", now); err != nil {
		t.Fatal(err)
	}
	if err := repo.Update(ctx, first, prev); err != nil {
		t.Fatalf("first update: %v", err)
	}

	if err := lifecycle.ApplyTransition(second, models.StatusException, nil, "", now.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := repo.Update(ctx, second, prev); !errors.Is(err, ErrConflict) {
		t.Fatalf("stale update err = %v, want ErrConflict", err)
	}

	stored, _ := repo.Get(ctx, "SH003")
	if stored.Status != models.StatusInTransit || len(stored.TrackingHistory) != 3 {
		t.Fatalf("stored = %s with %d events", stored.Status, len(stored.TrackingHistory))
	}
	if err := lifecycle.CheckHistory(stored); err != nil {
		t.Fatal(err)
	}
}

func TestMemoryUpdateRequiresNewVersion(t *testing.T) {
	ctx := context.Background()
	repo := seededRepo(t)

	s, _ := repo.Get(ctx, "SH003")
	prev := s.UpdatedAt
	if err := lifecycle.ApplyTransition(s, models.StatusInTransit, nil, "", prev); err != nil {
		t.Fatal(err)
	}
	if err := repo.Update(ctx, s, prev); !errors.Is(err, ErrStaleVersion) || !errors.Is(err, ErrConflict) {
		t.Fatalf("same version err = %v, want ErrStaleVersion", err)
	}

	stored, _ := repo.Get(ctx, "SH003")
	if stored.Status != models.StatusPickedUp || !stored.UpdatedAt.Equal(prev) {
		t.Fatalf("stored changed: %s at %v", stored.Status, stored.UpdatedAt)
	}
}

func TestMemoryUpdateKeepsHistoryAppendOnly(t *testing.T) {
	ctx := context.Background()
	repo := seededRepo(t)

	s, _ := repo.Get(ctx, "SH001")
	prev := s.UpdatedAt
	s.TrackingHistory = s.TrackingHistory[:1]
	s.TrackingHistory[0].Description = "rewritten"
	s.CreatedAt = time.Now()
	s.UpdatedAt = prev.Add(time.Hour)

	if err := repo.Update(ctx, s, prev); err != nil {
		t.Fatal(err)
	}

	stored, _ := repo.Get(ctx, "SH001")
	if len(stored.TrackingHistory) != 4 || stored.TrackingHistory[0].Description != "Shipment created and label generated" {
		t.Fatalf("history was rewritten: %+v", stored.TrackingHistory)
	}
	if !stored.CreatedAt.Equal(MockShipments()[0].CreatedAt) {
		t.Fatalf("createdAt changed to %v", stored.CreatedAt)
	}

	if err := repo.Update(ctx, &models.Shipment{ID: "nope"}, prev); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing update err = %v", err)
	}
}
