package services

import (
	"context"
	"testing"
	"time"

	"uniship/internal/logger"
	"uniship/internal/models"
)

func TestDashboardSummaryAdmin(t *testing.T) {
	svc := NewDashboardService(seededRepo(t), logger.Discard())
	svc.now = func() time.Time { return time.Date(2024, 1, 8, 20, 0, 0, 0, time.UTC) }

	summary, err := svc.Summary(context.Background(), adminUser)
	if err != nil {
		t.Fatal(err)
	}

	if summary.TotalShipments != 3 {
		t.Errorf("total = %d", summary.TotalShipments)
	}
	if summary.DeliveredToday != 1 {
		t.Errorf("delivered today = %d", summary.DeliveredToday)
	}
	if summary.InTransit != 1 || summary.PendingPickup != 1 {
		t.Errorf("in transit %d, pending pickup %d", summary.InTransit, summary.PendingPickup)
	}
	if summary.StatusCounts[models.StatusDelivered] != 1 || summary.StatusCounts[models.StatusReturned] != 0 {
		t.Errorf("counts = %v", summary.StatusCounts)
	}
	if len(summary.Recent) != 3 || summary.Recent[0].ID != "SH003" {
		t.Errorf("recent = %+v", summary.Recent)
	}
	if summary.Recent[0].Progress != 40 {
		t.Errorf("recent view progress = %v", summary.Recent[0].Progress)
	}
	if len(summary.TopDestinations) != 3 {
		t.Errorf("destinations = %+v", summary.TopDestinations)
	}
	if summary.Pending != nil {
		t.Errorf("admin got courier tasks: %+v", summary.Pending)
	}
}

func TestDashboardSummaryDeliveredTodayUsesCurrentDate(t *testing.T) {
	svc := NewDashboardService(seededRepo(t), logger.Discard())
	svc.now = func() time.Time { return time.Date(2024, 1, 9, 0, 30, 0, 0, time.UTC) }

	summary, err := svc.Summary(context.Background(), adminUser)
	if err != nil {
		t.Fatal(err)
	}
	if summary.DeliveredToday != 0 {
		t.Errorf("delivered today = %d, want 0", summary.DeliveredToday)
	}
}

func TestDashboardSummaryCourier(t *testing.T) {
	svc := NewDashboardService(seededRepo(t), logger.Discard())

	summary, err := svc.Summary(context.Background(), courierUser)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Role != models.RoleDeliveryPartner || summary.TotalShipments != 3 {
		t.Fatalf("summary = %+v", summary)
	}
	if len(summary.Pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(summary.Pending))
	}
	for _, task := range summary.Pending {
		if task.NextAction == nil {
			t.Errorf("%s has no next action", task.ID)
		}
	}

	other, err := svc.Summary(context.Background(), otherCourier)
	if err != nil {
		t.Fatal(err)
	}
	if other.TotalShipments != 0 || len(other.Pending) != 0 || other.Recent == nil {
		t.Errorf("other courier summary = %+v", other)
	}
}

func TestDashboardSummaryRequiresUser(t *testing.T) {
	svc := NewDashboardService(seededRepo(t), logger.Discard())
	if _, err := svc.Summary(context.Background(), nil); err != ErrForbidden {
		t.Errorf("err = %v", err)
	}
}
