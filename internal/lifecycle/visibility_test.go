package lifecycle

import (
	"testing"
	"time"

	"uniship/internal/models"
)

func sampleShipments() []*models.Shipment {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []*models.Shipment{
		{
			ID: "SH001", TrackingNumber: "UNI123456789", Status: models.StatusInTransit,
			Sender:    models.Party{Name: "John Smith", Email: "john.smith@email.com"},
			Recipient: models.Party{Name: "Sarah Johnson", Email: "sarah.johnson@email.com", Address: models.Address{City: "Los Angeles", State: "CA"}},
			Package:   models.Package{Description: "Electronics - Laptop"},
			Courier:   &models.Courier{ID: "3", Name: "Mike Johnson"},
			CreatedAt: base.Add(10 * 24 * time.Hour),
		},
		{
			ID: "SH002", TrackingNumber: "UNI987654321", Status: models.StatusDelivered,
			Sender:    models.Party{Name: "Emily Davis", Email: "emily.davis@email.com"},
			Recipient: models.Party{Name: "Robert Wilson", Email: "robert.wilson@email.com", Address: models.Address{City: "Miami", State: "FL"}},
			Package:   models.Package{Description: "Documents - Legal Papers"},
			Courier:   &models.Courier{ID: "4", Name: "Sarah Williams"},
			CreatedAt: base.Add(5 * 24 * time.Hour),
		},
		{
			ID: "SH003", TrackingNumber: "UNI456789123", Status: models.StatusPickedUp,
			Sender:    models.Party{Name: "Lisa Brown", Email: "lisa.brown@email.com"},
			Recipient: models.Party{Name: "John Smith", Email: "John.Smith@email.com", Address: models.Address{City: "Los Angeles", State: "CA"}},
			Package:   models.Package{Description: "Furniture - Office Chair"},
			CreatedAt: base.Add(13 * 24 * time.Hour),
		},
	}
}

func ids(list []*models.Shipment) map[string]bool {
	set := make(map[string]bool, len(list))
	for _, s := range list {
		set[s.ID] = true
	}
	return set
}

func TestVisibleShipmentsAdmin(t *testing.T) {
	all := sampleShipments()
	got := VisibleShipments(all, &models.User{ID: "1", Role: models.RoleAdmin})

	if len(got) != len(all) {
		t.Fatalf("admin sees %d shipments, want %d", len(got), len(all))
	}
	want := ids(all)
	for id := range ids(got) {
		if !want[id] {
			t.Errorf("unexpected shipment %s", id)
		}
	}
}

func TestVisibleShipmentsCustomer(t *testing.T) {
	all := sampleShipments()
	user := &models.User{ID: "2", Email: "john.smith@email.com", Role: models.RoleUser}

	got := ids(VisibleShipments(all, user))
	if len(got) != 2 || !got["SH001"] || !got["SH003"] {
		t.Fatalf("customer sees %v, want SH001 and SH003", got)
	}
}

func TestVisibleShipmentsDeliveryPartner(t *testing.T) {
	all := sampleShipments()
	user := &models.User{ID: "3", Email: "courier@uniship.com", Role: models.RoleDeliveryPartner}

	got := ids(VisibleShipments(all, user))
	if len(got) != 1 || !got["SH001"] {
		t.Fatalf("courier sees %v, want SH001", got)
	}
}

func TestVisibleShipmentsEdgeCases(t *testing.T) {
	if got := VisibleShipments(nil, &models.User{Role: models.RoleAdmin}); len(got) != 0 {
		t.Fatalf("nil input produced %d shipments", len(got))
	}
	if got := VisibleShipments(sampleShipments(), nil); len(got) != 0 {
		t.Fatalf("nil user sees %d shipments", len(got))
	}
	if got := VisibleShipments(sampleShipments(), &models.User{Role: "courier"}); len(got) != 0 {
		t.Fatalf("unparsed role sees %d shipments", len(got))
	}
	if got := VisibleShipments(sampleShipments(), &models.User{Role: models.RoleUser}); len(got) != 0 {
		t.Fatalf("user without email sees %d shipments", len(got))
	}
}

func TestPermissions(t *testing.T) {
	s := sampleShipments()[0]
	courier := &models.User{ID: "3", Role: models.RoleDeliveryPartner}
	other := &models.User{ID: "4", Role: models.RoleDeliveryPartner}
	sender := &models.User{ID: "9", Email: "john.smith@email.com", Role: models.RoleUser}
	recipient := &models.User{ID: "10", Email: "sarah.johnson@email.com", Role: models.RoleUser}

	if !CanChangeStatus(s, courier) || CanChangeStatus(s, other) || CanChangeStatus(s, sender) {
		t.Error("status permission mismatch")
	}
	if !CanEditDetails(s, sender) || CanEditDetails(s, recipient) || CanEditDetails(s, courier) {
		t.Error("details permission mismatch")
	}
	if !CanEditDetails(s, &models.User{Role: models.RoleAdmin}) {
		t.Error("admin should edit details")
	}
}

func TestSearchAndFilter(t *testing.T) {
	all := sampleShipments()

	if got := ids(Search(all, "laptop")); len(got) != 1 || !got["SH001"] {
		t.Errorf("search laptop = %v", got)
	}
	if got := ids(Search(all, "uni98")); len(got) != 1 || !got["SH002"] {
		t.Errorf("search tracking = %v", got)
	}
	if got := Search(all, "  "); len(got) != 3 {
		t.Errorf("blank search returned %d", len(got))
	}
	if got := ids(FilterByStatus(all, models.StatusDelivered)); len(got) != 1 || !got["SH002"] {
		t.Errorf("filter delivered = %v", got)
	}
}

func TestRecentShipments(t *testing.T) {
	all := sampleShipments()
	recent := RecentShipments(all, 2)

	if len(recent) != 2 || recent[0].ID != "SH003" || recent[1].ID != "SH001" {
		t.Fatalf("recent = %v, %v", recent[0].ID, recent[1].ID)
	}
	if all[0].ID != "SH001" {
		t.Fatal("input order was modified")
	}
}

func TestCountsAndDestinations(t *testing.T) {
	all := sampleShipments()

	counts := CountByStatus(all)
	if counts[models.StatusInTransit] != 1 || counts[models.StatusReturned] != 0 {
		t.Errorf("counts = %v", counts)
	}

	top := TopDestinations(all, 5)
	if len(top) != 2 || top[0].Destination != "Los Angeles, CA" || top[0].Count != 2 {
		t.Fatalf("top destinations = %+v", top)
	}
}
