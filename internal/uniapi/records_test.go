package uniapi

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"uniship/internal/lifecycle"
	"uniship/internal/logger"
	"uniship/internal/models"
)

const sampleRecords = `[
  {"shipment_id": 17, "tracking_number": "uni123456789", "package_description": "Electronics - Laptop",
   "status": "pending", "weight": "2.5", "sender_city": "New York", "sender_state": "NY",
   "recipient_city": "Los Angeles", "recipient_state": "CA", "created_at": "2024-01-10T10:30:00.000Z"},
  {"shipment_id": "18", "tracking_number": "UNI987654321", "status": "delivered", "weight": 1.2,
   "recipient_city": "Miami", "recipient_state": "FL", "created_at": "2024-01-05 08:15:00"},
  {"shipment_id": 19, "tracking_number": "UNI000000000", "status": "lost"}
]`

func TestShipmentsAdapter(t *testing.T) {
	var records []ShipmentRecord
	if err := json.Unmarshal([]byte(sampleRecords), &records); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	list := Shipments(records, logger.Discard())
	if len(list) != 2 {
		t.Fatalf("got %d shipments, want 2", len(list))
	}

	first := list[0]
	if first.ID != "17" || first.TrackingNumber != "UNI123456789" {
		t.Errorf("ids = %s %s", first.ID, first.TrackingNumber)
	}
	if first.Status != models.StatusCreated {
		t.Errorf("pending mapped to %s", first.Status)
	}
	if first.Package.Weight != 2.5 || first.Service != models.ServiceStandard {
		t.Errorf("package %+v service %s", first.Package, first.Service)
	}
	if !first.CreatedAt.Equal(time.Date(2024, 1, 10, 10, 30, 0, 0, time.UTC)) {
		t.Errorf("created = %v", first.CreatedAt)
	}
	if first.CurrentLocation.String() != "New York, NY" {
		t.Errorf("location = %v", first.CurrentLocation)
	}

	second := list[1]
	if second.Status != models.StatusDelivered || second.CurrentLocation.String() != "Miami, FL" {
		t.Errorf("second = %s at %v", second.Status, second.CurrentLocation)
	}
	if !second.CreatedAt.Equal(time.Date(2024, 1, 5, 8, 15, 0, 0, time.UTC)) {
		t.Errorf("created = %v", second.CreatedAt)
	}

	for _, s := range list {
		if err := lifecycle.CheckHistory(s); err != nil {
			t.Errorf("%s: %v", s.ID, err)
		}
	}
}

func TestParseRecordStatus(t *testing.T) {
	if s, err := ParseRecordStatus("Pending"); err != nil || s != models.StatusCreated {
		t.Errorf("Pending = %s, %v", s, err)
	}
	if s, err := ParseRecordStatus("out-for-delivery"); err != nil || s != models.StatusOutForDelivery {
		t.Errorf("out-for-delivery = %s, %v", s, err)
	}
	if _, err := ParseRecordStatus("lost"); !errors.Is(err, models.ErrUnknownStatus) {
		t.Errorf("lost err = %v", err)
	}
}

func TestUserRecord(t *testing.T) {
	var rec UserRecord
	if err := json.Unmarshal([]byte(`{"user_id":"9","user_email":" a@b.c ","user_pincode":10001,"role":"admin"}`), &rec); err != nil {
		t.Fatal(err)
	}
	user, err := rec.ToUser()
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != "9" || user.Email != "a@b.c" || user.Role != models.RoleAdmin || user.Address.ZipCode != "10001" {
		t.Errorf("user = %+v", user)
	}

	if _, err := (UserRecord{Role: "superuser"}).ToUser(); !errors.Is(err, models.ErrUnknownRole) {
		t.Errorf("unknown role err = %v", err)
	}
	if user, _ := (UserRecord{}).ToUser(); user.Role != models.RoleUser {
		t.Errorf("default role = %s", user.Role)
	}
}

func TestFlexFloatRejectsGarbage(t *testing.T) {
	var rec ShipmentRecord
	if err := json.Unmarshal([]byte(`{"weight":"heavy"}`), &rec); err == nil {
		t.Error("non-numeric weight accepted")
	}
}
