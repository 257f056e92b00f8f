package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseRole(t *testing.T) {
	cases := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "user", want: RoleUser},
		{in: "ADMIN", want: RoleAdmin},
		{in: "delivery_partner", want: RoleDeliveryPartner},
		{in: "courier", want: RoleDeliveryPartner},
		{in: "driver", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tc := range cases {
		got, err := ParseRole(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownRole) {
				t.Errorf("ParseRole(%q) err = %v, want ErrUnknownRole", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseRole(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
		}
	}
}

func TestUserUnmarshalMigratesLegacyRole(t *testing.T) {
	var u User
	if err := json.Unmarshal([]byte(`{"id":"3","email":"courier@uniship.com","role":"courier"}`), &u); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Role != RoleDeliveryPartner {
		t.Fatalf("role = %q, want delivery_partner", u.Role)
	}

	if err := json.Unmarshal([]byte(`{"role":"superuser"}`), &u); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus(" In-Transit ")
	if err != nil || got != StatusInTransit {
		t.Fatalf("ParseStatus = %q, %v", got, err)
	}
	if _, err := ParseStatus("pending"); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("err = %v, want ErrUnknownStatus", err)
	}
	if StatusOutForDelivery.Label() != "Out for Delivery" {
		t.Errorf("label = %q", StatusOutForDelivery.Label())
	}
}

func TestParseServiceTier(t *testing.T) {
	if tier, err := ParseServiceTier(""); err != nil || tier != ServiceStandard {
		t.Fatalf("empty tier = %q, %v; want standard", tier, err)
	}
	if tier, err := ParseServiceTier("Express"); err != nil || tier != ServiceExpress {
		t.Fatalf("tier = %q, %v; want express", tier, err)
	}
	if _, err := ParseServiceTier("overnight"); err == nil {
		t.Fatal("expected error for unknown tier")
	}
}

func TestShipmentCloneIsDeep(t *testing.T) {
	delivered := time.Date(2024, 1, 8, 16, 45, 0, 0, time.UTC)
	s := &Shipment{
		ID:              "SH002",
		CurrentLocation: &Location{City: "Miami", State: "FL", Coordinates: &Coordinates{Lat: 25.76, Lon: -80.19}},
		ActualDelivery:  &delivered,
		Courier:         &Courier{ID: "3", Name: "Mike Johnson"},
		TrackingHistory: []TrackingEvent{{Seq: 1, Status: StatusCreated}},
	}

	c := s.Clone()
	c.CurrentLocation.City = "Tampa"
	c.CurrentLocation.Coordinates.Lat = 0
	c.Courier.Name = "Other"
	c.TrackingHistory[0].Status = StatusDelivered
	*c.ActualDelivery = time.Time{}

	if s.CurrentLocation.City != "Miami" || s.CurrentLocation.Coordinates.Lat != 25.76 {
		t.Error("location was shared with clone")
	}
	if s.Courier.Name != "Mike Johnson" {
		t.Error("courier was shared with clone")
	}
	if s.TrackingHistory[0].Status != StatusCreated {
		t.Error("history was shared with clone")
	}
	if !s.ActualDelivery.Equal(delivered) {
		t.Error("actual delivery was shared with clone")
	}
}

func TestLocationString(t *testing.T) {
	if got := (Location{City: "Denver", State: "CO"}).String(); got != "Denver, CO" {
		t.Errorf("got %q", got)
	}
	if got := (Location{City: "Denver"}).String(); got != "Denver" {
		t.Errorf("got %q", got)
	}
}
