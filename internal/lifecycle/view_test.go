package lifecycle

import (
	"encoding/json"
	"testing"
	"time"

	"uniship/internal/models"
)

func TestNewView(t *testing.T) {
	s := newShipment(models.StatusInTransit, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC))

	view := NewView(s)
	if view.Progress != 60 {
		t.Errorf("progress = %v, want 60", view.Progress)
	}
	if view.StatusLabel != "In Transit" {
		t.Errorf("label = %q", view.StatusLabel)
	}
	if view.NextStatus != models.StatusOutForDelivery {
		t.Errorf("next status = %s", view.NextStatus)
	}
	if view.NextAction == nil || view.NextAction.Label != "Start Delivery" {
		t.Errorf("next action = %+v", view.NextAction)
	}

	raw, err := json.Marshal(view)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded["trackingNumber"] != "UNI000000001" || decoded["progress"] != 60.0 {
		t.Errorf("embedded fields not flattened: %s", raw)
	}
}

func TestNewViewTerminal(t *testing.T) {
	s := newShipment(models.StatusDelivered, time.Now())
	view := NewView(s)
	if view.NextAction != nil || view.NextStatus != "" {
		t.Errorf("delivered shipment has next action %+v", view.NextAction)
	}
	if view.Progress != 100 {
		t.Errorf("progress = %v", view.Progress)
	}

	if views := Views(nil); views == nil || len(views) != 0 {
		t.Errorf("Views(nil) = %v, want empty slice", views)
	}
}
