package lifecycle

import (
	"math"
	"regexp"
	"testing"
	"time"

	"uniship/internal/models"

	"github.com/google/uuid"
)

func TestTotalCost(t *testing.T) {
	c := DefaultCatalog()

	got := c.TotalCost(models.ServiceStandard, 5)
	want := c.BasePrice(models.ServiceStandard) + 10.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("TotalCost(standard, 5) = %v, want %v", got, want)
	}

	if got := c.TotalCost(models.ServiceExpress, 0); got != 25.99 {
		t.Errorf("express base = %v", got)
	}
	if got := c.TotalCost("overnight", 1); math.Abs(got-(FallbackBasePrice+2)) > 1e-9 {
		t.Errorf("unknown tier cost = %v", got)
	}
	if got := c.TotalCost(models.ServiceEconomy, -3); got != 9.99 {
		t.Errorf("negative weight cost = %v", got)
	}
}

func TestEstimatedDelivery(t *testing.T) {
	now := time.Date(2024, 1, 10, 10, 30, 0, 0, time.UTC)
	if got := EstimatedDelivery(now); !got.Equal(now.Add(72 * time.Hour)) {
		t.Fatalf("EstimatedDelivery = %v", got)
	}
}

func TestNewTrackingNumber(t *testing.T) {
	pattern := regexp.MustCompile(`^UNI[A-Z0-9]{9}$`)
	seen := make(map[string]bool)

	for i := 0; i < 200; i++ {
		tn := NewTrackingNumber()
		if !pattern.MatchString(tn) {
			t.Fatalf("tracking number %q does not match pattern", tn)
		}
		seen[tn] = true
	}
	if len(seen) < 190 {
		t.Fatalf("too many collisions: %d unique of 200", len(seen))
	}
}

func TestTrackingNumberSkipsFixedUUIDBits(t *testing.T) {
	var id uuid.UUID
	for i := range id {
		id[i] = byte(i * 7)
	}
	base := trackingNumberFrom(id)

	fixed := id
	fixed[6], fixed[8] = 0x4f, 0xbf
	if got := trackingNumberFrom(fixed); got != base {
		t.Errorf("version and variant bytes leaked: %s vs %s", got, base)
	}

	random := id
	random[9]++
	if got := trackingNumberFrom(random); got == base {
		t.Errorf("byte 9 not used: %s", got)
	}

	// Каждая позиция должна покрывать почти весь алфавит
	symbols := make([]map[byte]bool, trackingLength)
	for i := range symbols {
		symbols[i] = make(map[byte]bool)
	}
	for i := 0; i < 2000; i++ {
		tn := NewTrackingNumber()
		for pos := range symbols {
			symbols[pos][tn[len(trackingPrefix)+pos]] = true
		}
	}
	for pos, set := range symbols {
		if len(set) < 30 {
			t.Errorf("position %d uses only %d symbols", pos, len(set))
		}
	}
}
