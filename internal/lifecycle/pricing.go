package lifecycle

import (
	"math"
	"time"

	"uniship/internal/models"

	"github.com/google/uuid"
)

const (
	// DefaultPricePerKg - надбавка за килограмм веса
	DefaultPricePerKg = 2.0
	// FallbackBasePrice используется для тарифа, отсутствующего в каталоге
	FallbackBasePrice = 15.99
	// DeliveryWindow - фиксированный срок доставки, не зависящий от тарифа
	DeliveryWindow = 3 * 24 * time.Hour
)

// Catalog представляет каталог тарифов
type Catalog struct {
	BasePrices map[models.ServiceTier]float64
	PricePerKg float64
}

// DefaultCatalog возвращает стандартный каталог тарифов
func DefaultCatalog() Catalog {
	return Catalog{
		BasePrices: map[models.ServiceTier]float64{
			models.ServiceExpress:  25.99,
			models.ServiceStandard: 15.99,
			models.ServiceEconomy:  9.99,
		},
		PricePerKg: DefaultPricePerKg,
	}
}

// BasePrice возвращает базовую цену тарифа
func (c Catalog) BasePrice(tier models.ServiceTier) float64 {
	if price, ok := c.BasePrices[tier]; ok {
		return price
	}
	return FallbackBasePrice
}

// TotalCost рассчитывает стоимость доставки: базовая цена тарифа плюс надбавка за вес
func (c Catalog) TotalCost(tier models.ServiceTier, weightKg float64) float64 {
	if weightKg < 0 || math.IsNaN(weightKg) {
		weightKg = 0
	}
	return c.BasePrice(tier) + weightKg*c.PricePerKg
}

// EstimatedDelivery возвращает расчетную дату доставки
func EstimatedDelivery(createdAt time.Time) time.Time {
	return createdAt.Add(DeliveryWindow)
}

const (
	trackingPrefix   = "UNI"
	trackingLength   = 9
	trackingAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// trackingEntropyBytes - индексы байтов UUID v4 без фиксированных бит версии (6) и варианта (8)
var trackingEntropyBytes = [trackingLength]int{0, 1, 2, 3, 4, 5, 9, 10, 11}

// NewTrackingNumber генерирует номер отслеживания вида UNI + 9 символов [A-Z0-9]
func NewTrackingNumber() string {
	return trackingNumberFrom(uuid.New())
}

func trackingNumberFrom(id uuid.UUID) string {
	buf := make([]byte, 0, len(trackingPrefix)+trackingLength)
	buf = append(buf, trackingPrefix...)
	for _, i := range trackingEntropyBytes {
		buf = append(buf, trackingAlphabet[int(id[i])%len(trackingAlphabet)])
	}
	return string(buf)
}
