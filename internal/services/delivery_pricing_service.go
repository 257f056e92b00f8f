package services

import (
	"uniship/internal/config"
	"uniship/internal/lifecycle"
	"uniship/internal/logger"
	"uniship/internal/models"
	"uniship/internal/wizard"
)

// Quote представляет расчет стоимости доставки
type Quote struct {
	Service    models.ServiceTier `json:"service"`
	Weight     float64            `json:"weight"`
	BasePrice  float64            `json:"basePrice"`
	WeightCost float64            `json:"weightCost"`
	TotalCost  float64            `json:"totalCost"`
}

// DeliveryPricingService рассчитывает стоимость доставки по тарифам из конфигурации
type DeliveryPricingService struct {
	catalog lifecycle.Catalog
	log     *logger.Logger
}

// NewDeliveryPricingService создает сервис тарификации
func NewDeliveryPricingService(cfg *config.PricingConfig, log *logger.Logger) *DeliveryPricingService {
	catalog := lifecycle.DefaultCatalog()
	if cfg != nil {
		setPrice(catalog, models.ServiceExpress, cfg.ExpressPrice)
		setPrice(catalog, models.ServiceStandard, cfg.StandardPrice)
		setPrice(catalog, models.ServiceEconomy, cfg.EconomyPrice)
		if cfg.PricePerKg >= 0 {
			catalog.PricePerKg = cfg.PricePerKg
		}
	}

	return &DeliveryPricingService{
		catalog: catalog,
		log:     log,
	}
}

func setPrice(c lifecycle.Catalog, tier models.ServiceTier, price float64) {
	if price > 0 {
		c.BasePrices[tier] = price
	}
}

// Catalog возвращает действующий каталог тарифов
func (s *DeliveryPricingService) Catalog() lifecycle.Catalog {
	return s.catalog
}

// CalculateDeliveryCost рассчитывает стоимость доставки
func (s *DeliveryPricingService) CalculateDeliveryCost(tier models.ServiceTier, weightKg float64) *Quote {
	total := s.catalog.TotalCost(tier, weightKg)
	base := s.catalog.BasePrice(tier)

	s.log.WithFields(map[string]interface{}{
		"service": tier,
		"weight":  weightKg,
		"total":   total,
	}).Debug("Delivery cost calculated")

	return &Quote{
		Service:    tier,
		Weight:     weightKg,
		BasePrice:  base,
		WeightCost: total - base,
		TotalCost:  total,
	}
}

// QuoteForm рассчитывает стоимость по черновику мастера
func (s *DeliveryPricingService) QuoteForm(form wizard.Form) *Quote {
	tier, err := models.ParseServiceTier(string(form.Service))
	if err != nil {
		tier = form.Service
	}
	return s.CalculateDeliveryCost(tier, form.Package.WeightKg())
}
