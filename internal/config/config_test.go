package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %q, want 8080", cfg.Server.Port)
	}
	if cfg.Pricing.StandardPrice != 15.99 {
		t.Errorf("Pricing.StandardPrice = %v, want 15.99", cfg.Pricing.StandardPrice)
	}
	if cfg.Pricing.PricePerKg != 2.0 {
		t.Errorf("Pricing.PricePerKg = %v, want 2", cfg.Pricing.PricePerKg)
	}
	if cfg.Shipments.Store != "postgres" {
		t.Errorf("Shipments.Store = %q, want postgres", cfg.Shipments.Store)
	}
	if !cfg.Cache.Enabled {
		t.Error("Cache.Enabled should default to true")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("PRICING_EXPRESS", "30.5")
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("SHIPMENT_STORE", "memory")
	t.Setenv("SESSION_TTL", "not-a-number")

	cfg := Load()

	if cfg.Server.Port != "9090" {
		t.Errorf("Server.Port = %q, want 9090", cfg.Server.Port)
	}
	if len(cfg.Kafka.Brokers) != 2 || cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("Kafka.Brokers = %v", cfg.Kafka.Brokers)
	}
	if cfg.Pricing.ExpressPrice != 30.5 {
		t.Errorf("Pricing.ExpressPrice = %v, want 30.5", cfg.Pricing.ExpressPrice)
	}
	if cfg.Cache.Enabled {
		t.Error("Cache.Enabled should be false")
	}
	if cfg.Shipments.Store != "memory" {
		t.Errorf("Shipments.Store = %q, want memory", cfg.Shipments.Store)
	}
	if cfg.Session.TTL != 86400 {
		t.Errorf("Session.TTL = %d, want fallback 86400", cfg.Session.TTL)
	}
}
