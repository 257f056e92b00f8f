package services

import (
	"context"
	"testing"

	"uniship/internal/config"
	"uniship/internal/logger"
)

func TestRateLimiterBansAfterLimit(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestRedis(t)
	svc := NewRateLimiterService(client, &config.RateLimitConfig{
		Enabled: true, DefaultRPM: 3, VIPRPM: 10, BanDuration: 120,
	}, logger.Discard())

	for i := 1; i <= 3; i++ {
		res, err := svc.CheckLimit(ctx, "10.0.0.1", false)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed || res.Remaining != 3-i {
			t.Fatalf("request %d: %+v", i, res)
		}
	}

	res, _ := svc.CheckLimit(ctx, "10.0.0.1", false)
	if res.Allowed || res.RetryAfter != 120 {
		t.Fatalf("fourth request = %+v", res)
	}
	if !mr.Exists("rate_limit:ban:10.0.0.1") {
		t.Error("ban key missing")
	}

	status, _ := svc.GetStatus(ctx, "10.0.0.1", false)
	if status.Allowed || status.RetryAfter <= 0 {
		t.Errorf("status while banned = %+v", status)
	}

	other, _ := svc.CheckLimit(ctx, "10.0.0.2", false)
	if !other.Allowed {
		t.Error("ban leaked to another address")
	}

	if err := svc.ResetLimit(ctx, "10.0.0.1"); err != nil {
		t.Fatal(err)
	}
	res, _ = svc.CheckLimit(ctx, "10.0.0.1", false)
	if !res.Allowed || res.Remaining != 2 {
		t.Errorf("after reset = %+v", res)
	}
}

func TestRateLimiterVIPAndDisabled(t *testing.T) {
	ctx := context.Background()
	client, _ := newTestRedis(t)
	cfg := &config.RateLimitConfig{Enabled: true, DefaultRPM: 1, VIPRPM: 5, BanDuration: 60}
	svc := NewRateLimiterService(client, cfg, logger.Discard())

	for i := 0; i < 5; i++ {
		if res, _ := svc.CheckLimit(ctx, "10.0.0.3", true); !res.Allowed || res.Limit != 5 {
			t.Fatalf("vip request %d = %+v", i, res)
		}
	}

	status, _ := svc.GetStatus(ctx, "10.0.0.4", false)
	if !status.Allowed || status.Remaining != 1 || !status.ResetAt.IsZero() {
		t.Errorf("fresh status = %+v", status)
	}

	cfg.Enabled = false
	for i := 0; i < 10; i++ {
		if res, _ := svc.CheckLimit(ctx, "10.0.0.4", false); !res.Allowed {
			t.Fatal("disabled limiter rejected request")
		}
	}
}
