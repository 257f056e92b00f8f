package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"uniship/internal/config"
	"uniship/internal/logger"
	"uniship/internal/models"
	"uniship/internal/redis"
	"uniship/internal/services"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
)

type stubSessions map[string]*models.User

func (s stubSessions) Get(_ context.Context, token string) (*services.Session, error) {
	if token == "broken" {
		return nil, errors.New("redis down")
	}
	user, ok := s[token]
	if !ok {
		return nil, services.ErrSessionNotFound
	}
	return &services.Session{Token: token, User: user}, nil
}

func whoAmI(w http.ResponseWriter, r *http.Request) {
	user, ok := UserFromContext(r.Context())
	if !ok {
		w.Write([]byte("anonymous"))
		return
	}
	w.Write([]byte(user.ID + ":" + TokenFromContext(r.Context())))
}

func TestSessionMiddleware(t *testing.T) {
	sessions := stubSessions{"tok": {ID: "2", Role: models.RoleUser}}
	h := Session(sessions, logger.Discard())(http.HandlerFunc(whoAmI))

	cases := map[string]string{
		"":        "anonymous",
		"tok":     "2:tok",
		"unknown": "anonymous",
		"broken":  "anonymous",
	}
	for token, want := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if token != "" {
			req.Header.Set("token", token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if got := rec.Body.String(); got != want {
			t.Errorf("token %q: got %q, want %q", token, got, want)
		}
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.1:54321"
	if ip := ClientIP(req); ip != "192.168.1.1" {
		t.Errorf("remote addr ip = %q", ip)
	}

	req.RemoteAddr = "[::1]:8080"
	if ip := ClientIP(req); ip != "::1" {
		t.Errorf("ipv6 ip = %q", ip)
	}

	req.Header.Set("X-Real-IP", "10.1.1.1")
	if ip := ClientIP(req); ip != "10.1.1.1" {
		t.Errorf("real ip = %q", ip)
	}

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	if ip := ClientIP(req); ip != "203.0.113.7" {
		t.Errorf("forwarded ip = %q", ip)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	limiter := services.NewRateLimiterService(redis.NewClient(rdb, logger.Discard()), &config.RateLimitConfig{
		Enabled: true, DefaultRPM: 2, VIPRPM: 5, BanDuration: 60,
	}, logger.Discard())
	h := RateLimitMiddleware(limiter, logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	send := func(ctx context.Context) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/session", nil).WithContext(ctx)
		req.RemoteAddr = "10.0.0.5:1111"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := send(context.Background()); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d code = %d", i, rec.Code)
		}
	}
	rec := send(context.Background())
	if rec.Code != http.StatusTooManyRequests || rec.Header().Get("Retry-After") != "60" {
		t.Fatalf("third request = %d, retry %q", rec.Code, rec.Header().Get("Retry-After"))
	}
	var body map[string]interface{}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil || body["error"] != "rate_limit_exceeded" {
		t.Errorf("body = %v, %v", body, err)
	}

	mr.FlushAll()
	admin := WithUser(context.Background(), &models.User{ID: "1", Role: models.RoleAdmin}, "tok")
	for i := 0; i < 5; i++ {
		if rec := send(admin); rec.Code != http.StatusNoContent {
			t.Fatalf("vip request %d code = %d", i, rec.Code)
		}
	}
	if got := send(admin).Header().Get("X-RateLimit-Limit"); got != "5" {
		t.Errorf("vip limit header = %q", got)
	}
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	log := logger.NewWithOutput(&config.LoggerConfig{Level: "info", Format: "json"}, &buf)

	h := Logging(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/track/UNI1?x=1", nil))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line %q: %v", buf.String(), err)
	}
	if entry["status"] != float64(http.StatusTeapot) || entry["path"] != "/api/track/UNI1?x=1" || entry["bytes"] != float64(15) {
		t.Errorf("entry = %v", entry)
	}
}

func TestCORSPreflight(t *testing.T) {
	called := false
	h := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/shipments", nil))
	if rec.Code != http.StatusOK || called {
		t.Errorf("preflight code %d, handler called %v", rec.Code, called)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "token") {
		t.Errorf("allow headers = %q", rec.Header().Get("Access-Control-Allow-Headers"))
	}
}
