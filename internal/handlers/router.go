package handlers

import (
	"net/http"

	"uniship/internal/logger"
	"uniship/internal/middleware"
	"uniship/internal/services"
)

// Router содержит зависимости HTTP маршрутов
type Router struct {
	Health     *HealthHandler
	Shipments  *ShipmentHandler
	Dashboard  *DashboardHandler
	Accounts   *AccountHandler
	Cache      *CacheHandler
	RateLimits *RateLimitHandler

	Sessions    middleware.SessionStore
	RateLimiter *services.RateLimiterService
	Log         *logger.Logger
}

// Handler собирает маршруты и оборачивает их в CORS, журнал и сессию
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()

	limited := func(h http.HandlerFunc) http.Handler {
		if rt.RateLimiter == nil {
			return h
		}
		return middleware.RateLimitMiddleware(rt.RateLimiter, rt.Log)(h)
	}

	// Health check endpoints
	mux.HandleFunc("GET /health", rt.Health.Health)
	mux.HandleFunc("GET /health/readiness", rt.Health.Readiness)
	mux.HandleFunc("GET /health/liveness", rt.Health.Liveness)

	// Session and account endpoints
	mux.Handle("POST /api/session", limited(rt.Accounts.SignIn))
	mux.HandleFunc("DELETE /api/session", rt.Accounts.SignOut)
	mux.Handle("POST /api/signup", limited(rt.Accounts.SignUp))
	mux.HandleFunc("POST /api/account/password", rt.Accounts.ChangePassword)
	mux.HandleFunc("POST /api/account/delete", rt.Accounts.DeleteAccount)
	mux.HandleFunc("GET /api/profile", rt.Accounts.GetProfile)
	mux.HandleFunc("PUT /api/profile", rt.Accounts.UpdateProfile)
	mux.HandleFunc("GET /api/profile/theme", rt.Accounts.GetTheme)
	mux.HandleFunc("PUT /api/profile/theme", rt.Accounts.SetTheme)
	mux.HandleFunc("GET /api/my-shipments", rt.Accounts.MyShipments)

	// Shipment endpoints
	mux.HandleFunc("GET /api/shipments", rt.Shipments.GetShipments)
	mux.HandleFunc("POST /api/shipments", rt.Shipments.CreateShipment)
	mux.HandleFunc("POST /api/shipments/validate", rt.Shipments.ValidateStep)
	mux.HandleFunc("GET /api/shipments/quote", rt.Shipments.GetQuote)
	mux.HandleFunc("GET /api/shipments/{id}", rt.Shipments.GetShipment)
	mux.HandleFunc("PUT /api/shipments/{id}/status", rt.Shipments.UpdateShipmentStatus)
	mux.HandleFunc("POST /api/shipments/{id}/assign", rt.Shipments.AssignCourier)
	mux.HandleFunc("PUT /api/shipments/{id}/details", rt.Shipments.UpdateShipmentDetails)
	mux.HandleFunc("GET /api/track/{trackingNumber}", rt.Shipments.TrackShipment)

	mux.HandleFunc("GET /api/dashboard", rt.Dashboard.GetDashboard)

	// Service endpoints
	if rt.Cache != nil {
		mux.HandleFunc("GET /api/cache/metrics", rt.Cache.GetMetrics)
		mux.HandleFunc("DELETE /api/cache/shipments/{id}", rt.Cache.InvalidateShipment)
	}
	if rt.RateLimits != nil {
		mux.HandleFunc("GET /api/rate-limit/status", rt.RateLimits.GetStatus)
	}

	var h http.Handler = mux
	h = middleware.Session(rt.Sessions, rt.Log)(h)
	h = middleware.Logging(rt.Log)(h)
	return middleware.CORS(h)
}
