package httpx

import (
	"log/slog"
	"net/http"
)

// RouterServices holds what the HTTP router needs.
type RouterServices struct {
	Auth AuthServiceInterface

	// Per-IP limits for the login endpoints.
	LoginRate  float64
	LoginBurst int

	Logger *slog.Logger
}

// NewRouter creates the API router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", healthHandler)
	mux.HandleFunc("HEAD /healthz", healthHandler)

	if services.Auth != nil {
		registerAuthRoutes(mux, &AuthHandlers{Svc: services.Auth, Logger: logger}, RateLimitConfig{
			PerSecond: services.LoginRate,
			Burst:     services.LoginBurst,
			Logger:    logger,
		})
	}
	return mux
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, limits RateLimitConfig) {
	limit := RateLimitByIP(limits)
	mux.Handle("POST /api/auth/login", limit(http.HandlerFunc(h.LoginAPI)))
	mux.Handle("POST /api/auth/uis/login", limit(http.HandlerFunc(h.LoginUIS)))
	mux.HandleFunc("GET /api/auth/me", h.Me)
}
