package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vehiscan/vehiscan/internal/auth"
	"github.com/vehiscan/vehiscan/internal/handlers"
	"github.com/vehiscan/vehiscan/internal/middleware"
	"github.com/vehiscan/vehiscan/internal/repositories"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	vehicleHandler *handlers.VehicleHandler,
	scanHandler *handlers.ScanHandler,
	adminHandler *handlers.AdminHandler,
	tokenManager *auth.TokenManager,
	userRepo *repositories.UserRepository,
	healthCheck http.HandlerFunc,
) {
	// Per-IP rate limiting for unauthenticated endpoints
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	router.Get("/health", healthCheck)

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", authHandler.Login)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/register", authHandler.Register)
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/refresh", authHandler.Refresh)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokenManager))

		r.Post("/vehicles", vehicleHandler.Register)
		r.Get("/vehicles", vehicleHandler.List)
		r.Get("/vehicles/{id}", vehicleHandler.Get)
		r.Post("/vehicles/{id}/renew", vehicleHandler.Renew)
		r.Delete("/vehicles/{id}", vehicleHandler.Delete)
		r.Get("/vehicles/{id}/qr", vehicleHandler.QRCode)

		r.Post("/scan", scanHandler.Scan)
		r.Get("/scan/quota", scanHandler.Quota)
		r.Get("/scan/history", scanHandler.History)

		// Admin-only guard maintenance
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(userRepo, "admin"))
			r.Post("/admin/guard/rate-limits/reset", adminHandler.ResetRateLimit)
			r.Delete("/admin/guard/rate-limits", adminHandler.ClearAllRateLimits)
			r.Get("/admin/guard/rate-limits/status", adminHandler.RateLimitStatus)
			r.Post("/admin/guard/unlock", adminHandler.Unlock)
		})
	})
}
