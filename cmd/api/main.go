package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/vehiscan/vehiscan/internal/auth"
	"github.com/vehiscan/vehiscan/internal/background"
	"github.com/vehiscan/vehiscan/internal/config"
	"github.com/vehiscan/vehiscan/internal/database"
	"github.com/vehiscan/vehiscan/internal/guard"
	"github.com/vehiscan/vehiscan/internal/handlers"
	"github.com/vehiscan/vehiscan/internal/middleware"
	"github.com/vehiscan/vehiscan/internal/repositories"
	"github.com/vehiscan/vehiscan/internal/routes"
	"github.com/vehiscan/vehiscan/internal/services"
	"github.com/vehiscan/vehiscan/internal/storage"
	pkghttp "github.com/vehiscan/vehiscan/pkg/http"
	pkglogger "github.com/vehiscan/vehiscan/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Guard state lives in a local bolt file, not in Postgres
	store, err := storage.Open(cfg.Store.Path)
	if err != nil {
		logger.Error("failed to open guard store", slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	// Repositories
	userRepo := repositories.NewUserRepository(db)
	vehicleRepo := repositories.NewVehicleRepository(db)
	scanRepo := repositories.NewScanRepository(db)

	// Guard layer
	limiter := guard.NewRateLimiter(store, guard.RateLimiterConfig{
		FailClosed: cfg.Guard.FailClosed,
	}, logger)
	lockouts := guard.NewLockoutTracker(store, guard.LockoutConfig{
		Threshold: cfg.Guard.LockoutThreshold,
		Duration:  cfg.Guard.LockoutDuration,
	}, logger)

	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.AccessTokenExpiry,
		cfg.Auth.RefreshTokenExpiry,
	)

	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Auth.TimingDelayBaseMs,
		RandomDelayMs: cfg.Auth.TimingDelayRandMs,
	})

	auditLogger := pkglogger.NewAuditLogger(logger)

	var emailService services.EmailService
	if cfg.Email.Enabled {
		sesService, err := services.NewAWSSESEmailService(cfg.Email.AWSRegion, cfg.Email.FromAddress, logger)
		if err != nil {
			logger.Error("failed to initialize email service", slog.Any("error", err))
			os.Exit(1)
		}
		emailService = sesService
	} else {
		emailService = services.NewLogEmailService(logger)
	}

	// Services
	authService := services.NewAuthService(userRepo, lockouts, tokenManager, timingDelay, logger, auditLogger)
	vehicleService := services.NewVehicleService(vehicleRepo, logger)
	scanService := services.NewScanService(vehicleRepo, scanRepo, limiter, cfg.Guard.ScanMaxAttempts, cfg.Guard.ScanWindow, logger, auditLogger)
	reminderService := services.NewReminderService(vehicleRepo, userRepo, emailService, logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	vehicleHandler := handlers.NewVehicleHandler(vehicleService)
	scanHandler := handlers.NewScanHandler(scanService)
	adminHandler := handlers.NewAdminHandler(limiter, lockouts, cfg.Guard.ScanMaxAttempts, cfg.Guard.ScanWindow)

	maintenance := background.NewMaintenanceManager(
		limiter,
		lockouts,
		cfg.Guard.ScanWindow,
		reminderService,
		scanRepo,
		logger,
		cfg.Guard.SweepInterval,
	)

	// Router
	corsConfig := middleware.DefaultCORSConfig(cfg.Server.AllowedOrigins)
	ipConfig := &pkghttp.IPConfig{}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middleware.CORS(corsConfig))
	router.Use(middleware.SecureLogger(logger, ipConfig))
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Timeout(60 * time.Second))

	healthCheck := func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	}

	routes.RegisterRoutes(router, authHandler, vehicleHandler, scanHandler, adminHandler, tokenManager, userRepo, healthCheck)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	maintenanceCtx, maintenanceCancel := context.WithCancel(context.Background())
	defer maintenanceCancel()

	go maintenance.Start(maintenanceCtx)

	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	maintenanceCancel()
	maintenance.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}
