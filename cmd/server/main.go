package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/app"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/config"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/logger"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/telemetry"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/handler"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/middleware"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/router"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting tracker",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Telemetry: traces, metrics, logs and profiles. Disabled providers are no-ops.
	providers, err := telemetry.Setup(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
		MetricsEnabled:    cfg.Telemetry.MetricsEnabled,
		LogsEnabled:       cfg.Telemetry.LogsEnabled,
		ProfilingEnabled:  cfg.Telemetry.ProfilingEnabled,
		PyroscopeURL:      cfg.Telemetry.PyroscopeURL,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := providers.Shutdown(ctx); err != nil {
			log.Error("Error shutting down telemetry", zap.Error(err))
		}
	}()
	if providers.Logs.IsEnabled() {
		log = log.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
			return zapcore.NewTee(core, providers.Logs.ZapCore(zapcore.InfoLevel))
		}))
	}

	meter := providers.Meter.Meter(telemetry.TracerName)
	metrics, err := telemetry.NewMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create metrics", zap.Error(err))
	}

	// Database, cache, clients and services
	wire, err := app.NewWire(cfg, metrics, log)
	if err != nil {
		log.Fatal("Failed to initialize tracker", zap.Error(err))
	}
	defer func() {
		if err := wire.Close(); err != nil {
			log.Error("Error closing resources", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := wire.Rows.Warm(ctx, cfg.Tracker.Languages); err != nil {
		log.Warn("Failed to warm ticket rows cache", zap.Error(err))
	}

	// Background work: wiki media tasks and the notification digest
	digest := wire.DigestTrigger(log.Named("digest"))
	if cfg.Tasks.Enabled {
		if err := wire.Tasks.Start(ctx); err != nil {
			log.Fatal("Failed to start task scheduler", zap.Error(err))
		}
		if err := digest.Start(ctx); err != nil {
			log.Fatal("Failed to start digest trigger", zap.Error(err))
		}
	}

	// HTTP handlers
	handlers := &handler.Handlers{
		Auth:      handler.NewAuthHandler(wire.Auth),
		Users:     handler.NewUserHandler(wire.Users),
		Grants:    handler.NewGrantHandler(wire.Grants),
		Tickets:   handler.NewTicketHandler(wire.Tickets, wire.Rows),
		Watch:     handler.NewWatchHandler(wire.Watch),
		Comments:  handler.NewCommentHandler(wire.Comments),
		Media:     handler.NewMediaHandler(wire.Media),
		Documents: handler.NewDocumentHandler(wire.Documents),
		Expenses:  handler.NewExpenseHandler(wire.Expenses),
		Payments:  handler.NewPaymentHandler(wire.Payments),
		Reports:   handler.NewReportHandler(wire.Reports),
		Export:    handler.NewExportHandler(wire.Export),
		Import:    handler.NewImportHandler(wire.Import),
		Mediawiki: handler.NewMediawikiHandler(wire.Wiki, wire.Repos.Profiles),
		Health: handler.NewHealthHandler(version, map[string]handler.HealthCheck{
			"database": wire.DB.Ping,
			"cache":    wire.CacheCheck,
		}),
	}

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Tracing, metrics and profiling labels
	// 5. Security - Add security headers
	// 6. CORS - Handle cross-origin requests
	// 7. BodyLimit - Limit request body size
	// 8. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     providers.Tracer.IsEnabled(),
	}))
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(meter))
	engine.Use(middleware.ProfilingWithConfig(middleware.ProfilingConfig{
		Enabled:   providers.Profiler.IsEnabled(),
		SkipPaths: []string{"/health"},
	}))
	security := middleware.DefaultSecurityConfig()
	if cfg.App.Env == "production" {
		security.HSTSMaxAge = 365 * 24 * 60 * 60
	}
	engine.Use(middleware.SecureWithConfig(security))
	engine.Use(middleware.CORSWithConfig(middleware.NewCORSConfig(
		cfg.HTTP.CORSAllowOrigins, cfg.HTTP.CORSAllowMethods, cfg.HTTP.CORSAllowHeaders)))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		handlers.AuthLimiter = middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.RateLimitWindow)
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Int("auth_requests", cfg.HTTP.AuthRateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Most reads are public, so the token is optional; routes that need a
	// user add RequireAuth.
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	jwtConfig := middleware.DefaultJWTConfig(wire.JWT, wire.Repos.Users)
	jwtConfig.Optional = true
	jwtConfig.TokenBlacklist = wire.Tokens
	jwtConfig.Logger = log
	r.Use(
		middleware.JWTAuthMiddlewareWithConfig(jwtConfig),
		middleware.TracingAttributeInjector(),
	)
	handlers.Register(engine, r)
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := digest.Stop(shutdownCtx); err != nil {
		log.Warn("Digest trigger did not stop cleanly", zap.Error(err))
	}
	if err := wire.Tasks.Stop(shutdownCtx); err != nil {
		log.Warn("Task scheduler did not stop cleanly", zap.Error(err))
	}
	stop()

	log.Info("Server exited gracefully")
}
