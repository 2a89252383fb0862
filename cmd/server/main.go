package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	appintegration "github.com/invsync/backend/internal/application/integration"
	appinventory "github.com/invsync/backend/internal/application/inventory"
	"github.com/invsync/backend/internal/infrastructure/auth"
	"github.com/invsync/backend/internal/infrastructure/cache"
	"github.com/invsync/backend/internal/infrastructure/config"
	"github.com/invsync/backend/internal/infrastructure/ecommerce"
	"github.com/invsync/backend/internal/infrastructure/logger"
	"github.com/invsync/backend/internal/infrastructure/metrics"
	"github.com/invsync/backend/internal/infrastructure/persistence"
	"github.com/invsync/backend/internal/infrastructure/scheduler"
	"github.com/invsync/backend/internal/infrastructure/telemetry"
	"github.com/invsync/backend/internal/interfaces/http/handler"
	"github.com/invsync/backend/internal/interfaces/http/middleware"
	"github.com/invsync/backend/internal/interfaces/http/router"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

const shutdownTimeout = 30 * time.Second

func main() {
	// .env is optional and never overrides variables already set
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting inventory sync service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.GormLevel))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected")
	if tp.IsEnabled() {
		if err := telemetry.RegisterGormTracing(db.DB, "postgresql", false); err != nil {
			log.Warn("Database tracing disabled", zap.Error(err))
		}
	}

	lock, err := cache.NewSyncLockFactory(cfg.Redis, cache.WithLogger(log)).CreateLock()
	if err != nil {
		log.Fatal("Failed to create sync lock", zap.Error(err))
	}

	recorder := metrics.NewRecorder()

	connector := ecommerce.NewConnector(ecommerce.ClientConfig{
		Timeout:           cfg.Sync.RequestTimeout,
		MaxAttempts:       cfg.Sync.RetryAttempts,
		BaseDelay:         cfg.Sync.RetryBaseDelay,
		DefaultRetryAfter: cfg.Sync.RateLimitDefaultWait,
		RequestsPerSecond: cfg.Sync.RequestsPerSecond,
		UserAgent:         cfg.App.Name + "/" + version,
	}, log, recorder)

	productRepo := persistence.NewGormProductRepository(db.DB)
	inventoryRepo := persistence.NewGormInventoryRepository(db.DB)

	syncService := appintegration.NewSyncService(
		appintegration.Repositories{
			Products:     productRepo,
			Inventory:    inventoryRepo,
			Orders:       persistence.NewGormOrderRepository(db.DB),
			Marketplaces: persistence.NewGormMarketplaceRepository(db.DB),
		},
		connector,
		lock,
		appintegration.SyncDefaults{
			PageSize:          cfg.Sync.PageSize,
			MaxPages:          cfg.Sync.MaxPages,
			LowStockThreshold: cfg.Sync.LowStockThreshold,
			WatermarkPolicy:   appintegration.WatermarkPolicy(cfg.Sync.WatermarkPolicy),
			PushOnAdjust:      cfg.Sync.PushOnAdjust,
			LockTTL:           cfg.Sync.LockTTL,
			JobTimeout:        cfg.Sync.JobTimeout,
		},
		recorder,
		log,
	)

	adjustmentService := appinventory.NewStockAdjustmentService(inventoryRepo, productRepo, syncService, recorder, log)

	var jobs handler.JobHistory
	var syncScheduler *scheduler.SyncScheduler
	if cfg.Sync.SchedulerEnabled {
		syncScheduler, err = scheduler.NewSyncScheduler(scheduler.SyncSchedulerConfig{
			Interval:          cfg.Sync.Interval,
			MaxConcurrentJobs: cfg.Sync.MaxConcurrent,
			JobTimeout:        cfg.Sync.JobTimeout,
			QueueSize:         scheduler.DefaultSyncSchedulerConfig().QueueSize,
			RunOnStart:        true,
		}, syncService, log)
		if err != nil {
			log.Fatal("Invalid scheduler configuration", zap.Error(err))
		}
		if err := syncScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start sync scheduler", zap.Error(err))
		}
		jobs = syncScheduler
	} else {
		log.Info("Sync scheduler disabled")
	}

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
		go limiter.RunCleanup(ctx, time.Minute)
	}

	deps := router.Dependencies{
		HTTP:        cfg.HTTP,
		ServiceName: cfg.App.Name,
		Version:     version,
		Logger:      log,
		Channels:    syncService,
		Jobs:        jobs,
		Adjuster:    adjustmentService,
		DB:          db,
		Tokens:      auth.NewJWTService(cfg.JWT),
		RateLimiter: limiter,
	}
	if cfg.HTTP.MetricsEnabled {
		deps.Metrics = recorder
	}
	engine, err := router.New(deps)
	if err != nil {
		log.Fatal("Failed to build HTTP router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down server...")
	case err := <-serveErr:
		log.Error("Server stopped unexpectedly", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if syncScheduler != nil {
		if err := syncScheduler.Stop(shutdownCtx); err != nil {
			log.Error("Sync scheduler did not stop cleanly", zap.Error(err))
		}
	}
	if closer, ok := lock.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			log.Error("Error closing sync lock", zap.Error(err))
		}
	}
	if err := db.Close(); err != nil {
		log.Error("Error closing database", zap.Error(err))
	}
	if err := tp.Shutdown(shutdownCtx); err != nil {
		log.Error("Error flushing traces", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
