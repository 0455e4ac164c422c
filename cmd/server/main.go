package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appinventory "github.com/o4o-platform/inventory-engine/internal/application/inventory"
	"github.com/o4o-platform/inventory-engine/internal/infrastructure/config"
	"github.com/o4o-platform/inventory-engine/internal/infrastructure/event"
	"github.com/o4o-platform/inventory-engine/internal/infrastructure/logger"
	"github.com/o4o-platform/inventory-engine/internal/infrastructure/notification"
	"github.com/o4o-platform/inventory-engine/internal/infrastructure/persistence"
	"github.com/o4o-platform/inventory-engine/internal/infrastructure/scheduler"
	"github.com/o4o-platform/inventory-engine/internal/infrastructure/telemetry"
	"github.com/o4o-platform/inventory-engine/internal/interfaces/http/handler"
	"github.com/o4o-platform/inventory-engine/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting inventory engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Initialize tracing; a disabled provider is a no-op
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.App.Name,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := tracerProvider.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	// Initialize database connection with zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	if tracerProvider.IsEnabled() {
		if err := telemetry.RegisterDBTracing(db.DB, cfg.Database.DBName, false, log); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
	}

	// Initialize Redis; alerting degrades to log-only when unreachable
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing redis client", zap.Error(err))
		}
	}()

	// Initialize repositories
	itemRepo := persistence.NewGormItemRepository(db.DB)
	movementRepo := persistence.NewGormMovementRepository(db.DB)
	ruleRepo := persistence.NewGormRuleRepository(db.DB)
	alertRepo := persistence.NewGormAlertRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize notification dispatch
	var notifier appinventory.Notifier
	var redisNotifier *notification.RedisNotifier
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	redisErr := redisClient.Ping(pingCtx).Err()
	cancelPing()
	if redisErr != nil {
		log.Warn("Redis unreachable, alert notifications will only be logged", zap.Error(redisErr))
		notifier = notification.NewLogNotifier(log)
	} else {
		redisNotifier = notification.NewRedisNotifier(
			redisClient, cfg.Notification.Channel, cfg.Notification.QueueSize, log)
		notifier = redisNotifier
		defer redisNotifier.Close()
	}

	var purchaser appinventory.PurchaseRequester
	if redisErr == nil {
		purchaser = notification.NewRedisPurchaseRequester(redisClient, "", log)
	}

	// Initialize application services
	alertService := appinventory.NewAlertService(alertRepo, itemRepo, notifier, eventBus, log)
	itemService := appinventory.NewItemService(itemRepo, log)
	ledgerService := appinventory.NewLedgerService(txScope, itemRepo, eventBus, log)
	queryService := appinventory.NewQueryService(itemRepo, log)
	analyticsService := appinventory.NewAnalyticsService(itemRepo, movementRepo, log)
	reorderService := appinventory.NewReorderService(ruleRepo, itemRepo, alertService, purchaser, eventBus, log)
	monitorService := appinventory.NewMonitorService(itemRepo, alertService, appinventory.MonitorConfig{
		ExpiryWarningDays: cfg.Alerting.ExpiryWarningDays,
		DeadStockAge:      time.Duration(cfg.Alerting.DeadStockDays) * 24 * time.Hour,
	}, log)

	// Initialize the background job engine
	engine := scheduler.NewEngine(scheduler.RealClock{}, log)
	registerJobs(engine, cfg, monitorService, reorderService, analyticsService, alertService, log)
	if cfg.Scheduler.Enabled {
		if err := engine.Start(context.Background()); err != nil {
			log.Fatal("Failed to start scheduler", zap.Error(err))
		}
		log.Info("Scheduler started",
			zap.Duration("level_check_interval", cfg.Scheduler.LevelCheckInterval),
			zap.Duration("reorder_interval", cfg.Scheduler.ReorderInterval),
		)
	}

	// Initialize HTTP handlers and router
	inventoryHandler := handler.NewInventoryHandler(itemService, ledgerService, queryService, analyticsService)
	alertHandler := handler.NewAlertHandler(alertService)
	reorderHandler := handler.NewReorderHandler(reorderService)
	systemHandler := handler.NewSystemHandler(db, engine)

	ginEngine := router.New(cfg, log, router.Handlers{
		Inventory: inventoryHandler,
		Alerts:    alertHandler,
		Reorders:  reorderHandler,
		System:    systemHandler,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        ginEngine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Scheduler.StopTimeout)
	defer cancel()

	if cfg.Scheduler.Enabled {
		if err := engine.Stop(shutdownCtx); err != nil {
			log.Error("Scheduler did not stop cleanly", zap.Error(err))
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server did not stop cleanly", zap.Error(err))
	}
	log.Info("Shutdown complete")
}

// registerJobs wires every periodic job onto the engine. Registration failures
// are programming errors, so they are fatal.
func registerJobs(
	engine *scheduler.Engine,
	cfg *config.Config,
	monitor *appinventory.MonitorService,
	reorders *appinventory.ReorderService,
	analytics *appinventory.AnalyticsService,
	alerts *appinventory.AlertService,
	log *zap.Logger,
) {
	// traced wraps a job body in a span so scheduled runs show up in traces
	// alongside their database spans. With telemetry disabled the span is a
	// no-op.
	traced := func(name string, run func(ctx context.Context) (int, int, error)) func(ctx context.Context) (int, int, error) {
		spanName := "job." + name
		return func(ctx context.Context) (int, int, error) {
			ctx, span := telemetry.StartSpan(ctx, spanName)
			defer span.End()
			processed, failed, err := run(ctx)
			telemetry.SetAttribute(span, "processed", processed)
			telemetry.SetAttribute(span, "failed", failed)
			telemetry.RecordError(span, err)
			return processed, failed, err
		}
	}

	jobs := []scheduler.Job{
		{
			Name:     "level-check",
			Interval: cfg.Scheduler.LevelCheckInterval,
			Run: traced("level-check", func(ctx context.Context) (int, int, error) {
				processed, failed := monitor.LevelCheck(ctx)
				return processed, failed, nil
			}),
		},
		{
			Name:     "reorder-evaluation",
			Interval: cfg.Scheduler.ReorderInterval,
			Run: traced("reorder-evaluation", func(ctx context.Context) (int, int, error) {
				fired, failed := reorders.EvaluateAll(ctx)
				return fired, failed, nil
			}),
		},
		{
			Name:       "analytics-refresh",
			Interval:   cfg.Scheduler.AnalyticsInterval,
			RunOnStart: true,
			Run: traced("analytics-refresh", func(ctx context.Context) (int, int, error) {
				processed, failed := analytics.RefreshAll(ctx)
				return processed, failed, nil
			}),
		},
		{
			Name:     "dead-stock-scan",
			Interval: cfg.Scheduler.DeadStockInterval,
			Run: traced("dead-stock-scan", func(ctx context.Context) (int, int, error) {
				flagged, failed := monitor.DeadStockScan(ctx)
				return flagged, failed, nil
			}),
		},
		{
			Name:     "alert-sweep",
			Interval: cfg.Scheduler.AlertSweepInterval,
			Run: traced("alert-sweep", func(ctx context.Context) (int, int, error) {
				resolved, failed := alerts.AutoResolveSweep(ctx)
				return resolved, failed, nil
			}),
		},
	}
	for _, job := range jobs {
		if err := engine.Register(job); err != nil {
			log.Fatal("Failed to register job", zap.String("job", job.Name), zap.Error(err))
		}
	}
}
