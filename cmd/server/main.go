package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	admissionapp "github.com/ftzops/backend/internal/application/admission"
	eventapp "github.com/ftzops/backend/internal/application/event"
	ledgerapp "github.com/ftzops/backend/internal/application/ledger"
	lotapp "github.com/ftzops/backend/internal/application/lot"
	shipmentapp "github.com/ftzops/backend/internal/application/shipment"
	domain "github.com/ftzops/backend/internal/domain/lot"
	"github.com/ftzops/backend/internal/domain/shared"
	"github.com/ftzops/backend/internal/infrastructure/auth"
	"github.com/ftzops/backend/internal/infrastructure/cache"
	"github.com/ftzops/backend/internal/infrastructure/config"
	"github.com/ftzops/backend/internal/infrastructure/event"
	"github.com/ftzops/backend/internal/infrastructure/lock"
	"github.com/ftzops/backend/internal/infrastructure/logger"
	"github.com/ftzops/backend/internal/infrastructure/persistence"
	"github.com/ftzops/backend/internal/infrastructure/scheduler"
	"github.com/ftzops/backend/internal/infrastructure/storage"
	"github.com/ftzops/backend/internal/infrastructure/telemetry"
	"github.com/ftzops/backend/internal/interfaces/http/handler"
	"github.com/ftzops/backend/internal/interfaces/http/middleware"
	"github.com/ftzops/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

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
		_ = logger.Sync(log)
	}()

	log.Info("Starting FTZ Lot Ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Telemetry providers (no-op when disabled)
	ctx := context.Background()
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := meterProvider.Shutdown(shutdownCtx); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Register query tracing on the GORM connection
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		dbTracingCfg := telemetry.DefaultDBTracingConfig()
		dbTracingCfg.Enabled = true
		dbTracing := telemetry.NewDBTracingPlugin(dbTracingCfg, log)
		if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
			log.Fatal("Failed to register database tracing", zap.Error(err))
		}
		log.Info("Database tracing enabled")
	}

	// Per-lot mutation guard. The Redis lease guard is required when more
	// than one instance serves the zone; the local guard is for single-node
	// and development setups.
	var guard domain.Guard
	var redisClient *redis.Client
	if cfg.Guard.Backend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Error closing Redis client", zap.Error(err))
			}
		}()
		guard = lock.NewRedisLotGuard(redisClient, lock.RedisGuardConfig{
			LeaseTTL:     cfg.Guard.LeaseTTL,
			MaxWait:      cfg.Guard.WaitTimeout,
			PollInterval: cfg.Guard.PollInterval,
		})
		log.Info("Redis lot guard initialized",
			zap.Duration("lease_ttl", cfg.Guard.LeaseTTL),
			zap.Duration("wait_timeout", cfg.Guard.WaitTimeout),
		)
	} else {
		guard = lock.NewLocalLotGuard(cfg.Guard.WaitTimeout)
		log.Info("Local lot guard initialized",
			zap.Duration("wait_timeout", cfg.Guard.WaitTimeout),
		)
	}

	// Initialize repositories
	lotRepo := persistence.NewGormLotRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	preadmissionRepo := persistence.NewGormPreadmissionRepository(db.DB)
	preshipmentRepo := persistence.NewGormPreshipmentRepository(db.DB)
	entrySummaryRepo := persistence.NewGormEntrySummaryRepository(db.DB)
	documentRepo := persistence.NewGormDocumentRepository(db.DB)
	partLookup := persistence.NewGormPartLookup(db.DB)
	customerLookup := persistence.NewGormCustomerLookup(db.DB)
	locationLookup := persistence.NewGormLocationLookup(db.DB)
	sweepRunRepo := scheduler.NewSweepRunRepository(db.DB)
	lotMetricsRepo := persistence.NewGormLotMetricsRepository(db.DB)

	// All ledger mutations run inside one gorm transaction scope
	txScope := persistence.NewGormLedgerTransactionScope(db.DB)

	// Initialize application services
	ledgerService := ledgerapp.NewLedgerService(txScope, guard, lotRepo, transactionRepo)
	lotService := lotapp.NewService(txScope, guard, lotRepo, transactionRepo, log)
	admissionService := admissionapp.NewService(txScope, preadmissionRepo, customerLookup, partLookup, locationLookup, log)
	shipmentService := shipmentapp.NewService(ledgerService, txScope, preshipmentRepo, lotRepo, log)
	entrySummaryService := shipmentapp.NewEntrySummaryService(entrySummaryRepo)
	reconciliationService := ledgerapp.NewReconciliationService(lotRepo, transactionRepo, log)

	// Lot document storage. Falls back to the stub when no credentials are
	// configured so development setups boot without an object store.
	var objectStorage lotapp.ObjectStorageService
	if cfg.Storage.AccessKeyID != "" {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3Storage.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to ensure document bucket", zap.Error(err))
		}
		objectStorage = s3Storage
		log.Info("S3 object storage initialized",
			zap.String("bucket", cfg.Storage.Bucket),
			zap.String("region", cfg.Storage.Region),
		)
	} else {
		objectStorage = storage.NewStubObjectStorage()
		log.Warn("Object storage credentials not configured, using stub storage")
	}
	documentService := lotapp.NewDocumentService(documentRepo, lotRepo, objectStorage)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Event publisher: direct in-process dispatch, or the transactional
	// outbox with a background processor when durable delivery is enabled
	var eventPublisher shared.EventPublisher = eventBus
	var outboxRepo shared.OutboxRepository
	if cfg.Event.OutboxEnabled {
		serializer := event.NewEventSerializer()
		serializer.Register(domain.EventTypeLotCreated, &domain.LotCreatedEvent{})
		serializer.Register(domain.EventTypeLotQuantityChanged, &domain.LotQuantityChangedEvent{})
		serializer.Register(domain.EventTypeLotStatusChanged, &domain.LotStatusChangedEvent{})
		serializer.Register(domain.EventTypeLotDepleted, &domain.LotDepletedEvent{})
		serializer.Register(domain.EventTypeLotVoided, &domain.LotVoidedEvent{})
		serializer.Register(domain.EventTypePreadmissionProcessed, &domain.PreadmissionProcessedEvent{})
		serializer.Register(domain.EventTypePreshipmentAllocated, &domain.PreshipmentAllocatedEvent{})

		outboxRepo = event.NewGormOutboxRepository(db.DB)
		eventPublisher = event.NewOutboxPublisher(db.DB, serializer)

		processor := event.NewOutboxProcessor(outboxRepo, eventBus, serializer, event.OutboxProcessorConfig{
			BatchSize:        cfg.Event.BatchSize,
			PollInterval:     cfg.Event.PollInterval,
			CleanupEnabled:   true,
			CleanupRetention: cfg.Event.CleanupRetention,
			CleanupInterval:  time.Hour,
		}, log)
		if err := processor.Start(ctx); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := processor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Transactional outbox enabled",
			zap.Duration("poll_interval", cfg.Event.PollInterval),
			zap.Int("batch_size", cfg.Event.BatchSize),
		)
	}

	// Inject the publisher into services that emit domain events
	ledgerService.SetEventPublisher(eventPublisher)
	lotService.SetEventPublisher(eventPublisher)
	admissionService.SetEventPublisher(eventPublisher)
	shipmentService.SetEventPublisher(eventPublisher)

	// Ledger metrics fed from domain events plus periodic aggregates
	if meterProvider.IsEnabled() {
		ledgerMetrics, err := telemetry.NewLedgerMetrics(telemetry.LedgerMetricsConfig{
			Meter:       meterProvider.Meter("ftz.ledger"),
			Logger:      log,
			LotProvider: lotMetricsRepo,
		})
		if err != nil {
			log.Fatal("Failed to initialize ledger metrics", zap.Error(err))
		}
		var metricsHandler shared.EventHandler = telemetry.NewLedgerMetricsHandler(ledgerMetrics, lotRepo, log)
		if cfg.Event.OutboxEnabled {
			// The outbox delivers at least once; keep counters exact
			idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore()
			if err != nil {
				log.Fatal("Failed to create idempotency store", zap.Error(err))
			}
			defer idempotencyStore.Close()
			metricsHandler = event.NewIdempotentHandler(metricsHandler, idempotencyStore, log)
		}
		eventBus.Subscribe(metricsHandler)
		ledgerMetrics.StartPeriodicCollection(ctx, 5*time.Minute)
		defer ledgerMetrics.Stop()
		log.Info("Ledger metrics collection started")
	}

	// Reconciliation sweep scheduler
	sweeper := scheduler.NewReconciliationScheduler(scheduler.ReconciliationSchedulerConfig{
		Enabled:      cfg.Reconciliation.Enabled,
		CronSchedule: cfg.Reconciliation.CronSchedule,
		JobTimeout:   cfg.Reconciliation.JobTimeout,
	}, reconciliationService, sweepRunRepo, log)
	if cfg.Reconciliation.Enabled {
		if err := sweeper.Start(ctx); err != nil {
			log.Fatal("Failed to start reconciliation scheduler", zap.Error(err))
		}
		defer func() {
			if err := sweeper.Stop(context.Background()); err != nil {
				log.Error("Error stopping reconciliation scheduler", zap.Error(err))
			}
		}()
		log.Info("Reconciliation scheduler started",
			zap.String("cron_schedule", cfg.Reconciliation.CronSchedule),
			zap.Duration("job_timeout", cfg.Reconciliation.JobTimeout),
		)
	}

	// JWT service for principal authentication
	jwtService := auth.NewJWTService(cfg.JWT)

	// Token revocation store: Redis when reachable so revocations apply
	// across instances, in-memory otherwise
	var tokenRevocations auth.TokenRevocations
	if redisRevocations, err := auth.NewRedisTokenRevocations(cfg.Redis); err != nil {
		log.Warn("Redis unavailable for token revocations, using in-memory store", zap.Error(err))
		tokenRevocations = auth.NewInMemoryTokenRevocations()
	} else {
		tokenRevocations = redisRevocations
		defer redisRevocations.Close()
	}

	// Initialize HTTP handlers
	lotHandler := handler.NewLotHandler(lotService)
	ledgerHandler := handler.NewLedgerHandler(ledgerService, lotService)
	admissionHandler := handler.NewAdmissionHandler(admissionService)
	shipmentHandler := handler.NewShipmentHandler(shipmentService)
	entrySummaryHandler := handler.NewEntrySummaryHandler(entrySummaryService, shipmentService)
	documentHandler := handler.NewDocumentHandler(documentService)
	reconciliationHandler := handler.NewReconciliationHandler(reconciliationService, sweeper)
	systemHandler := handler.NewSystemHandler()
	authHandler := handler.NewAuthHandler(tokenRevocations, cfg.JWT.AccessTokenExpiration, log)

	var outboxHandler *handler.OutboxHandler
	if cfg.Event.OutboxEnabled {
		outboxHandler = handler.NewOutboxHandler(eventapp.NewOutboxService(outboxRepo, log))
	}

	// Lot event stream (SSE) fed from the event bus
	lotStreamHandler := handler.NewLotStreamHandler(eventBus, handler.WithStreamLogger(log))
	if err := lotStreamHandler.Start(); err != nil {
		log.Fatal("Failed to start lot event stream", zap.Error(err))
	}
	defer lotStreamHandler.Stop()

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
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
	// 4. Tracing - OpenTelemetry spans
	// 5. Metrics - HTTP request metrics
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size
	// 9. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	})...)
	engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter("ftz.http"), meterProvider.IsEnabled()))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:  jwtService,
		Revocations: tokenRevocations,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	operatorOnly := middleware.RequireOperator()

	// Lot lifecycle and ledger queries
	lotRoutes := router.NewDomainGroup("lots", "/lots")
	lotRoutes.GET("", lotHandler.List)
	lotRoutes.GET("/low-stock", lotHandler.LowStock)
	lotRoutes.GET("/valuation", lotHandler.Valuation)
	lotRoutes.GET("/stream", lotStreamHandler.Stream)
	lotRoutes.GET("/:id", lotHandler.GetByID)
	lotRoutes.POST("/:id/hold", lotHandler.PlaceHold)
	lotRoutes.POST("/:id/release-hold", lotHandler.ReleaseHold)
	lotRoutes.POST("/:id/void", operatorOnly, lotHandler.Void)
	lotRoutes.GET("/:id/transactions", ledgerHandler.History)
	lotRoutes.GET("/:id/balance", ledgerHandler.Balance)
	// Lot document attachments (operator-managed)
	lotRoutes.POST("/:id/documents", operatorOnly, documentHandler.InitiateUpload)
	lotRoutes.GET("/:id/documents", documentHandler.ListByLot)

	// Ledger transaction log. Direct appends are an operator tool;
	// customers move inventory through admissions and shipments.
	transactionRoutes := router.NewDomainGroup("transactions", "/transactions")
	transactionRoutes.POST("", operatorOnly, ledgerHandler.Append)
	transactionRoutes.GET("", operatorOnly, ledgerHandler.List)

	// Admission filings
	admissionRoutes := router.NewDomainGroup("preadmissions", "/preadmissions")
	admissionRoutes.POST("", admissionHandler.Create)
	admissionRoutes.GET("", admissionHandler.List)
	admissionRoutes.GET("/:id", admissionHandler.GetByID)
	admissionRoutes.POST("/:id/process", operatorOnly, admissionHandler.Process)
	admissionRoutes.POST("/:id/cancel", admissionHandler.Cancel)

	// Shipment requests
	shipmentRoutes := router.NewDomainGroup("preshipments", "/preshipments")
	shipmentRoutes.POST("", shipmentHandler.Create)
	shipmentRoutes.GET("", shipmentHandler.List)
	shipmentRoutes.GET("/:id", shipmentHandler.GetByID)
	shipmentRoutes.POST("/:id/allocate", operatorOnly, shipmentHandler.Allocate)
	shipmentRoutes.POST("/:id/ship", operatorOnly, shipmentHandler.MarkShipped)
	shipmentRoutes.POST("/:id/cancel", shipmentHandler.Cancel)
	shipmentRoutes.GET("/:id/entry-summaries", entrySummaryHandler.ListByPreshipment)

	// Customs entry filings (read-only)
	entrySummaryRoutes := router.NewDomainGroup("entry-summaries", "/entry-summaries")
	entrySummaryRoutes.GET("", entrySummaryHandler.List)
	entrySummaryRoutes.GET("/:id", entrySummaryHandler.GetByID)

	// Lot documents (operator-managed mutations, scoped reads)
	documentRoutes := router.NewDomainGroup("documents", "/documents")
	documentRoutes.POST("/:id/confirm", operatorOnly, documentHandler.ConfirmUpload)
	documentRoutes.GET("/:id/download-url", documentHandler.GetDownloadURL)
	documentRoutes.DELETE("/:id", operatorOnly, documentHandler.Delete)

	// Reconciliation sweeps (operator only)
	reconciliationRoutes := router.NewDomainGroup("reconciliation", "/reconciliation")
	reconciliationRoutes.Use(operatorOnly)
	reconciliationRoutes.POST("/run", reconciliationHandler.TriggerRun)
	reconciliationRoutes.GET("/status", reconciliationHandler.Status)
	reconciliationRoutes.GET("/report", reconciliationHandler.LastReport)
	reconciliationRoutes.GET("/lots/:id/verify", reconciliationHandler.VerifyLot)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.POST("/auth/revocations", operatorOnly, authHandler.RevokeUser)

	r.Register(lotRoutes).
		Register(transactionRoutes).
		Register(admissionRoutes).
		Register(shipmentRoutes).
		Register(entrySummaryRoutes).
		Register(documentRoutes).
		Register(reconciliationRoutes).
		Register(systemRoutes)

	// Outbox operations (operator only, when the outbox is enabled)
	if outboxHandler != nil {
		outboxRoutes := router.NewDomainGroup("outbox", "/system/outbox")
		outboxRoutes.Use(operatorOnly)
		outboxRoutes.GET("/stats", outboxHandler.Stats)
		outboxRoutes.GET("/dead", outboxHandler.ListDead)
		outboxRoutes.GET("/entries/:id", outboxHandler.GetEntry)
		outboxRoutes.POST("/dead/:id/retry", outboxHandler.RetryDead)
		outboxRoutes.POST("/dead/retry-all", outboxHandler.RetryAllDead)
		r.Register(outboxRoutes)
	}

	// Setup routes
	r.Setup()

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
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
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
