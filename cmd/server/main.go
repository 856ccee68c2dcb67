package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	bookingapp "github.com/localcooks/backend/internal/application/booking"
	claimsapp "github.com/localcooks/backend/internal/application/claims"
	eventapp "github.com/localcooks/backend/internal/application/event"
	identityapp "github.com/localcooks/backend/internal/application/identity"
	kitchenapp "github.com/localcooks/backend/internal/application/kitchenapp"
	locationapp "github.com/localcooks/backend/internal/application/location"
	"github.com/localcooks/backend/internal/application/notification"
	paymentapp "github.com/localcooks/backend/internal/application/payment"
	"github.com/localcooks/backend/internal/domain/shared"
	"github.com/localcooks/backend/internal/domain/shared/valueobject"
	"github.com/localcooks/backend/internal/infrastructure/auth"
	"github.com/localcooks/backend/internal/infrastructure/billing"
	"github.com/localcooks/backend/internal/infrastructure/cache"
	"github.com/localcooks/backend/internal/infrastructure/config"
	"github.com/localcooks/backend/internal/infrastructure/email"
	"github.com/localcooks/backend/internal/infrastructure/event"
	"github.com/localcooks/backend/internal/infrastructure/logger"
	"github.com/localcooks/backend/internal/infrastructure/persistence"
	"github.com/localcooks/backend/internal/infrastructure/printing"
	"github.com/localcooks/backend/internal/infrastructure/scheduler"
	"github.com/localcooks/backend/internal/infrastructure/storage"
	"github.com/localcooks/backend/internal/infrastructure/telemetry"
	"github.com/localcooks/backend/internal/infrastructure/ws"
	"github.com/localcooks/backend/internal/interfaces/http/handler"
	"github.com/localcooks/backend/internal/interfaces/http/middleware"
	"github.com/localcooks/backend/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/localcooks/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			Local Cooks API
//	@version		1.0
//	@description	Kitchen marketplace backend: licensed kitchen bookings with payment holds, damage claims, and chef onboarding
//	@termsOfService	http://swagger.io/terms/

//	@contact.name	API Support
//	@contact.url	https://github.com/localcooks/backend
//	@contact.email	support@localcooks.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

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

	log.Info("Starting Local Cooks backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

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

	// Attach query tracing to GORM when telemetry asks for it
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		tracingPlugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
			Enabled:         true,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err := tracingPlugin.RegisterOtelGorm(db.DB); err != nil {
			log.Warn("Failed to enable database tracing", zap.Error(err))
		}
	}

	// Initialize repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	locationRepo := persistence.NewGormLocationRepository(db.DB)
	applicationRepo := persistence.NewGormApplicationRepository(db.DB)
	bookingRepo := persistence.NewGormBookingRepository(db.DB)
	claimRepo := persistence.NewGormClaimRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	txManager := persistence.NewGormTxManager(db.DB)

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	// Create outbox publisher for transactional event saving. Booking and
	// claim writes persist their pending events in the same transaction so
	// delivery survives a crash between commit and the in-process publish.
	outboxPublisher := event.NewOutboxPublisher(eventSerializer)
	bookingRepo.SetOutboxEventSaver(outboxPublisher)
	claimRepo.SetOutboxEventSaver(outboxPublisher)

	// Idempotency store and token blacklist. Redis keeps both shared across
	// instances; the in-memory fallback is for single-node development.
	var idemStore shared.IdempotencyStore
	var webhookStore paymentapp.IdempotencyStore
	var blacklist auth.TokenBlacklist
	if cfg.Redis.Host != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		store := cache.NewRedisIdempotencyStoreWithClient(redisClient, "")
		idemStore = store
		webhookStore = store
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
		log.Info("Redis connected", zap.String("host", cfg.Redis.Host))
	} else {
		store := cache.NewInMemoryIdempotencyStore()
		idemStore = store
		webhookStore = store
		blacklist = auth.NewInMemoryTokenBlacklist()
		log.Warn("Redis not configured; idempotency and token blacklist are in-memory")
	}

	// Object storage for application documents and claim evidence
	var documentStorage kitchenapp.ObjectStorage
	var evidenceStorage claimsapp.ObjectStorage
	if cfg.S3.Bucket != "" {
		s3Opts := []storage.S3ObjectStorageOption{storage.WithLogger(log)}
		if cfg.S3.PresignExpiration > 0 {
			s3Opts = append(s3Opts, storage.WithPresignExpiration(cfg.S3.PresignExpiration))
		}
		s3Store, err := storage.NewS3ObjectStorage(&cfg.S3, s3Opts...)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		documentStorage = s3Store
		evidenceStorage = s3Store
		log.Info("Object storage connected", zap.String("bucket", cfg.S3.Bucket))
	} else {
		stub := storage.NewStubObjectStorage()
		documentStorage = stub
		evidenceStorage = stub
		log.Warn("Object storage not configured; presigned URLs are stubs")
	}

	// Payment gateway
	gateway, err := billing.NewStripeGateway(&billing.StripeConfig{
		SecretKey:       cfg.Stripe.APIKey,
		WebhookSecret:   cfg.Stripe.WebhookSecret,
		IsTestMode:      strings.HasPrefix(cfg.Stripe.APIKey, "sk_test"),
		DefaultCurrency: "usd",
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize payment gateway", zap.Error(err))
	}

	// Email notifier (logs instead of sending when SMTP is disabled)
	notifier, err := email.NewNotifier(&cfg.Email, log)
	if err != nil {
		log.Fatal("Failed to initialize email notifier", zap.Error(err))
	}

	// Websocket hub for the live notification feed
	feedHub := ws.NewFeedHub(log)

	// PDF rendering for receipts and claim statements
	receiptBuilder := printing.NewPDFReceiptBuilder()
	pdfRenderer, err := printing.NewRendererForEngine(cfg.Printing.Engine, cfg.Printing.WkhtmltopdfPath, log)
	if err != nil {
		log.Fatal("Failed to initialize PDF renderer",
			zap.String("engine", cfg.Printing.Engine), zap.Error(err))
	}
	statementRenderer := printing.NewHTMLStatementRenderer(printing.NewTemplateEngine(), pdfRenderer)

	// Identity services
	jwtService := auth.NewJWTService(cfg.JWT)
	authService := identityapp.NewAuthService(userRepo, jwtService, blacklist, log)
	userService := identityapp.NewUserAdminService(userRepo, jwtService, blacklist, log)

	// Application services
	locationService := locationapp.NewLocationService(locationRepo, bookingRepo, log)
	applicationService := kitchenapp.NewApplicationService(applicationRepo, locationRepo, documentStorage, log)
	bookingService := bookingapp.NewBookingService(bookingRepo, locationRepo, applicationRepo, userRepo, gateway, txManager, log)
	bookingService.SetConfig(bookingapp.BookingServiceConfig{
		PendingDecisionWindow: cfg.Booking.PendingDecisionWindow,
		AbsorbProcessorFee:    cfg.Booking.AbsorbProcessorFee,
	})
	claimService := claimsapp.NewClaimService(claimRepo, bookingRepo, locationRepo, userRepo, gateway, evidenceStorage, txManager, log)
	claimService.SetConfig(claimsapp.ClaimServiceConfig{
		FileWindowDays:     cfg.Claims.FileWindowDays,
		ResponseWindowDays: cfg.Claims.ChefResponseWindowDays,
		MaxClaimAmount:     valueobject.NewMoneyUSDFromFloat(cfg.Claims.MaxClaimAmount),
		MaxChargeAttempts:  cfg.Claims.MaxChargeAttempts,
	})
	webhookService := paymentapp.NewWebhookService(gateway, bookingRepo, claimRepo, webhookStore, txManager, log)
	receiptService := bookingapp.NewReceiptService(bookingRepo, userRepo, receiptBuilder, log)
	statementService := claimsapp.NewStatementService(claimRepo, userRepo, statementRenderer, log)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Initialize event bus and handlers
	eventBus := event.NewInMemoryEventBus(log)

	applicationNotifications := notification.NewApplicationNotificationHandler(userRepo, locationRepo, notifier, log)
	bookingNotifications := notification.NewBookingNotificationHandler(userRepo, locationRepo, notifier, log)
	claimNotifications := notification.NewClaimNotificationHandler(userRepo, notifier, log)
	feedEvents := notification.NewFeedHandler(locationRepo, feedHub, log)

	// The outbox processor redelivers events the services already published
	// in-process, so every subscriber is wrapped for exactly-once handling
	eventBus.Subscribe(event.NewIdempotentHandler(applicationNotifications, idemStore, log))
	eventBus.Subscribe(event.NewIdempotentHandler(bookingNotifications, idemStore, log))
	eventBus.Subscribe(event.NewIdempotentHandler(claimNotifications, idemStore, log))
	eventBus.Subscribe(event.NewIdempotentHandler(feedEvents, idemStore, log))

	log.Info("Event handlers registered",
		zap.Strings("application_events", applicationNotifications.EventTypes()),
		zap.Strings("booking_events", bookingNotifications.EventTypes()),
		zap.Strings("claim_events", claimNotifications.EventTypes()),
		zap.Strings("feed_events", feedEvents.EventTypes()),
	)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize and start outbox processor for guaranteed event delivery
	if cfg.Event.ProcessorEnabled {
		processorConfig := event.DefaultOutboxProcessorConfig()
		if cfg.Event.BatchSize > 0 {
			processorConfig.BatchSize = cfg.Event.BatchSize
		}
		if cfg.Event.PollInterval > 0 {
			processorConfig.PollInterval = cfg.Event.PollInterval
		}
		processorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
		if cfg.Event.CleanupRetention > 0 {
			processorConfig.CleanupRetention = cfg.Event.CleanupRetention
		}
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, processorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorConfig.BatchSize),
			zap.Duration("poll_interval", processorConfig.PollInterval),
		)
	}

	// Inject event bus into services that publish events
	bookingService.SetEventPublisher(eventBus)
	claimService.SetEventPublisher(eventBus)
	applicationService.SetEventPublisher(eventBus)
	locationService.SetEventPublisher(eventBus)
	webhookService.SetEventPublisher(eventBus)

	// Background sweeps: booking expiry and completion, claim deadlines,
	// failed charge retries
	if cfg.Scheduler.Enabled {
		schedulerConfig := scheduler.DefaultSchedulerConfig()
		if cfg.Scheduler.MaxConcurrentJobs > 0 {
			schedulerConfig.MaxConcurrentJobs = cfg.Scheduler.MaxConcurrentJobs
		}
		if cfg.Scheduler.JobTimeout > 0 {
			schedulerConfig.JobTimeout = cfg.Scheduler.JobTimeout
		}
		sweepScheduler := scheduler.NewScheduler(schedulerConfig, scheduler.NewSweepExecutor(bookingService, claimService), log)
		if err := sweepScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sweep scheduler", zap.Error(err))
		}
		defer func() {
			if err := sweepScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping sweep scheduler", zap.Error(err))
			}
		}()

		triggerConfig := scheduler.DefaultSweepTriggerConfig()
		if cfg.Scheduler.BookingExpiryInterval > 0 {
			triggerConfig.BookingExpiryInterval = cfg.Scheduler.BookingExpiryInterval
		}
		if cfg.Scheduler.ClaimDeadlineInterval > 0 {
			triggerConfig.ClaimDeadlineInterval = cfg.Scheduler.ClaimDeadlineInterval
		}
		if cfg.Scheduler.ClaimChargeRetryWindow > 0 {
			triggerConfig.ChargeRetryInterval = cfg.Scheduler.ClaimChargeRetryWindow
		}
		if cfg.Scheduler.ClaimChargeRetryBatch > 0 {
			triggerConfig.ChargeRetryBatch = cfg.Scheduler.ClaimChargeRetryBatch
		}
		sweepTrigger := scheduler.NewSweepTrigger(triggerConfig, sweepScheduler, log)
		if err := sweepTrigger.Start(context.Background()); err != nil {
			log.Fatal("Failed to start sweep trigger", zap.Error(err))
		}
		defer func() {
			if err := sweepTrigger.Stop(context.Background()); err != nil {
				log.Error("Error stopping sweep trigger", zap.Error(err))
			}
		}()
		log.Info("Sweep scheduler started",
			zap.Duration("booking_expiry_interval", triggerConfig.BookingExpiryInterval),
			zap.Duration("claim_deadline_interval", triggerConfig.ClaimDeadlineInterval),
		)
	}

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	locationHandler := handler.NewLocationHandler(locationService)
	applicationHandler := handler.NewApplicationHandler(applicationService)
	bookingHandler := handler.NewBookingHandler(bookingService, receiptService)
	claimHandler := handler.NewClaimHandler(claimService, statementService)
	stripeWebhookHandler := handler.NewStripeWebhookHandler(webhookService)
	feedHandler := handler.NewFeedHandler(feedHub)
	outboxHandler := handler.NewOutboxHandler(outboxService)

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
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
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

	// Request tracing and metrics (if telemetry enabled)
	if cfg.Telemetry.Enabled {
		tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
			Enabled:           true,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			SamplingRatio:     cfg.Telemetry.SamplingRatio,
			ServiceName:       cfg.Telemetry.ServiceName,
			Insecure:          cfg.Telemetry.Insecure,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize tracer provider", zap.Error(err))
		}
		defer func() {
			if err := tracerProvider.Shutdown(context.Background()); err != nil {
				log.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()

		meterProvider, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
			Enabled:           true,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			ServiceName:       cfg.Telemetry.ServiceName,
			Insecure:          cfg.Telemetry.Insecure,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize meter provider", zap.Error(err))
		}
		defer func() {
			if err := meterProvider.Shutdown(context.Background()); err != nil {
				log.Error("Error shutting down meter provider", zap.Error(err))
			}
		}()

		dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfig{
			Enabled:            true,
			SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err != nil {
			log.Warn("Failed to register database metrics", zap.Error(err))
		} else if dbMetrics != nil {
			dbMetrics.StartPoolStatsCollection(context.Background())
			defer dbMetrics.Stop()
		}

		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter("http"), true))
	}

	// Continuous profiling (if enabled)
	if cfg.Telemetry.ProfilingEnabled {
		profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
			Enabled:           true,
			ServerAddress:     cfg.Telemetry.ProfilingEndpoint,
			ApplicationName:   cfg.App.Name,
			ProfileCPU:        true,
			ProfileInuseSpace: true,
			ProfileGoroutines: true,
		}, log)
		if err != nil {
			log.Fatal("Failed to start profiler", zap.Error(err))
		}
		defer func() {
			if err := profiler.Stop(); err != nil {
				log.Error("Error stopping profiler", zap.Error(err))
			}
		}()
		engine.Use(middleware.ProfilingWithConfig(middleware.DefaultProfilingConfig()))
	}

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db, log))

	// Swagger documentation endpoint
	if cfg.Swagger.Enabled {
		swaggerProtection := middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}, middleware.JWTAuthMiddleware(jwtService))
		engine.GET("/swagger/*any", swaggerProtection, ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Payment gateway webhook endpoint (no authentication; verified by signature)
	webhookGroup := engine.Group("/api/v1/webhooks")
	webhookGroup.POST("/stripe", stripeWebhookHandler.Handle)

	// Setup API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	// Apply JWT authentication middleware to API routes
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		SkipPaths: []string{
			"/api/v1/auth/register",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/ping",
		},
		SkipPathPrefixes: []string{
			"/api/v1/kitchens",
			"/api/v1/webhooks",
		},
		Logger: log,
	}
	r.Use(middleware.JWTAuthMiddlewareWithConfig(jwtConfig))

	// Identity: self-serve accounts and sessions
	authRoutes := router.NewDomainGroup("auth", "/auth")
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		authRoutes.Use(middleware.AuthRateLimit(authLimiter))
	}
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.Refresh)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.GET("/me", authHandler.Me)
	authRoutes.PATCH("/me", authHandler.UpdateProfile)
	authRoutes.PUT("/password", authHandler.ChangePassword)

	// Identity: admin user management
	userRoutes := router.NewDomainGroup("users", "/users")
	userRoutes.Use(middleware.RequireAdmin())
	userRoutes.GET("", userHandler.List)
	userRoutes.GET("/:id", userHandler.GetByID)
	userRoutes.POST("/:id/suspend", userHandler.Suspend)
	userRoutes.POST("/:id/reactivate", userHandler.Reactivate)

	// Locations: manager-side kitchen management
	locationRoutes := router.NewDomainGroup("locations", "/locations")
	locationRoutes.POST("", locationHandler.Create)
	locationRoutes.GET("", locationHandler.List)
	locationRoutes.GET("/:id", locationHandler.GetByID)
	locationRoutes.PATCH("/:id", locationHandler.Update)
	locationRoutes.DELETE("/:id", locationHandler.Delete)
	locationRoutes.POST("/:id/publish", locationHandler.Publish)
	locationRoutes.POST("/:id/unpublish", locationHandler.Unpublish)
	locationRoutes.GET("/:id/requirements", locationHandler.GetRequirements)
	locationRoutes.PUT("/:id/requirements", locationHandler.ReplaceRequirements)
	locationRoutes.POST("/:id/equipment", locationHandler.AddEquipment)
	locationRoutes.PUT("/:id/equipment/:item_id", locationHandler.UpdateEquipment)
	locationRoutes.DELETE("/:id/equipment/:item_id", locationHandler.RemoveEquipment)

	// Kitchens: the public browse surface over published locations
	kitchenRoutes := router.NewDomainGroup("kitchens", "/kitchens")
	kitchenRoutes.GET("", locationHandler.Browse)
	kitchenRoutes.GET("/:id", locationHandler.GetPublished)

	// Kitchen applications: chef side plus admin review
	applicationRoutes := router.NewDomainGroup("applications", "/applications")
	applicationRoutes.POST("", applicationHandler.Apply)
	applicationRoutes.GET("", applicationHandler.List)
	applicationRoutes.GET("/review", middleware.RequireAnyRole(middleware.RoleManager), applicationHandler.ListForReview)
	applicationRoutes.GET("/review/:id", middleware.RequireAnyRole(middleware.RoleManager), applicationHandler.GetForReview)
	applicationRoutes.POST("/review/:id/start", middleware.RequireAnyRole(middleware.RoleManager), applicationHandler.StartReview)
	applicationRoutes.POST("/review/:id/approve", middleware.RequireAnyRole(middleware.RoleManager), applicationHandler.Approve)
	applicationRoutes.POST("/review/:id/reject", middleware.RequireAnyRole(middleware.RoleManager), applicationHandler.Reject)
	applicationRoutes.GET("/:id", applicationHandler.GetByID)
	applicationRoutes.POST("/:id/withdraw", applicationHandler.Withdraw)
	applicationRoutes.POST("/:id/documents/presign", applicationHandler.PresignDocument)
	applicationRoutes.POST("/:id/documents/:document_id/confirm", applicationHandler.ConfirmDocument)

	// Bookings: lifecycle plus receipts
	bookingRoutes := router.NewDomainGroup("bookings", "/bookings")
	bookingRoutes.POST("", bookingHandler.Create)
	bookingRoutes.GET("", bookingHandler.List)
	bookingRoutes.GET("/:id", bookingHandler.GetByID)
	bookingRoutes.POST("/:id/decide", bookingHandler.Decide)
	bookingRoutes.POST("/:id/cancel", bookingHandler.Cancel)
	bookingRoutes.POST("/:id/complete", bookingHandler.Complete)
	bookingRoutes.POST("/:id/refund", bookingHandler.Refund)
	bookingRoutes.GET("/:id/receipt", bookingHandler.Receipt)

	// Damage claims: filing, response, adjudication, statements
	claimRoutes := router.NewDomainGroup("claims", "/claims")
	claimRoutes.POST("", claimHandler.File)
	claimRoutes.GET("", claimHandler.List)
	claimRoutes.GET("/:id", claimHandler.GetByID)
	claimRoutes.POST("/:id/respond", claimHandler.Respond)
	claimRoutes.POST("/:id/adjudicate", claimHandler.Adjudicate)
	claimRoutes.POST("/:id/withdraw", claimHandler.Withdraw)
	claimRoutes.POST("/:id/evidence/presign", claimHandler.PresignEvidence)
	claimRoutes.GET("/:id/statement", claimHandler.Statement)

	// Live notification feed
	feedRoutes := router.NewDomainGroup("feed", "/feed")
	feedRoutes.GET("", feedHandler.Connect)

	// Outbox administration
	outboxRoutes := router.NewDomainGroup("outbox", "/outbox")
	outboxRoutes.Use(middleware.RequireAdmin())
	outboxRoutes.GET("/dead-letters", outboxHandler.ListDeadLetters)
	outboxRoutes.GET("/entries/:id", outboxHandler.GetEntry)
	outboxRoutes.POST("/dead-letters/:id/retry", outboxHandler.RetryEntry)
	outboxRoutes.POST("/dead-letters/retry-all", outboxHandler.RetryAll)
	outboxRoutes.GET("/stats", outboxHandler.Stats)

	// Register all domain groups
	r.Register(authRoutes).
		Register(userRoutes).
		Register(locationRoutes).
		Register(kitchenRoutes).
		Register(applicationRoutes).
		Register(bookingRoutes).
		Register(claimRoutes).
		Register(feedRoutes).
		Register(outboxRoutes)

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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
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
