package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	installmentapp "github.com/bnpl/backend/internal/application/installment"
	"github.com/bnpl/backend/internal/domain/installment"
	"github.com/bnpl/backend/internal/infrastructure/auth"
	"github.com/bnpl/backend/internal/infrastructure/config"
	"github.com/bnpl/backend/internal/infrastructure/event"
	"github.com/bnpl/backend/internal/infrastructure/logger"
	"github.com/bnpl/backend/internal/infrastructure/persistence"
	"github.com/bnpl/backend/internal/infrastructure/scheduler"
	"github.com/bnpl/backend/internal/interfaces/http/handler"
	"github.com/bnpl/backend/internal/interfaces/http/middleware"
	"github.com/bnpl/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
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
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting installment backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	// Initialize database connection
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	// Initialize repositories
	planRepo := persistence.NewGormInstallmentPlanRepository(db.DB)
	modificationRepo := persistence.NewGormPlanModificationRepository(db.DB)

	// Initialize JWT service
	jwtService := auth.NewJWTService(cfg.JWT)

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

	// Initialize application services
	modificationEngine := installment.NewModificationEngine()
	planService := installmentapp.NewPlanService(planRepo, eventBus, log)
	modificationService := installmentapp.NewModificationService(
		planRepo, modificationRepo, modificationEngine, eventBus, log)
	sweepService := installmentapp.NewOverdueSweepService(planRepo, eventBus, log)

	// Start overdue sweep scheduler (if enabled)
	if cfg.Scheduler.Enabled {
		sweepScheduler := scheduler.NewOverdueSweepScheduler(sweepService, log, scheduler.OverdueSweepSchedulerConfig{
			Enabled:       cfg.Scheduler.Enabled,
			SweepInterval: cfg.Scheduler.SweepInterval,
			SweepTimeout:  cfg.Scheduler.JobTimeout,
		})
		if err := sweepScheduler.Start(context.Background()); err != nil {
			log.Fatal("Failed to start overdue sweep scheduler", zap.Error(err))
		}
		defer func() {
			if err := sweepScheduler.Stop(context.Background()); err != nil {
				log.Error("Error stopping overdue sweep scheduler", zap.Error(err))
			}
		}()
		log.Info("Overdue sweep scheduler started",
			zap.Duration("sweep_interval", cfg.Scheduler.SweepInterval),
			zap.Duration("sweep_timeout", cfg.Scheduler.JobTimeout),
		)
	}

	// Initialize HTTP handlers
	planHandler := handler.NewInstallmentPlanHandler(planService, sweepService)
	modificationHandler := handler.NewPlanModificationHandler(modificationService)
	systemHandler := handler.NewSystemHandler()

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

	// Middleware stack, applied in order:
	// RequestID first so everything after can log it, then panic recovery,
	// request logging, security headers and CORS.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Health check endpoint (outside API versioning)
	engine.GET("/health", healthHandler(db))

	// Setup API routes
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	r.Use(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/ping",
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	}))

	// Installment domain routes
	installmentRoutes := router.NewDomainGroup("installment", "/installment")
	installmentRoutes.POST("/plans", planHandler.Create)
	installmentRoutes.GET("/plans", planHandler.List)
	installmentRoutes.GET("/plans/summary", planHandler.PortfolioSummary)
	installmentRoutes.POST("/plans/sweep-overdue", planHandler.SweepOverdue)
	installmentRoutes.GET("/plans/number/:plan_number", planHandler.GetByPlanNumber)
	installmentRoutes.GET("/plans/sale/:sale_id", planHandler.GetBySale)
	installmentRoutes.GET("/plans/:id", planHandler.GetByID)
	installmentRoutes.POST("/plans/:id/payments", planHandler.RecordPayment)
	installmentRoutes.POST("/plans/:id/cancel", planHandler.Cancel)
	installmentRoutes.POST("/plans/:id/default", planHandler.MarkDefaulted)

	// Modification workflow routes
	installmentRoutes.POST("/plans/:id/modifications", modificationHandler.Request)
	installmentRoutes.POST("/plans/:id/modifications/preview", modificationHandler.Preview)
	installmentRoutes.GET("/plans/:id/modifications", modificationHandler.ListByPlan)
	installmentRoutes.GET("/modifications", modificationHandler.List)
	installmentRoutes.GET("/modifications/:id", modificationHandler.GetByID)
	installmentRoutes.POST("/modifications/:id/approve", modificationHandler.Approve)
	installmentRoutes.POST("/modifications/:id/reject", modificationHandler.Reject)
	installmentRoutes.POST("/modifications/:id/apply", modificationHandler.Apply)

	// System routes
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(installmentRoutes).
		Register(systemRoutes)

	r.Setup()

	// Simple ping at root API level for basic health checks
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

// healthHandler reports liveness and database connectivity
func healthHandler(db *persistence.Database) gin.HandlerFunc {
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
