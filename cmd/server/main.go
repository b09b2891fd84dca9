package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appcatalog "github.com/shop/backend/internal/application/catalog"
	appidentity "github.com/shop/backend/internal/application/identity"
	appordering "github.com/shop/backend/internal/application/ordering"
	"github.com/shop/backend/internal/infrastructure/activitylog"
	"github.com/shop/backend/internal/infrastructure/auth"
	"github.com/shop/backend/internal/infrastructure/config"
	"github.com/shop/backend/internal/infrastructure/logger"
	"github.com/shop/backend/internal/infrastructure/notification"
	"github.com/shop/backend/internal/infrastructure/persistence"
	"github.com/shop/backend/internal/infrastructure/scheduler"
	"github.com/shop/backend/internal/interfaces/http/handler"
	"github.com/shop/backend/internal/interfaces/http/middleware"
	"github.com/shop/backend/internal/interfaces/http/router"
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

	log.Info("Starting shop backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// In development the schema is kept in sync automatically; production
	// deployments run the migrate CLI instead.
	if cfg.App.Env == "development" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to auto-migrate schema", zap.Error(err))
		}
		log.Info("Schema auto-migration complete")
	}

	// Token blacklist backed by Redis; revoked tokens expire with their TTL
	tokenBlacklist, err := auth.NewRedisTokenBlacklist(auth.RedisTokenBlacklistConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := tokenBlacklist.Close(); err != nil {
			log.Error("Error closing Redis connection", zap.Error(err))
		}
	}()

	// Initialize repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	variantRepo := persistence.NewGormProductVariantRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	checkoutScope := persistence.NewGormCheckoutScope(db.DB)

	// JWT service
	jwtService := auth.NewJWTService(cfg.JWT)

	// Order confirmation dispatch over AMQP (optional)
	var notifier appordering.NotificationDispatcher
	var amqpDispatcher *notification.AMQPDispatcher
	if cfg.Notification.Enabled {
		amqpDispatcher, err = notification.NewAMQPDispatcher(cfg.Notification, log)
		if err != nil {
			log.Fatal("Failed to connect to AMQP broker", zap.Error(err))
		}
		notifier = amqpDispatcher
		log.Info("Order confirmation dispatch enabled", zap.String("queue", cfg.Notification.Queue))
	}
	defer func() {
		if amqpDispatcher != nil {
			if err := amqpDispatcher.Close(); err != nil {
				log.Error("Error closing AMQP connection", zap.Error(err))
			}
		}
	}()

	// CSV activity trail (optional)
	var activity appordering.ActivityLogger
	var activitySink *activitylog.CSVSink
	if cfg.ActivityLog.Enabled {
		activitySink, err = activitylog.NewCSVSink(cfg.ActivityLog, log)
		if err != nil {
			log.Fatal("Failed to open activity log", zap.Error(err))
		}
		activity = activitySink
		log.Info("Activity logging enabled", zap.String("path", cfg.ActivityLog.Path))
	}
	defer func() {
		if activitySink != nil {
			if err := activitySink.Close(); err != nil {
				log.Error("Error closing activity log", zap.Error(err))
			}
		}
	}()

	// Initialize application services
	authService := appidentity.NewAuthService(accountRepo, jwtService, log)
	productService := appcatalog.NewProductService(productRepo, variantRepo, log)
	cartService := appordering.NewCartService(cartRepo, variantRepo, productRepo, activity)
	orderService := appordering.NewOrderService(checkoutScope, orderRepo, accountRepo, notifier, activity, log)

	// Background sweep that auto-delivers overdue shipments
	var sweeper *scheduler.DeliverySweeper
	if cfg.Sweep.Enabled {
		sweeper = scheduler.NewDeliverySweeper(cfg.Sweep, orderService, log)
		if err := sweeper.Start(context.Background()); err != nil {
			log.Fatal("Failed to start delivery sweeper", zap.Error(err))
		}
		log.Info("Delivery sweep enabled", zap.Duration("interval", cfg.Sweep.CheckInterval))
	}

	// Set Gin mode based on environment
	switch cfg.App.Env {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Failed to set trusted proxies", zap.Error(err))
	}

	// Middleware order matters:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
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

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService, tokenBlacklist, log)
	productHandler := handler.NewProductHandler(productService)
	cartHandler := handler.NewCartHandler(cartService)
	orderHandler := handler.NewOrderHandler(orderService)

	jwtAuth := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		Logger:         log,
	})

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	router.RegisterAll(r, router.Dependencies{
		Auth:     authHandler,
		Products: productHandler,
		Cart:     cartHandler,
		Orders:   orderHandler,
		JWTAuth:  jwtAuth,
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

	if sweeper != nil {
		if err := sweeper.Stop(ctx); err != nil {
			log.Error("Error stopping delivery sweeper", zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports server and database health
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
