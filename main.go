package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/washwala/laundry-api/cache"
	"github.com/washwala/laundry-api/config"
	"github.com/washwala/laundry-api/controllers"
	"github.com/washwala/laundry-api/middleware"
	"github.com/washwala/laundry-api/routes"
	"github.com/washwala/laundry-api/services"
	"gorm.io/gorm"
)

const catalogCacheSize = 256

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	log := config.NewLogger(cfg)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	log.Info("starting Laundry API server", "env", cfg.GoEnv)

	db, err := config.ConnectDatabase(cfg, log)
	if err != nil {
		return err
	}
	if err := config.Migrate(db); err != nil {
		return err
	}
	log.Info("database migration completed")

	provider, err := cache.NewProvider(cache.Config{
		Provider:              cfg.CacheProvider,
		RedisConnectionString: cfg.RedisURL,
		MemorySize:            catalogCacheSize,
	})
	if err != nil {
		return err
	}
	defer provider.Close()

	notifiers := []services.Notifier{services.NewStoreNotifier(db), services.NewLogNotifier(log)}
	if cfg.KafkaEnabled {
		kafka := services.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		defer kafka.Close()
		notifiers = append(notifiers, kafka)
	}

	auth, err := middleware.EnsureValidToken(cfg)
	if err != nil {
		return err
	}

	router := buildRouter(cfg, db, log, provider, services.NewMultiNotifier(notifiers...), auth)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server is running", "addr", "http://localhost:"+cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildRouter wires services and controllers onto a gin engine. auth
// authenticates the protected routes.
func buildRouter(cfg *config.Config, db *gorm.DB, log *slog.Logger, provider cache.Provider, notifier services.Notifier, auth gin.HandlerFunc) *gin.Engine {
	pricingCfg := services.PricingConfig{
		FreeDeliveryThreshold: cfg.FreeDeliveryThreshold,
		DeliveryFee:           cfg.DeliveryFee,
		ExpressFeeRate:        cfg.ExpressFeeRate,
	}

	stats := services.NewStatsService(db, log)
	promos := services.NewPromoService(db, log)
	orders := services.NewOrderService(db, services.NewPricingCalculator(db, pricingCfg), promos, stats, notifier, log)
	reviews := services.NewReviewService(db, orders, stats, notifier, log)
	catalog := services.NewCatalogService(db, provider, cfg.CatalogCacheTTL, stats, log)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log), middleware.CORS(cfg))

	v1 := router.Group("/api/v1")
	v1.GET("/health", healthCheck)
	v1.GET("/database/status", databaseStatus)

	routes.Register(v1, routes.Controllers{
		Orders:        controllers.NewOrderController(orders),
		Reviews:       controllers.NewReviewController(reviews),
		Promos:        controllers.NewPromoController(promos),
		Laundries:     controllers.NewLaundryController(catalog, stats),
		Notifications: controllers.NewNotificationController(services.NewNotificationService(db)),
		Users:         controllers.NewUserController(services.NewUserService(db)),
	}, auth)

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Laundry API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()
	if db == nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := db.WithContext(c.Request.Context()).Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
