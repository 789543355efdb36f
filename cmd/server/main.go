package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ride/internal/app"
	"ride/internal/authz"
	"ride/internal/clock"
	"ride/internal/config"
	"ride/internal/handler"
	internalRedis "ride/internal/redis"
	"ride/internal/repository/postgres"
	"ride/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Wire dependencies.
	server, sweeper := wireServer(db, redisClient, nrApp, cfg, logger)

	// Run the timeout sweeper until shutdown.
	sweeperCtx, stopSweeper := context.WithCancel(context.Background())
	go sweeper.Run(sweeperCtx)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	stopSweeper()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server and the
// timeout sweeper, whose lifecycle the caller manages separately.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, logger *zap.Logger) (*http.Server, *service.Sweeper) {
	// Initialize Redis stores.
	locationStore := internalRedis.NewLocationStore(redisClient)
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	userRepo := postgres.NewUserRepository(db)
	driverRepo := postgres.NewDriverRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	tripRequestRepo := postgres.NewTripRequestRepository(db)
	offerRepo := postgres.NewDriverOfferRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	ratingRepo := postgres.NewRatingRepository(db)
	configRepo := postgres.NewSystemConfigRepository(db)

	realClock := clock.Real{}

	// Initialize services.
	configReader := service.NewConfigReader(configRepo, realClock)
	authzResolver := authz.NewResolver(userRepo)
	notificationService := service.NewNotificationService()

	matchingService := service.NewMatchingService(db, locationStore, lockStore, cacheStore,
		driverRepo, tripRepo, tripRequestRepo, offerRepo, notificationService, configReader, realClock, logger)
	tripService := service.NewTripService(db, tripRepo, driverRepo, offerRepo, paymentRepo, notificationService, realClock)
	paymentFinalizer := service.NewPaymentFinalizer(db, tripRepo, paymentRepo, notificationService, realClock)
	driverService := service.NewDriverService(locationStore, cacheStore, driverRepo, realClock)
	userService := service.NewUserService(userRepo, realClock)
	ratingService := service.NewRatingService(tripRepo, ratingRepo, realClock)
	managerService := service.NewManagerService(configRepo, configReader, realClock)
	sweeper := service.NewSweeper(db, tripRequestRepo, tripRepo, offerRepo, configReader, realClock, logger)

	// Initialize handlers.
	userHandler := handler.NewUserHandler(userService)
	driverHandler := handler.NewDriverHandler(driverService)
	tripHandler := handler.NewTripHandler(matchingService, tripService)
	paymentHandler := handler.NewPaymentHandler(paymentFinalizer)
	managerHandler := handler.NewManagerHandler(managerService, tripService, authzResolver)
	ratingHandler := handler.NewRatingHandler(ratingService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		UserHandler:    userHandler,
		DriverHandler:  driverHandler,
		TripHandler:    tripHandler,
		PaymentHandler: paymentHandler,
		ManagerHandler: managerHandler,
		RatingHandler:  ratingHandler,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
	})

	// Create HTTP server.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	return server, sweeper
}
