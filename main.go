// File: courtly/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courtly/config"
	"courtly/cron"
	"courtly/database"
	bookingRepo "courtly/database/repository/booking"
	holdRepo "courtly/database/repository/hold"
	reservationRepo "courtly/database/repository/reservation"
	"courtly/handlers"
	"courtly/middleware"
	"courtly/routes"
	adminService "courtly/services/admin"
	"courtly/services/reconcile"
	"courtly/services/reservation"
	"courtly/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()
	utils.FirebaseInit()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	holds := holdRepo.NewMongoHoldRepo()
	bookings := bookingRepo.NewMongoBookingRepo()
	store := reservationRepo.NewMongoReservationStore()

	if err := holds.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure hold indexes: %v", err)
	}
	if err := bookings.EnsureIndexes(); err != nil {
		logger.Sugar().Fatalf("main: failed to ensure booking indexes: %v", err)
	}

	// services.
	finalizer := &reconcile.FinalizationCoordinator{
		Store:       store,
		Logger:      logger,
		MaxAttempts: config.AppConfig.FinalizeMaxAttempts,
	}

	processor := &reconcile.PaymentProcessor{
		Holds:  holds,
		Dedup:  utils.GetCacheClient(),
		Logger: logger,
	}

	watchCtx, stopWatcher := context.WithCancel(context.Background())
	defer stopWatcher()
	if config.AppConfig.UseChangeStream {
		// Finalization reacts to the store's mutation stream.
		watcher, ok := holds.(holdRepo.HoldWatcher)
		if !ok {
			logger.Sugar().Fatal("main: hold repository does not support change streams")
		}
		go func() {
			if err := reconcile.RunChangeWatcher(watchCtx, watcher, finalizer, logger); err != nil && watchCtx.Err() == nil {
				logger.Error("hold change watcher failed", zap.Error(err))
			}
		}()
	} else {
		// Standalone deployments trigger finalization directly from the
		// payment processor.
		processor.Notifier = finalizer
	}

	sweeper := &reconcile.ExpirationSweeper{
		Holds:  holds,
		Logger: logger,
	}
	cron.InitSweepWorker(sweeper)

	reservationService := &reservation.DefaultReservationService{
		Holds:    holds,
		Bookings: bookings,
		Logger:   logger,
		HoldTTL:  config.HoldTTL(),
	}

	roleService := &adminService.RoleService{
		Auth:   utils.AuthClient,
		Logger: logger,
	}

	// handlers.
	handlerBundle := &routes.Handlers{
		Webhook:     handlers.NewWebhookHandler(processor, logger),
		Reservation: handlers.NewReservationHandler(reservationService, logger),
		Admin:       handlers.NewAdminHandler(roleService, sweeper, logger),
	}

	routes.RegisterRoutes(router, handlerBundle)

	utils.StartHealthMonitor([]*redis.Client{utils.GetCacheClient()}, database.MongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	stopWatcher()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
