package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"

	"github.com/slotwise/service-scheduling/internal/application"
	"github.com/slotwise/service-scheduling/internal/config"
	bookingDomain "github.com/slotwise/service-scheduling/internal/domain/booking"
	"github.com/slotwise/service-scheduling/internal/events/consumer"
	"github.com/slotwise/service-scheduling/internal/handler"
	"github.com/slotwise/service-scheduling/internal/jobs"
	"github.com/slotwise/service-scheduling/internal/payment"
	"github.com/slotwise/service-scheduling/internal/platform/auth"
	"github.com/slotwise/service-scheduling/internal/platform/database"
	"github.com/slotwise/service-scheduling/internal/platform/health"
	"github.com/slotwise/service-scheduling/internal/platform/kafka"
	"github.com/slotwise/service-scheduling/internal/platform/logger"
	"github.com/slotwise/service-scheduling/internal/platform/middleware"
	"github.com/slotwise/service-scheduling/internal/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, "service-scheduling")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting service-scheduling",
		zap.String("port", cfg.Port),
	)

	// Connect to database
	db, err := database.Connect(cfg.DB, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(
			&repository.BusinessModel{},
			&repository.WorkerModel{},
			&repository.ServiceModel{},
			&repository.BookingModel{},
			&repository.EscalationModel{},
		); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(cfg.DB.DatabaseURL(), "migrations", log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(cfg.JWTSecret)

	// Initialize Redis client for checkout sessions
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer func() { _ = redisClient.Close() }()

	// Configure Stripe
	stripe.Key = cfg.StripeKey

	// Initialize Kafka producer
	kafkaProducer := kafka.NewProducer(cfg.KafkaBrokers, log)
	defer func() { _ = kafkaProducer.Close() }()

	// Initialize repositories
	bookingRepo := repository.NewGormBookingRepository(db)
	dir := repository.NewGormDirectory(db)
	escalationRepo := repository.NewGormEscalationRepository(db)
	sessionStore := repository.NewRedisSessionStore(redisClient)

	// Initialize pricing strategy and payment gateway
	pricingStrategy := bookingDomain.NewStandardPricingStrategy()
	gateway := payment.NewStripeGateway(cfg.GatewayTimeout, log)

	// Initialize application services
	bookingService := application.NewBookingService(bookingRepo, dir, kafkaProducer, log)
	availabilityService := application.NewAvailabilityService(bookingRepo, dir, log)
	escalationService := application.NewEscalationService(escalationRepo, log)
	checkoutSaga := application.NewCheckoutSaga(
		bookingRepo,
		dir,
		sessionStore,
		gateway,
		pricingStrategy,
		escalationRepo,
		kafkaProducer,
		log,
		cfg.CheckoutSessionTTL,
	)

	// Initialize and start payment event consumer in a goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	groupID := cfg.KafkaGroupPrefix + "scheduling-service"
	paymentConsumer := consumer.NewPaymentEventConsumer(
		cfg.KafkaBrokers,
		groupID,
		checkoutSaga,
		log,
	)
	defer func() { _ = paymentConsumer.Close() }()

	go func() {
		log.Info("starting payment event consumer")
		if err := paymentConsumer.Start(ctx); err != nil && err != context.Canceled {
			log.Error("payment event consumer error", zap.Error(err))
		}
	}()

	// Start the escalation sweeper
	sweeper := jobs.NewEscalationSweeper(escalationRepo, log)
	if err := sweeper.Start(); err != nil {
		log.Fatal("failed to start escalation sweeper", zap.Error(err))
	}
	defer sweeper.Stop()

	// Initialize HTTP handlers
	bookingHandler := handler.NewBookingHandler(bookingService)
	checkoutHandler := handler.NewCheckoutHandler(checkoutSaga)
	availabilityHandler := handler.NewAvailabilityHandler(availabilityService)
	adminHandler := handler.NewAdminHandler(bookingService, escalationService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(db, redisClient, "service-scheduling")
	healthHandler.RegisterRoutes(router)

	// Register routes
	bookingHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	checkoutHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	availabilityHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down service-scheduling...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info("service-scheduling stopped")
}
