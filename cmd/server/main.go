package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/innhub/service-reservation/internal/application"
	"github.com/innhub/service-reservation/internal/config"
	bookingDomain "github.com/innhub/service-reservation/internal/domain/booking"
	bookingEvents "github.com/innhub/service-reservation/internal/events"
	"github.com/innhub/service-reservation/internal/handler"
	"github.com/innhub/service-reservation/internal/platform/auth"
	"github.com/innhub/service-reservation/internal/platform/database"
	"github.com/innhub/service-reservation/internal/platform/health"
	"github.com/innhub/service-reservation/internal/platform/lock"
	"github.com/innhub/service-reservation/internal/platform/logger"
	"github.com/innhub/service-reservation/internal/platform/middleware"
	"github.com/innhub/service-reservation/internal/platform/tracing"
	"github.com/innhub/service-reservation/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const serviceName = "service-reservation"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("events_driver", cfg.EventsDriver),
		zap.String("lock_driver", cfg.LockDriver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, serviceName, cfg.TracingConfig.Endpoint, cfg.TracingConfig.Enabled)
	if err != nil {
		log.Fatal("failed to initialise tracing", zap.Error(err))
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			log.Warn("failed to flush traces", zap.Error(err))
		}
	}()

	// Connect to database
	dbConfig := database.PostgresConfig{
		Host:     cfg.DBConfig.Host,
		Port:     cfg.DBConfig.Port,
		User:     cfg.DBConfig.User,
		Password: cfg.DBConfig.Password,
		DBName:   cfg.DBConfig.DBName,
		SSLMode:  cfg.DBConfig.SSLMode,
	}
	db, err := database.Connect(dbConfig, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Run database migrations
	if cfg.AppEnv == "development" {
		if err := db.AutoMigrate(repository.Models()...); err != nil {
			log.Fatal("failed to run auto-migration", zap.Error(err))
		}
		log.Info("database migration completed (dev auto-migrate)")
	} else {
		if err := database.RunMigrations(dbConfig.DatabaseURL(), cfg.MigrationsDir, log); err != nil {
			log.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	jwtManager := auth.NewJWTManager(cfg.JWTConfig.Secret, cfg.JWTConfig.AccessTTL)

	// Room type locks
	var locker lock.Locker
	switch cfg.LockDriver {
	case config.LockRedis:
		client, err := lock.NewRedisClient(ctx, cfg.RedisConfig.Addr, cfg.RedisConfig.Password, cfg.RedisConfig.DB)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = client.Close() }()
		locker = lock.NewRedisLocker(client, cfg.LockTTL, log)
	default:
		locker = lock.NewLocalLocker()
	}

	// Event publisher
	publisher, err := bookingEvents.NewPublisher(cfg.EventsDriver, cfg.KafkaConfig, cfg.AMQPConfig, log)
	if err != nil {
		log.Fatal("failed to create event publisher", zap.Error(err))
	}
	defer func() { _ = publisher.Close() }()

	// Repositories and application services
	repos := repository.NewRepositories(db)
	unit := repository.NewGormUnitOfWork(db)

	availability := application.NewAvailabilityService(repos, cfg.AvailabilityCacheTTL, log)
	compensator := application.NewCompensator(unit, repos, locker, availability, publisher, cfg.RestorationMaxAttempts, log)
	worker := application.NewRestorationWorker(compensator, repos, cfg.RestorationRetryInterval, log)
	bookingService := application.NewBookingService(
		unit,
		repos,
		locker,
		bookingDomain.NewNightlyRatePricing(),
		availability,
		compensator,
		publisher,
		cfg.BookingDefaultStatus,
		log,
	)
	roomService := application.NewRoomTypeService(unit, repos, locker, availability, log)
	reconciler := application.NewReconciliationService(unit, repos, locker, availability, log)

	// Setup Gin router
	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.TracingMiddleware(serviceName))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))

	health.NewHandler(db, serviceName).RegisterRoutes(router)

	handler.NewBookingHandler(bookingService).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewRoomHandler(roomService, availability).RegisterRoutes(&router.RouterGroup, jwtManager)
	handler.NewAdminHandler(bookingService, compensator, worker, reconciler).RegisterRoutes(&router.RouterGroup, jwtManager)

	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down " + serviceName + "...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server forced shutdown", zap.Error(err))
		}
		return nil
	})

	g.Go(func() error {
		return worker.Start(gctx)
	})

	if cfg.EventsDriver == config.EventsKafka {
		groupID := cfg.KafkaConfig.GroupPrefix + serviceName
		paymentConsumer := bookingEvents.NewPaymentEventConsumer(cfg.KafkaConfig.Brokers, groupID, bookingService, log)
		defer func() { _ = paymentConsumer.Close() }()

		g.Go(func() error {
			log.Info("starting payment event consumer")
			if err := paymentConsumer.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("payment event consumer error", zap.Error(err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		log.Error(serviceName+" exited with error", zap.Error(err))
	}
	log.Info(serviceName + " stopped")
}
