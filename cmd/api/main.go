package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/cohort"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/config"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/domain"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/handler"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/infra/postgresql"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/infra/postgresql/migrations"
	infraredis "github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/infra/redis"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/notify"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/observability"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/push"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/queue"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/repository"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/service"
	"github.com/drvarun1995-pixel/sim-bleepy-sub004/internal/transport"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("engine exited", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgresql.NewPostgres(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("postgres initialization failed: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("postgres underlying db init failed: %w", err)
	}
	defer sqlDB.Close()

	if err := migrations.Migrate(db); err != nil {
		return fmt.Errorf("database migrations failed: %w", err)
	}

	rdb, err := infraredis.NewRedis(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis initialization failed: %w", err)
	}
	defer rdb.Close()

	rateLimiter, err := infraredis.NewRedisRateLimiter(rdb, cfg.RateLimitPerSec)
	if err != nil {
		return fmt.Errorf("rate limiter initialization failed: %w", err)
	}

	rabbit, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("rabbitmq initialization failed: %w", err)
	}
	defer rabbit.Close()

	webPush, err := push.NewWebPushTransport(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.PushSubject)
	if err != nil {
		return fmt.Errorf("web push transport initialization failed: %w", err)
	}

	metrics := observability.NewMetrics()

	subscriptionRepo := repository.NewGormSubscriptionRepo(db)
	preferenceRepo := repository.NewGormPreferenceRepo(db)
	userRepo := repository.NewGormUserRepo(db)
	taskRepo := repository.NewGormTaskRepo(db)
	logRepo := repository.NewGormLogRepo(db)

	resolver := cohort.NewResolver(userRepo, subscriptionRepo, preferenceRepo, logger, metrics)

	dispatcher, err := service.NewDispatcher(resolver, webPush, subscriptionRepo, logRepo, rateLimiter, logger)
	if err != nil {
		return fmt.Errorf("dispatcher initialization failed: %w", err)
	}
	dispatcher.SetMetrics(metrics)

	scheduler, err := service.NewTaskScheduler(taskRepo, logger)
	if err != nil {
		return fmt.Errorf("scheduler initialization failed: %w", err)
	}
	scheduler.SetMetrics(metrics)

	events := notify.NewEvents(dispatcher, cfg.AppBaseURL, logger)
	bookings := notify.NewBookings(dispatcher, cfg.AppBaseURL, logger)
	certificates := notify.NewCertificates(dispatcher, cfg.AppBaseURL, logger)
	feedback := notify.NewFeedback(dispatcher, cfg.AppBaseURL, logger)

	publisher := queue.NewRabbitMQPublisher(rabbit)
	consumer := queue.NewRabbitMQConsumer(rabbit, cfg.WorkerConcurrency, logger)

	sweeper, err := service.NewSweeper(
		taskRepo,
		publisher,
		time.Duration(cfg.SweepIntervalSeconds)*time.Second,
		0,
		logger,
	)
	if err != nil {
		return fmt.Errorf("sweeper initialization failed: %w", err)
	}

	worker, err := service.NewTaskWorker(
		taskRepo,
		consumer,
		map[domain.TaskType]service.TaskHandlerFunc{
			domain.TaskEventReminder1h:          events.HandleReminderTask,
			domain.TaskEventReminder15m:         events.HandleReminderTask,
			domain.TaskBookingReminder24h:       bookings.HandleReminderTask,
			domain.TaskCertificatesAutoGenerate: certificates.HandleGenerationMarker,
			domain.TaskFeedbackInvitesSend:      feedback.HandleInvitesMarker,
		},
		cfg.WorkerConcurrency,
		logger,
	)
	if err != nil {
		return fmt.Errorf("task worker initialization failed: %w", err)
	}

	app := newServer(cfg, logger, metrics, scheduler, events, bookings, certificates, subscriptionRepo, preferenceRepo, sqlDB, rdb)

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sweeper.Start(groupCtx)
	})
	g.Go(func() error {
		return worker.Start(groupCtx)
	})
	g.Go(func() error {
		logger.Info("notification engine api started", zap.Int("port", cfg.APIPort))
		return app.Listen(fmt.Sprintf(":%d", cfg.APIPort))
	})
	g.Go(func() error {
		<-groupCtx.Done()
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && !isShutdown(err) {
		return err
	}

	logger.Info("notification engine stopped")
	return nil
}

func newServer(
	cfg *config.Config,
	logger *zap.Logger,
	metrics *observability.Metrics,
	scheduler *service.TaskScheduler,
	events *notify.Events,
	bookings *notify.Bookings,
	certificates *notify.Certificates,
	subscriptions repository.SubscriptionRepository,
	preferences repository.PreferenceRepository,
	sqlDB pinger,
	rdb *redis.Client,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          transport.ErrorHandler(logger),
		DisableStartupMessage: true,
	})
	app.Use(metrics.HTTPMiddleware())

	if err := handler.RegisterSubscriptionRoutes(app, subscriptions); err != nil {
		logger.Fatal("subscription routes failed", zap.Error(err))
	}
	if err := handler.RegisterPreferenceRoutes(app, preferences); err != nil {
		logger.Fatal("preference routes failed", zap.Error(err))
	}
	if err := handler.RegisterHookRoutes(app, scheduler, events, bookings, certificates, logger); err != nil {
		logger.Fatal("hook routes failed", zap.Error(err))
	}

	handler.RegisterHealthRoutes(app, map[string]handler.HealthCheck{
		"postgres": func(ctx context.Context) error { return sqlDB.PingContext(ctx) },
		"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
	})
	app.Get("/metrics", adaptor.HTTPHandler(metrics.Handler()))

	return app
}

type pinger interface {
	PingContext(ctx context.Context) error
}

func isShutdown(err error) bool {
	return errors.Is(err, context.Canceled)
}
