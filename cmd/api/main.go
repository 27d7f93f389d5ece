package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/attendance-service/internal/api/http"
	"github.com/spec-kit/attendance-service/internal/api/http/handlers"
	"github.com/spec-kit/attendance-service/internal/auth"
	"github.com/spec-kit/attendance-service/internal/cache"
	"github.com/spec-kit/attendance-service/internal/config"
	"github.com/spec-kit/attendance-service/internal/events"
	"github.com/spec-kit/attendance-service/internal/observability"
	"github.com/spec-kit/attendance-service/internal/persistence"
	"github.com/spec-kit/attendance-service/internal/repository"
	"github.com/spec-kit/attendance-service/internal/repository/memstore"
	"github.com/spec-kit/attendance-service/internal/service"
	"github.com/spec-kit/attendance-service/internal/validation"
	"github.com/spec-kit/attendance-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	var (
		employeeRepo   repository.EmployeeRepository
		attendanceRepo repository.AttendanceRepository
		dbProbe        handlers.Dependency
	)
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.Pool, cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		employeeRepo = repository.NewEmployeeRepository(pg.Pool)
		attendanceRepo = repository.NewAttendanceRepository(pg.Pool)
		dbProbe = pg
	} else {
		store := memstore.New()
		employeeRepo = store.Employees()
		attendanceRepo = store.Attendances()
	}

	rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer rdb.Close()

	var (
		listCache  *cache.ListCache
		cacheProbe handlers.Dependency
	)
	if rdb.Client != nil {
		listCache = cache.NewListCache(rdb.Client, cfg.Redis.ListTTL(), logger)
		cacheProbe = rdb
	}

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NotificationDependencies{Dispatcher: dispatcher, Logger: logger}
	if listCache != nil {
		notifications.Cache = listCache
	}
	if cfg.Events.SQSQueueURL != "" {
		sqsClient, err := events.NewSQSClient(ctx, cfg.Events.AWSRegion, cfg.Events.AWSEndpoint)
		if err != nil {
			logger.Fatal("failed to init sqs client", zap.Error(err))
		}
		notifications.Forwarder = events.NewSQSPublisher(sqsClient, cfg.Events.SQSQueueURL)
		logger.Info("forwarding events to sqs", zap.String("queue_url", cfg.Events.SQSQueueURL))
	}
	worker.StartNotificationWorker(service.NewNotificationService(notifications), logger)

	validator := validation.New(employeeRepo)
	employeeDeps := service.EmployeeDependencies{
		EmployeeRepo:   employeeRepo,
		AttendanceRepo: attendanceRepo,
		Validator:      validator,
		Dispatcher:     dispatcher,
		Logger:         logger,
		Pagination:     cfg.Pagination,
	}
	attendanceDeps := service.AttendanceDependencies{
		AttendanceRepo: attendanceRepo,
		EmployeeRepo:   employeeRepo,
		Validator:      validator,
		Dispatcher:     dispatcher,
		Logger:         logger,
		Pagination:     cfg.Pagination,
	}
	if listCache != nil {
		employeeDeps.Cache = listCache
		attendanceDeps.Cache = listCache
	}
	employeeService := service.NewEmployeeService(employeeDeps)
	attendanceService := service.NewAttendanceService(attendanceDeps)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	metrics := observability.NewMetrics()

	app := httptransport.NewServer(httptransport.ServerConfig{
		AppName: cfg.App.Name,
		Logger:  logger,
		Metrics: metrics,
		Middleware: httptransport.MiddlewareOptions{
			Timeout:           cfg.App.RequestTimeout(),
			ExposeErrorDetail: !cfg.App.IsProduction(),
		},
		Routes: httptransport.RouteConfig{
			Health: handlers.NewHealthHandler(handlers.HealthInfo{
				Name:        cfg.App.Name,
				Version:     cfg.App.Version,
				Environment: cfg.App.Env,
			}, dbProbe, cacheProbe, metrics),
			Employees:      handlers.NewEmployeesHandler(employeeService),
			Attendances:    handlers.NewAttendancesHandler(attendanceService),
			AuthMiddleware: auth.NewAuthMiddleware(tokens, cfg.Auth.Enabled),
		},
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.Bool("auth", cfg.Auth.Enabled))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
