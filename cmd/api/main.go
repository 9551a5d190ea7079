package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/deskops/sla-service/internal/api/http"
	"github.com/deskops/sla-service/internal/api/http/handlers"
	"github.com/deskops/sla-service/internal/auth"
	"github.com/deskops/sla-service/internal/cache"
	"github.com/deskops/sla-service/internal/calendarfile"
	"github.com/deskops/sla-service/internal/config"
	"github.com/deskops/sla-service/internal/events"
	"github.com/deskops/sla-service/internal/observability"
	"github.com/deskops/sla-service/internal/persistence"
	"github.com/deskops/sla-service/internal/repository"
	"github.com/deskops/sla-service/internal/service"
	"github.com/deskops/sla-service/internal/sla"
	"github.com/deskops/sla-service/internal/worker"
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

	var metrics *observability.Metrics
	if cfg.Metrics.Enabled {
		metrics = observability.NewMetrics(cfg.Metrics.Namespace)
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	loc, err := cfg.SLA.Location()
	if err != nil {
		logger.Fatal("invalid sla timezone", zap.Error(err))
	}
	seedCalendar, seedPolicies := loadSeed(cfg.SLA, loc, logger)
	if seedCalendar != nil {
		loc = seedCalendar.Location
	}

	pool := pg.PoolHandle()
	ticketRepo := repository.NewTicketRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	violationRepo := repository.NewViolationRepository(pool)

	slaService := service.NewSLAService(service.SLADependencies{
		PolicyRepo:   repository.NewPolicyRepository(pool),
		CalendarRepo: repository.NewCalendarRepository(pool),
		Cache:        cache.NewConfigCache(redis.Client, cfg.SLA.CacheTTL(), metrics, logger),
		Location:     loc,
		Logger:       logger,
	})
	if err := slaService.Seed(ctx, seedCalendar, seedPolicies); err != nil {
		logger.Fatal("failed to seed sla configuration", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartEventLogWorker(service.NewEventLogService(dispatcher, logger, metrics))

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		SLA:        slaService,
		Dispatcher: dispatcher,
	})
	taskService := service.NewTaskService(service.TaskDependencies{
		TaskRepo:   taskRepo,
		SLA:        slaService,
		Dispatcher: dispatcher,
	})
	monitorService := service.NewMonitorService(service.MonitorDependencies{
		TicketRepo:    ticketRepo,
		TaskRepo:      taskRepo,
		ViolationRepo: violationRepo,
		SLA:           slaService,
		Dispatcher:    dispatcher,
		Metrics:       metrics,
		Logger:        logger,
		Concurrency:   cfg.SLA.MonitorConcurrency,
		BatchSize:     cfg.SLA.MonitorBatchSize,
	})

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTLMinutes)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, slaService),
		Tickets:        handlers.NewTicketsHandler(ticketService, monitorService),
		Tasks:          handlers.NewTasksHandler(taskService, monitorService),
		SLAAdmin:       handlers.NewSLAAdminHandler(slaService, monitorService),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		Metrics:        metrics,
		MetricsPath:    cfg.Metrics.Path,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

// loadSeed reads the optional calendar file and policy directory. Missing
// configuration is not an error; unreadable files are.
func loadSeed(cfg config.SLAConfig, loc *time.Location, logger *zap.Logger) (*calendarfile.Calendar, []sla.Policy) {
	var cal *calendarfile.Calendar
	if cfg.CalendarSeedFile != "" {
		loaded, err := calendarfile.LoadCalendar(cfg.CalendarSeedFile, loc)
		if err != nil {
			logger.Fatal("failed to load calendar seed", zap.String("path", cfg.CalendarSeedFile), zap.Error(err))
		}
		cal = loaded
	}
	var policies []sla.Policy
	if cfg.PolicySeedDir != "" {
		loaded, err := calendarfile.LoadPolicyDir(cfg.PolicySeedDir)
		if err != nil {
			logger.Fatal("failed to load policy seeds", zap.String("path", cfg.PolicySeedDir), zap.Error(err))
		}
		policies = loaded
	}
	return cal, policies
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
