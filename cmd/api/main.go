package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/triage-dashboard/internal/api/http"
	"github.com/spec-kit/triage-dashboard/internal/api/http/handlers"
	"github.com/spec-kit/triage-dashboard/internal/cache"
	"github.com/spec-kit/triage-dashboard/internal/config"
	"github.com/spec-kit/triage-dashboard/internal/events"
	"github.com/spec-kit/triage-dashboard/internal/gateway"
	"github.com/spec-kit/triage-dashboard/internal/observability"
	"github.com/spec-kit/triage-dashboard/internal/persistence"
	"github.com/spec-kit/triage-dashboard/internal/repository"
	"github.com/spec-kit/triage-dashboard/internal/service"
	"github.com/spec-kit/triage-dashboard/internal/store"
	"github.com/spec-kit/triage-dashboard/internal/worker"
	"github.com/spec-kit/triage-dashboard/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, persistence.DefaultMigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var (
		journal       repository.ReassignmentJournal
		journalHealth handlers.Pinger
	)
	if pg.Enabled() {
		journal = repository.NewReassignmentJournal(pg.Pool)
		journalHealth = pg
	} else {
		journal = repository.NewMemoryReassignmentJournal()
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, journal, metrics, logger))

	client := gateway.NewClient(cfg.Gateway, logger, metrics)
	tickets := store.NewTicketStore(client, nil)
	dashboard := service.NewDashboardService(service.DashboardDependencies{
		Tickets:    tickets,
		Activities: client,
		Journal:    journal,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	teams := service.NewTeamService(client, cache.NewTeamCache(redis.Client, cfg.Teams.CacheTTL()), cfg.Teams.Fallback, logger)
	reassignment := workflow.NewReassignment(tickets, client, dispatcher, logger)

	// A failed initial load leaves an empty dashboard; the agent can retry.
	if _, err := dashboard.LoadTickets(ctx, cfg.Gateway.InitialTeam); err != nil {
		logger.Warn("initial ticket load failed", zap.Error(err))
	}
	go worker.NewRefreshWorker(dashboard, cfg.Gateway.RefreshInterval(), logger).Run(ctx)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: cfg.App.Env == "production",
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, journalHealth, redis),
		Dashboard: handlers.NewDashboardHandler(dashboard, teams),
		Reassign:  handlers.NewReassignHandler(reassignment),
	})

	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("gateway", cfg.Gateway.BaseURL))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
