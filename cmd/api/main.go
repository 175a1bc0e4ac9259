package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/supportdesk/ticket-router/internal/api/http"
	"github.com/supportdesk/ticket-router/internal/api/http/handlers"
	"github.com/supportdesk/ticket-router/internal/auth"
	"github.com/supportdesk/ticket-router/internal/config"
	"github.com/supportdesk/ticket-router/internal/directory"
	"github.com/supportdesk/ticket-router/internal/dispatch"
	"github.com/supportdesk/ticket-router/internal/events"
	"github.com/supportdesk/ticket-router/internal/observability"
	"github.com/supportdesk/ticket-router/internal/persistence"
	"github.com/supportdesk/ticket-router/internal/repository"
	"github.com/supportdesk/ticket-router/internal/service"
	"github.com/supportdesk/ticket-router/internal/worker"
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
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	rdb := persistence.NewRedis(cfg.Redis, logger)
	defer rdb.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	replyRepo := repository.NewReplyRepository(pool)
	problemTypeRepo := repository.NewProblemTypeRepository(pool)

	// Prefer the shared Redis lease so dispatch stays serialized across
	// replicas. Fall back to the in-process lock when Redis is down.
	var locker dispatch.Locker
	if err := rdb.Ping(ctx); err == nil {
		locker = dispatch.NewRedisLocker(rdb.Client, cfg.Dispatch.LockTTL(), cfg.Dispatch.LockRetry())
	} else {
		logger.Warn("redis unavailable, using in-process dispatch lock", zap.Error(err))
		locker = dispatch.NewLocalLocker()
	}

	dir := directory.New(userRepo, ticketRepo)
	engine := dispatch.NewEngine(dir, ticketRepo, locker, logger)
	dispatcher := events.NewInMemoryDispatcher()

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:      ticketRepo,
		ReplyRepo:       replyRepo,
		UserRepo:        userRepo,
		ProblemTypeRepo: problemTypeRepo,
		Engine:          engine,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})
	userService := service.NewUserService(*cfg, service.UserDependencies{
		UserRepo:        userRepo,
		ProblemTypeRepo: problemTypeRepo,
	})
	catalogService := service.NewCatalogService(problemTypeRepo)

	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewMiddleware(userService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{DisableStartupMessage: cfg.App.Env == "production"})
	httptransport.RegisterMiddlewares(app, logger, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rdb),
		Auth:           handlers.NewAuthHandler(userService),
		Agents:         handlers.NewAgentsHandler(userService),
		ProblemTypes:   handlers.NewProblemTypesHandler(catalogService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
