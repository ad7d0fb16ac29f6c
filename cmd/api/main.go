package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/converso/routing-service/internal/api/http"
	"github.com/converso/routing-service/internal/api/http/handlers"
	"github.com/converso/routing-service/internal/auth"
	"github.com/converso/routing-service/internal/config"
	"github.com/converso/routing-service/internal/events"
	"github.com/converso/routing-service/internal/observability"
	"github.com/converso/routing-service/internal/persistence"
	"github.com/converso/routing-service/internal/repository"
	"github.com/converso/routing-service/internal/service"
	"github.com/converso/routing-service/internal/worker"
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

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	conversationRepo := repository.NewConversationRepository(pool)
	memberRepo := repository.NewMemberRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)
	escalationRepo := repository.NewEscalationRepository(pool)
	eventRepo := repository.NewEventRepository(pool)

	cache := persistence.NewConversationCache(redis.Client, cfg.Cache.ConversationTTL())
	dispatcher := events.NewInMemoryDispatcher()
	events.NewRedisBridge(redis.Client, logger).RegisterAll(dispatcher)

	resolver := service.NewRoundRobinResolver(service.RoundRobinDependencies{
		ConversationRepo: conversationRepo,
		MemberRepo:       memberRepo,
		Cursor:           persistence.NewRedisCursor(redis.Client),
		Dispatcher:       dispatcher,
		Logger:           logger,
	})
	slaService := service.NewSlaService(service.SlaDependencies{
		ConversationRepo: conversationRepo,
		EscalationRepo:   escalationRepo,
		Cache:            cache,
		Dispatcher:       dispatcher,
		Logger:           logger,
	})
	takeoverService := service.NewTakeoverService(service.TakeoverDependencies{
		ConversationRepo: conversationRepo,
		MemberRepo:       memberRepo,
		AuditRepo:        eventRepo,
		Resolver:         resolver,
		Cache:            cache,
		Dispatcher:       dispatcher,
		Logger:           logger,
		Config:           cfg.Takeover,
	})
	threadService := service.NewThreadService(service.ThreadDependencies{
		ConversationRepo: conversationRepo,
		AuditRepo:        eventRepo,
		EscalationRepo:   escalationRepo,
		SlaService:       slaService,
		Cache:            cache,
		Logger:           logger,
	})
	routingService := service.NewRoutingService(service.RoutingDependencies{
		CategoryRepo: categoryRepo,
		TeamRepo:     teamRepo,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(auth.NewTokenManager(cfg.Auth.JWTSecret))
	metrics := observability.NewMetrics()

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Threads:        handlers.NewThreadsHandler(threadService, takeoverService),
		Routing:        handlers.NewRoutingHandler(routingService),
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
