package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/itsmenoahpoli/brgykonek-backend/internal/api/http"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/api/http/handlers"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/auth"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/cache"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/config"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/events"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/observability"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/persistence"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/repository"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/service"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/storage"
	"github.com/itsmenoahpoli/brgykonek-backend/internal/worker"
)

const shutdownTimeout = 10 * time.Second

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

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()
	cacheStore := cache.NewStore(redis.Client, cfg.Redis.CacheTTL(), logger)

	objectStore := newObjectStore(ctx, cfg.Storage, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	requestRepo := repository.NewPermissionRequestRepository(pool)
	complaintRepo := repository.NewComplaintRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	sitioRepo := repository.NewSitioRepository(pool)
	announcementRepo := repository.NewAnnouncementRepository(pool)
	txManager := repository.NewTxManager(pool)

	dispatcher := events.NewInMemoryDispatcher(logger)
	subs := worker.Subscribers{
		Notifications: service.NewNotificationService(dispatcher, logger, cfg.Notification),
		Metrics:       metrics,
	}
	if cfg.Broker.Enabled {
		subs.Broker = events.NewAMQPPublisher(cfg.Broker.URL, cfg.Broker.Exchange, logger)
		defer subs.Broker.Close()
	}
	worker.Start(dispatcher, subs)

	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
		TxManager:         txManager,
		Logger:            logger,
	})
	userService := service.NewUserService(userRepo, logger)
	requestService := service.NewPermissionRequestService(service.PermissionRequestDependencies{
		RequestRepo: requestRepo,
		UserRepo:    userRepo,
		TxManager:   txManager,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	sitioService := service.NewSitioService(sitioRepo, cacheStore, logger)
	complaintService := service.NewComplaintService(service.ComplaintDependencies{
		ComplaintRepo:  complaintRepo,
		AttachmentRepo: attachmentRepo,
		UserRepo:       userRepo,
		SitioRepo:      sitioRepo,
		TxManager:      txManager,
		Store:          objectStore,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	announcementService := service.NewAnnouncementService(service.AnnouncementDependencies{
		AnnouncementRepo: announcementRepo,
		UserRepo:         userRepo,
		Sitios:           sitioService,
		Cache:            cacheStore,
		Store:            objectStore,
		Dispatcher:       dispatcher,
		Logger:           logger,
	})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.BodyLimit(),
		ErrorHandler: httptransport.ErrorHandler(logger, metrics),
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		ServiceName:        cfg.App.Name,
		Registry:           registry,
		Health:             handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:               handlers.NewAuthHandler(authService, logger),
		Users:              handlers.NewUsersHandler(userService),
		PermissionRequests: handlers.NewPermissionRequestsHandler(requestService),
		Complaints:         handlers.NewComplaintsHandler(complaintService),
		Announcements:      handlers.NewAnnouncementsHandler(announcementService),
		Sitios:             handlers.NewSitiosHandler(sitioService),
		AuthMiddleware:     authMiddleware.Handle,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// newObjectStore connects to the upload bucket. Without it, requests that
// carry files fail while everything else keeps working.
func newObjectStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) storage.ObjectStore {
	store, err := storage.NewMinioStore(cfg, logger)
	if err != nil {
		logger.Warn("object storage disabled", zap.Error(err))
		return nil
	}
	bucketCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.EnsureBucket(bucketCtx); err != nil {
		logger.Warn("object storage disabled", zap.String("endpoint", cfg.Endpoint), zap.Error(err))
		return nil
	}
	return store
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
