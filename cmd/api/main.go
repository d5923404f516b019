package main

import (
	"context"
	"log"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/catalog-service/internal/api/http"
	"github.com/spec-kit/catalog-service/internal/api/http/handlers"
	"github.com/spec-kit/catalog-service/internal/auth"
	"github.com/spec-kit/catalog-service/internal/config"
	"github.com/spec-kit/catalog-service/internal/events"
	"github.com/spec-kit/catalog-service/internal/observability"
	"github.com/spec-kit/catalog-service/internal/persistence"
	"github.com/spec-kit/catalog-service/internal/repository"
	"github.com/spec-kit/catalog-service/internal/service"
	"github.com/spec-kit/catalog-service/internal/storage"
	"github.com/spec-kit/catalog-service/internal/worker"
)

const notificationBuffer = 256

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	deps := map[string]handlers.Pinger{}
	var closers []func()

	var redis *persistence.Redis
	if cfg.Store.UsesRedis() {
		redis = persistence.NewRedis(cfg.Redis, logger)
		closers = append(closers, redis.Close)
		deps["redis"] = redis
	}

	memory := storage.NewMemory()
	kvFor := func(driver string) storage.KV {
		if driver == config.DriverRedis {
			return redis.KV()
		}
		return memory
	}

	var (
		productRepo repository.ProductRepository
		userRepo    repository.UserRepository = repository.NewMemoryUserRepository()
		resetRepo   repository.PasswordResetRepository
	)

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		closers = append(closers, pg.Close)
		deps["postgres"] = pg

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), persistence.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		pool := pg.PoolHandle()
		productRepo = repository.NewPostgresProductRepository(pool)
		userRepo = repository.NewUserRepository(pool)
		resetRepo = repository.NewPasswordResetRepository(pool)
	case config.DriverSQLite:
		db, err := persistence.NewSQLite(cfg.SQLite, logger)
		if err != nil {
			logger.Fatal("failed to open sqlite", zap.Error(err))
		}
		closers = append(closers, db.Close)
		deps["sqlite"] = db

		productRepo, err = repository.NewGormProductRepository(db.DB)
		if err != nil {
			logger.Fatal("failed to migrate sqlite", zap.Error(err))
		}
	default:
		productRepo = repository.NewKVProductRepository(kvFor(cfg.Store.Driver), repository.SeedProductList())
	}
	if resetRepo == nil {
		resetRepo = repository.NewKVPasswordResetRepository(kvFor(cfg.Store.SessionBackend))
	}
	sessionRepo := repository.NewKVSessionRepository(kvFor(cfg.Store.SessionBackend))
	deps["sessions"] = kvFor(cfg.Store.SessionBackend)

	if cfg.Store.SeedProducts && cfg.Store.Driver != config.DriverMemory && cfg.Store.Driver != config.DriverRedis {
		n, err := repository.SeedProducts(ctx, productRepo)
		if err != nil {
			logger.Fatal("failed to seed products", zap.Error(err))
		}
		if n > 0 {
			logger.Info("seeded products", zap.Int("count", n))
		}
	}

	dispatcher := events.NewInMemoryDispatcher()
	notifications := service.NewNotificationService(logger, cfg.Notification)
	notifyWorker := worker.StartNotificationWorker(ctx, dispatcher, notifications, logger, notificationBuffer)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:          userRepo,
		SessionRepo:       sessionRepo,
		PasswordResetRepo: resetRepo,
		Dispatcher:        dispatcher,
		Logger:            logger,
	})
	if err := repository.SeedUsers(ctx, userRepo, repository.DefaultAccounts, authService.HashPassword); err != nil {
		logger.Fatal("failed to seed users", zap.Error(err))
	}
	productService := service.NewProductService(*cfg, service.ProductDependencies{
		ProductRepo: productRepo,
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(cfg.App.Name, httptransport.AppDependencies{
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.App.RequestTimeout(),
	}, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, deps),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Products:       handlers.NewProductsHandler(productService),
		AuthMiddleware: auth.NewAuthMiddleware(authService),
	})

	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("store", cfg.Store.Driver),
			zap.String("sessions", cfg.Store.SessionBackend),
		)
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), cfg.App.ShutdownTimeout(), map[string]gfshutdown.Operation{
		cfg.App.Name: func(ctx context.Context) error {
			logger.Info("shutting down")
			err := app.ShutdownWithContext(ctx)
			cancel()
			notifyWorker.Wait()
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
			return err
		},
	})

	exitCode := <-wait
	_ = logger.Sync()
	os.Exit(exitCode)
}
