package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"kyc-backend/internal/onboarding"
	"kyc-backend/internal/queue"
	"kyc-backend/internal/relay"
	"kyc-backend/internal/shared/config"
	"kyc-backend/internal/shared/server"
	"kyc-backend/internal/shared/storage/db"
	"kyc-backend/internal/shared/storage/object"
	localstore "kyc-backend/internal/shared/storage/object/local"
	s3store "kyc-backend/internal/shared/storage/object/s3"
	"kyc-backend/internal/shared/telemetry"
)

// App holds shared dependencies and the HTTP router.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Redis             redis.UniversalClient
	Store             object.ObjectStore
	Queue             queue.Client
	Relay             *relay.Client
	OnboardingRepo    onboarding.Repo
	OnboardingService *onboarding.Service
	OnboardingHandler *onboarding.Handler
}

// Build prepares dependencies for cfg and wires routes.
func Build(cfg config.Config) (*App, error) {
	return BuildContext(context.Background(), cfg)
}

// BuildContext is Build with a caller-supplied context for connection setup.
func BuildContext(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	if strings.TrimSpace(cfg.StoreBackend) == "" {
		cfg.StoreBackend = config.StoreMemory
	}

	app := &App{Config: cfg}

	if err := app.buildRepo(ctx); err != nil {
		app.Close()
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Queue = queueClient

	app.Relay = relay.New(cfg.WorkflowURL, cfg.RelayTimeout)
	app.OnboardingService = &onboarding.Service{
		Repo:   app.OnboardingRepo,
		Store:  app.Store,
		Relay:  app.Relay,
		Events: app.Queue,
	}
	app.OnboardingHandler = onboarding.NewHandler(app.OnboardingService)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:            cfg,
		OnboardingHandler: app.OnboardingHandler,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":           cfg.Env,
		"store_backend": cfg.StoreBackend,
		"object_store":  cfg.ObjectStoreType,
		"events_queue":  cfg.EventsQueueURL != "",
		"workflow_url":  cfg.WorkflowURL,
	})
	return app, nil
}

// Close releases database and cache connections.
func (a *App) Close() error {
	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	return errors.Join(errs...)
}

func (a *App) buildRepo(ctx context.Context) error {
	cfg := a.Config
	switch cfg.StoreBackend {
	case config.StorePostgres:
		sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
		if err != nil {
			return err
		}
		a.DB = sqlDB
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		a.OnboardingRepo = &onboarding.PGRepo{DB: sqlDB}
	case config.StoreRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		a.Redis = client
		if err := client.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("ping redis: %w", err)
		}
		a.OnboardingRepo = onboarding.NewRedisRepo(client)
	case config.StoreMemory:
		a.OnboardingRepo = onboarding.NewMemoryRepo()
	default:
		return fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
	return nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.EventsQueueURL) == "" {
		return nil, nil
	}
	return queue.NewSQSClient(ctx, cfg.EventsQueueURL, cfg.AWSRegion)
}
