package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"

	"github.com/mustafakutlankale/my-ecommerce-app/internal/audit"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/auth"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/config"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/event"
	handler "github.com/mustafakutlankale/my-ecommerce-app/internal/handler/http"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/repository"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/repository/memory"
	mongorepo "github.com/mustafakutlankale/my-ecommerce-app/internal/repository/mongo"
	redisrepo "github.com/mustafakutlankale/my-ecommerce-app/internal/repository/redis"
	"github.com/mustafakutlankale/my-ecommerce-app/internal/service"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/database"
	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/health"
	pkgkafka "github.com/mustafakutlankale/my-ecommerce-app/pkg/kafka"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/lock"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/middleware"
	"github.com/mustafakutlankale/my-ecommerce-app/pkg/tracing"
)

const (
	serviceName            = "storefront"
	auditIdempotencyTTL    = 24 * time.Hour
	auditIdempotencyPrefix = "storefront:audit:seen:"
)

// App wires together all dependencies and runs the storefront.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	mongoClient    *mongo.Client
	redisClient    *redis.Client
	producer       *pkgkafka.Producer
	dlq            *pkgkafka.DLQProducer
	consumer       *pkgkafka.Consumer
	users          *service.UserService
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

type stores struct {
	items repository.ItemRepository
	users repository.UserRepository
	audit repository.AuditRepository
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}
	ok := false
	defer func() {
		if !ok {
			a.closeClients()
		}
	}()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, cfg.Tracing(serviceName))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	healthHandler := health.NewHandler()

	st, err := a.openStore(ctx, healthHandler)
	if err != nil {
		return nil, err
	}

	// Redis backs the item cache, the distributed lock and audit
	// deduplication. Without it each falls back to an in-process version.
	var (
		cache  service.ItemCache
		locker lock.Locker = lock.NewLocal()
		seen   pkgkafka.IdempotencyStore
	)
	if cfg.RedisEnabled {
		client, err := database.NewRedisClient(ctx, cfg.Redis(), logger)
		if err != nil {
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redisClient = client
		logger.Info("connected to Redis", slog.String("addr", cfg.Redis().Addr))

		cache = redisrepo.NewItemCache(client, cfg.ItemCacheTTL)
		lockCfg := lock.DefaultRedisConfig()
		lockCfg.TTL = cfg.LockTTL
		locker = lock.NewRedis(client, lockCfg, logger)
		seen = pkgkafka.NewRedisIdempotencyStore(client, auditIdempotencyPrefix, auditIdempotencyTTL)

		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	} else {
		seen = pkgkafka.NewMemoryIdempotencyStore(auditIdempotencyTTL)
	}

	// Domain events go to Kafka when enabled, where the audit consumer picks
	// them up. Otherwise they are recorded in-process.
	recorder := audit.NewRecorder(st.audit, logger)
	var sink event.Sink
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		a.dlq = pkgkafka.NewDLQProducer(cfg.KafkaBrokers, logger)
		a.consumer = audit.NewConsumer(cfg.KafkaBrokers, cfg.AuditGroupID, recorder, seen, a.dlq, logger)
		sink = a.producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

		producer := a.producer
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	} else {
		sink = event.NewDispatcher(pkgkafka.IdempotentHandler(seen, cfg.AuditGroupID, recorder.Handle, logger))
	}

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	eventProducer := event.NewProducer(sink, logger)
	cascade := service.NewCascade(st.items, st.users, locker, cache, eventProducer, logger)
	services := handler.Services{
		Catalog:    service.NewCatalogService(st.items, cascade, locker, cache, eventProducer, logger),
		Engagement: service.NewEngagementService(st.items, st.users, locker, cache, eventProducer, logger),
		Users:      service.NewUserService(st.users, auth.NewBcrypt(), jwtManager, cascade, locker, eventProducer, logger),
		Audit:      service.NewAuditService(st.audit),
	}
	a.users = services.Users

	if err := a.bootstrapAdmin(ctx); err != nil {
		return nil, err
	}

	// HTTP router.
	router := handler.NewRouter(services, jwtManager.Validator(), healthHandler, logger, handler.RouterConfig{
		CORS: middleware.CORSConfig{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowCredentials: true,
		},
		RateLimitRPS:      cfg.RateLimitRPS,
		RateLimitBurst:    cfg.RateLimitBurst,
		PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
	})

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ok = true
	return a, nil
}

func (a *App) openStore(ctx context.Context, healthHandler *health.Handler) (stores, error) {
	if a.cfg.StoreDriver == config.StoreMemory {
		a.logger.Warn("using the in-memory store; data is lost on restart")
		return stores{
			items: memory.NewItemRepository(),
			users: memory.NewUserRepository(),
			audit: memory.NewAuditRepository(),
		}, nil
	}

	collector, err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, serviceName)
	if err != nil {
		return stores{}, fmt.Errorf("register pool metrics: %w", err)
	}
	opts := a.cfg.Mongo().ClientOptions(collector.PoolMonitor(), collector.CommandMonitor())

	client, err := database.NewMongoClient(ctx, opts, a.logger)
	if err != nil {
		return stores{}, fmt.Errorf("connect to mongodb: %w", err)
	}
	a.mongoClient = client
	a.logger.Info("connected to MongoDB", slog.String("database", a.cfg.MongoDatabase))

	db := client.Database(a.cfg.MongoDatabase)
	if err := database.RunMigrations(ctx, db, mongorepo.Migrations(), a.logger); err != nil {
		return stores{}, fmt.Errorf("run migrations: %w", err)
	}
	a.logger.Info("database migrations completed")

	if a.cfg.SlowQueryThreshold > 0 {
		database.SetSlowQueryLogging(a.cfg.SlowQueryThreshold, a.logger)
	}

	healthHandler.RegisterCritical("mongodb", database.PingChecker(client))

	return stores{
		items: mongorepo.NewItemRepository(db),
		users: mongorepo.NewUserRepository(db),
		audit: mongorepo.NewAuditRepository(db),
	}, nil
}

// bootstrapAdmin creates the first administrator. Without a configured
// password the server still starts, but nothing can be administered.
func (a *App) bootstrapAdmin(ctx context.Context) error {
	created, err := a.users.EnsureAdmin(ctx, a.cfg.BootstrapAdminUsername, a.cfg.BootstrapAdminPassword)
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput) && a.cfg.BootstrapAdminPassword == "":
		a.logger.Warn("no administrator exists; set BOOTSTRAP_ADMIN_PASSWORD to create one")
		return nil
	case err != nil:
		return fmt.Errorf("ensure bootstrap admin: %w", err)
	case created:
		a.logger.Info("bootstrap administrator created", slog.String("username", a.cfg.BootstrapAdminUsername))
	}
	return nil
}

// Handler returns the HTTP handler of the application.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and the audit consumer and blocks until the
// context is canceled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if a.consumer != nil {
		g.Go(func() error {
			return a.consumer.Start(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutdown signal received")
		return a.Shutdown()
	})

	return g.Wait()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producers
// 4. Redis and MongoDB clients
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests.
	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3 and 4.
	errs = append(errs, a.closeClients())

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}

func (a *App) closeClients() error {
	var errs []error
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.dlq != nil {
		if err := a.dlq.Close(); err != nil {
			a.logger.Error("kafka dlq producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if a.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			a.logger.Error("mongodb disconnect error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
