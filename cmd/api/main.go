package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/adapters/storage"
	"wrapcrm_backend/internal/auth"
	"wrapcrm_backend/internal/booklets"
	"wrapcrm_backend/internal/email"
	"wrapcrm_backend/internal/emailtemplates"
	"wrapcrm_backend/internal/events"
	"wrapcrm_backend/internal/exports"
	apphttp "wrapcrm_backend/internal/http"
	"wrapcrm_backend/internal/http/router"
	"wrapcrm_backend/internal/installations"
	"wrapcrm_backend/internal/installers"
	"wrapcrm_backend/internal/leadorigins"
	"wrapcrm_backend/internal/leads"
	"wrapcrm_backend/internal/metrics"
	"wrapcrm_backend/internal/repairs"
	"wrapcrm_backend/internal/reports"
	"wrapcrm_backend/internal/scheduler"
	"wrapcrm_backend/internal/smtpsettings"
	"wrapcrm_backend/internal/tracking"
	"wrapcrm_backend/migrations"
	"wrapcrm_backend/platform/config"
	"wrapcrm_backend/platform/db"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 10 * time.Second

// ensureBucket wraps the retry logic for verifying a MinIO bucket exists.
func ensureBucket(ctx context.Context, log *logger.Logger, storageSvc storage.StorageService, name, bucket string) {
	if err := withRetry(ctx, log, "ensure "+name+" bucket", 5, 2*time.Second, func() error {
		return storageSvc.EnsureBucketExists(ctx, bucket)
	}); err != nil {
		log.Error("failed to ensure storage bucket exists", "error", err, "bucket", bucket)
		panic("failed to ensure storage bucket exists: " + err.Error())
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr, "timezone", cfg.Timezone)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, pool, migrations.FS, log)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	loc := cfg.GetBusinessLocation()
	eventBus := events.NewInMemoryBus(log)
	val := validator.New()
	appMetrics := metrics.New()

	queue, closeQueue := initTaskQueue(cfg, log)
	if closeQueue != nil {
		defer closeQueue()
	}

	rdb := initRedis(cfg, log)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	var storageSvc storage.StorageService
	if cfg.IsMinIOEnabled() {
		minioSvc, err := storage.NewMinIOService(cfg)
		if err != nil {
			log.Error("failed to initialize storage service", "error", err)
			panic("failed to initialize storage service: " + err.Error())
		}
		ensureBucket(ctx, log, minioSvc, "exports", cfg.GetMinioBucketExports())
		storageSvc = minioSvc
		log.Info("storage service initialized", "exportsBucket", cfg.GetMinioBucketExports())
	} else {
		log.Warn("MINIO_ENDPOINT not configured; lead exports disabled")
	}

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	activityModule := activity.NewModule(pool, val, log)
	recorder := activityModule.Service()

	smtpModule := smtpsettings.NewModule(pool, cfg, val, log)
	sender := email.NewMailer(email.NewDynamicTransport(smtpModule.Service(), log.WithComponent("email")))

	authModule, err := auth.NewModule(pool, cfg, recorder, val, log)
	if err != nil {
		log.Error("failed to initialize auth module", "error", err)
		panic("failed to initialize auth module: " + err.Error())
	}

	leadsModule, err := leads.NewModule(pool, activityModule.Repository(), eventBus, loc, val, log)
	if err != nil {
		log.Error("failed to initialize leads module", "error", err)
		panic("failed to initialize leads module: " + err.Error())
	}
	leadsModule.Service().SetFollowupObserver(appMetrics)

	installersModule := installers.NewModule(pool, val, log)

	trackingURL := tracking.URLFunc(cfg)
	bookletsModule := booklets.NewModule(pool, eventBus, loc, trackingURL, val, log)
	trackingModule := tracking.NewModule(bookletsModule.Repository(), cfg, redisCmdable(rdb), eventBus, loc, log)
	trackingModule.Syncer().SetObserver(appMetrics)
	bookletsModule.Service().SetRefresher(queue, trackingModule.Syncer())

	templatesModule := emailtemplates.NewModule(pool, val, log)
	booklets.NewShippingNotifier(bookletsModule.Repository(), sender, templatesModule.Service(), trackingURL, log.WithComponent("booklets")).
		Subscribe(eventBus)

	installationsModule := installations.NewModule(leadsModule.Repository(), installersModule.Service(), sender, recorder, cfg, val, log)
	installationsModule.Service().SetQueue(queue)

	originsModule := leadorigins.NewModule(pool, val, log)
	if err := withRetry(ctx, log, "lead origin seed", 3, time.Second, func() error {
		return originsModule.Service().Seed(ctx)
	}); err != nil {
		log.Warn("lead origins not seeded", "error", err)
	}

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolHealth(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			activityModule,
			smtpModule,
			leadsModule,
			installersModule,
			bookletsModule,
			trackingModule,
			templatesModule,
			installationsModule,
			repairs.NewModule(pool, loc, val, log),
			originsModule,
			reports.NewModule(leadsModule.Repository(), val, log),
			exports.NewModule(leadsModule.Repository(), storageSvc, cfg.GetMinioBucketExports(), recorder, val, log),
			metrics.NewModule(appMetrics),
		},
	}

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	engine := router.New(app)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

// initTaskQueue connects the asynq client. Without Redis the returned nil
// client accepts every task and drops it, so callers run work in-process.
func initTaskQueue(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; background tasks run in-process")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task queue client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func initRedis(cfg config.SchedulerConfig, log *logger.Logger) *redis.Client {
	if cfg.GetRedisURL() == "" {
		return nil
	}
	rdb, err := tracking.NewRedisClient(cfg.GetRedisURL())
	if err != nil {
		log.Error("failed to initialize tracking cache", "error", err)
		return nil
	}
	return rdb
}

// redisCmdable keeps a nil client from becoming a non-nil interface.
func redisCmdable(rdb *redis.Client) redis.Cmdable {
	if rdb == nil {
		return nil
	}
	return rdb
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
