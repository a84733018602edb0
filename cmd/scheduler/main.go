package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/auth"
	"wrapcrm_backend/internal/booklets"
	"wrapcrm_backend/internal/email"
	"wrapcrm_backend/internal/emailtemplates"
	"wrapcrm_backend/internal/events"
	"wrapcrm_backend/internal/followups"
	"wrapcrm_backend/internal/installations"
	"wrapcrm_backend/internal/installers"
	"wrapcrm_backend/internal/leads"
	"wrapcrm_backend/internal/scheduler"
	"wrapcrm_backend/internal/smtpsettings"
	"wrapcrm_backend/internal/tracking"
	"wrapcrm_backend/platform/config"
	"wrapcrm_backend/platform/db"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "digestHour", cfg.GetFollowupDigestHour())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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

	loc := cfg.GetBusinessLocation()
	eventBus := events.NewInMemoryBus(log)
	val := validator.New()

	queue, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize task queue client", "error", err)
		panic("failed to initialize task queue client: " + err.Error())
	}
	defer func() { _ = queue.Close() }()

	var rdb redis.Cmdable
	if client, err := tracking.NewRedisClient(cfg.GetRedisURL()); err != nil {
		log.Warn("tracking cache disabled", "error", err)
	} else {
		defer func() { _ = client.Close() }()
		rdb = client
	}

	// Worker-side wiring: the same services the API uses, without routes.
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
	installersModule := installers.NewModule(pool, val, log)

	trackingURL := tracking.URLFunc(cfg)
	bookletsRepo := booklets.NewRepository(pool)
	trackingModule := tracking.NewModule(bookletsRepo, cfg, rdb, eventBus, loc, log)
	templatesModule := emailtemplates.NewModule(pool, val, log)
	booklets.NewShippingNotifier(bookletsRepo, sender, templatesModule.Service(), trackingURL, log.WithComponent("booklets")).
		Subscribe(eventBus)

	installationsModule := installations.NewModule(leadsModule.Repository(), installersModule.Service(), sender, recorder, cfg, val, log)
	digester := followups.NewDigester(leadsModule.Service(), authModule, sender, log.WithComponent("followups"))

	worker, err := scheduler.NewWorker(cfg, scheduler.Handlers{
		Booklets:      trackingModule.Syncer(),
		Installations: installationsModule.Service(),
		Digests:       digester,
	}, log.WithComponent("scheduler"))
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	go scheduler.NewTrackingSyncJob(trackingModule.Syncer(), cfg.GetTrackingSyncInterval(), log.WithComponent("tracking")).Run(ctx)
	go scheduler.NewDigestDispatcher(queue, cfg.GetFollowupDigestHour(), loc, log.WithComponent("followups")).Run(ctx)

	worker.Run(ctx)
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
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
