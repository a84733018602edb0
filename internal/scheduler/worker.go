package scheduler

import (
	"context"
	"fmt"

	"wrapcrm_backend/platform/apperr"
	"wrapcrm_backend/platform/config"
	"wrapcrm_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// BookletSyncer refreshes one booklet from its carrier.
type BookletSyncer interface {
	SyncBooklet(ctx context.Context, id uuid.UUID) error
}

// InstallationDeliverer sends an installation email outside a request.
type InstallationDeliverer interface {
	Deliver(ctx context.Context, actor *uuid.UUID, leadID uuid.UUID, emailType, customMessage string) error
}

// DigestRunner mails the follow-up digests for one day.
type DigestRunner interface {
	RunDigest(ctx context.Context, day string) error
}

// Handlers are the domain services the worker dispatches to. A nil handler
// leaves its task type unregistered.
type Handlers struct {
	Booklets      BookletSyncer
	Installations InstallationDeliverer
	Digests       DigestRunner
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	handlers Handlers
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, handlers Handlers, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server:   server,
		handlers: handlers,
		log:      log,
	}
	w.mux = w.newServeMux()
	return w, nil
}

func (w *Worker) newServeMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	h := w.handlers
	if h.Booklets != nil {
		mux.HandleFunc(TaskBookletTrackingSync, w.handleBookletTrackingSync)
	}
	if h.Installations != nil {
		mux.HandleFunc(TaskInstallationEmail, w.handleInstallationEmail)
	}
	if h.Digests != nil {
		mux.HandleFunc(TaskFollowupDigest, w.handleFollowupDigest)
	}
	return mux
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

func (w *Worker) handleBookletTrackingSync(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseBookletTrackingSyncPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	id, err := uuid.Parse(payload.BookletID)
	if err != nil {
		return fmt.Errorf("booklet id: %v: %w", err, asynq.SkipRetry)
	}

	return permanent(w.handlers.Booklets.SyncBooklet(ctx, id))
}

func (w *Worker) handleInstallationEmail(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseInstallationEmailPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	leadID, err := uuid.Parse(payload.LeadID)
	if err != nil {
		return fmt.Errorf("lead id: %v: %w", err, asynq.SkipRetry)
	}

	var actor *uuid.UUID
	if payload.ActorID != "" {
		if id, err := uuid.Parse(payload.ActorID); err == nil {
			actor = &id
		}
	}

	return permanent(w.handlers.Installations.Deliver(ctx, actor, leadID, payload.Type, payload.CustomMessage))
}

func (w *Worker) handleFollowupDigest(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseFollowupDigestPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	return w.handlers.Digests.RunDigest(ctx, payload.Day)
}

// permanent stops asynq from retrying errors that cannot succeed on a later
// attempt, such as a deleted lead or a missing recipient.
func permanent(err error) error {
	if err == nil {
		return nil
	}
	switch apperr.GetKind(err) {
	case apperr.KindNotFound, apperr.KindValidation, apperr.KindBadRequest:
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}
	return err
}
