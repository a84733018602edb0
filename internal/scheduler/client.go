package scheduler

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"time"

	"wrapcrm_backend/platform/config"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const defaultMaxRetry = 5

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(cfg config.SchedulerConfig) (*Client, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  queueName(cfg),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Enabled reports whether tasks actually reach a queue. A nil client
// accepts every enqueue and drops it.
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// EnqueueBookletSync asks the worker to refresh one booklet's carrier status.
// Repeated requests for the same booklet within a minute collapse into one.
func (c *Client) EnqueueBookletSync(ctx context.Context, bookletID uuid.UUID) error {
	if !c.Enabled() {
		return nil
	}

	task, err := NewBookletTrackingSyncTask(BookletTrackingSyncPayload{BookletID: bookletID.String()})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.MaxRetry(defaultMaxRetry),
		asynq.Unique(time.Minute),
	)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

// EnqueueInstallationEmail defers an installation email to the worker.
func (c *Client) EnqueueInstallationEmail(ctx context.Context, actor uuid.UUID, leadID uuid.UUID, emailType, customMessage string) error {
	if !c.Enabled() {
		return nil
	}

	task, err := NewInstallationEmailTask(InstallationEmailPayload{
		LeadID:        leadID.String(),
		Type:          emailType,
		CustomMessage: customMessage,
		ActorID:       actor.String(),
	})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue), asynq.MaxRetry(defaultMaxRetry))
	return err
}

// EnqueueFollowupDigest schedules the digest for day. The task id is derived
// from the day so a second dispatch for the same day is rejected by asynq.
func (c *Client) EnqueueFollowupDigest(ctx context.Context, day string) error {
	if !c.Enabled() {
		return nil
	}

	task, err := NewFollowupDigestTask(FollowupDigestPayload{Day: day})
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task,
		asynq.Queue(c.queue),
		asynq.TaskID("followups-digest-"+day),
		asynq.Retention(48*time.Hour),
	)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		return nil
	}
	return err
}

func queueName(cfg config.SchedulerConfig) string {
	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}
	return queue
}

func redisClientOpt(redisURL string, tlsInsecure bool) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	var tlsConfig *tls.Config
	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		tlsConfig = clone
	} else if tlsInsecure {
		tlsConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: tlsConfig,
	}, nil
}
