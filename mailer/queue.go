package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	DefaultQueueKey = "citycare:mail"
	// DefaultMaxAttempts bounds relay deliveries before a message is dead-lettered.
	DefaultMaxAttempts = 3
)

// DeadLetterKey is the list holding messages the relay gave up on.
func DeadLetterKey(key string) string { return key + ":dead" }

// QueueSender pushes messages onto a Redis list instead of talking SMTP.
type QueueSender struct {
	client *redis.Client
	key    string
}

func NewQueueSender(client *redis.Client, key string) *QueueSender {
	if key == "" {
		key = DefaultQueueKey
	}
	return &QueueSender{client: client, key: key}
}

func (q *QueueSender) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue mail: %w", err)
	}
	return nil
}

// Relay drains the mail queue into a Sender.
type Relay struct {
	client      *redis.Client
	key         string
	sender      Sender
	logger      *zap.Logger
	timeout     time.Duration
	maxAttempts int
}

func NewRelay(client *redis.Client, key string, sender Sender, logger *zap.Logger) *Relay {
	if key == "" {
		key = DefaultQueueKey
	}
	return &Relay{
		client:      client,
		key:         key,
		sender:      sender,
		logger:      logger,
		timeout:     5 * time.Second,
		maxAttempts: DefaultMaxAttempts,
	}
}

// Run blocks until ctx is cancelled. A failed delivery goes back on the
// queue until maxAttempts is reached, then onto the dead-letter list.
func (r *Relay) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		res, err := r.client.BRPop(ctx, r.timeout, r.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read mail queue: %w", err)
		}
		// res is [key, value]
		r.deliver(ctx, res[1])
	}
}

func (r *Relay) deliver(ctx context.Context, payload string) {
	var msg Message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		r.logger.Warn("dead-lettering malformed mail payload", zap.Error(err))
		r.push(ctx, DeadLetterKey(r.key), payload)
		return
	}

	fields := []zap.Field{
		zap.String("kind", msg.Kind),
		zap.String("to", msg.To),
		zap.String("request_id", msg.RequestID),
	}
	err := r.sender.Send(ctx, msg)
	if err == nil {
		r.logger.Info("email delivered", fields...)
		return
	}

	msg.Attempts++
	fields = append(fields, zap.Int("attempts", msg.Attempts), zap.Error(err))
	next, merr := json.Marshal(msg)
	if merr != nil {
		r.logger.Error("encode mail for retry", append(fields, zap.NamedError("encode_error", merr))...)
		return
	}
	if msg.Attempts < r.maxAttempts {
		r.logger.Warn("email delivery failed, requeued", fields...)
		r.push(ctx, r.key, string(next))
		return
	}
	r.logger.Error("email delivery failed, dead-lettered", fields...)
	r.push(ctx, DeadLetterKey(r.key), string(next))
}

// push survives cancellation of ctx so a message read during shutdown is not lost.
func (r *Relay) push(ctx context.Context, key, payload string) {
	if err := r.client.LPush(context.WithoutCancel(ctx), key, payload).Err(); err != nil {
		r.logger.Error("requeue mail", zap.String("key", key), zap.Error(err))
	}
}
