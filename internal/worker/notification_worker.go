package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/flicky/storefront-api/internal/mailer"
	"github.com/flicky/storefront-api/internal/model"
)

const idempotencyTTL = 24 * time.Hour

type idempotencyStore interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

type NotificationWorker struct {
	channel    *amqp.Channel
	store      idempotencyStore
	sender     mailer.EmailSender
	adminInbox string
	log        *zap.Logger
	done       chan struct{}
}

func NewNotificationWorker(
	ch *amqp.Channel,
	redisClient *redis.Client,
	sender mailer.EmailSender,
	adminInbox string,
	log *zap.Logger,
) *NotificationWorker {
	return &NotificationWorker{
		channel:    ch,
		store:      redisClient,
		sender:     sender,
		adminInbox: adminInbox,
		log:        log,
		done:       make(chan struct{}),
	}
}

func (w *NotificationWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(notificationQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("notification worker started")
	return nil
}

func (w *NotificationWorker) Stop() { close(w.done) }

func (w *NotificationWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var n model.NotificationMessage
	if err := json.Unmarshal(msg.Body, &n); err != nil {
		w.log.Error("unmarshal notification", zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With(zap.String("kind", n.Kind), zap.String("id", n.ID.String()))

	key := fmt.Sprintf("notification_sent:%s:%s", n.Kind, n.ID)
	exists, err := w.store.Exists(ctx, key).Result()
	if err != nil {
		log.Error("check idempotency key", zap.Error(err))
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("notification already sent, skipping")
		_ = msg.Ack(false)
		return
	}

	res, err := w.send(ctx, n)
	if err != nil {
		log.Error("send notification failed", zap.Error(err))
		_ = msg.Nack(false, false) // dead-lettered
		return
	}

	if err := w.store.Set(ctx, key, res.MessageID, idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", zap.Error(err))
	}

	_ = msg.Ack(false)
	log.Info("notification sent", zap.String("message_id", res.MessageID))
}

func (w *NotificationWorker) send(ctx context.Context, n model.NotificationMessage) (mailer.SendResult, error) {
	var (
		to, subject, body string
		err               error
	)
	switch n.Kind {
	case model.NotificationOrderPaid:
		to = n.Email
		subject, body, err = mailer.OrderPaidEmail(n)
	case model.NotificationContactSubmitted:
		to = w.adminInbox
		subject, body, err = mailer.ContactEmail(n)
	default:
		return mailer.SendResult{}, fmt.Errorf("unknown notification kind %q", n.Kind)
	}
	if err != nil {
		return mailer.SendResult{}, err
	}
	if to == "" {
		return mailer.SendResult{}, fmt.Errorf("no recipient for %s", n.Kind)
	}
	return w.sender.SendEmail(ctx, to, subject, body)
}
