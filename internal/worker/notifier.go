package worker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/flicky/storefront-api/internal/model"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Notifier publishes email notifications to the notifications queue.
// A Notifier built without a channel drops every message.
type Notifier struct {
	pub publisher
	log *zap.Logger
}

func NewNotifier(ch *amqp.Channel, log *zap.Logger) *Notifier {
	n := &Notifier{log: log}
	if ch != nil {
		n.pub = ch
	}
	return n
}

func (n *Notifier) OrderPaid(ctx context.Context, order *model.Order, email string) error {
	return n.publish(ctx, model.NotificationMessage{
		Kind:      model.NotificationOrderPaid,
		ID:        order.ID,
		Email:     email,
		Amount:    order.TotalAmount,
		Currency:  order.Currency,
		PaymentID: order.GatewayPaymentID,
		Items:     order.Items,
	})
}

func (n *Notifier) ContactSubmitted(ctx context.Context, msg *model.ContactMessage) error {
	return n.publish(ctx, model.NotificationMessage{
		Kind:    model.NotificationContactSubmitted,
		ID:      msg.ID,
		Email:   msg.Email,
		Name:    msg.Name,
		Subject: msg.Subject,
		Message: msg.Message,
	})
}

func (n *Notifier) publish(ctx context.Context, msg model.NotificationMessage) error {
	if n.pub == nil {
		n.log.Debug("notifier disabled, dropping message", zap.String("kind", msg.Kind))
		return nil
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	err = n.pub.PublishWithContext(ctx, "", notificationQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.Kind + ":" + msg.ID.String(),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
