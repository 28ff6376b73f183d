package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/flicky/storefront-api/internal/model"
)

// ErrInvalidInput is wrapped by validation failures that binding tags cannot express.
var ErrInvalidInput = errors.New("invalid input")

// Notifier queues outbound email. Implementations must not block on delivery.
type Notifier interface {
	OrderPaid(ctx context.Context, order *model.Order, email string) error
	ContactSubmitted(ctx context.Context, msg *model.ContactMessage) error
}

func nopIfNil(log *zap.Logger) *zap.Logger {
	if log == nil {
		return zap.NewNop()
	}
	return log
}
