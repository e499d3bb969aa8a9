// Package notify is the boundary to the customer-notification collaborator.
// The core treats delivery as fire-and-forget: a failed notification is
// logged and swallowed, never failing the order operation that spawned it.
package notify

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/petalworks/bloom/internal/entity"
	"github.com/petalworks/bloom/internal/status"
)

// Notifier delivers customer-facing messages about orders.
type Notifier interface {
	// OrderCreated sends the order confirmation.
	OrderCreated(ctx context.Context, order *entity.Order) error
	// StatusChanged informs the customer their order moved stages.
	StatusChanged(ctx context.Context, order *entity.Order, previous status.Status) error
}

// Module provides the default notifier to Fx.
var Module = fx.Provide(NewLogNotifier)

// LogNotifier records deliveries in the service log. It stands in for the
// real mail collaborator, which is outside this service.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier builds the logging notifier.
func NewLogNotifier(logger *zap.Logger) Notifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) OrderCreated(ctx context.Context, order *entity.Order) error {
	n.logger.Info("order confirmation queued",
		zap.String("number", order.Number),
		zap.String("email", order.CustomerEmail),
		zap.Int64("total_amount", order.TotalAmount),
	)
	return nil
}

func (n *LogNotifier) StatusChanged(ctx context.Context, order *entity.Order, previous status.Status) error {
	n.logger.Info("order status notification queued",
		zap.String("number", order.Number),
		zap.String("from", string(previous)),
		zap.String("to", order.Status),
	)
	return nil
}
