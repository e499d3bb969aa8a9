package order

import (
	"context"
	"encoding/json"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/petalworks/bloom/internal/config"
	"github.com/petalworks/bloom/internal/messaging"
	ordersvc "github.com/petalworks/bloom/internal/service/order"
	"github.com/petalworks/bloom/internal/worker"
)

var workerTracer = otel.Tracer("github.com/petalworks/bloom/worker/order")

// Module registers order-related worker handlers.
var Module = fx.Module("worker_order",
	fx.Provide(
		fx.Annotate(
			NewOrderEventHandler,
			fx.ResultTags(`group:"worker.handlers"`),
		),
	),
)

// NewOrderEventHandler sets up a worker handler that processes order
// lifecycle events from the bus, keeping audit logging off the request path.
func NewOrderEventHandler(logger *zap.Logger, cfg config.Config) worker.HandlerRegistration {
	handler := func(ctx context.Context, msg messaging.Message) error {
		ctx, span := workerTracer.Start(ctx, "worker.orders.process", trace.WithAttributes(
			attribute.String("messaging.topic", msg.Topic),
		))
		defer span.End()

		var event ordersvc.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			logger.Error("failed to decode order event", zap.Error(err))

			span.RecordError(err)
			span.SetStatus(codes.Error, "decode error")
			return err
		}
		span.SetAttributes(attribute.String("order.event", event.Type))

		switch event.Type {
		case ordersvc.EventOrderCreated:
			logger.Info("order created event processed",
				zap.Int64("id", event.OrderID),
				zap.String("number", event.Number),
				zap.Int64("total_amount", event.TotalAmount),
			)
		case ordersvc.EventOrderStatusChanged:
			logger.Info("order status event processed",
				zap.Int64("id", event.OrderID),
				zap.String("number", event.Number),
				zap.String("from", event.PreviousStatus),
				zap.String("to", event.Status),
			)
		case ordersvc.EventOrderDeleted:
			logger.Info("order deleted event processed",
				zap.Int64("id", event.OrderID),
				zap.String("number", event.Number),
			)
		default:
			logger.Warn("unknown order event type", zap.String("type", event.Type))
		}

		return nil
	}

	return worker.HandlerRegistration{
		Topic:   cfg.Messaging.Kafka.Topic,
		Handler: handler,
	}
}
