package payment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/petalworks/bloom/internal/entity"
	orderrepo "github.com/petalworks/bloom/internal/repository/order"
	repo "github.com/petalworks/bloom/internal/repository/payment"
	"github.com/petalworks/bloom/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/petalworks/bloom/service/payment")

// Module provides the payment service to Fx.
var Module = fx.Provide(NewService)

// Service records and verifies payments against orders. Deliberately plain
// CRUD; no gateway integration lives here.
type Service struct {
	payments *repo.Repository
	orders   *orderrepo.Repository
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Payments *repo.Repository
	Orders   *orderrepo.Repository
	Logger   *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{payments: p.Payments, orders: p.Orders, logger: p.Logger}
}

// Record stores a payment report for an existing order, assigning a
// reference the shop can quote back to the customer.
func (s *Service) Record(ctx context.Context, orderID int64, method string, amount int64) (*entity.Payment, error) {
	if method == "" {
		return nil, errorbank.BadRequest("payment method is required")
	}
	if amount <= 0 {
		return nil, errorbank.BadRequest("payment amount must be positive")
	}
	ctx, span := serviceTracer.Start(ctx, "PaymentService.Record",
		trace.WithAttributes(attribute.Int64("order.id", orderID)))
	defer span.End()

	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, orderrepo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	p := &entity.Payment{
		OrderID:   orderID,
		Method:    method,
		Amount:    amount,
		Reference: uuid.NewString(),
	}
	if err := s.payments.Create(ctx, p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to record payment", errorbank.WithCause(err))
	}
	return p, nil
}

// Verify marks a recorded payment as checked by staff.
func (s *Service) Verify(ctx context.Context, id int64) (*entity.Payment, error) {
	ctx, span := serviceTracer.Start(ctx, "PaymentService.Verify",
		trace.WithAttributes(attribute.Int64("payment.id", id)))
	defer span.End()

	if err := s.payments.MarkVerified(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("payment not found")
		}
		span.RecordError(err)
		return nil, errorbank.Internal("failed to verify payment", errorbank.WithCause(err))
	}
	p, err := s.payments.GetByID(ctx, id)
	if err != nil {
		return nil, errorbank.Internal("failed to reload payment", errorbank.WithCause(err))
	}
	return p, nil
}

// ListByOrder returns payments recorded against an order.
func (s *Service) ListByOrder(ctx context.Context, orderID int64) ([]entity.Payment, error) {
	rows, err := s.payments.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, errorbank.Internal("failed to list payments", errorbank.WithCause(err))
	}
	return rows, nil
}
