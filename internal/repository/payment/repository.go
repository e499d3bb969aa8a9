package payment

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"

	"github.com/petalworks/bloom/internal/database"
	"github.com/petalworks/bloom/internal/entity"
	"github.com/petalworks/bloom/internal/store"
)

var repoTracer = otel.Tracer("github.com/petalworks/bloom/repository/payment")

// ErrNotFound is returned when a payment is missing.
var ErrNotFound = errors.New("payment not found")

// Module provides the payment repository to Fx.
var Module = fx.Provide(NewRepository)

// Repository encapsulates payment persistence.
type Repository struct {
	payments  *store.Table[entity.Payment]
	paymentsW *store.Table[entity.Payment]
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		payments:  store.MustTable[entity.Payment](conns.Reader, "payments"),
		paymentsW: store.MustTable[entity.Payment](conns.Writer, "payments"),
	}
}

// Create records a payment against an order.
func (r *Repository) Create(ctx context.Context, p *entity.Payment) error {
	ctx, span := repoTracer.Start(ctx, "PaymentRepository.Create",
		trace.WithAttributes(attribute.Int64("order.id", p.OrderID)))
	defer span.End()

	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	if err := r.paymentsW.Create(ctx, p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// GetByID fetches one payment.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Payment, error) {
	p, err := r.payments.FindUnique(ctx, store.Options{Where: map[string]any{"id": id}})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListByOrder returns every payment recorded for an order.
func (r *Repository) ListByOrder(ctx context.Context, orderID int64) ([]entity.Payment, error) {
	return r.payments.FindMany(ctx, store.Options{
		Where:   map[string]any{"order_id": orderID},
		OrderBy: &store.Order{Column: "created_at", Desc: true},
	})
}

// MarkVerified flips the verified flag; returns ErrNotFound when the
// payment does not exist.
func (r *Repository) MarkVerified(ctx context.Context, id int64) error {
	n, err := r.paymentsW.Update(ctx, map[string]any{"id": id}, map[string]any{"verified": true})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
