package order

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/petalworks/bloom/internal/database"
	"github.com/petalworks/bloom/internal/entity"
	"github.com/petalworks/bloom/internal/query"
	"github.com/petalworks/bloom/internal/store"
)

var repoTracer = otel.Tracer("github.com/petalworks/bloom/repository/order")

// ErrNotFound is returned when an order is missing.
var ErrNotFound = errors.New("order not found")

// Repository encapsulates read/write access for orders and their items.
type Repository struct {
	reader *bun.DB

	orders  *store.Table[entity.Order]
	ordersW *store.Table[entity.Order]
	items   *store.Table[entity.OrderItem]
	itemsW  *store.Table[entity.OrderItem]
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		reader:  conns.Reader,
		orders:  store.MustTable[entity.Order](conns.Reader, "orders"),
		ordersW: store.MustTable[entity.Order](conns.Writer, "orders"),
		items:   store.MustTable[entity.OrderItem](conns.Reader, "order_items"),
		itemsW:  store.MustTable[entity.OrderItem](conns.Writer, "order_items"),
	}
}

// Insert persists a new order row inside the given transaction.
func (r *Repository) Insert(ctx context.Context, tx bun.IDB, o *entity.Order) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.Insert",
		trace.WithAttributes(attribute.String("order.number", o.Number)))
	defer span.End()

	if err := r.ordersW.WithTx(tx).Create(ctx, o); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// InsertItems persists the order's line items inside the given transaction.
func (r *Repository) InsertItems(ctx context.Context, tx bun.IDB, items []*entity.OrderItem) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.InsertItems",
		trace.WithAttributes(attribute.Int("items", len(items))))
	defer span.End()

	if err := r.itemsW.WithTx(tx).CreateMany(ctx, items); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// GetByID fetches an order without its items.
func (r *Repository) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetByID",
		trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	o, err := r.orders.FindUnique(ctx, store.Options{Where: map[string]any{"id": id}})
	if errors.Is(err, store.ErrNotFound) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return o, nil
}

// GetWithItems fetches an order, its items, and the referenced products.
// The facade has no join support, so relations are fetched with separate
// selects and stitched together here.
func (r *Repository) GetWithItems(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.GetWithItems",
		trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	o, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := r.items.FindMany(ctx, store.Options{
		Where:   map[string]any{"order_id": id},
		OrderBy: &store.Order{Column: "id"},
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	if len(items) > 0 {
		ids := make([]any, 0, len(items))
		for _, it := range items {
			ids = append(ids, it.ProductID)
		}
		pb, err := query.New[entity.Product](r.reader, "products")
		if err != nil {
			return nil, err
		}
		res := pb.In("id", ids...).Execute(ctx)
		if !res.Success {
			span.RecordError(res.Err)
			return nil, res.Err
		}
		byID := make(map[int64]*entity.Product, len(res.Data))
		for i := range res.Data {
			byID[res.Data[i].ID] = &res.Data[i]
		}
		for i := range items {
			items[i].Product = byID[items[i].ProductID]
		}
	}

	o.Items = items
	return o, nil
}

// ListFilter narrows order listings.
type ListFilter struct {
	Status string
	Take   int
	Skip   int
}

// List returns matching orders, newest first, plus the unpaged match count.
func (r *Repository) List(ctx context.Context, f ListFilter) ([]entity.Order, int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.List")
	defer span.End()

	b, err := query.New[entity.Order](r.reader, "orders")
	if err != nil {
		return nil, 0, err
	}
	if f.Status != "" {
		b = b.Eq("status", f.Status)
	}
	b = b.OrderBy("created_at", true)
	if f.Skip > 0 || f.Take > 0 {
		take := f.Take
		if take <= 0 {
			take = 50
		}
		b = b.Range(f.Skip, f.Skip+take-1)
	}
	res := b.Execute(ctx)
	if !res.Success {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, "select failed")
		return nil, 0, res.Err
	}
	return res.Data, res.Count, nil
}

// UpdateStatus moves the order to st, stamping status_updated_at and
// optionally replacing notes. Returns the number of rows touched.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, st string, notes *string, at time.Time) (int, error) {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.UpdateStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.status", st),
	))
	defer span.End()

	data := map[string]any{
		"status":            st,
		"status_updated_at": at,
	}
	if notes != nil {
		data["notes"] = *notes
	}
	n, err := r.ordersW.Update(ctx, map[string]any{"id": id}, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return 0, err
	}
	return n, nil
}

// DeleteWithItems removes the order and cascades to its items inside the
// given transaction. Items go first so the owning row never dangles.
func (r *Repository) DeleteWithItems(ctx context.Context, tx bun.IDB, id int64) error {
	ctx, span := repoTracer.Start(ctx, "OrderRepository.DeleteWithItems",
		trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if _, err := r.itemsW.WithTx(tx).Delete(ctx, map[string]any{"order_id": id}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete items failed")
		return err
	}
	n, err := r.ordersW.WithTx(tx).Delete(ctx, map[string]any{"id": id})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delete order failed")
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
