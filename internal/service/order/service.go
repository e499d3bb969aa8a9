package order

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/petalworks/bloom/internal/cache"
	"github.com/petalworks/bloom/internal/config"
	"github.com/petalworks/bloom/internal/entity"
	"github.com/petalworks/bloom/internal/messaging"
	"github.com/petalworks/bloom/internal/notify"
	catalogrepo "github.com/petalworks/bloom/internal/repository/catalog"
	repo "github.com/petalworks/bloom/internal/repository/order"
	"github.com/petalworks/bloom/internal/status"
	"github.com/petalworks/bloom/internal/store"
	"github.com/petalworks/bloom/internal/txn"
	"github.com/petalworks/bloom/internal/validate"
	"github.com/petalworks/bloom/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/petalworks/bloom/service/order")

// CatalogStore is the slice of catalog access the workflow needs.
type CatalogStore interface {
	GetProduct(ctx context.Context, id int64) (*entity.Product, error)
	ReserveStock(ctx context.Context, tx bun.IDB, productID int64, qty int) error
	RestoreStock(ctx context.Context, tx bun.IDB, productID int64, qty int) error
}

// OrderStore is the slice of order persistence the workflow needs.
type OrderStore interface {
	Insert(ctx context.Context, tx bun.IDB, o *entity.Order) error
	InsertItems(ctx context.Context, tx bun.IDB, items []*entity.OrderItem) error
	GetByID(ctx context.Context, id int64) (*entity.Order, error)
	GetWithItems(ctx context.Context, id int64) (*entity.Order, error)
	List(ctx context.Context, f repo.ListFilter) ([]entity.Order, int, error)
	UpdateStatus(ctx context.Context, id int64, st string, notes *string, at time.Time) (int, error)
	DeleteWithItems(ctx context.Context, tx bun.IDB, id int64) error
}

// TxRunner executes ordered operation batches atomically.
type TxRunner interface {
	Run(ctx context.Context, policy txn.Policy, ops ...txn.Operation) error
}

// Service orchestrates the order lifecycle: creation with transactional
// stock reservation, status transitions, and deletion with stock restore.
type Service struct {
	catalog   CatalogStore
	orders    OrderStore
	tx        TxRunner
	notifier  notify.Notifier
	cache     cache.Store
	cacheTTL  time.Duration
	logger    *zap.Logger
	publisher messaging.Client
	messaging messagingConfig

	policy         txn.Policy
	numberAttempts int
	numberPrefix   string
	now            func() time.Time
}

// messagingConfig contains messaging specific knobs we care about.
type messagingConfig struct {
	enabled bool
	topic   string
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Orders    *repo.Repository
	Catalog   *catalogrepo.Repository
	Tx        *txn.Executor
	Notifier  notify.Notifier
	Cache     cache.Store
	Config    config.Config
	Logger    *zap.Logger
	Publisher messaging.Client
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		catalog:   p.Catalog,
		orders:    p.Orders,
		tx:        p.Tx,
		notifier:  p.Notifier,
		cache:     p.Cache,
		cacheTTL:  p.Config.Cache.DefaultTTL,
		logger:    p.Logger,
		publisher: p.Publisher,
		messaging: messagingConfig{
			enabled: p.Config.Messaging.Enabled,
			topic:   p.Config.Messaging.Kafka.Topic,
		},
		policy: txn.Policy{
			Timeout: p.Config.Orders.TxTimeout,
			MaxWait: p.Config.Orders.TxMaxWait,
		},
		numberAttempts: p.Config.Orders.NumberAttempts,
		numberPrefix:   p.Config.Orders.NumberPrefix,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the request, reserves stock, and persists the order with
// its items in one transaction. No state changes unless every check passes
// and the whole batch commits.
func (s *Service) Create(ctx context.Context, in validate.CreateOrderInput) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Create",
		trace.WithAttributes(attribute.Int("items", len(in.Items))))
	defer span.End()

	fieldErrs := validate.CreateOrder(in)
	var deliveryDate time.Time
	if in.DeliveryDate != "" {
		parsed, err := time.Parse("2006-01-02", in.DeliveryDate)
		if err != nil {
			fieldErrs = append(fieldErrs, validate.FieldError{
				Field:   "delivery_date",
				Message: "delivery date must be YYYY-MM-DD",
				Code:    validate.CodeFormat,
			})
		} else {
			deliveryDate = parsed
		}
	}
	if len(fieldErrs) > 0 {
		return nil, errorbank.BadRequest("invalid order payload",
			errorbank.WithDetail("errors", fieldErrs))
	}

	// Phase one: look up and validate every product before touching any
	// state, in request order.
	products := make([]*entity.Product, 0, len(in.Items))
	var total int64
	for _, item := range in.Items {
		p, err := s.catalog.GetProduct(ctx, item.ProductID)
		if errors.Is(err, catalogrepo.ErrNotFound) {
			return nil, errorbank.NotFound(
				fmt.Sprintf("product %d not found", item.ProductID),
				errorbank.WithDetail("product_id", item.ProductID))
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "product lookup failed")
			return nil, errorbank.Internal("failed to load product", errorbank.WithCause(err))
		}
		if !p.Active {
			return nil, errorbank.BadRequest(
				fmt.Sprintf("product %q is not available", p.Name),
				errorbank.WithDetail("product_id", p.ID))
		}
		if p.StockQuantity < item.Quantity {
			return nil, errorbank.BadRequest(
				fmt.Sprintf("insufficient stock for %q", p.Name),
				errorbank.WithDetails(map[string]any{
					"product_id": p.ID,
					"available":  p.StockQuantity,
					"requested":  item.Quantity,
				}))
		}
		total += p.Price * int64(item.Quantity)
		products = append(products, p)
	}

	// Phase two: mutate inside one transaction. Prices are snapshotted into
	// the items so later catalog edits cannot rewrite history.
	var created *entity.Order
	for attempt := 0; attempt < s.numberAttempts; attempt++ {
		now := s.now()
		order := &entity.Order{
			Number:          newOrderNumber(s.numberPrefix, now),
			CustomerName:    in.CustomerName,
			CustomerEmail:   in.CustomerEmail,
			CustomerPhone:   in.CustomerPhone,
			DeliveryAddress: in.DeliveryAddress,
			DeliveryDate:    deliveryDate,
			PaymentMethodID: in.PaymentMethodID,
			Status:          string(status.Pending),
			TotalAmount:     total,
			Notes:           in.Notes,
			CreatedAt:       now,
			StatusUpdatedAt: now,
		}
		items := make([]*entity.OrderItem, 0, len(in.Items))
		for i, item := range in.Items {
			p := products[i]
			items = append(items, &entity.OrderItem{
				ProductID: p.ID,
				Quantity:  item.Quantity,
				UnitPrice: p.Price,
				Subtotal:  p.Price * int64(item.Quantity),
			})
		}

		ops := make([]txn.Operation, 0, len(items)+2)
		for _, it := range items {
			it := it
			ops = append(ops, func(ctx context.Context, tx bun.IDB) error {
				return s.catalog.ReserveStock(ctx, tx, it.ProductID, it.Quantity)
			})
		}
		ops = append(ops, func(ctx context.Context, tx bun.IDB) error {
			return s.orders.Insert(ctx, tx, order)
		})
		ops = append(ops, func(ctx context.Context, tx bun.IDB) error {
			for _, it := range items {
				it.OrderID = order.ID
			}
			return s.orders.InsertItems(ctx, tx, items)
		})

		err := s.tx.Run(ctx, s.policy, ops...)
		if err == nil {
			for i, it := range items {
				it.Product = products[i]
				order.Items = append(order.Items, *it)
			}
			created = order
			break
		}
		if store.IsUniqueViolation(err) {
			s.logger.Warn("order number collision, regenerating",
				zap.String("number", order.Number), zap.Int("attempt", attempt+1))
			continue
		}
		if errors.Is(err, catalogrepo.ErrInsufficientStock) {
			// A concurrent order won the race after our phase-one check.
			return nil, errorbank.BadRequest("insufficient stock",
				errorbank.WithCause(err))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction failed")
		return nil, errorbank.Internal("failed to create order", errorbank.WithCause(err))
	}
	if created == nil {
		return nil, errorbank.Internal("could not allocate a unique order number")
	}

	if err := s.notifier.OrderCreated(ctx, created); err != nil {
		s.logger.Warn("order confirmation failed",
			zap.String("number", created.Number), zap.Error(err))
	}
	s.publishEvent(ctx, Event{
		Type:        EventOrderCreated,
		OrderID:     created.ID,
		Number:      created.Number,
		Status:      created.Status,
		TotalAmount: created.TotalAmount,
		OccurredAt:  created.CreatedAt,
	})
	if err := s.storeInCache(ctx, created); err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", created.ID), zap.Error(err))
	}

	return created, nil
}

// Get retrieves an order with items, consulting cache when available.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Get",
		trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	if order, err := s.getFromCache(ctx, id); err == nil {
		return order, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("orders cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	order, err := s.orders.GetWithItems(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("order not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, order); err != nil {
		s.logger.Warn("orders cache write failed", zap.Int64("id", id), zap.Error(err))
	}

	return order, nil
}

// List returns orders, optionally filtered by status, plus the total count.
func (s *Service) List(ctx context.Context, statusFilter string, take, skip int) ([]entity.Order, int, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.List")
	defer span.End()

	if statusFilter != "" {
		if _, err := status.Parse(statusFilter); err != nil {
			return nil, 0, errorbank.BadRequest("unknown status filter",
				errorbank.WithDetail("status", statusFilter))
		}
	}
	orders, count, err := s.orders.List(ctx, repo.ListFilter{Status: statusFilter, Take: take, Skip: skip})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, 0, errorbank.Internal("failed to list orders", errorbank.WithCause(err))
	}
	return orders, count, nil
}

// UpdateStatus moves the order along the lifecycle graph. Illegal edges are
// rejected as conflicts before anything is written.
func (s *Service) UpdateStatus(ctx context.Context, id int64, target string, notes *string) (*entity.Order, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.Int64("order.id", id),
		attribute.String("order.target_status", target),
	))
	defer span.End()

	to, err := status.Parse(target)
	if err != nil {
		return nil, errorbank.BadRequest("unknown status",
			errorbank.WithDetail("status", target))
	}

	order, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, errorbank.NotFound("order not found")
	}
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}

	from, err := status.Parse(order.Status)
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("order has a corrupt status", errorbank.WithCause(err))
	}
	if !status.CanTransition(from, to) {
		return nil, errorbank.Conflict(
			fmt.Sprintf("cannot move order from %s to %s", from, to),
			errorbank.WithDetails(map[string]any{"from": string(from), "to": string(to)}))
	}

	now := s.now()
	n, err := s.orders.UpdateStatus(ctx, id, string(to), notes, now)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to update status", errorbank.WithCause(err))
	}
	if n == 0 {
		return nil, errorbank.NotFound("order not found")
	}

	order.Status = string(to)
	order.StatusUpdatedAt = now
	if notes != nil {
		order.Notes = *notes
	}

	if to != from && order.HasContact() {
		if err := s.notifier.StatusChanged(ctx, order, from); err != nil {
			s.logger.Warn("status notification failed",
				zap.String("number", order.Number), zap.Error(err))
		}
	}
	s.publishEvent(ctx, Event{
		Type:           EventOrderStatusChanged,
		OrderID:        order.ID,
		Number:         order.Number,
		Status:         order.Status,
		PreviousStatus: string(from),
		OccurredAt:     now,
	})
	s.dropFromCache(ctx, id)

	return order, nil
}

// RestoredStock reports one stock restoration performed by a deletion.
type RestoredStock struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// DeleteResult is the audit record returned by Delete.
type DeleteResult struct {
	OrderID  int64           `json:"order_id"`
	Number   string          `json:"number"`
	Restored []RestoredStock `json:"restored"`
}

// Delete removes a non-delivered order, restoring each item's stock in the
// same transaction that removes the rows.
func (s *Service) Delete(ctx context.Context, id int64) (*DeleteResult, error) {
	ctx, span := serviceTracer.Start(ctx, "OrderService.Delete",
		trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	order, err := s.orders.GetWithItems(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, errorbank.NotFound("order not found")
	}
	if err != nil {
		span.RecordError(err)
		return nil, errorbank.Internal("failed to load order", errorbank.WithCause(err))
	}
	if order.Status == string(status.Delivered) {
		return nil, errorbank.Conflict("delivered orders cannot be deleted",
			errorbank.WithDetail("order_id", id))
	}

	restored := make([]RestoredStock, 0, len(order.Items))
	ops := make([]txn.Operation, 0, len(order.Items)+1)
	for _, it := range order.Items {
		it := it
		ops = append(ops, func(ctx context.Context, tx bun.IDB) error {
			return s.catalog.RestoreStock(ctx, tx, it.ProductID, it.Quantity)
		})
		restored = append(restored, RestoredStock{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	ops = append(ops, func(ctx context.Context, tx bun.IDB) error {
		return s.orders.DeleteWithItems(ctx, tx, id)
	})

	if err := s.tx.Run(ctx, s.policy, ops...); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transaction failed")
		return nil, errorbank.Internal("failed to delete order", errorbank.WithCause(err))
	}

	s.publishEvent(ctx, Event{
		Type:       EventOrderDeleted,
		OrderID:    order.ID,
		Number:     order.Number,
		Status:     order.Status,
		OccurredAt: s.now(),
	})
	s.dropFromCache(ctx, id)

	return &DeleteResult{OrderID: order.ID, Number: order.Number, Restored: restored}, nil
}

func (s *Service) publishEvent(ctx context.Context, ev Event) {
	if !s.messaging.enabled || s.publisher == nil {
		return
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		s.logger.Error("marshal order event", zap.Error(err))
		return
	}
	key := []byte(fmt.Sprintf("order-%d", ev.OrderID))
	if err := s.publisher.Publish(ctx, key, payload); err != nil {
		s.logger.Error("publish order event", zap.String("type", ev.Type), zap.Error(err))
	}
}

func (s *Service) cacheKey(id int64) string {
	return fmt.Sprintf("orders:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Order, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var order entity.Order
	if err := json.Unmarshal(bytes, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Service) storeInCache(ctx context.Context, order *entity.Order) error {
	if s.cache == nil || order == nil {
		return nil
	}
	bytes, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(order.ID), bytes, s.cacheTTL)
}

func (s *Service) dropFromCache(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil {
		s.logger.Warn("orders cache delete failed", zap.Int64("id", id), zap.Error(err))
	}
}
