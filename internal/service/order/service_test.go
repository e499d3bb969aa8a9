package order

import (
	"context"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.uber.org/zap"

	"github.com/petalworks/bloom/internal/entity"
	catalogrepo "github.com/petalworks/bloom/internal/repository/catalog"
	repo "github.com/petalworks/bloom/internal/repository/order"
	"github.com/petalworks/bloom/internal/status"
	"github.com/petalworks/bloom/internal/txn"
	"github.com/petalworks/bloom/internal/validate"
	"github.com/petalworks/bloom/pkg/errorbank"
)

type stockCall struct {
	productID int64
	qty       int
}

type fakeCatalog struct {
	products   map[int64]*entity.Product
	reserveErr error
	reserved   []stockCall
	restored   []stockCall
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, catalogrepo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeCatalog) ReserveStock(ctx context.Context, tx bun.IDB, productID int64, qty int) error {
	if f.reserveErr != nil {
		return f.reserveErr
	}
	p, ok := f.products[productID]
	if !ok || !p.Active || p.StockQuantity < qty {
		return catalogrepo.ErrInsufficientStock
	}
	p.StockQuantity -= qty
	f.reserved = append(f.reserved, stockCall{productID, qty})
	return nil
}

func (f *fakeCatalog) RestoreStock(ctx context.Context, tx bun.IDB, productID int64, qty int) error {
	if p, ok := f.products[productID]; ok {
		p.StockQuantity += qty
	}
	f.restored = append(f.restored, stockCall{productID, qty})
	return nil
}

type fakeOrders struct {
	nextID     int64
	orders     map[int64]*entity.Order
	items      map[int64][]*entity.OrderItem
	insertErrs []error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{
		orders: map[int64]*entity.Order{},
		items:  map[int64][]*entity.OrderItem{},
	}
}

func (f *fakeOrders) Insert(ctx context.Context, tx bun.IDB, o *entity.Order) error {
	if len(f.insertErrs) > 0 {
		err := f.insertErrs[0]
		f.insertErrs = f.insertErrs[1:]
		if err != nil {
			return err
		}
	}
	f.nextID++
	o.ID = f.nextID
	cp := *o
	f.orders[o.ID] = &cp
	return nil
}

func (f *fakeOrders) InsertItems(ctx context.Context, tx bun.IDB, items []*entity.OrderItem) error {
	for _, it := range items {
		f.items[it.OrderID] = append(f.items[it.OrderID], it)
	}
	return nil
}

func (f *fakeOrders) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) GetWithItems(ctx context.Context, id int64) (*entity.Order, error) {
	o, err := f.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, it := range f.items[id] {
		o.Items = append(o.Items, *it)
	}
	return o, nil
}

func (f *fakeOrders) List(ctx context.Context, flt repo.ListFilter) ([]entity.Order, int, error) {
	var out []entity.Order
	for _, o := range f.orders {
		if flt.Status == "" || o.Status == flt.Status {
			out = append(out, *o)
		}
	}
	return out, len(out), nil
}

func (f *fakeOrders) UpdateStatus(ctx context.Context, id int64, st string, notes *string, at time.Time) (int, error) {
	o, ok := f.orders[id]
	if !ok {
		return 0, nil
	}
	o.Status = st
	o.StatusUpdatedAt = at
	if notes != nil {
		o.Notes = *notes
	}
	return 1, nil
}

func (f *fakeOrders) DeleteWithItems(ctx context.Context, tx bun.IDB, id int64) error {
	if _, ok := f.orders[id]; !ok {
		return repo.ErrNotFound
	}
	delete(f.orders, id)
	delete(f.items, id)
	return nil
}

type fakeTx struct {
	runs int
}

func (f *fakeTx) Run(ctx context.Context, policy txn.Policy, ops ...txn.Operation) error {
	f.runs++
	for _, op := range ops {
		if err := op(ctx, nil); err != nil {
			return err
		}
	}
	return nil
}

type fakeNotifier struct {
	created       int
	statusChanged int
	err           error
}

func (f *fakeNotifier) OrderCreated(ctx context.Context, o *entity.Order) error {
	f.created++
	return f.err
}

func (f *fakeNotifier) StatusChanged(ctx context.Context, o *entity.Order, prev status.Status) error {
	f.statusChanged++
	return f.err
}

var frozenNow = time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

type fixture struct {
	catalog  *fakeCatalog
	orders   *fakeOrders
	tx       *fakeTx
	notifier *fakeNotifier
	svc      *Service
}

func newFixture() *fixture {
	f := &fixture{
		catalog:  &fakeCatalog{products: map[int64]*entity.Product{}},
		orders:   newFakeOrders(),
		tx:       &fakeTx{},
		notifier: &fakeNotifier{},
	}
	f.svc = &Service{
		catalog:        f.catalog,
		orders:         f.orders,
		tx:             f.tx,
		notifier:       f.notifier,
		logger:         zap.NewNop(),
		policy:         txn.DefaultPolicy,
		numberAttempts: 3,
		numberPrefix:   "BLM",
		now:            func() time.Time { return frozenNow },
	}
	return f
}

func (f *fixture) addProduct(id int64, name string, price int64, stock int, active bool) {
	f.catalog.products[id] = &entity.Product{
		ID: id, Name: name, Price: price, StockQuantity: stock, Active: active,
	}
}

func (f *fixture) seedOrder(st string) *entity.Order {
	f.orders.nextID++
	o := &entity.Order{
		ID:              f.orders.nextID,
		Number:          "BLM-20260314-000001-001",
		CustomerName:    "Maria Flores",
		CustomerEmail:   "maria@example.com",
		DeliveryAddress: "12 Rose Lane",
		Status:          st,
		TotalAmount:     11500,
		CreatedAt:       frozenNow,
		StatusUpdatedAt: frozenNow,
	}
	f.orders.orders[o.ID] = o
	return o
}

func orderInput() validate.CreateOrderInput {
	return validate.CreateOrderInput{
		CustomerName:    "Maria Flores",
		CustomerEmail:   "maria@example.com",
		DeliveryAddress: "12 Rose Lane",
		DeliveryDate:    "2026-03-20",
		Items: []validate.ItemInput{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	}
}

func requireKind(t *testing.T, err error, kind errorbank.Kind) *errorbank.AppError {
	t.Helper()
	require.Error(t, err)
	var appErr *errorbank.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, kind, appErr.Kind())
	return appErr
}

func TestCreateOrder(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "Red Roses", 4500, 10, true)
	f.addProduct(2, "Tulip Bundle", 2500, 5, true)

	got, err := f.svc.Create(context.Background(), orderInput())
	require.NoError(t, err)

	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, string(status.Pending), got.Status)
	assert.Equal(t, int64(2*4500+2500), got.TotalAmount)
	assert.Regexp(t, `^BLM-20260314-\d{6}-\d{3}$`, got.Number)
	assert.Equal(t, frozenNow, got.CreatedAt)
	assert.True(t, got.DeliveryDate.Equal(time.Date(2026, 3, 20, 0, 0, 0, 0, time.UTC)))

	require.Len(t, got.Items, 2)
	first := got.Items[0]
	assert.Equal(t, got.ID, first.OrderID)
	assert.Equal(t, int64(4500), first.UnitPrice)
	assert.Equal(t, int64(9000), first.Subtotal)
	require.NotNil(t, first.Product)
	assert.Equal(t, "Red Roses", first.Product.Name)

	assert.Equal(t, 8, f.catalog.products[1].StockQuantity)
	assert.Equal(t, 4, f.catalog.products[2].StockQuantity)
	assert.Equal(t, 1, f.tx.runs)
	assert.Equal(t, 1, f.notifier.created)
}

func TestCreateOrderRejectsInvalidPayload(t *testing.T) {
	f := newFixture()

	_, err := f.svc.Create(context.Background(), validate.CreateOrderInput{})
	appErr := requireKind(t, err, errorbank.KindBadRequest)
	assert.Contains(t, appErr.Details(), "errors")
	assert.Zero(t, f.tx.runs)
	assert.Empty(t, f.catalog.reserved)
}

func TestCreateOrderRejectsBadDeliveryDate(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "Red Roses", 4500, 10, true)
	f.addProduct(2, "Tulip Bundle", 2500, 5, true)

	in := orderInput()
	in.DeliveryDate = "20-03-2026"
	_, err := f.svc.Create(context.Background(), in)
	requireKind(t, err, errorbank.KindBadRequest)
	assert.Zero(t, f.tx.runs)
}

func TestCreateOrderUnknownProduct(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "Red Roses", 4500, 10, true)

	_, err := f.svc.Create(context.Background(), orderInput())
	appErr := requireKind(t, err, errorbank.KindNotFound)
	assert.Equal(t, int64(2), appErr.Details()["product_id"])
	assert.Zero(t, f.tx.runs)
}

func TestCreateOrderInactiveProduct(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "Red Roses", 4500, 10, false)
	f.addProduct(2, "Tulip Bundle", 2500, 5, true)

	_, err := f.svc.Create(context.Background(), orderInput())
	requireKind(t, err, errorbank.KindBadRequest)
	assert.Zero(t, f.tx.runs)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "Red Roses", 4500, 1, true)
	f.addProduct(2, "Tulip Bundle", 2500, 5, true)

	_, err := f.svc.Create(context.Background(), orderInput())
	appErr := requireKind(t, err, errorbank.KindBadRequest)
	assert.Equal(t, 1, appErr.Details()["available"])
	assert.Equal(t, 2, appErr.Details()["requested"])

	// No state was touched: the order never reached the transaction.
	assert.Zero(t, f.tx.runs)
	assert.Empty(t, f.catalog.reserved)
	assert.Empty(t, f.orders.orders)
}

func TestCreateOrderStockRaceAbortsBatch(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "Red Roses", 4500, 10, true)
	f.addProduct(2, "Tulip Bundle", 2500, 5, true)
	// The pre-check passes but a concurrent order drains stock before the
	// batch runs.
	f.catalog.reserveErr = catalogrepo.ErrInsufficientStock

	_, err := f.svc.Create(context.Background(), orderInput())
	requireKind(t, err, errorbank.KindBadRequest)
	assert.Equal(t, 1, f.tx.runs)
	assert.Empty(t, f.orders.orders)
	assert.Zero(t, f.notifier.created)
}

func TestCreateOrderRetriesNumberCollision(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "Red Roses", 4500, 100, true)
	f.addProduct(2, "Tulip Bundle", 2500, 100, true)
	f.orders.insertErrs = []error{
		&mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'orders_number_key'"},
	}

	got, err := f.svc.Create(context.Background(), orderInput())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Equal(t, 2, f.tx.runs)
}

func TestCreateOrderGivesUpAfterRepeatedCollisions(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "Red Roses", 4500, 100, true)
	f.addProduct(2, "Tulip Bundle", 2500, 100, true)
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry for key 'orders_number_key'"}
	f.orders.insertErrs = []error{dup, dup, dup}

	_, err := f.svc.Create(context.Background(), orderInput())
	requireKind(t, err, errorbank.KindInternal)
	assert.Equal(t, 3, f.tx.runs)
	assert.Zero(t, f.notifier.created)
}

func TestGetOrder(t *testing.T) {
	f := newFixture()
	o := f.seedOrder(string(status.Pending))
	f.orders.items[o.ID] = []*entity.OrderItem{
		{OrderID: o.ID, ProductID: 1, Quantity: 2, UnitPrice: 4500, Subtotal: 9000},
	}

	got, err := f.svc.Get(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, o.Number, got.Number)
	assert.Len(t, got.Items, 1)
}

func TestGetOrderNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Get(context.Background(), 42)
	requireKind(t, err, errorbank.KindNotFound)
}

func TestListOrders(t *testing.T) {
	f := newFixture()
	f.seedOrder(string(status.Pending))
	f.seedOrder(string(status.Delivered))

	orders, count, err := f.svc.List(context.Background(), string(status.Pending), 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, orders, 1)
	assert.Equal(t, string(status.Pending), orders[0].Status)
}

func TestListOrdersUnknownStatusFilter(t *testing.T) {
	f := newFixture()
	_, _, err := f.svc.List(context.Background(), "shipped", 0, 0)
	requireKind(t, err, errorbank.KindBadRequest)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture()
	o := f.seedOrder(string(status.Pending))

	got, err := f.svc.UpdateStatus(context.Background(), o.ID, "confirmed", nil)
	require.NoError(t, err)
	assert.Equal(t, string(status.Confirmed), got.Status)
	assert.Equal(t, frozenNow, got.StatusUpdatedAt)
	assert.Equal(t, 1, f.notifier.statusChanged)

	stored, err := f.orders.GetByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, string(status.Confirmed), stored.Status)
}

func TestUpdateStatusReplacesNotes(t *testing.T) {
	f := newFixture()
	o := f.seedOrder(string(status.Confirmed))
	notes := "ring the side bell"

	got, err := f.svc.UpdateStatus(context.Background(), o.ID, "preparing", &notes)
	require.NoError(t, err)
	assert.Equal(t, notes, got.Notes)
}

func TestUpdateStatusUnknownTarget(t *testing.T) {
	f := newFixture()
	o := f.seedOrder(string(status.Pending))

	_, err := f.svc.UpdateStatus(context.Background(), o.ID, "shipped", nil)
	requireKind(t, err, errorbank.KindBadRequest)
}

func TestUpdateStatusOrderNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.UpdateStatus(context.Background(), 42, "confirmed", nil)
	requireKind(t, err, errorbank.KindNotFound)
}

func TestUpdateStatusDeliveredIsFinal(t *testing.T) {
	f := newFixture()
	o := f.seedOrder(string(status.Delivered))

	_, err := f.svc.UpdateStatus(context.Background(), o.ID, "preparing", nil)
	appErr := requireKind(t, err, errorbank.KindConflict)
	assert.Equal(t, "delivered", appErr.Details()["from"])
	assert.Equal(t, "preparing", appErr.Details()["to"])
	assert.Zero(t, f.notifier.statusChanged)
}

func TestUpdateStatusDeliveredSelfEdgeSkipsNotification(t *testing.T) {
	f := newFixture()
	o := f.seedOrder(string(status.Delivered))

	got, err := f.svc.UpdateStatus(context.Background(), o.ID, "delivered", nil)
	require.NoError(t, err)
	assert.Equal(t, string(status.Delivered), got.Status)
	assert.Zero(t, f.notifier.statusChanged)
}

func TestUpdateStatusCancelledCannotDeliver(t *testing.T) {
	f := newFixture()
	o := f.seedOrder(string(status.Cancelled))

	_, err := f.svc.UpdateStatus(context.Background(), o.ID, "delivered", nil)
	requireKind(t, err, errorbank.KindConflict)
}

func TestDeleteOrderRestoresStock(t *testing.T) {
	f := newFixture()
	f.addProduct(1, "Red Roses", 4500, 8, true)
	f.addProduct(2, "Tulip Bundle", 2500, 4, true)
	o := f.seedOrder(string(status.Confirmed))
	f.orders.items[o.ID] = []*entity.OrderItem{
		{OrderID: o.ID, ProductID: 1, Quantity: 2, UnitPrice: 4500, Subtotal: 9000},
		{OrderID: o.ID, ProductID: 2, Quantity: 1, UnitPrice: 2500, Subtotal: 2500},
	}

	res, err := f.svc.Delete(context.Background(), o.ID)
	require.NoError(t, err)

	assert.Equal(t, o.ID, res.OrderID)
	assert.Equal(t, o.Number, res.Number)
	assert.ElementsMatch(t, []RestoredStock{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}, res.Restored)

	assert.Equal(t, 10, f.catalog.products[1].StockQuantity)
	assert.Equal(t, 5, f.catalog.products[2].StockQuantity)
	assert.Equal(t, 1, f.tx.runs)

	_, err = f.orders.GetByID(context.Background(), o.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
}

func TestDeleteDeliveredOrderRejected(t *testing.T) {
	f := newFixture()
	o := f.seedOrder(string(status.Delivered))

	_, err := f.svc.Delete(context.Background(), o.ID)
	requireKind(t, err, errorbank.KindConflict)
	assert.Zero(t, f.tx.runs)
	assert.Contains(t, f.orders.orders, o.ID)
}

func TestDeleteOrderNotFound(t *testing.T) {
	f := newFixture()
	_, err := f.svc.Delete(context.Background(), 42)
	requireKind(t, err, errorbank.KindNotFound)
}
