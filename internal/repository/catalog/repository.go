package catalog

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
	"github.com/petalworks/bloom/internal/store"
)

var repoTracer = otel.Tracer("github.com/petalworks/bloom/repository/catalog")

// ErrNotFound is returned when a product or occasion is missing.
var ErrNotFound = errors.New("catalog: not found")

// ErrInsufficientStock is returned when a conditional stock reservation
// does not apply, either because stock ran out or the product vanished.
var ErrInsufficientStock = errors.New("catalog: insufficient stock")

// Repository encapsulates catalog data access. Reads go to the replica,
// writes and stock adjustments to the primary.
type Repository struct {
	products  *store.Table[entity.Product]
	productsW *store.Table[entity.Product]
	occasions *store.Table[entity.Occasion]
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		products:  store.MustTable[entity.Product](conns.Reader, "products"),
		productsW: store.MustTable[entity.Product](conns.Writer, "products"),
		occasions: store.MustTable[entity.Occasion](conns.Reader, "occasions"),
	}
}

// GetProduct fetches one product by primary key.
func (r *Repository) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.GetProduct",
		trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	p, err := r.products.FindUnique(ctx, store.Options{Where: map[string]any{"id": id}})
	if errors.Is(err, store.ErrNotFound) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return p, nil
}

// ListFilter narrows product listings.
type ListFilter struct {
	OccasionID int64
	ActiveOnly bool
	Take       int
	Skip       int
}

// ListProducts returns matching products plus the unpaged match count.
func (r *Repository) ListProducts(ctx context.Context, f ListFilter) ([]entity.Product, error) {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.ListProducts")
	defer span.End()

	where := map[string]any{}
	if f.ActiveOnly {
		where["active"] = true
	}
	if f.OccasionID > 0 {
		where["occasion_id"] = f.OccasionID
	}
	rows, err := r.products.FindMany(ctx, store.Options{
		Where:   where,
		OrderBy: &store.Order{Column: "name"},
		Take:    f.Take,
		Skip:    f.Skip,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return rows, nil
}

// CreateProduct persists a new catalog item.
func (r *Repository) CreateProduct(ctx context.Context, p *entity.Product) error {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.CreateProduct",
		trace.WithAttributes(attribute.String("product.name", p.Name)))
	defer span.End()

	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if err := r.productsW.Create(ctx, p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	return nil
}

// UpdateProduct applies field updates to one product. Stock is deliberately
// not updatable here; only the order workflow touches it.
func (r *Repository) UpdateProduct(ctx context.Context, id int64, data map[string]any) error {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.UpdateProduct",
		trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	delete(data, "stock_quantity")
	data["updated_at"] = time.Now().UTC()
	n, err := r.productsW.Update(ctx, map[string]any{"id": id}, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivateProduct soft-deletes a product so past orders keep their
// references.
func (r *Repository) DeactivateProduct(ctx context.Context, id int64) error {
	return r.UpdateProduct(ctx, id, map[string]any{"active": false})
}

// ListOccasions returns every occasion.
func (r *Repository) ListOccasions(ctx context.Context) ([]entity.Occasion, error) {
	return r.occasions.FindMany(ctx, store.Options{OrderBy: &store.Order{Column: "name"}})
}

// ReserveStock decrements the product's stock by qty inside the given
// transaction. The decrement is conditional on stock_quantity >= qty, so
// concurrent reservations can never drive stock negative.
func (r *Repository) ReserveStock(ctx context.Context, tx bun.IDB, productID int64, qty int) error {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.ReserveStock", trace.WithAttributes(
		attribute.Int64("product.id", productID),
		attribute.Int("quantity", qty),
	))
	defer span.End()

	n, err := r.productsW.WithTx(tx).Increment(ctx, "stock_quantity", -int64(qty),
		map[string]any{"id": productID, "active": true})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decrement failed")
		return err
	}
	if n == 0 {
		span.SetStatus(codes.Error, "insufficient stock")
		return ErrInsufficientStock
	}
	return nil
}

// RestoreStock adds qty back to the product's stock inside the given
// transaction, the exact inverse of ReserveStock.
func (r *Repository) RestoreStock(ctx context.Context, tx bun.IDB, productID int64, qty int) error {
	ctx, span := repoTracer.Start(ctx, "CatalogRepository.RestoreStock", trace.WithAttributes(
		attribute.Int64("product.id", productID),
		attribute.Int("quantity", qty),
	))
	defer span.End()

	_, err := r.productsW.WithTx(tx).Increment(ctx, "stock_quantity", int64(qty),
		map[string]any{"id": productID})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "increment failed")
	}
	return err
}
