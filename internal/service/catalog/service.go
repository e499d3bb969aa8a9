package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/petalworks/bloom/internal/cache"
	"github.com/petalworks/bloom/internal/config"
	"github.com/petalworks/bloom/internal/entity"
	repo "github.com/petalworks/bloom/internal/repository/catalog"
	"github.com/petalworks/bloom/pkg/errorbank"
)

var serviceTracer = otel.Tracer("github.com/petalworks/bloom/service/catalog")

// Service exposes the storefront catalog: products and occasions. Stock is
// read-only here; only the order workflow moves it.
type Service struct {
	repo     *repo.Repository
	cache    cache.Store
	cacheTTL time.Duration
	logger   *zap.Logger
}

// Params defines dependencies for constructing Service.
type Params struct {
	fx.In

	Repository *repo.Repository
	Cache      cache.Store
	Config     config.Config
	Logger     *zap.Logger
}

// NewService wires a new Service instance.
func NewService(p Params) *Service {
	return &Service{
		repo:     p.Repository,
		cache:    p.Cache,
		cacheTTL: p.Config.Cache.DefaultTTL,
		logger:   p.Logger,
	}
}

// GetProduct retrieves a product by id, consulting cache when available.
func (s *Service) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.GetProduct",
		trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	if p, err := s.getFromCache(ctx, id); err == nil {
		return p, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("products cache read failed", zap.Int64("id", id), zap.Error(err))
	}

	p, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errorbank.NotFound("product not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to load product", errorbank.WithCause(err))
	}

	if err := s.storeInCache(ctx, p); err != nil {
		s.logger.Warn("products cache write failed", zap.Int64("id", id), zap.Error(err))
	}
	return p, nil
}

// ListProducts returns active products, optionally narrowed to an occasion.
func (s *Service) ListProducts(ctx context.Context, occasionID int64, take, skip int) ([]entity.Product, error) {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.ListProducts")
	defer span.End()

	rows, err := s.repo.ListProducts(ctx, repo.ListFilter{
		OccasionID: occasionID,
		ActiveOnly: true,
		Take:       take,
		Skip:       skip,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return nil, errorbank.Internal("failed to list products", errorbank.WithCause(err))
	}
	return rows, nil
}

// CreateProduct adds a catalog item (admin surface).
func (s *Service) CreateProduct(ctx context.Context, p *entity.Product) error {
	if p.Name == "" {
		return errorbank.BadRequest("product name is required")
	}
	if p.Price <= 0 {
		return errorbank.BadRequest("product price must be positive")
	}
	if p.StockQuantity < 0 {
		return errorbank.BadRequest("stock quantity cannot be negative")
	}
	ctx, span := serviceTracer.Start(ctx, "CatalogService.CreateProduct",
		trace.WithAttributes(attribute.String("product.name", p.Name)))
	defer span.End()

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to create product", errorbank.WithCause(err))
	}
	return nil
}

// UpdateProduct applies admin edits. Stock is rejected here so price edits
// can never race the order workflow's reservations.
func (s *Service) UpdateProduct(ctx context.Context, id int64, data map[string]any) error {
	if _, ok := data["stock_quantity"]; ok {
		return errorbank.BadRequest("stock is managed by the order workflow")
	}
	ctx, span := serviceTracer.Start(ctx, "CatalogService.UpdateProduct",
		trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	if err := s.repo.UpdateProduct(ctx, id, data); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("product not found")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "repository error")
		return errorbank.Internal("failed to update product", errorbank.WithCause(err))
	}
	s.dropFromCache(ctx, id)
	return nil
}

// DeactivateProduct soft-deletes a product.
func (s *Service) DeactivateProduct(ctx context.Context, id int64) error {
	ctx, span := serviceTracer.Start(ctx, "CatalogService.DeactivateProduct",
		trace.WithAttributes(attribute.Int64("product.id", id)))
	defer span.End()

	if err := s.repo.DeactivateProduct(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errorbank.NotFound("product not found")
		}
		span.RecordError(err)
		return errorbank.Internal("failed to deactivate product", errorbank.WithCause(err))
	}
	s.dropFromCache(ctx, id)
	return nil
}

// ListOccasions returns every occasion for storefront navigation.
func (s *Service) ListOccasions(ctx context.Context) ([]entity.Occasion, error) {
	rows, err := s.repo.ListOccasions(ctx)
	if err != nil {
		return nil, errorbank.Internal("failed to list occasions", errorbank.WithCause(err))
	}
	return rows, nil
}

func (s *Service) cacheKey(id int64) string {
	return fmt.Sprintf("products:%d", id)
}

func (s *Service) getFromCache(ctx context.Context, id int64) (*entity.Product, error) {
	if s.cache == nil {
		return nil, cache.ErrCacheMiss
	}
	bytes, err := s.cache.Get(ctx, s.cacheKey(id))
	if err != nil {
		return nil, err
	}
	var p entity.Product
	if err := json.Unmarshal(bytes, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Service) storeInCache(ctx context.Context, p *entity.Product) error {
	if s.cache == nil || p == nil {
		return nil
	}
	bytes, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, s.cacheKey(p.ID), bytes, s.cacheTTL)
}

func (s *Service) dropFromCache(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, s.cacheKey(id)); err != nil {
		s.logger.Warn("products cache delete failed", zap.Int64("id", id), zap.Error(err))
	}
}
