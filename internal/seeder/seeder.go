package seeder

import (
	"context"
	"time"

	"github.com/uptrace/bun"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/petalworks/bloom/internal/database"
	"github.com/petalworks/bloom/internal/entity"
)

// Module provides the seeder to Fx.
var Module = fx.Provide(New)

// Seeder performs database seeding for local/dev setups.
type Seeder struct {
	db     *bun.DB
	logger *zap.Logger
}

// New constructs a Seeder backed by the primary database connection.
func New(conns *database.Connections, logger *zap.Logger) *Seeder {
	return &Seeder{db: conns.Writer, logger: logger}
}

// Catalog seeds example occasions and products if they are missing.
func (s *Seeder) Catalog(ctx context.Context) error {
	occasions := []entity.Occasion{
		{Name: "Birthday", Slug: "birthday"},
		{Name: "Wedding", Slug: "wedding"},
		{Name: "Sympathy", Slug: "sympathy"},
	}
	for _, sample := range occasions {
		occasion := sample
		_, err := s.db.NewInsert().Model(&occasion).
			On("CONFLICT (slug) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	now := time.Now().UTC()
	products := []entity.Product{
		{Name: "Red Rose Bouquet", Description: "A dozen long-stem red roses", Price: 4999, StockQuantity: 25, Active: true, OccasionID: 1, CreatedAt: now, UpdatedAt: now},
		{Name: "Spring Tulip Mix", Description: "Seasonal tulips in mixed colors", Price: 3499, StockQuantity: 40, Active: true, OccasionID: 1, CreatedAt: now, UpdatedAt: now},
		{Name: "White Lily Arrangement", Description: "Elegant white lilies with greenery", Price: 5999, StockQuantity: 15, Active: true, OccasionID: 3, CreatedAt: now, UpdatedAt: now},
		{Name: "Bridal Peony Bundle", Description: "Blush peonies for the big day", Price: 8999, StockQuantity: 10, Active: true, OccasionID: 2, CreatedAt: now, UpdatedAt: now},
	}
	for _, sample := range products {
		product := sample
		_, err := s.db.NewInsert().Model(&product).
			On("CONFLICT (name) DO NOTHING").
			Exec(ctx)
		if err != nil {
			return err
		}
	}

	if s.logger != nil {
		s.logger.Info("seeded catalog",
			zap.Int("occasions", len(occasions)),
			zap.Int("products", len(products)),
		)
	}
	return nil
}
