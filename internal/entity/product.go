package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Product is a catalog item. Prices are stored in cents.
// StockQuantity is only ever mutated through the order workflow's
// reserve/release path and never drops below zero.
type Product struct {
	bun.BaseModel `bun:"table:products"`

	ID            int64     `bun:",pk,autoincrement"`
	Name          string    `bun:"name"`
	Description   string    `bun:"description"`
	Price         int64     `bun:"price"`
	StockQuantity int       `bun:"stock_quantity"`
	Active        bool      `bun:"active"`
	OccasionID    int64     `bun:"occasion_id,nullzero"`
	ImageURL      string    `bun:"image_url,nullzero"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero"`
}

// Occasion groups products for storefront browsing (birthdays, weddings, ...).
type Occasion struct {
	bun.BaseModel `bun:"table:occasions"`

	ID   int64  `bun:",pk,autoincrement"`
	Name string `bun:"name"`
	Slug string `bun:"slug"`
}
