package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Payment records a payment reported against an order. Verification is a
// plain CRUD flow; no gateway logic lives here.
type Payment struct {
	bun.BaseModel `bun:"table:payments"`

	ID        int64     `bun:",pk,autoincrement"`
	OrderID   int64     `bun:"order_id"`
	Method    string    `bun:"method"`
	Amount    int64     `bun:"amount"`
	Reference string    `bun:"reference"`
	Verified  bool      `bun:"verified"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
}
