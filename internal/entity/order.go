package entity

import (
	"time"

	"github.com/uptrace/bun"
)

// Order represents a customer purchase stored in the relational database.
// TotalAmount equals the sum of its items' subtotals at creation time.
type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID              int64     `bun:",pk,autoincrement"`
	Number          string    `bun:"number"`
	CustomerName    string    `bun:"customer_name"`
	CustomerEmail   string    `bun:"customer_email,nullzero"`
	CustomerPhone   string    `bun:"customer_phone,nullzero"`
	DeliveryAddress string    `bun:"delivery_address"`
	DeliveryDate    time.Time `bun:"delivery_date,nullzero"`
	PaymentMethodID int64     `bun:"payment_method_id,nullzero"`
	Status          string    `bun:"status"`
	TotalAmount     int64     `bun:"total_amount"`
	Notes           string    `bun:"notes,nullzero"`
	CreatedAt       time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	StatusUpdatedAt time.Time `bun:"status_updated_at,nullzero"`

	Items []OrderItem `bun:"rel:has-many,join:id=order_id"`
}

// HasContact reports whether the customer left a way to reach them.
func (o *Order) HasContact() bool {
	return o.CustomerEmail != "" || o.CustomerPhone != ""
}

// OrderItem is one line of an order. UnitPrice snapshots the product price
// at purchase time; later catalog edits must not change it.
type OrderItem struct {
	bun.BaseModel `bun:"table:order_items"`

	ID        int64 `bun:",pk,autoincrement"`
	OrderID   int64 `bun:"order_id"`
	ProductID int64 `bun:"product_id"`
	Quantity  int   `bun:"quantity"`
	UnitPrice int64 `bun:"unit_price"`
	Subtotal  int64 `bun:"subtotal"`

	Product *Product `bun:"rel:belongs-to,join:product_id=id"`
}
