package dto

import (
	"time"

	"github.com/petalworks/bloom/internal/entity"
)

// ProductResponse represents a catalog product over the wire.
type ProductResponse struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Price         int64     `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	Active        bool      `json:"active"`
	OccasionID    int64     `json:"occasion_id,omitempty"`
	ImageURL      string    `json:"image_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// FromProduct maps a product entity onto the wire shape.
func FromProduct(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		Active:        p.Active,
		OccasionID:    p.OccasionID,
		ImageURL:      p.ImageURL,
		CreatedAt:     p.CreatedAt,
	}
}

// OccasionResponse represents an occasion over the wire.
type OccasionResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// PaymentResponse represents a payment record over the wire.
type PaymentResponse struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"order_id"`
	Method    string    `json:"method"`
	Amount    int64     `json:"amount"`
	Reference string    `json:"reference"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"created_at"`
}

// FromPayment maps a payment entity onto the wire shape.
func FromPayment(p *entity.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID,
		OrderID:   p.OrderID,
		Method:    p.Method,
		Amount:    p.Amount,
		Reference: p.Reference,
		Verified:  p.Verified,
		CreatedAt: p.CreatedAt,
	}
}
