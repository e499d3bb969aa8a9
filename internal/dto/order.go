package dto

import (
	"time"

	"github.com/petalworks/bloom/internal/entity"
)

// ProductSummary is the slice of product data embedded in order responses.
type ProductSummary struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url,omitempty"`
}

// OrderItemResponse is one order line as exposed via transport layers.
type OrderItemResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice int64           `json:"unit_price"`
	Subtotal  int64           `json:"subtotal"`
	Product   *ProductSummary `json:"product,omitempty"`
}

// OrderResponse represents an order as exposed via transport layers.
type OrderResponse struct {
	ID              int64               `json:"id"`
	Number          string              `json:"number"`
	CustomerName    string              `json:"customer_name"`
	CustomerEmail   string              `json:"customer_email,omitempty"`
	CustomerPhone   string              `json:"customer_phone,omitempty"`
	DeliveryAddress string              `json:"delivery_address"`
	DeliveryDate    string              `json:"delivery_date,omitempty"`
	Status          string              `json:"status"`
	TotalAmount     int64               `json:"total_amount"`
	Notes           string              `json:"notes,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	StatusUpdatedAt time.Time           `json:"status_updated_at"`
	Items           []OrderItemResponse `json:"items,omitempty"`
}

// FromOrder maps an order entity (with optional items) onto the wire shape.
func FromOrder(o *entity.Order) OrderResponse {
	resp := OrderResponse{
		ID:              o.ID,
		Number:          o.Number,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		DeliveryAddress: o.DeliveryAddress,
		Status:          o.Status,
		TotalAmount:     o.TotalAmount,
		Notes:           o.Notes,
		CreatedAt:       o.CreatedAt,
		StatusUpdatedAt: o.StatusUpdatedAt,
	}
	if !o.DeliveryDate.IsZero() {
		resp.DeliveryDate = o.DeliveryDate.Format("2006-01-02")
	}
	for _, it := range o.Items {
		item := OrderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.Subtotal,
		}
		if it.Product != nil {
			item.Product = &ProductSummary{
				ID:       it.Product.ID,
				Name:     it.Product.Name,
				ImageURL: it.Product.ImageURL,
			}
		}
		resp.Items = append(resp.Items, item)
	}
	return resp
}
