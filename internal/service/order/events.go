package order

import "time"

// Event types published to the order topic.
const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
	EventOrderDeleted       = "order.deleted"
)

// Event is emitted for every order lifecycle change.
type Event struct {
	Type           string    `json:"type"`
	OrderID        int64     `json:"order_id"`
	Number         string    `json:"number"`
	Status         string    `json:"status"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	TotalAmount    int64     `json:"total_amount,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}
