// Package validate checks inbound order payloads before any side effect
// occurs. Failures come back as a list of field errors, never one at a time.
package validate

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error codes reported alongside field failures.
const (
	CodeRequired = "required"
	CodeFormat   = "invalid_format"
	CodeRange    = "out_of_range"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	// Loose on purpose: digits, spaces, and common separators, 7-20 chars.
	phonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s\-().]{5,18}[0-9]$`)
)

// ItemInput is one requested line item before any product lookup.
type ItemInput struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// CreateOrderInput is the payload for order creation.
type CreateOrderInput struct {
	CustomerName    string      `json:"customer_name"`
	CustomerEmail   string      `json:"customer_email"`
	CustomerPhone   string      `json:"customer_phone"`
	DeliveryAddress string      `json:"delivery_address"`
	DeliveryDate    string      `json:"delivery_date"`
	PaymentMethodID int64       `json:"payment_method_id"`
	Notes           string      `json:"notes"`
	Items           []ItemInput `json:"items"`
}

// CreateOrder validates the order creation payload. An empty result means
// the payload is acceptable.
func CreateOrder(in CreateOrderInput) []FieldError {
	var errs []FieldError

	if strings.TrimSpace(in.CustomerName) == "" {
		errs = append(errs, FieldError{"customer_name", "customer name is required", CodeRequired})
	}
	if strings.TrimSpace(in.DeliveryAddress) == "" {
		errs = append(errs, FieldError{"delivery_address", "delivery address is required", CodeRequired})
	}
	if in.CustomerEmail != "" && !emailPattern.MatchString(in.CustomerEmail) {
		errs = append(errs, FieldError{"customer_email", "email address is malformed", CodeFormat})
	}
	if in.CustomerPhone != "" && !phonePattern.MatchString(in.CustomerPhone) {
		errs = append(errs, FieldError{"customer_phone", "phone number is malformed", CodeFormat})
	}

	if len(in.Items) == 0 {
		errs = append(errs, FieldError{"items", "an order needs at least one item", CodeRequired})
	}
	for i, item := range in.Items {
		if item.ProductID <= 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("items[%d].product_id", i),
				Message: "product id must be a positive integer",
				Code:    CodeRange,
			})
		}
		if item.Quantity <= 0 {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("items[%d].quantity", i),
				Message: "quantity must be a positive integer",
				Code:    CodeRange,
			})
		}
	}

	return errs
}
