package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerName:    "Maria Flores",
		CustomerEmail:   "maria@example.com",
		CustomerPhone:   "+1 (555) 123-4567",
		DeliveryAddress: "12 Rose Lane",
		Items:           []ItemInput{{ProductID: 1, Quantity: 2}},
	}
}

func fields(errs []FieldError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Field)
	}
	return out
}

func TestCreateOrderAccepts(t *testing.T) {
	assert.Empty(t, CreateOrder(validInput()))

	// Email and phone are optional.
	in := validInput()
	in.CustomerEmail = ""
	in.CustomerPhone = ""
	assert.Empty(t, CreateOrder(in))
}

func TestCreateOrderRequiredFields(t *testing.T) {
	in := validInput()
	in.CustomerName = "   "
	in.DeliveryAddress = ""
	in.Items = nil

	errs := CreateOrder(in)
	assert.ElementsMatch(t,
		[]string{"customer_name", "delivery_address", "items"}, fields(errs))
	for _, e := range errs {
		assert.Equal(t, CodeRequired, e.Code)
	}
}

func TestCreateOrderContactFormats(t *testing.T) {
	tests := []struct {
		name  string
		mut   func(*CreateOrderInput)
		field string
	}{
		{"email without domain", func(in *CreateOrderInput) { in.CustomerEmail = "maria@" }, "customer_email"},
		{"email with spaces", func(in *CreateOrderInput) { in.CustomerEmail = "ma ria@example.com" }, "customer_email"},
		{"phone too short", func(in *CreateOrderInput) { in.CustomerPhone = "12345" }, "customer_phone"},
		{"phone with letters", func(in *CreateOrderInput) { in.CustomerPhone = "555-CALL-NOW" }, "customer_phone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mut(&in)
			errs := CreateOrder(in)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, CodeFormat, errs[0].Code)
		})
	}
}

func TestCreateOrderItemBounds(t *testing.T) {
	in := validInput()
	in.Items = []ItemInput{
		{ProductID: 1, Quantity: 1},
		{ProductID: 0, Quantity: 3},
		{ProductID: 4, Quantity: -2},
	}

	errs := CreateOrder(in)
	assert.ElementsMatch(t,
		[]string{"items[1].product_id", "items[2].quantity"}, fields(errs))
	for _, e := range errs {
		assert.Equal(t, CodeRange, e.Code)
	}
}

func TestCreateOrderCollectsAllFailures(t *testing.T) {
	errs := CreateOrder(CreateOrderInput{CustomerEmail: "bad", CustomerPhone: "bad"})
	assert.ElementsMatch(t, []string{
		"customer_name", "delivery_address", "customer_email", "customer_phone", "items",
	}, fields(errs))
}
