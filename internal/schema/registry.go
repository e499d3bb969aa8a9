// Package schema holds the static table registry the query layer validates
// against. Only tables listed here may be queried; only columns listed here
// may appear in filters, ordering, or update payloads.
package schema

import "fmt"

// Relation describes a foreign-key edge between two registered tables.
type Relation struct {
	Column       string
	RefTable     string
	RefColumn    string
	CascadeOwner bool
}

// Table describes one registered table.
type Table struct {
	Name       string
	PrimaryKey string
	columns    map[string]struct{}
	Relations  []Relation
}

// HasColumn reports whether col is part of the table.
func (t Table) HasColumn(col string) bool {
	_, ok := t.columns[col]
	return ok
}

func newTable(name, pk string, cols []string, rels ...Relation) Table {
	set := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		set[c] = struct{}{}
	}
	return Table{Name: name, PrimaryKey: pk, columns: set, Relations: rels}
}

var registry = map[string]Table{
	"products": newTable("products", "id", []string{
		"id", "name", "description", "price", "stock_quantity", "active",
		"occasion_id", "image_url", "created_at", "updated_at",
	}, Relation{Column: "occasion_id", RefTable: "occasions", RefColumn: "id"}),
	"occasions": newTable("occasions", "id", []string{
		"id", "name", "slug",
	}),
	"orders": newTable("orders", "id", []string{
		"id", "number", "customer_name", "customer_email", "customer_phone",
		"delivery_address", "delivery_date", "payment_method_id", "status",
		"total_amount", "notes", "created_at", "status_updated_at",
	}),
	"order_items": newTable("order_items", "id", []string{
		"id", "order_id", "product_id", "quantity", "unit_price", "subtotal",
	},
		Relation{Column: "order_id", RefTable: "orders", RefColumn: "id", CascadeOwner: true},
		Relation{Column: "product_id", RefTable: "products", RefColumn: "id"},
	),
	"payments": newTable("payments", "id", []string{
		"id", "order_id", "method", "amount", "reference", "verified", "created_at",
	}, Relation{Column: "order_id", RefTable: "orders", RefColumn: "id", CascadeOwner: true}),
}

// Lookup returns the registered table or an error for unknown names.
func Lookup(name string) (Table, error) {
	t, ok := registry[name]
	if !ok {
		return Table{}, fmt.Errorf("schema: unknown table %q", name)
	}
	return t, nil
}

// Tables lists all registered table names.
func Tables() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	return names
}
