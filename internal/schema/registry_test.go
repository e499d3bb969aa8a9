package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"products", "occasions", "orders", "order_items", "payments"} {
		t.Run(name, func(t *testing.T) {
			tbl, err := Lookup(name)
			require.NoError(t, err)
			assert.Equal(t, name, tbl.Name)
			assert.Equal(t, "id", tbl.PrimaryKey)
			assert.True(t, tbl.HasColumn(tbl.PrimaryKey))
		})
	}
}

func TestLookupUnknownTable(t *testing.T) {
	_, err := Lookup("customers")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "customers")
}

func TestHasColumn(t *testing.T) {
	tbl, err := Lookup("products")
	require.NoError(t, err)

	assert.True(t, tbl.HasColumn("stock_quantity"))
	assert.True(t, tbl.HasColumn("price"))
	assert.False(t, tbl.HasColumn("sku"))
	assert.False(t, tbl.HasColumn(""))
}

func TestRelationsPointAtRegisteredTables(t *testing.T) {
	for _, name := range Tables() {
		tbl, err := Lookup(name)
		require.NoError(t, err)
		for _, rel := range tbl.Relations {
			assert.True(t, tbl.HasColumn(rel.Column),
				"%s relation column %q not registered", name, rel.Column)
			ref, err := Lookup(rel.RefTable)
			require.NoError(t, err, "%s references unknown table %q", name, rel.RefTable)
			assert.True(t, ref.HasColumn(rel.RefColumn))
		}
	}
}

func TestCascadeOwners(t *testing.T) {
	items, err := Lookup("order_items")
	require.NoError(t, err)
	var owned bool
	for _, rel := range items.Relations {
		if rel.RefTable == "orders" {
			owned = rel.CascadeOwner
		}
	}
	assert.True(t, owned, "order_items should cascade with its order")
}
