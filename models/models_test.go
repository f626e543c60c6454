package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestClampQuantity(t *testing.T) {
	assert.Equal(t, 99, ClampQuantity(105))
	assert.Equal(t, 99, ClampQuantity(99))
	assert.Equal(t, 5, ClampQuantity(5))
	assert.Equal(t, 0, ClampQuantity(0))
}

func TestComputeTotals(t *testing.T) {
	items := []CartItem{
		{Quantity: 2, Product: Product{Price: decimal.RequireFromString("100.00")}},
		{Quantity: 3, Product: Product{Price: decimal.RequireFromString("0.10")}},
	}

	totals := ComputeTotals(items)
	assert.Equal(t, 5, totals.TotalItems)
	assert.Equal(t, "200.30", totals.TotalPrice.StringFixed(2))

	empty := ComputeTotals(nil)
	assert.Equal(t, 0, empty.TotalItems)
	assert.True(t, empty.TotalPrice.IsZero())
}
