package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderItem_HasConsistentTotal(t *testing.T) {
	tests := []struct {
		name string
		item OrderItem
		want bool
	}{
		{"exact", OrderItem{Price: 29.99, Quantity: 3, Total: 89.97}, true},
		{"float noise", OrderItem{Price: 0.1, Quantity: 3, Total: 0.30000000000000004}, true},
		{"single unit", OrderItem{Price: 75.5, Quantity: 1, Total: 75.5}, true},
		{"off by a cent", OrderItem{Price: 29.99, Quantity: 3, Total: 89.96}, false},
		{"wrong quantity", OrderItem{Price: 50, Quantity: 2, Total: 50}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.HasConsistentTotal())
		})
	}
}

func TestOrderItem_MultipleItemsTotals(t *testing.T) {
	items := []OrderItem{
		{ProductID: "p-5", Name: "Mug", Quantity: 2, Price: 50.00, Total: 100.00},
		{ProductID: "p-10", Name: "Lamp", Quantity: 1, Price: 75.50, Total: 75.50},
	}

	for _, item := range items {
		assert.True(t, item.HasConsistentTotal(), item.Name)
	}

	totals := CalculateTotals(items)
	assert.Equal(t, 175.5, totals.Subtotal)
	assert.Equal(t, 17.55, totals.Tax)
	assert.Equal(t, 0.0, totals.Shipping)
	assert.Equal(t, totals.Subtotal+totals.Tax+totals.Shipping, totals.Total)
	assert.InDelta(t, 193.05, totals.Total, 1e-9)
}
