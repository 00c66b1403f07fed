package orders_test

import (
	"testing"

	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/jrsteele09/go-storefront/internal/utils"
	"github.com/jrsteele09/go-storefront/orders"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name     string
		product  *catalog.Product
		quantity int
		shipping *catalog.ShippingOption
		subtotal string
		total    string
	}{
		{
			name:     "list price with shipping",
			product:  &catalog.Product{Price: dec("100")},
			quantity: 2,
			shipping: &catalog.ShippingOption{Cost: dec("20")},
			subtotal: "200",
			total:    "220",
		},
		{
			name:     "discount price without shipping",
			product:  &catalog.Product{Price: dec("100"), DiscountPrice: utils.Ptr(dec("80"))},
			quantity: 1,
			subtotal: "80",
			total:    "80",
		},
		{
			name:     "fractional prices stay exact",
			product:  &catalog.Product{Price: dec("0.10")},
			quantity: 3,
			shipping: &catalog.ShippingOption{Cost: dec("0.20")},
			subtotal: "0.3",
			total:    "0.5",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := orders.ComputeTotals(tt.product, tt.quantity, tt.shipping)
			require.True(t, dec(tt.subtotal).Equal(got.Subtotal), got.Subtotal.String())
			require.True(t, dec(tt.total).Equal(got.Total), got.Total.String())
			require.True(t, got.Total.Equal(got.Subtotal.Add(got.Shipping)))
		})
	}
}

func TestClampQuantity(t *testing.T) {
	require.Equal(t, 1, orders.ClampQuantity(0, 5))
	require.Equal(t, 1, orders.ClampQuantity(-3, 5))
	require.Equal(t, 3, orders.ClampQuantity(3, 5))
	require.Equal(t, 5, orders.ClampQuantity(9, 5))
	require.Equal(t, 1, orders.ClampQuantity(4, 0))
}

func TestDefaultShipping(t *testing.T) {
	require.Nil(t, orders.DefaultShipping(nil))
	options := []*catalog.ShippingOption{
		{ID: "1", IsActive: false},
		{ID: "2", IsActive: true},
		{ID: "3", IsActive: true},
	}
	require.Equal(t, "2", orders.DefaultShipping(options).ID.String())
	require.Equal(t, "3", orders.FindShipping(options, "3").ID.String())
	require.Nil(t, orders.FindShipping(options, "9"))
}

func TestNewOrderNumber(t *testing.T) {
	n := orders.NewOrderNumber()
	require.Regexp(t, `^ORD-[0-9A-F]{8}$`, n)
	require.NotEqual(t, n, orders.NewOrderNumber())
}
