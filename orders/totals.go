package orders

import (
	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/shopspring/decimal"
)

// Totals is the checkout price breakdown.
type Totals struct {
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Shipping  decimal.Decimal `json:"shipping_cost"`
	Total     decimal.Decimal `json:"total"`
}

// ComputeTotals prices quantity units of product with an optional shipping
// option. It does not clamp quantity; see ClampQuantity.
func ComputeTotals(product *catalog.Product, quantity int, shipping *catalog.ShippingOption) Totals {
	unit := product.UnitPrice()
	subtotal := unit.Mul(decimal.NewFromInt(int64(quantity)))
	cost := decimal.Zero
	if shipping != nil {
		cost = shipping.Cost
	}
	return Totals{
		UnitPrice: unit,
		Quantity:  quantity,
		Subtotal:  subtotal,
		Shipping:  cost,
		Total:     subtotal.Add(cost),
	}
}

// ClampQuantity bounds a requested quantity to [1, stock]. A stock of zero or
// less still yields 1; availability is checked separately.
func ClampQuantity(quantity, stock int) int {
	if stock > 0 && quantity > stock {
		quantity = stock
	}
	if quantity < 1 {
		quantity = 1
	}
	return quantity
}

// DefaultShipping returns the first active option, or nil when there is none.
func DefaultShipping(options []*catalog.ShippingOption) *catalog.ShippingOption {
	for _, o := range options {
		if o != nil && o.IsActive {
			return o
		}
	}
	return nil
}

// FindShipping returns the option with the given id.
func FindShipping(options []*catalog.ShippingOption, id string) *catalog.ShippingOption {
	for _, o := range options {
		if o != nil && o.ID.String() == id {
			return o
		}
	}
	return nil
}
