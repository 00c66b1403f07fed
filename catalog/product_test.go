package catalog_test

import (
	"encoding/json"
	"testing"

	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/jrsteele09/go-storefront/internal/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestProduct_UnitPrice(t *testing.T) {
	p := &catalog.Product{Price: decimal.NewFromInt(100)}
	require.True(t, decimal.NewFromInt(100).Equal(p.UnitPrice()))

	p.DiscountPrice = utils.Ptr(decimal.NewFromInt(80))
	require.True(t, decimal.NewFromInt(80).Equal(p.UnitPrice()))

	p.DiscountPrice = utils.Ptr(decimal.Zero)
	require.True(t, decimal.NewFromInt(100).Equal(p.UnitPrice()), "zero discount is ignored")
}

func TestSlugFromTitle(t *testing.T) {
	tests := map[string]string{
		"Cotton T-Shirt":    "cotton-t-shirt",
		"  Summer Sale!! ":  "summer-sale",
		"Eid--Offer 2024":   "eid-offer-2024",
		"***":               "",
		"Panjabi (Blue) XL": "panjabi-blue-xl",
	}
	for title, want := range tests {
		t.Run(title, func(t *testing.T) {
			require.Equal(t, want, catalog.SlugFromTitle(title))
		})
	}
}

func TestProduct_Available(t *testing.T) {
	p := &catalog.Product{IsInStock: true, TrackInventory: true, StockQuantity: 2}
	require.True(t, p.Available(2))
	require.False(t, p.Available(3))
	require.False(t, p.Available(0))

	p.TrackInventory = false
	require.True(t, p.Available(10))

	p.IsInStock = false
	require.False(t, p.Available(1))
}

func TestProduct_DecodesBackendJSON(t *testing.T) {
	body := `{"id": 7, "title": "Saree", "price": "1200.50", "discount_price": null, "stock_quantity": 3, "is_in_stock": true}`
	var p catalog.Product
	require.NoError(t, json.Unmarshal([]byte(body), &p))
	require.Equal(t, "7", p.ID.String())
	require.Nil(t, p.DiscountPrice)
	require.Equal(t, "1200.5", p.UnitPrice().String())
}

func TestProduct_CloneIsDeep(t *testing.T) {
	p := &catalog.Product{DiscountPrice: utils.Ptr(decimal.NewFromInt(5)), Images: []string{"a.jpg"}}
	cp := p.Clone()
	cp.Images[0] = "b.jpg"
	*cp.DiscountPrice = decimal.NewFromInt(9)
	require.Equal(t, "a.jpg", p.Images[0])
	require.Equal(t, "5", p.DiscountPrice.String())
}

func TestSortShipping(t *testing.T) {
	options := []*catalog.ShippingOption{
		{Name: "Outside Dhaka", SortOrder: 1},
		{Name: "Express", SortOrder: 0},
		{Name: "Dhaka", SortOrder: 0},
	}
	catalog.SortShipping(options)
	require.Equal(t, []string{"Dhaka", "Express", "Outside Dhaka"},
		[]string{options[0].Name, options[1].Name, options[2].Name})
}
