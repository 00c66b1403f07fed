// Package catalog holds the product and shipping snapshots the checkout prices
// against. The backend is authoritative; these values are what it last returned.
package catalog

import (
	"regexp"
	"sort"
	"strings"

	"github.com/jrsteele09/go-storefront/storemodel"
	"github.com/shopspring/decimal"
)

var nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)

// SlugFromTitle derives a product slug: lower case, runs of other characters
// collapsed to one hyphen, no leading or trailing hyphen.
func SlugFromTitle(title string) string {
	return strings.Trim(nonSlugRun.ReplaceAllString(strings.ToLower(title), "-"), "-")
}

// Product is a purchasable item of one tenant.
type Product struct {
	ID             storemodel.ID    `json:"id"`
	TenantID       storemodel.ID    `json:"-"`
	Title          string           `json:"title"`
	TitleBN        string           `json:"title_bn,omitempty"`
	Description    string           `json:"description,omitempty"`
	Slug           string           `json:"slug,omitempty"`
	Price          decimal.Decimal  `json:"price"`
	DiscountPrice  *decimal.Decimal `json:"discount_price,omitempty"`
	StockQuantity  int              `json:"stock_quantity"`
	IsInStock      bool             `json:"is_in_stock"`
	TrackInventory bool             `json:"track_inventory"`
	Images         []string         `json:"images,omitempty"`
	IsPublished    bool             `json:"is_published"`
}

// UnitPrice is the discount price when one is set, else the list price.
func (p *Product) UnitPrice() decimal.Decimal {
	if p.DiscountPrice != nil && p.DiscountPrice.IsPositive() {
		return *p.DiscountPrice
	}
	return p.Price
}

// Available reports whether quantity units can be ordered according to the
// snapshot.
func (p *Product) Available(quantity int) bool {
	if !p.IsInStock || quantity < 1 {
		return false
	}
	return !p.TrackInventory || p.StockQuantity >= quantity
}

// Clone returns a deep copy of the product.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	if p.DiscountPrice != nil {
		d := *p.DiscountPrice
		cp.DiscountPrice = &d
	}
	cp.Images = append([]string(nil), p.Images...)
	return &cp
}

// ShippingOption is a delivery class with a flat cost.
type ShippingOption struct {
	ID        storemodel.ID   `json:"id"`
	TenantID  storemodel.ID   `json:"-"`
	Name      string          `json:"name"`
	NameBN    string          `json:"name_bn,omitempty"`
	Cost      decimal.Decimal `json:"cost"`
	IsActive  bool            `json:"is_active"`
	SortOrder int             `json:"sort_order"`
}

// SortShipping orders options by SortOrder then name, the order they are
// offered at checkout.
func SortShipping(options []*ShippingOption) {
	sort.SliceStable(options, func(i, j int) bool {
		if options[i].SortOrder != options[j].SortOrder {
			return options[i].SortOrder < options[j].SortOrder
		}
		return options[i].Name < options[j].Name
	})
}
