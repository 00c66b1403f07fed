package catalog

import "github.com/jrsteele09/go-storefront/storemodel"

// ProductRepo stores products scoped by tenant.
type ProductRepo interface {
	Upsert(product *Product) error
	Get(tenantID, productID storemodel.ID) (*Product, error)
	GetBySlug(tenantID storemodel.ID, slug string) (*Product, error)
}

// ShippingRepo stores shipping options scoped by tenant.
type ShippingRepo interface {
	Upsert(option *ShippingOption) error
	Get(tenantID, optionID storemodel.ID) (*ShippingOption, error)
	List(tenantID storemodel.ID, activeOnly bool) ([]*ShippingOption, error)
}
