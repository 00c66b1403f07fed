package catalogrepofakes

import (
	"errors"
	"strconv"
	"sync"

	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/jrsteele09/go-storefront/storemodel"
)

var (
	_ catalog.ProductRepo  = (*FakeProductRepo)(nil)
	_ catalog.ShippingRepo = (*FakeShippingRepo)(nil)
)

var ErrNotFound = errors.New("not found")

// FakeProductRepo assigns sequential numeric ids, matching the backend.
type FakeProductRepo struct {
	products map[storemodel.ID]*catalog.Product
	nextID   int
	lock     sync.RWMutex
}

func NewFakeProductRepo() *FakeProductRepo {
	return &FakeProductRepo{products: make(map[storemodel.ID]*catalog.Product)}
}

func (pr *FakeProductRepo) Upsert(product *catalog.Product) error {
	pr.lock.Lock()
	defer pr.lock.Unlock()
	if product.ID.IsZero() {
		pr.nextID++
		product.ID = storemodel.ID(strconv.Itoa(pr.nextID))
	}
	pr.products[product.ID] = product.Clone()
	return nil
}

func (pr *FakeProductRepo) Get(tenantID, productID storemodel.ID) (*catalog.Product, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()
	p, ok := pr.products[productID]
	if !ok || p.TenantID != tenantID {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (pr *FakeProductRepo) GetBySlug(tenantID storemodel.ID, slug string) (*catalog.Product, error) {
	pr.lock.RLock()
	defer pr.lock.RUnlock()
	for _, p := range pr.products {
		if p.TenantID == tenantID && p.Slug == slug {
			return p.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

type FakeShippingRepo struct {
	options map[storemodel.ID]*catalog.ShippingOption
	nextID  int
	lock    sync.RWMutex
}

func NewFakeShippingRepo() *FakeShippingRepo {
	return &FakeShippingRepo{options: make(map[storemodel.ID]*catalog.ShippingOption)}
}

func (sr *FakeShippingRepo) Upsert(option *catalog.ShippingOption) error {
	sr.lock.Lock()
	defer sr.lock.Unlock()
	if option.ID.IsZero() {
		sr.nextID++
		option.ID = storemodel.ID(strconv.Itoa(sr.nextID))
	}
	cp := *option
	sr.options[option.ID] = &cp
	return nil
}

func (sr *FakeShippingRepo) Get(tenantID, optionID storemodel.ID) (*catalog.ShippingOption, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	o, ok := sr.options[optionID]
	if !ok || o.TenantID != tenantID {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (sr *FakeShippingRepo) List(tenantID storemodel.ID, activeOnly bool) ([]*catalog.ShippingOption, error) {
	sr.lock.RLock()
	defer sr.lock.RUnlock()
	list := make([]*catalog.ShippingOption, 0)
	for _, o := range sr.options {
		if o.TenantID != tenantID || (activeOnly && !o.IsActive) {
			continue
		}
		cp := *o
		list = append(list, &cp)
	}
	catalog.SortShipping(list)
	return list, nil
}
