package orderrepofakes

import (
	"errors"
	"strconv"
	"sync"

	"github.com/jrsteele09/go-storefront/orders"
	"github.com/jrsteele09/go-storefront/storemodel"
)

var _ orders.Repo = (*FakeOrderRepo)(nil)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate event id")
)

type FakeOrderRepo struct {
	orders map[storemodel.ID]*orders.Order
	nextID int
	lock   sync.RWMutex
}

func NewFakeOrderRepo() *FakeOrderRepo {
	return &FakeOrderRepo{orders: make(map[storemodel.ID]*orders.Order)}
}

func (or *FakeOrderRepo) Create(order *orders.Order) error {
	or.lock.Lock()
	defer or.lock.Unlock()
	if order.FBEventID != "" {
		for _, o := range or.orders {
			if o.TenantID == order.TenantID && o.FBEventID == order.FBEventID {
				return ErrDuplicate
			}
		}
	}
	or.nextID++
	order.ID = storemodel.ID(strconv.Itoa(or.nextID))
	for i := range order.Items {
		order.Items[i].ID = storemodel.ID(strconv.Itoa(i + 1))
	}
	cp := *order
	cp.Items = append([]orders.LineItem(nil), order.Items...)
	or.orders[order.ID] = &cp
	return nil
}

func (or *FakeOrderRepo) Get(tenantID, orderID storemodel.ID) (*orders.Order, error) {
	or.lock.RLock()
	defer or.lock.RUnlock()
	o, ok := or.orders[orderID]
	if !ok || o.TenantID != tenantID {
		return nil, ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (or *FakeOrderRepo) GetByEventID(tenantID storemodel.ID, eventID string) (*orders.Order, error) {
	or.lock.RLock()
	defer or.lock.RUnlock()
	for _, o := range or.orders {
		if o.TenantID == tenantID && o.FBEventID == eventID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

// Count returns the number of stored orders.
func (or *FakeOrderRepo) Count() int {
	or.lock.RLock()
	defer or.lock.RUnlock()
	return len(or.orders)
}
