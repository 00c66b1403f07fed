package orders

import "github.com/jrsteele09/go-storefront/storemodel"

// Repo stores placed orders scoped by tenant.
type Repo interface {
	Create(order *Order) error
	Get(tenantID, orderID storemodel.ID) (*Order, error)
	// GetByEventID finds an order by the correlation id it was submitted with.
	GetByEventID(tenantID storemodel.ID, eventID string) (*Order, error)
}
