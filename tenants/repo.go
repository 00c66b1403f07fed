package tenants

import "github.com/jrsteele09/go-storefront/storemodel"

// Repo is the backend's tenant storage.
type Repo interface {
	Upsert(tenantData *Tenant) error
	Get(tenantID storemodel.ID) (*Tenant, error)
	GetBySlug(slug string) (*Tenant, error)
	ListByOwner(ownerID storemodel.ID) ([]*Tenant, error)
}
