package tenantrepofakes

import (
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-storefront/storemodel"
	"github.com/jrsteele09/go-storefront/tenants"
)

var _ tenants.Repo = (*FakeTenantRepo)(nil)

var (
	ErrNotFound  = errors.New("not found")
	ErrSlugTaken = errors.New("slug already taken")
)

type FakeTenantRepo struct {
	tenants map[storemodel.ID]*tenants.Tenant
	slugs   map[string]storemodel.ID
	lock    sync.RWMutex
}

func NewFakeTenantRepo() tenants.Repo {
	return &FakeTenantRepo{
		tenants: make(map[storemodel.ID]*tenants.Tenant),
		slugs:   make(map[string]storemodel.ID),
	}
}

func (tr *FakeTenantRepo) Upsert(tenantData *tenants.Tenant) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()
	if tenantData.ID.IsZero() {
		tenantData.ID = storemodel.ID(uuid.New().String())
	}
	if id, ok := tr.slugs[tenantData.Slug]; ok && id != tenantData.ID {
		return ErrSlugTaken
	}
	if existing, ok := tr.tenants[tenantData.ID]; ok && existing.Slug != tenantData.Slug {
		delete(tr.slugs, existing.Slug)
	}
	tr.tenants[tenantData.ID] = tenantData.Clone()
	tr.slugs[tenantData.Slug] = tenantData.ID
	return nil
}

func (tr *FakeTenantRepo) Get(tenantID storemodel.ID) (*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	t, ok := tr.tenants[tenantID]
	if !ok {
		return nil, ErrNotFound
	}
	return t.Clone(), nil
}

func (tr *FakeTenantRepo) GetBySlug(slug string) (*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()
	id, ok := tr.slugs[slug]
	if !ok {
		return nil, ErrNotFound
	}
	return tr.tenants[id].Clone(), nil
}

func (tr *FakeTenantRepo) ListByOwner(ownerID storemodel.ID) ([]*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	owned := make([]*tenants.Tenant, 0)
	for _, t := range tr.tenants {
		if t.OwnerID == ownerID {
			owned = append(owned, t.Clone())
		}
	}

	sort.Slice(owned, func(i, j int) bool {
		return owned[i].Slug < owned[j].Slug
	})
	return owned, nil
}
