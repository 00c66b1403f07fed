package tenants

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-storefront/apierr"
	"github.com/jrsteele09/go-storefront/storemodel"
	"github.com/rs/zerolog"
)

// Backend is the part of the HTTP contract the resolver depends on.
type Backend interface {
	TenantBySlug(ctx context.Context, slug string) (*Tenant, error)
	ListTenants(ctx context.Context) ([]*Tenant, error)
	CreateTenant(ctx context.Context, input Input) (*Tenant, error)
	UpdateTenant(ctx context.Context, id storemodel.ID, patch Patch) (*Tenant, error)
}

// BindingSource records how the active tenant was chosen.
type BindingSource int

const (
	BindingNone   BindingSource = iota // No tenant in scope
	BindingOrigin                      // Resolved from the storefront origin
	BindingOwner                       // Selected by an authenticated owner
)

func (s BindingSource) String() string {
	switch s {
	case BindingOrigin:
		return "origin"
	case BindingOwner:
		return "owner"
	default:
		return "none"
	}
}

// Resolver establishes the active tenant binding and caches the owner's tenant
// list. The cache is advisory; every mutation is followed by a re-fetch.
type Resolver struct {
	backend Backend
	logger  zerolog.Logger

	mu      sync.RWMutex
	active  *Tenant
	source  BindingSource
	tenants []*Tenant
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLogger sets the logger used for non-blocking failures.
func WithLogger(logger zerolog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a resolver with no active binding.
func NewResolver(backend Backend, options ...ResolverOption) (*Resolver, error) {
	if backend == nil {
		return nil, errors.New("[NewResolver] backend is required")
	}
	r := &Resolver{
		backend: backend,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(r)
	}
	return r, nil
}

// ResolveFromOrigin binds the tenant named by the leading label of hostname.
// It returns nil, nil when hostname does not name a tenant. A failed lookup is
// logged and returned, and leaves no binding; callers show "not found" rather
// than treating it as fatal.
func (r *Resolver) ResolveFromOrigin(ctx context.Context, hostname string) (*Tenant, error) {
	r.setActive(nil, BindingNone)

	slug, ok := SlugFromHost(hostname)
	if !ok {
		return nil, nil
	}

	tenant, err := r.backend.TenantBySlug(ctx, slug)
	if err != nil {
		r.logger.Warn().Err(err).Str("host", hostname).Str("slug", slug).Msg("tenant lookup failed")
		return nil, fmt.Errorf("[ResolveFromOrigin] %s: %w", slug, err)
	}
	if tenant == nil {
		return nil, apierr.Newf(apierr.ErrNotFound, "store %q not found", slug)
	}

	r.setActive(tenant, BindingOrigin)
	r.logger.Debug().Str("slug", slug).Str("tenant", tenant.ID.String()).Msg("tenant resolved from origin")
	return tenant.Clone(), nil
}

// LoadOwnerTenants fetches the tenants owned by the current principal. The
// caller must hold an authenticated session; the backend rejects the call
// otherwise. On failure the cached list is left unchanged.
func (r *Resolver) LoadOwnerTenants(ctx context.Context) ([]*Tenant, error) {
	list, err := r.backend.ListTenants(ctx)
	if err != nil {
		return nil, fmt.Errorf("[LoadOwnerTenants] %w", err)
	}

	cached := make([]*Tenant, 0, len(list))
	for _, t := range list {
		if t != nil {
			cached = append(cached, t.Clone())
		}
	}

	r.mu.Lock()
	r.tenants = cached
	r.mu.Unlock()
	return cloneAll(cached), nil
}

// Create creates a tenant and refreshes the owner's tenant list.
func (r *Resolver) Create(ctx context.Context, input Input) (*Tenant, error) {
	input = input.Normalize()
	if err := input.Validate(); err != nil {
		return nil, apierr.Wrap(apierr.ErrValidation, err, "invalid store details")
	}

	created, err := r.backend.CreateTenant(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("[Create] %w", err)
	}
	r.refresh(ctx)
	return created.Clone(), nil
}

// Update saves a settings patch and refreshes the owner's tenant list. When the
// updated tenant is the active binding, the binding is replaced in place so
// visible settings never lag behind a save.
func (r *Resolver) Update(ctx context.Context, id storemodel.ID, patch Patch) (*Tenant, error) {
	if id.IsZero() {
		return nil, apierr.New(apierr.ErrValidation, "store id is required")
	}
	if err := patch.Validate(); err != nil {
		return nil, apierr.Wrap(apierr.ErrValidation, err, "invalid store settings")
	}

	updated, err := r.backend.UpdateTenant(ctx, id, patch)
	if err != nil {
		return nil, fmt.Errorf("[Update] %w", err)
	}
	r.refresh(ctx)

	r.mu.Lock()
	if r.active != nil && r.active.ID == id {
		r.active = updated.Clone()
	}
	r.mu.Unlock()
	return updated.Clone(), nil
}

// Select binds a tenant chosen by an authenticated owner.
func (r *Resolver) Select(tenant *Tenant) {
	if tenant == nil {
		r.setActive(nil, BindingNone)
		return
	}
	r.setActive(tenant, BindingOwner)
}

// SelectByID binds a tenant from the cached owner list.
func (r *Resolver) SelectByID(id storemodel.ID) (*Tenant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tenants {
		if t.ID == id {
			r.active = t.Clone()
			r.source = BindingOwner
			return t.Clone(), nil
		}
	}
	return nil, apierr.Newf(apierr.ErrNotFound, "store %s not found", id)
}

// Active returns the bound tenant and how it was chosen.
func (r *Resolver) Active() (*Tenant, BindingSource) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active.Clone(), r.source
}

// Tenants returns the cached owner tenant list.
func (r *Resolver) Tenants() []*Tenant {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneAll(r.tenants)
}

// Reset drops the binding and the cached list, e.g. on logout.
func (r *Resolver) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = nil
	r.source = BindingNone
	r.tenants = nil
}

// refresh re-fetches the owner list after a mutation. The mutation already
// succeeded, so a failed refresh is logged rather than returned.
func (r *Resolver) refresh(ctx context.Context) {
	if _, err := r.LoadOwnerTenants(ctx); err != nil {
		r.logger.Warn().Err(err).Msg("tenant list refresh failed")
	}
}

func (r *Resolver) setActive(tenant *Tenant, source BindingSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = tenant.Clone()
	r.source = source
}

func cloneAll(list []*Tenant) []*Tenant {
	out := make([]*Tenant, 0, len(list))
	for _, t := range list {
		out = append(out, t.Clone())
	}
	return out
}
