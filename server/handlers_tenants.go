package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-storefront/storemodel"
	"github.com/jrsteele09/go-storefront/tenants"
)

var tenantFieldNames = map[error]string{
	tenants.ErrNameRequired:      "name",
	tenants.ErrInvalidSlug:       "slug",
	tenants.ErrInvalidBrandColor: "brand_color",
	tenants.ErrInvalidCurrency:   "currency",
	tenants.ErrInvalidLanguage:   "default_language",
}

// tenantFieldErrors maps a tenant validation error to the field it concerns.
func tenantFieldErrors(err error) map[string]string {
	for sentinel, field := range tenantFieldNames {
		if errors.Is(err, sentinel) {
			return map[string]string{field: err.Error()}
		}
	}
	return map[string]string{"body": err.Error()}
}

func (s *Server) TenantBySlugHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, err := s.repos.Tenants.GetBySlug(strings.ToLower(r.PathValue("slug")))
		if err != nil {
			writeJSONError(w, http.StatusNotFound, "", "Store not found")
			return
		}
		writeJSON(w, http.StatusOK, tenant)
	}
}

func (s *Server) ListTenantsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		owned, err := s.repos.Tenants.ListByOwner(userFromContext(r.Context()).ID)
		if err != nil {
			s.logger.Error().Err(err).Msg("list tenants failed")
			writeJSONError(w, http.StatusInternalServerError, "", "Internal server error")
			return
		}
		writeJSON(w, http.StatusOK, owned)
	}
}

func (s *Server) CreateTenantHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input tenants.Input
		if !decodeJSON(w, r, &input) {
			return
		}
		input = input.Normalize()
		if err := input.Validate(); err != nil {
			writeFieldErrors(w, tenantFieldErrors(err))
			return
		}
		if _, err := s.repos.Tenants.GetBySlug(input.Slug); err == nil {
			writeJSONError(w, http.StatusBadRequest, "", "Store slug already exists")
			return
		}

		owner := userFromContext(r.Context())
		tenant := &tenants.Tenant{
			Slug:            input.Slug,
			Name:            input.Name,
			BrandColor:      input.BrandColor,
			Currency:        input.Currency,
			DefaultLanguage: input.DefaultLanguage,
			OwnerID:         owner.ID,
			CommerceFlags:   tenants.CommerceFlags{EnableCOD: true},
		}
		if err := s.repos.Tenants.Upsert(tenant); err != nil {
			writeJSONError(w, http.StatusBadRequest, "", "Store slug already exists")
			return
		}
		s.logger.Info().Str("tenant", tenant.ID.String()).Str("slug", tenant.Slug).Str("owner", owner.ID.String()).Msg("tenant created")
		writeJSON(w, http.StatusCreated, tenant)
	}
}

func (s *Server) GetTenantHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, ok := s.ownedTenant(w, r)
		if !ok {
			return
		}
		writeJSON(w, http.StatusOK, tenant)
	}
}

func (s *Server) UpdateTenantHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, ok := s.ownedTenant(w, r)
		if !ok {
			return
		}
		var patch tenants.Patch
		if !decodeJSON(w, r, &patch) {
			return
		}
		if err := patch.Validate(); err != nil {
			writeFieldErrors(w, tenantFieldErrors(err))
			return
		}
		patch.Apply(tenant)
		if err := s.repos.Tenants.Upsert(tenant); err != nil {
			s.logger.Error().Err(err).Str("tenant", tenant.ID.String()).Msg("update tenant failed")
			writeJSONError(w, http.StatusInternalServerError, "", "Internal server error")
			return
		}
		writeJSON(w, http.StatusOK, tenant)
	}
}

// ownedTenant loads the {id} tenant and checks the caller owns it, writing the
// error response when not.
func (s *Server) ownedTenant(w http.ResponseWriter, r *http.Request) (*tenants.Tenant, bool) {
	tenant, err := s.repos.Tenants.Get(storemodel.ID(r.PathValue("id")))
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "", "Store not found")
		return nil, false
	}
	if err := checkOwner(userFromContext(r.Context()), tenant); err != nil {
		writeJSONError(w, http.StatusForbidden, "", err.Error())
		return nil, false
	}
	return tenant, true
}
