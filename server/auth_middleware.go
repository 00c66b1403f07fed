package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-storefront/apierr"
	"github.com/jrsteele09/go-storefront/tenants"
	"github.com/jrsteele09/go-storefront/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeyUser stores the authenticated *users.User
	ContextKeyUser ContextKey = "user"
	// ContextKeyTenant stores the request's *tenants.Tenant
	ContextKeyTenant ContextKey = "tenant"

	headerTenantSlug = "X-Tenant-Slug"
)

func userFromContext(ctx context.Context) *users.User {
	user, _ := ctx.Value(ContextKeyUser).(*users.User)
	return user
}

func tenantFromContext(ctx context.Context) *tenants.Tenant {
	tenant, _ := ctx.Value(ContextKeyTenant).(*tenants.Tenant)
	return tenant
}

// bearerToken returns the token of an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth is middleware that validates a Bearer access token and injects
// the user into the request context.
func (s *Server) RequireAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			raw, ok := bearerToken(r)
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "Not authenticated")
				return
			}
			user, err := s.otp.Authenticate(raw)
			if err != nil {
				s.logger.Debug().Err(err).Msg("bearer token rejected")
				writeJSONError(w, http.StatusUnauthorized, apierr.CodeUnauthorized, "Could not validate credentials")
				return
			}
			next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyUser, user)))
		}
	}
}

// OptionalAuth injects the user when a valid bearer token is present and
// otherwise continues anonymously.
func (s *Server) OptionalAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if raw, ok := bearerToken(r); ok {
				if user, err := s.otp.Authenticate(raw); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), ContextKeyUser, user))
				}
			}
			next(w, r)
		}
	}
}

// RequireTenant resolves the tenant from the X-Tenant-Slug header, falling back
// to the subdomain of the Host header.
func (s *Server) RequireTenant() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			slug := strings.ToLower(strings.TrimSpace(r.Header.Get(headerTenantSlug)))
			if slug == "" {
				slug, _ = tenants.SlugFromHost(r.Host)
			}
			if slug == "" {
				writeJSONError(w, http.StatusBadRequest, "", "Store not specified")
				return
			}
			tenant, err := s.repos.Tenants.GetBySlug(slug)
			if err != nil {
				writeJSONError(w, http.StatusNotFound, "", "Store not found")
				return
			}
			next(w, r.WithContext(context.WithValue(r.Context(), ContextKeyTenant, tenant)))
		}
	}
}

// RequireOwner rejects users who do not own the request's tenant. It runs after
// RequireAuth and RequireTenant.
func (s *Server) RequireOwner() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if err := checkOwner(userFromContext(r.Context()), tenantFromContext(r.Context())); err != nil {
				writeJSONError(w, http.StatusForbidden, "", err.Error())
				return
			}
			next(w, r)
		}
	}
}

var errNotOwner = errors.New("Not authorized for this store")

func checkOwner(user *users.User, tenant *tenants.Tenant) error {
	if user == nil || tenant == nil || tenant.OwnerID != user.ID {
		return errNotOwner
	}
	return nil
}
