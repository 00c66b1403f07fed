package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteFunc("POST "+RouteOTPRequest, ChainMiddleware(s.OTPRequestHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteOTPVerify, ChainMiddleware(s.OTPVerifyHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("POST "+RouteRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth())...))

	// TENANTS
	s.RegisterRouteFunc("GET "+RouteTenantBySlug, ChainMiddleware(s.TenantBySlugHandler(), s.APIMiddleware()...))
	s.RegisterRouteFunc("GET "+RouteTenants, ChainMiddleware(s.ListTenantsHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("POST "+RouteTenants, ChainMiddleware(s.CreateTenantHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RouteTenant, ChainMiddleware(s.GetTenantHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("PUT "+RouteTenant, ChainMiddleware(s.UpdateTenantHandler(), s.APIMiddleware(s.RequireAuth())...))

	// CATALOG
	s.RegisterRouteFunc("GET "+RouteProduct, ChainMiddleware(s.ProductHandler(), s.APIMiddleware(s.RequireTenant(), s.OptionalAuth())...))
	s.RegisterRouteFunc("GET "+RouteProductBySlug, ChainMiddleware(s.ProductBySlugHandler(), s.APIMiddleware(s.RequireTenant(), s.OptionalAuth())...))
	s.RegisterRouteFunc("POST "+RouteProducts, ChainMiddleware(s.CreateProductHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireTenant(), s.RequireOwner())...))
	s.RegisterRouteFunc("GET "+RouteShipping, ChainMiddleware(s.ShippingHandler(), s.APIMiddleware(s.RequireTenant())...))
	s.RegisterRouteFunc("POST "+RouteShipping, ChainMiddleware(s.CreateShippingHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireTenant(), s.RequireOwner())...))

	// ORDERS
	s.RegisterRouteFunc("POST "+RouteOrders, ChainMiddleware(s.CreateOrderHandler(), s.APIMiddleware(s.RequireTenant())...))
	s.RegisterRouteFunc("GET "+RouteOrder, ChainMiddleware(s.GetOrderHandler(), s.APIMiddleware(s.RequireAuth(), s.RequireTenant(), s.RequireOwner())...))

	// Preflight for every API route
	s.RegisterRouteFunc("OPTIONS "+APIPrefix+"/", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}, s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealth, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	s.RegisterRouteHandler("GET "+RouteMetrics, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
}
