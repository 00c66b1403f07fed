package server

// Route path constants
// All API routes are mounted under APIPrefix
const (
	APIPrefix = "/api/v1"

	// Auth Routes
	RouteOTPRequest = APIPrefix + "/auth/otp/request"
	RouteOTPVerify  = APIPrefix + "/auth/otp/verify"
	RouteRegister   = APIPrefix + "/auth/register"
	RouteMe         = APIPrefix + "/auth/me"

	// Tenant Routes
	RouteTenants      = APIPrefix + "/tenants"
	RouteTenant       = APIPrefix + "/tenants/{id}"
	RouteTenantBySlug = APIPrefix + "/tenants/slug/{slug}"

	// Catalog Routes (tenant scoped)
	RouteProducts      = APIPrefix + "/products"
	RouteProduct       = APIPrefix + "/products/{id}"
	RouteProductBySlug = APIPrefix + "/products/slug/{slug}"
	RouteShipping      = APIPrefix + "/shipping"

	// Order Routes (tenant scoped)
	RouteOrders = APIPrefix + "/orders"
	RouteOrder  = APIPrefix + "/orders/{id}"

	// Operational Routes
	RouteHealth  = "/health"
	RouteMetrics = "/metrics"
)
