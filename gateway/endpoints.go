package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/jrsteele09/go-storefront/orders"
	"github.com/jrsteele09/go-storefront/sessions"
	"github.com/jrsteele09/go-storefront/storemodel"
	"github.com/jrsteele09/go-storefront/tenants"
	"github.com/jrsteele09/go-storefront/users"
)

var (
	_ sessions.Backend = (*Client)(nil)
	_ tenants.Backend  = (*Client)(nil)
	_ orders.Backend   = (*Client)(nil)
)

// Route templates, also used as metric labels.
const (
	RouteOTPRequest    = "/auth/otp/request"
	RouteOTPVerify     = "/auth/otp/verify"
	RouteRegister      = "/auth/register"
	RouteMe            = "/auth/me"
	RouteTenants       = "/tenants"
	RouteTenant        = "/tenants/{id}"
	RouteTenantBySlug  = "/tenants/slug/{slug}"
	RouteProducts      = "/products"
	RouteProduct       = "/products/{id}"
	RouteProductBySlug = "/products/slug/{slug}"
	RouteShipping      = "/shipping"
	RouteOrders        = "/orders"
)

type otpRequest struct {
	Phone string `json:"phone"`
}

type otpVerify struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
}

func (c *Client) RequestOTP(ctx context.Context, phone string) error {
	return c.call(ctx, http.MethodPost, RouteOTPRequest, RouteOTPRequest, nil, otpRequest{Phone: phone}, nil)
}

// RequestOTPEcho requests a code and returns the code echoed by a development
// backend, or "" when the backend does not echo it.
func (c *Client) RequestOTPEcho(ctx context.Context, phone string) (string, error) {
	var out struct {
		OTP string `json:"otp"`
	}
	err := c.call(ctx, http.MethodPost, RouteOTPRequest, RouteOTPRequest, nil, otpRequest{Phone: phone}, &out)
	return out.OTP, err
}

func (c *Client) VerifyOTP(ctx context.Context, phone, code string) (*users.AuthResult, error) {
	var out users.AuthResult
	if err := c.call(ctx, http.MethodPost, RouteOTPVerify, RouteOTPVerify, nil, otpVerify{Phone: phone, OTP: code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, profile users.Profile) (*users.AuthResult, error) {
	var out users.AuthResult
	if err := c.call(ctx, http.MethodPost, RouteRegister, RouteRegister, nil, profile, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the principal the current credential was issued for.
func (c *Client) Me(ctx context.Context) (*users.Principal, error) {
	var out users.Principal
	if err := c.call(ctx, http.MethodGet, RouteMe, RouteMe, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) TenantBySlug(ctx context.Context, slug string) (*tenants.Tenant, error) {
	var out tenants.Tenant
	if err := c.call(ctx, http.MethodGet, RouteTenantBySlug, "/tenants/slug/"+url.PathEscape(slug), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTenants(ctx context.Context) ([]*tenants.Tenant, error) {
	var out []*tenants.Tenant
	if err := c.call(ctx, http.MethodGet, RouteTenants, RouteTenants, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateTenant(ctx context.Context, input tenants.Input) (*tenants.Tenant, error) {
	var out tenants.Tenant
	if err := c.call(ctx, http.MethodPost, RouteTenants, RouteTenants, nil, input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTenant(ctx context.Context, id storemodel.ID, patch tenants.Patch) (*tenants.Tenant, error) {
	var out tenants.Tenant
	if err := c.call(ctx, http.MethodPut, RouteTenant, "/tenants/"+url.PathEscape(id.String()), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Product(ctx context.Context, id storemodel.ID) (*catalog.Product, error) {
	var out catalog.Product
	if err := c.call(ctx, http.MethodGet, RouteProduct, "/products/"+url.PathEscape(id.String()), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ProductBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	var out catalog.Product
	if err := c.call(ctx, http.MethodGet, RouteProductBySlug, "/products/slug/"+url.PathEscape(slug), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateProduct adds a product to the tenant in scope. The caller must own it.
func (c *Client) CreateProduct(ctx context.Context, product catalog.Product) (*catalog.Product, error) {
	var out catalog.Product
	if err := c.call(ctx, http.MethodPost, RouteProducts, RouteProducts, nil, product, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ShippingOptions(ctx context.Context, activeOnly bool) ([]*catalog.ShippingOption, error) {
	var out []*catalog.ShippingOption
	query := url.Values{"active_only": {strconv.FormatBool(activeOnly)}}
	if err := c.call(ctx, http.MethodGet, RouteShipping, RouteShipping, query, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateShippingOption adds a shipping option to the tenant in scope. The caller
// must own it.
func (c *Client) CreateShippingOption(ctx context.Context, option catalog.ShippingOption) (*catalog.ShippingOption, error) {
	var out catalog.ShippingOption
	if err := c.call(ctx, http.MethodPost, RouteShipping, RouteShipping, nil, option, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateOrder(ctx context.Context, req orders.CreateRequest) (*orders.Reference, error) {
	var out orders.Reference
	if err := c.call(ctx, http.MethodPost, RouteOrders, RouteOrders, nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
