package server_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-storefront/access"
	"github.com/jrsteele09/go-storefront/analytics"
	"github.com/jrsteele09/go-storefront/analytics/analyticsfakes"
	"github.com/jrsteele09/go-storefront/apierr"
	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/jrsteele09/go-storefront/gateway"
	"github.com/jrsteele09/go-storefront/internal/config"
	"github.com/jrsteele09/go-storefront/internal/utils"
	"github.com/jrsteele09/go-storefront/orders"
	"github.com/jrsteele09/go-storefront/server"
	"github.com/jrsteele09/go-storefront/sessions"
	fakesessionrepo "github.com/jrsteele09/go-storefront/sessions/repofakes"
	"github.com/jrsteele09/go-storefront/storemodel"
	"github.com/jrsteele09/go-storefront/tenants"
	"github.com/jrsteele09/go-storefront/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const (
	ownerPhone    = "01711111111"
	otherPhone    = "01722222222"
	customerPhone = "01833333333"
)

// testFixture wires the storefront client core to a running backend.
type testFixture struct {
	ts       *httptest.Server
	repos    server.Repos
	registry *prometheus.Registry
	client   *gateway.Client
	store    *sessions.Store
	records  *fakesessionrepo.FakeRecordRepo
	resolver *tenants.Resolver
}

func setEnv(t *testing.T, overrides map[string]string) {
	t.Helper()
	env := map[string]string{
		"ENV":                  "DEV",
		"SEED_DEMO_DATA":       "false",
		"TOKEN_SECRET":         "test-secret-0123456789",
		"OTP_RATE_PER_MINUTE":  "100",
		"PIXEL_BASE_URL":       "",
		"PIXEL_API_VERSION":    "",
		"CORS_ALLOWED_ORIGINS": "http://localhost:3000",
	}
	for k, v := range overrides {
		env[k] = v
	}
	for k, v := range env {
		t.Setenv(k, v)
	}
}

func setupTestFixture(t *testing.T, options ...server.Option) *testFixture {
	t.Helper()
	f := &testFixture{
		repos:    server.InMemoryRepos(),
		registry: prometheus.NewRegistry(),
		records:  fakesessionrepo.NewFakeRecordRepo(),
	}

	options = append([]server.Option{server.WithRegistry(f.registry)}, options...)
	srv, err := server.New(config.New(), f.repos, options...)
	require.NoError(t, err)
	f.ts = httptest.NewServer(srv)
	t.Cleanup(f.ts.Close)

	f.client = f.newClient(t)
	f.store, err = sessions.NewStore(f.client, f.records)
	require.NoError(t, err)
	f.client.SetCredentials(f.store)

	f.resolver, err = tenants.NewResolver(f.client)
	require.NoError(t, err)
	return f
}

func (f *testFixture) newClient(t *testing.T, options ...gateway.ClientOption) *gateway.Client {
	t.Helper()
	options = append([]gateway.ClientOption{gateway.WithTransport(f.ts.Client().Transport)}, options...)
	c, err := gateway.NewClient(gateway.Config{BaseURL: f.ts.URL + server.APIPrefix, Timeout: 5 * time.Second}, options...)
	require.NoError(t, err)
	return c
}

// login runs the two-phase OTP login through the session store.
func (f *testFixture) login(t *testing.T, phone string) *users.Principal {
	t.Helper()
	ctx := context.Background()
	code, err := f.client.RequestOTPEcho(ctx, phone)
	require.NoError(t, err)
	require.Len(t, code, 6)
	principal, err := f.store.VerifyCode(ctx, phone, code)
	require.NoError(t, err)
	return principal
}

// openShop logs in as owner and creates a store with one tracked product and
// two shipping options.
func (f *testFixture) openShop(t *testing.T, slug string, stock int) (*tenants.Tenant, *catalog.Product) {
	t.Helper()
	f.login(t, ownerPhone)
	ctx := gateway.ContextWithTenant(context.Background(), slug)

	tenant, err := f.resolver.Create(ctx, tenants.Input{Name: "Shop " + slug, Slug: slug})
	require.NoError(t, err)

	discount := decimal.NewFromInt(450)
	product, err := f.client.CreateProduct(ctx, catalog.Product{
		Title:          "Panjabi",
		Slug:           "panjabi",
		Price:          decimal.NewFromInt(500),
		DiscountPrice:  &discount,
		StockQuantity:  stock,
		TrackInventory: true,
		IsPublished:    true,
	})
	require.NoError(t, err)
	require.True(t, product.IsInStock)

	for i, name := range []string{"Inside Dhaka", "Outside Dhaka"} {
		_, err := f.client.CreateShippingOption(ctx, catalog.ShippingOption{
			Name:      name,
			Cost:      decimal.NewFromInt(int64(60 * (i + 1))),
			IsActive:  true,
			SortOrder: i,
		})
		require.NoError(t, err)
	}
	return tenant, product
}

func kindCode(t *testing.T, err error) string {
	t.Helper()
	var e *apierr.Error
	require.True(t, errors.As(err, &e), "expected *apierr.Error, got %v", err)
	return e.Code
}

func TestNew_Validation(t *testing.T) {
	setEnv(t, nil)
	_, err := server.New(nil, server.InMemoryRepos())
	require.Error(t, err)

	_, err = server.New(config.New(), server.Repos{})
	require.Error(t, err)

	setEnv(t, map[string]string{"TOKEN_SECRET": "short"})
	_, err = server.New(config.New(), server.InMemoryRepos())
	require.Error(t, err)
}

func TestOTPLogin(t *testing.T) {
	setEnv(t, nil)
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.store.RequestCode(ctx, "+8801711-111111"))
	require.Equal(t, sessions.StateCodeRequested, f.store.State())

	t.Run("wrong code leaves session anonymous", func(t *testing.T) {
		_, err := f.client.RequestOTPEcho(ctx, ownerPhone)
		require.NoError(t, err)
		_, err = f.store.VerifyCode(ctx, ownerPhone, "000000")
		require.ErrorIs(t, err, apierr.ErrAuth)
		require.Equal(t, apierr.CodeInvalidCode, kindCode(t, err))
		require.False(t, f.store.IsAuthenticated())
		require.Nil(t, f.records.Raw())
	})

	t.Run("correct code authenticates and persists", func(t *testing.T) {
		principal := f.login(t, ownerPhone)
		require.Equal(t, ownerPhone, principal.Phone)
		require.True(t, f.store.IsAuthenticated())
		require.NotNil(t, f.records.Raw())
		require.NoError(t, access.Require(f.store))

		me, err := f.client.Me(ctx)
		require.NoError(t, err)
		require.Equal(t, principal.ID, me.ID)
	})

	t.Run("restart restores session", func(t *testing.T) {
		restarted, err := sessions.NewStore(f.client, f.records)
		require.NoError(t, err)
		restarted.Bootstrap(ctx)
		require.True(t, restarted.IsAuthenticated())
		require.Equal(t, f.store.Credential(), restarted.Credential())
	})

	t.Run("logout drops credential", func(t *testing.T) {
		f.store.Logout(ctx)
		_, err := f.client.Me(ctx)
		require.ErrorIs(t, err, apierr.ErrAuth)
		require.ErrorIs(t, access.Require(f.store), apierr.ErrAuth)
	})
}

func TestOTPRequest_Rejections(t *testing.T) {
	setEnv(t, map[string]string{"OTP_RATE_PER_MINUTE": "1"})
	f := setupTestFixture(t)
	ctx := context.Background()

	err := f.client.RequestOTP(ctx, "12345")
	require.ErrorIs(t, err, apierr.ErrAuth)
	require.Equal(t, apierr.CodeInvalidPhone, kindCode(t, err))

	require.NoError(t, f.client.RequestOTP(ctx, ownerPhone))
	err = f.store.RequestCode(ctx, ownerPhone)
	require.ErrorIs(t, err, apierr.ErrAuth)
	require.Equal(t, apierr.CodeRateLimited, kindCode(t, err))
	require.Equal(t, sessions.StateAnonymous, f.store.State())
}

func TestRegister(t *testing.T) {
	setEnv(t, nil)
	f := setupTestFixture(t)
	ctx := context.Background()

	principal, err := f.store.Register(ctx, users.Profile{Phone: otherPhone, FullName: "Karim"})
	require.NoError(t, err)
	require.Equal(t, "Karim", principal.DisplayName)
	require.True(t, f.store.IsAuthenticated())

	t.Run("existing phone", func(t *testing.T) {
		_, err := f.client.Register(ctx, users.Profile{Phone: otherPhone})
		require.ErrorIs(t, err, apierr.ErrValidation)
		require.Equal(t, "User with this phone already exists", apierr.Message(err, ""))
	})

	t.Run("field errors", func(t *testing.T) {
		_, err := f.client.Register(ctx, users.Profile{Phone: "12"})
		require.ErrorIs(t, err, apierr.ErrValidation)
		var e *apierr.Error
		require.True(t, errors.As(err, &e))
		require.Contains(t, e.Fields, "phone")
	})
}

func TestTenantLifecycle(t *testing.T) {
	setEnv(t, nil)
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := f.resolver.LoadOwnerTenants(ctx)
	require.ErrorIs(t, err, apierr.ErrAuth, "listing needs a session")

	f.login(t, ownerPhone)
	created, err := f.resolver.Create(ctx, tenants.Input{Name: "My Shop", Slug: "My-Shop"})
	require.NoError(t, err)
	require.Equal(t, "my-shop", created.Slug)
	require.True(t, created.EnableCOD)
	require.Len(t, f.resolver.Tenants(), 1)

	t.Run("duplicate slug", func(t *testing.T) {
		_, err := f.resolver.Create(ctx, tenants.Input{Name: "Again", Slug: "my-shop"})
		require.ErrorIs(t, err, apierr.ErrValidation)
		require.Equal(t, "Store slug already exists", apierr.Message(err, ""))
	})

	t.Run("resolve from origin", func(t *testing.T) {
		tenant, err := f.resolver.ResolveFromOrigin(ctx, "my-shop.platform.tld")
		require.NoError(t, err)
		require.Equal(t, created.ID, tenant.ID)

		_, err = f.resolver.ResolveFromOrigin(ctx, "missing.platform.tld")
		require.ErrorIs(t, err, apierr.ErrNotFound)
		active, _ := f.resolver.Active()
		require.Nil(t, active)
	})

	t.Run("update refreshes active binding", func(t *testing.T) {
		_, err := f.resolver.ResolveFromOrigin(ctx, "my-shop.platform.tld")
		require.NoError(t, err)
		updated, err := f.resolver.Update(ctx, created.ID, tenants.Patch{
			Name:                utils.Ptr("Renamed"),
			EnableFacebookPixel: utils.Ptr(true),
			FacebookPixelID:     utils.Ptr("px-1"),
			FacebookAccessToken: utils.Ptr("secret-token"),
		})
		require.NoError(t, err)
		require.Equal(t, "Renamed", updated.Name)
		require.Empty(t, updated.FacebookAccessToken, "access token is write-only")

		active, source := f.resolver.Active()
		require.Equal(t, "Renamed", active.Name)
		require.True(t, active.TracksPurchases())
		require.Equal(t, tenants.BindingOrigin, source)
	})

	t.Run("other users cannot update", func(t *testing.T) {
		f.store.Logout(ctx)
		f.login(t, otherPhone)
		_, err := f.resolver.Update(ctx, created.ID, tenants.Patch{Name: utils.Ptr("Hijacked")})
		require.ErrorIs(t, err, apierr.ErrAuth)

		list, err := f.resolver.LoadOwnerTenants(ctx)
		require.NoError(t, err)
		require.Empty(t, list)
	})
}

// pixelRecorder is a fake Conversions API endpoint.
type pixelRecorder struct {
	mu     sync.Mutex
	paths  []string
	auth   []string
	bodies [][]byte
}

func (p *pixelRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	p.mu.Lock()
	p.paths = append(p.paths, r.URL.Path)
	p.auth = append(p.auth, r.Header.Get("Authorization"))
	p.bodies = append(p.bodies, body)
	p.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"events_received":1}`))
}

func (p *pixelRecorder) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.bodies)
}

func TestCheckout(t *testing.T) {
	pixel := &pixelRecorder{}
	pixelServer := httptest.NewServer(pixel)
	t.Cleanup(pixelServer.Close)

	setEnv(t, map[string]string{"PIXEL_BASE_URL": pixelServer.URL})
	f := setupTestFixture(t, server.WithPixelOptions(analytics.WithHTTPClient(pixelServer.Client())))
	ctx := context.Background()

	tenant, _ := f.openShop(t, "shop", 2)
	_, err := f.resolver.Update(ctx, tenant.ID, tenants.Patch{
		EnableFacebookPixel: utils.Ptr(true),
		FacebookPixelID:     utils.Ptr("px-9"),
		FacebookAccessToken: utils.Ptr("capi-token"),
	})
	require.NoError(t, err)
	f.store.Logout(ctx)

	// The shopper is anonymous and scoped to the store by its origin.
	shopper := f.newClient(t, gateway.WithTenantSlug("shop"))
	resolver, err := tenants.NewResolver(shopper)
	require.NoError(t, err)
	bound, err := resolver.ResolveFromOrigin(ctx, "shop.platform.tld")
	require.NoError(t, err)

	product, err := shopper.ProductBySlug(ctx, "panjabi")
	require.NoError(t, err)
	options, err := shopper.ShippingOptions(ctx, true)
	require.NoError(t, err)
	require.Len(t, options, 2)
	require.Equal(t, "Inside Dhaka", options[0].Name)

	recorder := analyticsfakes.NewRecorder()
	composer, err := orders.NewComposer(shopper, orders.WithSink(recorder))
	require.NoError(t, err)
	customer := orders.CustomerInfo{Name: "Rahim", Phone: customerPhone, Address: "House 1, Road 2, Dhaka"}

	draft, err := composer.BuildSubmission(customer, product, 2, orders.DefaultShipping(options).ID.String(), options, bound)
	require.NoError(t, err)
	require.Equal(t, "960", draft.Totals.Total.String())

	ref, err := composer.Submit(ctx, draft)
	require.NoError(t, err)
	require.NotEmpty(t, ref.OrderNumber)
	require.True(t, ref.Total.Equal(decimal.NewFromInt(960)))

	t.Run("client and server purchase events carry the correlation id", func(t *testing.T) {
		events := recorder.Events()
		require.Len(t, events, 1)
		require.Equal(t, draft.CorrelationID, events[0].CorrelationID)
		require.Equal(t, "px-9", events[0].PixelID)

		require.Equal(t, 1, pixel.count())
		require.Equal(t, "/v18.0/px-9/events", pixel.paths[0])
		require.Equal(t, "Bearer capi-token", pixel.auth[0])
		require.Equal(t, draft.CorrelationID, gjson.GetBytes(pixel.bodies[0], "data.0.event_id").String())
		require.EqualValues(t, 2, gjson.GetBytes(pixel.bodies[0], "data.0.custom_data.num_items").Int())
	})

	t.Run("stock is decremented and flips out of stock", func(t *testing.T) {
		after, err := shopper.Product(ctx, product.ID)
		require.NoError(t, err)
		require.Zero(t, after.StockQuantity)
		require.False(t, after.IsInStock)
	})

	t.Run("resubmitting the same draft places one order", func(t *testing.T) {
		again, err := composer.Submit(ctx, draft)
		require.NoError(t, err)
		require.Equal(t, ref.ID, again.ID)
		require.Len(t, recorder.Events(), 1)
		require.Equal(t, 1, pixel.count())
	})

	t.Run("stale snapshot is rejected by the backend", func(t *testing.T) {
		stale, err := composer.BuildSubmission(customer, product, 1, "", options, bound)
		require.NoError(t, err)
		_, err = composer.Submit(ctx, stale)
		require.ErrorIs(t, err, apierr.ErrOutOfStock)
		require.Equal(t, apierr.CodeOutOfStock, kindCode(t, err))
		require.Len(t, recorder.Events(), 1)
	})
}

func TestCreateOrder_Rejections(t *testing.T) {
	setEnv(t, nil)
	f := setupTestFixture(t)
	ctx := context.Background()
	tenant, product := f.openShop(t, "shop", 5)
	shopCtx := gateway.ContextWithTenant(ctx, "shop")

	base := orders.CreateRequest{
		CustomerName:    "Rahim",
		CustomerPhone:   customerPhone,
		CustomerAddress: "Dhaka",
		Items:           []orders.Item{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod:   orders.PaymentCOD,
	}

	t.Run("no store in scope", func(t *testing.T) {
		_, err := f.client.CreateOrder(ctx, base)
		require.ErrorIs(t, err, apierr.ErrValidation)
	})

	t.Run("unknown store", func(t *testing.T) {
		_, err := f.client.CreateOrder(gateway.ContextWithTenant(ctx, "nope"), base)
		require.ErrorIs(t, err, apierr.ErrNotFound)
	})

	t.Run("invalid fields", func(t *testing.T) {
		req := base
		req.CustomerPhone = "abc"
		req.CustomerName = ""
		_, err := f.client.CreateOrder(shopCtx, req)
		require.ErrorIs(t, err, apierr.ErrValidation)
		var e *apierr.Error
		require.True(t, errors.As(err, &e))
		require.Contains(t, e.Fields, "customer_phone")
		require.Contains(t, e.Fields, "customer_name")
	})

	t.Run("unknown shipping option", func(t *testing.T) {
		req := base
		id := storemodel.ID("999")
		req.ShippingClassID = &id
		_, err := f.client.CreateOrder(shopCtx, req)
		require.ErrorIs(t, err, apierr.ErrValidation)
	})

	t.Run("quantity above stock", func(t *testing.T) {
		req := base
		req.Items = []orders.Item{{ProductID: product.ID, Quantity: 6}}
		_, err := f.client.CreateOrder(shopCtx, req)
		require.ErrorIs(t, err, apierr.ErrOutOfStock)
	})

	t.Run("repeated lines share the product's stock", func(t *testing.T) {
		req := base
		req.Items = []orders.Item{{ProductID: product.ID, Quantity: 3}, {ProductID: product.ID, Quantity: 3}}
		_, err := f.client.CreateOrder(shopCtx, req)
		require.ErrorIs(t, err, apierr.ErrOutOfStock)

		stored, err := f.repos.Products.Get(tenant.ID, product.ID)
		require.NoError(t, err)
		require.Equal(t, 5, stored.StockQuantity)
	})

	t.Run("repeated lines within stock are merged", func(t *testing.T) {
		req := base
		req.Items = []orders.Item{{ProductID: product.ID, Quantity: 2}, {ProductID: product.ID, Quantity: 2}}
		ref, err := f.client.CreateOrder(shopCtx, req)
		require.NoError(t, err)
		require.True(t, decimal.NewFromInt(1800).Equal(ref.Total), ref.Total.String())

		stored, err := f.repos.Products.Get(tenant.ID, product.ID)
		require.NoError(t, err)
		require.Equal(t, 1, stored.StockQuantity)
		require.True(t, stored.IsInStock)

		order, err := f.repos.Orders.Get(tenant.ID, ref.ID)
		require.NoError(t, err)
		require.Len(t, order.Items, 1)
		require.Equal(t, 4, order.Items[0].Quantity)
	})

	t.Run("cash on delivery disabled", func(t *testing.T) {
		_, err := f.resolver.Update(ctx, tenant.ID, tenants.Patch{EnableCOD: utils.Ptr(false)})
		require.NoError(t, err)
		_, err = f.client.CreateOrder(shopCtx, base)
		require.ErrorIs(t, err, apierr.ErrValidation)
		require.Contains(t, apierr.Message(err, ""), "Cash on delivery")
	})

	t.Run("non owners cannot add products", func(t *testing.T) {
		f.store.Logout(ctx)
		f.login(t, otherPhone)
		_, err := f.client.CreateProduct(shopCtx, catalog.Product{Title: "X", Price: decimal.NewFromInt(1)})
		require.ErrorIs(t, err, apierr.ErrAuth)
	})
}

func TestProductSlugs(t *testing.T) {
	setEnv(t, nil)
	f := setupTestFixture(t)
	ctx := context.Background()
	f.openShop(t, "shop", 5)
	shopCtx := gateway.ContextWithTenant(ctx, "shop")

	t.Run("derived from title when absent", func(t *testing.T) {
		created, err := f.client.CreateProduct(shopCtx, catalog.Product{Title: "Summer Sale!", Price: decimal.NewFromInt(10), IsPublished: true})
		require.NoError(t, err)
		require.Equal(t, "summer-sale", created.Slug)

		_, err = f.client.CreateProduct(shopCtx, catalog.Product{Title: "summer sale", Price: decimal.NewFromInt(10)})
		require.ErrorIs(t, err, apierr.ErrValidation, "derived slug collides")
	})

	t.Run("slugs that need escaping round trip", func(t *testing.T) {
		_, err := f.client.CreateProduct(shopCtx, catalog.Product{Title: "Eid", Slug: "eid offer", Price: decimal.NewFromInt(10), IsPublished: true})
		require.NoError(t, err)

		found, err := f.client.ProductBySlug(shopCtx, "eid offer")
		require.NoError(t, err)
		require.Equal(t, "Eid", found.Title)
	})
}

func TestUnpublishedProductHidden(t *testing.T) {
	setEnv(t, nil)
	f := setupTestFixture(t)
	ctx := context.Background()
	f.openShop(t, "shop", 1)
	shopCtx := gateway.ContextWithTenant(ctx, "shop")

	hidden, err := f.client.CreateProduct(shopCtx, catalog.Product{Title: "Draft", Slug: "draft", Price: decimal.NewFromInt(10)})
	require.NoError(t, err)

	_, err = f.client.Product(shopCtx, hidden.ID)
	require.NoError(t, err, "owner sees unpublished products")

	shopper := f.newClient(t, gateway.WithTenantSlug("shop"))
	_, err = shopper.Product(ctx, hidden.ID)
	require.ErrorIs(t, err, apierr.ErrNotFound)
	_, err = shopper.ProductBySlug(ctx, "draft")
	require.ErrorIs(t, err, apierr.ErrNotFound)
}

func TestSeedDemoData(t *testing.T) {
	setEnv(t, map[string]string{"SEED_DEMO_DATA": "true"})
	f := setupTestFixture(t)
	ctx := context.Background()

	tenant, err := f.client.TenantBySlug(ctx, server.DemoTenantSlug)
	require.NoError(t, err)
	require.True(t, tenant.EnableCOD)

	product, err := f.client.ProductBySlug(gateway.ContextWithTenant(ctx, server.DemoTenantSlug), "cotton-t-shirt")
	require.NoError(t, err)
	require.Equal(t, "450", product.UnitPrice().String())

	principal := f.login(t, server.DemoOwnerPhone)
	require.Equal(t, tenant.OwnerID, principal.ID)
}

func TestOperationalRoutes(t *testing.T) {
	setEnv(t, nil)
	f := setupTestFixture(t)

	t.Run("health", func(t *testing.T) {
		resp, err := f.ts.Client().Get(f.ts.URL + server.RouteHealth)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("preflight", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodOptions, f.ts.URL+server.RouteOrders, nil)
		require.NoError(t, err)
		req.Header.Set("Origin", "http://localhost:3000")
		resp, err := f.ts.Client().Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusNoContent, resp.StatusCode)
		require.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
		require.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "X-Tenant-Slug")
	})

	t.Run("metrics", func(t *testing.T) {
		_, err := f.client.TenantBySlug(context.Background(), "missing")
		require.ErrorIs(t, err, apierr.ErrNotFound)

		count, err := testutil.GatherAndCount(f.registry, "storefront_server_requests_total")
		require.NoError(t, err)
		require.Positive(t, count)

		resp, err := f.ts.Client().Get(f.ts.URL + server.RouteMetrics)
		require.NoError(t, err)
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.True(t, strings.Contains(string(body), `route="/api/v1/tenants/slug/{slug}"`))
	})
}

// lockedBuffer is a log sink safe to read while handlers write to it.
type lockedBuffer struct {
	mu  sync.Mutex
	buf strings.Builder
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) lines(msg string) []gjson.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []gjson.Result
	for _, line := range strings.Split(b.buf.String(), "\n") {
		if entry := gjson.Parse(line); entry.Get("message").String() == msg {
			out = append(out, entry)
		}
	}
	return out
}

func TestOrderNotifications(t *testing.T) {
	setEnv(t, nil)
	logs := &lockedBuffer{}
	f := setupTestFixture(t, server.WithLogger(zerolog.New(logs)))
	ctx := context.Background()
	tenant, product := f.openShop(t, "shop", 5)

	req := orders.CreateRequest{
		CustomerName:    "Rahim",
		CustomerPhone:   customerPhone,
		CustomerAddress: "Dhaka",
		Items:           []orders.Item{{ProductID: product.ID, Quantity: 1}},
		PaymentMethod:   orders.PaymentCOD,
	}
	shopCtx := gateway.ContextWithTenant(ctx, "shop")

	_, err := f.client.CreateOrder(shopCtx, req)
	require.NoError(t, err)
	require.Empty(t, logs.lines("order notification"), "nothing requested")

	_, err = f.resolver.Update(ctx, tenant.ID, tenants.Patch{
		EmailNotifications:    utils.Ptr(true),
		NotificationEmail:     utils.Ptr("owner@example.com"),
		WhatsAppNotifications: utils.Ptr(true),
	})
	require.NoError(t, err)

	ref, err := f.client.CreateOrder(shopCtx, req)
	require.NoError(t, err)

	sent := logs.lines("order notification")
	require.Len(t, sent, 1, "whatsapp has no number")
	require.Equal(t, "email", sent[0].Get("channel").String())
	require.Equal(t, "owner@example.com", sent[0].Get("to").String())
	require.Equal(t, ref.OrderNumber, sent[0].Get("order").String())
}
