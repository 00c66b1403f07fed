package tenants_test

import (
	"testing"

	"github.com/jrsteele09/go-storefront/internal/utils"
	"github.com/jrsteele09/go-storefront/tenants"
	"github.com/stretchr/testify/require"
)

func TestSlugFromHost(t *testing.T) {
	tests := []struct {
		host   string
		slug   string
		exists bool
	}{
		{host: "shopname.platform.tld", slug: "shopname", exists: true},
		{host: "ShopName.Platform.TLD", slug: "shopname", exists: true},
		{host: "shopname.platform.tld:8080", slug: "shopname", exists: true},
		{host: "shopname.platform.tld.", slug: "shopname", exists: true},
		{host: "www.platform.tld"},
		{host: "api.platform.tld"},
		{host: "app.platform.tld"},
		{host: "admin.platform.tld"},
		{host: "platform.tld"},
		{host: "localhost"},
		{host: "192.168.10.20"},
		{host: ""},
	}
	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			slug, ok := tenants.SlugFromHost(tt.host)
			require.Equal(t, tt.exists, ok)
			require.Equal(t, tt.slug, slug)
		})
	}
}

func TestInput_NormalizeAndValidate(t *testing.T) {
	t.Run("defaults applied", func(t *testing.T) {
		in := tenants.Input{Name: " Shop ", Slug: "My-Shop"}.Normalize()
		require.NoError(t, in.Validate())
		require.Equal(t, "Shop", in.Name)
		require.Equal(t, "my-shop", in.Slug)
		require.Equal(t, tenants.DefaultBrandColor, in.BrandColor)
		require.Equal(t, tenants.DefaultCurrency, in.Currency)
		require.Equal(t, tenants.DefaultLanguage, in.DefaultLanguage)
	})

	t.Run("rejections", func(t *testing.T) {
		base := tenants.Input{Name: "Shop", Slug: "shop"}.Normalize()

		bad := base
		bad.Slug = "shop_name"
		require.ErrorIs(t, bad.Validate(), tenants.ErrInvalidSlug)

		bad = base
		bad.BrandColor = "#12345"
		require.ErrorIs(t, bad.Validate(), tenants.ErrInvalidBrandColor)

		bad = base
		bad.DefaultLanguage = "fr"
		require.ErrorIs(t, bad.Validate(), tenants.ErrInvalidLanguage)

		bad = base
		bad.Currency = "EURO"
		require.ErrorIs(t, bad.Validate(), tenants.ErrInvalidCurrency)

		bad = base
		bad.Name = ""
		require.ErrorIs(t, bad.Validate(), tenants.ErrNameRequired)
	})
}

func TestPatch_Apply(t *testing.T) {
	tenant := &tenants.Tenant{Name: "Shop", Currency: "BDT", BrandColor: "#000000"}
	tenants.Patch{
		Name:               utils.Ptr("Renamed"),
		EnableCOD:          utils.Ptr(true),
		EmailNotifications: utils.Ptr(true),
		NotificationEmail:  utils.Ptr("owner@example.com"),
	}.Apply(tenant)

	require.Equal(t, "Renamed", tenant.Name)
	require.Equal(t, "BDT", tenant.Currency)
	require.Equal(t, "#000000", tenant.BrandColor)
	require.True(t, tenant.EnableCOD)
	require.True(t, tenant.EmailNotifications)
	require.Equal(t, "owner@example.com", tenant.NotificationEmail)
}

func TestCommerceFlags_TracksPurchases(t *testing.T) {
	require.False(t, tenants.CommerceFlags{EnableFacebookPixel: true}.TracksPurchases())
	require.False(t, tenants.CommerceFlags{FacebookPixelID: "px"}.TracksPurchases())
	require.True(t, tenants.CommerceFlags{EnableFacebookPixel: true, FacebookPixelID: "px"}.TracksPurchases())
}
