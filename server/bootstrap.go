package server

import (
	"errors"
	"fmt"

	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/jrsteele09/go-storefront/tenants"
	"github.com/jrsteele09/go-storefront/users"
	"github.com/shopspring/decimal"
)

const (
	DemoOwnerPhone = "01700000000"
	DemoTenantSlug = "demo"
)

// SeedDemoData creates a demo owner, a demo store with cash on delivery, one
// tracked product and two shipping options. It does nothing when the demo store
// already exists.
func (s *Server) SeedDemoData() error {
	if existing, err := s.repos.Tenants.GetBySlug(DemoTenantSlug); err == nil {
		s.logger.Info().Str("tenant", existing.ID.String()).Msg("Bootstrap: demo store already exists")
		return nil
	}

	owner, err := s.repos.Users.GetByPhone(DemoOwnerPhone)
	if errors.Is(err, users.ErrUserNotFound) {
		owner = &users.User{
			Principal: users.Principal{Phone: DemoOwnerPhone, DisplayName: "Demo Owner"},
			Active:    true,
			CreatedAt: s.now(),
		}
		err = s.repos.Users.Upsert(owner)
	}
	if err != nil {
		return fmt.Errorf("failed to bootstrap demo owner: %w", err)
	}

	tenant := &tenants.Tenant{
		Slug:            DemoTenantSlug,
		Name:            "Demo Store",
		BrandColor:      tenants.DefaultBrandColor,
		Currency:        tenants.DefaultCurrency,
		DefaultLanguage: tenants.DefaultLanguage,
		OwnerID:         owner.ID,
		CommerceFlags:   tenants.CommerceFlags{EnableCOD: true},
	}
	if err := s.repos.Tenants.Upsert(tenant); err != nil {
		return fmt.Errorf("failed to bootstrap demo store: %w", err)
	}

	discount := decimal.NewFromInt(450)
	product := &catalog.Product{
		TenantID:       tenant.ID,
		Title:          "Cotton T-Shirt",
		TitleBN:        "সুতির টি-শার্ট",
		Slug:           "cotton-t-shirt",
		Price:          decimal.NewFromInt(500),
		DiscountPrice:  &discount,
		StockQuantity:  10,
		IsInStock:      true,
		TrackInventory: true,
		IsPublished:    true,
	}
	if err := s.repos.Products.Upsert(product); err != nil {
		return fmt.Errorf("failed to bootstrap demo product: %w", err)
	}

	for i, option := range []*catalog.ShippingOption{
		{Name: "Inside Dhaka", NameBN: "ঢাকার ভিতরে", Cost: decimal.NewFromInt(60)},
		{Name: "Outside Dhaka", NameBN: "ঢাকার বাইরে", Cost: decimal.NewFromInt(120)},
	} {
		option.TenantID = tenant.ID
		option.IsActive = true
		option.SortOrder = i
		if err := s.repos.Shipping.Upsert(option); err != nil {
			return fmt.Errorf("failed to bootstrap shipping option: %w", err)
		}
	}

	s.logger.Info().
		Str("owner_phone", DemoOwnerPhone).
		Str("tenant", tenant.ID.String()).
		Str("slug", tenant.Slug).
		Str("product", product.ID.String()).
		Msg("Bootstrap: demo store created")
	return nil
}
