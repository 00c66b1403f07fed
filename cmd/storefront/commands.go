package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/jrsteele09/go-storefront/access"
	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/jrsteele09/go-storefront/gateway"
	"github.com/jrsteele09/go-storefront/internal/utils"
	"github.com/jrsteele09/go-storefront/orders"
	"github.com/jrsteele09/go-storefront/storemodel"
	"github.com/jrsteele09/go-storefront/tenants"
	"github.com/jrsteele09/go-storefront/users"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

func (a *app) root() *command {
	return &command{
		Name:    "storefront",
		Summary: "Storefront client: log in, manage stores and place orders.",
		Subcommands: []*command{
			a.loginCommand(),
			a.registerCommand(),
			a.logoutCommand(),
			a.whoamiCommand(),
			a.resolveCommand(),
			a.storesCommand(),
			a.productsCommand(),
			a.shippingCommand(),
			a.checkoutCommand(),
		},
	}
}

func (a *app) loginCommand() *command {
	var phone, code string
	return &command{
		Name:    "login",
		Summary: "Log in with a one-time code",
		Subcommands: []*command{
			{
				Name:    "request",
				Summary: "Send a one-time code to a phone",
				Flags: func(fs *pflag.FlagSet) {
					fs.StringVar(&phone, "phone", "", "phone number (01XXXXXXXXX)")
				},
				Run: func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
					if err := a.store.RequestCode(ctx, phone); err != nil {
						return err
					}
					fmt.Fprintf(a.out, "Code sent to %s\n", a.store.PendingPhone())
					return nil
				},
			},
			{
				Name:    "verify",
				Summary: "Exchange a one-time code for a session",
				Flags: func(fs *pflag.FlagSet) {
					fs.StringVar(&phone, "phone", "", "phone number the code was sent to")
					fs.StringVar(&code, "code", "", "the code received")
				},
				Run: func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
					principal, err := a.store.VerifyCode(ctx, phone, code)
					if err != nil {
						return err
					}
					fmt.Fprintf(a.out, "Logged in as %s\n", displayName(principal))
					return nil
				},
			},
		},
	}
}

func (a *app) registerCommand() *command {
	var profile users.Profile
	return &command{
		Name:    "register",
		Summary: "Create an account and log in",
		Flags: func(fs *pflag.FlagSet) {
			fs.StringVar(&profile.Phone, "phone", "", "phone number (01XXXXXXXXX)")
			fs.StringVar(&profile.FullName, "name", "", "full name")
			fs.StringVar(&profile.Email, "email", "", "email address")
		},
		Run: func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
			principal, err := a.store.Register(ctx, profile)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Registered and logged in as %s\n", displayName(principal))
			return nil
		},
	}
}

func (a *app) logoutCommand() *command {
	return &command{
		Name:    "logout",
		Summary: "Forget the stored session",
		Run: func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
			a.store.Logout(ctx)
			a.resolver.Reset()
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func (a *app) whoamiCommand() *command {
	return &command{
		Name:    "whoami",
		Summary: "Show the logged in user",
		Run: func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
			if !a.store.IsAuthenticated() {
				fmt.Fprintln(a.out, "Not logged in")
				return nil
			}
			principal, err := a.client.Me(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s (%s)\n", displayName(principal), principal.Phone)
			return nil
		},
	}
}

func (a *app) resolveCommand() *command {
	return &command{
		Name:    "resolve",
		Summary: "Show the store a storefront host belongs to",
		Usage:   "storefront resolve <host>",
		Run: func(ctx context.Context, _ *pflag.FlagSet, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("resolve: %w: storefront resolve <host>", errUsage)
			}
			tenant, err := a.resolver.ResolveFromOrigin(ctx, args[0])
			if err != nil {
				return err
			}
			if tenant == nil {
				fmt.Fprintf(a.out, "%s is not a store host\n", args[0])
				return nil
			}
			printTenant(a, tenant)
			return nil
		},
	}
}

func (a *app) storesCommand() *command {
	var input tenants.Input
	var id string
	var name, brandColor, pixelID, pixelToken, notifyEmail string
	var cod, pixel, emailNotify bool

	return &command{
		Name:    "stores",
		Summary: "Manage your stores",
		Subcommands: []*command{
			{
				Name:    "list",
				Summary: "List the stores you own",
				Run: a.owner(func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
					list, err := a.resolver.LoadOwnerTenants(ctx)
					if err != nil {
						return err
					}
					if len(list) == 0 {
						fmt.Fprintln(a.out, "No stores yet")
						return nil
					}
					tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
					fmt.Fprintln(tw, "ID\tSLUG\tNAME\tCURRENCY\tCOD\tPIXEL")
					for _, t := range list {
						fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%t\n", t.ID, t.Slug, t.Name, t.Currency, t.EnableCOD, t.TracksPurchases())
					}
					return tw.Flush()
				}),
			},
			{
				Name:    "create",
				Summary: "Create a store",
				Flags: func(fs *pflag.FlagSet) {
					fs.StringVar(&input.Name, "name", "", "store name")
					fs.StringVar(&input.Slug, "slug", "", "subdomain slug (a-z, 0-9, -)")
					fs.StringVar(&input.BrandColor, "brand-color", "", "brand color as #RRGGBB")
					fs.StringVar(&input.Currency, "currency", "", "currency code")
					fs.StringVar(&input.DefaultLanguage, "language", "", "default language (bn or en)")
				},
				Run: a.owner(func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
					created, err := a.resolver.Create(ctx, input)
					if err != nil {
						return err
					}
					fmt.Fprintf(a.out, "Created store %s (%s)\n", created.Name, created.ID)
					return nil
				}),
			},
			{
				Name:    "update",
				Summary: "Change store settings",
				Flags: func(fs *pflag.FlagSet) {
					fs.StringVar(&id, "id", "", "store id")
					fs.StringVar(&name, "name", "", "store name")
					fs.StringVar(&brandColor, "brand-color", "", "brand color as #RRGGBB")
					fs.BoolVar(&cod, "cod", true, "offer cash on delivery")
					fs.BoolVar(&pixel, "pixel", false, "send purchase events to the Facebook pixel")
					fs.StringVar(&pixelID, "pixel-id", "", "Facebook pixel id")
					fs.StringVar(&pixelToken, "pixel-token", "", "Conversions API access token")
					fs.BoolVar(&emailNotify, "email-notifications", false, "email new orders")
					fs.StringVar(&notifyEmail, "notification-email", "", "address for order emails")
				},
				Run: a.owner(func(ctx context.Context, fs *pflag.FlagSet, _ []string) error {
					patch := tenants.Patch{
						Name:                changedString(fs, "name", name),
						BrandColor:          changedString(fs, "brand-color", brandColor),
						EnableCOD:           changedBool(fs, "cod", cod),
						EnableFacebookPixel: changedBool(fs, "pixel", pixel),
						FacebookPixelID:     changedString(fs, "pixel-id", pixelID),
						FacebookAccessToken: changedString(fs, "pixel-token", pixelToken),
						EmailNotifications:  changedBool(fs, "email-notifications", emailNotify),
						NotificationEmail:   changedString(fs, "notification-email", notifyEmail),
					}
					updated, err := a.resolver.Update(ctx, storemodel.ID(id), patch)
					if err != nil {
						return err
					}
					printTenant(a, updated)
					return nil
				}),
			},
		},
	}
}

func (a *app) productsCommand() *command {
	var store, title, slug, price, discount string
	var stock int
	var track, publish bool

	return &command{
		Name:    "products",
		Summary: "Manage store products",
		Subcommands: []*command{
			{
				Name:    "add",
				Summary: "Add a product to a store",
				Flags: func(fs *pflag.FlagSet) {
					fs.StringVar(&store, "store", "", "store slug")
					fs.StringVar(&title, "title", "", "product title")
					fs.StringVar(&slug, "slug", "", "product slug")
					fs.StringVar(&price, "price", "", "list price")
					fs.StringVar(&discount, "discount-price", "", "discounted price")
					fs.IntVar(&stock, "stock", 0, "units in stock")
					fs.BoolVar(&track, "track-inventory", true, "limit orders to the units in stock")
					fs.BoolVar(&publish, "publish", true, "show the product on the storefront")
				},
				Run: a.owner(func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
					listPrice, err := parseAmount("price", price)
					if err != nil {
						return err
					}
					product := catalog.Product{
						Title:          title,
						Slug:           slug,
						Price:          listPrice,
						StockQuantity:  stock,
						IsInStock:      !track || stock > 0,
						TrackInventory: track,
						IsPublished:    publish,
					}
					if discount != "" {
						d, err := parseAmount("discount-price", discount)
						if err != nil {
							return err
						}
						product.DiscountPrice = &d
					}
					created, err := a.client.CreateProduct(gateway.ContextWithTenant(ctx, store), product)
					if err != nil {
						return err
					}
					fmt.Fprintf(a.out, "Added %s (%s) at %s\n", created.Title, created.ID, created.UnitPrice().StringFixed(2))
					return nil
				}),
			},
		},
	}
}

func (a *app) shippingCommand() *command {
	var store, name, cost string
	var sortOrder int
	var active bool

	return &command{
		Name:    "shipping",
		Summary: "Manage store shipping options",
		Subcommands: []*command{
			{
				Name:    "add",
				Summary: "Add a shipping option to a store",
				Flags: func(fs *pflag.FlagSet) {
					fs.StringVar(&store, "store", "", "store slug")
					fs.StringVar(&name, "name", "", "option name")
					fs.StringVar(&cost, "cost", "0", "flat shipping cost")
					fs.IntVar(&sortOrder, "sort", 0, "position at checkout")
					fs.BoolVar(&active, "active", true, "offer the option at checkout")
				},
				Run: a.owner(func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
					amount, err := parseAmount("cost", cost)
					if err != nil {
						return err
					}
					created, err := a.client.CreateShippingOption(gateway.ContextWithTenant(ctx, store), catalog.ShippingOption{
						Name:      name,
						Cost:      amount,
						IsActive:  active,
						SortOrder: sortOrder,
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(a.out, "Added shipping %s (%s) at %s\n", created.Name, created.ID, created.Cost.StringFixed(2))
					return nil
				}),
			},
		},
	}
}

func (a *app) checkoutCommand() *command {
	var origin, product, shipping string
	var quantity int
	var customer orders.CustomerInfo

	return &command{
		Name:    "checkout",
		Summary: "Place a cash on delivery order on a storefront",
		Flags: func(fs *pflag.FlagSet) {
			fs.StringVar(&origin, "origin", a.cfg.GetStorefrontOrigin(), "storefront host, e.g. shop.platform.tld")
			fs.StringVar(&product, "product", "", "product slug")
			fs.IntVar(&quantity, "quantity", 1, "units to order")
			fs.StringVar(&shipping, "shipping", "", "shipping option id (default: first offered)")
			fs.StringVar(&customer.Name, "name", "", "customer name")
			fs.StringVar(&customer.Phone, "phone", "", "customer phone")
			fs.StringVar(&customer.Email, "email", "", "customer email")
			fs.StringVar(&customer.Address, "address", "", "delivery address")
			fs.StringVar(&customer.ShippingNotes, "shipping-notes", "", "delivery instructions")
			fs.StringVar(&customer.Notes, "notes", "", "order notes")
		},
		Run: func(ctx context.Context, _ *pflag.FlagSet, _ []string) error {
			tenant, err := a.resolver.ResolveFromOrigin(ctx, origin)
			if err != nil {
				return err
			}
			if tenant == nil {
				return fmt.Errorf("checkout: %w: --origin must be a store host", errUsage)
			}
			ctx = gateway.ContextWithTenant(ctx, tenant.Slug)

			item, err := a.client.ProductBySlug(ctx, product)
			if err != nil {
				return err
			}
			options, err := a.client.ShippingOptions(ctx, true)
			if err != nil {
				return err
			}
			if shipping == "" {
				if first := orders.DefaultShipping(options); first != nil {
					shipping = first.ID.String()
				}
			}
			if item.TrackInventory {
				quantity = orders.ClampQuantity(quantity, item.StockQuantity)
			}

			draft, err := a.composer.BuildSubmission(customer, item, quantity, shipping, options, tenant)
			if err != nil {
				return err
			}
			printTotals(a, draft)

			ref, err := a.composer.Submit(ctx, draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Order %s placed, total %s %s\n", ref.OrderNumber, ref.Total.StringFixed(2), tenant.Currency)
			return nil
		},
	}
}

// owner wraps a run func so that it only runs for an authenticated session.
func (a *app) owner(run func(ctx context.Context, fs *pflag.FlagSet, args []string) error) func(ctx context.Context, fs *pflag.FlagSet, args []string) error {
	return func(ctx context.Context, fs *pflag.FlagSet, args []string) error {
		if err := access.Require(a.store); err != nil {
			return err
		}
		return run(ctx, fs, args)
	}
}

func printTenant(a *app, t *tenants.Tenant) {
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", t.ID)
	fmt.Fprintf(tw, "Slug:\t%s\n", t.Slug)
	fmt.Fprintf(tw, "Name:\t%s\n", t.Name)
	fmt.Fprintf(tw, "Currency:\t%s\n", t.Currency)
	fmt.Fprintf(tw, "Language:\t%s\n", t.DefaultLanguage)
	fmt.Fprintf(tw, "Cash on delivery:\t%t\n", t.EnableCOD)
	fmt.Fprintf(tw, "Purchase tracking:\t%t\n", t.TracksPurchases())
	_ = tw.Flush()
}

func printTotals(a *app, d orders.Draft) {
	currency := ""
	if d.Tenant != nil {
		currency = " " + d.Tenant.Currency
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "%s x %d\t%s%s\t\n", d.Product.Title, d.Quantity, d.Totals.Subtotal.StringFixed(2), currency)
	fmt.Fprintf(tw, "Shipping\t%s%s\t\n", d.Totals.Shipping.StringFixed(2), currency)
	fmt.Fprintf(tw, "Total\t%s%s\t\n", d.Totals.Total.StringFixed(2), currency)
	_ = tw.Flush()
}

func displayName(p *users.Principal) string {
	if name := strings.TrimSpace(p.DisplayName); name != "" {
		return name
	}
	return p.Phone
}

func parseAmount(flag, v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil || d.IsNegative() {
		return decimal.Zero, fmt.Errorf("--%s: %w: %q is not an amount", flag, errUsage, v)
	}
	return d, nil
}

func changedString(fs *pflag.FlagSet, name, v string) *string {
	if !fs.Changed(name) {
		return nil
	}
	return utils.Ptr(v)
}

func changedBool(fs *pflag.FlagSet, name string, v bool) *bool {
	if !fs.Changed(name) {
		return nil
	}
	return utils.Ptr(v)
}
