package tenants

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jrsteele09/go-storefront/internal/utils"
	"github.com/jrsteele09/go-storefront/storemodel"
)

const (
	DefaultBrandColor = "#3B82F6"
	DefaultCurrency   = "BDT"
	DefaultLanguage   = "bn"
)

var (
	slugPattern       = regexp.MustCompile(`^[a-z0-9-]+$`)
	brandColorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

	ErrInvalidSlug       = errors.New("slug must contain only lowercase letters, digits and hyphens")
	ErrInvalidBrandColor = errors.New("brand color must be a #RRGGBB hex value")
	ErrInvalidLanguage   = errors.New("default language must be bn or en")
	ErrInvalidCurrency   = errors.New("currency must be at most 3 characters")
	ErrNameRequired      = errors.New("name is required")
)

// NotificationPrefs controls how a tenant is told about new orders.
type NotificationPrefs struct {
	EmailNotifications    bool   `json:"email_notifications"`
	WhatsAppNotifications bool   `json:"whatsapp_notifications"`
	NotificationEmail     string `json:"notification_email,omitempty"`
	NotificationWhatsApp  string `json:"notification_whatsapp,omitempty"`
}

// CommerceFlags are the tenant's checkout and tracking switches.
type CommerceFlags struct {
	EnableCOD           bool   `json:"enable_cod"`
	EnableFacebookPixel bool   `json:"enable_facebook_pixel"`
	FacebookPixelID     string `json:"facebook_pixel_id,omitempty"`
	FacebookAccessToken string `json:"-"` // Write-only, never returned
}

// TracksPurchases reports whether the tenant opted in to purchase analytics.
func (c CommerceFlags) TracksPurchases() bool {
	return c.EnableFacebookPixel && c.FacebookPixelID != ""
}

// Tenant is one merchant's store configuration. The slug is globally unique and
// is the only tenant attribute derived from a storefront's network origin.
type Tenant struct {
	ID              storemodel.ID `json:"id"`
	Slug            string        `json:"slug"`
	Name            string        `json:"name"`
	Logo            string        `json:"logo,omitempty"`
	BrandColor      string        `json:"brand_color"`
	Currency        string        `json:"currency"`
	DefaultLanguage string        `json:"default_language"`
	WhatsAppNumber  string        `json:"whatsapp_number,omitempty"`
	SupportPhone    string        `json:"support_phone,omitempty"`
	SupportEmail    string        `json:"support_email,omitempty"`
	OwnerID         storemodel.ID `json:"owner_id,omitempty"`
	NotificationPrefs
	CommerceFlags
}

// Clone returns a copy of the tenant that shares no state with t.
func (t *Tenant) Clone() *Tenant {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

// Input is the data needed to create a tenant.
type Input struct {
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	BrandColor      string `json:"brand_color,omitempty"`
	Currency        string `json:"currency,omitempty"`
	DefaultLanguage string `json:"default_language,omitempty"`
}

// Normalize lower-cases the slug and fills in defaults for unset fields.
func (in Input) Normalize() Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	if in.BrandColor == "" {
		in.BrandColor = DefaultBrandColor
	}
	if in.Currency == "" {
		in.Currency = DefaultCurrency
	}
	if in.DefaultLanguage == "" {
		in.DefaultLanguage = DefaultLanguage
	}
	return in
}

// Validate checks a normalized Input.
func (in Input) Validate() error {
	if in.Name == "" || len(in.Name) > 255 {
		return ErrNameRequired
	}
	if len(in.Slug) > 100 || !slugPattern.MatchString(in.Slug) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, in.Slug)
	}
	if !brandColorPattern.MatchString(in.BrandColor) {
		return ErrInvalidBrandColor
	}
	if len(in.Currency) > 3 {
		return ErrInvalidCurrency
	}
	if in.DefaultLanguage != "bn" && in.DefaultLanguage != "en" {
		return ErrInvalidLanguage
	}
	return nil
}

// Patch is a partial tenant settings update. Nil fields are left unchanged.
type Patch struct {
	Name                  *string `json:"name,omitempty"`
	Logo                  *string `json:"logo,omitempty"`
	BrandColor            *string `json:"brand_color,omitempty"`
	Currency              *string `json:"currency,omitempty"`
	DefaultLanguage       *string `json:"default_language,omitempty"`
	WhatsAppNumber        *string `json:"whatsapp_number,omitempty"`
	SupportPhone          *string `json:"support_phone,omitempty"`
	SupportEmail          *string `json:"support_email,omitempty"`
	EnableCOD             *bool   `json:"enable_cod,omitempty"`
	EnableFacebookPixel   *bool   `json:"enable_facebook_pixel,omitempty"`
	FacebookPixelID       *string `json:"facebook_pixel_id,omitempty"`
	FacebookAccessToken   *string `json:"facebook_access_token,omitempty"` // Write-only
	EmailNotifications    *bool   `json:"email_notifications,omitempty"`
	WhatsAppNotifications *bool   `json:"whatsapp_notifications,omitempty"`
	NotificationEmail     *string `json:"notification_email,omitempty"`
	NotificationWhatsApp  *string `json:"notification_whatsapp,omitempty"`
}

// Validate checks the fields of the patch that have format rules.
func (p Patch) Validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return ErrNameRequired
	}
	if p.BrandColor != nil && !brandColorPattern.MatchString(*p.BrandColor) {
		return ErrInvalidBrandColor
	}
	if p.Currency != nil && len(*p.Currency) > 3 {
		return ErrInvalidCurrency
	}
	if p.DefaultLanguage != nil && *p.DefaultLanguage != "bn" && *p.DefaultLanguage != "en" {
		return ErrInvalidLanguage
	}
	return nil
}

// Apply copies the set fields of the patch onto t.
func (p Patch) Apply(t *Tenant) {
	utils.Assign(&t.Name, p.Name)
	utils.Assign(&t.Logo, p.Logo)
	utils.Assign(&t.BrandColor, p.BrandColor)
	utils.Assign(&t.Currency, p.Currency)
	utils.Assign(&t.DefaultLanguage, p.DefaultLanguage)
	utils.Assign(&t.WhatsAppNumber, p.WhatsAppNumber)
	utils.Assign(&t.SupportPhone, p.SupportPhone)
	utils.Assign(&t.SupportEmail, p.SupportEmail)
	utils.Assign(&t.EnableCOD, p.EnableCOD)
	utils.Assign(&t.EnableFacebookPixel, p.EnableFacebookPixel)
	utils.Assign(&t.FacebookPixelID, p.FacebookPixelID)
	utils.Assign(&t.FacebookAccessToken, p.FacebookAccessToken)
	utils.Assign(&t.EmailNotifications, p.EmailNotifications)
	utils.Assign(&t.WhatsAppNotifications, p.WhatsAppNotifications)
	utils.Assign(&t.NotificationEmail, p.NotificationEmail)
	utils.Assign(&t.NotificationWhatsApp, p.NotificationWhatsApp)
}
