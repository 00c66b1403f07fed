// Package orders prices a checkout, builds the order request and submits it,
// emitting one purchase event per placed order.
package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-storefront/analytics"
	"github.com/jrsteele09/go-storefront/apierr"
	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/jrsteele09/go-storefront/tenants"
	"github.com/jrsteele09/go-storefront/users"
	"github.com/rs/zerolog"
)

// Backend is the part of the HTTP contract the composer depends on.
type Backend interface {
	CreateOrder(ctx context.Context, req CreateRequest) (*Reference, error)
}

// CustomerInfo is what the shopper enters at checkout.
type CustomerInfo struct {
	Name          string
	Phone         string
	Email         string
	Address       string
	ShippingNotes string
	Notes         string
}

// Draft is a priced, not yet submitted order. It is never persisted. Retrying a
// failed submission with the same draft reuses its CorrelationID.
type Draft struct {
	Customer      CustomerInfo
	Product       *catalog.Product
	Quantity      int
	Shipping      *catalog.ShippingOption
	Tenant        *tenants.Tenant
	Totals        Totals
	CorrelationID string
}

// Request returns the POST /orders body for the draft.
func (d Draft) Request() CreateRequest {
	req := CreateRequest{
		CustomerName:    strings.TrimSpace(d.Customer.Name),
		CustomerPhone:   strings.TrimSpace(d.Customer.Phone),
		CustomerEmail:   strings.TrimSpace(d.Customer.Email),
		CustomerAddress: strings.TrimSpace(d.Customer.Address),
		ShippingNotes:   d.Customer.ShippingNotes,
		Notes:           d.Customer.Notes,
		PaymentMethod:   PaymentCOD,
		FBEventID:       d.CorrelationID,
	}
	if d.Product != nil {
		req.Items = []Item{{ProductID: d.Product.ID, Quantity: d.Quantity}}
	}
	if d.Shipping != nil {
		id := d.Shipping.ID
		req.ShippingClassID = &id
	}
	if d.Tenant != nil && d.Tenant.TracksPurchases() {
		req.FBPixelID = d.Tenant.FacebookPixelID
	}
	return req
}

// Composer submits drafts and emits purchase events.
type Composer struct {
	backend       Backend
	sink          analytics.Sink
	logger        zerolog.Logger
	correlationID func() string
}

// ComposerOption configures a Composer.
type ComposerOption func(*Composer)

// WithLogger sets the logger used for analytics delivery failures.
func WithLogger(logger zerolog.Logger) ComposerOption {
	return func(c *Composer) {
		c.logger = logger
	}
}

// WithSink sets where purchase events go. Events are deduplicated by
// correlation id before reaching sink.
func WithSink(sink analytics.Sink) ComposerOption {
	return func(c *Composer) {
		c.sink = sink
	}
}

// WithCorrelationIDs replaces the correlation id generator.
func WithCorrelationIDs(gen func() string) ComposerOption {
	return func(c *Composer) {
		c.correlationID = gen
	}
}

func NewComposer(backend Backend, options ...ComposerOption) (*Composer, error) {
	if backend == nil {
		return nil, errors.New("[NewComposer] backend is required")
	}
	c := &Composer{
		backend:       backend,
		logger:        zerolog.Nop(),
		correlationID: func() string { return uuid.New().String() },
	}
	for _, opt := range options {
		opt(c)
	}
	if c.sink == nil {
		c.sink = analytics.NewLogSink(c.logger)
	}
	if _, ok := c.sink.(*analytics.Deduper); !ok {
		deduper, err := analytics.NewDeduper(c.sink)
		if err != nil {
			return nil, fmt.Errorf("[NewComposer] %w", err)
		}
		c.sink = deduper
	}
	return c, nil
}

// BuildSubmission prices the checkout and assigns a fresh correlation id.
// shippingOptionID may be empty; an id that is not among options is a
// validation error.
func (c *Composer) BuildSubmission(customer CustomerInfo, product *catalog.Product, quantity int, shippingOptionID string, options []*catalog.ShippingOption, tenant *tenants.Tenant) (Draft, error) {
	if product == nil {
		return Draft{}, apierr.New(apierr.ErrValidation, "product is required")
	}
	var shipping *catalog.ShippingOption
	if shippingOptionID != "" {
		shipping = FindShipping(options, shippingOptionID)
		if shipping == nil || !shipping.IsActive {
			return Draft{}, &apierr.Error{
				Kind:    apierr.ErrValidation,
				Message: "unknown shipping option",
				Fields:  map[string]string{"shipping_class_id": "not an active option"},
			}
		}
	}
	return Draft{
		Customer:      customer,
		Product:       product.Clone(),
		Quantity:      quantity,
		Shipping:      shipping,
		Tenant:        tenant.Clone(),
		Totals:        ComputeTotals(product, quantity, shipping),
		CorrelationID: c.correlationID(),
	}, nil
}

// Submit places the order. On success a Purchase event is emitted once for the
// draft's correlation id if the tenant tracks purchases; delivery failures are
// logged. On failure nothing is emitted. Submit never retries.
func (c *Composer) Submit(ctx context.Context, draft Draft) (*Reference, error) {
	if err := validateDraft(draft); err != nil {
		return nil, err
	}
	if !draft.Product.Available(draft.Quantity) {
		return nil, &apierr.Error{
			Kind:    apierr.ErrOutOfStock,
			Message: fmt.Sprintf("%s is out of stock", draft.Product.Title),
			Code:    apierr.CodeOutOfStock,
		}
	}

	ref, err := c.backend.CreateOrder(ctx, draft.Request())
	if err != nil {
		return nil, fmt.Errorf("[Submit] %w", err)
	}

	if draft.Tenant != nil && draft.Tenant.TracksPurchases() {
		c.emitPurchase(ctx, draft, ref)
	}
	return ref, nil
}

func (c *Composer) emitPurchase(ctx context.Context, draft Draft, ref *Reference) {
	value := draft.Totals.Total
	if ref != nil && ref.Total.IsPositive() {
		value = ref.Total
	}
	event := analytics.Event{
		Name:          analytics.EventPurchase,
		CorrelationID: draft.CorrelationID,
		Value:         value,
		Currency:      draft.Tenant.Currency,
		ProductID:     draft.Product.ID,
		NumItems:      draft.Quantity,
		PixelID:       draft.Tenant.FacebookPixelID,
		CustomerPhone: draft.Customer.Phone,
		CustomerEmail: draft.Customer.Email,
	}
	if err := c.sink.Emit(ctx, event); err != nil {
		c.logger.Warn().Err(err).Str("correlation_id", draft.CorrelationID).Msg("purchase event not delivered")
	}
}

func validateDraft(draft Draft) error {
	fields := make(map[string]string)
	if strings.TrimSpace(draft.Customer.Name) == "" {
		fields["customer_name"] = "name is required"
	}
	if _, err := users.NormalizePhone(draft.Customer.Phone); err != nil {
		fields["customer_phone"] = err.Error()
	}
	if strings.TrimSpace(draft.Customer.Address) == "" {
		fields["customer_address"] = "address is required"
	}
	if draft.Product == nil {
		fields["items"] = "product is required"
	}
	if draft.Quantity < 1 {
		fields["quantity"] = "quantity must be at least 1"
	}
	if draft.CorrelationID == "" {
		fields["fb_event_id"] = "correlation id is required"
	}
	if len(fields) > 0 {
		return &apierr.Error{Kind: apierr.ErrValidation, Message: "invalid order", Fields: fields}
	}
	return nil
}
