package orders

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-storefront/storemodel"
	"github.com/shopspring/decimal"
)

// PaymentCOD is cash on delivery, the only payment method offered.
const PaymentCOD = "cod"

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// Item is one line of an order request.
type Item struct {
	ProductID storemodel.ID `json:"product_id"`
	Quantity  int           `json:"quantity"`
}

// CreateRequest is the body of POST /orders.
type CreateRequest struct {
	CustomerName    string         `json:"customer_name"`
	CustomerPhone   string         `json:"customer_phone"`
	CustomerEmail   string         `json:"customer_email,omitempty"`
	CustomerAddress string         `json:"customer_address"`
	Items           []Item         `json:"items"`
	ShippingClassID *storemodel.ID `json:"shipping_class_id,omitempty"`
	ShippingNotes   string         `json:"shipping_notes,omitempty"`
	PaymentMethod   string         `json:"payment_method"`
	Notes           string         `json:"notes,omitempty"`
	FBPixelID       string         `json:"fb_pixel_id,omitempty"`
	FBEventID       string         `json:"fb_event_id,omitempty"`
}

// Reference identifies a created order.
type Reference struct {
	ID          storemodel.ID   `json:"id"`
	OrderNumber string          `json:"order_number"`
	Total       decimal.Decimal `json:"total"`
}

// LineItem is a stored order line with the product snapshot it was sold at.
type LineItem struct {
	ID           storemodel.ID   `json:"id"`
	ProductID    storemodel.ID   `json:"product_id"`
	ProductTitle string          `json:"product_title"`
	ProductPrice decimal.Decimal `json:"product_price"`
	Quantity     int             `json:"quantity"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// Order is the backend's record of a placed order.
type Order struct {
	ID              storemodel.ID   `json:"id"`
	TenantID        storemodel.ID   `json:"-"`
	OrderNumber     string          `json:"order_number"`
	CustomerName    string          `json:"customer_name"`
	CustomerPhone   string          `json:"customer_phone"`
	CustomerEmail   string          `json:"customer_email,omitempty"`
	CustomerAddress string          `json:"customer_address"`
	Status          Status          `json:"status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	ShippingCost    decimal.Decimal `json:"shipping_cost"`
	Total           decimal.Decimal `json:"total"`
	ShippingClassID *storemodel.ID  `json:"shipping_class_id,omitempty"`
	PaymentMethod   string          `json:"payment_method"`
	PaymentStatus   string          `json:"payment_status"`
	FBPixelID       string          `json:"fb_pixel_id,omitempty"`
	FBEventID       string          `json:"fb_event_id,omitempty"`
	Items           []LineItem      `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
}

// Reference returns the client-facing reference of the order.
func (o *Order) Reference() *Reference {
	return &Reference{ID: o.ID, OrderNumber: o.OrderNumber, Total: o.Total}
}

// NewOrderNumber returns a human readable order number such as ORD-1A2B3C4D.
func NewOrderNumber() string {
	id := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "ORD-" + strings.ToUpper(id[:8])
}
