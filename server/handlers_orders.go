package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-storefront/analytics"
	"github.com/jrsteele09/go-storefront/apierr"
	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/jrsteele09/go-storefront/orders"
	"github.com/jrsteele09/go-storefront/storemodel"
	"github.com/jrsteele09/go-storefront/tenants"
	"github.com/jrsteele09/go-storefront/users"
	"github.com/shopspring/decimal"
)

const pixelTimeout = 10 * time.Second

// orderError is a rejection written as {"detail", "code"}.
type orderError struct {
	status int
	code   string
	detail string
}

func (e *orderError) Error() string { return e.detail }

func (s *Server) CreateOrderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := tenantFromContext(r.Context())
		var req orders.CreateRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if fields := validateOrderRequest(&req); len(fields) > 0 {
			writeFieldErrors(w, fields)
			return
		}
		if req.PaymentMethod != orders.PaymentCOD {
			writeJSONError(w, http.StatusBadRequest, "", "Unsupported payment method")
			return
		}
		if !tenant.EnableCOD {
			writeJSONError(w, http.StatusBadRequest, "", "Cash on delivery is not available for this store")
			return
		}

		order, created, err := s.placeOrder(tenant, req)
		if err != nil {
			var oe *orderError
			if errors.As(err, &oe) {
				writeJSONError(w, oe.status, oe.code, oe.detail)
				return
			}
			s.logger.Error().Err(err).Str("tenant", tenant.ID.String()).Msg("create order failed")
			writeJSONError(w, http.StatusInternalServerError, "", "Internal server error")
			return
		}
		if !created {
			s.logger.Info().Str("order", order.OrderNumber).Str("event_id", req.FBEventID).Msg("duplicate order submission")
			writeJSON(w, http.StatusOK, order)
			return
		}

		s.logger.Info().
			Str("tenant", tenant.ID.String()).
			Str("order", order.OrderNumber).
			Str("total", order.Total.String()).
			Msg("order created")
		s.notifyOwner(tenant, order)
		s.emitPurchase(r.Context(), tenant, order)
		writeJSON(w, http.StatusCreated, order)
	}
}

func (s *Server) GetOrderHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		order, err := s.repos.Orders.Get(tenantFromContext(r.Context()).ID, storemodel.ID(r.PathValue("id")))
		if err != nil {
			writeJSONError(w, http.StatusNotFound, "", "Order not found")
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

// validateOrderRequest normalises req in place and returns per-field errors.
func validateOrderRequest(req *orders.CreateRequest) map[string]string {
	fields := map[string]string{}
	req.CustomerName = strings.TrimSpace(req.CustomerName)
	req.CustomerAddress = strings.TrimSpace(req.CustomerAddress)
	req.CustomerEmail = strings.TrimSpace(req.CustomerEmail)
	if req.PaymentMethod == "" {
		req.PaymentMethod = orders.PaymentCOD
	}

	if req.CustomerName == "" {
		fields["customer_name"] = "customer name is required"
	}
	if phone, err := users.NormalizePhone(req.CustomerPhone); err != nil {
		fields["customer_phone"] = err.Error()
	} else {
		req.CustomerPhone = phone
	}
	if req.CustomerAddress == "" {
		fields["customer_address"] = "customer address is required"
	}
	if len(req.Items) == 0 {
		fields["items"] = "at least one item is required"
	}
	for _, item := range req.Items {
		if item.ProductID.IsZero() || item.Quantity < 1 {
			fields["items"] = "each item needs a product and a quantity of at least 1"
			break
		}
	}
	return fields
}

// placeOrder prices the request against current stock and stores the order. A
// request whose fb_event_id was already used returns the existing order with
// created false.
func (s *Server) placeOrder(tenant *tenants.Tenant, req orders.CreateRequest) (*orders.Order, bool, error) {
	s.orderLock.Lock()
	defer s.orderLock.Unlock()

	if req.FBEventID != "" {
		if existing, err := s.repos.Orders.GetByEventID(tenant.ID, req.FBEventID); err == nil {
			return existing, false, nil
		}
	}

	// Lines naming the same product are checked and decremented as one.
	quantities := make(map[storemodel.ID]int, len(req.Items))
	productIDs := make([]storemodel.ID, 0, len(req.Items))
	for _, item := range req.Items {
		if _, ok := quantities[item.ProductID]; !ok {
			productIDs = append(productIDs, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}

	products := make([]*catalog.Product, 0, len(productIDs))
	lines := make([]orders.LineItem, 0, len(productIDs))
	subtotal := decimal.Zero
	for _, id := range productIDs {
		quantity := quantities[id]
		product, err := s.repos.Products.Get(tenant.ID, id)
		if err != nil || !product.IsPublished {
			return nil, false, &orderError{status: http.StatusNotFound, detail: fmt.Sprintf("Product %s not found", id)}
		}
		if !product.Available(quantity) {
			return nil, false, &orderError{
				status: http.StatusConflict,
				code:   apierr.CodeOutOfStock,
				detail: fmt.Sprintf("Insufficient stock for %s", product.Title),
			}
		}
		line := orders.ComputeTotals(product, quantity, nil)
		lines = append(lines, orders.LineItem{
			ProductID:    product.ID,
			ProductTitle: product.Title,
			ProductPrice: line.UnitPrice,
			Quantity:     quantity,
			Subtotal:     line.Subtotal,
		})
		subtotal = subtotal.Add(line.Subtotal)
		products = append(products, product)
	}

	shippingCost := decimal.Zero
	if req.ShippingClassID != nil && !req.ShippingClassID.IsZero() {
		option, err := s.repos.Shipping.Get(tenant.ID, *req.ShippingClassID)
		if err != nil || !option.IsActive {
			return nil, false, &orderError{status: http.StatusBadRequest, detail: "Invalid shipping option"}
		}
		shippingCost = option.Cost
	}

	for _, product := range products {
		if !product.TrackInventory {
			continue
		}
		product.StockQuantity -= quantities[product.ID]
		if product.StockQuantity <= 0 {
			product.StockQuantity = 0
			product.IsInStock = false
		}
		if err := s.repos.Products.Upsert(product); err != nil {
			return nil, false, fmt.Errorf("[placeOrder] update stock: %w", err)
		}
	}

	order := &orders.Order{
		TenantID:        tenant.ID,
		OrderNumber:     orders.NewOrderNumber(),
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		CustomerAddress: req.CustomerAddress,
		Status:          orders.StatusPending,
		Subtotal:        subtotal,
		ShippingCost:    shippingCost,
		Total:           subtotal.Add(shippingCost),
		ShippingClassID: req.ShippingClassID,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   "pending",
		FBPixelID:       req.FBPixelID,
		FBEventID:       req.FBEventID,
		Items:           lines,
		CreatedAt:       s.now(),
	}
	if err := s.repos.Orders.Create(order); err != nil {
		return nil, false, fmt.Errorf("[placeOrder] %w", err)
	}
	return order, true, nil
}

// notifyOwner records the new-order notifications the tenant asked for. The
// development backend has no mail or WhatsApp gateway, so delivery is logged.
func (s *Server) notifyOwner(tenant *tenants.Tenant, order *orders.Order) {
	targets := map[string]string{}
	if tenant.EmailNotifications && tenant.NotificationEmail != "" {
		targets["email"] = tenant.NotificationEmail
	}
	if tenant.WhatsAppNotifications && tenant.NotificationWhatsApp != "" {
		targets["whatsapp"] = tenant.NotificationWhatsApp
	}
	for _, channel := range []string{"email", "whatsapp"} {
		to, ok := targets[channel]
		if !ok {
			continue
		}
		s.logger.Info().
			Str("channel", channel).
			Str("to", to).
			Str("tenant", tenant.ID.String()).
			Str("order", order.OrderNumber).
			Str("total", order.Total.StringFixed(2)).
			Msg("order notification")
	}
}

// emitPurchase sends the server side Purchase event for tenants with a pixel
// and an access token. Delivery failures are logged.
func (s *Server) emitPurchase(ctx context.Context, tenant *tenants.Tenant, order *orders.Order) {
	if !tenant.TracksPurchases() || tenant.FacebookAccessToken == "" || order.FBEventID == "" || len(order.Items) == 0 {
		return
	}
	sink, err := analytics.NewPixelSink(analytics.PixelConfig{
		BaseURL:     s.config.GetPixelBaseURL(),
		APIVersion:  s.config.GetPixelAPIVersion(),
		AccessToken: tenant.FacebookAccessToken,
		Timeout:     pixelTimeout,
	}, s.pixelOptions...)
	if err != nil {
		s.logger.Warn().Err(err).Msg("pixel sink unavailable")
		return
	}

	numItems := 0
	for _, item := range order.Items {
		numItems += item.Quantity
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pixelTimeout)
	defer cancel()
	err = sink.Emit(ctx, analytics.Event{
		Name:          analytics.EventPurchase,
		CorrelationID: order.FBEventID,
		Value:         order.Total,
		Currency:      tenant.Currency,
		ProductID:     order.Items[0].ProductID,
		NumItems:      numItems,
		PixelID:       tenant.FacebookPixelID,
		CustomerPhone: order.CustomerPhone,
		CustomerEmail: order.CustomerEmail,
		Time:          order.CreatedAt,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("order", order.OrderNumber).Msg("purchase event delivery failed")
	}
}
