package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/jrsteele09/go-storefront/catalog"
	"github.com/jrsteele09/go-storefront/storemodel"
)

func (s *Server) ProductHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := tenantFromContext(r.Context())
		product, err := s.repos.Products.Get(tenant.ID, storemodel.ID(r.PathValue("id")))
		s.writeProduct(w, r, product, err)
	}
}

func (s *Server) ProductBySlugHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant := tenantFromContext(r.Context())
		product, err := s.repos.Products.GetBySlug(tenant.ID, r.PathValue("slug"))
		s.writeProduct(w, r, product, err)
	}
}

// writeProduct hides unpublished products from everyone but the owner.
func (s *Server) writeProduct(w http.ResponseWriter, r *http.Request, product *catalog.Product, err error) {
	if err != nil {
		writeJSONError(w, http.StatusNotFound, "", "Product not found")
		return
	}
	if !product.IsPublished && checkOwner(userFromContext(r.Context()), tenantFromContext(r.Context())) != nil {
		writeJSONError(w, http.StatusNotFound, "", "Product not found")
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (s *Server) CreateProductHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var product catalog.Product
		if !decodeJSON(w, r, &product) {
			return
		}
		product.ID = ""
		product.TenantID = tenantFromContext(r.Context()).ID
		product.Title = strings.TrimSpace(product.Title)

		fields := map[string]string{}
		if product.Title == "" {
			fields["title"] = "title is required"
		}
		if product.Price.IsNegative() {
			fields["price"] = "price must not be negative"
		}
		if product.DiscountPrice != nil && (product.DiscountPrice.IsNegative() || product.DiscountPrice.GreaterThan(product.Price)) {
			fields["discount_price"] = "discount price must be between 0 and price"
		}
		if product.StockQuantity < 0 {
			fields["stock_quantity"] = "stock quantity must not be negative"
		}
		if len(fields) > 0 {
			writeFieldErrors(w, fields)
			return
		}
		if product.TrackInventory {
			product.IsInStock = product.StockQuantity > 0
		}
		if product.Slug == "" {
			product.Slug = catalog.SlugFromTitle(product.Title)
		}
		if product.Slug != "" {
			if _, err := s.repos.Products.GetBySlug(product.TenantID, product.Slug); err == nil {
				writeJSONError(w, http.StatusBadRequest, "", "Product slug already exists")
				return
			}
		}

		if err := s.repos.Products.Upsert(&product); err != nil {
			s.logger.Error().Err(err).Msg("create product failed")
			writeJSONError(w, http.StatusInternalServerError, "", "Internal server error")
			return
		}
		writeJSON(w, http.StatusCreated, product)
	}
}

func (s *Server) ShippingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active_only"))
		options, err := s.repos.Shipping.List(tenantFromContext(r.Context()).ID, activeOnly)
		if err != nil {
			s.logger.Error().Err(err).Msg("list shipping failed")
			writeJSONError(w, http.StatusInternalServerError, "", "Internal server error")
			return
		}
		catalog.SortShipping(options)
		writeJSON(w, http.StatusOK, options)
	}
}

func (s *Server) CreateShippingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var option catalog.ShippingOption
		if !decodeJSON(w, r, &option) {
			return
		}
		option.ID = ""
		option.TenantID = tenantFromContext(r.Context()).ID
		option.Name = strings.TrimSpace(option.Name)

		fields := map[string]string{}
		if option.Name == "" {
			fields["name"] = "name is required"
		}
		if option.Cost.IsNegative() {
			fields["cost"] = "cost must not be negative"
		}
		if len(fields) > 0 {
			writeFieldErrors(w, fields)
			return
		}

		if err := s.repos.Shipping.Upsert(&option); err != nil {
			s.logger.Error().Err(err).Msg("create shipping option failed")
			writeJSONError(w, http.StatusInternalServerError, "", "Internal server error")
			return
		}
		writeJSON(w, http.StatusCreated, option)
	}
}
