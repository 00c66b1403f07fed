// Package server is the development backend: an in-memory implementation of
// the storefront HTTP API used for local runs and end-to-end tests.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-storefront/analytics"
	"github.com/jrsteele09/go-storefront/auth"
	fakecoderepo "github.com/jrsteele09/go-storefront/auth/repofakes"
	"github.com/jrsteele09/go-storefront/catalog"
	catalogrepofakes "github.com/jrsteele09/go-storefront/catalog/repofakes"
	"github.com/jrsteele09/go-storefront/internal/config"
	"github.com/jrsteele09/go-storefront/orders"
	orderrepofakes "github.com/jrsteele09/go-storefront/orders/repofakes"
	"github.com/jrsteele09/go-storefront/tenants"
	tenantrepofakes "github.com/jrsteele09/go-storefront/tenants/repofakes"
	"github.com/jrsteele09/go-storefront/token"
	"github.com/jrsteele09/go-storefront/users"
	fakeuserrepo "github.com/jrsteele09/go-storefront/users/repofake"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Repos holds the storage the backend serves from.
type Repos struct {
	Users    users.UserRepo
	Codes    auth.CodeRepo
	Tenants  tenants.Repo
	Products catalog.ProductRepo
	Shipping catalog.ShippingRepo
	Orders   orders.Repo
}

// InMemoryRepos returns empty in-memory repositories.
func InMemoryRepos() Repos {
	return Repos{
		Users:    fakeuserrepo.NewFakeUserRepo(),
		Codes:    fakecoderepo.NewFakeCodeRepo(),
		Tenants:  tenantrepofakes.NewFakeTenantRepo(),
		Products: catalogrepofakes.NewFakeProductRepo(),
		Shipping: catalogrepofakes.NewFakeShippingRepo(),
		Orders:   orderrepofakes.NewFakeOrderRepo(),
	}
}

func (r Repos) validate() error {
	switch {
	case r.Users == nil:
		return errors.New("Users repo is required")
	case r.Codes == nil:
		return errors.New("Codes repo is required")
	case r.Tenants == nil:
		return errors.New("Tenants repo is required")
	case r.Products == nil:
		return errors.New("Products repo is required")
	case r.Shipping == nil:
		return errors.New("Shipping repo is required")
	case r.Orders == nil:
		return errors.New("Orders repo is required")
	}
	return nil
}

type Server struct {
	env      string // Environment (e.g., "DEV", "PROD")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	logger   zerolog.Logger
	repos    Repos
	otp      *auth.OTPService
	nowTime  func() time.Time
	registry *prometheus.Registry
	metrics  *requestMetrics

	pixelOptions []analytics.PixelOption

	// Serialises stock checks with stock decrements.
	orderLock sync.Mutex
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithNowTime sets the clock used for order timestamps and codes.
func WithNowTime(now func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = now
	}
}

// WithRegistry sets the registry request metrics are registered with and
// served from.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.registry = registry
	}
}

// WithPixelOptions configures the Conversions API sink used for server side
// purchase events.
func WithPixelOptions(options ...analytics.PixelOption) Option {
	return func(s *Server) {
		s.pixelOptions = append(s.pixelOptions, options...)
	}
}

func New(cfg config.Config, repos Repos, options ...Option) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[Server New] config is required")
	}
	if err := repos.validate(); err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}

	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		logger:  zerolog.Nop(),
		repos:   repos,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	if s.registry == nil {
		s.registry = prometheus.NewRegistry()
	}

	metrics, err := newRequestMetrics(s.registry)
	if err != nil {
		return nil, fmt.Errorf("[Server New] metrics: %w", err)
	}
	s.metrics = metrics

	signer, err := token.NewHMACSigner(cfg.GetTokenSecret())
	if err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}
	tokens, err := token.NewManager(signer, token.WithTokenExpiry(cfg.GetTokenExpiry()), token.WithNowFunc(s.now))
	if err != nil {
		return nil, fmt.Errorf("[Server New] %w", err)
	}
	s.otp, err = auth.NewOTPService(
		auth.Repos{Users: repos.Users, Codes: repos.Codes},
		tokens,
		auth.WithCodeTTL(cfg.GetOTPTTL()),
		auth.WithRatePerMinute(cfg.GetOTPRatePerMinute()),
		auth.WithNowTime(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create otp service: %w", err)
	}

	if cfg.GetSeedDemoData() {
		if err := s.SeedDemoData(); err != nil {
			return nil, fmt.Errorf("[Server New] Failed to seed demo data: %w", err)
		}
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) isDev() bool {
	return s.env == config.EnvDev
}

func (s *Server) now() time.Time {
	return s.nowTime()
}

func (s *Server) logRoutes() {
	if !s.isDev() {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			s.logRoute(parts[0], parts[1])
		} else {
			s.logRoute("", parts[0])
		}
	}
}

func (s *Server) logRoute(method, path string) {
	s.logger.Debug().Msgf("[%-19s] %s", colourMethod(method), path)
}
