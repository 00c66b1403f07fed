package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/go-redis/redis/v8"
	"github.com/jrsteele09/go-storefront/analytics"
	"github.com/jrsteele09/go-storefront/gateway"
	"github.com/jrsteele09/go-storefront/internal/config"
	"github.com/jrsteele09/go-storefront/orders"
	"github.com/jrsteele09/go-storefront/sessions"
	"github.com/jrsteele09/go-storefront/sessions/filerepo"
	"github.com/jrsteele09/go-storefront/sessions/redisrepo"
	"github.com/jrsteele09/go-storefront/tenants"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// app holds the client core shared by every command of one invocation.
type app struct {
	cfg    config.Config
	logger zerolog.Logger
	out    io.Writer

	registry *prometheus.Registry
	client   *gateway.Client
	store    *sessions.Store
	resolver *tenants.Resolver
	composer *orders.Composer
	closers  []func() error
}

// newApp wires the gateway, session store, tenant resolver and order composer.
// The persisted session is restored before it returns.
func newApp(ctx context.Context, cfg config.Config, logger zerolog.Logger, out io.Writer) (*app, error) {
	a := &app{
		cfg:      cfg,
		logger:   logger,
		out:      out,
		registry: prometheus.NewRegistry(),
	}

	metrics, err := gateway.NewMetrics(a.registry)
	if err != nil {
		return nil, fmt.Errorf("[newApp] %w", err)
	}
	a.client, err = gateway.NewClient(
		gateway.Config{BaseURL: cfg.GetAPIBaseURL(), Timeout: cfg.GetRequestTimeout()},
		gateway.WithLogger(logger),
		gateway.WithMetrics(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("[newApp] %w", err)
	}

	repo, err := a.sessionRepo()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("[newApp] %w", err)
	}
	a.store, err = sessions.NewStore(a.client, repo, sessions.WithLogger(logger))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("[newApp] %w", err)
	}
	a.client.SetCredentials(a.store)
	a.store.Bootstrap(ctx)

	a.resolver, err = tenants.NewResolver(a.client, tenants.WithLogger(logger))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("[newApp] %w", err)
	}
	a.composer, err = orders.NewComposer(a.client,
		orders.WithLogger(logger),
		orders.WithSink(analytics.NewLogSink(logger)),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("[newApp] %w", err)
	}

	if origin := cfg.GetStorefrontOrigin(); origin != "" {
		if slug, ok := tenants.SlugFromHost(origin); ok {
			a.client.SetTenantSlug(slug)
		}
	}
	return a, nil
}

func (a *app) sessionRepo() (sessions.Repo, error) {
	switch a.cfg.GetSessionStore() {
	case config.SessionStoreRedis:
		rdb := redis.NewClient(&redis.Options{Addr: a.cfg.GetRedisAddr()})
		a.closers = append(a.closers, rdb.Close)
		return redisrepo.New(rdb, a.cfg.GetSessionKey())
	case config.SessionStoreMemory:
		return sessions.NewMemoryRepo(), nil
	default:
		return filerepo.New(a.cfg.GetSessionFile())
	}
}

// Close releases connections opened by newApp.
func (a *app) Close() {
	for _, closer := range a.closers {
		if err := closer(); err != nil {
			a.logger.Warn().Err(err).Msg("close failed")
		}
	}
	a.closers = nil
}

// requestCount sums the gateway request counter, for the debug summary.
func (a *app) requestCount() int {
	families, err := a.registry.Gather()
	if err != nil {
		return 0
	}
	total := 0
	for _, mf := range families {
		if mf.GetName() != "storefront_gateway_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += int(m.GetCounter().GetValue())
		}
	}
	return total
}

var errUsage = errors.New("usage")
