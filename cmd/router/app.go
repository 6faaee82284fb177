package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angeloszaimis/request-router/config"
	"github.com/angeloszaimis/request-router/internal/backend"
	"github.com/angeloszaimis/request-router/internal/dispatcher"
	"github.com/angeloszaimis/request-router/internal/handler"
	"github.com/angeloszaimis/request-router/internal/healthcache"
	"github.com/angeloszaimis/request-router/internal/healthcheck"
	"github.com/angeloszaimis/request-router/internal/httpserver"
	"github.com/angeloszaimis/request-router/internal/loadbalancer"
	"github.com/angeloszaimis/request-router/internal/metrics"
	"github.com/angeloszaimis/request-router/internal/strategy"
)

// app holds the router's long-lived components.
type app struct {
	log           *slog.Logger
	collector     *metrics.Collector
	cache         *healthcache.Cache
	balancer      *loadbalancer.LoadBalancer
	server        *httpserver.Server
	sweepInterval time.Duration
}

func newApp(cfg *config.Config, log *slog.Logger) (*app, error) {
	backends, err := backend.ParseAll(cfg.Backends)
	if err != nil {
		return nil, fmt.Errorf("parse backends: %w", err)
	}

	collector := metrics.NewCollector(cfg.Metrics.BufferSize, log.With(slog.String("component", "metrics")))

	prober := healthcheck.NewHTTPProber(log.With(slog.String("component", "healthcheck")),
		healthcheck.WithPath(cfg.HealthCheck.Path),
		healthcheck.WithTimeout(cfg.HealthCheck.Timeout),
		healthcheck.WithCollector(collector),
	)

	cache := healthcache.New(prober, log.With(slog.String("component", "healthcache")),
		healthcache.WithTTL(cfg.HealthCheck.TTL),
		healthcache.WithMaxEntries(cfg.HealthCheck.MaxEntries),
	)

	strat := strategy.NewRoundRobinStrategy()
	balancer := loadbalancer.NewLoadBalancer(strat, cache, backends, log.With(slog.String("component", "loadbalancer")))

	forwarder := dispatcher.NewHTTPForwarder(
		dispatcher.WithPath(cfg.Dispatch.Path),
		dispatcher.WithTimeout(cfg.Dispatch.Timeout),
		dispatcher.WithContentType(cfg.Dispatch.ContentType),
	)

	d := dispatcher.New(balancer, forwarder, log.With(slog.String("component", "dispatcher")),
		dispatcher.WithMaxRetries(cfg.Dispatch.MaxRetries),
		dispatcher.WithCollector(collector),
	)

	dispatchHandler := handler.NewDispatchHandler(log.With(slog.String("component", "handler")), d)

	srv, err := httpserver.New(cfg.Server.Address, setupRouter(dispatchHandler, collector, strat.Name()))
	if err != nil {
		return nil, fmt.Errorf("create server: %w", err)
	}

	return &app{
		log:           log,
		collector:     collector,
		cache:         cache,
		balancer:      balancer,
		server:        srv,
		sweepInterval: cfg.HealthCheck.SweepInterval,
	}, nil
}

// run warms the health cache, then serves until ctx is done.
func (a *app) run(ctx context.Context) error {
	a.collector.Start(ctx)

	backends := a.balancer.Backends()
	healthy, err := a.cache.Warm(ctx, backends)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("warm health cache: %w", err)
	}

	a.log.Info("Health cache warmed",
		slog.Int("healthy", healthy),
		slog.Int("total", len(backends)))

	if healthy == 0 {
		a.log.Warn("No healthy backends at startup")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.cache.Run(gctx, a.sweepInterval)
		return nil
	})

	g.Go(func() error {
		return a.server.Run(gctx)
	})

	return g.Wait()
}
