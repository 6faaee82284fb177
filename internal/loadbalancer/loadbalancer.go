package loadbalancer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/angeloszaimis/request-router/internal/backend"
	"github.com/angeloszaimis/request-router/internal/healthcheck"
	"github.com/angeloszaimis/request-router/internal/strategy"
)

// HealthSource reports the health of a backend. The health cache is the
// production implementation.
type HealthSource interface {
	Get(ctx context.Context, b *backend.Backend) healthcheck.Status
}

type LoadBalancer struct {
	strategy strategy.Strategy
	health   HealthSource
	backends []*backend.Backend
	logger   *slog.Logger
	mutex    sync.Mutex
}

func NewLoadBalancer(strategy strategy.Strategy, health HealthSource, backends []*backend.Backend, logger *slog.Logger) *LoadBalancer {
	owned := make([]*backend.Backend, len(backends))
	copy(owned, backends)

	return &LoadBalancer{
		strategy: strategy,
		health:   health,
		backends: owned,
		logger:   logger,
	}
}

// Next returns the first healthy candidate among at most len(backends)
// candidates produced by the strategy. Every candidate examined advances the
// strategy, so the following call starts just past the returned backend.
// It returns false when every backend is unhealthy.
//
// Scans are serialized so concurrent callers observe a consistent cursor.
func (lb *LoadBalancer) Next(ctx context.Context) (*backend.Backend, bool) {
	lb.mutex.Lock()
	defer lb.mutex.Unlock()

	for i := 0; i < len(lb.backends); i++ {
		candidate := lb.strategy.SelectBackend(lb.backends)
		if candidate == nil {
			break
		}

		if lb.health.Get(ctx, candidate) == healthcheck.Healthy {
			return candidate, true
		}

		lb.logger.Debug("Skipping unhealthy backend", slog.String("server", candidate.Key()))
	}

	lb.logger.Warn("No healthy backends", slog.Int("backends", len(lb.backends)))
	return nil, false
}

// Backends returns a copy of the configured backend list.
func (lb *LoadBalancer) Backends() []*backend.Backend {
	backends := make([]*backend.Backend, len(lb.backends))
	copy(backends, lb.backends)
	return backends
}

func (lb *LoadBalancer) LoadBalancerStrategy() strategy.Strategy {
	return lb.strategy
}
