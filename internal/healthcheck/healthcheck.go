package healthcheck

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/angeloszaimis/request-router/internal/backend"
	"github.com/angeloszaimis/request-router/internal/metrics"
)

const (
	DefaultPath    = "/healthz"
	DefaultTimeout = 100 * time.Millisecond
)

// Status is the outcome of the most recent probe of a backend.
type Status int

const (
	Unhealthy Status = iota
	Healthy
)

func (s Status) String() string {
	switch s {
	case Healthy:
		return "healthy"
	case Unhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// Prober reports the health of a backend.
type Prober interface {
	Probe(ctx context.Context, b *backend.Backend) Status
}

// HTTPProber probes backends with an HTTP GET to a fixed path.
type HTTPProber struct {
	client    *http.Client
	path      string
	timeout   time.Duration
	logger    *slog.Logger
	collector *metrics.Collector
}

type Option func(*HTTPProber)

// WithPath sets the health endpoint path. Defaults to /healthz.
func WithPath(path string) Option {
	return func(p *HTTPProber) {
		p.path = path
	}
}

// WithTimeout sets the per-probe timeout. Defaults to 100ms.
func WithTimeout(timeout time.Duration) Option {
	return func(p *HTTPProber) {
		p.timeout = timeout
	}
}

// WithClient replaces the HTTP client used for probes.
func WithClient(client *http.Client) Option {
	return func(p *HTTPProber) {
		p.client = client
	}
}

// WithCollector reports every probe outcome to the metrics collector.
func WithCollector(collector *metrics.Collector) Option {
	return func(p *HTTPProber) {
		p.collector = collector
	}
}

func NewHTTPProber(logger *slog.Logger, opts ...Option) *HTTPProber {
	p := &HTTPProber{
		path:    DefaultPath,
		timeout: DefaultTimeout,
		logger:  logger,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.client == nil {
		p.client = &http.Client{Timeout: p.timeout}
	}

	return p
}

// Probe sends a GET to the backend health endpoint. HTTP 200 is Healthy;
// any other status code or transport error is Unhealthy.
func (p *HTTPProber) Probe(ctx context.Context, b *backend.Backend) Status {
	start := time.Now()
	status := p.probe(ctx, b)

	p.collector.Emit(metrics.MetricEvent{
		Type:     metrics.EventProbeCompleted,
		Backend:  b.Key(),
		Duration: time.Since(start),
		Healthy:  status == Healthy,
	})

	return status
}

func (p *HTTPProber) probe(ctx context.Context, b *backend.Backend) Status {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	healthURL := b.Endpoint(p.path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL.String(), nil)
	if err != nil {
		p.logger.Error("Failed to build health check request",
			slog.String("server", b.Key()),
			slog.Any("err", err))
		return Unhealthy
	}

	res, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("Health check failed",
			slog.String("server", b.Key()),
			slog.Any("err", err))
		return Unhealthy
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, res.Body)

	if res.StatusCode != http.StatusOK {
		p.logger.Warn("Server is down",
			slog.String("server", b.Key()),
			slog.Int("status", res.StatusCode))
		return Unhealthy
	}

	p.logger.Debug("Server is up", slog.String("server", b.Key()))
	return Healthy
}
