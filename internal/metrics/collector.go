package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type EventType string

const (
	EventProbeCompleted    EventType = "probe_completed"
	EventForwardAttempted  EventType = "forward_attempted"
	EventDispatchCompleted EventType = "dispatch_completed"
)

type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	Backend    string
	Duration   time.Duration
	StatusCode int
	Healthy    bool
	Failed     bool
	Attempts   int
}

type Collector struct {
	eventCh  chan MetricEvent
	metrics  *Metrics
	registry *prometheus.Registry
	prom     *promMetrics
	logger   *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Collector{
		eventCh:  make(chan MetricEvent, bufferSize),
		metrics:  NewMetrics(),
		registry: registry,
		prom:     newPromMetrics(registry),
		logger:   logger,
	}
}

// Emit queues an event without blocking. It is safe to call on a nil
// Collector, which discards the event.
func (c *Collector) Emit(event MetricEvent) {
	if c == nil {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case c.eventCh <- event:
	default:
		c.logger.Debug("Metrics buffer full, dropping event", slog.String("type", string(event.Type)))
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			// Drain remaining events before shutdown
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventProbeCompleted:
		c.prom.observeProbe(event.Backend, event.Healthy)
		c.metrics.RecordProbe(event.Backend, event.Healthy)

	case EventForwardAttempted:
		c.prom.observeAttempt(event.Backend, event.Duration, event.StatusCode, event.Failed)
		c.metrics.RecordAttempt(event.Backend, event.Duration, event.StatusCode, event.Failed)

	case EventDispatchCompleted:
		c.prom.observeDispatch(event.StatusCode)
		c.metrics.RecordDispatch(event.StatusCode, event.Attempts)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot(algorithm string) Snapshot {
	return c.metrics.Snapshot(algorithm)
}

// Registry returns the Prometheus registry backing PrometheusHandler.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}
