package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/angeloszaimis/request-router/internal/backend"
	"github.com/angeloszaimis/request-router/internal/metrics"
)

const DefaultMaxRetries = 2

const tracerName = "github.com/angeloszaimis/request-router/internal/dispatcher"

var ErrNoHealthyBackend = errors.New("no healthy backend available")

// StatusError reports a backend that answered with a status other than 200.
type StatusError struct {
	Backend    string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s returned status %d", e.Backend, e.StatusCode)
}

// Request is the payload handed over by the transport.
type Request struct {
	Body        []byte
	ContentType string
	RequestID   string
}

// Response is what the transport writes back to the caller.
type Response struct {
	StatusCode int
	Body       []byte
}

// Unavailable is the terminal response when no backend could serve a request.
func Unavailable() Response {
	return Response{StatusCode: http.StatusServiceUnavailable}
}

// Selector produces the next candidate backend, or false when none is available.
type Selector interface {
	Next(ctx context.Context) (*backend.Backend, bool)
}

type Dispatcher struct {
	selector   Selector
	forwarder  Forwarder
	maxRetries int
	logger     *slog.Logger
	collector  *metrics.Collector
	tracer     trace.Tracer
}

type Option func(*Dispatcher)

// WithMaxRetries sets how many times a failed forward is retried.
// Defaults to 2, that is up to 3 attempts.
func WithMaxRetries(n int) Option {
	return func(d *Dispatcher) {
		d.maxRetries = n
	}
}

// WithCollector reports attempts and outcomes to the metrics collector.
func WithCollector(collector *metrics.Collector) Option {
	return func(d *Dispatcher) {
		d.collector = collector
	}
}

func New(selector Selector, forwarder Forwarder, logger *slog.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		selector:   selector,
		forwarder:  forwarder,
		maxRetries: DefaultMaxRetries,
		logger:     logger,
		tracer:     otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.maxRetries < 0 {
		d.maxRetries = 0
	}

	return d
}

// Dispatch forwards req to a healthy backend, trying up to maxRetries+1
// candidates. It returns the first 200 response, or 503 with an empty body
// when no backend is healthy or every attempt failed.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Response {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	ctx, span := d.tracer.Start(ctx, "dispatch",
		trace.WithAttributes(attribute.String("request.id", req.RequestID)))
	defer span.End()

	log := d.logger.With(slog.String("request_id", req.RequestID))

	var (
		attempts int
		result   Response
	)

	operation := func() error {
		b, ok := d.selector.Next(ctx)
		if !ok {
			return backoff.Permanent(ErrNoHealthyBackend)
		}

		attempts++
		resp, err := d.attempt(ctx, b, req, attempts)
		if err != nil {
			log.Warn("Forward attempt failed",
				slog.String("backend", b.Key()),
				slog.Int("attempt", attempts),
				slog.Any("err", err))
			return err
		}

		result = resp
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(&backoff.ZeroBackOff{}, uint64(d.maxRetries)), ctx)
	err := backoff.Retry(operation, policy)

	if err != nil {
		switch {
		case errors.Is(err, ErrNoHealthyBackend):
			log.Warn("No healthy backend available", slog.Int("attempts", attempts))
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			log.Warn("Dispatch cancelled", slog.Int("attempts", attempts), slog.Any("err", err))
		default:
			log.Error("Retries exhausted", slog.Int("attempts", attempts), slog.Any("err", err))
		}
		result = Unavailable()
		span.SetStatus(codes.Error, err.Error())
	}

	span.SetAttributes(
		attribute.Int("http.status_code", result.StatusCode),
		attribute.Int("dispatch.attempts", attempts),
	)

	d.collector.Emit(metrics.MetricEvent{
		Type:       metrics.EventDispatchCompleted,
		StatusCode: result.StatusCode,
		Attempts:   attempts,
	})

	return result
}

func (d *Dispatcher) attempt(ctx context.Context, b *backend.Backend, req Request, n int) (Response, error) {
	ctx, span := d.tracer.Start(ctx, "forward",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("backend", b.Key()),
			attribute.Int("attempt", n),
		))
	defer span.End()

	d.logger.Info("Dispatching request",
		slog.String("request_id", req.RequestID),
		slog.String("backend", b.Key()))

	start := time.Now()
	resp, err := d.forwarder.Forward(ctx, b, req)
	duration := time.Since(start)

	if err == nil && resp.StatusCode != http.StatusOK {
		err = &StatusError{Backend: b.Key(), StatusCode: resp.StatusCode}
	}

	d.collector.Emit(metrics.MetricEvent{
		Type:       metrics.EventForwardAttempted,
		Backend:    b.Key(),
		Duration:   duration,
		StatusCode: resp.StatusCode,
		Failed:     err != nil,
	})

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Response{}, err
	}

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	return resp, nil
}
