package dispatcher

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/angeloszaimis/request-router/internal/backend"
)

const (
	DefaultPath        = "/echo"
	DefaultTimeout     = 100 * time.Millisecond
	DefaultContentType = "application/json"

	RequestIDHeader = "X-Request-ID"
)

// Forwarder sends a request to one backend. A returned error means no
// complete response was received; any status code, including errors,
// is returned as a Response.
type Forwarder interface {
	Forward(ctx context.Context, b *backend.Backend, req Request) (Response, error)
}

// HTTPForwarder POSTs the request body verbatim to a fixed path on the backend.
type HTTPForwarder struct {
	client      *http.Client
	path        string
	timeout     time.Duration
	contentType string
}

type ForwarderOption func(*HTTPForwarder)

// WithPath sets the downstream path. Defaults to /echo.
func WithPath(path string) ForwarderOption {
	return func(f *HTTPForwarder) {
		f.path = path
	}
}

// WithTimeout bounds each forward, including reading the response body.
// Defaults to 100ms.
func WithTimeout(timeout time.Duration) ForwarderOption {
	return func(f *HTTPForwarder) {
		f.timeout = timeout
	}
}

// WithContentType sets the content type used when a request carries none.
func WithContentType(contentType string) ForwarderOption {
	return func(f *HTTPForwarder) {
		f.contentType = contentType
	}
}

// WithClient replaces the HTTP client.
func WithClient(client *http.Client) ForwarderOption {
	return func(f *HTTPForwarder) {
		f.client = client
	}
}

func NewHTTPForwarder(opts ...ForwarderOption) *HTTPForwarder {
	f := &HTTPForwarder{
		client:      &http.Client{},
		path:        DefaultPath,
		timeout:     DefaultTimeout,
		contentType: DefaultContentType,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

func (f *HTTPForwarder) Forward(ctx context.Context, b *backend.Backend, req Request) (Response, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	target := b.Endpoint(f.path)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(req.Body))
	if err != nil {
		return Response{}, fmt.Errorf("build request for %s: %w", target, err)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = f.contentType
	}
	httpReq.Header.Set("Content-Type", contentType)

	if req.RequestID != "" {
		httpReq.Header.Set(RequestIDHeader, req.RequestID)
	}

	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	res, err := f.client.Do(httpReq)
	if err != nil {
		return Response{}, fmt.Errorf("forward to %s: %w", target, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return Response{}, fmt.Errorf("read response from %s: %w", target, err)
	}

	return Response{StatusCode: res.StatusCode, Body: body}, nil
}
