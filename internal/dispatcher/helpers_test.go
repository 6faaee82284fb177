package dispatcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"

	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/request-router/internal/backend"
	"github.com/angeloszaimis/request-router/internal/dispatcher"
)

// cycleSelector hands out backends in order and treats every one as healthy.
type cycleSelector struct {
	mu       sync.Mutex
	backends []*backend.Backend
	next     int
	calls    int
}

func (s *cycleSelector) Next(ctx context.Context) (*backend.Backend, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if len(s.backends) == 0 {
		return nil, false
	}

	b := s.backends[s.next%len(s.backends)]
	s.next++
	return b, true
}

func (s *cycleSelector) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type countingForwarder struct {
	calls atomic.Int32
	next  dispatcher.Forwarder
}

func (f *countingForwarder) Forward(ctx context.Context, b *backend.Backend, req dispatcher.Request) (dispatcher.Response, error) {
	f.calls.Add(1)
	if f.next == nil {
		return dispatcher.Response{StatusCode: http.StatusOK}, nil
	}
	return f.next.Forward(ctx, b, req)
}

// countingServer wraps h and counts requests to /echo.
func countingServer(h http.Handler) (*httptest.Server, *atomic.Int32) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/echo" {
			hits.Add(1)
		}
		h.ServeHTTP(w, r)
	}))
	return srv, &hits
}

func statusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	})
}

func mustBackend(raw string) *backend.Backend {
	b, err := backend.Parse(raw)
	Expect(err).NotTo(HaveOccurred())
	return b
}
