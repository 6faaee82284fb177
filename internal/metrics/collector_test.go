package metrics_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/angeloszaimis/request-router/internal/metrics"
)

var _ = Describe("Collector", func() {
	var (
		collector *metrics.Collector
		log       *slog.Logger
		ctx       context.Context
		cancel    context.CancelFunc
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelError, // Suppress logs in tests
		}))
		ctx, cancel = context.WithCancel(context.Background())
		collector = metrics.NewCollector(100, log)
	})

	AfterEach(func() {
		cancel()
	})

	Describe("Emit", func() {
		It("should be a no-op on a nil collector", func() {
			var c *metrics.Collector
			Expect(func() {
				c.Emit(metrics.MetricEvent{Type: metrics.EventProbeCompleted})
			}).NotTo(Panic())
		})

		It("should drop events when the buffer is full", func() {
			small := metrics.NewCollector(1, log)
			for i := 0; i < 5; i++ {
				small.Emit(metrics.MetricEvent{Type: metrics.EventDispatchCompleted, StatusCode: 200, Attempts: 1})
			}

			small.Start(ctx)
			Eventually(func() int64 {
				return small.Snapshot("round-robin").TotalRequests
			}).Should(Equal(int64(1)))
			Consistently(func() int64 {
				return small.Snapshot("round-robin").TotalRequests
			}, 50*time.Millisecond).Should(Equal(int64(1)))
		})
	})

	Describe("Start and event processing", func() {
		It("should process EventProbeCompleted", func() {
			collector.Start(ctx)
			collector.Emit(metrics.MetricEvent{
				Type:    metrics.EventProbeCompleted,
				Backend: "http://localhost:8081",
				Healthy: true,
			})

			Eventually(func() bool {
				return collector.Snapshot("round-robin").Backends["http://localhost:8081"].Healthy
			}).Should(BeTrue())

			count, err := testutil.GatherAndCount(collector.Registry(), "router_health_probes_total")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})

		It("should process EventForwardAttempted", func() {
			collector.Start(ctx)
			collector.Emit(metrics.MetricEvent{
				Type:       metrics.EventForwardAttempted,
				Backend:    "http://localhost:8081",
				Duration:   10 * time.Millisecond,
				StatusCode: 200,
			})

			Eventually(func() int64 {
				return collector.Snapshot("round-robin").Backends["http://localhost:8081"].StatusCodes[200]
			}).Should(Equal(int64(1)))
			Expect(collector.Snapshot("round-robin").Backends["http://localhost:8081"].AvgResponse).To(Equal(10 * time.Millisecond))
		})

		It("should process EventDispatchCompleted", func() {
			collector.Start(ctx)
			collector.Emit(metrics.MetricEvent{
				Type:       metrics.EventDispatchCompleted,
				StatusCode: http.StatusServiceUnavailable,
				Attempts:   3,
			})

			Eventually(func() int64 {
				return collector.Snapshot("round-robin").Unavailable
			}).Should(Equal(int64(1)))
		})

		It("should drain events on context cancellation", func() {
			for i := 0; i < 5; i++ {
				collector.Emit(metrics.MetricEvent{
					Type:       metrics.EventDispatchCompleted,
					StatusCode: http.StatusOK,
					Attempts:   1,
				})
			}

			collector.Start(ctx)
			cancel()

			Eventually(func() int64 {
				return collector.Snapshot("round-robin").TotalRequests
			}).Should(Equal(int64(5)))
		})
	})

	Describe("Handlers", func() {
		It("should serve the JSON snapshot", func() {
			rec := httptest.NewRecorder()
			collector.StatsHandler("round-robin")(rec, httptest.NewRequest(http.MethodGet, "/stats", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))
			Expect(rec.Body.String()).To(ContainSubstring(`"algorithm":"round-robin"`))
		})

		It("should serve Prometheus metrics", func() {
			collector.Start(ctx)
			collector.Emit(metrics.MetricEvent{
				Type:       metrics.EventDispatchCompleted,
				StatusCode: http.StatusOK,
				Attempts:   1,
			})
			Eventually(func() int64 {
				return collector.Snapshot("round-robin").TotalRequests
			}).Should(Equal(int64(1)))

			srv := httptest.NewServer(collector.PrometheusHandler())
			defer srv.Close()

			resp, err := http.Get(srv.URL)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring(`router_dispatch_total{code="200"} 1`))
		})
	})
})
