package httpserver_test

import (
	"context"
	"io"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/request-router/internal/httpserver"
)

var _ = Describe("HTTP Server", func() {
	noop := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	shutdown := func(srv *httpserver.Server) {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}

	Context("server creation", func() {
		It("creates server with valid address", func() {
			srv, err := httpserver.New("localhost:0", noop)
			Expect(err).NotTo(HaveOccurred())
			Expect(srv).NotTo(BeNil())
			DeferCleanup(shutdown, srv)
		})

		It("creates server with IP address", func() {
			srv, err := httpserver.New("127.0.0.1:0", noop)
			Expect(err).NotTo(HaveOccurred())
			Expect(srv.Addr()).To(HavePrefix("127.0.0.1:"))
			DeferCleanup(shutdown, srv)
		})

		It("handles port-only address", func() {
			srv, err := httpserver.New(":0", noop)
			Expect(err).NotTo(HaveOccurred())
			Expect(srv).NotTo(BeNil())
			DeferCleanup(shutdown, srv)
		})

		It("rejects invalid address", func() {
			srv, err := httpserver.New("invalid:host:port", noop)
			Expect(err).To(HaveOccurred())
			Expect(srv).To(BeNil())
		})

		It("rejects a missing port", func() {
			srv, err := httpserver.New("localhost:", noop)
			Expect(err).To(HaveOccurred())
			Expect(srv).To(BeNil())
		})

		It("rejects a non-numeric port", func() {
			srv, err := httpserver.New("localhost:http", noop)
			Expect(err).To(HaveOccurred())
			Expect(srv).To(BeNil())
		})
	})

	Context("server lifecycle", func() {
		It("starts and handles requests", func() {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("test"))
			})
			srv, err := httpserver.New("127.0.0.1:0", handler)
			Expect(err).NotTo(HaveOccurred())
			DeferCleanup(shutdown, srv)

			go func() {
				defer GinkgoRecover()
				Expect(srv.Start()).To(Succeed())
			}()

			var resp *http.Response
			Eventually(func() error {
				resp, err = http.Get("http://" + srv.Addr())
				return err
			}).Should(Succeed())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(Equal("test"))
		})

		It("shuts down gracefully", func() {
			srv, err := httpserver.New("127.0.0.1:0", noop)
			Expect(err).NotTo(HaveOccurred())

			done := make(chan error, 1)
			go func() {
				done <- srv.Start()
			}()

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			Expect(srv.Shutdown(ctx)).To(Succeed())
			Eventually(done).Should(Receive(BeNil()))
		})

		It("stops when the run context is cancelled", func() {
			srv, err := httpserver.New("127.0.0.1:0", noop, httpserver.WithShutdownTimeout(time.Second))
			Expect(err).NotTo(HaveOccurred())

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() {
				done <- srv.Run(ctx)
			}()

			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})
	})
})
