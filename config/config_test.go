package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/pflag"

	"github.com/angeloszaimis/request-router/config"
)

var _ = Describe("Config", func() {
	var tempDir string

	writeConfig := func(content string) string {
		path := filepath.Join(tempDir, "config.yaml")
		Expect(os.WriteFile(path, []byte(content), 0644)).To(Succeed())
		return path
	}

	setenv := func(key, value string) {
		Expect(os.Setenv(key, value)).To(Succeed())
		DeferCleanup(os.Unsetenv, key)
	}

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(tempDir)
	})

	Describe("Load", func() {
		Context("with valid config file", func() {
			var path string

			BeforeEach(func() {
				path = writeConfig(`
server:
  address: ":9090"
  environment: "prod"

backends:
  - "http://localhost:8081"
  - "http://localhost:8082"

health_check:
  path: "/status"
  timeout: "250ms"
  ttl: "5m"
  max_entries: 10
  sweep_interval: "30s"

dispatch:
  path: "/api"
  timeout: "200ms"
  max_retries: 4

logging:
  level: "debug"
`)
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load(config.Options{File: path})
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.File).To(Equal(path))
				Expect(cfg.Server.Address).To(Equal(":9090"))
				Expect(cfg.Server.Environment).To(Equal(config.EnvProd))
				Expect(cfg.Logging.Level).To(Equal(config.LogLevelDebug))
			})

			It("should keep backend order", func() {
				cfg, _ := config.Load(config.Options{File: path})
				Expect(cfg.Backends).To(Equal([]string{"http://localhost:8081", "http://localhost:8082"}))
			})

			It("should parse durations", func() {
				cfg, _ := config.Load(config.Options{File: path})
				Expect(cfg.HealthCheck.Timeout).To(Equal(250 * time.Millisecond))
				Expect(cfg.HealthCheck.TTL).To(Equal(5 * time.Minute))
				Expect(cfg.HealthCheck.SweepInterval).To(Equal(30 * time.Second))
				Expect(cfg.Dispatch.Timeout).To(Equal(200 * time.Millisecond))
			})

			It("should fill unset values with defaults", func() {
				cfg, _ := config.Load(config.Options{File: path})
				Expect(cfg.Dispatch.ContentType).To(Equal("application/json"))
				Expect(cfg.Metrics.BufferSize).To(Equal(1024))
				Expect(cfg.Dispatch.MaxRetries).To(Equal(4))
			})

			It("should let environment variables override the file", func() {
				setenv("HEALTH_CHECK_TTL", "1m")
				setenv("DISPATCH_MAX_RETRIES", "0")

				cfg, err := config.Load(config.Options{File: path})
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.HealthCheck.TTL).To(Equal(time.Minute))
				Expect(cfg.Dispatch.MaxRetries).To(BeZero())
			})

			It("should let positional backends replace the list", func() {
				cfg, err := config.Load(config.Options{File: path, Backends: []string{"http://other:9000"}})
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Backends).To(Equal([]string{"http://other:9000"}))
			})

			It("should let changed flags override everything", func() {
				fs := pflag.NewFlagSet("router", pflag.ContinueOnError)
				config.RegisterFlags(fs)
				Expect(fs.Parse([]string{"--address", ":7070", "--log-level", "warn"})).To(Succeed())

				cfg, err := config.Load(config.Options{File: path, Flags: fs})
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Server.Address).To(Equal(":7070"))
				Expect(cfg.Logging.Level).To(Equal(config.LogLevelWarn))
				Expect(cfg.Server.Environment).To(Equal(config.EnvProd))
			})
		})

		Context("without a config file", func() {
			It("should use defaults and environment variables", func() {
				setenv("BACKENDS", "http://a:8081,http://b:8082")

				cfg, err := config.Load(config.Options{})
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.Backends).To(Equal([]string{"http://a:8081", "http://b:8082"}))
				Expect(cfg.Server.Address).To(Equal(":8080"))
				Expect(cfg.HealthCheck.Path).To(Equal("/healthz"))
				Expect(cfg.HealthCheck.Timeout).To(Equal(100 * time.Millisecond))
				Expect(cfg.HealthCheck.TTL).To(Equal(10 * time.Minute))
				Expect(cfg.HealthCheck.MaxEntries).To(Equal(1000))
				Expect(cfg.Dispatch.Path).To(Equal("/echo"))
				Expect(cfg.Dispatch.Timeout).To(Equal(100 * time.Millisecond))
				Expect(cfg.Dispatch.MaxRetries).To(Equal(2))
			})

			It("should fail when no backend is configured", func() {
				_, err := config.Load(config.Options{})
				Expect(err).To(HaveOccurred())
				Expect(err.Error()).To(ContainSubstring("Backends"))
			})

			It("should fail when an explicit file is missing", func() {
				_, err := config.Load(config.Options{File: filepath.Join(tempDir, "missing.yaml")})
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Validate", func() {
		var cfg config.Config

		BeforeEach(func() {
			cfg = config.Config{
				Server:   config.ServerConfig{Address: ":8080", Environment: config.EnvDev},
				Backends: []string{"http://localhost:8081"},
				HealthCheck: config.HealthCheckConfig{
					Path:          "/healthz",
					Timeout:       100 * time.Millisecond,
					TTL:           10 * time.Minute,
					MaxEntries:    1000,
					SweepInterval: time.Minute,
				},
				Dispatch: config.DispatchConfig{
					Path:        "/echo",
					Timeout:     100 * time.Millisecond,
					MaxRetries:  2,
					ContentType: "application/json",
				},
				Metrics: config.MetricsConfig{BufferSize: 1024},
				Logging: config.LoggingConfig{Level: config.LogLevelInfo},
			}
		})

		It("accepts a complete configuration", func() {
			Expect(cfg.Validate()).To(Succeed())
		})

		DescribeTable("rejects invalid values",
			func(mutate func(*config.Config)) {
				mutate(&cfg)
				Expect(cfg.Validate()).NotTo(Succeed())
			},
			Entry("unknown environment", func(c *config.Config) { c.Server.Environment = "qa" }),
			Entry("address without port", func(c *config.Config) { c.Server.Address = "localhost" }),
			Entry("no backends", func(c *config.Config) { c.Backends = nil }),
			Entry("backend without scheme", func(c *config.Config) { c.Backends = []string{"localhost:8081"} }),
			Entry("backend with ftp scheme", func(c *config.Config) { c.Backends = []string{"ftp://localhost:21"} }),
			Entry("empty backend", func(c *config.Config) { c.Backends = []string{""} }),
			Entry("relative health path", func(c *config.Config) { c.HealthCheck.Path = "healthz" }),
			Entry("negative ttl", func(c *config.Config) { c.HealthCheck.TTL = -time.Second }),
			Entry("zero probe timeout", func(c *config.Config) { c.HealthCheck.Timeout = 0 }),
			Entry("zero max entries", func(c *config.Config) { c.HealthCheck.MaxEntries = 0 }),
			Entry("negative retries", func(c *config.Config) { c.Dispatch.MaxRetries = -1 }),
			Entry("zero dispatch timeout", func(c *config.Config) { c.Dispatch.Timeout = 0 }),
			Entry("unknown log level", func(c *config.Config) { c.Logging.Level = "trace" }),
		)

		It("allows zero retries", func() {
			cfg.Dispatch.MaxRetries = 0
			Expect(cfg.Validate()).To(Succeed())
		})
	})
})
