package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	FlagConfig      = "config"
	FlagAddress     = "address"
	FlagEnvironment = "environment"
	FlagLogLevel    = "log-level"
)

var absolutePath = regexp.MustCompile(`^/`)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type HealthCheckConfig struct {
	Path          string        `mapstructure:"path"`
	Timeout       time.Duration `mapstructure:"timeout"`
	TTL           time.Duration `mapstructure:"ttl"`
	MaxEntries    int           `mapstructure:"max_entries"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type DispatchConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	ContentType string        `mapstructure:"content_type"`
}

type MetricsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Backends    []string          `mapstructure:"backends"`
	HealthCheck HealthCheckConfig `mapstructure:"health_check"`
	Dispatch    DispatchConfig    `mapstructure:"dispatch"`
	Metrics     MetricsConfig     `mapstructure:"metrics"`
	Logging     LoggingConfig     `mapstructure:"logging"`

	// File is the config file that was read, empty when none was found.
	File string `mapstructure:"-"`
}

// Options controls where Load looks for configuration.
type Options struct {
	// File is an explicit config file. When empty, config.yaml is looked up
	// in ./config and the working directory, and a missing file is not an error.
	File string
	// Flags, when set, overrides values with any flag registered by RegisterFlags
	// that was changed on the command line.
	Flags *pflag.FlagSet
	// Backends, when non-empty, replaces the configured backend list.
	Backends []string
}

// RegisterFlags adds the router's configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.StringP(FlagConfig, "c", "", "path to the config file")
	fs.StringP(FlagAddress, "a", "", "listen address, e.g. :8080")
	fs.String(FlagEnvironment, "", "environment: dev, staging or prod")
	fs.StringP(FlagLogLevel, "l", "", "log level: debug, info, warn or error")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("backends", []string{})
	v.SetDefault("health_check.path", "/healthz")
	v.SetDefault("health_check.timeout", 100*time.Millisecond)
	v.SetDefault("health_check.ttl", 10*time.Minute)
	v.SetDefault("health_check.max_entries", 1000)
	v.SetDefault("health_check.sweep_interval", time.Minute)
	v.SetDefault("dispatch.path", "/echo")
	v.SetDefault("dispatch.timeout", 100*time.Millisecond)
	v.SetDefault("dispatch.max_retries", 2)
	v.SetDefault("dispatch.content_type", "application/json")
	v.SetDefault("metrics.buffer_size", 1024)
	v.SetDefault("logging.level", LogLevelInfo)
}

func Load(opts Options) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if opts.File != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if opts.Flags != nil {
		if err := bindFlags(v, opts.Flags); err != nil {
			return nil, err
		}
	}

	if len(opts.Backends) > 0 {
		v.Set("backends", opts.Backends)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	bindings := map[string]string{
		"server.address":     FlagAddress,
		"server.environment": FlagEnvironment,
		"logging.level":      FlagLogLevel,
	}

	for key, name := range bindings {
		flag := fs.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	return nil
}

func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Server),
		validation.Field(&c.Backends,
			validation.Required,
			validation.Each(validation.By(validateBackendURL)),
		),
		validation.Field(&c.HealthCheck),
		validation.Field(&c.Dispatch),
		validation.Field(&c.Metrics),
		validation.Field(&c.Logging),
	)
}

func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Environment,
			validation.Required,
			validation.In(EnvDev, EnvStaging, EnvProd),
		),
		validation.Field(&s.Address,
			validation.Required,
			validation.By(validateHostPort),
		),
	)
}

func (h HealthCheckConfig) Validate() error {
	return validation.ValidateStruct(&h,
		validation.Field(&h.Path, validation.Required, validation.Match(absolutePath)),
		validation.Field(&h.Timeout, validation.Required, validation.Min(time.Duration(1))),
		validation.Field(&h.TTL, validation.Required, validation.Min(time.Duration(1))),
		validation.Field(&h.MaxEntries, validation.Required, validation.Min(1)),
		validation.Field(&h.SweepInterval, validation.Required, validation.Min(time.Duration(1))),
	)
}

func (d DispatchConfig) Validate() error {
	return validation.ValidateStruct(&d,
		validation.Field(&d.Path, validation.Required, validation.Match(absolutePath)),
		validation.Field(&d.Timeout, validation.Required, validation.Min(time.Duration(1))),
		validation.Field(&d.MaxRetries, validation.Min(0)),
		validation.Field(&d.ContentType, validation.Required),
	)
}

func (m MetricsConfig) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.BufferSize, validation.Required, validation.Min(1)),
	)
}

func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level,
			validation.Required,
			validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
		),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateBackendURL(value interface{}) error {
	backendURL, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	if backendURL == "" {
		return validation.NewError("validation_empty_url", "backend URL cannot be empty")
	}

	parsedURL, err := url.Parse(backendURL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	return nil
}
