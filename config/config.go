package config

import (
	"fmt"
	"time"

	"cdr.dev/slog"
	"github.com/caarlos0/env/v10"
	"github.com/docker/go-units"
	"github.com/joho/godotenv"

	"github.com/coder/httplog"
	"github.com/coder/httplog/metrics"
)

const (
	FormatHuman = "human"
	FormatJSON  = "json"
)

type Config struct {
	Level        string        `env:"HTTPLOG_LEVEL" envDefault:"debug"`
	LogRequests  bool          `env:"HTTPLOG_LOG_REQUESTS" envDefault:"true"`
	LogResponses bool          `env:"HTTPLOG_LOG_RESPONSES" envDefault:"true"`
	Timeout      time.Duration `env:"HTTPLOG_TIMEOUT" envDefault:"60s"`
	// Format selects the log sink, FormatHuman or FormatJSON.
	Format string `env:"HTTPLOG_FORMAT" envDefault:"human"`

	// SecretHeaders replaces httplog.DefaultSecretHeaders when set.
	SecretHeaders  []string `env:"HTTPLOG_SECRET_HEADERS" envSeparator:","`
	MaskBodyFields []string `env:"HTTPLOG_MASK_BODY_FIELDS" envSeparator:","`
	PrettyJSON     bool     `env:"HTTPLOG_PRETTY_JSON"`
	MaxBodyBytes   ByteSize `env:"HTTPLOG_MAX_BODY_BYTES"`
}

// ByteSize is a size in bytes, read from a plain number or a human-readable
// size such as "4k" or "1MiB" (binary multiples).
type ByteSize int

func (b *ByteSize) UnmarshalText(text []byte) error {
	n, err := units.RAMInBytes(string(text))
	if err != nil {
		return fmt.Errorf("parse size %q: %w", text, err)
	}
	*b = ByteSize(n)
	return nil
}

func (b ByteSize) String() string {
	return units.BytesSize(float64(b))
}

// Load reads the configuration from the process environment, after
// loading a .env file from the working directory if there is one.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}
	return cfg, cfg.Validate()
}

// Parse reads the configuration from environ instead of the process
// environment.
func Parse(environ map[string]string) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("env.Parse: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Format {
	case FormatHuman, FormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", c.Format)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("negative timeout %s", c.Timeout)
	}
	if c.MaxBodyBytes < 0 {
		return fmt.Errorf("negative max body bytes %d", int(c.MaxBodyBytes))
	}
	return nil
}

// LogOptions returns the logger options described by c.
func (c Config) LogOptions(logger slog.Logger, m *metrics.Metrics) []httplog.Option {
	opts := []httplog.Option{
		httplog.WithLogger(logger),
		httplog.WithLevel(httplog.ParseLevel(c.Level)),
		httplog.WithMetrics(m),
		httplog.WithMaxBodyBytes(int(c.MaxBodyBytes)),
	}
	if len(c.SecretHeaders) > 0 {
		opts = append(opts, httplog.WithSecretHeaders(c.SecretHeaders...))
	}
	if len(c.MaskBodyFields) > 0 {
		opts = append(opts, httplog.WithBodyFieldMasking(c.MaskBodyFields...))
	}
	if c.PrettyJSON {
		opts = append(opts, httplog.WithPrettyJSON())
	}
	return opts
}

// ClientOptions returns the httplog.NewClient options described by c.
func (c Config) ClientOptions(logger slog.Logger, m *metrics.Metrics) []httplog.ClientOption {
	return []httplog.ClientOption{
		httplog.WithLogRequests(c.LogRequests),
		httplog.WithLogResponses(c.LogResponses),
		httplog.WithTimeout(c.Timeout),
		httplog.WithLogOptions(c.LogOptions(logger, m)...),
	}
}
