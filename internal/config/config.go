// Package config loads rentwise settings from YAML, .env and the environment.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/neomorfeo/rentwise/internal/domain"
)

// Config is the full process configuration.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Storage   StorageConfig   `yaml:"storage"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Gateways  []GatewayConfig `yaml:"gateways"`
	MutualAid MutualAidConfig `yaml:"mutual_aid"`
	Events    EventsConfig    `yaml:"events"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return ":" + strconv.Itoa(s.Port)
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig enables the Redis view counter when Enabled is set.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// Storage drivers.
const (
	StorageMemory = "memory"
	StorageGridFS = "gridfs"
)

type StorageConfig struct {
	Driver   string `yaml:"driver"`
	MongoURI string `yaml:"mongo_uri"`
	Database string `yaml:"database"`
	// BaseURL prefixes stored file URLs. Defaults to the /files route.
	BaseURL string `yaml:"base_url"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

// RateLimitConfig throttles API clients. A zero RPS disables the limiter.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// GatewayConfig configures the HTTP provider for one payment method.
type GatewayConfig struct {
	Method           string        `yaml:"method"`
	BaseURL          string        `yaml:"base_url"`
	APIKey           string        `yaml:"api_key"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold int           `yaml:"failure_threshold"`
	Cooldown         time.Duration `yaml:"cooldown"`
	MaxAttempts      int           `yaml:"max_attempts"`
}

type MutualAidConfig struct {
	MonthlyContribution string `yaml:"monthly_contribution"`
	Currency            string `yaml:"currency"`
}

// Contribution parses the configured monthly amount.
func (m MutualAidConfig) Contribution() (domain.Money, error) {
	return domain.ParseMoney(m.MonthlyContribution, m.Currency)
}

// Event delivery drivers.
const (
	EventsRiver  = "river"
	EventsDirect = "direct"
)

type EventsConfig struct {
	Driver  string `yaml:"driver"`
	Workers int    `yaml:"workers"`
}

type TelemetryConfig struct {
	ServiceName string  `yaml:"service_name"`
	Exporter    string  `yaml:"exporter"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
	// Endpoint is the OTLP collector host:port.
	Endpoint       string        `yaml:"endpoint"`
	MetricInterval time.Duration `yaml:"metric_interval"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

// Load reads configuration. An optional .env file is loaded first; path
// falls back to $RENTWISE_CONFIG, and without any file the defaults plus
// environment overrides apply.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if path == "" {
		path = os.Getenv("RENTWISE_CONFIG")
	}

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// decode expands ${VAR} references and rejects unknown keys.
func decode(data []byte, cfg *Config) error {
	expanded := os.ExpandEnv(string(data))
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv lets the deployment environment override the file.
func (c *Config) applyEnv() {
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	setString(&c.Database.Path, "DATABASE_PATH")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Telemetry.ServiceName, "OTEL_SERVICE_NAME")
	setString(&c.App.Version, "OTEL_SERVICE_VERSION")
	setString(&c.App.Environment, "OTEL_ENVIRONMENT")
	setString(&c.Telemetry.Exporter, "OTEL_EXPORTER")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "rentwise"
	}
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.App.Version == "" {
		c.App.Version = "0.1.0"
	}

	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}

	if c.Database.Path == "" {
		c.Database.Path = "rentwise.db"
	}

	if c.Redis.Address == "" {
		c.Redis.Address = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageMemory
	}
	if c.Storage.Database == "" {
		c.Storage.Database = "rentwise"
	}
	if c.Storage.BaseURL == "" {
		c.Storage.BaseURL = "/files"
	}

	if c.Auth.Issuer == "" {
		c.Auth.Issuer = c.App.Name
	}
	if c.RateLimit.RPS > 0 && c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 5
	}

	for i := range c.Gateways {
		g := &c.Gateways[i]
		if g.Timeout == 0 {
			g.Timeout = 15 * time.Second
		}
		if g.FailureThreshold == 0 {
			g.FailureThreshold = 5
		}
		if g.Cooldown == 0 {
			g.Cooldown = 30 * time.Second
		}
		if g.MaxAttempts == 0 {
			g.MaxAttempts = 3
		}
	}

	if c.MutualAid.MonthlyContribution == "" {
		c.MutualAid.MonthlyContribution = "2000"
	}
	if c.MutualAid.Currency == "" {
		c.MutualAid.Currency = "XOF"
	}

	if c.Events.Driver == "" {
		c.Events.Driver = EventsRiver
	}
	if c.Events.Workers == 0 {
		c.Events.Workers = 4
	}

	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = c.App.Name
	}
	if c.Telemetry.Exporter == "" {
		c.Telemetry.Exporter = "stdout"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return errors.New("auth.jwt_secret must be at least 16 characters")
	}

	switch c.Storage.Driver {
	case StorageMemory:
	case StorageGridFS:
		if c.Storage.MongoURI == "" {
			return errors.New("storage.mongo_uri is required for the gridfs driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", c.Storage.Driver)
	}

	if c.Events.Driver != EventsRiver && c.Events.Driver != EventsDirect {
		return fmt.Errorf("unknown events.driver %q", c.Events.Driver)
	}

	switch c.Telemetry.Exporter {
	case "stdout", "otlp", "none":
	default:
		return fmt.Errorf("unknown telemetry.exporter %q", c.Telemetry.Exporter)
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.sample_ratio %v must be between 0 and 1", c.Telemetry.SampleRatio)
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("unknown logging.format %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Output) {
	case "stdout", "stderr":
	case "file":
		if c.Logging.FilePath == "" {
			return errors.New("logging.output=file requires logging.file_path")
		}
	default:
		return fmt.Errorf("unknown logging.output %q", c.Logging.Output)
	}

	if c.RateLimit.RPS < 0 {
		return errors.New("rate_limit.rps must not be negative")
	}

	amount, err := c.MutualAid.Contribution()
	if err != nil {
		return fmt.Errorf("mutual_aid: %w", err)
	}
	if amount.IsZero() {
		return errors.New("mutual_aid.monthly_contribution must be positive")
	}

	return c.validateGateways()
}

func (c *Config) validateGateways() error {
	seen := make(map[string]bool, len(c.Gateways))
	for _, g := range c.Gateways {
		method := domain.PaymentMethod(g.Method)
		if !method.Valid() {
			return fmt.Errorf("gateways: unsupported method %q", g.Method)
		}
		if method == domain.PaymentMethodCash {
			return errors.New("gateways: cash payments need no provider")
		}
		if seen[g.Method] {
			return fmt.Errorf("gateways: duplicate method %q", g.Method)
		}
		seen[g.Method] = true
		if g.BaseURL == "" {
			return fmt.Errorf("gateways: %s requires base_url", g.Method)
		}
	}
	return nil
}
