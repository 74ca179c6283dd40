package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"

	"github.com/webstack/starter/internal/model"
)

// EnvPrefix is the prefix shared by every environment variable the resolver reads.
// Nested keys use a double underscore: APP_SERVER__PORT -> server.port.
const EnvPrefix = "APP_"

// DefaultSecretKey is the development-only fallback for secret_key.
// It is rejected when the environment is production.
const DefaultSecretKey = "change-me-in-production"

// Environment tags a deployment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
	Testing     Environment = "testing"
)

// Config is the resolved process configuration. It is built once by Load and
// shared read-only for the life of the process.
type Config struct {
	Name          string              `koanf:"name" validate:"required"`
	Version       string              `koanf:"version" validate:"required"`
	Environment   Environment         `koanf:"environment" validate:"required,oneof=development staging production testing"`
	Debug         bool                `koanf:"debug"`
	SecretKey     string              `koanf:"secret_key" json:"-" validate:"required"`
	LogLevel      string              `koanf:"log_level" validate:"required,oneof=debug info warn error"`
	LogFormat     string              `koanf:"log_format" validate:"required,oneof=json console"`
	APIPrefix     string              `koanf:"api_prefix" validate:"required,startswith=/"`
	Server        ServerConfig        `koanf:"server"`
	Observability ObservabilityConfig `koanf:"observability"`
	Database      DatabaseConfig      `koanf:"database"`
}

type ServerConfig struct {
	Host               string        `koanf:"host" validate:"required"`
	Port               int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout        time.Duration `koanf:"read_timeout" validate:"gt=0"`
	WriteTimeout       time.Duration `koanf:"write_timeout" validate:"gt=0"`
	IdleTimeout        time.Duration `koanf:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout    time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	CORSAllowedOrigins []string      `koanf:"cors_allowed_origins"`
}

type ObservabilityConfig struct {
	ServiceName        string  `koanf:"service_name" validate:"required"`
	ServiceVersion     string  `koanf:"service_version"`
	OTLPEndpoint       string  `koanf:"otlp_endpoint" validate:"omitempty,hostname_port|url"`
	OTLPInsecure       bool    `koanf:"otlp_insecure"`
	SampleRatio        float64 `koanf:"sample_ratio" validate:"gte=0,lte=1"`
	MetricsEnabled     bool    `koanf:"metrics_enabled"`
	NewRelicLicenseKey string  `koanf:"new_relic_license_key" json:"-" validate:"omitempty,len=40"`
}

type DatabaseConfig struct {
	URL      string `koanf:"url" json:"-"`
	MaxConns int    `koanf:"max_conns" validate:"min=1,max=100"`
}

// Option customises Load.
type Option func(*options)

type options struct {
	envFile string
	schema  []Field
}

// WithEnvFile reads overrides from the dotenv file at path instead of ".env".
func WithEnvFile(path string) Option {
	return func(o *options) { o.envFile = path }
}

// WithoutEnvFile disables the local override file.
func WithoutEnvFile() Option {
	return func(o *options) { o.envFile = "" }
}

// Load resolves the configuration from compiled-in defaults, the local override
// file and the process environment, in increasing order of precedence. The
// override file is skipped when the process environment selects production.
//
// Any failure is returned as a single *ConfigurationError.
func Load(opts ...Option) (*Config, error) {
	o := &options{envFile: ".env", schema: schema}
	for _, opt := range opts {
		opt(o)
	}
	return o.load()
}

func (o *options) load() (*Config, error) {
	k := koanf.New(".")

	production := strings.EqualFold(strings.TrimSpace(os.Getenv(EnvVar("environment"))), string(Production))
	if o.envFile != "" && !production {
		if err := k.Load(dotenvFile(o.envFile), nil); err != nil {
			return nil, &ConfigurationError{Problems: []FieldError{{
				Field:  "env_file",
				Value:  o.envFile,
				Reason: err.Error(),
			}}}
		}
	}
	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", envValue), nil); err != nil {
		return nil, &ConfigurationError{Problems: []FieldError{{
			Field:  "environment",
			Reason: "could not read process environment: " + err.Error(),
		}}}
	}

	values, problems := resolve(o.schema, k)
	if len(problems) > 0 {
		return nil, &ConfigurationError{Problems: problems}
	}

	typed := koanf.New(".")
	if err := typed.Load(valueMap(values), nil); err != nil {
		return nil, &ConfigurationError{Problems: []FieldError{{Field: "config", Reason: err.Error()}}}
	}
	cfg := &Config{}
	if err := typed.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, &ConfigurationError{Problems: []FieldError{{Field: "config", Reason: err.Error()}}}
	}

	problems = append(problems, validateStruct(cfg, o.schema)...)
	problems = append(problems, cfg.crossFieldProblems()...)
	if len(problems) > 0 {
		return nil, &ConfigurationError{Problems: problems}
	}
	return cfg, nil
}

// crossFieldProblems applies the rules that span more than one field.
func (c *Config) crossFieldProblems() []FieldError {
	if !c.IsProduction() {
		return nil
	}
	var problems []FieldError
	if c.Debug {
		problems = append(problems, FieldError{
			Field:  "debug",
			EnvVar: EnvVar("debug"),
			Value:  "true",
			Reason: "must be false when environment is production",
		})
	}
	if c.SecretKey == DefaultSecretKey {
		problems = append(problems, FieldError{
			Field:  "secret_key",
			EnvVar: EnvVar("secret_key"),
			Reason: "must be set to a non-default value when environment is production",
		})
	}
	return problems
}

func (c *Config) IsProduction() bool  { return c.Environment == Production }
func (c *Config) IsDevelopment() bool { return c.Environment == Development }
func (c *Config) IsTesting() bool     { return c.Environment == Testing }

// Address is the host:port the HTTP server binds to.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ServiceVersion is the version reported to the trace backend.
func (c *Config) ServiceVersion() string {
	if c.Observability.ServiceVersion != "" {
		return c.Observability.ServiceVersion
	}
	return c.Version
}

func (c *Config) TracingEnabled() bool  { return c.Observability.OTLPEndpoint != "" }
func (c *Config) NewRelicEnabled() bool { return c.Observability.NewRelicLicenseKey != "" }
func (c *Config) DatabaseEnabled() bool { return c.Database.URL != "" }

// AllowedOrigins returns the CORS origins. Without an explicit list every origin
// is allowed outside production and none in production.
func (c *Config) AllowedOrigins() []string {
	if len(c.Server.CORSAllowedOrigins) > 0 {
		return append([]string(nil), c.Server.CORSAllowedOrigins...)
	}
	if c.IsProduction() {
		return nil
	}
	return []string{"*"}
}

// Redacted returns the settings that may be shown to clients.
func (c *Config) Redacted() model.Settings {
	return model.Settings{
		AppName:         c.Name,
		AppVersion:      c.Version,
		Environment:     string(c.Environment),
		Debug:           c.Debug,
		APIPrefix:       c.APIPrefix,
		LogLevel:        c.LogLevel,
		LogFormat:       c.LogFormat,
		ServiceName:     c.Observability.ServiceName,
		ServiceVersion:  c.ServiceVersion(),
		TracingEnabled:  c.TracingEnabled(),
		MetricsEnabled:  c.Observability.MetricsEnabled,
		NewRelicEnabled: c.NewRelicEnabled(),
		DatabaseEnabled: c.DatabaseEnabled(),
		AllowedOrigins:  c.AllowedOrigins(),
	}
}

// MarshalZerologObject logs the redacted settings.
func (c *Config) MarshalZerologObject(e *zerolog.Event) {
	s := c.Redacted()
	e.Str("app_name", s.AppName).
		Str("version", s.AppVersion).
		Str("environment", s.Environment).
		Bool("debug", s.Debug).
		Str("log_level", s.LogLevel).
		Str("address", c.Address()).
		Bool("tracing", s.TracingEnabled).
		Bool("metrics", s.MetricsEnabled).
		Bool("new_relic", s.NewRelicEnabled).
		Bool("database", s.DatabaseEnabled)
}

// EnvVar renders the environment variable name for a configuration key.
func EnvVar(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "__"))
}

// envValue skips variables that are exported but empty, so they do not hide
// a value from the override file.
func envValue(name, value string) (string, any) {
	if strings.TrimSpace(value) == "" {
		return "", nil
	}
	return envKey(name), value
}

// envKey maps APP_SERVER__PORT to server.port. Names without the prefix map to "".
func envKey(s string) string {
	if !strings.HasPrefix(strings.ToUpper(s), EnvPrefix) {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(s[len(EnvPrefix):]), "__", ".")
}
