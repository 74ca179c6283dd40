package model

// Info is the identifying, non-sensitive part of the service settings.
type Info struct {
	AppName     string `json:"app_name"`
	Version     string `json:"version"`
	Environment string `json:"environment"`
}

// Greeting is returned by GET /.
type Greeting struct {
	Message string `json:"message"`
	Info
}

// Health is returned by GET /health.
type Health struct {
	Status string `json:"status"`
	Info
}

// Readiness is returned by GET /ready.
type Readiness struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components"`
}

// Settings is the redacted view of the resolved configuration.
// It has no field for the secret key, the database URL or any license key.
type Settings struct {
	AppName         string   `json:"app_name"`
	AppVersion      string   `json:"app_version"`
	Environment     string   `json:"environment"`
	Debug           bool     `json:"debug"`
	APIPrefix       string   `json:"api_prefix"`
	LogLevel        string   `json:"log_level"`
	LogFormat       string   `json:"log_format"`
	ServiceName     string   `json:"otel_service_name"`
	ServiceVersion  string   `json:"otel_service_version"`
	TracingEnabled  bool     `json:"tracing_enabled"`
	MetricsEnabled  bool     `json:"metrics_enabled"`
	NewRelicEnabled bool     `json:"new_relic_enabled"`
	DatabaseEnabled bool     `json:"database_enabled"`
	AllowedOrigins  []string `json:"allowed_origins"`
}
