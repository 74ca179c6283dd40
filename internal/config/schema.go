package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/v2"
)

// Kind is the type a raw setting is coerced to.
type Kind string

const (
	KindString   Kind = "string"
	KindEnum     Kind = "enum"
	KindBool     Kind = "bool"
	KindInt      Kind = "int"
	KindFloat    Kind = "float"
	KindDuration Kind = "duration"
	KindList     Kind = "list"
)

// Field describes one setting: its key, type, default and how it is validated.
type Field struct {
	Key         string
	Kind        Kind
	Default     string
	Options     []string
	Required    bool
	Secret      bool
	Description string

	// NoProductionDefault drops Default when the environment is production,
	// which makes the field required there.
	NoProductionDefault bool
}

// FieldInfo is the client-facing description of a Field.
type FieldInfo struct {
	Name        string   `json:"name"`
	EnvVar      string   `json:"env_var"`
	Type        string   `json:"type"`
	Required    bool     `json:"required"`
	Default     string   `json:"default,omitempty"`
	Options     []string `json:"options,omitempty"`
	Secret      bool     `json:"secret"`
	Description string   `json:"description"`
}

var schema = []Field{
	{Key: "name", Kind: KindString, Default: "Starter API", Description: "Application name"},
	{Key: "version", Kind: KindString, Default: "0.1.0", Description: "Application version"},
	{Key: "environment", Kind: KindEnum, Default: string(Development),
		Options:     []string{string(Development), string(Staging), string(Production), string(Testing)},
		Description: "Deployment environment"},
	{Key: "debug", Kind: KindBool, Default: "true", Description: "Debug mode; enables the interactive API docs. Must be false in production"},
	{Key: "secret_key", Kind: KindString, Default: DefaultSecretKey, Secret: true, NoProductionDefault: true,
		Description: "Secret key for signing; required in production"},
	{Key: "log_level", Kind: KindEnum, Default: "info", Options: []string{"debug", "info", "warn", "error"}, Description: "Minimum log level"},
	{Key: "log_format", Kind: KindEnum, Default: "json", Options: []string{"json", "console"}, Description: "Log output format"},
	{Key: "api_prefix", Kind: KindString, Default: "/api/v1", Description: "Prefix for versioned API routes and docs"},

	{Key: "server.host", Kind: KindString, Default: "0.0.0.0", Description: "Listen host"},
	{Key: "server.port", Kind: KindInt, Default: "8000", Description: "Listen port"},
	{Key: "server.read_timeout", Kind: KindDuration, Default: "15s", Description: "HTTP read timeout"},
	{Key: "server.write_timeout", Kind: KindDuration, Default: "15s", Description: "HTTP write timeout"},
	{Key: "server.idle_timeout", Kind: KindDuration, Default: "60s", Description: "HTTP keep-alive idle timeout"},
	{Key: "server.shutdown_timeout", Kind: KindDuration, Default: "10s", Description: "Grace period for in-flight requests on shutdown"},
	{Key: "server.cors_allowed_origins", Kind: KindList, Description: "Comma separated CORS origins; empty allows all outside production"},

	{Key: "observability.service_name", Kind: KindString, Default: "starter-api", Description: "Service name attached to logs and spans"},
	{Key: "observability.service_version", Kind: KindString, Description: "Service version for spans; defaults to version"},
	{Key: "observability.otlp_endpoint", Kind: KindString, Description: "OTLP gRPC collector endpoint (host:port or URL); empty disables tracing"},
	{Key: "observability.otlp_insecure", Kind: KindBool, Default: "true", Description: "Disable TLS towards the collector"},
	{Key: "observability.sample_ratio", Kind: KindFloat, Default: "1", Description: "Fraction of root traces sampled"},
	{Key: "observability.metrics_enabled", Kind: KindBool, Default: "true", Description: "Expose Prometheus metrics on /metrics"},
	{Key: "observability.new_relic_license_key", Kind: KindString, Secret: true, Description: "New Relic license key; enables APM when set"},

	{Key: "database.url", Kind: KindString, Secret: true, Description: "PostgreSQL URL; enables the readiness check when set"},
	{Key: "database.max_conns", Kind: KindInt, Default: "4", Description: "Maximum pool connections"},
}

// Fields describes every setting the resolver understands.
func Fields() []FieldInfo {
	out := make([]FieldInfo, 0, len(schema))
	for _, f := range schema {
		info := FieldInfo{
			Name:        f.Key,
			EnvVar:      EnvVar(f.Key),
			Type:        string(f.Kind),
			Required:    f.Required || f.NoProductionDefault,
			Options:     f.Options,
			Secret:      f.Secret,
			Description: f.Description,
		}
		if !f.Secret {
			info.Default = f.Default
		}
		out = append(out, info)
	}
	return out
}

// resolve coerces the raw values in k according to fields, falling back to
// defaults. It returns typed values keyed by flat key plus every problem found.
func resolve(fields []Field, k *koanf.Koanf) (map[string]any, []FieldError) {
	values := make(map[string]any, len(fields))
	var problems []FieldError

	for _, f := range fields {
		raw := strings.TrimSpace(k.String(f.Key))
		if raw == "" {
			production := values["environment"] == string(Production)
			if f.Required || (f.NoProductionDefault && production) {
				reason := "is required"
				if !f.Required {
					reason = "is required when environment is production"
				}
				problems = append(problems, FieldError{Field: f.Key, EnvVar: EnvVar(f.Key), Reason: reason})
				continue
			}
			raw = f.Default
			if raw == "" {
				continue
			}
		}

		v, err := f.coerce(raw)
		if err != nil {
			fe := FieldError{Field: f.Key, EnvVar: EnvVar(f.Key), Reason: err.Error()}
			if !f.Secret {
				fe.Value = raw
			}
			problems = append(problems, fe)
			continue
		}
		values[f.Key] = v
	}
	return values, problems
}

var errNotBool = errors.New("must be a boolean (true/false, 1/0, yes/no, on/off)")

func (f Field) coerce(raw string) (any, error) {
	switch f.Kind {
	case KindString:
		return raw, nil
	case KindEnum:
		return strings.ToLower(raw), nil
	case KindBool:
		switch strings.ToLower(raw) {
		case "1", "true", "t", "yes", "y", "on":
			return true, nil
		case "0", "false", "f", "no", "n", "off":
			return false, nil
		}
		return nil, errNotBool
	case KindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("must be an integer")
		}
		return n, nil
	case KindFloat:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.New("must be a number")
		}
		return n, nil
	case KindDuration:
		// bare integers are seconds
		if n, err := strconv.Atoi(raw); err == nil {
			return time.Duration(n) * time.Second, nil
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, errors.New("must be a duration such as 15s or 1m")
		}
		return d, nil
	case KindList:
		var out []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported kind %q", f.Kind)
}
