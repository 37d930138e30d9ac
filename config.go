package misauth

import (
	"errors"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

// Config defines a public type used by misauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Backend  BackendConfig
	Session  SessionConfig
	Realtime RealtimeConfig
	Routes   RouteConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendConfig defines a public type used by misauth APIs.
//
// BackendConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type BackendConfig struct {
	BaseURL string        `env:"MISAUTH_BACKEND_BASE_URL"`
	Timeout time.Duration `env:"MISAUTH_BACKEND_TIMEOUT,default=10s"`
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig defines a public type used by misauth APIs.
//
// SessionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type SessionConfig struct {
	RedisPrefix string        `env:"MISAUTH_SESSION_REDIS_PREFIX,default=misauth:"`
	RedisTTL    time.Duration `env:"MISAUTH_SESSION_REDIS_TTL,default=720h"`
}

/*
====================================
REALTIME CONFIG
====================================
*/

// RealtimeConfig defines a public type used by misauth APIs.
//
// RealtimeConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RealtimeConfig struct {
	InboundChannel  string        `env:"MISAUTH_REALTIME_INBOUND_CHANNEL,default=misauth.events.in"`
	OutboundChannel string        `env:"MISAUTH_REALTIME_OUTBOUND_CHANNEL,default=misauth.events.out"`
	ConnectTimeout  time.Duration `env:"MISAUTH_REALTIME_CONNECT_TIMEOUT,default=5s"`
}

/*
====================================
ROUTE CONFIG
====================================
*/

// RouteConfig defines a public type used by misauth APIs.
//
// RouteConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type RouteConfig struct {
	SignIn               string `env:"MISAUTH_ROUTE_SIGN_IN,default=/sign-in"`
	Unauthorized         string `env:"MISAUTH_ROUTE_UNAUTHORIZED,default=/unauthorized"`
	SubscriptionRequired string `env:"MISAUTH_ROUTE_SUBSCRIPTION_REQUIRED,default=/subscription-required"`
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by misauth APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool `env:"MISAUTH_AUDIT_ENABLED,default=false"`
	BufferSize int  `env:"MISAUTH_AUDIT_BUFFER_SIZE,default=256"`
	DropIfFull bool `env:"MISAUTH_AUDIT_DROP_IF_FULL,default=true"`
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by misauth APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool `env:"MISAUTH_METRICS_ENABLED,default=false"`
	EnableLatencyHistograms bool `env:"MISAUTH_METRICS_LATENCY_HISTOGRAMS,default=false"`
}

// DefaultConfig returns the configuration used when nothing is
// overridden.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			Timeout: 10 * time.Second,
		},
		Session: SessionConfig{
			RedisPrefix: "misauth:",
			RedisTTL:    30 * 24 * time.Hour,
		},
		Realtime: RealtimeConfig{
			InboundChannel:  "misauth.events.in",
			OutboundChannel: "misauth.events.out",
			ConnectTimeout:  5 * time.Second,
		},
		Routes: RouteConfig{
			SignIn:               "/sign-in",
			Unauthorized:         "/unauthorized",
			SubscriptionRequired: "/subscription-required",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
		},
	}
}

// LoadConfigFromEnv describes the loadconfigfromenv operation and its observable behavior.
//
// LoadConfigFromEnv may return an error when input validation, dependency calls, or security checks fail.
func LoadConfigFromEnv() (Config, error) {
	cfg := defaultConfig()
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
func (c Config) Validate() error {
	if c.Backend.Timeout <= 0 {
		return errors.New("misauth: backend timeout must be positive")
	}
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("misauth: audit buffer size must be positive when audit is enabled")
	}
	for _, route := range []string{c.Routes.SignIn, c.Routes.Unauthorized, c.Routes.SubscriptionRequired} {
		if !strings.HasPrefix(route, "/") {
			return errors.New("misauth: routes must be absolute paths")
		}
	}
	if c.Realtime.ConnectTimeout <= 0 {
		return errors.New("misauth: realtime connect timeout must be positive")
	}
	return nil
}
