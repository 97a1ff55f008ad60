// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
// One struct covers both services; each main validates the fields it needs.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// RedisAddr is the Redis address used for rate limiting and event dedup (e.g. localhost:6379).
	RedisAddr string `mapstructure:"REDIS_ADDR"`

	// JWTPrivateKey is the PEM-encoded signing private key (RSA or ECDSA) or a path to a file.
	JWTPrivateKey string `mapstructure:"JWT_PRIVATE_KEY"`
	// JWTPublicKey is the PEM-encoded signing public key or a path to a file.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the iss claim (e.g. "dinehub-auth").
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the aud claim (e.g. "dinehub-api").
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// JWTAccessTTL is the access token lifetime (e.g. "15m").
	JWTAccessTTL string `mapstructure:"JWT_ACCESS_TTL"`
	// JWTRefreshTTL is the refresh token lifetime; sessions expire with it (e.g. "168h").
	JWTRefreshTTL string `mapstructure:"JWT_REFRESH_TTL"`

	// TokenEncryptionEnabled turns on envelope encryption of issued tokens.
	TokenEncryptionEnabled bool `mapstructure:"TOKEN_ENCRYPTION_ENABLED"`
	// TokenEncryptionKeyID is the key id stamped on encrypted tokens and matched
	// against the X-Key-ID request header.
	TokenEncryptionKeyID string `mapstructure:"TOKEN_ENCRYPTION_KEY_ID"`
	// TokenEncryptionPrivateKey is the PEM-encoded RSA private key used to decrypt
	// inbound tokens, or a path to a file. Required when encryption is enabled.
	TokenEncryptionPrivateKey string `mapstructure:"TOKEN_ENCRYPTION_PRIVATE_KEY"`
	// TokenEncryptionPublicKey is the matching RSA public key used to encrypt
	// issued tokens, or a path to a file.
	TokenEncryptionPublicKey string `mapstructure:"TOKEN_ENCRYPTION_PUBLIC_KEY"`

	// BcryptCost is the bcrypt cost factor (4-31); default 12.
	BcryptCost int `mapstructure:"BCRYPT_COST"`

	// AuthCookieName is the cookie carrying the access token; default dinehub_token.
	AuthCookieName string `mapstructure:"AUTH_COOKIE_NAME"`
	// RefreshCookieName is the cookie carrying the refresh token (auth service only).
	RefreshCookieName string `mapstructure:"REFRESH_COOKIE_NAME"`
	// CookieSecure marks auth cookies Secure; enable behind TLS.
	CookieSecure bool `mapstructure:"COOKIE_SECURE"`

	// SessionAuthorityMode selects the session authority variant: "local" (the
	// service owns the sessions table) or "remote" (validate via the auth service).
	SessionAuthorityMode string `mapstructure:"SESSION_AUTHORITY_MODE"`
	// AuthServiceBaseURL is the auth service base URL for the remote variant
	// (e.g. http://localhost:8080).
	AuthServiceBaseURL string `mapstructure:"AUTH_SERVICE_BASE_URL"`
	// AuthServiceTimeout bounds each remote validation call (e.g. "2s").
	AuthServiceTimeout string `mapstructure:"AUTH_SERVICE_TIMEOUT"`

	// EndpointCacheTTL is how long a path classification is cached (e.g. "30s").
	EndpointCacheTTL string `mapstructure:"ENDPOINT_CACHE_TTL"`

	// KafkaBrokers is a comma-separated list of Kafka broker addresses. Empty disables the event bridge.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	// KafkaTopic is the account lifecycle event topic (default dinehub-account-events).
	KafkaTopic string `mapstructure:"KAFKA_TOPIC"`
	// KafkaDLQTopic receives events that repeatedly fail to apply.
	KafkaDLQTopic string `mapstructure:"KAFKA_DLQ_TOPIC"`
	// KafkaGroupID is the consumer group ID (profile service).
	KafkaGroupID string `mapstructure:"KAFKA_GROUP_ID"`

	// OTLPEndpoint is the OTLP/gRPC collector endpoint; empty disables telemetry export.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`

	// LogLevel is the minimum log level ("debug", "info", "warn", "error").
	LogLevel string `mapstructure:"LOG_LEVEL"`
	// Env is the application environment ("development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("JWT_ISSUER", "dinehub-auth")
	v.SetDefault("JWT_AUDIENCE", "dinehub-api")
	v.SetDefault("JWT_ACCESS_TTL", "15m")
	v.SetDefault("JWT_REFRESH_TTL", "168h") // 7d
	v.SetDefault("TOKEN_ENCRYPTION_ENABLED", false)
	v.SetDefault("TOKEN_ENCRYPTION_KEY_ID", "primary")
	v.SetDefault("BCRYPT_COST", 12)
	v.SetDefault("AUTH_COOKIE_NAME", "dinehub_token")
	v.SetDefault("REFRESH_COOKIE_NAME", "dinehub_refresh")
	v.SetDefault("COOKIE_SECURE", false)
	v.SetDefault("SESSION_AUTHORITY_MODE", "local")
	v.SetDefault("AUTH_SERVICE_BASE_URL", "")
	v.SetDefault("AUTH_SERVICE_TIMEOUT", "2s")
	v.SetDefault("ENDPOINT_CACHE_TTL", "30s")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_TOPIC", "dinehub-account-events")
	v.SetDefault("KAFKA_DLQ_TOPIC", "dinehub-account-events-dlq")
	v.SetDefault("KAFKA_GROUP_ID", "dinehub-profile-projector")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_ENV", "development")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	switch cfg.SessionAuthorityMode {
	case "local", "remote":
	default:
		return nil, errors.New("config: SESSION_AUTHORITY_MODE must be local or remote")
	}
	if cfg.SessionAuthorityMode == "remote" && cfg.AuthServiceBaseURL == "" {
		return nil, errors.New("config: AUTH_SERVICE_BASE_URL is required when SESSION_AUTHORITY_MODE=remote")
	}
	if cfg.TokenEncryptionEnabled && cfg.TokenEncryptionPrivateKey == "" {
		return nil, errors.New("config: TOKEN_ENCRYPTION_PRIVATE_KEY is required when TOKEN_ENCRYPTION_ENABLED=true")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 12
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// AccessTTL parses JWTAccessTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTAccessTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// RefreshTTL parses JWTRefreshTTL as a time.Duration. Returns 168h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	d, err := time.ParseDuration(c.JWTRefreshTTL)
	if err != nil || d <= 0 {
		return 168 * time.Hour
	}
	return d
}

// RemoteTimeout parses AuthServiceTimeout. Returns 2s if unset or invalid.
func (c *Config) RemoteTimeout() time.Duration {
	d, err := time.ParseDuration(c.AuthServiceTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// RegistryCacheTTL parses EndpointCacheTTL. Returns 30s if unset or invalid.
func (c *Config) RegistryCacheTTL() time.Duration {
	d, err := time.ParseDuration(c.EndpointCacheTTL)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// KafkaBrokersList returns Kafka broker addresses from the comma-separated config.
// Used to decide if the event bridge is enabled (non-empty list) and to create producers and readers.
func (c *Config) KafkaBrokersList() []string {
	if c == nil || c.KafkaBrokers == "" {
		return nil
	}
	parts := strings.Split(c.KafkaBrokers, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
