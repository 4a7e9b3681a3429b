package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	CoreDatabaseURL string

	TemporalAddress       string
	TemporalNamespace     string
	TemporalTLSCert       string
	TemporalTLSKey        string
	TemporalTLSCACert     string
	TemporalTLSServerName string

	HTTPListenAddr string
	MetricsAddr    string

	LogLevel    string
	ServiceName string

	// RedisURL backs the one-time password token store. When empty the
	// in-memory store is used, which only works for single-process setups.
	RedisURL string

	// SiteSecret derives the key that encrypts password tokens at rest.
	SiteSecret string

	// ProvidersFile points at the YAML file describing email backends.
	ProvidersFile string

	PostmarkServerToken  string
	PostmarkAccountToken string
	PostmarkSender       string

	PasswordTokenTTL      time.Duration
	AuditLogRetentionDays int
}

func Load() (*Config, error) {
	cfg := &Config{
		CoreDatabaseURL:       getEnv("CORE_DATABASE_URL", ""),
		TemporalAddress:       getEnv("TEMPORAL_ADDRESS", "localhost:7233"),
		TemporalNamespace:     getEnv("TEMPORAL_NAMESPACE", "default"),
		TemporalTLSCert:       getEnv("TEMPORAL_TLS_CERT", ""),
		TemporalTLSKey:        getEnv("TEMPORAL_TLS_KEY", ""),
		TemporalTLSCACert:     getEnv("TEMPORAL_TLS_CA_CERT", ""),
		TemporalTLSServerName: getEnv("TEMPORAL_TLS_SERVER_NAME", ""),
		HTTPListenAddr:        getEnv("HTTP_LISTEN_ADDR", ":8090"),
		MetricsAddr:           getEnv("METRICS_ADDR", ":9100"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		ServiceName:           getEnv("SERVICE_NAME", ""),
		RedisURL:              getEnv("REDIS_URL", ""),
		SiteSecret:            getEnv("SITE_SECRET", ""),
		ProvidersFile:         getEnv("PROVIDERS_FILE", "providers.yaml"),
		PostmarkServerToken:   getEnv("POSTMARK_SERVER_TOKEN", ""),
		PostmarkAccountToken:  getEnv("POSTMARK_ACCOUNT_TOKEN", ""),
		PostmarkSender:        getEnv("POSTMARK_SENDER", ""),
	}

	ttl, err := getEnvInt("PASSWORD_TOKEN_TTL_SECONDS", 600)
	if err != nil {
		return nil, err
	}
	cfg.PasswordTokenTTL = time.Duration(ttl) * time.Second

	retention, err := getEnvInt("AUDIT_LOG_RETENTION_DAYS", 90)
	if err != nil {
		return nil, err
	}
	cfg.AuditLogRetentionDays = retention

	return cfg, nil
}

// Validate checks that the fields required by the given role are set.
// Role is "core-api" or "worker".
func (c *Config) Validate(role string) error {
	var missing []string

	if c.CoreDatabaseURL == "" {
		missing = append(missing, "CORE_DATABASE_URL")
	}
	if c.TemporalAddress == "" {
		missing = append(missing, "TEMPORAL_ADDRESS")
	}
	if role == "core-api" && c.HTTPListenAddr == "" {
		missing = append(missing, "HTTP_LISTEN_ADDR")
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	if (c.TemporalTLSCert == "") != (c.TemporalTLSKey == "") {
		return fmt.Errorf("TEMPORAL_TLS_CERT and TEMPORAL_TLS_KEY must both be set or both be empty")
	}

	if c.PasswordTokenTTL <= 0 {
		return fmt.Errorf("PASSWORD_TOKEN_TTL_SECONDS must be positive")
	}

	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
