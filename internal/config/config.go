package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config holds all configuration for the ZINC config service.
type Config struct {
	Port      int
	Version   string
	LogLevel  string
	API       APIConfig
	Store     StoreConfig
	Resolver  ResolverConfig
	Seed      SeedConfig
	Events    EventsConfig
	Telemetry TelemetryConfig
}

type APIConfig struct {
	// Keys empty disables API key auth.
	Keys        []string
	CORSOrigins []string
}

type StoreConfig struct {
	// Backend is "memory", "sqlite" or "postgres".
	Backend     string
	DataDir     string
	SQLitePath  string
	PostgresURL string
}

type ResolverConfig struct {
	// DefaultChannel is used when an instance carries no channel, channel_id
	// or platform field.
	DefaultChannel string
}

type SeedConfig struct {
	Catalog     bool
	File        string
	AutoUpgrade bool
}

type EventsConfig struct {
	// NATSURL and WebhookURL both empty disables event publishing.
	NATSURL       string
	Subject       string
	WebhookURL    string
	WebhookSecret string
}

type TelemetryConfig struct {
	Enabled        bool
	OTLPEndpoint   string
	ServiceName    string
	MetricsEnabled bool
}

// Load reads configuration from environment variables with sensible defaults.
func Load() *Config {
	dataDir := envStr("ZINC_DATA_DIR", defaultDataDir())
	return &Config{
		Port:     envInt("ZINC_PORT", 8080),
		Version:  envStr("ZINC_VERSION", "0.1.0"),
		LogLevel: envStr("ZINC_LOG_LEVEL", "info"),
		API: APIConfig{
			Keys:        envList("ZINC_API_KEYS", nil),
			CORSOrigins: envList("ZINC_CORS_ORIGINS", []string{"*"}),
		},
		Store: StoreConfig{
			Backend:     envStr("ZINC_STORE", "memory"),
			DataDir:     dataDir,
			SQLitePath:  envStr("ZINC_SQLITE_PATH", filepath.Join(dataDir, "zinc.db")),
			PostgresURL: envStr("ZINC_POSTGRES_URL", ""),
		},
		Resolver: ResolverConfig{
			DefaultChannel: envStr("ZINC_DEFAULT_CHANNEL", "x"),
		},
		Seed: SeedConfig{
			Catalog:     envBool("ZINC_SEED_CATALOG", true),
			File:        envStr("ZINC_SEED_FILE", ""),
			AutoUpgrade: envBool("ZINC_SEED_AUTO_UPGRADE", true),
		},
		Events: EventsConfig{
			NATSURL:       envStr("ZINC_NATS_URL", ""),
			Subject:       envStr("ZINC_NATS_SUBJECT", "zinc.config.changed"),
			WebhookURL:    envStr("ZINC_WEBHOOK_URL", ""),
			WebhookSecret: envStr("ZINC_WEBHOOK_SECRET", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:        envBool("OTEL_ENABLED", false),
			OTLPEndpoint:   envStr("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			ServiceName:    envStr("OTEL_SERVICE_NAME", "zinc-config"),
			MetricsEnabled: envBool("ZINC_METRICS_ENABLED", true),
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".zinc"
	}
	return filepath.Join(home, ".zinc")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

// envList splits a comma-separated variable, dropping empty items.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
