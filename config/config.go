package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the relay reads from the environment.
type Config struct {
	Port     string
	Env      string
	LogLevel string

	AllowedOrigins []string

	// SessionSecret signs the handshake tokens issued by the auth
	// service. Required unless TrustHandshake is set.
	SessionSecret string

	// TrustHandshake restores the legacy behavior of accepting the
	// client-asserted userId query parameter. Development only.
	TrustHandshake bool

	// NATSURL, when set, routes bridge publishes over a shared NATS
	// subject so multiple relay processes can serve one user base.
	NATSURL string

	StoreURL     string
	StoreTimeout time.Duration
}

// Load reads configuration from environment variables, applying
// development defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:           getEnv("PORT", "8080"),
		Env:            getEnv("ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		TrustHandshake: getEnvBool("TRUST_HANDSHAKE", false),
		NATSURL:        os.Getenv("NATS_URL"),
		StoreURL:       getEnv("STORE_URL", "http://localhost:4000"),
		StoreTimeout:   getEnvSeconds("STORE_TIMEOUT", 10*time.Second),
	}

	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000")
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	if cfg.SessionSecret == "" && !cfg.TrustHandshake {
		return Config{}, errors.New("SESSION_SECRET is required unless TRUST_HANDSHAKE is set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}
