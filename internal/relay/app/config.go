package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Region   string // Region code this relay serves (default: LOCAL)
	Country  string // Country reported to clients (default: same as region)
	PublicIP string // Optional: egress address reported to clients

	SessionStore string // Session table driver: memory, redis (default: memory)
	RedisAddr    string // Redis address for the redis driver (default: localhost:6379)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
	SweepInterval       time.Duration // Expired session sweep interval (default: 1m)
	UpstreamTimeout     time.Duration // Proxied request timeout (default: 30s)
}

func LoadConfig() Config {
	cfg := Config{
		Region:              getEnvOrDefault("RELAY_REGION", "LOCAL"),
		Country:             os.Getenv("RELAY_COUNTRY"),
		PublicIP:            os.Getenv("RELAY_PUBLIC_IP"),
		SessionStore:        getEnvOrDefault("RELAY_SESSION_STORE", "memory"),
		RedisAddr:           getEnvOrDefault("RELAY_REDIS_ADDR", "localhost:6379"),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		SweepInterval:       getEnvDurationOrDefault("RELAY_SWEEP_INTERVAL", time.Minute),
		UpstreamTimeout:     getEnvDurationOrDefault("RELAY_UPSTREAM_TIMEOUT", 30*time.Second),
	}

	if cfg.Country == "" {
		cfg.Country = cfg.Region
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// e.g. "1h", "30m", "90s"
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
