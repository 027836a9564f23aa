// Package config builds runtime configuration from environment variables so
// main stays lean. Memory-backed stores are the default; Postgres, Redis,
// and Kafka kick in when their connection settings are present.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr          string
	JWTSigningKey string
	JWTIssuer     string
	JWTAudience   string

	// VaultSecret keys at-rest credential encryption. Empty disables it.
	VaultSecret string

	NonceMaxTTL time.Duration

	PostgresDSN string
	Redis       RedisConfig
	Kafka       KafkaConfig
}

// RedisConfig carries Redis connection settings. An empty URL means Redis
// is not configured.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig carries the audit trail broker settings. No brokers means the
// audit trail stays on the configured store.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	cfg := Server{
		Addr:          envOr("WORLDPASS_ADDR", ":8080"),
		JWTSigningKey: envOr("WORLDPASS_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     envOr("WORLDPASS_JWT_ISSUER", "worldpass"),
		JWTAudience:   envOr("WORLDPASS_JWT_AUDIENCE", "worldpass-admin"),
		VaultSecret:   os.Getenv("WORLDPASS_VAULT_SECRET"),
		NonceMaxTTL:   envDuration("WORLDPASS_NONCE_MAX_TTL", 180*time.Second),
		PostgresDSN:   os.Getenv("WORLDPASS_POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("WORLDPASS_REDIS_URL"),
			PoolSize:     envInt("WORLDPASS_REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("WORLDPASS_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("WORLDPASS_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("WORLDPASS_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("WORLDPASS_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Topic: envOr("WORLDPASS_KAFKA_AUDIT_TOPIC", "worldpass.audit"),
		},
	}
	if brokers := os.Getenv("WORLDPASS_KAFKA_BROKERS"); brokers != "" {
		for _, broker := range strings.Split(brokers, ",") {
			if broker = strings.TrimSpace(broker); broker != "" {
				cfg.Kafka.Brokers = append(cfg.Kafka.Brokers, broker)
			}
		}
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
