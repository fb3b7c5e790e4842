// Package config builds typed configuration from environment variables so main
// stays lean. A .env file is honored in development; real environments set the
// variables directly.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server    ServerConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	S3        S3Config
	Kafka     KafkaConfig
	Verifier  VerifierConfig
	Assistant AssistantConfig
	Auth      AuthConfig
	Upload    UploadConfig
}

type ServerConfig struct {
	Addr            string        `envconfig:"SEVA_ADDR" default:":8080"`
	ReadTimeout     time.Duration `envconfig:"SEVA_READ_TIMEOUT" default:"10s"`
	WriteTimeout    time.Duration `envconfig:"SEVA_WRITE_TIMEOUT" default:"30s"`
	ShutdownTimeout time.Duration `envconfig:"SEVA_SHUTDOWN_TIMEOUT" default:"10s"`
}

type PostgresConfig struct {
	// URL is optional; when empty the service runs on in-memory stores.
	URL string `envconfig:"DATABASE_URL"`
}

type RedisConfig struct {
	// URL is optional; when empty the profile cache is disabled and reads
	// always hit the primary store.
	URL          string        `envconfig:"REDIS_URL"`
	PoolSize     int           `envconfig:"REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"REDIS_WRITE_TIMEOUT" default:"3s"`
	ProfileTTL   time.Duration `envconfig:"REDIS_PROFILE_TTL" default:"5m"`
}

type S3Config struct {
	// Bucket is optional; when empty uploaded files are kept in memory,
	// which is only suitable for development.
	Bucket string `envconfig:"S3_BUCKET"`
	Region string `envconfig:"S3_REGION" default:"ap-south-1"`
}

type KafkaConfig struct {
	// Brokers is optional; when empty audit events stay in the in-memory
	// store.
	Brokers    []string `envconfig:"KAFKA_BROKERS"`
	AuditTopic string   `envconfig:"KAFKA_AUDIT_TOPIC" default:"seva.audit"`
}

type VerifierConfig struct {
	BaseURL string        `envconfig:"VERIFIER_URL" default:"http://localhost:5001"`
	Timeout time.Duration `envconfig:"VERIFIER_TIMEOUT" default:"30s"`
}

type AssistantConfig struct {
	BaseURL string        `envconfig:"ASSISTANT_URL"`
	APIKey  string        `envconfig:"ASSISTANT_API_KEY"`
	Model   string        `envconfig:"ASSISTANT_MODEL" default:"gpt-4o-mini"`
	Timeout time.Duration `envconfig:"ASSISTANT_TIMEOUT" default:"30s"`
}

type AuthConfig struct {
	JWTSigningKey string        `envconfig:"JWT_SIGNING_KEY" default:"dev-secret-key-change-in-production"`
	TokenTTL      time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"24h"`
	Issuer        string        `envconfig:"AUTH_ISSUER" default:"seva"`
}

type UploadConfig struct {
	MaxBytes int64 `envconfig:"UPLOAD_MAX_BYTES" default:"10485760"`
}

// Load reads configuration from the environment. A missing .env file is not
// an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := new(Config)
	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	return cfg, nil
}
