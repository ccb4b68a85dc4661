// Package config loads service configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	strutil "recruitline/pkg/platform/strings"
)

const (
	AuthModeStatic = "static"
	AuthModeJWT    = "jwt"
)

type Config struct {
	Server   ServerConfig
	Auth     AuthConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Log      LogConfig
}

type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	// TxTimeout bounds each admission transaction.
	TxTimeout time.Duration
}

// AuthConfig selects the bearer token validator. In static mode an empty
// APIToken is accepted at startup; every request then fails with a server
// configuration error.
type AuthConfig struct {
	Mode          string
	APIToken      string
	JWTSigningKey string
	JWTIssuer     string
}

// DatabaseConfig configures PostgreSQL. An empty URL selects in-memory stores.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the conversation cache. An empty URL disables it.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// KafkaConfig configures the event bus. No brokers means audit events stay in
// the outbox or in memory and no status consumer runs.
type KafkaConfig struct {
	Brokers           []string
	ClientID          string
	Group             string
	AuditTopic        string
	StatusTopic       string
	Partitions        int32
	ReplicationFactor int16
	OutboxInterval    time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ADDR", ":8080")
	v.SetDefault("READ_TIMEOUT", "10s")
	v.SetDefault("WRITE_TIMEOUT", "10s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")
	v.SetDefault("TX_TIMEOUT", "5s")

	v.SetDefault("AUTH_MODE", AuthModeStatic)
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")

	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	v.SetDefault("REDIS_DIAL_TIMEOUT", "5s")
	v.SetDefault("REDIS_READ_TIMEOUT", "3s")
	v.SetDefault("REDIS_WRITE_TIMEOUT", "3s")
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("KAFKA_CLIENT_ID", "recruitline")
	v.SetDefault("KAFKA_GROUP", "recruitline-status")
	v.SetDefault("KAFKA_AUDIT_TOPIC", "conversation-audit")
	v.SetDefault("KAFKA_STATUS_TOPIC", "conversation-status")
	v.SetDefault("KAFKA_PARTITIONS", 3)
	v.SetDefault("KAFKA_REPLICATION_FACTOR", 1)
	v.SetDefault("OUTBOX_INTERVAL", "1s")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

// Load reads configuration from the process environment. A .env file in the
// working directory, when present, fills variables that are not already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Server: ServerConfig{
			Addr:            v.GetString("ADDR"),
			ReadTimeout:     v.GetDuration("READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("WRITE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
			TxTimeout:       v.GetDuration("TX_TIMEOUT"),
		},
		Auth: AuthConfig{
			Mode:          strings.ToLower(strings.TrimSpace(v.GetString("AUTH_MODE"))),
			APIToken:      v.GetString("API_TOKEN"),
			JWTSigningKey: v.GetString("JWT_SIGNING_KEY"),
			JWTIssuer:     v.GetString("JWT_ISSUER"),
		},
		Database: DatabaseConfig{
			URL:             v.GetString("DATABASE_URL"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			URL:          v.GetString("REDIS_URL"),
			PoolSize:     v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns: v.GetInt("REDIS_MIN_IDLE_CONNS"),
			DialTimeout:  v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:  v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout: v.GetDuration("REDIS_WRITE_TIMEOUT"),
			CacheTTL:     v.GetDuration("CACHE_TTL"),
		},
		Kafka: KafkaConfig{
			Brokers:           splitList(v.GetString("KAFKA_BROKERS")),
			ClientID:          v.GetString("KAFKA_CLIENT_ID"),
			Group:             v.GetString("KAFKA_GROUP"),
			AuditTopic:        v.GetString("KAFKA_AUDIT_TOPIC"),
			StatusTopic:       v.GetString("KAFKA_STATUS_TOPIC"),
			Partitions:        v.GetInt32("KAFKA_PARTITIONS"),
			ReplicationFactor: int16(v.GetInt("KAFKA_REPLICATION_FACTOR")),
			OutboxInterval:    v.GetDuration("OUTBOX_INTERVAL"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Auth.Mode {
	case AuthModeStatic:
	case AuthModeJWT:
		if c.Auth.JWTSigningKey == "" {
			return errors.New("JWT_SIGNING_KEY is required when AUTH_MODE=jwt")
		}
	default:
		return fmt.Errorf("unknown AUTH_MODE %q", c.Auth.Mode)
	}
	if c.Server.TxTimeout <= 0 {
		return errors.New("TX_TIMEOUT must be positive")
	}
	return nil
}

// splitList parses a comma-separated list, dropping blanks and repeats.
func splitList(s string) []string {
	return strutil.DedupeAndTrim(strings.Split(s, ","))
}
