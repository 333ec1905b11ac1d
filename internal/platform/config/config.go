// Package config builds process configuration from environment variables
// so main stays lean. Every external collaborator gets its own section;
// empty sections mean the in-memory fallback is used.
package config

import (
	"os"
	"strings"
	"time"
)

// Config is the full process configuration.
type Config struct {
	Addr          string
	JWTSigningKey string

	// Feed selects the change feed transport: "memory", "redis", "kafka".
	Feed string

	PostgresDSN string
	Redis       RedisConfig
	Kafka       KafkaConfig
	SMTP        SMTPConfig
	Search      SearchConfig
}

type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
	Group   string
}

type SMTPConfig struct {
	Addr     string
	Username string
	Password string
	Source   string // From address for account mail
}

type SearchConfig struct {
	BaseURL string
	AppID   string
	APIKey  string
}

// FromEnv reads configuration from the environment.
func FromEnv() Config {
	cfg := Config{
		Addr:          getenv("LUDENDORFF_ADDR", ":8080"),
		JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		Feed:          getenv("CHANGE_FEED", "memory"),
		PostgresDSN:   os.Getenv("POSTGRES_DSN"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Topic: getenv("KAFKA_TOPIC", "ludendorff.changes"),
			Group: getenv("KAFKA_GROUP", "audit-triggers"),
		},
		SMTP: SMTPConfig{
			Addr:     os.Getenv("SMTP_ADDR"),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			Source:   getenv("SMTP_SOURCE", "no-reply@ludendorff.local"),
		},
		Search: SearchConfig{
			BaseURL: os.Getenv("SEARCH_BASE_URL"),
			AppID:   os.Getenv("SEARCH_APP_ID"),
			APIKey:  os.Getenv("SEARCH_API_KEY"),
		},
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
