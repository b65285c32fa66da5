// Package config содержит логику чтения конфигурации витрины.
package config

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	defaultRunAddress    = "localhost:8080"
	defaultPublicBaseURL = "http://localhost:8080"
)

// Config содержит параметры конфигурации витрины.
type Config struct {
	RunAddress        string `env:"RUN_ADDRESS"`
	DatabaseURI       string `env:"DATABASE_URI"`
	AuthSecret        string `env:"AUTH_SECRET"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`
	PublicBaseURL     string `env:"PUBLIC_BASE_URL"`

	S3Bucket    string `env:"S3_BUCKET"`
	S3Region    string `env:"S3_REGION" envDefault:"us-east-1"`
	S3Endpoint  string `env:"S3_ENDPOINT"`
	S3PublicURL string `env:"S3_PUBLIC_URL"`

	KafkaBrokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"storefront.purchases"`

	CheckoutRPS   float64 `env:"CHECKOUT_RPS" envDefault:"5"`
	CheckoutBurst int     `env:"CHECKOUT_BURST" envDefault:"10"`

	PendingAuditInterval time.Duration `env:"PENDING_AUDIT_INTERVAL" envDefault:"1m"`
	PendingStaleAfter    time.Duration `env:"PENDING_STALE_AFTER" envDefault:"30m"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
// Значения из окружения имеют приоритет над флагами.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envAuthSecret := cfg.AuthSecret
	envAdminPasswordHash := cfg.AdminPasswordHash
	envPublicBaseURL := cfg.PublicBaseURL
	envS3Bucket := cfg.S3Bucket
	envKafkaBrokers := cfg.KafkaBrokers

	var kafkaBrokers string

	flag.StringVar(&cfg.RunAddress, "a", defaultRunAddress, "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.AuthSecret, "s", "", "secret for signing admin cookies")
	flag.StringVar(&cfg.AdminPasswordHash, "p", "", "bcrypt hash of the admin password")
	flag.StringVar(&cfg.PublicBaseURL, "u", defaultPublicBaseURL, "public base URL for payment links")
	flag.StringVar(&cfg.S3Bucket, "b", "", "S3 bucket for digital content")
	flag.StringVar(&kafkaBrokers, "k", "", "comma separated Kafka brokers")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envAuthSecret != "" {
		cfg.AuthSecret = envAuthSecret
	}
	if envAdminPasswordHash != "" {
		cfg.AdminPasswordHash = envAdminPasswordHash
	}
	if envPublicBaseURL != "" {
		cfg.PublicBaseURL = envPublicBaseURL
	}
	if envS3Bucket != "" {
		cfg.S3Bucket = envS3Bucket
	}

	cfg.KafkaBrokers = envKafkaBrokers
	if len(cfg.KafkaBrokers) == 0 && kafkaBrokers != "" {
		cfg.KafkaBrokers = splitList(kafkaBrokers)
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = defaultRunAddress
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
