package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	// DriverMemory keeps everything in process and copies its state on every write.
	// It is meant for local development and tests, and is refused in release mode.
	DriverMemory = "memory"
)

type Config struct {
	Port           int
	GinMode        string
	EndpointPrefix string

	StoreDriver string
	DatabaseURL string

	KafkaBrokers       []string
	KafkaOrderTopic    string
	KafkaAccountTopic  string
	KafkaConsumerGroup string

	ConsulAddr  string
	ServiceName string
	ServiceHost string

	JWTPublicKeyPath string

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeSuccessURL    string
	StripeCancelURL     string

	CORSAllowedOrigins []string
}

// Load reads the environment, after an optional .env file, into a Config.
func Load() (Config, error) {
	// .env is optional, the process environment wins
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	cfg := Config{
		Port:                port,
		GinMode:             getEnv("GIN_MODE", "debug"),
		EndpointPrefix:      getEnv("SERVICE_ENDPOINT_PREFIX", "/api/v1/store"),
		StoreDriver:         getEnv("STORE_DRIVER", DriverPostgres),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic:     getEnv("KAFKA_ORDER_TOPIC", "storefront.order-created"),
		KafkaAccountTopic:   getEnv("KAFKA_ACCOUNT_TOPIC", "user-service.account-created"),
		KafkaConsumerGroup:  getEnv("KAFKA_CONSUMER_GROUP", "storefront"),
		ConsulAddr:          os.Getenv("CONSUL_ADDR"),
		ServiceName:         getEnv("SERVICE_NAME", "storefront"),
		ServiceHost:         getEnv("SERVICE_HOST", "localhost"),
		JWTPublicKeyPath:    os.Getenv("JWT_PUBLIC_KEY_PATH"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeSuccessURL:    getEnv("STRIPE_SUCCESS_URL", "https://example.com/success"),
		StripeCancelURL:     getEnv("STRIPE_CANCEL_URL", "https://example.com/cancel"),
		CORSAllowedOrigins:  splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.StoreDriver {
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s store", DriverPostgres)
		}
	case DriverMemory:
		if c.GinMode == gin.ReleaseMode {
			return fmt.Errorf("the %s store is for development only and cannot run with GIN_MODE=%s", DriverMemory, gin.ReleaseMode)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTPublicKeyPath == "" {
		return fmt.Errorf("JWT_PUBLIC_KEY_PATH is not set")
	}
	if !strings.HasPrefix(c.EndpointPrefix, "/") {
		return fmt.Errorf("SERVICE_ENDPOINT_PREFIX must start with /")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("APP_PORT out of range: %d", c.Port)
	}
	return nil
}

func (c Config) KafkaEnabled() bool  { return len(c.KafkaBrokers) > 0 }
func (c Config) ConsulEnabled() bool { return c.ConsulAddr != "" }
func (c Config) StripeEnabled() bool { return c.StripeSecretKey != "" }

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
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
