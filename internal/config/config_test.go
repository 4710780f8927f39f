package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("JWT_PUBLIC_KEY_PATH", "/tmp/key.pem")
	t.Setenv("KAFKA_BROKERS", " kafka-1:9092, ,kafka-2:9092")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/api/v1/store", cfg.EndpointPrefix)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "user-service.account-created", cfg.KafkaAccountTopic)
	assert.True(t, cfg.KafkaEnabled())
	assert.False(t, cfg.ConsulEnabled())
}

func TestValidate(t *testing.T) {
	base := Config{Port: 8080, EndpointPrefix: "/api", StoreDriver: DriverMemory, JWTPublicKeyPath: "k.pem"}
	require.NoError(t, base.Validate())

	released := base
	released.GinMode, released.StoreDriver, released.DatabaseURL = "release", DriverPostgres, "postgres://db/shop"
	require.NoError(t, released.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"postgres without url", func(c *Config) { c.StoreDriver = DriverPostgres }},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mongo" }},
		{"no jwt key", func(c *Config) { c.JWTPublicKeyPath = "" }},
		{"relative prefix", func(c *Config) { c.EndpointPrefix = "api" }},
		{"bad port", func(c *Config) { c.Port = 70000 }},
		{"memory store in release", func(c *Config) { c.GinMode = "release" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
