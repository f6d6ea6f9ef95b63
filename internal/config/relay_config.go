package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// RelayConfig holds configuration for the outbox relay service.
// This is a minimal config that only includes what the relay needs.
type RelayConfig struct {
	AppEnv             string `envconfig:"APP_ENV" default:"development"`
	DatabaseURL        string `envconfig:"DB_CONNECTION_STRING" required:"true"`
	RabbitMQURL        string `envconfig:"RABBITMQ_URL" required:"true"`
	LifecycleQueueName string `envconfig:"LIFECYCLE_QUEUE_NAME" default:"lifecycle-events"`
}

func LoadRelayConfig() (*RelayConfig, error) {
	_ = godotenv.Load(".env")

	var c RelayConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("load relay config: %w", err)
	}
	return &c, nil
}
