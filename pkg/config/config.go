package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// MustLoad loads the configuration from environment variables and .env file.
func MustLoad[T any](cfg T) {
	_ = godotenv.Load() // Load environment variables from .env file

	env.Must(cfg, env.Parse(cfg))
}

// Load loads the configuration from environment variables and .env file.
func Load[T any](cfg T) error {
	_ = godotenv.Load() // .env file is optional

	if err := env.Parse(cfg); err != nil {
		return err
	}

	return nil
}

// Config holds the configuration for the matching service.
type Config struct {
	KafkaConfig          `envPrefix:"KAFKA_"`
	MatchPublisherConfig `envPrefix:"MATCH_PUBLISHER_"`
	RedisConfig          `envPrefix:"REDIS_"`

	SnapshotInterval    time.Duration `env:"SNAPSHOT_INTERVAL" envDefault:"30s"`
	SnapshotOffsetDelta int64         `env:"SNAPSHOT_OFFSET_DELTA" envDefault:"1000"`
	MetricsAddr         string        `env:"METRICS_ADDR" envDefault:":9090"`
}

// KafkaConfig holds the configuration for the order request consumer.
type KafkaConfig struct {
	Topic   string   `env:"TOPIC,required"`
	Brokers []string `env:"BROKER,required"`
}

// MatchPublisherConfig holds the configuration for the match event producer.
type MatchPublisherConfig struct {
	Topic   string   `env:"TOPIC,required"`
	Brokers []string `env:"BROKER,required"`
}

// RedisConfig holds the configuration for the Redis snapshot store.
type RedisConfig struct {
	Addrs       string `env:"ADDRESS,required"` // Comma-separated list of Redis addresses
	Password    string `env:"PASSWORD" envDefault:""`
	Username    string `env:"USERNAME" envDefault:""`
	DB          int    `env:"DB" envDefault:"0"`
	SnapshotKey string `env:"SNAPSHOT_KEY" envDefault:"matching:snapshot"`
}
