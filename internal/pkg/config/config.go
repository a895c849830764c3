package config

import (
	"context"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Provider ProviderConfig
	Sync     SyncConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=idsync"`
}

type RedisConfig struct {
	Addr   string `env:"REDIS_ADDR,   default=localhost:6379"`
	DB     int    `env:"REDIS_DB,     default=0"`
	Stream string `env:"REDIS_STREAM, default=idsync:events"`
}

type ProviderConfig struct {
	BaseURL   string `env:"PROVIDER_BASE_URL, default=https://api.clerk.com/v1"`
	SecretKey string `env:"PROVIDER_SECRET_KEY"`
}

type SyncConfig struct {
	// RelayWorkers is the number of sharded dispatcher workers consuming bus
	// deliveries.
	RelayWorkers int `env:"SYNC_RELAY_WORKERS, default=8"`
	// BulkWorkers bounds the bulk reconciliation worker pool.
	BulkWorkers int `env:"SYNC_BULK_WORKERS, default=4"`
	// RejectStale enables the optional guard against out-of-order update
	// events overwriting newer data.
	RejectStale bool `env:"SYNC_REJECT_STALE, default=false"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
