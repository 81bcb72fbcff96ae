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

	Mongo   MongoConfig
	Redis   RedisConfig
	Refresh RefreshConfig
	Notify  NotifyConfig
	Tracker TrackerConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=command_center"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type RefreshConfig struct {
	// IntervalHours is how often the scheduler fires a full refresh cycle.
	IntervalHours int `env:"REFRESH_INTERVAL_HOURS, default=1"`
	// MaxConcurrentLookups caps in-flight backend lookups within one cycle.
	MaxConcurrentLookups int `env:"MAX_CONCURRENT_LOOKUPS, default=4"`
	// DeactivateAfterNotFound deactivates a package after this many
	// consecutive NotFound lookups; 0 disables the policy.
	DeactivateAfterNotFound int `env:"DEACTIVATE_AFTER_NOT_FOUND, default=0"`
}

type NotifyConfig struct {
	Enabled bool `env:"NOTIFICATIONS_ENABLED, default=true"`
	// OnDescriptionChange treats a changed status description as a
	// reportable change even when the status code is unchanged.
	OnDescriptionChange bool   `env:"NOTIFY_ON_DESCRIPTION_CHANGE, default=false"`
	Workers             int    `env:"NOTIFY_WORKERS, default=4"`
	TelegramBotToken    string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID      string `env:"TELEGRAM_CHAT_ID"`
}

type TrackerConfig struct {
	// Endpoint is the GraphQL endpoint of the domestic delivery-tracker
	// service.
	Endpoint string `env:"TRACKER_ENDPOINT, default=http://localhost:4000/graphql"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
