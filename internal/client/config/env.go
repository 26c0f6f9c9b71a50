package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// envConfig is a DTO used exclusively for environment parsing. Empty values
// mean "not set" and leave the runtime Config untouched, so the env layer
// overrides defaults but yields to the JSON file and flags.
type envConfig struct {
	ServerEndpointURL   string        `env:"AUTHKEEP_SERVER_URL"`
	DatabaseDSN         string        `env:"AUTHKEEP_DATABASE_DSN"`
	OnlineCheckInterval time.Duration `env:"AUTHKEEP_ONLINE_CHECK_INTERVAL"`
	LogLevel            string        `env:"AUTHKEEP_LOG_LEVEL"`
}

func parseEnv(cfg *Config) {
	var ec envConfig
	if err := envconfig.Process(context.Background(), &ec); err != nil {
		panic(err)
	}

	if ec.ServerEndpointURL != "" {
		cfg.ServerEndpointURL = ec.ServerEndpointURL
	}
	if ec.DatabaseDSN != "" {
		cfg.DatabaseDSN = ec.DatabaseDSN
	}
	if ec.OnlineCheckInterval != 0 {
		cfg.OnlineCheckInterval = ec.OnlineCheckInterval
	}
	if ec.LogLevel != "" {
		cfg.LogLevel = ec.LogLevel
	}
}
