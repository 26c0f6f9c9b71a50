package config

import "time"

// Config holds runtime settings for the authkeep CLI.
//
// Fields:
//   - ServerEndpointURL: base URL of the identity service.
//   - DatabaseDSN: sqlite DSN of the local session database.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - LogLevel: minimum log level (debug, info, warn, error).
type Config struct {
	ServerEndpointURL   string
	DatabaseDSN         string
	OnlineCheckInterval time.Duration
	LogLevel            string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointURL = "http://127.0.0.1:8080"
	c.DatabaseDSN = "authkeep.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.LogLevel = "info"
}

// LoadConfig constructs a Config, applies defaults, then overlays values
// from the environment, a JSON file (if one was named), and command-line
// flags. Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
