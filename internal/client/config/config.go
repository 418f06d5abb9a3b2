package config

import "time"

// Config holds runtime settings for the chirper CLI.
//
// Fields:
//   - ServerEndpointAddr: host:port of the hub gRPC endpoint.
//   - LocalMode: run an in-process hub instead of dialing ServerEndpointAddr.
//   - SessionDBPath: SQLite file that keeps the signed-in session between runs.
//   - RequestTimeout: upper bound for a single command's backend calls.
//   - OnlineCheckInterval: how often the client probes hub reachability.
type Config struct {
	ServerEndpointAddr  string
	LocalMode           bool
	SessionDBPath       string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.LocalMode = false
	c.SessionDBPath = "chirper.db"
	c.RequestTimeout = 10 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON, the environment and command-line flags. Later sources take
// precedence over earlier ones.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
