// Package config handles configuration for the hub, layering defaults, an
// optional JSON file, an optional .env file / environment and command-line
// flags, in that order.
package config

import "time"

// Config holds runtime settings for the chirper hub.
//
// Fields:
//   - EndpointAddrGRPC: bind address for the public gRPC endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx). Empty keeps all state in memory.
//   - SecretKey: HMAC secret for signing JWTs (HS256). Do not use the default in prod.
//   - TokenValidityDuration: access token lifetime.
//   - NATSURL: when set, change notifications are fanned out over NATS so
//     several hub replicas can share one database.
//   - MetricsAddr: bind address of the Prometheus /metrics endpoint; empty disables it.
type Config struct {
	EndpointAddrGRPC      string
	DatabaseDSN           string
	SecretKey             string
	TokenValidityDuration time.Duration
	NATSURL               string
	MetricsAddr           string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.EndpointAddrGRPC = ":50051"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.TokenValidityDuration = 24 * time.Hour
	c.NATSURL = ""
	c.MetricsAddr = ":9090"
}

// LoadConfig builds a Config from every source.
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
