package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/chirper/internal/flagx"
	"github.com/dmitrijs2005/chirper/internal/timex"
)

// JsonConfig is the on-disk shape of the JSON config file. Durations accept
// both "1h" strings and integer nanoseconds.
type JsonConfig struct {
	EndpointAddrGRPC      string         `json:"endpoint_addr_grpc"`
	DatabaseDSN           string         `json:"database_dsn"`
	SecretKey             string         `json:"secret_key"`
	TokenValidityDuration timex.Duration `json:"token_validity_duration"`
	NATSURL               string         `json:"nats_url"`
	MetricsAddr           string         `json:"metrics_addr"`
}

// parseJson overlays values from the file named by -c / -config. Keys absent
// from the file keep their current value.
func parseJson(config *Config) error {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.NATSURL, c.NATSURL)
	setString(&config.MetricsAddr, c.MetricsAddr)
	if c.TokenValidityDuration.Duration > 0 {
		config.TokenValidityDuration = c.TokenValidityDuration.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
