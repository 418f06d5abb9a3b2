package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/chirper/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvServerEndpointAddr  = "CHIRPER_SERVER_ADDR"
	EnvLocalMode           = "CHIRPER_LOCAL"
	EnvSessionDBPath       = "CHIRPER_SESSION_DB"
	EnvRequestTimeout      = "CHIRPER_REQUEST_TIMEOUT"
	EnvOnlineCheckInterval = "CHIRPER_ONLINE_CHECK_INTERVAL"
)

// parseEnv loads the .env file named by -e / -env (if any) without
// overriding variables that are already set, then overlays every CHIRPER_*
// variable that is present. Durations use Go syntax ("10s").
func parseEnv(cfg *Config) error {
	if path := flagx.EnvFileFlags(); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}

	if v, ok := os.LookupEnv(EnvServerEndpointAddr); ok {
		cfg.ServerEndpointAddr = v
	}
	if v, ok := os.LookupEnv(EnvSessionDBPath); ok {
		cfg.SessionDBPath = v
	}
	if v, ok := os.LookupEnv(EnvLocalMode); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvLocalMode, err)
		}
		cfg.LocalMode = b
	}
	if err := duration(EnvRequestTimeout, &cfg.RequestTimeout); err != nil {
		return err
	}
	return duration(EnvOnlineCheckInterval, &cfg.OnlineCheckInterval)
}

func duration(key string, dst *time.Duration) error {
	v, ok := os.LookupEnv(key)
	if !ok {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
