package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/chirper/internal/flagx"
	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvEndpointAddrGRPC      = "CHIRPER_GRPC_ADDR"
	EnvDatabaseDSN           = "CHIRPER_DATABASE_DSN"
	EnvSecretKey             = "CHIRPER_SECRET_KEY"
	EnvTokenValidityDuration = "CHIRPER_TOKEN_TTL"
	EnvNATSURL               = "CHIRPER_NATS_URL"
	EnvMetricsAddr           = "CHIRPER_METRICS_ADDR"
)

// parseEnv loads the .env file named by -e / -env (if any) into the process
// environment without overriding variables that are already set, then
// overlays every CHIRPER_* variable that is present.
func parseEnv(config *Config) error {
	if path := flagx.EnvFileFlags(); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}

	lookup(EnvEndpointAddrGRPC, &config.EndpointAddrGRPC)
	lookup(EnvDatabaseDSN, &config.DatabaseDSN)
	lookup(EnvSecretKey, &config.SecretKey)
	lookup(EnvNATSURL, &config.NATSURL)
	lookup(EnvMetricsAddr, &config.MetricsAddr)

	if v, ok := os.LookupEnv(EnvTokenValidityDuration); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTokenValidityDuration, err)
		}
		config.TokenValidityDuration = d
	}
	return nil
}

func lookup(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}
