package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/chirper/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string     gRPC bind address (e.g. ":50051")
//	-d string     PostgreSQL DSN, empty for in-memory storage
//	-s string     JWT HMAC secret key
//	-t duration   access token validity (e.g. "24h")
//	-n string     NATS URL for change fan-out
//	-m string     metrics bind address
func parseFlags(config *Config) error {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-t", "-n", "-m"})

	fs := flag.NewFlagSet("hub", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.DurationVar(&config.TokenValidityDuration, "t", config.TokenValidityDuration, "access token validity")
	fs.StringVar(&config.NATSURL, "n", config.NATSURL, "NATS URL")
	fs.StringVar(&config.MetricsAddr, "m", config.MetricsAddr, "metrics address")

	return fs.Parse(args)
}
