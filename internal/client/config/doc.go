// Package config loads runtime configuration for the chirper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. Optional .env file selected via -e or -env, then CHIRPER_* variables.
//  4. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the hub gRPC endpoint
//	-l          run against an in-process hub
//	-s string   session database path
//	-t int      request timeout (seconds)
//	-i int      online status check interval (seconds)
//
// # JSON schema
//
// Durations accept strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "local_mode": false,
//	  "session_db_path": "chirper.db",
//	  "request_timeout": "10s",
//	  "online_check_interval": "3s"
//	}
package config
