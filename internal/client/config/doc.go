// Package config loads runtime configuration for the fitcoach client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional config file given with --config / -c. Files ending in .yaml
//     or .yml are read as YAML, anything else as JSON.
//  3. Command-line flags registered by Bind, which override earlier values
//     when set explicitly.
//
// # File schema
//
// Durations use timex.Duration, so they can be strings like "10s" or integer
// nanoseconds:
//
//	backend: hosted
//	server_endpoint_addr: 127.0.0.1:50051
//	request_timeout: 10s
//	store: sqlite
//	data_dir: ~/.fitcoach
//	redis:
//	  addr: 127.0.0.1:6379
//	  db: 0
//	  prefix: "fitcoach:"
//	log_level: warn
package config
