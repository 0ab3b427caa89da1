package config

import (
	"fmt"
	"time"
)

// Identity backends.
const (
	BackendHosted = "hosted"
	BackendLocal  = "local"
)

// Session stores.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// Config holds runtime settings for the fitcoach client.
//
// Fields:
//   - Backend: "hosted" talks to identityd at ServerEndpointAddr, "local"
//     keeps accounts on this device.
//   - Store: where the remembered session lives ("sqlite", "redis" or "memory").
//   - DataDir: directory of the SQLite database.
//   - RequestTimeout: per-call timeout for identityd requests.
type Config struct {
	Backend            string
	ServerEndpointAddr string
	RequestTimeout     time.Duration

	Store         string
	DataDir       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	LogLevel string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.Backend = BackendLocal
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.RequestTimeout = 10 * time.Second
	c.Store = StoreSQLite
	c.DataDir = "~/.fitcoach"
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisPrefix = "fitcoach:"
	c.LogLevel = "warn"
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendHosted, BackendLocal:
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", c.Backend, BackendHosted, BackendLocal)
	}

	switch c.Store {
	case StoreMemory, StoreSQLite, StoreRedis:
	default:
		return fmt.Errorf("unknown store %q (want %q, %q or %q)", c.Store, StoreSQLite, StoreRedis, StoreMemory)
	}

	if c.Backend == BackendHosted && c.ServerEndpointAddr == "" {
		return fmt.Errorf("server address is required for the hosted backend")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %s", c.RequestTimeout)
	}
	return nil
}
