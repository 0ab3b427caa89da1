package config

import (
	"github.com/spf13/pflag"
)

// Loader collects flag values until Load is called.
type Loader struct {
	fs    *pflag.FlagSet
	path  string
	flags Config
}

// Bind registers the client flags on fs (typically a cobra command's
// persistent flags) and returns the Loader that resolves them.
func Bind(fs *pflag.FlagSet) *Loader {
	var def Config
	def.LoadDefaults()

	l := &Loader{fs: fs}

	fs.StringVarP(&l.path, "config", "c", "", "path to a JSON or YAML config file")
	fs.StringVar(&l.flags.Backend, "backend", def.Backend, `identity backend: "hosted" or "local"`)
	fs.StringVarP(&l.flags.ServerEndpointAddr, "server", "a", def.ServerEndpointAddr, "address and port of identityd")
	fs.DurationVar(&l.flags.RequestTimeout, "timeout", def.RequestTimeout, "per-request timeout for identityd calls")
	fs.StringVar(&l.flags.Store, "store", def.Store, `session store: "sqlite", "redis" or "memory"`)
	fs.StringVar(&l.flags.DataDir, "data-dir", def.DataDir, "directory of the local database")
	fs.StringVar(&l.flags.RedisAddr, "redis-addr", def.RedisAddr, "redis address for the redis store")
	fs.StringVar(&l.flags.RedisPassword, "redis-password", "", "redis password")
	fs.IntVar(&l.flags.RedisDB, "redis-db", 0, "redis database number")
	fs.StringVar(&l.flags.RedisPrefix, "redis-prefix", def.RedisPrefix, "key prefix in redis")
	fs.StringVar(&l.flags.LogLevel, "log-level", def.LogLevel, "debug, info, warn or error")

	return l
}

// Load applies defaults, then the config file, then every flag that was set
// explicitly, and validates the result.
func (l *Loader) Load() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if l.path != "" {
		if err := loadFile(cfg, l.path); err != nil {
			return nil, err
		}
	}

	l.overlay(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) overlay(cfg *Config) {
	set := func(name string, apply func()) {
		if l.fs.Changed(name) {
			apply()
		}
	}

	set("backend", func() { cfg.Backend = l.flags.Backend })
	set("server", func() { cfg.ServerEndpointAddr = l.flags.ServerEndpointAddr })
	set("timeout", func() { cfg.RequestTimeout = l.flags.RequestTimeout })
	set("store", func() { cfg.Store = l.flags.Store })
	set("data-dir", func() { cfg.DataDir = l.flags.DataDir })
	set("redis-addr", func() { cfg.RedisAddr = l.flags.RedisAddr })
	set("redis-password", func() { cfg.RedisPassword = l.flags.RedisPassword })
	set("redis-db", func() { cfg.RedisDB = l.flags.RedisDB })
	set("redis-prefix", func() { cfg.RedisPrefix = l.flags.RedisPrefix })
	set("log-level", func() { cfg.LogLevel = l.flags.LogLevel })
}
