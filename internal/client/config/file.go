package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dmitrijs2005/fitcoach/internal/timex"
)

// fileConfig is a DTO used exclusively for decoding config files.
type fileConfig struct {
	Backend            string         `json:"backend" yaml:"backend"`
	ServerEndpointAddr string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	RequestTimeout     timex.Duration `json:"request_timeout" yaml:"request_timeout"`
	Store              string         `json:"store" yaml:"store"`
	DataDir            string         `json:"data_dir" yaml:"data_dir"`
	Redis              redisConfig    `json:"redis" yaml:"redis"`
	LogLevel           string         `json:"log_level" yaml:"log_level"`
}

type redisConfig struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
	Prefix   string `json:"prefix" yaml:"prefix"`
}

// loadFile overlays cfg with the values present in the file at path. Keys
// missing from the file keep their current value.
func loadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := fileConfig{
		Backend:            cfg.Backend,
		ServerEndpointAddr: cfg.ServerEndpointAddr,
		RequestTimeout:     timex.Duration{Duration: cfg.RequestTimeout},
		Store:              cfg.Store,
		DataDir:            cfg.DataDir,
		Redis: redisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		},
		LogLevel: cfg.LogLevel,
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	cfg.Backend = fc.Backend
	cfg.ServerEndpointAddr = fc.ServerEndpointAddr
	cfg.RequestTimeout = fc.RequestTimeout.Duration
	cfg.Store = fc.Store
	cfg.DataDir = fc.DataDir
	cfg.RedisAddr = fc.Redis.Addr
	cfg.RedisPassword = fc.Redis.Password
	cfg.RedisDB = fc.Redis.DB
	cfg.RedisPrefix = fc.Redis.Prefix
	cfg.LogLevel = fc.LogLevel
	return nil
}
