// Package config loads server configuration from a TOML file with
// environment variable overrides.
//
// The CLI takes everything it needs from flags; the config file exists
// for the serve command, where a deployment wants one reviewable file
// plus secrets from the environment. Environment variables win over the
// file so a container can override any field without editing it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the server configuration.
type Config struct {
	Server  Server  `toml:"server"`
	Cache   Cache   `toml:"cache"`
	Storage Storage `toml:"storage"`
}

// Server holds the HTTP listener settings.
type Server struct {
	Addr            string   `toml:"addr"`
	ReadTimeout     duration `toml:"read_timeout"`
	WriteTimeout    duration `toml:"write_timeout"`
	ShutdownTimeout duration `toml:"shutdown_timeout"`
}

// Cache selects the cache backend.
// Backend is one of "file", "redis", or "none".
type Cache struct {
	Backend  string `toml:"backend"`
	Dir      string `toml:"dir"`       // file backend
	RedisURL string `toml:"redis_url"` // redis backend
}

// Storage selects the dataset store backend.
// Backend is one of "memory" or "mongo".
type Storage struct {
	Backend  string `toml:"backend"`
	MongoURI string `toml:"mongo_uri"`
	MongoDB  string `toml:"mongo_db"`
}

// duration lets TOML carry values like "15s".
type duration time.Duration

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = duration(v)
	return nil
}

// Std converts to a time.Duration.
func (d duration) Std() time.Duration { return time.Duration(d) }

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			ReadTimeout:     duration(15 * time.Second),
			WriteTimeout:    duration(30 * time.Second),
			ShutdownTimeout: duration(10 * time.Second),
		},
		Cache: Cache{
			Backend: "file",
		},
		Storage: Storage{
			Backend: "memory",
			MongoDB: "kinchart",
		},
	}
}

// Load reads a config file and applies environment overrides. An empty
// path loads defaults plus environment overrides only.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides fields from KINCHART_* environment variables.
func applyEnv(cfg *Config) {
	envString("KINCHART_ADDR", &cfg.Server.Addr)
	envDuration("KINCHART_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)
	envString("KINCHART_CACHE_BACKEND", &cfg.Cache.Backend)
	envString("KINCHART_CACHE_DIR", &cfg.Cache.Dir)
	envString("KINCHART_REDIS_URL", &cfg.Cache.RedisURL)
	envString("KINCHART_STORAGE_BACKEND", &cfg.Storage.Backend)
	envString("KINCHART_MONGO_URI", &cfg.Storage.MongoURI)
	envString("KINCHART_MONGO_DB", &cfg.Storage.MongoDB)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envDuration(key string, dst *duration) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if parsed, err := time.ParseDuration(v); err == nil {
		*dst = duration(parsed)
	} else if secs, err := strconv.Atoi(v); err == nil {
		*dst = duration(time.Duration(secs) * time.Second)
	}
}

func (c Config) validate() error {
	switch c.Cache.Backend {
	case "file", "none":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache backend redis requires redis_url")
		}
	default:
		return fmt.Errorf("invalid cache backend: %q (must be file, redis, or none)", c.Cache.Backend)
	}

	switch c.Storage.Backend {
	case "memory":
	case "mongo":
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("storage backend mongo requires mongo_uri")
		}
	default:
		return fmt.Errorf("invalid storage backend: %q (must be memory or mongo)", c.Storage.Backend)
	}

	if c.Server.Addr == "" {
		return fmt.Errorf("server addr cannot be empty")
	}
	return nil
}
