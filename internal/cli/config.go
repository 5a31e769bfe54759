package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds user-level CLI configuration, loaded from a TOML file.
//
// Example config (~/.config/mosaic/config.toml):
//
//	cache_dir = "/tmp/mosaic-cache"
//	cache_ttl_hours = 168
//
//	[redis]
//	addr = "localhost:6379"
//	db = 1
type Config struct {
	// CacheDir overrides the default cache directory (~/.cache/mosaic).
	CacheDir string `toml:"cache_dir"`

	// CacheTTLHours bounds the lifetime of cached build results.
	// Zero means entries never expire.
	CacheTTLHours int `toml:"cache_ttl_hours"`

	// Redis selects a Redis cache backend when Addr is non-empty.
	Redis RedisConfig `toml:"redis"`
}

// RedisConfig configures the optional Redis cache backend.
type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

// loadConfig reads the config file at path. An empty path means the default
// location; a missing file yields the zero config rather than an error.
func loadConfig(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		var err error
		path, err = configPath()
		if err != nil {
			return &Config{}, nil
		}
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		if os.IsNotExist(err) && !explicit {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return cfg, nil
}
