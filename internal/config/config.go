// Package config loads the storage engine's runtime configuration.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// ReplacerKind selects which eviction policy the buffer pool uses.
type ReplacerKind string

const (
	ReplacerLRU  ReplacerKind = "lru"
	ReplacerLRUK ReplacerKind = "lruk"
)

// Config is the engine's runtime configuration: where its data file lives,
// how many frames its buffer pool holds, and which replacement policy it
// runs. The zero value has no defaults filled in; use Default() or Load()
// to get a Config with every field set.
type Config struct {
	Storage struct {
		DataFile string `mapstructure:"data_file"`
		PoolSize int    `mapstructure:"pool_size"`
		Replacer string `mapstructure:"replacer"`
		LRUKValK int    `mapstructure:"lruk_k"`
	} `mapstructure:"storage"`
}

// Default returns a Config with the engine's built-in defaults: a 64-frame
// pool, LRU replacement, and a data file named "storage.db" in the current
// directory.
func Default() Config {
	var c Config
	c.Storage.DataFile = "storage.db"
	c.Storage.PoolSize = 64
	c.Storage.Replacer = string(ReplacerLRU)
	c.Storage.LRUKValK = 2
	return c
}

// Load reads a YAML configuration file at path, falling back to Default()
// values for anything the file does not set.
func Load(path string) (Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("storage.data_file", cfg.Storage.DataFile)
	v.SetDefault("storage.pool_size", cfg.Storage.PoolSize)
	v.SetDefault("storage.replacer", cfg.Storage.Replacer)
	v.SetDefault("storage.lruk_k", cfg.Storage.LRUKValK)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	return cfg, nil
}

// Replacer reports the configured replacer kind, defaulting to LRU for any
// unrecognized value.
func (c Config) Replacer() ReplacerKind {
	switch ReplacerKind(c.Storage.Replacer) {
	case ReplacerLRUK:
		return ReplacerLRUK
	default:
		return ReplacerLRU
	}
}
