package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config represents the main configuration structure
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Cache      CacheConfig      `yaml:"cache"`
	BigCache   BigCacheConfig   `yaml:"bigcache"`
	KeyDB      KeyDBConfig      `yaml:"keydb"`
	SQLite     SQLiteConfig     `yaml:"sqlite"`
	MultiStore MultiStoreConfig `yaml:"multi_store"`
	Auth       AuthConfig       `yaml:"auth"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig configures the HTTP listener
type ServerConfig struct {
	Addr            string        `yaml:"addr" validate:"required"`
	ReadTimeout     time.Duration `yaml:"read_timeout" validate:"gte=0"`
	WriteTimeout    time.Duration `yaml:"write_timeout" validate:"gte=0"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" validate:"gte=0"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gte=0"`
}

// CacheConfig configures the orchestrator
type CacheConfig struct {
	// Timezone is the reference zone alignment windows are computed in
	Timezone string `yaml:"timezone"`
	// CoalesceMisses collapses concurrent misses for one key into a single
	// producer call. Defaults to true.
	CoalesceMisses *bool `yaml:"coalesce_misses"`
	// MaxEntryAge is a safety TTL for backends that support expiry
	MaxEntryAge time.Duration `yaml:"max_entry_age" validate:"gte=0"`
}

// BigCacheConfig configures the in-process L1 store
type BigCacheConfig struct {
	Enabled bool `yaml:"enabled"`
	Size    int  `yaml:"size" validate:"gte=0"` // MB
	Shards  int  `yaml:"shards" validate:"gte=0"`
}

// KeyDBConfig configures the shared L2 store
type KeyDBConfig struct {
	Enabled    bool             `yaml:"enabled"`
	Connection ConnectionConfig `yaml:"connection"`
	Keepalive  KeepaliveConfig  `yaml:"keepalive"`
	ScanCount  int64            `yaml:"scan_count" validate:"gte=0"`
}

// ConnectionConfig holds KeyDB socket timeouts
type ConnectionConfig struct {
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	SendTimeout    time.Duration `yaml:"send_timeout"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
}

// KeepaliveConfig holds KeyDB pool settings
type KeepaliveConfig struct {
	PoolSize       int           `yaml:"pool_size" validate:"gte=0"`
	MaxIdleTimeout time.Duration `yaml:"max_idle_timeout"`
}

// SQLiteConfig configures the single-host durable store
type SQLiteConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path" validate:"required_if=Enabled true"`
}

// MultiStoreConfig configures how store levels cooperate
type MultiStoreConfig struct {
	EnablePropagation bool `yaml:"enable_propagation"`
}

// AuthConfig guards the debug and refresh endpoints when a secret is set
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

// LogConfig configures zap
type LogConfig struct {
	Level       string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	Development bool   `yaml:"development"`
}

// LoadConfig loads configuration from file path
func LoadConfig(configPath string, logger *zap.Logger) (*Config, error) {
	logger.Info("Loading configuration", zap.String("path", configPath))

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var config Config
	decoder := yaml.NewDecoder(file)
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode YAML config: %w", err)
	}

	// Apply defaults
	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// Default returns a configuration with every default applied, backed by an
// in-memory store
func Default() *Config {
	var config Config
	config.applyDefaults()
	return &config
}

// Validate checks field constraints
func (c *Config) Validate() error {
	return validator.New().Struct(c)
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}

	if c.Cache.CoalesceMisses == nil {
		coalesce := true
		c.Cache.CoalesceMisses = &coalesce
	}
	if c.Cache.MaxEntryAge == 0 {
		c.Cache.MaxEntryAge = 48 * time.Hour
	}

	if c.BigCache.Size == 0 {
		c.BigCache.Size = 64
	}
	if c.BigCache.Shards == 0 {
		c.BigCache.Shards = 1024
	}

	if c.KeyDB.Connection.ConnectTimeout == 0 {
		c.KeyDB.Connection.ConnectTimeout = time.Second
	}
	if c.KeyDB.Connection.SendTimeout == 0 {
		c.KeyDB.Connection.SendTimeout = time.Second
	}
	if c.KeyDB.Connection.ReadTimeout == 0 {
		c.KeyDB.Connection.ReadTimeout = time.Second
	}
	if c.KeyDB.Keepalive.PoolSize == 0 {
		c.KeyDB.Keepalive.PoolSize = 10
	}
	if c.KeyDB.Keepalive.MaxIdleTimeout == 0 {
		c.KeyDB.Keepalive.MaxIdleTimeout = 60 * time.Second
	}
	if c.KeyDB.ScanCount == 0 {
		c.KeyDB.ScanCount = 100
	}

	if c.SQLite.Path == "" {
		c.SQLite.Path = "/app/feedcache.sqlite3"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// ShouldCoalesceMisses reports whether concurrent misses share one producer call
func (c *Config) ShouldCoalesceMisses() bool {
	return c.Cache.CoalesceMisses == nil || *c.Cache.CoalesceMisses
}

// GetReadTimeout returns the KeyDB read timeout
func (c *KeyDBConfig) GetReadTimeout() time.Duration {
	if c.Connection.ReadTimeout <= 0 {
		return time.Second
	}
	return c.Connection.ReadTimeout
}

// GetSendTimeout returns the KeyDB write timeout
func (c *KeyDBConfig) GetSendTimeout() time.Duration {
	if c.Connection.SendTimeout <= 0 {
		return time.Second
	}
	return c.Connection.SendTimeout
}
