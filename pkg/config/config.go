package config

import "time"

// Chat definition chat_service YAML structure
type Chat struct {
	Port string `mapstructure:"port"`

	MongoSQL DatabaseConfig `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`

	// message window cache
	WindowSize     int           `mapstructure:"window_size"`
	WindowCacheTTL time.Duration `mapstructure:"window_cache_ttl"`

	// reconciliation workers
	SyncInterval  time.Duration `mapstructure:"sync_interval"`
	SyncBatchSize int64         `mapstructure:"sync_batch_size"`
}

// RedisConfig definition redis setting
type RedisConfig struct {
	RedisDB int `mapstructure:"redis_db"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

// Defaults applied when the YAML omits tunables.
const (
	DefaultWindowSize     = 20
	DefaultWindowCacheTTL = 10 * time.Minute
	DefaultSyncInterval   = 60 * time.Second
	DefaultSyncBatchSize  = 500
)

// ApplyDefaults fills zero-valued tunables with their defaults
func (c *Chat) ApplyDefaults() {
	if c.WindowSize <= 0 {
		c.WindowSize = DefaultWindowSize
	}
	if c.WindowCacheTTL <= 0 {
		c.WindowCacheTTL = DefaultWindowCacheTTL
	}
	if c.SyncInterval <= 0 {
		c.SyncInterval = DefaultSyncInterval
	}
	if c.SyncBatchSize <= 0 {
		c.SyncBatchSize = DefaultSyncBatchSize
	}
}
