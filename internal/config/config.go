// Package config loads statecraft settings from defaults, an optional YAML
// file and STATECRAFT_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/aretw0/statecraft/internal/logging"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

type (
	// Config holds every runtime setting of the statecraft binary.
	Config struct {
		Server  ServerConfig  `mapstructure:"server"`
		Store   StoreConfig   `mapstructure:"store"`
		Lock    LockConfig    `mapstructure:"lock"`
		Log     LogConfig     `mapstructure:"log"`
		Metrics MetricsConfig `mapstructure:"metrics"`
		Tracing TracingConfig `mapstructure:"tracing"`
		Seed    SeedConfig    `mapstructure:"seed"`
	}

	ServerConfig struct {
		Host            string        `mapstructure:"host"`
		Port            int           `mapstructure:"port"`
		ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	}

	StoreConfig struct {
		Driver string      `mapstructure:"driver"`
		Redis  RedisConfig `mapstructure:"redis"`
		File   FileConfig  `mapstructure:"file"`
	}

	FileConfig struct {
		Dir string `mapstructure:"dir"`
	}

	RedisConfig struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
		Prefix   string `mapstructure:"prefix"`
	}

	LockConfig struct {
		// Distributed enables Redis locks so several replicas can share a store.
		Distributed bool          `mapstructure:"distributed"`
		TTL         time.Duration `mapstructure:"ttl"`
	}

	LogConfig struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	}

	MetricsConfig struct {
		Enabled bool `mapstructure:"enabled"`
	}

	TracingConfig struct {
		Enabled bool `mapstructure:"enabled"`
		// Output is "stderr", "stdout" or a file path.
		Output string `mapstructure:"output"`
	}

	SeedConfig struct {
		// Dir holds definition documents loaded at startup.
		Dir string `mapstructure:"dir"`
	}
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverFile   = "file"
)

const (
	EnvPrefix = "STATECRAFT_"

	DefaultHost            = "0.0.0.0"
	DefaultPort            = 8080
	DefaultShutdownTimeout = 10 * time.Second
	DefaultRedisAddr       = "localhost:6379"
	DefaultRedisPrefix     = "statecraft:"
	DefaultFileDir         = ".statecraft"
	DefaultLockTTL         = 30 * time.Second
	MaxTCPPort             = 65535
)

var (
	ErrInvalidPort            = errors.New("invalid server port")
	ErrInvalidShutdownTimeout = errors.New("shutdown timeout must be positive")
	ErrInvalidStoreDriver     = errors.New("invalid store driver")
	ErrRedisAddrRequired      = errors.New("redis address is required")
	ErrFileDirRequired        = errors.New("file store directory is required")
	ErrInvalidLockTTL         = errors.New("lock ttl must be positive")
	ErrDistributedLockStore   = errors.New("distributed locking requires the redis store")
	ErrInvalidLogLevel        = errors.New("invalid log level")
	ErrInvalidLogFormat       = errors.New("invalid log format")
)

// envKeys lists the settings that can be overridden from the environment.
// "server.port" is read from STATECRAFT_SERVER_PORT.
var envKeys = []string{
	"server.host",
	"server.port",
	"server.shutdown_timeout",
	"store.driver",
	"store.redis.addr",
	"store.redis.password",
	"store.redis.db",
	"store.redis.prefix",
	"store.file.dir",
	"lock.distributed",
	"lock.ttl",
	"log.level",
	"log.format",
	"metrics.enabled",
	"tracing.enabled",
	"tracing.output",
	"seed.dir",
}

// NewDefaultConfig returns a configuration that runs a single in-memory node.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Store: StoreConfig{
			Driver: DriverMemory,
			Redis: RedisConfig{
				Addr:   DefaultRedisAddr,
				Prefix: DefaultRedisPrefix,
			},
			File: FileConfig{Dir: DefaultFileDir},
		},
		Lock: LockConfig{TTL: DefaultLockTTL},
		Log: LogConfig{
			Level:  "info",
			Format: string(logging.FormatText),
		},
		Tracing: TracingConfig{Output: "stderr"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (optional)
// and the environment, then validates it.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	raw := map[string]any{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
		if raw == nil {
			raw = map[string]any{}
		}
	}

	for _, key := range envKeys {
		name := EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if v, ok := lookup(name); ok {
			setPath(raw, strings.Split(key, "."), v)
		}
	}

	cfg := NewDefaultConfig()
	if err := decode(raw, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}
	return nil
}

// setPath stores v under the nested keys of path, creating maps as needed.
func setPath(m map[string]any, path []string, v any) {
	for _, k := range path[:len(path)-1] {
		next, ok := m[k].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[k] = next
		}
		m = next
	}
	m[path[len(path)-1]] = v
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	switch c.Store.Driver {
	case DriverMemory:
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			return ErrRedisAddrRequired
		}
	case DriverFile:
		if c.Store.File.Dir == "" {
			return ErrFileDirRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStoreDriver, c.Store.Driver)
	}

	if c.Lock.Distributed {
		if c.Store.Driver != DriverRedis {
			return ErrDistributedLockStore
		}
		if c.Lock.TTL <= 0 {
			return ErrInvalidLockTTL
		}
	}

	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}
	switch logging.Format(c.Log.Format) {
	case logging.FormatText, logging.FormatJSON:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Log.Format)
	}
	return nil
}

// Addr is the host:port the HTTP server listens on.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
