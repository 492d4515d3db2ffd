// Package config loads trawler.yaml: defaults, then the file, then
// TRAWLER_* environment overrides.
package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/aretw0/trawler/pkg/domain"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no --config flag is given.
const DefaultPath = "trawler.yaml"

// Driver kinds.
const (
	DriverChrome = "chrome"
	DriverMemory = "memory"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Config is the full application configuration.
type Config struct {
	Driver         DriverConfig `yaml:"driver" json:"driver"`
	Store          StoreConfig  `yaml:"store" json:"store"`
	Server         ServerConfig `yaml:"server" json:"server"`
	Log            LogConfig    `yaml:"log" json:"log"`
	ConflictPolicy string       `yaml:"conflict_policy" json:"conflict_policy"`
}

// DriverConfig selects the browser driver.
type DriverConfig struct {
	Kind            string        `yaml:"kind" json:"kind"`
	RemoteURL       string        `yaml:"remote_url" json:"remote_url"`
	Headless        bool          `yaml:"headless" json:"headless"`
	Timeout         time.Duration `yaml:"timeout" json:"timeout"`
	PageLoadTimeout time.Duration `yaml:"page_load_timeout" json:"page_load_timeout"`
	Proxy           string        `yaml:"proxy" json:"proxy"`
	UserAgent       string        `yaml:"user_agent" json:"user_agent"`
	// Fixtures feeds the memory driver.
	Fixtures string `yaml:"fixtures" json:"fixtures"`
}

// StoreConfig selects where results are kept.
type StoreConfig struct {
	Kind  string      `yaml:"kind" json:"kind"`
	Path  string      `yaml:"path" json:"path"`
	Redis RedisConfig `yaml:"redis" json:"redis"`
	// EncryptionKey is a base64 AES-256 key. Results are sealed at rest when set.
	EncryptionKey string `yaml:"encryption_key" json:"encryption_key"`
	// FallbackKeys decrypt results sealed before a key rotation.
	FallbackKeys []string `yaml:"fallback_keys" json:"fallback_keys"`
	// Mask lists regular expressions over state paths whose values are
	// replaced before saving.
	Mask []string `yaml:"mask" json:"mask"`
}

// RedisConfig is shared by the redis store and the redis locker.
type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// ServerConfig configures the HTTP front-end.
type ServerConfig struct {
	Addr    string        `yaml:"addr" json:"addr"`
	LockTTL time.Duration `yaml:"lock_ttl" json:"lock_ttl"`
}

// LogConfig configures internal/logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Driver: DriverConfig{
			Kind:            DriverChrome,
			Headless:        true,
			Timeout:         10 * time.Second,
			PageLoadTimeout: 30 * time.Second,
		},
		Store: StoreConfig{Kind: StoreMemory},
		Server: ServerConfig{
			Addr:    ":9999",
			LockTTL: 5 * time.Minute,
		},
		Log:            LogConfig{Level: "info", Format: "text"},
		ConflictPolicy: "overwrite",
	}
}

// Load reads path over the defaults. A missing file is not an error unless
// required is set (an explicit --config).
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decode(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && !required:
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// decode reads YAML; JSON files parse too since YAML is a superset.
func decode(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// applyEnv overrides the deployment-specific fields.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"TRAWLER_DRIVER_KIND":       &c.Driver.Kind,
		"TRAWLER_DRIVER_REMOTE_URL": &c.Driver.RemoteURL,
		"TRAWLER_DRIVER_PROXY":      &c.Driver.Proxy,
		"TRAWLER_STORE_KIND":        &c.Store.Kind,
		"TRAWLER_STORE_PATH":        &c.Store.Path,
		"TRAWLER_REDIS_ADDR":        &c.Store.Redis.Addr,
		"TRAWLER_REDIS_PASSWORD":    &c.Store.Redis.Password,
		"TRAWLER_STORE_KEY":         &c.Store.EncryptionKey,
		"TRAWLER_SERVER_ADDR":       &c.Server.Addr,
		"TRAWLER_LOG_LEVEL":         &c.Log.Level,
		"TRAWLER_LOG_FORMAT":        &c.Log.Format,
	}
	for key, field := range str {
		if v, ok := lookup(key); ok {
			*field = v
		}
	}
	if v, ok := lookup("TRAWLER_DRIVER_HEADLESS"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("TRAWLER_DRIVER_HEADLESS: %w", err)
		}
		c.Driver.Headless = b
	}
	if v, ok := lookup("TRAWLER_REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("TRAWLER_REDIS_DB: %w", err)
		}
		c.Store.Redis.DB = n
	}
	return nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	switch c.Driver.Kind {
	case DriverChrome, DriverMemory:
	default:
		return fmt.Errorf("unknown driver kind %q", c.Driver.Kind)
	}
	switch c.Store.Kind {
	case StoreMemory, StoreFile:
	case StoreRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the redis store")
		}
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	if c.Store.EncryptionKey != "" {
		if _, _, err := c.Store.Keys(); err != nil {
			return err
		}
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	return nil
}

// Keys decodes the active and fallback encryption keys.
func (s StoreConfig) Keys() ([]byte, [][]byte, error) {
	active, err := base64.StdEncoding.DecodeString(s.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("store.encryption_key: %w", err)
	}
	fallback := make([][]byte, len(s.FallbackKeys))
	for i, k := range s.FallbackKeys {
		if fallback[i], err = base64.StdEncoding.DecodeString(k); err != nil {
			return nil, nil, fmt.Errorf("store.fallback_keys[%d]: %w", i, err)
		}
	}
	return active, fallback, nil
}

// Policy returns the parsed conflict policy.
func (c *Config) Policy() (domain.ConflictPolicy, error) {
	return domain.ParseConflictPolicy(c.ConflictPolicy)
}
