// Package config loads bookclub settings from defaults, an optional YAML file,
// BOOKCLUB_* environment variables and command-line flags, in that order of
// precedence.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/aretw0/bookclub/pkg/observability"
)

// EnvPrefix is prepended to every environment key: sessions.store is read
// from BOOKCLUB_SESSIONS_STORE.
const EnvPrefix = "BOOKCLUB"

// Store kinds.
const (
	StoreMemory    = "memory"
	StoreFile      = "file"
	StoreRedis     = "redis"
	StorePostgREST = "postgrest"
	StoreFirebase  = "firebase"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the decoded application configuration.
type Config struct {
	Addr     string        `mapstructure:"addr"`
	Log      LogConfig     `mapstructure:"log"`
	HTTP     HTTPConfig    `mapstructure:"http"`
	Flow     FlowConfig    `mapstructure:"flow"`
	Sessions SessionConfig `mapstructure:"sessions"`
	Records  RecordConfig  `mapstructure:"records"`
	Admin    AdminConfig   `mapstructure:"admin"`

	Redis     RedisConfig     `mapstructure:"redis"`
	PostgREST PostgRESTConfig `mapstructure:"postgrest"`
	Firebase  FirebaseConfig  `mapstructure:"firebase"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	NATS      NATSConfig      `mapstructure:"nats"`

	Tracing observability.TracingConfig `mapstructure:"tracing"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HTTPConfig struct {
	SecureCookies bool `mapstructure:"secure_cookies"`
}

type FlowConfig struct {
	// Script is a YAML step script; empty uses the built-in signup.
	Script      string        `mapstructure:"script"`
	SubmitLease time.Duration `mapstructure:"submit_lease"`
}

type SessionConfig struct {
	Store string        `mapstructure:"store"`
	Dir   string        `mapstructure:"dir"`
	TTL   time.Duration `mapstructure:"ttl"`
	// PIIPatterns match answer field names masked before a state is persisted.
	PIIPatterns []string `mapstructure:"pii_patterns"`
	// EncryptionKey is a base64 AES-256 key; FallbackKeys decrypt older states.
	EncryptionKey string   `mapstructure:"encryption_key"`
	FallbackKeys  []string `mapstructure:"fallback_keys"`
	// Lock enables the Redis distributed lock across replicas.
	Lock    bool          `mapstructure:"lock"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
}

type RecordConfig struct {
	Store string `mapstructure:"store"`
}

type AdminConfig struct {
	// Email and Password seed an operator in the memory authenticator and
	// are the identity the MCP server signs in as.
	Email       string        `mapstructure:"email"`
	Password    string        `mapstructure:"password"`
	Name        string        `mapstructure:"name"`
	Auth        string        `mapstructure:"auth"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
	CacheSize   int           `mapstructure:"cache_size"`
	CountryCode string        `mapstructure:"country_code"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type PostgRESTConfig struct {
	URL    string `mapstructure:"url"`
	APIKey string `mapstructure:"api_key"`
	Table  string `mapstructure:"table"`
}

type FirebaseConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	DatabaseURL     string `mapstructure:"database_url"`
	Path            string `mapstructure:"path"`
}

type TelegramConfig struct {
	Token  string `mapstructure:"token"`
	ChatID string `mapstructure:"chat_id"`
}

type NATSConfig struct {
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("http.secure_cookies", false)

	v.SetDefault("flow.script", "")
	v.SetDefault("flow.submit_lease", 2*time.Minute)

	v.SetDefault("sessions.store", StoreMemory)
	v.SetDefault("sessions.dir", ".bookclub/sessions")
	v.SetDefault("sessions.ttl", 24*time.Hour)
	v.SetDefault("sessions.pii_patterns", []string{})
	v.SetDefault("sessions.encryption_key", "")
	v.SetDefault("sessions.fallback_keys", []string{})
	v.SetDefault("sessions.lock", false)
	v.SetDefault("sessions.lock_ttl", 30*time.Second)

	v.SetDefault("records.store", StoreMemory)

	v.SetDefault("admin.email", "")
	v.SetDefault("admin.password", "")
	v.SetDefault("admin.name", "")
	v.SetDefault("admin.auth", StoreMemory)
	v.SetDefault("admin.cache_ttl", 5*time.Minute)
	v.SetDefault("admin.cache_size", 256)
	v.SetDefault("admin.country_code", "55")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "bookclub:")

	v.SetDefault("postgrest.url", "")
	v.SetDefault("postgrest.api_key", "")
	v.SetDefault("postgrest.table", "candidates")

	v.SetDefault("firebase.credentials_file", "")
	v.SetDefault("firebase.database_url", "")
	v.SetDefault("firebase.path", "candidates")

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.chat_id", "")

	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject", "bookclub.candidates.submitted")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.otlp_endpoint", "localhost:4318")
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.service_name", "bookclub")
	v.SetDefault("tracing.service_version", "")
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"addr":          "addr",
	"log-level":     "log.level",
	"log-format":    "log.format",
	"session-store": "sessions.store",
	"session-dir":   "sessions.dir",
	"record-store":  "records.store",
	"script":        "flow.script",
}

// Load reads the configuration. path may be empty; flags may be nil. Only
// flags explicitly set on the command line override the other sources.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks store kinds and the settings each one requires.
func (c Config) Validate() error {
	switch c.Sessions.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("%w: unknown session store %q", ErrInvalidConfig, c.Sessions.Store)
	}

	switch c.Records.Store {
	case StoreMemory, StoreRedis:
	case StorePostgREST:
		if c.PostgREST.URL == "" {
			return fmt.Errorf("%w: postgrest.url is required", ErrInvalidConfig)
		}
	case StoreFirebase:
		if c.Firebase.DatabaseURL == "" {
			return fmt.Errorf("%w: firebase.database_url is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown record store %q", ErrInvalidConfig, c.Records.Store)
	}

	switch c.Admin.Auth {
	case StoreMemory:
	case StorePostgREST:
		if c.PostgREST.URL == "" {
			return fmt.Errorf("%w: postgrest.url is required for postgrest auth", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown admin auth %q", ErrInvalidConfig, c.Admin.Auth)
	}

	if c.Sessions.Lock && c.Sessions.Store != StoreRedis {
		return fmt.Errorf("%w: sessions.lock requires the redis session store", ErrInvalidConfig)
	}
	for _, p := range c.Sessions.PIIPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("%w: pii pattern %q: %w", ErrInvalidConfig, p, err)
		}
	}
	if _, _, err := c.Sessions.Keys(); err != nil {
		return err
	}
	return nil
}

// Keys decodes the encryption keys. A nil active key disables encryption.
func (s SessionConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	if active, err = decodeKey(s.EncryptionKey); err != nil {
		return nil, nil, err
	}
	for _, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("%w: encryption key is not base64: %w", ErrInvalidConfig, err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: encryption key must decode to 32 bytes, got %d", ErrInvalidConfig, len(key))
	}
	return key, nil
}
