package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const envPrefix = "CRYPTOWIDGET_"

var defaultWsURLs = map[string]string{
	"binance": "wss://fstream.binance.com",
	"okx":     "wss://ws.okx.com:8443/ws/v5/public",
}

const (
	BackendFile       = "file"
	BackendSQLite     = "sqlite"
	BackendPostgres   = "postgres"
	BackendFileSQLite = "file+sqlite"
)

type Config struct {
	App struct {
		PrintEveryMin int  `toml:"print_every_min" yaml:"print_every_min"`
		NoColor       bool `toml:"no_color" yaml:"no_color"`
	} `toml:"app" yaml:"app"`

	Feed struct {
		Exchange string `toml:"exchange" yaml:"exchange"`
		WsURL    string `toml:"ws_url" yaml:"ws_url"` // e.g. wss://fstream.binance.com
	} `toml:"feed" yaml:"feed"`

	Stream struct {
		MaxReconnectAttempts int     `toml:"max_reconnect_attempts" yaml:"max_reconnect_attempts"`
		RetryDelayMs         int     `toml:"retry_delay_ms" yaml:"retry_delay_ms"`
		MaxRetryDelayMs      int     `toml:"max_retry_delay_ms" yaml:"max_retry_delay_ms"`
		BackoffMultiplier    float64 `toml:"backoff_multiplier" yaml:"backoff_multiplier"`
		ReadTimeoutSec       int     `toml:"read_timeout_sec" yaml:"read_timeout_sec"`
		PingIntervalSec      int     `toml:"ping_interval_sec" yaml:"ping_interval_sec"`
		HandshakeTimeoutSec  int     `toml:"handshake_timeout_sec" yaml:"handshake_timeout_sec"`
		ShutdownGraceMs      int     `toml:"shutdown_grace_ms" yaml:"shutdown_grace_ms"`
	} `toml:"stream" yaml:"stream"`

	Settings struct {
		Backend     string `toml:"backend" yaml:"backend"`
		Path        string `toml:"path" yaml:"path"`
		SQLitePath  string `toml:"sqlite_path" yaml:"sqlite_path"`
		PostgresDSN string `toml:"postgres_dsn" yaml:"postgres_dsn"`
		Profile     string `toml:"profile" yaml:"profile"` // row key in the shared postgres table
	} `toml:"settings" yaml:"settings"`

	Redis struct {
		Enabled    bool   `toml:"enabled" yaml:"enabled"`
		Addr       string `toml:"addr" yaml:"addr"`
		Password   string `toml:"password" yaml:"password"`
		DB         int    `toml:"db" yaml:"db"`
		Prefix     string `toml:"prefix" yaml:"prefix"`
		TTLSeconds int    `toml:"ttl_seconds" yaml:"ttl_seconds"`
		Channel    string `toml:"channel" yaml:"channel"`
	} `toml:"redis" yaml:"redis"`

	Log struct {
		Level string `toml:"level" yaml:"level"`
	} `toml:"log" yaml:"log"`
}

// Load reads path (TOML, or YAML for .yaml/.yml), applies a .env file and
// CRYPTOWIDGET_* overrides, then defaults. An empty or missing path yields defaults.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := decodeFile(path, &cfg); err != nil {
		return nil, err
	}
	_ = godotenv.Load()
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeFile(path string, cfg *Config) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if _, err := toml.Decode(string(b), cfg); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}
	str("WS_URL", &cfg.Feed.WsURL)
	str("EXCHANGE", &cfg.Feed.Exchange)
	str("LOG_LEVEL", &cfg.Log.Level)
	str("SETTINGS_BACKEND", &cfg.Settings.Backend)
	str("SETTINGS_PATH", &cfg.Settings.Path)
	str("SQLITE_PATH", &cfg.Settings.SQLitePath)
	str("POSTGRES_DSN", &cfg.Settings.PostgresDSN)
	str("REDIS_ADDR", &cfg.Redis.Addr)
	str("REDIS_PASSWORD", &cfg.Redis.Password)

	if v, ok := os.LookupEnv(envPrefix + "REDIS_ENABLED"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sREDIS_ENABLED: %w", envPrefix, err)
		}
		cfg.Redis.Enabled = b
	}
	if v, ok := os.LookupEnv(envPrefix + "MAX_RECONNECT_ATTEMPTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sMAX_RECONNECT_ATTEMPTS: %w", envPrefix, err)
		}
		cfg.Stream.MaxReconnectAttempts = n
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.PrintEveryMin <= 0 {
		cfg.App.PrintEveryMin = 5
	}
	if strings.TrimSpace(cfg.Feed.Exchange) == "" {
		cfg.Feed.Exchange = "binance"
	}
	cfg.Feed.Exchange = strings.ToLower(strings.TrimSpace(cfg.Feed.Exchange))
	if strings.TrimSpace(cfg.Feed.WsURL) == "" {
		cfg.Feed.WsURL = defaultWsURLs[cfg.Feed.Exchange]
	}

	s := &cfg.Stream
	if s.MaxReconnectAttempts <= 0 {
		s.MaxReconnectAttempts = 5
	}
	if s.RetryDelayMs <= 0 {
		s.RetryDelayMs = 5000
	}
	if s.MaxRetryDelayMs < s.RetryDelayMs {
		s.MaxRetryDelayMs = s.RetryDelayMs
	}
	if s.BackoffMultiplier < 1 {
		s.BackoffMultiplier = 1
	}
	if s.ReadTimeoutSec <= 0 {
		s.ReadTimeoutSec = 60
	}
	if s.PingIntervalSec <= 0 {
		s.PingIntervalSec = 25
	}
	if s.HandshakeTimeoutSec <= 0 {
		s.HandshakeTimeoutSec = 10
	}
	if s.ShutdownGraceMs <= 0 {
		s.ShutdownGraceMs = 2000
	}

	if strings.TrimSpace(cfg.Settings.Backend) == "" {
		cfg.Settings.Backend = BackendFile
	}
	cfg.Settings.Backend = strings.ToLower(strings.TrimSpace(cfg.Settings.Backend))
	if strings.TrimSpace(cfg.Settings.Path) == "" {
		cfg.Settings.Path = DefaultSettingsPath()
	}
	cfg.Settings.Path = ExpandHome(cfg.Settings.Path)
	if strings.TrimSpace(cfg.Settings.SQLitePath) == "" {
		cfg.Settings.SQLitePath = filepath.Join(filepath.Dir(cfg.Settings.Path), "settings.db")
	}
	cfg.Settings.SQLitePath = ExpandHome(cfg.Settings.SQLitePath)

	if strings.TrimSpace(cfg.Redis.Addr) == "" {
		cfg.Redis.Addr = "127.0.0.1:6379"
	}
	if strings.TrimSpace(cfg.Redis.Prefix) == "" {
		cfg.Redis.Prefix = "cryptowidget"
	}
	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = "info"
	}
}

func validate(cfg *Config) error {
	switch cfg.Settings.Backend {
	case BackendFile, BackendSQLite, BackendFileSQLite:
	case BackendPostgres:
		if strings.TrimSpace(cfg.Settings.PostgresDSN) == "" {
			return errors.New("settings.postgres_dsn empty but postgres backend selected")
		}
	default:
		return fmt.Errorf("settings.backend %q not supported", cfg.Settings.Backend)
	}
	if cfg.Feed.WsURL == "" {
		return fmt.Errorf("feed.ws_url empty and no default for exchange %q", cfg.Feed.Exchange)
	}
	if !strings.HasPrefix(cfg.Feed.WsURL, "ws://") && !strings.HasPrefix(cfg.Feed.WsURL, "wss://") {
		return fmt.Errorf("feed.ws_url %q must be a ws:// or wss:// url", cfg.Feed.WsURL)
	}
	if cfg.Redis.Enabled && cfg.Redis.TTLSeconds < 0 {
		return errors.New("redis.ttl_seconds must not be negative")
	}
	return nil
}

func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.Stream.RetryDelayMs) * time.Millisecond
}

func (c *Config) MaxRetryDelay() time.Duration {
	return time.Duration(c.Stream.MaxRetryDelayMs) * time.Millisecond
}

func (c *Config) ShutdownGrace() time.Duration {
	return time.Duration(c.Stream.ShutdownGraceMs) * time.Millisecond
}
