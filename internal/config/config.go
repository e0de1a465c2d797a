// Package config provides Viper-based configuration loading for the race server.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mcoot/sudoku-race/internal/api"
	"github.com/mcoot/sudoku-race/internal/services/protocol"
	redisstorage "github.com/mcoot/sudoku-race/internal/storage/redis"
)

// Storage backends
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
}

// Addr returns the "host:port" listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// HTTP converts to the API server's configuration.
func (s ServerConfig) HTTP() api.ServerConfig {
	return api.ServerConfig{
		Host:              s.Host,
		Port:              s.Port,
		ReadHeaderTimeout: s.ReadHeaderTimeout,
		IdleTimeout:       s.IdleTimeout,
		ShutdownTimeout:   s.ShutdownTimeout,
	}
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "text".
	Format string `mapstructure:"format"`
}

// SlogLevel returns the slog level for Level. Unknown values fall back to info.
func (l LoggingConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// SessionConfig holds the protocol engine's background task timings.
type SessionConfig struct {
	TimerInterval    time.Duration `mapstructure:"timer_interval"`
	SweepInterval    time.Duration `mapstructure:"sweep_interval"`
	HeartbeatTimeout time.Duration `mapstructure:"heartbeat_timeout"`
	ReconnectTimeout time.Duration `mapstructure:"reconnect_timeout"`
	// IdleRoomTTL of zero disables reaping.
	IdleRoomTTL time.Duration `mapstructure:"idle_room_ttl"`
}

// Protocol converts to the engine's configuration.
func (s SessionConfig) Protocol() protocol.Config {
	return protocol.Config{
		TimerInterval:    s.TimerInterval,
		SweepInterval:    s.SweepInterval,
		HeartbeatTimeout: s.HeartbeatTimeout,
		ReconnectTimeout: s.ReconnectTimeout,
		IdleRoomTTL:      s.IdleRoomTTL,
	}
}

// RedisConfig holds Redis connection settings for the results archive.
type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	ResultTTL    time.Duration `mapstructure:"result_ttl"`
}

// Client converts to the Redis storage configuration.
func (r RedisConfig) Client() redisstorage.Config {
	return redisstorage.Config{
		URL:          r.URL,
		PoolSize:     r.PoolSize,
		MinIdleConns: r.MinIdleConns,
		ResultTTL:    r.ResultTTL,
	}
}

// StorageConfig selects the results archive backend.
type StorageConfig struct {
	// Type is "memory" or "redis".
	Type  string      `mapstructure:"type"`
	Redis RedisConfig `mapstructure:"redis"`
}

// Config is the top-level application configuration.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Session SessionConfig `mapstructure:"session"`
	Storage StorageConfig `mapstructure:"storage"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	for _, validate := range []func() error{
		func() error { return validateServer(c.Server) },
		func() error { return validateLogging(c.Logging) },
		func() error { return validateSession(c.Session) },
		func() error { return validateStorage(c.Storage) },
	} {
		if err := validate(); err != nil {
			errs = append(errs, err.Error())
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if s.ReadHeaderTimeout < 0 {
		errs = append(errs, "server.read_header_timeout must not be negative")
	}
	if s.IdleTimeout < 0 {
		errs = append(errs, "server.idle_timeout must not be negative")
	}
	if s.ShutdownTimeout <= 0 {
		errs = append(errs, "server.shutdown_timeout must be positive")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	var errs []string
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(l.Level)] {
		errs = append(errs, fmt.Sprintf("logging.level must be one of [debug, info, warn, error], got %q", l.Level))
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		errs = append(errs, fmt.Sprintf("logging.format must be one of [json, text], got %q", l.Format))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateSession(s SessionConfig) error {
	var errs []string
	positive := []struct {
		name  string
		value time.Duration
	}{
		{"session.timer_interval", s.TimerInterval},
		{"session.sweep_interval", s.SweepInterval},
		{"session.heartbeat_timeout", s.HeartbeatTimeout},
		{"session.reconnect_timeout", s.ReconnectTimeout},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got %s", p.name, p.value))
		}
	}
	if s.IdleRoomTTL < 0 {
		errs = append(errs, "session.idle_room_ttl must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	switch s.Type {
	case StorageTypeMemory:
		return nil
	case StorageTypeRedis:
	default:
		return fmt.Errorf("storage.type must be one of [memory, redis], got %q", s.Type)
	}

	var errs []string
	if s.Redis.URL == "" {
		errs = append(errs, "storage.redis.url must not be empty")
	}
	if s.Redis.PoolSize < 1 {
		errs = append(errs, fmt.Sprintf("storage.redis.pool_size must be >= 1, got %d", s.Redis.PoolSize))
	}
	if s.Redis.MinIdleConns < 0 {
		errs = append(errs, fmt.Sprintf("storage.redis.min_idle_conns must be >= 0, got %d", s.Redis.MinIdleConns))
	}
	if s.Redis.MinIdleConns > s.Redis.PoolSize {
		errs = append(errs, "storage.redis.min_idle_conns must not exceed storage.redis.pool_size")
	}
	if s.Redis.ResultTTL < 0 {
		errs = append(errs, "storage.redis.result_ttl must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// New returns a Viper instance with defaults and SUDOKU_ environment overrides applied.
// path may be empty, in which case no file is read.
func New(path string) *viper.Viper {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("SUDOKU")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	return v
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result. An empty path uses defaults and environment only.
func Load(path string) (Config, error) {
	v := New(path)
	if path != "" {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}
	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper instance.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	server := api.DefaultServerConfig()
	v.SetDefault("server.host", server.Host)
	v.SetDefault("server.port", server.Port)
	v.SetDefault("server.read_header_timeout", server.ReadHeaderTimeout.String())
	v.SetDefault("server.idle_timeout", server.IdleTimeout.String())
	v.SetDefault("server.shutdown_timeout", server.ShutdownTimeout.String())

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	session := protocol.DefaultConfig()
	v.SetDefault("session.timer_interval", session.TimerInterval.String())
	v.SetDefault("session.sweep_interval", session.SweepInterval.String())
	v.SetDefault("session.heartbeat_timeout", session.HeartbeatTimeout.String())
	v.SetDefault("session.reconnect_timeout", session.ReconnectTimeout.String())
	v.SetDefault("session.idle_room_ttl", session.IdleRoomTTL.String())

	redis := redisstorage.DefaultConfig()
	v.SetDefault("storage.type", StorageTypeMemory)
	v.SetDefault("storage.redis.url", redis.URL)
	v.SetDefault("storage.redis.pool_size", redis.PoolSize)
	v.SetDefault("storage.redis.min_idle_conns", redis.MinIdleConns)
	v.SetDefault("storage.redis.result_ttl", redis.ResultTTL.String())
}
