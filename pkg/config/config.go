// Package config loads client settings from YAML files and the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"avaneesh/anpp-go/pkg/channel"
	"avaneesh/anpp-go/pkg/internal/logger"
	"avaneesh/anpp-go/pkg/link"
)

// Environment variables that override file settings
const (
	EnvHost       = "ANPP_HOST"
	EnvPort       = "ANPP_PORT"
	EnvTimeoutMS  = "ANPP_TIMEOUT_MS"
	EnvLogLevel   = "ANPP_LOG_LEVEL"
	EnvFrameDebug = "ANPP_FRAME_DEBUG"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// File is the top-level layout of a config file
type File struct {
	Device    DeviceConfig    `yaml:"device"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeviceConfig locates the device
type DeviceConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	TimeoutMS int    `yaml:"timeout_ms"` // Connect and response timeout
}

// ReconnectConfig bounds automatic reconnection
type ReconnectConfig struct {
	MaxAttempts      int     `yaml:"max_attempts"`
	InitialBackoffMS int     `yaml:"initial_backoff_ms"`
	MaxBackoffMS     int     `yaml:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier"`
}

// LoggingConfig selects log verbosity
type LoggingConfig struct {
	Level      string `yaml:"level"`
	FrameDebug bool   `yaml:"frame_debug"`
}

// Default returns the settings used when nothing is configured
func Default() File {
	policy := channel.DefaultReconnectPolicy()
	return File{
		Device: DeviceConfig{
			Host:      "127.0.0.1",
			Port:      link.DefaultPort,
			TimeoutMS: 1000,
		},
		Reconnect: ReconnectConfig{
			MaxAttempts:      policy.MaxAttempts,
			InitialBackoffMS: int(policy.InitialBackoff / time.Millisecond),
			MaxBackoffMS:     int(policy.MaxBackoff / time.Millisecond),
			Multiplier:       policy.Multiplier,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (File, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// LoadEnv loads a .env file into the process environment. Variables already
// set are not overwritten.
func LoadEnv(path string) error {
	return godotenv.Load(path)
}

// ApplyEnv overrides settings from ANPP_* environment variables
func (c *File) ApplyEnv() error {
	if v, ok := os.LookupEnv(EnvHost); ok && v != "" {
		c.Device.Host = v
	}
	if v, ok := os.LookupEnv(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, EnvPort, v, err)
		}
		c.Device.Port = port
	}
	if v, ok := os.LookupEnv(EnvTimeoutMS); ok && v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, EnvTimeoutMS, v, err)
		}
		c.Device.TimeoutMS = ms
	}
	if v, ok := os.LookupEnv(EnvLogLevel); ok && v != "" {
		c.Logging.Level = v
	}
	if v, ok := os.LookupEnv(EnvFrameDebug); ok && v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, EnvFrameDebug, v, err)
		}
		c.Logging.FrameDebug = on
	}
	return c.Validate()
}

// Validate checks ranges
func (c *File) Validate() error {
	if c.Device.Host == "" {
		return fmt.Errorf("%w: device.host is empty", ErrInvalidConfig)
	}
	if c.Device.Port < 1 || c.Device.Port > 65535 {
		return fmt.Errorf("%w: device.port %d out of range", ErrInvalidConfig, c.Device.Port)
	}
	if c.Device.TimeoutMS <= 0 {
		return fmt.Errorf("%w: device.timeout_ms must be positive", ErrInvalidConfig)
	}
	if c.Reconnect.MaxAttempts < 0 {
		return fmt.Errorf("%w: reconnect.max_attempts is negative", ErrInvalidConfig)
	}
	if c.Reconnect.InitialBackoffMS < 0 || c.Reconnect.MaxBackoffMS < 0 {
		return fmt.Errorf("%w: reconnect backoff is negative", ErrInvalidConfig)
	}
	if c.Reconnect.MaxBackoffMS > 0 && c.Reconnect.MaxBackoffMS < c.Reconnect.InitialBackoffMS {
		return fmt.Errorf("%w: reconnect.max_backoff_ms below initial_backoff_ms", ErrInvalidConfig)
	}
	if c.Reconnect.Multiplier != 0 && c.Reconnect.Multiplier < 1 {
		return fmt.Errorf("%w: reconnect.multiplier %v below 1", ErrInvalidConfig, c.Reconnect.Multiplier)
	}
	if _, err := logger.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Address returns host:port
func (c *File) Address() string {
	return net.JoinHostPort(c.Device.Host, strconv.Itoa(c.Device.Port))
}

// Timeout returns the device timeout
func (c *File) Timeout() time.Duration {
	return time.Duration(c.Device.TimeoutMS) * time.Millisecond
}

// ReconnectPolicy converts the reconnect section
func (c *File) ReconnectPolicy() channel.ReconnectPolicy {
	return channel.ReconnectPolicy{
		MaxAttempts:    c.Reconnect.MaxAttempts,
		InitialBackoff: time.Duration(c.Reconnect.InitialBackoffMS) * time.Millisecond,
		MaxBackoff:     time.Duration(c.Reconnect.MaxBackoffMS) * time.Millisecond,
		Multiplier:     c.Reconnect.Multiplier,
	}
}

// LogLevel returns the parsed logging level
func (c *File) LogLevel() logger.Level {
	level, _ := logger.ParseLevel(c.Logging.Level)
	return level
}
