package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"avaneesh/anpp-go/pkg/internal/logger"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Address() != "127.0.0.1:16718" {
		t.Errorf("Address() = %s", cfg.Address())
	}
	if cfg.Timeout() != time.Second {
		t.Errorf("Timeout() = %v", cfg.Timeout())
	}

	policy := cfg.ReconnectPolicy()
	if policy.MaxAttempts != 3 || policy.InitialBackoff != 500*time.Millisecond ||
		policy.MaxBackoff != 5*time.Second || policy.Multiplier != 2 {
		t.Errorf("ReconnectPolicy() = %+v", policy)
	}
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "anpp.yaml", `
device:
  host: 10.0.0.5
  timeout_ms: 250
reconnect:
  max_attempts: 0
logging:
  level: debug
  frame_debug: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Address() != "10.0.0.5:16718" {
		t.Errorf("Address() = %s, port should keep its default", cfg.Address())
	}
	if cfg.Timeout() != 250*time.Millisecond {
		t.Errorf("Timeout() = %v", cfg.Timeout())
	}
	if cfg.Reconnect.MaxAttempts != 0 {
		t.Errorf("MaxAttempts = %d", cfg.Reconnect.MaxAttempts)
	}
	if cfg.LogLevel() != logger.LevelDebug || !cfg.Logging.FrameDebug {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected ErrNotExist, got %v", err)
	}

	bad := writeFile(t, "bad.yaml", "device: [unclosed")
	if _, err := Load(bad); err == nil {
		t.Error("expected parse error")
	}

	invalid := writeFile(t, "invalid.yaml", "device:\n  port: 70000\n")
	if _, err := Load(invalid); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*File)
	}{
		{"Empty host", func(c *File) { c.Device.Host = "" }},
		{"Zero port", func(c *File) { c.Device.Port = 0 }},
		{"Zero timeout", func(c *File) { c.Device.TimeoutMS = 0 }},
		{"Negative attempts", func(c *File) { c.Reconnect.MaxAttempts = -1 }},
		{"Max below initial", func(c *File) { c.Reconnect.MaxBackoffMS = 100 }},
		{"Shrinking multiplier", func(c *File) { c.Reconnect.Multiplier = 0.5 }},
		{"Unknown level", func(c *File) { c.Logging.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvHost, "device.local")
	t.Setenv(EnvPort, "9000")
	t.Setenv(EnvTimeoutMS, "1500")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvFrameDebug, "true")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.Address() != "device.local:9000" {
		t.Errorf("Address() = %s", cfg.Address())
	}
	if cfg.Timeout() != 1500*time.Millisecond {
		t.Errorf("Timeout() = %v", cfg.Timeout())
	}
	if cfg.LogLevel() != logger.LevelWarn || !cfg.Logging.FrameDebug {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	t.Setenv(EnvPort, "sixteen")

	cfg := Default()
	if err := cfg.ApplyEnv(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestLoadEnv(t *testing.T) {
	path := writeFile(t, ".env", "ANPP_HOST=from-dotenv\nANPP_PORT=17000\n")
	t.Setenv(EnvHost, "")
	os.Unsetenv(EnvHost)
	t.Setenv(EnvPort, "")
	os.Unsetenv(EnvPort)

	if err := LoadEnv(path); err != nil {
		t.Fatalf("LoadEnv failed: %v", err)
	}

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.Address() != "from-dotenv:17000" {
		t.Errorf("Address() = %s", cfg.Address())
	}
}
