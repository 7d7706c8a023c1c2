package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/brotab/internal/model"
)

// clearEnv unsets every variable Load reads so the host environment does
// not leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BT_BASE_PORT", "BT_WINDOW", "BT_DIAL_TIMEOUT", "BT_FETCH_TIMEOUT",
		"BT_LOG_LEVEL", "BT_LOG_FORMAT", "EDITOR",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 4625, cfg.BasePort)
	assert.Equal(t, model.Port(4625), cfg.Base())
	assert.Equal(t, 10, cfg.Window)
	assert.Equal(t, 50*time.Millisecond, cfg.DialTimeout)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, DefaultEditor(), cfg.Editor)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BT_BASE_PORT", "5000")
	t.Setenv("BT_WINDOW", "3")
	t.Setenv("BT_DIAL_TIMEOUT", "100ms")
	t.Setenv("BT_FETCH_TIMEOUT", "0s")
	t.Setenv("BT_LOG_FORMAT", "json")
	t.Setenv("EDITOR", "vim")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.BasePort)
	assert.Equal(t, 3, cfg.Window)
	assert.Equal(t, 100*time.Millisecond, cfg.DialTimeout)
	assert.Equal(t, time.Duration(0), cfg.FetchTimeout, "zero disables the fetch bound")
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "vim", cfg.Editor)
}

// TestLoad_EditorPrefixIgnored verifies that only the exact EDITOR
// variable is read.
func TestLoad_EditorPrefixIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("EDITOR_OPTS", "--clean")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultEditor(), cfg.Editor)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "port not a number", key: "BT_BASE_PORT", value: "http"},
		{name: "port too large", key: "BT_BASE_PORT", value: "70000"},
		{name: "window overflows", key: "BT_BASE_PORT", value: "65530"},
		{name: "bad duration", key: "BT_DIAL_TIMEOUT", value: "soon"},
		{name: "bad log format", key: "BT_LOG_FORMAT", value: "xml"},
		{name: "bad log level", key: "BT_LOG_LEVEL", value: "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults", mutate: func(*Config) {}},
		{name: "last valid window", mutate: func(c *Config) { c.BasePort = 65526; c.Window = 10 }},
		{name: "overflow", mutate: func(c *Config) { c.BasePort = 65527; c.Window = 10 }, wantErr: true},
		{name: "zero window", mutate: func(c *Config) { c.Window = 0 }, wantErr: true},
		{name: "zero port", mutate: func(c *Config) { c.BasePort = 0 }, wantErr: true},
		{name: "zero dial timeout", mutate: func(c *Config) { c.DialTimeout = 0 }, wantErr: true},
		{name: "negative fetch timeout", mutate: func(c *Config) { c.FetchTimeout = -time.Second }, wantErr: true},
		{name: "upper-case log level", mutate: func(c *Config) { c.LogLevel = "DEBUG" }},
		{name: "unknown log level", mutate: func(c *Config) { c.LogLevel = "verbose" }, wantErr: true},
		{name: "empty log level", mutate: func(c *Config) { c.LogLevel = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// TestValidate_BlankEditor verifies that a blank editor falls back to the
// platform default instead of failing later at exec time.
func TestValidate_BlankEditor(t *testing.T) {
	cfg := defaults()
	cfg.Editor = "  "
	require.NoError(t, cfg.Validate())
	assert.Equal(t, DefaultEditor(), cfg.Editor)
}
