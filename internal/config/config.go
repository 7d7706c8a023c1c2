// Package config loads bt settings using koanf.
// Precedence: command-line flags → environment → compiled defaults.
// There is no configuration file.
package config

import (
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/shinji-kodama/brotab/internal/mediator"
	"github.com/shinji-kodama/brotab/internal/model"
	"github.com/shinji-kodama/brotab/internal/port"
)

// envPrefix namespaces bt's own environment variables (BT_BASE_PORT, …).
const envPrefix = "BT_"

// Config holds all runtime settings of one invocation.
type Config struct {
	// BasePort is the first port probed for a mediator.
	BasePort int `koanf:"base_port"`

	// Window is the number of consecutive ports probed from BasePort.
	Window int `koanf:"window"`

	// DialTimeout bounds a single liveness probe.
	DialTimeout time.Duration `koanf:"dial_timeout"`

	// FetchTimeout bounds a single mediator HTTP request. Zero means no bound.
	FetchTimeout time.Duration `koanf:"fetch_timeout"`

	// Editor is the command used by `bt move`. Read from $EDITOR.
	Editor string `koanf:"editor"`

	// Logging configuration
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

// DefaultEditor returns the editor used when $EDITOR is unset.
func DefaultEditor() string {
	if runtime.GOOS == "windows" {
		return "notepad"
	}
	return "nvim"
}

// defaults returns a Config with compiled default values.
func defaults() *Config {
	return &Config{
		BasePort:     int(port.DefaultBasePort),
		Window:       port.DefaultWindow,
		DialTimeout:  port.DefaultTimeout,
		FetchTimeout: mediator.DefaultTimeout,
		Editor:       DefaultEditor(),
		LogLevel:     "warn",
		LogFormat:    "text",
	}
}

// Load builds the configuration from defaults and the process environment.
func Load() (*Config, error) {
	return LoadFrom(env.ProviderWithValue(envPrefix, ".", envKeyValue))
}

// LoadFrom builds the configuration from defaults, the given provider and
// $EDITOR. Load passes the BT_ environment provider.
func LoadFrom(provider koanf.Provider) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(provider, nil); err != nil {
		return nil, fmt.Errorf("load env vars: %w", err)
	}

	// EDITOR is a well-known unprefixed variable and gets its own provider.
	// Keys that merely start with EDITOR (EDITOR_OPTS, …) are skipped.
	editorEnv := env.ProviderWithValue("EDITOR", ".", func(key, value string) (string, interface{}) {
		if key != "EDITOR" || value == "" {
			return "", nil
		}
		return "editor", value
	})
	if err := k.Load(editorEnv, nil); err != nil {
		return nil, fmt.Errorf("load EDITOR: %w", err)
	}

	cfg := defaults()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envKeyValue maps BT_BASE_PORT to base_port. A variable set to the empty
// string is treated as unset.
func envKeyValue(key, value string) (string, interface{}) {
	if value == "" {
		return "", nil
	}
	return strings.ToLower(strings.TrimPrefix(key, envPrefix)), value
}

// Validate checks value ranges. It is called after env loading and again
// after flag overrides.
func (c *Config) Validate() error {
	if c.BasePort < 1 || c.BasePort > model.MaxPort {
		return fmt.Errorf("base port %d out of range (1-%d)", c.BasePort, model.MaxPort)
	}
	if c.Window < 1 {
		return fmt.Errorf("window %d must be at least 1", c.Window)
	}
	if c.BasePort+c.Window-1 > model.MaxPort {
		return fmt.Errorf("%w: base port %d with window %d", model.ErrPortRangeOverflow, c.BasePort, c.Window)
	}
	if c.DialTimeout <= 0 {
		return fmt.Errorf("dial timeout must be positive, got %s", c.DialTimeout)
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch timeout must not be negative, got %s", c.FetchTimeout)
	}
	if strings.TrimSpace(c.Editor) == "" {
		c.Editor = DefaultEditor()
	}
	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q (valid: debug, info, warn, error)", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (valid: text, json)", c.LogFormat)
	}
	return nil
}

// Base returns BasePort as a model.Port. Only valid after Validate.
func (c *Config) Base() model.Port {
	return model.Port(c.BasePort)
}
