package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alnah/go-xmd/internal/config"
)

// envConfig holds configuration from XMD_* environment variables.
type envConfig struct {
	ConfigPath    string        // XMD_CONFIG: config file name or path
	LogLevel      string        // XMD_LOG_LEVEL: debug, info, warn, error
	Style         string        // XMD_STYLE: highlight style
	Debounce      time.Duration // XMD_DEBOUNCE: mutation debounce
	RenderTimeout time.Duration // XMD_RENDER_TIMEOUT: per-post formatting bound
}

// knownEnvVars lists valid XMD_* environment variables.
var knownEnvVars = map[string]bool{
	"XMD_CONFIG":         true,
	"XMD_LOG_LEVEL":      true,
	"XMD_STYLE":          true,
	"XMD_DEBOUNCE":       true,
	"XMD_RENDER_TIMEOUT": true,
}

// loadEnvConfig reads the XMD_* variables. Unparsable durations are
// reported as errors rather than ignored.
func loadEnvConfig() (*envConfig, error) {
	cfg := &envConfig{
		ConfigPath: os.Getenv("XMD_CONFIG"),
		LogLevel:   os.Getenv("XMD_LOG_LEVEL"),
		Style:      os.Getenv("XMD_STYLE"),
	}

	var err error
	if cfg.Debounce, err = envDuration("XMD_DEBOUNCE"); err != nil {
		return nil, err
	}
	if cfg.RenderTimeout, err = envDuration("XMD_RENDER_TIMEOUT"); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envDuration(name string) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(name))
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %s=%q must be a positive duration", config.ErrInvalidValue, name, v)
	}
	return d, nil
}

// warnUnknownEnvVars prints a warning for unrecognized XMD_* variables,
// which are usually typos.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if !strings.HasPrefix(env, "XMD_") {
			continue
		}
		name, _, _ := strings.Cut(env, "=")
		if !knownEnvVars[name] {
			fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
		}
	}
}

// applyEnvConfig overlays set variables on cfg. Flags are applied after,
// so the precedence is flags > env > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	if env.LogLevel != "" {
		cfg.Log.Level = env.LogLevel
	}
	if env.Style != "" {
		cfg.Render.Style = env.Style
	}
	if env.Debounce > 0 {
		cfg.Watch.Debounce = env.Debounce
	}
	if env.RenderTimeout > 0 {
		cfg.Render.Timeout = env.RenderTimeout
	}
}
