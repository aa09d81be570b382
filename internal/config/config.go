// Package config loads xmd settings from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alnah/go-xmd/internal/fileutil"
	"github.com/alnah/go-xmd/internal/render"
	"github.com/alnah/go-xmd/internal/selectors"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Limits for numeric settings.
const (
	MaxDebounce      = 10 * time.Second
	MaxRenderTimeout = 5 * time.Minute
	MaxRenderInput   = 1 << 20
	MaxScrolls       = 200
	MaxCaptureWait   = 10 * time.Minute
)

// Config holds every xmd setting.
type Config struct {
	Log       LogConfig        `yaml:"log"`
	Watch     WatchConfig      `yaml:"watch"`
	Render    RenderConfig     `yaml:"render"`
	Selectors selectors.Config `yaml:"selectors"`
	Capture   CaptureConfig    `yaml:"capture"`
}

// LogConfig defines logging options.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// WatchConfig defines mutation watching options.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce"` // e.g. "100ms"
}

// RenderConfig defines formatting options.
type RenderConfig struct {
	Style         string        `yaml:"style"`         // chroma style for code blocks
	HardWraps     bool          `yaml:"hardWraps"`     // newline as <br>
	Fallback      bool          `yaml:"fallback"`      // plain text on failure instead of an error
	MaxInputBytes int           `yaml:"maxInputBytes"` // per post
	Timeout       time.Duration `yaml:"timeout"`
}

// CaptureConfig defines live page capture options.
type CaptureConfig struct {
	Scrolls   int           `yaml:"scrolls"`   // scroll steps after load
	Timeout   time.Duration `yaml:"timeout"`   // whole capture
	UserAgent string        `yaml:"userAgent"` // empty = browser default
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Log:   LogConfig{Level: "info"},
		Watch: WatchConfig{Debounce: 100 * time.Millisecond},
		Render: RenderConfig{
			Style:         render.DefaultStyle,
			HardWraps:     true,
			MaxInputBytes: render.DefaultMaxInputBytes,
			Timeout:       10 * time.Second,
		},
		Selectors: selectors.Default(),
		Capture: CaptureConfig{
			Scrolls: 5,
			Timeout: 90 * time.Second,
		},
	}
}

// Validate checks ranges and compiles the selectors.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: log.level %q (must be debug, info, warn, or error)", ErrInvalidValue, c.Log.Level)
	}

	if err := validateDuration("watch.debounce", c.Watch.Debounce, MaxDebounce); err != nil {
		return err
	}
	if err := validateDuration("render.timeout", c.Render.Timeout, MaxRenderTimeout); err != nil {
		return err
	}
	if err := validateDuration("capture.timeout", c.Capture.Timeout, MaxCaptureWait); err != nil {
		return err
	}

	if c.Render.Style != "" && !slices.Contains(render.Styles(), strings.ToLower(c.Render.Style)) {
		return fmt.Errorf("%w: render.style %q is not a known highlight style", ErrInvalidValue, c.Render.Style)
	}
	if c.Render.MaxInputBytes < 0 || c.Render.MaxInputBytes > MaxRenderInput {
		return fmt.Errorf("%w: render.maxInputBytes must be between 0 and %d, got %d", ErrInvalidValue, MaxRenderInput, c.Render.MaxInputBytes)
	}
	if c.Capture.Scrolls < 0 || c.Capture.Scrolls > MaxScrolls {
		return fmt.Errorf("%w: capture.scrolls must be between 0 and %d, got %d", ErrInvalidValue, MaxScrolls, c.Capture.Scrolls)
	}

	if _, err := selectors.Compile(c.Selectors.Merge(selectors.Default())); err != nil {
		return fmt.Errorf("%w: selectors: %v", ErrInvalidValue, err)
	}
	return nil
}

func validateDuration(field string, d, limit time.Duration) error {
	if d < 0 || d > limit {
		return fmt.Errorf("%w: %s must be between 0 and %s, got %s", ErrInvalidValue, field, limit, d)
	}
	return nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Fields missing from the file keep their defaults.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := unmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	cfg.Selectors = cfg.Selectors.Merge(selectors.Default())
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SearchPaths lists where a config name is looked up, in order: .yaml
// then .yml, in the current directory then the user config directory.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if dir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(dir, "go-xmd", name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing file from SearchPaths.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
