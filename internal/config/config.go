package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// SurfaceClass describes one family of embedded render surfaces: the child
// window classes that carry the actual drawable area inside an outer frame,
// plus the minimum size used to reject preview thumbnails.
type SurfaceClass struct {
	Classes   []string `yaml:"classes"`
	MinWidth  int      `yaml:"min_width"`
	MinHeight int      `yaml:"min_height"`
}

// Config holds the coordinate-core configuration.
type Config struct {
	// Canonical reference space automation coordinates are authored in.
	ReferenceWidth  int `yaml:"reference_width"`
	ReferenceHeight int `yaml:"reference_height"`
	ReferenceDPI    int `yaml:"reference_dpi"`

	// Window state cache and DPI monitor.
	CacheTTLMs         int `yaml:"cache_ttl_ms"`
	PollIntervalMs     int `yaml:"poll_interval_ms"`
	DPIChangeThreshold int `yaml:"dpi_change_threshold"`

	// Client-area resize. Tolerances are empirically tuned per front-end,
	// so they stay configurable.
	ResizeTolerancePx int  `yaml:"resize_tolerance_px"`
	SettleDelayMs     int  `yaml:"settle_delay_ms"`
	FineTune          bool `yaml:"fine_tune"`

	// Isolation executor.
	ActivationCooldownMs int `yaml:"activation_cooldown_ms"`

	// Known embedded-render-surface families, keyed by kind name as it
	// appears in decorated binding titles ("Name [kind]").
	SurfaceClasses map[string]SurfaceClass `yaml:"surface_classes"`

	LogLevel string `yaml:"log_level"`
}

// ValidationError reports an invalid configuration value with its yaml path.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		ReferenceWidth:       1280,
		ReferenceHeight:      720,
		ReferenceDPI:         96,
		CacheTTLMs:           250,
		PollIntervalMs:       3000,
		DPIChangeThreshold:   1,
		ResizeTolerancePx:    8,
		SettleDelayMs:        150,
		FineTune:             true,
		ActivationCooldownMs: 500,
		SurfaceClasses: map[string]SurfaceClass{
			"mumu": {
				Classes:   []string{"nemudisplay"},
				MinWidth:  200,
				MinHeight: 200,
			},
			"ldplayer": {
				Classes:   []string{"RenderWindow", "TheRender"},
				MinWidth:  200,
				MinHeight: 200,
			},
			"memu": {
				Classes:   []string{"subWin"},
				MinWidth:  200,
				MinHeight: 200,
			},
		},
		LogLevel: "info",
	}
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLMs) * time.Millisecond
}

// PollInterval returns the DPI monitor poll interval as a duration.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// SettleDelay returns the post-resize settle delay as a duration.
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMs) * time.Millisecond
}

// ActivationCooldown returns the activation rate-limit as a duration.
func (c *Config) ActivationCooldown() time.Duration {
	return time.Duration(c.ActivationCooldownMs) * time.Millisecond
}

// ReferenceScale returns the scale factor of the reference DPI against the
// 96dpi baseline.
func (c *Config) ReferenceScale() float64 {
	return float64(c.ReferenceDPI) / 96.0
}

// SurfaceKind looks up a surface family by kind name. The empty kind means
// no render-surface hint.
func (c *Config) SurfaceKind(kind string) (SurfaceClass, bool) {
	sc, ok := c.SurfaceClasses[kind]
	return sc, ok
}

// IsSurfaceClass reports whether a window class belongs to any configured
// render-surface family.
func (c *Config) IsSurfaceClass(class string) bool {
	if class == "" {
		return false
	}
	for _, sc := range c.SurfaceClasses {
		for _, known := range sc.Classes {
			if known == class {
				return true
			}
		}
	}
	return false
}

// Validate performs strict validation of the effective configuration.
func (c *Config) Validate() error {
	if c.ReferenceWidth <= 0 || c.ReferenceHeight <= 0 {
		return &ValidationError{Path: "reference_width/reference_height", Err: fmt.Errorf("reference size must be positive")}
	}
	if c.ReferenceDPI <= 0 {
		return &ValidationError{Path: "reference_dpi", Err: fmt.Errorf("reference_dpi must be positive")}
	}
	if c.CacheTTLMs <= 0 {
		return &ValidationError{Path: "cache_ttl_ms", Err: fmt.Errorf("cache_ttl_ms must be positive")}
	}
	if c.PollIntervalMs <= 0 {
		return &ValidationError{Path: "poll_interval_ms", Err: fmt.Errorf("poll_interval_ms must be positive")}
	}
	if c.DPIChangeThreshold < 1 {
		return &ValidationError{Path: "dpi_change_threshold", Err: fmt.Errorf("dpi_change_threshold must be >= 1")}
	}
	if c.ResizeTolerancePx < 0 {
		return &ValidationError{Path: "resize_tolerance_px", Err: fmt.Errorf("resize_tolerance_px must be >= 0")}
	}
	if c.SettleDelayMs < 0 {
		return &ValidationError{Path: "settle_delay_ms", Err: fmt.Errorf("settle_delay_ms must be >= 0")}
	}
	if c.ActivationCooldownMs < 0 {
		return &ValidationError{Path: "activation_cooldown_ms", Err: fmt.Errorf("activation_cooldown_ms must be >= 0")}
	}
	for kind, sc := range c.SurfaceClasses {
		if len(sc.Classes) == 0 {
			return &ValidationError{Path: "surface_classes." + kind + ".classes", Err: fmt.Errorf("classes must not be empty")}
		}
		if sc.MinWidth < 0 || sc.MinHeight < 0 {
			return &ValidationError{Path: "surface_classes." + kind, Err: fmt.Errorf("min_width/min_height must be >= 0")}
		}
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Path: "log_level", Err: fmt.Errorf("log_level must be one of: debug, info, warn, error")}
	}
	return nil
}

// DefaultConfigPath returns the standard config file location.
func DefaultConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "autowin", "config.yaml"), nil
}

// Load reads the config file at path, falling back to defaults for a
// missing file. Values absent from the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the standard location.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}

	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
