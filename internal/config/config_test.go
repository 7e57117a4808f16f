package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("defaults failed validation: %v", err)
	}
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.ReferenceWidth != 1280 || cfg.ReferenceHeight != 720 || cfg.ReferenceDPI != 96 {
		t.Fatalf("unexpected reference space: %dx%d@%d", cfg.ReferenceWidth, cfg.ReferenceHeight, cfg.ReferenceDPI)
	}
	if cfg.CacheTTL() != 250*time.Millisecond {
		t.Fatalf("unexpected cache ttl: %v", cfg.CacheTTL())
	}
	if cfg.PollInterval() != 3*time.Second {
		t.Fatalf("unexpected poll interval: %v", cfg.PollInterval())
	}
	if cfg.ReferenceScale() != 1.0 {
		t.Fatalf("unexpected reference scale: %v", cfg.ReferenceScale())
	}
}

func TestSurfaceClassLookups(t *testing.T) {
	cfg := DefaultConfig()

	if _, ok := cfg.SurfaceKind("mumu"); !ok {
		t.Fatal("mumu surface kind missing from defaults")
	}
	if _, ok := cfg.SurfaceKind(""); ok {
		t.Fatal("empty kind should not resolve")
	}

	if !cfg.IsSurfaceClass("nemudisplay") || !cfg.IsSurfaceClass("RenderWindow") {
		t.Fatal("known surface classes not recognized")
	}
	if cfg.IsSurfaceClass("Qt5Window") || cfg.IsSurfaceClass("") {
		t.Fatal("unrelated class recognized as surface")
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"zero reference width", func(c *Config) { c.ReferenceWidth = 0 }, "reference_width/reference_height"},
		{"negative reference dpi", func(c *Config) { c.ReferenceDPI = -96 }, "reference_dpi"},
		{"zero cache ttl", func(c *Config) { c.CacheTTLMs = 0 }, "cache_ttl_ms"},
		{"zero poll interval", func(c *Config) { c.PollIntervalMs = 0 }, "poll_interval_ms"},
		{"zero dpi threshold", func(c *Config) { c.DPIChangeThreshold = 0 }, "dpi_change_threshold"},
		{"negative tolerance", func(c *Config) { c.ResizeTolerancePx = -1 }, "resize_tolerance_px"},
		{"negative settle delay", func(c *Config) { c.SettleDelayMs = -1 }, "settle_delay_ms"},
		{"negative cooldown", func(c *Config) { c.ActivationCooldownMs = -1 }, "activation_cooldown_ms"},
		{"empty surface classes", func(c *Config) {
			c.SurfaceClasses["broken"] = SurfaceClass{}
		}, "surface_classes.broken.classes"},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q", tt.path, verr.Path)
			}
		})
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file is not an error: %v", err)
	}
	if cfg.ReferenceWidth != 1280 || cfg.LogLevel != "info" {
		t.Fatalf("missing file did not fall back to defaults: %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
reference_width: 1920
reference_height: 1080
cache_ttl_ms: 500
log_level: debug
surface_classes:
  custom:
    classes: [MyRender]
    min_width: 100
    min_height: 100
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ReferenceWidth != 1920 || cfg.ReferenceHeight != 1080 {
		t.Fatalf("overrides not applied: %dx%d", cfg.ReferenceWidth, cfg.ReferenceHeight)
	}
	if cfg.CacheTTL() != 500*time.Millisecond {
		t.Fatalf("unexpected cache ttl: %v", cfg.CacheTTL())
	}
	// Values absent from the file keep their defaults.
	if cfg.PollIntervalMs != 3000 || !cfg.FineTune {
		t.Fatalf("untouched values lost their defaults: %+v", cfg)
	}
	if !cfg.IsSurfaceClass("MyRender") {
		t.Fatal("custom surface class not loaded")
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log_level: verbose\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected validation error for bad log level")
	}
}
