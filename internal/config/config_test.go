package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Replenisher.MinStock != 5 {
		t.Fatalf("MinStock = %d, want 5", cfg.Replenisher.MinStock)
	}
	if cfg.Replenisher.Interval != 10*time.Minute {
		t.Fatalf("Interval = %v, want 10m", cfg.Replenisher.Interval)
	}
	if len(cfg.Replenisher.Difficulties) != 3 {
		t.Fatalf("Difficulties = %v, want all three tiers", cfg.Replenisher.Difficulties)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
replenisher:
  min_stock: 12
  interval: 30s
  difficulties: [easy]
  app_scale: large
  mode: db_only
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Replenisher.MinStock != 12 {
		t.Fatalf("MinStock = %d, want 12", cfg.Replenisher.MinStock)
	}
	if cfg.Replenisher.Interval != 30*time.Second {
		t.Fatalf("Interval = %v, want 30s", cfg.Replenisher.Interval)
	}
	if len(cfg.Replenisher.Difficulties) != 1 || cfg.Replenisher.Difficulties[0] != "easy" {
		t.Fatalf("Difficulties = %v, want [easy]", cfg.Replenisher.Difficulties)
	}
	if cfg.Replenisher.AppScale != "large" || cfg.Replenisher.Mode != "db_only" {
		t.Fatalf("AppScale/Mode = %s/%s", cfg.Replenisher.AppScale, cfg.Replenisher.Mode)
	}
}

func TestLoadRepairsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	raw := `
replenisher:
  min_stock: -3
  interval: 0s
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Replenisher.MinStock != 5 || cfg.Replenisher.Interval != 10*time.Minute {
		t.Fatalf("invalid values not repaired: %+v", cfg.Replenisher)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("replenisher: ["), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("malformed YAML accepted")
	}
}
