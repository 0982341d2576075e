package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ReplenisherConfig tunes the background stock maintenance loop. All fields
// have working defaults so the file is optional.
type ReplenisherConfig struct {
	MinStock     int           `yaml:"min_stock"`
	Interval     time.Duration `yaml:"interval"`
	Difficulties []string      `yaml:"difficulties"`
	AppScale     string        `yaml:"app_scale"`
	Mode         string        `yaml:"mode"`
}

// UnmarshalYAML parses the interval from a duration string like "10m".
func (rc *ReplenisherConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		MinStock     int      `yaml:"min_stock"`
		Interval     string   `yaml:"interval"`
		Difficulties []string `yaml:"difficulties"`
		AppScale     string   `yaml:"app_scale"`
		Mode         string   `yaml:"mode"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	rc.MinStock = raw.MinStock
	rc.Difficulties = raw.Difficulties
	rc.AppScale = raw.AppScale
	rc.Mode = raw.Mode
	rc.Interval = 0
	if raw.Interval != "" {
		d, err := time.ParseDuration(raw.Interval)
		if err != nil {
			return fmt.Errorf("parse replenisher interval %q: %w", raw.Interval, err)
		}
		rc.Interval = d
	}
	return nil
}

type Config struct {
	Replenisher ReplenisherConfig `yaml:"replenisher"`
}

func Default() Config {
	return Config{
		Replenisher: ReplenisherConfig{
			MinStock:     5,
			Interval:     10 * time.Minute,
			Difficulties: []string{"easy", "medium", "hard"},
			AppScale:     "medium",
			Mode:         "both",
		},
	}
}

// Load reads the YAML config at path on top of the defaults. A missing file
// is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Replenisher.MinStock <= 0 {
		cfg.Replenisher.MinStock = Default().Replenisher.MinStock
	}
	if cfg.Replenisher.Interval <= 0 {
		cfg.Replenisher.Interval = Default().Replenisher.Interval
	}
	if len(cfg.Replenisher.Difficulties) == 0 {
		cfg.Replenisher.Difficulties = Default().Replenisher.Difficulties
	}
	if cfg.Replenisher.AppScale == "" {
		cfg.Replenisher.AppScale = Default().Replenisher.AppScale
	}
	if cfg.Replenisher.Mode == "" {
		cfg.Replenisher.Mode = Default().Replenisher.Mode
	}
	return cfg, nil
}
