package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/chapkde/internal/density"
	"github.com/san-kum/chapkde/internal/manifest"
	"github.com/san-kum/chapkde/internal/render"
	"github.com/san-kum/chapkde/internal/storage"
)

const (
	DefaultBandwidth = density.RuleSilverman
	DefaultRenderer  = "png"
)

type Config struct {
	Manifest   string `yaml:"manifest"`
	OutputRoot string `yaml:"output_root"`
	// Mode overrides the manifest run mode when set.
	Mode       string         `yaml:"mode,omitempty"`
	Bandwidth  string         `yaml:"default_bandwidth"`
	GridPoints int            `yaml:"grid_points"`
	Renderer   string         `yaml:"renderer"`
	Image      render.Options `yaml:"image"`
}

func DefaultConfig() *Config {
	return &Config{
		Manifest:   manifest.DefaultFile,
		OutputRoot: storage.DefaultRoot,
		Bandwidth:  DefaultBandwidth,
		GridPoints: density.DefaultGridPoints,
		Renderer:   DefaultRenderer,
		Image:      render.DefaultOptions(),
	}
}

func Load(path string) (*Config, error) {
	return LoadOver(path, DefaultConfig())
}

// LoadOver reads a config file on top of base; keys absent from the file
// keep their base values.
func LoadOver(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config %s: %w", path, density.ErrMissingFile)
		}
		return nil, err
	}
	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config %s: %v: %w", path, err, density.ErrParse)
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return storage.WriteFileAtomic(path, data, 0644)
}

// DefaultBandwidthMethod parses the configured default bandwidth.
func (c *Config) DefaultBandwidthMethod() (density.Bandwidth, error) {
	return density.ParseBandwidth(c.Bandwidth)
}

// ModeOverride returns the configured mode and whether one is set.
func (c *Config) ModeOverride() (manifest.Mode, bool, error) {
	if c.Mode == "" {
		return manifest.ModeLegacy, false, nil
	}
	m, err := manifest.ParseMode(c.Mode)
	if err != nil {
		return manifest.ModeLegacy, false, err
	}
	return m, true, nil
}

func (c *Config) Validate() error {
	if c.Manifest == "" || c.OutputRoot == "" {
		return fmt.Errorf("manifest and output_root are required: %w", density.ErrParse)
	}
	if c.GridPoints < 2 {
		return fmt.Errorf("grid_points %d below 2: %w", c.GridPoints, density.ErrParse)
	}
	bw, err := c.DefaultBandwidthMethod()
	if err != nil {
		return err
	}
	if err := bw.Validate(); err != nil {
		return err
	}
	if _, _, err := c.ModeOverride(); err != nil {
		return err
	}
	return nil
}
